package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"schoolfee_backend/internals/features/finance/fees/model"
	"schoolfee_backend/internals/features/finance/fees/repository"
)

type ReaperConfig struct {
	RetentionDays int
	CronSchedule  string // default: tiap hari 03:15
	RunTimeout    time.Duration
}

// status yang aman dihapus; received & failed disimpan untuk investigasi
var purgeableStatuses = []model.GatewayEventStatus{
	model.GatewayEventProcessed,
	model.GatewayEventIgnored,
	model.GatewayEventRejected,
}

type GatewayEventReaper struct {
	Store repository.Store
	Log   *zap.Logger
	Cfg   ReaperConfig

	now func() time.Time
}

func NewGatewayEventReaper(store repository.Store, log *zap.Logger, cfg ReaperConfig) *GatewayEventReaper {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 90
	}
	if cfg.CronSchedule == "" {
		cfg.CronSchedule = "15 3 * * *"
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 4 * time.Minute
	}
	return &GatewayEventReaper{Store: store, Log: log, Cfg: cfg, now: time.Now}
}

// Start mendaftarkan job cron; panggil Stop() pada cron yang dikembalikan saat shutdown.
func (r *GatewayEventReaper) Start() (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(r.Cfg.CronSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.Cfg.RunTimeout)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			r.Log.Error("gateway event reaper failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("add cron %q: %w", r.Cfg.CronSchedule, err)
	}
	r.Log.Info("gateway event reaper started",
		zap.String("schedule", r.Cfg.CronSchedule),
		zap.Int("retention_days", r.Cfg.RetentionDays))
	c.Start()
	return c, nil
}

func (r *GatewayEventReaper) RunOnce(ctx context.Context) (int64, error) {
	threshold := r.now().Add(-time.Duration(r.Cfg.RetentionDays) * 24 * time.Hour)
	n, err := r.Store.PurgeGatewayEvents(ctx, threshold, purgeableStatuses)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.Log.Info("gateway events purged",
			zap.Int64("rows", n),
			zap.Time("before", threshold))
	}
	return n, nil
}
