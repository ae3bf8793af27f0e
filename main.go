package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"schoolfee_backend/internals/configs"
	database "schoolfee_backend/internals/databases"
	feeController "schoolfee_backend/internals/features/finance/fees/controller"
	feeRepo "schoolfee_backend/internals/features/finance/fees/repository"
	feeScheduler "schoolfee_backend/internals/features/finance/fees/scheduler"
	feeService "schoolfee_backend/internals/features/finance/fees/service"
	realtimeController "schoolfee_backend/internals/features/realtime/controller"
	realtime "schoolfee_backend/internals/features/realtime/service"
	helper "schoolfee_backend/internals/helpers"
	middlewares "schoolfee_backend/internals/middlewares"
	authMiddleware "schoolfee_backend/internals/middlewares/auth"
	routes "schoolfee_backend/internals/route"
)

func main() {
	configs.LoadEnv()

	logger, err := configs.NewLogger(configs.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            helper.ErrorHandler,
		BodyLimit:               1 << 20,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	// ⚙️ middleware dasar + performa
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New(etag.Config{
		Next: func(c *fiber.Ctx) bool { return c.Method() != fiber.MethodGet },
	}))
	middlewares.SetupMiddlewares(app, logger)

	// 🔌 DB connect + pool + migrate
	if err := database.ConnectDB(logger); err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	if err := database.TunePool(); err != nil {
		logger.Warn("pool tune", zap.Error(err))
	}
	if err := database.Migrate(); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	store := feeRepo.NewGormStore(database.DB)

	// ⏱ scheduler setelah DB siap
	elcfg := configs.EventLog()
	reaper, err := feeScheduler.NewGatewayEventReaper(store, logger.Named("reaper"), feeScheduler.ReaperConfig{
		RetentionDays: elcfg.RetentionDays,
		CronSchedule:  elcfg.CronSchedule,
	}).Start()
	if err != nil {
		logger.Fatal("gateway event reaper", zap.Error(err))
	}

	// 🔴 Redis (opsional): blacklist token + fan-out realtime antar instance
	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	rcfg := configs.Redis()
	var rdb *redis.Client
	if rcfg.Enabled() {
		opt, err := redis.ParseURL(rcfg.URL)
		if err != nil {
			logger.Fatal("redis url", zap.Error(err))
		}
		if rcfg.Password != "" {
			opt.Password = rcfg.Password
		}
		if rcfg.DB != 0 {
			opt.DB = rcfg.DB
		}
		rdb = redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(rootCtx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Fatal("redis ping", zap.Error(err))
		}
		cancel()
	}

	// 📡 Realtime hub
	hub := realtime.NewHub(logger.Named("realtime"), realtime.DefaultClientBuffer)
	var broadcaster feeService.Broadcaster = hub
	if rdb != nil {
		sub := realtime.NewRedisSubscriber(rdb, rcfg.Channel, hub, logger.Named("realtime"))
		if err := sub.Start(rootCtx); err != nil {
			logger.Fatal("realtime subscriber", zap.Error(err))
		}
		broadcaster = realtime.NewRedisPublisher(rdb, rcfg.Channel)
	}

	// ✉️ Email operator
	var mailer feeService.Mailer
	if mailCfg := configs.Mail(); mailCfg.Enabled() {
		m, err := feeService.NewSMTPMailer(feeService.SMTPOptions{
			Host:     mailCfg.Host,
			Port:     mailCfg.Port,
			Username: mailCfg.Username,
			Password: mailCfg.Password,
			From:     mailCfg.From,
			To:       mailCfg.Operator,
		})
		if err != nil {
			logger.Fatal("smtp", zap.Error(err))
		}
		mailer = m
	} else {
		logger.Warn("email notifier disabled (EMAIL_HOST / OPERATOR_EMAIL not set)")
	}

	pcfg := configs.Payment()
	notifier := feeService.NewNotifier(mailer, broadcaster, logger.Named("notifier"), pcfg.NotifyTimeout)

	// 💳 Gateways
	rzcfg := configs.Razorpay()
	rzClient := razorpay.NewClient(rzcfg.KeyID, rzcfg.KeySecret)
	rzGateway := feeService.NewRazorpayGateway(rzClient.Order, rzcfg.Currency)

	var midGateway feeService.Gateway
	mcfg := configs.Midtrans()
	if mcfg.Enabled() {
		midGateway = feeService.NewMidtransGateway(feeService.NewSnapClient(mcfg.ServerKey, mcfg.UseProduction))
	}

	reconciler := feeService.NewReconciler(store, rzGateway, notifier, logger.Named("reconciler"), feeService.ReconcilerOptions{
		KeySecret:         rzcfg.KeySecret,
		TrustClientAmount: pcfg.TrustClientAmount,
		Exponent:          rzGateway.Exponent(),
		Currency:          rzGateway.Currency(),
		FetchTimeout:      rzcfg.Timeout,
	})

	feeCtl := feeController.NewFeePaymentController(feeController.Deps{
		Issuer:            feeService.NewOrderIssuer(store, logger.Named("orders"), rzcfg.Timeout),
		Reconciler:        reconciler,
		Store:             store,
		Razorpay:          rzGateway,
		Midtrans:          midGateway,
		RazorpayKeyID:     rzcfg.KeyID,
		WebhookSecret:     rzcfg.WebhookSecret,
		MidtransServerKey: mcfg.ServerKey,
		Log:               logger.Named("fees"),
	})

	authOpts := authMiddleware.Options{Secret: configs.JWTSecret, Log: logger.Named("auth")}
	health := routes.HealthChecks{"database": database.Ping}
	if rdb != nil {
		authOpts.Blacklist = authMiddleware.NewRedisBlacklist(rdb)
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// ✅ Routes
	routes.SetupRoutes(app, routes.Deps{
		Auth:   authOpts,
		Fees:   feeCtl,
		Stream: realtimeController.NewFeeEventStreamController(hub, logger.Named("ws")),
		Health: health,
		Log:    logger,
	})

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "3000")

	go func() {
		logger.Info("✅ Listening", zap.String("port", port))
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown: stop HTTP, tunggu notifikasi, tutup hub/redis/DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	notifier.Wait()
	<-reaper.Stop().Done()
	stopBackground()
	hub.Close()
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := database.Close(); err != nil {
		logger.Warn("db close", zap.Error(err))
	}
}
