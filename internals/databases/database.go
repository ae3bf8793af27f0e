package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"schoolfee_backend/internals/configs"
	feeModel "schoolfee_backend/internals/features/finance/fees/model"
)

var DB *gorm.DB

func ConnectDB(log *zap.Logger) error {
	log.Info("🔌 Koneksi ke PostgreSQL...")

	// statement_timeout selaras dengan timeout request (5s)
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=schoolfee&options=-c statement_timeout=3000",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			configs.GetEnv("DB_PORT", "5432"),
			os.Getenv("DB_NAME"),
			configs.GetEnv("DB_SSLMODE", "require"),
		)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger: configs.NewGormLogger(log),
	})
	if err != nil {
		return fmt.Errorf("gagal konek DB: %w", err)
	}
	DB = db
	log.Info("✅ DB connected.")
	return nil
}

func TunePool() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
	return nil
}

// Migrate membuat/menyesuaikan tabel fee (fee_accounts, fee_payment_entries, fee_gateway_events).
func Migrate() error {
	if err := DB.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	return DB.AutoMigrate(
		&feeModel.FeeAccount{},
		&feeModel.PaymentEntry{},
		&feeModel.GatewayEvent{},
	)
}

func Ping(ctx context.Context) error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
