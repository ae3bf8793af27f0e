package configs

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	JWTSecret string
	AppEnv    string
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ Tidak menemukan .env file, menggunakan ENV dari sistem")
		} else {
			log.Println("✅ .env file berhasil dimuat!")
		}
	} else {
		log.Println("🚀 Running in Railway, menggunakan ENV dari sistem")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	AppEnv = strings.ToLower(GetEnv("APP_ENV", "production"))

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET belum diset!")
	}
	if GetEnv("RAZORPAY_KEY_SECRET") == "" {
		log.Println("❌ RAZORPAY_KEY_SECRET belum diset! verify-payment akan selalu ditolak")
	}
	if GetEnv("RAZORPAY_WEBHOOK_SECRET") == "" {
		log.Println("❌ RAZORPAY_WEBHOOK_SECRET belum diset! webhook akan selalu ditolak")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// firstEnv: nilai pertama yang tidak kosong dari beberapa nama env.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// =======================
// TYPED CONFIG
// =======================

type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
}

func Razorpay() RazorpayConfig {
	return RazorpayConfig{
		KeyID:         GetEnv("RAZORPAY_KEY_ID"),
		KeySecret:     GetEnv("RAZORPAY_KEY_SECRET"),
		WebhookSecret: GetEnv("RAZORPAY_WEBHOOK_SECRET"),
		Currency:      strings.ToUpper(GetEnv("RAZORPAY_CURRENCY", "INR")),
		Timeout:       envDuration("RAZORPAY_TIMEOUT", 10*time.Second),
	}
}

type MidtransConfig struct {
	ServerKey     string
	UseProduction bool
}

func (c MidtransConfig) Enabled() bool { return c.ServerKey != "" }

func Midtrans() MidtransConfig {
	return MidtransConfig{
		ServerKey:     GetEnv("MIDTRANS_SERVER_KEY"),
		UseProduction: envBool("MIDTRANS_USE_PROD", false),
	}
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Operator string
}

func (c MailConfig) Enabled() bool { return c.Host != "" && c.Operator != "" }

// Mail: EMAIL_* diutamakan, SMTP_* sebagai fallback.
func Mail() MailConfig {
	port := envInt("EMAIL_PORT", 0)
	if port == 0 {
		port = envInt("SMTP_PORT", 587)
	}
	user := firstEnv("EMAIL_USER", "SMTP_USER")
	from := firstEnv("EMAIL_FROM", "SMTP_FROM")
	if from == "" {
		from = user
	}
	return MailConfig{
		Host:     firstEnv("EMAIL_HOST", "SMTP_HOST"),
		Port:     port,
		Username: user,
		Password: firstEnv("EMAIL_PASS", "SMTP_PASS"),
		From:     from,
		Operator: firstEnv("OPERATOR_EMAIL", "EMAIL_TO"),
	}
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	Channel  string
}

func (c RedisConfig) Enabled() bool { return c.URL != "" }

func Redis() RedisConfig {
	return RedisConfig{
		URL:      GetEnv("REDIS_URL"),
		Password: GetEnv("REDIS_PASSWORD"),
		DB:       envInt("REDIS_DB", 0),
		Channel:  GetEnv("REDIS_REALTIME_CHANNEL", "schoolfee:realtime"),
	}
}

type PaymentConfig struct {
	TrustClientAmount bool
	NotifyTimeout     time.Duration
}

func Payment() PaymentConfig {
	return PaymentConfig{
		TrustClientAmount: envBool("PAYMENT_TRUST_CLIENT_AMOUNT", false),
		NotifyTimeout:     envDuration("NOTIFY_TIMEOUT", 10*time.Second),
	}
}

type EventLogConfig struct {
	RetentionDays int
	CronSchedule  string
}

func EventLog() EventLogConfig {
	return EventLogConfig{
		RetentionDays: envInt("GATEWAY_EVENT_RETENTION_DAYS", 90),
		CronSchedule:  GetEnv("GATEWAY_EVENT_REAPER_CRON", "15 3 * * *"),
	}
}
