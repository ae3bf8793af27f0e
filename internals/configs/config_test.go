package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
)

func TestMail_FallsBackToSMTPVariables(t *testing.T) {
	for _, k := range []string{"EMAIL_HOST", "EMAIL_PORT", "EMAIL_USER", "EMAIL_PASS", "EMAIL_FROM", "SMTP_FROM"} {
		t.Setenv(k, "")
	}
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_USER", "bot@example.com")
	t.Setenv("SMTP_PASS", "secret")
	t.Setenv("OPERATOR_EMAIL", "bursar@example.com")

	cfg := Mail()
	assert.Equal(t, "smtp.example.com", cfg.Host)
	assert.Equal(t, 2525, cfg.Port)
	assert.Equal(t, "bot@example.com", cfg.From)
	assert.Equal(t, "secret", cfg.Password)
	assert.True(t, cfg.Enabled())

	t.Setenv("EMAIL_HOST", "mail.school.test")
	t.Setenv("EMAIL_PORT", "465")
	assert.Equal(t, "mail.school.test", Mail().Host)
	assert.Equal(t, 465, Mail().Port)
}

func TestPayment_Defaults(t *testing.T) {
	t.Setenv("PAYMENT_TRUST_CLIENT_AMOUNT", "")
	t.Setenv("NOTIFY_TIMEOUT", "not-a-duration")
	cfg := Payment()
	assert.False(t, cfg.TrustClientAmount)
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)

	t.Setenv("PAYMENT_TRUST_CLIENT_AMOUNT", "true")
	assert.True(t, Payment().TrustClientAmount)
}

func TestRazorpayAndMidtrans(t *testing.T) {
	t.Setenv("RAZORPAY_CURRENCY", "inr")
	t.Setenv("RAZORPAY_TIMEOUT", "3s")
	t.Setenv("MIDTRANS_SERVER_KEY", "")
	assert.Equal(t, "INR", Razorpay().Currency)
	assert.Equal(t, 3*time.Second, Razorpay().Timeout)
	assert.False(t, Midtrans().Enabled())

	t.Setenv("MIDTRANS_SERVER_KEY", "SB-key")
	t.Setenv("MIDTRANS_USE_PROD", "yes-please")
	assert.True(t, Midtrans().Enabled())
	assert.False(t, Midtrans().UseProduction)
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	base := NewGormLogger(zap.NewNop()).(*GormLogger)
	silent := base.LogMode(gormLogger.Silent).(*GormLogger)
	assert.Equal(t, gormLogger.Warn, base.LogLevel)
	assert.Equal(t, gormLogger.Silent, silent.LogLevel)
}
