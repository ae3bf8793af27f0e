package auth

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"schoolfee_backend/internals/constants"
	helper "schoolfee_backend/internals/helpers"
)

const secret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func newApp(t *testing.T, bl Blacklist, roles ...string) *fiber.App {
	app := fiber.New()
	handlers := []fiber.Handler{AuthJWT(Options{Secret: secret, Blacklist: bl, Log: zaptest.NewLogger(t)})}
	if len(roles) > 0 {
		handlers = append(handlers, OnlyRoles("nope", roles...))
	}
	handlers = append(handlers, func(c *fiber.Ctx) error {
		sid := helper.GetStudentIDFromToken(c)
		out := helper.GetRoleFromToken(c)
		if sid != nil {
			out += ":" + sid.String()
		}
		return c.SendString(out)
	})
	app.Get("/", handlers...)
	return app
}

func do(t *testing.T, app *fiber.App, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestAuthJWT_StoresClaims(t *testing.T) {
	studentID := uuid.New()
	tok := sign(t, jwt.MapClaims{
		"id":         uuid.NewString(),
		"role":       "Student",
		"student_id": studentID.String(),
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	code, body := do(t, newApp(t, nil), tok)
	assert.Equal(t, 200, code)
	assert.Equal(t, "student:"+studentID.String(), body)
}

func TestAuthJWT_Rejects(t *testing.T) {
	app := newApp(t, nil)
	valid := jwt.MapClaims{"id": uuid.NewString(), "role": "admin", "exp": time.Now().Add(time.Hour).Unix()}

	code, _ := do(t, app, "")
	assert.Equal(t, 401, code, "missing token")

	expired := jwt.MapClaims{"id": uuid.NewString(), "role": "admin", "exp": time.Now().Add(-time.Hour).Unix()}
	code, _ = do(t, app, sign(t, expired))
	assert.Equal(t, 401, code, "expired")

	noID := jwt.MapClaims{"role": "admin", "exp": time.Now().Add(time.Hour).Unix()}
	code, _ = do(t, app, sign(t, noID))
	assert.Equal(t, 401, code, "no user id")

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, valid).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	code, _ = do(t, app, other)
	assert.Equal(t, 401, code, "wrong secret")
}

func TestAuthJWT_CookieFallback(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"id": uuid.NewString(), "role": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Cookie", "access_token="+tok)
	resp, err := newApp(t, nil).Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestOnlyRoles(t *testing.T) {
	app := newApp(t, nil, constants.AdminOnly...)
	student := sign(t, jwt.MapClaims{"id": uuid.NewString(), "role": "student", "exp": time.Now().Add(time.Hour).Unix()})
	admin := sign(t, jwt.MapClaims{"id": uuid.NewString(), "role": "admin", "exp": time.Now().Add(time.Hour).Unix()})

	code, _ := do(t, app, student)
	assert.Equal(t, 403, code)
	code, _ = do(t, app, admin)
	assert.Equal(t, 200, code)
}

func TestAuthJWT_RedisBlacklist(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	bl := NewRedisBlacklist(rdb)

	tok := sign(t, jwt.MapClaims{"id": uuid.NewString(), "role": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	app := newApp(t, bl)

	code, _ := do(t, app, tok)
	assert.Equal(t, 200, code)

	require.NoError(t, bl.Revoke(context.Background(), tok, time.Minute))
	code, _ = do(t, app, tok)
	assert.Equal(t, 401, code)

	mr.FastForward(2 * time.Minute)
	code, _ = do(t, app, tok)
	assert.Equal(t, 200, code)
}
