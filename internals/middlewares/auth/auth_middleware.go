// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	helper "schoolfee_backend/internals/helpers"
)

// Blacklist mencatat token yang sudah logout / dicabut.
type Blacklist interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type Options struct {
	Secret    string
	Blacklist Blacklist // nil = tanpa cek blacklist
	Log       *zap.Logger
	ExpSkew   time.Duration
}

// AuthJWT memverifikasi HMAC JWT (header Authorization atau cookie access_token)
// lalu menyimpan user_id, userRole, student_id ke Locals.
func AuthJWT(opts Options) fiber.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ExpSkew <= 0 {
		opts.ExpSkew = 30 * time.Second
	}

	return func(c *fiber.Ctx) error {
		// 1) Ambil Authorization (atau cookie)
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
		}

		// 2) Secret wajib ada
		if opts.Secret == "" {
			log.Error("JWT secret is empty")
			return helper.JsonError(c, fiber.StatusInternalServerError, "Missing JWT Secret")
		}

		// 3) Cek blacklist
		if opts.Blacklist != nil {
			revoked, err := opts.Blacklist.IsRevoked(c.UserContext(), tokenString)
			if err != nil {
				log.Error("token blacklist lookup failed", zap.Error(err))
				return helper.JsonError(c, fiber.StatusInternalServerError, "Internal Server Error")
			}
			if revoked {
				return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - Token is blacklisted")
			}
		}

		// 4) Parse & verifikasi signature (exp dicek manual dengan skew)
		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true, ValidMethods: []string{"HS256", "HS384", "HS512"}}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(opts.Secret), nil
		}); err != nil {
			log.Info("token parse failed", zap.Error(err))
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}

		// 5) Validasi exp
		if err := validateTokenExpiry(claims, opts.ExpSkew); err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		// 6) user_id wajib
		userID, err := extractUserID(claims)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}
		c.Locals(helper.LocalUserID, userID.String())

		// 7) role, student_id, user_name
		storeBasicClaimsToLocals(c, claims)

		return c.Next()
	}
}
