package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Kunci Locals yang diisi AuthJWT.
const (
	LocalUserID    = "user_id"
	LocalRole      = "userRole"
	LocalStudentID = "student_id"
	LocalRequestID = "request_id"
)

// Ambil user_id dari c.Locals("user_id")
// Return 401 kalau belum login, 400 kalau formatnya tidak valid.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok, err := uuidLocal(c, LocalUserID)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "User ID pada token tidak valid")
	}
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "User belum login")
	}
	return id, nil
}

func GetRoleFromToken(c *fiber.Ctx) string {
	role, _ := c.Locals(LocalRole).(string)
	return strings.ToLower(strings.TrimSpace(role))
}

// GetStudentIDFromToken returns nil when the token carries no student_id (admin, staff).
func GetStudentIDFromToken(c *fiber.Ctx) *uuid.UUID {
	id, ok, err := uuidLocal(c, LocalStudentID)
	if err != nil || !ok {
		return nil
	}
	return &id
}

func uuidLocal(c *fiber.Ctx, key string) (uuid.UUID, bool, error) {
	var s string
	switch t := c.Locals(key).(type) {
	case nil:
		return uuid.Nil, false, nil
	case uuid.UUID:
		if t == uuid.Nil {
			return uuid.Nil, false, nil
		}
		return t, true, nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return uuid.Nil, false, fiber.ErrBadRequest
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}
