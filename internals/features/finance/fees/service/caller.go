package service

import (
	"github.com/google/uuid"

	"schoolfee_backend/internals/constants"
	"schoolfee_backend/internals/features/finance/fees/model"
)

// Caller is the authenticated principal, taken from the JWT claims.
type Caller struct {
	UserID    uuid.UUID
	Role      string
	StudentID *uuid.UUID
}

func (c Caller) IsAdmin() bool { return c.Role == constants.RoleAdmin }

// CanAccess: admin boleh semua akun, student hanya akun miliknya.
func (c Caller) CanAccess(acc *model.FeeAccount) bool {
	if c.IsAdmin() {
		return true
	}
	return c.Role == constants.RoleStudent && c.StudentID != nil && *c.StudentID == acc.FeeAccountStudentID
}

// CanAccessStudent is CanAccess for listing endpoints keyed by student id.
func (c Caller) CanAccessStudent(studentID uuid.UUID) bool {
	if c.IsAdmin() {
		return true
	}
	return c.Role == constants.RoleStudent && c.StudentID != nil && *c.StudentID == studentID
}
