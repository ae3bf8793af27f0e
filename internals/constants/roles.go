package constants

import "fmt"

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Template pesan error role
const (
	ErrOnlyAdminsCanAccess         = "❌ Hanya admin yang boleh mengakses fitur %s."
	ErrOnlyStudentOrAdminCanAccess = "❌ Hanya student atau admin yang boleh mengakses fitur %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorStudentOrAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyStudentOrAdminCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	StudentAndAdmin = []string{
		RoleStudent,
		RoleAdmin,
	}

	AdminOnly = []string{
		RoleAdmin,
	}
)
