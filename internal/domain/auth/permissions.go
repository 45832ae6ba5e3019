package auth

const (
	RoleEmployee   = "Employee"
	RoleSupervisor = "Supervisor"
	RoleHR         = "HR"
	RoleAdmin      = "Admin"
)

const (
	PermVacationRead    = "vacation.read"
	PermVacationRequest = "vacation.request"
	PermVacationApprove = "vacation.approve"
	PermVacationManage  = "vacation.manage"
	PermDirectoryRead   = "directory.read"
	PermDirectoryWrite  = "directory.write"
	PermReportsRead     = "reports.read"
	PermReportsExport   = "reports.export"
	PermAuditRead       = "audit.read"
	PermCalendarRead    = "calendar.read"
	PermSystemAdmin     = "admin.system"
)

var DefaultPermissions = []string{
	PermVacationRead,
	PermVacationRequest,
	PermVacationApprove,
	PermVacationManage,
	PermDirectoryRead,
	PermDirectoryWrite,
	PermReportsRead,
	PermReportsExport,
	PermAuditRead,
	PermCalendarRead,
	PermSystemAdmin,
}

var Roles = []string{RoleEmployee, RoleSupervisor, RoleHR, RoleAdmin}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermVacationRead,
		PermVacationRequest,
		PermDirectoryRead,
		PermReportsRead,
		PermCalendarRead,
	},
	RoleSupervisor: {
		PermVacationRead,
		PermVacationRequest,
		PermVacationApprove,
		PermDirectoryRead,
		PermReportsRead,
		PermCalendarRead,
	},
	RoleHR: {
		PermVacationRead,
		PermVacationRequest,
		PermVacationApprove,
		PermVacationManage,
		PermDirectoryRead,
		PermDirectoryWrite,
		PermReportsRead,
		PermReportsExport,
		PermAuditRead,
		PermCalendarRead,
	},
	RoleAdmin: DefaultPermissions,
}

// UserContext is the authenticated caller attached to a request.
type UserContext struct {
	UserID    string
	RoleID    string
	RoleName  string
	SessionID string
}

// Can reports whether the static role table grants permission.
func Can(roleName, permission string) bool {
	for _, perm := range RolePermissions[roleName] {
		if perm == permission {
			return true
		}
	}
	return false
}

// IsHR is true for roles that act on every employee's requests.
func IsHR(roleName string) bool {
	return roleName == RoleHR || roleName == RoleAdmin
}

func ValidRole(roleName string) bool {
	_, ok := RolePermissions[roleName]
	return ok
}
