package directory

import "context"

type StoreAPI interface {
	GetUser(ctx context.Context, userID string) (User, error)
	ListUsers(ctx context.Context, filter UserFilter, limit, offset int) ([]User, int, error)
	ListReports(ctx context.Context, supervisorID string) ([]User, error)
	EmailExists(ctx context.Context, email, exceptID string) (bool, error)
	RoleIDByName(ctx context.Context, roleName string) (string, error)
	CreateUser(ctx context.Context, in UserInput, passwordHash, roleID string) (string, error)
	UpdateUser(ctx context.Context, userID string, in UserInput, roleID string) error
	SetStatus(ctx context.Context, userID, status string) error
	SupervisorOf(ctx context.Context, userID string) (string, error)

	ListDepartments(ctx context.Context) ([]Department, error)
	GetDepartment(ctx context.Context, departmentID string) (Department, error)
	CreateDepartment(ctx context.Context, dep Department) (string, error)
	UpdateDepartment(ctx context.Context, departmentID string, dep Department) (bool, error)
	DepartmentHasUsers(ctx context.Context, departmentID string) (bool, error)
	DeleteDepartment(ctx context.Context, departmentID string) error
}
