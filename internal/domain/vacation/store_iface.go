package vacation

import (
	"context"
	"time"
)

type StoreAPI interface {
	ListTypes(ctx context.Context) ([]AbsenceType, error)
	GetType(ctx context.Context, typeID string) (AbsenceType, error)
	CreateType(ctx context.Context, t AbsenceType) (string, error)
	GetPolicy(ctx context.Context) (Policy, error)
	UpdatePolicy(ctx context.Context, p Policy) error

	Employee(ctx context.Context, userID string) (Employee, error)
	HRUserIDs(ctx context.Context) ([]string, error)

	GetBalance(ctx context.Context, employeeID string) (Balance, error)
	ListBalances(ctx context.Context, supervisorID string) ([]EmployeeBalance, error)
	ListAdjustments(ctx context.Context, employeeID string) ([]Adjustment, error)
	ListDebts(ctx context.Context) ([]Debt, error)

	ListRequests(ctx context.Context, filter RequestFilter, limit, offset int) ([]Request, int, error)
	GetRequest(ctx context.Context, requestID string) (Request, error)
	ListApprovals(ctx context.Context, requestID string) ([]Approval, error)
	CalendarEntries(ctx context.Context, filter RequestFilter) ([]CalendarEntry, error)

	InTx(ctx context.Context, fn func(TxStore) error) error
}

// TxStore holds the statements that must run inside one transaction.
type TxStore interface {
	LockBalance(ctx context.Context, employeeID string) (Balance, error)
	ApplyBalance(ctx context.Context, employeeID string, delta BalanceDelta) error
	InsertAdjustment(ctx context.Context, employeeID string, amount float64, reason, createdBy string) error

	HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
	InsertRequest(ctx context.Context, r Request) (string, error)
	LockRequest(ctx context.Context, requestID string) (Request, error)
	UpdateRequestStatus(ctx context.Context, requestID, status, decidedBy string) error
	InsertApproval(ctx context.Context, a Approval) error

	ClaimAccrualRun(ctx context.Context, periodStart time.Time, period string) (bool, error)
	ActiveEmployees(ctx context.Context) ([]Employee, error)
	Accrue(ctx context.Context, employeeID string, amount, maxBalance float64) error
	FinishAccrualRun(ctx context.Context, periodStart time.Time, employeesAccrued int) error
}

// AccrualStore is the subset ApplyAccruals needs.
type AccrualStore interface {
	GetPolicy(ctx context.Context) (Policy, error)
	InTx(ctx context.Context, fn func(TxStore) error) error
}
