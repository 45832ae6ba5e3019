package reports

import (
	"context"
	"time"
)

type StoreAPI interface {
	EmployeeBalance(ctx context.Context, userID string) (EmployeeDashboard, error)
	TeamSize(ctx context.Context, supervisorID string) (int, error)
	TeamPending(ctx context.Context, supervisorID string) (int, error)
	TeamOutOn(ctx context.Context, supervisorID string, day time.Time) (int, error)
	Headcount(ctx context.Context) (int, error)
	PendingHR(ctx context.Context) (int, error)
	DebtTotals(ctx context.Context) (int, float64, error)

	ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error)
	CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error)
	JobRunByID(ctx context.Context, runID string) (JobRun, error)
}
