package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vacations/internal/domain/auth"
)

type fakeStore struct {
	balances  map[string]EmployeeDashboard
	teamSize  int
	pending   int
	outOn     time.Time
	out       int
	headcount int
	pendingHR int
	inDebt    int
	debt      float64
	runs      []JobRun
}

func (f *fakeStore) EmployeeBalance(ctx context.Context, userID string) (EmployeeDashboard, error) {
	return f.balances[userID], nil
}
func (f *fakeStore) TeamSize(ctx context.Context, supervisorID string) (int, error) {
	return f.teamSize, nil
}
func (f *fakeStore) TeamPending(ctx context.Context, supervisorID string) (int, error) {
	return f.pending, nil
}
func (f *fakeStore) TeamOutOn(ctx context.Context, supervisorID string, day time.Time) (int, error) {
	f.outOn = day
	return f.out, nil
}
func (f *fakeStore) Headcount(ctx context.Context) (int, error) { return f.headcount, nil }
func (f *fakeStore) PendingHR(ctx context.Context) (int, error) { return f.pendingHR, nil }
func (f *fakeStore) DebtTotals(ctx context.Context) (int, float64, error) {
	return f.inDebt, f.debt, nil
}
func (f *fakeStore) ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	var out []JobRun
	for _, run := range f.runs {
		if filter.JobType == "" || run.JobType == filter.JobType {
			out = append(out, run)
		}
	}
	return out, nil
}
func (f *fakeStore) CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error) {
	runs, _ := f.ListJobRuns(ctx, filter, 0, 0)
	return len(runs), nil
}
func (f *fakeStore) JobRunByID(ctx context.Context, runID string) (JobRun, error) {
	for _, run := range f.runs {
		if run.ID == runID {
			return run, nil
		}
	}
	return JobRun{}, ErrNotFound
}

func newFake() *fakeStore {
	return &fakeStore{
		balances: map[string]EmployeeDashboard{
			"emp": {Accrued: 10, Used: 12, Pending: 1},
			"sup": {Accrued: 15, Used: 3},
		},
		teamSize: 4, pending: 2, out: 1,
		headcount: 20, pendingHR: 3, inDebt: 2, debt: 3.456,
	}
}

func TestDashboardSectionsFollowRole(t *testing.T) {
	svc := NewService(newFake())
	today := time.Date(2024, time.January, 8, 15, 30, 0, 0, time.UTC)

	d, err := svc.Dashboard(context.Background(), auth.UserContext{UserID: "emp", RoleName: auth.RoleEmployee}, today)
	require.NoError(t, err)
	assert.Equal(t, -3.0, d.Employee.Available)
	assert.Equal(t, 2.0, d.Employee.Debt)
	assert.Nil(t, d.Supervisor)
	assert.Nil(t, d.HR)

	d, err = svc.Dashboard(context.Background(), auth.UserContext{UserID: "sup", RoleName: auth.RoleSupervisor}, today)
	require.NoError(t, err)
	assert.Equal(t, 12.0, d.Employee.Available)
	require.NotNil(t, d.Supervisor)
	assert.Equal(t, SupervisorDashboard{TeamSize: 4, PendingApprovals: 2, OutToday: 1}, *d.Supervisor)
	assert.Nil(t, d.HR)

	d, err = svc.Dashboard(context.Background(), auth.UserContext{UserID: "hr", RoleName: auth.RoleHR}, today)
	require.NoError(t, err)
	require.NotNil(t, d.HR)
	assert.Equal(t, HRDashboard{Headcount: 20, PendingHRApprovals: 3, EmployeesInDebt: 2, TotalDebt: 3.46}, *d.HR)
}

func TestDashboardUsesCalendarDay(t *testing.T) {
	store := newFake()
	svc := NewService(store)
	_, err := svc.Dashboard(context.Background(), auth.UserContext{UserID: "sup", RoleName: auth.RoleSupervisor}, time.Date(2024, time.January, 8, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC), store.outOn)
}

func TestJobRuns(t *testing.T) {
	store := newFake()
	store.runs = []JobRun{{ID: "1", JobType: "vacation_accrual"}, {ID: "2", JobType: "other"}}
	svc := NewService(store)

	runs, total, err := svc.JobRuns(context.Background(), JobRunFilter{JobType: "vacation_accrual"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "1", runs[0].ID)

	_, err = svc.JobRun(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
