package reports

import (
	"context"
	"math"
	"time"

	"vacations/internal/domain/auth"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// Dashboard builds the employee section for everyone, and adds the team and
// HR sections for supervisors and HR.
func (s *Service) Dashboard(ctx context.Context, actor auth.UserContext, today time.Time) (Dashboard, error) {
	employee, err := s.store.EmployeeBalance(ctx, actor.UserID)
	if err != nil {
		return Dashboard{}, err
	}
	employee.Available = round2(employee.Accrued - employee.Used - employee.Pending)
	employee.Debt = round2(math.Max(0, employee.Used-employee.Accrued))
	out := Dashboard{Employee: employee}

	if actor.RoleName == auth.RoleSupervisor || auth.IsHR(actor.RoleName) {
		team, err := s.supervisorDashboard(ctx, actor.UserID, today)
		if err != nil {
			return Dashboard{}, err
		}
		out.Supervisor = &team
	}
	if auth.IsHR(actor.RoleName) {
		hr, err := s.hrDashboard(ctx)
		if err != nil {
			return Dashboard{}, err
		}
		out.HR = &hr
	}
	return out, nil
}

func (s *Service) supervisorDashboard(ctx context.Context, supervisorID string, today time.Time) (SupervisorDashboard, error) {
	var d SupervisorDashboard
	var err error
	if d.TeamSize, err = s.store.TeamSize(ctx, supervisorID); err != nil {
		return d, err
	}
	if d.PendingApprovals, err = s.store.TeamPending(ctx, supervisorID); err != nil {
		return d, err
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if d.OutToday, err = s.store.TeamOutOn(ctx, supervisorID, day); err != nil {
		return d, err
	}
	return d, nil
}

func (s *Service) hrDashboard(ctx context.Context) (HRDashboard, error) {
	var d HRDashboard
	var err error
	if d.Headcount, err = s.store.Headcount(ctx); err != nil {
		return d, err
	}
	if d.PendingHRApprovals, err = s.store.PendingHR(ctx); err != nil {
		return d, err
	}
	if d.EmployeesInDebt, d.TotalDebt, err = s.store.DebtTotals(ctx); err != nil {
		return d, err
	}
	d.TotalDebt = round2(d.TotalDebt)
	return d, nil
}

func (s *Service) JobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, int, error) {
	total, err := s.store.CountJobRuns(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	runs, err := s.store.ListJobRuns(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

func (s *Service) JobRun(ctx context.Context, runID string) (JobRun, error) {
	return s.store.JobRunByID(ctx, runID)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
