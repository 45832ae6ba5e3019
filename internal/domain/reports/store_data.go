package reports

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"vacations/internal/platform/querier"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) EmployeeBalance(ctx context.Context, userID string) (EmployeeDashboard, error) {
	var d EmployeeDashboard
	err := s.DB.QueryRow(ctx, `
    SELECT accrued, used, pending
    FROM vacation_balances
    WHERE employee_id = $1
  `, userID).Scan(&d.Accrued, &d.Used, &d.Pending)
	if errors.Is(err, pgx.ErrNoRows) {
		return EmployeeDashboard{}, nil
	}
	return d, err
}

func (s *Store) TeamSize(ctx context.Context, supervisorID string) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM users WHERE supervisor_id = $1 AND status = 'active'", supervisorID)
}

func (s *Store) TeamPending(ctx context.Context, supervisorID string) (int, error) {
	return s.count(ctx, `
    SELECT COUNT(1)
    FROM vacation_requests r
    JOIN users u ON u.id = r.employee_id
    WHERE u.supervisor_id = $1 AND r.status = 'pending'
  `, supervisorID)
}

func (s *Store) TeamOutOn(ctx context.Context, supervisorID string, day time.Time) (int, error) {
	return s.count(ctx, `
    SELECT COUNT(DISTINCT r.employee_id)
    FROM vacation_requests r
    JOIN users u ON u.id = r.employee_id
    WHERE u.supervisor_id = $1 AND r.status = 'approved' AND r.start_date <= $2 AND r.end_date >= $2
  `, supervisorID, day)
}

func (s *Store) Headcount(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM users WHERE status = 'active'")
}

func (s *Store) PendingHR(ctx context.Context) (int, error) {
	return s.count(ctx, "SELECT COUNT(1) FROM vacation_requests WHERE status = 'pending_hr'")
}

func (s *Store) DebtTotals(ctx context.Context) (int, float64, error) {
	var employees int
	var total float64
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1), COALESCE(SUM(used - accrued), 0)
    FROM vacation_balances
    WHERE used > accrued
  `).Scan(&employees, &total)
	return employees, total, err
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error) {
	query, args := buildJobRunsBaseQuery(filter)
	query += " ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]JobRun, 0)
	for rows.Next() {
		run, err := scanJobRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error) {
	query, args := buildJobRunsBaseQuery(filter)
	return s.count(ctx, "SELECT COUNT(1) FROM ("+query+") runs", args...)
}

func (s *Store) JobRunByID(ctx context.Context, runID string) (JobRun, error) {
	run, err := scanJobRun(s.DB.QueryRow(ctx, `
    SELECT id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at
    FROM job_runs
    WHERE id = $1
  `, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return JobRun{}, ErrNotFound
	}
	return run, err
}

func scanJobRun(row pgx.Row) (JobRun, error) {
	var run JobRun
	var raw []byte
	if err := row.Scan(&run.ID, &run.JobType, &run.Status, &raw, &run.StartedAt, &run.CompletedAt); err != nil {
		return JobRun{}, err
	}
	run.Details = decodeDetails(raw)
	return run, nil
}

func buildJobRunsBaseQuery(filter JobRunFilter) (string, []any) {
	query := `
    SELECT id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at
    FROM job_runs
    WHERE 1=1
  `
	var args []any

	if value := strings.TrimSpace(filter.JobType); value != "" {
		args = append(args, value)
		query += " AND job_type = $" + strconv.Itoa(len(args))
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		args = append(args, value)
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	if filter.StartedFrom != nil && !filter.StartedFrom.IsZero() {
		args = append(args, *filter.StartedFrom)
		query += " AND started_at >= $" + strconv.Itoa(len(args))
	}
	if filter.StartedTo != nil && !filter.StartedTo.IsZero() {
		args = append(args, *filter.StartedTo)
		query += " AND started_at <= $" + strconv.Itoa(len(args))
	}

	return query, args
}

func decodeDetails(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	details := map[string]any{}
	if err := json.Unmarshal(raw, &details); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return details
}
