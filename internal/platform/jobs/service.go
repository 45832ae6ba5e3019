package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"vacations/internal/domain/vacation"
	"vacations/internal/platform/querier"
)

const JobVacationAccrual = "vacation_accrual"

type Accruer interface {
	RunAccruals(ctx context.Context, now time.Time) (vacation.AccrualSummary, error)
}

type Service struct {
	DB       querier.Querier
	Accruals Accruer
	Interval time.Duration
	Now      func() time.Time
	queue    chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db querier.Querier, accruals Accruer, interval time.Duration) *Service {
	return &Service{
		DB:       db,
		Accruals: accruals,
		Interval: interval,
		Now:      time.Now,
		queue:    make(chan job, 128),
	}
}

// Run processes queued jobs and schedules accruals until ctx is cancelled.
// An accrual is queued immediately so a restart never misses a period.
func (s *Service) Run(ctx context.Context) error {
	if s.Interval > 0 && s.Accruals != nil {
		s.Enqueue(JobVacationAccrual, s.accrualJob)
		go s.scheduleAccruals(ctx, s.Interval)
	}
	s.worker(ctx)
	return nil
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

// RunNow executes a job synchronously, recording it like a queued one.
func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) RunAccrualNow(ctx context.Context) (vacation.AccrualSummary, error) {
	details, err := s.RunNow(ctx, JobVacationAccrual, s.accrualJob)
	summary, _ := details.(vacation.AccrualSummary)
	return summary, err
}

func (s *Service) accrualJob(ctx context.Context) (any, error) {
	return s.Accruals.RunAccruals(ctx, s.Now())
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
		details = map[string]any{"error": err.Error(), "result": details}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (s *Service) scheduleAccruals(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobVacationAccrual, s.accrualJob)
		}
	}
}
