package vacation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"vacations/internal/domain/auth"
	"vacations/internal/platform/querier"
)

type Store struct {
	DB querier.TxBeginner
}

func NewStore(db querier.TxBeginner) *Store {
	return &Store{DB: db}
}

func (s *Store) InTx(ctx context.Context, fn func(TxStore) error) error {
	return querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

func (s *Store) ListTypes(ctx context.Context) ([]AbsenceType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, code, deducts_balance, requires_hr_approval, created_at
    FROM absence_types
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]AbsenceType, 0)
	for rows.Next() {
		var t AbsenceType
		if err := rows.Scan(&t.ID, &t.Name, &t.Code, &t.DeductsBalance, &t.RequiresHRApproval, &t.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (s *Store) GetType(ctx context.Context, typeID string) (AbsenceType, error) {
	var t AbsenceType
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, code, deducts_balance, requires_hr_approval, created_at
    FROM absence_types
    WHERE id = $1
  `, typeID).Scan(&t.ID, &t.Name, &t.Code, &t.DeductsBalance, &t.RequiresHRApproval, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

func (s *Store) CreateType(ctx context.Context, t AbsenceType) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO absence_types (name, code, deducts_balance, requires_hr_approval)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (code) DO NOTHING
    RETURNING id
  `, t.Name, t.Code, t.DeductsBalance, t.RequiresHRApproval).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrDuplicateType
	}
	return id, err
}

func (s *Store) GetPolicy(ctx context.Context) (Policy, error) {
	var p Policy
	err := s.DB.QueryRow(ctx, `
    SELECT annual_days, seniority_after_years, seniority_bonus_days, max_annual_days, max_balance, allow_debt, accrual_period, updated_at
    FROM vacation_policy
    WHERE id = 1
  `).Scan(&p.AnnualDays, &p.SeniorityAfterYears, &p.SeniorityBonusDays, &p.MaxAnnualDays, &p.MaxBalance, &p.AllowDebt, &p.AccrualPeriod, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultPolicy(), nil
	}
	return p, err
}

func (s *Store) UpdatePolicy(ctx context.Context, p Policy) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO vacation_policy (id, annual_days, seniority_after_years, seniority_bonus_days, max_annual_days, max_balance, allow_debt, accrual_period)
    VALUES (1,$1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (id) DO UPDATE SET
      annual_days = EXCLUDED.annual_days,
      seniority_after_years = EXCLUDED.seniority_after_years,
      seniority_bonus_days = EXCLUDED.seniority_bonus_days,
      max_annual_days = EXCLUDED.max_annual_days,
      max_balance = EXCLUDED.max_balance,
      allow_debt = EXCLUDED.allow_debt,
      accrual_period = EXCLUDED.accrual_period,
      updated_at = now()
  `, p.AnnualDays, p.SeniorityAfterYears, p.SeniorityBonusDays, p.MaxAnnualDays, p.MaxBalance, p.AllowDebt, p.AccrualPeriod)
	return err
}

const employeeColumns = `
    u.id, trim(u.first_name || ' ' || u.last_name), u.email, r.name,
    COALESCE(u.supervisor_id::text, ''), u.hire_date, u.status = 'active'`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.RoleName, &e.SupervisorID, &e.HireDate, &e.Active)
	return e, err
}

func (s *Store) Employee(ctx context.Context, userID string) (Employee, error) {
	e, err := scanEmployee(s.DB.QueryRow(ctx, `
    SELECT`+employeeColumns+`
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.id = $1
  `, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return e, ErrNotFound
	}
	return e, err
}

func (s *Store) HRUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE r.name = $1 AND u.status = 'active'
  `, auth.RoleHR)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) GetBalance(ctx context.Context, employeeID string) (Balance, error) {
	b := Balance{EmployeeID: employeeID}
	err := s.DB.QueryRow(ctx, `
    SELECT accrued, used, pending, updated_at
    FROM vacation_balances
    WHERE employee_id = $1
  `, employeeID).Scan(&b.Accrued, &b.Used, &b.Pending, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return b, nil
	}
	return b, err
}

func (s *Store) ListBalances(ctx context.Context, supervisorID string) ([]EmployeeBalance, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, trim(u.first_name || ' ' || u.last_name), u.email, COALESCE(d.name, ''),
           COALESCE(b.accrued, 0), COALESCE(b.used, 0), COALESCE(b.pending, 0), COALESCE(b.updated_at, u.created_at)
    FROM users u
    LEFT JOIN vacation_balances b ON b.employee_id = u.id
    LEFT JOIN departments d ON d.id = u.department_id
    WHERE u.status = 'active' AND ($1 = '' OR u.supervisor_id::text = $1)
    ORDER BY u.last_name, u.first_name
  `, supervisorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]EmployeeBalance, 0)
	for rows.Next() {
		var eb EmployeeBalance
		if err := rows.Scan(&eb.EmployeeID, &eb.Name, &eb.Email, &eb.Department, &eb.Accrued, &eb.Used, &eb.Pending, &eb.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, eb)
	}
	return out, rows.Err()
}

func (s *Store) ListAdjustments(ctx context.Context, employeeID string) ([]Adjustment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, amount, reason, COALESCE(created_by::text, ''), created_at
    FROM vacation_balance_adjustments
    WHERE employee_id = $1
    ORDER BY created_at DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Adjustment, 0)
	for rows.Next() {
		var a Adjustment
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.Amount, &a.Reason, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListDebts(ctx context.Context) ([]Debt, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, trim(u.first_name || ' ' || u.last_name), u.email, b.accrued, b.used, b.used - b.accrued
    FROM vacation_balances b
    JOIN users u ON u.id = b.employee_id
    WHERE b.used > b.accrued
    ORDER BY b.used - b.accrued DESC, u.last_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Debt, 0)
	for rows.Next() {
		var d Debt
		if err := rows.Scan(&d.EmployeeID, &d.Name, &d.Email, &d.Accrued, &d.Used, &d.Debt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const requestColumns = `
    r.id, r.employee_id, trim(u.first_name || ' ' || u.last_name), r.type_id, t.name,
    t.deducts_balance, t.requires_hr_approval, r.start_date, r.end_date, r.days, r.reason,
    r.status, COALESCE(r.decided_by::text, ''), r.decided_at, r.created_at`

const requestFrom = `
    FROM vacation_requests r
    JOIN users u ON u.id = r.employee_id
    JOIN absence_types t ON t.id = r.type_id`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.TypeID, &r.TypeName,
		&r.DeductsBalance, &r.RequiresHRApproval, &r.StartDate, &r.EndDate, &r.Days, &r.Reason,
		&r.Status, &r.DecidedBy, &r.DecidedAt, &r.CreatedAt)
	return r, err
}

func requestWhere(filter RequestFilter) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.EmployeeID != "" {
		add("r.employee_id::text = $%d", filter.EmployeeID)
	}
	if filter.SupervisorID != "" {
		add("(u.supervisor_id::text = $%[1]d OR r.employee_id::text = $%[1]d)", filter.SupervisorID)
	}
	if filter.ExcludeEmployeeID != "" {
		add("r.employee_id::text <> $%d", filter.ExcludeEmployeeID)
	}
	if len(filter.Statuses) > 0 {
		add("r.status = ANY($%d)", filter.Statuses)
	}
	if filter.From != nil {
		add("r.end_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("r.start_date <= $%d", *filter.To)
	}
	return strings.Join(clauses, " AND "), args
}

func (s *Store) ListRequests(ctx context.Context, filter RequestFilter, limit, offset int) ([]Request, int, error) {
	where, args := requestWhere(filter)

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+requestFrom+" WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d",
		requestColumns, requestFrom, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Request, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (s *Store) GetRequest(ctx context.Context, requestID string) (Request, error) {
	r, err := scanRequest(s.DB.QueryRow(ctx, "SELECT"+requestColumns+requestFrom+" WHERE r.id = $1", requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrNotFound
	}
	return r, err
}

func (s *Store) ListApprovals(ctx context.Context, requestID string) ([]Approval, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, request_id, approver_id, stage, decision, comment, created_at
    FROM vacation_approvals
    WHERE request_id = $1
    ORDER BY created_at
  `, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Approval, 0)
	for rows.Next() {
		var a Approval
		if err := rows.Scan(&a.ID, &a.RequestID, &a.ApproverID, &a.Stage, &a.Decision, &a.Comment, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CalendarEntries(ctx context.Context, filter RequestFilter) ([]CalendarEntry, error) {
	where, args := requestWhere(filter)
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.employee_id, trim(u.first_name || ' ' || u.last_name), t.name, r.start_date, r.end_date, r.days, r.status`+
		requestFrom+" WHERE "+where+" ORDER BY r.start_date, u.last_name", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CalendarEntry, 0)
	for rows.Next() {
		var e CalendarEntry
		if err := rows.Scan(&e.RequestID, &e.EmployeeID, &e.EmployeeName, &e.TypeName, &e.StartDate, &e.EndDate, &e.Days, &e.Status); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type txStore struct {
	tx pgx.Tx
}

func (t *txStore) LockBalance(ctx context.Context, employeeID string) (Balance, error) {
	if _, err := t.tx.Exec(ctx, `
    INSERT INTO vacation_balances (employee_id) VALUES ($1)
    ON CONFLICT (employee_id) DO NOTHING
  `, employeeID); err != nil {
		return Balance{}, err
	}
	b := Balance{EmployeeID: employeeID}
	err := t.tx.QueryRow(ctx, `
    SELECT accrued, used, pending, updated_at
    FROM vacation_balances
    WHERE employee_id = $1
    FOR UPDATE
  `, employeeID).Scan(&b.Accrued, &b.Used, &b.Pending, &b.UpdatedAt)
	return b, err
}

func (t *txStore) ApplyBalance(ctx context.Context, employeeID string, delta BalanceDelta) error {
	_, err := t.tx.Exec(ctx, `
    INSERT INTO vacation_balances (employee_id, accrued, used, pending)
    VALUES ($1, $2::numeric, $3::numeric, $4::numeric)
    ON CONFLICT (employee_id) DO UPDATE SET
      accrued = vacation_balances.accrued + EXCLUDED.accrued,
      used = vacation_balances.used + EXCLUDED.used,
      pending = GREATEST(vacation_balances.pending + EXCLUDED.pending, 0),
      updated_at = now()
  `, employeeID, delta.Accrued, delta.Used, delta.Pending)
	return err
}

func (t *txStore) InsertAdjustment(ctx context.Context, employeeID string, amount float64, reason, createdBy string) error {
	_, err := t.tx.Exec(ctx, `
    INSERT INTO vacation_balance_adjustments (employee_id, amount, reason, created_by)
    VALUES ($1,$2,$3,NULLIF($4,'')::uuid)
  `, employeeID, amount, reason, createdBy)
	return err
}

func (t *txStore) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	var count int
	err := t.tx.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM vacation_requests
    WHERE employee_id = $1 AND status = ANY($2) AND start_date <= $4 AND end_date >= $3
  `, employeeID, OpenStatuses, start, end).Scan(&count)
	return count > 0, err
}

func (t *txStore) InsertRequest(ctx context.Context, r Request) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, `
    INSERT INTO vacation_requests (employee_id, type_id, start_date, end_date, days, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, r.EmployeeID, r.TypeID, r.StartDate, r.EndDate, r.Days, r.Reason, r.Status).Scan(&id)
	return id, err
}

func (t *txStore) LockRequest(ctx context.Context, requestID string) (Request, error) {
	r, err := scanRequest(t.tx.QueryRow(ctx, "SELECT"+requestColumns+requestFrom+" WHERE r.id = $1 FOR UPDATE OF r", requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrNotFound
	}
	return r, err
}

func (t *txStore) UpdateRequestStatus(ctx context.Context, requestID, status, decidedBy string) error {
	_, err := t.tx.Exec(ctx, `
    UPDATE vacation_requests
    SET status = $2, decided_by = NULLIF($3,'')::uuid, decided_at = now(), updated_at = now()
    WHERE id = $1
  `, requestID, status, decidedBy)
	return err
}

func (t *txStore) InsertApproval(ctx context.Context, a Approval) error {
	_, err := t.tx.Exec(ctx, `
    INSERT INTO vacation_approvals (request_id, approver_id, stage, decision, comment)
    VALUES ($1,$2,$3,$4,$5)
  `, a.RequestID, a.ApproverID, a.Stage, a.Decision, a.Comment)
	return err
}

func (t *txStore) ClaimAccrualRun(ctx context.Context, periodStart time.Time, period string) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
    INSERT INTO vacation_accrual_runs (period_start, accrual_period)
    VALUES ($1,$2)
    ON CONFLICT (period_start) DO NOTHING
  `, periodStart, period)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *txStore) ActiveEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := t.tx.Query(ctx, `
    SELECT`+employeeColumns+`
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.status = 'active'
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Accrue credits amount, keeping accrued - used at or below maxBalance when
// maxBalance is positive. A balance already above the cap is left unchanged.
func (t *txStore) Accrue(ctx context.Context, employeeID string, amount, maxBalance float64) error {
	_, err := t.tx.Exec(ctx, `
    INSERT INTO vacation_balances (employee_id, accrued)
    VALUES ($1, CASE WHEN $3::numeric > 0 THEN LEAST($2::numeric, $3::numeric) ELSE $2::numeric END)
    ON CONFLICT (employee_id) DO UPDATE SET
      accrued = CASE
        WHEN $3::numeric > 0 THEN GREATEST(vacation_balances.accrued, LEAST(vacation_balances.accrued + $2::numeric, vacation_balances.used + $3::numeric))
        ELSE vacation_balances.accrued + $2::numeric
      END,
      updated_at = now()
  `, employeeID, amount, maxBalance)
	return err
}

func (t *txStore) FinishAccrualRun(ctx context.Context, periodStart time.Time, employeesAccrued int) error {
	_, err := t.tx.Exec(ctx, `
    UPDATE vacation_accrual_runs SET employees_accrued = $2 WHERE period_start = $1
  `, periodStart, employeesAccrued)
	return err
}
