package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"vacations/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const userColumns = `
    u.id, u.email, u.first_name, u.last_name, u.role_id, r.name,
    COALESCE(u.department_id::text, ''), COALESCE(u.supervisor_id::text, ''),
    u.hire_date, u.status, u.mfa_enabled, u.created_at, u.updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.RoleID, &u.Role,
		&u.DepartmentID, &u.SupervisorID, &u.HireDate, &u.Status, &u.MFAEnabled, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, `
    SELECT`+userColumns+`
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.id = $1
  `, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

func (s *Store) ListUsers(ctx context.Context, filter UserFilter, limit, offset int) ([]User, int, error) {
	where := []string{"1=1"}
	args := []any{}
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		add("(u.email ILIKE $%[1]d OR u.first_name ILIKE $%[1]d OR u.last_name ILIKE $%[1]d)", "%"+q+"%")
	}
	if filter.Role != "" {
		add("r.name = $%d", filter.Role)
	}
	if filter.DepartmentID != "" {
		add("u.department_id = $%d", filter.DepartmentID)
	}
	if filter.Status != "" {
		add("u.status = $%d", filter.Status)
	}
	if len(filter.Scope) > 0 {
		add("u.id::text = ANY($%d)", filter.Scope)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT %s
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE %s
    ORDER BY u.last_name, u.first_name, u.email
    LIMIT $%d OFFSET $%d
  `, userColumns, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (s *Store) ListReports(ctx context.Context, supervisorID string) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+userColumns+`
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.supervisor_id = $1 AND u.status = 'active'
    ORDER BY u.last_name, u.first_name
  `, supervisorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) EmailExists(ctx context.Context, email, exceptID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM users
    WHERE lower(email) = lower($1) AND ($2 = '' OR id::text <> $2)
  `, email, exceptID).Scan(&count)
	return count > 0, err
}

func (s *Store) RoleIDByName(ctx context.Context, roleName string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", roleName).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidRole
	}
	return id, err
}

func (s *Store) CreateUser(ctx context.Context, in UserInput, passwordHash, roleID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, first_name, last_name, role_id, department_id, supervisor_id, hire_date)
    VALUES ($1,$2,$3,$4,$5,NULLIF($6,'')::uuid,NULLIF($7,'')::uuid,$8)
    RETURNING id
  `, in.Email, passwordHash, in.FirstName, in.LastName, roleID, in.DepartmentID, in.SupervisorID, in.HireDate).Scan(&id)
	return id, err
}

func (s *Store) UpdateUser(ctx context.Context, userID string, in UserInput, roleID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET email = $2, first_name = $3, last_name = $4, role_id = $5,
        department_id = NULLIF($6,'')::uuid, supervisor_id = NULLIF($7,'')::uuid,
        hire_date = $8, updated_at = now()
    WHERE id = $1
  `, userID, in.Email, in.FirstName, in.LastName, roleID, in.DepartmentID, in.SupervisorID, in.HireDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, userID, status string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE users SET status = $2, updated_at = now() WHERE id = $1", userID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SupervisorOf(ctx context.Context, userID string) (string, error) {
	var supervisorID string
	err := s.DB.QueryRow(ctx, "SELECT COALESCE(supervisor_id::text, '') FROM users WHERE id = $1", userID).Scan(&supervisorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return supervisorID, err
}

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT d.id, d.name, COALESCE(d.head_user_id::text, ''), d.created_at,
           (SELECT COUNT(1) FROM users u WHERE u.department_id = d.id)
    FROM departments d
    ORDER BY d.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Department, 0)
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.HeadUserID, &d.CreatedAt, &d.Members); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDepartment(ctx context.Context, departmentID string) (Department, error) {
	var d Department
	err := s.DB.QueryRow(ctx, `
    SELECT d.id, d.name, COALESCE(d.head_user_id::text, ''), d.created_at,
           (SELECT COUNT(1) FROM users u WHERE u.department_id = d.id)
    FROM departments d
    WHERE d.id = $1
  `, departmentID).Scan(&d.ID, &d.Name, &d.HeadUserID, &d.CreatedAt, &d.Members)
	if errors.Is(err, pgx.ErrNoRows) {
		return d, ErrNotFound
	}
	return d, err
}

func (s *Store) CreateDepartment(ctx context.Context, dep Department) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (name, head_user_id)
    VALUES ($1, NULLIF($2,'')::uuid)
    RETURNING id
  `, dep.Name, dep.HeadUserID).Scan(&id)
	return id, err
}

func (s *Store) UpdateDepartment(ctx context.Context, departmentID string, dep Department) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE departments
    SET name = $2, head_user_id = NULLIF($3,'')::uuid, updated_at = now()
    WHERE id = $1
  `, departmentID, dep.Name, dep.HeadUserID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DepartmentHasUsers(ctx context.Context, departmentID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE department_id = $1", departmentID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) DeleteDepartment(ctx context.Context, departmentID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM departments WHERE id = $1", departmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
