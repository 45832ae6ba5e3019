package directory

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"vacations/internal/domain/auth"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidSupervisor  = errors.New("invalid supervisor")
	ErrDepartmentNotEmpty = errors.New("department still has members")
	ErrInvalidInput       = errors.New("invalid input")
)

// maxChainDepth bounds supervisor chain walks when checking for cycles.
const maxChainDepth = 64

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) Me(ctx context.Context, actor auth.UserContext) (User, error) {
	return s.Store.GetUser(ctx, actor.UserID)
}

// CanView applies the directory visibility rules: self, direct reports for
// supervisors, everyone for HR and admins.
func (s *Service) CanView(ctx context.Context, actor auth.UserContext, userID string) (bool, error) {
	if actor.UserID == userID || auth.IsHR(actor.RoleName) {
		return true, nil
	}
	if actor.RoleName != auth.RoleSupervisor {
		return false, nil
	}
	supervisorID, err := s.Store.SupervisorOf(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return supervisorID == actor.UserID, nil
}

func (s *Service) GetUser(ctx context.Context, actor auth.UserContext, userID string) (User, error) {
	ok, err := s.CanView(ctx, actor, userID)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrForbidden
	}
	return s.Store.GetUser(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context, actor auth.UserContext, filter UserFilter, limit, offset int) ([]User, int, error) {
	switch {
	case auth.IsHR(actor.RoleName):
	case actor.RoleName == auth.RoleSupervisor:
		team, err := s.Store.ListReports(ctx, actor.UserID)
		if err != nil {
			return nil, 0, err
		}
		filter.Scope = []string{actor.UserID}
		for _, member := range team {
			filter.Scope = append(filter.Scope, member.ID)
		}
	default:
		filter.Scope = []string{actor.UserID}
	}
	return s.Store.ListUsers(ctx, filter, limit, offset)
}

// ListTeam returns the direct reports of supervisorID.
func (s *Service) ListTeam(ctx context.Context, actor auth.UserContext, supervisorID string) ([]User, error) {
	if supervisorID == "" {
		supervisorID = actor.UserID
	}
	if supervisorID != actor.UserID && !auth.IsHR(actor.RoleName) {
		return nil, ErrForbidden
	}
	return s.Store.ListReports(ctx, supervisorID)
}

func (s *Service) CreateUser(ctx context.Context, in UserInput) (User, error) {
	in = normalize(in)
	if in.Role == "" {
		in.Role = auth.RoleEmployee
	}
	if err := validateInput(in, true); err != nil {
		return User{}, err
	}
	taken, err := s.Store.EmailExists(ctx, in.Email, "")
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, ErrEmailTaken
	}
	roleID, err := s.Store.RoleIDByName(ctx, in.Role)
	if err != nil {
		return User{}, err
	}
	if in.SupervisorID != "" {
		if _, err := s.Store.GetUser(ctx, in.SupervisorID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return User{}, ErrInvalidSupervisor
			}
			return User{}, err
		}
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	id, err := s.Store.CreateUser(ctx, in, hash, roleID)
	if err != nil {
		return User{}, err
	}
	return s.Store.GetUser(ctx, id)
}

func (s *Service) UpdateUser(ctx context.Context, userID string, in UserInput) (User, error) {
	in = normalize(in)
	current, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if in.Email == "" {
		in.Email = current.Email
	}
	if in.Role == "" {
		in.Role = current.Role
	}
	if err := validateInput(in, false); err != nil {
		return User{}, err
	}
	taken, err := s.Store.EmailExists(ctx, in.Email, userID)
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, ErrEmailTaken
	}
	roleID, err := s.Store.RoleIDByName(ctx, in.Role)
	if err != nil {
		return User{}, err
	}
	if err := s.checkSupervisorChain(ctx, userID, in.SupervisorID); err != nil {
		return User{}, err
	}
	if err := s.Store.UpdateUser(ctx, userID, in, roleID); err != nil {
		return User{}, err
	}
	return s.Store.GetUser(ctx, userID)
}

func (s *Service) DeactivateUser(ctx context.Context, actor auth.UserContext, userID string) error {
	if actor.UserID == userID {
		return ErrForbidden
	}
	target, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if target.Role == auth.RoleAdmin && actor.RoleName != auth.RoleAdmin {
		return ErrForbidden
	}
	return s.Store.SetStatus(ctx, userID, StatusInactive)
}

// checkSupervisorChain rejects self-supervision and cycles.
func (s *Service) checkSupervisorChain(ctx context.Context, userID, supervisorID string) error {
	current := supervisorID
	for depth := 0; current != "" && depth < maxChainDepth; depth++ {
		if current == userID {
			return ErrInvalidSupervisor
		}
		next, err := s.Store.SupervisorOf(ctx, current)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrInvalidSupervisor
			}
			return err
		}
		current = next
	}
	return nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	return s.Store.ListDepartments(ctx)
}

func (s *Service) CreateDepartment(ctx context.Context, dep Department) (Department, error) {
	dep.Name = strings.TrimSpace(dep.Name)
	if dep.Name == "" {
		return Department{}, ErrInvalidInput
	}
	id, err := s.Store.CreateDepartment(ctx, dep)
	if err != nil {
		return Department{}, err
	}
	return s.Store.GetDepartment(ctx, id)
}

func (s *Service) UpdateDepartment(ctx context.Context, departmentID string, dep Department) (Department, error) {
	dep.Name = strings.TrimSpace(dep.Name)
	if dep.Name == "" {
		return Department{}, ErrInvalidInput
	}
	ok, err := s.Store.UpdateDepartment(ctx, departmentID, dep)
	if err != nil {
		return Department{}, err
	}
	if !ok {
		return Department{}, ErrNotFound
	}
	return s.Store.GetDepartment(ctx, departmentID)
}

func (s *Service) DeleteDepartment(ctx context.Context, departmentID string) error {
	hasUsers, err := s.Store.DepartmentHasUsers(ctx, departmentID)
	if err != nil {
		return err
	}
	if hasUsers {
		return ErrDepartmentNotEmpty
	}
	return s.Store.DeleteDepartment(ctx, departmentID)
}

func normalize(in UserInput) UserInput {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Role = strings.TrimSpace(in.Role)
	in.DepartmentID = strings.TrimSpace(in.DepartmentID)
	in.SupervisorID = strings.TrimSpace(in.SupervisorID)
	return in
}

func validateInput(in UserInput, creating bool) error {
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return ErrInvalidInput
	}
	if !auth.ValidRole(in.Role) {
		return ErrInvalidRole
	}
	if creating && len(in.Password) < 8 {
		return auth.ErrWeakPassword
	}
	return nil
}
