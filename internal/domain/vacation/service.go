package vacation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vacations/internal/domain/auth"
	"vacations/internal/domain/notifications"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidDates        = errors.New("invalid dates")
	ErrOverlap             = errors.New("request overlaps an existing request")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidPolicy       = errors.New("invalid policy")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicateType       = errors.New("absence type code already exists")
)

type Notifier interface {
	Notify(ctx context.Context, userIDs []string, ntype, title, body string)
}

type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID string, before, after any) error
}

type EventCounter interface {
	Event(name string)
}

type Service struct {
	Store    StoreAPI
	Notifier Notifier
	Audit    Auditor
	Metrics  EventCounter
	Now      func() time.Time
}

func NewService(store StoreAPI, notifier Notifier, auditor Auditor, metrics EventCounter) *Service {
	return &Service{Store: store, Notifier: notifier, Audit: auditor, Metrics: metrics, Now: time.Now}
}

func DefaultPolicy() Policy {
	return Policy{AnnualDays: 15, AccrualPeriod: AccrualMonthly}
}

type CreateInput struct {
	EmployeeID string
	TypeID     string
	StartDate  time.Time
	EndDate    *time.Time
	Days       int
	Reason     string
}

// Quote prices a prospective request without touching any state.
func (s *Service) Quote(start time.Time, end *time.Time, days int) (Quote, error) {
	return ResolveQuote(start, end, days)
}

func (s *Service) CreateRequest(ctx context.Context, actor auth.UserContext, in CreateInput) (Request, error) {
	employeeID := in.EmployeeID
	if employeeID == "" {
		employeeID = actor.UserID
	}
	if employeeID != actor.UserID && !auth.IsHR(actor.RoleName) {
		return Request{}, ErrForbidden
	}

	quote, err := ResolveQuote(in.StartDate, in.EndDate, in.Days)
	if err != nil {
		return Request{}, err
	}
	absence, err := s.Store.GetType(ctx, in.TypeID)
	if err != nil {
		return Request{}, err
	}
	employee, err := s.Store.Employee(ctx, employeeID)
	if err != nil {
		return Request{}, err
	}
	if !employee.Active {
		return Request{}, ErrForbidden
	}
	policy, err := s.Store.GetPolicy(ctx)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		EmployeeID: employeeID,
		TypeID:     absence.ID,
		StartDate:  quote.StartDate,
		EndDate:    quote.EndDate,
		Days:       float64(quote.Days),
		Reason:     strings.TrimSpace(in.Reason),
		Status:     StatusPendingHR,
	}
	if employee.SupervisorID != "" {
		req.Status = StatusPending
	}

	err = s.Store.InTx(ctx, func(tx TxStore) error {
		balance, err := tx.LockBalance(ctx, employeeID)
		if err != nil {
			return err
		}
		overlap, err := tx.HasOverlap(ctx, employeeID, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}
		if overlap {
			return ErrOverlap
		}
		if absence.DeductsBalance && !policy.AllowDebt && req.Days > balance.Available() {
			return ErrInsufficientBalance
		}
		id, err := tx.InsertRequest(ctx, req)
		if err != nil {
			return err
		}
		req.ID = id
		if absence.DeductsBalance {
			return tx.ApplyBalance(ctx, employeeID, BalanceDelta{Pending: req.Days})
		}
		return nil
	})
	if err != nil {
		return Request{}, err
	}

	s.record(ctx, actor.UserID, "vacation.request.create", req.ID, nil, req)
	s.event("vacation.submitted")
	title := "New vacation request"
	body := fmt.Sprintf("%s requested %s from %s to %s (%g days).", displayName(employee), absence.Name,
		req.StartDate.Format(dateLayout), req.EndDate.Format(dateLayout), req.Days)
	if req.Status == StatusPending {
		s.notify(ctx, []string{employee.SupervisorID}, notifications.TypeVacationSubmitted, title, body)
	} else {
		s.notify(ctx, s.hrRecipients(ctx), notifications.TypeVacationSubmitted, title, body)
	}

	return s.Store.GetRequest(ctx, req.ID)
}

// ApproveRequest records an approval. A supervisor's approval escalates to HR
// when the absence type requires it; an HR approval is always final.
func (s *Service) ApproveRequest(ctx context.Context, actor auth.UserContext, requestID, comment string) (Request, error) {
	var before, after Request
	err := s.Store.InTx(ctx, func(tx TxStore) error {
		req, err := tx.LockRequest(ctx, requestID)
		if err != nil {
			return err
		}
		before = req
		stage, err := s.decisionStage(ctx, actor, req)
		if err != nil {
			return err
		}

		next := StatusApproved
		if stage == StageSupervisor && req.RequiresHRApproval {
			next = StatusPendingHR
		}
		if err := tx.UpdateRequestStatus(ctx, req.ID, next, actor.UserID); err != nil {
			return err
		}
		if err := tx.InsertApproval(ctx, Approval{RequestID: req.ID, ApproverID: actor.UserID, Stage: stage, Decision: DecisionApproved, Comment: comment}); err != nil {
			return err
		}
		if next == StatusApproved && req.DeductsBalance {
			if err := tx.ApplyBalance(ctx, req.EmployeeID, BalanceDelta{Pending: -req.Days, Used: req.Days}); err != nil {
				return err
			}
		}
		req.Status = next
		after = req
		return nil
	})
	if err != nil {
		return Request{}, err
	}

	s.record(ctx, actor.UserID, "vacation.request.approve", requestID, before, after)
	if after.Status == StatusPendingHR {
		s.event("vacation.escalated")
		s.notify(ctx, s.hrRecipients(ctx), notifications.TypeVacationEscalated, "Vacation request awaiting HR",
			fmt.Sprintf("%s's request from %s needs HR approval.", after.EmployeeName, after.StartDate.Format(dateLayout)))
	} else {
		s.event("vacation.approved")
		s.notify(ctx, []string{after.EmployeeID}, notifications.TypeVacationApproved, "Vacation approved",
			fmt.Sprintf("Your request from %s to %s was approved.", after.StartDate.Format(dateLayout), after.EndDate.Format(dateLayout)))
	}
	return s.Store.GetRequest(ctx, requestID)
}

func (s *Service) RejectRequest(ctx context.Context, actor auth.UserContext, requestID, comment string) (Request, error) {
	var before, after Request
	err := s.Store.InTx(ctx, func(tx TxStore) error {
		req, err := tx.LockRequest(ctx, requestID)
		if err != nil {
			return err
		}
		before = req
		stage, err := s.decisionStage(ctx, actor, req)
		if err != nil {
			return err
		}
		if err := tx.UpdateRequestStatus(ctx, req.ID, StatusRejected, actor.UserID); err != nil {
			return err
		}
		if err := tx.InsertApproval(ctx, Approval{RequestID: req.ID, ApproverID: actor.UserID, Stage: stage, Decision: DecisionRejected, Comment: comment}); err != nil {
			return err
		}
		if req.DeductsBalance {
			if err := tx.ApplyBalance(ctx, req.EmployeeID, BalanceDelta{Pending: -req.Days}); err != nil {
				return err
			}
		}
		req.Status = StatusRejected
		after = req
		return nil
	})
	if err != nil {
		return Request{}, err
	}

	s.record(ctx, actor.UserID, "vacation.request.reject", requestID, before, after)
	s.event("vacation.rejected")
	body := fmt.Sprintf("Your request from %s to %s was rejected.", after.StartDate.Format(dateLayout), after.EndDate.Format(dateLayout))
	if comment != "" {
		body += " " + comment
	}
	s.notify(ctx, []string{after.EmployeeID}, notifications.TypeVacationRejected, "Vacation rejected", body)
	return s.Store.GetRequest(ctx, requestID)
}

// CancelRequest lets the owner withdraw an open request; HR may additionally
// cancel an approved one, which returns the used days.
func (s *Service) CancelRequest(ctx context.Context, actor auth.UserContext, requestID, comment string) (Request, error) {
	var before, after Request
	err := s.Store.InTx(ctx, func(tx TxStore) error {
		req, err := tx.LockRequest(ctx, requestID)
		if err != nil {
			return err
		}
		before = req
		owner := req.EmployeeID == actor.UserID
		hr := auth.IsHR(actor.RoleName)
		if !owner && !hr {
			return ErrForbidden
		}

		var delta BalanceDelta
		switch {
		case req.Open():
			delta.Pending = -req.Days
		case req.Status == StatusApproved && hr:
			delta.Used = -req.Days
		default:
			return ErrInvalidState
		}
		if err := tx.UpdateRequestStatus(ctx, req.ID, StatusCancelled, actor.UserID); err != nil {
			return err
		}
		stage := StageHR
		if owner && !hr {
			stage = StageEmployee
		}
		if err := tx.InsertApproval(ctx, Approval{RequestID: req.ID, ApproverID: actor.UserID, Stage: stage, Decision: DecisionCancelled, Comment: comment}); err != nil {
			return err
		}
		if req.DeductsBalance {
			if err := tx.ApplyBalance(ctx, req.EmployeeID, delta); err != nil {
				return err
			}
		}
		req.Status = StatusCancelled
		after = req
		return nil
	})
	if err != nil {
		return Request{}, err
	}

	s.record(ctx, actor.UserID, "vacation.request.cancel", requestID, before, after)
	s.event("vacation.cancelled")
	if after.EmployeeID != actor.UserID {
		s.notify(ctx, []string{after.EmployeeID}, notifications.TypeVacationCancelled, "Vacation cancelled",
			fmt.Sprintf("Your request from %s to %s was cancelled by HR.", after.StartDate.Format(dateLayout), after.EndDate.Format(dateLayout)))
	}
	return s.Store.GetRequest(ctx, requestID)
}

// decisionStage authorises an approve/reject and names the stage it acts at.
func (s *Service) decisionStage(ctx context.Context, actor auth.UserContext, req Request) (string, error) {
	if !req.Open() {
		return "", ErrInvalidState
	}
	if req.EmployeeID == actor.UserID && actor.RoleName != auth.RoleAdmin {
		return "", ErrForbidden
	}
	if auth.IsHR(actor.RoleName) {
		return StageHR, nil
	}
	if req.Status != StatusPending {
		return "", ErrForbidden
	}
	employee, err := s.Store.Employee(ctx, req.EmployeeID)
	if err != nil {
		return "", err
	}
	if employee.SupervisorID != actor.UserID {
		return "", ErrForbidden
	}
	return StageSupervisor, nil
}

// scopeFilter narrows a request filter to what actor may see.
func (s *Service) scopeFilter(actor auth.UserContext, filter RequestFilter) RequestFilter {
	switch {
	case auth.IsHR(actor.RoleName):
	case actor.RoleName == auth.RoleSupervisor:
		filter.SupervisorID = actor.UserID
	default:
		filter.EmployeeID = actor.UserID
	}
	return filter
}

func (s *Service) ListRequests(ctx context.Context, actor auth.UserContext, filter RequestFilter, limit, offset int) ([]Request, int, error) {
	for _, status := range filter.Statuses {
		if !validStatus(status) {
			return nil, 0, ErrInvalidInput
		}
	}
	return s.Store.ListRequests(ctx, s.scopeFilter(actor, filter), limit, offset)
}

// PendingApprovals lists what actor is expected to decide next.
func (s *Service) PendingApprovals(ctx context.Context, actor auth.UserContext, limit, offset int) ([]Request, int, error) {
	if auth.IsHR(actor.RoleName) {
		return s.Store.ListRequests(ctx, RequestFilter{Statuses: []string{StatusPendingHR}}, limit, offset)
	}
	if actor.RoleName != auth.RoleSupervisor {
		return []Request{}, 0, nil
	}
	return s.Store.ListRequests(ctx, RequestFilter{
		SupervisorID:      actor.UserID,
		ExcludeEmployeeID: actor.UserID,
		Statuses:          []string{StatusPending},
	}, limit, offset)
}

type RequestDetail struct {
	Request   Request    `json:"request"`
	Approvals []Approval `json:"approvals"`
}

func (s *Service) GetRequest(ctx context.Context, actor auth.UserContext, requestID string) (RequestDetail, error) {
	req, err := s.Store.GetRequest(ctx, requestID)
	if err != nil {
		return RequestDetail{}, err
	}
	ok, err := s.canSeeEmployee(ctx, actor, req.EmployeeID)
	if err != nil {
		return RequestDetail{}, err
	}
	if !ok {
		return RequestDetail{}, ErrForbidden
	}
	approvals, err := s.Store.ListApprovals(ctx, requestID)
	if err != nil {
		return RequestDetail{}, err
	}
	return RequestDetail{Request: req, Approvals: approvals}, nil
}

func (s *Service) canSeeEmployee(ctx context.Context, actor auth.UserContext, employeeID string) (bool, error) {
	if employeeID == actor.UserID || auth.IsHR(actor.RoleName) {
		return true, nil
	}
	if actor.RoleName != auth.RoleSupervisor {
		return false, nil
	}
	employee, err := s.Store.Employee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return employee.SupervisorID == actor.UserID, nil
}

func (s *Service) ListTypes(ctx context.Context) ([]AbsenceType, error) {
	return s.Store.ListTypes(ctx)
}

func (s *Service) CreateType(ctx context.Context, actor auth.UserContext, t AbsenceType) (AbsenceType, error) {
	t.Name = strings.TrimSpace(t.Name)
	t.Code = strings.ToUpper(strings.TrimSpace(t.Code))
	if t.Name == "" || t.Code == "" {
		return AbsenceType{}, ErrInvalidInput
	}
	id, err := s.Store.CreateType(ctx, t)
	if err != nil {
		return AbsenceType{}, err
	}
	t.ID = id
	s.record(ctx, actor.UserID, "vacation.type.create", id, nil, t)
	return s.Store.GetType(ctx, id)
}

func (s *Service) GetPolicy(ctx context.Context) (Policy, error) {
	return s.Store.GetPolicy(ctx)
}

func ValidatePolicy(p Policy) error {
	switch {
	case p.AnnualDays < 0, p.SeniorityAfterYears < 0, p.SeniorityBonusDays < 0, p.MaxAnnualDays < 0, p.MaxBalance < 0:
		return ErrInvalidPolicy
	case !validPeriod(p.AccrualPeriod):
		return ErrInvalidPolicy
	case p.MaxAnnualDays > 0 && p.MaxAnnualDays < p.AnnualDays:
		return ErrInvalidPolicy
	}
	return nil
}

func (s *Service) UpdatePolicy(ctx context.Context, actor auth.UserContext, p Policy) (Policy, error) {
	if err := ValidatePolicy(p); err != nil {
		return Policy{}, err
	}
	before, err := s.Store.GetPolicy(ctx)
	if err != nil {
		return Policy{}, err
	}
	if err := s.Store.UpdatePolicy(ctx, p); err != nil {
		return Policy{}, err
	}
	s.record(ctx, actor.UserID, "vacation.policy.update", "1", before, p)
	return s.Store.GetPolicy(ctx)
}

type BalanceSummary struct {
	Balance     Balance      `json:"balance"`
	Entitlement float64      `json:"entitlement"`
	Adjustments []Adjustment `json:"adjustments"`
}

func (s *Service) GetBalance(ctx context.Context, actor auth.UserContext, employeeID string) (BalanceSummary, error) {
	if employeeID == "" {
		employeeID = actor.UserID
	}
	ok, err := s.canSeeEmployee(ctx, actor, employeeID)
	if err != nil {
		return BalanceSummary{}, err
	}
	if !ok {
		return BalanceSummary{}, ErrForbidden
	}
	employee, err := s.Store.Employee(ctx, employeeID)
	if err != nil {
		return BalanceSummary{}, err
	}
	policy, err := s.Store.GetPolicy(ctx)
	if err != nil {
		return BalanceSummary{}, err
	}
	balance, err := s.Store.GetBalance(ctx, employeeID)
	if err != nil {
		return BalanceSummary{}, err
	}
	adjustments, err := s.Store.ListAdjustments(ctx, employeeID)
	if err != nil {
		return BalanceSummary{}, err
	}
	return BalanceSummary{
		Balance:     balance,
		Entitlement: EntitlementFor(policy, employee.HireDate, s.now()),
		Adjustments: adjustments,
	}, nil
}

func (s *Service) ListBalances(ctx context.Context, actor auth.UserContext) ([]EmployeeBalance, error) {
	switch {
	case auth.IsHR(actor.RoleName):
		return s.Store.ListBalances(ctx, "")
	case actor.RoleName == auth.RoleSupervisor:
		return s.Store.ListBalances(ctx, actor.UserID)
	}
	return nil, ErrForbidden
}

// AdjustBalance credits (or debits, when negative) accrued days by hand.
func (s *Service) AdjustBalance(ctx context.Context, actor auth.UserContext, employeeID string, amount float64, reason string) (Balance, error) {
	if !auth.IsHR(actor.RoleName) {
		return Balance{}, ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	amount = round2(amount)
	if amount == 0 || reason == "" {
		return Balance{}, ErrInvalidInput
	}
	if _, err := s.Store.Employee(ctx, employeeID); err != nil {
		return Balance{}, err
	}

	var before Balance
	err := s.Store.InTx(ctx, func(tx TxStore) error {
		b, err := tx.LockBalance(ctx, employeeID)
		if err != nil {
			return err
		}
		before = b
		if err := tx.ApplyBalance(ctx, employeeID, BalanceDelta{Accrued: amount}); err != nil {
			return err
		}
		return tx.InsertAdjustment(ctx, employeeID, amount, reason, actor.UserID)
	})
	if err != nil {
		return Balance{}, err
	}

	after, err := s.Store.GetBalance(ctx, employeeID)
	if err != nil {
		return Balance{}, err
	}
	s.record(ctx, actor.UserID, "vacation.balance.adjust", employeeID, before, map[string]any{"amount": amount, "reason": reason, "balance": after})
	s.notify(ctx, []string{employeeID}, notifications.TypeBalanceAdjusted, "Vacation balance adjusted",
		fmt.Sprintf("HR adjusted your balance by %g days: %s", amount, reason))
	return after, nil
}

func (s *Service) ListDebts(ctx context.Context, actor auth.UserContext) ([]Debt, error) {
	if !auth.IsHR(actor.RoleName) {
		return nil, ErrForbidden
	}
	return s.Store.ListDebts(ctx)
}

func (s *Service) RunAccruals(ctx context.Context, now time.Time) (AccrualSummary, error) {
	summary, err := ApplyAccruals(ctx, s.Store, now)
	if err == nil && !summary.Skipped {
		s.event("accrual.run")
	}
	return summary, err
}

// Calendar lists open and approved absences overlapping [from, to]. Employees
// see their own team: peers sharing their supervisor, and the supervisor.
func (s *Service) Calendar(ctx context.Context, actor auth.UserContext, from, to time.Time, statuses []string) ([]CalendarEntry, error) {
	if to.Before(from) {
		return nil, ErrInvalidDates
	}
	if len(statuses) == 0 {
		statuses = OpenStatuses
	}
	for _, status := range statuses {
		if !validStatus(status) {
			return nil, ErrInvalidInput
		}
	}
	filter := RequestFilter{Statuses: statuses, From: &from, To: &to}
	switch {
	case auth.IsHR(actor.RoleName):
	case actor.RoleName == auth.RoleSupervisor:
		filter.SupervisorID = actor.UserID
	default:
		employee, err := s.Store.Employee(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		if employee.SupervisorID != "" {
			filter.SupervisorID = employee.SupervisorID
		} else {
			filter.EmployeeID = actor.UserID
		}
	}
	return s.Store.CalendarEntries(ctx, filter)
}

const dateLayout = "2006-01-02"

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) hrRecipients(ctx context.Context) []string {
	ids, err := s.Store.HRUserIDs(ctx)
	if err != nil {
		slog.Warn("hr recipients lookup failed", "err", err)
		return nil
	}
	return ids
}

func (s *Service) notify(ctx context.Context, userIDs []string, ntype, title, body string) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.Notify(ctx, userIDs, ntype, title, body)
}

func (s *Service) record(ctx context.Context, actorID, action, entityID string, before, after any) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, actorID, action, "vacation", entityID, before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}

func (s *Service) event(name string) {
	if s.Metrics != nil {
		s.Metrics.Event(name)
	}
}

func validStatus(status string) bool {
	for _, candidate := range AllStatuses {
		if status == candidate {
			return true
		}
	}
	return false
}

func displayName(e Employee) string {
	if strings.TrimSpace(e.Name) != "" {
		return e.Name
	}
	return e.Email
}
