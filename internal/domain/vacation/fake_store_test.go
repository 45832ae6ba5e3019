package vacation

import (
	"context"
	"fmt"
	"sort"
	"time"
)

type fakeStore struct {
	types       map[string]AbsenceType
	policy      Policy
	employees   map[string]Employee
	balances    map[string]Balance
	requests    map[string]Request
	approvals   []Approval
	adjustments []Adjustment
	runs        map[time.Time]int
	hr          []string
	seq         int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		types: map[string]AbsenceType{
			"vac":  {ID: "vac", Name: "Vacation", Code: "VACATION", DeductsBalance: true},
			"perm": {ID: "perm", Name: "Permission", Code: "PERMISSION"},
			"long": {ID: "long", Name: "Sabbatical", Code: "SABBATICAL", DeductsBalance: true, RequiresHRApproval: true},
		},
		policy:    DefaultPolicy(),
		employees: map[string]Employee{},
		balances:  map[string]Balance{},
		requests:  map[string]Request{},
		runs:      map[time.Time]int{},
	}
}

func (f *fakeStore) addEmployee(e Employee) {
	e.Active = true
	f.employees[e.ID] = e
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) ListTypes(ctx context.Context) ([]AbsenceType, error) {
	out := make([]AbsenceType, 0, len(f.types))
	for _, t := range f.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetType(ctx context.Context, typeID string) (AbsenceType, error) {
	t, ok := f.types[typeID]
	if !ok {
		return AbsenceType{}, ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) CreateType(ctx context.Context, t AbsenceType) (string, error) {
	for _, existing := range f.types {
		if existing.Code == t.Code {
			return "", ErrDuplicateType
		}
	}
	t.ID = f.nextID("type")
	f.types[t.ID] = t
	return t.ID, nil
}

func (f *fakeStore) GetPolicy(ctx context.Context) (Policy, error) { return f.policy, nil }

func (f *fakeStore) UpdatePolicy(ctx context.Context, p Policy) error {
	f.policy = p
	return nil
}

func (f *fakeStore) Employee(ctx context.Context, userID string) (Employee, error) {
	e, ok := f.employees[userID]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) HRUserIDs(ctx context.Context) ([]string, error) { return f.hr, nil }

func (f *fakeStore) GetBalance(ctx context.Context, employeeID string) (Balance, error) {
	b, ok := f.balances[employeeID]
	if !ok {
		return Balance{EmployeeID: employeeID}, nil
	}
	return b, nil
}

func (f *fakeStore) ListBalances(ctx context.Context, supervisorID string) ([]EmployeeBalance, error) {
	var out []EmployeeBalance
	for id, e := range f.employees {
		if supervisorID != "" && e.SupervisorID != supervisorID {
			continue
		}
		b, _ := f.GetBalance(ctx, id)
		out = append(out, EmployeeBalance{Balance: b, Name: e.Name, Email: e.Email})
	}
	return out, nil
}

func (f *fakeStore) ListAdjustments(ctx context.Context, employeeID string) ([]Adjustment, error) {
	out := []Adjustment{}
	for _, a := range f.adjustments {
		if a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) ListDebts(ctx context.Context) ([]Debt, error) {
	var out []Debt
	for id, b := range f.balances {
		if b.Debt() > 0 {
			out = append(out, Debt{EmployeeID: id, Accrued: b.Accrued, Used: b.Used, Debt: b.Debt()})
		}
	}
	return out, nil
}

func (f *fakeStore) matches(r Request, filter RequestFilter) bool {
	if filter.EmployeeID != "" && r.EmployeeID != filter.EmployeeID {
		return false
	}
	if filter.SupervisorID != "" && r.EmployeeID != filter.SupervisorID && f.employees[r.EmployeeID].SupervisorID != filter.SupervisorID {
		return false
	}
	if filter.ExcludeEmployeeID != "" && r.EmployeeID == filter.ExcludeEmployeeID {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, s := range filter.Statuses {
			found = found || s == r.Status
		}
		if !found {
			return false
		}
	}
	if filter.From != nil && r.EndDate.Before(*filter.From) {
		return false
	}
	if filter.To != nil && r.StartDate.After(*filter.To) {
		return false
	}
	return true
}

func (f *fakeStore) ListRequests(ctx context.Context, filter RequestFilter, limit, offset int) ([]Request, int, error) {
	out := []Request{}
	for _, r := range f.requests {
		if f.matches(r, filter) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeStore) GetRequest(ctx context.Context, requestID string) (Request, error) {
	r, ok := f.requests[requestID]
	if !ok {
		return Request{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) ListApprovals(ctx context.Context, requestID string) ([]Approval, error) {
	out := []Approval{}
	for _, a := range f.approvals {
		if a.RequestID == requestID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) CalendarEntries(ctx context.Context, filter RequestFilter) ([]CalendarEntry, error) {
	items, _, _ := f.ListRequests(ctx, filter, 0, 0)
	out := make([]CalendarEntry, 0, len(items))
	for _, r := range items {
		out = append(out, CalendarEntry{RequestID: r.ID, EmployeeID: r.EmployeeID, EmployeeName: r.EmployeeName,
			TypeName: r.TypeName, StartDate: r.StartDate, EndDate: r.EndDate, Days: r.Days, Status: r.Status})
	}
	return out, nil
}

// InTx runs fn against a copy of the balances and requests and only keeps
// the changes when fn succeeds.
func (f *fakeStore) InTx(ctx context.Context, fn func(TxStore) error) error {
	balances := make(map[string]Balance, len(f.balances))
	for k, v := range f.balances {
		balances[k] = v
	}
	requests := make(map[string]Request, len(f.requests))
	for k, v := range f.requests {
		requests[k] = v
	}
	approvals := append([]Approval(nil), f.approvals...)
	adjustments := append([]Adjustment(nil), f.adjustments...)

	if err := fn(&fakeTx{f}); err != nil {
		f.balances, f.requests, f.approvals, f.adjustments = balances, requests, approvals, adjustments
		return err
	}
	return nil
}

type fakeTx struct {
	f *fakeStore
}

func (t *fakeTx) LockBalance(ctx context.Context, employeeID string) (Balance, error) {
	return t.f.GetBalance(ctx, employeeID)
}

func (t *fakeTx) ApplyBalance(ctx context.Context, employeeID string, delta BalanceDelta) error {
	b, _ := t.f.GetBalance(ctx, employeeID)
	b.Accrued += delta.Accrued
	b.Used += delta.Used
	b.Pending += delta.Pending
	if b.Pending < 0 {
		b.Pending = 0
	}
	t.f.balances[employeeID] = b
	return nil
}

func (t *fakeTx) InsertAdjustment(ctx context.Context, employeeID string, amount float64, reason, createdBy string) error {
	t.f.adjustments = append(t.f.adjustments, Adjustment{ID: t.f.nextID("adj"), EmployeeID: employeeID, Amount: amount, Reason: reason, CreatedBy: createdBy})
	return nil
}

func (t *fakeTx) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	for _, r := range t.f.requests {
		if r.EmployeeID != employeeID || !(r.Open() || r.Status == StatusApproved) {
			continue
		}
		if !r.StartDate.After(end) && !r.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) InsertRequest(ctx context.Context, r Request) (string, error) {
	r.ID = t.f.nextID("req")
	typ := t.f.types[r.TypeID]
	r.TypeName = typ.Name
	r.DeductsBalance = typ.DeductsBalance
	r.RequiresHRApproval = typ.RequiresHRApproval
	r.EmployeeName = t.f.employees[r.EmployeeID].Name
	t.f.requests[r.ID] = r
	return r.ID, nil
}

func (t *fakeTx) LockRequest(ctx context.Context, requestID string) (Request, error) {
	return t.f.GetRequest(ctx, requestID)
}

func (t *fakeTx) UpdateRequestStatus(ctx context.Context, requestID, status, decidedBy string) error {
	r := t.f.requests[requestID]
	r.Status = status
	r.DecidedBy = decidedBy
	t.f.requests[requestID] = r
	return nil
}

func (t *fakeTx) InsertApproval(ctx context.Context, a Approval) error {
	a.ID = t.f.nextID("appr")
	t.f.approvals = append(t.f.approvals, a)
	return nil
}

func (t *fakeTx) ClaimAccrualRun(ctx context.Context, periodStart time.Time, period string) (bool, error) {
	if _, ok := t.f.runs[periodStart]; ok {
		return false, nil
	}
	t.f.runs[periodStart] = 0
	return true, nil
}

func (t *fakeTx) ActiveEmployees(ctx context.Context) ([]Employee, error) {
	var out []Employee
	for _, e := range t.f.employees {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *fakeTx) Accrue(ctx context.Context, employeeID string, amount, maxBalance float64) error {
	b, _ := t.f.GetBalance(ctx, employeeID)
	next := b.Accrued + amount
	if maxBalance > 0 && next-b.Used > maxBalance {
		next = b.Used + maxBalance
		if next < b.Accrued {
			next = b.Accrued
		}
	}
	b.Accrued = next
	t.f.balances[employeeID] = b
	return nil
}

func (t *fakeTx) FinishAccrualRun(ctx context.Context, periodStart time.Time, employeesAccrued int) error {
	t.f.runs[periodStart] = employeesAccrued
	return nil
}

type recordingNotifier struct {
	sent []sentNotification
}

type sentNotification struct {
	UserIDs []string
	Type    string
}

func (n *recordingNotifier) Notify(ctx context.Context, userIDs []string, ntype, title, body string) {
	n.sent = append(n.sent, sentNotification{UserIDs: userIDs, Type: ntype})
}

type recordingAuditor struct {
	actions []string
}

func (a *recordingAuditor) Record(ctx context.Context, actorID, action, entityType, entityID string, before, after any) error {
	a.actions = append(a.actions, action)
	return nil
}
