package vacation

import (
	"encoding/json"
	"time"
)

const (
	StatusPending   = "pending"
	StatusPendingHR = "pending_hr"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// OpenStatuses are the statuses that hold days and block overlapping requests.
var OpenStatuses = []string{StatusPending, StatusPendingHR, StatusApproved}

var AllStatuses = []string{StatusPending, StatusPendingHR, StatusApproved, StatusRejected, StatusCancelled}

const (
	AccrualMonthly = "monthly"
	AccrualYearly  = "yearly"
)

const (
	StageEmployee   = "employee"
	StageSupervisor = "supervisor"
	StageHR         = "hr"

	DecisionApproved  = "approved"
	DecisionRejected  = "rejected"
	DecisionCancelled = "cancelled"
)

type AbsenceType struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Code               string    `json:"code"`
	DeductsBalance     bool      `json:"deductsBalance"`
	RequiresHRApproval bool      `json:"requiresHrApproval"`
	CreatedAt          time.Time `json:"createdAt"`
}

type Policy struct {
	AnnualDays          float64   `json:"annualDays"`
	SeniorityAfterYears int       `json:"seniorityAfterYears"`
	SeniorityBonusDays  float64   `json:"seniorityBonusDays"`
	MaxAnnualDays       float64   `json:"maxAnnualDays"`
	MaxBalance          float64   `json:"maxBalance"`
	AllowDebt           bool      `json:"allowDebt"`
	AccrualPeriod       string    `json:"accrualPeriod"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type Balance struct {
	EmployeeID string    `json:"employeeId"`
	Accrued    float64   `json:"accrued"`
	Used       float64   `json:"used"`
	Pending    float64   `json:"pending"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Available is what can still be requested: accrued minus used and pending.
func (b Balance) Available() float64 {
	return round2(b.Accrued - b.Used - b.Pending)
}

// Debt is the amount consumed beyond what was accrued.
func (b Balance) Debt() float64 {
	if b.Used > b.Accrued {
		return round2(b.Used - b.Accrued)
	}
	return 0
}

func (b Balance) MarshalJSON() ([]byte, error) {
	type plain Balance
	return json.Marshal(struct {
		plain
		Available float64 `json:"available"`
		Debt      float64 `json:"debt"`
	}{plain(b), b.Available(), b.Debt()})
}

// EmployeeBalance is a balance row joined with the owner's identity.
type EmployeeBalance struct {
	Balance
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
}

func (e EmployeeBalance) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EmployeeID string    `json:"employeeId"`
		Name       string    `json:"name"`
		Email      string    `json:"email"`
		Department string    `json:"department,omitempty"`
		Accrued    float64   `json:"accrued"`
		Used       float64   `json:"used"`
		Pending    float64   `json:"pending"`
		Available  float64   `json:"available"`
		Debt       float64   `json:"debt"`
		UpdatedAt  time.Time `json:"updatedAt"`
	}{e.EmployeeID, e.Name, e.Email, e.Department, e.Accrued, e.Used, e.Pending, e.Available(), e.Debt(), e.UpdatedAt})
}

type Request struct {
	ID                 string     `json:"id"`
	EmployeeID         string     `json:"employeeId"`
	EmployeeName       string     `json:"employeeName,omitempty"`
	TypeID             string     `json:"typeId"`
	TypeName           string     `json:"typeName,omitempty"`
	DeductsBalance     bool       `json:"deductsBalance"`
	RequiresHRApproval bool       `json:"requiresHrApproval"`
	StartDate          time.Time  `json:"startDate"`
	EndDate            time.Time  `json:"endDate"`
	Days               float64    `json:"days"`
	Reason             string     `json:"reason"`
	Status             string     `json:"status"`
	DecidedBy          string     `json:"decidedBy,omitempty"`
	DecidedAt          *time.Time `json:"decidedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

func (r Request) Open() bool {
	return r.Status == StatusPending || r.Status == StatusPendingHR
}

type Approval struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"requestId"`
	ApproverID string    `json:"approverId"`
	Stage      string    `json:"stage"`
	Decision   string    `json:"decision"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type RequestFilter struct {
	EmployeeID   string
	SupervisorID string // matches the supervisor's reports and the supervisor
	// ExcludeEmployeeID drops one employee's own requests.
	ExcludeEmployeeID string
	Statuses          []string
	From              *time.Time
	To                *time.Time
}

// Employee is the slice of the directory the workflow needs.
type Employee struct {
	ID           string
	Name         string
	Email        string
	RoleName     string
	SupervisorID string
	HireDate     *time.Time
	Active       bool
}

type Debt struct {
	EmployeeID string  `json:"employeeId"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Accrued    float64 `json:"accrued"`
	Used       float64 `json:"used"`
	Debt       float64 `json:"debt"`
}

type Adjustment struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	Amount     float64   `json:"amount"`
	Reason     string    `json:"reason"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CalendarEntry struct {
	RequestID    string    `json:"requestId"`
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName"`
	TypeName     string    `json:"typeName"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	Days         float64   `json:"days"`
	Status       string    `json:"status"`
}

// BalanceDelta is applied atomically to a balance row.
type BalanceDelta struct {
	Accrued float64
	Used    float64
	Pending float64
}

type Quote struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Days      int       `json:"days"`
}
