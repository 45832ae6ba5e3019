package reports

import "time"

type EmployeeDashboard struct {
	Accrued   float64 `json:"accrued"`
	Available float64 `json:"available"`
	Used      float64 `json:"used"`
	Pending   float64 `json:"pending"`
	Debt      float64 `json:"debt"`
}

type SupervisorDashboard struct {
	TeamSize         int `json:"teamSize"`
	PendingApprovals int `json:"pendingApprovals"`
	OutToday         int `json:"outToday"`
}

type HRDashboard struct {
	Headcount          int     `json:"headcount"`
	PendingHRApprovals int     `json:"pendingHrApprovals"`
	EmployeesInDebt    int     `json:"employeesInDebt"`
	TotalDebt          float64 `json:"totalDebt"`
}

// Dashboard holds the sections visible to the caller's role.
type Dashboard struct {
	Employee   EmployeeDashboard    `json:"employee"`
	Supervisor *SupervisorDashboard `json:"supervisor,omitempty"`
	HR         *HRDashboard         `json:"hr,omitempty"`
}

type JobRunFilter struct {
	JobType     string
	Status      string
	StartedFrom *time.Time
	StartedTo   *time.Time
}

type JobRun struct {
	ID          string         `json:"id"`
	JobType     string         `json:"jobType"`
	Status      string         `json:"status"`
	Details     map[string]any `json:"details"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}
