package directory

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	RoleID       string     `json:"roleId"`
	Role         string     `json:"role"`
	DepartmentID string     `json:"departmentId,omitempty"`
	SupervisorID string     `json:"supervisorId,omitempty"`
	HireDate     *time.Time `json:"hireDate,omitempty"`
	Status       string     `json:"status"`
	MFAEnabled   bool       `json:"mfaEnabled"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserInput carries create and update payloads. Empty strings clear optional
// references on update.
type UserInput struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Role         string
	DepartmentID string
	SupervisorID string
	HireDate     *time.Time
}

type UserFilter struct {
	Query        string
	Role         string
	DepartmentID string
	Status       string
	// Scope, when non-empty, restricts results to these user ids.
	Scope []string
}

type Department struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	HeadUserID string    `json:"headUserId,omitempty"`
	Members    int       `json:"members"`
	CreatedAt  time.Time `json:"createdAt"`
}
