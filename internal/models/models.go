package models

import "time"

// Role is the closed set of user roles. Anything else is rejected at the
// boundary, never stored.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleDeveloper Role = "developer"
)

// ValidRole reports whether s is one of the three known roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleDeveloper:
		return true
	default:
		return false
	}
}

// Status is the closed set of task statuses.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// Identity is the caller resolved from a signed token.
type Identity struct {
	ID   int
	Role Role
}

// User is the serialized user view. The password hash lives only in the
// repository layer and never appears here.
type User struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

type Project struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Members     []User    `json:"members"`
}

// Task deadlines are dates, not instants; Deadline holds YYYY-MM-DD.
type Task struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      Status    `json:"status"`
	Deadline    *string   `json:"deadline"`
	ProjectID   int       `json:"project_id"`
	AssigneeID  *int      `json:"assignee_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Metrics is the aggregate view served by /projects/metrics.
type Metrics struct {
	TotalTasks int            `json:"total_tasks"`
	Overdue    int            `json:"overdue"`
	ByStatus   map[Status]int `json:"by_status"`
}
