package api

import (
	"time"

	"github.com/opshub-io/opshub/pkg/auth"
)

// ProjectStatus is the lifecycle state of a project
type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

// Valid reports whether s is a known project status
func (s ProjectStatus) Valid() bool {
	return s == ProjectActive || s == ProjectArchived
}

// TicketPriority is the urgency of a ticket
type TicketPriority string

const (
	PriorityLow  TicketPriority = "low"
	PriorityMed  TicketPriority = "med"
	PriorityHigh TicketPriority = "high"
)

// Valid reports whether p is a known ticket priority
func (p TicketPriority) Valid() bool {
	return p == PriorityLow || p == PriorityMed || p == PriorityHigh
}

// TicketStatus is the workflow state of a ticket
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketDone       TicketStatus = "done"
)

// Valid reports whether s is a known ticket status
func (s TicketStatus) Valid() bool {
	return s == TicketOpen || s == TicketInProgress || s == TicketDone
}

// Project represents a project record
type Project struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	OwnerID     *int64        `json:"owner_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Ticket represents a ticket record
type Ticket struct {
	ID          int64          `json:"id"`
	ProjectID   int64          `json:"project_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Priority    TicketPriority `json:"priority"`
	Status      TicketStatus   `json:"status"`
	AssigneeID  *int64         `json:"assignee_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// LoginRequest is the request body for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the response body for a successful login
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CreateUserRequest is the request body for POST /api/v1/users
type CreateUserRequest struct {
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role"`
	IsActive *bool     `json:"is_active,omitempty"`
}

// UpdateUserRequest is the request body for PUT /api/v1/users/{id}.
// Nil fields are left unchanged.
type UpdateUserRequest struct {
	Email    *string    `json:"email,omitempty"`
	FullName *string    `json:"full_name,omitempty"`
	Password *string    `json:"password,omitempty"`
	Role     *auth.Role `json:"role,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}

// CreateProjectRequest is the request body for POST /api/v1/projects
type CreateProjectRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status,omitempty"`
	OwnerID     *int64        `json:"owner_id,omitempty"`
}

// UpdateProjectRequest is the request body for PUT /api/v1/projects/{id}.
// Nil fields are left unchanged.
type UpdateProjectRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	OwnerID     *int64         `json:"owner_id,omitempty"`
}

// CreateTicketRequest is the request body for POST /api/v1/tickets
type CreateTicketRequest struct {
	ProjectID   int64          `json:"project_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Priority    TicketPriority `json:"priority,omitempty"`
	Status      TicketStatus   `json:"status,omitempty"`
	AssigneeID  *int64         `json:"assignee_id,omitempty"`
}

// UpdateTicketRequest is the request body for PUT /api/v1/tickets/{id}.
// Nil fields are left unchanged; updated_at moves only when at least one
// field is present.
type UpdateTicketRequest struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Priority    *TicketPriority `json:"priority,omitempty"`
	Status      *TicketStatus   `json:"status,omitempty"`
	AssigneeID  *int64          `json:"assignee_id,omitempty"`
}

// CreateAuditLogRequest is the request body for POST /api/v1/audit-logs
type CreateAuditLogRequest struct {
	Action    string      `json:"action"`
	TableName string      `json:"table_name"`
	RecordID  *int64      `json:"record_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}
