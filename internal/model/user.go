// internal/model/user.go
package model

type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleDirector   Role = "DIRECTOR"
	RoleManager    Role = "MANAGER"
	RoleUser       Role = "USER"
)

// User is the account record owned by the backend API. It is never stored locally.
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organization_id"`
	IsActive       bool   `json:"is_active"`
}
