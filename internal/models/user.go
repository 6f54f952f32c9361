package models

import "strings"

// Role names issued by the service.
const (
	RoleAdmin  = "Admin"
	RoleWorker = "Worker"
)

// User mirrors an account as returned by the profile and users endpoints.
type User struct {
	ID       string   `json:"id,omitempty"`
	UserName string   `json:"userName"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// HasRole reports whether the user carries role (case-insensitive).
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}
	return false
}

// UserUpdate is the admin edit payload for an account.
type UserUpdate struct {
	UserName string   `json:"userName"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles,omitempty"`
}

// Credentials is the login request body.
type Credentials struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// LoginResult is the login response body.
type LoginResult struct {
	Token    string   `json:"token"`
	UserName string   `json:"userName"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// User returns the account described by the login response.
func (r LoginResult) User() User {
	return User{UserName: r.UserName, Email: r.Email, Roles: r.Roles}
}

// Registration is the body of the invite-based register call.
type Registration struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// Invitation is the body of the invite call.
type Invitation struct {
	Email     string `json:"email"`
	ValidDays int    `json:"validDays"`
}

// ProblemDetails is the service's error body. Errors is keyed by field
// path such as "CustomerNumber" or "Address.ZipCode".
type ProblemDetails struct {
	Type   string              `json:"type,omitempty"`
	Title  string              `json:"title,omitempty"`
	Status int                 `json:"status,omitempty"`
	Detail string              `json:"detail,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}
