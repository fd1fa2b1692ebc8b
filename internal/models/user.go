package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleResearcher UserRole = "RESEARCHER"
)

// User represents an account stored in the users table.
type User struct {
	ID             string     `db:"id" json:"id"`
	Username       string     `db:"username" json:"username"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	FullName       string     `db:"full_name" json:"full_name"`
	PhoneNumber    string     `db:"phone_number" json:"phone_number"`
	UserCategory   string     `db:"user_category" json:"user_category"`
	UniversityName string     `db:"university_name" json:"university_name"`
	Role           UserRole   `db:"role" json:"role"`
	Active         bool       `db:"active" json:"active"`
	LastLogin      *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"date_joined"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// IsStaff reports whether the account may use the review workflow.
func (u User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Category  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Bounds returns the 1-based page and the page size, defaulting to 20 rows
// and capping at 100.
func (f UserFilter) Bounds() (page, size int) {
	page, size = f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
