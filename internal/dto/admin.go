package dto

import "time"

// AdminUserItem is one row of the admin account listing.
type AdminUserItem struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	UserCategory string    `json:"user_category"`
	Active       bool      `json:"active"`
	DateJoined   time.Time `json:"date_joined"`
}

// AdminUserQuery binds admin account listing filters.
type AdminUserQuery struct {
	Search    string `form:"search"`
	Role      string `form:"role" validate:"omitempty,oneof=SUPERADMIN ADMIN RESEARCHER"`
	Category  string `form:"user_category" validate:"omitempty,max=64"`
	Page      int    `form:"page" validate:"omitempty,gte=1"`
	PageSize  int    `form:"page_size" validate:"omitempty,gte=1,lte=100"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

// AdminCreateUserRequest creates an admin-managed account. ConfirmPassword is
// only compared against Password and never persisted.
type AdminCreateUserRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=150"`
	Email           string `json:"email" validate:"required,email"`
	PhoneNumber     string `json:"phone_number" validate:"omitempty,max=32"`
	UserCategory    string `json:"user_category" validate:"omitempty,max=64"`
	UniversityName  string `json:"university_name" validate:"omitempty,max=255"`
	Role            string `json:"role" validate:"omitempty,oneof=ADMIN RESEARCHER"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// AdminCreatedUser echoes a created account without any password material.
type AdminCreatedUser struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number"`
	UserCategory   string `json:"user_category"`
	UniversityName string `json:"university_name"`
	Role           string `json:"role"`
}
