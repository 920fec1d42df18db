package model

type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleTherapist UserRole = "therapist"
	UserRoleReception UserRole = "reception"
)

// User is a staff account for the admin dashboard.
type User struct {
	Base
	Email        string   `db:"email" json:"email"`
	Name         string   `db:"name" json:"name"`
	PasswordHash string   `db:"password_hash" json:"-"`
	Role         UserRole `db:"role" json:"role"`
	Active       bool     `db:"active" json:"active"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

type RegisterRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Name     string   `json:"name" binding:"required,max=200"`
	Password string   `json:"password" binding:"required,min=8"`
	Role     UserRole `json:"role" binding:"required,oneof=admin therapist reception"`
}
