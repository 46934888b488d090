package models

// UserRole gates admin-only endpoints.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

// User represents the user model in the database
type User struct {
	Base
	Email            string   `gorm:"uniqueIndex;not null" json:"email"`
	Password         string   `gorm:"not null" json:"-"`
	Role             UserRole `gorm:"not null;default:'user'" json:"role"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	Avatar           string   `json:"avatar,omitempty"`
	IsActive         bool     `gorm:"default:true" json:"is_active"`
	RefreshTokenHash string   `gorm:"size:64" json:"-"`
}
