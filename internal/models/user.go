package models

import (
	"strings"
	"time"

	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// DefaultUserPhoto is assigned to users who never uploaded a photo.
const DefaultUserPhoto = "default.jpg"

// User is a registered account. Credential fields never leave the server.
type User struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name" validate:"required,max=100"`
	Email                string     `json:"email" validate:"required,email,max=255"`
	Photo                string     `json:"photo"`
	Role                 Role       `json:"role" validate:"required,role"`
	PasswordHash         string     `json:"-"`
	PasswordSalt         string     `json:"-"`
	PasswordChangedAt    *time.Time `json:"passwordChangedAt,omitempty"`
	PasswordResetToken   *string    `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	Active               bool       `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// NewUser creates an active user with the default role and photo.
func NewUser(name, email string) *User {
	now := time.Now()
	u := &User{
		Name:      name,
		Email:     email,
		Role:      RoleUser,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	u.BeforeSave()
	return u
}

// GetID returns the primary key.
func (u *User) GetID() int64 { return u.ID }

// BeforeSave normalizes the user before validation and persistence.
func (u *User) BeforeSave() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Photo == "" {
		u.Photo = DefaultUserPhoto
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
}

// Validate checks the struct rules.
func (u *User) Validate() error {
	return utils.ValidateStruct(u)
}

// PasswordChangedAfter reports whether the password changed after issuedAt.
// Both times are compared in whole seconds, the resolution of token claims.
func (u *User) PasswordChangedAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}

// SignupRequest is the body of POST /signup. Role is accepted but ignored.
type SignupRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Role            string `json:"role,omitempty"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdatePasswordRequest is the body of PATCH /updateMyPassword.
type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// UpdateMeRequest holds the profile fields a user may change on their own account.
type UpdateMeRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Photo *string `json:"photo,omitempty"`
}

// Empty reports whether the request changes nothing.
func (r *UpdateMeRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Photo == nil
}

// AuthResponse is returned by signup, login, password reset and password update.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
