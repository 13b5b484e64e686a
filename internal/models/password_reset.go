package models

import (
	"time"
)

// PasswordResetToken is a freshly generated reset token. Plain is sent to the
// user once; only Hash is persisted.
type PasswordResetToken struct {
	Plain     string    `json:"-"`
	Hash      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ForgotPasswordRequest is the body of POST /forgotPassword.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the body of PATCH /resetPassword/{token}.
type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}
