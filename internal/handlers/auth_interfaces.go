package handlers

import (
	"context"

	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
)

// AuthServiceInterface defines the methods required from the authentication service.
// Every method that logs a user in returns the session token with the user.
type AuthServiceInterface interface {
	// Signup creates a regular user account. accountURL is linked from the
	// welcome email.
	Signup(ctx context.Context, req *models.SignupRequest, accountURL string) (*models.AuthResponse, error)

	// Login checks an email and password pair.
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)

	// ForgotPassword emails a reset link made of resetURLPrefix and a fresh token.
	//
	// Returns a not found error for unknown addresses and an internal error
	// carrying a client-facing message when the email cannot be queued.
	ForgotPassword(ctx context.Context, email, resetURLPrefix string) error

	// ResetPassword sets a new password for the owner of an unexpired reset token.
	ResetPassword(ctx context.Context, token string, req *models.ResetPasswordRequest) (*models.AuthResponse, error)

	// UpdatePassword changes the password of a logged in user after checking
	// the current one.
	UpdatePassword(ctx context.Context, userID int64, req *models.UpdatePasswordRequest) (*models.AuthResponse, error)
}
