package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/mailer"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/repository"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// AuthService handles signup, login and the password lifecycle.
type AuthService struct {
	users  repository.UserRepository
	tokens auth.TokenIssuer
	hasher auth.PasswordHasher
	mail   mailer.Publisher
	now    func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users repository.UserRepository,
	tokens auth.TokenIssuer,
	hasher auth.PasswordHasher,
	mail mailer.Publisher,
) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		mail:   mail,
		now:    time.Now,
	}
}

// Signup creates a regular user account and logs it in. The welcome email is
// best effort.
func (s *AuthService) Signup(ctx context.Context, req *models.SignupRequest, accountURL string) (*models.AuthResponse, error) {
	if req.Password != req.PasswordConfirm {
		return nil, utils.NewValidationError("passwordConfirm", constants.MsgPasswordsDoNotMatch)
	}

	hash, salt, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(req.Name, req.Email)
	user.PasswordHash = hash
	user.PasswordSalt = salt
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	utils.LogAuth("signup", user.ID, user.Email, true, "")

	if err := s.mail.Publish(ctx, mailer.WelcomeJob(user.Email, user.Name, accountURL)); err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to enqueue welcome email")
	}

	return s.issue(user)
}

// Login checks the credentials of an active user.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, utils.NewBadRequestError(constants.MsgProvideCredentials)
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if utils.IsNotFoundError(err) {
			utils.LogAuth("login", 0, req.Email, false, "unknown email")
			return nil, utils.NewUnauthorizedError(constants.MsgIncorrectLogin)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash, user.PasswordSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		utils.LogAuth("login", user.ID, user.Email, false, "wrong password")
		return nil, utils.NewUnauthorizedError(constants.MsgIncorrectLogin)
	}

	utils.LogAuth("login", user.ID, user.Email, true, "")
	return s.issue(user)
}

// ForgotPassword stores a reset token for the user and emails the link
// resetURLPrefix + token. The token is discarded again when the email cannot
// be queued.
func (s *AuthService) ForgotPassword(ctx context.Context, email, resetURLPrefix string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if utils.IsNotFoundError(err) {
			return utils.NewNotFoundError(constants.MsgEmailNotFound)
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := auth.CreateResetToken(s.now())
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	if err := s.users.SetResetToken(ctx, user.ID, &token.Hash, &token.ExpiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	job := mailer.PasswordResetJob(user.Email, user.Name, resetURLPrefix+token.Plain)
	if err := s.mail.Publish(ctx, job); err != nil {
		if clearErr := s.users.SetResetToken(ctx, user.ID, nil, nil); clearErr != nil {
			log.Error().Err(clearErr).Int64("user_id", user.ID).Msg("Failed to clear reset token")
		}
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to enqueue password reset email")
		return utils.NewInternalError(constants.MsgEmailSendFailed, err)
	}

	utils.LogAuth("forgot_password", user.ID, user.Email, true, "")
	return nil
}

// ResetPassword sets a new password for the owner of an unexpired reset
// token and logs them in. The token is consumed by the same update that
// stores the password, so concurrent resets with one token succeed once.
func (s *AuthService) ResetPassword(ctx context.Context, token string, req *models.ResetPasswordRequest) (*models.AuthResponse, error) {
	now := s.now()
	tokenHash := auth.HashResetToken(token)
	user, err := s.users.GetByResetToken(ctx, tokenHash, now)
	if err != nil {
		if utils.IsNotFoundError(err) {
			return nil, utils.NewBadRequestError(constants.MsgResetTokenInvalid)
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	err = s.setPassword(user, req.Password, now, func(hash, salt string, changedAt time.Time) error {
		return s.users.ResetPassword(ctx, user.ID, tokenHash, hash, salt, changedAt, now)
	})
	if err != nil {
		if utils.IsNotFoundError(err) {
			return nil, utils.NewBadRequestError(constants.MsgResetTokenInvalid)
		}
		return nil, err
	}

	utils.LogAuth("reset_password", user.ID, user.Email, true, "")
	return s.issue(user)
}

// UpdatePassword changes the password of the logged in user after checking
// the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID int64, req *models.UpdatePasswordRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	match, err := s.hasher.Verify(req.PasswordCurrent, user.PasswordHash, user.PasswordSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		utils.LogAuth("update_password", user.ID, user.Email, false, "wrong current password")
		return nil, utils.NewUnauthorizedError(constants.MsgWrongCurrentPass)
	}

	err = s.setPassword(user, req.Password, s.now(), func(hash, salt string, changedAt time.Time) error {
		return s.users.UpdatePassword(ctx, user.ID, hash, salt, changedAt)
	})
	if err != nil {
		return nil, err
	}

	utils.LogAuth("update_password", user.ID, user.Email, true, "")
	return s.issue(user)
}

// setPassword hashes password, hands the credentials to store and updates
// user on success. password_changed_at is backdated by a second so the token
// issued right after still verifies.
func (s *AuthService) setPassword(user *models.User, password string, now time.Time, store func(hash, salt string, changedAt time.Time) error) error {
	hash, salt, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	changedAt := now.Add(-constants.PasswordChangedSkew)
	if err := store(hash, salt, changedAt); err != nil {
		return err
	}

	user.PasswordHash = hash
	user.PasswordSalt = salt
	user.PasswordChangedAt = &changedAt
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	return nil
}

func (s *AuthService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}
