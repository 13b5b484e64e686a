package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// ErrInvalidSigningMethod is returned by the key func for non-HMAC tokens.
var ErrInvalidSigningMethod = errors.New("invalid signing method")

// Claims are the claims carried by a session token.
type Claims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

// TokenInfo is what a verified token tells us about the caller.
type TokenInfo struct {
	UserID   int64
	IssuedAt time.Time
}

// TokenService issues and verifies HS256 session tokens.
type TokenService struct {
	Config *config.JWTSettings
}

// NewTokenService creates a TokenService.
func NewTokenService(cfg *config.JWTSettings) *TokenService {
	return &TokenService{Config: cfg}
}

// GetConfig returns the settings, falling back to defaults when unset.
func (s *TokenService) GetConfig() *config.JWTSettings {
	if s.Config == nil {
		return &config.JWTSettings{
			Expiry:       constants.DefaultJWTExpiry,
			CookieExpiry: constants.DefaultCookieExpiry,
			Issuer:       constants.DefaultJWTIssuer,
		}
	}
	return s.Config
}

// Issue signs a new token for userID.
func (s *TokenService) Issue(userID int64) (string, error) {
	cfg := s.GetConfig()

	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = constants.DefaultJWTExpiry
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = constants.DefaultJWTIssuer
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenString. Expired tokens get
// their own error so clients can tell them apart from forged ones.
func (s *TokenService) Verify(tokenString string) (*TokenInfo, error) {
	cfg := s.GetConfig()

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, utils.NewExpiredTokenError()
		}
		return nil, utils.NewInvalidTokenError()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 || claims.IssuedAt == nil {
		return nil, utils.NewInvalidTokenError()
	}

	return &TokenInfo{
		UserID:   claims.UserID,
		IssuedAt: claims.IssuedAt.Time,
	}, nil
}
