// Package auth issues and verifies session tokens, hashes passwords and
// gates HTTP handlers by identity and role.
package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// ContextKey is a custom type for context keys to prevent collisions.
type ContextKey string

// UserContextKey holds the authenticated *models.User.
const UserContextKey ContextKey = "user"

// UserLookup resolves the user a token was issued for. Implementations must
// only return active users and a not-found error otherwise.
type UserLookup interface {
	GetActiveByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticator holds the collaborators of the auth middleware chain.
type Authenticator struct {
	tokens TokenVerifier
	users  UserLookup
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(tokens TokenVerifier, users UserLookup) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// ExtractToken returns the bearer token from the Authorization header, or
// the jwt cookie when there is no header. The logout placeholder counts as
// no token.
func ExtractToken(r *http.Request) string {
	if header := r.Header.Get(constants.HeaderAuthorization); strings.HasPrefix(header, constants.BearerTokenPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, constants.BearerTokenPrefix))
	}
	cookie, err := r.Cookie(constants.AuthCookieName)
	if err != nil || cookie.Value == constants.LoggedOutCookieValue {
		return ""
	}
	return cookie.Value
}

// Authenticate runs the token checks and returns the current user.
func (a *Authenticator) Authenticate(r *http.Request) (*models.User, error) {
	token := ExtractToken(r)
	if token == "" {
		return nil, utils.NewUnauthorizedError(constants.MsgLoginRequired)
	}

	info, err := a.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := a.users.GetActiveByID(r.Context(), info.UserID)
	if err != nil {
		if utils.IsNotFoundError(err) {
			return nil, utils.NewUnauthorizedError(constants.MsgUserNoLongerExists)
		}
		return nil, err
	}

	if user.PasswordChangedAfter(info.IssuedAt) {
		return nil, utils.NewUnauthorizedError(constants.MsgPasswordChanged)
	}

	return user, nil
}

// Protect rejects requests without a valid session and attaches the user
// to the request context.
func (a *Authenticator) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.Authenticate(r)
		if err != nil {
			log.Debug().
				Err(err).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("Authentication failed")
			utils.RespondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// SoftAuth attaches the user when the request carries a valid session and
// otherwise lets the request through anonymously.
func (a *Authenticator) SoftAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ExtractToken(r) == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := a.Authenticate(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RestrictTo allows only users whose role is in roles. It must run after Protect.
func RestrictTo(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := models.NewRoleSet(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r)
			if !ok {
				utils.RespondError(w, r, utils.NewUnauthorizedError(constants.MsgLoginRequired))
				return
			}
			if !allowed.Contains(user.Role) {
				utils.LogAuth("restrict", user.ID, user.Email, false, "role "+string(user.Role))
				utils.RespondError(w, r, utils.NewForbiddenError(constants.MsgPermissionDenied))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OwnerFunc returns the id of the user owning the resource with the given id.
type OwnerFunc func(ctx context.Context, id int64) (int64, error)

// RequireOwnerOrAdmin lets admins through and otherwise requires the current
// user to own the resource named by the URL parameter param.
func RequireOwnerOrAdmin(param string, owner OwnerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r)
			if !ok {
				utils.RespondError(w, r, utils.NewUnauthorizedError(constants.MsgLoginRequired))
				return
			}
			if user.Role == models.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			raw := chi.URLParam(r, param)
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				utils.RespondError(w, r, utils.NewBadRequestError("Invalid id: "+raw))
				return
			}

			ownerID, err := owner(r.Context(), id)
			if err != nil {
				utils.RespondError(w, r, err)
				return
			}
			if ownerID != user.ID {
				utils.RespondError(w, r, utils.NewForbiddenError(constants.MsgOwnReviewsOnly))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext returns the authenticated user stored in ctx.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

// CurrentUser returns the authenticated user of the request.
func CurrentUser(r *http.Request) (*models.User, bool) {
	return UserFromContext(r.Context())
}

// IsAuthenticated checks if the request is authenticated.
func IsAuthenticated(r *http.Request) bool {
	_, ok := CurrentUser(r)
	return ok
}
