package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
)

// IsSecureRequest reports whether the request arrived over TLS, directly or
// through a proxy that sets X-Forwarded-Proto.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get(constants.HeaderXForwardedProto), "https")
}

// SetTokenCookie stores the session token in the jwt cookie.
func SetTokenCookie(w http.ResponseWriter, r *http.Request, token string, expiry time.Duration, production bool) {
	if expiry <= 0 {
		expiry = constants.DefaultCookieExpiry
	}
	http.SetCookie(w, &http.Cookie{
		Name:     constants.AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(expiry),
		MaxAge:   int(expiry.Seconds()),
		HttpOnly: true,
		Secure:   production || IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie overwrites the session cookie with a short-lived placeholder.
func ClearTokenCookie(w http.ResponseWriter, r *http.Request, production bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.AuthCookieName,
		Value:    constants.LoggedOutCookieValue,
		Path:     "/",
		Expires:  time.Now().Add(constants.LogoutCookieTTL),
		MaxAge:   int(constants.LogoutCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   production || IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}
