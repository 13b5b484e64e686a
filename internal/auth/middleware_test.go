package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetActiveByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.CurrentUser(r)
		if ok {
			w.Header().Set("X-User", user.Name)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Message
}

func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", auth.ExtractToken(r))

	r.Header.Set("Authorization", "Bearer abc.def")
	assert.Equal(t, "abc.def", auth.ExtractToken(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "jwt", Value: "cookie-token"})
	assert.Equal(t, "cookie-token", auth.ExtractToken(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "jwt", Value: "loggedout"})
	assert.Equal(t, "", auth.ExtractToken(r), "logout placeholder is not a token")

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", auth.ExtractToken(r))
}

func TestProtect(t *testing.T) {
	tokens := testTokenService()
	token, err := tokens.Issue(5)
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		users := new(MockUserLookup)
		a := auth.NewAuthenticator(tokens, users)

		rec := httptest.NewRecorder()
		a.Protect(okHandler(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, constants.MsgLoginRequired, errorMessage(t, rec))
		users.AssertNotCalled(t, "GetActiveByID", mock.Anything, mock.Anything)
	})

	t.Run("invalid token", func(t *testing.T) {
		a := auth.NewAuthenticator(tokens, new(MockUserLookup))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer garbage")

		rec := httptest.NewRecorder()
		a.Protect(okHandler(t)).ServeHTTP(rec, r)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, constants.MsgInvalidToken, errorMessage(t, rec))
	})

	t.Run("user no longer exists", func(t *testing.T) {
		users := new(MockUserLookup)
		users.On("GetActiveByID", mock.Anything, int64(5)).Return(nil, utils.NewNotFoundError(""))
		a := auth.NewAuthenticator(tokens, users)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		a.Protect(okHandler(t)).ServeHTTP(rec, r)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, constants.MsgUserNoLongerExists, errorMessage(t, rec))
		users.AssertExpectations(t)
	})

	t.Run("password changed after issue", func(t *testing.T) {
		changed := time.Now().Add(time.Hour)
		users := new(MockUserLookup)
		users.On("GetActiveByID", mock.Anything, int64(5)).Return(&models.User{ID: 5, PasswordChangedAt: &changed}, nil)
		a := auth.NewAuthenticator(tokens, users)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "jwt", Value: token})
		rec := httptest.NewRecorder()
		a.Protect(okHandler(t)).ServeHTTP(rec, r)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, constants.MsgPasswordChanged, errorMessage(t, rec))
	})

	t.Run("valid", func(t *testing.T) {
		changed := time.Now().Add(-time.Hour)
		users := new(MockUserLookup)
		users.On("GetActiveByID", mock.Anything, int64(5)).Return(&models.User{ID: 5, Name: "Leo", PasswordChangedAt: &changed}, nil)
		a := auth.NewAuthenticator(tokens, users)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		a.Protect(okHandler(t)).ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Leo", rec.Header().Get("X-User"))
	})
}

func TestSoftAuth(t *testing.T) {
	tokens := testTokenService()
	token, err := tokens.Issue(9)
	require.NoError(t, err)

	users := new(MockUserLookup)
	users.On("GetActiveByID", mock.Anything, int64(9)).Return(&models.User{ID: 9, Name: "Ana"}, nil)
	a := auth.NewAuthenticator(tokens, users)

	tests := []struct {
		name     string
		cookie   string
		wantUser string
	}{
		{"anonymous", "", ""},
		{"logged out", "loggedout", ""},
		{"bad token", "nope", ""},
		{"logged in", token, "Ana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "jwt", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			a.SoftAuth(okHandler(t)).ServeHTTP(rec, r)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantUser, rec.Header().Get("X-User"))
		})
	}
}

func TestRestrictTo(t *testing.T) {
	mw := auth.RestrictTo(models.RoleAdmin, models.RoleLeadGuide)

	for _, tt := range []struct {
		role models.Role
		want int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleLeadGuide, http.StatusOK},
		{models.RoleGuide, http.StatusForbidden},
		{models.RoleUser, http.StatusForbidden},
	} {
		r := httptest.NewRequest(http.MethodDelete, "/", nil)
		r = r.WithContext(auth.WithUser(r.Context(), &models.User{ID: 1, Role: tt.role}))
		rec := httptest.NewRecorder()
		mw(okHandler(t)).ServeHTTP(rec, r)

		assert.Equal(t, tt.want, rec.Code, "role %s", tt.role)
		if tt.want == http.StatusForbidden {
			assert.Equal(t, constants.MsgPermissionDenied, errorMessage(t, rec))
		}
	}

	rec := httptest.NewRecorder()
	mw(okHandler(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	owner := func(ctx context.Context, id int64) (int64, error) {
		if id == 404 {
			return 0, utils.NewNotFoundError("")
		}
		return 10, nil
	}

	serve := func(user *models.User, id string) *httptest.ResponseRecorder {
		router := chi.NewRouter()
		router.With(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
			})
		}, auth.RequireOwnerOrAdmin("id", owner)).Patch("/reviews/{id}", okHandler(t).ServeHTTP)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/reviews/"+id, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, serve(&models.User{ID: 10, Role: models.RoleUser}, "1").Code)
	assert.Equal(t, http.StatusOK, serve(&models.User{ID: 99, Role: models.RoleAdmin}, "1").Code)

	rec := serve(&models.User{ID: 11, Role: models.RoleUser}, "1")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, constants.MsgOwnReviewsOnly, errorMessage(t, rec))

	assert.Equal(t, http.StatusNotFound, serve(&models.User{ID: 11, Role: models.RoleUser}, "404").Code)
	assert.Equal(t, http.StatusBadRequest, serve(&models.User{ID: 11, Role: models.RoleUser}, "abc").Code)
}

func TestTokenCookies(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	auth.SetTokenCookie(rec, r, "tok", time.Hour, false)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "jwt", cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.False(t, cookies[0].Secure)

	r.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	auth.ClearTokenCookie(rec, r, false)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "loggedout", cookies[0].Value)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, 10, cookies[0].MaxAge)
}
