package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
	"github.com/yasinhessnawi1/Natours_Backend/internal/views"
)

// envelope mirrors utils.Response with the data left raw.
type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *utils.ErrorInfo `json:"error"`
	Meta    *utils.MetaInfo  `json:"meta"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withURLParams attaches chi route parameters given as key, value pairs.
func withURLParams(req *http.Request, kv ...string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		chiCtx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

func withUser(req *http.Request, user *models.User) *http.Request {
	return req.WithContext(auth.WithUser(req.Context(), user))
}

func testConfig() *config.AppConfig {
	cfg := &config.AppConfig{}
	cfg.App.Environment = "development"
	cfg.JWT.CookieExpiry = time.Hour
	cfg.Stripe.PublicKey = "pk_test"
	cfg.Views.MapboxToken = "mapbox-token"
	return cfg
}

func testUser() *models.User {
	return &models.User{ID: 9, Name: "Laura Wilson", Email: "laura@example.com", Role: models.RoleUser, Photo: "user-9.jpg", Active: true}
}

func testTour() *models.Tour {
	return &models.Tour{
		ID:             5,
		Name:           "The Forest Hiker",
		Slug:           "the-forest-hiker",
		Duration:       5,
		MaxGroupSize:   25,
		Difficulty:     "easy",
		RatingsAverage: 4.7,
		Price:          397,
		Summary:        "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:     "tour-5-cover.jpg",
	}
}

// MockAuthService is a mock implementation of AuthServiceInterface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, req *models.SignupRequest, accountURL string) (*models.AuthResponse, error) {
	args := m.Called(ctx, req, accountURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email, resetURLPrefix string) error {
	return m.Called(ctx, email, resetURLPrefix).Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token string, req *models.ResetPasswordRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

func (m *MockAuthService) UpdatePassword(ctx context.Context, userID int64, req *models.UpdatePasswordRequest) (*models.AuthResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResponse), args.Error(1)
}

// mockStore implements the Store methods for any model on top of mock.Mock.
type mockStore[T Model] struct {
	mock.Mock
}

func (m *mockStore[T]) Create(ctx context.Context, item T) (T, error) {
	args := m.Called(ctx, item)
	return result[T](args)
}

func (m *mockStore[T]) Get(ctx context.Context, id int64) (T, error) {
	args := m.Called(ctx, id)
	return result[T](args)
}

func (m *mockStore[T]) List(ctx context.Context, q *database.ListQuery) ([]T, int, error) {
	args := m.Called(ctx, q)
	var items []T
	if v := args.Get(0); v != nil {
		items = v.([]T)
	}
	return items, args.Int(1), args.Error(2)
}

func (m *mockStore[T]) Update(ctx context.Context, item T) (T, error) {
	args := m.Called(ctx, item)
	return result[T](args)
}

func (m *mockStore[T]) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func result[T any](args mock.Arguments) (T, error) {
	var zero T
	if v := args.Get(0); v != nil {
		return v.(T), args.Error(1)
	}
	return zero, args.Error(1)
}

// MockUserService is a mock implementation of UserServiceInterface
type MockUserService struct {
	mockStore[*models.User]
}

func (m *MockUserService) UpdateMe(ctx context.Context, user *models.User, req *models.UpdateMeRequest) (*models.User, error) {
	args := m.Called(ctx, user, req)
	return result[*models.User](args)
}

func (m *MockUserService) DeleteMe(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserService) UploadPhoto(ctx context.Context, userID int64, r io.Reader) (string, error) {
	args := m.Called(ctx, userID, r)
	return args.String(0), args.Error(1)
}

// MockTourService is a mock implementation of TourServiceInterface
type MockTourService struct {
	mockStore[*models.Tour]
}

func (m *MockTourService) ExpandReviews(ctx context.Context, tour *models.Tour) error {
	return m.Called(ctx, tour).Error(0)
}

func (m *MockTourService) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	args := m.Called(ctx, slug)
	return result[*models.Tour](args)
}

func (m *MockTourService) Stats(ctx context.Context) ([]*models.TourStats, error) {
	args := m.Called(ctx)
	return result[[]*models.TourStats](args)
}

func (m *MockTourService) MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlan, error) {
	args := m.Called(ctx, year)
	return result[[]*models.MonthlyPlan](args)
}

func (m *MockTourService) Within(ctx context.Context, distance float64, latlng, unit string) ([]*models.Tour, error) {
	args := m.Called(ctx, distance, latlng, unit)
	return result[[]*models.Tour](args)
}

func (m *MockTourService) Distances(ctx context.Context, latlng, unit string) ([]*models.TourDistance, error) {
	args := m.Called(ctx, latlng, unit)
	return result[[]*models.TourDistance](args)
}

func (m *MockTourService) Search(ctx context.Context, query string, limit int) ([]*models.Tour, error) {
	args := m.Called(ctx, query, limit)
	return result[[]*models.Tour](args)
}

func (m *MockTourService) BookedByUser(ctx context.Context, userID int64) ([]*models.Tour, error) {
	args := m.Called(ctx, userID)
	return result[[]*models.Tour](args)
}

func (m *MockTourService) ProcessImages(ctx context.Context, tourID int64, cover io.Reader, images []io.Reader) (*models.ImageUpdate, error) {
	args := m.Called(ctx, tourID, cover, images)
	return result[*models.ImageUpdate](args)
}

// MockReviewService is a mock implementation of ReviewServiceInterface
type MockReviewService struct {
	mockStore[*models.Review]
}

func (m *MockReviewService) Owner(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockBookingService is a mock implementation of BookingServiceInterface
type MockBookingService struct {
	mockStore[*models.Booking]
}

func (m *MockBookingService) CheckoutSession(ctx context.Context, tourID int64, user *models.User, baseURL string) (*models.CheckoutSession, error) {
	args := m.Called(ctx, tourID, user, baseURL)
	return result[*models.CheckoutSession](args)
}

func (m *MockBookingService) HandleWebhook(payload []byte, signature string) error {
	return m.Called(payload, signature).Error(0)
}

// MockRenderer records rendered pages instead of executing templates.
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(w http.ResponseWriter, status int, name string, page *views.Page) error {
	return m.Called(w, status, name, page).Error(0)
}
