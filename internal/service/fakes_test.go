package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/mailer"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/payment"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

var errBoom = errors.New("boom")

// In-memory user repository
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User), nextID: 1}
}

func (f *fakeUserRepo) add(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.nextID
	f.nextID++
	f.users[u.ID] = u
	return u
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	for _, u := range f.users {
		if u.Email == user.Email {
			f.mu.Unlock()
			return utils.NewDuplicateError("email", user.Email)
		}
	}
	f.mu.Unlock()
	f.add(user)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || !u.Active {
		return nil, utils.NewNotFoundError("")
	}
	c := *u
	return &c, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Active && strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, utils.NewNotFoundError("")
}

func (f *fakeUserRepo) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Active && u.PasswordResetToken != nil && *u.PasswordResetToken == tokenHash &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			c := *u
			return &c, nil
		}
	}
	return nil, utils.NewNotFoundError("")
}

func (f *fakeUserRepo) List(ctx context.Context, q *database.ListQuery) ([]*models.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.users {
		if u.Active {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[user.ID]
	if !ok || !u.Active {
		return utils.NewNotFoundError("")
	}
	u.Name, u.Email, u.Photo, u.Role = user.Name, user.Email, user.Photo, user.Role
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id int64, hash, salt string, changedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return utils.NewNotFoundError("")
	}
	u.PasswordHash, u.PasswordSalt = hash, salt
	u.PasswordChangedAt = &changedAt
	u.PasswordResetToken, u.PasswordResetExpires = nil, nil
	return nil
}

func (f *fakeUserRepo) ResetPassword(ctx context.Context, id int64, tokenHash, hash, salt string, changedAt, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || !u.Active || u.PasswordResetToken == nil || *u.PasswordResetToken != tokenHash ||
		u.PasswordResetExpires == nil || !u.PasswordResetExpires.After(now) {
		return utils.NewNotFoundError("")
	}
	u.PasswordHash, u.PasswordSalt = hash, salt
	u.PasswordChangedAt = &changedAt
	u.PasswordResetToken, u.PasswordResetExpires = nil, nil
	return nil
}

func (f *fakeUserRepo) SetResetToken(ctx context.Context, id int64, tokenHash *string, expires *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return utils.NewNotFoundError("")
	}
	u.PasswordResetToken, u.PasswordResetExpires = tokenHash, expires
	return nil
}

func (f *fakeUserRepo) Deactivate(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || !u.Active {
		return utils.NewNotFoundError("")
	}
	u.Active = false
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return utils.NewNotFoundError("")
	}
	delete(f.users, id)
	return nil
}

// In-memory tour repository
type fakeTourRepo struct {
	tours        map[int64]*models.Tour
	nextID       int64
	ratings      map[int64]models.RatingSummary
	withinArgs   []float64
	distanceArgs []float64
	searchCalls  int
}

func newFakeTourRepo() *fakeTourRepo {
	return &fakeTourRepo{
		tours:   make(map[int64]*models.Tour),
		ratings: make(map[int64]models.RatingSummary),
		nextID:  1,
	}
}

func (f *fakeTourRepo) add(t *models.Tour) *models.Tour {
	t.ID = f.nextID
	f.nextID++
	f.tours[t.ID] = t
	return t
}

func (f *fakeTourRepo) public(id int64) (*models.Tour, bool) {
	t, ok := f.tours[id]
	if !ok || t.SecretTour {
		return nil, false
	}
	return t, true
}

func (f *fakeTourRepo) Create(ctx context.Context, tour *models.Tour) error {
	c := *tour
	tour.ID = f.add(&c).ID
	return nil
}

func (f *fakeTourRepo) GetByID(ctx context.Context, id int64) (*models.Tour, error) {
	t, ok := f.public(id)
	if !ok {
		return nil, utils.NewNotFoundError("")
	}
	return t, nil
}

func (f *fakeTourRepo) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	for _, t := range f.tours {
		if t.Slug == slug && !t.SecretTour {
			return t, nil
		}
	}
	return nil, utils.NewNotFoundError("")
}

func (f *fakeTourRepo) GetMany(ctx context.Context, ids []int64) ([]*models.Tour, error) {
	out := []*models.Tour{}
	for _, id := range ids {
		if t, ok := f.public(id); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTourRepo) List(ctx context.Context, q *database.ListQuery) ([]*models.Tour, int, error) {
	var out []*models.Tour
	for _, t := range f.tours {
		if !t.SecretTour {
			out = append(out, t)
		}
	}
	return out, len(out), nil
}

func (f *fakeTourRepo) Update(ctx context.Context, tour *models.Tour) error {
	if _, ok := f.public(tour.ID); !ok {
		return utils.NewNotFoundError("")
	}
	c := *tour
	f.tours[tour.ID] = &c
	return nil
}

func (f *fakeTourRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.public(id); !ok {
		return utils.NewNotFoundError("")
	}
	delete(f.tours, id)
	return nil
}

func (f *fakeTourRepo) Stats(ctx context.Context, minRating float64) ([]*models.TourStats, error) {
	return []*models.TourStats{}, nil
}

func (f *fakeTourRepo) MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlan, error) {
	return []*models.MonthlyPlan{}, nil
}

func (f *fakeTourRepo) Within(ctx context.Context, lat, lng, radians float64) ([]*models.Tour, error) {
	f.withinArgs = []float64{lat, lng, radians}
	return []*models.Tour{}, nil
}

func (f *fakeTourRepo) Distances(ctx context.Context, lat, lng, multiplier float64) ([]*models.TourDistance, error) {
	f.distanceArgs = []float64{lat, lng, multiplier}
	return []*models.TourDistance{}, nil
}

func (f *fakeTourRepo) Search(ctx context.Context, term string, limit int) ([]*models.Tour, error) {
	f.searchCalls++
	var out []*models.Tour
	for _, t := range f.tours {
		if !t.SecretTour && strings.Contains(strings.ToLower(t.Name), strings.ToLower(term)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTourRepo) UpdateRatings(ctx context.Context, tourID int64, quantity int, average float64) error {
	f.ratings[tourID] = models.RatingSummary{TourID: tourID, Quantity: quantity, Average: average}
	return nil
}

func (f *fakeTourRepo) BookedByUser(ctx context.Context, userID int64) ([]*models.Tour, error) {
	return []*models.Tour{}, nil
}

// In-memory review repository
type fakeReviewRepo struct {
	reviews map[int64]*models.Review
	nextID  int64
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[int64]*models.Review), nextID: 1}
}

func (f *fakeReviewRepo) Create(ctx context.Context, review *models.Review) error {
	for _, r := range f.reviews {
		if r.TourID == review.TourID && r.UserID == review.UserID {
			return utils.NewDuplicateError("tour_id, user_id", fmt.Sprintf("%d, %d", review.TourID, review.UserID))
		}
	}
	review.ID = f.nextID
	f.nextID++
	c := *review
	f.reviews[review.ID] = &c
	return nil
}

func (f *fakeReviewRepo) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, utils.NewNotFoundError("")
	}
	c := *r
	return &c, nil
}

func (f *fakeReviewRepo) List(ctx context.Context, q *database.ListQuery) ([]*models.Review, int, error) {
	var out []*models.Review
	for _, r := range f.reviews {
		out = append(out, r)
	}
	return out, len(out), nil
}

func (f *fakeReviewRepo) ListByTour(ctx context.Context, tourID int64) ([]*models.Review, error) {
	out := []*models.Review{}
	for _, r := range f.reviews {
		if r.TourID == tourID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) Update(ctx context.Context, review *models.Review) error {
	r, ok := f.reviews[review.ID]
	if !ok {
		return utils.NewNotFoundError("")
	}
	r.Review, r.Rating = review.Review, review.Rating
	return nil
}

func (f *fakeReviewRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.reviews[id]; !ok {
		return utils.NewNotFoundError("")
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeReviewRepo) RatingSummary(ctx context.Context, tourID int64) (*models.RatingSummary, error) {
	summary := &models.RatingSummary{TourID: tourID}
	total := 0
	for _, r := range f.reviews {
		if r.TourID == tourID {
			summary.Quantity++
			total += r.Rating
		}
	}
	if summary.Quantity == 0 {
		summary.Average = constants.DefaultRatingsAverage
		return summary, nil
	}
	summary.Average = utils.RoundTo(float64(total)/float64(summary.Quantity), 1)
	return summary, nil
}

// In-memory booking repository; written from the webhook goroutine.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[int64]*models.Booking
	nextID   int64
	err      error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[int64]*models.Booking), nextID: 1}
}

func (f *fakeBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	booking.ID = f.nextID
	f.nextID++
	f.bookings[booking.ID] = booking
	return nil
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, utils.NewNotFoundError("")
	}
	return b, nil
}

func (f *fakeBookingRepo) List(ctx context.Context, q *database.ListQuery) ([]*models.Booking, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Booking
	for _, b := range f.bookings {
		out = append(out, b)
	}
	return out, len(out), nil
}

func (f *fakeBookingRepo) Update(ctx context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[booking.ID]; !ok {
		return utils.NewNotFoundError("")
	}
	f.bookings[booking.ID] = booking
	return nil
}

func (f *fakeBookingRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[id]; !ok {
		return utils.NewNotFoundError("")
	}
	delete(f.bookings, id)
	return nil
}

func (f *fakeBookingRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}

// Collaborators

type fakePublisher struct {
	jobs []*mailer.Job
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, job *mailer.Job) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(userID int64) (string, error) {
	return fmt.Sprintf("token-%d", userID), nil
}

func testHasher() auth.PasswordHasher {
	return auth.NewArgon2Hasher(&auth.PasswordConfig{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

type fakeIndex struct {
	indexed []int64
	deleted []int64
	hits    []int64
	err     error
}

func (f *fakeIndex) EnsureIndex(ctx context.Context) error { return f.err }

func (f *fakeIndex) Index(ctx context.Context, tour *models.Tour) error {
	f.indexed = append(f.indexed, tour.ID)
	return f.err
}

func (f *fakeIndex) Delete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeIndex) Search(ctx context.Context, query string, limit int) ([]int64, error) {
	return f.hits, f.err
}

type fakeImageStore struct {
	keys []string
}

func (f *fakeImageStore) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.keys = append(f.keys, key)
	return "/img/" + key, nil
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, req *payment.CheckoutRequest) (*models.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutSession), args.Error(1)
}

func (m *MockGateway) ParseWebhook(payload []byte, signature string) (*models.CheckoutCompleted, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutCompleted), args.Error(1)
}

func sampleTour(name string) *models.Tour {
	t := &models.Tour{
		Name:         name,
		Duration:     5,
		MaxGroupSize: 10,
		Difficulty:   constants.DifficultyEasy,
		Price:        397,
		Summary:      "A summary",
		ImageCover:   "tour-cover.jpg",
	}
	t.BeforeSave()
	return t
}
