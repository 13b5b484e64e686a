package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/repository"
	"github.com/yasinhessnawi1/Natours_Backend/internal/search"
	"github.com/yasinhessnawi1/Natours_Backend/internal/storage"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// TourService owns the tour catalogue and keeps the search index in step
// with it.
type TourService struct {
	tours   repository.TourRepository
	reviews repository.ReviewRepository
	index   search.TourIndex
	images  storage.ImageStore
	now     func() time.Time
}

// NewTourService creates a TourService. index may be nil, in which case
// search falls back to SQL.
func NewTourService(
	tours repository.TourRepository,
	reviews repository.ReviewRepository,
	index search.TourIndex,
	images storage.ImageStore,
) *TourService {
	return &TourService{
		tours:   tours,
		reviews: reviews,
		index:   index,
		images:  images,
		now:     time.Now,
	}
}

// Create persists a new tour.
func (s *TourService) Create(ctx context.Context, tour *models.Tour) (*models.Tour, error) {
	if err := s.tours.Create(ctx, tour); err != nil {
		return nil, err
	}
	s.syncIndex(ctx, tour)
	return tour, nil
}

// Get returns a public tour with its guides.
func (s *TourService) Get(ctx context.Context, id int64) (*models.Tour, error) {
	return s.tours.GetByID(ctx, id)
}

// List returns one page of public tours.
func (s *TourService) List(ctx context.Context, q *database.ListQuery) ([]*models.Tour, int, error) {
	return s.tours.List(ctx, q)
}

// Update saves tour.
func (s *TourService) Update(ctx context.Context, tour *models.Tour) (*models.Tour, error) {
	if err := s.tours.Update(ctx, tour); err != nil {
		return nil, err
	}
	s.syncIndex(ctx, tour)
	return tour, nil
}

// Delete removes a tour with its reviews, guides and bookings.
func (s *TourService) Delete(ctx context.Context, id int64) error {
	if err := s.tours.Delete(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		ctx, cancel := context.WithTimeout(ctx, constants.SearchIndexTimeout)
		defer cancel()
		if err := s.index.Delete(ctx, id); err != nil {
			log.Warn().Err(err).Int64("tour_id", id).Msg("Failed to remove tour from search index")
		}
	}
	return nil
}

// ExpandReviews loads the reviews shown on the tour detail.
func (s *TourService) ExpandReviews(ctx context.Context, tour *models.Tour) error {
	reviews, err := s.reviews.ListByTour(ctx, tour.ID)
	if err != nil {
		return fmt.Errorf("failed to load tour reviews: %w", err)
	}
	tour.Reviews = reviews
	return nil
}

// GetBySlug returns a public tour with guides and reviews.
func (s *TourService) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	tour, err := s.tours.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.ExpandReviews(ctx, tour); err != nil {
		return nil, err
	}
	return tour, nil
}

// Stats aggregates well-rated tours by difficulty.
func (s *TourService) Stats(ctx context.Context) ([]*models.TourStats, error) {
	return s.tours.Stats(ctx, constants.MinTourRating)
}

// MonthlyPlan counts tour starts per month of year.
func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]*models.MonthlyPlan, error) {
	return s.tours.MonthlyPlan(ctx, year)
}

// Within finds tours starting within distance of latlng ("lat,lng") in unit.
func (s *TourService) Within(ctx context.Context, distance float64, latlng, unit string) ([]*models.Tour, error) {
	lat, lng, err := ParseLatLng(latlng)
	if err != nil {
		return nil, err
	}
	if distance < 0 {
		return nil, utils.NewValidationError(constants.ParamDistance, "Distance must not be negative")
	}

	radius := constants.EarthRadiusKm
	if unit == constants.UnitMiles {
		radius = constants.EarthRadiusMiles
	}
	return s.tours.Within(ctx, lat, lng, distance/radius)
}

// Distances returns how far every public tour starts from latlng, in unit.
func (s *TourService) Distances(ctx context.Context, latlng, unit string) ([]*models.TourDistance, error) {
	lat, lng, err := ParseLatLng(latlng)
	if err != nil {
		return nil, err
	}

	multiplier := constants.MetersToKm
	if unit == constants.UnitMiles {
		multiplier = constants.MetersToMiles
	}
	return s.tours.Distances(ctx, lat, lng, multiplier)
}

// Search runs a full-text query through the index, or through SQL when no
// index is configured or it is unavailable.
func (s *TourService) Search(ctx context.Context, query string, limit int) ([]*models.Tour, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, utils.NewValidationError(constants.QueryParamSearch, "Search query is required")
	}
	if limit <= 0 || limit > constants.MaxPageSize {
		limit = constants.MaxPageSize
	}

	if s.index != nil {
		ids, err := s.index.Search(ctx, query, limit)
		if err == nil {
			return s.tours.GetMany(ctx, ids)
		}
		log.Warn().Err(err).Str("query", query).Msg("Search index unavailable, falling back to SQL")
	}

	return s.tours.Search(ctx, query, limit)
}

// BookedByUser lists the tours a user has bookings for.
func (s *TourService) BookedByUser(ctx context.Context, userID int64) ([]*models.Tour, error) {
	return s.tours.BookedByUser(ctx, userID)
}

// ProcessImages resizes and stores a cover and gallery images. Either may be
// absent.
func (s *TourService) ProcessImages(ctx context.Context, tourID int64, cover io.Reader, images []io.Reader) (*models.ImageUpdate, error) {
	if len(images) > constants.MaxTourImages {
		return nil, utils.NewValidationError(constants.FormFieldImages, fmt.Sprintf("At most %d images are allowed", constants.MaxTourImages))
	}

	now := s.now()
	update := &models.ImageUpdate{}

	if cover != nil {
		url, err := s.storeImage(ctx, storage.TourCoverKey(tourID, now), cover)
		if err != nil {
			return nil, err
		}
		update.ImageCover = url
	}

	for i, img := range images {
		url, err := s.storeImage(ctx, storage.TourImageKey(tourID, now, i+1), img)
		if err != nil {
			return nil, err
		}
		update.Images = append(update.Images, url)
	}

	return update, nil
}

func (s *TourService) storeImage(ctx context.Context, key string, r io.Reader) (string, error) {
	data, err := storage.ResizeJPEG(r, constants.TourImageWidth, constants.TourImageHeight)
	if err != nil {
		return "", err
	}
	url, err := s.images.Put(ctx, key, constants.ContentTypeJPEG, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to store tour image: %w", err)
	}
	return url, nil
}

// Reindex creates the search index when missing and writes every public tour
// into it. It returns the number of tours indexed.
func (s *TourService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	if err := s.index.EnsureIndex(ctx); err != nil {
		return 0, err
	}

	q, err := database.ParseListQuery(url.Values{constants.QueryParamSort: {"id"}}, repository.TourSchema)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for {
		tours, total, err := s.tours.List(ctx, q)
		if err != nil {
			return indexed, fmt.Errorf("failed to list tours for reindex: %w", err)
		}
		for _, tour := range tours {
			if err := s.index.Index(ctx, tour); err != nil {
				return indexed, fmt.Errorf("failed to index tour %d: %w", tour.ID, err)
			}
			indexed++
		}
		if len(tours) == 0 || q.Page*q.Limit >= total {
			return indexed, nil
		}
		q.Page++
	}
}

// syncIndex mirrors a written tour into the index. Secret tours are removed.
func (s *TourService) syncIndex(ctx context.Context, tour *models.Tour) {
	if s.index == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, constants.SearchIndexTimeout)
	defer cancel()

	var err error
	if tour.SecretTour {
		err = s.index.Delete(ctx, tour.ID)
	} else {
		err = s.index.Index(ctx, tour)
	}
	if err != nil {
		log.Warn().Err(err).Int64("tour_id", tour.ID).Msg("Failed to sync tour to search index")
	}
}

// ParseLatLng parses "lat,lng".
func ParseLatLng(raw string) (float64, float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, utils.NewBadRequestError(constants.MsgLatLngFormat)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, utils.NewBadRequestError(constants.MsgLatLngFormat)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, utils.NewBadRequestError(constants.MsgLatLngFormat)
	}
	return lat, lng, nil
}
