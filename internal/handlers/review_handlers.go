package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/repository"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// ReviewHandler handles review routes, both top level and nested under a tour.
type ReviewHandler struct {
	*Resource[*models.Review]
	reviewService ReviewServiceInterface
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		Resource: NewResource[*models.Review](reviewService, ResourceOptions[*models.Review]{
			Name:         "reviews",
			Schema:       repository.ReviewSchema,
			New:          func() *models.Review { return &models.Review{} },
			BeforeCreate: setReviewAuthor,
			NestedParam:  constants.ParamTourID,
			NestedField:  "tour",
		}),
		reviewService: reviewService,
	}
}

// Owner reports the author of a review, for auth.RequireOwnerOrAdmin.
func (h *ReviewHandler) Owner() auth.OwnerFunc {
	return h.reviewService.Owner
}

// setReviewAuthor takes the author from the session and, on the nested
// route, the tour from the path when the body names none.
func setReviewAuthor(r *http.Request, review *models.Review) error {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return utils.NewUnauthorizedError(constants.MsgLoginRequired)
	}
	review.UserID = user.ID
	review.User = &models.ReviewAuthor{ID: user.ID, Name: user.Name, Photo: user.Photo}

	if raw := chi.URLParam(r, constants.ParamTourID); raw != "" && review.TourID == 0 {
		tourID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return utils.NewBadRequestError("Invalid id: " + raw)
		}
		review.TourID = tourID
	}
	return nil
}
