package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/repository"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// topToursQuery presets the list query of /top-5-cheap.
var topToursQuery = map[string]string{
	constants.QueryParamLimit:  "5",
	constants.QueryParamSort:   "-ratingsAverage,price",
	constants.QueryParamFields: "name,price,ratingsAverage,summary,difficulty",
}

// TourHandler handles tour routes
type TourHandler struct {
	*Resource[*models.Tour]
	tourService TourServiceInterface
}

// NewTourHandler creates a new TourHandler
func NewTourHandler(tourService TourServiceInterface) *TourHandler {
	return &TourHandler{
		Resource: NewResource[*models.Tour](tourService, ResourceOptions[*models.Tour]{
			Name:   "tours",
			Schema: repository.TourSchema,
			New:    func() *models.Tour { return &models.Tour{} },
			Expand: func(ctx context.Context, tour *models.Tour) error {
				return tourService.ExpandReviews(ctx, tour)
			},
		}),
		tourService: tourService,
	}
}

// AliasTopTours rewrites the query string to list the five best cheap tours.
func (h *TourHandler) AliasTopTours(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		for k, v := range topToursQuery {
			q.Set(k, v)
		}
		r.URL.RawQuery = q.Encode()
		next.ServeHTTP(w, r)
	})
}

// UpdateTour applies a JSON patch, or stores the images of a multipart upload.
func (h *TourHandler) UpdateTour(w http.ResponseWriter, r *http.Request) {
	if !isMultipart(r) {
		h.UpdateOne(w, r)
		return
	}

	id, err := parseID(r, constants.ParamID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	tour, err := h.tourService.Get(r.Context(), id)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		utils.RespondError(w, r, utils.NewBadRequestError("Invalid multipart form: "+err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	cover, images, closeAll, err := openTourImages(r.MultipartForm)
	defer closeAll()
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	update, err := h.tourService.ProcessImages(r.Context(), id, cover, images)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}
	update.Apply(tour)

	saved, err := h.Save(r.Context(), tour)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, saved)
}

// GetTourStats returns rating and price statistics per difficulty.
func (h *TourHandler) GetTourStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tourService.Stats(r.Context())
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"stats": stats,
	})
}

// GetMonthlyPlan counts the tour starts per month of the requested year.
func (h *TourHandler) GetMonthlyPlan(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, constants.ParamYear)
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 {
		utils.RespondError(w, r, utils.NewValidationError(constants.ParamYear, "Invalid year: "+raw))
		return
	}

	plan, err := h.tourService.MonthlyPlan(r.Context(), year)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"plan": plan,
	})
}

// GetToursWithin lists tours starting within a distance of a point.
func (h *TourHandler) GetToursWithin(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, constants.ParamDistance)
	distance, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		utils.RespondError(w, r, utils.NewValidationError(constants.ParamDistance, "Invalid distance: "+raw))
		return
	}
	unit, err := parseUnit(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	tours, err := h.tourService.Within(r.Context(), distance, chi.URLParam(r, constants.ParamLatLng), unit)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"results": len(tours),
		"tours":   tours,
	})
}

// GetDistances returns how far every tour starts from a point.
func (h *TourHandler) GetDistances(w http.ResponseWriter, r *http.Request) {
	unit, err := parseUnit(r)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	distances, err := h.tourService.Distances(r.Context(), chi.URLParam(r, constants.ParamLatLng), unit)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"distances": distances,
	})
}

// SearchTours runs a full-text search over public tours.
func (h *TourHandler) SearchTours(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get(constants.QueryParamLimit); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.RespondError(w, r, utils.NewValidationError(constants.QueryParamLimit, "Limit must be a positive integer"))
			return
		}
		limit = n
	}

	tours, err := h.tourService.Search(r.Context(), r.URL.Query().Get(constants.QueryParamSearch), limit)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"results": len(tours),
		"tours":   tours,
	})
}

func parseUnit(r *http.Request) (string, error) {
	unit := chi.URLParam(r, constants.ParamUnit)
	if unit != constants.UnitMiles && unit != constants.UnitKilometers {
		return "", utils.NewValidationError(constants.ParamUnit, "Unit must be mi or km")
	}
	return unit, nil
}

// openTourImages opens the cover and gallery files of a tour upload. The
// returned func closes whatever was opened.
func openTourImages(form *multipart.Form) (io.Reader, []io.Reader, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	var cover io.Reader
	if headers := form.File[constants.FormFieldImageCover]; len(headers) > 0 {
		f, err := headers[0].Open()
		if err != nil {
			return nil, nil, closeAll, utils.NewBadRequestError("Invalid image upload: " + err.Error())
		}
		files = append(files, f)
		cover = f
	}

	headers := form.File[constants.FormFieldImages]
	if len(headers) > constants.MaxTourImages {
		return nil, nil, closeAll, utils.NewValidationError(constants.FormFieldImages, "At most 3 images are allowed")
	}
	images := make([]io.Reader, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, nil, closeAll, utils.NewBadRequestError("Invalid image upload: " + err.Error())
		}
		files = append(files, f)
		images = append(images, f)
	}

	return cover, images, closeAll, nil
}
