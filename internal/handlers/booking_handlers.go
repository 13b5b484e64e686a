package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/repository"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

// maxWebhookBody bounds the raw event payload read by the webhook.
const maxWebhookBody = 64 * 1024

// BookingHandler handles booking CRUD, checkout and the payment webhook.
type BookingHandler struct {
	*Resource[*models.Booking]
	bookingService BookingServiceInterface
	baseURL        string
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService BookingServiceInterface, cfg *config.AppConfig) *BookingHandler {
	return &BookingHandler{
		Resource: NewResource[*models.Booking](bookingService, ResourceOptions[*models.Booking]{
			Name:   "bookings",
			Schema: repository.BookingSchema,
			New:    models.NewBooking,
		}),
		bookingService: bookingService,
		baseURL:        cfg.App.BaseURL,
	}
}

// GetCheckoutSession starts a payment for the tour in the path.
func (h *BookingHandler) GetCheckoutSession(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		utils.Unauthorized(w, constants.MsgLoginRequired)
		return
	}

	tourID, err := parseID(r, constants.ParamTourID)
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	session, err := h.bookingService.CheckoutSession(r.Context(), tourID, user, requestBaseURL(r, h.baseURL))
	if err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
	})
}

// WebhookCheckout receives signed payment events. The body is read raw
// because the signature covers the exact bytes.
func (h *BookingHandler) WebhookCheckout(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			utils.RespondError(w, r, utils.New(utils.ErrBadRequest, http.StatusRequestEntityTooLarge, constants.MsgRequestBodyLarge))
			return
		}
		utils.RespondError(w, r, utils.NewBadRequestError("Failed to read webhook body"))
		return
	}

	if err := h.bookingService.HandleWebhook(payload, r.Header.Get(constants.HeaderStripeSignature)); err != nil {
		utils.RespondError(w, r, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]bool{
		"received": true,
	})
}
