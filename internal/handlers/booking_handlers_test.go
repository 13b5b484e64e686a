package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
	"github.com/yasinhessnawi1/Natours_Backend/internal/models"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

func TestBookingHandler_GetCheckoutSession(t *testing.T) {
	t.Run("creates a session", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("CheckoutSession", mock.Anything, int64(5), mock.Anything, "http://example.com").
			Return(&models.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil)

		rr := httptest.NewRecorder()
		req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/bookings/checkout-session/5", nil), constants.ParamTourID, "5")
		NewBookingHandler(svc, testConfig()).GetCheckoutSession(rr, withUser(req, testUser()))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"session":{"id":"cs_test_1","url":"https://checkout.stripe.com/c/pay/cs_test_1"}}`, string(decodeEnvelope(t, rr).Data))
		svc.AssertExpectations(t)
	})

	t.Run("unknown tour", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("CheckoutSession", mock.Anything, int64(99), mock.Anything, mock.Anything).Return(nil, utils.NewNotFoundError(""))

		rr := httptest.NewRecorder()
		req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), constants.ParamTourID, "99")
		NewBookingHandler(svc, testConfig()).GetCheckoutSession(rr, withUser(req, testUser()))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), constants.ParamTourID, "5")
		NewBookingHandler(new(MockBookingService), testConfig()).GetCheckoutSession(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestBookingHandler_WebhookCheckout(t *testing.T) {
	payload := []byte(`{"type":"checkout.session.completed"}`)

	t.Run("acknowledges the event", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("HandleWebhook", payload, "t=1,v1=abc").Return(nil)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook-checkout", bytes.NewReader(payload))
		req.Header.Set(constants.HeaderStripeSignature, "t=1,v1=abc")
		NewBookingHandler(svc, testConfig()).WebhookCheckout(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"received":true}`, string(decodeEnvelope(t, rr).Data))
		svc.AssertExpectations(t)
	})

	t.Run("bad signature", func(t *testing.T) {
		svc := new(MockBookingService)
		svc.On("HandleWebhook", payload, "forged").Return(utils.NewInvalidWebhookError(errors.New("signature mismatch")))

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook-checkout", bytes.NewReader(payload))
		req.Header.Set(constants.HeaderStripeSignature, "forged")
		NewBookingHandler(svc, testConfig()).WebhookCheckout(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.Equal(t, constants.CodeInvalidWebhook, env.Error.Code)
		assert.Equal(t, "Webhook error: signature mismatch", env.Error.Message)
	})

	t.Run("oversized body", func(t *testing.T) {
		svc := new(MockBookingService)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook-checkout", strings.NewReader(strings.Repeat("a", maxWebhookBody+1)))
		NewBookingHandler(svc, testConfig()).WebhookCheckout(rr, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
		svc.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything)
	})
}

func TestBookingHandler_CreateDefaultsToPaid(t *testing.T) {
	svc := new(MockBookingService)
	svc.On("Create", mock.Anything, &models.Booking{TourID: 5, UserID: 9, Price: 397, Paid: true}).
		Return(&models.Booking{ID: 1, TourID: 5, UserID: 9, Price: 397, Paid: true}, nil)

	rr := httptest.NewRecorder()
	NewBookingHandler(svc, testConfig()).Create(rr, jsonRequest(t, http.MethodPost, "/api/v1/bookings", `{"tour":5,"user":9,"price":397}`))

	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	svc.AssertExpectations(t)
}
