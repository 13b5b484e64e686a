package utils_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
)

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	utils.JSON(rr, http.StatusCreated, map[string]string{"message": "Success"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	resp := decodeResponse(t, rr)
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]interface{}{"message": "Success"}, resp.Data)
}

func TestError(t *testing.T) {
	rr := httptest.NewRecorder()

	utils.Error(rr, http.StatusBadRequest, "bad_request", "Invalid", map[string]string{"name": "required"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeResponse(t, rr)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "bad_request", resp.Error.Code)
	assert.Equal(t, "required", resp.Error.Details["name"])
}

func TestPaginated(t *testing.T) {
	rr := httptest.NewRecorder()

	utils.Paginated(rr, http.StatusOK, []int{1, 2}, 2, 2, 5)

	resp := decodeResponse(t, rr)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, 5, resp.Meta.TotalItems)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDevInfo bool
	}{
		{
			name:        "Operational error in production",
			err:         utils.NewForbiddenError(""),
			wantStatus:  http.StatusForbidden,
			wantCode:    "forbidden",
			wantMessage: "You do not have permission to perform this action",
		},
		{
			name:        "Programming error in production is sanitized",
			err:         errors.New("nil pointer somewhere"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "internal_error",
			wantMessage: "Something went wrong, we will fix it as soon as possible",
		},
		{
			name:        "Client-facing internal error keeps its message",
			err:         utils.NewInternalError("There was an error sending the email. Try again later!", errors.New("amqp closed")),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "internal_error",
			wantMessage: "There was an error sending the email. Try again later!",
		},
		{
			name:        "Programming error in development carries dev info",
			verbose:     true,
			err:         errors.New("nil pointer somewhere"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "internal_error",
			wantMessage: "Something went wrong, we will fix it as soon as possible",
			wantDevInfo: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
			req = req.WithContext(utils.WithVerboseErrors(req.Context(), tt.verbose))
			rr := httptest.NewRecorder()

			utils.RespondError(rr, req, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			resp := decodeResponse(t, rr)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMessage, resp.Error.Message)
			_, hasDev := resp.Error.Details["dev_info"]
			assert.Equal(t, tt.wantDevInfo, hasDev)
		})
	}
}

func TestVerboseErrorsDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, utils.VerboseErrors(req.Context()))
}

func TestNoContent(t *testing.T) {
	rr := httptest.NewRecorder()
	utils.NoContent(rr)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}
