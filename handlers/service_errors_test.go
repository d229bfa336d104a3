package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udehnih/review-rating/clients"
	"github.com/udehnih/review-rating/services"
	"github.com/udehnih/review-rating/utils"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedError   string
		expectedMessage string
	}{
		{
			name:            "review not found",
			err:             services.ErrReviewNotFound,
			expectedStatus:  http.StatusNotFound,
			expectedError:   "not_found",
			expectedMessage: "review not found",
		},
		{
			name:            "invalid rating",
			err:             services.ErrInvalidRating,
			expectedStatus:  http.StatusBadRequest,
			expectedError:   "bad_request",
			expectedMessage: "rating must be between 1 and 5",
		},
		{
			name:           "unauthorized",
			err:            services.ErrUnauthorized,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "unauthorized",
		},
		{
			name:            "not the owner",
			err:             services.ErrNotReviewOwner,
			expectedStatus:  http.StatusForbidden,
			expectedError:   "forbidden",
			expectedMessage: "only the author may modify this review",
		},
		{
			name:           "conflict",
			err:            services.NewDomainError(services.ErrorTypeConflict, "duplicate", nil),
			expectedStatus: http.StatusConflict,
			expectedError:  "conflict",
		},
		{
			name:            "peer failure hides cause",
			err:             services.WrapExternal("course service request failed", clients.ErrUnavailable),
			expectedStatus:  http.StatusBadGateway,
			expectedError:   "bad_gateway",
			expectedMessage: "course service request failed",
		},
		{
			name:            "internal error hides cause",
			err:             services.WrapInternal("failed to create review", errors.New("pq: relation does not exist")),
			expectedStatus:  http.StatusInternalServerError,
			expectedError:   "internal_error",
			expectedMessage: "An internal error occurred",
		},
		{
			name:            "unknown error",
			err:             errors.New("some unknown error"),
			expectedStatus:  http.StatusInternalServerError,
			expectedError:   "internal_error",
			expectedMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

			assert.Equal(t, tt.expectedError, response.Error)
			assert.NotEmpty(t, response.Message)
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, response.Message)
			}
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}

func TestHandleServiceErrorWithDetails(t *testing.T) {
	err := services.NewDomainError(services.ErrorTypeNotFound, "course not found", clients.ErrNotFound).
		WithDetail("course_id", 42)

	w := httptest.NewRecorder()
	HandleServiceError(w, err, zap.NewNop())

	assert.Equal(t, http.StatusNotFound, w.Code)
	// not-found responses carry no details
	assert.NotContains(t, w.Body.String(), "course_id")

	err = services.NewDomainError(services.ErrorTypeValidation, "courseId must be positive", nil).
		WithDetail("course_id", -1)
	w = httptest.NewRecorder()
	HandleServiceError(w, err, zap.NewNop())

	var response utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, float64(-1), response.Details["course_id"])
}

func TestHandleServiceErrorNil(t *testing.T) {
	w := httptest.NewRecorder()

	HandleServiceError(w, nil, zap.NewNop())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandleValidationError(t *testing.T) {
	logger := zap.NewNop()

	t.Run("field errors become details", func(t *testing.T) {
		err := &utils.ValidationError{
			Message: "Validation failed",
			Fields: map[string]string{
				"rating":   "rating must be between 1 and 5",
				"courseId": "courseId is required",
			},
		}

		w := httptest.NewRecorder()
		HandleValidationError(w, err, logger)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "Validation failed", response.Message)
		assert.Equal(t, "rating must be between 1 and 5", response.Details["rating"])
		assert.Equal(t, "courseId is required", response.Details["courseId"])
	})

	t.Run("generic error", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleValidationError(w, errors.New("reviewId must be a valid UUID"), logger)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "reviewId must be a valid UUID", response.Message)
	})
}
