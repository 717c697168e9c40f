package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		want     string
	}{
		{
			name: "simple message",
			apiError: &APIError{
				StatusCode: http.StatusBadRequest,
				ErrorCode:  "INVALID_REQUEST",
				Message:    "Invalid request format",
			},
			want: "Invalid request format",
		},
		{
			name: "empty message",
			apiError: &APIError{
				StatusCode: http.StatusInternalServerError,
				ErrorCode:  "INTERNAL_ERROR",
				Message:    "",
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.apiError.Error())
		})
	}
}

func TestNew(t *testing.T) {
	err := New(http.StatusNotFound, "COUNTY_NOT_FOUND", "County not found in the loaded dataset")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "COUNTY_NOT_FOUND", err.ErrorCode)
	assert.Equal(t, "County not found in the loaded dataset", err.Message)
	assert.Nil(t, err.Details)
}

func TestNewWithDetails(t *testing.T) {
	details := map[string]string{"county": "ventura"}
	err := NewWithDetails(http.StatusNotFound, "COUNTY_NOT_FOUND", "county not found", details)

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, details, err.Details)
}

func TestCountyNotFoundError(t *testing.T) {
	err := CountyNotFoundError("ventura")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "COUNTY_NOT_FOUND", err.ErrorCode)
	assert.Contains(t, err.Message, `"ventura"`)
	assert.Equal(t, "ventura", err.Details)
}

func TestInvalidRequestWithError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := InvalidRequestWithError(cause)

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", err.ErrorCode)
	assert.Equal(t, cause.Error(), err.Details)
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("from", "must be a four-digit year")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)

	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "from", detail.Field)
	assert.Equal(t, "must be a four-digit year", detail.Message)
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "from", Message: "too small"},
		{Field: "to", Message: "too large"},
	})

	detail, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, detail.Errors, 2)
}

