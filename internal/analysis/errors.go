package analysis

import (
	"fmt"
	"net/http"

	"tradeops/internal/models"
)

// ServiceError represents errors from the analysis service with HTTP context
type ServiceError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewInvalidSectorError is returned before any quota or upstream work happens.
func NewInvalidSectorError(err error) *ServiceError {
	return &ServiceError{
		Code: models.ErrorCodeInvalidRequest,
		Message: fmt.Sprintf("Invalid sector parameter. Sector must be %d-%d alphabetic characters. Error: %v",
			models.SectorMinLength, models.SectorMaxLength, err),
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

func NewCollectionError(err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeUpstreamFailure,
		Message:    "Failed to collect market data",
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

func NewGenerationError(err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeUpstreamFailure,
		Message:    "LLM analysis failed",
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewInternalError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInternalError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
