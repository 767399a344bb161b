package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const statusError = "error"

// shortenRequest represents the structure for a request to shorten a URL.
// Zero expiry_hours selects the configured default.
type shortenRequest struct {
	OriginalURL string `json:"original_url" validate:"required,url"`
	ExpiryHours int    `json:"expiry_hours" validate:"gte=0,lte=2562047"`
	Password    string `json:"password" validate:"max=72"`
}

type shortenResponse struct {
	ShortCode         string    `json:"short_code"`
	ShortURL          string    `json:"short_url"`
	OriginalURL       string    `json:"original_url"`
	PasswordProtected bool      `json:"password_protected"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

func toShortenResponse(url *entity.URL) shortenResponse {
	return shortenResponse{
		ShortCode:         url.ShortCode,
		ShortURL:          url.ShortLink,
		OriginalURL:       url.OriginalURL,
		PasswordProtected: url.IsProtected(),
		CreatedAt:         url.CreatedAt,
		ExpiresAt:         url.ExpiresAt,
	}
}

type resolveResponse struct {
	OriginalURL string `json:"original_url"`
}

type accessLogResponse struct {
	AccessedAt time.Time `json:"accessed_at"`
	IPAddress  string    `json:"ip_address"`
}

type analyticsResponse struct {
	ShortCode   string              `json:"short_code"`
	AccessCount int64               `json:"access_count"`
	AccessLogs  []accessLogResponse `json:"access_logs"`
}

// toAnalyticsResponse converts entity.Analytics to an analyticsResponse.
// access_logs is always an array, never null.
func toAnalyticsResponse(analytics *entity.Analytics) analyticsResponse {
	logs := make([]accessLogResponse, 0, len(analytics.AccessLogs))
	for _, l := range analytics.AccessLogs {
		logs = append(logs, accessLogResponse{
			AccessedAt: l.AccessedAt,
			IPAddress:  l.IPAddress,
		})
	}

	return analyticsResponse{
		ShortCode:   analytics.ShortCode,
		AccessCount: analytics.AccessCount,
		AccessLogs:  logs,
	}
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	ShortCode string            `json:"short_code,omitempty"`
	Errors    []validationError `json:"errors,omitempty"`
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	invalidURLResponse = errorResponse{
		Status:  statusError,
		Message: "invalid url",
	}

	invalidExpiryResponse = errorResponse{
		Status:  statusError,
		Message: "invalid expiry",
	}

	invalidPasswordResponse = errorResponse{
		Status:  statusError,
		Message: "invalid password",
	}

	collisionResponse = errorResponse{
		Status:  statusError,
		Message: "short code collision",
	}

	urlNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "url not found",
	}

	urlExpiredResponse = errorResponse{
		Status:  statusError,
		Message: "url expired",
	}

	passwordRequiredResponse = errorResponse{
		Status:  statusError,
		Message: "password required",
	}

	accessDeniedResponse = errorResponse{
		Status:  statusError,
		Message: "access denied",
	}

	storeUnavailableResponse = errorResponse{
		Status:  statusError,
		Message: "store unavailable",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Message: "server error occurred",
	}
)

func alreadyShortenedResponse(shortCode string) errorResponse {
	return errorResponse{
		Status:    statusError,
		Message:   "url already shortened",
		ShortCode: shortCode,
	}
}

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "url":
		return "invalid url"
	case "gte":
		return "must not be negative"
	case "lte":
		return "too large"
	case "max":
		return "too long"
	default:
		return "invalid value"
	}
}

// getValidationErrors processes validation errors and returns a list of validationError.
func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

// validationErrorResponse constructs an errorResponse for validation errors.
func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}
