package controllers

import (
	"net/http"
	"time"

	"eventcheckin/internal/delivery/http/helpers"
	"eventcheckin/internal/domain"
)

// registrationStatus maps a rejection kind to its HTTP status.
var registrationStatus = map[domain.ErrorKind]int{
	domain.KindNotFound:      http.StatusNotFound,
	domain.KindStateConflict: http.StatusConflict,
	domain.KindCapacity:      http.StatusConflict,
	domain.KindGeofence:      http.StatusUnprocessableEntity,
}

// writeServiceError writes the response for an error returned by the
// registration service. Business rejections keep their domain code; anything
// else is an infrastructure failure and is logged.
func (c *RegistrationController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if re, ok := domain.AsRegistrationError(err); ok {
		status, known := registrationStatus[re.Kind]
		if !known {
			status = http.StatusBadRequest
		}
		helpers.WriteJSONErrorDetails(w, status, string(re.Code), re.Message, registrationDetails(re))
		return
	}

	c.Logger.ErrorContext(r.Context(), "request failed",
		"path", r.URL.Path,
		"method", r.Method,
		"retryable", domain.IsRetryable(err),
		"err", err,
	)
	if domain.IsRetryable(err) {
		helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeUnavailable, "temporarily unavailable, retry the request")
		return
	}
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal server error")
}

func registrationDetails(re *domain.RegistrationError) map[string]any {
	switch re.Code {
	case domain.CodeEventNotOpen:
		return map[string]any{"event_status": string(re.EventStatus)}
	case domain.CodeCheckInTooFar:
		return map[string]any{
			"distance_meters":     re.DistanceMeters,
			"max_distance_meters": re.MaxDistanceMeters,
		}
	case domain.CodeCheckInTooEarly, domain.CodeCheckInTooLate:
		return map[string]any{
			"window_opens_at":  re.WindowOpensAt.UTC().Format(time.RFC3339),
			"window_closes_at": re.WindowClosesAt.UTC().Format(time.RFC3339),
		}
	}
	return nil
}
