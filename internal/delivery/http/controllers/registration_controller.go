package controllers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"eventcheckin/internal/delivery/http/helpers"
	"eventcheckin/internal/delivery/http/middleware"
	"eventcheckin/internal/domain"
	"eventcheckin/internal/geo"
)

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// ParticipantSuccessResponse is the success response envelope for join, check-in and leave.
type ParticipantSuccessResponse struct {
	Data  *domain.EventParticipant `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// ParticipantListSuccessResponse is the success response envelope for GET /events/{eventID}/participants (200).
type ParticipantListSuccessResponse struct {
	Data  []*domain.EventParticipant `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// CheckInRequest is the request body for POST /events/{eventID}/check-in.
type CheckInRequest struct {
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`
}

// Validate implements helpers.Validator.
func (r *CheckInRequest) Validate() []string {
	var errs []string
	if r.Longitude == nil {
		errs = append(errs, "longitude is required")
	}
	if r.Latitude == nil {
		errs = append(errs, "latitude is required")
	}
	if len(errs) == 0 && !r.point().Valid() {
		errs = append(errs, "latitude must be between -90 and 90 and longitude between -180 and 180")
	}
	return errs
}

func (r *CheckInRequest) point() geo.Point {
	return geo.Point{Longitude: *r.Longitude, Latitude: *r.Latitude}
}

// Join godoc
// @Summary Join an event
// @Description Registers the authenticated user for the event. A user who left earlier is re-registered on the same participant record.
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 201 {object} controllers.ParticipantSuccessResponse "status is registered"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: event_not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_not_open (details.event_status), event_full, already_registered"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/join [post]
func (c *RegistrationController) Join(w http.ResponseWriter, r *http.Request) {
	eventID, userID, ok := c.requestIdentity(w, r)
	if !ok {
		return
	}

	p, err := c.Service.Join(r.Context(), eventID, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, p)
}

// CheckIn godoc
// @Summary Check in to an event
// @Description Checks the authenticated user in. Allowed from 15 minutes before the event start until 30 minutes after it, within 500 meters of the start location.
// @Tags registration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.CheckInRequest true "Current location"
// @Success 200 {object} controllers.ParticipantSuccessResponse "status is checked_in"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: event_not_found, not_registered"
// @Failure 409 {object} helpers.APIResponse "error.code: registration_cancelled, already_checked_in"
// @Failure 422 {object} helpers.APIResponse "error.code: check_in_too_early, check_in_too_late, check_in_too_far (details.distance_meters, details.max_distance_meters)"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/check-in [post]
func (c *RegistrationController) CheckIn(w http.ResponseWriter, r *http.Request) {
	eventID, userID, ok := c.requestIdentity(w, r)
	if !ok {
		return
	}
	var req CheckInRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	p, err := c.Service.CheckIn(r.Context(), eventID, userID, req.point())
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// Leave godoc
// @Summary Leave an event
// @Description Cancels the authenticated user's registration and frees the seat.
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ParticipantSuccessResponse "status is cancelled"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_registered"
// @Failure 409 {object} helpers.APIResponse "error.code: already_cancelled"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/leave [post]
func (c *RegistrationController) Leave(w http.ResponseWriter, r *http.Request) {
	eventID, userID, ok := c.requestIdentity(w, r)
	if !ok {
		return
	}

	p, err := c.Service.Leave(r.Context(), eventID, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, p)
}

// ListParticipants godoc
// @Summary List active participants
// @Description Returns registered and checked-in participants of the event, oldest registration first.
// @Tags registration
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ParticipantListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: event_not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants [get]
func (c *RegistrationController) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, _, ok := c.requestIdentity(w, r)
	if !ok {
		return
	}

	list, err := c.Service.ListParticipants(r.Context(), eventID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*domain.EventParticipant{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// requestIdentity reads the event ID from the path and the user ID set by the
// auth middleware. It writes the error response itself and returns ok=false
// when either is missing or malformed.
func (c *RegistrationController) requestIdentity(w http.ResponseWriter, r *http.Request) (eventID, userID string, ok bool) {
	eventID = r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return "", "", false
	}
	if _, err := uuid.Parse(eventID); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return "", "", false
	}

	userID, ok = middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", "", false
	}
	return eventID, userID, true
}
