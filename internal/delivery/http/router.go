package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventcheckin/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes.
// requireAuth wraps every registration route; health and swagger are public.
func NewRouter(
	registrationController *controllers.RegistrationController,
	healthController *controllers.HealthController,
	requireAuth func(http.HandlerFunc) http.HandlerFunc,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Registration
	mux.HandleFunc("POST /events/{eventID}/join", requireAuth(registrationController.Join))
	mux.HandleFunc("POST /events/{eventID}/check-in", requireAuth(registrationController.CheckIn))
	mux.HandleFunc("POST /events/{eventID}/leave", requireAuth(registrationController.Leave))
	mux.HandleFunc("GET /events/{eventID}/participants", requireAuth(registrationController.ListParticipants))

	mux.HandleFunc("GET /health", healthController.Health)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
