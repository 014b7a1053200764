package handler

import (
	"net/http"

	"github.com/oggyb/polysms/internal/response"
)

// HomeHandler serves the root and liveness endpoints.
type HomeHandler struct {
	appName string
}

// NewHomeHandler returns a new HomeHandler.
func NewHomeHandler(appName string) *HomeHandler { return &HomeHandler{appName: appName} }

// Index godoc
// @Summary     Welcome endpoint
// @Description Simple root endpoint that returns a welcome message.
// @Tags        home
// @Produce     json
// @Success     200 {object} response.WelcomeResponse
// @Router      / [get]
func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	payload := response.WelcomePayload{
		Message: "Welcome to " + h.appName + " SMS gateway",
	}

	response.RespondJSON(w, http.StatusOK, payload)
}

// Health godoc
// @Summary     Health check
// @Description Returns a basic status payload to indicate the API is running.
// @Tags        home
// @Produce     json
// @Success     200 {object} response.HealthResponse
// @Router      /health [get]
func (h *HomeHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.RespondJSON(w, http.StatusOK, response.HealthPayload{Status: "ok"})
}
