package handler

import (
	"net/http"

	"github.com/oggyb/polysms/internal/manager"
	"github.com/oggyb/polysms/internal/request"
	"github.com/oggyb/polysms/internal/response"
	"github.com/oggyb/polysms/internal/scheduler"
	"github.com/oggyb/polysms/internal/service"
)

// GatewayHandler exposes the registered gateways, their health and the
// health probe scheduler.
type GatewayHandler struct {
	manager *manager.Manager
	health  service.HealthService
	probe   scheduler.Scheduler
}

// NewGatewayHandler constructs a GatewayHandler. probe may be nil when
// periodic probing is disabled.
func NewGatewayHandler(m *manager.Manager, health service.HealthService, probe scheduler.Scheduler) *GatewayHandler {
	return &GatewayHandler{manager: m, health: health, probe: probe}
}

// List godoc
// @Summary     List gateways
// @Description Returns every registered gateway in registration order with its descriptive config.
// @Tags        gateways
// @Produce     json
// @Success     200 {object} response.GatewaysResponse
// @Router      /gateways [get]
func (h *GatewayHandler) List(w http.ResponseWriter, r *http.Request) {
	selected := h.manager.Selected()
	payload := response.GatewaysPayload{Default: selected, Items: []response.GatewayDTO{}}

	for _, name := range h.manager.Names() {
		dto := response.GatewayDTO{Name: name, Default: name == selected}

		if meta, err := h.manager.Registry().Meta(name); err == nil {
			dto.Driver, _ = meta["driver"].(string)
			dto.Description, _ = meta["description"].(string)
		}

		gw, err := h.manager.Gateway(name)
		if err != nil {
			dto.Error = err.Error()
		} else {
			cfg := gw.Config()
			dto.DisplayName = cfg.DisplayName
			dto.LogoURL = cfg.LogoURL
			if dto.Description == "" {
				dto.Description = cfg.Description
			}
		}
		payload.Items = append(payload.Items, dto)
	}

	response.RespondJSON(w, http.StatusOK, payload)
}

// Health godoc
// @Summary     Gateway health
// @Description Returns the last probe result per gateway. refresh=true probes now.
// @Tags        gateways
// @Produce     json
// @Param       refresh query bool false "Probe before answering"
// @Success     200 {object} response.GatewayHealthResponse
// @Router      /gateways/health [get]
func (h *GatewayHandler) Health(w http.ResponseWriter, r *http.Request) {
	var statuses []service.GatewayStatus
	if r.URL.Query().Get("refresh") == "true" {
		statuses = h.health.Check(r.Context())
	} else {
		statuses = h.health.Statuses()
	}
	if statuses == nil {
		statuses = []service.GatewayStatus{}
	}

	response.RespondJSON(w, http.StatusOK, response.GatewayHealthPayload{
		ProbeRunning: h.probe != nil && h.probe.IsRunning(),
		Items:        statuses,
	})
}

// ControlProbe godoc
// @Summary     Control health probing
// @Description Starts or stops the periodic gateway health probe.
// @Tags        gateways
// @Accept      json
// @Produce     json
// @Param       request body request.SchedulerRequest true "Scheduler action (start|stop)"
// @Success     200 {object} response.SchedulerControlResponse
// @Failure     400 {object} response.JSONResponse
// @Failure     409 {object} response.JSONResponse
// @Router      /gateways/health/probe [post]
func (h *GatewayHandler) ControlProbe(w http.ResponseWriter, r *http.Request) {
	if h.probe == nil {
		response.RespondError(w, http.StatusConflict, "health probing is disabled")
		return
	}

	var req request.SchedulerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	switch req.Action {
	case "start":
		if err := h.probe.Start(); err != nil {
			response.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.RespondJSON(w, http.StatusOK, response.SchedulerControlPayload{Message: "health probe started"})

	case "stop":
		if err := h.probe.Stop(); err != nil {
			response.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		response.RespondJSON(w, http.StatusOK, response.SchedulerControlPayload{Message: "health probe stopped"})

	default:
		response.RespondError(w, http.StatusBadRequest, "action must be 'start' or 'stop'")
	}
}
