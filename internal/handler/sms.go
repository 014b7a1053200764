package handler

import (
	"context"
	"net/http"

	"github.com/oggyb/polysms/internal/request"
	"github.com/oggyb/polysms/internal/response"
	"github.com/oggyb/polysms/internal/service"
)

// SentLookup finds the stored result of a previous send.
type SentLookup interface {
	Lookup(ctx context.Context, id string) (*service.SentRecord, error)
}

// SMSHandler wires the send endpoints to the sender service.
type SMSHandler struct {
	sender service.SenderService
	sent   SentLookup
}

// NewSMSHandler constructs an SMSHandler.
func NewSMSHandler(sender service.SenderService, sent SentLookup) *SMSHandler {
	return &SMSHandler{sender: sender, sent: sent}
}

// Send godoc
// @Summary     Send an SMS
// @Description Sends one message through the named gateway, or the default gateway when none is given.
// @Description A gateway failure is reported in the result with success=false and HTTP 200.
// @Tags        sms
// @Accept      json
// @Produce     json
// @Param       request body request.SendRequest true "Message to send"
// @Success     200 {object} response.SendResponse
// @Failure     400 {object} response.JSONResponse
// @Failure     404 {object} response.JSONResponse
// @Router      /sms [post]
func (h *SMSHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req request.SendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := req.Envelope()
	if err != nil {
		respondErr(w, r, err)
		return
	}

	res, err := h.sender.Send(r.Context(), req.Gateway, msg)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.SendPayload{
		ID:     msg.ID.String(),
		Result: response.FromResult(res),
	})
}

// SendBulk godoc
// @Summary     Send many SMS
// @Description Sends every message through one gateway with a bounded worker pool.
// @Description Items are returned in request order.
// @Tags        sms
// @Accept      json
// @Produce     json
// @Param       request body request.BulkRequest true "Messages to send"
// @Success     200 {object} response.BulkResponse
// @Failure     400 {object} response.JSONResponse
// @Failure     413 {object} response.JSONResponse
// @Router      /sms/bulk [post]
func (h *SMSHandler) SendBulk(w http.ResponseWriter, r *http.Request) {
	var req request.BulkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Messages) == 0 {
		response.RespondError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}

	envs, err := req.Envelopes()
	if err != nil {
		respondErr(w, r, err)
		return
	}

	items, err := h.sender.SendBulk(r.Context(), req.Gateway, envs)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	ids := make([]string, len(envs))
	for i, env := range envs {
		ids[i] = env.Base().ID.String()
	}
	gateway := req.Gateway
	for _, it := range items {
		if it.Result != nil && it.Result.Gateway != "" {
			gateway = it.Result.Gateway
			break
		}
	}

	response.RespondJSON(w, http.StatusOK, response.FromBulk(gateway, ids, items))
}

// GetSent godoc
// @Summary     Look up a sent SMS
// @Description Returns the stored result of a recent send by its id.
// @Tags        sms
// @Produce     json
// @Param       id path string true "Message id returned by POST /sms"
// @Success     200 {object} response.SentRecordResponse
// @Failure     404 {object} response.JSONResponse
// @Router      /sms/{id} [get]
func (h *SMSHandler) GetSent(w http.ResponseWriter, r *http.Request) {
	rec, err := h.sent.Lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.SentRecordPayload{
		ID:     rec.ID,
		To:     rec.To,
		SentAt: rec.SentAt,
		Result: response.FromResult(rec.Result),
	})
}
