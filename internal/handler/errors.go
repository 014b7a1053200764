package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/multierr"

	"github.com/oggyb/polysms/internal/domain/message"
	"github.com/oggyb/polysms/internal/hook"
	"github.com/oggyb/polysms/internal/logger"
	"github.com/oggyb/polysms/internal/manager"
	"github.com/oggyb/polysms/internal/registry"
	"github.com/oggyb/polysms/internal/response"
	"github.com/oggyb/polysms/internal/service"
)

// maxBodyBytes caps request bodies; a full bulk batch fits comfortably.
const maxBodyBytes = 4 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrGatewayNotFound),
		errors.Is(err, service.ErrSentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoGateway),
		errors.Is(err, manager.ErrNoGatewaySelected),
		errors.Is(err, manager.ErrInvalidMessage),
		errors.Is(err, message.ErrEmptyRecipient),
		errors.Is(err, message.ErrEmptyContent),
		errors.Is(err, message.ErrContentTooLong),
		errors.Is(err, message.ErrEmptySender):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrBulkTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, hook.ErrHookValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondErr maps err to a status and writes it. Every part of a combined
// error is listed in details.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		l := logger.Ctx(r.Context(), "http")
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	var details []string
	if errs := multierr.Errors(err); len(errs) > 1 {
		for _, e := range errs {
			details = append(details, e.Error())
		}
		response.RespondError(w, status, "request has invalid entries", details...)
		return
	}
	response.RespondError(w, status, err.Error())
}
