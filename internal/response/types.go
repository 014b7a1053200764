package response

import (
	"time"

	"github.com/oggyb/polysms/internal/service"
	"github.com/oggyb/polysms/internal/sms"
)

type WelcomePayload struct {
	Message string `json:"message"`
}

type HealthPayload struct {
	Status string `json:"status"`
}

type WelcomeResponse struct {
	Success   bool           `json:"success"`
	Data      WelcomePayload `json:"data"`
	Timestamp string         `json:"timestamp"`
}

type HealthResponse struct {
	Success   bool          `json:"success"`
	Data      HealthPayload `json:"data"`
	Timestamp string        `json:"timestamp"`
}

// ResultDTO is the wire form of a send result.
type ResultDTO struct {
	Success         bool     `json:"success"`
	Message         string   `json:"message"`
	Errors          []string `json:"errors,omitempty"`
	Gateway         string   `json:"gateway"`
	MessageID       string   `json:"messageId,omitempty"`
	GatewayResponse any      `json:"gatewayResponse,omitempty" swaggertype:"object"`
}

// SendPayload pairs the envelope id with the gateway result. The id is
// what GET /sms/{id} looks up.
type SendPayload struct {
	ID     string    `json:"id"`
	Result ResultDTO `json:"result"`
}

type SendResponse struct {
	Success   bool        `json:"success"`
	Data      SendPayload `json:"data"`
	Timestamp string      `json:"timestamp"`
}

type BulkItemDTO struct {
	Index  int        `json:"index"`
	ID     string     `json:"id,omitempty"`
	Result *ResultDTO `json:"result,omitempty"`
	Error  string     `json:"error,omitempty"`
}

type BulkPayload struct {
	Gateway   string        `json:"gateway"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Items     []BulkItemDTO `json:"items"`
}

type BulkResponse struct {
	Success   bool        `json:"success"`
	Data      BulkPayload `json:"data"`
	Timestamp string      `json:"timestamp"`
}

type SentRecordPayload struct {
	ID     string    `json:"id"`
	To     string    `json:"to"`
	SentAt time.Time `json:"sentAt"`
	Result ResultDTO `json:"result"`
}

type SentRecordResponse struct {
	Success   bool              `json:"success"`
	Data      SentRecordPayload `json:"data"`
	Timestamp string            `json:"timestamp"`
}

// GatewayDTO describes one registered gateway.
type GatewayDTO struct {
	Name        string `json:"name"`
	Driver      string `json:"driver,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
	Default     bool   `json:"default"`
	Error       string `json:"error,omitempty"`
}

type GatewaysPayload struct {
	Default string       `json:"default,omitempty"`
	Items   []GatewayDTO `json:"items"`
}

type GatewaysResponse struct {
	Success   bool            `json:"success"`
	Data      GatewaysPayload `json:"data"`
	Timestamp string          `json:"timestamp"`
}

type GatewayHealthPayload struct {
	ProbeRunning bool                    `json:"probeRunning"`
	Items        []service.GatewayStatus `json:"items"`
}

type GatewayHealthResponse struct {
	Success   bool                 `json:"success"`
	Data      GatewayHealthPayload `json:"data"`
	Timestamp string               `json:"timestamp"`
}

type SchedulerControlPayload struct {
	Message string `json:"message"`
}

type SchedulerControlResponse struct {
	Success   bool                    `json:"success"`
	Data      SchedulerControlPayload `json:"data"`
	Timestamp string                  `json:"timestamp"`
}

// FromResult converts a gateway result for use in HTTP responses.
func FromResult(r *sms.Result) ResultDTO {
	dto := ResultDTO{
		Success:   r.Success,
		Message:   r.Message,
		Errors:    r.Errors,
		Gateway:   r.Gateway,
		MessageID: r.MessageID,
	}
	if len(r.Raw) > 0 {
		dto.GatewayResponse = r.Raw
	}
	return dto
}

// FromBulk converts bulk items and counts the outcomes.
func FromBulk(gateway string, ids []string, items []service.BulkItem) BulkPayload {
	out := BulkPayload{Gateway: gateway, Total: len(items), Items: make([]BulkItemDTO, len(items))}
	for i, it := range items {
		dto := BulkItemDTO{Index: it.Index}
		if i < len(ids) {
			dto.ID = ids[i]
		}
		switch {
		case it.Err != nil:
			dto.Error = it.Err.Error()
			out.Failed++
		case it.Result != nil:
			res := FromResult(it.Result)
			dto.Result = &res
			if it.Result.Success {
				out.Succeeded++
			} else {
				out.Failed++
			}
		}
		out.Items[i] = dto
	}
	return out
}
