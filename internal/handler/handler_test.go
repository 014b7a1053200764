package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/polysms/internal/cache"
	"github.com/oggyb/polysms/internal/domain/message"
	"github.com/oggyb/polysms/internal/gateway/stub"
	"github.com/oggyb/polysms/internal/handler"
	"github.com/oggyb/polysms/internal/manager"
	"github.com/oggyb/polysms/internal/registry"
	"github.com/oggyb/polysms/internal/response"
	routes "github.com/oggyb/polysms/internal/router"
	"github.com/oggyb/polysms/internal/scheduler"
	"github.com/oggyb/polysms/internal/server"
	"github.com/oggyb/polysms/internal/service"
	"github.com/oggyb/polysms/internal/sms"
)

type envelope struct {
	Success   bool                `json:"success"`
	Data      json.RawMessage     `json:"data"`
	Error     *response.ErrorBody `json:"error"`
	RequestID string              `json:"requestId"`
}

type fixture struct {
	handler http.Handler
	manager *manager.Manager
	stub    *stub.Gateway
}

func newFixture(t *testing.T, probe scheduler.Scheduler) *fixture {
	t.Helper()

	gw := stub.New("stub", stub.Config{FailRecipients: []string{"+999"}})
	m := manager.New(nil, nil)
	require.NoError(t, m.Register("stub", func(*registry.Registry) (sms.Gateway, error) {
		return gw, nil
	}, registry.Meta{"driver": "stub", "description": "local"}))
	require.NoError(t, m.Register("broken", func(*registry.Registry) (sms.Gateway, error) {
		return nil, assert.AnError
	}, nil))
	require.NoError(t, m.Use("stub"))

	sent := service.NewSentLog(cache.NewMemory(), time.Hour)
	require.NoError(t, m.OnAfterSmsSent(manager.NewAction(sent.AfterSend), 10))

	sender := service.NewSenderService(m, 2, time.Second, 3)
	health := service.NewHealthService(m, time.Second, 2, nil)

	h := server.Handler(routes.AppDeps{
		Home:    handler.NewHomeHandler("polysms"),
		SMS:     handler.NewSMSHandler(sender, sent),
		Gateway: handler.NewGatewayHandler(m, health, probe),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		}),
	})
	return &fixture{handler: h, manager: m, stub: gw}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHome(t *testing.T) {
	f := newFixture(t, nil)

	rec, env := f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)
	assert.Equal(t, env.RequestID, rec.Header().Get("X-Request-ID"))

	rec, env = f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))

	rec, env = f.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestSend_DefaultGatewayAndLookup(t *testing.T) {
	f := newFixture(t, nil)

	rec, env := f.do(t, http.MethodPost, "/sms", map[string]any{
		"to":       "+8801700000000",
		"message":  "hello",
		"senderId": "POLY",
		"extra":    map[string]any{"type": "unicode"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var payload response.SendPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.True(t, payload.Result.Success)
	assert.Equal(t, "stub", payload.Result.Gateway)
	assert.NotEmpty(t, payload.Result.MessageID)

	sent := f.stub.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "POLY", sent[0].SenderID)
	assert.Equal(t, "unicode", sent[0].GetString("type"))

	rec, env = f.do(t, http.MethodGet, "/sms/"+payload.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var record response.SentRecordPayload
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, "+8801700000000", record.To)
	assert.Equal(t, payload.Result.MessageID, record.Result.MessageID)

	rec, _ = f.do(t, http.MethodGet, "/sms/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSend_GatewayFailureIsStillOK(t *testing.T) {
	f := newFixture(t, nil)

	rec, env := f.do(t, http.MethodPost, "/sms", map[string]any{"gateway": "stub", "to": "+999", "message": "x"})
	require.Equal(t, http.StatusOK, rec.Code)

	var payload response.SendPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.False(t, payload.Result.Success)
}

func TestSend_Errors(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"invalid json", "{", http.StatusBadRequest},
		{"missing recipient", map[string]any{"message": "x"}, http.StatusBadRequest},
		{"missing content", map[string]any{"to": "+1"}, http.StatusBadRequest},
		{"unknown gateway", map[string]any{"gateway": "nope", "to": "+1", "message": "x"}, http.StatusNotFound},
		{"unbuildable gateway", map[string]any{"gateway": "broken", "to": "+1", "message": "x"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := f.do(t, http.MethodPost, "/sms", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.status, env.Error.Code)
		})
	}
}

func TestSend_FilterRejection(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.manager.OnBeforeSmsSent(manager.NewFilter(
		func(_ context.Context, msg message.Envelope, _ string) (message.Envelope, error) {
			return nil, nil
		})))

	rec, _ := f.do(t, http.MethodPost, "/sms", map[string]any{"to": "+1", "message": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, f.stub.Sent())
}

func TestSendBulk(t *testing.T) {
	f := newFixture(t, nil)

	rec, env := f.do(t, http.MethodPost, "/sms/bulk", map[string]any{
		"messages": []map[string]any{
			{"to": "+1", "message": "a"},
			{"to": "+999", "message": "b"},
			{"to": "+3", "message": "c"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var payload response.BulkPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "stub", payload.Gateway)
	assert.Equal(t, 3, payload.Total)
	assert.Equal(t, 2, payload.Succeeded)
	assert.Equal(t, 1, payload.Failed)
	for i, it := range payload.Items {
		assert.Equal(t, i, it.Index)
		assert.NotEmpty(t, it.ID)
	}
}

func TestSendBulk_Errors(t *testing.T) {
	f := newFixture(t, nil)

	rec, _ := f.do(t, http.MethodPost, "/sms/bulk", map[string]any{"messages": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := f.do(t, http.MethodPost, "/sms/bulk", map[string]any{
		"messages": []map[string]any{{"to": "", "message": "a"}, {"to": "+1", "message": ""}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Len(t, env.Error.Details, 2)

	four := []map[string]any{
		{"to": "+1", "message": "a"}, {"to": "+2", "message": "a"},
		{"to": "+3", "message": "a"}, {"to": "+4", "message": "a"},
	}
	rec, _ = f.do(t, http.MethodPost, "/sms/bulk", map[string]any{"messages": four})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestGateways_List(t *testing.T) {
	f := newFixture(t, nil)

	rec, env := f.do(t, http.MethodGet, "/gateways", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload response.GatewaysPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "stub", payload.Default)
	require.Len(t, payload.Items, 2)

	assert.Equal(t, "stub", payload.Items[0].Name)
	assert.Equal(t, "stub", payload.Items[0].Driver)
	assert.Equal(t, "local", payload.Items[0].Description)
	assert.Equal(t, "Stub", payload.Items[0].DisplayName)
	assert.True(t, payload.Items[0].Default)

	assert.Equal(t, "broken", payload.Items[1].Name)
	assert.NotEmpty(t, payload.Items[1].Error)
}

func TestGateways_Health(t *testing.T) {
	f := newFixture(t, nil)

	_, env := f.do(t, http.MethodGet, "/gateways/health", nil)
	var payload response.GatewayHealthPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Empty(t, payload.Items)
	assert.False(t, payload.ProbeRunning)

	_, env = f.do(t, http.MethodGet, "/gateways/health?refresh=true", nil)
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.Len(t, payload.Items, 2)
	assert.True(t, payload.Items[0].Healthy)
	assert.False(t, payload.Items[1].Healthy)
}

type fakeProbe struct{ running bool }

func (p *fakeProbe) Start() error    { p.running = true; return nil }
func (p *fakeProbe) Stop() error     { p.running = false; return nil }
func (p *fakeProbe) IsRunning() bool { return p.running }

func TestGateways_ControlProbe(t *testing.T) {
	rec, _ := newFixture(t, nil).do(t, http.MethodPost, "/gateways/health/probe", map[string]string{"action": "start"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	probe := &fakeProbe{}
	f := newFixture(t, probe)

	rec, _ = f.do(t, http.MethodPost, "/gateways/health/probe", map[string]string{"action": "start"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, probe.running)

	rec, _ = f.do(t, http.MethodPost, "/gateways/health/probe", map[string]string{"action": "stop"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, probe.running)

	rec, _ = f.do(t, http.MethodPost, "/gateways/health/probe", map[string]string{"action": "pause"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t, nil)
	rec, _ := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "metrics", rec.Body.String())
}

func TestRequestIDIsPropagated(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"requestId":"req-123"`)
}
