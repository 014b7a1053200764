package routes

import (
	"net/http"

	swaggerHandler "github.com/swaggo/http-swagger"

	_ "github.com/oggyb/polysms/internal/docs" // swagger docs
	"github.com/oggyb/polysms/internal/response"
)

type AppDeps struct {
	Home    HomeHandler
	SMS     SMSHandler
	Gateway GatewayHandler
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

type HomeHandler interface {
	Index(w http.ResponseWriter, r *http.Request)
	Health(w http.ResponseWriter, r *http.Request)
}

type SMSHandler interface {
	Send(w http.ResponseWriter, r *http.Request)
	SendBulk(w http.ResponseWriter, r *http.Request)
	GetSent(w http.ResponseWriter, r *http.Request)
}

type GatewayHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Health(w http.ResponseWriter, r *http.Request)
	ControlProbe(w http.ResponseWriter, r *http.Request)
}

func Register(mux *http.ServeMux, d AppDeps) {
	mux.HandleFunc("GET /{$}", d.Home.Index)
	mux.HandleFunc("GET /health", d.Home.Health)

	mux.HandleFunc("POST /sms", d.SMS.Send)
	mux.HandleFunc("POST /sms/bulk", d.SMS.SendBulk)
	mux.HandleFunc("GET /sms/{id}", d.SMS.GetSent)

	mux.HandleFunc("GET /gateways", d.Gateway.List)
	mux.HandleFunc("GET /gateways/health", d.Gateway.Health)
	mux.HandleFunc("POST /gateways/health/probe", d.Gateway.ControlProbe)

	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	//Swagger
	mux.HandleFunc("GET /swagger/", swaggerHandler.WrapHandler)

	// Fallback handler for undefined routes (404)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.RespondError(w, http.StatusNotFound, "route not found")
	}))
}
