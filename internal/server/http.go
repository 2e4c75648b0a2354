package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/larksuite/oapi-sdk-go/v3/core/httpserverext"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
)

// NewRouter serves Feishu webhook deliveries and a health probe
func NewRouter(eventHandler http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/webhook/event", eventHandler)
	return r
}

// NewWebhookServer creates the HTTP server for webhook mode
func NewWebhookServer(addr string, d *dispatcher.EventDispatcher) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(httpserverext.NewEventHandlerFunc(d)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
