// Package router assembles the HTTP routes around a question store.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onteraction0919-cmyk/asksystem/internal/broker"
	"github.com/onteraction0919-cmyk/asksystem/internal/config"
	"github.com/onteraction0919-cmyk/asksystem/internal/handlers"
	"github.com/onteraction0919-cmyk/asksystem/internal/middleware"
	"github.com/onteraction0919-cmyk/asksystem/internal/questions"
	"github.com/onteraction0919-cmyk/asksystem/web"
)

// New builds the application router. The store and broker are owned by the
// caller; the broker must already be subscribed to the store.
func New(cfg *config.Config, store *questions.Store, b *broker.Broker) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewClientIP(cfg.TrustedProxies).Handler)
	r.Use(middleware.RequestContextMiddleware)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	// Handlers
	pageHandler := handlers.NewPageHandler(web.Pages)
	configHandler := handlers.NewConfigHandler(cfg)
	questionHandler := handlers.NewQuestionHandler(store)
	spotlightHandler := handlers.NewSpotlightHandler(store)
	sseHandler := handlers.NewSSEHandler(store, b, cfg.HeartbeatInterval)
	wsHandler := handlers.NewWSHandler(store, b, cfg.HeartbeatInterval)
	tunnelHandler := handlers.NewSentryTunnelHandler(cfg.SentryDSNFrontend, nil)

	// Pages
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ask", http.StatusFound)
	})
	r.Get("/ask", pageHandler.Ask)
	r.Get("/mod", pageHandler.Moderator)
	r.Get("/spotlight/active", pageHandler.Spotlight)
	// Spotlight endpoint of the first version of the server, kept for old display pages
	r.Post("/spotlight/active", spotlightHandler.Set)

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Get("/config", configHandler.PublicConfig)

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", questionHandler.List)
			r.Post("/", questionHandler.Submit)
			r.Delete("/", questionHandler.Clear)
			r.Get("/{id}", questionHandler.Get)
			r.Delete("/{id}", questionHandler.Remove)
		})

		r.Route("/spotlight", func(r chi.Router) {
			r.Get("/", spotlightHandler.Get)
			r.Post("/", spotlightHandler.Set)
			r.Delete("/", spotlightHandler.Clear)
		})

		// Live updates
		r.Get("/events", sseHandler.Stream)
		r.Get("/ws", wsHandler.Serve)

		r.Post("/sentry-tunnel", tunnelHandler.Tunnel)
	})

	return r
}
