package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	// Registers the OpenAPI document read by the swagger handler.
	_ "github.com/kelleyneubauer/rest-between-sets/internal/docs"
	"github.com/kelleyneubauer/rest-between-sets/internal/logging"
)

// RouteRegistrar mounts additional routes, such as the browser session flow.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// RouterConfig assembles the top-level router.
type RouterConfig struct {
	// Protect authenticates resource routes.
	Protect func(http.Handler) http.Handler
	// Browser serves the landing page and sign-in routes. Optional.
	Browser           RouteRegistrar
	AllowedOrigins    []string
	RequestsPerMinute int
}

// NewRouter builds the service's HTTP handler.
func NewRouter(cfg RouterConfig, h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(logging.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(logging.AccessLog)
	r.Use(chimiddleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Location", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if cfg.RequestsPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RequestsPerMinute, time.Minute))
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/*", httpSwagger.Handler(httpSwagger.URL("/api/doc.json")))
	if cfg.Browser != nil {
		cfg.Browser.RegisterRoutes(r)
	}
	h.RegisterRoutes(r, cfg.Protect)
	return r
}
