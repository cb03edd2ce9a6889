package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/beeboo/storefront/internal/config"
	"github.com/beeboo/storefront/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

// Handler returns the routed API. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)
	r.Use(h.MetricsContext)
	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")
	r.HandleFunc("/webhooks/stripe", h.StripeWebhook).Methods("POST").Name("webhooks.stripe")

	// Router middleware does not run for unmatched paths.
	r.NotFoundHandler = h.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not found"}` + "\n"))
	}))

	api := r.PathPrefix("/api").Subrouter()

	// Public catalog routes. "featured" must be registered before {id}.
	api.HandleFunc("/products", h.ListProducts).Methods("GET").Name("products.list")
	api.HandleFunc("/products/featured", h.FeaturedProducts).Methods("GET").Name("products.featured")
	api.HandleFunc("/products/{id}", h.GetProduct).Methods("GET").Name("products.get")
	api.HandleFunc("/categories", h.ListCategories).Methods("GET").Name("categories.list")
	api.HandleFunc("/settings", h.GetSettings).Methods("GET").Name("settings.get")

	orders := api.PathPrefix("/orders").Subrouter()
	orders.Use(h.RequireUser)
	orders.HandleFunc("", h.CreateOrder).Methods("POST").Name("orders.create")
	orders.HandleFunc("", h.ListOrders).Methods("GET").Name("orders.list")
	orders.HandleFunc("/{id}", h.GetOrder).Methods("GET").Name("orders.get")
	orders.HandleFunc("/{id}/verify", h.VerifyPayment).Methods("POST").Name("orders.verify")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.RequireUser)
	admin.Use(h.RequireAdmin)
	admin.Use(h.RejectCrossOrigin)
	admin.HandleFunc("/dashboard", h.AdminDashboard).Methods("GET").Name("admin.dashboard")
	admin.HandleFunc("/orders", h.AdminOrders).Methods("GET").Name("admin.orders")
	admin.HandleFunc("/orders/{id}/status", h.AdminUpdateOrderStatus).Methods("PATCH").Name("admin.orders.status")
	admin.HandleFunc("/products", h.CreateProduct).Methods("POST").Name("admin.products.create")
	admin.HandleFunc("/products/{id}", h.UpdateProduct).Methods("PUT").Name("admin.products.update")
	admin.HandleFunc("/products/{id}", h.DeleteProduct).Methods("DELETE").Name("admin.products.delete")
	admin.HandleFunc("/categories", h.CreateCategory).Methods("POST").Name("admin.categories.create")
	admin.HandleFunc("/categories/{id}", h.UpdateCategory).Methods("PUT").Name("admin.categories.update")
	admin.HandleFunc("/settings/announcement", h.UpdateAnnouncement).Methods("PUT").Name("admin.settings.announcement")
	admin.HandleFunc("/settings/theme", h.UpdateFestivalTheme).Methods("PUT").Name("admin.settings.theme")

	return r
}
