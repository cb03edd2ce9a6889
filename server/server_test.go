package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/beeboo/storefront/internal/auth"
	"github.com/beeboo/storefront/internal/cache"
	"github.com/beeboo/storefront/internal/config"
	"github.com/beeboo/storefront/internal/handlers"
	"github.com/beeboo/storefront/internal/models"
	"github.com/beeboo/storefront/internal/services"
)

type stubServices struct{}

func (stubServices) Ping(context.Context) error { return nil }

func (stubServices) CreateOrderAndPayment(context.Context, services.CheckoutRequest) (*services.CheckoutResult, error) {
	return &services.CheckoutResult{ID: "o1"}, nil
}

func (stubServices) VerifyPaymentAndUpdateOrder(_ context.Context, input services.VerifyPaymentInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID}, nil
}

func (stubServices) ListOrdersForUser(context.Context, string) ([]*models.Order, error) {
	return nil, nil
}

func (stubServices) GetOrderForUser(context.Context, uuid.UUID, string) (*models.Order, error) {
	return nil, services.ErrOrderNotFound
}

func (stubServices) ListProducts(context.Context, models.ProductFilter) (*models.ProductPage, error) {
	return &models.ProductPage{Products: []models.Product{}}, nil
}

func (stubServices) GetProduct(context.Context, string) (*services.ProductDetail, error) {
	return nil, services.ErrProductNotFound
}

func (stubServices) FeaturedProducts(context.Context, int) ([]models.Product, error) {
	return []models.Product{{ID: "featured"}}, nil
}

func (stubServices) CreateProduct(_ context.Context, p *models.Product) (*models.Product, error) {
	return p, nil
}

func (stubServices) UpdateProduct(_ context.Context, p *models.Product) (*models.Product, error) {
	return p, nil
}

func (stubServices) DeleteProduct(context.Context, string) error { return nil }

func (stubServices) ListCategories(context.Context) ([]models.Category, error) { return nil, nil }

func (stubServices) CreateCategory(_ context.Context, c *models.Category) (*models.Category, error) {
	return c, nil
}

func (stubServices) UpdateCategory(_ context.Context, c *models.Category) (*models.Category, error) {
	return c, nil
}

func (stubServices) Get(context.Context) (*models.StoreSettings, error) {
	return &models.StoreSettings{}, nil
}

func (stubServices) UpdateAnnouncement(_ context.Context, text string) (*models.Announcement, error) {
	return &models.Announcement{Text: text}, nil
}

func (stubServices) UpdateFestivalTheme(_ context.Context, theme string) (*models.FestivalTheme, error) {
	return &models.FestivalTheme{ActiveTheme: theme}, nil
}

func (stubServices) Dashboard(context.Context) (*models.DashboardStats, error) {
	return &models.DashboardStats{}, nil
}

func (stubServices) RecentOrders(context.Context, int) ([]*models.Order, error) { return nil, nil }

func (stubServices) UpdateOrderStatus(_ context.Context, input services.UpdateOrderStatusInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID, Status: input.Status}, nil
}

func newTestServer(t *testing.T) (http.Handler, *auth.Verifier) {
	t.Helper()

	cfg := &config.Config{Port: "0", BaseURL: "https://shop.example"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cacheProvider, err := cache.NewMemoryProvider(16)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	verifier := auth.NewVerifier("server-test-secret", "", "")

	stub := stubServices{}
	h, err := handlers.New(handlers.Dependencies{
		Config:          cfg,
		DB:              stub,
		CacheProvider:   cacheProvider,
		Verifier:        verifier,
		OrderService:    stub,
		CatalogService:  stub,
		SettingsService: stub,
		AdminService:    stub,
		Logger:          logger,
	})
	if err != nil {
		t.Fatalf("failed to create handlers: %v", err)
	}

	srv, err := New(cfg, logger, h)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv.Handler(), verifier
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	router, verifier := newTestServer(t)
	sign := func(admin bool) string {
		token, err := verifier.Sign(auth.Principal{UserID: "user-1", Admin: admin}, time.Hour)
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		return "Bearer " + token
	}
	customer := sign(false)
	admin := sign(true)

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		origin string
		want   int
	}{
		{name: "health", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "public products", method: http.MethodGet, path: "/api/products", want: http.StatusOK},
		{name: "featured is not a product id", method: http.MethodGet, path: "/api/products/featured", want: http.StatusOK},
		{name: "missing product", method: http.MethodGet, path: "/api/products/nope", want: http.StatusNotFound},
		{name: "public settings", method: http.MethodGet, path: "/api/settings", want: http.StatusOK},
		{name: "orders need a token", method: http.MethodGet, path: "/api/orders", want: http.StatusUnauthorized},
		{name: "orders with token", method: http.MethodGet, path: "/api/orders", auth: customer, want: http.StatusOK},
		{name: "admin needs a token", method: http.MethodGet, path: "/api/admin/dashboard", want: http.StatusUnauthorized},
		{name: "admin rejects customers", method: http.MethodGet, path: "/api/admin/dashboard", auth: customer, want: http.StatusForbidden},
		{name: "admin dashboard", method: http.MethodGet, path: "/api/admin/dashboard", auth: admin, want: http.StatusOK},
		{name: "admin delete", method: http.MethodDelete, path: "/api/admin/products/p1", auth: admin, want: http.StatusNoContent},
		{name: "admin cross origin", method: http.MethodDelete, path: "/api/admin/products/p1", auth: admin, origin: "https://evil.example", want: http.StatusForbidden},
		{name: "stripe webhook unconfigured", method: http.MethodPost, path: "/webhooks/stripe", want: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("%s %s: expected status %d, got %d (%s)", tc.method, tc.path, tc.want, rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Fatalf("expected security headers on every response, got %q", got)
			}
		})
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nil, nil); err == nil {
		t.Fatal("expected error for missing config")
	}
}
