package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/beeboo/storefront/internal/auth"
	"github.com/beeboo/storefront/internal/cache"
	"github.com/beeboo/storefront/internal/config"
	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/models"
	"github.com/beeboo/storefront/internal/services"
)

const (
	maxWebhookBodyBytes = 1 << 20 // 1 MB
	maxRequestBodyBytes = 1 << 20
)

type OrderService interface {
	CreateOrderAndPayment(ctx context.Context, req services.CheckoutRequest) (*services.CheckoutResult, error)
	VerifyPaymentAndUpdateOrder(ctx context.Context, input services.VerifyPaymentInput) (*models.Order, error)
	ListOrdersForUser(ctx context.Context, userID string) ([]*models.Order, error)
	GetOrderForUser(ctx context.Context, orderID uuid.UUID, userID string) (*models.Order, error)
}

type CatalogService interface {
	ListProducts(ctx context.Context, filter models.ProductFilter) (*models.ProductPage, error)
	GetProduct(ctx context.Context, productID string) (*services.ProductDetail, error)
	FeaturedProducts(ctx context.Context, limit int) ([]models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
}

type SettingsService interface {
	Get(ctx context.Context) (*models.StoreSettings, error)
	UpdateAnnouncement(ctx context.Context, text string) (*models.Announcement, error)
	UpdateFestivalTheme(ctx context.Context, theme string) (*models.FestivalTheme, error)
}

type AdminService interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	RecentOrders(ctx context.Context, limit int) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, input services.UpdateOrderStatusInput) (*models.Order, error)
}

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ OrderService    = (*services.OrderService)(nil)
	_ CatalogService  = (*services.CatalogService)(nil)
	_ SettingsService = (*services.SettingsService)(nil)
	_ AdminService    = (*services.AdminService)(nil)
)

// Handlers provides the storefront HTTP API.
type Handlers struct {
	config          *config.Config
	db              Pinger
	cacheProvider   cache.Provider
	verifier        *auth.Verifier
	orderService    OrderService
	catalogService  CatalogService
	settingsService SettingsService
	adminService    AdminService
	stripeRouter    *StripeEventRouter
	logger          *slog.Logger
}

type Dependencies struct {
	Config          *config.Config
	DB              Pinger
	CacheProvider   cache.Provider
	Verifier        *auth.Verifier
	OrderService    OrderService
	CatalogService  CatalogService
	SettingsService SettingsService
	AdminService    AdminService
	StripeRouter    *StripeEventRouter
	Logger          *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.CacheProvider == nil {
		return nil, fmt.Errorf("handlers dependencies: cacheProvider is required")
	}
	if deps.Verifier == nil {
		return nil, fmt.Errorf("handlers dependencies: verifier is required")
	}
	if deps.OrderService == nil {
		return nil, fmt.Errorf("handlers dependencies: orderService is required")
	}
	if deps.CatalogService == nil {
		return nil, fmt.Errorf("handlers dependencies: catalogService is required")
	}
	if deps.SettingsService == nil {
		return nil, fmt.Errorf("handlers dependencies: settingsService is required")
	}
	if deps.AdminService == nil {
		return nil, fmt.Errorf("handlers dependencies: adminService is required")
	}

	return &Handlers{
		config:          deps.Config,
		db:              deps.DB,
		cacheProvider:   deps.CacheProvider,
		verifier:        deps.Verifier,
		orderService:    deps.OrderService,
		catalogService:  deps.CatalogService,
		settingsService: deps.SettingsService,
		adminService:    deps.AdminService,
		stripeRouter:    deps.StripeRouter,
		logger:          logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		writeJSON(ctx, w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx, nil).Error("failed to encode response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, errorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into dest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

// writeServiceError maps service errors onto status codes. Gateway and unknown
// errors are logged and reported as a generic 500.
func (h *Handlers) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	var validationErr *services.ValidationError
	var userErr services.UserError

	switch {
	case errors.As(err, &validationErr):
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "Please correct the highlighted fields", Details: validationErr.Fields})
	case errors.As(err, &userErr):
		writeError(ctx, w, http.StatusBadRequest, userErr.Message)
	case errors.Is(err, services.ErrSignatureMismatch):
		writeError(ctx, w, http.StatusBadRequest, "Payment verification failed. If money was deducted, please contact support with your order ID.")
	case errors.Is(err, services.ErrPaymentVerification):
		writeError(ctx, w, http.StatusBadRequest, "We could not confirm your payment. If money was deducted, please contact support with your order ID.")
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrCategoryNotFound):
		writeError(ctx, w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrOrderForbidden):
		writeError(ctx, w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, services.ErrDuplicateOrder):
		writeError(ctx, w, http.StatusConflict, "An earlier attempt to place this order failed. Please start a new checkout.")
	case errors.Is(err, services.ErrOrderStatusConflict):
		writeError(ctx, w, http.StatusConflict, "The order cannot be changed from its current status")
	case errors.Is(err, services.ErrCategoryExists):
		writeError(ctx, w, http.StatusConflict, "Category already exists")
	case errors.Is(err, services.ErrServiceUnavailable):
		writeError(ctx, w, http.StatusServiceUnavailable, "Service unavailable")
	default:
		h.loggerFromContext(ctx).Error(fallback, "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
