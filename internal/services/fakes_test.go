package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/beeboo/storefront/internal/db"
	"github.com/beeboo/storefront/internal/models"
	"github.com/beeboo/storefront/internal/razorpay"
)

// fakeOrderStore applies the same status guards as the SQL store.
type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
	now    func() time.Time

	createErr     error
	attachErr     error
	markFailedErr error
	markFailedLog []string
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: make(map[uuid.UUID]*models.Order),
		now:    time.Now,
	}
}

func (s *fakeOrderStore) clone(order *models.Order) *models.Order {
	copied := *order
	copied.Items = append([]models.OrderItem(nil), order.Items...)
	return &copied
}

func (s *fakeOrderStore) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if order.IdempotencyKey != "" {
		for _, existing := range s.orders {
			if existing.IdempotencyKey == order.IdempotencyKey {
				return fmt.Errorf("order idempotency key %q: %w", order.IdempotencyKey, db.ErrDuplicate)
			}
		}
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now()
	}
	order.UpdatedAt = order.CreatedAt
	s.orders[order.ID] = s.clone(order)
	return nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, db.ErrNotFound)
	}
	return s.clone(order), nil
}

func (s *fakeOrderStore) GetByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.IdempotencyKey == key {
			return s.clone(order), nil
		}
	}
	return nil, fmt.Errorf("order with idempotency key: %w", db.ErrNotFound)
}

func (s *fakeOrderStore) GetByGatewayOrderID(_ context.Context, gatewayOrderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.GatewayOrderID == gatewayOrderID {
			return s.clone(order), nil
		}
	}
	return nil, fmt.Errorf("gateway order %s: %w", gatewayOrderID, db.ErrNotFound)
}

func (s *fakeOrderStore) sorted(filter func(*models.Order) bool, limit int) []*models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if filter(order) {
			out = append(out, s.clone(order))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *fakeOrderStore) ListByUser(_ context.Context, userID string, limit int) ([]*models.Order, error) {
	return s.sorted(func(o *models.Order) bool { return o.UserID == userID }, limit), nil
}

func (s *fakeOrderStore) ListRecent(_ context.Context, limit int) ([]*models.Order, error) {
	return s.sorted(func(*models.Order) bool { return true }, limit), nil
}

func (s *fakeOrderStore) update(orderID uuid.UUID, guard func(*models.Order) bool, expected string, apply func(*models.Order)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok || !guard(order) {
		return fmt.Errorf("%w: expected %s", db.ErrInvalidStatusTransition, expected)
	}
	apply(order)
	order.UpdatedAt = s.now()
	return nil
}

func isPendingPending(o *models.Order) bool {
	return o.Status == models.StatusPending && o.PaymentStatus == models.PaymentPending
}

func (s *fakeOrderStore) AttachGatewayOrder(_ context.Context, orderID uuid.UUID, provider, gatewayOrderID string) error {
	if s.attachErr != nil {
		return s.attachErr
	}
	return s.update(orderID, isPendingPending, "pending/pending", func(o *models.Order) {
		o.PaymentProvider = provider
		o.GatewayOrderID = gatewayOrderID
	})
}

func (s *fakeOrderStore) MarkPaid(_ context.Context, orderID uuid.UUID, paymentID, signature string) error {
	guard := func(o *models.Order) bool {
		return isPendingPending(o) || (o.Status == models.StatusPlaced && o.PaymentStatus == models.PaymentPaid)
	}
	return s.update(orderID, guard, "pending/pending or placed/paid", func(o *models.Order) {
		o.Status = models.StatusPlaced
		o.PaymentStatus = models.PaymentPaid
		o.GatewayPaymentID = paymentID
		o.GatewaySignature = signature
		o.ErrorMessage = ""
		if o.PaidAt == nil {
			now := s.now()
			o.PaidAt = &now
		}
	})
}

func (s *fakeOrderStore) MarkFailed(_ context.Context, orderID uuid.UUID, paymentStatus models.PaymentStatus, message string) error {
	if s.markFailedErr != nil {
		return s.markFailedErr
	}
	s.mu.Lock()
	s.markFailedLog = append(s.markFailedLog, message)
	s.mu.Unlock()
	return s.update(orderID, func(o *models.Order) bool { return o.Status == models.StatusPending }, "pending", func(o *models.Order) {
		o.Status = models.StatusFailed
		o.PaymentStatus = paymentStatus
		o.ErrorMessage = message
	})
}

func (s *fakeOrderStore) ExpireStale(_ context.Context, cutoff time.Time, message string) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []uuid.UUID
	for id, order := range s.orders {
		if isPendingPending(order) && order.CreatedAt.Before(cutoff) {
			order.Status = models.StatusFailed
			order.PaymentStatus = models.PaymentFailed
			order.ErrorMessage = message
			expired = append(expired, id)
		}
	}
	return expired, nil
}

func (s *fakeOrderStore) MarkShipped(_ context.Context, orderID uuid.UUID, trackingNumber, carrier string) error {
	guard := func(o *models.Order) bool {
		return o.Status == models.StatusPlaced && o.PaymentStatus == models.PaymentPaid
	}
	return s.update(orderID, guard, "placed/paid", func(o *models.Order) {
		o.Status = models.StatusShipped
		o.TrackingNumber = trackingNumber
		o.Carrier = carrier
	})
}

func (s *fakeOrderStore) MarkDelivered(_ context.Context, orderID uuid.UUID) error {
	return s.update(orderID, func(o *models.Order) bool { return o.Status == models.StatusShipped }, "shipped", func(o *models.Order) {
		o.Status = models.StatusDelivered
	})
}

func (s *fakeOrderStore) Cancel(_ context.Context, orderID uuid.UUID) (models.PaymentStatus, error) {
	var paymentStatus models.PaymentStatus
	guard := func(o *models.Order) bool {
		return o.Status == models.StatusPending || o.Status == models.StatusPlaced
	}
	err := s.update(orderID, guard, "pending or placed", func(o *models.Order) {
		o.Status = models.StatusCancelled
		if o.PaymentStatus == models.PaymentPaid {
			o.PaymentStatus = models.PaymentRefunded
		}
		paymentStatus = o.PaymentStatus
	})
	return paymentStatus, err
}

func (s *fakeOrderStore) Stats(_ context.Context, monthStart time.Time) (db.OrderStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats db.OrderStats
	for _, order := range s.orders {
		stats.TotalOrders++
		if order.PaymentStatus == models.PaymentPaid {
			stats.TotalSales = stats.TotalSales.Add(order.Total)
			if !order.CreatedAt.Before(monthStart) {
				stats.SalesThisMonth = stats.SalesThisMonth.Add(order.Total)
			}
		}
		switch {
		case order.Status == models.StatusPlaced && order.PaymentStatus != models.PaymentPaid:
			stats.PendingOrders++
		case order.Status == models.StatusFailed:
			stats.FailedOrders++
		case order.Status == models.StatusPending:
			stats.AwaitingPayment++
		}
	}
	return stats, nil
}

func (s *fakeOrderStore) mustGet(id uuid.UUID) *models.Order {
	order, err := s.GetByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return order
}

func (s *fakeOrderStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type fakeProductStore struct {
	mu       sync.Mutex
	products map[string]*models.Product
	seq      int
	listErr  error
}

func newFakeProductStore(products ...models.Product) *fakeProductStore {
	store := &fakeProductStore{products: make(map[string]*models.Product)}
	for i := range products {
		product := products[i]
		store.products[product.ID] = &product
	}
	return store
}

func (s *fakeProductStore) all(category string) []models.Product {
	out := make([]models.Product, 0, len(s.products))
	for _, product := range s.products {
		if category == "" || product.Category == category {
			out = append(out, *product)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *fakeProductStore) List(_ context.Context, filter models.ProductFilter) (*models.ProductPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	products := s.all(filter.Category)
	start := 0
	if filter.StartAfter != "" {
		start = -1
		for i, product := range products {
			if product.ID == filter.StartAfter {
				start = i + 1
			}
		}
		if start < 0 {
			return nil, fmt.Errorf("%w: %s", db.ErrInvalidCursor, filter.StartAfter)
		}
	}
	products = products[start:]
	hasMore := len(products) > filter.Limit
	if hasMore {
		products = products[:filter.Limit]
	}
	return &models.ProductPage{Products: products, HasMore: hasMore}, nil
}

func (s *fakeProductStore) ListAll(_ context.Context, category string) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.all(category), nil
}

func (s *fakeProductStore) ListFeatured(_ context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, product := range s.all("") {
		if product.Featured {
			out = append(out, product)
		}
	}
	return out, nil
}

func (s *fakeProductStore) GetByID(_ context.Context, productID string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, db.ErrNotFound)
	}
	copied := *product
	return &copied, nil
}

func (s *fakeProductStore) GetMany(_ context.Context, ids []string) (map[string]*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*models.Product, len(ids))
	for _, id := range ids {
		if product, ok := s.products[id]; ok {
			copied := *product
			out[id] = &copied
		}
	}
	return out, nil
}

func (s *fakeProductStore) Create(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	product.ID = fmt.Sprintf("prod-%d", s.seq)
	product.CreatedAt = time.Now()
	copied := *product
	s.products[product.ID] = &copied
	return nil
}

func (s *fakeProductStore) Update(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; !ok {
		return fmt.Errorf("product %s: %w", product.ID, db.ErrNotFound)
	}
	copied := *product
	s.products[product.ID] = &copied
	return nil
}

func (s *fakeProductStore) Delete(_ context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return fmt.Errorf("product %s: %w", productID, db.ErrNotFound)
	}
	delete(s.products, productID)
	return nil
}

func (s *fakeProductStore) Counts(_ context.Context) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	outOfStock := 0
	for _, product := range s.products {
		if product.Stock <= 0 {
			outOfStock++
		}
	}
	return len(s.products), outOfStock, nil
}

type fakeCategoryStore struct {
	categories map[string]models.Category
}

func newFakeCategoryStore(categories ...models.Category) *fakeCategoryStore {
	store := &fakeCategoryStore{categories: make(map[string]models.Category)}
	for _, category := range categories {
		store.categories[category.ID] = category
	}
	return store
}

func (s *fakeCategoryStore) List(_ context.Context) ([]models.Category, error) {
	out := make([]models.Category, 0, len(s.categories))
	for _, category := range s.categories {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeCategoryStore) GetByID(_ context.Context, id string) (*models.Category, error) {
	category, ok := s.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", id, db.ErrNotFound)
	}
	return &category, nil
}

func (s *fakeCategoryStore) Create(_ context.Context, category *models.Category) error {
	if _, ok := s.categories[category.ID]; ok {
		return fmt.Errorf("category %s: %w", category.ID, db.ErrDuplicate)
	}
	s.categories[category.ID] = *category
	return nil
}

func (s *fakeCategoryStore) Update(_ context.Context, category *models.Category) error {
	if _, ok := s.categories[category.ID]; !ok {
		return fmt.Errorf("category %s: %w", category.ID, db.ErrNotFound)
	}
	s.categories[category.ID] = *category
	return nil
}

type fakeSettingsStore struct {
	mu     sync.Mutex
	values map[string][]byte
	reads  int
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{values: make(map[string][]byte)}
}

func (s *fakeSettingsStore) Get(_ context.Context, key string, dest any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	raw, ok := s.values[key]
	if !ok {
		return fmt.Errorf("setting %s: %w", key, db.ErrNotFound)
	}
	return json.Unmarshal(raw, dest)
}

func (s *fakeSettingsStore) Put(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = raw
	return nil
}

// fakeGateway behaves like the Razorpay client: fixed order ids and HMAC
// signatures over "order|payment".
type fakeGateway struct {
	secret    string
	orderID   string
	createErr error
	requests  []models.PaymentOrderRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{secret: "test_secret", orderID: "order_xyz"}
}

func (g *fakeGateway) Name() string { return razorpay.ProviderName }

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(_ context.Context, req models.PaymentOrderRequest) (*models.PaymentOrder, error) {
	g.requests = append(g.requests, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &models.PaymentOrder{ID: g.orderID, Amount: req.Amount, Currency: req.Currency}, nil
}

func (g *fakeGateway) VerifyPayment(_ context.Context, gatewayOrderID, paymentID, signature string) (*models.PaymentConfirmation, error) {
	if !razorpay.VerifySignature(g.secret, gatewayOrderID, paymentID, signature) {
		return nil, razorpay.ErrSignatureMismatch
	}
	return &models.PaymentConfirmation{PaymentID: paymentID, Signature: signature}, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	placed    []uuid.UUID
	shipped   []uuid.UUID
	delivered []uuid.UUID
	cancelled map[uuid.UUID]bool
	err       error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{cancelled: make(map[uuid.UUID]bool)}
}

func (n *fakeNotifier) OrderPlaced(_ context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, order.ID)
	return n.err
}

func (n *fakeNotifier) OrderShipped(_ context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shipped = append(n.shipped, order.ID)
	return n.err
}

func (n *fakeNotifier) OrderDelivered(_ context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = append(n.delivered, order.ID)
	return n.err
}

func (n *fakeNotifier) OrderCancelled(_ context.Context, order *models.Order, refunded bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled[order.ID] = refunded
	return n.err
}

var errBoom = errors.New("boom")

func tshirt() models.Product {
	mrp := decimal.NewFromInt(799)
	return models.Product{
		ID:          "p1",
		Title:       "Bee Tee",
		Description: "Soft cotton tee with a bee print",
		Images:      []string{"https://cdn.example.com/p1.jpg"},
		MRP:         &mrp,
		Price:       decimal.NewFromInt(500),
		Category:    "apparel",
		Stock:       10,
		Sizes:       []string{"S", "M", "L"},
		CreatedAt:   time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func mug() models.Product {
	return models.Product{
		ID:          "p2",
		Title:       "Honey Mug",
		Description: "Ceramic mug, dishwasher safe",
		Images:      []string{"https://cdn.example.com/p2.jpg"},
		Price:       decimal.NewFromInt(250),
		Category:    "home",
		Featured:    true,
		Stock:       3,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func validShipping() models.ShippingAddress {
	return models.ShippingAddress{
		Name:         "Asha Rao",
		Phone:        "9876543210",
		Email:        "asha@example.com",
		HouseNumber:  "12",
		BuildingName: "Lotus Apartments",
		Street:       "MG Road",
		Pincode:      "560001",
		City:         "Bengaluru",
		State:        "Karnataka",
	}
}
