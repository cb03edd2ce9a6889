package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `
	id, user_id, items, subtotal, shipping_fee, total, shipping_address,
	status, payment_status, payment_provider, gateway_order_id, gateway_payment_id,
	gateway_signature, error_message, idempotency_key, tracking_number, carrier,
	created_at, updated_at, paid_at`

// Create inserts a new order. A reused idempotency key yields ErrDuplicate.
func (s *OrderStore) Create(ctx context.Context, order *Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	addressJSON, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to encode shipping address: %w", err)
	}

	query := `
		INSERT INTO orders (
			id, user_id, items, subtotal, shipping_fee, total, shipping_address,
			status, payment_status, payment_provider, gateway_order_id,
			gateway_payment_id, gateway_signature, idempotency_key, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`
	err = s.pool.QueryRow(ctx, query,
		order.ID,
		nullText(order.UserID),
		itemsJSON,
		order.Subtotal,
		order.ShippingFee,
		order.Total,
		addressJSON,
		string(order.Status),
		string(order.PaymentStatus),
		nullText(order.PaymentProvider),
		nullText(order.GatewayOrderID),
		nullText(order.GatewayPaymentID),
		nullText(order.GatewaySignature),
		nullText(order.IdempotencyKey),
		order.PaidAt,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order idempotency key %q: %w", order.IdempotencyKey, ErrDuplicate)
		}
		return err
	}
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	order, err := scanOrder(row)
	if err != nil {
		return nil, notFound(err, "order "+orderID.String())
	}
	return order, nil
}

func (s *OrderStore) GetByIdempotencyKey(ctx context.Context, key string) (*Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key)
	order, err := scanOrder(row)
	if err != nil {
		return nil, notFound(err, "order with idempotency key")
	}
	return order, nil
}

func (s *OrderStore) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE gateway_order_id = $1`, gatewayOrderID)
	order, err := scanOrder(row)
	if err != nil {
		return nil, notFound(err, "order for gateway order "+gatewayOrderID)
	}
	return order, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID string, limit int) ([]*Order, error) {
	limitInt32, err := intToInt32(limit, "limit")
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limitInt32)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (s *OrderStore) ListRecent(ctx context.Context, limit int) ([]*Order, error) {
	limitInt32, err := intToInt32(limit, "limit")
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, limitInt32)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// AttachGatewayOrder records the gateway order id on a pending order.
func (s *OrderStore) AttachGatewayOrder(ctx context.Context, orderID uuid.UUID, provider, gatewayOrderID string) error {
	query := `
		UPDATE orders
		SET payment_provider = $1, gateway_order_id = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'pending' AND payment_status = 'pending'
	`
	cmdTag, err := s.pool.Exec(ctx, query, provider, gatewayOrderID, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending/pending", ErrInvalidStatusTransition)
	}
	return nil
}

// MarkPaid flips a pending order to placed/paid. Re-applying it to an
// already paid order rewrites the same payment fields.
func (s *OrderStore) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentID, signature string) error {
	query := `
		UPDATE orders
		SET status = 'placed', payment_status = 'paid', gateway_payment_id = $1,
		    gateway_signature = $2, error_message = NULL, updated_at = NOW(),
		    paid_at = COALESCE(paid_at, NOW())
		WHERE id = $3
		  AND ((status = 'pending' AND payment_status = 'pending')
		    OR (status = 'placed' AND payment_status = 'paid'))
	`
	cmdTag, err := s.pool.Exec(ctx, query, paymentID, signature, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending/pending or placed/paid", ErrInvalidStatusTransition)
	}
	return nil
}

// MarkFailed records a terminal failure on a pending order.
func (s *OrderStore) MarkFailed(ctx context.Context, orderID uuid.UUID, paymentStatus PaymentStatus, message string) error {
	query := `
		UPDATE orders
		SET status = 'failed', payment_status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'pending'
	`
	cmdTag, err := s.pool.Exec(ctx, query, string(paymentStatus), message, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending", ErrInvalidStatusTransition)
	}
	return nil
}

// ExpireStale fails every pending order created before cutoff and returns their ids.
func (s *OrderStore) ExpireStale(ctx context.Context, cutoff time.Time, message string) ([]uuid.UUID, error) {
	query := `
		UPDATE orders
		SET status = 'failed', payment_status = 'failed', error_message = $1, updated_at = NOW()
		WHERE status = 'pending' AND payment_status = 'pending' AND created_at < $2
		RETURNING id
	`
	rows, err := s.pool.Query(ctx, query, message, cutoff)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (s *OrderStore) MarkShipped(ctx context.Context, orderID uuid.UUID, trackingNumber, carrier string) error {
	query := `
		UPDATE orders
		SET status = 'shipped', tracking_number = $1, carrier = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'placed' AND payment_status = 'paid'
	`
	cmdTag, err := s.pool.Exec(ctx, query, nullText(trackingNumber), nullText(carrier), orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected placed/paid", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkDelivered(ctx context.Context, orderID uuid.UUID) error {
	query := `
		UPDATE orders
		SET status = 'delivered', updated_at = NOW()
		WHERE id = $1 AND status = 'shipped'
	`
	cmdTag, err := s.pool.Exec(ctx, query, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected shipped", ErrInvalidStatusTransition)
	}
	return nil
}

// Cancel cancels a pending or placed order. Paid orders move to refunded.
func (s *OrderStore) Cancel(ctx context.Context, orderID uuid.UUID) (PaymentStatus, error) {
	query := `
		UPDATE orders
		SET status = 'cancelled',
		    payment_status = CASE WHEN payment_status = 'paid' THEN 'refunded' ELSE payment_status END,
		    updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'placed')
		RETURNING payment_status
	`
	var paymentStatus string
	if err := s.pool.QueryRow(ctx, query, orderID).Scan(&paymentStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: expected pending or placed", ErrInvalidStatusTransition)
		}
		return "", err
	}
	return PaymentStatus(paymentStatus), nil
}

// OrderStats are the order-side figures of the admin dashboard.
type OrderStats struct {
	TotalSales      decimal.Decimal
	SalesThisMonth  decimal.Decimal
	TotalOrders     int
	PendingOrders   int
	FailedOrders    int
	AwaitingPayment int
}

func (s *OrderStore) Stats(ctx context.Context, monthStart time.Time) (OrderStats, error) {
	query := `
		SELECT
			COALESCE(SUM(total) FILTER (WHERE payment_status = 'paid'), 0),
			COALESCE(SUM(total) FILTER (WHERE payment_status = 'paid' AND created_at >= $1), 0),
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'placed' AND payment_status <> 'paid'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM orders
	`
	var stats OrderStats
	err := s.pool.QueryRow(ctx, query, monthStart).Scan(
		&stats.TotalSales,
		&stats.SalesThisMonth,
		&stats.TotalOrders,
		&stats.PendingOrders,
		&stats.FailedOrders,
		&stats.AwaitingPayment,
	)
	if err != nil {
		return OrderStats{}, err
	}
	return stats, nil
}

func collectOrders(rows pgx.Rows) ([]*Order, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Order, error) {
		return scanOrder(row)
	})
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		order            Order
		userID           pgtype.Text
		itemsJSON        []byte
		addressJSON      []byte
		status           string
		paymentStatus    string
		paymentProvider  pgtype.Text
		gatewayOrderID   pgtype.Text
		gatewayPaymentID pgtype.Text
		gatewaySignature pgtype.Text
		errorMessage     pgtype.Text
		idempotencyKey   pgtype.Text
		trackingNumber   pgtype.Text
		carrier          pgtype.Text
		paidAt           pgtype.Timestamptz
	)

	err := row.Scan(
		&order.ID,
		&userID,
		&itemsJSON,
		&order.Subtotal,
		&order.ShippingFee,
		&order.Total,
		&addressJSON,
		&status,
		&paymentStatus,
		&paymentProvider,
		&gatewayOrderID,
		&gatewayPaymentID,
		&gatewaySignature,
		&errorMessage,
		&idempotencyKey,
		&trackingNumber,
		&carrier,
		&order.CreatedAt,
		&order.UpdatedAt,
		&paidAt,
	)
	if err != nil {
		return nil, err
	}

	order.UserID = userID.String
	order.Status = OrderStatus(status)
	order.PaymentStatus = PaymentStatus(paymentStatus)
	order.PaymentProvider = paymentProvider.String
	order.GatewayOrderID = gatewayOrderID.String
	order.GatewayPaymentID = gatewayPaymentID.String
	order.GatewaySignature = gatewaySignature.String
	order.ErrorMessage = errorMessage.String
	order.IdempotencyKey = idempotencyKey.String
	order.TrackingNumber = trackingNumber.String
	order.Carrier = carrier.String
	if paidAt.Valid {
		t := paidAt.Time
		order.PaidAt = &t
	}

	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
			return nil, fmt.Errorf("failed to decode order items: %w", err)
		}
	}
	if len(addressJSON) > 0 {
		if err := json.Unmarshal(addressJSON, &order.ShippingAddress); err != nil {
			return nil, fmt.Errorf("failed to decode shipping address: %w", err)
		}
	}

	return &order, nil
}

func nullText(value string) pgtype.Text {
	return pgtype.Text{String: value, Valid: value != ""}
}
