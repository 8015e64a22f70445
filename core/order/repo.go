package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("order not found")

func Create(ctx context.Context, db sqlx.ExtContext, o Order) error {
	const q = `
	INSERT INTO orders
		(order_id, number, buyer_id, shop_id, status, subtotal, shipping_fee,
		total, shipping_address, contact_phone, notes, idempotency_key,
		created_at, updated_at)
	VALUES
		(:order_id, :number, :buyer_id, :shop_id, :status, :subtotal, :shipping_fee,
		:total, :shipping_address, :contact_phone, :notes, :idempotency_key,
		:created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, o); err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO order_items
		(order_id, product_id, product_name, product_image, unit_price,
		quantity, line_total, created_at)
	VALUES
		(:order_id, :product_id, :product_name, :product_image, :unit_price,
		:quantity, :line_total, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db *sqlx.DB, orderID string) (Order, error) {
	const q = `SELECT * FROM orders WHERE order_id = $1`

	var o Order
	if err := db.GetContext(ctx, &o, q, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("fetching order[%s]: %w", orderID, err)
	}
	return o, nil
}

// FetchByIdempotencyKey recalls an order already materialized by a
// previous attempt carrying the same key.
func FetchByIdempotencyKey(ctx context.Context, db *sqlx.DB, key string) (Order, error) {
	const q = `SELECT * FROM orders WHERE idempotency_key = $1`

	var o Order
	if err := db.GetContext(ctx, &o, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("fetching order by idempotency key: %w", err)
	}
	return o, nil
}

func FetchItems(ctx context.Context, db *sqlx.DB, orderID string) ([]Item, error) {
	const q = `SELECT * FROM order_items WHERE order_id = $1 ORDER BY created_at, product_id`

	items := []Item{}
	if err := db.SelectContext(ctx, &items, q, orderID); err != nil {
		return nil, fmt.Errorf("fetching items of order[%s]: %w", orderID, err)
	}
	return items, nil
}

func FetchByBuyer(ctx context.Context, db *sqlx.DB, buyerID string) ([]Order, error) {
	const q = `SELECT * FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC`

	orders := []Order{}
	if err := db.SelectContext(ctx, &orders, q, buyerID); err != nil {
		return nil, fmt.Errorf("fetching orders of buyer[%s]: %w", buyerID, err)
	}
	return orders, nil
}

func FetchByShop(ctx context.Context, db *sqlx.DB, shopID string) ([]Order, error) {
	const q = `SELECT * FROM orders WHERE shop_id = $1 ORDER BY created_at DESC`

	orders := []Order{}
	if err := db.SelectContext(ctx, &orders, q, shopID); err != nil {
		return nil, fmt.Errorf("fetching orders of shop[%s]: %w", shopID, err)
	}
	return orders, nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, orderID string, status Status, now time.Time) error {
	const q = `UPDATE orders SET status = :status, updated_at = :updated_at WHERE order_id = :order_id`

	arg := map[string]interface{}{
		"order_id":   orderID,
		"status":     status,
		"updated_at": now,
	}
	if _, err := sqlx.NamedExecContext(ctx, db, q, arg); err != nil {
		return fmt.Errorf("updating status of order[%s]: %w", orderID, err)
	}
	return nil
}
