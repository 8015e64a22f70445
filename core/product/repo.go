package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound = errors.New("product not found")

	// ErrNoStock means the live stock could not cover a requested
	// quantity at placement time.
	ErrNoStock = errors.New("not enough stock")
)

func Create(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	INSERT INTO products
		(product_id, shop_id, category_id, name, description, price,
		compare_at_price, stock, image_urls, active, created_at, updated_at, version)
	VALUES
		(:product_id, :shop_id, :category_id, :name, :description, :price,
		:compare_at_price, :stock, :image_urls, :active, :created_at, :updated_at, :version)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	UPDATE products SET
		category_id = :category_id,
		name = :name,
		description = :description,
		price = :price,
		compare_at_price = :compare_at_price,
		stock = :stock,
		image_urls = :image_urls,
		active = :active,
		updated_at = :updated_at,
		version = version + 1
	WHERE product_id = :product_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("updating product[%s]: %w", p.ID, err)
	}
	return nil
}

func Fetch(ctx context.Context, db *sqlx.DB, productID string) (Product, error) {
	const q = `SELECT * FROM products WHERE product_id = $1`

	var p Product
	if err := db.GetContext(ctx, &p, q, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("fetching product[%s]: %w", productID, err)
	}
	return p, nil
}

func List(ctx context.Context, db *sqlx.DB, f Filter) ([]Product, error) {
	q := `SELECT * FROM products`

	var where []string
	var args []interface{}

	if f.ActiveOnly {
		where = append(where, "active = TRUE")
	}
	if f.ShopID != "" {
		args = append(args, f.ShopID)
		where = append(where, fmt.Sprintf("shop_id = $%d", len(args)))
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"

	products := []Product{}
	if err := db.SelectContext(ctx, &products, q, args...); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// TakeStock atomically verifies and decrements the live stock of one
// product. Zero rows affected means the product is gone, inactive or
// short on stock, all of which fail the placement.
func TakeStock(ctx context.Context, db sqlx.ExtContext, productID string, qty int, now time.Time) error {
	const q = `
	UPDATE products SET
		stock = stock - :qty,
		updated_at = :now,
		version = version + 1
	WHERE product_id = :product_id AND active = TRUE AND stock >= :qty`

	arg := map[string]interface{}{
		"product_id": productID,
		"qty":        qty,
		"now":        now,
	}

	res, err := sqlx.NamedExecContext(ctx, db, q, arg)
	if err != nil {
		return fmt.Errorf("decrementing stock of product[%s]: %w", productID, err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("decrementing stock of product[%s]: %w", productID, err)
	} else if n == 0 {
		return fmt.Errorf("product[%s]: %w", productID, ErrNoStock)
	}
	return nil
}
