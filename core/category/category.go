package category

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sugbuph/market/api/web"
)

type Category struct {
	ID           string    `json:"id" db:"category_id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	Icon         string    `json:"icon" db:"icon"`
	DisplayOrder int       `json:"displayOrder" db:"display_order"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

func Create(ctx context.Context, db sqlx.ExtContext, c Category) error {
	const q = `
	INSERT INTO categories (category_id, name, slug, icon, display_order, created_at)
	VALUES (:category_id, :name, :slug, :icon, :display_order, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	return nil
}

func List(ctx context.Context, db *sqlx.DB) ([]Category, error) {
	const q = `SELECT * FROM categories ORDER BY display_order, name`

	categories := []Category{}
	if err := db.SelectContext(ctx, &categories, q); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		categories, err := List(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, categories, http.StatusOK)
	}
}
