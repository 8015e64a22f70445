package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("shop not found")

func Create(ctx context.Context, db sqlx.ExtContext, s Shop) error {
	const q = `
	INSERT INTO shops
		(shop_id, owner_id, name, slug, description, logo_url, banner_url,
		contact_email, contact_phone, address, active, created_at, updated_at, version)
	VALUES
		(:shop_id, :owner_id, :name, :slug, :description, :logo_url, :banner_url,
		:contact_email, :contact_phone, :address, :active, :created_at, :updated_at, :version)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, s); err != nil {
		return fmt.Errorf("inserting shop: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, s Shop) error {
	const q = `
	UPDATE shops SET
		name = :name,
		description = :description,
		logo_url = :logo_url,
		banner_url = :banner_url,
		contact_email = :contact_email,
		contact_phone = :contact_phone,
		address = :address,
		active = :active,
		updated_at = :updated_at,
		version = version + 1
	WHERE shop_id = :shop_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, s); err != nil {
		return fmt.Errorf("updating shop[%s]: %w", s.ID, err)
	}
	return nil
}

func Fetch(ctx context.Context, db *sqlx.DB, shopID string) (Shop, error) {
	const q = `SELECT * FROM shops WHERE shop_id = $1`

	var s Shop
	if err := db.GetContext(ctx, &s, q, shopID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Shop{}, ErrNotFound
		}
		return Shop{}, fmt.Errorf("fetching shop[%s]: %w", shopID, err)
	}
	return s, nil
}

func FetchBySlug(ctx context.Context, db *sqlx.DB, slug string) (Shop, error) {
	const q = `SELECT * FROM shops WHERE slug = $1`

	var s Shop
	if err := db.GetContext(ctx, &s, q, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Shop{}, ErrNotFound
		}
		return Shop{}, fmt.Errorf("fetching shop[slug=%s]: %w", slug, err)
	}
	return s, nil
}

func FetchByOwner(ctx context.Context, db *sqlx.DB, ownerID string) (Shop, error) {
	const q = `SELECT * FROM shops WHERE owner_id = $1`

	var s Shop
	if err := db.GetContext(ctx, &s, q, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Shop{}, ErrNotFound
		}
		return Shop{}, fmt.Errorf("fetching shop of owner[%s]: %w", ownerID, err)
	}
	return s, nil
}

func List(ctx context.Context, db *sqlx.DB) ([]Shop, error) {
	const q = `SELECT * FROM shops WHERE active = TRUE ORDER BY created_at DESC`

	shops := []Shop{}
	if err := db.SelectContext(ctx, &shops, q); err != nil {
		return nil, fmt.Errorf("listing shops: %w", err)
	}
	return shops, nil
}
