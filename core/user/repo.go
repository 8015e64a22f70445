package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("user not found")

func Create(ctx context.Context, db sqlx.ExtContext, p Profile) error {
	const q = `
	INSERT INTO profiles
		(user_id, email, full_name, role, phone, avatar_url, password_hash,
		created_at, updated_at)
	VALUES
		(:user_id, :email, :full_name, :role, :phone, :avatar_url, :password_hash,
		:created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, p Profile) error {
	const q = `
	UPDATE profiles SET
		full_name = :full_name,
		phone = :phone,
		avatar_url = :avatar_url,
		updated_at = :updated_at
	WHERE user_id = :user_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("updating profile[%s]: %w", p.ID, err)
	}
	return nil
}

func Fetch(ctx context.Context, db *sqlx.DB, userID string) (Profile, error) {
	const q = `SELECT * FROM profiles WHERE user_id = $1`

	var p Profile
	if err := db.GetContext(ctx, &p, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("fetching profile[%s]: %w", userID, err)
	}
	return p, nil
}

func FetchByEmail(ctx context.Context, db *sqlx.DB, email string) (Profile, error) {
	const q = `SELECT * FROM profiles WHERE email = $1`

	var p Profile
	if err := db.GetContext(ctx, &p, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("fetching profile by email: %w", err)
	}
	return p, nil
}
