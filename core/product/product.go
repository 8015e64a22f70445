package product

import (
	"time"

	"github.com/lib/pq"
)

type Product struct {
	ID             string         `json:"id" db:"product_id"`
	ShopID         string         `json:"shopId" db:"shop_id"`
	CategoryID     *string        `json:"categoryId" db:"category_id"`
	Name           string         `json:"name" db:"name"`
	Description    string         `json:"description" db:"description"`
	Price          int            `json:"price" db:"price"`
	CompareAtPrice *int           `json:"compareAtPrice" db:"compare_at_price"`
	Stock          int            `json:"stock" db:"stock"`
	ImageURLs      pq.StringArray `json:"imageUrls" db:"image_urls"`
	Active         bool           `json:"active" db:"active"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
	Version        int            `json:"-" db:"version"`
}

type ProductNew struct {
	ShopID         string   `json:"shopId" validate:"required"`
	CategoryID     *string  `json:"categoryId"`
	Name           string   `json:"name" validate:"required"`
	Description    string   `json:"description"`
	Price          int      `json:"price" validate:"gte=0"`
	CompareAtPrice *int     `json:"compareAtPrice" validate:"omitempty,gte=0"`
	Stock          int      `json:"stock" validate:"gte=0"`
	ImageURLs      []string `json:"imageUrls" validate:"omitempty,dive,url"`
	Active         *bool    `json:"active"`
}

type ProductUp struct {
	CategoryID     *string  `json:"categoryId"`
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	Price          *int     `json:"price" validate:"omitempty,gte=0"`
	CompareAtPrice *int     `json:"compareAtPrice" validate:"omitempty,gte=0"`
	Stock          *int     `json:"stock" validate:"omitempty,gte=0"`
	ImageURLs      []string `json:"imageUrls" validate:"omitempty,dive,url"`
	Active         *bool    `json:"active"`
}

// Filter narrows the public product listing.
type Filter struct {
	ShopID     string
	CategoryID string
	ActiveOnly bool
}
