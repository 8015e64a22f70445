package shop

import "time"

type Shop struct {
	ID           string    `json:"id" db:"shop_id"`
	OwnerID      string    `json:"ownerId" db:"owner_id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	Description  string    `json:"description" db:"description"`
	LogoURL      string    `json:"logoUrl" db:"logo_url"`
	BannerURL    string    `json:"bannerUrl" db:"banner_url"`
	ContactEmail string    `json:"contactEmail" db:"contact_email"`
	ContactPhone string    `json:"contactPhone" db:"contact_phone"`
	Address      string    `json:"address" db:"address"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
	Version      int       `json:"-" db:"version"`
}

type ShopNew struct {
	Name         string `json:"name" validate:"required"`
	Slug         string `json:"slug" validate:"required,lowercase,excludesall= "`
	Description  string `json:"description"`
	LogoURL      string `json:"logoUrl" validate:"omitempty,url"`
	BannerURL    string `json:"bannerUrl" validate:"omitempty,url"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone string `json:"contactPhone"`
	Address      string `json:"address"`
}

type ShopUp struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	LogoURL      *string `json:"logoUrl" validate:"omitempty,url"`
	BannerURL    *string `json:"bannerUrl" validate:"omitempty,url"`
	ContactEmail *string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone *string `json:"contactPhone"`
	Address      *string `json:"address"`
	Active       *bool   `json:"active"`
}
