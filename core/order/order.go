package order

import "time"

type Status string

const (
	Pending   Status = "pending"
	Confirmed Status = "confirmed"
	Preparing Status = "preparing"
	Shipped   Status = "shipped"
	Delivered Status = "delivered"
	Cancelled Status = "cancelled"
)

type Order struct {
	ID              string    `json:"id" db:"order_id"`
	Number          string    `json:"number" db:"number"`
	BuyerID         string    `json:"buyerId" db:"buyer_id"`
	ShopID          string    `json:"shopId" db:"shop_id"`
	Status          Status    `json:"status" db:"status"`
	Subtotal        int       `json:"subtotal" db:"subtotal"`
	ShippingFee     int       `json:"shippingFee" db:"shipping_fee"`
	Total           int       `json:"total" db:"total"`
	ShippingAddress string    `json:"shippingAddress" db:"shipping_address"`
	ContactPhone    string    `json:"contactPhone" db:"contact_phone"`
	Notes           string    `json:"notes" db:"notes"`
	IdempotencyKey  string    `json:"-" db:"idempotency_key"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
	Items           []Item    `json:"items,omitempty" db:"-"`
}

type Item struct {
	OrderID      string    `json:"orderId" db:"order_id"`
	ProductID    string    `json:"productId" db:"product_id"`
	ProductName  string    `json:"productName" db:"product_name"`
	ProductImage string    `json:"productImage" db:"product_image"`
	UnitPrice    int       `json:"unitPrice" db:"unit_price"`
	Quantity     int       `json:"quantity" db:"quantity"`
	LineTotal    int       `json:"lineTotal" db:"line_total"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type StatusUp struct {
	Status Status `json:"status" validate:"required,oneof=pending confirmed preparing shipped delivered cancelled"`
}
