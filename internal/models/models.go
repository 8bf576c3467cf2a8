package models

import (
	"time"
)

type Member struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Point     int64     `json:"point"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     Price     `json:"price"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CartItem struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"-"`
	Quantity  int       `json:"quantity"`
	Product   Product   `json:"product"`
	CreatedAt time.Time `json:"createdAt"`
}

type Order struct {
	ID          int64       `json:"orderId"`
	MemberID    int64       `json:"-"`
	OrderNumber string      `json:"orderNumber"`
	TotalPrice  Price       `json:"totalPrice"`
	SpendPoint  int64       `json:"spendPoint"`
	SpendPrice  Price       `json:"spendPrice"`
	CreatedAt   time.Time   `json:"createdAt"`
	Items       []OrderItem `json:"orderItems,omitempty"`
}

// OrderItem is a snapshot of the product at purchase time. It carries copies
// of the product fields, never a product reference, so later catalog edits
// cannot rewrite order history.
type OrderItem struct {
	ID       int64  `json:"id"`
	OrderID  int64  `json:"-"`
	Name     string `json:"name"`
	Price    Price  `json:"price"`
	ImageURL string `json:"imageUrl"`
	Quantity int    `json:"quantity"`
}

type OrderSummary struct {
	OrderID          int64     `json:"orderId"`
	Thumbnail        string    `json:"thumbnail"`
	FirstProductName string    `json:"firstProductName"`
	TotalCount       int       `json:"totalCount"`
	SpendPrice       Price     `json:"spendPrice"`
	CreatedAt        time.Time `json:"createdAt"`
}
