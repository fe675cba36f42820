package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Owner struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	PasswordHash  string    `json:"-"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	OpeningHours  string    `json:"opening_hours,omitempty"`
	BankName      string    `json:"bank_name,omitempty"`
	AccountName   string    `json:"account_name,omitempty"`
	AccountNumber string    `json:"account_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Product struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	ImageURLs   []string        `json:"image_urls"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Order struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name"`
	Quantity         int             `json:"quantity"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	Status           string          `json:"status"`
	DeliverToName    string          `json:"deliver_to_name"`
	DeliverToAddress string          `json:"deliver_to_address"`
	DeliverToPhone   string          `json:"deliver_to_phone"`
	SellerID         string          `json:"seller_id"`
	BuyerID          string          `json:"buyer_id"`
	BuyerName        string          `json:"buyer_name"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type Presence struct {
	UserID      string    `json:"user_id"`
	State       string    `json:"state"`
	LastChanged time.Time `json:"last_changed"`
}

type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	OrderStatusPending   = "pending"
	OrderStatusDelivered = "delivered"
	OrderStatusRejected  = "rejected"
)

const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

const (
	CategoryChocolate = "chocolate"
	CategoryFlowers   = "flowers"
)

// Categories lists the product categories offered in the shop panel.
// New categories only need an entry here and in the storefront.
var Categories = []string{CategoryChocolate, CategoryFlowers}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

func TerminalOrderStatus(s string) bool {
	return s == OrderStatusDelivered || s == OrderStatusRejected
}
