// AngelaMos | 2026
// entity.go

package storefront

import (
	"time"
)

const (
	PackageSingle       = "single"
	PackagePackage      = "package"
	PackageSubscription = "subscription"

	OrderPaid     = "paid"
	OrderRefunded = "refunded"
)

// Item is a purchasable bundle of training session credits.
type Item struct {
	ID           string     `db:"id"`
	Name         string     `db:"name"`
	Description  string     `db:"description"`
	PriceCents   int        `db:"price_cents"`
	SessionCount int        `db:"session_count"`
	PackageType  string     `db:"package_type"`
	Active       bool       `db:"active"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (i *Item) Purchasable() bool {
	return i.Active && i.DeletedAt == nil
}

type Order struct {
	ID              string      `db:"id"`
	UserID          string      `db:"user_id"`
	Status          string      `db:"status"`
	TotalCents      int         `db:"total_cents"`
	Currency        string      `db:"currency"`
	SessionsGranted int         `db:"sessions_granted"`
	CreatedAt       time.Time   `db:"created_at"`
	Items           []OrderItem `db:"-"`
}

// OrderItem snapshots the item's name and price at purchase time.
type OrderItem struct {
	ID             string `db:"id"`
	OrderID        string `db:"order_id"`
	ItemID         string `db:"item_id"`
	Name           string `db:"name"`
	Quantity       int    `db:"quantity"`
	UnitPriceCents int    `db:"unit_price_cents"`
	SessionCount   int    `db:"session_count"`
}

func (oi OrderItem) LineTotal() int {
	return oi.Quantity * oi.UnitPriceCents
}

func (oi OrderItem) Sessions() int {
	return oi.Quantity * oi.SessionCount
}
