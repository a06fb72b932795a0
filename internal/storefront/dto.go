// AngelaMos | 2026
// dto.go

package storefront

import (
	"time"
)

type CreateItemRequest struct {
	Name         string `json:"name"          validate:"required,min=2,max=120"`
	Description  string `json:"description"   validate:"max=2000"`
	PriceCents   int    `json:"price_cents"   validate:"required,min=1,max=10000000"`
	SessionCount int    `json:"session_count" validate:"required,min=1,max=500"`
	PackageType  string `json:"package_type"  validate:"required,oneof=single package subscription"`
	Active       *bool  `json:"active"`
}

type UpdateItemRequest struct {
	Name         *string `json:"name"          validate:"omitempty,min=2,max=120"`
	Description  *string `json:"description"   validate:"omitempty,max=2000"`
	PriceCents   *int    `json:"price_cents"   validate:"omitempty,min=1,max=10000000"`
	SessionCount *int    `json:"session_count" validate:"omitempty,min=1,max=500"`
	PackageType  *string `json:"package_type"  validate:"omitempty,oneof=single package subscription"`
	Active       *bool   `json:"active"`
}

type CartItemRequest struct {
	ItemID   string `json:"item_id"  validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type ListItemsParams struct {
	IncludeInactive bool
	Page            int
	PageSize        int
}

func (p *ListItemsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListItemsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type ItemResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PriceCents   int       `json:"price_cents"`
	SessionCount int       `json:"session_count"`
	PackageType  string    `json:"package_type"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type CartLineResponse struct {
	ItemID         string `json:"item_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int    `json:"unit_price_cents"`
	LineTotalCents int    `json:"line_total_cents"`
	Sessions       int    `json:"sessions"`
}

type CartResponse struct {
	Items      []CartLineResponse `json:"items"`
	TotalCents int                `json:"total_cents"`
	Sessions   int                `json:"sessions"`
	Currency   string             `json:"currency"`
}

type OrderItemResponse struct {
	ItemID         string `json:"item_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int    `json:"unit_price_cents"`
	SessionCount   int    `json:"session_count"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	Status          string              `json:"status"`
	TotalCents      int                 `json:"total_cents"`
	Currency        string              `json:"currency"`
	SessionsGranted int                 `json:"sessions_granted"`
	Items           []OrderItemResponse `json:"items,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

func ToItemResponse(i *Item) ItemResponse {
	return ItemResponse{
		ID:           i.ID,
		Name:         i.Name,
		Description:  i.Description,
		PriceCents:   i.PriceCents,
		SessionCount: i.SessionCount,
		PackageType:  i.PackageType,
		Active:       i.Active,
		CreatedAt:    i.CreatedAt,
	}
}

func ToItemResponseList(items []Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i := range items {
		out[i] = ToItemResponse(&items[i])
	}
	return out
}

func ToOrderResponse(o *Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		Status:          o.Status,
		TotalCents:      o.TotalCents,
		Currency:        o.Currency,
		SessionsGranted: o.SessionsGranted,
		CreatedAt:       o.CreatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ItemID:         it.ItemID,
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			SessionCount:   it.SessionCount,
		})
	}
	return resp
}

func ToOrderResponseList(orders []Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out
}
