// AngelaMos | 2026
// handler.go

package storefront

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the public catalogue, the caller's cart and orders,
// and the admin catalogue writes.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/storefront/items", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Get("/{itemID}", h.GetItem)

		r.Group(func(r chi.Router) {
			r.Use(authenticator, adminOnly)

			r.Post("/", h.CreateItem)
			r.Put("/{itemID}", h.UpdateItem)
			r.Delete("/{itemID}", h.DeleteItem)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.ViewCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddCartItem)
			r.Put("/items/{itemID}", h.UpdateCartItem)
			r.Delete("/items/{itemID}", h.RemoveCartItem)
			r.Post("/checkout", h.Checkout)
		})

		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{orderID}", h.GetOrder)
	})
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	params := ListItemsParams{
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "page_size", 20),
	}
	params.Normalize()

	items, total, err := h.service.ListItems(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToItemResponseList(items), params.Page, params.PageSize, total)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := core.URLParamUUID(w, r, "itemID")
	if !ok {
		return
	}

	item, err := h.service.GetItem(r.Context(), itemID, false)
	if err != nil {
		core.HandleError(w, err, "storefront item")
		return
	}

	core.OK(w, ToItemResponse(item))
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.service.CreateItem(r.Context(), req)
	if err != nil {
		core.HandleError(w, err, "storefront item")
		return
	}

	core.Created(w, ToItemResponse(item))
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := core.URLParamUUID(w, r, "itemID")
	if !ok {
		return
	}

	var req UpdateItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.service.UpdateItem(r.Context(), itemID, req)
	if err != nil {
		core.HandleError(w, err, "storefront item")
		return
	}

	core.OK(w, ToItemResponse(item))
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := core.URLParamUUID(w, r, "itemID")
	if !ok {
		return
	}

	if err := h.service.DeleteItem(r.Context(), itemID); err != nil {
		core.HandleError(w, err, "storefront item")
		return
	}

	core.NoContent(w)
}

func (h *Handler) ViewCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cart, err := h.service.ViewCart(ctx, middleware.GetUserID(ctx))
	if err != nil {
		core.HandleError(w, err, "cart")
		return
	}

	core.OK(w, cart)
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CartItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	cart, err := h.service.SetCartItem(ctx, middleware.GetUserID(ctx), req.ItemID, req.Quantity)
	if err != nil {
		core.HandleError(w, err, "storefront item")
		return
	}

	core.OK(w, cart)
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := core.URLParamUUID(w, r, "itemID")
	if !ok {
		return
	}

	ctx := r.Context()

	var req UpdateCartItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	cart, err := h.service.SetCartItem(
		ctx,
		middleware.GetUserID(ctx),
		itemID,
		req.Quantity,
	)
	if err != nil {
		core.HandleError(w, err, "storefront item")
		return
	}

	core.OK(w, cart)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := core.URLParamUUID(w, r, "itemID")
	if !ok {
		return
	}

	ctx := r.Context()

	cart, err := h.service.RemoveCartItem(ctx, middleware.GetUserID(ctx), itemID)
	if err != nil {
		core.HandleError(w, err, "cart")
		return
	}

	core.OK(w, cart)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.ClearCart(ctx, middleware.GetUserID(ctx)); err != nil {
		core.HandleError(w, err, "cart")
		return
	}

	core.NoContent(w)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	order, err := h.service.Checkout(ctx, middleware.GetUserID(ctx))
	if err != nil {
		core.HandleError(w, err, "order")
		return
	}

	core.Created(w, ToOrderResponse(order))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := ListItemsParams{
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "page_size", 20),
	}
	params.Normalize()

	orders, total, err := h.service.ListOrders(
		ctx,
		middleware.GetUserID(ctx),
		params.Page,
		params.PageSize,
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToOrderResponseList(orders), params.Page, params.PageSize, total)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := core.URLParamUUID(w, r, "orderID")
	if !ok {
		return
	}

	ctx := r.Context()

	order, err := h.service.GetOrder(
		ctx,
		orderID,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx) == middleware.RoleAdmin,
	)
	if err != nil {
		core.HandleError(w, err, "order")
		return
	}

	core.OK(w, ToOrderResponse(order))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}
