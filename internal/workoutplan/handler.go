// AngelaMos | 2026
// handler.go

package workoutplan

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, trainerOnly func(http.Handler) http.Handler,
) {
	r.Route("/workout-plans", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Get("/{planID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(trainerOnly)

			r.Post("/", h.Create)
			r.Put("/{planID}", h.Update)
			r.Delete("/{planID}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientID, err := core.QueryUUID(r, "client_id")
	if err != nil {
		core.BadRequest(w, "client_id must be a valid UUID")
		return
	}

	params := ListParams{
		ClientID: clientID,
		Status:   r.URL.Query().Get("status"),
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "page_size", 20),
	}
	params.Normalize()

	plans, total, err := h.service.List(
		ctx,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
		params,
	)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToPlanResponseList(plans), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	planID, ok := core.URLParamUUID(w, r, "planID")
	if !ok {
		return
	}

	ctx := r.Context()

	plan, err := h.service.Get(
		ctx,
		planID,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
	)
	if err != nil {
		core.HandleError(w, err, "workout plan")
		return
	}

	core.OK(w, ToPlanResponse(plan))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreatePlanRequest
	if !h.decode(w, r, &req) {
		return
	}

	plan, err := h.service.Create(
		ctx,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "client")
		return
	}

	core.Created(w, ToPlanResponse(plan))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	planID, ok := core.URLParamUUID(w, r, "planID")
	if !ok {
		return
	}

	ctx := r.Context()

	var req UpdatePlanRequest
	if !h.decode(w, r, &req) {
		return
	}

	plan, err := h.service.Update(
		ctx,
		planID,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "workout plan")
		return
	}

	core.OK(w, ToPlanResponse(plan))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	planID, ok := core.URLParamUUID(w, r, "planID")
	if !ok {
		return
	}

	ctx := r.Context()

	err := h.service.Delete(
		ctx,
		planID,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
	)
	if err != nil {
		core.HandleError(w, err, "workout plan")
		return
	}

	core.NoContent(w)
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
