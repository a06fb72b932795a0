// AngelaMos | 2026
// handler.go

package session

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
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/credits", h.Credits)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.List)
			r.Get("/open", h.ListOpen)
			r.Get("/{sessionID}", h.Get)
			r.Post("/{sessionID}/book", h.Book)
			r.Post("/{sessionID}/cancel", h.Cancel)

			r.Group(func(r chi.Router) {
				r.Use(trainerOnly)

				r.Post("/", h.CreateSlot)
				r.Post("/{sessionID}/complete", h.Complete)
			})
		})
	})
}

func (h *Handler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateSlotRequest
	if !h.decode(w, r, &req) {
		return
	}

	slot, err := h.service.CreateSlot(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		core.HandleError(w, err, "session")
		return
	}

	core.Created(w, ToSessionResponse(slot))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, ok := listParams(w, r)
	if !ok {
		return
	}
	params.UserID = middleware.GetUserID(ctx)
	params.Role = middleware.GetUserRole(ctx)

	sessions, total, err := h.service.List(ctx, params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToSessionResponseList(sessions), params.Page, params.PageSize, total)
}

func (h *Handler) ListOpen(w http.ResponseWriter, r *http.Request) {
	params, ok := listParams(w, r)
	if !ok {
		return
	}
	trainerID, err := core.QueryUUID(r, "trainer_id")
	if err != nil {
		core.BadRequest(w, "trainer_id must be a valid UUID")
		return
	}
	params.TrainerID = trainerID

	sessions, total, err := h.service.ListOpen(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToSessionResponseList(sessions), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := core.URLParamUUID(w, r, "sessionID")
	if !ok {
		return
	}

	ctx := r.Context()

	sess, err := h.service.Get(
		ctx,
		sessionID,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
	)
	if err != nil {
		core.HandleError(w, err, "session")
		return
	}

	core.OK(w, ToSessionResponse(sess))
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := core.URLParamUUID(w, r, "sessionID")
	if !ok {
		return
	}

	ctx := r.Context()

	sess, err := h.service.Book(
		ctx,
		sessionID,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
	)
	if err != nil {
		core.HandleError(w, err, "session")
		return
	}

	core.OK(w, ToSessionResponse(sess))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := core.URLParamUUID(w, r, "sessionID")
	if !ok {
		return
	}

	ctx := r.Context()

	sess, refunded, err := h.service.Cancel(
		ctx,
		sessionID,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
	)
	if err != nil {
		core.HandleError(w, err, "session")
		return
	}

	core.OK(w, CancelResponse{Session: ToSessionResponse(sess), Refunded: refunded})
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := core.URLParamUUID(w, r, "sessionID")
	if !ok {
		return
	}

	ctx := r.Context()

	sess, err := h.service.Complete(
		ctx,
		sessionID,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
	)
	if err != nil {
		core.HandleError(w, err, "session")
		return
	}

	core.OK(w, ToSessionResponse(sess))
}

func (h *Handler) Credits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	balance, err := h.service.Credits(ctx, middleware.GetUserID(ctx))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, CreditsResponse{Balance: balance})
}

func listParams(w http.ResponseWriter, r *http.Request) (ListParams, bool) {
	from, err := core.QueryTime(r, "from")
	if err != nil {
		core.BadRequest(w, "from must be RFC 3339 or YYYY-MM-DD")
		return ListParams{}, false
	}

	params := ListParams{
		Status:   r.URL.Query().Get("status"),
		From:     from,
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "page_size", 20),
	}
	params.Normalize()
	return params, true
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
