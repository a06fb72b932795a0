// AngelaMos | 2026
// handler.go

package workoutlog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/middleware"
)

const (
	IdempotencyHeader    = "Idempotency-Key"
	maxIdempotencyKeyLen = 255
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
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/workout-logs", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/progress", h.Progress)
		r.Get("/{logID}", h.Get)
		r.Delete("/{logID}", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := r.Header.Get(IdempotencyHeader)
	if len(key) > maxIdempotencyKeyLen {
		core.BadRequest(w, "Idempotency-Key must be at most 255 characters")
		return
	}

	var req CreateWorkoutLogRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Create(ctx, middleware.GetUserID(ctx), key, req)
	if err != nil {
		core.HandleError(w, err, "workout log")
		return
	}

	resp := CreateWorkoutLogResponse{
		Log:              ToLogResponse(result.Log),
		PointsEstimate:   result.Log.PointsEstimate,
		IdempotentReplay: result.Replay,
	}

	if result.Replay {
		core.OK(w, resp)
		return
	}
	core.Created(w, resp)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, err := core.QueryTime(r, "from")
	if err != nil {
		core.BadRequest(w, "from must be RFC 3339 or YYYY-MM-DD")
		return
	}
	to, err := core.QueryTime(r, "to")
	if err != nil {
		core.BadRequest(w, "to must be RFC 3339 or YYYY-MM-DD")
		return
	}
	userID, err := core.QueryUUID(r, "user_id")
	if err != nil {
		core.BadRequest(w, "user_id must be a valid UUID")
		return
	}

	params := ListParams{
		UserID:   userID,
		From:     from,
		To:       to,
		Page:     core.QueryInt(r, "page", 1),
		PageSize: core.QueryInt(r, "page_size", 20),
	}
	params.Normalize()

	logs, total, err := h.service.List(
		ctx,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
		params,
	)
	if err != nil {
		core.HandleError(w, err, "workout log")
		return
	}

	core.Paginated(w, ToLogResponseList(logs), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logID, ok := core.URLParamUUID(w, r, "logID")
	if !ok {
		return
	}

	ctx := r.Context()

	log, err := h.service.Get(
		ctx,
		logID,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
	)
	if err != nil {
		core.HandleError(w, err, "workout log")
		return
	}

	core.OK(w, ToLogResponse(log))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logID, ok := core.URLParamUUID(w, r, "logID")
	if !ok {
		return
	}

	ctx := r.Context()

	err := h.service.Delete(
		ctx,
		logID,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
	)
	if err != nil {
		core.HandleError(w, err, "workout log")
		return
	}

	core.NoContent(w)
}

func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var ids [2]string
	for i, key := range []string{"user_id", "exercise_id"} {
		id, err := core.QueryUUID(r, key)
		if err != nil {
			core.BadRequest(w, key+" must be a valid UUID")
			return
		}
		ids[i] = id
	}

	weeks, err := core.QueryIntStrict(r, "weeks", 12)
	if err != nil {
		core.BadRequest(w, "weeks must be an integer")
		return
	}

	progress, err := h.service.Progress(
		ctx,
		middleware.GetUserID(ctx),
		middleware.GetUserRole(ctx),
		ids[0],
		ids[1],
		weeks,
	)
	if err != nil {
		core.HandleError(w, err, "workout log")
		return
	}

	core.OK(w, progress)
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
