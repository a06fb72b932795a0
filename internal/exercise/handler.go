// AngelaMos | 2026
// handler.go

package exercise

import (
	"encoding/json"
	"net/http"
	"strings"

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
	r.Route("/exercises", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.Search)
		r.Get("/{exerciseID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(trainerOnly)

			r.Post("/", h.Create)
			r.Put("/{exerciseID}", h.Update)
			r.Delete("/{exerciseID}", h.Delete)
		})
	})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := SearchRequest{
		Query:       strings.TrimSpace(q.Get("q")),
		MuscleGroup: q.Get("muscle_group"),
		Equipment:   q.Get("equipment"),
		Difficulty:  q.Get("difficulty"),
	}

	var err error
	for _, f := range []struct {
		key string
		def int
		dst *int
	}{
		{"opt_phase", 0, &params.OPTPhase},
		{"page", 1, &params.Page},
		{"page_size", 20, &params.PageSize},
	} {
		if *f.dst, err = core.QueryIntStrict(r, f.key, f.def); err != nil {
			core.BadRequest(w, f.key+" must be an integer")
			return
		}
	}

	if err := h.validator.Struct(params); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Search(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := core.URLParamUUID(w, r, "exerciseID")
	if !ok {
		return
	}

	e, err := h.service.Get(r.Context(), exerciseID)
	if err != nil {
		core.HandleError(w, err, "exercise")
		return
	}

	core.OK(w, ToExerciseResponse(e))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateExerciseRequest
	if !h.decode(w, r, &req) {
		return
	}

	e, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "exercise name")
		return
	}

	core.Created(w, ToExerciseResponse(e))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := core.URLParamUUID(w, r, "exerciseID")
	if !ok {
		return
	}

	var req UpdateExerciseRequest
	if !h.decode(w, r, &req) {
		return
	}

	e, err := h.service.Update(r.Context(), exerciseID, req)
	if err != nil {
		core.HandleError(w, err, "exercise")
		return
	}

	core.OK(w, ToExerciseResponse(e))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := core.URLParamUUID(w, r, "exerciseID")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), exerciseID); err != nil {
		core.HandleError(w, err, "exercise")
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
