// AngelaMos | 2026
// handler.go

package gamification

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
	authenticator, trainerOnly, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/gamification/me", h.Profile)
		r.Get("/gamification/me/ledger", h.Ledger)
		r.Get("/gamification/leaderboard", h.Leaderboard)

		r.Get("/achievements", h.ListAchievements)
		r.Get("/achievements/me", h.MyAchievements)
		r.With(adminOnly).Post("/admin/achievements", h.CreateAchievement)

		r.Route("/challenges", func(r chi.Router) {
			r.Get("/", h.ListChallenges)
			r.With(trainerOnly).Post("/", h.CreateChallenge)
			r.Get("/{challengeID}", h.GetChallenge)
			r.Post("/{challengeID}/join", h.JoinChallenge)
			r.Get("/{challengeID}/leaderboard", h.ChallengeLeaderboard)
		})
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := h.service.Profile(ctx, middleware.GetUserID(ctx))
	if err != nil {
		core.HandleError(w, err, "profile")
		return
	}

	core.OK(w, profile)
}

func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := max(core.QueryInt(r, "page", 1), 1)
	pageSize := min(max(core.QueryInt(r, "page_size", 20), 1), 100)

	entries, total, err := h.service.Ledger(ctx, middleware.GetUserID(ctx), page, pageSize)
	if err != nil {
		core.HandleError(w, err, "ledger")
		return
	}

	core.Paginated(w, ToLedgerResponseList(entries), page, pageSize, total)
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = PeriodAllTime
	}

	standings, err := h.service.Leaderboard(r.Context(), period, core.QueryInt(r, "limit", 0))
	if err != nil {
		core.HandleError(w, err, "leaderboard")
		return
	}

	core.OK(w, LeaderboardResponse{Period: period, Standings: standings})
}

func (h *Handler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Achievements(r.Context())
	if err != nil {
		core.HandleError(w, err, "achievement")
		return
	}

	core.OK(w, ToAchievementResponseList(list))
}

func (h *Handler) MyAchievements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.service.UserAchievements(ctx, middleware.GetUserID(ctx))
	if err != nil {
		core.HandleError(w, err, "achievement")
		return
	}

	core.OK(w, ToUnlockedResponseList(list))
}

func (h *Handler) CreateAchievement(w http.ResponseWriter, r *http.Request) {
	var req CreateAchievementRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.service.CreateAchievement(r.Context(), req)
	if err != nil {
		core.HandleError(w, err, "achievement")
		return
	}

	core.Created(w, ToAchievementResponse(a))
}

func (h *Handler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("status") != "all"

	list, err := h.service.ListChallenges(r.Context(), activeOnly)
	if err != nil {
		core.HandleError(w, err, "challenge")
		return
	}

	core.OK(w, ToChallengeResponseList(list))
}

func (h *Handler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateChallengeRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.service.CreateChallenge(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		core.HandleError(w, err, "challenge")
		return
	}

	core.Created(w, ToChallengeResponse(c))
}

func (h *Handler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := core.URLParamUUID(w, r, "challengeID")
	if !ok {
		return
	}

	c, err := h.service.GetChallenge(r.Context(), challengeID)
	if err != nil {
		core.HandleError(w, err, "challenge")
		return
	}

	core.OK(w, ToChallengeResponse(c))
}

func (h *Handler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := core.URLParamUUID(w, r, "challengeID")
	if !ok {
		return
	}

	ctx := r.Context()

	c, err := h.service.JoinChallenge(ctx, challengeID, middleware.GetUserID(ctx))
	if err != nil {
		core.HandleError(w, err, "challenge")
		return
	}

	core.OK(w, ToChallengeResponse(c))
}

func (h *Handler) ChallengeLeaderboard(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := core.URLParamUUID(w, r, "challengeID")
	if !ok {
		return
	}

	c, standings, err := h.service.ChallengeLeaderboard(
		r.Context(),
		challengeID,
		core.QueryInt(r, "limit", 0),
	)
	if err != nil {
		core.HandleError(w, err, "challenge")
		return
	}

	core.OK(w, ChallengeLeaderboardResponse{
		Challenge: ToChallengeResponse(c),
		Standings: standings,
	})
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
