// AngelaMos | 2026
// handler.go

package realtime

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/middleware"
)

type Handler struct {
	hub      *Hub
	verifier middleware.TokenVerifier
	cfg      config.RealtimeConfig
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(
	hub *Hub,
	verifier middleware.TokenVerifier,
	cfg config.RealtimeConfig,
	logger *slog.Logger,
) *Handler {
	h := &Handler{
		hub:      hub,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(cfg.AllowedOrigins) > 0 {
		h.upgrader.CheckOrigin = h.checkOrigin
	}
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.Serve)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, "*") ||
		slices.Contains(h.cfg.AllowedOrigins, origin)
}

// Serve upgrades an authenticated request. Browsers cannot set headers on
// a WebSocket handshake, so the token may come from the query string.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.ExtractToken(r)
	}
	if token == "" {
		core.JSONError(w, core.UnauthorizedError("missing access token"))
		return
	}

	claims, err := h.verifier.VerifyAccessToken(r.Context(), token)
	if err != nil {
		middleware.WriteAuthError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h.hub, conn, claims.UserID, h.cfg, h.logger)
	h.hub.Register(client)
	h.hub.Subscribe(client, UserChannel(claims.UserID))

	if leaderboard, _ := strconv.ParseBool(r.URL.Query().Get("leaderboard")); leaderboard {
		h.hub.Subscribe(client, ChannelLeaderboard)
	}

	h.logger.Debug("websocket connected", "client_id", client.ID, "user_id", claims.UserID)
	client.Run()
}
