// AngelaMos | 2026
// service.go

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/events"
	"github.com/coachforge/platform/internal/middleware"
)

type Service struct {
	repo Repository
	cfg  config.SessionsConfig
	now  func() time.Time
}

func NewService(repo Repository, cfg config.SessionsConfig) *Service {
	return &Service{repo: repo, cfg: cfg, now: time.Now}
}

func (s *Service) CreateSlot(
	ctx context.Context,
	trainerID string,
	req CreateSlotRequest,
) (*Session, error) {
	if !req.StartsAt.After(s.now()) {
		return nil, core.ValidationError("starts_at must be in the future")
	}

	slot := &Session{
		ID:              uuid.New().String(),
		TrainerID:       trainerID,
		StartsAt:        req.StartsAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		Status:          StatusAvailable,
		Notes:           req.Notes,
	}

	overlap, err := s.repo.HasOverlap(ctx, trainerID, slot.StartsAt, slot.EndsAt())
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, core.ConflictError("slot overlaps another session")
	}

	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *Service) Get(ctx context.Context, id, userID, role string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	visible := role == middleware.RoleAdmin ||
		sess.TrainerID == userID ||
		sess.BookedBy(userID) ||
		sess.Status == StatusAvailable
	if !visible {
		return nil, fmt.Errorf("get session: %w", core.ErrNotFound)
	}
	return sess, nil
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Session, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) ListOpen(ctx context.Context, params ListParams) ([]Session, int, error) {
	return s.repo.ListOpen(ctx, params)
}

func (s *Service) Book(ctx context.Context, id, userID, role string) (*Session, error) {
	if role != middleware.RoleClient {
		return nil, core.ForbiddenError("only clients can book sessions")
	}

	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusAvailable || !sess.StartsAt.After(s.now()) {
		return nil, errSlotTaken
	}

	return s.repo.Book(ctx, id, userID)
}

// Cancel lets the booked client give the slot back, or the trainer cancel
// it outright. The client's credit is refunded only when the session starts
// more than the refund window from now.
func (s *Service) Cancel(ctx context.Context, id, userID, role string) (*Session, bool, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	switch {
	case sess.TrainerID == userID || role == middleware.RoleAdmin:
		return s.repo.Cancel(ctx, id, s.now(), s.cfg.RefundWindow)

	case sess.BookedBy(userID):
		// The update only matches while this client holds the booking.
		refund := sess.Refundable(s.now(), s.cfg.RefundWindow)
		out, err := s.repo.Release(ctx, id, userID, refund)
		return out, refund && err == nil, err
	}

	return nil, false, fmt.Errorf("cancel session: %w", core.ErrNotFound)
}

func (s *Service) Complete(ctx context.Context, id, userID, role string) (*Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if sess.TrainerID != userID && role != middleware.RoleAdmin {
		return nil, core.ForbiddenError("only the session's trainer can complete it")
	}
	if sess.Status != StatusBooked || sess.ClientID == nil {
		return nil, errNotBooked
	}
	if sess.StartsAt.After(s.now()) {
		return nil, core.ConflictError("session has not started yet")
	}

	event, err := events.New(events.TypeSessionCompleted, sess.ID, *sess.ClientID, events.SessionCompleted{
		SessionID:       sess.ID,
		ClientID:        *sess.ClientID,
		TrainerID:       sess.TrainerID,
		StartsAt:        sess.StartsAt,
		DurationMinutes: sess.DurationMinutes,
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Complete(ctx, id, event)
}

func (s *Service) Credits(ctx context.Context, userID string) (int, error) {
	return s.repo.CreditBalance(ctx, userID)
}
