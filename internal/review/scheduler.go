package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/conorfennell/lingodeck/internal/domain"
	"github.com/conorfennell/lingodeck/internal/srs"
)

// Scheduler records ratings and moves cards out of the due set.
type Scheduler struct {
	store ScheduleStore
	log   *slog.Logger
}

// NewScheduler returns a Scheduler writing to store.
func NewScheduler(store ScheduleStore, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{store: store, log: log}
}

// RecordRating schedules cardID for the caller according to rating and
// returns the new due time. The card is not checked against the catalog.
// An unrecognised rating makes the card due at now.
//
// Concurrent ratings of the same card by the same user are not serialised;
// the last write wins.
func (s *Scheduler) RecordRating(ctx context.Context, id domain.Identity, cardID, rating string, now time.Time) (time.Time, error) {
	if id.IsZero() {
		return time.Time{}, domain.ErrUnauthorized
	}
	if strings.TrimSpace(cardID) == "" {
		return time.Time{}, fmt.Errorf("%w: card_id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(rating) == "" {
		return time.Time{}, fmt.Errorf("%w: rating is required", domain.ErrInvalidInput)
	}

	r := srs.ParseRating(rating)
	if r == srs.Unknown {
		s.log.WarnContext(ctx, "unrecognised rating, card due immediately", "user_id", id.UserID, "card_id", cardID, "rating", rating)
	}

	next := srs.NextReview(now, r)
	if err := s.store.UpsertSchedule(ctx, id.UserID, cardID, next); err != nil {
		return time.Time{}, err
	}

	s.log.DebugContext(ctx, "rating recorded", "user_id", id.UserID, "card_id", cardID, "rating", r.String(), "next_review_at", next)
	return next, nil
}
