// Package review implements the study loop: recording ratings, selecting
// due cards and tracking each user's position in a deck.
//
// Nothing here caches user state between calls; every operation re-reads
// the store, and the due selector reloads the catalog through its Provider.
package review

import (
	"context"
	"time"

	"github.com/conorfennell/lingodeck/internal/domain"
)

// ScheduleStore persists per-user card schedules.
type ScheduleStore interface {
	UpsertSchedule(ctx context.Context, userID int64, cardID string, nextReviewAt time.Time) error
	DueSchedule(ctx context.Context, userID int64, now time.Time) ([]domain.ScheduleEntry, error)
}

// PositionStore persists per-user deck positions.
type PositionStore interface {
	SetPosition(ctx context.Context, userID int64, setID string, index int) error
	ResetPosition(ctx context.Context, userID int64, setID string) error
	FindPosition(ctx context.Context, userID int64, setID string) (*domain.StudyPosition, error)
}
