package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/conorfennell/lingodeck/internal/domain"
)

type scheduleRow struct {
	ID           int64  `db:"id"`
	UserID       int64  `db:"user_id"`
	CardID       string `db:"card_id"`
	NextReviewAt int64  `db:"next_review_at"`
}

func (r scheduleRow) entry() domain.ScheduleEntry {
	return domain.ScheduleEntry{
		ID:           r.ID,
		UserID:       r.UserID,
		CardID:       r.CardID,
		NextReviewAt: fromUnix(r.NextReviewAt),
	}
}

// UpsertSchedule sets when userID should next review cardID, inserting the
// entry on first rating.
func (db *DB) UpsertSchedule(ctx context.Context, userID int64, cardID string, nextReviewAt time.Time) error {
	_, err := db.conn.ExecContext(ctx, db.conn.Rebind(`
		INSERT INTO schedule_entries (user_id, card_id, next_review_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, card_id)
		DO UPDATE SET next_review_at = excluded.next_review_at
	`), userID, cardID, toUnix(nextReviewAt))
	if err != nil {
		return fmt.Errorf("failed to upsert schedule for user %d card %s: %w", userID, cardID, err)
	}
	return nil
}

// FindSchedule retrieves the schedule entry for a user and card.
// It returns nil if the card was never rated.
func (db *DB) FindSchedule(ctx context.Context, userID int64, cardID string) (*domain.ScheduleEntry, error) {
	var rows []scheduleRow
	err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(`
		SELECT id, user_id, card_id, next_review_at
		FROM schedule_entries
		WHERE user_id = ? AND card_id = ?
	`), userID, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to find schedule for user %d card %s: %w", userID, cardID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	e := rows[0].entry()
	return &e, nil
}

// DueSchedule lists the user's entries with next_review_at at or before now,
// in the order they were first created.
func (db *DB) DueSchedule(ctx context.Context, userID int64, now time.Time) ([]domain.ScheduleEntry, error) {
	var rows []scheduleRow
	err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(`
		SELECT id, user_id, card_id, next_review_at
		FROM schedule_entries
		WHERE user_id = ? AND next_review_at <= ?
		ORDER BY id
	`), userID, toUnix(now))
	if err != nil {
		return nil, fmt.Errorf("failed to get due schedule for user %d: %w", userID, err)
	}

	entries := make([]domain.ScheduleEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.entry())
	}
	return entries, nil
}
