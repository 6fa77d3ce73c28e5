package storage

import (
	"context"
	"fmt"

	"github.com/conorfennell/lingodeck/internal/domain"
)

// SetPosition stores the user's current index in a set.
func (db *DB) SetPosition(ctx context.Context, userID int64, setID string, index int) error {
	_, err := db.conn.ExecContext(ctx, db.conn.Rebind(`
		INSERT INTO study_positions (user_id, set_id, current_index)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, set_id)
		DO UPDATE SET current_index = excluded.current_index
	`), userID, setID, index)
	if err != nil {
		return fmt.Errorf("failed to set position for user %d set %s: %w", userID, setID, err)
	}
	return nil
}

// ResetPosition moves an existing position back to zero. A missing row is
// left missing.
func (db *DB) ResetPosition(ctx context.Context, userID int64, setID string) error {
	_, err := db.conn.ExecContext(ctx, db.conn.Rebind(`
		UPDATE study_positions
		SET current_index = 0
		WHERE user_id = ? AND set_id = ?
	`), userID, setID)
	if err != nil {
		return fmt.Errorf("failed to reset position for user %d set %s: %w", userID, setID, err)
	}
	return nil
}

// FindPosition retrieves the user's position in a set, or nil if there is none.
func (db *DB) FindPosition(ctx context.Context, userID int64, setID string) (*domain.StudyPosition, error) {
	var rows []struct {
		UserID       int64  `db:"user_id"`
		SetID        string `db:"set_id"`
		CurrentIndex int    `db:"current_index"`
	}
	err := db.conn.SelectContext(ctx, &rows, db.conn.Rebind(`
		SELECT user_id, set_id, current_index
		FROM study_positions
		WHERE user_id = ? AND set_id = ?
	`), userID, setID)
	if err != nil {
		return nil, fmt.Errorf("failed to find position for user %d set %s: %w", userID, setID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &domain.StudyPosition{
		UserID:       rows[0].UserID,
		SetID:        rows[0].SetID,
		CurrentIndex: rows[0].CurrentIndex,
	}, nil
}
