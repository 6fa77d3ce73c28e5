package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/conorfennell/lingodeck/internal/domain"
)

// Tracker remembers how far each user has got through each set.
type Tracker struct {
	store PositionStore
}

// NewTracker returns a Tracker backed by store.
func NewTracker(store PositionStore) *Tracker {
	return &Tracker{store: store}
}

func checkSet(id domain.Identity, setID string) error {
	if id.IsZero() {
		return domain.ErrUnauthorized
	}
	if strings.TrimSpace(setID) == "" {
		return fmt.Errorf("%w: set_id is required", domain.ErrInvalidInput)
	}
	return nil
}

// SetIndex stores index as the caller's position in setID. Bounds against
// the deck are the caller's concern; only negative values are rejected.
func (t *Tracker) SetIndex(ctx context.Context, id domain.Identity, setID string, index int) error {
	if err := checkSet(id, setID); err != nil {
		return err
	}
	if index < 0 {
		return fmt.Errorf("%w: index must not be negative", domain.ErrInvalidInput)
	}
	return t.store.SetPosition(ctx, id.UserID, setID, index)
}

// ResetIndex moves the caller back to the start of setID. It succeeds
// without writing anything when no position was stored.
func (t *Tracker) ResetIndex(ctx context.Context, id domain.Identity, setID string) error {
	if err := checkSet(id, setID); err != nil {
		return err
	}
	return t.store.ResetPosition(ctx, id.UserID, setID)
}

// GetIndex returns the caller's stored position in setID, or 0.
func (t *Tracker) GetIndex(ctx context.Context, id domain.Identity, setID string) (int, error) {
	if err := checkSet(id, setID); err != nil {
		return 0, err
	}
	pos, err := t.store.FindPosition(ctx, id.UserID, setID)
	if err != nil {
		return 0, err
	}
	if pos == nil {
		return 0, nil
	}
	return pos.CurrentIndex, nil
}

// CurrentIndex is GetIndex clamped to a deck of deckLen cards: a stored
// position outside [0, deckLen) reads as 0. Decks can shrink between
// sessions because the catalog is reloaded.
func (t *Tracker) CurrentIndex(ctx context.Context, id domain.Identity, setID string, deckLen int) (int, error) {
	index, err := t.GetIndex(ctx, id, setID)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= deckLen {
		return 0, nil
	}
	return index, nil
}
