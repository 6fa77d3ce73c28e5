package review

import (
	"context"
	"log/slog"
	"time"

	"github.com/conorfennell/lingodeck/internal/catalog"
	"github.com/conorfennell/lingodeck/internal/domain"
)

// Selector lists the cards a user should review now.
type Selector struct {
	store   ScheduleStore
	catalog catalog.Provider
	log     *slog.Logger
}

// NewSelector returns a Selector joining store rows against provider.
func NewSelector(store ScheduleStore, provider catalog.Provider, log *slog.Logger) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{store: store, catalog: provider, log: log}
}

// DueCards returns the caller's cards whose next review is at or before now,
// in the order their schedule entries were created. Entries whose card is no
// longer in the catalog are skipped.
func (s *Selector) DueCards(ctx context.Context, id domain.Identity, now time.Time) ([]domain.Card, error) {
	if id.IsZero() {
		return nil, domain.ErrUnauthorized
	}

	cat := s.catalog.Load(ctx)

	entries, err := s.store.DueSchedule(ctx, id.UserID, now)
	if err != nil {
		return nil, err
	}

	cards := make([]domain.Card, 0, len(entries))
	var missing int
	for _, e := range entries {
		card, ok := cat.Lookup(e.CardID)
		if !ok {
			missing++
			continue
		}
		cards = append(cards, card)
	}

	if missing > 0 {
		s.log.DebugContext(ctx, "due entries without catalog card", "user_id", id.UserID, "skipped", missing)
	}
	return cards, nil
}
