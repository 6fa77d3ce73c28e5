package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/lingodeck/internal/catalog"
	"github.com/conorfennell/lingodeck/internal/domain"
	"github.com/conorfennell/lingodeck/internal/storage"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// staticProvider serves whatever catalog the test last assigned.
type staticProvider struct {
	cat   *catalog.Catalog
	loads int
}

func (p *staticProvider) Load(context.Context) *catalog.Catalog {
	p.loads++
	return p.cat
}

func deck(ids ...string) *catalog.Catalog {
	cards := make([]domain.Card, 0, len(ids))
	for _, id := range ids {
		cards = append(cards, domain.Card{ID: id, SetID: "basics", Term: "term " + id})
	}
	return catalog.New([]domain.Set{{ID: "basics", Cards: cards}}, nil)
}

type fixture struct {
	db        *storage.DB
	provider  *staticProvider
	scheduler *Scheduler
	selector  *Selector
	tracker   *Tracker
	user      domain.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "review.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	userID, err := db.CreateUser(context.Background(), "alice", "hash", t0)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := &staticProvider{cat: deck("7", "42", "99")}
	return &fixture{
		db:        db,
		provider:  provider,
		scheduler: NewScheduler(db, log),
		selector:  NewSelector(db, provider, log),
		tracker:   NewTracker(db),
		user:      domain.Identity{UserID: userID, Username: "alice"},
	}
}

func cardIDs(cards []domain.Card) []string {
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestRecordRating_DelayTable(t *testing.T) {
	tests := []struct {
		rating string
		delay  time.Duration
	}{
		{"again", 10 * time.Minute},
		{"hard", 24 * time.Hour},
		{"good", 3 * 24 * time.Hour},
		{"easy", 5 * 24 * time.Hour},
		{"khó", 24 * time.Hour},
		{"whatever", 0},
	}
	for _, tt := range tests {
		t.Run(tt.rating, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			next, err := f.scheduler.RecordRating(ctx, f.user, "42", tt.rating, t0)
			require.NoError(t, err)
			assert.True(t, next.Equal(t0.Add(tt.delay)), "got %v", next)

			entry, err := f.db.FindSchedule(ctx, f.user.UserID, "42")
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.True(t, entry.NextReviewAt.Equal(next))
		})
	}
}

func TestRecordRating_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		id      domain.Identity
		cardID  string
		rating  string
		wantErr error
	}{
		{"no identity", domain.Identity{}, "42", "good", domain.ErrUnauthorized},
		{"missing card", f.user, "", "good", domain.ErrInvalidInput},
		{"blank card", f.user, "   ", "good", domain.ErrInvalidInput},
		{"missing rating", f.user, "42", "", domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.scheduler.RecordRating(ctx, tt.id, tt.cardID, tt.rating, t0)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRecordRating_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.scheduler.RecordRating(ctx, f.user, "42", "good", t0)
	require.NoError(t, err)
	second, err := f.scheduler.RecordRating(ctx, f.user, "42", "good", t0)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))

	due, err := f.selector.DueCards(ctx, f.user, t0.Add(100*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, cardIDs(due), "expected a single schedule row")
}

func TestRecordRating_UnknownCardAccepted(t *testing.T) {
	f := newFixture(t)

	_, err := f.scheduler.RecordRating(context.Background(), f.user, "not-in-catalog", "easy", t0)
	require.NoError(t, err)
}

func TestDueCards_HardScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.scheduler.RecordRating(ctx, f.user, "42", "hard", t0)
	require.NoError(t, err)

	due, err := f.selector.DueCards(ctx, f.user, t0)
	require.NoError(t, err)
	assert.NotContains(t, cardIDs(due), "42")

	due, err = f.selector.DueCards(ctx, f.user, t0.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Contains(t, cardIDs(due), "42")
}

func TestDueCards_AgainScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.scheduler.RecordRating(ctx, f.user, "7", "again", t0)
	require.NoError(t, err)

	due, err := f.selector.DueCards(ctx, f.user, t0.Add(9*time.Minute))
	require.NoError(t, err)
	assert.NotContains(t, cardIDs(due), "7")

	due, err = f.selector.DueCards(ctx, f.user, t0.Add(11*time.Minute))
	require.NoError(t, err)
	assert.Contains(t, cardIDs(due), "7")
}

func TestDueCards_CardRemovedFromCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.scheduler.RecordRating(ctx, f.user, "42", "hard", t0)
	require.NoError(t, err)
	_, err = f.scheduler.RecordRating(ctx, f.user, "7", "hard", t0)
	require.NoError(t, err)

	f.provider.cat = deck("7", "99")

	due, err := f.selector.DueCards(ctx, f.user, t0.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, cardIDs(due))
}

func TestDueCards_OrderAndIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bobID, err := f.db.CreateUser(ctx, "bob", "hash", t0)
	require.NoError(t, err)
	bob := domain.Identity{UserID: bobID, Username: "bob"}

	for _, id := range []string{"99", "7", "42"} {
		_, err := f.scheduler.RecordRating(ctx, f.user, id, "again", t0)
		require.NoError(t, err)
	}
	_, err = f.scheduler.RecordRating(ctx, bob, "7", "again", t0)
	require.NoError(t, err)

	// Re-rating keeps the original row, so order is by first rating.
	_, err = f.scheduler.RecordRating(ctx, f.user, "99", "again", t0.Add(time.Minute))
	require.NoError(t, err)

	due, err := f.selector.DueCards(ctx, f.user, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"99", "7", "42"}, cardIDs(due))

	due, err = f.selector.DueCards(ctx, bob, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, cardIDs(due))
}

func TestDueCards_ReloadsCatalogEveryCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.selector.DueCards(ctx, f.user, t0)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.provider.loads)
}

func TestDueCards_Unauthorized(t *testing.T) {
	f := newFixture(t)

	_, err := f.selector.DueCards(context.Background(), domain.Identity{}, t0)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestTracker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("defaults to zero", func(t *testing.T) {
		index, err := f.tracker.GetIndex(ctx, f.user, "fresh")
		require.NoError(t, err)
		assert.Equal(t, 0, index)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, f.tracker.SetIndex(ctx, f.user, "basics", 2))
		index, err := f.tracker.GetIndex(ctx, f.user, "basics")
		require.NoError(t, err)
		assert.Equal(t, 2, index)
	})

	t.Run("reset without row", func(t *testing.T) {
		require.NoError(t, f.tracker.ResetIndex(ctx, f.user, "untouched"))
		index, err := f.tracker.GetIndex(ctx, f.user, "untouched")
		require.NoError(t, err)
		assert.Equal(t, 0, index)

		pos, err := f.db.FindPosition(ctx, f.user.UserID, "untouched")
		require.NoError(t, err)
		assert.Nil(t, pos)
	})

	t.Run("reset existing row", func(t *testing.T) {
		require.NoError(t, f.tracker.SetIndex(ctx, f.user, "basics", 4))
		require.NoError(t, f.tracker.ResetIndex(ctx, f.user, "basics"))
		index, err := f.tracker.GetIndex(ctx, f.user, "basics")
		require.NoError(t, err)
		assert.Equal(t, 0, index)
	})

	t.Run("clamps to deck length", func(t *testing.T) {
		require.NoError(t, f.tracker.SetIndex(ctx, f.user, "basics", 5))

		index, err := f.tracker.CurrentIndex(ctx, f.user, "basics", 3)
		require.NoError(t, err)
		assert.Equal(t, 0, index)

		index, err = f.tracker.CurrentIndex(ctx, f.user, "basics", 6)
		require.NoError(t, err)
		assert.Equal(t, 5, index)
	})

	t.Run("invalid input", func(t *testing.T) {
		err := f.tracker.SetIndex(ctx, f.user, "basics", -1)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))

		err = f.tracker.SetIndex(ctx, f.user, "", 1)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))

		_, err = f.tracker.GetIndex(ctx, domain.Identity{}, "basics")
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	})
}
