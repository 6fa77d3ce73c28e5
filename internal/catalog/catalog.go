// Package catalog loads the read-only vocabulary and video catalog.
//
// The catalog is owned by whoever edits its files, not by this service, so
// a Provider is expected to hand back fresh content on every call unless a
// cache TTL says otherwise.
package catalog

import (
	"context"

	"github.com/conorfennell/lingodeck/internal/domain"
)

// Provider returns the current catalog. Load never fails: sources that are
// missing or unreadable yield an empty catalog.
type Provider interface {
	Load(ctx context.Context) *Catalog
}

// Catalog is an immutable snapshot of sets and topics with a card index.
type Catalog struct {
	Sets   []domain.Set
	Topics []domain.Topic

	cards map[string]domain.Card
	sets  map[string]int
}

// New builds a catalog snapshot. When two cards share an id the first wins.
func New(sets []domain.Set, topics []domain.Topic) *Catalog {
	c := &Catalog{
		Sets:   sets,
		Topics: topics,
		cards:  make(map[string]domain.Card),
		sets:   make(map[string]int, len(sets)),
	}
	for i, set := range sets {
		c.sets[set.ID] = i
		for _, card := range set.Cards {
			if _, seen := c.cards[card.ID]; !seen {
				c.cards[card.ID] = card
			}
		}
	}
	return c
}

// Empty returns a catalog with no sets and no topics.
func Empty() *Catalog {
	return New(nil, nil)
}

// Lookup returns the card with the given id.
func (c *Catalog) Lookup(id string) (domain.Card, bool) {
	card, ok := c.cards[id]
	return card, ok
}

// Set returns the set with the given id.
func (c *Catalog) Set(id string) (domain.Set, bool) {
	i, ok := c.sets[id]
	if !ok {
		return domain.Set{}, false
	}
	return c.Sets[i], true
}

// Len returns the number of distinct cards.
func (c *Catalog) Len() int {
	return len(c.cards)
}
