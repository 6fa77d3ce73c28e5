package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/conorfennell/lingodeck/internal/domain"
	"github.com/conorfennell/lingodeck/internal/knol"
	"github.com/conorfennell/lingodeck/internal/parser"
)

// FileProvider reads the catalog from a .json file, a .md file or a
// directory containing either.
//
// With a zero TTL every Load re-reads the source. A positive TTL reuses the
// last successful load until it is older than TTL.
type FileProvider struct {
	path string
	ttl  time.Duration
	log  *slog.Logger
	now  func() time.Time

	mu       sync.Mutex
	cached   *Catalog
	loadedAt time.Time
}

// NewFileProvider returns a provider for path.
func NewFileProvider(path string, ttl time.Duration, log *slog.Logger) *FileProvider {
	if log == nil {
		log = slog.Default()
	}
	return &FileProvider{
		path: path,
		ttl:  ttl,
		log:  log,
		now:  time.Now,
	}
}

// Load implements Provider.
func (p *FileProvider) Load(ctx context.Context) *Catalog {
	if p.ttl > 0 {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.cached != nil && p.now().Sub(p.loadedAt) < p.ttl {
			return p.cached
		}
	}

	c, skipped, err := LoadPath(p.path)
	for _, e := range skipped {
		p.log.WarnContext(ctx, "skipping catalog file", "error", e)
	}
	if err != nil {
		p.log.ErrorContext(ctx, "catalog unavailable, serving empty catalog", "path", p.path, "error", err)
		return Empty()
	}

	if p.ttl > 0 {
		p.cached = c
		p.loadedAt = p.now()
	}
	return c
}

// Invalidate drops the cached catalog so the next Load reads the source.
func (p *FileProvider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
}

type catalogFile struct {
	Sets   []domain.Set   `json:"sets"`
	Topics []domain.Topic `json:"topics"`
}

// LoadPath reads a catalog from path. A missing path wraps
// domain.ErrNotFound; unparseable content wraps domain.ErrMalformed.
//
// When path is a directory, files that fail to load are skipped and
// returned in skipped; the walk only fails if no file could be read.
func LoadPath(path string) (c *Catalog, skipped []error, err error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("catalog %s: %w", path, domain.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("stat catalog %s: %w", path, err)
	}

	var m merger
	if !info.IsDir() {
		if err := m.addFile(path); err != nil {
			return nil, nil, err
		}
		return m.catalog(), nil, nil
	}

	loaded := 0
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isCatalogFile(p) {
			return nil
		}
		if err := m.addFile(p); err != nil {
			skipped = append(skipped, err)
			return nil
		}
		loaded++
		return nil
	})
	if err != nil {
		return nil, skipped, fmt.Errorf("walk catalog %s: %w", path, err)
	}
	if loaded == 0 && len(skipped) > 0 {
		return nil, skipped, fmt.Errorf("catalog %s: no readable files: %w", path, errors.Join(skipped...))
	}
	return m.catalog(), skipped, nil
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".md":
		return true
	}
	return false
}

// merger accumulates sets from several files, appending cards to a set
// that was already seen under the same id.
type merger struct {
	sets   []domain.Set
	index  map[string]int
	topics []domain.Topic
}

func (m *merger) addFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return m.addJSON(path)
	case ".md":
		return m.addMarkdown(path)
	default:
		return nil
	}
}

func (m *merger) addJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog %s: %w", path, err)
	}

	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("catalog %s: %w: %v", path, domain.ErrMalformed, err)
	}

	for _, set := range f.Sets {
		if set.ID == "" {
			return fmt.Errorf("catalog %s: %w: set without id", path, domain.ErrMalformed)
		}
	}
	for _, set := range f.Sets {
		m.addSet(set)
	}
	m.topics = append(m.topics, f.Topics...)
	return nil
}

func (m *merger) addMarkdown(path string) error {
	cards, err := parser.ParseFile(path)
	if err != nil {
		return fmt.Errorf("catalog %s: %w: %v", path, domain.ErrMalformed, err)
	}
	if len(cards) == 0 {
		return nil
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m.addSet(domain.Set{ID: id, Name: id, Cards: cards})
	return nil
}

func (m *merger) addSet(set domain.Set) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if set.Name == "" {
		set.Name = set.ID
	}
	cards := make([]domain.Card, 0, len(set.Cards))
	for _, card := range set.Cards {
		card.SetID = set.ID
		if card.ID == "" {
			card.ID = knol.ID(card)
		}
		cards = append(cards, card)
	}

	if i, ok := m.index[set.ID]; ok {
		m.sets[i].Cards = append(m.sets[i].Cards, cards...)
		return
	}
	set.Cards = cards
	m.index[set.ID] = len(m.sets)
	m.sets = append(m.sets, set)
}

func (m *merger) catalog() *Catalog {
	return New(m.sets, m.topics)
}
