// Package playgate admits at most one completed play per calendar day per
// client, based on a single persisted record.
//
// The gate compares local calendar dates only. Changing the clock, the time
// zone or wiping the store resets it; it is a promotional limit, not a
// security control.
package playgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/logger"

	"scratchcard/internal/models"
	"scratchcard/internal/storage"
)

// isoLayout matches the millisecond UTC form browsers write.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

type wireRecord struct {
	LastPlayDate string `json:"lastPlayDate"`
	TotalPlays   int    `json:"totalPlays"`
}

// Gate owns one client's PlayRecord and is its only writer.
type Gate struct {
	store storage.Store
	key   string
	now   func() time.Time
	loc   *time.Location
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithLocation sets the zone whose calendar defines "today".
func WithLocation(loc *time.Location) Option {
	return func(g *Gate) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// New creates the gate for the record stored under key.
func New(store storage.Store, key string, opts ...Option) *Gate {
	g := &Gate{
		store: store,
		key:   key,
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Key returns the storage key of the record.
func (g *Gate) Key() string { return g.key }

// Record loads the persisted record. A missing, unreadable or corrupt record
// reports false.
func (g *Gate) Record(ctx context.Context) (models.PlayRecord, bool) {
	raw, err := g.store.Get(ctx, g.key)
	if errors.Is(err, models.ErrRecordNotFound) {
		return models.PlayRecord{}, false
	}
	if err != nil {
		logger.Warningf("playgate: cannot read %s, treating as never played: %v", g.key, err)
		return models.PlayRecord{}, false
	}

	rec, err := decode(raw)
	if err != nil {
		logger.Warningf("playgate: %s, treating as never played: %v", g.key, err)
		return models.PlayRecord{}, false
	}
	return rec, true
}

// CanPlayToday is false iff a record exists whose last play falls on the
// current calendar day.
func (g *Gate) CanPlayToday(ctx context.Context) bool {
	return g.Admits(g.Record(ctx))
}

// Admits applies the daily rule to an already loaded record, so callers
// holding a cached record need no storage read.
func (g *Gate) Admits(rec models.PlayRecord, found bool) bool {
	return !found || !sameDay(rec.LastPlayDate, g.now(), g.loc)
}

// TotalPlays returns 0 when no valid record exists.
func (g *Gate) TotalPlays(ctx context.Context) int {
	rec, ok := g.Record(ctx)
	if !ok {
		return 0
	}
	return rec.TotalPlays
}

// RecordPlay overwrites the record with today's date and one more play.
func (g *Gate) RecordPlay(ctx context.Context) error {
	_, err := g.Play(ctx)
	return err
}

// Play is RecordPlay returning the record it wrote.
func (g *Gate) Play(ctx context.Context) (models.PlayRecord, error) {
	rec := models.PlayRecord{
		LastPlayDate: g.now(),
		TotalPlays:   g.TotalPlays(ctx) + 1,
	}
	raw, err := encode(rec)
	if err != nil {
		return models.PlayRecord{}, fmt.Errorf("encode play record: %w", err)
	}
	if err := g.store.Put(ctx, g.key, raw); err != nil {
		return models.PlayRecord{}, fmt.Errorf("save play record: %w", err)
	}
	logger.Infof("playgate: recorded play %d for %s", rec.TotalPlays, g.key)
	return rec, nil
}

// Reset deletes the record.
func (g *Gate) Reset(ctx context.Context) error {
	if err := g.store.Delete(ctx, g.key); err != nil {
		return fmt.Errorf("delete play record: %w", err)
	}
	logger.Infof("playgate: reset %s", g.key)
	return nil
}

func encode(rec models.PlayRecord) ([]byte, error) {
	return json.Marshal(wireRecord{
		LastPlayDate: rec.LastPlayDate.UTC().Format(isoLayout),
		TotalPlays:   rec.TotalPlays,
	})
}

func decode(raw []byte) (models.PlayRecord, error) {
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return models.PlayRecord{}, fmt.Errorf("%w: %v", models.ErrCorruptRecord, err)
	}
	t, err := time.Parse(time.RFC3339, w.LastPlayDate)
	if err != nil {
		return models.PlayRecord{}, fmt.Errorf("%w: lastPlayDate: %v", models.ErrCorruptRecord, err)
	}
	if w.TotalPlays < 0 {
		return models.PlayRecord{}, fmt.Errorf("%w: negative totalPlays %d", models.ErrCorruptRecord, w.TotalPlays)
	}
	return models.PlayRecord{LastPlayDate: t, TotalPlays: w.TotalPlays}, nil
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
