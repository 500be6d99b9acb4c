package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/logger"

	"scratchcard/internal/coverage"
	"scratchcard/internal/models"
	"scratchcard/internal/playgate"
	"scratchcard/internal/prize"
	"scratchcard/internal/reveal"
	"scratchcard/internal/storage"
)

// Snapshot states beyond the reveal controller's own.
const (
	StateNone          = "none"
	StateAlreadyPlayed = "already_played"
)

// Options configures every session the service starts.
type Options struct {
	StorageKey      string
	SurfaceWidth    int
	SurfaceHeight   int
	BrushSize       float64
	MobileBrushSize float64
	// Threshold is the cleared fraction in [0,1] that completes a reveal.
	Threshold float64
	Location  *time.Location
	Clock     func() time.Time
}

// DefaultOptions mirrors the published widget: 300x200 surface, brush 30
// (40 on mobile), reveal at 70%.
func DefaultOptions() Options {
	return Options{
		StorageKey:      "snackfly_scratch_game",
		SurfaceWidth:    300,
		SurfaceHeight:   200,
		BrushSize:       reveal.DefaultBrushRadius,
		MobileBrushSize: 40,
		Threshold:       reveal.DefaultThreshold,
		Location:        time.Local,
		Clock:           time.Now,
	}
}

// ScratchSession holds the data for a single client's play. Its mutex
// serializes that client's events; the service lock only guards the map.
type ScratchSession struct {
	ClientID string
	Prize    models.PrizeEntry

	mu           sync.Mutex
	lastActivity atomic.Int64 // unix nanoseconds
	done         atomic.Bool

	tracker    *coverage.Tracker
	controller *reveal.Controller
	gate       *playgate.Gate
	recorder   *EventRecorder
	notify     Collaborators

	// record caches the persisted play record so pointer events need no
	// storage read. It is loaded at start and replaced when the play is
	// recorded.
	record models.PlayRecord
	found  bool

	// completion is set by the controller and settled once by the service.
	completion *models.PrizeEntry
	settled    bool
}

// LastActivity returns when the client last touched the session.
func (ss *ScratchSession) LastActivity() time.Time {
	return time.Unix(0, ss.lastActivity.Load())
}

func (ss *ScratchSession) touch(now time.Time) {
	ss.lastActivity.Store(now.UnixNano())
}

// Snapshot is what the presentation layer sees after each interaction.
type Snapshot struct {
	ClientID   string             `json:"clientId"`
	State      string             `json:"state"`
	Fraction   float64            `json:"fraction"`
	CanPlay    bool               `json:"canPlay"`
	TotalPlays int                `json:"totalPlays"`
	Prize      *models.PrizeEntry `json:"prize,omitempty"`
	Events     []models.Event     `json:"events"`
}

// ScratchService manages one scratch session per client.
type ScratchService struct {
	mu          sync.Mutex
	sessions    map[string]*ScratchSession // Key: clientID
	subscribers []func(clientID string) Collaborator

	store    storage.Store
	selector *prize.Selector
	opts     Options
}

// NewScratchService creates and initializes a new ScratchService.
func NewScratchService(store storage.Store, selector *prize.Selector, opts Options) *ScratchService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &ScratchService{
		sessions: make(map[string]*ScratchSession),
		store:    store,
		selector: selector,
		opts:     opts,
	}
}

// Subscribe adds a collaborator factory. Each new session gets its own
// collaborator from every factory.
func (s *ScratchService) Subscribe(fn func(clientID string) Collaborator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Gate returns the play gate of a client.
func (s *ScratchService) Gate(clientID string) *playgate.Gate {
	key := s.opts.StorageKey
	if clientID != "" {
		key = key + ":" + clientID
	}
	return playgate.New(s.store, key,
		playgate.WithClock(s.opts.Clock),
		playgate.WithLocation(s.opts.Location),
	)
}

func (s *ScratchService) collaborators(clientID string, recorder *EventRecorder) Collaborators {
	s.mu.Lock()
	factories := s.subscribers
	s.mu.Unlock()

	cs := Collaborators{recorder, LogCollaborator{ClientID: clientID}}
	for _, fn := range factories {
		cs = append(cs, fn(clientID))
	}
	return cs
}

func (s *ScratchService) session(clientID string) (*ScratchSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[clientID]
	return session, ok
}

// liveSession returns the client's unfinished session and drops a finished
// one.
func (s *ScratchService) liveSession(clientID string) (*ScratchSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[clientID]
	if !ok {
		return nil, false
	}
	if session.done.Load() {
		delete(s.sessions, clientID)
		return nil, false
	}
	return session, true
}

// Start opens a session for a client. A client that already played today
// gets an already-played notification and no session. A live, unfinished
// session is resumed as is.
func (s *ScratchService) Start(ctx context.Context, clientID string, mobile bool) (Snapshot, error) {
	if session, ok := s.liveSession(clientID); ok {
		return s.resume(session), nil
	}

	gate := s.Gate(clientID)
	recorder := &EventRecorder{}
	notify := s.collaborators(clientID, recorder)

	record, found := gate.Record(ctx)
	if !gate.Admits(record, found) {
		notify.OnAlreadyPlayed(record.TotalPlays)
		return Snapshot{
			ClientID:   clientID,
			State:      StateAlreadyPlayed,
			TotalPlays: record.TotalPlays,
			Events:     recorder.Drain(),
		}, nil
	}

	tracker, err := coverage.New(s.opts.SurfaceWidth, s.opts.SurfaceHeight)
	if err != nil {
		notify.OnError(err)
		return Snapshot{
			ClientID:   clientID,
			State:      StateNone,
			CanPlay:    true,
			TotalPlays: record.TotalPlays,
			Events:     recorder.Drain(),
		}, fmt.Errorf("start session: %w", err)
	}

	brush := s.opts.BrushSize
	if mobile && s.opts.MobileBrushSize > 0 {
		brush = s.opts.MobileBrushSize
	}

	session := &ScratchSession{
		ClientID: clientID,
		Prize:    s.selector.Select(),
		tracker:  tracker,
		gate:     gate,
		recorder: recorder,
		notify:   notify,
		record:   record,
		found:    found,
	}
	session.touch(s.opts.Clock())
	session.controller = reveal.New(tracker, session.Prize,
		reveal.WithThreshold(s.opts.Threshold),
		reveal.WithBrushRadius(brush),
		reveal.OnProgress(notify.OnScratchProgress),
		reveal.OnComplete(func(p models.PrizeEntry) {
			session.completion = &p
			session.done.Store(true)
		}),
	)

	// Hold the new session until its prize is announced so no pointer
	// event overtakes the assignment.
	session.mu.Lock()
	s.mu.Lock()
	if existing, ok := s.sessions[clientID]; ok && !existing.done.Load() {
		// A concurrent start for the same client won.
		s.mu.Unlock()
		session.mu.Unlock()
		return s.resume(existing), nil
	}
	s.sessions[clientID] = session
	s.mu.Unlock()

	notify.OnPrizeAssigned(session.Prize)
	snap := s.snapshot(session)
	session.mu.Unlock()
	return snap, nil
}

func (s *ScratchService) resume(session *ScratchSession) Snapshot {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.touch(s.opts.Clock())
	return s.snapshot(session)
}

// PointerDown starts a stroke at p.
func (s *ScratchService) PointerDown(ctx context.Context, clientID string, p models.Point) (Snapshot, error) {
	return s.drive(ctx, clientID, func(c *reveal.Controller) { c.Start(p) })
}

// PointerMove continues the stroke at p.
func (s *ScratchService) PointerMove(ctx context.Context, clientID string, p models.Point) (Snapshot, error) {
	return s.drive(ctx, clientID, func(c *reveal.Controller) { c.Continue(p) })
}

// PointerUp ends the stroke.
func (s *ScratchService) PointerUp(ctx context.Context, clientID string) (Snapshot, error) {
	return s.drive(ctx, clientID, func(c *reveal.Controller) { c.Stop() })
}

// PointerLeave ends the stroke when the pointer leaves the surface.
func (s *ScratchService) PointerLeave(ctx context.Context, clientID string) (Snapshot, error) {
	return s.drive(ctx, clientID, func(c *reveal.Controller) { c.Stop() })
}

// Reveal completes the session without reaching the threshold.
func (s *ScratchService) Reveal(ctx context.Context, clientID string) (Snapshot, error) {
	return s.drive(ctx, clientID, func(c *reveal.Controller) { c.ForceReveal() })
}

func (s *ScratchService) drive(ctx context.Context, clientID string, fn func(*reveal.Controller)) (Snapshot, error) {
	session, ok := s.session(clientID)
	if !ok {
		return Snapshot{}, models.ErrSessionNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.touch(s.opts.Clock())

	fn(session.controller)
	s.settle(ctx, session)

	return s.snapshot(session), nil
}

// settle records the play and hands the prize to collaborators, once.
func (s *ScratchService) settle(ctx context.Context, session *ScratchSession) {
	if session.completion == nil || session.settled {
		return
	}
	session.settled = true

	rec, err := session.gate.Play(ctx)
	if err != nil {
		session.notify.OnError(err)
	} else {
		session.record, session.found = rec, true
	}
	session.notify.OnComplete(*session.completion)
}

// Status reports the client's session, or its gate state when none is live.
func (s *ScratchService) Status(ctx context.Context, clientID string) Snapshot {
	if session, ok := s.session(clientID); ok {
		session.mu.Lock()
		defer session.mu.Unlock()
		return s.snapshot(session)
	}

	gate := s.Gate(clientID)
	record, found := gate.Record(ctx)
	snap := Snapshot{
		ClientID:   clientID,
		State:      StateNone,
		CanPlay:    gate.Admits(record, found),
		TotalPlays: record.TotalPlays,
		Events:     []models.Event{},
	}
	if !snap.CanPlay {
		snap.State = StateAlreadyPlayed
	}
	return snap
}

// snapshot reads only in-memory state. The caller holds session.mu.
func (s *ScratchService) snapshot(session *ScratchSession) Snapshot {
	p := session.Prize
	return Snapshot{
		ClientID:   session.ClientID,
		State:      session.controller.State().String(),
		Fraction:   session.tracker.ClearedFraction(),
		CanPlay:    session.gate.Admits(session.record, session.found),
		TotalPlays: session.record.TotalPlays,
		Prize:      &p,
		Events:     session.recorder.Drain(),
	}
}

// Reset deletes the client's play record and drops any live session.
func (s *ScratchService) Reset(ctx context.Context, clientID string) error {
	s.ClearSession(clientID)
	return s.Gate(clientID).Reset(ctx)
}

// CleanUpInactiveSessions removes sessions idle for longer than ttl and
// returns how many were removed.
func (s *ScratchService) CleanUpInactiveSessions(ttl time.Duration) int {
	now := s.opts.Clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for clientID, session := range s.sessions {
		if now.Sub(session.LastActivity()) > ttl {
			delete(s.sessions, clientID)
			removed++
		}
	}
	return removed
}

// ClearSession removes the live session of a client.
func (s *ScratchService) ClearSession(clientID string) {
	s.mu.Lock()
	delete(s.sessions, clientID)
	s.mu.Unlock()
	logger.Infof("Cleared session for client: %s", clientID)
}
