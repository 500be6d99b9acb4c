// Package reveal drives one scratch interaction: Idle and Scratching
// alternate until the cleared share of the surface crosses the threshold,
// after which the controller is Completed for good.
package reveal

import "scratchcard/internal/models"

// Defaults taken from the published widget.
const (
	DefaultThreshold   = 0.70
	DefaultBrushRadius = 30
)

// State is the phase of a scratch interaction.
type State int

const (
	Idle State = iota
	Scratching
	Completed
)

// String returns the lower-case state name used in snapshots.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scratching:
		return "scratching"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Surface is the part of the coverage tracker the controller drives.
type Surface interface {
	Clear(center models.Point, radius float64)
	ClearedFraction() float64
	RevealAll()
}

// Controller applies scratch input to a surface and completes the reveal
// once the cleared share reaches the threshold.
type Controller struct {
	surface   Surface
	prize     models.PrizeEntry
	threshold float64
	radius    float64
	state     State

	onComplete func(models.PrizeEntry)
	onProgress func(float64)
}

// Option configures a Controller.
type Option func(*Controller)

// WithThreshold sets the cleared fraction, in [0,1], that completes the
// reveal.
func WithThreshold(f float64) Option {
	return func(c *Controller) { c.threshold = f }
}

// WithBrushRadius sets the radius cleared around each scratch point.
func WithBrushRadius(r float64) Option {
	return func(c *Controller) { c.radius = r }
}

// OnComplete registers the hand-off to presentation. It runs exactly once.
func OnComplete(fn func(models.PrizeEntry)) Option {
	return func(c *Controller) { c.onComplete = fn }
}

// OnProgress registers a listener for the cleared fraction after each
// scratch.
func OnProgress(fn func(float64)) Option {
	return func(c *Controller) { c.onProgress = fn }
}

// New creates an Idle controller over surface hiding prize.
func New(surface Surface, prize models.PrizeEntry, opts ...Option) *Controller {
	c := &Controller{
		surface:   surface,
		prize:     prize,
		threshold: DefaultThreshold,
		radius:    DefaultBrushRadius,
		state:     Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Completed reports whether the prize has been revealed.
func (c *Controller) Completed() bool { return c.state == Completed }

// Prize returns the hidden prize.
func (c *Controller) Prize() models.PrizeEntry { return c.prize }

// Start begins a stroke and scratches at p.
func (c *Controller) Start(p models.Point) {
	if c.state == Completed {
		return
	}
	c.state = Scratching
	c.scratch(p)
}

// Continue scratches at p while a stroke is in progress.
func (c *Controller) Continue(p models.Point) {
	if c.state != Scratching {
		return
	}
	c.scratch(p)
}

// Stop ends the current stroke. Cleared units stay cleared.
func (c *Controller) Stop() {
	if c.state == Scratching {
		c.state = Idle
	}
}

// ForceReveal completes the reveal regardless of the cleared fraction.
func (c *Controller) ForceReveal() {
	c.complete()
}

func (c *Controller) scratch(p models.Point) {
	c.surface.Clear(p, c.radius)

	fraction := c.surface.ClearedFraction()
	if c.onProgress != nil {
		c.onProgress(fraction)
	}
	if fraction >= c.threshold {
		c.complete()
	}
}

func (c *Controller) complete() {
	if c.state == Completed {
		return
	}
	// Set before notifying so a re-entrant ForceReveal is a no-op.
	c.state = Completed
	c.surface.RevealAll()
	if c.onComplete != nil {
		c.onComplete(c.prize)
	}
}
