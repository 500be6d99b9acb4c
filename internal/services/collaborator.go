package services

import (
	"github.com/google/logger"

	"scratchcard/internal/models"
)

// Collaborator receives the notifications the core emits to presentation:
// display, sound, confetti and the like all subscribe here.
type Collaborator interface {
	OnAlreadyPlayed(totalPlays int)
	OnPrizeAssigned(prize models.PrizeEntry)
	OnScratchProgress(fraction float64)
	OnComplete(prize models.PrizeEntry)
	OnError(err error)
}

// Collaborators fans every notification out in order.
type Collaborators []Collaborator

// OnAlreadyPlayed forwards to every collaborator in order.
func (cs Collaborators) OnAlreadyPlayed(totalPlays int) {
	for _, c := range cs {
		c.OnAlreadyPlayed(totalPlays)
	}
}

// OnPrizeAssigned forwards to every collaborator in order.
func (cs Collaborators) OnPrizeAssigned(prize models.PrizeEntry) {
	for _, c := range cs {
		c.OnPrizeAssigned(prize)
	}
}

// OnScratchProgress forwards to every collaborator in order.
func (cs Collaborators) OnScratchProgress(fraction float64) {
	for _, c := range cs {
		c.OnScratchProgress(fraction)
	}
}

// OnComplete forwards to every collaborator in order.
func (cs Collaborators) OnComplete(prize models.PrizeEntry) {
	for _, c := range cs {
		c.OnComplete(prize)
	}
}

// OnError forwards to every collaborator in order.
func (cs Collaborators) OnError(err error) {
	for _, c := range cs {
		c.OnError(err)
	}
}

// LogCollaborator writes every notification to the log.
type LogCollaborator struct {
	ClientID string
}

// OnAlreadyPlayed logs the notification.
func (l LogCollaborator) OnAlreadyPlayed(totalPlays int) {
	logger.Infof("client %s already played today (total plays: %d)", l.ClientID, totalPlays)
}

// OnPrizeAssigned logs the notification.
func (l LogCollaborator) OnPrizeAssigned(prize models.PrizeEntry) {
	logger.Infof("client %s assigned prize: %s", l.ClientID, prize.Text)
}

// OnScratchProgress logs the notification.
func (l LogCollaborator) OnScratchProgress(fraction float64) {
	logger.V(1).Infof("client %s cleared %.1f%%", l.ClientID, fraction*100)
}

// OnComplete logs the notification.
func (l LogCollaborator) OnComplete(prize models.PrizeEntry) {
	logger.Infof("client %s revealed prize: %s", l.ClientID, prize.Text)
}

// OnError logs the notification.
func (l LogCollaborator) OnError(err error) {
	logger.Errorf("client %s: %v", l.ClientID, err)
}

// EventRecorder queues notifications until Drain is called. Consecutive
// progress reports collapse into the latest one.
type EventRecorder struct {
	events []models.Event
}

func (r *EventRecorder) add(e models.Event) {
	r.events = append(r.events, e)
}

// OnAlreadyPlayed queues the notification as an event.
func (r *EventRecorder) OnAlreadyPlayed(totalPlays int) {
	r.add(models.Event{Kind: models.EventAlreadyPlayed, TotalPlays: totalPlays})
}

// OnPrizeAssigned queues the notification as an event.
func (r *EventRecorder) OnPrizeAssigned(prize models.PrizeEntry) {
	r.add(models.Event{Kind: models.EventPrizeAssigned, Prize: &prize})
}

// OnScratchProgress queues the notification as an event.
func (r *EventRecorder) OnScratchProgress(fraction float64) {
	if n := len(r.events); n > 0 && r.events[n-1].Kind == models.EventScratchProgress {
		r.events[n-1].Fraction = fraction
		return
	}
	r.add(models.Event{Kind: models.EventScratchProgress, Fraction: fraction})
}

// OnComplete queues the notification as an event.
func (r *EventRecorder) OnComplete(prize models.PrizeEntry) {
	r.add(models.Event{Kind: models.EventComplete, Prize: &prize})
}

// OnError queues the notification as an event.
func (r *EventRecorder) OnError(err error) {
	r.add(models.Event{Kind: models.EventError, Error: err.Error()})
}

// Drain returns the queued events and empties the queue.
func (r *EventRecorder) Drain() []models.Event {
	out := r.events
	r.events = nil
	if out == nil {
		out = []models.Event{}
	}
	return out
}
