// Package notify reports empty task queues to operators, with duplicate
// suppression so a reviewer hammering an empty queue produces one
// notification, not hundreds.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Default gate timings: at most one notification per reviewer per
// minInterval, and per-reviewer state older than staleAfter is dropped.
const (
	defaultMinInterval = time.Hour
	defaultStaleAfter  = 24 * time.Hour
)

// Gate decides whether an empty-queue observation for a reviewer is
// worth a notification. A reviewer is notified at most once until
// tasks show up for them again, and never more often than the minimum
// interval. Safe for concurrent use.
type Gate struct {
	mu          sync.Mutex
	minInterval time.Duration
	staleAfter  time.Duration
	now         func() time.Time // Injectable for testing

	lastNotified map[uuid.UUID]time.Time
	// armed tracks reviewers eligible for a notification; a reviewer is
	// disarmed after notifying and re-armed when tasks appear.
	disarmed map[uuid.UUID]bool
}

// NewGate creates a Gate. Non-positive durations fall back to the
// defaults of one hour between notifications and 24 hours to staleness.
func NewGate(minInterval, staleAfter time.Duration) *Gate {
	if minInterval <= 0 {
		minInterval = defaultMinInterval
	}
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &Gate{
		minInterval:  minInterval,
		staleAfter:   staleAfter,
		now:          time.Now,
		lastNotified: make(map[uuid.UUID]time.Time),
		disarmed:     make(map[uuid.UUID]bool),
	}
}

// ShouldNotify reports whether an empty-queue notification for the
// reviewer should go out now.
func (g *Gate) ShouldNotify(reviewerID uuid.UUID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.disarmed[reviewerID] {
		return false
	}
	if last, ok := g.lastNotified[reviewerID]; ok && g.now().Sub(last) < g.minInterval {
		return false
	}
	g.cleanupLocked()
	return true
}

// MarkNotified records that a notification went out for the reviewer,
// suppressing further ones until MarkHasTasks re-arms them.
func (g *Gate) MarkNotified(reviewerID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastNotified[reviewerID] = g.now()
	g.disarmed[reviewerID] = true
}

// MarkHasTasks records that the reviewer has tasks again, re-arming
// empty-queue notifications for them.
func (g *Gate) MarkHasTasks(reviewerID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.disarmed, reviewerID)
}

// cleanupLocked drops per-reviewer state older than staleAfter. Caller
// holds g.mu.
func (g *Gate) cleanupLocked() {
	cutoff := g.now().Add(-g.staleAfter)
	for id, last := range g.lastNotified {
		if last.Before(cutoff) {
			delete(g.lastNotified, id)
			delete(g.disarmed, id)
		}
	}
}

// LogNotifier reports empty queues to the operator log, one warning per
// reviewer per dry spell. It satisfies the task service's notifier
// contract.
type LogNotifier struct {
	gate   *Gate
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. Panics if gate or logger is nil.
func NewLogNotifier(gate *Gate, log *slog.Logger) *LogNotifier {
	if gate == nil {
		panic("gate cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil")
	}
	return &LogNotifier{
		gate:   gate,
		logger: log.With(slog.String("component", "notifier")),
	}
}

// QueueEmpty emits one warning for the reviewer's dry queue, if the
// gate allows it.
func (n *LogNotifier) QueueEmpty(_ context.Context, reviewerID uuid.UUID, reviewerName string) {
	if !n.gate.ShouldNotify(reviewerID) {
		return
	}
	n.logger.Warn("reviewer has no pending tasks left",
		slog.String("reviewer_id", reviewerID.String()),
		slog.String("reviewer_name", reviewerName))
	n.gate.MarkNotified(reviewerID)
}

// QueueActive re-arms empty-queue notifications for the reviewer.
func (n *LogNotifier) QueueActive(_ context.Context, reviewerID uuid.UUID) {
	n.gate.MarkHasTasks(reviewerID)
}
