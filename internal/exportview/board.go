// Package exportview folds an export event stream into the latest state of
// every step, the way a live board displays it.
package exportview

import (
	"github.com/alex-berlin-tv/rafo/internal/export"
)

// Board keeps the most recent event per target in first-seen order.
type Board struct {
	order  []export.Target
	latest map[export.Target]export.Event
	closed bool
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{latest: make(map[export.Target]export.Event)}
}

// Apply records e, replacing any earlier event of the same target.
func (b *Board) Apply(e export.Event) {
	if _, ok := b.latest[e.Target]; !ok {
		b.order = append(b.order, e.Target)
	}
	b.latest[e.Target] = e
}

// Close marks the stream as ended.
func (b *Board) Close() { b.closed = true }

// Closed reports whether the stream ended.
func (b *Board) Closed() bool { return b.closed }

// Rows returns one event per target in the order targets first appeared.
func (b *Board) Rows() []export.Event {
	rows := make([]export.Event, 0, len(b.order))
	for _, target := range b.order {
		rows = append(rows, b.latest[target])
	}
	return rows
}

// Get returns the current event of target.
func (b *Board) Get(target export.Target) (export.Event, bool) {
	e, ok := b.latest[target]
	return e, ok
}

// Outcome summarizes the board: whether finalize was reached, and the worst
// terminal state seen.
func (b *Board) Outcome() (finalized bool, worst export.State) {
	worst = export.StateDone
	for _, target := range b.order {
		e := b.latest[target]
		switch e.State {
		case export.StateError:
			worst = export.StateError
		case export.StateWarning:
			if worst != export.StateError {
				worst = export.StateWarning
			}
		}
		if target == export.TargetFinalize && e.State.Terminal() {
			finalized = true
		}
	}
	return finalized, worst
}

// Copyable collects every copyable value shown on the board.
func (b *Board) Copyable() export.Pairs {
	var out export.Pairs
	for _, e := range b.Rows() {
		out = append(out, e.CopyableValues...)
	}
	return out
}
