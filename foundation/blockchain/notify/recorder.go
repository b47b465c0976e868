package notify

import "sync"

// Event is a single notification captured by a Recorder.
type Event struct {
	Kind    Kind
	Payload any
}

// Recorder is a sink that keeps every notification it receives in order.
// It is used by tests and tooling to inspect what was emitted.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Notify implements the Sink interface.
func (r *Recorder) Notify(kind Kind, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, Event{Kind: kind, Payload: payload})
	return nil
}

// Events returns a copy of the captured events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]Event, len(r.events))
	copy(events, r.events)
	return events
}

// Count returns the number of captured events of the specified kind.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// Reset removes all captured events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = nil
}
