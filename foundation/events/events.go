// Package events allows for the registering and receiving of blockchain
// notifications as encoded messages.
package events

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/notify"
)

// Message is the encoded form of a notification sent to subscribers.
type Message struct {
	Type notify.Kind `json:"type"`
	Data any         `json:"data"`
}

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events. It implements the notify.Sink
// interface so it can be handed directly to a chain.
type Events struct {
	m  map[string]chan []byte
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan []byte),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive events.
func (evt *Events) Acquire(id string) <-chan []byte {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	// A message is dropped if the receiver is not ready, so this buffer
	// gives a slow websocket writer room while a block is being mined.
	const messageBuffer = 256

	evt.m[id] = make(chan []byte, messageBuffer)
	return evt.m[id]
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Subscribers returns the number of registered receivers.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Notify implements the notify.Sink interface. The notification is encoded
// and sent to every registered channel.
func (evt *Events) Notify(kind notify.Kind, payload any) error {
	data, err := json.Marshal(Message{Type: kind, Data: payload})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", kind, err)
	}

	evt.Send(data)
	return nil
}

// Send signals a message to every registered channel. Send will not block
// waiting for a receiver on any given channel.
func (evt *Events) Send(msg []byte) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- msg:
		default:
		}
	}
}
