// Package notify defines the sink the blockchain packages report progress to.
// The blockchain never depends on a notification being delivered.
package notify

import (
	"fmt"
)

// Kind identifies the type of notification being sent.
type Kind string

// Set of notification kinds emitted by the blockchain packages.
const (
	BlockCreated   Kind = "BLOCK_CREATED"
	NonceUpdated   Kind = "NONCE_UPDATED"
	BlockMined     Kind = "BLOCK_MINED"
	ChainValidated Kind = "CHAIN_VALIDATED"
)

// Set of status tags carried by block notifications.
const (
	StatusCreated = "created"
	StatusMining  = "mining"
	StatusMined   = "mined"
)

// =============================================================================

// Sink represents the behavior required to receive notifications.
type Sink interface {
	Notify(kind Kind, payload any) error
}

// SinkFunc allows an ordinary function to be used as a Sink.
type SinkFunc func(kind Kind, payload any) error

// Notify calls f(kind, payload).
func (f SinkFunc) Notify(kind Kind, payload any) error {
	return f(kind, payload)
}

// Nop is a sink that discards everything it is given.
type Nop struct{}

// Notify implements the Sink interface.
func (Nop) Notify(Kind, any) error {
	return nil
}

// Send delivers the notification to the sink. Any error or panic coming
// out of the sink is discarded so the caller's work is never affected.
func Send(sink Sink, kind Kind, payload any) {
	if sink == nil {
		return
	}

	defer func() {
		recover()
	}()

	sink.Notify(kind, payload)
}

// =============================================================================

// Created is the payload for a BlockCreated notification.
type Created struct {
	Index     uint64 `json:"index"`
	TimeStamp uint64 `json:"timestamp"`
	Data      any    `json:"data"`
	PrevHash  string `json:"previous_hash"`
	Nonce     uint64 `json:"nonce"`
	Hash      string `json:"hash"`
	Status    string `json:"status"`
}

// Progress is the payload for the NonceUpdated and BlockMined notifications.
type Progress struct {
	Index  uint64 `json:"index"`
	Nonce  uint64 `json:"nonce"`
	Hash   string `json:"hash"`
	Status string `json:"status"`
}

// Validated is the payload for a ChainValidated notification. A valid chain
// carries a message, an invalid chain carries the error and block index.
type Validated struct {
	Valid      bool    `json:"valid"`
	Message    string  `json:"message,omitempty"`
	Error      string  `json:"error,omitempty"`
	BlockIndex *uint64 `json:"block_index,omitempty"`
}

// String implements the fmt.Stringer interface for logging.
func (v Validated) String() string {
	if v.Valid {
		return v.Message
	}

	if v.BlockIndex == nil {
		return v.Error
	}

	return fmt.Sprintf("%s: block_index[%d]", v.Error, *v.BlockIndex)
}
