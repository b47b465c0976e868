// Package state is the core API for the ledger node. It owns the chain and
// serializes access to it for the concurrent callers of the web api.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/block"
	"github.com/ardanlabs/powledger/foundation/blockchain/chain"
	"github.com/ardanlabs/powledger/foundation/blockchain/notify"
)

// ErrBlockNotFound is returned when a block index is outside of the chain.
var ErrBlockNotFound = errors.New("block not found")

// ErrShutdown is returned when the state has been shut down.
var ErrShutdown = errors.New("state is shut down")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start
// the ledger node.
type Config struct {
	Difficulty uint
	Workers    int
	HashFunc   string
	Sink       notify.Sink
	EvHandler  EventHandler
}

// State manages the chain for the node.
type State struct {
	evHandler EventHandler
	wmu       sync.Mutex
	mu        sync.Mutex
	chain     *chain.Chain[string]

	shut   context.Context
	cancel context.CancelFunc
}

// New constructs the state and mines the genesis block.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	hashFn, exists := block.HashFuncByName(cfg.HashFunc)
	if !exists {
		return nil, fmt.Errorf("unknown hash function %q", cfg.HashFunc)
	}

	shut, cancel := context.WithCancel(context.Background())

	ev("state: New: MINING: genesis: difficulty[%d]: workers[%d]", cfg.Difficulty, cfg.Workers)

	c, err := chain.NewText(shut, chain.Config[string]{
		Difficulty: cfg.Difficulty,
		Workers:    cfg.Workers,
		Sink:       cfg.Sink,
		HashFunc:   hashFn,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	genesis, _ := c.LatestBlock()
	ev("state: New: MINING: genesis: SOLVED: %s", genesis)

	state := State{
		evHandler: ev,
		chain:     c,
		shut:      shut,
		cancel:    cancel,
	}

	return &state, nil
}

// Shutdown cancels any mining in progress and stops new blocks from being
// added.
func (s *State) Shutdown() error {
	s.evHandler("state: Shutdown: started")
	defer s.evHandler("state: Shutdown: completed")

	s.cancel()

	return nil
}

// Ready reports whether the node can serve its chain. It fails once the
// state has been shut down.
func (s *State) Ready() error {
	if s.shut.Err() != nil {
		return ErrShutdown
	}

	if _, err := s.RetrieveLatestBlock(); err != nil {
		return err
	}

	return nil
}
