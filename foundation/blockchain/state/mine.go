package state

import (
	"context"

	"github.com/ardanlabs/powledger/foundation/blockchain/block"
)

// AddBlock mines a new block for the data and appends it to the chain. The
// mining is cancelled if either the context or the state is shut down.
// Writers are serialized, but the chain lock is only held to prepare and
// append the block so readers are served while the nonce search runs.
func (s *State) AddBlock(ctx context.Context, data string) (block.Record[string], error) {
	if s.shut.Err() != nil {
		return block.Record[string]{}, ErrShutdown
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(s.shut, cancel)
	defer stop()

	s.wmu.Lock()
	defer s.wmu.Unlock()

	// Shutdown may have happened while waiting for the lock.
	if s.shut.Err() != nil {
		return block.Record[string]{}, ErrShutdown
	}

	s.mu.Lock()
	nb, err := s.chain.Next(data)
	s.mu.Unlock()
	if err != nil {
		return block.Record[string]{}, err
	}

	s.evHandler("state: AddBlock: MINING: started: blk[%d]", nb.Index)
	defer s.evHandler("state: AddBlock: MINING: completed")

	if err := s.chain.Mine(ctx, nb); err != nil {
		if s.shut.Err() != nil {
			s.evHandler("state: AddBlock: MINING: CANCELLED: shutdown")
			return block.Record[string]{}, ErrShutdown
		}

		s.evHandler("state: AddBlock: MINING: ERROR: %s", err)
		return block.Record[string]{}, err
	}

	s.mu.Lock()
	err = s.chain.Append(nb)
	s.mu.Unlock()
	if err != nil {
		s.evHandler("state: AddBlock: MINING: ERROR: %s", err)
		return block.Record[string]{}, err
	}

	s.evHandler("state: AddBlock: MINING: SOLVED: %s", nb)

	return nb.Record(), nil
}
