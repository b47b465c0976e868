package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/block"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// QueryBlock returns a copy of the block at the specified index.
func (s *State) QueryBlock(index uint64) (block.Record[string], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocks := s.chain.Blocks()
	if index == QueryLatest {
		index = uint64(len(blocks) - 1)
	}

	if index >= uint64(len(blocks)) {
		return block.Record[string]{}, ErrBlockNotFound
	}

	return blocks[index].Record(), nil
}

// QueryBlocksByNumber returns the set of blocks between the from and to
// index inclusive. The to index is capped at the latest block.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []block.Record[string] {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocks := s.chain.Blocks()
	last := uint64(len(blocks) - 1)

	if from == QueryLatest {
		from = last
	}
	if to == QueryLatest || to > last {
		to = last
	}

	var out []block.Record[string]
	for i := from; i <= to; i++ {
		out = append(out, blocks[i].Record())
	}

	return out
}
