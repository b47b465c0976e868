package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/block"
)

// RetrieveDifficulty returns the difficulty blocks are mined at.
func (s *State) RetrieveDifficulty() uint {
	return s.chain.Difficulty()
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() (block.Record[string], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blk, err := s.chain.LatestBlock()
	if err != nil {
		return block.Record[string]{}, err
	}

	return blk.Record(), nil
}

// RetrieveBlocks returns a copy of every block in the chain.
func (s *State) RetrieveBlocks() []block.Record[string] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chain.Records()
}
