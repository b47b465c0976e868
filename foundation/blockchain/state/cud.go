package state

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/chain"
)

// Validate checks the integrity of the entire chain.
func (s *State) Validate() chain.Validation {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.chain.Validate()
	s.evHandler("state: Validate: %s", v)

	return v
}

// Tamper overwrites the data of the block at the specified index without
// updating its hash. This simulates an attacker editing the ledger so the
// result can be caught by Validate.
func (s *State) Tamper(index uint64, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocks := s.chain.Blocks()
	if index >= uint64(len(blocks)) {
		return ErrBlockNotFound
	}

	s.evHandler("state: Tamper: blk[%d]: data[%q] -> data[%q]", index, blocks[index].Data, data)
	blocks[index].Data = data

	return nil
}
