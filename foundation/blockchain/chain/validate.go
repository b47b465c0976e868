package chain

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/notify"
)

// Reason identifies which check failed during validation.
type Reason int

// Set of reasons a chain can fail validation.
const (
	ReasonNone         Reason = iota
	ReasonHashMismatch        // The stored hash doesn't match the block's fields.
	ReasonLinkMismatch        // The previous hash doesn't match the parent's hash.
	ReasonUnsolved            // The genesis hash doesn't meet the difficulty.
)

// String implements the fmt.Stringer interface.
func (r Reason) String() string {
	switch r {
	case ReasonHashMismatch:
		return "hash mismatch"
	case ReasonLinkMismatch:
		return "link mismatch"
	case ReasonUnsolved:
		return "unsolved"
	}

	return "none"
}

// MarshalText implements the encoding.TextMarshaler interface.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// validMessage is reported when every block passes validation.
const validMessage = "Blockchain is valid"

// Validation is the result of validating a chain. When Valid is false,
// Index is the first block that failed and Reason is the check that
// caught it.
type Validation struct {
	Valid   bool   `json:"valid"`
	Index   uint64 `json:"block_index"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

// String implements the fmt.Stringer interface for logging.
func (v Validation) String() string {
	if v.Valid {
		return v.Message
	}

	return fmt.Sprintf("%s: block_index[%d]", v.Message, v.Index)
}

// =============================================================================

// Validate walks the chain from the first block after genesis to the last.
// Each block must point at its parent's hash and must hash to its stored
// hash. Validation stops at the first block that fails either check. The
// genesis block has no parent, it only needs to hash to its stored hash and
// meet the difficulty.
func (c *Chain[T]) Validate() Validation {
	if len(c.blocks) > 0 {
		genesis := c.blocks[0]

		if genesis.Hash != genesis.Digest() {
			return c.invalid(0, ReasonHashMismatch, "Genesis block has invalid hash")
		}

		if !genesis.IsSolved(c.difficulty) {
			return c.invalid(0, ReasonUnsolved, "Genesis block does not meet the difficulty")
		}
	}

	for i := 1; i < len(c.blocks); i++ {
		blk := c.blocks[i]
		prevBlk := c.blocks[i-1]

		// The link is checked first since the previous hash is also part of
		// the digest. A forged link must be reported as a broken link.
		if blk.PrevHash != prevBlk.Hash {
			return c.invalid(i, ReasonLinkMismatch, fmt.Sprintf("Block %d has broken chain link", i))
		}

		if blk.Hash != blk.Digest() {
			return c.invalid(i, ReasonHashMismatch, fmt.Sprintf("Block %d has invalid hash", i))
		}
	}

	notify.Send(c.sink, notify.ChainValidated, notify.Validated{
		Valid:   true,
		Message: validMessage,
	})

	return Validation{
		Valid:   true,
		Message: validMessage,
	}
}

// IsValid reports if the chain passes validation.
func (c *Chain[T]) IsValid() bool {
	return c.Validate().Valid
}

func (c *Chain[T]) invalid(i int, reason Reason, msg string) Validation {
	index := uint64(i)

	notify.Send(c.sink, notify.ChainValidated, notify.Validated{
		Valid:      false,
		Error:      msg,
		BlockIndex: &index,
	})

	return Validation{
		Valid:   false,
		Index:   index,
		Reason:  reason,
		Message: msg,
	}
}
