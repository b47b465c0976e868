package chain

import "github.com/ardanlabs/powledger/foundation/blockchain/block"

// Internal returns the chain's own block slice for tests that need to
// reorder blocks.
func Internal[T any](c *Chain[T]) []*block.Block[T] {
	return c.blocks
}
