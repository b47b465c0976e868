// Package chain maintains an ordered set of blocks where each block is
// bound to the one before it by hash and sealed by proof of work.
package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/block"
	"github.com/ardanlabs/powledger/foundation/blockchain/notify"
)

// ErrEmptyChain is returned when an operation needs the latest block and
// the chain doesn't have one.
var ErrEmptyChain = errors.New("chain has no blocks")

// ErrStaleBlock is returned when a block no longer extends the tip of the
// chain it is being appended to.
var ErrStaleBlock = errors.New("block does not extend the chain tip")

// Values used to construct the genesis block.
const (
	GenesisData     = "Genesis Block"
	GenesisPrevHash = "0"
)

// =============================================================================

// Config represents the configuration required to start a chain.
type Config[T any] struct {
	Difficulty  uint
	Workers     int
	GenesisData T
	Sink        notify.Sink
	Canonical   block.Canonical[T]
	HashFunc    block.HashFunc
	Clock       func() time.Time
}

// Chain represents the ordered set of blocks. It is not safe for concurrent
// use. Callers that share a chain prepare a block with Next, mine it with
// Mine outside their lock and add it with Append.
type Chain[T any] struct {
	difficulty uint
	workers    int
	sink       notify.Sink
	canonical  block.Canonical[T]
	hashFn     block.HashFunc
	clock      func() time.Time
	blocks     []*block.Block[T]
}

// New constructs a chain and mines its genesis block.
func New[T any](ctx context.Context, cfg Config[T]) (*Chain[T], error) {
	c := Chain[T]{
		difficulty: cfg.Difficulty,
		workers:    cfg.Workers,
		sink:       cfg.Sink,
		canonical:  cfg.Canonical,
		hashFn:     cfg.HashFunc,
		clock:      cfg.Clock,
	}

	if c.sink == nil {
		c.sink = notify.Nop{}
	}
	if c.canonical == nil {
		c.canonical = block.Text[T]
	}
	if c.hashFn == nil {
		c.hashFn = block.SHA256
	}
	if c.clock == nil {
		c.clock = time.Now
	}

	genesis := c.newBlock(0, cfg.GenesisData, GenesisPrevHash)
	if err := genesis.MineParallel(ctx, c.difficulty, c.workers); err != nil {
		return nil, fmt.Errorf("mining genesis: %w", err)
	}

	c.blocks = append(c.blocks, genesis)

	return &c, nil
}

// NewText constructs a chain of text data using the standard genesis data
// when none is provided.
func NewText(ctx context.Context, cfg Config[string]) (*Chain[string], error) {
	if cfg.GenesisData == "" {
		cfg.GenesisData = GenesisData
	}

	return New(ctx, cfg)
}

// Difficulty returns the number of leading zeros required for each block.
func (c *Chain[T]) Difficulty() uint {
	return c.difficulty
}

// Len returns the number of blocks in the chain.
func (c *Chain[T]) Len() int {
	return len(c.blocks)
}

// Blocks returns the blocks of the chain in order. The blocks themselves
// are shared with the chain.
func (c *Chain[T]) Blocks() []*block.Block[T] {
	blocks := make([]*block.Block[T], len(c.blocks))
	copy(blocks, c.blocks)
	return blocks
}

// Records returns the field mapping for every block in order.
func (c *Chain[T]) Records() []block.Record[T] {
	records := make([]block.Record[T], len(c.blocks))
	for i, blk := range c.blocks {
		records[i] = blk.Record()
	}
	return records
}

// LatestBlock returns the most recent block in the chain.
func (c *Chain[T]) LatestBlock() (*block.Block[T], error) {
	if len(c.blocks) == 0 {
		return nil, ErrEmptyChain
	}

	return c.blocks[len(c.blocks)-1], nil
}

// AddBlock constructs the next block for the specified data, mines it and
// appends it to the chain. Nothing is appended if mining is cancelled.
func (c *Chain[T]) AddBlock(ctx context.Context, data T) (*block.Block[T], error) {
	nb, err := c.Next(data)
	if err != nil {
		return nil, err
	}

	if err := c.Mine(ctx, nb); err != nil {
		return nil, err
	}

	if err := c.Append(nb); err != nil {
		return nil, err
	}

	return nb, nil
}

// Next constructs the unmined block that would extend the current tip.
// The chain is not changed, so the block can be mined without holding
// any lock that guards the chain.
func (c *Chain[T]) Next(data T) (*block.Block[T], error) {
	prevBlock, err := c.LatestBlock()
	if err != nil {
		return nil, err
	}

	return c.newBlock(uint64(len(c.blocks)), data, prevBlock.Hash), nil
}

// Mine performs the proof of work for a block at the chain's difficulty.
// It only reads the chain's configuration.
func (c *Chain[T]) Mine(ctx context.Context, blk *block.Block[T]) error {
	if err := blk.MineParallel(ctx, c.difficulty, c.workers); err != nil {
		return fmt.Errorf("mining block %d: %w", blk.Index, err)
	}

	return nil
}

// Append adds a mined block to the chain. The block must still extend the
// current tip and meet the chain's difficulty.
func (c *Chain[T]) Append(blk *block.Block[T]) error {
	prevBlock, err := c.LatestBlock()
	if err != nil {
		return err
	}

	if blk.Index != uint64(len(c.blocks)) || blk.PrevHash != prevBlock.Hash {
		return fmt.Errorf("block %d: %w", blk.Index, ErrStaleBlock)
	}

	if !blk.IsSolved(c.difficulty) || blk.Hash != blk.Digest() {
		return fmt.Errorf("block %d: not mined at difficulty %d", blk.Index, c.difficulty)
	}

	c.blocks = append(c.blocks, blk)

	return nil
}

// =============================================================================

func (c *Chain[T]) newBlock(index uint64, data T, prevHash string) *block.Block[T] {
	return block.New(index, data, prevHash,
		block.WithSink[T](c.sink),
		block.WithCanonical(c.canonical),
		block.WithHashFunc[T](c.hashFn),
		block.WithClock[T](c.clock),
	)
}
