package chain_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/block"
	"github.com/ardanlabs/powledger/foundation/blockchain/chain"
	"github.com/ardanlabs/powledger/foundation/blockchain/notify"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Genesis(t *testing.T) {
	type table struct {
		name       string
		difficulty uint
		workers    int
	}

	tt := []table{
		{name: "zero", difficulty: 0},
		{name: "one", difficulty: 1},
		{name: "two", difficulty: 2},
		{name: "two-parallel", difficulty: 2, workers: 4},
	}

	t.Log("Given the need to start a chain with a genesis block.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling difficulty %d.", testID, tst.difficulty)
			{
				f := func(t *testing.T) {
					c, err := chain.NewText(context.Background(), chain.Config[string]{
						Difficulty: tst.difficulty,
						Workers:    tst.workers,
					})
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to construct a chain: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to construct a chain.", success, testID)

					if c.Len() != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould have exactly one block: %d", failed, testID, c.Len())
					}
					t.Logf("\t%s\tTest %d:\tShould have exactly one block.", success, testID)

					genesis, err := c.LatestBlock()
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to get the latest block: %v", failed, testID, err)
					}

					if genesis.Index != 0 || genesis.PrevHash != "0" || genesis.Data != chain.GenesisData {
						t.Fatalf("\t%s\tTest %d:\tShould have the genesis shape: %s", failed, testID, genesis)
					}
					t.Logf("\t%s\tTest %d:\tShould have the genesis shape.", success, testID)

					if !genesis.IsSolved(tst.difficulty) || genesis.Hash != genesis.Digest() {
						t.Fatalf("\t%s\tTest %d:\tShould have a solved genesis hash: %s", failed, testID, genesis.Hash)
					}
					t.Logf("\t%s\tTest %d:\tShould have a solved genesis hash.", success, testID)

					if c.Difficulty() != tst.difficulty {
						t.Fatalf("\t%s\tTest %d:\tShould keep the difficulty: %d", failed, testID, c.Difficulty())
					}
					t.Logf("\t%s\tTest %d:\tShould keep the difficulty.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_AddBlock(t *testing.T) {
	data := []string{
		"Alice sends 10 BTC to Bob",
		"Bob sends 5 BTC to Charlie",
		"Charlie sends 3 BTC to Alice",
		"",
		"Dave sends 1 BTC to Eve",
	}

	t.Log("Given the need to grow the chain.")
	{
		for testID, workers := range []int{0, 3} {
			t.Logf("\tTest %d:\tWhen adding %d blocks with %d workers.", testID, len(data), workers)
			{
				c, err := chain.NewText(context.Background(), chain.Config[string]{Difficulty: 2, Workers: workers})
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to construct a chain: %v", failed, testID, err)
				}

				for i, d := range data {
					blk, err := c.AddBlock(context.Background(), d)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to add block %d: %v", failed, testID, i+1, err)
					}

					if blk.Index != uint64(i+1) || blk.Data != d {
						t.Fatalf("\t%s\tTest %d:\tShould get back the new block: %s", failed, testID, blk)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould be able to add every block.", success, testID)

				if c.Len() != len(data)+1 {
					t.Fatalf("\t%s\tTest %d:\tShould have %d blocks: %d", failed, testID, len(data)+1, c.Len())
				}
				t.Logf("\t%s\tTest %d:\tShould have %d blocks.", success, testID, len(data)+1)

				blocks := c.Blocks()
				for i := 1; i < len(blocks); i++ {
					if blocks[i].PrevHash != blocks[i-1].Hash {
						t.Fatalf("\t%s\tTest %d:\tShould link block %d to its parent.", failed, testID, i)
					}
					if !blocks[i].IsSolved(2) {
						t.Fatalf("\t%s\tTest %d:\tShould have solved block %d.", failed, testID, i)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould link and solve every block.", success, testID)

				records := c.Records()
				for i, rec := range records {
					if rec.Index != uint64(i) || rec.Hash != blocks[i].Hash {
						t.Fatalf("\t%s\tTest %d:\tShould get back record %d.", failed, testID, i)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould get back a record for every block.", success, testID)

				if !c.IsValid() {
					t.Fatalf("\t%s\tTest %d:\tShould have a valid chain.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould have a valid chain.", success, testID)
			}
		}
	}
}

func Test_AddBlockCancel(t *testing.T) {
	t.Log("Given the need to cancel adding a block.")
	{
		t.Logf("\tTest 0:\tWhen the context is cancelled before a solution is found.")
		{
			c, err := chain.NewText(context.Background(), chain.Config[string]{Difficulty: 1})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a chain: %v", failed, err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			// A cancelled context can still return a block if the very first
			// hash is a solution, so keep trying until the cancellation hits.
			for j := 0; j < 100; j++ {
				_, err = c.AddBlock(ctx, "data")
				if err != nil {
					break
				}
			}

			if !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest 0:\tShould get back a cancellation error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould get back a cancellation error.", success)

			if !c.IsValid() {
				t.Fatalf("\t%s\tTest 0:\tShould still have a valid chain.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould still have a valid chain.", success)
		}
	}
}

func Test_NextMineAppend(t *testing.T) {
	t.Log("Given the need to mine a block apart from the chain and append it.")
	{
		t.Logf("\tTest 0:\tWhen two blocks are prepared against the same tip.")
		{
			c, err := chain.NewText(context.Background(), chain.Config[string]{Difficulty: 1, Workers: 2})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a chain: %v", failed, err)
			}

			first, err := c.Next("first")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to prepare a block: %v", failed, err)
			}
			second, err := c.Next("second")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to prepare a block: %v", failed, err)
			}

			if c.Len() != 1 || first.Index != 1 || second.Index != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould not change the chain when preparing: len[%d]", failed, c.Len())
			}
			t.Logf("\t%s\tTest 0:\tShould not change the chain when preparing.", success)

			for _, blk := range []*block.Block[string]{first, second} {
				if err := c.Mine(context.Background(), blk); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to mine block %q: %v", failed, blk.Data, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould be able to mine both blocks.", success)

			forged := *first
			forged.Hash = strings.Repeat("0", len(first.Hash))
			if err := c.Append(&forged); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould not append a block whose hash doesn't match.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not append a block whose hash doesn't match.", success)

			if err := c.Append(first); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to append the first block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to append the first block.", success)

			if err := c.Append(second); !errors.Is(err, chain.ErrStaleBlock) {
				t.Fatalf("\t%s\tTest 0:\tShould reject the block built on the old tip: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the block built on the old tip.", success)

			if c.Len() != 2 || !c.IsValid() {
				t.Fatalf("\t%s\tTest 0:\tShould have a valid chain of two blocks: len[%d]", failed, c.Len())
			}
			t.Logf("\t%s\tTest 0:\tShould have a valid chain of two blocks.", success)
		}
	}
}

// =============================================================================

func Test_Validate(t *testing.T) {
	type table struct {
		name   string
		blocks int
		tamper func(blocks []*block.Block[string])
		valid  bool
		index  uint64
		reason chain.Reason
	}

	tt := []table{
		{
			name:   "untouched",
			blocks: 4,
			tamper: func([]*block.Block[string]) {},
			valid:  true,
		},
		{
			name:   "genesis-only",
			blocks: 0,
			tamper: func([]*block.Block[string]) {},
			valid:  true,
		},
		{
			name:   "data",
			blocks: 2,
			tamper: func(blocks []*block.Block[string]) {
				blocks[1].Data = "tampered"
			},
			index:  1,
			reason: chain.ReasonHashMismatch,
		},
		{
			name:   "nonce",
			blocks: 3,
			tamper: func(blocks []*block.Block[string]) {
				blocks[3].Nonce++
			},
			index:  3,
			reason: chain.ReasonHashMismatch,
		},
		{
			name:   "link",
			blocks: 3,
			tamper: func(blocks []*block.Block[string]) {
				blocks[2].PrevHash = strings.Repeat("0", 2) + strings.Repeat("f", 62)
			},
			index:  2,
			reason: chain.ReasonLinkMismatch,
		},
		{
			name:   "link-rehashed",
			blocks: 3,
			tamper: func(blocks []*block.Block[string]) {
				blocks[2].PrevHash = strings.Repeat("0", 2) + strings.Repeat("f", 62)
				blocks[2].Hash = blocks[2].Digest()
			},
			index:  2,
			reason: chain.ReasonLinkMismatch,
		},
		{
			name:   "first-failure",
			blocks: 4,
			tamper: func(blocks []*block.Block[string]) {
				blocks[4].Data = "later"
				blocks[2].Data = "earlier"
			},
			index:  2,
			reason: chain.ReasonHashMismatch,
		},
		{
			name:   "genesis",
			blocks: 2,
			tamper: func(blocks []*block.Block[string]) {
				blocks[0].Data = "Forged Genesis"
			},
			index:  0,
			reason: chain.ReasonHashMismatch,
		},
		{
			name:   "genesis-unsolved",
			blocks: 1,
			tamper: func(blocks []*block.Block[string]) {
				blocks[0].Nonce = 0
				blocks[0].Hash = blocks[0].Digest()
				for blocks[0].IsSolved(1) {
					blocks[0].Nonce++
					blocks[0].Hash = blocks[0].Digest()
				}
			},
			index:  0,
			reason: chain.ReasonUnsolved,
		},
		{
			name:   "reorder",
			blocks: 3,
			tamper: func(blocks []*block.Block[string]) {
				blocks[1], blocks[2] = blocks[2], blocks[1]
			},
			index:  1,
			reason: chain.ReasonLinkMismatch,
		},
	}

	t.Log("Given the need to detect tampering.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling tampering of %q.", testID, tst.name)
			{
				f := func(t *testing.T) {
					var rec notify.Recorder

					c := buildChain(t, testID, tst.blocks, &rec)
					tst.tamper(chainBlocks(c))
					rec.Reset()

					v := c.Validate()
					if v.Valid != tst.valid {
						t.Fatalf("\t%s\tTest %d:\tShould get back valid[%v]: %s", failed, testID, tst.valid, v)
					}
					t.Logf("\t%s\tTest %d:\tShould get back valid[%v].", success, testID, tst.valid)

					events := rec.Events()
					if len(events) != 1 || events[0].Kind != notify.ChainValidated {
						t.Fatalf("\t%s\tTest %d:\tShould send exactly one CHAIN_VALIDATED notification: %v", failed, testID, events)
					}
					t.Logf("\t%s\tTest %d:\tShould send exactly one CHAIN_VALIDATED notification.", success, testID)

					payload := events[0].Payload.(notify.Validated)

					if tst.valid {
						if payload.Message == "" || payload.Error != "" || payload.BlockIndex != nil {
							t.Fatalf("\t%s\tTest %d:\tShould send a valid payload: %+v", failed, testID, payload)
						}
						t.Logf("\t%s\tTest %d:\tShould send a valid payload.", success, testID)
						return
					}

					if v.Index != tst.index || v.Reason != tst.reason {
						t.Logf("\t%s\tTest %d:\tgot: %d %s", failed, testID, v.Index, v.Reason)
						t.Logf("\t%s\tTest %d:\texp: %d %s", failed, testID, tst.index, tst.reason)
						t.Fatalf("\t%s\tTest %d:\tShould identify the offending block and check.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould identify the offending block and check.", success, testID)

					if payload.Valid || payload.Error == "" || payload.BlockIndex == nil || *payload.BlockIndex != tst.index {
						t.Fatalf("\t%s\tTest %d:\tShould send an invalid payload: %+v", failed, testID, payload)
					}
					t.Logf("\t%s\tTest %d:\tShould send an invalid payload.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Scenario(t *testing.T) {
	t.Log("Given the need to build, validate and tamper with a chain.")
	{
		t.Logf("\tTest 0:\tWhen running the end to end scenario.")
		{
			ctx := context.Background()

			c, err := chain.NewText(ctx, chain.Config[string]{Difficulty: 1})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a chain: %v", failed, err)
			}

			if _, err := c.AddBlock(ctx, "a"); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add block a: %v", failed, err)
			}
			if _, err := c.AddBlock(ctx, "b"); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add block b: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add two blocks.", success)

			if !c.IsValid() {
				t.Fatalf("\t%s\tTest 0:\tShould have a valid chain.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have a valid chain.", success)

			c.Blocks()[1].Data = "tampered"

			v := c.Validate()
			if v.Valid || v.Index != 1 || v.Reason != chain.ReasonHashMismatch {
				t.Fatalf("\t%s\tTest 0:\tShould detect the tampered block: %s", failed, v)
			}
			t.Logf("\t%s\tTest 0:\tShould detect the tampered block.", success)
		}
	}
}

func Test_Notifications(t *testing.T) {
	t.Log("Given the need to report the work of adding a block.")
	{
		for testID, difficulty := range []uint{1, 2, 3} {
			t.Logf("\tTest %d:\tWhen adding a block at difficulty %d.", testID, difficulty)
			{
				var rec notify.Recorder

				c, err := chain.NewText(context.Background(), chain.Config[string]{Difficulty: difficulty, Sink: &rec})
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to construct a chain: %v", failed, testID, err)
				}
				rec.Reset()

				blk, err := c.AddBlock(context.Background(), "data")
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to add a block: %v", failed, testID, err)
				}

				events := rec.Events()
				if events[0].Kind != notify.BlockCreated || events[len(events)-1].Kind != notify.BlockMined {
					t.Fatalf("\t%s\tTest %d:\tShould start with created and end with mined.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould start with created and end with mined.", success, testID)

				if rec.Count(notify.BlockCreated) != 1 || rec.Count(notify.BlockMined) != 1 {
					t.Fatalf("\t%s\tTest %d:\tShould send one created and one mined notification.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould send one created and one mined notification.", success, testID)

				if n := rec.Count(notify.NonceUpdated); n != int(blk.Nonce/100) {
					t.Fatalf("\t%s\tTest %d:\tShould send %d progress notifications: %d", failed, testID, blk.Nonce/100, n)
				}
				t.Logf("\t%s\tTest %d:\tShould send a progress notification every 100 nonces.", success, testID)
			}
		}
	}
}

func Test_Clock(t *testing.T) {
	t.Log("Given the need to control the time blocks are stamped with.")
	{
		t.Logf("\tTest 0:\tWhen using a fixed clock.")
		{
			now := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

			c, err := chain.NewText(context.Background(), chain.Config[string]{
				Difficulty: 1,
				Clock:      func() time.Time { return now },
				HashFunc:   block.Keccak256,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a chain: %v", failed, err)
			}

			blk, err := c.AddBlock(context.Background(), "data")
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add a block: %v", failed, err)
			}

			if blk.TimeStamp != uint64(now.UnixMilli()) {
				t.Fatalf("\t%s\tTest 0:\tShould stamp blocks with the clock: %d", failed, blk.TimeStamp)
			}
			t.Logf("\t%s\tTest 0:\tShould stamp blocks with the clock.", success)

			if blk.Hash != block.Keccak256([]byte(blockInput(blk))) {
				t.Fatalf("\t%s\tTest 0:\tShould hash blocks with the configured function.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould hash blocks with the configured function.", success)
		}
	}
}

func Test_Generic(t *testing.T) {
	type transfer struct {
		From  string
		To    string
		Value uint
	}

	t.Log("Given the need to store structured data.")
	{
		t.Logf("\tTest 0:\tWhen using a struct payload.")
		{
			c, err := chain.New(context.Background(), chain.Config[transfer]{
				Difficulty:  1,
				GenesisData: transfer{},
				Canonical: func(tr transfer) string {
					return tr.From + tr.To + block.Text(tr.Value)
				},
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a chain: %v", failed, err)
			}

			if _, err := c.AddBlock(context.Background(), transfer{From: "alice", To: "bob", Value: 10}); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add a block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add a block.", success)

			c.Blocks()[1].Data.Value = 100

			if v := c.Validate(); v.Valid || v.Index != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould detect the tampered value: %s", failed, v)
			}
			t.Logf("\t%s\tTest 0:\tShould detect the tampered value.", success)
		}
	}
}

// =============================================================================

// buildChain constructs a chain with the genesis block and n more blocks.
func buildChain(t *testing.T, testID int, n int, sink notify.Sink) *chain.Chain[string] {
	t.Helper()

	c, err := chain.NewText(context.Background(), chain.Config[string]{Difficulty: 1, Sink: sink})
	if err != nil {
		t.Fatalf("\t%s\tTest %d:\tShould be able to construct a chain: %v", failed, testID, err)
	}

	for i := 0; i < n; i++ {
		if _, err := c.AddBlock(context.Background(), "block "+block.Text(i+1)); err != nil {
			t.Fatalf("\t%s\tTest %d:\tShould be able to add a block: %v", failed, testID, err)
		}
	}
	t.Logf("\t%s\tTest %d:\tShould be able to build a chain of %d blocks.", success, testID, c.Len())

	return c
}

// chainBlocks returns the chain's own block slice so tests can reorder it.
func chainBlocks(c *chain.Chain[string]) []*block.Block[string] {
	return chain.Internal(c)
}

// blockInput rebuilds the canonical hash input for a text block.
func blockInput(blk *block.Block[string]) string {
	return block.Text(blk.Index) + block.Text(blk.TimeStamp) + blk.Data + blk.PrevHash + block.Text(blk.Nonce)
}
