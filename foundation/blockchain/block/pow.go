package block

import (
	"context"
	"errors"
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/notify"
)

// Set of errors returned by the mining operations.
var (
	ErrMaxAttempts = errors.New("mining exceeded the maximum number of attempts")
	ErrDifficulty  = errors.New("difficulty is larger than the hash length")
)

// progressEvery is how often, in nonce values, a NonceUpdated notification
// is sent while mining.
const progressEvery = 100

// batchSpan is the number of nonces each worker tests per batch when mining
// in parallel. It must be a multiple of progressEvery.
const batchSpan = 10 * progressEvery

// =============================================================================

// MineOption represents a function that changes how mining is performed.
type MineOption func(mo *mineOptions)

type mineOptions struct {
	maxAttempts uint64
}

// WithMaxAttempts limits the number of nonce increments a mining operation
// will perform before giving up with ErrMaxAttempts. Zero means no limit.
func WithMaxAttempts(n uint64) MineOption {
	return func(mo *mineOptions) {
		mo.maxAttempts = n
	}
}

// =============================================================================

// IsSolved reports if the block's stored hash has the number of leading
// zeros required by the difficulty.
func (b *Block[T]) IsSolved(difficulty uint) bool {
	return isHashSolved(difficulty, b.Hash)
}

// Mine does the work of finding a nonce that produces a hash with a
// difficulty number of leading zeros. Pointer semantics are being used
// since a nonce is being discovered. If the context is cancelled the
// block is left with a hash that matches its nonce.
func (b *Block[T]) Mine(ctx context.Context, difficulty uint, opts ...MineOption) error {
	var mo mineOptions
	for _, opt := range opts {
		opt(&mo)
	}

	if int(difficulty) > len(b.Hash) {
		return ErrDifficulty
	}

	prefix := b.prefix()

	var attempts uint64
	for !isHashSolved(difficulty, b.Hash) {

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if mo.maxAttempts > 0 && attempts == mo.maxAttempts {
			return ErrMaxAttempts
		}
		attempts++

		b.Nonce++
		b.Hash = b.digest(prefix, b.Nonce)

		if b.Nonce%progressEvery == 0 {
			b.sendProgress(notify.NonceUpdated, b.Nonce, b.Hash)
		}
	}

	b.sendProgress(notify.BlockMined, b.Nonce, b.Hash)

	return nil
}

// MineParallel performs the same search as Mine using the specified number
// of goroutines. Nonces are tested in batches and the smallest solving nonce
// of a batch wins, so the final nonce and the notifications sent are the
// same as they would be for Mine. If the context is cancelled the block
// keeps the nonce and hash it had when the batch started.
func (b *Block[T]) MineParallel(ctx context.Context, difficulty uint, workers int, opts ...MineOption) error {
	if workers <= 1 {
		return b.Mine(ctx, difficulty, opts...)
	}

	var mo mineOptions
	for _, opt := range opts {
		opt(&mo)
	}

	if int(difficulty) > len(b.Hash) {
		return ErrDifficulty
	}

	if isHashSolved(difficulty, b.Hash) {
		b.sendProgress(notify.BlockMined, b.Nonce, b.Hash)
		return nil
	}

	prefix := b.prefix()

	// The last nonce Mine would be allowed to test.
	limit := ^uint64(0)
	if mo.maxAttempts > 0 {
		limit = b.Nonce + mo.maxAttempts
	}

	next := b.Nonce + 1
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if next > limit {
			return ErrMaxAttempts
		}

		results := make([]searchResult, workers)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			i := i
			lo := next + uint64(i)*batchSpan
			if lo > limit {
				break
			}
			hi := min(lo+batchSpan-1, limit)

			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = b.search(ctx, prefix, difficulty, lo, hi)
			}()
		}
		wg.Wait()

		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Walk the ranges in nonce order so notifications go out in the
		// same order Mine would send them.
		for _, res := range results {
			for _, p := range res.progress {
				b.sendProgress(notify.NonceUpdated, p.nonce, p.hash)
			}

			if res.solved {
				b.Nonce = res.nonce
				b.Hash = res.hash
				b.sendProgress(notify.BlockMined, b.Nonce, b.Hash)
				return nil
			}
		}

		next += uint64(workers) * batchSpan
	}
}

// =============================================================================

type noncePoint struct {
	nonce uint64
	hash  string
}

type searchResult struct {
	solved   bool
	nonce    uint64
	hash     string
	progress []noncePoint
}

// search tests every nonce from lo to hi inclusive and stops at the first
// one that solves the puzzle. Hashes for nonces on a progress boundary are
// kept so they can be reported in order later.
func (b *Block[T]) search(ctx context.Context, prefix string, difficulty uint, lo uint64, hi uint64) searchResult {
	var res searchResult

	for nonce := lo; ; nonce++ {
		hash := b.digest(prefix, nonce)

		if nonce%progressEvery == 0 {
			if ctx.Err() != nil {
				return res
			}
			res.progress = append(res.progress, noncePoint{nonce: nonce, hash: hash})
		}

		if isHashSolved(difficulty, hash) {
			res.solved = true
			res.nonce = nonce
			res.hash = hash
			return res
		}

		if nonce == hi {
			return res
		}
	}
}

// sendProgress sends a mining notification for the block.
func (b *Block[T]) sendProgress(kind notify.Kind, nonce uint64, hash string) {
	status := notify.StatusMining
	if kind == notify.BlockMined {
		status = notify.StatusMined
	}

	notify.Send(b.sink, kind, notify.Progress{
		Index:  b.Index,
		Nonce:  nonce,
		Hash:   hash,
		Status: status,
	})
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint, hash string) bool {
	if int(difficulty) > len(hash) {
		return false
	}

	for i := uint(0); i < difficulty; i++ {
		if hash[i] != '0' {
			return false
		}
	}

	return true
}
