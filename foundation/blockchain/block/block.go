// Package block implements a single block of the chain along with the proof
// of work needed to seal it.
package block

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/notify"
)

// Canonical converts a block's data into the text form that is hashed.
type Canonical[T any] func(data T) string

// Text is the default Canonical function. It uses the default format of
// the value, which for a string is the string itself.
func Text[T any](data T) string {
	return fmt.Sprint(data)
}

// =============================================================================

// Option represents a function that configures a block at construction.
type Option[T any] func(b *Block[T])

// WithTimeStamp sets the block's timestamp in milliseconds since the
// Unix epoch instead of capturing the current time.
func WithTimeStamp[T any](ms uint64) Option[T] {
	return func(b *Block[T]) {
		b.TimeStamp = ms
		b.stamped = true
	}
}

// WithClock sets the function used to capture the block's timestamp.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(b *Block[T]) {
		b.now = now
	}
}

// WithSink sets where the block sends its notifications.
func WithSink[T any](sink notify.Sink) Option[T] {
	return func(b *Block[T]) {
		b.sink = sink
	}
}

// WithCanonical sets how the block's data is converted to text for hashing.
func WithCanonical[T any](canonical Canonical[T]) Option[T] {
	return func(b *Block[T]) {
		b.canonical = canonical
	}
}

// WithHashFunc sets the hash function used to compute the digest.
func WithHashFunc[T any](fn HashFunc) Option[T] {
	return func(b *Block[T]) {
		b.hashFn = fn
	}
}

// =============================================================================

// Block represents a record in the chain. Once mined a block is considered
// sealed, but the fields remain exported and any change made to them will
// be caught by validating the chain.
type Block[T any] struct {
	Index     uint64 // Position of the block in the chain, 0 is genesis.
	TimeStamp uint64 // Milliseconds since the Unix epoch, UTC.
	Data      T      // Opaque payload, never interpreted.
	PrevHash  string // Hash of the previous block, "0" for genesis.
	Nonce     uint64 // Value identified to solve the hash solution.
	Hash      string // Digest of all the fields above.

	stamped   bool
	now       func() time.Time
	sink      notify.Sink
	canonical Canonical[T]
	hashFn    HashFunc
}

// New constructs a block, computes its hash and sends a BlockCreated
// notification. All inputs are accepted as is.
func New[T any](index uint64, data T, prevHash string, opts ...Option[T]) *Block[T] {
	b := Block[T]{
		Index:     index,
		Data:      data,
		PrevHash:  prevHash,
		now:       time.Now,
		sink:      notify.Nop{},
		canonical: Text[T],
		hashFn:    SHA256,
	}

	for _, opt := range opts {
		opt(&b)
	}

	if !b.stamped {
		b.TimeStamp = uint64(b.now().UTC().UnixMilli())
	}

	b.Hash = b.Digest()

	notify.Send(b.sink, notify.BlockCreated, notify.Created{
		Index:     b.Index,
		TimeStamp: b.TimeStamp,
		Data:      b.Data,
		PrevHash:  b.PrevHash,
		Nonce:     b.Nonce,
		Hash:      b.Hash,
		Status:    notify.StatusCreated,
	})

	return &b
}

// Digest computes the hash of the block from its current field values. It
// has no side effects.
func (b *Block[T]) Digest() string {
	return b.digest(b.prefix(), b.Nonce)
}

// prefix returns the canonical text of every field that comes before the
// nonce. It doesn't change during mining so it is only built once.
func (b *Block[T]) prefix() string {
	canonical := b.canonical
	if canonical == nil {
		canonical = Text[T]
	}

	return fmt.Sprintf("%d%d%s%s", b.Index, b.TimeStamp, canonical(b.Data), b.PrevHash)
}

// digest hashes the prefix with the specified nonce appended.
func (b *Block[T]) digest(prefix string, nonce uint64) string {
	buf := make([]byte, 0, len(prefix)+20)
	buf = append(buf, prefix...)
	buf = strconv.AppendUint(buf, nonce, 10)

	if b.hashFn == nil {
		return SHA256(buf)
	}

	return b.hashFn(buf)
}

// =============================================================================

// Record is the field mapping of a block used for display and encoding.
type Record[T any] struct {
	Index     uint64 `json:"index"`
	TimeStamp uint64 `json:"timestamp"`
	Data      T      `json:"data"`
	PrevHash  string `json:"previous_hash"`
	Nonce     uint64 `json:"nonce"`
	Hash      string `json:"hash"`
}

// Record returns the field mapping for the block.
func (b *Block[T]) Record() Record[T] {
	return Record[T]{
		Index:     b.Index,
		TimeStamp: b.TimeStamp,
		Data:      b.Data,
		PrevHash:  b.PrevHash,
		Nonce:     b.Nonce,
		Hash:      b.Hash,
	}
}

// String implements the fmt.Stringer interface for logging.
func (b *Block[T]) String() string {
	return fmt.Sprintf("blk[%d]: nonce[%d]: prev[%s]: hash[%s]", b.Index, b.Nonce, b.PrevHash, b.Hash)
}
