// Package cmd contains the chain tooling commands.
package cmd

import (
	"context"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/block"
	"github.com/ardanlabs/powledger/foundation/blockchain/chain"
	"github.com/ardanlabs/powledger/foundation/blockchain/notify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	difficulty uint
	workers    int
	hashName   string
	verbose    bool
)

// demoData is mined when no block data is provided on the command line.
var demoData = []string{
	"Alice sends 10 BTC to Bob",
	"Bob sends 5 BTC to Charlie",
	"Charlie sends 3 BTC to Alice",
}

// log receives the chain notifications. It is set by Execute.
var log = zap.NewNop().Sugar()

func init() {
	rootCmd.PersistentFlags().UintVarP(&difficulty, "difficulty", "d", 2, "Number of leading zeros a block hash needs.")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 1, "Number of goroutines searching for a nonce.")
	rootCmd.PersistentFlags().StringVar(&hashName, "hash", "sha256", "Hash function: sha256 or keccak256.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log nonce progress while mining.")
}

var rootCmd = &cobra.Command{
	Use:           "chain",
	Short:         "Build, tamper with and inspect a proof of work chain",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command line using the logger for chain notifications.
func Execute(l *zap.SugaredLogger, args []string) error {
	log = l
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

// =============================================================================

// logSink writes chain notifications to the logger. Nonce progress is only
// logged in verbose mode.
func logSink() notify.Sink {
	f := func(kind notify.Kind, payload any) error {
		switch v := payload.(type) {
		case notify.Validated:
			log.Infow(string(kind), "valid", v.Valid, "result", v.String())
		default:
			if kind == notify.NonceUpdated && !verbose {
				return nil
			}
			log.Infow(string(kind), "payload", payload)
		}
		return nil
	}

	return notify.SinkFunc(f)
}

// buildChain mines a genesis block plus one block per data value.
func buildChain(ctx context.Context, data []string) (*chain.Chain[string], error) {
	hashFn, exists := block.HashFuncByName(hashName)
	if !exists {
		return nil, fmt.Errorf("unknown hash function %q", hashName)
	}

	c, err := chain.NewText(ctx, chain.Config[string]{
		Difficulty: difficulty,
		Workers:    workers,
		Sink:       logSink(),
		HashFunc:   hashFn,
	})
	if err != nil {
		return nil, fmt.Errorf("mining genesis: %w", err)
	}

	for _, d := range data {
		if _, err := c.AddBlock(ctx, d); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// dataOrDemo returns the command line data or the demo data if none was given.
func dataOrDemo(args []string) []string {
	if len(args) == 0 {
		return demoData
	}
	return args
}
