// This program mines, tampers with and prints proof of work chains from
// the command line.
package main

import (
	"fmt"
	"os"

	"github.com/ardanlabs/powledger/app/tooling/chain/cmd"
	"github.com/ardanlabs/powledger/foundation/logger"
)

func main() {

	// Construct the application logger. Notifications go to stderr so the
	// chain output on stdout can be piped.
	log, err := logger.New("CHAIN", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cmd.Execute(log, os.Args[1:]); err != nil {
		log.Errorw("chain", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}
