// Command datacore is the entry point for the local document index.
package main

import (
	"os"

	"github.com/veldt-labs/datacore/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
