// rate-engine CLI entry point
package main

import (
	"fmt"
	"os"

	"rate-engine/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
