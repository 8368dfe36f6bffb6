// Command healthwatch runs the health and alert monitor.
//
// Usage:
//
//	healthwatch serve --config healthwatch.yaml
//	healthwatch check --config healthwatch.yaml
//	healthwatch validate --config healthwatch.yaml
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// exitError carries a process exit code without printing an error.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
