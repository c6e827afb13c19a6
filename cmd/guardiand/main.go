package main

import (
	"fmt"
	"os"

	"github.com/defiguardian/guardian/cmd/guardiand/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "guardiand failed: %v\n", err)
		os.Exit(1)
	}
}
