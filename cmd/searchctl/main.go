// Package main implements searchctl. Most commands load a catalog file into
// an in-process engine and query it; loadtest drives a running service.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
