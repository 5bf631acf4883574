// Package main is the entry point for the homeledger CLI.
package main

import (
	"os"

	"github.com/dkuznetsov/homeledger/cmd/homeledger/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
