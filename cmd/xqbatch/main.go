// Package main is the entry point for the xqbatch CLI tool.
package main

import (
	"os"

	"github.com/roach88/xqbatch/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
