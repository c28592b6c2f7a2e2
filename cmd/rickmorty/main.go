// Package main provides the entry point for the rickmorty CLI.
package main

import (
	"github.com/colthorp/rickmorty-cli-go/internal/cli"
)

func main() {
	cli.Execute()
}
