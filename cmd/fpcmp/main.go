// Package main is the entry point for the fpcmp CLI.
//
// Usage:
//
//	fpcmp [flags] <file1|-> <file2|->
//
// fpcmp decodes both inputs, fingerprints them with chromaprint and prints
// their normalized bit difference: 0 for identical fingerprints, 1 for
// completely different ones.
package main

import (
	"os"

	"github.com/haivivi/fpcmp/cmd/fpcmp/commands"
)

func main() {
	os.Exit(commands.Main(os.Args[1:]))
}
