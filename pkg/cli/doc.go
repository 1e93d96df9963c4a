// Package cli provides output and terminal helpers shared by fpcmp
// commands.
//
// Results go to stdout in one of the OutputFormat encodings; diagnostics go
// to stderr through the Print helpers:
//
//	cli.PrintWarning("unknown algorithm %q, using %s", name, fingerprint.Default)
//	cli.Output(report, cli.OutputOptions{Format: cli.FormatJSON})
package cli
