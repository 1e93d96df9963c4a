package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/fpcmp/pkg/cli"
)

// ErrUsage marks errors in the command line itself.
var ErrUsage = errors.New("usage error")

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

var (
	length     int
	algorithm  string
	options    []string
	version    bool
	format     string
	decoder    string
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "fpcmp [flags] <file1|-> <file2|->",
	Short: "Compare the acoustic fingerprints of two audio files",
	Long: `fpcmp - compare two audio files by their chromaprint fingerprints.

Both inputs are decoded, the first --length seconds of each are
fingerprinted, and the fraction of differing fingerprint bits is printed:
0 means identical, 1 means completely different. Use - to read one input
from standard input.

Single-dash long flags (-length 30, -algo test3) are accepted.

Defaults are read from the OS config directory:
  macOS:   ~/Library/Application Support/fpcmp/config.yaml
  Linux:   ~/.config/fpcmp/config.yaml
  Windows: %AppData%/fpcmp/config.yaml
or from the file named by FPCMP_CONFIG or --config.

Examples:
  fpcmp song.mp3 song-live.flac
  fpcmp -length 30 -algo test4 a.wav b.wav
  fpcmp -set silence_threshold=100 --format json a.ogg b.ogg
  cat a.mp3 | fpcmp - b.mp3`,
	Args: func(cmd *cobra.Command, args []string) error {
		if version {
			return nil
		}
		if len(args) != 2 {
			return fmt.Errorf("%w: expected 2 files, got %d", ErrUsage, len(args))
		}
		return nil
	},
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()
	f.IntVar(&length, "length", 120, "seconds of audio to analyze per file, 0 for all")
	f.StringVar(&algorithm, "algo", "default", "fingerprint algorithm: test1..test5 or default")
	f.StringArrayVar(&options, "set", nil, "set a fingerprint option as key=value (repeatable)")
	f.BoolVarP(&version, "version", "v", false, "print version information and exit")
	f.StringVar(&format, "format", "raw", "output format: raw, json or yaml")
	f.StringVar(&decoder, "decoder", "ffmpeg", "media decoder backend: ffmpeg or wav")
	f.StringVar(&configPath, "config", "", "config file (default $FPCMP_CONFIG or the user config dir)")
	f.BoolVar(&verbose, "verbose", false, "log decoding and fingerprinting details")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})
}

// Execute runs the root command with args.
func Execute(args []string) error {
	rootCmd.SetArgs(normalizeArgs(rootCmd.Flags(), args))
	return rootCmd.Execute()
}

// Main runs the command, reports any error on stderr and returns the
// process exit code.
func Main(args []string) int {
	cli.Stderr = rootCmd.ErrOrStderr()
	err := Execute(args)
	code := ExitCode(err)
	switch code {
	case ExitUsage:
		cli.PrintError("%v", err)
		fmt.Fprintf(cli.Stderr, "Usage: %s\nRun 'fpcmp --help' for details.\n", rootCmd.UseLine())
	case ExitFailure:
		cli.PrintError("%v", err)
	}
	return code
}

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	default:
		return ExitFailure
	}
}
