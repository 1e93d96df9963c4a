package commands

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/fpcmp/cmd/fpcmp/internal/build"
	"github.com/haivivi/fpcmp/cmd/fpcmp/internal/config"
	"github.com/haivivi/fpcmp/pkg/cli"
	"github.com/haivivi/fpcmp/pkg/fingerprint"
	"github.com/haivivi/fpcmp/pkg/fingerprint/chromaprint"
	"github.com/haivivi/fpcmp/pkg/fpcmp"
	"github.com/haivivi/fpcmp/pkg/media"
	"github.com/haivivi/fpcmp/pkg/media/ffmpeg"
	_ "github.com/haivivi/fpcmp/pkg/media/wav"
)

// settings is the effective configuration: the config file with explicit
// flags applied on top.
type settings struct {
	length    int
	algorithm string
	options   map[string]int
	format    cli.OutputFormat
	decoder   string
}

func resolveSettings(cmd *cobra.Command, cfg *config.Config) (*settings, error) {
	flags := cmd.Flags()
	s := &settings{
		length:    cfg.Length,
		algorithm: cfg.Algorithm,
		options:   maps.Clone(cfg.Options),
		decoder:   cfg.Decoder,
	}
	if s.options == nil {
		s.options = make(map[string]int)
	}
	if flags.Changed("length") {
		s.length = length
	}
	if flags.Changed("algo") {
		s.algorithm = algorithm
	}
	if flags.Changed("decoder") {
		s.decoder = decoder
	}

	name := cfg.Format
	if flags.Changed("format") {
		name = format
	}
	f, err := cli.ParseFormat(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	s.format = f

	set, err := parseOptions(options)
	if err != nil {
		return nil, err
	}
	maps.Copy(s.options, set)
	return s, nil
}

func setupLogging(w io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func run(cmd *cobra.Command, args []string) error {
	cli.Stderr = cmd.ErrOrStderr()
	if version {
		printVersion(cmd.OutOrStdout())
		return nil
	}
	setupLogging(cmd.ErrOrStderr())

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Path != "" {
		slog.Debug("loaded config", "path", cfg.Path)
	}
	s, err := resolveSettings(cmd, cfg)
	if err != nil {
		return err
	}

	opener, err := media.Lookup(s.decoder)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	alg, ok := fingerprint.ParseAlgorithm(s.algorithm)
	if !ok {
		cli.PrintWarning("unknown algorithm %q, using %s", s.algorithm, fingerprint.Default)
	}
	acc, err := chromaprint.New(alg)
	if err != nil {
		return err
	}
	defer acc.Close()
	for _, key := range slices.Sorted(maps.Keys(s.options)) {
		if err := acc.SetOption(key, s.options[key]); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
	}

	slog.Debug("comparing",
		"decoder", s.decoder,
		"algorithm", acc.Algorithm(),
		"length", s.length,
		"options", s.options)

	e := &fpcmp.Extractor{
		Opener:      opener,
		Accumulator: acc,
		MaxLength:   time.Duration(s.length) * time.Second,
	}
	res, err := e.Compare(args[0], args[1])
	if err != nil {
		return err
	}
	for _, file := range res.Files {
		cli.PrintVerbose(verbose, "%s: %d fingerprint items", file.Name, len(file.Fingerprint))
	}
	return writeResult(cmd.OutOrStdout(), s.format, res)
}

type fileReport struct {
	Name   string `json:"name" yaml:"name"`
	Length int    `json:"length" yaml:"length"`
}

type report struct {
	Score float64      `json:"score" yaml:"score"`
	Files []fileReport `json:"files" yaml:"files"`
}

func writeResult(w io.Writer, f cli.OutputFormat, res *fpcmp.Result) error {
	if f == cli.FormatRaw {
		return cli.Output(res.Score, cli.OutputOptions{Format: f, Writer: w})
	}
	r := report{Score: res.Score}
	for _, file := range res.Files {
		r.Files = append(r.Files, fileReport{Name: file.Name, Length: len(file.Fingerprint)})
	}
	return cli.Output(r, cli.OutputOptions{Format: f, Writer: w})
}

func printVersion(w io.Writer) {
	fmt.Fprintln(w, build.String())
	fmt.Fprintf(w, "  chromaprint: %s\n", chromaprint.Version())
	fmt.Fprintf(w, "  libavcodec:  %s (%s)\n", ffmpeg.Version(), ffmpeg.CompatAPI())
	fmt.Fprintf(w, "  go:          %s\n", runtime.Version())
}
