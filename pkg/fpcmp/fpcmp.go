// Package fpcmp extracts acoustic fingerprints from media inputs and
// compares them pairwise.
//
// An Extractor wires a media.Opener to a fingerprint.Accumulator:
//
//	ctx, _ := chromaprint.New(fingerprint.Default)
//	defer ctx.Close()
//	e := &fpcmp.Extractor{
//	    Opener:      opener,
//	    Accumulator: ctx,
//	    MaxLength:   120 * time.Second,
//	}
//	res, err := e.Compare("a.mp3", "b.flac")
//
// Inputs are processed one after the other. A failure in one input never
// stops the other from being processed.
package fpcmp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/haivivi/fpcmp/pkg/audio/pcm"
	"github.com/haivivi/fpcmp/pkg/fingerprint"
	"github.com/haivivi/fpcmp/pkg/media"
)

// ErrComparisonUnavailable is returned by Compare when at least one input
// could not be fingerprinted.
var ErrComparisonUnavailable = errors.New("fpcmp: comparison unavailable")

// Extractor decodes inputs and feeds them to an Accumulator.
type Extractor struct {
	Opener      media.Opener
	Accumulator fingerprint.Accumulator

	// MaxLength limits how much audio of each input is analyzed. Zero or
	// negative means the whole input.
	MaxLength time.Duration

	// Logger receives diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// budget returns the number of scalar samples to analyze, and whether
// there is a limit at all.
func (e *Extractor) budget(info media.StreamInfo) (int, bool) {
	if e.MaxLength <= 0 {
		return 0, false
	}
	return int(e.MaxLength.Seconds() * float64(info.SampleRate*info.Channels)), true
}

// Extract fingerprints a single input.
func (e *Extractor) Extract(name string) (fingerprint.Raw, error) {
	dec, err := e.Opener.Open(name)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	info := dec.Info()
	if info.Channels <= 0 {
		return nil, fmt.Errorf("%w: %s", media.ErrNoChannels, name)
	}

	var newConverter func() (pcm.Converter, error)
	if p, ok := dec.(media.ConverterProvider); ok {
		newConverter = p.NewConverter
	}
	norm, err := pcm.NewNormalizer(info.Format, info.Channels, newConverter)
	if err != nil {
		return nil, err
	}
	defer norm.Close()

	if err := e.Accumulator.Start(info.SampleRate, info.Channels); err != nil {
		return nil, err
	}

	remaining, limited := e.budget(info)
	fed := 0
	for !limited || remaining > 0 {
		f, err := dec.NextFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		b, err := norm.Normalize(f)
		if err != nil {
			return nil, err
		}

		data := b.Data
		if limited && len(data) > remaining {
			data = data[:remaining]
		}
		if err := e.Accumulator.Feed(data); err != nil {
			return nil, err
		}
		fed += len(data)
		if limited {
			remaining -= len(data)
		}
	}

	fp, err := e.Accumulator.Finish()
	if err != nil {
		return nil, err
	}
	if len(fp) == 0 {
		return nil, fmt.Errorf("%w: empty fingerprint", fingerprint.ErrFinalize)
	}

	e.logger().Debug("fpcmp: fingerprinted",
		"file", name,
		"codec", info.Codec,
		"rate", info.SampleRate,
		"channels", info.Channels,
		"duration", info.Duration,
		"passthrough", norm.Passthrough(),
		"samples", fed,
		"length", len(fp))
	return fp, nil
}

// FileResult is the outcome of fingerprinting one input.
type FileResult struct {
	Name        string
	Fingerprint fingerprint.Raw
	Err         error
}

// Result joins the outcomes of both inputs. Score is only meaningful when
// Failures is zero.
type Result struct {
	Files    [2]FileResult
	Failures int
	Score    float64
}

// Compare fingerprints a and b and scores their difference. When either
// input fails, the partial Result is returned together with an error
// wrapping ErrComparisonUnavailable.
func (e *Extractor) Compare(a, b string) (*Result, error) {
	res := &Result{}
	for i, name := range [2]string{a, b} {
		fp, err := e.Extract(name)
		res.Files[i] = FileResult{Name: name, Fingerprint: fp, Err: err}
		if err != nil {
			res.Failures++
			e.logger().Error("fpcmp: cannot fingerprint", "file", name, "error", err)
		}
	}
	if res.Failures > 0 {
		return res, fmt.Errorf("%w: %d of 2 inputs failed", ErrComparisonUnavailable, res.Failures)
	}

	score, err := fingerprint.Compare(res.Files[0].Fingerprint, res.Files[1].Fingerprint)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrComparisonUnavailable, err)
	}
	res.Score = score
	return res, nil
}
