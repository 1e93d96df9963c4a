// Package fingerprint defines the streaming acoustic fingerprint contract
// and the bitwise comparison of raw fingerprints.
//
// An Accumulator consumes interleaved signed 16-bit samples and produces a
// Raw fingerprint, an ordered sequence of 32-bit words. Two Raw values of
// possibly different length are compared with Compare:
//
//	score, err := fingerprint.Compare(a, b)
//
// The score is a normalized Hamming distance in [0, 1], where 0 means the
// fingerprints are identical.
package fingerprint

import "errors"

var (
	// ErrNotStarted is returned when an Accumulator is fed or finished
	// before Start.
	ErrNotStarted = errors.New("fingerprint: accumulator not started")

	// ErrFeed is returned when the algorithm rejects a block of samples.
	ErrFeed = errors.New("fingerprint: feed rejected")

	// ErrFinalize is returned when no samples were fed, finalization
	// fails, or the resulting fingerprint is empty.
	ErrFinalize = errors.New("fingerprint: cannot finalize")

	// ErrEmpty is returned by Compare when both fingerprints are empty.
	ErrEmpty = errors.New("fingerprint: nothing to compare")
)

// Raw is a raw fingerprint. It is owned by the caller and must not be
// modified once returned by an Accumulator.
type Raw []uint32

// Accumulator is a stateful streaming fingerprint computation.
//
// Start resets all state, so one Accumulator can fingerprint several inputs
// in sequence. Feed takes interleaved samples; len(samples) is the scalar
// sample count (samples per channel × channels).
type Accumulator interface {
	Start(sampleRate, channels int) error
	Feed(samples []int16) error
	Finish() (Raw, error)
}
