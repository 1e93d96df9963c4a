// Package media defines the decoder contract used to turn audio inputs into
// PCM frames, and a registry of decoder backends.
//
// A backend registers an Opener under a name from init():
//
//	func init() {
//	    media.Register("wav", media.OpenerFunc(Open))
//	}
//
// Callers resolve it with Lookup and drain frames until io.EOF:
//
//	dec, err := opener.Open("song.flac")
//	if err != nil {
//	    return err
//	}
//	defer dec.Close()
//	for {
//	    f, err := dec.NextFrame()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
package media

import (
	"errors"
	"time"

	"github.com/haivivi/fpcmp/pkg/audio/pcm"
)

// StdinToken is the input name that selects standard input.
const StdinToken = "-"

var (
	// ErrOpen is returned when an input cannot be read or its container
	// is not recognized.
	ErrOpen = errors.New("media: cannot open input")

	// ErrNoAudioStream is returned when an input has no audio stream.
	ErrNoAudioStream = errors.New("media: no audio stream")

	// ErrDecoderInit is returned when no decoder can be set up for the
	// selected stream.
	ErrDecoderInit = errors.New("media: cannot open decoder")

	// ErrNoChannels is returned when the selected stream reports no
	// channels.
	ErrNoChannels = errors.New("media: stream has no channels")

	// ErrFrameDecode marks a single packet that failed to decode. Backends
	// log and skip it; it is never returned from NextFrame.
	ErrFrameDecode = errors.New("media: frame decode failed")
)

// StreamInfo describes the selected audio stream of an input. SampleRate
// and Channels never change for the lifetime of a Decoder.
type StreamInfo struct {
	Index      int
	Codec      string
	SampleRate int
	Channels   int
	Format     pcm.SampleFormat

	// Duration is truncated to whole seconds and zero when unknown.
	Duration time.Duration
}

// Decoder yields the decoded frames of one audio stream.
type Decoder interface {
	Info() StreamInfo

	// NextFrame returns the next decoded frame, or io.EOF once the stream
	// is drained. The frame is only valid until the next call.
	NextFrame() (*pcm.Frame, error)

	// Close releases the decoder. Calling it more than once is a no-op.
	Close() error
}

// ConverterProvider is implemented by decoders that supply their own
// sample format converter.
type ConverterProvider interface {
	NewConverter() (pcm.Converter, error)
}

// Opener opens named inputs. The name is a path or StdinToken.
type Opener interface {
	Open(name string) (Decoder, error)
}

// OpenerFunc adapts a function to an Opener.
type OpenerFunc func(name string) (Decoder, error)

// Open calls f(name).
func (f OpenerFunc) Open(name string) (Decoder, error) {
	return f(name)
}
