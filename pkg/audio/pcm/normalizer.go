package pcm

import (
	"errors"
	"fmt"
	"unsafe"
)

// ErrFormatChanged is returned when a frame does not match the format the
// Normalizer was created for.
var ErrFormatChanged = errors.New("pcm: frame format changed mid-stream")

// ErrShortConversion is returned when a Converter writes fewer samples than
// the frame holds.
var ErrShortConversion = errors.New("pcm: converter dropped samples")

// Normalizer turns decoded frames into interleaved S16 Blocks.
//
// When the source is already S16 no converter is created and frames are
// reinterpreted in place. Otherwise frames are converted into an internal
// buffer that grows on demand and is never shrunk. The Data of a returned
// Block is only valid until the next call to Normalize.
type Normalizer struct {
	format      SampleFormat
	channels    int
	passthrough bool
	conv        Converter
	buf         []int16
}

// NewNormalizer creates a Normalizer for frames of the given format and
// channel count. newConverter is called only when format is not S16; a nil
// newConverter selects the pure Go converter.
func NewNormalizer(format SampleFormat, channels int, newConverter func() (Converter, error)) (*Normalizer, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrConverterInit, channels)
	}
	n := &Normalizer{format: format, channels: channels, passthrough: format == S16}
	if n.passthrough {
		return n, nil
	}

	var (
		conv Converter
		err  error
	)
	if newConverter != nil {
		conv, err = newConverter()
	} else {
		conv, err = NewConverter(format, channels)
	}
	if err != nil {
		if errors.Is(err, ErrConverterInit) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrConverterInit, err)
	}
	n.conv = conv
	return n, nil
}

// Passthrough reports whether frames are reinterpreted without conversion.
func (n *Normalizer) Passthrough() bool {
	return n.passthrough
}

// Normalize converts f into a Block with Block.Samples equal to f.Samples.
// A converter that writes fewer samples yields ErrShortConversion.
func (n *Normalizer) Normalize(f *Frame) (Block, error) {
	if f.Format != n.format || f.Channels != n.channels {
		return Block{}, fmt.Errorf("%w: want %s/%dch, got %s/%dch",
			ErrFormatChanged, n.format, n.channels, f.Format, f.Channels)
	}
	if f.Samples == 0 {
		return Block{Channels: n.channels}, nil
	}

	total := f.Samples * f.Channels
	if n.passthrough {
		if err := f.validate(); err != nil {
			return Block{}, err
		}
		data := unsafe.Slice((*int16)(unsafe.Pointer(unsafe.SliceData(f.Planes[0]))), total)
		return Block{Data: data, Samples: f.Samples, Channels: f.Channels}, nil
	}

	if n.conv == nil {
		return Block{}, errors.New("pcm: normalizer is closed")
	}
	if cap(n.buf) < total {
		n.buf = make([]int16, total)
	}
	out := n.buf[:total]
	written, err := n.conv.Convert(out, f)
	if err != nil {
		return Block{}, err
	}
	if written != f.Samples {
		return Block{}, fmt.Errorf("%w: wrote %d of %d", ErrShortConversion, written, f.Samples)
	}
	return Block{Data: out, Samples: f.Samples, Channels: f.Channels}, nil
}

// Close releases the converter, if any. It is safe to call more than once.
func (n *Normalizer) Close() error {
	if n.conv == nil {
		return nil
	}
	err := n.conv.Close()
	n.conv = nil
	n.buf = nil
	return err
}
