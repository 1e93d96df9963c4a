package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrConverterInit is returned when a sample format converter cannot be
// created.
var ErrConverterInit = errors.New("pcm: cannot create sample converter")

// Converter converts decoded frames to interleaved signed 16-bit samples. The
// sample rate and channel layout are preserved, only the sample format
// changes.
type Converter interface {
	// Convert writes f.Samples×f.Channels samples into dst and returns the
	// number of samples per channel written. dst must be large enough.
	Convert(dst []int16, f *Frame) (int, error)

	// Close releases converter resources.
	Close() error
}

// goConverter is a pure Go Converter for all SampleFormats.
type goConverter struct {
	format   SampleFormat
	channels int
	read     func(b []byte) int16
}

// NewConverter returns a pure Go Converter from format to interleaved S16.
func NewConverter(format SampleFormat, channels int) (Converter, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrConverterInit, channels)
	}
	if !format.valid() {
		return nil, fmt.Errorf("%w: unsupported format %s", ErrConverterInit, format)
	}
	var read func([]byte) int16
	switch format.Packed() {
	case U8:
		read = func(b []byte) int16 { return (int16(b[0]) - 128) << 8 }
	case S16:
		read = func(b []byte) int16 { return int16(binary.NativeEndian.Uint16(b)) }
	case S32:
		read = func(b []byte) int16 { return int16(int32(binary.NativeEndian.Uint32(b)) >> 16) }
	case F32:
		read = func(b []byte) int16 {
			return floatToS16(float64(math.Float32frombits(binary.NativeEndian.Uint32(b))))
		}
	case F64:
		read = func(b []byte) int16 {
			return floatToS16(math.Float64frombits(binary.NativeEndian.Uint64(b)))
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %s", ErrConverterInit, format)
	}
	return &goConverter{format: format, channels: channels, read: read}, nil
}

func (c *goConverter) Convert(dst []int16, f *Frame) (int, error) {
	if f.Format != c.format || f.Channels != c.channels {
		return 0, fmt.Errorf("pcm: converter for %s/%dch got %s/%dch frame",
			c.format, c.channels, f.Format, f.Channels)
	}
	if err := f.validate(); err != nil {
		return 0, err
	}
	total := f.Samples * f.Channels
	if len(dst) < total {
		return 0, fmt.Errorf("pcm: output holds %d samples, want %d", len(dst), total)
	}

	bps := f.Format.BytesPerSample()
	if f.Format.IsPlanar() {
		for ch := 0; ch < f.Channels; ch++ {
			plane := f.Planes[ch]
			for i := 0; i < f.Samples; i++ {
				dst[i*f.Channels+ch] = c.read(plane[i*bps:])
			}
		}
		return f.Samples, nil
	}

	plane := f.Planes[0]
	for i := 0; i < total; i++ {
		dst[i] = c.read(plane[i*bps:])
	}
	return f.Samples, nil
}

func (c *goConverter) Close() error {
	return nil
}

// floatToS16 scales a [-1, 1] float sample to int16, rounding half to even
// and clipping out-of-range values.
func floatToS16(v float64) int16 {
	s := math.RoundToEven(v * 32768)
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}
