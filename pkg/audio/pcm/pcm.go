package pcm

import "fmt"

const (
	// U8 is unsigned 8-bit, interleaved.
	U8 SampleFormat = iota
	// S16 is signed 16-bit, interleaved. This is the canonical format.
	S16
	// S32 is signed 32-bit, interleaved.
	S32
	// F32 is 32-bit float in [-1, 1], interleaved.
	F32
	// F64 is 64-bit float in [-1, 1], interleaved.
	F64
	// U8P is unsigned 8-bit, one plane per channel.
	U8P
	// S16P is signed 16-bit, one plane per channel.
	S16P
	// S32P is signed 32-bit, one plane per channel.
	S32P
	// F32P is 32-bit float, one plane per channel.
	F32P
	// F64P is 64-bit float, one plane per channel.
	F64P
)

// SampleFormat describes how a single sample is encoded in memory. Samples
// are stored in native byte order.
type SampleFormat int

// BytesPerSample returns the size of one sample of one channel.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case U8, U8P:
		return 1
	case S16, S16P:
		return 2
	case S32, S32P, F32, F32P:
		return 4
	case F64, F64P:
		return 8
	}
	panic("pcm: invalid sample format")
}

// IsPlanar reports whether each channel is stored in its own plane.
func (f SampleFormat) IsPlanar() bool {
	switch f {
	case U8P, S16P, S32P, F32P, F64P:
		return true
	case U8, S16, S32, F32, F64:
		return false
	}
	panic("pcm: invalid sample format")
}

func (f SampleFormat) valid() bool {
	return f >= U8 && f <= F64P
}

// Packed returns the interleaved variant of f.
func (f SampleFormat) Packed() SampleFormat {
	if f.IsPlanar() {
		return f - U8P
	}
	return f
}

// String returns the conventional short name of the format (e.g. "s16", "fltp").
func (f SampleFormat) String() string {
	switch f {
	case U8:
		return "u8"
	case S16:
		return "s16"
	case S32:
		return "s32"
	case F32:
		return "flt"
	case F64:
		return "dbl"
	case U8P:
		return "u8p"
	case S16P:
		return "s16p"
	case S32P:
		return "s32p"
	case F32P:
		return "fltp"
	case F64P:
		return "dblp"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
}

// Frame is one decoded audio frame. The plane memory is borrowed from the
// decoder and is only valid until the decoder produces its next frame.
type Frame struct {
	Format   SampleFormat
	Channels int

	// Samples is the number of samples per channel.
	Samples int

	// Planes holds a single interleaved plane, or one plane per channel for
	// planar formats.
	Planes [][]byte
}

// planeBytes returns the minimum size of each plane of f.
func (f *Frame) planeBytes() int {
	if f.Format.IsPlanar() {
		return f.Samples * f.Format.BytesPerSample()
	}
	return f.Samples * f.Channels * f.Format.BytesPerSample()
}

func (f *Frame) validate() error {
	if f.Channels <= 0 {
		return fmt.Errorf("pcm: frame has %d channels", f.Channels)
	}
	want := 1
	if f.Format.IsPlanar() {
		want = f.Channels
	}
	if len(f.Planes) < want {
		return fmt.Errorf("pcm: %s frame has %d planes, want %d", f.Format, len(f.Planes), want)
	}
	size := f.planeBytes()
	for i := 0; i < want; i++ {
		if len(f.Planes[i]) < size {
			return fmt.Errorf("pcm: plane %d holds %d bytes, want %d", i, len(f.Planes[i]), size)
		}
	}
	return nil
}

// Block is a run of interleaved signed 16-bit samples.
type Block struct {
	Data     []int16
	Samples  int // per channel
	Channels int
}

// Len returns the number of scalar samples in the block (Samples × Channels).
func (b Block) Len() int {
	return len(b.Data)
}
