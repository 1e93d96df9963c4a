package ffmpeg

/*
#include "compat.h"
*/
import "C"
import (
	"fmt"
	"unsafe"

	"github.com/haivivi/fpcmp/pkg/audio/pcm"
)

// swrConverter converts frames to interleaved S16 with libswresample,
// keeping the sample rate and channel layout.
type swrConverter struct {
	swr      *C.SwrContext
	in       **C.uint8_t // C array of channels plane pointers
	format   pcm.SampleFormat
	channels int
}

var _ pcm.Converter = (*swrConverter)(nil)

func newSwrConverter(ctx *C.AVCodecContext, format pcm.SampleFormat, channels int) (*swrConverter, error) {
	swr := C.fpcmp_swr_new(ctx)
	if swr == nil {
		return nil, fmt.Errorf("%w: swresample %s -> s16, %d channels (%s API)",
			pcm.ErrConverterInit, format, channels, CompatAPI())
	}
	in := (**C.uint8_t)(C.calloc(C.size_t(channels), C.size_t(unsafe.Sizeof(uintptr(0)))))
	if in == nil {
		C.swr_free(&swr)
		return nil, fmt.Errorf("%w: out of memory", pcm.ErrConverterInit)
	}
	return &swrConverter{swr: swr, in: in, format: format, channels: channels}, nil
}

// Convert converts f into dst. The frame planes must be owned by FFmpeg.
func (c *swrConverter) Convert(dst []int16, f *pcm.Frame) (int, error) {
	if c.swr == nil {
		return 0, fmt.Errorf("ffmpeg: converter is closed")
	}
	if f.Format != c.format || f.Channels != c.channels {
		return 0, fmt.Errorf("ffmpeg: converter for %s/%dch got %s/%dch frame",
			c.format, c.channels, f.Format, f.Channels)
	}
	planes := 1
	if f.Format.IsPlanar() {
		planes = f.Channels
	}
	if len(f.Planes) < planes {
		return 0, fmt.Errorf("ffmpeg: %s frame has %d planes, want %d", f.Format, len(f.Planes), planes)
	}
	if total := f.Samples * f.Channels; len(dst) < total {
		return 0, fmt.Errorf("ffmpeg: output holds %d samples, want %d", len(dst), total)
	}
	if f.Samples == 0 {
		return 0, nil
	}

	ptrs := unsafe.Slice(c.in, c.channels)
	for i := 0; i < planes; i++ {
		ptrs[i] = (*C.uint8_t)(unsafe.Pointer(unsafe.SliceData(f.Planes[i])))
	}
	n := C.fpcmp_swr_convert(c.swr,
		(*C.int16_t)(unsafe.Pointer(unsafe.SliceData(dst))), C.int(f.Samples),
		c.in, C.int(f.Samples))
	if n < 0 {
		return 0, fmt.Errorf("ffmpeg: swr_convert: %s", avErr(n))
	}
	return int(n), nil
}

// Close frees the resampler. Safe to call multiple times.
func (c *swrConverter) Close() error {
	if c.swr != nil {
		C.swr_free(&c.swr)
	}
	if c.in != nil {
		C.free(unsafe.Pointer(c.in))
		c.in = nil
	}
	return nil
}
