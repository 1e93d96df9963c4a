package ffmpeg

/*
#include "compat.h"
*/
import "C"
import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/haivivi/fpcmp/pkg/audio/pcm"
	"github.com/haivivi/fpcmp/pkg/media"
)

// handles owns every native object of a Decoder. It is kept apart from the
// Decoder so it can serve as the cleanup argument.
type handles struct {
	fmtCtx   *C.AVFormatContext
	codecCtx *C.AVCodecContext
	pkt      *C.AVPacket
	frame    *C.AVFrame
}

func (h *handles) free() {
	if h.frame != nil {
		C.av_frame_free(&h.frame)
	}
	if h.pkt != nil {
		C.av_packet_free(&h.pkt)
	}
	if h.codecCtx != nil {
		C.avcodec_free_context(&h.codecCtx)
	}
	if h.fmtCtx != nil {
		C.avformat_close_input(&h.fmtCtx)
	}
}

// Decoder decodes the best audio stream of one input.
// Must call Close() when done to release resources.
type Decoder struct {
	h       *handles
	stream  C.int
	info    media.StreamInfo
	out     pcm.Frame
	pending bool
	flushed bool
	eof     bool
	closed  atomic.Bool
	cleanup runtime.Cleanup
}

var (
	_ media.Decoder           = (*Decoder)(nil)
	_ media.ConverterProvider = (*Decoder)(nil)
)

// Open opens name, selects its best audio stream and opens a decoder for
// it. media.StdinToken reads from standard input.
func Open(name string) (*Decoder, error) {
	h := &handles{}
	d, err := open(h, name)
	if err != nil {
		h.free()
		return nil, err
	}
	d.cleanup = runtime.AddCleanup(d, (*handles).free, h)

	slog.Debug("ffmpeg: opened input",
		"name", name,
		"stream", d.info.Index,
		"codec", d.info.Codec,
		"rate", d.info.SampleRate,
		"channels", d.info.Channels,
		"format", d.info.Format,
		"duration", d.info.Duration,
		"api", CompatAPI())
	return d, nil
}

func open(h *handles, name string) (*Decoder, error) {
	if err := openInput(h, name); err != nil {
		return nil, err
	}
	stream, err := selectAudioStream(h, name)
	if err != nil {
		return nil, err
	}
	st := C.fpcmp_stream(h.fmtCtx, stream)
	if err := openDecoder(h, st); err != nil {
		return nil, err
	}

	channels := int(C.fpcmp_channels(h.codecCtx))
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %s", media.ErrNoChannels, name)
	}
	avfmt := C.enum_AVSampleFormat(h.codecCtx.sample_fmt)
	format, ok := sampleFormat(avfmt)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported sample format %s",
			media.ErrDecoderInit, C.GoString(C.av_get_sample_fmt_name(avfmt)))
	}

	if h.pkt = C.av_packet_alloc(); h.pkt == nil {
		return nil, fmt.Errorf("%w: cannot allocate packet", media.ErrDecoderInit)
	}
	if h.frame = C.av_frame_alloc(); h.frame == nil {
		return nil, fmt.Errorf("%w: cannot allocate frame", media.ErrDecoderInit)
	}

	return &Decoder{
		h:      h,
		stream: stream,
		info: media.StreamInfo{
			Index:      int(stream),
			Codec:      C.GoString(C.avcodec_get_name(st.codecpar.codec_id)),
			SampleRate: int(h.codecCtx.sample_rate),
			Channels:   channels,
			Format:     format,
			Duration:   time.Duration(C.fpcmp_duration(h.fmtCtx, st)) * time.Second,
		},
	}, nil
}

func openInput(h *handles, name string) error {
	url := name
	if name == media.StdinToken {
		url = "pipe:0"
	}
	curl := C.CString(url)
	defer C.free(unsafe.Pointer(curl))

	if ret := C.avformat_open_input(&h.fmtCtx, curl, nil, nil); ret < 0 {
		return fmt.Errorf("%w: %s: %s", media.ErrOpen, name, avErr(ret))
	}
	if ret := C.avformat_find_stream_info(h.fmtCtx, nil); ret < 0 {
		return fmt.Errorf("%w: %s: %s", media.ErrOpen, name, avErr(ret))
	}
	return nil
}

func selectAudioStream(h *handles, name string) (C.int, error) {
	ret := C.av_find_best_stream(h.fmtCtx, C.AVMEDIA_TYPE_AUDIO, -1, -1, nil, 0)
	if ret < 0 {
		return 0, fmt.Errorf("%w: %s: %s", media.ErrNoAudioStream, name, avErr(ret))
	}
	return ret, nil
}

func openDecoder(h *handles, st *C.AVStream) error {
	codec := C.avcodec_find_decoder(st.codecpar.codec_id)
	if codec == nil {
		return fmt.Errorf("%w: no decoder for %s",
			media.ErrDecoderInit, C.GoString(C.avcodec_get_name(st.codecpar.codec_id)))
	}
	if h.codecCtx = C.avcodec_alloc_context3(codec); h.codecCtx == nil {
		return fmt.Errorf("%w: cannot allocate codec context", media.ErrDecoderInit)
	}
	if ret := C.avcodec_parameters_to_context(h.codecCtx, st.codecpar); ret < 0 {
		return fmt.Errorf("%w: %s", media.ErrDecoderInit, avErr(ret))
	}
	h.codecCtx.request_sample_fmt = C.AV_SAMPLE_FMT_S16
	if ret := C.avcodec_open2(h.codecCtx, codec, nil); ret < 0 {
		return fmt.Errorf("%w: %s", media.ErrDecoderInit, avErr(ret))
	}
	return nil
}

// Info returns the selected stream.
func (d *Decoder) Info() media.StreamInfo {
	return d.info
}

// NextFrame returns the next decoded frame or io.EOF. Packets that fail to
// decode are logged and skipped.
func (d *Decoder) NextFrame() (*pcm.Frame, error) {
	if d.closed.Load() {
		return nil, errors.New("ffmpeg: decoder is closed")
	}
	if d.eof {
		return nil, io.EOF
	}

	for {
		ret := C.avcodec_receive_frame(d.h.codecCtx, d.h.frame)
		switch {
		case ret >= 0:
			return d.wrap()
		case C.fpcmp_is_eof(ret) != 0:
			d.eof = true
			return nil, io.EOF
		case C.fpcmp_is_eagain(ret) == 0:
			slog.Warn("ffmpeg: skipping frame",
				"stream", d.info.Index,
				"error", fmt.Errorf("%w: %s", media.ErrFrameDecode, avErr(ret)))
		}
		if d.flushed {
			d.eof = true
			return nil, io.EOF
		}
		if err := d.sendPacket(); err != nil {
			return nil, err
		}
	}
}

// sendPacket feeds the next packet of the selected stream to the decoder,
// or the flush packet at end of input. A packet refused with EAGAIN stays in
// d.h.pkt and is sent again on the next call.
func (d *Decoder) sendPacket() error {
	for {
		resend := d.pending
		if !resend {
			ret := C.av_read_frame(d.h.fmtCtx, d.h.pkt)
			if ret < 0 {
				if C.fpcmp_is_eof(ret) == 0 {
					return fmt.Errorf("ffmpeg: read packet: %s", avErr(ret))
				}
				d.flush()
				return nil
			}
			if d.h.pkt.stream_index != d.stream {
				C.av_packet_unref(d.h.pkt)
				continue
			}
		}

		ret := C.avcodec_send_packet(d.h.codecCtx, d.h.pkt)
		if C.fpcmp_is_eagain(ret) != 0 {
			if resend {
				return errors.New("ffmpeg: decoder accepts neither input nor output")
			}
			d.pending = true
			return nil
		}
		d.pending = false
		C.av_packet_unref(d.h.pkt)
		if ret < 0 {
			slog.Warn("ffmpeg: skipping packet",
				"stream", d.info.Index,
				"error", fmt.Errorf("%w: %s", media.ErrFrameDecode, avErr(ret)))
			continue
		}
		return nil
	}
}

// flush enters draining mode. The decoder then returns its buffered frames
// followed by EOF.
func (d *Decoder) flush() {
	d.flushed = true
	if ret := C.avcodec_send_packet(d.h.codecCtx, nil); ret < 0 && C.fpcmp_is_eof(ret) == 0 {
		slog.Warn("ffmpeg: flush decoder",
			"stream", d.info.Index,
			"error", avErr(ret))
	}
}

// wrap exposes the current AVFrame as a pcm.Frame without copying.
func (d *Decoder) wrap() (*pcm.Frame, error) {
	f := d.h.frame
	avfmt := C.enum_AVSampleFormat(f.format)
	format, ok := sampleFormat(avfmt)
	if !ok || format != d.info.Format {
		return nil, fmt.Errorf("ffmpeg: frame format %s differs from stream format %s",
			C.GoString(C.av_get_sample_fmt_name(avfmt)), d.info.Format)
	}

	samples := int(f.nb_samples)
	planes := 1
	size := samples * d.info.Channels * format.BytesPerSample()
	if format.IsPlanar() {
		planes = d.info.Channels
		size = samples * format.BytesPerSample()
	}

	d.out.Format = format
	d.out.Channels = d.info.Channels
	d.out.Samples = samples
	data := unsafe.Slice(f.extended_data, planes)
	d.out.Planes = d.out.Planes[:0]
	for i := 0; i < planes; i++ {
		d.out.Planes = append(d.out.Planes, unsafe.Slice((*byte)(unsafe.Pointer(data[i])), size))
	}
	return &d.out, nil
}

// NewConverter returns a libswresample converter for the stream's sample
// format.
func (d *Decoder) NewConverter() (pcm.Converter, error) {
	if d.closed.Load() {
		return nil, fmt.Errorf("%w: decoder is closed", pcm.ErrConverterInit)
	}
	return newSwrConverter(d.h.codecCtx, d.info.Format, d.info.Channels)
}

// Close releases all native resources. Safe to call multiple times.
func (d *Decoder) Close() error {
	if d.closed.CompareAndSwap(false, true) {
		d.cleanup.Stop()
		d.h.free()
		d.out.Planes = nil
	}
	return nil
}

func sampleFormat(f C.enum_AVSampleFormat) (pcm.SampleFormat, bool) {
	switch f {
	case C.AV_SAMPLE_FMT_U8:
		return pcm.U8, true
	case C.AV_SAMPLE_FMT_S16:
		return pcm.S16, true
	case C.AV_SAMPLE_FMT_S32:
		return pcm.S32, true
	case C.AV_SAMPLE_FMT_FLT:
		return pcm.F32, true
	case C.AV_SAMPLE_FMT_DBL:
		return pcm.F64, true
	case C.AV_SAMPLE_FMT_U8P:
		return pcm.U8P, true
	case C.AV_SAMPLE_FMT_S16P:
		return pcm.S16P, true
	case C.AV_SAMPLE_FMT_S32P:
		return pcm.S32P, true
	case C.AV_SAMPLE_FMT_FLTP:
		return pcm.F32P, true
	case C.AV_SAMPLE_FMT_DBLP:
		return pcm.F64P, true
	}
	return 0, false
}
