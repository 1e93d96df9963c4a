// Package wav is a pure Go media backend for RIFF/WAVE files with integer
// PCM samples. It registers itself as "wav".
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/haivivi/fpcmp/pkg/audio/pcm"
	"github.com/haivivi/fpcmp/pkg/media"
)

// FrameSamples is the number of samples per channel in each frame.
const FrameSamples = 4096

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

func init() {
	media.Register("wav", media.OpenerFunc(func(name string) (media.Decoder, error) {
		d, err := Open(name)
		if err != nil {
			return nil, err
		}
		return d, nil
	}))
}

// Decoder decodes a WAVE stream into PCM frames. 16-bit streams produce
// pcm.S16 frames; 8, 24 and 32-bit streams produce left-justified pcm.S32
// frames.
type Decoder struct {
	file  *os.File
	dec   *wav.Decoder
	info  media.StreamInfo
	shift int
	bias  int
	buf   audio.IntBuffer
	plane []byte
	frame pcm.Frame
	done  bool
}

var _ media.Decoder = (*Decoder)(nil)

// Open opens a WAVE file, or standard input when name is media.StdinToken.
func Open(name string) (*Decoder, error) {
	if name == media.StdinToken {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("%w: stdin: %v", media.ErrOpen, err)
		}
		return NewDecoder(bytes.NewReader(data))
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrOpen, err)
	}
	d, err := NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	d.file = f
	return d, nil
}

// NewDecoder reads the WAVE header from r and prepares it for decoding.
func NewDecoder(r io.ReadSeeker) (*Decoder, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", media.ErrOpen, err)
		}
		return nil, fmt.Errorf("%w: not a valid WAVE file", media.ErrOpen)
	}
	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, fmt.Errorf("%w: unsupported WAVE format 0x%04x", media.ErrDecoderInit, dec.WavAudioFormat)
	}
	if dec.NumChans == 0 {
		return nil, media.ErrNoChannels
	}

	d := &Decoder{dec: dec}
	channels := int(dec.NumChans)
	d.info = media.StreamInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   channels,
		Format:     pcm.S32,
	}
	switch dec.BitDepth {
	case 8:
		d.info.Codec = "pcm_u8"
		d.shift = 24
		d.bias = 128
	case 16:
		d.info.Codec = "pcm_s16le"
		d.info.Format = pcm.S16
	case 24:
		d.info.Codec = "pcm_s24le"
		d.shift = 8
	case 32:
		d.info.Codec = "pcm_s32le"
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", media.ErrDecoderInit, dec.BitDepth)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrOpen, err)
	}
	if frameBytes := channels * int(dec.BitDepth) / 8; dec.SampleRate > 0 {
		frames := int64(dec.PCMSize / frameBytes)
		d.info.Duration = (time.Duration(frames) * time.Second / time.Duration(dec.SampleRate)).Truncate(time.Second)
	}

	d.buf = audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
		Data:   make([]int, FrameSamples*channels),
	}
	d.plane = make([]byte, FrameSamples*channels*d.info.Format.BytesPerSample())
	d.frame = pcm.Frame{Format: d.info.Format, Channels: channels, Planes: [][]byte{nil}}
	return d, nil
}

// Info returns the stream parameters.
func (d *Decoder) Info() media.StreamInfo {
	return d.info
}

// NextFrame returns the next block of up to FrameSamples samples per
// channel, or io.EOF.
func (d *Decoder) NextFrame() (*pcm.Frame, error) {
	if d.dec == nil || d.done {
		return nil, io.EOF
	}
	n, err := d.dec.PCMBuffer(&d.buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("wav: read samples: %w", err)
	}
	samples := n / d.info.Channels
	if samples == 0 {
		d.done = true
		return nil, io.EOF
	}

	total := samples * d.info.Channels
	if d.info.Format == pcm.S16 {
		for i, v := range d.buf.Data[:total] {
			binary.NativeEndian.PutUint16(d.plane[i*2:], uint16(int16(v)))
		}
		d.frame.Planes[0] = d.plane[:total*2]
	} else {
		for i, v := range d.buf.Data[:total] {
			binary.NativeEndian.PutUint32(d.plane[i*4:], uint32(int32(v-d.bias)<<d.shift))
		}
		d.frame.Planes[0] = d.plane[:total*4]
	}
	d.frame.Samples = samples
	return &d.frame, nil
}

// Close releases the underlying file, if any. Safe to call multiple times.
func (d *Decoder) Close() error {
	d.dec = nil
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
