package fpcmp

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/haivivi/fpcmp/pkg/audio/pcm"
	"github.com/haivivi/fpcmp/pkg/fingerprint"
	"github.com/haivivi/fpcmp/pkg/media"
	"github.com/haivivi/fpcmp/pkg/media/wav"
)

// fakeDecoder serves a fixed number of frames of constant samples.
type fakeDecoder struct {
	info    media.StreamInfo
	frames  int
	samples int // per channel per frame
	failAt  int // NextFrame call that fails, 0 for never

	served    int
	closed    int
	converter bool
	frame     pcm.Frame
}

func (d *fakeDecoder) Info() media.StreamInfo { return d.info }

func (d *fakeDecoder) NextFrame() (*pcm.Frame, error) {
	if d.failAt > 0 && d.served+1 == d.failAt {
		return nil, errors.New("read failed")
	}
	if d.served >= d.frames {
		return nil, io.EOF
	}
	d.served++

	bps := d.info.Format.BytesPerSample()
	plane := make([]byte, d.samples*d.info.Channels*bps)
	for i := 0; i < d.samples*d.info.Channels; i++ {
		switch d.info.Format {
		case pcm.S16:
			binary.NativeEndian.PutUint16(plane[i*2:], uint16(int16(d.served)))
		case pcm.F32:
			binary.NativeEndian.PutUint32(plane[i*4:], math.Float32bits(0.5))
		}
	}
	d.frame = pcm.Frame{
		Format:   d.info.Format,
		Channels: d.info.Channels,
		Samples:  d.samples,
		Planes:   [][]byte{plane},
	}
	return &d.frame, nil
}

func (d *fakeDecoder) Close() error {
	d.closed++
	return nil
}

// convertingDecoder supplies its own converter.
type convertingDecoder struct {
	*fakeDecoder
}

func (d convertingDecoder) NewConverter() (pcm.Converter, error) {
	d.converter = true
	return pcm.NewConverter(d.info.Format, d.info.Channels)
}

// fakeAccumulator records what it was fed. Its fingerprint holds one
// element per 100 scalar samples, all equal to the channel count.
type fakeAccumulator struct {
	started  int
	channels int
	running  bool
	blocks   []int
	first    []int16
	feedErr  error
}

func (a *fakeAccumulator) Start(rate, channels int) error {
	a.started++
	a.channels = channels
	a.running = true
	a.blocks = nil
	a.first = nil
	return nil
}

func (a *fakeAccumulator) Feed(samples []int16) error {
	if !a.running {
		return fingerprint.ErrNotStarted
	}
	if a.feedErr != nil {
		return a.feedErr
	}
	if a.first == nil {
		a.first = append([]int16(nil), samples...)
	}
	a.blocks = append(a.blocks, len(samples))
	return nil
}

func (a *fakeAccumulator) Finish() (fingerprint.Raw, error) {
	if !a.running {
		return nil, fingerprint.ErrNotStarted
	}
	a.running = false
	if a.total() == 0 {
		return nil, fingerprint.ErrFinalize
	}
	fp := make(fingerprint.Raw, 1+a.total()/100)
	for i := range fp {
		fp[i] = uint32(a.channels)
	}
	return fp, nil
}

func (a *fakeAccumulator) total() int {
	n := 0
	for _, b := range a.blocks {
		n += b
	}
	return n
}

func s16Decoder(frames, samples int) *fakeDecoder {
	return &fakeDecoder{
		info:    media.StreamInfo{SampleRate: 100, Channels: 2, Format: pcm.S16},
		frames:  frames,
		samples: samples,
	}
}

func openerOf(decoders map[string]media.Decoder) media.Opener {
	return media.OpenerFunc(func(name string) (media.Decoder, error) {
		d, ok := decoders[name]
		if !ok {
			return nil, media.ErrOpen
		}
		return d, nil
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtract_TruncatesToBudget(t *testing.T) {
	// 1s at 100 Hz stereo is 200 scalar samples; frames carry 128.
	dec := s16Decoder(5, 64)
	acc := &fakeAccumulator{}
	e := &Extractor{
		Opener:      openerOf(map[string]media.Decoder{"a": dec}),
		Accumulator: acc,
		MaxLength:   time.Second,
		Logger:      quietLogger(),
	}

	if _, err := e.Extract("a"); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := acc.total(); got != 200 {
		t.Errorf("fed %d samples, want 200", got)
	}
	if len(acc.blocks) != 2 || acc.blocks[1] != 72 {
		t.Errorf("blocks = %v, want [128 72]", acc.blocks)
	}
	if dec.served != 2 {
		t.Errorf("decoded %d frames, want 2", dec.served)
	}
	if dec.closed != 1 {
		t.Errorf("decoder closed %d times, want 1", dec.closed)
	}
}

func TestExtract_BudgetOnBlockBoundary(t *testing.T) {
	dec := s16Decoder(3, 100)
	acc := &fakeAccumulator{}
	e := &Extractor{
		Opener:      openerOf(map[string]media.Decoder{"a": dec}),
		Accumulator: acc,
		MaxLength:   time.Second,
		Logger:      quietLogger(),
	}

	if _, err := e.Extract("a"); err != nil {
		t.Fatal(err)
	}
	if len(acc.blocks) != 1 || acc.blocks[0] != 200 {
		t.Errorf("blocks = %v, want [200]", acc.blocks)
	}
	if dec.served != 1 {
		t.Errorf("decoded %d frames, want 1", dec.served)
	}
}

func TestExtract_Unlimited(t *testing.T) {
	dec := s16Decoder(5, 64)
	acc := &fakeAccumulator{}
	e := &Extractor{
		Opener:      openerOf(map[string]media.Decoder{"a": dec}),
		Accumulator: acc,
		Logger:      quietLogger(),
	}

	if _, err := e.Extract("a"); err != nil {
		t.Fatal(err)
	}
	if got := acc.total(); got != 5*128 {
		t.Errorf("fed %d samples, want %d", got, 5*128)
	}
	if acc.first[0] != 1 {
		t.Errorf("first sample = %d, want 1", acc.first[0])
	}
}

func TestExtract_ShortInput(t *testing.T) {
	dec := s16Decoder(1, 30)
	acc := &fakeAccumulator{}
	e := &Extractor{
		Opener:      openerOf(map[string]media.Decoder{"a": dec}),
		Accumulator: acc,
		MaxLength:   10 * time.Second,
		Logger:      quietLogger(),
	}

	if _, err := e.Extract("a"); err != nil {
		t.Fatal(err)
	}
	if got := acc.total(); got != 60 {
		t.Errorf("fed %d samples, want 60", got)
	}
}

func TestExtract_UsesDecoderConverter(t *testing.T) {
	fake := &fakeDecoder{
		info:    media.StreamInfo{SampleRate: 100, Channels: 1, Format: pcm.F32},
		frames:  2,
		samples: 50,
	}
	acc := &fakeAccumulator{}
	e := &Extractor{
		Opener:      openerOf(map[string]media.Decoder{"a": convertingDecoder{fake}}),
		Accumulator: acc,
		Logger:      quietLogger(),
	}

	if _, err := e.Extract("a"); err != nil {
		t.Fatal(err)
	}
	if !fake.converter {
		t.Error("decoder converter not used")
	}
	if got := acc.total(); got != 100 {
		t.Errorf("fed %d samples, want 100", got)
	}
	if acc.first[0] != 16384 {
		t.Errorf("first sample = %d, want 16384", acc.first[0])
	}
}

func TestExtract_ClosesDecoderOnError(t *testing.T) {
	tests := []struct {
		name    string
		dec     *fakeDecoder
		feedErr error
		want    error
	}{
		{"read error", &fakeDecoder{
			info: media.StreamInfo{SampleRate: 100, Channels: 1, Format: pcm.S16}, frames: 3, samples: 10, failAt: 2,
		}, nil, nil},
		{"feed error", s16Decoder(3, 10), fingerprint.ErrFeed, fingerprint.ErrFeed},
		{"no channels", &fakeDecoder{
			info: media.StreamInfo{SampleRate: 100, Format: pcm.S16}, frames: 3, samples: 10,
		}, nil, media.ErrNoChannels},
		{"nothing decoded", s16Decoder(0, 10), nil, fingerprint.ErrFinalize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Extractor{
				Opener:      openerOf(map[string]media.Decoder{"a": tt.dec}),
				Accumulator: &fakeAccumulator{feedErr: tt.feedErr},
				MaxLength:   time.Minute,
				Logger:      quietLogger(),
			}
			_, err := e.Extract("a")
			if err == nil {
				t.Fatal("Extract succeeded")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if tt.dec.closed != 1 {
				t.Errorf("decoder closed %d times, want 1", tt.dec.closed)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	acc := &fakeAccumulator{}
	e := &Extractor{
		Opener: openerOf(map[string]media.Decoder{
			"a": s16Decoder(4, 50),
			"b": s16Decoder(4, 50),
		}),
		Accumulator: acc,
		Logger:      quietLogger(),
	}

	res, err := e.Compare("a", "b")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if res.Failures != 0 {
		t.Errorf("Failures = %d, want 0", res.Failures)
	}
	if res.Score != 0 {
		t.Errorf("Score = %v, want 0", res.Score)
	}
	if acc.started != 2 {
		t.Errorf("accumulator started %d times, want 2", acc.started)
	}
	for i, f := range res.Files {
		if f.Err != nil || len(f.Fingerprint) == 0 {
			t.Errorf("Files[%d] = %+v", i, f)
		}
	}
}

func TestCompare_DifferentChannelCounts(t *testing.T) {
	mono := s16Decoder(4, 50)
	mono.info.Channels = 1
	e := &Extractor{
		Opener: openerOf(map[string]media.Decoder{
			"stereo": s16Decoder(2, 50),
			"mono":   mono,
		}),
		Accumulator: &fakeAccumulator{},
		Logger:      quietLogger(),
	}

	res, err := e.Compare("stereo", "mono")
	if err != nil {
		t.Fatal(err)
	}
	// Both fingerprints have 3 elements, differing in two bits each.
	if want := 2.0 / 32; res.Score != want {
		t.Errorf("Score = %v, want %v", res.Score, want)
	}
}

func TestCompare_IndependentFailures(t *testing.T) {
	good := s16Decoder(4, 50)
	opener := media.OpenerFunc(func(name string) (media.Decoder, error) {
		if name == "good" {
			return good, nil
		}
		return wav.Open(name)
	})
	e := &Extractor{
		Opener:      opener,
		Accumulator: &fakeAccumulator{},
		Logger:      quietLogger(),
	}

	missing := filepath.Join(t.TempDir(), "missing.wav")
	res, err := e.Compare(missing, "good")
	if !errors.Is(err, ErrComparisonUnavailable) {
		t.Fatalf("err = %v, want ErrComparisonUnavailable", err)
	}
	if res.Failures != 1 {
		t.Errorf("Failures = %d, want 1", res.Failures)
	}
	if !errors.Is(res.Files[0].Err, media.ErrOpen) {
		t.Errorf("Files[0].Err = %v, want ErrOpen", res.Files[0].Err)
	}
	if res.Files[1].Err != nil || len(res.Files[1].Fingerprint) == 0 {
		t.Errorf("Files[1] = %+v, want a fingerprint", res.Files[1])
	}
	if good.closed != 1 {
		t.Errorf("good decoder closed %d times, want 1", good.closed)
	}
}

func TestCompare_BothFail(t *testing.T) {
	e := &Extractor{
		Opener:      openerOf(nil),
		Accumulator: &fakeAccumulator{},
		Logger:      quietLogger(),
	}
	res, err := e.Compare("x", "y")
	if !errors.Is(err, ErrComparisonUnavailable) {
		t.Fatalf("err = %v, want ErrComparisonUnavailable", err)
	}
	if res.Failures != 2 {
		t.Errorf("Failures = %d, want 2", res.Failures)
	}
}

func TestExtract_WAVBudget(t *testing.T) {
	const rate = 8000
	path := filepath.Join(t.TempDir(), "tone.wav")
	data := make([]int, 3*rate)
	for i := range data {
		data[i] = i % 64
	}
	if err := wav.WriteFile(path, rate, 16, 1, data); err != nil {
		t.Fatal(err)
	}

	acc := &fakeAccumulator{}
	e := &Extractor{
		Opener:      media.OpenerFunc(func(name string) (media.Decoder, error) { return wav.Open(name) }),
		Accumulator: acc,
		MaxLength:   2 * time.Second,
		Logger:      quietLogger(),
	}
	if _, err := e.Extract(path); err != nil {
		t.Fatal(err)
	}
	if got := acc.total(); got != 2*rate {
		t.Errorf("fed %d samples, want %d", got, 2*rate)
	}
	last := acc.blocks[len(acc.blocks)-1]
	if want := 2*rate - (len(acc.blocks)-1)*wav.FrameSamples; last != want {
		t.Errorf("last block = %d, want %d", last, want)
	}
}
