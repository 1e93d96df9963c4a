package chromaprint

import (
	"errors"
	"strings"
	"testing"

	"github.com/haivivi/fpcmp/pkg/fingerprint"
)

const (
	testRate     = 11025
	testChannels = 2
)

func newContext(t *testing.T) *Context {
	t.Helper()
	c, err := New(fingerprint.Default)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// silence fingerprints seconds of zero samples fed in blocks of blockSize.
func silence(t *testing.T, c *Context, seconds, blockSize int) fingerprint.Raw {
	t.Helper()
	if err := c.Start(testRate, testChannels); err != nil {
		t.Fatalf("Start: %v", err)
	}
	block := make([]int16, blockSize)
	remaining := seconds * testRate * testChannels
	for remaining > 0 {
		n := min(remaining, len(block))
		if err := c.Feed(block[:n]); err != nil {
			t.Fatalf("Feed: %v", err)
		}
		remaining -= n
	}
	fp, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return fp
}

func TestSilenceComparesEqual(t *testing.T) {
	c := newContext(t)

	a := silence(t, c, 10, 4096)
	b := silence(t, c, 10, 1000)
	if len(a) == 0 {
		t.Fatal("empty fingerprint")
	}

	score, err := fingerprint.Compare(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if score != 0 {
		t.Errorf("Compare(silence, silence) = %v, want 0", score)
	}
}

func TestFeedBeforeStart(t *testing.T) {
	c := newContext(t)
	if err := c.Feed(make([]int16, 16)); !errors.Is(err, fingerprint.ErrNotStarted) {
		t.Errorf("Feed before Start: err = %v, want ErrNotStarted", err)
	}
}

func TestFeedAfterFinish(t *testing.T) {
	c := newContext(t)
	silence(t, c, 5, 4096)
	if err := c.Feed(make([]int16, 16)); !errors.Is(err, fingerprint.ErrNotStarted) {
		t.Errorf("Feed after Finish: err = %v, want ErrNotStarted", err)
	}
}

func TestFinishWithoutSamples(t *testing.T) {
	c := newContext(t)
	if err := c.Start(testRate, testChannels); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Finish(); !errors.Is(err, fingerprint.ErrFinalize) {
		t.Errorf("Finish without samples: err = %v, want ErrFinalize", err)
	}
}

func TestSetOption(t *testing.T) {
	c := newContext(t)
	if err := c.SetOption("silence_threshold", 100); err != nil {
		t.Errorf("SetOption(silence_threshold): %v", err)
	}
	if err := c.SetOption("no_such_option", 1); err == nil {
		t.Error("SetOption(no_such_option) succeeded")
	}
}

func TestNewInvalidAlgorithm(t *testing.T) {
	if _, err := New(fingerprint.Algorithm(42)); err == nil {
		t.Error("New(42) succeeded")
	}
}

func TestCloseTwice(t *testing.T) {
	c, err := New(fingerprint.Test1)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(testRate, 1); err == nil {
		t.Error("Start after Close succeeded")
	}
}

func TestVersion(t *testing.T) {
	v := Version()
	if v == "" || !strings.Contains(v, ".") {
		t.Errorf("Version() = %q", v)
	}
}
