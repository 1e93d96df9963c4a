// Package chromaprint implements fingerprint.Accumulator with libchromaprint.
package chromaprint

/*
#cgo pkg-config: libchromaprint
#include <chromaprint.h>
#include <stdint.h>
#include <stdlib.h>

// Older releases declare the sample and fingerprint pointers as void.
static int fpcmp_feed(ChromaprintContext *ctx, const int16_t *data, int size) {
    return chromaprint_feed(ctx, data, size);
}

static int fpcmp_raw(ChromaprintContext *ctx, uint32_t **fp, int *size) {
    return chromaprint_get_raw_fingerprint(ctx, (void *)fp, size);
}
*/
import "C"
import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/haivivi/fpcmp/pkg/fingerprint"
)

// Context is a chromaprint fingerprinting context. It is not safe for
// concurrent use. Call Close when done.
type Context struct {
	ctx       *C.ChromaprintContext
	algorithm fingerprint.Algorithm
	started   bool
	fed       int
	closed    atomic.Bool
	cleanup   runtime.Cleanup
}

var _ fingerprint.Accumulator = (*Context)(nil)

func freeContext(ptr uintptr) {
	C.chromaprint_free((*C.ChromaprintContext)(unsafe.Pointer(ptr)))
}

// New creates a context running the given algorithm.
func New(alg fingerprint.Algorithm) (*Context, error) {
	if alg < fingerprint.Test1 || alg > fingerprint.Test5 {
		return nil, fmt.Errorf("chromaprint: invalid algorithm %v", alg)
	}
	ctx := C.chromaprint_new(C.int(alg))
	if ctx == nil {
		return nil, errors.New("chromaprint: failed to create context")
	}
	c := &Context{ctx: ctx, algorithm: alg}
	c.cleanup = runtime.AddCleanup(c, freeContext, uintptr(unsafe.Pointer(ctx)))
	return c, nil
}

// Algorithm returns the algorithm the context was created with.
func (c *Context) Algorithm() fingerprint.Algorithm {
	return c.algorithm
}

// SetOption sets an algorithm option by name, e.g. "silence_threshold".
func (c *Context) SetOption(name string, value int) error {
	if c.ctx == nil {
		return errors.New("chromaprint: context is closed")
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	if C.chromaprint_set_option(c.ctx, cname, C.int(value)) != 1 {
		return fmt.Errorf("chromaprint: cannot set option %s=%d", name, value)
	}
	return nil
}

// Start resets the context for a new stream.
func (c *Context) Start(sampleRate, channels int) error {
	if c.ctx == nil {
		return errors.New("chromaprint: context is closed")
	}
	if C.chromaprint_start(c.ctx, C.int(sampleRate), C.int(channels)) != 1 {
		c.started = false
		return fmt.Errorf("chromaprint: cannot start at %d Hz, %d channels", sampleRate, channels)
	}
	c.started = true
	c.fed = 0
	return nil
}

// Feed appends interleaved samples.
func (c *Context) Feed(samples []int16) error {
	if !c.started {
		return fingerprint.ErrNotStarted
	}
	if len(samples) == 0 {
		return nil
	}
	if C.fpcmp_feed(c.ctx, (*C.int16_t)(unsafe.Pointer(unsafe.SliceData(samples))), C.int(len(samples))) != 1 {
		return fmt.Errorf("%w: %d samples", fingerprint.ErrFeed, len(samples))
	}
	c.fed += len(samples)
	return nil
}

// Finish finalizes the stream and returns a copy of the raw fingerprint.
// The context must be started again before it can be fed.
func (c *Context) Finish() (fingerprint.Raw, error) {
	if !c.started {
		return nil, fingerprint.ErrNotStarted
	}
	c.started = false
	if c.fed == 0 {
		return nil, fmt.Errorf("%w: no samples fed", fingerprint.ErrFinalize)
	}
	if C.chromaprint_finish(c.ctx) != 1 {
		return nil, fmt.Errorf("%w: finish failed", fingerprint.ErrFinalize)
	}

	var (
		fp   *C.uint32_t
		size C.int
	)
	if C.fpcmp_raw(c.ctx, &fp, &size) != 1 {
		return nil, fmt.Errorf("%w: no raw fingerprint", fingerprint.ErrFinalize)
	}
	defer C.chromaprint_dealloc(unsafe.Pointer(fp))
	if size <= 0 || fp == nil {
		return nil, fmt.Errorf("%w: empty fingerprint", fingerprint.ErrFinalize)
	}

	src := unsafe.Slice((*uint32)(unsafe.Pointer(fp)), int(size))
	return append(fingerprint.Raw(nil), src...), nil
}

// Close frees the context. Safe to call multiple times.
func (c *Context) Close() error {
	if c.closed.CompareAndSwap(false, true) && c.ctx != nil {
		c.cleanup.Stop()
		C.chromaprint_free(c.ctx)
		c.ctx = nil
		c.started = false
	}
	return nil
}

// Version returns the libchromaprint version string.
func Version() string {
	return C.GoString(C.chromaprint_get_version())
}
