// Package ffmpeg is a media backend built on the FFmpeg libraries. It
// registers itself as "ffmpeg" and reads every container and codec the
// linked libavformat and libavcodec support.
//
// Differences between FFmpeg releases are confined to compat.h; see
// CompatAPI for the variant selected at build time.
package ffmpeg

/*
#cgo pkg-config: libavformat libavcodec libavutil libswresample
#include "compat.h"
*/
import "C"
import (
	"fmt"

	"github.com/haivivi/fpcmp/pkg/media"
)

func init() {
	media.Register("ffmpeg", media.OpenerFunc(func(name string) (media.Decoder, error) {
		d, err := Open(name)
		if err != nil {
			return nil, err
		}
		return d, nil
	}))
}

// CompatAPI names the channel layout API this build uses: "ch_layout" for
// FFmpeg 5.1 and later, "channel_layout" before.
func CompatAPI() string {
	return C.GoString(C.fpcmp_layout_api())
}

// Version returns the libavcodec version string, e.g. "60.31.102".
func Version() string {
	v := uint(C.avcodec_version())
	return fmt.Sprintf("%d.%d.%d", v>>16, (v>>8)&0xff, v&0xff)
}

func avErr(ret C.int) string {
	var buf [C.AV_ERROR_MAX_STRING_SIZE]C.char
	if C.av_strerror(ret, &buf[0], C.size_t(len(buf))) < 0 {
		return fmt.Sprintf("error %d", int(ret))
	}
	return C.GoString(&buf[0])
}
