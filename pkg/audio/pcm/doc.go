// Package pcm provides types and utilities for working with PCM (Pulse Code Modulation) audio data.
//
// Decoders hand out Frames in whatever sample format the codec produces. A
// Normalizer turns those frames into Blocks of interleaved signed 16-bit
// samples, the canonical format consumed by fingerprint accumulators.
//
// Key types:
//   - SampleFormat: Sample encoding of a decoded frame (integer/float, interleaved/planar)
//   - Frame: One decoded frame, borrowed from the decoder
//   - Block: Interleaved int16 samples owned by a Normalizer
//   - Converter: Sample format conversion strategy (pure Go or native)
//   - Normalizer: Frame to Block conversion with buffer reuse
//
// Example usage:
//
//	n, err := pcm.NewNormalizer(pcm.F32P, 2, nil) // pure Go converter
//	if err != nil {
//	    return err
//	}
//	defer n.Close()
//
//	block, err := n.Normalize(frame)
//	if err != nil {
//	    return err
//	}
//	acc.Feed(block.Data)
package pcm
