package fingerprint

import "math/bits"

// wordBits is the width of one fingerprint element.
const wordBits = 32

// Compare returns the normalized Hamming distance between a and b.
//
// Bits are compared over the overlapping prefix. Every element of the
// longer fingerprint beyond the overlap counts as fully different. The
// result is symmetric and lies in [0, 1]. Compare returns ErrEmpty if both
// fingerprints are empty.
func Compare(a, b Raw) (float64, error) {
	overlap, span := len(a), len(b)
	if overlap > span {
		overlap, span = span, overlap
	}
	if span == 0 {
		return 0, ErrEmpty
	}

	var diff int
	for i := 0; i < overlap; i++ {
		diff += bits.OnesCount32(a[i] ^ b[i])
	}
	diff += (span - overlap) * wordBits

	return float64(diff) / float64(span*wordBits), nil
}
