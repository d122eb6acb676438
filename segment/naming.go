// Package segment implements the streaming segment writer state machine:
// SegmentHeader → ObjectHeader → (Chunking ↔ six side-maps)* → ObjectFooter → ... →
// SegmentFooter → MainFooter, with side-map flushing and segment rollover interleaved.
package segment

import "github.com/zetaforensics/zff/zfferr"

// extensionAlphabet is the 36-symbol digit set segment extensions count through: decimal
// digits first, then lowercase letters.
const extensionAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// MaxSegmentNumber is the highest segment number Extension can name: beyond it the two-digit
// extension space (36*10 combinations) is exhausted.
const MaxSegmentNumber = uint64(len(extensionAlphabet))*10 - 1

// Extension returns the "z" + 2-character extension for the n-th segment of a container
// (n starts at 1), rolling "z01 → z02 → … → z99 → za0 → …": the rightmost character cycles
// through the ten decimal digits, and the leftmost character
// advances one position in extensionAlphabet every time the rightmost wraps from 9 to 0.
func Extension(n uint64) (string, error) {
	if n == 0 {
		return "", zfferr.Newf(zfferr.KindInvalidOption, "segment number must start at 1")
	}
	left := n / 10
	right := n % 10
	if left >= uint64(len(extensionAlphabet)) {
		return "", zfferr.Newf(zfferr.KindInvalidOption,
			"segment number %d exceeds the extension range (max %d)", n, MaxSegmentNumber)
	}
	return string([]byte{'z', extensionAlphabet[left], extensionAlphabet[right]}), nil
}
