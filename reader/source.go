// Package reader implements the random-access reader: discovery of the
// MainFooter and per-segment SegmentFooters via the trailing-pointer convention every segment
// ends with, object lookup (including the encrypted ObjectHeader's two-step open), and the
// three object-type readers (Physical/Logical/Virtual) layered over a shared chunk fetch path
// that resolves same-bytes/duplicate/compression/encryption and preloads the C7 side-map
// cache as it goes.
package reader

import "io"

// Source is the random-access byte source backing one segment file.
type Source interface {
	io.ReaderAt
	// Size reports the total number of bytes in the segment.
	Size() (int64, error)
}
