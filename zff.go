// Package zff provides a high-integrity, segmented container format for forensic
// acquisitions.
//
// A container packages one or more acquired objects — a raw physical image, a logical file
// tree, or a virtual composition over previously stored objects — into a sequence of segment
// files sharing a unique_identifier, with per-chunk integrity hashing, optional deduplication
// and compression, and optional per-object password-based encryption built into the format
// itself.
//
// # Writing a container
//
//	w, err := zff.CreateWriter("case001", segment.WithTargetSegmentSize(2<<30))
//	oh := &header.ObjectHeader{ObjectNumber: 1, ObjectType: format.ObjectTypePhysical, ChunkSize: 32*1024, ...}
//	enc, err := object.NewPhysicalEncoder(1, someReader, oh.ChunkSize, 1, pipeline, hashAlgs, crypto.NewPlaintextHasher)
//	err = w.WritePhysicalObject(ctx, oh, enc, nil)
//	err = w.Close()
//
// This produces case001.z01, case001.z02, … following the conventional segment naming scheme.
//
// # Reading a container
//
//	c, err := zff.Open("case001")
//	defer c.Close()
//	phys, err := c.Physical(1, nil)
//	n, err := phys.ReadAt(buf, 0)
//
// This package provides convenient, path-based wrappers around the segment and reader
// packages' streaming APIs; for advanced usage (custom sinks, in-memory sources) use those
// packages directly.
package zff

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/zetaforensics/zff/internal/log"
	"github.com/zetaforensics/zff/reader"
	"github.com/zetaforensics/zff/segment"
	"github.com/zetaforensics/zff/zfferr"
)

// fileSink adapts *os.File to segment.Sink.
type fileSink struct{ f *os.File }

func (s fileSink) Write(p []byte) (int, error) { return s.f.Write(p) }
func (s fileSink) Close() error                { return s.f.Close() }

// FileSinkFactory returns a segment.SinkFactory that creates basePath+extension files on disk,
// e.g. basePath "case001" yields "case001.z01", "case001.z02", ….
func FileSinkFactory(basePath string) segment.SinkFactory {
	return func(n uint64, extension string) (segment.Sink, error) {
		f, err := os.Create(basePath + "." + extension)
		if err != nil {
			return nil, err
		}
		return fileSink{f: f}, nil
	}
}

// CreateWriter opens a new container at basePath, ready to accept WritePhysicalObject/
// WriteLogicalObject/WriteVirtualObject calls.
func CreateWriter(basePath string, opts ...segment.WriterOption) (*segment.Writer, error) {
	return segment.NewWriter(FileSinkFactory(basePath), log.Nop(), opts...)
}

// fileSource adapts *os.File to reader.Source.
type fileSource struct{ f *os.File }

func (s fileSource) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }
func (s fileSource) Size() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// segmentPaths finds every basePath+".z.." file on disk and returns them ordered by segment
// number (the lexical sort of the extension alphabet in segment.Extension matches numeric
// segment order).
func segmentPaths(basePath string) ([]string, error) {
	matches, err := filepath.Glob(basePath + ".z*")
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, zfferr.New(zfferr.KindMissingSegment)
	}
	sort.Strings(matches)
	return matches, nil
}

// Container is a *reader.Reader opened over on-disk segment files; Close releases both the
// reader's side-map cache and the underlying file handles.
type Container struct {
	*reader.Reader
	files []*os.File
}

// Close releases the container's side-map cache and closes every segment file handle.
func (c *Container) Close() error {
	err := c.Reader.Close()
	for _, f := range c.files {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Open discovers every segment file for basePath on disk (basePath+".z01", ".z02", …) and
// returns a ready-to-use Container.
func Open(basePath string, opts ...reader.Option) (*Container, error) {
	paths, err := segmentPaths(basePath)
	if err != nil {
		return nil, err
	}

	files := make([]*os.File, 0, len(paths))
	sources := make([]reader.Source, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			for _, opened := range files {
				opened.Close()
			}
			return nil, err
		}
		files = append(files, f)
		sources = append(sources, fileSource{f: f})
	}

	r, err := reader.Open(sources, log.Nop(), opts...)
	if err != nil {
		for _, opened := range files {
			opened.Close()
		}
		return nil, err
	}
	return &Container{Reader: r, files: files}, nil
}
