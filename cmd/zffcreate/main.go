// Command zffcreate acquires a file or directory tree into a new container as a single
// Logical object.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zetaforensics/zff/chunk"
	"github.com/zetaforensics/zff/compress"
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/header"
	"github.com/zetaforensics/zff/object"
	"github.com/zetaforensics/zff/segment"
	"github.com/zetaforensics/zff/zff"
)

const defaultChunkSize = 32 * 1024

func main() {
	chunkSize := flag.Uint64("chunk-size", defaultChunkSize, "chunk size in bytes")
	segmentSize := flag.Uint64("segment-size", 2<<30, "target segment size in bytes")
	notes := flag.String("notes", "", "free-text description notes stored in the MainFooter")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <source-path> <container-base-path>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), flag.Arg(1), *chunkSize, *segmentSize, *notes); err != nil {
		fmt.Fprintln(os.Stderr, "zffcreate:", err)
		os.Exit(1)
	}
}

// walkEntry pairs a discovered filesystem entry with the file number its parent directory
// was assigned, so FileHeader.ParentFileNumber can be filled in during a single walk.
type walkEntry struct {
	path             string
	info             fs.FileInfo
	fileNumber       uint64
	parentFileNumber uint64
}

func collectEntries(root string) ([]walkEntry, error) {
	var entries []walkEntry
	parents := map[string]uint64{filepath.Dir(root): 0}
	var next uint64 = 1

	err := filepath.Walk(root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		fileNumber := next
		next++
		entries = append(entries, walkEntry{
			path:             path,
			info:             info,
			fileNumber:       fileNumber,
			parentFileNumber: parents[filepath.Dir(path)],
		})
		if info.IsDir() {
			parents[path] = fileNumber
		}
		return nil
	})
	return entries, err
}

func fileType(info fs.FileInfo) format.FileType {
	switch {
	case info.IsDir():
		return format.FileTypeDirectory
	case info.Mode()&fs.ModeSymlink != 0:
		return format.FileTypeSymlink
	case info.Mode()&(fs.ModeNamedPipe|fs.ModeDevice|fs.ModeCharDevice) != 0:
		return format.FileTypeSpecial
	default:
		return format.FileTypeFile
	}
}

func buildFileEntries(root string, entries []walkEntry) ([]object.FileEntry, []*os.File, error) {
	out := make([]object.FileEntry, 0, len(entries))
	var opened []*os.File

	for _, e := range entries {
		rel, err := filepath.Rel(filepath.Dir(root), e.path)
		if err != nil {
			return nil, opened, err
		}
		ft := fileType(e.info)

		fe := object.FileEntry{
			FileNumber:       e.fileNumber,
			FileType:         ft,
			Filename:         filepath.ToSlash(rel),
			ParentFileNumber: e.parentFileNumber,
		}

		switch ft {
		case format.FileTypeFile:
			f, err := os.Open(e.path)
			if err != nil {
				return nil, opened, err
			}
			opened = append(opened, f)
			fe.Content = f
		case format.FileTypeSymlink:
			target, err := os.Readlink(e.path)
			if err != nil {
				return nil, opened, err
			}
			fe.Content = strings.NewReader(target)
		}

		out = append(out, fe)
	}
	return out, opened, nil
}

func run(sourcePath, basePath string, chunkSize, segmentSize uint64, notes string) error {
	entries, err := collectEntries(sourcePath)
	if err != nil {
		return fmt.Errorf("walking %s: %w", sourcePath, err)
	}

	files, opened, err := buildFileEntries(sourcePath, entries)
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	if err != nil {
		return err
	}

	codec, err := compress.GetCodecForChunkSize(format.CompressionZstd, chunkSize)
	if err != nil {
		return err
	}
	pipeline, err := chunk.New(
		chunk.WithChunkSize(chunkSize),
		chunk.WithDeduplication(chunk.NewDedupIndex()),
		chunk.WithCompressor(codec, chunk.DefaultCompressionThreshold))
	if err != nil {
		return err
	}
	enc := object.NewLogicalEncoder(1, files, chunkSize, 1, pipeline,
		[]format.HashAlgorithm{format.HashSHA256}, crypto.NewPlaintextHasher)

	oh := &header.ObjectHeader{
		ObjectNumber: 1,
		ObjectType:   format.ObjectTypeLogical,
		ChunkSize:    chunkSize,
		Compression:  &header.CompressionHeader{Algorithm: format.CompressionZstd, Threshold: chunk.DefaultCompressionThreshold},
		Hash:         &header.HashHeader{},
	}

	w, err := zff.CreateWriter(basePath,
		segment.WithTargetSegmentSize(segmentSize),
		segment.WithDescriptionNotes(notes))
	if err != nil {
		return err
	}
	if err := w.WriteLogicalObject(context.Background(), oh, enc, nil); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
