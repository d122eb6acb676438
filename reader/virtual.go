package reader

import (
	"github.com/zetaforensics/zff/footer"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/zfferr"
)

// VirtualReader composes one or more passive objects into a single virtual address space by
// walking a (possibly layered) VirtualLayer tree down to VirtualMappingInformation leaves.
// Passive ObjectReaders are opened lazily and cached in the passives map filled on
// first read.
type VirtualReader struct {
	r        *Reader
	obj      *ObjectReader
	Footer   *footer.ObjectFooterVirtual
	password []byte

	treeSegment uint64
	rootOffset  uint64

	passives map[uint64]*ObjectReader
}

// Virtual opens objectNumber's ObjectFooterVirtual and returns a VirtualReader, failing with
// zfferr.KindMismatchObjectType if the object is not Virtual, or
// zfferr.KindPassiveObjectCycle if its passive objects form a cycle back to it.
func (r *Reader) Virtual(objectNumber uint64, password []byte) (*VirtualReader, error) {
	obj, err := r.OpenObject(objectNumber, password)
	if err != nil {
		return nil, err
	}
	if obj.Header.ObjectType != format.ObjectTypeVirtual {
		return nil, zfferr.Newf(zfferr.KindMismatchObjectType, "object %d is not Virtual", objectNumber)
	}

	footSegment, footOffset, err := r.objectFooterLocation(objectNumber)
	if err != nil {
		return nil, err
	}
	src, err := r.source(footSegment)
	if err != nil {
		return nil, err
	}
	b, err := readFullRecord(src, footOffset)
	if err != nil {
		return nil, err
	}

	ident, err := peekIdentifier(src, footOffset)
	if err != nil {
		return nil, err
	}
	var foot *footer.ObjectFooterVirtual
	if ident == format.IdentObjectFooterVirtual {
		foot, err = footer.ParseObjectFooterVirtual(b)
	} else {
		foot, err = footer.ParseEncryptedObjectFooterVirtual(b, obj.Header.Encryption.Algorithm, obj.dek)
	}
	if err != nil {
		return nil, err
	}

	if err := checkNoPassiveCycle(r, objectNumber, foot.PassiveObjectNumbers, password, map[uint64]bool{objectNumber: true}); err != nil {
		return nil, err
	}

	treeSegment, err := resolveVirtualTreeSegment(r, footSegment, foot.RootMapOffset)
	if err != nil {
		return nil, err
	}

	return &VirtualReader{
		r:           r,
		obj:         obj,
		Footer:      foot,
		password:    password,
		treeSegment: treeSegment,
		rootOffset:  foot.RootMapOffset,
		passives:    make(map[uint64]*ObjectReader),
	}, nil
}

// resolveVirtualTreeSegment finds which segment holds the VirtualLayer/VirtualMappingInformation
// tree a Virtual object's footer points at. The segment writer may roll over once between
// finishing the tree and writing the footer (WriteVirtualObject's final maybeRollover), so the
// tree lives either in the footer's own segment or the one immediately before it; no index
// records which, so this probes both, preferring the footer's segment.
func resolveVirtualTreeSegment(r *Reader, footerSegment, rootOffset uint64) (uint64, error) {
	if src, err := r.source(footerSegment); err == nil {
		if ident, err := peekIdentifier(src, rootOffset); err == nil && ident == format.IdentVirtualLayer {
			return footerSegment, nil
		}
	}
	if footerSegment > 1 {
		if src, err := r.source(footerSegment - 1); err == nil {
			if ident, err := peekIdentifier(src, rootOffset); err == nil && ident == format.IdentVirtualLayer {
				return footerSegment - 1, nil
			}
		}
	}
	return 0, zfferr.New(zfferr.KindMalformedSegment)
}

func checkNoPassiveCycle(r *Reader, root uint64, passives []uint64, password []byte, visited map[uint64]bool) error {
	for _, p := range passives {
		if visited[p] {
			return zfferr.Newf(zfferr.KindPassiveObjectCycle, "object %d cycles back through passive object %d", root, p)
		}
		oh, dek, err := r.readObjectHeader(p, password)
		if err != nil {
			return err
		}
		if oh.ObjectType != format.ObjectTypeVirtual {
			continue
		}
		_ = dek
		segment, offset, err := r.objectFooterLocation(p)
		if err != nil {
			return err
		}
		src, err := r.source(segment)
		if err != nil {
			return err
		}
		b, err := readFullRecord(src, offset)
		if err != nil {
			return err
		}
		ident, err := peekIdentifier(src, offset)
		if err != nil {
			return err
		}
		var childFoot *footer.ObjectFooterVirtual
		if ident == format.IdentObjectFooterVirtual {
			childFoot, err = footer.ParseObjectFooterVirtual(b)
		} else {
			childFoot, err = footer.ParseEncryptedObjectFooterVirtual(b, oh.Encryption.Algorithm, dek)
		}
		if err != nil {
			return err
		}
		next := make(map[uint64]bool, len(visited)+1)
		for k := range visited {
			next[k] = true
		}
		next[p] = true
		if err := checkNoPassiveCycle(r, root, childFoot.PassiveObjectNumbers, password, next); err != nil {
			return err
		}
	}
	return nil
}

func (v *VirtualReader) treeSource() (Source, error) { return v.r.source(v.treeSegment) }

func (v *VirtualReader) readLayer(offset uint64) (*footer.VirtualLayer, error) {
	src, err := v.treeSource()
	if err != nil {
		return nil, err
	}
	b, err := readFullRecord(src, offset)
	if err != nil {
		return nil, err
	}
	// VirtualLayer has no encrypted wire form; only its VirtualMappingInformation leaves are
	// AEAD-encrypted.
	return footer.ParseVirtualLayer(b)
}

func (v *VirtualReader) readLeaf(offset uint64) (*footer.VirtualMappingInformation, error) {
	src, err := v.treeSource()
	if err != nil {
		return nil, err
	}
	b, err := readFullRecord(src, offset)
	if err != nil {
		return nil, err
	}
	if v.obj.Header.Encryption == nil {
		return footer.ParseVirtualMappingInformation(b)
	}
	return footer.ParseEncryptedVirtualMappingInformation(b, v.obj.Header.Encryption.Algorithm, v.obj.dek, offset)
}

// findLeaf walks the (possibly nested) VirtualLayer tree starting at offset, returning the leaf
// covering position: the entry with the greatest Position <= position.
func (v *VirtualReader) findLeaf(offset, position uint64) (*footer.VirtualMappingInformation, uint64, error) {
	layer, err := v.readLayer(offset)
	if err != nil {
		return nil, 0, err
	}
	idx := -1
	for i, e := range layer.Entries {
		if e.Position <= position {
			idx = i
		} else {
			break
		}
	}
	if idx < 0 {
		return nil, 0, zfferr.Newf(zfferr.KindInvalidChunkNumber, "position %d precedes the virtual object's first mapping", position)
	}
	entry := layer.Entries[idx]
	if entry.IsLeaf {
		leaf, err := v.readLeaf(entry.TargetOffset)
		return leaf, entry.Position, err
	}
	return v.findLeaf(entry.TargetOffset, position)
}

func (v *VirtualReader) openPassive(objectNumber uint64) (*ObjectReader, error) {
	if obj, ok := v.passives[objectNumber]; ok {
		return obj, nil
	}
	obj, err := v.r.OpenObject(objectNumber, v.password)
	if err != nil {
		return nil, err
	}
	v.passives[objectNumber] = obj
	return obj, nil
}

// ReadAt implements io.ReaderAt over the virtual object's composed address space, resolving
// each position through the mapping tree and reading the referenced passive object's chunks,
// continuing across mappings until the output buffer is full.
func (v *VirtualReader) ReadAt(b []byte, off int64) (int, error) {
	if off < 0 {
		return 0, zfferr.New(zfferr.KindInvalidChunkNumber)
	}
	position := uint64(off)
	n := 0
	for n < len(b) {
		leaf, mappingStart, err := v.findLeaf(v.rootOffset, position)
		if err != nil {
			return n, err
		}
		deltaInMapping := position - mappingStart
		if deltaInMapping >= leaf.Length {
			break
		}
		remainingInMapping := leaf.Length - deltaInMapping

		passive, err := v.openPassive(leaf.PassiveObject)
		if err != nil {
			return n, err
		}
		chunkSize := passive.Header.ChunkSize
		passiveByteOffset := leaf.ChunkOffset + deltaInMapping
		chunkIndex := leaf.StartChunk + passiveByteOffset/chunkSize
		within := passiveByteOffset % chunkSize

		chunk, err := passive.chunks.GetChunk(chunkIndex)
		if err != nil {
			return n, err
		}
		if within >= uint64(len(chunk)) {
			break
		}
		avail := uint64(len(chunk)) - within
		if avail > remainingInMapping {
			avail = remainingInMapping
		}
		want := uint64(len(b) - n)
		if avail > want {
			avail = want
		}
		copy(b[n:], chunk[within:within+avail])
		n += int(avail)
		position += avail
	}
	if n < len(b) {
		return n, zfferr.New(zfferr.KindReadEOF)
	}
	return n, nil
}
