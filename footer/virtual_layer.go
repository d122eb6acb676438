package footer

import (
	"github.com/zetaforensics/zff/crypto"
	"github.com/zetaforensics/zff/encoding"
	"github.com/zetaforensics/zff/format"
	"github.com/zetaforensics/zff/zfferr"
)

// VirtualMappingInformation is a leaf of a Virtual object's offset mapping tree: the chunk
// range of one passive object that backs a contiguous span of the virtual object's address
// space.
type VirtualMappingInformation struct {
	PassiveObject uint64
	StartChunk    uint64
	ChunkOffset   uint64
	Length        uint64
}

func (m *VirtualMappingInformation) Bytes() []byte {
	w := encoding.NewWriter(48)
	w.PutUint64(m.PassiveObject)
	w.PutUint64(m.StartChunk)
	w.PutUint64(m.ChunkOffset)
	w.PutUint64(m.Length)
	return encoding.WriteRecord(format.IdentVirtualMappingInformation, format.CurrentVersion, w.Bytes())
}

func ParseVirtualMappingInformation(b []byte) (*VirtualMappingInformation, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentVirtualMappingInformation)
	if err != nil {
		return nil, err
	}
	m := &VirtualMappingInformation{}
	if m.PassiveObject, err = r.GetUint64(); err != nil {
		return nil, err
	}
	if m.StartChunk, err = r.GetUint64(); err != nil {
		return nil, err
	}
	if m.ChunkOffset, err = r.GetUint64(); err != nil {
		return nil, err
	}
	if m.Length, err = r.GetUint64(); err != nil {
		return nil, err
	}
	return m, nil
}

// EncodeEncrypted AEAD-encrypts a VirtualMappingInformation leaf under dek, nonce tag
// NonceTagVirtualMapping with nonce_value equal to the record's own byte offset within the
// segment. The caller supplies selfOffset because it is
// only known once the writer has reserved the position this record will occupy.
func (m *VirtualMappingInformation) EncodeEncrypted(alg format.EncryptionAlgorithm, dek []byte, selfOffset uint64) ([]byte, error) {
	aead, err := crypto.NewAEAD(alg, dek)
	if err != nil {
		return nil, err
	}
	w := encoding.NewWriter(48)
	w.PutUint64(m.PassiveObject)
	w.PutUint64(m.StartChunk)
	w.PutUint64(m.ChunkOffset)
	w.PutUint64(m.Length)
	ciphertext := aead.SealWithTag(selfOffset, format.NonceTagVirtualMapping, w.Bytes())
	return encoding.WriteRecord(format.IdentVirtualMappingInformation, format.CurrentVersion, ciphertext), nil
}

func ParseEncryptedVirtualMappingInformation(b []byte, alg format.EncryptionAlgorithm, dek []byte, selfOffset uint64) (*VirtualMappingInformation, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentVirtualMappingInformation)
	if err != nil {
		return nil, err
	}
	ciphertext := r.Remainder()
	aead, err := crypto.NewAEAD(alg, dek)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.OpenWithTag(selfOffset, format.NonceTagVirtualMapping, ciphertext)
	if err != nil {
		return nil, zfferr.Wrap(zfferr.KindDecryptionOfEncryptionKey, err)
	}
	pr := encoding.NewReader(plaintext)
	m := &VirtualMappingInformation{}
	if m.PassiveObject, err = pr.GetUint64(); err != nil {
		return nil, err
	}
	if m.StartChunk, err = pr.GetUint64(); err != nil {
		return nil, err
	}
	if m.ChunkOffset, err = pr.GetUint64(); err != nil {
		return nil, err
	}
	if m.Length, err = pr.GetUint64(); err != nil {
		return nil, err
	}
	return m, nil
}

// VirtualLayerEntry is one branch of a VirtualLayer: position maps either to a nested
// VirtualLayer (when IsLeaf is false) or directly to a VirtualMappingInformation leaf (when
// IsLeaf is true), both identified by their byte offset in the segment stream.
type VirtualLayerEntry struct {
	Position     uint64
	IsLeaf       bool
	TargetOffset uint64
}

// VirtualLayer is one level of a Virtual object's (possibly nested) offset mapping tree.
// Large maps are split across nested VirtualLayers to bound any single record's size.
type VirtualLayer struct {
	Entries []VirtualLayerEntry
}

func (l *VirtualLayer) Bytes() []byte {
	w := encoding.NewWriter(64)
	w.SeqHeader(len(l.Entries))
	for _, e := range l.Entries {
		w.PutUint64(e.Position)
		w.PutBool(e.IsLeaf)
		w.PutUint64(e.TargetOffset)
	}
	return encoding.WriteRecord(format.IdentVirtualLayer, format.CurrentVersion, w.Bytes())
}

func ParseVirtualLayer(b []byte) (*VirtualLayer, error) {
	_, r, err := encoding.ReadRecordHeader(b, format.IdentVirtualLayer)
	if err != nil {
		return nil, err
	}
	n, err := r.SeqHeader()
	if err != nil {
		return nil, err
	}
	l := &VirtualLayer{Entries: make([]VirtualLayerEntry, 0, n)}
	for i := 0; i < n; i++ {
		pos, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		isLeaf, err := r.GetBool()
		if err != nil {
			return nil, err
		}
		target, err := r.GetUint64()
		if err != nil {
			return nil, err
		}
		l.Entries = append(l.Entries, VirtualLayerEntry{Position: pos, IsLeaf: isLeaf, TargetOffset: target})
	}
	return l, nil
}
