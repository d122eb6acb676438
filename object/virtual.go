package object

import (
	"sort"

	"github.com/zetaforensics/zff/footer"
)

// MappingEntry is one caller-supplied leaf of a Virtual object's address space: the byte
// position within the virtual object where a passive object's chunk range begins.
type MappingEntry struct {
	Position    uint64
	Info        footer.VirtualMappingInformation
}

// maxLayerEntries bounds how many entries a single VirtualLayer record holds before the
// encoder splits the map into nested layers once it would otherwise grow unbounded.
const maxLayerEntries = 1024

// VirtualEncoder builds the (possibly layered) offset mapping tree for a Virtual object from a
// caller-supplied position -> passive-object mapping; it ingests no new bytes.
type VirtualEncoder struct {
	objectNumber uint64
	entries      []MappingEntry
}

// NewVirtualEncoder constructs a VirtualEncoder over entries, which need not be pre-sorted.
func NewVirtualEncoder(objectNumber uint64, entries []MappingEntry) *VirtualEncoder {
	sorted := append([]MappingEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	return &VirtualEncoder{objectNumber: objectNumber, entries: sorted}
}

// BuiltLayout is Build's result: every record that must be written, in the order they must be
// written: leaves (VirtualMappingInformation) first, then each VirtualLayer that references
// them, root last. Each VirtualLayerEntry.TargetOffset holds an index into Leaves or Layers,
// which the writer replaces with the referenced record's real on-disk byte offset.
type BuiltLayout struct {
	Leaves        []*footer.VirtualMappingInformation
	Layers        []*footer.VirtualLayer
	RootLayerIndex int // index into Layers naming the root
}

// Build constructs the layout. With at most maxLayerEntries leaves this is a single
// VirtualLayer directly referencing every leaf; larger maps are split across a second level
// of VirtualLayers referenced by one root layer. TargetOffset fields are initially indices
// into Leaves/Layers, not real byte offsets: the segment writer must rewrite them to the
// actual on-disk offsets once each referenced record has been serialized and placed.
func (e *VirtualEncoder) Build() BuiltLayout {
	leaves := make([]*footer.VirtualMappingInformation, len(e.entries))
	for i, entry := range e.entries {
		info := entry.Info
		leaves[i] = &info
	}

	if len(e.entries) <= maxLayerEntries {
		layer := &footer.VirtualLayer{Entries: make([]footer.VirtualLayerEntry, len(e.entries))}
		for i, entry := range e.entries {
			layer.Entries[i] = footer.VirtualLayerEntry{Position: entry.Position, IsLeaf: true, TargetOffset: uint64(i)}
		}
		return BuiltLayout{Leaves: leaves, Layers: []*footer.VirtualLayer{layer}, RootLayerIndex: 0}
	}

	var childLayers []*footer.VirtualLayer
	root := &footer.VirtualLayer{}
	for start := 0; start < len(e.entries); start += maxLayerEntries {
		end := start + maxLayerEntries
		if end > len(e.entries) {
			end = len(e.entries)
		}
		child := &footer.VirtualLayer{Entries: make([]footer.VirtualLayerEntry, end-start)}
		for i := start; i < end; i++ {
			child.Entries[i-start] = footer.VirtualLayerEntry{Position: e.entries[i].Position, IsLeaf: true, TargetOffset: uint64(i)}
		}
		childIndex := len(childLayers)
		childLayers = append(childLayers, child)
		root.Entries = append(root.Entries, footer.VirtualLayerEntry{Position: e.entries[start].Position, IsLeaf: false, TargetOffset: uint64(childIndex)})
	}

	layers := append(childLayers, root)
	return BuiltLayout{Leaves: leaves, Layers: layers, RootLayerIndex: len(layers) - 1}
}

// Finalize returns the ObjectFooterVirtual naming every passive object this Virtual object
// composes. rootMapOffset is the real on-disk byte offset of the root VirtualLayer, assigned
// by the segment writer once the layout in Build has actually been written.
func (e *VirtualEncoder) Finalize(rootMapOffset uint64) *footer.ObjectFooterVirtual {
	seen := map[uint64]bool{}
	var passive []uint64
	for _, entry := range e.entries {
		if !seen[entry.Info.PassiveObject] {
			seen[entry.Info.PassiveObject] = true
			passive = append(passive, entry.Info.PassiveObject)
		}
	}
	sort.Slice(passive, func(i, j int) bool { return passive[i] < passive[j] })
	return &footer.ObjectFooterVirtual{
		ObjectNumber:         e.objectNumber,
		PassiveObjectNumbers: passive,
		RootMapOffset:        rootMapOffset,
	}
}
