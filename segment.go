package ebml

import (
	"io"
	"sort"

	"github.com/luispater/ebmledit/internal/schema"
)

// segmentElement is a Master specialized for the one structural rule
// the rest of the engine doesn't know about: a Segment's Cluster (and,
// in summary mode, Cues) regions are immovable and their bytes are
// never read or rewritten. Normalize (§4.8) is the operation that
// restores every other invariant around those fixed regions.
type segmentElement struct {
	masterElement
}

func newSegmentElement(header *Header, tag *schema.Tag, table *schema.Table) *segmentElement {
	m := newMasterElement(header, "Segment", tag, table)
	s := &segmentElement{masterElement: *m}
	s.Container.SetOwner(s)
	return s
}

// ReadSummary registers the SeekHead-chasing hook on this Segment's own
// Container before delegating to the ordinary Master summary read, so
// followSeekHead fires only for SeekHead children of this Segment, not
// of the file's level-0 root.
func (s *segmentElement) ReadSummary(r io.ReadSeeker) error {
	s.SetHook("SeekHead", s.followSeekHead)
	return s.masterElement.ReadSummary(r)
}

// followSeekHead implements the "chase SeekHead entries past the first
// Cluster" half of summary reading (§4.10): for every Seek entry, decode
// its SeekPosition and, if it names an element not already resident in
// this Segment's children, read it in directly at that offset. Entries
// whose position falls outside the Segment's own declared size are
// discarded rather than followed (§9): a malformed or stale SeekHead
// must not send the reader past the stream it belongs to.
func (s *segmentElement) followSeekHead(c *Container, seekHead Element, r io.ReadSeeker) error {
	sh, ok := seekHead.(*masterElement)
	if !ok {
		return nil
	}
	for _, seek := range sh.Children() {
		seekM, ok := seek.(*masterElement)
		if !ok {
			continue
		}
		idEl, _ := seekM.ChildNamed("SeekID").(*atomicElement)
		posEl, _ := seekM.ChildNamed("SeekPosition").(*atomicElement)
		if idEl == nil || posEl == nil {
			continue
		}
		pos := posEl.Uint()
		if pos >= s.header.Size {
			log.WithField("segment", s.name).WithField("pos", pos).
				Debug("discarding out-of-range SeekPosition")
			continue // out-of-range SeekPosition, discard (§9)
		}
		if c.children.Find(int64(pos)) != nil {
			continue // already read
		}
		abs := c.PosDataAbsolute() + pos
		if _, err := r.Seek(int64(abs), io.SeekStart); err != nil {
			continue
		}
		header, err := DecodeHeader(r)
		if err != nil {
			continue
		}
		child := c.instantiate(header)
		child.SetPosRelative(int64(pos))
		child.SetParent(c)
		c.children.Insert(child)
		if err := child.ReadSummary(r); err != nil {
			return err
		}
	}
	return nil
}

// Normalize implements §4.8. summary controls whether Cues (deferred in
// summary mode) is also frozen as an immovable region alongside Cluster.
func (s *segmentElement) Normalize(summary bool) error {
	// 1. Expand the size-VINT to its maximum width so later growth never
	// displaces the data that follows the header.
	if err := s.header.SetEncodedWidth(8); err != nil {
		return err
	}

	// 2. Freeze Cluster (and, in summary mode, Cues) regions as
	// immovable Placeholders.
	placeholders := s.freezeFixedRegions(summary)
	defer s.thawFixedRegions(placeholders)

	// 3. Drop existing SeekHead/Void children; build a fresh SeekHead
	// indexing every remaining metadata child.
	for _, ch := range append([]Element(nil), s.Children()...) {
		if ch.Header().ID == schema.SeekHeadID || isVoid(ch) {
			s.RemoveChild(ch)
		}
	}
	metadata := s.metadataChildren()
	seekHead := s.buildSeekHead(metadata)

	// 4. Recursively rearrange each metadata child without growing it,
	// then the SeekHead itself.
	for _, ch := range metadata {
		if r, ok := ch.(interface{ Rearrange(*uint64) error }); ok {
			goal := ch.Header().Size
			if err := r.Rearrange(&goal); err != nil {
				return err
			}
		}
	}

	// 5. Move SeekHead to position 0.
	if err := s.MoveChild(seekHead, 0); err != nil {
		// position 0 is still occupied (by a metadata child or a frozen
		// placeholder); put the SeekHead there anyway and let step 6's
		// overlap resolution re-place what it overlaps.
		s.children.Remove(seekHead)
		seekHead.SetPosRelative(0)
		s.children.Insert(seekHead)
	}

	// 6. Resolve overlaps between metadata and the fixed regions,
	// preferring to land Info/Tracks ahead of the first Cluster.
	if err := s.resolveOverlaps(seekHead, metadata); err != nil {
		return err
	}

	// 7. Fill remaining gaps between children with Voids (placeholders
	// are restored by the deferred thaw above).
	if err := s.FillGaps(); err != nil {
		return err
	}

	// 8. Reconcile the declared size with the last child: grow it to
	// cover a longer tail, or pad a shorter one with a trailing Void,
	// growing by one extra byte rather than leaving an unfillable gap.
	size, err := s.RearrangeResize(s.header.Size, true, false)
	if err != nil {
		return err
	}
	if err := s.header.SetSize(size); err != nil {
		return err
	}

	// 9. Finalize SeekHead entries to the now-settled positions.
	s.finalizeSeekHead(seekHead)

	return nil
}

// freezeFixedRegions freezes every Cues child as an immovable
// Placeholder when summary is true (Cues is deferred and untouched in
// that mode); Cluster never needs this treatment since the stream
// reader already instantiates it as a Placeholder directly (its
// content is never parsed in any mode, decoding media frames being out
// of scope regardless). Returns the list so the caller can restore the
// originals afterward.
func (s *segmentElement) freezeFixedRegions(summary bool) []Element {
	if !summary {
		return nil
	}
	var placeholders []Element
	for _, ch := range append([]Element(nil), s.Children()...) {
		if ch.Header().ID != schema.CuesID {
			continue
		}
		ph := newPlaceholderElement(ch)
		s.children.Remove(ch)
		ph.SetParent(&s.Container)
		s.children.Insert(ph)
		placeholders = append(placeholders, ph)
	}
	return placeholders
}

// thawFixedRegions swaps each Placeholder back for the real element it
// stood in for, now that normalize is done rearranging around it.
func (s *segmentElement) thawFixedRegions(placeholders []Element) {
	for _, ph := range placeholders {
		p, ok := ph.(*placeholderElement)
		if !ok {
			continue
		}
		under := p.Under()
		under.SetPosRelative(ph.PosRelative())
		s.children.Remove(ph)
		under.SetParent(&s.Container)
		s.children.Insert(under)
	}
}

// metadataChildren returns every child that is neither Cluster, Cues,
// SeekHead, nor Void: the set a rebuilt SeekHead indexes.
func (s *segmentElement) metadataChildren() []Element {
	var out []Element
	for _, ch := range s.Children() {
		switch ch.Header().ID {
		case schema.ClusterID, schema.CuesID, schema.SeekHeadID:
			continue
		}
		if isVoid(ch) {
			continue
		}
		if _, isPlaceholder := ch.(*placeholderElement); isPlaceholder {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// buildSeekHead constructs a fresh SeekHead Master with one Seek entry
// per metadata child, each sized conservatively from MaxDataSize so its
// total size never depends on where those children eventually land.
func (s *segmentElement) buildSeekHead(metadata []Element) Element {
	seekTag, _ := s.table.Lookup(schema.SeekHeadID)
	shHeader, _ := NewHeader(schema.SeekHeadID, 0)
	sh := newMasterElement(shHeader, "SeekHead", seekTag, s.table)

	seekTagInner, _ := s.table.Lookup(schema.SeekID)
	idTag, _ := s.table.Lookup(schema.SeekIDFieldID)
	posTag, _ := s.table.Lookup(schema.SeekPosFieldID)

	for _, ch := range metadata {
		seekHeader, _ := NewHeader(schema.SeekID, 0)
		seek := newMasterElement(seekHeader, "Seek", seekTagInner, s.table)

		idHeader, _ := NewHeader(schema.SeekIDFieldID, 4)
		idEl := newAtomicElement(idHeader, "SeekID", VariantBinary, idTag)
		_ = idEl.SetBytes(encodeBigEndianUint(uint64(ch.Header().ID), 4))

		posHeader, _ := NewHeader(schema.SeekPosFieldID, 8)
		posEl := newAtomicElement(posHeader, "SeekPosition", VariantUnsigned, posTag)
		_ = posEl.SetUint(uint64(ch.PosRelative()))
		_ = posEl.Resize(8)

		_ = seek.AddChild(idEl)
		_ = seek.AddChild(posEl)
		_ = seek.header.SetSize(uint64(seek.EndLastChild()))
		_ = sh.AddChild(seek)
	}
	_ = sh.header.SetSize(uint64(sh.EndLastChild()))
	_ = s.AddChild(sh)
	return sh
}

// resolveOverlaps detects metadata children still overlapping a frozen
// region and re-places them: Info and Tracks get first claim on the
// space ahead of the first Cluster, everything else (largest first)
// takes whatever still fits anywhere.
func (s *segmentElement) resolveOverlaps(seekHead Element, metadata []Element) error {
	firstCluster := int64(-1)
	for _, ch := range s.Children() {
		if _, ok := ch.(*placeholderElement); ok {
			if firstCluster < 0 || ch.PosRelative() < firstCluster {
				firstCluster = ch.PosRelative()
			}
		}
	}

	var displaced []Element
	for _, pair := range s.GetOverlapping() {
		for _, e := range pair {
			if e == seekHead {
				continue
			}
			if _, ok := e.(*placeholderElement); ok {
				continue
			}
			alreadyListed := false
			for _, d := range displaced {
				if d == e {
					alreadyListed = true
					break
				}
			}
			if !alreadyListed {
				displaced = append(displaced, e)
			}
		}
	}
	if len(displaced) == 0 {
		return nil
	}
	log.WithField("segment", s.name).WithField("count", len(displaced)).
		Debug("re-placing metadata children displaced by fixed regions")
	for _, e := range displaced {
		s.children.Remove(e)
	}

	sort.SliceStable(displaced, func(i, j int) bool {
		pi, pj := isInfoOrTracks(displaced[i]), isInfoOrTracks(displaced[j])
		if pi != pj {
			return pi
		}
		return displaced[i].TotalSize() > displaced[j].TotalSize()
	})

	for _, e := range displaced {
		if isInfoOrTracks(e) && firstCluster >= 0 {
			region := uint64(firstCluster)
			if err := s.PlaceChild(e, 0, &region, true, true, true); err == nil {
				continue
			}
		}
		if err := s.PlaceChild(e, 0, nil, true, true, true); err != nil {
			return err
		}
	}
	return nil
}

func isInfoOrTracks(e Element) bool {
	return e.Header().ID == schema.SegmentInfoID || e.Header().ID == schema.TracksID
}

// finalizeSeekHead rewrites every SeekPosition entry to its target's
// now-settled relative position.
func (s *segmentElement) finalizeSeekHead(seekHead Element) {
	sh, ok := seekHead.(*masterElement)
	if !ok {
		return
	}
	for _, seek := range sh.Children() {
		seekM, ok := seek.(*masterElement)
		if !ok {
			continue
		}
		idEl, _ := seekM.ChildNamed("SeekID").(*atomicElement)
		posEl, _ := seekM.ChildNamed("SeekPosition").(*atomicElement)
		if idEl == nil || posEl == nil {
			continue
		}
		targetID := uint32(decodeBigEndianUint(idEl.Bytes()))
		for _, ch := range s.Children() {
			if ch.Header().ID == targetID {
				_ = posEl.SetUint(uint64(ch.PosRelative()))
				break
			}
		}
	}
}
