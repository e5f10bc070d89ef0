package ebml

import (
	"io"

	"github.com/luispater/ebmledit/internal/schema"
)

// masterElement is a Master: its payload is entirely other elements,
// always resident. Invariant 2 of §3 (sum of children's total sizes
// equals header.size) is not enforced eagerly on every mutation, the
// same "mutate freely, then normalize" discipline the whole engine
// follows. Rearrange removes overlaps and gaps between children and
// fits them within a size budget; it does not pad children that end
// short of header.size, and RearrangeResize reports the size matching
// where they end.
type masterElement struct {
	elementBase
	Container
}

func newMasterElement(header *Header, name string, tag *schema.Tag, table *schema.Table) *masterElement {
	m := &masterElement{elementBase: newElementBase(header, name, tag)}
	m.Container = *NewContainer(table, header.ID)
	m.Container.SetOwner(m)
	return m
}

// ChildContainer exposes the embedded Container to generic tree-walking
// code (Container.PrintChildren, the writer) that only has an Element.
func (m *masterElement) ChildContainer() *Container { return &m.Container }

func (m *masterElement) Variant() Variant { return VariantMaster }

// MinDataSize implements §4.2's Master formula: sum of children's
// min_total_size, plus 2 if that sum lands exactly one byte short of
// the schema floor (no room for a 1-byte Void to pad the difference).
func (m *masterElement) MinDataSize() uint64 {
	var sum uint64
	for _, ch := range m.Children() {
		sum += ch.MinTotalSize()
	}
	floor := uint64(0)
	if m.tag != nil {
		floor = m.tag.DataSizeMin
	}
	if floor > 0 && sum == floor-1 {
		sum += 2
	}
	if sum < floor {
		sum = floor
	}
	return sum
}

func (m *masterElement) MaxDataSize() uint64 { return MaxDataSize }

func (m *masterElement) MinTotalSize() uint64 { return m.minTotalSizeDefault(m.MinDataSize()) }

// ValidDataSizeLE implements §4.2: ordinarily goal is achievable
// exactly (Masters can always be padded with a Void), except when goal
// is exactly one more than the minimum, in which case only min itself
// is offered (a 1-byte Void does not exist).
func (m *masterElement) ValidDataSizeLE(goal uint64) (uint64, bool) {
	min := m.MinDataSize()
	if goal < min {
		return 0, false
	}
	if goal == min+1 {
		return min, true
	}
	return goal, true
}

func (m *masterElement) ValidTotalSizeLE(goal uint64) (int, uint64, bool) {
	return solveTotalSize(m, goal)
}

func (m *masterElement) Resize(dataWidth uint64) error  { return resizeDataGeneric(m, dataWidth) }
func (m *masterElement) ResizeTotal(total uint64) error { return resizeTotalGeneric(m, total) }

// IsDirty is true if the element's own position/size/header changed, or
// if any child (recursively) is dirty.
func (m *masterElement) IsDirty() bool {
	if m.baseDirty() {
		return true
	}
	for _, ch := range m.Children() {
		if ch.IsDirty() {
			return true
		}
	}
	return false
}

func (m *masterElement) SetDirty(dirty bool) {
	if dirty {
		m.ForceDirtyRecurse()
		return
	}
	m.snapshot(nil)
	for _, ch := range m.Children() {
		ch.SetDirty(false)
	}
}

// ForceDirtyRecurse implements `dirty = "recurse"` (§4.9): mark this
// element and every descendant forced-dirty.
func (m *masterElement) ForceDirtyRecurse() {
	m.elementBase.ForceDirtyRecurse()
	for _, ch := range m.Children() {
		ch.ForceDirtyRecurse()
	}
}

func (m *masterElement) ReadData(r io.ReadSeeker) error {
	m.SetPosDataAbsolute(m.AbsPos() + uint64(m.header.EncodedWidth()))
	if err := m.Container.Read(r, 0, m.header.Size, false); err != nil {
		return err
	}
	m.state = StateLoaded
	m.snapshot(nil)
	return nil
}

func (m *masterElement) ReadSummary(r io.ReadSeeker) error {
	m.SetPosDataAbsolute(m.AbsPos() + uint64(m.header.EncodedWidth()))
	if err := m.Container.Read(r, 0, m.header.Size, true); err != nil {
		return err
	}
	m.state = StateSummary
	m.snapshot(nil)
	return nil
}

func (m *masterElement) Write(w io.WriteSeeker) error {
	m.SetPosDataAbsolute(m.AbsPos() + uint64(m.header.EncodedWidth()))
	if err := m.Container.CheckConsecutivity(); err != nil {
		return err
	}
	hdr, err := m.header.Encode()
	if err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		return wrapf(err, "writing %s header", m.name)
	}
	if err := m.Container.Write(w); err != nil {
		return err
	}
	m.snapshot(nil)
	return nil
}

func (m *masterElement) CheckConsecutivity() error { return m.Container.CheckConsecutivity() }
func (m *masterElement) CheckConsistency() error   { return m.Container.CheckConsistency() }

func (m *masterElement) Rearrange(goalSize *uint64) error { return m.Container.Rearrange(goalSize) }

func (m *masterElement) String() string  { return m.name }
func (m *masterElement) Summary() string { return m.name }

// masterDeferElement is a Master whose children need not be resident
// while clean and in Summary state (§3): a MasterDefer preserves its
// opaque byte range verbatim on write instead of re-encoding children
// it never loaded. Chapters and Tags use this so a caller that never
// touches them pays no parse cost and risks no re-encode drift.
type masterDeferElement struct {
	masterElement
	deferredStart  uint64 // absolute offset of the unread payload
	deferredLength uint64
	loaded         bool
}

func newMasterDeferElement(header *Header, name string, tag *schema.Tag, table *schema.Table) *masterDeferElement {
	return &masterDeferElement{masterElement: *newMasterElement(header, name, tag, table)}
}

func (m *masterDeferElement) Variant() Variant { return VariantMasterDefer }

func (m *masterDeferElement) ReadSummary(r io.ReadSeeker) error {
	m.deferredStart = m.AbsPos() + uint64(m.header.EncodedWidth())
	m.deferredLength = m.header.Size
	if _, err := r.Seek(int64(m.deferredStart+m.deferredLength), io.SeekStart); err != nil {
		return wrapf(err, "skipping deferred master %s", m.name)
	}
	m.state = StateSummary
	m.loaded = false
	m.snapshot(nil)
	return nil
}

func (m *masterDeferElement) ReadData(r io.ReadSeeker) error {
	if err := m.masterElement.ReadData(r); err != nil {
		return err
	}
	m.loaded = true
	return nil
}

// ensureLoaded parses the deferred span on first access to children, a
// no-op once Loaded or if the element was created fresh in memory.
func (m *masterDeferElement) ensureLoaded(r io.ReadSeeker) error {
	if m.loaded || m.state == StateLoaded || m.original == nil {
		return nil
	}
	if _, err := r.Seek(int64(m.deferredStart), io.SeekStart); err != nil {
		return wrapf(err, "seeking to deferred master %s", m.name)
	}
	m.SetPosDataAbsolute(m.deferredStart)
	if err := m.Container.Read(r, 0, m.deferredLength, false); err != nil {
		return err
	}
	m.state = StateLoaded
	m.loaded = true
	return nil
}

// IsDirty: a still-Summary MasterDefer is dirty only when its own
// position, size or header changed (or it was forced dirty); its unread
// children are not consulted, since its bytes are carried through
// untouched.
func (m *masterDeferElement) IsDirty() bool {
	if m.state == StateSummary && !m.loaded {
		return m.baseDirty()
	}
	return m.masterElement.IsDirty()
}

// CheckConsistency and CheckConsecutivity relax to a no-op while the
// body remains unread and clean, trusting the on-disk bytes (§4.11).
func (m *masterDeferElement) CheckConsecutivity() error {
	if m.state == StateSummary && !m.loaded {
		return nil
	}
	return m.masterElement.CheckConsecutivity()
}

func (m *masterDeferElement) CheckConsistency() error {
	if m.state == StateSummary && !m.loaded {
		return nil
	}
	return m.masterElement.CheckConsistency()
}

// Write reproduces the deferred span byte-for-byte via the underlying
// reader while it is still unread, at the element's current position;
// the caller arranges for the stream used at write time to also be
// readable (File.SaveChanges edits in place on the same handle).
func (m *masterDeferElement) Write(w io.WriteSeeker) error {
	if m.state == StateSummary && !m.loaded {
		hdr, err := m.header.Encode()
		if err != nil {
			return err
		}
		if _, err := w.Write(hdr); err != nil {
			return wrapf(err, "writing %s header", m.name)
		}
		if rs, ok := w.(io.ReadWriteSeeker); ok {
			buf := make([]byte, m.deferredLength)
			if _, err := rs.Seek(int64(m.deferredStart), io.SeekStart); err != nil {
				return wrapf(err, "reading deferred %s body", m.name)
			}
			if _, err := io.ReadFull(rs, buf); err != nil {
				return wrapf(err, "reading deferred %s body", m.name)
			}
			if _, err := rs.Seek(int64(m.AbsPos()+uint64(m.header.EncodedWidth())), io.SeekStart); err != nil {
				return wrapf(err, "repositioning to write deferred %s body", m.name)
			}
			if _, err := rs.Write(buf); err != nil {
				return wrapf(err, "writing deferred %s body", m.name)
			}
			m.snapshot(nil)
			return nil
		}
		if _, err := w.Seek(int64(m.deferredLength), io.SeekCurrent); err != nil {
			return wrapf(err, "skipping deferred %s body", m.name)
		}
		m.snapshot(nil)
		return nil
	}
	return m.masterElement.Write(w)
}
