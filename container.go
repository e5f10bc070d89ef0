package ebml

import (
	"fmt"
	"io"
	"strings"

	"github.com/luispater/ebmledit/internal/schema"
)

// Container is the children-holding half of every Master-kind element:
// an ordered, non-overlapping, gap-free (once consistent) list of child
// Elements, plus the schema context needed to validate and instantiate
// them. Master and MasterDefer embed a Container alongside elementBase;
// Segment additionally wraps one with normalizer-specific behavior.
type Container struct {
	posDataAbsolute uint64
	children        orderedList
	table           *schema.Table
	ownerID         uint32
	owner           Element

	// hooks fire after a named child is instantiated during Read, letting
	// an owner (Segment, chiefly) react to structural children as they
	// are discovered, e.g. following a freshly-read SeekHead.
	hooks map[string]func(*Container, Element, io.ReadSeeker) error
}

// NewContainer builds an empty Container belonging to the element whose
// schema ID is ownerID, validating and naming children against table.
func NewContainer(table *schema.Table, ownerID uint32) *Container {
	return &Container{table: table, ownerID: ownerID}
}

func (c *Container) PosDataAbsolute() uint64     { return c.posDataAbsolute }
func (c *Container) SetPosDataAbsolute(p uint64) { c.posDataAbsolute = p }
func (c *Container) Table() *schema.Table        { return c.table }

// Owner returns the Element this Container holds the children of, or
// nil for the File-level root container (which has no enclosing
// Element).
func (c *Container) Owner() Element     { return c.owner }
func (c *Container) SetOwner(e Element) { c.owner = e }

// SetHook registers a parse_<Name> hook, invoked with the container, the
// newly-created child, and the stream Read is using, immediately after
// the child is instantiated and its ReadData/ReadSummary dispatched.
func (c *Container) SetHook(name string, fn func(*Container, Element, io.ReadSeeker) error) {
	if c.hooks == nil {
		c.hooks = make(map[string]func(*Container, Element, io.ReadSeeker) error)
	}
	c.hooks[name] = fn
}

// Children returns the children in position order. The returned slice
// aliases internal storage and must not be mutated.
func (c *Container) Children() []Element { return c.children.All() }

func (c *Container) ChildrenNamed(name string) []Element {
	var out []Element
	for _, ch := range c.children.All() {
		if ch.Name() == name {
			out = append(out, ch)
		}
	}
	return out
}

// ChildNamed returns the first child named name, or nil.
func (c *Container) ChildNamed(name string) Element {
	for _, ch := range c.children.All() {
		if ch.Name() == name {
			return ch
		}
	}
	return nil
}

func (c *Container) ChildrenWithID(id uint32) []Element {
	var out []Element
	for _, ch := range c.children.All() {
		if ch.Header().ID == id {
			out = append(out, ch)
		}
	}
	return out
}

// ChildrenInRegion returns children whose pos_relative lies in the
// half-open interval [start, end).
func (c *Container) ChildrenInRegion(start, end int64) []Element {
	var out []Element
	for _, ch := range c.children.All() {
		p := ch.PosRelative()
		if p >= start && p < end {
			out = append(out, ch)
		}
	}
	return out
}

// BegFirstChild returns the position of the first child, or 0 if empty.
func (c *Container) BegFirstChild() int64 {
	if c.children.Len() == 0 {
		return 0
	}
	return c.children.At(0).PosRelative()
}

// EndLastChild returns the position just past the last child, or 0 if
// empty: the natural append point and the value a consistent Master's
// header.Size must equal.
func (c *Container) EndLastChild() int64 {
	n := c.children.Len()
	if n == 0 {
		return 0
	}
	last := c.children.At(n - 1)
	return last.PosRelative() + int64(last.TotalSize())
}

func isVoid(e Element) bool { return e.Variant() == VariantVoidKind }

// testGapSize implements the gap-qualification rule shared by find_gap
// and the rearranger: an exact fit, a fit with room to spare for at
// least a minimal Void, or (opted in) a fit one byte short of that.
func testGapSize(gapSize, size uint64, oneByteOK bool) bool {
	if gapSize == size {
		return true
	}
	if gapSize >= size+2 {
		return true
	}
	return gapSize == size+1 && oneByteOK
}

// FindGap implements §4.5: the smallest gap among non-Void children in
// [start, start+regionSize) (or to the open end if regionSize is nil)
// that can hold size bytes. shrink considers each candidate obstacle's
// min_total_size instead of its current total_size, used when probing
// whether shrinking the tree first would open room. ok is false if no
// qualifying gap exists.
func (c *Container) FindGap(size uint64, start int64, regionSize *uint64, shrink, oneByteOK bool) (pos int64, gapSize uint64, prev Element, ok bool) {
	var regionEnd int64
	bounded := regionSize != nil
	if bounded {
		regionEnd = start + int64(*regionSize)
	}

	frontier := start
	var prevChild Element
	found := false
	var bestPos int64
	var bestGap uint64
	var bestPrev Element

	for _, ch := range c.children.All() {
		if isVoid(ch) {
			continue
		}
		cpos := ch.PosRelative()
		if cpos < start {
			var cend int64
			if shrink {
				cend = cpos + int64(ch.MinTotalSize())
			} else {
				cend = cpos + int64(ch.TotalSize())
			}
			if cend > frontier {
				frontier = cend
			}
			prevChild = ch
			continue
		}
		if bounded && cpos >= regionEnd {
			break
		}
		if cpos > frontier {
			gap := uint64(cpos - frontier)
			if testGapSize(gap, size, oneByteOK) && (!found || gap < bestGap || (gap == bestGap && frontier < bestPos)) {
				found, bestPos, bestGap, bestPrev = true, frontier, gap, prevChild
			}
		}
		var cend int64
		if shrink {
			cend = cpos + int64(ch.MinTotalSize())
		} else {
			cend = cpos + int64(ch.TotalSize())
		}
		if cend > frontier {
			frontier = cend
		}
		prevChild = ch
	}

	if bounded {
		if frontier < regionEnd {
			gap := uint64(regionEnd - frontier)
			if testGapSize(gap, size, oneByteOK) && (!found || gap < bestGap || (gap == bestGap && frontier < bestPos)) {
				found, bestPos, bestGap, bestPrev = true, frontier, gap, prevChild
			}
		}
	}

	return bestPos, bestGap, bestPrev, found
}

// canGrowByOne reports whether child's data size can legally grow by
// exactly one byte without a header-width change, the "child can grow
// by one byte" qualifier place_child applies to one_byte_ok.
func canGrowByOne(child Element) bool {
	d, ok := child.ValidDataSizeLE(child.Header().Size + 1)
	return ok && d == child.Header().Size+1
}

// PlaceChild implements §4.6: find the smallest gap that fits child,
// falling back in turn to shrinking child itself, then shrinking its
// would-be predecessor, then (if unbounded) appending after the last
// non-Void child. On success child's position and parent are set and it
// is inserted into the child list; a bounded region that still can't
// fit child yields Inconsistent.
func (c *Container) PlaceChild(child Element, start int64, regionSize *uint64, shrinkChild, shrinkPrevious, growChild bool) error {
	oneByteOK := growChild && canGrowByOne(child)

	if pos, gap, _, ok := c.FindGap(child.TotalSize(), start, regionSize, false, oneByteOK); ok {
		if gap == child.TotalSize()+1 {
			if err := child.ResizeTotal(gap); err != nil {
				return err
			}
		}
		return c.settle(child, pos)
	}

	if shrinkChild {
		if pos, gap, _, ok := c.FindGap(child.MinTotalSize(), start, regionSize, false, false); ok {
			if err := child.ResizeTotal(gap); err != nil {
				return err
			}
			return c.settle(child, pos)
		}
	}

	if shrinkPrevious {
		if pos, gap, prev, ok := c.FindGap(child.MinTotalSize(), start, regionSize, true, false); ok {
			if prev != nil {
				if err := prev.ResizeTotal(prev.MinTotalSize()); err != nil {
					return err
				}
			}
			if err := child.ResizeTotal(gap); err != nil {
				return err
			}
			return c.settle(child, pos)
		}
	}

	if regionSize != nil {
		return newInconsistent("%s: no room for child %s in region starting at %d", "container", child.Name(), start)
	}
	return c.settle(child, c.EndLastChild())
}

// settle detaches child from whatever container currently owns it,
// fixes its position, and inserts it into this container's child list.
func (c *Container) settle(child Element, pos int64) error {
	if old := child.Parent(); old != nil && old != c {
		old.RemoveChild(child)
	} else if old == c {
		c.children.Remove(child)
	}
	child.SetPosRelative(pos)
	child.SetParent(c)
	c.children.Insert(child)
	return nil
}

// AddChild places child using the default placement policy (try exact
// fit, then shrink child, then shrink its predecessor, then append) and
// inserts it.
func (c *Container) AddChild(child Element) error {
	return c.PlaceChild(child, 0, nil, true, true, true)
}

// RemoveChild detaches child from this container, returning whether it
// was present.
func (c *Container) RemoveChild(child Element) bool {
	if !c.children.Remove(child) {
		return false
	}
	child.SetParent(nil)
	return true
}

// MoveChild relocates an already-owned child to newPos, refusing the
// move if it would overlap a sibling.
func (c *Container) MoveChild(child Element, newPos int64) error {
	end := newPos + int64(child.TotalSize())
	for _, ch := range c.children.All() {
		if ch == child {
			continue
		}
		chEnd := ch.PosRelative() + int64(ch.TotalSize())
		if newPos < chEnd && ch.PosRelative() < end {
			return newInconsistent("%s: move to %d would overlap %s", child.Name(), newPos, ch.Name())
		}
	}
	c.children.Remove(child)
	child.SetPosRelative(newPos)
	c.children.Insert(child)
	return nil
}

// CheckConsecutivity implements the structural half of §4.11: children
// are sorted, contiguous from 0, and non-overlapping.
func (c *Container) CheckConsecutivity() error {
	pos := int64(0)
	for _, ch := range c.children.All() {
		if ch.PosRelative() != pos {
			if ch.PosRelative() < pos {
				return newInconsistent("%s: child %s overlaps its predecessor", "container", ch.Name())
			}
			return newInconsistent("%s: gap before child %s at %d", "container", ch.Name(), ch.PosRelative())
		}
		pos += int64(ch.TotalSize())
	}
	return nil
}

// CheckConsistency implements the full check: consecutivity plus schema
// conformance (mandatory children present, unique children not
// duplicated) and recursion into any child that is itself a container.
func (c *Container) CheckConsistency() error {
	if err := c.CheckConsecutivity(); err != nil {
		return err
	}
	if c.table != nil {
		seen := make(map[uint32]int)
		for _, ch := range c.children.All() {
			seen[ch.Header().ID]++
		}
		for _, tag := range c.table.ChildrenOf(c.ownerID) {
			n := seen[tag.ID]
			if tag.Mandatory && n == 0 {
				return newInconsistent("%s: missing mandatory child %s", "container", tag.Name)
			}
			if !tag.Multiple && n > 1 {
				return newInconsistent("%s: child %s appears %d times, must be unique", "container", tag.Name, n)
			}
		}
	}
	for _, ch := range c.children.All() {
		if v, ok := ch.(interface{ ValidateValue() error }); ok {
			if err := v.ValidateValue(); err != nil {
				return err
			}
		}
		if v, ok := ch.(interface{ CheckConsistency() error }); ok {
			if err := v.CheckConsistency(); err != nil {
				return err
			}
		}
	}
	return nil
}

// FillGaps deletes every existing Void child, then inserts fresh Voids
// covering every remaining gap between 0 and end_last_child. A residual
// gap of exactly one byte (which no Void can represent) indicates a bug
// in whatever phase ran before FillGaps and is reported as Inconsistent
// rather than silently dropped.
func (c *Container) FillGaps() error {
	for _, ch := range append([]Element(nil), c.children.All()...) {
		if isVoid(ch) {
			c.children.Remove(ch)
		}
	}
	pos := int64(0)
	var toInsert []Element
	for _, ch := range c.children.All() {
		if ch.PosRelative() > pos {
			gap := uint64(ch.PosRelative() - pos)
			if gap == 1 {
				return newInconsistent("%s: unfillable one-byte gap at %d", "container", pos)
			}
			v := newVoidElement(0)
			if err := v.ResizeTotal(gap); err != nil {
				return err
			}
			v.SetPosRelative(pos)
			toInsert = append(toInsert, v)
		}
		pos = ch.PosRelative() + int64(ch.TotalSize())
	}
	for _, v := range toInsert {
		v.SetParent(c)
		c.children.Insert(v)
	}
	return nil
}

// GetOverlapping returns every pair of children whose byte ranges
// overlap, in position order.
func (c *Container) GetOverlapping() [][2]Element {
	var out [][2]Element
	items := c.children.All()
	for i, a := range items {
		aEnd := a.PosRelative() + int64(a.TotalSize())
		for j := i + 1; j < len(items) && items[j].PosRelative() < aEnd; j++ {
			out = append(out, [2]Element{a, items[j]})
		}
	}
	return out
}

// Rearrange implements §4.7. goalSize, when non-nil, additionally
// budgets the container's total data size; nil means "eliminate
// overlaps and gaps only, do not otherwise resize."
func (c *Container) Rearrange(goalSize *uint64) error {
	items := c.children.All()

	// Phase 1: forward pass eliminating overlaps.
	cur := int64(0)
	for i, ch := range items {
		if isVoid(ch) {
			continue
		}
		if ch.PosRelative() < cur {
			if i > 0 {
				prev := items[i-1]
				avail := uint64(ch.PosRelative() - prev.PosRelative())
				if _, _, ok := prev.ValidTotalSizeLE(avail); ok {
					if err := prev.ResizeTotal(avail); err == nil {
						cur = prev.PosRelative() + int64(prev.TotalSize())
						if ch.PosRelative() >= cur {
							cur = ch.PosRelative() + int64(ch.TotalSize())
							continue
						}
					}
				}
			}
			ch.SetPosRelative(cur)
		} else if ch.PosRelative() == cur+1 {
			ch.SetPosRelative(cur)
		}
		cur = ch.PosRelative() + int64(ch.TotalSize())
	}
	c.children.ReSort()

	// Phase 2: fit to goal budget.
	if goalSize != nil {
		g := *goalSize
		items = nil
		for _, ch := range c.children.All() {
			if !isVoid(ch) {
				items = append(items, ch)
			}
		}
		end := uint64(0)
		if n := len(items); n > 0 {
			end = uint64(items[n-1].PosRelative()) + items[n-1].TotalSize()
		}
		runningMin := make([]uint64, len(items)+1)
		for i := len(items) - 1; i >= 0; i-- {
			runningMin[i] = runningMin[i+1] + items[i].MinTotalSize()
		}
		shrinkFrom := -1
		for i := len(items) - 1; i >= 0 && (end > g || end+1 == g); i-- {
			ch := items[i]
			if uint64(ch.PosRelative())+runningMin[i] <= g && uint64(ch.PosRelative())+runningMin[i] != g-1 {
				shrinkFrom = i
				break
			}
		}
		if shrinkFrom >= 0 {
			if err := items[shrinkFrom].ResizeTotal(items[shrinkFrom].MinTotalSize()); err != nil {
				return err
			}
			pos := items[shrinkFrom].PosRelative() + int64(items[shrinkFrom].TotalSize())
			for i := shrinkFrom + 1; i < len(items); i++ {
				if err := items[i].ResizeTotal(items[i].MinTotalSize()); err != nil {
					return err
				}
				items[i].SetPosRelative(pos)
				pos += int64(items[i].TotalSize())
			}
			c.children.ReSort()
		}
	}

	// Phase 3: recurse into Master children, keeping their current size.
	for _, ch := range c.children.All() {
		if m, ok := ch.(interface{ Rearrange(*uint64) error }); ok {
			goal := ch.Header().Size
			if err := m.Rearrange(&goal); err != nil {
				return err
			}
		}
	}

	// Phase 4: fill gaps.
	return c.FillGaps()
}

// RearrangeResize reconciles a declared data size (target) with where
// the children end and returns the size to declare; it changes no
// header itself. Children ending past target are accepted (the result
// is their end) only when preferGrow is set, else the result is
// Inconsistent. Children ending short of target keep their end as the
// size when allowShrink is set without preferGrow; otherwise the tail
// is padded with a trailing Void, two bytes when the gap is one.
func (c *Container) RearrangeResize(target uint64, preferGrow, allowShrink bool) (uint64, error) {
	end := uint64(c.EndLastChild())
	switch {
	case end == target:
		return target, nil
	case end > target:
		if preferGrow {
			return end, nil
		}
		return end, newInconsistent("container: children extend to %d, beyond target %d", end, target)
	default:
		gap := target - end
		if allowShrink && !preferGrow {
			return end, nil
		}
		if gap == 1 {
			gap = 2
		}
		v := newVoidElement(0)
		if err := v.ResizeTotal(gap); err != nil {
			return end, err
		}
		v.SetPosRelative(int64(end))
		v.SetParent(c)
		c.children.Insert(v)
		return end + gap, nil
	}
}

// Read implements the read half of §4.10: iterate headers from start
// for length bytes, instantiate each via the schema, and dispatch
// ReadData or ReadSummary. A child already resident at the same offset
// in an equal-or-stronger state is left alone rather than re-read.
func (c *Container) Read(r io.ReadSeeker, start int64, length uint64, summary bool) error {
	end := start + int64(length)
	pos := start
	for pos < end {
		if existing := c.children.Find(pos); existing != nil {
			if existing.State() == StateLoaded || (summary && existing.State() == StateSummary) {
				pos += int64(existing.TotalSize())
				continue
			}
		}
		if _, err := r.Seek(int64(c.PosDataAbsolute())+pos, io.SeekStart); err != nil {
			return wrapf(err, "seeking to child at %d", pos)
		}
		header, err := DecodeHeader(r)
		if err != nil {
			return err
		}
		child := c.instantiate(header)
		child.SetPosRelative(pos)
		child.SetParent(c)
		c.children.Insert(child)

		if summary {
			err = child.ReadSummary(r)
		} else {
			err = child.ReadData(r)
		}
		if err != nil {
			return err
		}
		if hook, ok := c.hooks[child.Name()]; ok {
			if err := hook(c, child, r); err != nil {
				return err
			}
		}
		pos += int64(child.TotalSize())
	}
	return nil
}

// instantiate looks up header.ID in the schema and builds the matching
// Element kind, not yet reading its payload.
func (c *Container) instantiate(header *Header) Element {
	var tag *schema.Tag
	var name string
	if c.table != nil {
		if t, ok := c.table.Lookup(header.ID); ok {
			tag, name = t, t.Name
		}
	}
	return newElementForHeader(header, tag, name, c.table)
}

// ReadElement decodes one header at the stream's current position and
// instantiates (but does not populate) the matching Element kind; the
// caller is responsible for positioning it and dispatching ReadData or
// ReadSummary, as Read does for normal top-down parsing.
func (c *Container) ReadElement(r io.ReadSeeker, summary bool) (Element, error) {
	header, err := DecodeHeader(r)
	if err != nil {
		return nil, err
	}
	el := c.instantiate(header)
	if summary {
		err = el.ReadSummary(r)
	} else {
		err = el.ReadData(r)
	}
	if err != nil {
		return nil, err
	}
	return el, nil
}

// PeekElement decodes the header at the stream's current position
// without consuming the payload, then rewinds to the start of the
// header so a subsequent ReadElement starts from the same place.
func (c *Container) PeekElement(r io.ReadSeeker) (*Header, error) {
	h, err := DecodeHeader(r)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(-int64(h.EncodedWidth()), io.SeekCurrent); err != nil {
		return nil, wrapf(err, "rewinding past peeked header")
	}
	return h, nil
}

// Write implements the write half of §4.10: walk children in order,
// writing dirty ones in place and seeking past clean ones.
func (c *Container) Write(w io.WriteSeeker) error {
	for _, ch := range c.children.All() {
		if ch.IsDirty() {
			if _, err := w.Seek(int64(ch.AbsPos()), io.SeekStart); err != nil {
				return wrapf(err, "seeking to dirty child %s", ch.Name())
			}
			if err := ch.Write(w); err != nil {
				return err
			}
		} else {
			if _, err := w.Seek(int64(ch.AbsPos()+ch.TotalSize()), io.SeekStart); err != nil {
				return wrapf(err, "seeking past clean child %s", ch.Name())
			}
		}
	}
	return nil
}

// PrintChildren writes a one-line-per-child listing (position, size,
// name) to w, recursing into any child that is itself a container; a
// debug aid for inspecting a tree mid-edit.
func (c *Container) PrintChildren(w io.Writer, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, ch := range c.children.All() {
		fmt.Fprintf(w, "%s%s@%d +%d\n", indent, ch.Name(), ch.PosRelative(), ch.TotalSize())
		if nested, ok := ch.(interface{ ChildContainer() *Container }); ok {
			if nc := nested.ChildContainer(); nc != nil {
				nc.PrintChildren(w, depth+1)
			}
		}
	}
}

// PrintSpace writes a compact map of occupied and free byte ranges
// within [0, EndLastChild()), labeling Voids distinctly from content.
func (c *Container) PrintSpace(w io.Writer) {
	pos := int64(0)
	for _, ch := range c.children.All() {
		if ch.PosRelative() > pos {
			fmt.Fprintf(w, "[gap %d..%d]\n", pos, ch.PosRelative())
		}
		label := ch.Name()
		if isVoid(ch) {
			label = "Void"
		}
		fmt.Fprintf(w, "[%s %d..%d]\n", label, ch.PosRelative(), ch.PosRelative()+int64(ch.TotalSize()))
		pos = ch.PosRelative() + int64(ch.TotalSize())
	}
}

// Reparse discards all children and re-reads the container's data
// region from scratch, used after the underlying bytes of a
// MasterDefer's opaque span have been superseded.
func (c *Container) Reparse(r io.ReadSeeker, length uint64, summary bool) error {
	for _, ch := range append([]Element(nil), c.children.All()...) {
		c.children.Remove(ch)
	}
	return c.Read(r, 0, length, summary)
}
