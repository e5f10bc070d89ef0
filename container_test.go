package ebml

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// elementOfSize builds a standalone atomic element (ID 0x83, Unsigned)
// whose total size is exactly totalSize bytes: a 2-byte header (1-byte
// ID + 1-byte size VINT) plus totalSize-2 data bytes, for totalSize >= 3.
func elementOfSize(t *testing.T, totalSize uint64) Element {
	t.Helper()
	if totalSize < 2 {
		t.Fatalf("elementOfSize: %d too small for a header", totalSize)
	}
	data := totalSize - 2
	h := mustHeader(t, 0x83, data)
	a := newAtomicElement(h, "TrackType", VariantUnsigned, nil)
	return a
}

func newTestContainer() *Container {
	return NewContainer(nil, 0x1654AE6B)
}

func place(t *testing.T, c *Container, e Element, pos int64) {
	t.Helper()
	e.SetPosRelative(pos)
	e.SetParent(c)
	c.children.Insert(e)
}

func TestContainerFindGapExactFit(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)
	place(t, c, elementOfSize(t, 10), 20)

	pos, gap, _, ok := c.FindGap(10, 0, nil, false, false)
	if !ok {
		t.Fatal("expected a gap")
	}
	if pos != 10 || gap != 10 {
		t.Errorf("got pos=%d gap=%d, want pos=10 gap=10", pos, gap)
	}
}

func TestContainerFindGapSkipsVoid(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)
	v := newVoidElement(8)
	place(t, c, v, 10)
	place(t, c, elementOfSize(t, 10), 20)

	// Void is ignored by FindGap, so the whole [10,20) region reads as
	// one gap rather than being obstructed by the Void sitting in it.
	pos, gap, _, ok := c.FindGap(10, 0, nil, false, false)
	if !ok {
		t.Fatal("expected a gap")
	}
	if pos != 10 || gap != 10 {
		t.Errorf("got pos=%d gap=%d, want pos=10 gap=10", pos, gap)
	}
}

func TestContainerFindGapNoneBigEnough(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)
	place(t, c, elementOfSize(t, 10), 12)

	if _, _, _, ok := c.FindGap(10, 0, nil, false, false); ok {
		t.Error("expected no qualifying gap (only 2 bytes available)")
	}
}

func TestContainerFindGapBoundedRegion(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)
	place(t, c, elementOfSize(t, 10), 50)

	region := uint64(30)
	pos, gap, _, ok := c.FindGap(10, 0, &region, false, false)
	if !ok {
		t.Fatal("expected a gap within the bounded region")
	}
	if pos != 10 || gap != 20 {
		t.Errorf("got pos=%d gap=%d, want pos=10 gap=20", pos, gap)
	}
}

func TestContainerFindGapPrefersSmallest(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)  // gap [10,30) size 20
	place(t, c, elementOfSize(t, 10), 30) // gap [40,50) size 10
	place(t, c, elementOfSize(t, 10), 50)

	pos, gap, _, ok := c.FindGap(10, 0, nil, false, false)
	if !ok {
		t.Fatal("expected a gap")
	}
	if pos != 40 || gap != 10 {
		t.Errorf("got pos=%d gap=%d, want the smaller 10-byte gap at 40", pos, gap)
	}
}

func TestContainerPlaceChildAppendsWithoutShrinking(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)
	place(t, c, elementOfSize(t, 10), 10)

	child := elementOfSize(t, 10)
	if err := c.PlaceChild(child, 0, nil, false, false, false); err != nil {
		t.Fatal(err)
	}
	if child.PosRelative() != 20 {
		t.Errorf("PosRelative() = %d, want 20 (appended after last child)", child.PosRelative())
	}
}

func TestContainerPlaceChildFitsIntoGap(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)
	place(t, c, elementOfSize(t, 10), 20)

	child := elementOfSize(t, 10)
	if err := c.PlaceChild(child, 0, nil, true, true, true); err != nil {
		t.Fatal(err)
	}
	if child.PosRelative() != 10 {
		t.Errorf("PosRelative() = %d, want 10 (placed in the gap)", child.PosRelative())
	}
}

func TestContainerPlaceChildBoundedRegionFailsClosed(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)

	child := elementOfSize(t, 100)
	region := uint64(10)
	err := c.PlaceChild(child, 0, &region, false, false, false)
	if err == nil {
		t.Fatal("expected an error: no room in a bounded region")
	}
	if !IsInconsistent(err) {
		t.Errorf("expected an Inconsistent error, got %v", err)
	}
}

func TestContainerAddChildAppendsWhenNoGap(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)

	child := elementOfSize(t, 5)
	if err := c.AddChild(child); err != nil {
		t.Fatal(err)
	}
	if child.PosRelative() != 10 {
		t.Errorf("PosRelative() = %d, want 10", child.PosRelative())
	}
	if child.Parent() != c {
		t.Error("expected AddChild to set the child's parent")
	}
}

func TestContainerRemoveChild(t *testing.T) {
	c := newTestContainer()
	e := elementOfSize(t, 10)
	place(t, c, e, 0)

	if !c.RemoveChild(e) {
		t.Fatal("expected RemoveChild to report success")
	}
	if c.RemoveChild(e) {
		t.Error("expected a second RemoveChild to report failure")
	}
	if e.Parent() != nil {
		t.Error("expected RemoveChild to clear the child's parent")
	}
}

func TestContainerMoveChildRejectsOverlap(t *testing.T) {
	c := newTestContainer()
	a := elementOfSize(t, 10)
	b := elementOfSize(t, 10)
	place(t, c, a, 0)
	place(t, c, b, 10)

	if err := c.MoveChild(b, 5); err == nil {
		t.Fatal("expected an error moving b to overlap a")
	}
}

func TestContainerMoveChildSucceeds(t *testing.T) {
	c := newTestContainer()
	a := elementOfSize(t, 10)
	b := elementOfSize(t, 10)
	place(t, c, a, 0)
	place(t, c, b, 30)

	if err := c.MoveChild(b, 10); err != nil {
		t.Fatal(err)
	}
	if b.PosRelative() != 10 {
		t.Errorf("PosRelative() = %d, want 10", b.PosRelative())
	}
}

func TestContainerCheckConsecutivityDetectsGap(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)
	place(t, c, elementOfSize(t, 10), 12)

	if err := c.CheckConsecutivity(); !IsInconsistent(err) {
		t.Errorf("expected an Inconsistent gap error, got %v", err)
	}
}

func TestContainerCheckConsecutivityDetectsOverlap(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)
	place(t, c, elementOfSize(t, 10), 5)

	if err := c.CheckConsecutivity(); !IsInconsistent(err) {
		t.Errorf("expected an Inconsistent overlap error, got %v", err)
	}
}

func TestContainerCheckConsecutivityPasses(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)
	place(t, c, elementOfSize(t, 10), 10)

	if err := c.CheckConsecutivity(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestContainerGetOverlapping(t *testing.T) {
	c := newTestContainer()
	a := elementOfSize(t, 10)
	b := elementOfSize(t, 10)
	place(t, c, a, 0)
	place(t, c, b, 5)

	pairs := c.GetOverlapping()
	if len(pairs) != 1 {
		t.Fatalf("got %d overlapping pairs, want 1", len(pairs))
	}
	if pairs[0][0] != a || pairs[0][1] != b {
		t.Error("overlapping pair does not match the expected (a, b)")
	}
}

func TestContainerFillGapsCoversHoles(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)
	place(t, c, elementOfSize(t, 10), 20)

	if err := c.FillGaps(); err != nil {
		t.Fatal(err)
	}
	if err := c.CheckConsecutivity(); err != nil {
		t.Errorf("expected no gaps after FillGaps, got %v", err)
	}
	voids := 0
	for _, ch := range c.Children() {
		if isVoid(ch) {
			voids++
		}
	}
	if voids != 1 {
		t.Errorf("got %d Void children, want 1", voids)
	}
}

func TestContainerFillGapsReplacesExistingVoids(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)
	place(t, c, newVoidElement(5), 10)
	place(t, c, elementOfSize(t, 10), 15)

	if err := c.FillGaps(); err != nil {
		t.Fatal(err)
	}
	voids := 0
	for _, ch := range c.Children() {
		if isVoid(ch) {
			voids++
		}
	}
	// The gap is already exactly filled by the existing Void, but
	// FillGaps always rebuilds Voids from scratch rather than trusting
	// the old ones, so exactly one fresh Void should remain.
	if voids != 1 {
		t.Errorf("got %d Void children after rebuild, want 1", voids)
	}
}

func TestContainerFillGapsRejectsOneByteGap(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)
	place(t, c, elementOfSize(t, 10), 11)

	if err := c.FillGaps(); !IsInconsistent(err) {
		t.Errorf("expected an Inconsistent one-byte-gap error, got %v", err)
	}
}

func TestContainerRearrangeEliminatesOverlap(t *testing.T) {
	c := newTestContainer()
	a := elementOfSize(t, 10)
	b := elementOfSize(t, 10)
	place(t, c, a, 0)
	place(t, c, b, 5)

	if err := c.Rearrange(nil); err != nil {
		t.Fatal(err)
	}
	if err := c.CheckConsecutivity(); err != nil {
		t.Errorf("expected a consecutive tree after Rearrange, got %v", err)
	}
}

func TestContainerRearrangeFillsGapsWithVoid(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)
	place(t, c, elementOfSize(t, 10), 20)

	if err := c.Rearrange(nil); err != nil {
		t.Fatal(err)
	}
	if err := c.CheckConsecutivity(); err != nil {
		t.Errorf("expected a gap-free tree after Rearrange, got %v", err)
	}
}

func TestContainerRearrangeResizeGrowsWithVoid(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)

	end, err := c.RearrangeResize(30, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if end != 30 {
		t.Errorf("RearrangeResize returned %d, want 30", end)
	}
	if got := uint64(c.EndLastChild()); got != 30 {
		t.Errorf("EndLastChild() = %d, want 30", got)
	}
}

func TestContainerRearrangeResizeExactMatch(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)

	end, err := c.RearrangeResize(10, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if end != 10 {
		t.Errorf("RearrangeResize returned %d, want 10", end)
	}
}

func TestContainerRearrangeResizeRefusesShrinkWithoutPermission(t *testing.T) {
	c := newTestContainer()
	place(t, c, elementOfSize(t, 10), 0)

	if _, err := c.RearrangeResize(5, false, false); err == nil {
		t.Fatal("expected an error: children extend beyond target and shrink is not preferred")
	}
}

func TestContainerEndLastChildEmpty(t *testing.T) {
	c := newTestContainer()
	if c.EndLastChild() != 0 {
		t.Errorf("EndLastChild() on empty container = %d, want 0", c.EndLastChild())
	}
	if c.BegFirstChild() != 0 {
		t.Errorf("BegFirstChild() on empty container = %d, want 0", c.BegFirstChild())
	}
}

func TestContainerChildrenWithIDAndRegion(t *testing.T) {
	c := newTestContainer()
	a := elementOfSize(t, 10)
	b := elementOfSize(t, 10)
	place(t, c, a, 0)
	place(t, c, b, 10)

	byID := c.ChildrenWithID(0x83)
	if len(byID) != 2 {
		t.Errorf("ChildrenWithID(0x83) = %d elements, want 2", len(byID))
	}
	inRegion := c.ChildrenInRegion(5, 15)
	if len(inRegion) != 1 || inRegion[0] != b {
		t.Errorf("ChildrenInRegion(5,15) did not return just b")
	}
}

// layoutEntry is a snapshot of one child's placement, used to compare
// a post-Rearrange tree against an expected layout independent of
// pointer identity.
type layoutEntry struct {
	Name string
	Pos  int64
	Size uint64
}

func layoutOf(c *Container) []layoutEntry {
	var out []layoutEntry
	for _, ch := range c.children.All() {
		out = append(out, layoutEntry{Name: ch.Name(), Pos: ch.PosRelative(), Size: ch.TotalSize()})
	}
	return out
}

func TestContainerRearrangeProducesExactLayout(t *testing.T) {
	c := newTestContainer()
	a := elementOfSize(t, 10)
	b := elementOfSize(t, 10)
	place(t, c, a, 0)
	place(t, c, b, 5) // overlaps a by 5 bytes

	require.NoError(t, c.Rearrange(nil))
	require.NoError(t, c.CheckConsecutivity())

	want := []layoutEntry{
		{Name: "TrackType", Pos: 0, Size: 5},
		{Name: "TrackType", Pos: 5, Size: 10},
	}
	if diff := cmp.Diff(want, layoutOf(c)); diff != "" {
		t.Errorf("layout after Rearrange mismatches (-want +got):\n%s", diff)
	}
}
