package ebml

import (
	"io"
	"testing"

	"github.com/luispater/ebmledit/internal/schema"
)

// memBuf is a minimal in-memory io.ReadWriteSeeker, standing in for an
// on-disk file across a write-then-reopen round trip.
type memBuf struct {
	buf []byte
	pos int64
}

func (m *memBuf) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	}
	m.pos = abs
	return abs, nil
}

func (m *memBuf) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memBuf) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

// buildMinimalFile assembles an in-memory EBML header plus one Segment
// containing a single Info/TimestampScale child, writes it to buf, and
// returns the File built directly over the tree (not yet round-tripped
// through a reopen).
func buildMinimalFile(t *testing.T) (*File, *memBuf) {
	t.Helper()

	root := NewContainer(schema.Matroska, 0)
	root.SetPosDataAbsolute(0)

	ebmlHeader := newMasterElement(mustHeader(t, schema.EBMLHeaderID, 0), "EBML", nil, schema.Matroska)

	ts := newAtomicElement(mustHeader(t, 0x2AD7B1, 0), "TimestampScale", VariantUnsigned, nil)
	if err := ts.SetUint(1000000); err != nil {
		t.Fatal(err)
	}
	info := newMasterElement(mustHeader(t, schema.SegmentInfoID, 0), "Info", nil, schema.Matroska)
	if err := info.AddChild(ts); err != nil {
		t.Fatal(err)
	}
	if err := info.header.SetSize(uint64(info.EndLastChild())); err != nil {
		t.Fatal(err)
	}

	segment := newSegmentElement(mustHeader(t, schema.SegmentID, 0), nil, schema.Matroska)
	if err := segment.AddChild(info); err != nil {
		t.Fatal(err)
	}
	if err := segment.header.SetSize(uint64(segment.EndLastChild())); err != nil {
		t.Fatal(err)
	}

	place(t, root, ebmlHeader, 0)
	place(t, root, segment, int64(ebmlHeader.TotalSize()))

	f := &File{table: schema.Matroska, root: root, length: uint64(root.EndLastChild())}
	buf := &memBuf{}
	f.stream = buf
	if err := f.root.Write(buf); err != nil {
		t.Fatal(err)
	}
	return f, buf
}

func TestFileRoundTripReadSummary(t *testing.T) {
	_, buf := buildMinimalFile(t)

	reopened, err := NewFile(buf, schema.Matroska)
	if err != nil {
		t.Fatal(err)
	}
	if err := reopened.ReadSummary(); err != nil {
		t.Fatal(err)
	}

	segments := reopened.Segments()
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(segments))
	}
	info := segments[0].ChildNamed("Info")
	if info == nil {
		t.Fatal("expected an Info child after round trip")
	}
	infoM, ok := info.(*masterElement)
	if !ok {
		t.Fatal("Info is not a *masterElement")
	}
	ts, ok := infoM.ChildNamed("TimestampScale").(*atomicElement)
	if !ok {
		t.Fatal("expected a TimestampScale child under Info")
	}
	if ts.Uint() != 1000000 {
		t.Errorf("TimestampScale = %d, want 1000000", ts.Uint())
	}
}

func TestFileReadAllLoadsEverything(t *testing.T) {
	_, buf := buildMinimalFile(t)

	reopened, err := NewFile(buf, schema.Matroska)
	if err != nil {
		t.Fatal(err)
	}
	if err := reopened.ReadAll(); err != nil {
		t.Fatal(err)
	}
	segments := reopened.Segments()
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(segments))
	}
	if segments[0].State() != StateLoaded {
		t.Errorf("segment state = %v, want StateLoaded after ReadAll", segments[0].State())
	}
}

func TestFileSaveChangesNormalizesSegment(t *testing.T) {
	f, _ := buildMinimalFile(t)

	if err := f.SaveChanges(false); err != nil {
		t.Fatal(err)
	}
	segments := f.Segments()
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(segments))
	}
	seekHead := segments[0].ChildNamed("SeekHead")
	if seekHead == nil {
		t.Fatal("expected Normalize to have built a SeekHead")
	}
	if seekHead.PosRelative() != 0 {
		t.Errorf("SeekHead position = %d, want 0", seekHead.PosRelative())
	}
	if err := segments[0].CheckConsecutivity(); err != nil {
		t.Errorf("expected a consecutive tree after SaveChanges, got %v", err)
	}
}

func TestFileSaveChangesRefusesInterSegmentGrowthCollision(t *testing.T) {
	root := NewContainer(schema.Matroska, 0)
	root.SetPosDataAbsolute(0)

	buildSeg := func() *segmentElement {
		ts := newAtomicElement(mustHeader(t, 0x2AD7B1, 0), "TimestampScale", VariantUnsigned, nil)
		_ = ts.SetUint(1)
		info := newMasterElement(mustHeader(t, schema.SegmentInfoID, 0), "Info", nil, schema.Matroska)
		_ = info.AddChild(ts)
		_ = info.header.SetSize(uint64(info.EndLastChild()))
		seg := newSegmentElement(mustHeader(t, schema.SegmentID, 0), nil, schema.Matroska)
		_ = seg.AddChild(info)
		_ = seg.header.SetSize(uint64(seg.EndLastChild()))
		return seg
	}

	seg1 := buildSeg()
	seg2 := buildSeg()

	place(t, root, seg1, 0)
	// seg2 sits immediately after seg1, with zero slack: Normalize
	// widening seg1's size VINT to 8 bytes must push its end past
	// seg2's start.
	place(t, root, seg2, int64(seg1.TotalSize()))

	f := &File{table: schema.Matroska, root: root, length: uint64(root.EndLastChild())}
	f.stream = &memBuf{}

	err := f.SaveChanges(false)
	if err == nil {
		t.Fatal("expected SaveChanges to refuse a collision")
	}
	if !IsInconsistent(err) {
		t.Errorf("expected an Inconsistent error, got %v", err)
	}
}
