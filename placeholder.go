package ebml

import "io"

// placeholderElement stands in for a byte range whose content the
// engine never reads or interprets: a Cluster or (in summary mode)
// Cues region during Segment normalization. It refuses to be resized
// and, on write, seeks past its range instead of emitting a header, so
// the underlying media bytes are never touched.
type placeholderElement struct {
	elementBase
	under Element // the real element this placeholder stands in for, restored after normalize
}

// newPlaceholderElement wraps under, an already-positioned element
// whose region must not move or be rewritten, in an immovable
// placeholder of the same size.
func newPlaceholderElement(under Element) Element {
	h := *under.Header()
	p := &placeholderElement{
		elementBase: newElementBase(&h, under.Name(), nil),
		under:       under,
	}
	p.posRelative = under.PosRelative()
	p.state = StateSummary
	p.snapshot(nil)
	return p
}

// Under returns the element this placeholder is standing in for.
func (p *placeholderElement) Under() Element { return p.under }

func (p *placeholderElement) Variant() Variant { return VariantPlaceholder }

func (p *placeholderElement) MinDataSize() uint64   { return p.header.Size }
func (p *placeholderElement) MaxDataSize() uint64   { return p.header.Size }
func (p *placeholderElement) MinTotalSize() uint64  { return p.TotalSize() }

func (p *placeholderElement) ValidDataSizeLE(goal uint64) (uint64, bool) {
	if goal < p.header.Size {
		return 0, false
	}
	return p.header.Size, true
}

func (p *placeholderElement) ValidTotalSizeLE(goal uint64) (int, uint64, bool) {
	total := p.TotalSize()
	if total > goal {
		return 0, 0, false
	}
	return p.header.Width, p.header.Size, true
}

func (p *placeholderElement) Resize(dataWidth uint64) error {
	if dataWidth != p.header.Size {
		return newValueError("placeholder %s is immovable and cannot resize", p.name)
	}
	return nil
}

func (p *placeholderElement) ResizeTotal(total uint64) error {
	if total != p.TotalSize() {
		return newValueError("placeholder %s is immovable and cannot resize", p.name)
	}
	return nil
}

func (p *placeholderElement) IsDirty() bool        { return false }
func (p *placeholderElement) SetDirty(dirty bool)  {}

func (p *placeholderElement) ReadData(r io.ReadSeeker) error    { return nil }
func (p *placeholderElement) ReadSummary(r io.ReadSeeker) error { return nil }

// Write seeks past the placeholder's range without emitting anything,
// leaving the region's bytes exactly as they were on disk.
func (p *placeholderElement) Write(w io.WriteSeeker) error {
	_, err := w.Seek(int64(p.TotalSize()), io.SeekCurrent)
	if err != nil {
		return wrapf(err, "seeking past placeholder %s", p.name)
	}
	return nil
}

func (p *placeholderElement) CheckConsecutivity() error { return nil }
func (p *placeholderElement) CheckConsistency() error   { return nil }

func (p *placeholderElement) String() string  { return "Placeholder(" + p.name + ")" }
func (p *placeholderElement) Summary() string { return p.String() }
