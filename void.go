package ebml

import (
	"io"
)

// voidElement is padding: its data bytes carry no meaning and are never
// read back, only ever written as zero fill. Any data width down to 0
// is legal, so a Void is the rearranger's universal gap-filler.
type voidElement struct {
	elementBase
}

// newVoidElement builds an in-memory Void of the given data size,
// positioned at 0 until the caller (typically Container.FillGaps)
// repositions it.
func newVoidElement(dataSize uint64) Element {
	h, err := NewHeader(0xEC, dataSize)
	if err != nil {
		// dataSize is always caller-computed from a gap already known
		// to be representable; a failure here means a logic error
		// upstream, not a recoverable runtime condition.
		panic(err)
	}
	return newVoidFromHeader(h)
}

// newVoidFromHeader wraps an already-decoded header (preserving whatever
// size-VINT width was actually on disk) in a Void element, used by the
// stream reader rather than by gap-filling code that builds its own
// minimal header.
func newVoidFromHeader(h *Header) Element {
	return &voidElement{elementBase: newElementBase(h, "Void", nil)}
}

func (v *voidElement) Variant() Variant { return VariantVoidKind }

func (v *voidElement) MinDataSize() uint64 { return 0 }
func (v *voidElement) MaxDataSize() uint64 { return MaxDataSize }

func (v *voidElement) MinTotalSize() uint64 {
	return v.minTotalSizeDefault(0)
}

func (v *voidElement) ValidDataSizeLE(goal uint64) (uint64, bool) {
	if goal > MaxDataSize {
		goal = MaxDataSize
	}
	return goal, true
}

func (v *voidElement) ValidTotalSizeLE(goal uint64) (int, uint64, bool) {
	return solveTotalSize(v, goal)
}

func (v *voidElement) Resize(dataWidth uint64) error  { return resizeDataGeneric(v, dataWidth) }
func (v *voidElement) ResizeTotal(total uint64) error { return resizeTotalGeneric(v, total) }

func (v *voidElement) IsDirty() bool { return v.baseDirty() }
func (v *voidElement) SetDirty(dirty bool) {
	if dirty {
		v.forcedDirty = true
		return
	}
	v.snapshot(nil)
}

func (v *voidElement) ReadData(r io.ReadSeeker) error {
	if _, err := r.Seek(int64(v.header.Size), io.SeekCurrent); err != nil {
		return wrapf(err, "skipping void payload")
	}
	v.state = StateLoaded
	v.snapshot(nil)
	return nil
}

func (v *voidElement) ReadSummary(r io.ReadSeeker) error {
	return v.ReadData(r)
}

func (v *voidElement) Write(w io.WriteSeeker) error {
	hdr, err := v.header.Encode()
	if err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		return wrapf(err, "writing void header")
	}
	zeros := make([]byte, v.header.Size)
	if _, err := w.Write(zeros); err != nil {
		return wrapf(err, "writing void payload")
	}
	v.snapshot(nil)
	return nil
}

func (v *voidElement) CheckConsecutivity() error { return nil }
func (v *voidElement) CheckConsistency() error   { return nil }

func (v *voidElement) String() string  { return "Void" }
func (v *voidElement) Summary() string { return "Void" }
