package ebml

import "io"

// unsupportedElement is an element whose ID the schema doesn't know, or
// whose content this engine declines to interpret. Its data width is
// rigid (exactly whatever was read) and it may never be written: a
// clean Unsupported is reproduced byte-for-byte by its parent seeking
// past it, never by re-encoding content we never decoded.
type unsupportedElement struct {
	elementBase
	raw []byte
}

func newUnsupportedElement(header *Header) Element {
	return &unsupportedElement{elementBase: newElementBase(header, "Unknown", nil)}
}

func (u *unsupportedElement) Variant() Variant { return VariantUnsupported }

func (u *unsupportedElement) MinDataSize() uint64  { return u.header.Size }
func (u *unsupportedElement) MaxDataSize() uint64  { return u.header.Size }
func (u *unsupportedElement) MinTotalSize() uint64 { return u.TotalSize() }

func (u *unsupportedElement) ValidDataSizeLE(goal uint64) (uint64, bool) {
	if goal < u.header.Size {
		return 0, false
	}
	return u.header.Size, true
}

func (u *unsupportedElement) ValidTotalSizeLE(goal uint64) (int, uint64, bool) {
	if u.TotalSize() > goal {
		return 0, 0, false
	}
	return u.header.Width, u.header.Size, true
}

func (u *unsupportedElement) Resize(dataWidth uint64) error {
	return newValueError("%s: unsupported elements cannot be resized", u.name)
}

func (u *unsupportedElement) ResizeTotal(total uint64) error {
	return newValueError("%s: unsupported elements cannot be resized", u.name)
}

func (u *unsupportedElement) IsDirty() bool       { return u.forcedDirty }
func (u *unsupportedElement) SetDirty(dirty bool) { u.forcedDirty = dirty }

func (u *unsupportedElement) ReadData(r io.ReadSeeker) error {
	u.raw = make([]byte, u.header.Size)
	if _, err := io.ReadFull(r, u.raw); err != nil {
		return newEndOfStream("reading unsupported element %s: %v", u.name, err)
	}
	u.state = StateLoaded
	u.snapshot(nil)
	return nil
}

func (u *unsupportedElement) ReadSummary(r io.ReadSeeker) error {
	if _, err := r.Seek(int64(u.header.Size), io.SeekCurrent); err != nil {
		return wrapf(err, "skipping unsupported element %s", u.name)
	}
	u.state = StateSummary
	u.snapshot(nil)
	return nil
}

// Write refuses to emit anything for a dirty Unsupported (there is no
// legal encoding to fall back to); a clean one is never called here
// since Container.Write seeks past clean children instead.
func (u *unsupportedElement) Write(w io.WriteSeeker) error {
	if u.IsDirty() {
		return newInconsistent("%s: unsupported elements may not be written", u.name)
	}
	hdr, err := u.header.Encode()
	if err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		return wrapf(err, "writing unsupported element header %s", u.name)
	}
	if _, err := w.Write(u.raw); err != nil {
		return wrapf(err, "writing unsupported element body %s", u.name)
	}
	return nil
}

func (u *unsupportedElement) CheckConsecutivity() error { return nil }
func (u *unsupportedElement) CheckConsistency() error   { return nil }

func (u *unsupportedElement) String() string  { return "Unsupported(id=" + formatID(u.header.ID) + ")" }
func (u *unsupportedElement) Summary() string { return u.String() }
