package ebml

import "io"

// maxIDWidth is the canonical maximum width of an EBML element ID.
const maxIDWidth = 4

// Header is the two-part prefix of every EBML element: an element ID
// and a payload size, each VINT-encoded, plus the total encoded width
// of the size VINT actually chosen on the wire. Width may exceed the
// minimum needed to encode Size; this is the slack the size solver
// exploits to grow or shrink an element's header without having to
// move the data that follows it.
type Header struct {
	ID    uint32
	Size  uint64
	Width int // width in bytes of the size VINT only, not including the ID
}

// NewHeader builds a Header for id and size with the minimal legal size
// width.
func NewHeader(id uint32, size uint64) (*Header, error) {
	h := &Header{ID: id}
	if err := h.SetSize(size); err != nil {
		return nil, err
	}
	return h, nil
}

// idWidth returns the canonical encoded width of the element ID, which
// is fixed by its numeric value (IDs are always written at their
// minimal width; unlike sizes, there is no slack). ID is stored with
// its length marker bit intact (DecodeHeader keeps it), so the width is
// simply how many bytes the value occupies, not vintMinWidth's
// payload-only calculation (which reserves the all-ones pattern and so
// disagrees with marker-inclusive values like 0x4286, a 2-byte ID that
// vintMinWidth alone would call 3 bytes).
func (h *Header) idWidth() int {
	switch {
	case h.ID <= 0xFF:
		return 1
	case h.ID <= 0xFFFF:
		return 2
	case h.ID <= 0xFFFFFF:
		return 3
	default:
		return 4
	}
}

// SizeWidthMin returns the smallest legal width for the current Size.
func (h *Header) SizeWidthMin() int {
	w := vintMinWidth(h.Size)
	if w == 0 {
		return 8
	}
	return w
}

// EncodedWidth returns the total on-wire width of this header: the ID's
// canonical width plus the size VINT's width.
func (h *Header) EncodedWidth() int {
	return h.idWidth() + h.Width
}

// SetSize sets the payload size. If the current size-VINT width cannot
// hold the new size, Width grows to the minimum that can; Width never
// shrinks implicitly, matching the "grow but never auto-shrink" header
// resize invariant.
func (h *Header) SetSize(size uint64) error {
	if size > MaxDataSize {
		return newValueError("size %d exceeds MAX_DATA_SIZE", size)
	}
	min := vintMinWidth(size)
	if min == 0 {
		return newValueError("size %d has no legal vint encoding", size)
	}
	h.Size = size
	if h.Width < min {
		h.Width = min
	}
	return nil
}

// SetEncodedWidth explicitly sets the size-VINT width, range-checked
// against the current Size. Unlike SetSize, this may shrink Width, so
// callers use it deliberately when they know no wider encoding is
// needed (e.g. after confirming a smaller width still fits Size).
func (h *Header) SetEncodedWidth(width int) error {
	if width < 1 || width > 8 {
		return newValueError("header width %d out of range [1,8]", width)
	}
	if width < vintMinWidth(h.Size) {
		return newValueError("header width %d too small for size %d", width, h.Size)
	}
	h.Width = width
	return nil
}

// Encode serializes the header as ID-VINT || size-VINT.
func (h *Header) Encode() ([]byte, error) {
	idWidth := h.idWidth()
	marker := uint64(1) << uint(idWidth*7)
	payload := uint64(h.ID) &^ marker
	idBytes, err := encodeVInt(payload, idWidth)
	if err != nil {
		return nil, wrapf(err, "encoding header id")
	}
	sizeBytes, err := encodeVInt(h.Size, h.Width)
	if err != nil {
		return nil, wrapf(err, "encoding header size")
	}
	out := make([]byte, 0, len(idBytes)+len(sizeBytes))
	out = append(out, idBytes...)
	out = append(out, sizeBytes...)
	return out, nil
}

// DecodeHeader reads a Header from r: an ID VINT (marker kept, canonical
// width enforced) followed by a size VINT (marker stripped, any legal
// width accepted). The reserved "unknown length" size marker is
// rejected, since this engine never operates on unknown-size elements.
func DecodeHeader(r io.Reader) (*Header, error) {
	idVal, idUnknown, idRaw, err := decodeVInt(r, maxIDWidth, true)
	if err != nil {
		return nil, wrapf(err, "decoding element id")
	}
	if idUnknown {
		return nil, newDecodeError("element id may not use the reserved vint value")
	}
	if len(idRaw) > maxIDWidth {
		return nil, newDecodeError("element id wider than %d bytes", maxIDWidth)
	}
	if vintMinWidth(idVal&^(uint64(1)<<uint(7*len(idRaw)))) != len(idRaw) {
		return nil, newDecodeError("element id 0x%X is not in its canonical width", idVal)
	}

	sizeVal, sizeUnknown, sizeRaw, err := decodeVInt(r, 8, false)
	if err != nil {
		return nil, wrapf(err, "decoding element size")
	}
	if sizeUnknown {
		return nil, newDecodeError("unknown-length elements are not supported")
	}

	return &Header{ID: uint32(idVal), Size: sizeVal, Width: len(sizeRaw)}, nil
}
