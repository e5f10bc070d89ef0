package ebml

import (
	"crypto/sha512"
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/luispater/ebmledit/internal/schema"
)

// dateEpoch is the Matroska Date epoch: 2001-01-01T00:00:00Z.
var dateEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// atomicElement is every fixed-kind, no-children element: the numeric,
// string, binary, and nested-ID value kinds listed in §3. A single type
// serves all of them, switching on variant for encode/decode and width
// rules, the way the teacher's readVInt switches on a marker byte
// rather than growing a type per width.
type atomicElement struct {
	elementBase
	variant Variant

	u   uint64 // Unsigned, Boolean, Enum, BitField, ID
	s   int64  // Signed, Date
	f   float64
	str string // AsciiString, Utf8String (trimmed of trailing NUL)
	raw []byte // Binary
}

func newAtomicElement(header *Header, name string, variant Variant, tag *schema.Tag) *atomicElement {
	return &atomicElement{elementBase: newElementBase(header, name, tag), variant: variant}
}

func (a *atomicElement) Variant() Variant { return a.variant }

// ---- typed accessors ----

func (a *atomicElement) Uint() uint64     { return a.u }
func (a *atomicElement) Int() int64       { return a.s }
func (a *atomicElement) Float64() float64 { return a.f }
func (a *atomicElement) Bool() bool       { return a.u != 0 }
func (a *atomicElement) Str() string      { return a.str }
func (a *atomicElement) Bytes() []byte    { return a.raw }
func (a *atomicElement) Time() time.Time  { return dateEpoch.Add(time.Duration(a.s)) }

func (a *atomicElement) SetUint(v uint64) error {
	switch a.variant {
	case VariantUnsigned, VariantBoolean, VariantEnum, VariantBitField, VariantID:
	default:
		return newValueError("%s: not an unsigned-valued element", a.name)
	}
	a.u = v
	return a.growToFit()
}

func (a *atomicElement) SetInt(v int64) error {
	if a.variant != VariantSigned {
		return newValueError("%s: not a signed-valued element", a.name)
	}
	a.s = v
	return a.growToFit()
}

func (a *atomicElement) SetBool(v bool) error {
	if a.variant != VariantBoolean {
		return newValueError("%s: not a boolean element", a.name)
	}
	if v {
		a.u = 1
	} else {
		a.u = 0
	}
	return a.growToFit()
}

func (a *atomicElement) SetFloat64(v float64) error {
	if a.variant != VariantFloat {
		return newValueError("%s: not a float element", a.name)
	}
	a.f = v
	if a.header.Size < 8 && !floatFitsFloat32(v) {
		// shrinking below the current width is forbidden, but growing to
		// fit a value that needs double precision is always allowed.
		return a.header.SetSize(8)
	}
	return nil
}

func (a *atomicElement) SetStr(v string) error {
	switch a.variant {
	case VariantAsciiString, VariantUtf8String:
	default:
		return newValueError("%s: not a string element", a.name)
	}
	a.str = v
	return a.growToFit()
}

func (a *atomicElement) SetBytes(v []byte) error {
	if a.variant != VariantBinary {
		return newValueError("%s: not a binary element", a.name)
	}
	if a.tag != nil && a.tag.MinVal > 0 && allZero(v) {
		return newValueError("%s: requires nonzero content", a.name)
	}
	a.raw = append([]byte(nil), v...)
	return a.Header().SetSize(uint64(len(a.raw)))
}

func (a *atomicElement) SetTime(t time.Time) error {
	if a.variant != VariantDate {
		return newValueError("%s: not a date element", a.name)
	}
	a.s = int64(t.Sub(dateEpoch))
	return nil
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func floatFitsFloat32(v float64) bool {
	return float64(float32(v)) == v
}

// growToFit widens the header, if needed, to the smallest legal width
// that can hold the current value; it never shrinks, matching the
// header resize invariant (§3 Header).
func (a *atomicElement) growToFit() error {
	min := a.MinDataSize()
	if a.header.Size < min {
		return a.Header().SetSize(min)
	}
	return nil
}

// ---- sizing contract (§4.2) ----

func (a *atomicElement) MinDataSize() uint64 {
	floor := uint64(0)
	if a.tag != nil {
		floor = a.tag.DataSizeMin
	}
	var need uint64
	switch a.variant {
	case VariantUnsigned, VariantBoolean, VariantEnum, VariantBitField:
		need = uint64(minBytesUnsigned(a.u))
	case VariantSigned:
		need = uint64(minBytesSigned(a.s))
	case VariantID:
		w := vintMinWidth(a.u)
		if w == 0 || w > 4 {
			w = 4
		}
		need = uint64(w)
	case VariantFloat:
		if a.header.Size > 4 {
			need = 8
		} else {
			need = 4
		}
	case VariantAsciiString, VariantUtf8String:
		need = uint64(len(a.str))
	case VariantDate:
		need = 8
	case VariantBinary:
		need = uint64(len(a.raw))
	}
	if need < floor {
		need = floor
	}
	return need
}

func (a *atomicElement) MaxDataSize() uint64 {
	switch a.variant {
	case VariantUnsigned, VariantBoolean, VariantEnum, VariantBitField:
		return 8
	case VariantSigned:
		return 8
	case VariantID:
		return 4
	case VariantFloat:
		return 8
	case VariantDate:
		return 8
	case VariantBinary:
		return uint64(len(a.raw))
	default: // strings
		return MaxDataSize
	}
}

func (a *atomicElement) MinTotalSize() uint64 { return a.minTotalSizeDefault(a.MinDataSize()) }

func (a *atomicElement) ValidDataSizeLE(goal uint64) (uint64, bool) {
	min := a.MinDataSize()
	switch a.variant {
	case VariantUnsigned, VariantBoolean, VariantEnum, VariantBitField, VariantSigned, VariantID:
		max := a.MaxDataSize()
		if goal < min {
			return 0, false
		}
		if goal > max {
			return max, true
		}
		return goal, true
	case VariantFloat:
		best := uint64(0)
		found := false
		for _, w := range []uint64{4, 8} {
			if w < min {
				continue
			}
			if w <= goal {
				best, found = w, true
			}
		}
		return best, found
	case VariantDate:
		if goal < 8 {
			return 0, false
		}
		return 8, true
	case VariantBinary:
		if goal < min {
			return 0, false
		}
		return min, true
	default: // strings
		if goal < min {
			return 0, false
		}
		return goal, true
	}
}

func (a *atomicElement) ValidTotalSizeLE(goal uint64) (int, uint64, bool) {
	return solveTotalSize(a, goal)
}

func (a *atomicElement) Resize(dataWidth uint64) error  { return resizeDataGeneric(a, dataWidth) }
func (a *atomicElement) ResizeTotal(total uint64) error { return resizeTotalGeneric(a, total) }

func minBytesUnsigned(v uint64) int {
	n := 0
	for v > 0 {
		n++
		v >>= 8
	}
	if n == 0 {
		n = 1
	}
	return n
}

func minBytesSigned(v int64) int {
	n := 1
	for {
		if v >= -(1<<(8*n-1)) && v < (1<<(8*n-1)) {
			return n
		}
		n++
		if n > 8 {
			return 8
		}
	}
}

// ---- dirty tracking (§4.9) ----

func (a *atomicElement) valueSignature() interface{} {
	switch a.variant {
	case VariantUnsigned, VariantBoolean, VariantEnum, VariantBitField, VariantID:
		return a.u
	case VariantSigned, VariantDate:
		return a.s
	case VariantFloat:
		return a.f
	case VariantAsciiString, VariantUtf8String:
		return a.str
	case VariantBinary:
		if len(a.raw) >= 1024 {
			sum := sha512.Sum512(a.raw)
			return sum
		}
		return string(a.raw)
	}
	return nil
}

func (a *atomicElement) IsDirty() bool {
	if a.baseDirty() {
		return true
	}
	if a.original == nil {
		return true
	}
	return a.valueSignature() != a.original.valueSig
}

func (a *atomicElement) SetDirty(dirty bool) {
	if dirty {
		a.forcedDirty = true
		return
	}
	a.snapshot(a.valueSignature())
}

// ---- encode/decode ----

func (a *atomicElement) encodePayload() ([]byte, error) {
	w := int(a.header.Size)
	switch a.variant {
	case VariantUnsigned, VariantBoolean, VariantEnum, VariantBitField, VariantID:
		return encodeBigEndianUint(a.u, w), nil
	case VariantSigned, VariantDate:
		return encodeBigEndianUint(uint64(a.s), w), nil
	case VariantFloat:
		switch w {
		case 4:
			b := make([]byte, 4)
			binary.BigEndian.PutUint32(b, math.Float32bits(float32(a.f)))
			return b, nil
		case 8:
			b := make([]byte, 8)
			binary.BigEndian.PutUint64(b, math.Float64bits(a.f))
			return b, nil
		default:
			return nil, newValueError("%s: float width must be 4 or 8, got %d", a.name, w)
		}
	case VariantAsciiString, VariantUtf8String:
		b := make([]byte, w)
		copy(b, a.str)
		return b, nil
	case VariantBinary:
		if len(a.raw) != w {
			return nil, newValueError("%s: binary content length %d does not match data size %d", a.name, len(a.raw), w)
		}
		return append([]byte(nil), a.raw...), nil
	}
	return nil, newValueError("%s: unsupported variant for encoding", a.name)
}

func encodeBigEndianUint(v uint64, width int) []byte {
	b := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func (a *atomicElement) decodePayload(buf []byte) error {
	switch a.variant {
	case VariantUnsigned, VariantBoolean, VariantEnum, VariantBitField, VariantID:
		a.u = decodeBigEndianUint(buf)
	case VariantSigned:
		a.s = decodeBigEndianSigned(buf)
	case VariantDate:
		a.s = decodeBigEndianSigned(buf)
	case VariantFloat:
		switch len(buf) {
		case 4:
			a.f = float64(math.Float32frombits(binary.BigEndian.Uint32(buf)))
		case 8:
			a.f = math.Float64frombits(binary.BigEndian.Uint64(buf))
		default:
			return newDecodeError("%s: float payload must be 4 or 8 bytes, got %d", a.name, len(buf))
		}
	case VariantAsciiString, VariantUtf8String:
		n := len(buf)
		for n > 0 && buf[n-1] == 0 {
			n--
		}
		a.str = string(buf[:n])
	case VariantBinary:
		a.raw = append([]byte(nil), buf...)
	default:
		return newDecodeError("%s: unsupported variant for decoding", a.name)
	}
	return nil
}

func decodeBigEndianUint(buf []byte) uint64 {
	var v uint64
	for _, b := range buf {
		v = (v << 8) | uint64(b)
	}
	return v
}

func decodeBigEndianSigned(buf []byte) int64 {
	if len(buf) == 0 {
		return 0
	}
	v := decodeBigEndianUint(buf)
	bits := uint(len(buf)) * 8
	signBit := uint64(1) << (bits - 1)
	if v&signBit != 0 && bits < 64 {
		v -= uint64(1) << bits
	}
	return int64(v)
}

func (a *atomicElement) ReadData(r io.ReadSeeker) error {
	buf := make([]byte, a.header.Size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return newEndOfStream("reading %s: %v", a.name, err)
	}
	if err := a.decodePayload(buf); err != nil {
		return err
	}
	a.state = StateLoaded
	a.snapshot(a.valueSignature())
	return nil
}

func (a *atomicElement) ReadSummary(r io.ReadSeeker) error { return a.ReadData(r) }

func (a *atomicElement) Write(w io.WriteSeeker) error {
	hdr, err := a.header.Encode()
	if err != nil {
		return err
	}
	payload, err := a.encodePayload()
	if err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		return wrapf(err, "writing %s header", a.name)
	}
	if _, err := w.Write(payload); err != nil {
		return wrapf(err, "writing %s payload", a.name)
	}
	a.snapshot(a.valueSignature())
	return nil
}

func (a *atomicElement) CheckConsecutivity() error { return nil }

func (a *atomicElement) ValidateValue() error {
	if a.tag == nil {
		return nil
	}
	switch a.variant {
	case VariantUnsigned, VariantBoolean, VariantEnum, VariantBitField, VariantID:
		if a.tag.HasMinVal && int64(a.u) < a.tag.MinVal {
			return newInconsistent("%s: value %d below minimum %d", a.name, a.u, a.tag.MinVal)
		}
		if a.tag.HasMaxVal && int64(a.u) > a.tag.MaxVal {
			return newInconsistent("%s: value %d above maximum %d", a.name, a.u, a.tag.MaxVal)
		}
	case VariantSigned:
		if a.tag.HasMinVal && a.s < a.tag.MinVal {
			return newInconsistent("%s: value %d below minimum %d", a.name, a.s, a.tag.MinVal)
		}
		if a.tag.HasMaxVal && a.s > a.tag.MaxVal {
			return newInconsistent("%s: value %d above maximum %d", a.name, a.s, a.tag.MaxVal)
		}
	case VariantBinary:
		if a.tag.MinVal > 0 && allZero(a.raw) {
			return newInconsistent("%s: must be nonzero", a.name)
		}
	}
	return nil
}

func (a *atomicElement) CheckConsistency() error { return a.ValidateValue() }

func (a *atomicElement) String() string  { return a.name }
func (a *atomicElement) Summary() string { return a.name }
