package ebml

import (
	"io"

	"github.com/luispater/ebmledit/internal/schema"
)

// State is the loadedness of an element: how much of its on-disk image
// has actually been brought into memory.
type State int

const (
	// StateUnloaded: neither summarized nor loaded; only ever true
	// between decoding a header and dispatching read_data/read_summary.
	StateUnloaded State = iota
	// StateSummary: metadata is resident but a MasterDefer's children
	// (or a Segment's Cluster bytes) were not read.
	StateSummary
	// StateLoaded: fully resident.
	StateLoaded
)

// Variant is re-exported from the schema package so callers that only
// import the core package never need to reach into internal/schema.
type Variant = schema.Variant

const (
	VariantMaster      = schema.Master
	VariantMasterDefer = schema.MasterDefer
	VariantUnsigned    = schema.Unsigned
	VariantSigned      = schema.Signed
	VariantBoolean     = schema.Boolean
	VariantEnum        = schema.Enum
	VariantBitField    = schema.BitField
	VariantFloat       = schema.Float
	VariantAsciiString = schema.AsciiString
	VariantUtf8String  = schema.Utf8String
	VariantDate        = schema.Date
	VariantBinary      = schema.Binary
	VariantID          = schema.ID
	VariantVoidKind    = schema.Void
	// VariantPlaceholder and VariantUnsupported have no schema
	// counterpart: they are assigned by the core engine itself, never
	// looked up from a Tag.
	VariantPlaceholder Variant = -1
	VariantUnsupported Variant = -2
)

// original snapshots an element's on-disk image at the moment it was
// read (or last marked clean), so IsDirty can tell whether anything has
// since changed.
type original struct {
	absPos      uint64
	totalSize   uint64
	headerWidth int
	valueSig    interface{} // nil for non-atomic kinds
}

// Element is the common interface every node in the tree satisfies:
// Master, MasterDefer, the Atomic kinds, Void, Placeholder, and
// Unsupported. Kind-specific behavior (size bounds, encode/decode) is
// supplied by each concrete type; positional/dirty bookkeeping is
// shared via elementBase.
type Element interface {
	Header() *Header
	Name() string
	Variant() Variant
	State() State
	SetState(State)

	Parent() *Container
	SetParent(*Container)
	PosRelative() int64
	SetPosRelative(int64)
	AbsPos() uint64
	TotalSize() uint64

	IsDirty() bool
	SetDirty(bool)
	ForceDirtyRecurse()

	MinDataSize() uint64
	MaxDataSize() uint64
	MinTotalSize() uint64
	ValidDataSizeLE(goal uint64) (uint64, bool)
	ValidTotalSizeLE(goal uint64) (headerWidth int, dataWidth uint64, ok bool)
	Resize(dataWidth uint64) error
	ResizeTotal(total uint64) error

	ReadData(r io.ReadSeeker) error
	ReadSummary(r io.ReadSeeker) error
	ReadRaw(r io.ReadSeeker) ([]byte, error)
	Write(w io.WriteSeeker) error

	CheckConsecutivity() error
	CheckConsistency() error

	String() string
	Summary() string
}

// elementBase holds the state common to every Element kind: header,
// schema tag, tree position, loadedness, and the on-disk snapshot used
// for dirty tracking. Concrete kinds embed elementBase and implement
// the size/encode parts of the Element interface themselves.
type elementBase struct {
	header *Header
	name   string
	tag    *schema.Tag

	parent      *Container
	posRelative int64
	state       State

	original    *original
	forcedDirty bool
}

func newElementBase(header *Header, name string, tag *schema.Tag) elementBase {
	return elementBase{header: header, name: name, tag: tag}
}

func (e *elementBase) Header() *Header        { return e.header }
func (e *elementBase) Name() string           { return e.name }
func (e *elementBase) State() State           { return e.state }
func (e *elementBase) SetState(s State)       { e.state = s }
func (e *elementBase) Parent() *Container     { return e.parent }
func (e *elementBase) SetParent(p *Container) { e.parent = p }
func (e *elementBase) PosRelative() int64     { return e.posRelative }
func (e *elementBase) SetPosRelative(p int64) { e.posRelative = p }

func (e *elementBase) AbsPos() uint64 {
	if e.parent == nil {
		if e.posRelative < 0 {
			return 0
		}
		return uint64(e.posRelative)
	}
	base := e.parent.posDataAbsolute
	if e.posRelative < 0 {
		return base - uint64(-e.posRelative)
	}
	return base + uint64(e.posRelative)
}

func (e *elementBase) TotalSize() uint64 {
	return uint64(e.header.EncodedWidth()) + e.header.Size
}

// ReadRaw returns the element's on-disk image, header and data together,
// read fresh from r; a debugging aid for dumping an element verbatim
// without going through its own (possibly lazy) ReadData.
func (e *elementBase) ReadRaw(r io.ReadSeeker) ([]byte, error) {
	if _, err := r.Seek(int64(e.AbsPos()), io.SeekStart); err != nil {
		return nil, wrapf(err, "seeking to %s for ReadRaw", e.name)
	}
	buf := make([]byte, e.TotalSize())
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, wrapf(err, "reading raw bytes of %s", e.name)
	}
	return buf, nil
}

// baseDirty implements the position/size/header-width/forced checks
// shared by every variant; atomic kinds additionally compare a value
// signature, and Master additionally checks its children, so each
// concrete IsDirty() calls this first and ORs in its own extra test.
func (e *elementBase) baseDirty() bool {
	if e.forcedDirty {
		return true
	}
	if e.original == nil {
		return true
	}
	if e.AbsPos() != e.original.absPos {
		return true
	}
	if e.TotalSize() != e.original.totalSize {
		return true
	}
	if e.header.EncodedWidth() != e.original.headerWidth {
		return true
	}
	return false
}

// snapshot records the current on-disk image as clean, the common part
// of SetDirty(false); atomic kinds pass their value signature.
func (e *elementBase) snapshot(valueSig interface{}) {
	e.forcedDirty = false
	e.original = &original{
		absPos:      e.AbsPos(),
		totalSize:   e.TotalSize(),
		headerWidth: e.header.EncodedWidth(),
		valueSig:    valueSig,
	}
}

func (e *elementBase) ForceDirtyRecurse() {
	e.forcedDirty = true
}

// minTotalSizeDefault computes the smallest legal total size implied by
// a data size of minData: the ID's fixed width plus the smallest size
// VINT able to encode minData plus minData itself, floored by whatever
// the schema additionally demands via HeaderSizeMin.
func (e *elementBase) minTotalSizeDefault(minData uint64) uint64 {
	idW := e.header.idWidth()
	sizeW := vintMinWidth(minData)
	if sizeW == 0 {
		sizeW = 8
	}
	headerW := idW + sizeW
	if e.tag != nil && e.tag.HeaderSizeMin > headerW {
		headerW = e.tag.HeaderSizeMin
	}
	return uint64(headerW) + minData
}

// unlink detaches the element from its parent's tree without releasing
// it; the element itself is still owned by whatever slice still holds
// it (normally none, once its parent's orderedList.Remove has run).
func (e *elementBase) unlink() {
	e.parent = nil
}
