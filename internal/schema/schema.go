// Package schema describes the external, read-only collaborator the
// editing engine consults to make sense of element IDs: names, value
// kinds, legal parents, mandatoriness/uniqueness, minimum widths,
// defaults, and enum/bitfield label tables. The engine treats a Table
// as an opaque contract (see the core package's schema.Table usage);
// this package additionally ships a built-in Matroska/WebM table so the
// engine is usable without a caller-supplied schema.
package schema

// Variant names the element kind a Tag describes, mirroring the
// element hierarchy in the core package.
type Variant int

const (
	Master Variant = iota
	MasterDefer
	Unsigned
	Signed
	Boolean
	Enum
	BitField
	Float
	AsciiString
	Utf8String
	Date
	Binary
	ID
	Void
)

// Tag is everything the core engine needs to know about one element ID:
// its name, kind, structural placement, size floors, value bounds, and
// (for Enum/BitField atomics) label tables.
type Tag struct {
	ID        uint32
	Name      string
	Variant   Variant
	Parents   []uint32 // legal immediate parent IDs; empty means level-0 (top level, a sibling of Segment)
	Global    bool     // legal under any Master, regardless of Parents
	Mandatory bool
	Multiple  bool

	HeaderSizeMin int
	DataSizeMin   uint64

	MinVal    int64
	MaxVal    int64
	HasMinVal bool
	HasMaxVal bool

	Default interface{}

	EnumLabels     map[uint64]string
	BitFieldLabels map[int]string

	// Recursive marks elements (like TagetsCrossRef-style nested
	// structures) whose children may legally contain another instance
	// of the same element; most Master kinds are not recursive.
	Recursive bool
}

// Table is the schema contract consumed by the core engine: element ID
// to Tag lookup, plus the level-0 (top-level) and Segment-level
// enumeration the Segment normalizer needs to find its metadata
// children and the immovable Cluster/Cues regions.
type Table struct {
	byID   map[uint32]*Tag
	byName map[string]*Tag
	level0 []uint32
}

// NewTable builds a Table from a flat list of Tags.
func NewTable(tags []*Tag) *Table {
	t := &Table{byID: make(map[uint32]*Tag, len(tags)), byName: make(map[string]*Tag, len(tags))}
	for _, tag := range tags {
		t.byID[tag.ID] = tag
		t.byName[tag.Name] = tag
		if len(tag.Parents) == 0 && !tag.Global {
			t.level0 = append(t.level0, tag.ID)
		}
	}
	return t
}

// Lookup returns the Tag for id, or nil (and false) if id is unknown to
// this schema, in which case the core engine instantiates an
// Unsupported element.
func (t *Table) Lookup(id uint32) (*Tag, bool) {
	tag, ok := t.byID[id]
	return tag, ok
}

// ByName returns the Tag registered under name.
func (t *Table) ByName(name string) (*Tag, bool) {
	tag, ok := t.byName[name]
	return tag, ok
}

// Level0 returns the element IDs legal as direct children of the EBML
// root (siblings of Segment itself): just the EBML header and Segment
// in the built-in table, but a caller-supplied schema may register more.
func (t *Table) Level0() []uint32 {
	return t.level0
}

// AllowedUnder reports whether childID is a legal child of parentID.
func (t *Table) AllowedUnder(parentID, childID uint32) bool {
	tag, ok := t.byID[childID]
	if !ok {
		return false
	}
	if tag.Global {
		return true
	}
	for _, p := range tag.Parents {
		if p == parentID {
			return true
		}
	}
	return false
}

// ChildrenOf returns every Tag legal as a direct child of parentID,
// used by check_consistency to enumerate mandatory/unique children.
func (t *Table) ChildrenOf(parentID uint32) []*Tag {
	var out []*Tag
	for _, tag := range t.byID {
		if tag.Global {
			continue
		}
		for _, p := range tag.Parents {
			if p == parentID {
				out = append(out, tag)
				break
			}
		}
	}
	return out
}
