package ebml

import "github.com/luispater/ebmledit/internal/schema"

// newElementForHeader builds the concrete Element kind for header,
// consulting tag (nil if the ID is unknown to table) for its variant.
// An unknown ID, or one whose variant this engine doesn't model,
// becomes Unsupported rather than failing the read outright: a single
// unrecognized element should not abort parsing of the rest of the file.
func newElementForHeader(header *Header, tag *schema.Tag, name string, table *schema.Table) Element {
	if tag == nil {
		return newUnsupportedElement(header)
	}
	switch tag.Variant {
	case schema.Master:
		if header.ID == schema.SegmentID {
			return newSegmentElement(header, tag, table)
		}
		if header.ID == schema.ClusterID {
			return newPlaceholderElement(newMasterElement(header, name, tag, table))
		}
		return newMasterElement(header, name, tag, table)
	case schema.MasterDefer:
		return newMasterDeferElement(header, name, tag, table)
	case schema.Void:
		return newVoidFromHeader(header)
	case schema.Unsigned, schema.Signed, schema.Boolean, schema.Enum, schema.BitField,
		schema.Float, schema.AsciiString, schema.Utf8String, schema.Date, schema.Binary, schema.ID:
		return newAtomicElement(header, name, tag.Variant, tag)
	default:
		return newUnsupportedElement(header)
	}
}
