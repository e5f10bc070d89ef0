package schema

import "testing"

func TestMatroskaLookupKnownID(t *testing.T) {
	tag, ok := Matroska.Lookup(SegmentID)
	if !ok {
		t.Fatal("expected Segment to be registered")
	}
	if tag.Name != "Segment" {
		t.Errorf("Name = %q, want %q", tag.Name, "Segment")
	}
}

func TestMatroskaLookupUnknownID(t *testing.T) {
	if _, ok := Matroska.Lookup(0xDEADBEEF); ok {
		t.Error("expected an unregistered ID to miss")
	}
}

func TestMatroskaByName(t *testing.T) {
	tag, ok := Matroska.ByName("TrackType")
	if !ok {
		t.Fatal("expected TrackType to be registered")
	}
	if tag.ID != idTrackType {
		t.Errorf("ID = %x, want %x", tag.ID, idTrackType)
	}
}

func TestMatroskaAllowedUnder(t *testing.T) {
	if !Matroska.AllowedUnder(idTrackEntry, idTrackType) {
		t.Error("expected TrackType to be legal under TrackEntry")
	}
	if Matroska.AllowedUnder(idSegmentInfo, idTrackType) {
		t.Error("expected TrackType to not be legal under Info")
	}
}

func TestMatroskaAllowedUnderGlobalElement(t *testing.T) {
	// Void is Global: legal under any parent, regardless of Parents.
	if !Matroska.AllowedUnder(idSegmentInfo, idVoid) {
		t.Error("expected Void (Global) to be legal under any parent")
	}
	if !Matroska.AllowedUnder(idTrackEntry, idVoid) {
		t.Error("expected Void (Global) to be legal under any parent")
	}
}

func TestMatroskaChildrenOfFindsMandatory(t *testing.T) {
	children := Matroska.ChildrenOf(idTrackEntry)
	found := false
	for _, tag := range children {
		if tag.ID == idTrackNum && tag.Mandatory {
			found = true
		}
	}
	if !found {
		t.Error("expected TrackNumber to appear as a mandatory child of TrackEntry")
	}
}

func TestMatroskaChildrenOfExcludesGlobal(t *testing.T) {
	for _, tag := range Matroska.ChildrenOf(idTrackEntry) {
		if tag.Global {
			t.Errorf("ChildrenOf should not list global tag %s", tag.Name)
		}
	}
}

func TestMatroskaLevel0(t *testing.T) {
	level0 := Matroska.Level0()
	found := false
	for _, id := range level0 {
		if id == idSegment {
			found = true
		}
	}
	if !found {
		t.Error("expected Segment to be a level-0 element")
	}
}

func TestNewTableIndependentFromGlobal(t *testing.T) {
	custom := NewTable([]*Tag{
		{ID: 0x1, Name: "Root", Variant: Master},
		{ID: 0x2, Name: "Child", Variant: Unsigned, Parents: []uint32{0x1}},
	})
	if _, ok := custom.Lookup(SegmentID); ok {
		t.Error("expected a custom table to know nothing about the built-in Matroska IDs")
	}
	if !custom.AllowedUnder(0x1, 0x2) {
		t.Error("expected Child to be legal under Root in the custom table")
	}
}
