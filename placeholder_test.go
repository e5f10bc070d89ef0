package ebml

import "testing"

func TestPlaceholderResizeRejectsAnyChange(t *testing.T) {
	under := newMasterElement(mustHeader(t, 0x1F43B675, 20), "Cluster", nil, nil)
	under.SetPosRelative(100)
	ph := newPlaceholderElement(under)

	if err := ph.Resize(21); err == nil {
		t.Error("expected Resize to any other width to be rejected")
	}
	if err := ph.Resize(20); err != nil {
		t.Errorf("expected Resize to the current width to succeed, got %v", err)
	}
}

func TestPlaceholderResizeTotalRejectsAnyChange(t *testing.T) {
	under := newMasterElement(mustHeader(t, 0x1F43B675, 20), "Cluster", nil, nil)
	ph := newPlaceholderElement(under)

	if err := ph.ResizeTotal(ph.TotalSize() + 1); err == nil {
		t.Error("expected ResizeTotal to any other size to be rejected")
	}
	if err := ph.ResizeTotal(ph.TotalSize()); err != nil {
		t.Errorf("expected ResizeTotal to the current size to succeed, got %v", err)
	}
}

func TestPlaceholderIsNeverDirty(t *testing.T) {
	under := newMasterElement(mustHeader(t, 0x1F43B675, 20), "Cluster", nil, nil)
	ph := newPlaceholderElement(under)
	ph.SetDirty(true) // a no-op: placeholders are never considered dirty

	if ph.IsDirty() {
		t.Error("expected a Placeholder to never report dirty")
	}
}

func TestPlaceholderUnderReturnsOriginal(t *testing.T) {
	under := newMasterElement(mustHeader(t, 0x1F43B675, 20), "Cluster", nil, nil)
	ph := newPlaceholderElement(under)

	p, ok := ph.(*placeholderElement)
	if !ok {
		t.Fatal("expected a *placeholderElement")
	}
	if p.Under() != under {
		t.Error("expected Under() to return the wrapped element")
	}
}

func TestPlaceholderPreservesPositionAndSize(t *testing.T) {
	under := newMasterElement(mustHeader(t, 0x1F43B675, 20), "Cluster", nil, nil)
	under.SetPosRelative(500)
	ph := newPlaceholderElement(under)

	if ph.PosRelative() != 500 {
		t.Errorf("PosRelative() = %d, want 500", ph.PosRelative())
	}
	if ph.TotalSize() != under.TotalSize() {
		t.Errorf("TotalSize() = %d, want %d (matching the wrapped element)", ph.TotalSize(), under.TotalSize())
	}
}
