package gifctx

import "testing"

func TestNewContextHasNoRememberedTable(t *testing.T) {
	c := New()
	if c.LastGlobalColorTable() != nil {
		t.Fatalf("expected nil table on a fresh context, got %v", c.LastGlobalColorTable())
	}
}

func TestRememberStoresACopy(t *testing.T) {
	c := New()
	table := []uint32{0xFF000000, 0xFFFFFFFF}
	c.Remember(table)

	got := c.LastGlobalColorTable()
	if len(got) != 2 || got[0] != table[0] || got[1] != table[1] {
		t.Fatalf("expected remembered table %v, got %v", table, got)
	}

	// Mutating the caller's slice afterward must not affect what the
	// context remembered.
	table[0] = 0x12345678
	if got := c.LastGlobalColorTable(); got[0] != 0xFF000000 {
		t.Fatalf("context table changed after caller mutated its own slice: %#x", got[0])
	}
}

func TestRememberIgnoresEmptyTable(t *testing.T) {
	c := New()
	c.Remember([]uint32{0xFF000000})
	c.Remember(nil)

	got := c.LastGlobalColorTable()
	if len(got) != 1 || got[0] != 0xFF000000 {
		t.Fatalf("expected the previously remembered table to survive an empty Remember call, got %v", got)
	}
}
