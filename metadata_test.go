package gif

import "testing"

func TestUnpackLSD(t *testing.T) {
	// 1_111_0_010: GCT flag set, color resolution field 111 (=8 bits
	// per primary => 256), sort flag unset, GCT size field 010 (=2,
	// i.e. length 2^(2+1) = 8).
	gctFlag, colorRes, sortFlag, sizePower := unpackLSD(0xF2)
	if !gctFlag {
		t.Fatal("expected GCT flag set")
	}
	if colorRes != 256 {
		t.Fatalf("expected color resolution 256, got %d", colorRes)
	}
	if sortFlag {
		t.Fatal("expected sort flag unset")
	}
	if sizePower != 2 {
		t.Fatalf("expected GCT size field 2, got %d", sizePower)
	}
}

func TestUnpackLSDNoGCT(t *testing.T) {
	gctFlag, _, sortFlag, _ := unpackLSD(0x08)
	if gctFlag {
		t.Fatal("expected GCT flag unset")
	}
	if !sortFlag {
		t.Fatal("expected sort flag set")
	}
}

func TestColorTableLength(t *testing.T) {
	cases := map[int]int{0: 2, 1: 4, 2: 8, 7: 256}
	for power, want := range cases {
		if got := colorTableLength(power); got != want {
			t.Fatalf("colorTableLength(%d): expected %d, got %d", power, want, got)
		}
	}
}
