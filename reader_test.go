package gif

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/illusionman1212/gifstream/gifctx"
)

func mustBytes(t *testing.T, hexStr string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(hexStr, " ", ""))
	if err != nil {
		t.Fatalf("bad hex fixture: %v", err)
	}
	return b
}

func openFixture(t *testing.T, hexStr string, opts ...Option) *Reader {
	t.Helper()
	src, err := NewSource(bytes.NewReader(mustBytes(t, hexStr)))
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	r, err := Open(src, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r
}

// One frame, one pixel, GCT {white, black}, LZW bytes 44 01 (CLEAR then
// code 0): the pixel must decode to opaque white.
func TestOpenSingleWhitePixel(t *testing.T) {
	r := openFixture(t, "47494638 39 61 01 00 01 00 80 00 00 FF FF FF 00 00 00 2C 00 00 00 00 01 00 01 00 00 02 02 44 01 00 3B")
	defer r.Close()

	if r.TotalFrames() != 1 {
		t.Fatalf("expected 1 total frame, got %d", r.TotalFrames())
	}
	frame, err := r.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	if frame == nil {
		t.Fatal("expected a frame, got nil")
	}
	if frame.Err != nil {
		t.Fatalf("unexpected frame error: %v", frame.Err)
	}
	if len(frame.Data) != 1 || frame.Data[0] != 0xFFFFFFFF {
		t.Fatalf("expected single white pixel, got %#v", frame.Data)
	}
	if r.HasRemaining() {
		t.Fatal("expected no frames remaining")
	}
	next, err := r.NextFrame()
	if err != nil || next != nil {
		t.Fatalf("expected trailer, got frame=%v err=%v", next, err)
	}
}

// Same layout as the white-pixel case but with the GCT entries swapped:
// code 1 must resolve to the now-white palette slot.
func TestOpenSwappedPaletteStillWhite(t *testing.T) {
	r := openFixture(t, "47494638 39 61 01 00 01 00 80 00 00 00 00 00 FF FF FF 2C 00 00 00 00 01 00 01 00 00 02 02 4C 01 00 3B")
	defer r.Close()

	frame, err := r.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	if frame.Data[0] != 0xFFFFFFFF {
		t.Fatalf("expected white pixel, got %#x", frame.Data[0])
	}
}

// A graphic control extension with transparency disabled and disposal
// None precedes an otherwise-ordinary single-pixel frame.
func TestOpenGraphicControlNoTransparency(t *testing.T) {
	r := openFixture(t,
		"47494638 39 61 01 00 01 00 80 00 00 FF FF FF 00 00 00"+
			"21 F9 04 00 00 00 00 00"+
			"2C 00 00 00 00 01 00 01 00 00 02 02 44 01 00 3B")
	defer r.Close()

	frame, err := r.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	if frame.TransparencyFlag {
		t.Fatal("did not expect transparency flag set")
	}
	if frame.DisposalMethod != DisposalNone {
		t.Fatalf("expected DisposalNone, got %v", frame.DisposalMethod)
	}
	if frame.Delay != 0 {
		t.Fatalf("expected zero delay, got %d", frame.Delay)
	}
	if frame.Data[0] != 0xFFFFFFFF {
		t.Fatalf("expected opaque white pixel, got %#x", frame.Data[0])
	}
}

// A graphic control extension enabling transparency at index 0: the
// decoded pixel must be fully transparent rather than the palette color.
func TestOpenGraphicControlTransparency(t *testing.T) {
	r := openFixture(t,
		"47494638 39 61 01 00 01 00 80 00 00 FF FF FF 00 00 00"+
			"21 F9 04 01 00 00 00 00"+
			"2C 00 00 00 00 01 00 01 00 00 02 02 44 01 00 3B")
	defer r.Close()

	frame, err := r.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	if !frame.TransparencyFlag {
		t.Fatal("expected transparency flag set")
	}
	if frame.Data[0] != 0 {
		t.Fatalf("expected fully transparent pixel, got %#x", frame.Data[0])
	}
}

// A 2x2 image driven by literal LZW codes 0,1,2 then dictionary code 6
// (the first table entry built during this run, [black,white]), which
// only has room for its first pixel before the 4-pixel buffer is full.
// Verified independently by hand-tracing the dictionary's width-growth
// and code assignment bit by bit against the bit-packing rules in the
// LZW package before being encoded into this fixture; the width grows
// to 4 only once nextCode reaches 8, one code later than a naive
// (1<<width)-1 reading would grow it, so code 6 is read at width 4 as
// the encoder packed it.
func TestOpenFourColorTwoByTwo(t *testing.T) {
	r := openFixture(t,
		"47494638 39 61 02 00 02 00 81 00 00"+
			"00 00 00 FF FF FF FF 00 00 00 00 FF"+
			"2C 00 00 00 00 02 00 02 00 00 02 03 44 64 00 00 3B")
	defer r.Close()

	frame, err := r.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	want := []uint32{0xFF000000, 0xFFFFFFFF, 0xFFFF0000, 0xFF000000}
	if len(frame.Data) != 4 {
		t.Fatalf("expected 4 pixels, got %d", len(frame.Data))
	}
	for i, w := range want {
		if frame.Data[i] != w {
			t.Fatalf("pixel %d: expected %#x, got %#x", i, w, frame.Data[i])
		}
	}
	if len(frame.Warnings) != 1 || frame.Warnings[0].Kind != BufferOverflow {
		t.Fatalf("expected a single BufferOverflow warning, got %v", frame.Warnings)
	}
}

// Two frames on a 2x2 screen: frame A fills the whole canvas and
// disposes to background; frame B is a 1x1 white pixel at the origin.
// In compositor mode, frame B's canvas must show white at (0,0) and
// transparent everywhere else — RestoreToBackground must be scoped to
// frame A's own sub-rectangle and applied before frame B is blitted.
func TestOpenCompositingRestoreToBackground(t *testing.T) {
	r := openFixture(t,
		"47494638 39 61 02 00 02 00 80 00 00 00 00 00 FF FF FF"+
			"21 F9 04 08 00 00 00 00"+
			"2C 00 00 00 00 02 00 02 00 00 02 03 04 00 00 00"+
			"2C 00 00 00 00 01 00 01 00 00 02 01 0C 00"+
			"3B",
		WithCompositing())
	defer r.Close()

	if r.TotalFrames() != 2 {
		t.Fatalf("expected 2 total frames, got %d", r.TotalFrames())
	}

	frameA, err := r.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame (A): %v", err)
	}
	for i, p := range frameA.Data {
		if p != 0xFF000000 {
			t.Fatalf("frame A pixel %d: expected opaque black, got %#x", i, p)
		}
	}

	frameB, err := r.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame (B): %v", err)
	}
	if len(frameB.Data) != 4 {
		t.Fatalf("expected screen-sized canvas (4 pixels), got %d", len(frameB.Data))
	}
	want := []uint32{0xFFFFFFFF, 0, 0, 0}
	for i, w := range want {
		if frameB.Data[i] != w {
			t.Fatalf("frame B pixel %d: expected %#x, got %#x", i, w, frameB.Data[i])
		}
	}
}

// A block filter that rejects every image descriptor must still let
// total_frames reflect the real count, and each NextFrame call must
// still advance the frame index while returning a nil frame.
func TestOpenFilteredImageDescriptorSkipsButCounts(t *testing.T) {
	src, err := NewSource(bytes.NewReader(mustBytes(t,
		"47494638 39 61 01 00 01 00 80 00 00 FF FF FF 00 00 00"+
			"2C 00 00 00 00 01 00 01 00 00 02 02 44 01 00"+
			"2C 00 00 00 00 01 00 01 00 00 02 02 44 01 00"+
			"3B")))
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	r, err := Open(src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.TotalFrames() != 2 {
		t.Fatalf("expected 2 total frames, got %d", r.TotalFrames())
	}

	r.SetFilter(func(ctx FilterContext) bool {
		return ctx.Kind == BlockImageDescriptor
	})

	first, err := r.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame 1: %v", err)
	}
	if first != nil {
		t.Fatalf("expected nil frame for filtered image descriptor, got %v", first)
	}
	if !r.HasRemaining() {
		t.Fatal("expected one frame remaining after the first filtered one")
	}

	second, err := r.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame 2: %v", err)
	}
	if second != nil {
		t.Fatalf("expected nil frame for second filtered image descriptor, got %v", second)
	}
	if r.HasRemaining() {
		t.Fatal("expected no frames remaining")
	}
}

// Close must be idempotent and must close the underlying source exactly
// once regardless of how many times it is called.
func TestCloseIdempotent(t *testing.T) {
	r := openFixture(t, "47494638 39 61 01 00 01 00 80 00 00 FF FF FF 00 00 00 2C 00 00 00 00 01 00 01 00 00 02 02 44 01 00 3B")
	if err := r.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

// A stream with no color table of its own, opened with a context that
// remembers a previously-seen global color table, must fall back to it
// rather than failing with MissingColorTable.
func TestOpenWithContextReusesLastGlobalColorTable(t *testing.T) {
	ctx := gifctx.New()
	first := openFixture(t, "47494638 39 61 01 00 01 00 80 00 00 FF FF FF 00 00 00 2C 00 00 00 00 01 00 01 00 00 02 02 44 01 00 3B", WithContext(ctx))
	first.Close()

	src, err := NewSource(bytes.NewReader(mustBytes(t,
		"47494638 39 61 01 00 01 00 00 00 00"+ // no GCT flag
			"2C 00 00 00 00 01 00 01 00 00 02 02 44 01 00 3B")))
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	r, err := Open(src, WithContext(ctx))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	frame, err := r.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	if frame.Err != nil {
		t.Fatalf("expected the remembered global table to satisfy the frame, got: %v", frame.Err)
	}
	if frame.Data[0] != 0xFFFFFFFF {
		t.Fatalf("expected white pixel from the remembered table, got %#x", frame.Data[0])
	}
}

// An unpopulated table reference (a code that is neither a palette
// entry, CLEAR/EOI, nor the "not yet in table" case) must surface as a
// per-frame CorruptLzwStream error without aborting the whole stream.
func TestOpenCorruptLzwStreamIsFrameScoped(t *testing.T) {
	// min_code_size=2 -> clear=4, eoi=5, table length 2; code 3 with
	// next_code starting at 6 is out of range for the initial state.
	r := openFixture(t, "47494638 39 61 01 00 01 00 80 00 00 FF FF FF 00 00 00 2C 00 00 00 00 01 00 01 00 00 02 01 03 00 3B")
	defer r.Close()

	frame, err := r.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame should not return a stream-level error: %v", err)
	}
	if frame.Err == nil {
		t.Fatal("expected a frame-level error")
	}
	gerr, ok := frame.Err.(*Error)
	if !ok || gerr.Kind != CorruptLzwStream {
		t.Fatalf("expected CorruptLzwStream, got %v", frame.Err)
	}
	if frame.Data != nil {
		t.Fatalf("expected nil data on a corrupt frame, got %v", frame.Data)
	}
}
