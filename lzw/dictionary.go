// Package lzw implements the GIF variant of LZW decompression: a
// 4096-entry dictionary of pixel runs driven by a variable-width bit
// reader, with the CLEAR/end-of-information sentinels and the classic
// "code not yet in table" special case.
package lzw

const maxCodes = 4096

// widthGrower is the subset of bitreader.Reader the dictionary needs to
// couple table growth to code width.
type widthGrower interface {
	Width() int
	Grow()
	Reset()
}

// Dictionary holds the 4096 code slots, each a short run of ARGB pixel
// values. Slots below the active color table's length hold single-pixel
// runs seeded from the palette; CLEAR and end-of-information occupy two
// reserved slots that are never populated; everything above that is
// filled in by AddEntry as the stream is decoded.
type Dictionary struct {
	slots     [maxCodes][]uint32
	clearCode int
	eoiCode   int
	nextCode  int
	reader    widthGrower
}

// NewDictionary returns a Dictionary that grows the given reader's code
// width in step with its own fill level.
func NewDictionary(reader widthGrower) *Dictionary {
	return &Dictionary{reader: reader}
}

// Initialize seeds the table from the frame's active color table
// (palette), reserves the CLEAR and end-of-information codes, and
// optionally overwrites the transparency index with a single zero ARGB
// value. transparencyIndex of -1 means no transparency for this frame.
func (d *Dictionary) Initialize(activeColorTable []uint32, clearCode, eoiCode, transparencyIndex int) {
	d.clearCode = clearCode
	d.eoiCode = eoiCode
	for i := range d.slots {
		d.slots[i] = nil
	}
	for i, c := range activeColorTable {
		d.slots[i] = []uint32{c}
	}
	if transparencyIndex >= 0 && transparencyIndex < len(activeColorTable) {
		d.slots[transparencyIndex] = []uint32{0}
	}
	d.nextCode = eoiCode + 1
	d.reader.Reset()
}

// Reset reinstates the post-Initialize state (next-code rewound, width
// rewound) without reallocating or touching the seeded palette slots.
func (d *Dictionary) Reset() {
	d.nextCode = d.eoiCode + 1
	d.reader.Reset()
}

// NextCode reports the code that will be assigned by the next AddEntry
// call. Decoders use this to detect the "not yet in table" special case.
func (d *Dictionary) NextCode() int {
	return d.nextCode
}

// AddEntry appends run at the next free code, if any remain. When the
// dictionary is full (nextCode has reached 4096) the entry is silently
// dropped, matching the classic encoder/decoder contract of running at a
// fixed 12-bit width until the next CLEAR.
func (d *Dictionary) AddEntry(run []uint32) {
	if d.nextCode >= maxCodes {
		return
	}
	d.slots[d.nextCode] = run
	d.nextCode++
	width := d.reader.Width()
	if width < 12 && d.nextCode == (1<<uint(width)) {
		d.reader.Grow()
	}
}

// Get returns the run stored at code, or nil if the slot was never
// populated (CLEAR, end-of-information, or an out-of-range code).
func (d *Dictionary) Get(code int) []uint32 {
	if code < 0 || code >= maxCodes {
		return nil
	}
	return d.slots[code]
}
