package gif

// Metadata describes the properties of a GIF stream that are known once
// the header, logical screen descriptor, and global color table have
// been read and the frame count pre-scan has run. It is created once on
// Open and mutated only by the container parser.
type Metadata struct {
	Signature string // "GIF"
	Version   string // "87a" or "89a"

	Width  uint16
	Height uint16

	GlobalColorTableFlag bool
	ColorResolution      int // 2, 4, ..., 256
	SortFlag             bool
	BackgroundColorIndex byte
	PixelAspectRatio     byte

	// GlobalColorTable is nil when GlobalColorTableFlag is false.
	// Entries are packed ARGB with alpha always 0xFF.
	GlobalColorTable []uint32

	Comments  [][]byte
	PlainText *PlainText

	// LoopCount comes from a NETSCAPE2.0/ANIMEXTS1.0 application
	// extension; 0 means infinite; defaults to 0 when absent.
	LoopCount int

	// TotalFrames is computed by the pre-scan performed on Open and is
	// authoritative before any frame is delivered.
	TotalFrames int
}

// PlainText is the optional single plain-text extension record a stream
// may carry: the text grid's placement and cell geometry, plus its text.
type PlainText struct {
	Left, Top           uint16
	GridWidth, GridHeight uint16
	CellWidth, CellHeight byte
	ForegroundColorIndex  byte
	BackgroundColorIndex  byte
	Text                  []byte
}

func unpackLSD(packed byte) (gctFlag bool, colorResolution int, sortFlag bool, gctSizePower int) {
	gctFlag = packed&0x80 != 0
	colorResolution = 1 << (((packed >> 4) & 0x7) + 1)
	sortFlag = packed&0x08 != 0
	gctSizePower = int(packed & 0x07)
	return
}

func colorTableLength(sizePower int) int {
	return 1 << uint(sizePower+1)
}
