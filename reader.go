// Package gif decodes animated GIF89a/GIF87a byte streams into a lazy,
// pull-driven sequence of fully-rendered ARGB frames.
//
// A Reader is not safe for concurrent use by multiple goroutines; two
// Readers over two independent Sources are unrelated.
package gif

import (
	"fmt"
	"io"

	"github.com/illusionman1212/gifstream/gifctx"
	"github.com/illusionman1212/gifstream/lzw"
)

// Option configures a Reader at Open time.
type Option func(*Reader)

// WithContext threads a cross-stream decoder context into the reader,
// so a stream that declares no color table of its own can fall back to
// the most recently seen one.
func WithContext(ctx *gifctx.Context) Option {
	return func(r *Reader) { r.ctx = ctx }
}

// WithCompositing switches the reader into "processed frame" mode: each
// delivered Frame is a full logical-screen-sized, disposal-composited
// canvas rather than a raw sub-image.
func WithCompositing() Option {
	return func(r *Reader) { r.compositing = true }
}

// WithFilter installs the block filter before the eager Open parse runs,
// so it can affect the logical screen descriptor and global color table
// blocks too (SetFilter, called after Open returns, cannot reach those).
func WithFilter(f Filter) Option {
	return func(r *Reader) { r.filter = f }
}

// Reader drives the container parser over a Source, one frame at a time.
type Reader struct {
	src    Source
	meta   *Metadata
	filter Filter
	ctx    *gifctx.Context

	compositing bool
	comp        *compositor

	frameIndex int
	delivered  int

	pendingGCE graphicControlState
	closed     bool
}

type graphicControlState struct {
	present           bool
	disposal          DisposalMethod
	userInput         bool
	transparencyFlag  bool
	delay             int
	transparencyIndex byte
}

// Open parses the header, logical screen descriptor, and global color
// table, then performs the frame-count pre-scan.
func Open(source Source, opts ...Option) (*Reader, error) {
	r := &Reader{
		src:    source,
		filter: admitAll,
	}
	for _, opt := range opts {
		opt(r)
	}

	meta, err := r.readPreamble()
	if err != nil {
		return nil, err
	}
	r.meta = meta

	if r.ctx != nil {
		if meta.GlobalColorTableFlag {
			r.ctx.Remember(meta.GlobalColorTable)
		} else if last := r.ctx.LastGlobalColorTable(); len(last) > 0 {
			meta.GlobalColorTable = last
			meta.GlobalColorTableFlag = true
		}
	}

	total, err := r.prescan()
	if err != nil {
		return nil, err
	}
	meta.TotalFrames = total

	if r.compositing {
		r.comp = newCompositor(int(meta.Width), int(meta.Height))
	}

	return r, nil
}

// OpenWithContext is Open with WithContext(ctx) applied first, so an
// existing gifctx.Context reaches the eager parse before Open runs.
func OpenWithContext(source Source, ctx *gifctx.Context, opts ...Option) (*Reader, error) {
	return Open(source, append([]Option{WithContext(ctx)}, opts...)...)
}

func (r *Reader) readPreamble() (*Metadata, error) {
	sig := make([]byte, 3)
	if err := r.src.Read(sig); err != nil {
		return nil, newError(UnexpectedEndOfStream, "reading signature: %v", err)
	}
	ver := make([]byte, 3)
	if err := r.src.Read(ver); err != nil {
		return nil, newError(UnexpectedEndOfStream, "reading version: %v", err)
	}
	if string(sig) != "GIF" || (string(ver) != "87a" && string(ver) != "89a") {
		return nil, newError(InvalidSignature, "got %q%q", sig, ver)
	}

	meta := &Metadata{Signature: string(sig), Version: string(ver)}

	if !r.filter(FilterContext{Kind: BlockLogicalScreenDescriptor, FrameIndex: -1}) {
		width, err := r.src.ReadUint16LE()
		if err != nil {
			return nil, newError(UnexpectedEndOfStream, "reading screen width: %v", err)
		}
		height, err := r.src.ReadUint16LE()
		if err != nil {
			return nil, newError(UnexpectedEndOfStream, "reading screen height: %v", err)
		}
		packed, err := r.src.ReadByte()
		if err != nil {
			return nil, newError(UnexpectedEndOfStream, "reading LSD packed byte: %v", err)
		}
		bg, err := r.src.ReadByte()
		if err != nil {
			return nil, newError(UnexpectedEndOfStream, "reading background color index: %v", err)
		}
		aspect, err := r.src.ReadByte()
		if err != nil {
			return nil, newError(UnexpectedEndOfStream, "reading pixel aspect ratio: %v", err)
		}

		gctFlag, colorRes, sortFlag, gctSizePower := unpackLSD(packed)
		meta.Width = width
		meta.Height = height
		meta.GlobalColorTableFlag = gctFlag
		meta.ColorResolution = colorRes
		meta.SortFlag = sortFlag
		meta.BackgroundColorIndex = bg
		meta.PixelAspectRatio = aspect

		if gctFlag {
			if !r.filter(FilterContext{Kind: BlockGlobalColorTable, FrameIndex: -1}) {
				table, err := readColorTable(r.src, colorTableLength(gctSizePower))
				if err != nil {
					return nil, err
				}
				meta.GlobalColorTable = table
			} else {
				if err := skipColorTable(r.src, colorTableLength(gctSizePower)); err != nil {
					return nil, err
				}
				meta.GlobalColorTableFlag = false
			}
		}
	} else {
		// Logical screen descriptor filtered out entirely: its 7 bytes,
		// and the global color table its packed byte announces, are
		// still consumed to keep the stream in sync, but no metadata is
		// recorded from them.
		lsd := make([]byte, 7)
		if err := r.src.Read(lsd); err != nil {
			return nil, newError(UnexpectedEndOfStream, "skipping logical screen descriptor: %v", err)
		}
		if gctFlag, _, _, gctSizePower := unpackLSD(lsd[4]); gctFlag {
			if err := skipColorTable(r.src, colorTableLength(gctSizePower)); err != nil {
				return nil, err
			}
		}
	}

	return meta, nil
}

func readColorTable(src Source, n int) ([]uint32, error) {
	raw := make([]byte, n*3)
	if err := src.Read(raw); err != nil {
		return nil, newError(UnexpectedEndOfStream, "reading color table: %v", err)
	}
	table := make([]uint32, n)
	for i := 0; i < n; i++ {
		r, g, b := raw[i*3], raw[i*3+1], raw[i*3+2]
		table[i] = 0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	}
	return table, nil
}

func skipColorTable(src Source, n int) error {
	_, err := src.Skip(int64(n * 3))
	if err != nil {
		return newError(UnexpectedEndOfStream, "skipping color table: %v", err)
	}
	return nil
}

func skipFixed(src Source, n int64) error {
	skipped, err := src.Skip(n)
	if err != nil || skipped != n {
		return newError(UnexpectedEndOfStream, "skipping %d bytes", n)
	}
	return nil
}

// Metadata returns the stream's metadata. TotalFrames is authoritative
// once Open has returned.
func (r *Reader) Metadata() *Metadata {
	return r.meta
}

// TotalFrames returns the pre-scanned frame count.
func (r *Reader) TotalFrames() int {
	return r.meta.TotalFrames
}

// HasRemaining reports whether fewer frames have been delivered than
// TotalFrames.
func (r *Reader) HasRemaining() bool {
	return r.delivered < r.meta.TotalFrames
}

// SetFilter attaches or replaces the block filter used for all
// subsequent NextFrame calls. It cannot retroactively affect the
// logical screen descriptor or global color table, which Open already
// consumed; use WithFilter to reach those.
func (r *Reader) SetFilter(f Filter) {
	if f == nil {
		f = admitAll
	}
	r.filter = f
}

// Close releases the underlying source. Idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.src.Close()
}

// NextFrame parses forward until one frame is produced or the trailer is
// reached, returning (nil, nil) in the latter case. A filtered image
// data block also yields (nil, nil) but still advances the frame index.
func (r *Reader) NextFrame() (*Frame, error) {
	for {
		id, err := r.src.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, newError(UnexpectedEndOfStream, "reading block id: %v", err)
		}

		switch id {
		case blockTrailer:
			return nil, nil

		case blockExtension:
			frame, produced, err := r.handleExtension()
			if err != nil {
				return nil, err
			}
			if produced {
				return frame, nil
			}
			// else: extension consumed, loop for the next block.

		case blockImageDescriptor:
			return r.handleImageDescriptor()

		default:
			return nil, newError(UnknownBlock, "0x%02x", id)
		}
	}
}

// handleExtension reads one extension block. It returns produced=true
// only when a frame is ready to be handed to the caller (never true
// today, since extensions never emit frames on their own — kept as a
// bool for symmetry with handleImageDescriptor and future extension
// types that might).
func (r *Reader) handleExtension() (*Frame, bool, error) {
	sub, err := r.src.ReadByte()
	if err != nil {
		return nil, false, newError(UnexpectedEndOfStream, "reading extension subtype: %v", err)
	}

	kind := BlockUnknownExtension
	switch sub {
	case extGraphicControl:
		kind = BlockGraphicControlExtension
	case extComment:
		kind = BlockCommentExtension
	case extPlainText:
		kind = BlockPlainTextExtension
	case extApplication:
		kind = BlockApplicationExtension
	}

	if r.filter(FilterContext{Kind: kind, FrameIndex: r.frameIndex, ExtensionByte: sub}) {
		// Every extension subtype's body — GCE's fixed 4-byte payload,
		// plain text's/application's fixed header, comment's bare
		// chain — is structurally just a sub-block chain whose first
		// segment happens to have a known length, so one uniform skip
		// handles all of them without inspecting sub.
		return nil, false, skipSubBlockChain(r.src)
	}

	switch sub {
	case extGraphicControl:
		return nil, false, r.readGraphicControl()
	case extComment:
		return nil, false, r.readComment()
	case extPlainText:
		return nil, false, r.readPlainText()
	case extApplication:
		return nil, false, r.readApplication()
	default:
		return nil, false, skipSubBlockChain(r.src)
	}
}

func (r *Reader) readGraphicControl() error {
	size, err := r.src.ReadByte()
	if err != nil {
		return newError(UnexpectedEndOfStream, "reading GCE size: %v", err)
	}
	if size == 0 {
		return newError(EmptyBlockSize, "graphic control extension")
	}
	buf := make([]byte, size)
	if err := r.src.Read(buf); err != nil {
		return newError(UnexpectedEndOfStream, "reading GCE payload: %v", err)
	}
	if len(buf) >= graphicControlBlockSize {
		packed := buf[0]
		delay := int(buf[1]) | int(buf[2])<<8
		transIndex := buf[3]
		r.pendingGCE = graphicControlState{
			present:           true,
			disposal:          disposalFromPacked(packed),
			userInput:         packed&0x02 != 0,
			transparencyFlag:  packed&0x01 != 0,
			delay:             delay,
			transparencyIndex: transIndex,
		}
	}
	return skipSubBlockChain(r.src)
}

func (r *Reader) readComment() error {
	data, err := readSubBlockChain(r.src, nil, r.frameIndex)
	if err != nil {
		return err
	}
	r.meta.Comments = append(r.meta.Comments, data)
	return nil
}

func (r *Reader) readPlainText() error {
	size, err := r.src.ReadByte()
	if err != nil {
		return newError(UnexpectedEndOfStream, "reading plain text header size: %v", err)
	}
	header := make([]byte, size)
	if err := r.src.Read(header); err != nil {
		return newError(UnexpectedEndOfStream, "reading plain text header: %v", err)
	}
	text, err := readSubBlockChain(r.src, nil, r.frameIndex)
	if err != nil {
		return err
	}
	if len(header) >= plainTextBlockSize {
		r.meta.PlainText = &PlainText{
			Left:                 le16(header[0], header[1]),
			Top:                  le16(header[2], header[3]),
			GridWidth:            le16(header[4], header[5]),
			GridHeight:           le16(header[6], header[7]),
			CellWidth:            header[8],
			CellHeight:           header[9],
			ForegroundColorIndex: header[10],
			BackgroundColorIndex: header[11],
			Text:                 text,
		}
	}
	return nil
}

func (r *Reader) readApplication() error {
	size, err := r.src.ReadByte()
	if err != nil {
		return newError(UnexpectedEndOfStream, "reading application block size: %v", err)
	}
	idAuth := make([]byte, size)
	if err := r.src.Read(idAuth); err != nil {
		return newError(UnexpectedEndOfStream, "reading application identifier: %v", err)
	}
	data, err := readSubBlockChain(r.src, nil, r.frameIndex)
	if err != nil {
		return err
	}
	if len(idAuth) >= applicationBlockSize {
		identifier := string(idAuth[:11])
		if identifier == "NETSCAPE2.0" || identifier == "ANIMEXTS1.0" {
			if len(data) >= 3 && data[0] == 0x01 {
				r.meta.LoopCount = int(data[1]) | int(data[2])<<8
			}
		}
	}
	return nil
}

func le16(lo, hi byte) uint16 {
	return uint16(lo) | uint16(hi)<<8
}

// handleImageDescriptor reads one image descriptor block through to its
// image data, decodes it, and returns the resulting Frame (nil when the
// image data was filtered out).
func (r *Reader) handleImageDescriptor() (*Frame, error) {
	index := r.frameIndex
	r.frameIndex++
	defer func() { r.delivered++; r.pendingGCE = graphicControlState{} }()

	if r.filter(FilterContext{Kind: BlockImageDescriptor, FrameIndex: index}) {
		if err := r.skipImageDescriptorAndData(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	desc := make([]byte, 9)
	if err := r.src.Read(desc); err != nil {
		return nil, newError(UnexpectedEndOfStream, "reading image descriptor: %v", err)
	}

	frame := &Frame{
		Index:    index,
		Metadata: r.meta,
		Left:     le16(desc[0], desc[1]),
		Top:      le16(desc[2], desc[3]),
		Width:    le16(desc[4], desc[5]),
		Height:   le16(desc[6], desc[7]),
	}
	packed := desc[8]
	lctFlag := packed&0x80 != 0
	frame.InterlaceFlag = packed&0x40 != 0
	frame.SortFlag = packed&0x20 != 0
	lctSizePower := int(packed & 0x07)

	if r.pendingGCE.present {
		frame.DisposalMethod = r.pendingGCE.disposal
		frame.UserInputFlag = r.pendingGCE.userInput
		frame.TransparencyFlag = r.pendingGCE.transparencyFlag
		frame.Delay = r.pendingGCE.delay
		frame.TransparencyIndex = r.pendingGCE.transparencyIndex
	}

	if lctFlag {
		n := colorTableLength(lctSizePower)
		if r.filter(FilterContext{Kind: BlockLocalColorTable, FrameIndex: index}) {
			if err := skipColorTable(r.src, n); err != nil {
				return nil, err
			}
		} else {
			table, err := readColorTable(r.src, n)
			if err != nil {
				return nil, err
			}
			frame.LocalColorTableFlag = true
			frame.LocalColorTableSize = n
			frame.LocalColorTable = table
		}
	}

	if r.filter(FilterContext{Kind: BlockImageDataHeader, FrameIndex: index}) {
		minCodeSize, err := r.src.ReadByte()
		if err != nil {
			return nil, newError(UnexpectedEndOfStream, "reading LZW min code size: %v", err)
		}
		_ = minCodeSize
		if err := skipSubBlockChain(r.src); err != nil {
			return nil, err
		}
		return nil, nil
	}

	minCodeSizeByte, err := r.src.ReadByte()
	if err != nil {
		return nil, newError(UnexpectedEndOfStream, "reading LZW min code size: %v", err)
	}
	minCodeSize := int(minCodeSizeByte)
	frame.MinCodeSize = minCodeSize
	frame.ClearCode = 1 << uint(minCodeSize)
	frame.EndOfInfoCode = frame.ClearCode + 1

	compressed, err := readSubBlockChain(r.src, r.filter, index)
	if err != nil {
		return nil, err
	}

	activeTable := frame.ActiveColorTable(r.meta.GlobalColorTable)
	if len(activeTable) == 0 {
		frame.Err = newError(MissingColorTable, "frame %d has no local or global color table", index)
		return frame, nil
	}
	transIndex := -1
	if frame.TransparencyFlag && int(frame.TransparencyIndex) < len(activeTable) {
		transIndex = int(frame.TransparencyIndex)
	}

	dst := make([]uint32, int(frame.Width)*int(frame.Height))
	res, decErr := lzw.DecodeInto(dst, compressed, minCodeSize, activeTable, transIndex)
	if decErr != nil {
		frame.Err = newError(CorruptLzwStream, "%v", decErr)
		return frame, nil
	}
	if res.Truncated {
		frame.Warnings = append(frame.Warnings, Warning{
			Kind:    BufferOverflow,
			Message: fmt.Sprintf("dropped %d pixel(s) past frame buffer end", res.Overflow),
		})
	}

	if frame.InterlaceFlag {
		dst = deinterlace(dst, int(frame.Width), int(frame.Height))
	}

	if r.compositing {
		canvas := r.comp.Composite(int(frame.Left), int(frame.Top), int(frame.Width), int(frame.Height), dst, frame.DisposalMethod)
		frame.Data = canvas
		frame.Width = r.meta.Width
		frame.Height = r.meta.Height
		frame.Left = 0
		frame.Top = 0
	} else {
		frame.Data = dst
	}

	return frame, nil
}

func (r *Reader) skipImageDescriptorAndData() error {
	desc := make([]byte, 9)
	if err := r.src.Read(desc); err != nil {
		return newError(UnexpectedEndOfStream, "reading image descriptor: %v", err)
	}
	packed := desc[8]
	if packed&0x80 != 0 {
		n := colorTableLength(int(packed & 0x07))
		if err := skipColorTable(r.src, n); err != nil {
			return err
		}
	}
	if _, err := r.src.ReadByte(); err != nil { // min code size
		return newError(UnexpectedEndOfStream, "reading LZW min code size: %v", err)
	}
	return skipSubBlockChain(r.src)
}

// prescan performs the minimal forward pass that counts Image Descriptor
// occurrences without decoding. The source position is saved before and
// restored after.
func (r *Reader) prescan() (int, error) {
	r.src.Mark()
	defer func() { _ = r.src.Reset() }()

	count := 0
	for {
		id, err := r.src.ReadByte()
		if err != nil {
			if err == io.EOF {
				return count, nil
			}
			return 0, newError(UnexpectedEndOfStream, "prescan reading block id: %v", err)
		}
		switch id {
		case blockTrailer:
			return count, nil
		case blockExtension:
			if err := r.prescanSkipExtension(); err != nil {
				return 0, err
			}
		case blockImageDescriptor:
			count++
			if err := r.skipImageDescriptorAndData(); err != nil {
				return 0, err
			}
		default:
			return 0, newError(UnknownBlock, "0x%02x", id)
		}
	}
}

// prescanSkipExtension discards one extension block. Every subtype's
// body is structurally a sub-block chain, whether or not it opens with
// a fixed-size segment (GCE, plain text, application all do; comment
// doesn't), so one uniform skip covers all of them.
func (r *Reader) prescanSkipExtension() error {
	if _, err := r.src.ReadByte(); err != nil {
		return newError(UnexpectedEndOfStream, "prescan reading extension subtype: %v", err)
	}
	return skipSubBlockChain(r.src)
}
