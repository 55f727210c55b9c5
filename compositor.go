package gif

// interlacePass describes one pass of the four-pass GIF interlace scan:
// rows starting at start, every skip-th row.
type interlacePass struct {
	start, skip int
}

var interlacePasses = []interlacePass{
	{0, 8},
	{4, 8},
	{2, 4},
	{1, 2},
}

// deinterlace reorders an interlaced sub-image's rows into normal
// top-to-bottom order. data holds width*height pixels in the order the
// LZW decoder emitted them (pass order); the return value holds them in
// scan-line order.
func deinterlace(data []uint32, width, height int) []uint32 {
	out := make([]uint32, len(data))
	src := 0
	for _, pass := range interlacePasses {
		for y := pass.start; y < height; y += pass.skip {
			copy(out[y*width:(y+1)*width], data[src:src+width])
			src += width
		}
	}
	return out
}

// compositor blits successive frames onto a logical-screen-sized canvas,
// honoring the previous frame's disposal method.
type compositor struct {
	screenWidth, screenHeight int
	canvas                    []uint32
	previous                  []uint32

	havePriorFrame bool
	priorLeft      int
	priorTop       int
	priorWidth     int
	priorHeight    int
	priorDisposal  DisposalMethod
}

func newCompositor(width, height int) *compositor {
	return &compositor{
		screenWidth:  width,
		screenHeight: height,
		canvas:       make([]uint32, width*height),
		previous:     make([]uint32, width*height),
	}
}

// Composite applies the prior frame's disposal, blits the given
// (already deinterlaced) sub-image at (left, top), and returns a copy of
// the resulting logical-screen canvas.
//
// previous holds a snapshot of the canvas taken right before the prior
// frame's own blit — the correct restoration target for
// RestoreToPrevious, since that disposal means "undo my own blit", not
// "undo whatever came before that". The snapshot for undoing *this*
// frame (if its disposal turns out to be RestoreToPrevious) is taken
// below, after the prior frame's disposal is applied and before this
// frame is blitted, so it is ready for the next call.
func (c *compositor) Composite(left, top, width, height int, sub []uint32, disposal DisposalMethod) []uint32 {
	if c.havePriorFrame && c.priorDisposal == DisposalRestoreToBackground {
		clearRect(c.canvas, c.screenWidth, c.priorLeft, c.priorTop, c.priorWidth, c.priorHeight)
	} else if c.havePriorFrame && c.priorDisposal == DisposalRestoreToPrevious {
		restoreRect(c.canvas, c.previous, c.screenWidth, c.priorLeft, c.priorTop, c.priorWidth, c.priorHeight)
	}

	copy(c.previous, c.canvas)

	blit(c.canvas, c.screenWidth, c.screenHeight, left, top, width, height, sub)

	c.havePriorFrame = true
	c.priorLeft, c.priorTop, c.priorWidth, c.priorHeight = left, top, width, height
	c.priorDisposal = disposal

	out := make([]uint32, len(c.canvas))
	copy(out, c.canvas)
	return out
}

func clearRect(canvas []uint32, canvasWidth, left, top, width, height int) {
	for y := top; y < top+height; y++ {
		row := y * canvasWidth
		for x := left; x < left+width; x++ {
			canvas[row+x] = 0
		}
	}
}

func restoreRect(canvas, previous []uint32, canvasWidth, left, top, width, height int) {
	for y := top; y < top+height; y++ {
		row := y * canvasWidth
		copy(canvas[row+left:row+left+width], previous[row+left:row+left+width])
	}
}

// blit copies src (width*height pixels) onto canvas at (left, top),
// leaving destination pixels untouched wherever the source pixel is
// fully transparent (straight-alpha compositing).
func blit(canvas []uint32, canvasWidth, canvasHeight, left, top, width, height int, src []uint32) {
	for y := 0; y < height; y++ {
		dy := top + y
		if dy < 0 || dy >= canvasHeight {
			continue
		}
		srcRow := y * width
		dstRow := dy * canvasWidth
		for x := 0; x < width; x++ {
			dx := left + x
			if dx < 0 || dx >= canvasWidth {
				continue
			}
			p := src[srcRow+x]
			if p>>24 == 0 {
				continue
			}
			canvas[dstRow+dx] = p
		}
	}
}
