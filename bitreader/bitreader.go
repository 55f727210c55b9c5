// Package bitreader implements the variable-width, little-endian,
// least-significant-bit-first code reader that LZW decoding is built on.
//
// It consumes a single flat byte buffer — the concatenation of a frame's
// LZW sub-blocks with their length-prefixes and terminator stripped — and
// hands out codes of a current width between 3 and 12 bits.
package bitreader

// Reader pulls fixed-width codes out of a byte buffer, LSB-first, with
// bits spanning byte boundaries as needed. It never returns an error: if
// the buffer is exhausted mid-code the assembled value is returned with
// the missing high bits treated as zero, matching how real encoders pad
// the final sub-block and how callers are expected to check for the
// end-of-information code before trusting further reads.
type Reader struct {
	buf  []byte
	pos  int // next unconsumed byte in buf
	bits uint32
	nbit uint

	base uint // minCodeSize + 1, the width right after a CLEAR
	grow uint // offset added to base; 0..(12-base)
}

// New returns a Reader over buf with an initial code width of
// minCodeSize+1 bits.
func New(buf []byte, minCodeSize int) *Reader {
	return &Reader{
		buf:  buf,
		base: uint(minCodeSize) + 1,
	}
}

// Width reports the current code width in bits.
func (r *Reader) Width() int {
	return int(r.base + r.grow)
}

// Grow widens the current code by one bit, capped at 12. Callers (the
// dictionary) are responsible for only calling this when the table has
// just filled at the current width.
func (r *Reader) Grow() {
	if r.base+r.grow < 12 {
		r.grow++
	}
}

// Reset restores the code width to minCodeSize+1, as happens after a
// CLEAR code or at stream initialization.
func (r *Reader) Reset() {
	r.grow = 0
}

// ReadCode pulls the next code at the current width off the stream.
func (r *Reader) ReadCode() int {
	width := r.base + r.grow
	for r.nbit < width {
		var next byte
		if r.pos < len(r.buf) {
			next = r.buf[r.pos]
			r.pos++
		}
		// Past EOF: keep shifting in zero bits so the assembled code is
		// simply zero-extended, per the documented exhaustion behavior.
		r.bits |= uint32(next) << r.nbit
		r.nbit += 8
	}
	code := int(r.bits & (1<<width - 1))
	r.bits >>= width
	r.nbit -= width
	return code
}

// Exhausted reports whether every byte of the underlying buffer has been
// consumed into the bit accumulator (ignoring any partial bits still
// buffered there).
func (r *Reader) Exhausted() bool {
	return r.pos >= len(r.buf)
}

// Drained reports whether no full code of genuine stream data is left —
// every byte has been consumed and fewer bits than the current width
// remain buffered. Any code read from this point on is at least partly
// synthesized zero padding rather than encoded data; callers use this to
// bound decoding of a stream that never presents an end-of-information
// code.
func (r *Reader) Drained() bool {
	return r.pos >= len(r.buf) && r.nbit < r.base+r.grow
}
