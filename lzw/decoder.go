package lzw

import (
	"errors"

	"github.com/illusionman1212/gifstream/bitreader"
)

// ErrCorrupt is returned when a code is outside the valid range or
// references a dictionary slot that is neither populated nor the
// legitimate "not yet in table" case. Frame-level and fatal for the
// offending frame only — see the gif package's error policy.
var ErrCorrupt = errors.New("lzw: corrupt code in compressed stream")

// Result reports the non-fatal outcomes of a decode.
type Result struct {
	// Truncated is true when the decoded stream produced more pixels
	// than the destination buffer holds.
	Truncated bool
	// Overflow is the count of pixels that were dropped because the
	// destination buffer was already full.
	Overflow int
}

// DecodeInto runs the LZW algorithm over compressed (the concatenated,
// terminator-stripped LZW sub-blocks of one frame) and writes decoded
// ARGB pixels into dst, left to right, top to bottom. dst must already
// be sized to the sub-image's pixel count; decoding never writes past
// its end.
//
// activeColorTable is the frame's local color table if it has one,
// otherwise the current global color table. transparencyIndex is the
// frame's transparency index, or -1 if the frame has no transparency.
func DecodeInto(dst []uint32, compressed []byte, minCodeSize int, activeColorTable []uint32, transparencyIndex int) (Result, error) {
	clearCode := 1 << uint(minCodeSize)
	eoiCode := clearCode + 1

	reader := bitreader.New(compressed, minCodeSize)
	dict := NewDictionary(reader)
	dict.Initialize(activeColorTable, clearCode, eoiCode, transparencyIndex)

	var res Result
	idx := 0

	// emit copies run into dst starting at idx. Once dst is full, further
	// calls are no-ops that keep accumulating the full excess pixel count
	// into res.Overflow; decoding keeps running to completion regardless.
	emit := func(run []uint32) {
		if idx >= len(dst) {
			if len(run) > 0 {
				res.Overflow += len(run)
				res.Truncated = true
			}
			return
		}
		n := copy(dst[idx:], run)
		idx += n
		if n < len(run) {
			res.Overflow += len(run) - n
			res.Truncated = true
		}
	}

	code := reader.ReadCode()
	if code == clearCode {
		dict.Reset()
		code = reader.ReadCode()
	}
	run := dict.Get(code)
	if run == nil {
		return res, ErrCorrupt
	}
	emit(run)

	for {
		if reader.Drained() {
			break
		}
		prev := code
		code = reader.ReadCode()

		if code == clearCode {
			dict.Reset()
			code = reader.ReadCode()
			run = dict.Get(code)
			if run == nil {
				return res, ErrCorrupt
			}
			emit(run)
			continue
		}
		if code == eoiCode {
			break
		}
		if code < 0 || code >= 4096 {
			return res, ErrCorrupt
		}

		switch {
		case code < dict.NextCode():
			pixels := dict.Get(code)
			if pixels == nil {
				return res, ErrCorrupt
			}
			emit(pixels)
			prevRun := dict.Get(prev)
			if prevRun == nil {
				return res, ErrCorrupt
			}
			entry := append(append(make([]uint32, 0, len(prevRun)+1), prevRun...), pixels[0])
			dict.AddEntry(entry)
		case code == dict.NextCode():
			prevRun := dict.Get(prev)
			if prevRun == nil {
				return res, ErrCorrupt
			}
			entry := append(append(make([]uint32, 0, len(prevRun)+1), prevRun...), prevRun[0])
			emit(entry)
			dict.AddEntry(entry)
		default:
			return res, ErrCorrupt
		}
	}

	return res, nil
}
