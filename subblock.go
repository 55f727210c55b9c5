package gif

// Sub-block chain handling: a (length:u8, bytes[length])* sequence
// terminated by a zero-length segment. This just gathers or discards raw
// bytes; LZW decoding happens afterward, over the fully concatenated
// buffer.

// readSubBlockChain reads a full chain and returns the concatenation of
// every segment's payload. filter, if non-nil, is consulted once per
// segment with BlockImageDataSubBlock; a true result stops accumulation
// for that segment (its bytes are still consumed off the stream so
// parsing stays in sync, but they are dropped from the result).
func readSubBlockChain(src Source, filter Filter, frameIndex int) ([]byte, error) {
	var out []byte
	buf := make([]byte, 255)
	for {
		n, err := src.ReadByte()
		if err != nil {
			return nil, newError(UnexpectedEndOfStream, "reading sub-block length: %v", err)
		}
		if n == 0 {
			return out, nil
		}
		segment := buf[:n]
		if err := src.Read(segment); err != nil {
			return nil, newError(UnexpectedEndOfStream, "reading sub-block payload: %v", err)
		}
		skip := filter != nil && filter(FilterContext{Kind: BlockImageDataSubBlock, FrameIndex: frameIndex})
		if !skip {
			out = append(out, segment...)
		}
	}
}

// skipSubBlockChain consumes and discards a full chain without
// buffering its payload; used when a block has been filtered out.
func skipSubBlockChain(src Source) error {
	for {
		n, err := src.ReadByte()
		if err != nil {
			return newError(UnexpectedEndOfStream, "reading sub-block length: %v", err)
		}
		if n == 0 {
			return nil
		}
		if _, err := src.Skip(int64(n)); err != nil {
			return newError(UnexpectedEndOfStream, "skipping sub-block payload: %v", err)
		}
	}
}
