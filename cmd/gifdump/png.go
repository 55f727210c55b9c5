package main

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"os"

	"github.com/illusionman1212/gifstream"
)

// writeFramePNG serializes a decoded ARGB frame as an 8-bit truecolor+alpha
// PNG. Chunks are hand-assembled the same way as a palette-indexed writer
// would: length, type, data, CRC-32 over type+data. There is no PLTE/tRNS
// here since color type 6 carries alpha per pixel directly, which is what
// straight-alpha compositing and per-pixel transparency both need.
func writeFramePNG(path string, frame *gif.Frame) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := writePNGSignature(out); err != nil {
		return err
	}
	if err := writeIHDR(out, frame.Width, frame.Height); err != nil {
		return err
	}
	if err := writeIDAT(out, frame.Data, int(frame.Width), int(frame.Height)); err != nil {
		return err
	}
	return writeIEND(out)
}

func writeChunk(out *os.File, kind []byte, data []byte) error {
	lengthField := make([]byte, 4)
	binary.BigEndian.PutUint32(lengthField, uint32(len(data)))
	if _, err := out.Write(lengthField); err != nil {
		return err
	}
	if _, err := out.Write(kind); err != nil {
		return err
	}
	if len(data) > 0 {
		if _, err := out.Write(data); err != nil {
			return err
		}
	}
	crc := crc32.NewIEEE()
	crc.Write(kind)
	crc.Write(data)
	hash := make([]byte, 4)
	binary.BigEndian.PutUint32(hash, crc.Sum32())
	_, err := out.Write(hash)
	return err
}

func writePNGSignature(out *os.File) error {
	_, err := out.Write([]byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a})
	return err
}

func writeIHDR(out *os.File, width, height uint16) error {
	const (
		bitDepth          = 8
		colorTypeRGBA     = 6
		compressionMethod = 0
		filterMethod      = 0
		interlaceMethod   = 0
	)
	data := make([]byte, 13)
	binary.BigEndian.PutUint32(data[0:4], uint32(width))
	binary.BigEndian.PutUint32(data[4:8], uint32(height))
	data[8] = bitDepth
	data[9] = colorTypeRGBA
	data[10] = compressionMethod
	data[11] = filterMethod
	data[12] = interlaceMethod
	return writeChunk(out, []byte("IHDR"), data)
}

// serialize turns ARGB pixels into PNG's scanline format: a zero filter
// byte followed by width*4 bytes of R,G,B,A per row.
func serialize(pixels []uint32, width, height int) []byte {
	row := width * 4
	b := make([]byte, 0, (row+1)*height)
	for y := 0; y < height; y++ {
		b = append(b, 0) // filter type 0: None
		for x := 0; x < width; x++ {
			p := pixels[y*width+x]
			a := byte(p >> 24)
			r := byte(p >> 16)
			g := byte(p >> 8)
			bl := byte(p)
			b = append(b, r, g, bl, a)
		}
	}
	return b
}

func writeIDAT(out *os.File, pixels []uint32, width, height int) error {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return err
	}
	if _, err := w.Write(serialize(pixels, width, height)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return writeChunk(out, []byte("IDAT"), buf.Bytes())
}

func writeIEND(out *os.File) error {
	return writeChunk(out, []byte("IEND"), nil)
}
