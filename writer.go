// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// BMP file encoder
//

package gobitmap

import "image"
import "io"

// EncoderOptions stores options that can be passed to EncodeWithOptions().
// Create an EncoderOptions object with new().
type EncoderOptions struct {
	densitySet   bool
	xDens, yDens int
	supportTrns  bool
	stop         Stop
}

// SetDensity sets the density to write to the output image's metadata, in
// pixels per meter.
func (opts *EncoderOptions) SetDensity(xDens, yDens int) {
	opts.densitySet = true
	opts.xDens = xDens
	opts.yDens = yDens
}

// SupportTransparency sets whether images that are not opaque are written
// as 32-bit BMPs with an alpha channel. By default every image is written
// as 24-bit.
func (opts *EncoderOptions) SupportTransparency(t bool) {
	opts.supportTrns = t
}

// SetStop sets a cancellation check polled while rows are written.
func (opts *EncoderOptions) SetStop(s Stop) {
	opts.stop = s
}

type encoder struct {
	pix    []byte
	layout PixelLayout
	stop   Stop
	opts   *EncoderOptions

	width         int
	height        int
	srcStride     int
	dstStride     int
	dstBitsSize   int
	dstBitCount   int
	dstBitsOffset int
	dstFileSize   int
}

func setWORD(b []byte, n uint16) {
	b[0] = byte(n)
	b[1] = byte(n >> 8)
}

func setDWORD(b []byte, n uint32) {
	b[0] = byte(n)
	b[1] = byte(n >> 8)
	b[2] = byte(n >> 16)
	b[3] = byte(n >> 24)
}

// Write the BITMAPFILEHEADER structure to a slice[14].
func (e *encoder) generateFileHeader(h []byte) {
	h[0] = 0x42 // 'B'
	h[1] = 0x4d // 'M'
	setDWORD(h[2:6], uint32(e.dstFileSize))
	setDWORD(h[10:14], uint32(e.dstBitsOffset))
}

// Write the BITMAPINFOHEADER structure to a slice[40].
func (e *encoder) generateInfoHeader(h []byte) {
	setDWORD(h[0:4], 40)
	setDWORD(h[4:8], uint32(e.width))
	setDWORD(h[8:12], uint32(e.height))
	setWORD(h[12:14], 1) // biPlanes
	setWORD(h[14:16], uint16(e.dstBitCount))
	setDWORD(h[16:20], bI_RGB)
	setDWORD(h[20:24], uint32(e.dstBitsSize))
	if e.opts != nil && e.opts.densitySet {
		setDWORD(h[24:28], uint32(e.opts.xDens))
		setDWORD(h[28:32], uint32(e.opts.yDens))
	} else {
		setDWORD(h[24:28], 2835) // biXPelsPerMeter, 72 DPI
		setDWORD(h[28:32], 2835) // biYPelsPerMeter
	}
}

// Read row j of the source, and store it in rowBuf in 24-bit BMP format.
func generateRow_24(e *encoder, j int, rowBuf []byte) {
	src := e.pix[j*e.srcStride : (j+1)*e.srcStride]
	if e.layout == Bgr8 {
		copy(rowBuf, src)
		return
	}
	for i := 0; i < e.width; i++ {
		r, g, b, _ := pixelAt(src, i, e.layout)
		rowBuf[i*3+0] = b
		rowBuf[i*3+1] = g
		rowBuf[i*3+2] = r
	}
}

// Read row j of the source, and store it in rowBuf in 32-bit BMP format.
func generateRow_32(e *encoder, j int, rowBuf []byte) {
	src := e.pix[j*e.srcStride : (j+1)*e.srcStride]
	if e.layout == Bgra8 {
		copy(rowBuf, src)
		return
	}
	for i := 0; i < e.width; i++ {
		r, g, b, a := pixelAt(src, i, e.layout)
		rowBuf[i*4+0] = b
		rowBuf[i*4+1] = g
		rowBuf[i*4+2] = r
		rowBuf[i*4+3] = a
	}
}

// pixelAt returns pixel i of an 8-bit-per-sample row. Bgrx8 padding and
// layouts without alpha read as opaque.
func pixelAt(row []byte, i int, layout PixelLayout) (r, g, b, a byte) {
	switch layout {
	case Rgb8:
		return row[i*3], row[i*3+1], row[i*3+2], 255
	case Bgr8:
		return row[i*3+2], row[i*3+1], row[i*3], 255
	case Rgba8:
		return row[i*4], row[i*4+1], row[i*4+2], row[i*4+3]
	case Bgra8:
		return row[i*4+2], row[i*4+1], row[i*4], row[i*4+3]
	case Bgrx8:
		return row[i*4+2], row[i*4+1], row[i*4], 255
	case Gray8:
		return row[i], row[i], row[i], 255
	}
	return 0, 0, 0, 0
}

func (e *encoder) writeBits(out []byte) error {
	genRowFunc := generateRow_24
	if e.dstBitCount == 32 {
		genRowFunc = generateRow_32
	}

	for j := 0; j < e.height; j++ {
		if j%16 == 0 {
			if err := CheckStop(e.stop); err != nil {
				return err
			}
		}
		// Bottom row first. Padding bytes stay zero.
		genRowFunc(e, e.height-j-1, out[j*e.dstStride:(j+1)*e.dstStride])
	}
	return nil
}

// Plot out the structure of the file that we're going to write.
func (e *encoder) strategize(width, height uint32, alpha bool) error {
	switch e.layout {
	case Rgb8, Bgr8, Rgba8, Bgra8, Bgrx8, Gray8:
	default:
		return LayoutError{Layout: e.layout, Format: FormatBMP}
	}
	needed, err := BufferSize(width, height, e.layout.BytesPerPixel())
	if err != nil {
		return err
	}
	if len(e.pix) < needed {
		return BufferSizeError{Needed: needed, Actual: len(e.pix)}
	}

	e.dstBitCount = 24
	if alpha {
		e.dstBitCount = 32
	}
	e.width = int(width)
	e.height = int(height)
	e.srcStride = e.width * e.layout.BytesPerPixel()
	e.dstStride = ((e.width*e.dstBitCount + 31) / 32) * 4
	e.dstBitsOffset = fileHeaderSize + 40

	bitsSize := uint64(e.dstStride) * uint64(e.height)
	if bitsSize+uint64(e.dstBitsOffset) > 0xffffffff {
		return DimensionsError{Width: width, Height: height}
	}
	e.dstBitsSize = int(bitsSize)
	e.dstFileSize = e.dstBitsOffset + e.dstBitsSize
	return nil
}

// EncodeBMP encodes pix, which holds height rows of width pixels in the given
// layout, as an uncompressed BMP. If alpha is set the file has 32 bits per
// pixel, otherwise 24. stop may be nil.
func EncodeBMP(pix []byte, width, height uint32, layout PixelLayout, alpha bool, stop Stop) ([]byte, error) {
	return encodeBMP(&encoder{pix: pix, layout: layout, stop: stop}, width, height, alpha)
}

func encodeBMP(e *encoder, width, height uint32, alpha bool) ([]byte, error) {
	if err := e.strategize(width, height, alpha); err != nil {
		return nil, err
	}
	if err := CheckStop(e.stop); err != nil {
		return nil, err
	}

	out := make([]byte, e.dstFileSize)
	e.generateFileHeader(out[0:14])
	e.generateInfoHeader(out[14:54])
	if err := e.writeBits(out[e.dstBitsOffset:]); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeWithOptions writes the Image m to w in BMP format, using the options
// recorded in opts.
// opts may be nil, in which case it behaves the same as Encode.
func EncodeWithOptions(w io.Writer, m image.Image, opts *EncoderOptions) error {
	if opts == nil {
		opts = new(EncoderOptions)
	}

	pix, width, height, layout := FromImage(m)
	alpha := opts.supportTrns && !isOpaque(m)
	e := &encoder{pix: pix, layout: layout, stop: opts.stop, opts: opts}
	out, err := encodeBMP(e, width, height, alpha)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Encode writes the Image m to w in BMP format.
func Encode(w io.Writer, m image.Image) error {
	return EncodeWithOptions(w, m, nil)
}
