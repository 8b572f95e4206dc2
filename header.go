// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// BMP header parser
//

package gobitmap

import "fmt"

const (
	bI_RGB            = 0
	bI_RLE8           = 1
	bI_RLE4           = 2
	bI_BITFIELDS      = 3
	bI_ALPHABITFIELDS = 6
)

const fileHeaderSize = 14

type compressionKind int

const (
	compRGB compressionKind = iota
	compRLE8
	compRLE4
	compBitfields
	compUnknown
)

// compression is the decoded biCompression field. code keeps the raw value,
// which is what identifies an unknown scheme.
type compression struct {
	kind compressionKind
	code uint32
}

func (c compression) isRLE() bool {
	return c.kind == compRLE4 || c.kind == compRLE8
}

func (c compression) String() string {
	switch c.kind {
	case compRGB:
		return "none"
	case compRLE8:
		return "RLE8"
	case compRLE4:
		return "RLE4"
	case compBitfields:
		return "bitfields"
	}
	return fmt.Sprintf("unknown(%d)", c.code)
}

// pixelFormat is the decoder's intermediate format, before it is mapped
// to a PixelLayout.
type pixelFormat int

const (
	pfNone pixelFormat = iota
	pfRgba
	pfPal8
	pfGray8
	pfRgb
)

func (f pixelFormat) numComponents() int {
	switch f {
	case pfRgba:
		return 4
	case pfPal8, pfRgb:
		return 3
	case pfGray8:
		return 1
	}
	return 0
}

func (f pixelFormat) layout(native bool) PixelLayout {
	switch f {
	case pfRgba:
		if native {
			return Bgra8
		}
		return Rgba8
	case pfRgb, pfPal8:
		if native {
			return Bgr8
		}
		return Rgb8
	case pfGray8:
		return Gray8
	}
	return 0
}

type paletteEntry struct {
	r, g, b byte
}

// bmpPlan is everything the header parser learned. It is built once and
// then only read by the pixel decoder.
type bmpPlan struct {
	fileSize   uint32
	bfOffBits  uint32
	headerSize uint32

	width     int
	height    int
	isTopDown bool
	planes    int
	bitCount  int
	comp      compression

	imageSize     uint32
	xPelsPerMeter int32
	yPelsPerMeter int32
	colorsUsed    uint32
	hasColorsUsed bool

	masks  channelMasks
	pixFmt pixelFormat

	palette       [256]paletteEntry
	palNumEntries int
}

// Header describes an image without its pixels.
type Header struct {
	Width, Height uint32
	Format        Format
	Layout        PixelLayout
}

type headerParser struct {
	c    byteCursor
	perm Permissiveness
	plan bmpPlan
}

func (h *headerParser) strict() bool     { return h.perm == Strict }
func (h *headerParser) permissive() bool { return h.perm == Permissive }

func (h *headerParser) skip(n int) error {
	if h.permissive() {
		h.c.skipClamped(n)
		return nil
	}
	return h.c.skip(n)
}

func (h *headerParser) seek(pos int) error {
	if h.permissive() {
		h.c.seekClamped(pos)
		return nil
	}
	return h.c.seek(pos)
}

func parseHeader(data []byte, perm Permissiveness) (*bmpPlan, error) {
	h := &headerParser{c: byteCursor{data: data}, perm: perm}
	if err := h.readHeaders(); err != nil {
		return nil, err
	}
	return &h.plan, nil
}

func (h *headerParser) decodeFileHeader() error {
	var magic [2]byte
	if err := h.c.readFull(magic[:]); err != nil {
		return err
	}
	if magic[0] != 0x42 || magic[1] != 0x4d {
		return ErrUnrecognizedFormat
	}
	size, err := h.c.readU32()
	if err != nil {
		return err
	}
	if err = h.skip(4); err != nil {
		return err
	}
	if h.strict() && size != 0 && uint64(size) != uint64(len(h.c.data)) {
		return HeaderError(fmt.Sprintf("file size field %d does not match actual size %d",
			size, len(h.c.data)))
	}
	h.plan.fileSize = size
	h.plan.bfOffBits, err = h.c.readU32()
	return err
}

func (h *headerParser) readHeaders() error {
	var err error

	if err = h.decodeFileHeader(); err != nil {
		return err
	}
	h.plan.headerSize, err = h.c.readU32()
	if err != nil {
		return err
	}
	if uint64(h.plan.headerSize)+fileHeaderSize > uint64(h.plan.bfOffBits) {
		return HeaderError("bad bfOffBits field")
	}

	switch h.plan.headerSize {
	case 12:
		err = decodeInfoHeader12(h)
	case 16, 40, 52, 56, 64, 108, 124:
		err = decodeInfoHeader(h)
	default:
		return HeaderError(fmt.Sprintf("unknown info header size %d", h.plan.headerSize))
	}
	if err != nil {
		return err
	}

	if err = h.validate(); err != nil {
		return err
	}
	if err = h.resolvePixelFormat(); err != nil {
		return err
	}
	if h.plan.pixFmt == pfPal8 {
		return h.readPalette()
	}
	return nil
}

// Read a 12-byte BITMAPCOREHEADER.
func decodeInfoHeader12(h *headerParser) error {
	var f [4]uint16
	for i := range f {
		v, err := h.c.readU16()
		if err != nil {
			return err
		}
		f[i] = v
	}
	p := &h.plan
	p.width = int(f[0])
	p.height = int(f[1])
	p.planes = int(f[2])
	p.bitCount = int(f[3])
	p.comp = compression{kind: compRGB}
	return nil
}

// Read the Windows and OS/2 v2 headers, from the 16-byte variant up to
// BITMAPV5HEADER. Fields beyond the declared size are not read.
func decodeInfoHeader(h *headerParser) error {
	p := &h.plan
	c := &h.c

	w, err := c.readU32()
	if err != nil {
		return err
	}
	ht, err := c.readU32()
	if err != nil {
		return err
	}
	planes, err := c.readU16()
	if err != nil {
		return err
	}
	bitCount, err := c.readU16()
	if err != nil {
		return err
	}
	if int32(w) < 0 {
		return HeaderError(fmt.Sprintf("negative width %d", int32(w)))
	}
	p.width = int(w)
	p.height = int(int32(ht))
	if p.height < 0 {
		p.isTopDown = true
		p.height = -p.height
	}
	p.planes = int(planes)
	p.bitCount = int(bitCount)

	if p.headerSize < 40 {
		p.comp = compression{kind: compRGB}
		return nil
	}

	code, err := c.readU32()
	if err != nil {
		return err
	}
	switch code {
	case bI_RGB:
		p.comp = compression{kind: compRGB, code: code}
	case bI_RLE8:
		p.comp = compression{kind: compRLE8, code: code}
	case bI_RLE4:
		p.comp = compression{kind: compRLE4, code: code}
	case bI_BITFIELDS, bI_ALPHABITFIELDS:
		p.comp = compression{kind: compBitfields, code: code}
	default:
		if !h.permissive() {
			return UnsupportedError(fmt.Sprintf("compression type %d", code))
		}
		p.comp = compression{kind: compUnknown, code: code}
	}

	var f [5]uint32
	for i := range f {
		if f[i], err = c.readU32(); err != nil {
			return err
		}
	}
	p.imageSize = f[0]
	p.xPelsPerMeter = int32(f[1])
	p.yPelsPerMeter = int32(f[2])
	p.colorsUsed = f[3]
	p.hasColorsUsed = true

	// With a 40-byte header, BITFIELDS masks follow the header.
	nMasks := 0
	switch {
	case p.headerSize >= 56:
		nMasks = 4
	case p.headerSize >= 52:
		nMasks = 3
	case p.comp.kind == compBitfields && p.comp.code == bI_ALPHABITFIELDS:
		nMasks = 4
	case p.comp.kind == compBitfields:
		nMasks = 3
	}
	for k := 0; k < nMasks; k++ {
		if p.masks[k], err = c.readU32(); err != nil {
			return err
		}
	}
	return nil
}

// validate applies the checks that depend on the permissiveness level.
func (h *headerParser) validate() error {
	p := &h.plan

	if h.strict() && p.hasColorsUsed {
		if p.xPelsPerMeter < 0 || p.yPelsPerMeter < 0 {
			return HeaderError(fmt.Sprintf("negative resolution %dx%d",
				p.xPelsPerMeter, p.yPelsPerMeter))
		}
		if p.imageSize != 0 && p.comp.kind == compRGB && p.width > 0 {
			expected := (uint64(p.width)*uint64(p.bitCount) + 31) / 32 * 4 * uint64(p.height)
			if uint64(p.imageSize) != expected {
				return HeaderError(fmt.Sprintf("image size field %d, expected %d",
					p.imageSize, expected))
			}
		}
	}
	if !h.permissive() && p.planes != 1 {
		return HeaderError(fmt.Sprintf("planes field is %d", p.planes))
	}
	if p.width < 1 {
		return HeaderError(fmt.Sprintf("bad width %d", p.width))
	}
	if p.height < 1 {
		return HeaderError(fmt.Sprintf("bad height %d", p.height))
	}
	if !h.permissive() && p.isTopDown && p.comp.isRLE() {
		return DataError("top-down image with RLE compression")
	}
	if p.bitCount == 0 {
		return HeaderError("bit count is 0")
	}
	if h.strict() {
		switch {
		case p.comp.kind == compRLE4 && p.bitCount != 4:
			return HeaderError(fmt.Sprintf("bad RLE4 bit count %d", p.bitCount))
		case p.comp.kind == compRLE8 && p.bitCount != 8:
			return HeaderError(fmt.Sprintf("bad RLE8 bit count %d", p.bitCount))
		case p.comp.kind == compBitfields && p.bitCount != 16 && p.bitCount != 32:
			return HeaderError(fmt.Sprintf("bad BITFIELDS bit count %d", p.bitCount))
		}
	}
	return nil
}

// paletteGap is the number of bytes between the info header and the pixel
// data. An 8-bit image with no gap is read as grayscale.
func (p *bmpPlan) paletteGap() int {
	return int(p.bfOffBits - p.headerSize - fileHeaderSize)
}

func (h *headerParser) resolvePixelFormat() error {
	p := &h.plan
	switch p.bitCount {
	case 32:
		p.pixFmt = pfRgba
	case 24:
		p.pixFmt = pfRgb
	case 16:
		p.pixFmt = pfRgb
		if p.comp.kind == compBitfields && p.masks[3] != 0 {
			p.pixFmt = pfRgba
		}
	case 8:
		if p.paletteGap() > 0 {
			p.pixFmt = pfPal8
		} else {
			p.pixFmt = pfGray8
		}
	case 1, 2, 4:
		if p.paletteGap() <= 0 {
			return UnsupportedError(fmt.Sprintf("%d-bit image without a palette", p.bitCount))
		}
		p.pixFmt = pfPal8
	default:
		return UnsupportedError(fmt.Sprintf("bit count %d", p.bitCount))
	}
	return nil
}

func (h *headerParser) readPalette() error {
	p := &h.plan
	maxColors := 1 << uint(p.bitCount)
	colors := maxColors
	entrySize := 4
	if p.headerSize == 12 {
		entrySize = 3
	}

	if p.hasColorsUsed {
		n := int32(p.colorsUsed)
		if n < 0 || int(n) > maxColors {
			if !h.permissive() {
				return HeaderError(fmt.Sprintf("palette size %d exceeds %d", n, maxColors))
			}
		} else if n != 0 {
			colors = int(n)
		}
	} else {
		colors = min(256, p.paletteGap()/entrySize)
	}

	if err := h.seek(fileHeaderSize + int(p.headerSize)); err != nil {
		return err
	}
	var buf [4]byte
	for i := 0; i < colors; i++ {
		h.c.fill(buf[:entrySize])
		p.palette[i] = paletteEntry{r: buf[2], g: buf[1], b: buf[0]}
	}
	p.palNumEntries = colors
	return nil
}

func (p *bmpPlan) header() Header {
	return Header{
		Width:  uint32(p.width),
		Height: uint32(p.height),
		Format: FormatBMP,
		Layout: p.pixFmt.layout(false),
	}
}
