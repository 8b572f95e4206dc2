// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// BMP file decoder
//

package gobitmap

import "fmt"
import "image"
import "image/color"
import "io"

type decoder struct {
	c      byteCursor
	plan   *bmpPlan
	perm   Permissiveness
	native bool
	stop   Stop

	pix    []byte
	stride int // bytes per output row
	ncomp  int
	idx    []byte // one row of palette indices

	// Set when the pixels were written in BGR(A) order already.
	inNativeOrder bool
	// Set when the rows are bottom-up in pix.
	needFlip bool
}

func (d *decoder) validate() bool { return d.perm != Permissive }

// dstRow maps the n-th row stored in the file to an image row.
func (d *decoder) dstRow(srcRow int) int {
	if d.plan.isTopDown {
		return srcRow
	}
	return d.plan.height - srcRow - 1
}

// readRow returns the next n bytes of pixel data and skips pad bytes of row
// padding. Padding may be missing at the end of the file.
func (d *decoder) readRow(n, pad int, scratch []byte) ([]byte, error) {
	var row []byte
	if d.perm == Permissive && d.c.remaining() < n {
		row = scratch[:n]
		d.c.fill(row)
	} else {
		var err error
		row, err = d.c.next(n)
		if err != nil {
			return nil, err
		}
	}
	d.c.skipClamped(pad)
	return row, nil
}

func (d *decoder) setPaletteColor(dst []byte, idx byte) error {
	if d.validate() && int(idx) >= d.plan.palNumEntries {
		return DataError(fmt.Sprintf("palette index %d out of range (palette has %d entries)",
			idx, d.plan.palNumEntries))
	}
	e := d.plan.palette[idx]
	dst[0] = e.r
	dst[1] = e.g
	dst[2] = e.b
	return nil
}

// expandPalette maps one row of palette indices to RGB.
func (d *decoder) expandPalette(idx []byte, dst []byte) error {
	for i, v := range idx {
		if err := d.setPaletteColor(dst[i*3:i*3+3], v); err != nil {
			return err
		}
	}
	return nil
}

// expandBits unpacks 1-, 2- or 4-bit samples, most significant first, into
// one byte per pixel. len(dst) pixels are produced.
func expandBits(depth int, src []byte, dst []byte) {
	perByte := 8 / depth
	mask := byte(1<<uint(depth) - 1)
	for i := range dst {
		b := src[i/perByte]
		shift := uint(8 - depth*(i%perByte+1))
		dst[i] = (b >> shift) & mask
	}
}

type decodeRowFuncType func(d *decoder, src []byte, dst []byte) error

func decodeRow_lowbit(d *decoder, src []byte, dst []byte) error {
	expandBits(d.plan.bitCount, src, d.idx)
	return d.expandPalette(d.idx, dst)
}

func decodeRow_8(d *decoder, src []byte, dst []byte) error {
	if d.plan.pixFmt == pfGray8 {
		copy(dst, src)
		return nil
	}
	return d.expandPalette(src, dst)
}

func decodeRow_24(d *decoder, src []byte, dst []byte) error {
	copy(dst, src)
	if !d.native {
		swizzle(dst, 3)
	}
	return nil
}

func decodeRow_32fast(d *decoder, src []byte, dst []byte) error {
	copy(dst, src)
	if !d.native {
		swizzle(dst, 4)
	}
	return nil
}

func (d *decoder) decodeRowBitFields(bf *bitFieldsSet) decodeRowFuncType {
	if d.plan.bitCount == 16 {
		return func(d *decoder, src []byte, dst []byte) error {
			for i := 0; i < d.plan.width; i++ {
				bf.convert(getWORD(src[i*2:]), dst[i*d.ncomp:(i+1)*d.ncomp], d.native)
			}
			return nil
		}
	}
	return func(d *decoder, src []byte, dst []byte) error {
		for i := 0; i < d.plan.width; i++ {
			bf.convert(getDWORD(src[i*4:]), dst[i*d.ncomp:(i+1)*d.ncomp], d.native)
		}
		return nil
	}
}

func (p *bmpPlan) hasBitFields() bool {
	return p.comp.kind == compBitfields && !p.masks.isZero()
}

// effectiveMasks returns the BITFIELDS masks, or the defaults for the bit
// depth when the image does not carry usable masks.
func (p *bmpPlan) effectiveMasks() channelMasks {
	if p.hasBitFields() {
		return p.masks
	}
	if p.bitCount == 16 {
		return defaultMasks16
	}
	return defaultMasks32
}

func (p *bmpPlan) srcRowStride() int {
	return ((p.width*p.bitCount + 31) / 32) * 4
}

func (p *bmpPlan) srcRowBytes() int {
	return (p.width*p.bitCount + 7) / 8
}

func (d *decoder) readBitsUncompressed() error {
	var decodeRowFunc decodeRowFuncType

	p := d.plan
	switch p.bitCount {
	case 1, 2, 4:
		if p.pixFmt != pfPal8 {
			return UnsupportedError("bit depths below 8 need a palette")
		}
		decodeRowFunc = decodeRow_lowbit
		d.idx = make([]byte, p.width)
	case 8:
		decodeRowFunc = decodeRow_8
	case 24:
		decodeRowFunc = decodeRow_24
		d.inNativeOrder = d.native
	case 16, 32:
		if p.bitCount == 32 && !p.hasBitFields() {
			decodeRowFunc = decodeRow_32fast
		} else {
			bf := recordBitFields(p.effectiveMasks())
			decodeRowFunc = d.decodeRowBitFields(&bf)
		}
		d.inNativeOrder = d.native
	default:
		return UnsupportedError(fmt.Sprintf("bit count %d", p.bitCount))
	}

	rowBytes := p.srcRowBytes()
	pad := p.srcRowStride() - rowBytes
	scratch := make([]byte, rowBytes)

	for srcRow := 0; srcRow < p.height; srcRow++ {
		if srcRow%16 == 0 {
			if err := CheckStop(d.stop); err != nil {
				return err
			}
		}
		src, err := d.readRow(rowBytes, pad, scratch)
		if err != nil {
			return err
		}
		j := d.dstRow(srcRow)
		if err = decodeRowFunc(d, src, d.pix[j*d.stride:(j+1)*d.stride]); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) decodePixels() error {
	var err error

	switch {
	case d.plan.comp.kind == compUnknown:
		// Unknown compression only gets this far under Permissive; the
		// image is left black.
		return nil
	case d.plan.comp.isRLE():
		err = d.readBitsRLE()
	default:
		err = d.readBitsUncompressed()
	}
	if err != nil {
		return err
	}

	if d.needFlip {
		flipRows(d.pix, d.stride)
	}
	if d.native && !d.inNativeOrder && d.ncomp >= 3 {
		swizzle(d.pix, d.ncomp)
	}
	return nil
}

// checkAvailable fails early when an uncompressed image is cut short, so
// that a few bytes of header cannot force a large allocation.
func (d *decoder) checkAvailable() error {
	p := d.plan
	if d.perm == Permissive || p.comp.isRLE() || p.comp.kind == compUnknown {
		return nil
	}
	needed := uint64(p.srcRowStride())*uint64(p.height-1) + uint64(p.srcRowBytes())
	if uint64(d.c.remaining()) < needed {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func decodeBMP(data []byte, opts *DecoderOptions) (*Output, error) {
	perm := opts.Permissiveness()
	plan, err := parseHeader(data, perm)
	if err != nil {
		return nil, err
	}
	w, h := uint32(plan.width), uint32(plan.height)

	limits := opts.Limits()
	if err = limits.Check(w, h); err != nil {
		return nil, err
	}
	stop := opts.Stop()
	if err = CheckStop(stop); err != nil {
		return nil, err
	}
	ncomp := plan.pixFmt.numComponents()
	size, err := BufferSize(w, h, ncomp)
	if err != nil {
		return nil, err
	}
	if err = limits.CheckMemory(uint64(size)); err != nil {
		return nil, err
	}

	d := &decoder{
		c:      byteCursor{data: data},
		plan:   plan,
		perm:   perm,
		native: opts.NativeOrder(),
		stop:   stop,
		stride: plan.width * ncomp,
		ncomp:  ncomp,
	}
	if perm == Permissive {
		d.c.seekClamped(int(plan.bfOffBits))
	} else if err = d.c.seek(int(plan.bfOffBits)); err != nil {
		return nil, err
	}
	if err = d.checkAvailable(); err != nil {
		return nil, err
	}

	d.pix = make([]byte, size)
	if err = d.decodePixels(); err != nil {
		return nil, err
	}
	return &Output{
		Pix:    d.pix,
		Width:  w,
		Height: h,
		Layout: plan.pixFmt.layout(d.native),
		Format: FormatBMP,
	}, nil
}

// DecodeBMP decodes a complete BMP file held in memory, using the default
// options.
func DecodeBMP(data []byte) (*Output, error) {
	return decodeBMP(data, nil)
}

// DecodeBMPWithOptions decodes a BMP file using the options recorded in
// opts. opts may be nil, in which case it behaves the same as DecodeBMP.
func DecodeBMPWithOptions(data []byte, opts *DecoderOptions) (*Output, error) {
	return decodeBMP(data, opts)
}

// ProbeBMP parses only the headers. It accepts anything that Permissive
// decoding would accept.
func ProbeBMP(data []byte) (Header, error) {
	plan, err := parseHeader(data, Permissive)
	if err != nil {
		return Header{}, err
	}
	return plan.header(), nil
}

// Enough for the largest info header plus BITFIELDS masks.
const configPrefixSize = 1024

// DecodeConfig returns the color model and dimensions of the BMP image without
// decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var cfg image.Config

	prefix, err := io.ReadAll(io.LimitReader(r, configPrefixSize))
	if err != nil {
		return cfg, err
	}
	hdr, err := ProbeBMP(prefix)
	if err != nil {
		return cfg, err
	}

	cfg.Width = int(hdr.Width)
	cfg.Height = int(hdr.Height)
	if hdr.Layout == Gray8 {
		cfg.ColorModel = color.GrayModel
	} else {
		cfg.ColorModel = color.NRGBAModel
	}
	return cfg, nil
}

// Decode reads a BMP image from r and returns it as an image.Image.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	out, err := DecodeBMP(data)
	if err != nil {
		return nil, err
	}
	return out.Image()
}

func init() {
	image.RegisterFormat("bmp", "BM????\x00\x00\x00\x00", Decode, DecodeConfig)
}
