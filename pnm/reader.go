// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// PNM decoder
//

// Package pnm reads and writes the binary Netpbm formats: PGM (P5),
// PPM (P6), PAM (P7) and PFM (Pf, PF).
package pnm

import "encoding/binary"
import "io"
import "math"

import "github.com/jsummers/gobitmap"

type decoder struct {
	h    *pnmHeader
	src  []byte // the raster, starting at the first sample
	stop gobitmap.Stop

	pix    []byte
	stride int // output bytes per row
}

// Scale a sample in 0..maxval to 0..255, rounding.
func scale8(v, maxval uint32) byte {
	if v >= maxval {
		return 255
	}
	return byte((v*255 + maxval/2) / maxval)
}

// Scale a sample in 0..maxval to 0..65535, rounding.
func scale16(v, maxval uint32) uint16 {
	if v >= maxval {
		return 65535
	}
	return uint16((v*65535 + maxval/2) / maxval)
}

// sampleAt returns sample i of the raster.
func (d *decoder) sampleAt(i int) uint32 {
	if d.h.maxval > 255 {
		return uint32(binary.BigEndian.Uint16(d.src[i*2:]))
	}
	return uint32(d.src[i])
}

func (d *decoder) decodeRow_gray16(j int, dst []byte) {
	w := int(d.h.width)
	for i := 0; i < w; i++ {
		v := scale16(d.sampleAt(j*w+i), d.h.maxval)
		binary.NativeEndian.PutUint16(dst[i*2:], v)
	}
}

// decodeRow_8 handles every integer layout with 8-bit output samples. A
// gray+alpha file is expanded to RGBA.
func (d *decoder) decodeRow_8(j int, dst []byte) {
	w := int(d.h.width)
	depth := d.h.depth
	base := j * w * depth
	for i := 0; i < w; i++ {
		s := base + i*depth
		if depth == 2 {
			g := scale8(d.sampleAt(s), d.h.maxval)
			dst[i*4+0] = g
			dst[i*4+1] = g
			dst[i*4+2] = g
			dst[i*4+3] = scale8(d.sampleAt(s+1), d.h.maxval)
			continue
		}
		for k := 0; k < depth; k++ {
			dst[i*depth+k] = scale8(d.sampleAt(s+k), d.h.maxval)
		}
	}
}

// PFM rows are stored bottom to top.
func (d *decoder) decodeRow_float(j int, dst []byte) {
	n := int(d.h.width) * d.h.depth
	src := d.src[(int(d.h.height)-j-1)*n*4:]
	order := binary.ByteOrder(binary.BigEndian)
	if d.h.littleEndian {
		order = binary.LittleEndian
	}
	for i := 0; i < n; i++ {
		binary.NativeEndian.PutUint32(dst[i*4:], order.Uint32(src[i*4:]))
	}
}

func (d *decoder) decodeRows() error {
	rowFunc := d.decodeRow_8
	switch {
	case d.h.format == gobitmap.FormatPFM:
		rowFunc = d.decodeRow_float
	case d.h.layout == gobitmap.Gray16:
		rowFunc = d.decodeRow_gray16
	}

	for j := 0; j < int(d.h.height); j++ {
		if j%16 == 0 {
			if err := gobitmap.CheckStop(d.stop); err != nil {
				return err
			}
		}
		rowFunc(j, d.pix[j*d.stride:(j+1)*d.stride])
	}
	return nil
}

// sourceSize returns the number of raster bytes the header calls for.
func (h *pnmHeader) sourceSize() (int, error) {
	sampleBytes := 1
	switch {
	case h.format == gobitmap.FormatPFM:
		sampleBytes = 4
	case h.maxval > 255:
		sampleBytes = 2
	}
	return gobitmap.BufferSize(h.width, h.height, h.depth*sampleBytes)
}

// Decode decodes a binary PGM, PPM, PAM or PFM file held in memory. Only
// the limits and stop of opts are used; opts may be nil.
//
// An 8-bit file with maxval 255 whose samples are already in the output
// layout is not copied: the returned Output is Borrowed and its Pix aliases
// data.
func Decode(data []byte, opts *gobitmap.DecoderOptions) (*gobitmap.Output, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	limits := opts.Limits()
	if err = limits.Check(h.width, h.height); err != nil {
		return nil, err
	}
	stop := opts.Stop()
	if err = gobitmap.CheckStop(stop); err != nil {
		return nil, err
	}

	srcSize, err := h.sourceSize()
	if err != nil {
		return nil, err
	}
	if len(data)-h.dataOffset < srcSize {
		return nil, io.ErrUnexpectedEOF
	}
	src := data[h.dataOffset : h.dataOffset+srcSize]

	out := &gobitmap.Output{
		Width:  h.width,
		Height: h.height,
		Layout: h.layout,
		Format: h.format,
	}
	if h.maxval == 255 && h.depth == h.layout.Channels() {
		out.Pix = src
		out.Borrowed = true
		return out, nil
	}

	size, err := gobitmap.BufferSize(h.width, h.height, h.layout.BytesPerPixel())
	if err != nil {
		return nil, err
	}
	if err = limits.CheckMemory(uint64(size)); err != nil {
		return nil, err
	}
	d := &decoder{
		h:      h,
		src:    src,
		stop:   stop,
		pix:    make([]byte, size),
		stride: int(h.width) * h.layout.BytesPerPixel(),
	}
	if err = d.decodeRows(); err != nil {
		return nil, err
	}
	out.Pix = d.pix
	return out, nil
}

// Probe parses only the header.
func Probe(data []byte) (gobitmap.Header, error) {
	h, err := parseHeader(data)
	if err != nil {
		return gobitmap.Header{}, err
	}
	return h.info(), nil
}

// FloatAt returns sample i of a GrayF32 or RgbF32 buffer.
func FloatAt(pix []byte, i int) float32 {
	return math.Float32frombits(binary.NativeEndian.Uint32(pix[i*4:]))
}
