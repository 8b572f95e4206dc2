// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.

// Package farbfeld reads and writes farbfeld images: the magic
// "farbfeld", a big-endian 32-bit width and height, then 16-bit big-endian
// RGBA samples.
package farbfeld

import "encoding/binary"
import "fmt"
import "io"
import "math"

import "github.com/jsummers/gobitmap"

const (
	magic      = "farbfeld"
	headerSize = 16
)

func parseHeader(data []byte) (width, height uint32, err error) {
	if len(data) < headerSize {
		return 0, 0, io.ErrUnexpectedEOF
	}
	if string(data[:8]) != magic {
		return 0, 0, gobitmap.ErrUnrecognizedFormat
	}
	width = binary.BigEndian.Uint32(data[8:12])
	height = binary.BigEndian.Uint32(data[12:16])
	if width == 0 || height == 0 {
		return 0, 0, gobitmap.HeaderError(fmt.Sprintf("bad dimensions %dx%d", width, height))
	}
	return width, height, nil
}

// Probe parses only the header.
func Probe(data []byte) (gobitmap.Header, error) {
	w, h, err := parseHeader(data)
	if err != nil {
		return gobitmap.Header{}, err
	}
	return gobitmap.Header{Width: w, Height: h, Format: gobitmap.FormatFarbfeld, Layout: gobitmap.Rgba16}, nil
}

// Decode decodes a farbfeld file to Rgba16 with native-endian samples.
// Only the limits and stop of opts are used; opts may be nil.
func Decode(data []byte, opts *gobitmap.DecoderOptions) (*gobitmap.Output, error) {
	w, h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	limits := opts.Limits()
	if err = limits.Check(w, h); err != nil {
		return nil, err
	}
	size, err := gobitmap.BufferSize(w, h, 8)
	if err != nil {
		return nil, err
	}
	if err = limits.CheckMemory(uint64(size)); err != nil {
		return nil, err
	}
	stop := opts.Stop()
	if err = gobitmap.CheckStop(stop); err != nil {
		return nil, err
	}
	if len(data)-headerSize < size {
		return nil, io.ErrUnexpectedEOF
	}

	src := data[headerSize : headerSize+size]
	pix := make([]byte, size)
	stride := int(w) * 8
	for j := 0; j < int(h); j++ {
		if j%16 == 0 {
			if err = gobitmap.CheckStop(stop); err != nil {
				return nil, err
			}
		}
		for i := j * stride; i < (j+1)*stride; i += 2 {
			binary.NativeEndian.PutUint16(pix[i:], binary.BigEndian.Uint16(src[i:]))
		}
	}
	return &gobitmap.Output{
		Pix:    pix,
		Width:  w,
		Height: h,
		Layout: gobitmap.Rgba16,
		Format: gobitmap.FormatFarbfeld,
	}, nil
}

// Encode writes pix as a farbfeld file. Rgba16 samples are native-endian;
// Rgba8, Rgb8 and Gray8 samples are widened by 257 and missing alpha is
// opaque. stop may be nil.
func Encode(pix []byte, width, height uint32, layout gobitmap.PixelLayout, stop gobitmap.Stop) ([]byte, error) {
	switch layout {
	case gobitmap.Rgba16, gobitmap.Rgba8, gobitmap.Rgb8, gobitmap.Gray8:
	default:
		return nil, gobitmap.LayoutError{Layout: layout, Format: gobitmap.FormatFarbfeld}
	}
	needed, err := gobitmap.BufferSize(width, height, layout.BytesPerPixel())
	if err != nil {
		return nil, err
	}
	if len(pix) < needed {
		return nil, gobitmap.BufferSizeError{Needed: needed, Actual: len(pix)}
	}
	outSize, err := gobitmap.BufferSize(width, height, 8)
	if err != nil || outSize > math.MaxInt-headerSize {
		return nil, gobitmap.DimensionsError{Width: width, Height: height}
	}
	if err = gobitmap.CheckStop(stop); err != nil {
		return nil, err
	}

	out := make([]byte, 0, headerSize+outSize)
	out = append(out, magic...)
	out = binary.BigEndian.AppendUint32(out, width)
	out = binary.BigEndian.AppendUint32(out, height)

	w := int(width)
	srcStride := w * layout.BytesPerPixel()
	for j := 0; j < int(height); j++ {
		if j%16 == 0 {
			if err = gobitmap.CheckStop(stop); err != nil {
				return nil, err
			}
		}
		row := pix[j*srcStride : (j+1)*srcStride]
		switch layout {
		case gobitmap.Rgba16:
			for i := 0; i < len(row); i += 2 {
				out = binary.BigEndian.AppendUint16(out, binary.NativeEndian.Uint16(row[i:]))
			}
		case gobitmap.Rgba8:
			for _, v := range row {
				out = binary.BigEndian.AppendUint16(out, uint16(v)*257)
			}
		case gobitmap.Rgb8:
			for i := 0; i < w; i++ {
				out = binary.BigEndian.AppendUint16(out, uint16(row[i*3])*257)
				out = binary.BigEndian.AppendUint16(out, uint16(row[i*3+1])*257)
				out = binary.BigEndian.AppendUint16(out, uint16(row[i*3+2])*257)
				out = binary.BigEndian.AppendUint16(out, 0xffff)
			}
		case gobitmap.Gray8:
			for _, v := range row {
				g := uint16(v) * 257
				out = binary.BigEndian.AppendUint16(out, g)
				out = binary.BigEndian.AppendUint16(out, g)
				out = binary.BigEndian.AppendUint16(out, g)
				out = binary.BigEndian.AppendUint16(out, 0xffff)
			}
		}
	}
	return out, nil
}
