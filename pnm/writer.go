// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// PNM encoder
//

package pnm

import "encoding/binary"
import "fmt"

import "github.com/jsummers/gobitmap"

type encoder struct {
	pix    []byte
	layout gobitmap.PixelLayout
	stop   gobitmap.Stop
	width  int
	height int
	stride int // source bytes per row
}

// rgbAt returns pixel i of an 8-bit row as R, G, B, A.
func rgbAt(row []byte, i int, layout gobitmap.PixelLayout) (r, g, b, a byte) {
	switch layout {
	case gobitmap.Gray8:
		return row[i], row[i], row[i], 255
	case gobitmap.Rgb8:
		return row[i*3], row[i*3+1], row[i*3+2], 255
	case gobitmap.Bgr8:
		return row[i*3+2], row[i*3+1], row[i*3], 255
	case gobitmap.Rgba8:
		return row[i*4], row[i*4+1], row[i*4+2], row[i*4+3]
	case gobitmap.Bgra8:
		return row[i*4+2], row[i*4+1], row[i*4], row[i*4+3]
	case gobitmap.Bgrx8:
		return row[i*4+2], row[i*4+1], row[i*4], 255
	}
	return 0, 0, 0, 0
}

func luma(r, g, b byte) byte {
	return byte((uint32(r)*299 + uint32(g)*587 + uint32(b)*114 + 500) / 1000)
}

// writeRows appends the rows produced by genRow, in the given order.
func (e *encoder) writeRows(out []byte, bottomUp bool, genRow func(row []byte, out []byte) []byte) ([]byte, error) {
	for j := 0; j < e.height; j++ {
		if j%16 == 0 {
			if err := gobitmap.CheckStop(e.stop); err != nil {
				return nil, err
			}
		}
		src := j
		if bottomUp {
			src = e.height - j - 1
		}
		out = genRow(e.pix[src*e.stride:(src+1)*e.stride], out)
	}
	return out, nil
}

func (e *encoder) encodePGM() ([]byte, error) {
	switch e.layout {
	case gobitmap.Gray8, gobitmap.Rgb8, gobitmap.Bgr8, gobitmap.Rgba8, gobitmap.Bgra8, gobitmap.Bgrx8:
	default:
		return nil, gobitmap.LayoutError{Layout: e.layout, Format: gobitmap.FormatPGM}
	}
	out := fmt.Appendf(nil, "P5\n%d %d\n255\n", e.width, e.height)
	return e.writeRows(out, false, func(row []byte, out []byte) []byte {
		if e.layout == gobitmap.Gray8 {
			return append(out, row...)
		}
		for i := 0; i < e.width; i++ {
			r, g, b, _ := rgbAt(row, i, e.layout)
			out = append(out, luma(r, g, b))
		}
		return out
	})
}

func (e *encoder) encodePPM() ([]byte, error) {
	switch e.layout {
	case gobitmap.Gray8, gobitmap.Rgb8, gobitmap.Bgr8, gobitmap.Rgba8, gobitmap.Bgra8, gobitmap.Bgrx8:
	default:
		return nil, gobitmap.LayoutError{Layout: e.layout, Format: gobitmap.FormatPPM}
	}
	out := fmt.Appendf(nil, "P6\n%d %d\n255\n", e.width, e.height)
	return e.writeRows(out, false, func(row []byte, out []byte) []byte {
		if e.layout == gobitmap.Rgb8 {
			return append(out, row...)
		}
		for i := 0; i < e.width; i++ {
			r, g, b, _ := rgbAt(row, i, e.layout)
			out = append(out, r, g, b)
		}
		return out
	})
}

func (e *encoder) encodePAM() ([]byte, error) {
	var depth, maxval int
	var tupleType string
	switch e.layout {
	case gobitmap.Gray8:
		depth, maxval, tupleType = 1, 255, "GRAYSCALE"
	case gobitmap.Gray16:
		depth, maxval, tupleType = 1, 65535, "GRAYSCALE"
	case gobitmap.Rgb8, gobitmap.Bgr8:
		depth, maxval, tupleType = 3, 255, "RGB"
	case gobitmap.Rgba8, gobitmap.Bgra8, gobitmap.Bgrx8:
		depth, maxval, tupleType = 4, 255, "RGB_ALPHA"
	default:
		return nil, gobitmap.LayoutError{Layout: e.layout, Format: gobitmap.FormatPAM}
	}
	out := fmt.Appendf(nil, "P7\nWIDTH %d\nHEIGHT %d\nDEPTH %d\nMAXVAL %d\nTUPLTYPE %s\nENDHDR\n",
		e.width, e.height, depth, maxval, tupleType)

	return e.writeRows(out, false, func(row []byte, out []byte) []byte {
		switch e.layout {
		case gobitmap.Gray8, gobitmap.Rgb8, gobitmap.Rgba8:
			return append(out, row...)
		case gobitmap.Gray16:
			// PAM samples are big-endian.
			for i := 0; i < e.width; i++ {
				out = binary.BigEndian.AppendUint16(out, binary.NativeEndian.Uint16(row[i*2:]))
			}
			return out
		}
		for i := 0; i < e.width; i++ {
			r, g, b, a := rgbAt(row, i, e.layout)
			if depth == 3 {
				out = append(out, r, g, b)
			} else {
				out = append(out, r, g, b, a)
			}
		}
		return out
	})
}

// PFM is written little-endian, bottom row first.
func (e *encoder) encodePFM() ([]byte, error) {
	var magic string
	switch e.layout {
	case gobitmap.GrayF32:
		magic = "Pf"
	case gobitmap.RgbF32:
		magic = "PF"
	default:
		return nil, gobitmap.LayoutError{Layout: e.layout, Format: gobitmap.FormatPFM}
	}
	out := fmt.Appendf(nil, "%s\n%d %d\n-1.0\n", magic, e.width, e.height)
	return e.writeRows(out, true, func(row []byte, out []byte) []byte {
		for i := 0; i+4 <= len(row); i += 4 {
			out = binary.LittleEndian.AppendUint32(out, binary.NativeEndian.Uint32(row[i:]))
		}
		return out
	})
}

// Encode writes pix, which holds height rows of width pixels in the given
// layout, as a PGM, PPM, PAM or PFM file. stop may be nil.
//
// PGM output converts color to luma, PPM output drops alpha, PAM keeps
// alpha and writes Gray16 with maxval 65535, and PFM takes only the float
// layouts.
func Encode(pix []byte, width, height uint32, layout gobitmap.PixelLayout, format gobitmap.Format, stop gobitmap.Stop) ([]byte, error) {
	needed, err := gobitmap.BufferSize(width, height, layout.BytesPerPixel())
	if err != nil {
		return nil, err
	}
	if len(pix) < needed {
		return nil, gobitmap.BufferSizeError{Needed: needed, Actual: len(pix)}
	}
	if err = gobitmap.CheckStop(stop); err != nil {
		return nil, err
	}

	e := &encoder{
		pix:    pix,
		layout: layout,
		stop:   stop,
		width:  int(width),
		height: int(height),
		stride: int(width) * layout.BytesPerPixel(),
	}
	switch format {
	case gobitmap.FormatPGM:
		return e.encodePGM()
	case gobitmap.FormatPPM:
		return e.encodePPM()
	case gobitmap.FormatPAM:
		return e.encodePAM()
	case gobitmap.FormatPFM:
		return e.encodePFM()
	}
	return nil, gobitmap.UnsupportedError("pnm cannot write " + format.String())
}
