// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// Decoded pixel buffers and image.Image adapters
//

package gobitmap

import "encoding/binary"
import "image"
import "math"

import "golang.org/x/image/draw"

// Output is a decoded image. len(Pix) is always
// Width*Height*Layout.BytesPerPixel().
type Output struct {
	Pix    []byte
	Width  uint32
	Height uint32
	Layout PixelLayout
	Format Format

	// Borrowed is set when Pix aliases the decoder's input rather than
	// owning a fresh allocation.
	Borrowed bool
}

// Owned returns an Output whose Pix does not alias the decoder input.
func (o *Output) Owned() *Output {
	if !o.Borrowed {
		return o
	}
	c := *o
	c.Pix = append([]byte(nil), o.Pix...)
	c.Borrowed = false
	return &c
}

// Image converts the pixels to the closest standard library image type.
// The 8-bit gray layout shares Pix; all others are copied.
func (o *Output) Image() (image.Image, error) {
	w, h := int(o.Width), int(o.Height)
	rect := image.Rect(0, 0, w, h)
	n := w * h
	if needed, err := BufferSize(o.Width, o.Height, o.Layout.BytesPerPixel()); err != nil {
		return nil, err
	} else if len(o.Pix) < needed {
		return nil, BufferSizeError{Needed: needed, Actual: len(o.Pix)}
	}

	switch o.Layout {
	case Gray8:
		return &image.Gray{Pix: o.Pix[:n], Stride: w, Rect: rect}, nil

	case Gray16:
		m := image.NewGray16(rect)
		for i := 0; i < n; i++ {
			binary.BigEndian.PutUint16(m.Pix[i*2:], binary.NativeEndian.Uint16(o.Pix[i*2:]))
		}
		return m, nil

	case Rgb8, Bgr8, Rgba8, Bgra8, Bgrx8:
		m := image.NewNRGBA(rect)
		for i := 0; i < n; i++ {
			r, g, b, a := pixelAt(o.Pix, i, o.Layout)
			m.Pix[i*4+0] = r
			m.Pix[i*4+1] = g
			m.Pix[i*4+2] = b
			m.Pix[i*4+3] = a
		}
		return m, nil

	case Rgba16:
		m := image.NewNRGBA64(rect)
		for i := 0; i < n*4; i++ {
			binary.BigEndian.PutUint16(m.Pix[i*2:], binary.NativeEndian.Uint16(o.Pix[i*2:]))
		}
		return m, nil

	case GrayF32:
		m := image.NewGray16(rect)
		for i := 0; i < n; i++ {
			binary.BigEndian.PutUint16(m.Pix[i*2:], floatToU16(o.Pix[i*4:]))
		}
		return m, nil

	case RgbF32:
		m := image.NewNRGBA64(rect)
		for i := 0; i < n; i++ {
			for k := 0; k < 3; k++ {
				binary.BigEndian.PutUint16(m.Pix[i*8+k*2:], floatToU16(o.Pix[i*12+k*4:]))
			}
			m.Pix[i*8+6] = 0xff
			m.Pix[i*8+7] = 0xff
		}
		return m, nil
	}
	return nil, UnsupportedError("pixel layout " + o.Layout.String())
}

// floatToU16 reads a native-endian float32 and maps [0,1] to [0,65535].
func floatToU16(b []byte) uint16 {
	f := math.Float32frombits(binary.NativeEndian.Uint32(b))
	switch {
	case !(f > 0): // also NaN
		return 0
	case f >= 1:
		return 0xffff
	}
	return uint16(f*0xffff + 0.5)
}

func isOpaque(m image.Image) bool {
	if o, ok := m.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// FromImage returns the pixels of m in a layout the encoders accept:
// Gray8 for *image.Gray, Rgba8 for everything else.
func FromImage(m image.Image) (pix []byte, width, height uint32, layout PixelLayout) {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()

	if g, ok := m.(*image.Gray); ok {
		pix = make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(pix[y*w:(y+1)*w], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return pix, uint32(w), uint32(h), Gray8
	}

	dst, ok := m.(*image.NRGBA)
	if !ok || dst.Stride != w*4 || dst.Rect.Min != (image.Point{}) {
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Rect, m, b.Min, draw.Src)
	}
	return dst.Pix[:w*h*4], uint32(w), uint32(h), Rgba8
}
