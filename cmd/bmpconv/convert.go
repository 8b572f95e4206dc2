// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.

package main

import "encoding/binary"
import "errors"
import "image"
import "image/color"
import "math"

import "golang.org/x/image/draw"

import "github.com/jsummers/gobitmap"
import "github.com/jsummers/gobitmap/autodetect"

var filters = map[string]draw.Interpolator{
	"catmullrom": draw.CatmullRom,
	"bilinear":   draw.ApproxBiLinear,
	"nearest":    draw.NearestNeighbor,
}

type converter struct {
	opts   *gobitmap.DecoderOptions
	stop   gobitmap.Stop
	format gobitmap.Format
	scale  float64
	interp draw.Interpolator
	logf   func(format string, args ...any)
}

func (c *converter) log(format string, args ...any) {
	if c.logf != nil {
		c.logf(format, args...)
	}
}

// convert decodes data in whatever format it is in and encodes it as
// c.format.
func (c *converter) convert(data []byte) ([]byte, error) {
	out, err := autodetect.Decode(data, c.opts)
	if err != nil {
		return nil, err
	}
	c.log("decoded %v %dx%d %v", out.Format, out.Width, out.Height, out.Layout)

	if c.scale != 1 {
		if out, err = c.resize(out); err != nil {
			return nil, err
		}
		c.log("scaled to %dx%d", out.Width, out.Height)
	}

	enc, err := autodetect.Encode(out.Pix, out.Width, out.Height, out.Layout, c.format, c.stop)
	if !errors.As(err, new(gobitmap.LayoutError)) {
		return enc, err
	}

	// The target cannot take this layout directly.
	if out, err = convertLayout(out, c.format); err != nil {
		return nil, err
	}
	c.log("converted to %v", out.Layout)
	return autodetect.Encode(out.Pix, out.Width, out.Height, out.Layout, c.format, c.stop)
}

func (c *converter) resize(out *gobitmap.Output) (*gobitmap.Output, error) {
	src, err := out.Image()
	if err != nil {
		return nil, err
	}
	w := int(math.Round(float64(out.Width) * c.scale))
	h := int(math.Round(float64(out.Height) * c.scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if _, err = gobitmap.BufferSize(uint32(w), uint32(h), 4); err != nil || uint64(w) > math.MaxUint32 || uint64(h) > math.MaxUint32 {
		return nil, gobitmap.DimensionsError{Width: out.Width, Height: out.Height}
	}
	if err = gobitmap.CheckStop(c.stop); err != nil {
		return nil, err
	}

	var dst draw.Image
	switch src.(type) {
	case *image.Gray, *image.Gray16:
		dst = image.NewGray(image.Rect(0, 0, w, h))
	default:
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
	}
	c.interp.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	pix, width, height, layout := gobitmap.FromImage(dst)
	return &gobitmap.Output{Pix: pix, Width: width, Height: height, Layout: layout, Format: out.Format}, nil
}

// convertLayout rewrites out into a layout the encoder for format accepts.
func convertLayout(out *gobitmap.Output, format gobitmap.Format) (*gobitmap.Output, error) {
	m, err := out.Image()
	if err != nil {
		return nil, err
	}
	if format == gobitmap.FormatPFM {
		pix, layout := toFloat(m)
		return &gobitmap.Output{Pix: pix, Width: out.Width, Height: out.Height, Layout: layout, Format: out.Format}, nil
	}
	pix, width, height, layout := gobitmap.FromImage(m)
	return &gobitmap.Output{Pix: pix, Width: width, Height: height, Layout: layout, Format: out.Format}, nil
}

// toFloat maps m to GrayF32 or RgbF32 samples in [0,1]. Alpha is dropped.
func toFloat(m image.Image) ([]byte, gobitmap.PixelLayout) {
	b := m.Bounds()
	gray := false
	switch m.(type) {
	case *image.Gray, *image.Gray16:
		gray = true
	}

	var pix []byte
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBA64Model.Convert(m.At(x, y)).(color.NRGBA64)
			if gray {
				pix = binary.NativeEndian.AppendUint32(pix, math.Float32bits(float32(c.R)/0xffff))
				continue
			}
			for _, v := range []uint16{c.R, c.G, c.B} {
				pix = binary.NativeEndian.AppendUint32(pix, math.Float32bits(float32(v)/0xffff))
			}
		}
	}
	if gray {
		return pix, gobitmap.GrayF32
	}
	return pix, gobitmap.RgbF32
}
