// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// Pixel layouts and container formats
//

// Package gobitmap decodes and encodes simple bitmap container formats
// (Windows BMP, the PNM family, farbfeld) into a small set of in-memory
// pixel layouts.
//
// The BMP engine lives in this package. The pnm, farbfeld and autodetect
// subpackages share its types.
package gobitmap

import "fmt"

// A PixelLayout describes the channel order and sample size of a pixel
// buffer. Pixels are stored row by row, top row first, without padding.
type PixelLayout int

const (
	Gray8 PixelLayout = iota + 1
	Gray16            // one native-endian uint16 per pixel
	Rgb8
	Rgba8
	Bgr8
	Bgra8
	Bgrx8 // like Bgra8, but the fourth byte is padding
	GrayF32
	RgbF32
	Rgba16 // native-endian uint16 samples
)

var layoutNames = map[PixelLayout]string{
	Gray8:   "Gray8",
	Gray16:  "Gray16",
	Rgb8:    "Rgb8",
	Rgba8:   "Rgba8",
	Bgr8:    "Bgr8",
	Bgra8:   "Bgra8",
	Bgrx8:   "Bgrx8",
	GrayF32: "GrayF32",
	RgbF32:  "RgbF32",
	Rgba16:  "Rgba16",
}

func (p PixelLayout) String() string {
	if s, ok := layoutNames[p]; ok {
		return s
	}
	return fmt.Sprintf("PixelLayout(%d)", int(p))
}

// BytesPerPixel returns the size of one pixel, or 0 for an unknown layout.
func (p PixelLayout) BytesPerPixel() int {
	switch p {
	case Gray8:
		return 1
	case Gray16:
		return 2
	case Rgb8, Bgr8:
		return 3
	case Rgba8, Bgra8, Bgrx8, GrayF32:
		return 4
	case Rgba16:
		return 8
	case RgbF32:
		return 12
	}
	return 0
}

// Channels returns the number of channels, counting Bgrx8's padding byte.
func (p PixelLayout) Channels() int {
	switch p {
	case Gray8, Gray16, GrayF32:
		return 1
	case Rgb8, Bgr8, RgbF32:
		return 3
	case Rgba8, Bgra8, Bgrx8, Rgba16:
		return 4
	}
	return 0
}

func (p PixelLayout) HasAlpha() bool {
	return p == Rgba8 || p == Bgra8 || p == Rgba16
}

// MemoryCompatible reports whether buffers of the two layouts have the same
// byte arrangement, even if the last byte means something different.
func (p PixelLayout) MemoryCompatible(o PixelLayout) bool {
	if p == o {
		return true
	}
	return (p == Bgra8 && o == Bgrx8) || (p == Bgrx8 && o == Bgra8)
}

// A Format identifies a container format.
type Format int

const (
	FormatBMP Format = iota + 1
	FormatFarbfeld
	FormatPGM
	FormatPPM
	FormatPAM
	FormatPFM
)

var formatNames = map[Format]string{
	FormatBMP:      "bmp",
	FormatFarbfeld: "farbfeld",
	FormatPGM:      "pgm",
	FormatPPM:      "ppm",
	FormatPAM:      "pam",
	FormatPFM:      "pfm",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Extension returns the usual file name extension, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatFarbfeld:
		return ".ff"
	case FormatBMP, FormatPGM, FormatPPM, FormatPAM, FormatPFM:
		return "." + f.String()
	}
	return ""
}
