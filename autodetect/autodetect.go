// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.

// Package autodetect picks a codec from a file's leading bytes or from a
// format name, and dispatches to the bmp, pnm and farbfeld codecs.
package autodetect

import "bytes"
import "path/filepath"
import "slices"
import "strings"

import "golang.org/x/exp/maps"

import "github.com/jsummers/gobitmap"
import "github.com/jsummers/gobitmap/farbfeld"
import "github.com/jsummers/gobitmap/pnm"

type magic struct {
	prefix string
	format gobitmap.Format
}

// Checked in order; the longest prefix comes first.
var magics = []magic{
	{"farbfeld", gobitmap.FormatFarbfeld},
	{"BM", gobitmap.FormatBMP},
	{"P5", gobitmap.FormatPGM},
	{"P6", gobitmap.FormatPPM},
	{"P7", gobitmap.FormatPAM},
	{"Pf", gobitmap.FormatPFM},
	{"PF", gobitmap.FormatPFM},
}

var byName = map[string]gobitmap.Format{
	"bmp":      gobitmap.FormatBMP,
	"farbfeld": gobitmap.FormatFarbfeld,
	"pgm":      gobitmap.FormatPGM,
	"ppm":      gobitmap.FormatPPM,
	"pam":      gobitmap.FormatPAM,
	"pfm":      gobitmap.FormatPFM,
}

var byExtension = map[string]gobitmap.Format{
	".bmp": gobitmap.FormatBMP,
	".dib": gobitmap.FormatBMP,
	".ff":  gobitmap.FormatFarbfeld,
	".pgm": gobitmap.FormatPGM,
	".ppm": gobitmap.FormatPPM,
	".pam": gobitmap.FormatPAM,
	".pfm": gobitmap.FormatPFM,
}

// Detect identifies the container format from the leading bytes of data.
func Detect(data []byte) (gobitmap.Format, bool) {
	for _, m := range magics {
		if bytes.HasPrefix(data, []byte(m.prefix)) {
			return m.format, true
		}
	}
	return 0, false
}

// Names returns the known format names in sorted order.
func Names() []string {
	names := maps.Keys(byName)
	slices.Sort(names)
	return names
}

// ByName looks up a format by the name Format.String returns. Case is
// ignored.
func ByName(name string) (gobitmap.Format, bool) {
	f, ok := byName[strings.ToLower(name)]
	return f, ok
}

// ByFilename picks a format from the extension of a file name.
func ByFilename(name string) (gobitmap.Format, bool) {
	f, ok := byExtension[strings.ToLower(filepath.Ext(name))]
	return f, ok
}

// Probe reads only the header of data, whatever its format.
func Probe(data []byte) (gobitmap.Header, error) {
	f, ok := Detect(data)
	if !ok {
		return gobitmap.Header{}, gobitmap.ErrUnrecognizedFormat
	}
	switch f {
	case gobitmap.FormatBMP:
		return gobitmap.ProbeBMP(data)
	case gobitmap.FormatFarbfeld:
		return farbfeld.Probe(data)
	}
	return pnm.Probe(data)
}

// Decode decodes data with the codec its magic bytes select. opts may be
// nil.
func Decode(data []byte, opts *gobitmap.DecoderOptions) (*gobitmap.Output, error) {
	f, ok := Detect(data)
	if !ok {
		return nil, gobitmap.ErrUnrecognizedFormat
	}
	switch f {
	case gobitmap.FormatBMP:
		return gobitmap.DecodeBMPWithOptions(data, opts)
	case gobitmap.FormatFarbfeld:
		return farbfeld.Decode(data, opts)
	}
	return pnm.Decode(data, opts)
}

// Encode writes pix in the given format. BMP output carries an alpha
// channel only when the layout has one. stop may be nil.
func Encode(pix []byte, width, height uint32, layout gobitmap.PixelLayout, format gobitmap.Format, stop gobitmap.Stop) ([]byte, error) {
	switch format {
	case gobitmap.FormatBMP:
		return gobitmap.EncodeBMP(pix, width, height, layout, layout.HasAlpha(), stop)
	case gobitmap.FormatFarbfeld:
		return farbfeld.Encode(pix, width, height, layout, stop)
	case gobitmap.FormatPGM, gobitmap.FormatPPM, gobitmap.FormatPAM, gobitmap.FormatPFM:
		return pnm.Encode(pix, width, height, layout, format, stop)
	}
	return nil, gobitmap.UnsupportedError("cannot write " + format.String())
}
