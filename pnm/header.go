// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// PNM header parser
//

package pnm

import "fmt"
import "io"
import "math"
import "strconv"

import "github.com/jsummers/gobitmap"

type pnmHeader struct {
	format gobitmap.Format
	width  uint32
	height uint32
	maxval uint32
	depth  int // samples per pixel in the file
	layout gobitmap.PixelLayout

	// PFM only
	littleEndian bool

	dataOffset int
}

// headerScanner tokenizes the text part of a PNM file.
type headerScanner struct {
	data []byte
	off  int
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

// skipSpace skips whitespace and # comments, which run to the end of the
// line.
func (s *headerScanner) skipSpace() {
	for s.off < len(s.data) {
		b := s.data[s.off]
		switch {
		case isSpace(b):
			s.off++
		case b == '#':
			for s.off < len(s.data) && s.data[s.off] != '\n' && s.data[s.off] != '\r' {
				s.off++
			}
		default:
			return
		}
	}
}

func (s *headerScanner) token() (string, error) {
	s.skipSpace()
	start := s.off
	for s.off < len(s.data) && !isSpace(s.data[s.off]) && s.data[s.off] != '#' {
		s.off++
	}
	if s.off == start || s.off >= len(s.data) {
		// A token that runs into the end of the file is incomplete.
		return "", io.ErrUnexpectedEOF
	}
	return string(s.data[start:s.off]), nil
}

func (s *headerScanner) number(name string, limit uint64) (uint32, error) {
	tok, err := s.token()
	if err != nil {
		return 0, err
	}
	return parseNumber(name, tok, limit)
}

func parseNumber(name, tok string, limit uint64) (uint32, error) {
	v, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, gobitmap.HeaderError(fmt.Sprintf("bad %s %q", name, tok))
	}
	if v > limit {
		return 0, gobitmap.HeaderError(fmt.Sprintf("%s %d out of range", name, v))
	}
	return uint32(v), nil
}

// endOfHeader consumes the single whitespace byte that separates the
// header from the raster.
func (s *headerScanner) endOfHeader() error {
	if s.off >= len(s.data) {
		return io.ErrUnexpectedEOF
	}
	if !isSpace(s.data[s.off]) {
		return gobitmap.HeaderError("no whitespace after header")
	}
	s.off++
	return nil
}

func parseHeader(data []byte) (*pnmHeader, error) {
	if len(data) < 2 {
		return nil, io.ErrUnexpectedEOF
	}
	if data[0] != 'P' {
		return nil, gobitmap.ErrUnrecognizedFormat
	}
	s := &headerScanner{data: data, off: 2}

	var h *pnmHeader
	var err error
	switch data[1] {
	case '5':
		h, err = s.readNetpbm(gobitmap.FormatPGM, 1)
	case '6':
		h, err = s.readNetpbm(gobitmap.FormatPPM, 3)
	case '7':
		h, err = s.readPAM()
	case 'f':
		h, err = s.readPFM(1)
	case 'F':
		h, err = s.readPFM(3)
	default:
		return nil, gobitmap.ErrUnrecognizedFormat
	}
	if err != nil {
		return nil, err
	}
	if h.width == 0 || h.height == 0 {
		return nil, gobitmap.HeaderError(fmt.Sprintf("bad dimensions %dx%d", h.width, h.height))
	}
	h.dataOffset = s.off
	return h, nil
}

// Read the header of a P5 or P6 file.
func (s *headerScanner) readNetpbm(format gobitmap.Format, depth int) (*pnmHeader, error) {
	var err error
	h := &pnmHeader{format: format, depth: depth}

	if h.width, err = s.number("width", math.MaxUint32); err != nil {
		return nil, err
	}
	if h.height, err = s.number("height", math.MaxUint32); err != nil {
		return nil, err
	}
	if h.maxval, err = s.number("maxval", 65535); err != nil {
		return nil, err
	}
	if h.maxval == 0 {
		return nil, gobitmap.HeaderError("maxval is 0")
	}
	if err = s.endOfHeader(); err != nil {
		return nil, err
	}

	switch {
	case depth == 3:
		h.layout = gobitmap.Rgb8
	case h.maxval > 255:
		h.layout = gobitmap.Gray16
	default:
		h.layout = gobitmap.Gray8
	}
	return h, nil
}

// Read a PAM header: one KEYWORD value pair per line, ending with ENDHDR.
func (s *headerScanner) readPAM() (*pnmHeader, error) {
	h := &pnmHeader{format: gobitmap.FormatPAM}
	var depth uint32
	var seen [4]bool
	tupleType := ""

	for {
		key, err := s.token()
		if err != nil {
			return nil, err
		}
		if key == "ENDHDR" {
			break
		}
		if key == "TUPLTYPE" {
			tok, err := s.token()
			if err != nil {
				return nil, err
			}
			tupleType = tok
			continue
		}

		var dst *uint32
		var limit uint64 = math.MaxUint32
		switch key {
		case "WIDTH":
			dst, seen[0] = &h.width, true
		case "HEIGHT":
			dst, seen[1] = &h.height, true
		case "DEPTH":
			dst, seen[2], limit = &depth, true, 4
		case "MAXVAL":
			dst, seen[3], limit = &h.maxval, true, 65535
		default:
			return nil, gobitmap.HeaderError(fmt.Sprintf("unknown PAM header field %q", key))
		}
		if *dst, err = s.number(key, limit); err != nil {
			return nil, err
		}
	}
	// ENDHDR is followed by a newline.
	if err := s.endOfHeader(); err != nil {
		return nil, err
	}

	for i, name := range []string{"WIDTH", "HEIGHT", "DEPTH", "MAXVAL"} {
		if !seen[i] {
			return nil, gobitmap.HeaderError("PAM header has no " + name)
		}
	}
	if depth == 0 {
		return nil, gobitmap.HeaderError("PAM depth is 0")
	}
	if h.maxval == 0 {
		return nil, gobitmap.HeaderError("maxval is 0")
	}
	if tupleType == "GRAYSCALE_ALPHA" && depth != 2 {
		return nil, gobitmap.HeaderError(fmt.Sprintf("tuple type %s with depth %d", tupleType, depth))
	}

	h.depth = int(depth)
	switch depth {
	case 1:
		h.layout = gobitmap.Gray8
		if h.maxval > 255 {
			h.layout = gobitmap.Gray16
		}
	case 3:
		h.layout = gobitmap.Rgb8
	default:
		h.layout = gobitmap.Rgba8
	}
	return h, nil
}

// Read a PFM header. The sign of the scale gives the byte order.
func (s *headerScanner) readPFM(depth int) (*pnmHeader, error) {
	var err error
	h := &pnmHeader{format: gobitmap.FormatPFM, depth: depth, layout: gobitmap.RgbF32}
	if depth == 1 {
		h.layout = gobitmap.GrayF32
	}

	if h.width, err = s.number("width", math.MaxUint32); err != nil {
		return nil, err
	}
	if h.height, err = s.number("height", math.MaxUint32); err != nil {
		return nil, err
	}
	tok, err := s.token()
	if err != nil {
		return nil, err
	}
	scale, err := strconv.ParseFloat(tok, 32)
	if err != nil || scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, gobitmap.HeaderError(fmt.Sprintf("bad PFM scale %q", tok))
	}
	h.littleEndian = scale < 0
	if err = s.endOfHeader(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *pnmHeader) info() gobitmap.Header {
	return gobitmap.Header{
		Width:  h.width,
		Height: h.height,
		Format: h.format,
		Layout: h.layout,
	}
}
