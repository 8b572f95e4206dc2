// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// Error kinds
//

package gobitmap

import "errors"
import "fmt"

// ErrUnrecognizedFormat is returned when the input does not start with the
// magic bytes of the format being decoded.
var ErrUnrecognizedFormat = errors.New("bitmap: unrecognized format")

// ErrCancelled is matched by every error caused by a Stop reporting
// cancellation.
var ErrCancelled = errors.New("bitmap: cancelled")

// A HeaderError reports a structurally malformed header.
type HeaderError string

func (e HeaderError) Error() string { return "bitmap: invalid header: " + string(e) }

// An UnsupportedError reports that the input uses a valid but unimplemented
// feature.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "bitmap: unsupported feature: " + string(e) }

// A DataError reports corrupt pixel data.
type DataError string

func (e DataError) Error() string { return "bitmap: invalid data: " + string(e) }

// A LimitError reports that a caller-supplied resource limit was exceeded.
type LimitError string

func (e LimitError) Error() string { return "bitmap: limit exceeded: " + string(e) }

// A DimensionsError reports image dimensions whose buffer size cannot be
// represented.
type DimensionsError struct {
	Width, Height uint32
}

func (e DimensionsError) Error() string {
	return fmt.Sprintf("bitmap: dimensions too large: %dx%d", e.Width, e.Height)
}

// A BufferSizeError reports a pixel buffer shorter than its dimensions
// require.
type BufferSizeError struct {
	Needed, Actual int
}

func (e BufferSizeError) Error() string {
	return fmt.Sprintf("bitmap: buffer too small: need %d bytes, have %d", e.Needed, e.Actual)
}

// A LayoutError reports a pixel layout that an encoder cannot write.
type LayoutError struct {
	Layout PixelLayout
	Format Format
}

func (e LayoutError) Error() string {
	return fmt.Sprintf("bitmap: cannot encode %v pixels as %v", e.Layout, e.Format)
}
