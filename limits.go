// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// Resource limits and cancellation
//

package gobitmap

import "context"
import "fmt"
import "math"

// Limits bounds the resources a decoder may commit to. A zero field means
// no limit. A nil *Limits imposes no limits at all.
type Limits struct {
	MaxWidth       uint64
	MaxHeight      uint64
	MaxPixels      uint64
	MaxMemoryBytes uint64
}

// Check validates declared dimensions. Decoders call it before allocating
// any pixel memory.
func (l *Limits) Check(width, height uint32) error {
	if l == nil {
		return nil
	}
	if l.MaxWidth != 0 && uint64(width) > l.MaxWidth {
		return LimitError(fmt.Sprintf("width %d exceeds %d", width, l.MaxWidth))
	}
	if l.MaxHeight != 0 && uint64(height) > l.MaxHeight {
		return LimitError(fmt.Sprintf("height %d exceeds %d", height, l.MaxHeight))
	}
	if l.MaxPixels != 0 {
		n := uint64(width) * uint64(height)
		if n > l.MaxPixels {
			return LimitError(fmt.Sprintf("%d pixels exceeds %d", n, l.MaxPixels))
		}
	}
	return nil
}

// CheckMemory validates the size of an output allocation.
func (l *Limits) CheckMemory(n uint64) error {
	if l == nil || l.MaxMemoryBytes == 0 {
		return nil
	}
	if n > l.MaxMemoryBytes {
		return LimitError(fmt.Sprintf("%d bytes exceeds memory limit %d", n, l.MaxMemoryBytes))
	}
	return nil
}

// BufferSize returns width*height*bpp, or a DimensionsError if the product
// overflows or does not fit in an int.
func BufferSize(width, height uint32, bpp int) (int, error) {
	wh := uint64(width) * uint64(height)
	if bpp < 0 || (bpp > 0 && wh > math.MaxInt/uint64(bpp)) {
		return 0, DimensionsError{Width: width, Height: height}
	}
	return int(wh * uint64(bpp)), nil
}

// A Stop is polled by long-running loops. A non-nil error from Check
// aborts the operation.
type Stop interface {
	Check() error
}

// StopFunc adapts a function to the Stop interface.
type StopFunc func() error

func (f StopFunc) Check() error { return f() }

type never struct{}

func (never) Check() error { return nil }

// Never is a Stop that never cancels.
var Never Stop = never{}

type contextStop struct {
	ctx context.Context
}

func (s contextStop) Check() error { return s.ctx.Err() }

// ContextStop returns a Stop that cancels once ctx is done.
func ContextStop(ctx context.Context) Stop {
	return contextStop{ctx: ctx}
}

// CheckStop polls s. The returned error matches both ErrCancelled and the
// error reported by s.
func CheckStop(s Stop) error {
	if s == nil {
		return nil
	}
	if err := s.Check(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}
