// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// Decoder options
//

package gobitmap

import "fmt"

// Permissiveness selects which deviations from the format a decoder
// tolerates. Every input accepted under Strict is accepted under Standard,
// and every input accepted under Standard is accepted under Permissive.
type Permissiveness int

const (
	// Standard rejects structural and data corruption but accepts
	// metadata that disagrees with the file, such as a wrong file size.
	Standard Permissiveness = iota

	// Strict rejects any deviation from the format.
	Strict

	// Permissive recovers wherever it can: truncated data is zero-filled,
	// RLE overruns are skipped, unknown compression decodes to black.
	Permissive
)

func (p Permissiveness) String() string {
	switch p {
	case Standard:
		return "standard"
	case Strict:
		return "strict"
	case Permissive:
		return "permissive"
	}
	return fmt.Sprintf("Permissiveness(%d)", int(p))
}

// ParsePermissiveness is the inverse of Permissiveness.String.
func ParsePermissiveness(s string) (Permissiveness, error) {
	switch s {
	case "", "standard":
		return Standard, nil
	case "strict":
		return Strict, nil
	case "permissive":
		return Permissive, nil
	}
	return Standard, fmt.Errorf("bitmap: unknown permissiveness %q", s)
}

// DecoderOptions stores options that can be passed to the decoders.
// Create a DecoderOptions object with new(). A nil *DecoderOptions means
// the defaults.
type DecoderOptions struct {
	permissiveness Permissiveness
	limits         *Limits
	nativeOrder    bool
	stop           Stop
}

// SetPermissiveness sets how strictly the input is validated. The default
// is Standard.
func (opts *DecoderOptions) SetPermissiveness(p Permissiveness) {
	opts.permissiveness = p
}

// SetLimits sets resource limits, checked before pixel memory is
// allocated.
func (opts *DecoderOptions) SetLimits(l Limits) {
	opts.limits = &l
}

// SetNativeOrder requests BGR(A) output from the BMP decoder instead of
// RGB(A).
func (opts *DecoderOptions) SetNativeOrder(native bool) {
	opts.nativeOrder = native
}

// SetStop sets a cancellation check polled during decoding.
func (opts *DecoderOptions) SetStop(s Stop) {
	opts.stop = s
}

func (opts *DecoderOptions) Permissiveness() Permissiveness {
	if opts == nil {
		return Standard
	}
	return opts.permissiveness
}

// Limits returns the configured limits, or nil.
func (opts *DecoderOptions) Limits() *Limits {
	if opts == nil {
		return nil
	}
	return opts.limits
}

func (opts *DecoderOptions) NativeOrder() bool {
	return opts != nil && opts.nativeOrder
}

// Stop returns the configured cancellation check, or Never.
func (opts *DecoderOptions) Stop() Stop {
	if opts == nil || opts.stop == nil {
		return Never
	}
	return opts.stop
}
