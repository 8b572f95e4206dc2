// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.

package gobitmap

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// grayIndices maps a gray-palette decode back to palette indices, assuming
// a 16-entry palette from grayPalette.
func grayIndices(pix []byte) []byte {
	out := make([]byte, len(pix)/3)
	for i := range out {
		out[i] = pix[i*3] / 17
	}
	return out
}

func TestRLE8MatchesUncompressed(t *testing.T) {
	pal := grayPalette(16)
	rle := bmpFile{width: 3, height: 2, bitCount: 8, compression: bI_RLE8, palette: pal, colorsUsed: 16,
		bits: []byte{
			0, 3, 0, 1, 2, 0, // absolute run, padded
			0, 0, // end of line
			0, 3, 2, 1, 0, 0,
			0, 0, // end of line after the last row
			0, 1, // end of bitmap
		}}
	raw := bmpFile{width: 3, height: 2, bitCount: 8, palette: pal, colorsUsed: 16,
		bits: padRows([]byte{0, 1, 2}, []byte{2, 1, 0})}

	want := mustDecode(t, raw.build(), nil)
	for _, p := range allLevels {
		got := mustDecode(t, rle.build(), withLevel(p))
		if d := cmp.Diff(want.Pix, got.Pix); d != "" {
			t.Errorf("%v: pixels (-want +got):\n%s", p, d)
		}
	}
}

func TestRLE(t *testing.T) {
	pal := grayPalette(16)
	tests := []struct {
		name   string
		f      bmpFile
		want   []byte // palette indices, top row first
		reject []Permissiveness
	}{
		{"rle4-run", bmpFile{width: 5, height: 1, bitCount: 4, compression: bI_RLE4, palette: pal,
			bits: []byte{5, 0x12, 0, 0, 0, 1}},
			[]byte{1, 2, 1, 2, 1}, nil},
		{"rle4-absolute", bmpFile{width: 5, height: 1, bitCount: 4, compression: bI_RLE4, palette: pal,
			bits: []byte{0, 5, 0x12, 0x34, 0x50, 0, 0, 1}},
			[]byte{1, 2, 3, 4, 5}, nil},
		{"rle4-odd-slack", bmpFile{width: 3, height: 1, bitCount: 4, compression: bI_RLE4, palette: pal,
			bits: []byte{4, 0x77, 0, 1}},
			[]byte{7, 7, 7}, nil},
		{"rle8-run", bmpFile{width: 4, height: 2, bitCount: 8, compression: bI_RLE8, palette: pal,
			bits: []byte{4, 3, 0, 0, 2, 9, 2, 8, 0, 1}},
			[]byte{9, 9, 8, 8, 3, 3, 3, 3}, nil},
		{"rle8-delta", bmpFile{width: 3, height: 2, bitCount: 8, compression: bI_RLE8, palette: pal,
			bits: []byte{0, 2, 1, 1, 1, 7, 0, 1}},
			[]byte{0, 7, 0, 0, 0, 0}, nil},
		{"rle8-early-eob", bmpFile{width: 2, height: 2, bitCount: 8, compression: bI_RLE8, palette: pal,
			bits: []byte{2, 5, 0, 1}},
			[]byte{0, 0, 5, 5}, nil},
		{"rle8-no-eob", bmpFile{width: 2, height: 1, bitCount: 8, compression: bI_RLE8, palette: pal,
			bits: []byte{2, 5}},
			[]byte{5, 5}, []Permissiveness{Strict}},
		{"rle8-overrun", bmpFile{width: 2, height: 1, bitCount: 8, compression: bI_RLE8, palette: pal,
			bits: []byte{3, 9, 0, 1}},
			[]byte{0, 0}, []Permissiveness{Strict, Standard}},
		{"rle8-absolute-overrun", bmpFile{width: 2, height: 1, bitCount: 8, compression: bI_RLE8, palette: pal,
			bits: []byte{0, 3, 9, 9, 9, 0, 1, 4, 0, 1}},
			[]byte{4, 0}, []Permissiveness{Strict, Standard}},
		{"rle4-overrun", bmpFile{width: 2, height: 1, bitCount: 4, compression: bI_RLE4, palette: pal,
			bits: []byte{4, 0x99, 0, 1}},
			[]byte{0, 0}, []Permissiveness{Strict, Standard}},
		{"eol-past-end", bmpFile{width: 1, height: 1, bitCount: 8, compression: bI_RLE8, palette: pal,
			bits: []byte{1, 6, 0, 0, 0, 0}},
			[]byte{6}, []Permissiveness{Strict, Standard}},
		{"delta-past-end", bmpFile{width: 1, height: 1, bitCount: 8, compression: bI_RLE8, palette: pal,
			bits: []byte{1, 6, 0, 2, 0, 5}},
			[]byte{6}, []Permissiveness{Strict, Standard}},
		{"truncated-literal", bmpFile{width: 4, height: 1, bitCount: 8, compression: bI_RLE8, palette: pal,
			bits: []byte{1, 6, 0, 3, 1}},
			[]byte{6, 1, 0, 0}, []Permissiveness{Strict, Standard}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, p := range allLevels {
				out, err := DecodeBMPWithOptions(tc.f.build(), withLevel(p))
				rejected := false
				for _, r := range tc.reject {
					rejected = rejected || r == p
				}
				if rejected {
					if err == nil {
						t.Errorf("%v: expected an error", p)
					}
					continue
				}
				if err != nil {
					t.Errorf("%v: %v", p, err)
					continue
				}
				if d := cmp.Diff(tc.want, grayIndices(out.Pix)); d != "" {
					t.Errorf("%v: indices (-want +got):\n%s", p, d)
				}
			}
		})
	}
}

func TestRLEErrorKinds(t *testing.T) {
	pal := grayPalette(16)
	overrun := bmpFile{width: 2, height: 1, bitCount: 8, compression: bI_RLE8, palette: pal,
		bits: []byte{3, 9, 0, 1}}
	if _, err := DecodeBMP(overrun.build()); !errors.As(err, new(DataError)) {
		t.Errorf("overrun: got %v, want DataError", err)
	}

	rle24 := bmpFile{width: 1, height: 1, bitCount: 24, compression: bI_RLE8, bits: []byte{1, 1, 2, 3, 0, 1}}
	if _, err := DecodeBMP(rle24.build()); !errors.As(err, new(UnsupportedError)) {
		t.Errorf("RLE24: got %v, want UnsupportedError", err)
	}
}

func TestRLEWideSamples(t *testing.T) {
	rle16 := bmpFile{width: 2, height: 1, bitCount: 16, compression: bI_RLE8,
		bits: []byte{1, 0x00, 0x7c, 1, 0x1f, 0x00, 0, 1}}
	out := mustDecode(t, rle16.build(), nil)
	if out.Layout != Rgb8 {
		t.Errorf("16-bit layout = %v", out.Layout)
	}
	if d := cmp.Diff([]byte{255, 0, 0, 0, 0, 255}, out.Pix); d != "" {
		t.Errorf("16-bit pixels (-want +got):\n%s", d)
	}

	rle32 := bmpFile{width: 2, height: 1, bitCount: 32, compression: bI_RLE8,
		bits: []byte{2, 10, 20, 30, 40, 0, 1}}
	out = mustDecode(t, rle32.build(), nil)
	if d := cmp.Diff([]byte{30, 20, 10, 40, 30, 20, 10, 40}, out.Pix); d != "" {
		t.Errorf("32-bit pixels (-want +got):\n%s", d)
	}

	opts := new(DecoderOptions)
	opts.SetNativeOrder(true)
	out = mustDecode(t, rle32.build(), opts)
	if out.Layout != Bgra8 {
		t.Errorf("native layout = %v", out.Layout)
	}
	if d := cmp.Diff([]byte{10, 20, 30, 40, 10, 20, 30, 40}, out.Pix); d != "" {
		t.Errorf("native 32-bit pixels (-want +got):\n%s", d)
	}
}

func TestRLETopDownPermissive(t *testing.T) {
	pal := grayPalette(16)
	f := bmpFile{width: 2, height: -2, bitCount: 8, compression: bI_RLE8, palette: pal,
		bits: []byte{2, 1, 0, 0, 2, 2, 0, 1}}
	out := mustDecode(t, f.build(), withLevel(Permissive))
	if d := cmp.Diff([]byte{1, 1, 2, 2}, grayIndices(out.Pix)); d != "" {
		t.Errorf("indices (-want +got):\n%s", d)
	}
}

func TestRLECancel(t *testing.T) {
	pal := grayPalette(16)
	// Many run codes that each overrun the single-pixel row.
	bits := bytes.Repeat([]byte{2, 5}, 3*rleStopInterval)
	f := bmpFile{width: 1, height: 1, bitCount: 8, compression: bI_RLE8, palette: pal, bits: bits}

	calls := 0
	errStop := errors.New("enough")
	opts := withLevel(Permissive)
	opts.SetStop(StopFunc(func() error {
		calls++
		if calls > 2 {
			return errStop
		}
		return nil
	}))
	_, err := DecodeBMPWithOptions(f.build(), opts)
	if !errors.Is(err, ErrCancelled) || !errors.Is(err, errStop) {
		t.Errorf("got %v, want cancellation", err)
	}

	// Without a stop the same stream terminates normally.
	if _, err = DecodeBMPWithOptions(f.build(), withLevel(Permissive)); err != nil {
		t.Errorf("permissive: %v", err)
	}
}
