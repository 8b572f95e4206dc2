// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.

package pnm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jsummers/gobitmap"
)

func TestHeader(t *testing.T) {
	tests := []struct {
		name string
		data string
		want gobitmap.Header
	}{
		{"pgm", "P5 3 2 255\n", gobitmap.Header{Width: 3, Height: 2, Format: gobitmap.FormatPGM, Layout: gobitmap.Gray8}},
		{"pgm16", "P5\n3 2\n1023\n", gobitmap.Header{Width: 3, Height: 2, Format: gobitmap.FormatPGM, Layout: gobitmap.Gray16}},
		{"comments", "P6\n# made by hand\n4 # width\n5\n255\n",
			gobitmap.Header{Width: 4, Height: 5, Format: gobitmap.FormatPPM, Layout: gobitmap.Rgb8}},
		{"pam", "P7\nWIDTH 2\nHEIGHT 1\nDEPTH 4\nMAXVAL 255\nTUPLTYPE RGB_ALPHA\nENDHDR\n",
			gobitmap.Header{Width: 2, Height: 1, Format: gobitmap.FormatPAM, Layout: gobitmap.Rgba8}},
		{"pam-gray-alpha", "P7\nWIDTH 2\nHEIGHT 1\nDEPTH 2\nMAXVAL 255\nTUPLTYPE GRAYSCALE_ALPHA\nENDHDR\n",
			gobitmap.Header{Width: 2, Height: 1, Format: gobitmap.FormatPAM, Layout: gobitmap.Rgba8}},
		{"pam-gray16", "P7\n# comment\nMAXVAL 65535\nDEPTH 1\nHEIGHT 7\nWIDTH 6\nENDHDR\n",
			gobitmap.Header{Width: 6, Height: 7, Format: gobitmap.FormatPAM, Layout: gobitmap.Gray16}},
		{"pfm-gray", "Pf\n2 2\n-1.0\n", gobitmap.Header{Width: 2, Height: 2, Format: gobitmap.FormatPFM, Layout: gobitmap.GrayF32}},
		{"pfm-rgb", "PF\n1 1\n1.0\n", gobitmap.Header{Width: 1, Height: 1, Format: gobitmap.FormatPFM, Layout: gobitmap.RgbF32}},
	}
	for _, tc := range tests {
		got, err := Probe([]byte(tc.data))
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if d := cmp.Diff(tc.want, got); d != "" {
			t.Errorf("%s: header (-want +got):\n%s", tc.name, d)
		}
	}
}

func TestHeaderErrors(t *testing.T) {
	isHeaderError := func(err error) bool { return errors.As(err, new(gobitmap.HeaderError)) }
	isEOF := func(err error) bool { return errors.Is(err, io.ErrUnexpectedEOF) }
	isUnrecognized := func(err error) bool { return errors.Is(err, gobitmap.ErrUnrecognizedFormat) }

	tests := []struct {
		name  string
		data  string
		check func(error) bool
	}{
		{"empty", "", isEOF},
		{"magic", "P3 1 1 255\n", isUnrecognized},
		{"not-pnm", "BM", isUnrecognized},
		{"zero-width", "P5 0 1 255\n", isHeaderError},
		{"zero-height", "P6 1 0 255\n", isHeaderError},
		{"zero-maxval", "P5 1 1 0\n", isHeaderError},
		{"big-maxval", "P5 1 1 65536\n", isHeaderError},
		{"not-a-number", "P5 x 1 255\n", isHeaderError},
		{"truncated", "P5 1 1", isEOF},
		{"no-separator", "P5 1 1 255", isEOF},
		{"pam-unknown", "P7\nCOLOR 1\nENDHDR\n", isHeaderError},
		{"pam-missing", "P7\nWIDTH 1\nHEIGHT 1\nMAXVAL 255\nENDHDR\n", isHeaderError},
		{"pam-depth", "P7\nWIDTH 1\nHEIGHT 1\nDEPTH 5\nMAXVAL 255\nENDHDR\n", isHeaderError},
		{"pam-tupltype", "P7\nWIDTH 1\nHEIGHT 1\nDEPTH 3\nMAXVAL 255\nTUPLTYPE GRAYSCALE_ALPHA\nENDHDR\n", isHeaderError},
		{"pfm-scale", "Pf\n1 1\n0.0\n", isHeaderError},
		{"pfm-nan", "Pf\n1 1\nnan\n", isHeaderError},
	}
	for _, tc := range tests {
		_, err := Probe([]byte(tc.data))
		if !tc.check(err) {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestDecodeBorrowed(t *testing.T) {
	data := []byte("P6\n2 1\n255\n\x01\x02\x03\x04\x05\x06trailing")
	out, err := Decode(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Borrowed {
		t.Error("maxval 255 PPM should be borrowed")
	}
	if d := cmp.Diff([]byte{1, 2, 3, 4, 5, 6}, out.Pix); d != "" {
		t.Errorf("pixels (-want +got):\n%s", d)
	}
	if &out.Pix[0] != &data[11] {
		t.Error("Pix does not alias the input")
	}

	owned := out.Owned()
	if owned.Borrowed || &owned.Pix[0] == &data[11] {
		t.Error("Owned did not copy")
	}
}

func TestDecodeScaled(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		layout gobitmap.PixelLayout
		want   []byte
	}{
		{"maxval-15", "P5 3 1 15\n\x00\x07\x0f", gobitmap.Gray8, []byte{0, 119, 255}},
		{"maxval-1", "P5 2 1 1\n\x00\x01", gobitmap.Gray8, []byte{0, 255}},
		{"over-maxval", "P5 1 1 100\n\xc8", gobitmap.Gray8, []byte{255}},
		{"ppm16", "P6 1 1 65535\n\xff\xff\x80\x00\x00\x00", gobitmap.Rgb8, []byte{255, 128, 0}},
		{"gray-alpha", "P7\nWIDTH 2\nHEIGHT 1\nDEPTH 2\nMAXVAL 255\nTUPLTYPE GRAYSCALE_ALPHA\nENDHDR\n\x10\x20\x30\x40",
			gobitmap.Rgba8, []byte{0x10, 0x10, 0x10, 0x20, 0x30, 0x30, 0x30, 0x40}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Decode([]byte(tc.data), nil)
			if err != nil {
				t.Fatal(err)
			}
			if out.Borrowed {
				t.Error("rescaled output should be owned")
			}
			if out.Layout != tc.layout {
				t.Errorf("layout = %v, want %v", out.Layout, tc.layout)
			}
			if d := cmp.Diff(tc.want, out.Pix); d != "" {
				t.Errorf("pixels (-want +got):\n%s", d)
			}
		})
	}
}

func TestDecodeGray16(t *testing.T) {
	out, err := Decode([]byte("P5 2 1 65535\n\x12\x34\xff\xff"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Layout != gobitmap.Gray16 {
		t.Fatalf("layout = %v", out.Layout)
	}
	got := []uint16{binary.NativeEndian.Uint16(out.Pix), binary.NativeEndian.Uint16(out.Pix[2:])}
	if d := cmp.Diff([]uint16{0x1234, 0xffff}, got); d != "" {
		t.Errorf("samples (-want +got):\n%s", d)
	}

	out, err = Decode([]byte("P5 1 1 1023\n\x03\xff"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if v := binary.NativeEndian.Uint16(out.Pix); v != 65535 {
		t.Errorf("maxval 1023 sample = %d, want 65535", v)
	}
}

func pfmFile(magic string, w, h int, scale string, order binary.AppendByteOrder, values ...float32) []byte {
	data := fmt.Appendf(nil, "%s\n%d %d\n%s\n", magic, w, h, scale)
	for _, v := range values {
		data = order.AppendUint32(data, math.Float32bits(v))
	}
	return data
}

func TestDecodePFM(t *testing.T) {
	// The file lists the bottom row first.
	for _, tc := range []struct {
		scale string
		order binary.AppendByteOrder
	}{{"-1.0", binary.LittleEndian}, {"1.0", binary.BigEndian}} {
		data := pfmFile("Pf", 2, 2, tc.scale, tc.order, 0.5, 0.25, 1, 0)
		out, err := Decode(data, nil)
		if err != nil {
			t.Fatal(err)
		}
		if out.Layout != gobitmap.GrayF32 {
			t.Errorf("layout = %v", out.Layout)
		}
		got := []float32{FloatAt(out.Pix, 0), FloatAt(out.Pix, 1), FloatAt(out.Pix, 2), FloatAt(out.Pix, 3)}
		if d := cmp.Diff([]float32{1, 0, 0.5, 0.25}, got); d != "" {
			t.Errorf("scale %s: samples (-want +got):\n%s", tc.scale, d)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte("P5 2 2 255\n\x01\x02\x03"), nil)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("short raster: got %v", err)
	}

	opts := new(gobitmap.DecoderOptions)
	opts.SetLimits(gobitmap.Limits{MaxWidth: 1})
	_, err = Decode([]byte("P5 2 1 255\n\x01\x02"), opts)
	if !errors.As(err, new(gobitmap.LimitError)) {
		t.Errorf("width limit: got %v", err)
	}

	// Borrowed output allocates nothing, so only rescaling hits the
	// memory limit.
	opts.SetLimits(gobitmap.Limits{MaxMemoryBytes: 1})
	if _, err = Decode([]byte("P5 2 1 255\n\x01\x02"), opts); err != nil {
		t.Errorf("borrowed: %v", err)
	}
	_, err = Decode([]byte("P5 2 1 15\n\x01\x02"), opts)
	if !errors.As(err, new(gobitmap.LimitError)) {
		t.Errorf("memory limit: got %v", err)
	}

	_, err = Decode([]byte("P5 4294967295 4294967295 255\n"), nil)
	if err == nil {
		t.Error("huge image accepted")
	}

	stopped := new(gobitmap.DecoderOptions)
	stopped.SetStop(gobitmap.StopFunc(func() error { return errors.New("stop") }))
	_, err = Decode([]byte("P5 1 1 255\n\x01"), stopped)
	if !errors.Is(err, gobitmap.ErrCancelled) {
		t.Errorf("stop: got %v", err)
	}
}

func TestEncode(t *testing.T) {
	rgb := []byte{255, 0, 0, 0, 255, 0}
	tests := []struct {
		name   string
		pix    []byte
		layout gobitmap.PixelLayout
		format gobitmap.Format
		want   string
	}{
		{"pgm-gray", []byte{1, 2}, gobitmap.Gray8, gobitmap.FormatPGM, "P5\n2 1\n255\n\x01\x02"},
		{"pgm-rgb", rgb, gobitmap.Rgb8, gobitmap.FormatPGM, "P5\n2 1\n255\n\x4c\x96"},
		{"pgm-bgra", []byte{0, 0, 255, 9, 0, 255, 0, 9}, gobitmap.Bgra8, gobitmap.FormatPGM, "P5\n2 1\n255\n\x4c\x96"},
		{"ppm-rgb", rgb, gobitmap.Rgb8, gobitmap.FormatPPM, "P6\n2 1\n255\n\xff\x00\x00\x00\xff\x00"},
		{"ppm-bgr", []byte{0, 0, 255, 0, 255, 0}, gobitmap.Bgr8, gobitmap.FormatPPM, "P6\n2 1\n255\n\xff\x00\x00\x00\xff\x00"},
		{"ppm-gray", []byte{7, 8}, gobitmap.Gray8, gobitmap.FormatPPM, "P6\n2 1\n255\n\x07\x07\x07\x08\x08\x08"},
		{"ppm-rgba", []byte{1, 2, 3, 4, 5, 6, 7, 8}, gobitmap.Rgba8, gobitmap.FormatPPM, "P6\n2 1\n255\n\x01\x02\x03\x05\x06\x07"},
		{"pam-bgrx", []byte{1, 2, 3, 4, 5, 6, 7, 8}, gobitmap.Bgrx8, gobitmap.FormatPAM,
			"P7\nWIDTH 2\nHEIGHT 1\nDEPTH 4\nMAXVAL 255\nTUPLTYPE RGB_ALPHA\nENDHDR\n\x03\x02\x01\xff\x07\x06\x05\xff"},
		{"pam-bgr", []byte{1, 2, 3, 4, 5, 6}, gobitmap.Bgr8, gobitmap.FormatPAM,
			"P7\nWIDTH 2\nHEIGHT 1\nDEPTH 3\nMAXVAL 255\nTUPLTYPE RGB\nENDHDR\n\x03\x02\x01\x06\x05\x04"},
	}
	for _, tc := range tests {
		got, err := Encode(tc.pix, 2, 1, tc.layout, tc.format, nil)
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if d := cmp.Diff(tc.want, string(got)); d != "" {
			t.Errorf("%s: output (-want +got):\n%s", tc.name, d)
		}
	}
}

func TestEncodeGray16(t *testing.T) {
	pix := binary.NativeEndian.AppendUint16(nil, 0x1234)
	data, err := Encode(pix, 1, 1, gobitmap.Gray16, gobitmap.FormatPAM, nil)
	if err != nil {
		t.Fatal(err)
	}
	n := len(data)
	if data[n-2] != 0x12 || data[n-1] != 0x34 {
		t.Errorf("samples not big-endian: % x", data[n-2:])
	}
	out, err := Decode(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(pix, out.Pix); d != "" {
		t.Errorf("round trip (-want +got):\n%s", d)
	}
}

func TestRoundTrip(t *testing.T) {
	rgba := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}
	tests := []struct {
		layout gobitmap.PixelLayout
		format gobitmap.Format
		pix    []byte
	}{
		{gobitmap.Gray8, gobitmap.FormatPGM, rgba[:6]},
		{gobitmap.Rgb8, gobitmap.FormatPPM, rgba[:18]},
		{gobitmap.Gray8, gobitmap.FormatPAM, rgba[:6]},
		{gobitmap.Rgb8, gobitmap.FormatPAM, rgba[:18]},
		{gobitmap.Rgba8, gobitmap.FormatPAM, rgba},
	}
	for _, tc := range tests {
		data, err := Encode(tc.pix, 3, 2, tc.layout, tc.format, nil)
		if err != nil {
			t.Fatal(err)
		}
		out, err := Decode(data, nil)
		if err != nil {
			t.Fatal(err)
		}
		if out.Layout != tc.layout || out.Format != tc.format {
			t.Errorf("%v %v: got %v %v", tc.layout, tc.format, out.Layout, out.Format)
		}
		if d := cmp.Diff(tc.pix, out.Pix); d != "" {
			t.Errorf("%v %v: pixels (-want +got):\n%s", tc.layout, tc.format, d)
		}
	}

	// Float samples survive bit for bit; the rows are reversed on disk.
	var fpix []byte
	for _, v := range []float32{0.1, -2, 3.5, float32(math.Inf(1)), 0, 1e-9} {
		fpix = binary.NativeEndian.AppendUint32(fpix, math.Float32bits(v))
	}
	for _, layout := range []gobitmap.PixelLayout{gobitmap.GrayF32, gobitmap.RgbF32} {
		w := uint32(3)
		if layout == gobitmap.RgbF32 {
			w = 1
		}
		data, err := Encode(fpix, w, 2, layout, gobitmap.FormatPFM, nil)
		if err != nil {
			t.Fatal(err)
		}
		out, err := Decode(data, nil)
		if err != nil {
			t.Fatal(err)
		}
		if d := cmp.Diff(fpix, out.Pix); d != "" {
			t.Errorf("%v: pixels (-want +got):\n%s", layout, d)
		}
	}
}

func TestEncodeErrors(t *testing.T) {
	_, err := Encode([]byte{1}, 2, 1, gobitmap.Gray8, gobitmap.FormatPGM, nil)
	if !errors.As(err, new(gobitmap.BufferSizeError)) {
		t.Errorf("short buffer: got %v", err)
	}
	_, err = Encode(make([]byte, 8), 1, 1, gobitmap.Rgba16, gobitmap.FormatPPM, nil)
	if !errors.As(err, new(gobitmap.LayoutError)) {
		t.Errorf("Rgba16 as PPM: got %v", err)
	}
	_, err = Encode(make([]byte, 3), 1, 1, gobitmap.Rgb8, gobitmap.FormatPFM, nil)
	if !errors.As(err, new(gobitmap.LayoutError)) {
		t.Errorf("Rgb8 as PFM: got %v", err)
	}
	_, err = Encode(make([]byte, 3), 1, 1, gobitmap.Rgb8, gobitmap.FormatBMP, nil)
	if !errors.As(err, new(gobitmap.UnsupportedError)) {
		t.Errorf("BMP: got %v", err)
	}
}
