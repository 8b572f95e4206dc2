// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.

package gobitmap

// bmpFile describes a BMP file to be assembled by build.
type bmpFile struct {
	headerSize  int // 12, 16, 40, 52, 56, 64, 108 or 124; 0 means 40
	width       int32
	height      int32
	planes      uint16 // 0 means 1
	bitCount    uint16
	compression uint32
	imageSize   uint32
	xDens       int32
	yDens       int32
	colorsUsed  uint32
	masks       []uint32 // header masks, or the block after a 40-byte header
	palette     [][3]byte // blue, green, red
	gap         int // extra bytes between palette and pixels
	bits        []byte
	fileSize    int64 // -1 means 0 in the header; 0 means the real size
}

func (f bmpFile) build() []byte {
	hs := f.headerSize
	if hs == 0 {
		hs = 40
	}
	planes := f.planes
	if planes == 0 {
		planes = 1
	}

	h := make([]byte, hs)
	setDWORD(h[0:4], uint32(hs))
	if hs == 12 {
		setWORD(h[4:6], uint16(f.width))
		setWORD(h[6:8], uint16(f.height))
		setWORD(h[8:10], planes)
		setWORD(h[10:12], f.bitCount)
	} else {
		setDWORD(h[4:8], uint32(f.width))
		setDWORD(h[8:12], uint32(f.height))
		setWORD(h[12:14], planes)
		setWORD(h[14:16], f.bitCount)
	}
	if hs >= 40 {
		setDWORD(h[16:20], f.compression)
		setDWORD(h[20:24], f.imageSize)
		setDWORD(h[24:28], uint32(f.xDens))
		setDWORD(h[28:32], uint32(f.yDens))
		setDWORD(h[32:36], f.colorsUsed)
	}

	var maskBlock []byte
	if hs >= 52 {
		for k := 0; k < len(f.masks) && 40+4*k+4 <= hs; k++ {
			setDWORD(h[40+4*k:], f.masks[k])
		}
	} else {
		for _, m := range f.masks {
			var b [4]byte
			setDWORD(b[:], m)
			maskBlock = append(maskBlock, b[:]...)
		}
	}

	var pal []byte
	for _, e := range f.palette {
		pal = append(pal, e[0], e[1], e[2])
		if hs != 12 {
			pal = append(pal, 0)
		}
	}

	offset := 14 + hs + len(maskBlock) + len(pal) + f.gap
	size := offset + len(f.bits)
	out := make([]byte, 14, size)
	out[0], out[1] = 'B', 'M'
	switch {
	case f.fileSize < 0:
	case f.fileSize > 0:
		setDWORD(out[2:6], uint32(f.fileSize))
	default:
		setDWORD(out[2:6], uint32(size))
	}
	setDWORD(out[10:14], uint32(offset))
	out = append(out, h...)
	out = append(out, maskBlock...)
	out = append(out, pal...)
	out = append(out, make([]byte, f.gap)...)
	out = append(out, f.bits...)
	return out
}

// padRows concatenates rows, padding each to a multiple of 4 bytes.
func padRows(rows ...[]byte) []byte {
	var out []byte
	for _, r := range rows {
		out = append(out, r...)
		for n := len(r); n%4 != 0; n++ {
			out = append(out, 0)
		}
	}
	return out
}

func grayPalette(n int) [][3]byte {
	pal := make([][3]byte, n)
	for i := range pal {
		v := byte(i * 255 / max(n-1, 1))
		pal[i] = [3]byte{v, v, v}
	}
	return pal
}
