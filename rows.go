// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// Row order and channel order fixups
//

package gobitmap

// flipRows reverses the order of the rows of pix in place.
func flipRows(pix []byte, stride int) {
	if stride <= 0 {
		return
	}
	n := len(pix) / stride
	tmp := make([]byte, stride)
	for top, bot := 0, n-1; top < bot; top, bot = top+1, bot-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bot*stride : (bot+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

// swizzle exchanges the first and third byte of every bpp-byte pixel,
// converting between RGB(A) and BGR(A).
func swizzle(pix []byte, bpp int) {
	if bpp < 3 {
		return
	}
	for i := 0; i+bpp <= len(pix); i += bpp {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
