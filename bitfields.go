// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// BITFIELDS channel extraction
//

package gobitmap

import "math/bits"

// Multipliers and shifts that replicate an n-bit sample to 8 bits, for
// n = 0..8. For n=5: v*0x21>>2 == v<<3 | v>>2.
var (
	bfMulTable   = [9]uint32{0, 0xff, 0x55, 0x49, 0x11, 0x21, 0x41, 0x81, 0x01}
	bfShiftTable = [9]uint32{0, 0, 0, 1, 0, 2, 4, 6, 0}
)

type bitFieldsInfo struct {
	mask  uint32
	shift int // signed distance from the mask's top bit to bit 7
	count int // number of bits set in mask
}

func newBitFieldsInfo(mask uint32) bitFieldsInfo {
	return bitFieldsInfo{
		mask:  mask,
		shift: (32 - bits.LeadingZeros32(mask)) - 8,
		count: bits.OnesCount32(mask),
	}
}

// shiftSigned moves v so that its top bit lands on bit 7, then expands the
// top count bits to the full 0..255 range.
func shiftSigned(v uint32, shift int, count int) uint32 {
	if shift >= 0 {
		v >>= uint(shift)
	} else {
		v <<= uint(-shift)
	}
	if count < 0 {
		count = 0
	} else if count > 8 {
		count = 8
	}
	v &= 0xff
	v >>= uint(8 - count)
	return (v * bfMulTable[count]) >> bfShiftTable[count]
}

func (bf *bitFieldsInfo) extract(v uint32) byte {
	return byte(shiftSigned(v&bf.mask, bf.shift, bf.count))
}

// channelMasks holds the R, G, B and A masks of a BITFIELDS image.
type channelMasks [4]uint32

var (
	defaultMasks16 = channelMasks{0x7c00, 0x03e0, 0x001f, 0}
	defaultMasks32 = channelMasks{0x00ff0000, 0x0000ff00, 0x000000ff, 0}
)

func (m channelMasks) isZero() bool {
	return m == channelMasks{}
}

type bitFieldsSet [4]bitFieldsInfo

func recordBitFields(m channelMasks) bitFieldsSet {
	var bf bitFieldsSet
	for k := range bf {
		bf[k] = newBitFieldsInfo(m[k])
	}
	return bf
}

// convert writes one pixel. out has 3 or 4 bytes; alpha is 255 when the
// alpha mask is zero.
func (bf *bitFieldsSet) convert(v uint32, out []byte, native bool) {
	r := bf[0].extract(v)
	g := bf[1].extract(v)
	b := bf[2].extract(v)
	if native {
		out[0], out[1], out[2] = b, g, r
	} else {
		out[0], out[1], out[2] = r, g, b
	}
	if len(out) > 3 {
		if bf[3].mask == 0 {
			out[3] = 255
		} else {
			out[3] = bf[3].extract(v)
		}
	}
}
