// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// BMP RLE decoder
//

package gobitmap

import "fmt"

// How many RLE codes are processed between cancellation checks.
const rleStopInterval = 1024

type rleState struct {
	xpos, ypos  int // Position in the target image, in samples; ypos counts down
	sampleBytes int
	rowBytes    int
	tokens      int
	buf         []byte // Decoded samples, top row first
}

// rleNext counts one RLE code, polling the stop every rleStopInterval codes.
func (d *decoder) rleNext(rle *rleState) error {
	rle.tokens++
	if rle.tokens%rleStopInterval == 0 {
		return CheckStop(d.stop)
	}
	return nil
}

func (d *decoder) rleByte() (byte, error) {
	if d.perm == Permissive {
		return d.c.u8(), nil
	}
	return d.c.readU8()
}

func (d *decoder) rleRead(dst []byte) error {
	if d.perm == Permissive {
		d.c.fill(dst)
		return nil
	}
	return d.c.readFull(dst)
}

// rleEndOfLine handles an end-of-line code. It reports whether decoding is
// finished.
func (d *decoder) rleEndOfLine(rle *rleState) (bool, error) {
	rle.ypos--
	rle.xpos = 0
	if rle.ypos >= 0 {
		return false, nil
	}
	// An end-of-line after the last row is fine if end-of-bitmap follows.
	if d.c.peekU16BE() == 1 {
		d.c.skipClamped(2)
		return true, nil
	}
	if d.perm == Permissive {
		return true, nil
	}
	return true, DataError("RLE line beyond picture bounds")
}

// rleDelta handles a delta code. It reports whether decoding is finished.
func (d *decoder) rleDelta(rle *rleState) (bool, error) {
	dx, err := d.rleByte()
	if err != nil {
		return true, err
	}
	dy, err := d.rleByte()
	if err != nil {
		return true, err
	}
	rle.xpos += int(dx)
	rle.ypos -= int(dy)
	if rle.ypos >= 0 {
		return false, nil
	}
	if d.perm == Permissive {
		return true, nil
	}
	return true, DataError("RLE delta moves past the end of the image")
}

func (d *decoder) rleMissingEnd() error {
	if d.perm == Strict {
		return DataError("RLE data has no end-of-bitmap code")
	}
	return nil
}

func (d *decoder) rlePutNibble(rle *rleState, v byte) {
	if rle.xpos < d.plan.width && rle.ypos >= 0 {
		rle.buf[rle.ypos*rle.rowBytes+rle.xpos] = v
	}
	rle.xpos++
}

func (d *decoder) decodeRLE4(rle *rleState) error {
	var err error
	var done bool
	width := d.plan.width

	for rle.ypos >= 0 {
		if d.c.atEnd() {
			return d.rleMissingEnd()
		}
		if err = d.rleNext(rle); err != nil {
			return err
		}
		n := int(d.c.u8())

		if n > 0 {
			// A compressed run of n pixels, alternating between two colors.
			b, err := d.rleByte()
			if err != nil {
				return err
			}
			// Allow one nibble of slack; encoders pad odd runs.
			if rle.xpos+n > width+1 {
				if d.perm == Permissive {
					continue
				}
				return DataError(fmt.Sprintf("RLE4 run of %d at x=%d overruns width %d", n, rle.xpos, width))
			}
			for k := 0; k < n; k++ {
				if k%2 == 0 {
					d.rlePutNibble(rle, b>>4)
				} else {
					d.rlePutNibble(rle, b&0x0f)
				}
			}
			continue
		}

		code, err := d.rleByte()
		if err != nil {
			return err
		}
		switch code {
		case 0: // End of row
			if done, err = d.rleEndOfLine(rle); done {
				return err
			}
		case 1: // End of bitmap
			return nil
		case 2: // Delta
			if done, err = d.rleDelta(rle); done {
				return err
			}
		default:
			// An uncompressed run of code pixels, padded to a 16-bit
			// boundary.
			count := int(code)
			nbytes := (count + 1) / 2
			padded := nbytes + nbytes&1
			if rle.xpos+count > width+1 {
				if d.perm == Permissive {
					d.c.skipClamped(padded)
					continue
				}
				return DataError(fmt.Sprintf("RLE4 literal run of %d at x=%d overruns width %d", count, rle.xpos, width))
			}
			var b byte
			for k := 0; k < count; k++ {
				if k%2 == 0 {
					if b, err = d.rleByte(); err != nil {
						return err
					}
					d.rlePutNibble(rle, b>>4)
				} else {
					d.rlePutNibble(rle, b&0x0f)
				}
			}
			d.c.skipClamped(padded - nbytes)
		}
	}
	return nil
}

// decodeRLE8plus decodes RLE8 and its generalization to 16- and 32-bit
// samples.
func (d *decoder) decodeRLE8plus(rle *rleState) error {
	var err error
	var done bool
	var sample [4]byte
	width := d.plan.width
	sb := rle.sampleBytes

	for !d.c.atEnd() {
		if err = d.rleNext(rle); err != nil {
			return err
		}
		n := int(d.c.u8())

		if n > 0 {
			// n copies of the next sample.
			if err = d.rleRead(sample[:sb]); err != nil {
				return err
			}
			if rle.xpos+n > width {
				if d.perm == Permissive {
					continue
				}
				return DataError(fmt.Sprintf("RLE run of %d at x=%d overruns width %d", n, rle.xpos, width))
			}
			row := rle.buf[rle.ypos*rle.rowBytes:]
			for k := 0; k < n; k++ {
				copy(row[(rle.xpos+k)*sb:], sample[:sb])
			}
			rle.xpos += n
			continue
		}

		code, err := d.rleByte()
		if err != nil {
			return err
		}
		switch code {
		case 0:
			if done, err = d.rleEndOfLine(rle); done {
				return err
			}
		case 1:
			return nil
		case 2:
			if done, err = d.rleDelta(rle); done {
				return err
			}
		default:
			// Absolute mode: count literal samples, padded to a 16-bit
			// boundary.
			count := int(code)
			nbytes := count * sb
			pad := nbytes & 1
			if rle.xpos+count > width {
				if d.perm == Permissive {
					d.c.skipClamped(nbytes + pad)
					continue
				}
				return DataError(fmt.Sprintf("RLE literal run of %d at x=%d overruns width %d", count, rle.xpos, width))
			}
			start := rle.ypos*rle.rowBytes + rle.xpos*sb
			if err = d.rleRead(rle.buf[start : start+nbytes]); err != nil {
				return err
			}
			rle.xpos += count
			d.c.skipClamped(pad)
		}
	}
	return d.rleMissingEnd()
}

func (d *decoder) readBitsRLE() error {
	var err error
	p := d.plan

	var sampleBytes int
	switch p.bitCount {
	case 4, 8:
		sampleBytes = 1
	case 16:
		sampleBytes = 2
	case 32:
		sampleBytes = 4
	case 24:
		return UnsupportedError("RLE24")
	default:
		return UnsupportedError(fmt.Sprintf("RLE with bit count %d", p.bitCount))
	}
	size, err := BufferSize(uint32(p.width), uint32(p.height), sampleBytes)
	if err != nil {
		return err
	}
	if err = CheckStop(d.stop); err != nil {
		return err
	}

	rle := &rleState{
		ypos:        p.height - 1, // The first row in the file is the bottom row.
		sampleBytes: sampleBytes,
		rowBytes:    p.width * sampleBytes,
		buf:         make([]byte, size),
	}
	if p.bitCount == 4 {
		err = d.decodeRLE4(rle)
	} else {
		err = d.decodeRLE8plus(rle)
	}
	if err != nil {
		return err
	}

	var decodeRowFunc decodeRowFuncType
	switch p.bitCount {
	case 4, 8:
		decodeRowFunc = decodeRow_8
	case 16:
		bf := recordBitFields(defaultMasks16)
		decodeRowFunc = d.decodeRowBitFields(&bf)
		d.inNativeOrder = d.native
	case 32:
		decodeRowFunc = decodeRow_32fast
		d.inNativeOrder = d.native
	}
	for j := 0; j < p.height; j++ {
		if j%16 == 0 {
			if err = CheckStop(d.stop); err != nil {
				return err
			}
		}
		src := rle.buf[j*rle.rowBytes : (j+1)*rle.rowBytes]
		if err = decodeRowFunc(d, src, d.pix[j*d.stride:(j+1)*d.stride]); err != nil {
			return err
		}
	}

	// A top-down RLE image (Permissive only) was decoded upside down.
	d.needFlip = p.isTopDown
	return nil
}
