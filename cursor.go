// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.
//
// Bounds-checked reader over an in-memory BMP file
//

package gobitmap

import "io"

func getWORD(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8
}
func getDWORD(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// byteCursor reads sequentially from data. It has two sets of methods:
// readU8, readU16, readU32, readFull, skip and seek fail with
// io.ErrUnexpectedEOF past the end and leave the position unchanged;
// u8, u16, u32, fill, skipClamped and seekClamped substitute zero bytes and
// stop at the end. Neither set panics.
type byteCursor struct {
	data []byte
	off  int
}

func (c *byteCursor) pos() int { return c.off }

func (c *byteCursor) atEnd() bool { return c.off >= len(c.data) }

func (c *byteCursor) remaining() int {
	if c.off >= len(c.data) {
		return 0
	}
	return len(c.data) - c.off
}

func (c *byteCursor) readU8() (byte, error) {
	if c.remaining() < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	b := c.data[c.off]
	c.off++
	return b, nil
}

func (c *byteCursor) readU16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, io.ErrUnexpectedEOF
	}
	v := getWORD(c.data[c.off:])
	c.off += 2
	return uint16(v), nil
}

func (c *byteCursor) readU32() (uint32, error) {
	if c.remaining() < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	v := getDWORD(c.data[c.off:])
	c.off += 4
	return v, nil
}

func (c *byteCursor) readFull(buf []byte) error {
	if c.remaining() < len(buf) {
		return io.ErrUnexpectedEOF
	}
	c.off += copy(buf, c.data[c.off:])
	return nil
}

// next returns the next n bytes without copying.
func (c *byteCursor) next(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, io.ErrUnexpectedEOF
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *byteCursor) skip(n int) error {
	if n < 0 || c.remaining() < n {
		return io.ErrUnexpectedEOF
	}
	c.off += n
	return nil
}

func (c *byteCursor) seek(pos int) error {
	if pos < 0 || pos > len(c.data) {
		return io.ErrUnexpectedEOF
	}
	c.off = pos
	return nil
}

func (c *byteCursor) u8() byte {
	if c.remaining() < 1 {
		return 0
	}
	b := c.data[c.off]
	c.off++
	return b
}

func (c *byteCursor) u16() uint16 {
	var b [2]byte
	c.fill(b[:])
	return uint16(getWORD(b[:]))
}

func (c *byteCursor) u32() uint32 {
	var b [4]byte
	c.fill(b[:])
	return getDWORD(b[:])
}

// fill copies what is available into buf and zeroes the rest.
func (c *byteCursor) fill(buf []byte) {
	n := 0
	if c.off < len(c.data) {
		n = copy(buf, c.data[c.off:])
	}
	clear(buf[n:])
	c.off += n
}

func (c *byteCursor) skipClamped(n int) {
	if n < 0 {
		return
	}
	if n > c.remaining() {
		n = c.remaining()
	}
	c.off += n
}

func (c *byteCursor) seekClamped(pos int) {
	switch {
	case pos < 0:
		c.off = 0
	case pos > len(c.data):
		c.off = len(c.data)
	default:
		c.off = pos
	}
}

// peekU16BE returns the next two bytes as a big-endian value without
// consuming them, or 0 if fewer than two bytes remain.
func (c *byteCursor) peekU16BE() uint16 {
	if c.remaining() < 2 {
		return 0
	}
	return uint16(c.data[c.off])<<8 | uint16(c.data[c.off+1])
}
