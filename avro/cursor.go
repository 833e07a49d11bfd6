package avro

import (
	"encoding/binary"
	"math"
)

// Cursor reads Avro binary primitives from an immutable buffer. Every read
// advances the position; reads past the end return a *FormatError and leave
// the position unchanged.
type Cursor struct {
	buf []byte
	pos int
}

func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current offset into the buffer.
func (c *Cursor) Pos() int { return c.pos }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

func (c *Cursor) ensure(n int) error {
	if n < 0 || n > c.Remaining() {
		return formatErrorf(c.pos, "read of %d bytes exceeds remaining %d", n, c.Remaining())
	}
	return nil
}

func (c *Cursor) ReadByte() (byte, error) {
	if err := c.ensure(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// ReadBytes returns a view of the next n bytes. The slice aliases the
// underlying buffer.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.ensure(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b, nil
}

// Skip advances the position by n bytes.
func (c *Cursor) Skip(n int) error {
	if err := c.ensure(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// ReadLong decodes a zigzag varint.
func (c *Cursor) ReadLong() (int64, error) {
	v, n, err := readVarint(c.buf, c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += n
	return v, nil
}

func (c *Cursor) ReadFloat() (float32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func (c *Cursor) ReadDouble() (float64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadBoolean reads one byte; any non-zero value is true.
func (c *Cursor) ReadBoolean() (bool, error) {
	b, err := c.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// readLength reads a length prefix and checks it against the buffer.
func (c *Cursor) readLength() (int, error) {
	start := c.pos
	n, err := c.ReadLong()
	if err != nil {
		return 0, err
	}
	if n < 0 || n > int64(c.Remaining()) {
		c.pos = start
		return 0, formatErrorf(start, "invalid length %d with %d bytes remaining", n, c.Remaining())
	}
	return int(n), nil
}

// ReadBytesValue reads a length-prefixed byte sequence.
func (c *Cursor) ReadBytesValue() ([]byte, error) {
	n, err := c.readLength()
	if err != nil {
		return nil, err
	}
	return c.ReadBytes(n)
}

// ReadString reads a length-prefixed UTF-8 string. Invalid sequences are
// kept as-is rather than rejected.
func (c *Cursor) ReadString() (string, error) {
	b, err := c.ReadBytesValue()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Cursor) ReadFixed(size int) ([]byte, error) {
	return c.ReadBytes(size)
}

// skipLengthPrefixed skips a string or bytes value without materializing it.
func (c *Cursor) skipLengthPrefixed() error {
	n, err := c.readLength()
	if err != nil {
		return err
	}
	return c.Skip(n)
}
