package golomb

// Cursor addresses a single bit in a byte buffer, MSB first.
// Inc and Dec are the only ways to move it.
type Cursor struct {
	Byte int
	Mask byte
}

// NewCursor points at the MSB of byte 0.
func NewCursor() Cursor { return Cursor{Mask: 0x80} }

// Inc advances one bit.
func (c *Cursor) Inc() {
	c.Mask >>= 1
	if c.Mask == 0 {
		c.Byte++
		c.Mask = 0x80
	}
}

// Dec steps back one bit.
func (c *Cursor) Dec() {
	if c.Mask == 0x80 {
		c.Byte--
		c.Mask = 0x01
		return
	}
	c.Mask <<= 1
}

// Aligned reports whether the cursor sits on a byte boundary.
func (c Cursor) Aligned() bool { return c.Mask == 0x80 }

// Align moves forward to the next byte boundary, discarding the rest of the current byte.
func (c *Cursor) Align() {
	for !c.Aligned() {
		c.Inc()
	}
}

// Bits is the absolute bit offset.
func (c Cursor) Bits() int {
	n := c.Byte * 8
	for m := byte(0x80); m != c.Mask && m != 0; m >>= 1 {
		n++
	}
	return n
}
