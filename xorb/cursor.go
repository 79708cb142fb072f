package xorb

// compactThreshold gates when the cursor reclaims its consumed prefix:
// the prefix must exceed compactThreshold bytes AND
// more than half the buffer must already be consumed. This keeps small
// xorbs (the common case) from ever paying a compaction copy, while
// bounding the memory a long-running stream holds onto.
const compactThreshold = 4096

// cursor is a growable byte buffer with a moving consumed-prefix marker,
// the buffering primitive the streaming xorb decoder needs to accept
// byte slices of arbitrary size from the network and carve fixed-size
// chunk records out of them.
type cursor struct {
	buf   []byte
	start int
}

func (c *cursor) feed(b []byte) {
	c.buf = append(c.buf, b...)
}

func (c *cursor) available() []byte {
	return c.buf[c.start:]
}

func (c *cursor) consume(n int) {
	c.start += n
	c.maybeCompact()
}

func (c *cursor) maybeCompact() {
	if c.start > compactThreshold && c.start*2 > len(c.buf) {
		remaining := copy(c.buf, c.buf[c.start:])
		c.buf = c.buf[:remaining]
		c.start = 0
	}
}
