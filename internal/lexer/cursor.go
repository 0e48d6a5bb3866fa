package lexer

import (
	"wisp/internal/source"
)

// Cursor is a byte-level reader over a single source file.
type Cursor struct {
	file *source.File
	Off  uint32
}

// Mark remembers a cursor position for span construction.
type Mark struct {
	off uint32
}

func NewCursor(f *source.File) Cursor {
	return Cursor{file: f, Off: 0}
}

func (c *Cursor) limit() uint32 {
	return uint32(len(c.file.Content))
}

func (c *Cursor) EOF() bool {
	return c.Off >= c.limit()
}

// Peek returns the current byte without consuming it, or 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.file.Content[c.Off]
}

// Peek2 returns the current and next byte when both are available.
func (c *Cursor) Peek2() (b0, b1 byte, ok bool) {
	if c.Off+1 >= c.limit() {
		return 0, 0, false
	}
	return c.file.Content[c.Off], c.file.Content[c.Off+1], true
}

// Bump consumes and returns the current byte, or 0 at EOF.
func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.file.Content[c.Off]
	c.Off++
	return b
}

func (c *Cursor) Mark() Mark {
	return Mark{off: c.Off}
}

func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{File: c.file.ID, Start: m.off, End: c.Off}
}

// Eat consumes the current byte when it equals b.
func (c *Cursor) Eat(b byte) bool {
	if !c.EOF() && c.file.Content[c.Off] == b {
		c.Off++
		return true
	}
	return false
}
