// Package console provides terminal stand-ins for the node peripherals:
// a 16x2 character LCD, a line-based keypad, and logging motor and buzzer.
package console

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// LCD geometry
const (
	Rows = 2
	Cols = 16
)

// LCD renders a 16x2 character display as a boxed frame on every change.
// Characters written past the last column land in the hidden part of the
// display memory and are not shown.
type LCD struct {
	mu       sync.Mutex
	out      io.Writer
	cells    [Rows][Cols]byte
	row, col int
}

// NewLCD creates a cleared display rendering to out; nil out renders nothing
func NewLCD(out io.Writer) *LCD {
	l := &LCD{out: out}
	l.clear()
	return l
}

func (l *LCD) clear() {
	for r := range l.cells {
		for c := range l.cells[r] {
			l.cells[r][c] = ' '
		}
	}
	l.row, l.col = 0, 0
}

func (l *LCD) put(c byte) {
	if l.row < Rows && l.col < Cols {
		l.cells[l.row][l.col] = c
	}
	l.col++
}

// Clear implements hmi.Display
func (l *LCD) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clear()
	l.render()
}

// MoveCursor implements hmi.Display
func (l *LCD) MoveCursor(row, col uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.row, l.col = int(row), int(col)
}

// WriteChar implements hmi.Display
func (l *LCD) WriteChar(c byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.put(c)
	l.render()
}

// WriteStringAt implements hmi.Display
func (l *LCD) WriteStringAt(row, col uint8, s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.row, l.col = int(row), int(col)
	for i := 0; i < len(s); i++ {
		l.put(s[i])
	}
	l.render()
}

// Lines returns the visible rows with trailing blanks trimmed
func (l *LCD) Lines() [Rows]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var lines [Rows]string
	for r := range l.cells {
		lines[r] = strings.TrimRight(string(l.cells[r][:]), " ")
	}
	return lines
}

func (l *LCD) render() {
	if l.out == nil {
		return
	}
	var b bytes.Buffer
	border := "+" + strings.Repeat("-", Cols) + "+\n"
	b.WriteString(border)
	for r := range l.cells {
		b.WriteByte('|')
		b.Write(l.cells[r][:])
		b.WriteString("|\n")
	}
	b.WriteString(border)
	l.out.Write(b.Bytes())
}
