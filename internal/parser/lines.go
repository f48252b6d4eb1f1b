package parser

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// readLines reads a text file into right-trimmed lines. A trailing newline
// does not produce an extra empty line. Raw bytes are copied to digest when
// it is non-nil.
func readLines(path string, src Source, digest io.Writer) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &DiscoveryError{Source: src, Pattern: path, Err: err}
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if digest != nil {
		if _, err := digest.Write(data); err != nil {
			return nil, fmt.Errorf("failed to digest %s: %w", path, err)
		}
	}
	return splitLines(string(data)), nil
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return lines
}

// lineCursor walks a slice of lines with explicit offsets. base is the
// 1-based file line number of lines[0], kept for error reporting.
type lineCursor struct {
	lines []string
	pos   int
	base  int
}

func newLineCursor(lines []string, base int) *lineCursor {
	return &lineCursor{lines: lines, base: base}
}

func (c *lineCursor) remaining() int { return len(c.lines) - c.pos }

// line returns the file line number of the next line to be taken.
func (c *lineCursor) line() int { return c.base + c.pos }

// take returns the next n lines, or false if fewer remain.
func (c *lineCursor) take(n int) ([]string, bool) {
	if n < 0 || c.remaining() < n {
		return nil, false
	}
	out := c.lines[c.pos : c.pos+n]
	c.pos += n
	return out, true
}

func (c *lineCursor) skip(n int) bool {
	_, ok := c.take(n)
	return ok
}

func (c *lineCursor) rest() []string {
	out := c.lines[c.pos:]
	c.pos = len(c.lines)
	return out
}

// tokenFloats concatenates the whitespace tokens of lines, left to right and
// top to bottom, and parses every token as a float64. firstLine is the file
// line number of lines[0].
func tokenFloats(lines []string, src Source, firstLine int) ([]float64, error) {
	var out []float64
	for i, l := range lines {
		for _, tok := range strings.Fields(l) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, formatErr(src, firstLine+i, err, "non-numeric token %q", tok)
			}
			out = append(out, v)
		}
	}
	return out, nil
}
