package parser

import (
	"math"
	"strconv"
	"strings"
)

// ParseElement splits an element file into record blocks.
//
// The first headerLen lines are the file header. The first two tokens of the
// last header line are integers (a, b) and the record count is a * -b; the
// legacy files store the count negated. The lines after the header are cut
// into recordCount consecutive chunks of recordLen lines. Trailing lines past
// the last record are ignored.
func ParseElement(lines []string, src Source, headerLen, recordLen int) (*ElementFile, error) {
	if headerLen < 1 {
		return nil, formatErr(src, 0, nil, "header length %d must be positive", headerLen)
	}
	if recordLen < 1 {
		return nil, formatErr(src, 0, nil, "record length %d must be positive", recordLen)
	}

	cur := newLineCursor(lines, 1)
	header, ok := cur.take(headerLen)
	if !ok {
		return nil, formatErr(src, 0, nil, "file has %d lines, header needs %d", len(lines), headerLen)
	}
	count, err := recordCount(header[headerLen-1], src, headerLen)
	if err != nil {
		return nil, err
	}

	if count > cur.remaining()/recordLen {
		return nil, formatErr(src, 0, nil, "%d records of %d lines do not fit in the %d lines after the header",
			count, recordLen, cur.remaining())
	}

	ef := &ElementFile{
		Source:      src,
		Header:      header,
		RecordCount: count,
		Blocks:      make([]Block, count),
	}
	for i := range ef.Blocks {
		line := cur.line()
		chunk, _ := cur.take(recordLen)
		ef.Blocks[i] = Block{Index: i, Line: line, Lines: chunk}
	}
	return ef, nil
}

func recordCount(line string, src Source, lineNo int) (int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, formatErr(src, lineNo, nil, "record count line %q needs two integers", line)
	}
	a, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, formatErr(src, lineNo, err, "invalid record count factor %q", fields[0])
	}
	b, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, formatErr(src, lineNo, err, "invalid record count factor %q", fields[1])
	}
	if b == math.MinInt {
		return 0, formatErr(src, lineNo, nil, "record count factor %d cannot be negated", b)
	}
	n := a * -b
	if a != 0 && n/a != -b {
		return 0, formatErr(src, lineNo, nil, "record count %d * -(%d) overflows", a, b)
	}
	if n < 0 {
		return 0, formatErr(src, lineNo, nil, "record count %d * -(%d) is negative", a, b)
	}
	return n, nil
}
