package parser

import (
	"math"
	"strconv"
	"strings"
)

// ParseSizeGrid decodes a size grid: a "numSizes wavelength" line followed by
// numSizes lines of one size each. Lines past the declared count are ignored.
func ParseSizeGrid(lines []string, src Source) (*SizeGrid, error) {
	cur := newLineCursor(lines, 1)
	hdr, ok := cur.take(1)
	if !ok {
		return nil, formatErr(src, 1, nil, "empty size grid")
	}
	fields := strings.Fields(hdr[0])
	if len(fields) < 2 {
		return nil, formatErr(src, 1, nil, "header %q needs size count and wavelength", hdr[0])
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return nil, formatErr(src, 1, err, "invalid size count %q", fields[0])
	}
	wavelength, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil, formatErr(src, 1, err, "invalid wavelength %q", fields[1])
	}
	if wavelength == 0 {
		return nil, formatErr(src, 1, nil, "wavelength is zero")
	}

	first := cur.line()
	body, ok := cur.take(n)
	if !ok {
		return nil, formatErr(src, 0, nil, "header declares %d sizes, file has %d size lines", n, cur.remaining())
	}

	grid := &SizeGrid{
		Wavelength: wavelength,
		Sizes:      make([]float64, n),
		X:          make([]float64, n),
	}
	for i, l := range body {
		v, err := strconv.ParseFloat(strings.TrimSpace(l), 64)
		if err != nil {
			return nil, formatErr(src, first+i, err, "invalid size %q", l)
		}
		grid.Sizes[i] = v
		grid.X[i] = v / wavelength * 2 * math.Pi
	}
	return grid, nil
}
