package parser

import (
	"strconv"
	"strings"
)

// ExtractExtinctionAbsorption decodes the blocks of a "00" file read with
// record length recordLen.
//
// Block content splits into two equal halves. Each half opens with a label
// line (EXTINCTION, ABSORPTION) followed by one value per size parameter.
// The (mr, mi) pair of every block comes from its second header line.
func ExtractExtinctionAbsorption(ef *ElementFile, recordLen int) (*ExtinctionAbsorption, error) {
	src := ef.Source
	data := recordLen - blockHeaderLen
	if data < 2 || data%2 != 0 {
		return nil, formatErr(src, 0, nil, "record length %d leaves %d data lines, need a positive even count", recordLen, data)
	}
	half := data / 2

	out := &ExtinctionAbsorption{
		Source:     src,
		Pairs:      make([]IndexPair, 0, len(ef.Blocks)),
		Extinction: make([][]float64, 0, len(ef.Blocks)),
		Absorption: make([][]float64, 0, len(ef.Blocks)),
	}
	for _, b := range ef.Blocks {
		if len(b.Lines) != recordLen {
			return nil, formatErr(src, b.Line, nil, "block %d has %d lines, want %d", b.Index, len(b.Lines), recordLen)
		}
		pair, err := parseIndexPair(b.Header()[1], src, b.Line+1)
		if err != nil {
			return nil, err
		}

		cur := newLineCursor(b.Content(), b.Line+blockHeaderLen)
		ext, err := labelledSeries(cur, half, src)
		if err != nil {
			return nil, err
		}
		abs, err := labelledSeries(cur, half, src)
		if err != nil {
			return nil, err
		}

		out.Pairs = append(out.Pairs, pair)
		out.Extinction = append(out.Extinction, ext)
		out.Absorption = append(out.Absorption, abs)
	}
	return out, nil
}

// labelledSeries takes n lines from cur, drops the label line and token-parses the rest.
func labelledSeries(cur *lineCursor, n int, src Source) ([]float64, error) {
	first := cur.line()
	lines, ok := cur.take(n)
	if !ok {
		return nil, formatErr(src, first, nil, "series needs %d lines, %d left", n, cur.remaining())
	}
	return tokenFloats(lines[1:], src, first+1)
}

// parseIndexPair reads "label mr mi" from a block header line.
func parseIndexPair(line string, src Source, lineNo int) (IndexPair, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return IndexPair{}, formatErr(src, lineNo, nil, "refractive index line %q needs label, mr and mi", line)
	}
	mr, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return IndexPair{}, formatErr(src, lineNo, err, "invalid real refractive index %q", fields[1])
	}
	mi, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return IndexPair{}, formatErr(src, lineNo, err, "invalid imaginary refractive index %q", fields[2])
	}
	return IndexPair{Real: mr, Imag: mi}, nil
}
