package parser

import (
	"strconv"
	"strings"
)

// ParseScatteringAngles finds the "<N> number of scattering angles" line in
// header and returns the first N tokens of the header lines that follow it.
func ParseScatteringAngles(header []string, src Source) ([]float64, error) {
	for i, l := range header {
		n, ok := angleCount(l)
		if !ok {
			continue
		}
		var toks []string
		for _, rest := range header[i+1:] {
			toks = append(toks, strings.Fields(rest)...)
		}
		if len(toks) < n {
			return nil, formatErr(src, i+1, nil, "header declares %d scattering angles, found %d values", n, len(toks))
		}
		angles := make([]float64, n)
		for j, tok := range toks[:n] {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, formatErr(src, 0, err, "invalid scattering angle %q", tok)
			}
			angles[j] = v
		}
		return angles, nil
	}
	return nil, formatErr(src, 0, nil, "no %q line in the first %d header lines", angleCountMarker, len(header))
}

// angleCount matches "<int> number of scattering angles" with free spacing
// around the integer.
func angleCount(line string) (int, bool) {
	s := strings.TrimSpace(line)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	if !strings.HasPrefix(strings.TrimSpace(s[end:]), angleCountMarker) {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
