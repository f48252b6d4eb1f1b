package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
)

// Reader opens the text files of one run directory.
type Reader struct {
	Dir    string
	Prefix string

	// Digest receives the raw bytes of every file read, in read order.
	// It may be nil.
	Digest io.Writer
}

// ElementPath returns the path of the file holding element for ratio.
func (r *Reader) ElementPath(ratio, element string) string {
	return filepath.Join(r.Dir, fmt.Sprintf("%s_%s_%s.txt", r.Prefix, ratio, element))
}

// SizeGrid locates the single "{stem}.*" file in the run directory and reads it.
func (r *Reader) SizeGrid(stem string) (*SizeGrid, error) {
	pattern := filepath.Join(r.Dir, stem+".*")
	src := Source{File: pattern}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &DiscoveryError{Source: src, Pattern: pattern, Err: err}
	}
	if len(matches) != 1 {
		sort.Strings(matches)
		return nil, &DiscoveryError{Source: src, Pattern: pattern, Matches: matches}
	}
	src.File = matches[0]
	lines, err := readLines(matches[0], src, r.Digest)
	if err != nil {
		return nil, err
	}
	grid, err := ParseSizeGrid(lines, src)
	if err != nil {
		return nil, err
	}
	grid.Path = matches[0]
	return grid, nil
}

// Element reads and splits the element file of ratio into blocks.
func (r *Reader) Element(ratio, element string, headerLen, recordLen int) (*ElementFile, error) {
	path := r.ElementPath(ratio, element)
	src := Source{Ratio: ratio, Element: element, File: path}
	lines, err := readLines(path, src, r.Digest)
	if err != nil {
		return nil, err
	}
	return ParseElement(lines, src, headerLen, recordLen)
}

// ScatteringAngles reads the angle grid from the header of ratio's "11" file.
func (r *Reader) ScatteringAngles(ratio string, headerLen int) ([]float64, error) {
	path := r.ElementPath(ratio, AngleElement)
	src := Source{Ratio: ratio, Element: AngleElement, File: path}
	lines, err := readLines(path, src, r.Digest)
	if err != nil {
		return nil, err
	}
	if len(lines) < headerLen {
		return nil, formatErr(src, 0, nil, "file has %d lines, header needs %d", len(lines), headerLen)
	}
	return ParseScatteringAngles(lines[:headerLen], src)
}
