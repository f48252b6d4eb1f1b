package parser

// Reserved element identifiers of the legacy kernel file family.
const (
	ExtAbsElement = "00" // extinction and absorption blocks
	AngleElement  = "11" // carries the scattering angle grid in its header

	// ExtAbsHeaderLen is the fixed header length of "00" files.
	ExtAbsHeaderLen = 5

	// blockHeaderLen is the header pair opening every record block:
	// element/ratio identifier, then wavelength and refractive index.
	blockHeaderLen = 2

	angleCountMarker = "number of scattering angles"
)

// SizeGrid holds the particle sizes of a run and their size parameters.
type SizeGrid struct {
	Path       string
	Wavelength float64
	Sizes      []float64 // physical sizes, file order
	X          []float64 // size * 2π / wavelength
}

// Block is one record of an element file: the lines for a single
// refractive-index combination.
type Block struct {
	Index int      // position in the file, 0-based
	Line  int      // file line number of Lines[0]
	Lines []string // header pair followed by content
}

// Header returns the block's two header lines.
func (b Block) Header() []string {
	if len(b.Lines) < blockHeaderLen {
		return b.Lines
	}
	return b.Lines[:blockHeaderLen]
}

// Content returns the lines after the block header.
func (b Block) Content() []string {
	if len(b.Lines) < blockHeaderLen {
		return nil
	}
	return b.Lines[blockHeaderLen:]
}

// ElementFile is a parsed per-ratio, per-element file.
type ElementFile struct {
	Source
	Header      []string
	RecordCount int // a * -b from the last header line
	Blocks      []Block
}

// IndexPair is a (real, imaginary) refractive index.
type IndexPair struct {
	Real float64
	Imag float64
}

// ExtinctionAbsorption is the content of one "00" file, one entry per block.
type ExtinctionAbsorption struct {
	Source
	Pairs      []IndexPair
	Extinction [][]float64 // [block][size]
	Absorption [][]float64 // [block][size]
}

// ScatteringMatrix holds one element's rows: [block][size][angle].
type ScatteringMatrix struct {
	Source
	Rows [][][]float64
}
