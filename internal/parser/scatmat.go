package parser

// ExtractScatteringMatrix cuts the content of every block into chunks of
// chunkLen lines and token-parses each chunk into one row of values across
// the angle grid. A partial chunk at the end of a block is dropped.
func ExtractScatteringMatrix(ef *ElementFile, chunkLen int) (*ScatteringMatrix, error) {
	src := ef.Source
	if chunkLen < 1 {
		return nil, formatErr(src, 0, nil, "chunk length %d must be positive", chunkLen)
	}
	out := &ScatteringMatrix{
		Source: src,
		Rows:   make([][][]float64, len(ef.Blocks)),
	}
	for bi, b := range ef.Blocks {
		content := b.Content()
		n := len(content) / chunkLen
		cur := newLineCursor(content, b.Line+blockHeaderLen)
		rows := make([][]float64, n)
		for i := range rows {
			first := cur.line()
			chunk, _ := cur.take(chunkLen)
			row, err := tokenFloats(chunk, src, first)
			if err != nil {
				return nil, err
			}
			rows[i] = row
		}
		out.Rows[bi] = rows
	}
	return out, nil
}
