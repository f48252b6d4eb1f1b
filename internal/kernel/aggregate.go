package kernel

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/config"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/parser"
)

// Aggregator reads every ratio of a run and merges them into dense arrays.
type Aggregator struct {
	cfg config.RunConfig
	log *zap.Logger
}

// NewAggregator returns an Aggregator for cfg. A nil logger discards output.
func NewAggregator(cfg config.RunConfig, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{cfg: cfg, log: log}
}

// ratioResult is everything read for one ratio.
type ratioResult struct {
	id       string
	extAbs   *parser.ExtinctionAbsorption
	angles   []float64
	elements []*parser.ScatteringMatrix
	digest   []byte
}

// Run reads the size grid and every ratio, validates them against each other
// and returns the merged kernel. Ratios are read on up to cfg.Workers
// goroutines; the merge always follows the configured ratio order.
func (a *Aggregator) Run(ctx context.Context) (*Kernel, error) {
	cfg := a.cfg
	gridHash := blake3.New()
	gr := &parser.Reader{Dir: cfg.Path, Prefix: cfg.Prefix, Digest: gridHash}
	grid, err := gr.SizeGrid(cfg.GridPattern)
	if err != nil {
		return nil, err
	}
	a.log.Info("size grid read",
		zap.String("file", grid.Path),
		zap.Int("sizes", len(grid.Sizes)),
		zap.Float64("wavelength", grid.Wavelength))

	results := make([]*ratioResult, len(cfg.Ratios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, id := range cfg.Ratios {
		g.Go(func() error {
			a.log.Info("reading ratio",
				zap.Int("index", i+1),
				zap.Int("of", len(cfg.Ratios)),
				zap.String("ratio", id))
			res, err := a.readRatio(gctx, id, len(grid.Sizes))
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	k, err := a.merge(grid, results)
	if err != nil {
		return nil, err
	}

	h := blake3.New()
	h.Write(gridHash.Sum(nil))
	for _, res := range results {
		h.Write(res.digest)
	}
	k.Digest = hex.EncodeToString(h.Sum(nil))
	return k, nil
}

func (a *Aggregator) readRatio(ctx context.Context, id string, numSizes int) (*ratioResult, error) {
	cfg := a.cfg
	hash := blake3.New()
	r := &parser.Reader{Dir: cfg.Path, Prefix: cfg.Prefix, Digest: hash}
	blocks := cfg.MRLen * cfg.MILen

	ef, err := r.Element(id, parser.ExtAbsElement, parser.ExtAbsHeaderLen, cfg.ContLen)
	if err != nil {
		return nil, err
	}
	if len(ef.Blocks) != blocks {
		return nil, parser.Inconsistent(ef.Source, "%d records, mrlen*milen is %d", len(ef.Blocks), blocks)
	}
	ea, err := parser.ExtractExtinctionAbsorption(ef, cfg.ContLen)
	if err != nil {
		return nil, err
	}
	for b := range ea.Pairs {
		if len(ea.Extinction[b]) != numSizes || len(ea.Absorption[b]) != numSizes {
			return nil, parser.Malformed(ea.Source, "block %d has %d extinction and %d absorption values, size grid has %d",
				b, len(ea.Extinction[b]), len(ea.Absorption[b]), numSizes)
		}
	}

	angles, err := r.ScatteringAngles(id, cfg.ScatHdrLen)
	if err != nil {
		return nil, err
	}

	res := &ratioResult{id: id, extAbs: ea, angles: angles}
	for _, elem := range cfg.Elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ef, err := r.Element(id, elem, cfg.ScatHdrLen, cfg.ScatContLen)
		if err != nil {
			return nil, err
		}
		if len(ef.Blocks) != blocks {
			return nil, parser.Inconsistent(ef.Source, "%d records, mrlen*milen is %d", len(ef.Blocks), blocks)
		}
		sm, err := parser.ExtractScatteringMatrix(ef, cfg.ScatElemLen)
		if err != nil {
			return nil, err
		}
		for b, rows := range sm.Rows {
			if len(rows) != numSizes {
				return nil, parser.Malformed(sm.Source, "block %d has %d rows, size grid has %d", b, len(rows), numSizes)
			}
			for x, row := range rows {
				if len(row) != len(angles) {
					return nil, parser.Malformed(sm.Source, "block %d row %d has %d values, angle grid has %d",
						b, x, len(row), len(angles))
				}
			}
		}
		a.log.Debug("element read",
			zap.String("ratio", id),
			zap.String("element", elem),
			zap.Int("blocks", len(sm.Rows)))
		res.elements = append(res.elements, sm)
	}
	res.digest = hash.Sum(nil)
	return res, nil
}

func (a *Aggregator) merge(grid *parser.SizeGrid, results []*ratioResult) (*Kernel, error) {
	cfg := a.cfg
	ref := results[0]
	mr, mi, err := indexGrid(ref.extAbs, cfg.MRLen, cfg.MILen)
	if err != nil {
		return nil, err
	}

	for _, res := range results[1:] {
		if err := samePairs(ref.extAbs, res.extAbs); err != nil {
			return nil, err
		}
		if err := a.sameAngles(ref, res); err != nil {
			return nil, err
		}
	}

	k := &Kernel{
		Name:       cfg.Name,
		RatioIDs:   append([]string(nil), cfg.Ratios...),
		Ratios:     make([]float64, len(cfg.Ratios)),
		MR:         mr,
		MI:         mi,
		Wavelength: grid.Wavelength,
		Sizes:      grid.Sizes,
		X:          grid.X,
		Angles:     ref.angles,
		Elements:   append([]string(nil), cfg.Elements...),
	}
	for i, id := range cfg.Ratios {
		v, err := config.RatioValue(id)
		if err != nil {
			return nil, err
		}
		k.Ratios[i] = v
	}

	shape := k.Shape()
	k.Ext = shape.NewScalar()
	k.Abs = shape.NewScalar()
	k.Scama = shape.NewMatrix()
	for ri, res := range results {
		for mri := 0; mri < shape.MR; mri++ {
			for mii := 0; mii < shape.MI; mii++ {
				b := RefractiveIndex(mri, mii, shape.MI)
				for xi := 0; xi < shape.Sizes; xi++ {
					k.Ext.Set(res.extAbs.Extinction[b][xi], ri, mri, mii, xi)
					k.Abs.Set(res.extAbs.Absorption[b][xi], ri, mri, mii, xi)
					for ei, sm := range res.elements {
						for ai, v := range sm.Rows[b][xi] {
							k.Scama.Set(v, ri, mri, mii, xi, ei, ai)
						}
					}
				}
			}
		}
	}
	a.log.Info("kernel merged",
		zap.Ints("shape", shape.Matrix()),
		zap.Strings("elements", k.Elements))
	return k, nil
}

// indexGrid recovers the distinct mr and mi values from the block pairs and
// checks that every pair sits where the linearization puts it.
func indexGrid(ea *parser.ExtinctionAbsorption, mrLen, miLen int) (mr, mi []float64, err error) {
	if len(ea.Pairs) != mrLen*miLen {
		return nil, nil, parser.Inconsistent(ea.Source, "%d refractive index pairs, mrlen*milen is %d", len(ea.Pairs), mrLen*miLen)
	}
	mr = make([]float64, mrLen)
	mi = make([]float64, miLen)
	for i := range mi {
		mi[i] = ea.Pairs[i].Imag
	}
	for i := range mr {
		mr[i] = ea.Pairs[RefractiveIndex(i, 0, miLen)].Real
	}
	for b, p := range ea.Pairs {
		mri, mii := SplitRefractiveIndex(b, miLen)
		if p.Real != mr[mri] || p.Imag != mi[mii] {
			return nil, nil, parser.Inconsistent(ea.Source, "block %d holds (%g, %g), grid position expects (%g, %g)",
				b, p.Real, p.Imag, mr[mri], mi[mii])
		}
	}
	return mr, mi, nil
}

func samePairs(ref, other *parser.ExtinctionAbsorption) error {
	if len(other.Pairs) != len(ref.Pairs) {
		return parser.Inconsistent(other.Source, "%d refractive index pairs, ratio %s has %d",
			len(other.Pairs), ref.Ratio, len(ref.Pairs))
	}
	for b := range ref.Pairs {
		if other.Pairs[b] != ref.Pairs[b] {
			return parser.Inconsistent(other.Source, "block %d holds (%g, %g), ratio %s holds (%g, %g)",
				b, other.Pairs[b].Real, other.Pairs[b].Imag, ref.Ratio, ref.Pairs[b].Real, ref.Pairs[b].Imag)
		}
	}
	return nil
}

func (a *Aggregator) sameAngles(ref, other *ratioResult) error {
	src := parser.Source{Ratio: other.id, Element: parser.AngleElement}
	if len(other.angles) != len(ref.angles) {
		return parser.Inconsistent(src, "%d scattering angles, ratio %s has %d", len(other.angles), ref.id, len(ref.angles))
	}
	for i := range ref.angles {
		if other.angles[i] == ref.angles[i] {
			continue
		}
		if a.cfg.StrictAngles {
			return parser.Inconsistent(src, "angle %d is %g, ratio %s has %g", i, other.angles[i], ref.id, ref.angles[i])
		}
		a.log.Warn("angle grid differs from first ratio, using first ratio's grid",
			zap.String("ratio", other.id),
			zap.String("reference", ref.id),
			zap.Int("angle", i))
		return nil
	}
	return nil
}

// String summarises the kernel dimensions.
func (k *Kernel) String() string {
	s := k.Shape()
	return fmt.Sprintf("kernel %q: %d ratios, %dx%d refractive indices, %d sizes, %d elements, %d angles",
		k.Name, s.Ratios, s.MR, s.MI, s.Sizes, s.Elements, s.Angles)
}
