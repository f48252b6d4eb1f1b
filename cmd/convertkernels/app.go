package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ReedEspinosa/GEOSmie-TOA/internal/analysis"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/config"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/kernel"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/output"
	"github.com/ReedEspinosa/GEOSmie-TOA/internal/report"
)

// App runs conversions and the file utilities behind the CLI commands.
type App struct {
	log *zap.Logger
}

// NewApp returns an App logging to log.
func NewApp(log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{log: log}
}

// ConvertOptions are command line overrides applied on top of a run file.
type ConvertOptions struct {
	Dest     string
	Workers  int  // 0 keeps the run file value
	Compress bool // forces the compressed copy on
	Report   bool // also write kernel-{name}.pdf
}

// ConvertResult describes a finished conversion.
type ConvertResult struct {
	ConversionID string
	Path         string
	ReportPath   string
	Kernel       *kernel.Kernel
}

// Convert reads the legacy kernel files cfg points at, derives the optical
// quantities and writes the NetCDF file into opts.Dest.
func (a *App) Convert(ctx context.Context, cfg config.RunConfig, opts ConvertOptions) (*ConvertResult, error) {
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	if opts.Compress {
		cfg.Compress = true
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if opts.Dest == "" {
		opts.Dest = "."
	}

	id := uuid.NewString()
	log := a.log.With(zap.String("kernel", cfg.Name), zap.String("conversion_id", id))
	log.Info("converting kernel",
		zap.String("path", cfg.Path),
		zap.Strings("ratios", cfg.Ratios),
		zap.Strings("elements", cfg.Elements),
		zap.Int("workers", cfg.Workers))

	k, err := kernel.NewAggregator(cfg, log).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("kernel %s: %w", cfg.Name, err)
	}
	log.Debug("kernel merged", zap.Stringer("kernel", k))

	scale, err := analysis.ResolveBinScale(cfg.BinScale, k.X)
	if err != nil {
		return nil, fmt.Errorf("kernel %s: %w", cfg.Name, err)
	}
	d, err := analysis.Derive(k, analysis.Options{BinScale: scale, BackscatterAngle: cfg.BackscatterAngle})
	if err != nil {
		return nil, fmt.Errorf("kernel %s: %w", cfg.Name, err)
	}

	ds, err := output.FromKernel(k, d, output.Meta{ConversionID: id})
	if err != nil {
		return nil, err
	}
	var sink output.Sink = &output.NetCDF{Dir: opts.Dest, Name: cfg.Name, Compress: cfg.Compress, Log: log}
	path, err := sink.Write(ds)
	if err != nil {
		return nil, err
	}

	res := &ConvertResult{ConversionID: id, Path: path, Kernel: k}
	if opts.Report {
		res.ReportPath = strings.TrimSuffix(path, ".nc") + ".pdf"
		if err := report.Generate(res.ReportPath, k, d, log); err != nil {
			return nil, err
		}
	}
	log.Info("conversion complete", zap.String("file", path))
	return res, nil
}

// ConvertFiles loads and converts each run file in turn, stopping at the
// first failure.
func (a *App) ConvertFiles(ctx context.Context, paths []string, opts ConvertOptions) ([]*ConvertResult, error) {
	var results []*ConvertResult
	for i, p := range paths {
		a.log.Info("loading run file", zap.String("file", p), zap.Int("index", i+1), zap.Int("of", len(paths)))
		cfg, err := config.Load(p)
		if err != nil {
			return results, fmt.Errorf("%s: %w", p, err)
		}
		res, err := a.Convert(ctx, *cfg, opts)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Inspect prints the layout of a kernel file.
func (a *App) Inspect(w io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	ds, err := output.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s (%s)\n\n", path, humanize.Bytes(uint64(info.Size())))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIMENSION\tLENGTH")
	for _, d := range ds.Dims {
		fmt.Fprintf(tw, "%s\t%d\n", d.Name, d.Len)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "VARIABLE\tDIMENSIONS\tVALUES\tMIN\tMAX\tLONG NAME")
	for _, v := range ds.Vars {
		long, _ := v.Attrs["long_name"].(string)
		s := report.SummarizeValues(v.Name, v.Data)
		fmt.Fprintf(tw, "%s\t(%s)\t%s\t%.6g\t%.6g\t%s\n",
			v.Name, strings.Join(v.Dims, ", "), humanize.Comma(int64(len(v.Data))), s.Min, s.Max, long)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	for _, name := range []string{"title", "kernel_name", "ratio_ids", "scattering_elements", "conversion_id", "source_blake3"} {
		if s := ds.StringAttr(name); s != "" {
			fmt.Fprintf(w, "%s: %s\n", name, s)
		}
	}
	for _, name := range []string{"wavelength", "bin_scale"} {
		if v, ok := ds.FloatAttr(name); ok {
			fmt.Fprintf(w, "%s: %g\n", name, v)
		}
	}
	return nil
}

// Report writes the PDF quick-look of an existing kernel file.
func (a *App) Report(path, out string) error {
	ds, err := output.ReadFile(path)
	if err != nil {
		return err
	}
	k, d, err := output.ToKernel(ds)
	if err != nil {
		return err
	}
	if out == "" {
		out = strings.TrimSuffix(strings.TrimSuffix(path, ".xz"), ".nc") + ".pdf"
	}
	return report.Generate(out, k, d, a.log)
}
