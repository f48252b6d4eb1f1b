package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/dustin/go-humanize"
	"github.com/ulikunitz/xz"
	"go.uber.org/zap"
)

// FileName returns the output file name for a kernel called name.
func FileName(name string) string {
	return "kernel-" + name + ".nc"
}

// NetCDF writes datasets as NetCDF classic files into Dir.
type NetCDF struct {
	Dir      string
	Name     string // kernel name, selects the file name
	Compress bool   // also write an xz compressed copy
	Log      *zap.Logger
}

// Write implements Sink.
func (n *NetCDF) Write(ds *Dataset) (string, error) {
	log := n.Log
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(n.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(n.Dir, FileName(n.Name))
	if err := WriteFile(path, ds); err != nil {
		return "", err
	}
	if info, err := os.Stat(path); err == nil {
		log.Info("kernel written", zap.String("file", path), zap.String("size", humanize.Bytes(uint64(info.Size()))))
	}
	if n.Compress {
		xzPath := path + ".xz"
		if err := compressFile(path, xzPath); err != nil {
			return "", err
		}
		if info, err := os.Stat(xzPath); err == nil {
			log.Info("compressed copy written", zap.String("file", xzPath), zap.String("size", humanize.Bytes(uint64(info.Size()))))
		}
	}
	return path, nil
}

// WriteFile writes ds to path as a NetCDF classic file of double variables.
func WriteFile(path string, ds *Dataset) error {
	names := make([]string, len(ds.Dims))
	lengths := make([]int, len(ds.Dims))
	for i, d := range ds.Dims {
		names[i], lengths[i] = d.Name, d.Len
	}
	h := cdf.NewHeader(names, lengths)
	for _, a := range sortedKeys(ds.Attrs) {
		if err := checkAttr("", a, ds.Attrs[a]); err != nil {
			return err
		}
		h.AddAttribute("", a, ds.Attrs[a])
	}
	for _, v := range ds.Vars {
		h.AddVariable(v.Name, v.Dims, []float64{0})
		for _, a := range sortedKeys(v.Attrs) {
			if err := checkAttr(v.Name, a, v.Attrs[a]); err != nil {
				return err
			}
			h.AddAttribute(v.Name, a, v.Attrs[a])
		}
	}
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	cf, err := cdf.Create(f, h)
	if err != nil {
		return fmt.Errorf("failed to write netcdf header: %w", err)
	}
	for _, v := range ds.Vars {
		end := cf.Header.Lengths(v.Name)
		w := cf.Writer(v.Name, make([]int, len(end)), end)
		if _, err := w.Write(v.Data); err != nil {
			return fmt.Errorf("output: writing variable %s: %w", v.Name, err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a NetCDF file written by WriteFile. Paths ending in ".xz"
// are decompressed first.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var rw cdf.ReaderWriterAt = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open xz stream %s: %w", path, err)
		}
		data, err := io.ReadAll(xr)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		rw = readOnlyBuffer{bytes.NewReader(data)}
	}

	cf, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("failed to read netcdf header of %s: %w", path, err)
	}
	h := cf.Header

	ds := NewDataset()
	for _, a := range h.Attributes("") {
		ds.Attrs[a] = attrValue(h.GetAttribute("", a))
	}
	for _, name := range h.Variables() {
		dims, lengths := h.Dimensions(name), h.Lengths(name)
		for i, dim := range dims {
			if _, ok := ds.Dim(dim); ok {
				continue
			}
			if err := ds.AddDim(dim, lengths[i]); err != nil {
				return nil, err
			}
		}
		n := 1
		for _, l := range lengths {
			n *= l
		}
		r := cf.Reader(name, make([]int, len(lengths)), lengths)
		buf := r.Zero(n)
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("output: reading variable %s: %w", name, err)
		}
		data, ok := buf.([]float64)
		if !ok {
			return nil, fmt.Errorf("output: variable %s is %T, want []float64", name, buf)
		}
		attrs := make(map[string]any)
		for _, a := range h.Attributes(name) {
			attrs[a] = attrValue(h.GetAttribute(name, a))
		}
		if _, err := ds.AddVar(name, dims, data, attrs); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

var errReadOnly = errors.New("output: decompressed kernel is read-only")

// readOnlyBuffer lets cdf.Open read an in-memory file. Writes fail.
type readOnlyBuffer struct {
	*bytes.Reader
}

func (readOnlyBuffer) WriteAt(p []byte, off int64) (int, error) {
	return 0, errReadOnly
}

func attrValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	default:
		return v
	}
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	w, err := xz.NewWriter(out)
	if err != nil {
		return fmt.Errorf("failed to start xz stream: %w", err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to compress %s: %w", src, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return out.Close()
}
