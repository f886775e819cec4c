// Package convert resolves source and target paths and drives one conversion
// (resolve, load, write) per source file.
package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/KyungWonPark/mtxconv/internal/io"
)

// Options carries the command line switches of a conversion run
type Options struct {
	Target    string
	Recursive bool
	Skip      bool
	Compress  bool
}

type convertFunc func(log *slog.Logger, source, target string, opts Options) error

// Converter turns files with SourceExt into files with TargetExt
type Converter struct {
	Name      string
	SourceExt string
	TargetExt string
	Logger    *slog.Logger

	convert convertFunc
}

// MtxToNpz converts Matrix Market files to scipy.sparse npz archives (CSR layout)
func MtxToNpz() *Converter {
	return &Converter{Name: "mtx2npz", SourceExt: ".mtx", TargetExt: ".npz", convert: mtxToNpz}
}

// NpzToMtx converts scipy.sparse npz archives to Matrix Market files
func NpzToMtx() *Converter {
	return &Converter{Name: "npz2mtx", SourceExt: ".npz", TargetExt: ".mtx", convert: npzToMtx}
}

// DenseMtxToNpz converts Matrix Market files to numpy.savez archives holding one dense array
func DenseMtxToNpz() *Converter {
	return &Converter{Name: "densemtx2npz", SourceExt: ".mtx", TargetExt: ".npz", convert: denseMtxToNpz}
}

// DenseNpzToMtx converts numpy.savez dense archives to Matrix Market array files
func DenseNpzToMtx() *Converter {
	return &Converter{Name: "densenpz2mtx", SourceExt: ".npz", TargetExt: ".mtx", convert: denseNpzToMtx}
}

func mtxToNpz(log *slog.Logger, source, target string, opts Options) error {
	log.Info("Loading", "file", filepath.Base(source))
	m, err := io.MtxtoSparse(source)
	if err != nil {
		return err
	}

	log.Info("Saving", "file", filepath.Base(target), "shape", fmt.Sprintf("%dx%d", m.Rows, m.Cols), "nnz", m.NNZ())
	return io.SparsetoNpz(target, m.ToCSR(), opts.Compress)
}

func npzToMtx(log *slog.Logger, source, target string, _ Options) error {
	log.Info("Loading", "file", filepath.Base(source))
	m, err := io.NpztoSparse(source)
	if err != nil {
		return err
	}

	log.Info("Saving", "file", filepath.Base(target), "format", string(m.Format), "shape", fmt.Sprintf("%dx%d", m.Rows, m.Cols), "nnz", m.NNZ())
	return io.SparsetoMtx(target, m)
}

func denseMtxToNpz(log *slog.Logger, source, target string, opts Options) error {
	log.Info("Loading", "file", filepath.Base(source))
	matrix, err := io.MtxtoMat64(source)
	if err != nil {
		return err
	}

	log.Info("Saving", "file", filepath.Base(target))
	return io.Mat64toNpz(target, matrix, opts.Compress)
}

func denseNpzToMtx(log *slog.Logger, source, target string, _ Options) error {
	log.Info("Loading", "file", filepath.Base(source))
	matrix, err := io.NpztoMat64(source)
	if err != nil {
		return err
	}

	log.Info("Saving", "file", filepath.Base(target))
	return io.Mat64toMtx(target, matrix)
}

func (c *Converter) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return slog.Default()
}

// Run converts source according to opts: a single file, or every file with
// SourceExt directly inside source when opts.Recursive is set.
func (c *Converter) Run(source string, opts Options) error {
	mode, err := DetectMode(source, opts.Target, opts.Recursive)
	if err != nil {
		return err
	}
	c.log().Info("Mode: " + mode.String())

	switch mode {
	case AllInPlace, AllToDir:
		sources, err := c.listSources(source)
		if err != nil {
			return err
		}

		targetDir := opts.Target
		if mode == AllInPlace {
			targetDir = source
		}

		return c.ConvertFiles(sources, targetDir, opts)
	default:
		return c.ConvertFile(source, opts.Target, mode, opts)
	}
}

// listSources returns the files in dir with SourceExt, sorted by name
func (c *Converter) listSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var sources []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), c.SourceExt) {
			continue
		}
		sources = append(sources, filepath.Join(dir, e.Name()))
	}

	return sources, nil
}

// ConvertFiles converts each source into targetDir, keeping base names.
// It stops at the first failure.
func (c *Converter) ConvertFiles(sources []string, targetDir string, opts Options) error {
	for _, source := range sources {
		if err := c.ConvertFile(source, targetDir, AllToDir, opts); err != nil {
			return err
		}
	}

	return nil
}

// ConvertFile converts one file, resolving its destination from target and
// mode the way Resolve does. An existing destination is refused with
// ErrAlreadyExists, or skipped when opts.Skip is set.
func (c *Converter) ConvertFile(source, target string, mode Mode, opts Options) error {
	log := c.log()

	dest, err := c.resolve(source, target, mode)
	if err == nil {
		// the destination can appear while converting; the write refuses to replace it
		if err = c.convert(log, source, dest, opts); errors.Is(err, fs.ErrExist) {
			err = fmt.Errorf("%w: %s", ErrAlreadyExists, dest)
		}
	}
	if errors.Is(err, ErrAlreadyExists) && opts.Skip {
		log.Info(fmt.Sprintf("%s already exists, so skipping %s", filepath.Base(dest), filepath.Base(source)))
		return nil
	}

	return err
}
