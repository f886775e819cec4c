package io

import (
	"bufio"
	"fmt"
	goio "io"
	"os"
	"path/filepath"

	"github.com/gonum/matrix/mat64"

	"github.com/KyungWonPark/mtxconv/internal/sparse"
)

// writeAtomic writes path through a temporary sibling that is linked into place
// only after write succeeds. Nothing is left behind on failure. An existing path
// is never replaced: the error then matches fs.ErrExist.
func writeAtomic(path string, write func(goio.Writer) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("[writeAtomic] failed to create file in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	if err = os.Link(tmp.Name(), path); err != nil {
		return err
	}
	_ = os.Remove(tmp.Name())

	return nil
}

func readFile(path string, read func(goio.ReaderAt, int64) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	return read(f, info.Size())
}

// MtxtoSparse reads a Matrix Market file
func MtxtoSparse(path string) (*sparse.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := ReadMtx(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// MtxtoMat64 reads a Matrix Market file as a dense matrix
func MtxtoMat64(path string) (*mat64.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	matrix, err := ReadDenseMtx(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return matrix, nil
}

// NpztoSparse reads an archive written by scipy.sparse.save_npz
func NpztoSparse(path string) (*sparse.Matrix, error) {
	var m *sparse.Matrix
	err := readFile(path, func(r goio.ReaderAt, size int64) (err error) {
		m, err = ReadNpz(r, size)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// NpztoMat64 reads the arr_0 array of an archive written by numpy.savez
func NpztoMat64(path string) (*mat64.Dense, error) {
	var matrix *mat64.Dense
	err := readFile(path, func(r goio.ReaderAt, size int64) (err error) {
		matrix, err = ReadDenseNpz(r, size)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return matrix, nil
}

// SparsetoMtx writes m to a Matrix Market file
func SparsetoMtx(path string, m *sparse.Matrix) error {
	return writeAtomic(path, func(w goio.Writer) error {
		return WriteMtx(w, m)
	})
}

// Mat64toMtx writes matrix to a Matrix Market file in array format
func Mat64toMtx(path string, matrix *mat64.Dense) error {
	return writeAtomic(path, func(w goio.Writer) error {
		return WriteDenseMtx(w, matrix)
	})
}

// SparsetoNpz writes m to an npz archive loadable by scipy.sparse.load_npz
func SparsetoNpz(path string, m *sparse.Matrix, compressed bool) error {
	return writeAtomic(path, func(w goio.Writer) error {
		return WriteNpz(w, m, compressed)
	})
}

// Mat64toNpz writes matrix to an npz archive loadable by numpy.load
func Mat64toNpz(path string, matrix *mat64.Dense, compressed bool) error {
	return writeAtomic(path, func(w goio.Writer) error {
		return WriteDenseNpz(w, matrix, compressed)
	})
}
