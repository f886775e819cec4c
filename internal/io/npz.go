package io

import (
	"fmt"
	goio "io"
	"strings"

	"github.com/gonum/matrix/mat64"
	"github.com/klauspost/compress/zip"

	"github.com/KyungWonPark/mtxconv/internal/sparse"
)

// denseMember is the name numpy.savez gives its first positional array
const denseMember = "arr_0"

func openNpz(r goio.ReaderAt, size int64) (map[string]*zip.File, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: not an npz archive: %w", ErrUnsupportedFormat, err)
	}

	members := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		members[strings.TrimSuffix(f.Name, ".npy")] = f
	}

	return members, nil
}

func readMember(members map[string]*zip.File, name string) (*npyArray, error) {
	f, ok := members[name]
	if !ok {
		return nil, fmt.Errorf("%w: archive has no %q array", ErrUnsupportedFormat, name)
	}

	return readNpy(f)
}

func readIndexMember(members map[string]*zip.File, name string) ([]int, error) {
	arr, err := readMember(members, name)
	if err != nil {
		return nil, err
	}
	if !arr.isInteger() || len(arr.Shape) != 1 {
		return nil, fmt.Errorf("%w: %s must be a 1-d integer array, got %s %v", ErrUnsupportedFormat, name, arr.Dtype, arr.Shape)
	}

	return arr.Ints, nil
}

// ReadNpz decodes an archive written by scipy.sparse.save_npz.
// Only the coo, csr and csc layouts are understood.
func ReadNpz(r goio.ReaderAt, size int64) (*sparse.Matrix, error) {
	members, err := openNpz(r, size)
	if err != nil {
		return nil, err
	}

	if _, ok := members["format"]; !ok {
		return nil, fmt.Errorf("%w: archive does not contain a sparse matrix", ErrUnsupportedFormat)
	}

	formatArr, err := readMember(members, "format")
	if err != nil {
		return nil, err
	}
	format, err := sparse.ParseFormat(formatArr.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	shape, err := readIndexMember(members, "shape")
	if err != nil {
		return nil, err
	}
	if len(shape) != 2 {
		return nil, fmt.Errorf("%w: shape has %d dimensions, want 2", ErrUnsupportedFormat, len(shape))
	}

	data, err := readMember(members, "data")
	if err != nil {
		return nil, err
	}
	if !data.isNumeric() || len(data.Shape) != 1 {
		return nil, fmt.Errorf("%w: data must be a 1-d numeric array, got %s %v", ErrUnsupportedFormat, data.Dtype, data.Shape)
	}

	m := &sparse.Matrix{
		Rows:   shape[0],
		Cols:   shape[1],
		Format: format,
		Data:   data.Floats,
	}
	if data.isInteger() {
		m.Field = sparse.Integer
		for _, v := range data.Floats {
			if _, err := integerValue(v); err != nil {
				return nil, err
			}
		}
	}

	if format == sparse.COO {
		if m.Row, err = readIndexMember(members, "row"); err != nil {
			return nil, err
		}
		if m.Col, err = readIndexMember(members, "col"); err != nil {
			return nil, err
		}
	} else {
		if m.Indices, err = readIndexMember(members, "indices"); err != nil {
			return nil, err
		}
		if m.Indptr, err = readIndexMember(members, "indptr"); err != nil {
			return nil, err
		}
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	return m, nil
}

// WriteNpz writes m with the member set of scipy.sparse.save_npz
func WriteNpz(w goio.Writer, m *sparse.Matrix, compressed bool) error {
	if err := m.Validate(); err != nil {
		return err
	}

	method := zip.Store
	if compressed {
		method = zip.Deflate
	}

	zw := zip.NewWriter(w)

	var err error
	if m.Format == sparse.COO {
		err = writeIndexNpy(zw, method, "row", m.Row)
		if err == nil {
			err = writeIndexNpy(zw, method, "col", m.Col)
		}
	} else {
		err = writeIndexNpy(zw, method, "indices", m.Indices)
		if err == nil {
			err = writeIndexNpy(zw, method, "indptr", m.Indptr)
		}
	}
	if err == nil {
		err = writeBytesScalarNpy(zw, method, "format", string(m.Format))
	}
	if err == nil {
		err = writeInt64Npy(zw, method, "shape", []int{2}, []int64{int64(m.Rows), int64(m.Cols)})
	}
	if err == nil {
		err = writeDataNpy(zw, method, m)
	}
	if err != nil {
		_ = zw.Close()
		return err
	}

	return zw.Close()
}

func writeDataNpy(zw *zip.Writer, method uint16, m *sparse.Matrix) error {
	if m.Field != sparse.Integer {
		return writeFloat64Npy(zw, method, "data", []int{len(m.Data)}, m.Data)
	}

	data := make([]int64, len(m.Data))
	for i, v := range m.Data {
		n, err := integerValue(v)
		if err != nil {
			return err
		}
		data[i] = n
	}

	return writeInt64Npy(zw, method, "data", []int{len(data)}, data)
}

// ReadDenseNpz decodes the arr_0 member of an archive written by numpy.savez
func ReadDenseNpz(r goio.ReaderAt, size int64) (*mat64.Dense, error) {
	members, err := openNpz(r, size)
	if err != nil {
		return nil, err
	}

	arr, err := readMember(members, denseMember)
	if err != nil {
		return nil, err
	}

	return npytoMat64(arr)
}

// WriteDenseNpz writes matrix as the arr_0 member, the way numpy.savez(path, matrix) does
func WriteDenseNpz(w goio.Writer, matrix *mat64.Dense, compressed bool) error {
	method := zip.Store
	if compressed {
		method = zip.Deflate
	}

	zw := zip.NewWriter(w)
	if err := mat64toNpy(zw, method, denseMember, matrix); err != nil {
		_ = zw.Close()
		return err
	}

	return zw.Close()
}
