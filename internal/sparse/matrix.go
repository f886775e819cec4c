// Package sparse holds the in-memory sparse matrix shared by every converter.
package sparse

import (
	"fmt"
	"math"
)

// Format is the storage layout of a Matrix
type Format string

// Supported layouts, named the way scipy.sparse names them
const (
	COO Format = "coo"
	CSR Format = "csr"
	CSC Format = "csc"
)

// MaxDim is the largest dimension Validate accepts. ToCSR and ToCSC allocate
// one index pointer per row or column.
const MaxDim = math.MaxInt32

// MaxDenseElems bounds Rows*Cols for ToDense
const MaxDenseElems = math.MaxInt32

// ParseFormat maps a layout name to a Format
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case COO, CSR, CSC:
		return f, nil
	}

	return "", fmt.Errorf("%w: unknown layout %q", ErrInvalidMatrix, s)
}

// Field tells writers how values should be represented on disk
type Field int

const (
	// Real values are written as floating point
	Real Field = iota
	// Integer values are written as integers
	Integer
	// Pattern matrices only carry structure; values are 1
	Pattern
)

func (f Field) String() string {
	switch f {
	case Integer:
		return "integer"
	case Pattern:
		return "pattern"
	default:
		return "real"
	}
}

// Entry is a single stored value
type Entry struct {
	Row   int
	Col   int
	Value float64
}

// Matrix is a sparse matrix in one of the COO, CSR or CSC layouts.
//
// COO uses Row, Col and Data as parallel arrays.
// CSR uses Indptr (len Rows+1) and Indices holding column numbers.
// CSC uses Indptr (len Cols+1) and Indices holding row numbers.
type Matrix struct {
	Rows   int
	Cols   int
	Format Format
	Field  Field

	Row []int
	Col []int

	Indptr  []int
	Indices []int

	Data []float64
}

// NewCOO builds a COO matrix from entries
func NewCOO(rows, cols int, entries []Entry) (*Matrix, error) {
	m := &Matrix{
		Rows:   rows,
		Cols:   cols,
		Format: COO,
		Row:    make([]int, len(entries)),
		Col:    make([]int, len(entries)),
		Data:   make([]float64, len(entries)),
	}

	for i, e := range entries {
		m.Row[i] = e.Row
		m.Col[i] = e.Col
		m.Data[i] = e.Value
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// Capacity returns Rows*Cols, or false when the product overflows int
func (m *Matrix) Capacity() (int, bool) {
	return mulDims(m.Rows, m.Cols)
}

func mulDims(rows, cols int) (int, bool) {
	if rows < 0 || cols < 0 {
		return 0, false
	}
	if rows != 0 && cols > math.MaxInt/rows {
		return 0, false
	}

	return rows * cols, true
}

// Dims returns the shape
func (m *Matrix) Dims() (int, int) {
	return m.Rows, m.Cols
}

// NNZ returns the number of stored values, explicit zeros included
func (m *Matrix) NNZ() int {
	return len(m.Data)
}

// Validate checks that the arrays describe a well-formed matrix of the declared shape
func (m *Matrix) Validate() error {
	if m.Rows < 0 || m.Cols < 0 {
		return fmt.Errorf("%w: negative shape (%d, %d)", ErrInvalidMatrix, m.Rows, m.Cols)
	}
	if m.Rows > MaxDim || m.Cols > MaxDim {
		return fmt.Errorf("%w: shape (%d, %d) exceeds %d", ErrInvalidMatrix, m.Rows, m.Cols, MaxDim)
	}

	switch m.Format {
	case COO:
		if len(m.Row) != len(m.Data) || len(m.Col) != len(m.Data) {
			return fmt.Errorf("%w: coo arrays differ in length: row %d, col %d, data %d",
				ErrInvalidMatrix, len(m.Row), len(m.Col), len(m.Data))
		}
		for i := range m.Data {
			if err := m.checkCoord(m.Row[i], m.Col[i]); err != nil {
				return err
			}
		}
	case CSR:
		return m.validateCompressed(m.Rows, m.Cols)
	case CSC:
		return m.validateCompressed(m.Cols, m.Rows)
	default:
		return fmt.Errorf("%w: unknown layout %q", ErrInvalidMatrix, m.Format)
	}

	return nil
}

func (m *Matrix) checkCoord(row, col int) error {
	if row < 0 || row >= m.Rows || col < 0 || col >= m.Cols {
		return fmt.Errorf("%w: entry (%d, %d) outside shape (%d, %d)", ErrInvalidMatrix, row, col, m.Rows, m.Cols)
	}

	return nil
}

// major is the compressed dimension, minor the one Indices point into
func (m *Matrix) validateCompressed(major, minor int) error {
	if len(m.Indptr) != major+1 {
		return fmt.Errorf("%w: %s indptr has length %d, want %d", ErrInvalidMatrix, m.Format, len(m.Indptr), major+1)
	}
	if len(m.Indices) != len(m.Data) {
		return fmt.Errorf("%w: %s indices has length %d, data has %d", ErrInvalidMatrix, m.Format, len(m.Indices), len(m.Data))
	}
	if m.Indptr[0] != 0 || m.Indptr[major] != len(m.Data) {
		return fmt.Errorf("%w: %s indptr must run from 0 to %d", ErrInvalidMatrix, m.Format, len(m.Data))
	}

	for i := 0; i < major; i++ {
		if m.Indptr[i] > m.Indptr[i+1] {
			return fmt.Errorf("%w: %s indptr decreases at %d", ErrInvalidMatrix, m.Format, i)
		}
	}

	for _, idx := range m.Indices {
		if idx < 0 || idx >= minor {
			return fmt.Errorf("%w: %s index %d outside [0, %d)", ErrInvalidMatrix, m.Format, idx, minor)
		}
	}

	return nil
}

// Entries lists every stored value.
// CSR yields row-major order, CSC column-major, COO its stored order.
func (m *Matrix) Entries() []Entry {
	entries := make([]Entry, 0, m.NNZ())

	switch m.Format {
	case COO:
		for i, v := range m.Data {
			entries = append(entries, Entry{Row: m.Row[i], Col: m.Col[i], Value: v})
		}
	case CSR:
		for r := 0; r < m.Rows; r++ {
			for k := m.Indptr[r]; k < m.Indptr[r+1]; k++ {
				entries = append(entries, Entry{Row: r, Col: m.Indices[k], Value: m.Data[k]})
			}
		}
	case CSC:
		for c := 0; c < m.Cols; c++ {
			for k := m.Indptr[c]; k < m.Indptr[c+1]; k++ {
				entries = append(entries, Entry{Row: m.Indices[k], Col: c, Value: m.Data[k]})
			}
		}
	}

	return entries
}
