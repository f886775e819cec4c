package sparse

import (
	"fmt"

	"github.com/gonum/matrix/mat64"
)

// ToDense materialises the matrix as a mat64.Dense. Duplicate coordinates are summed.
func (m *Matrix) ToDense() (*mat64.Dense, error) {
	if m.Rows == 0 || m.Cols == 0 {
		return nil, fmt.Errorf("%w: cannot densify a (%d, %d) matrix", ErrInvalidMatrix, m.Rows, m.Cols)
	}
	if n, ok := m.Capacity(); !ok || n > MaxDenseElems {
		return nil, fmt.Errorf("%w: (%d, %d) is too large to densify", ErrInvalidMatrix, m.Rows, m.Cols)
	}

	dense := mat64.NewDense(m.Rows, m.Cols, nil)
	if err := m.DenseInto(dense); err != nil {
		return nil, err
	}

	return dense, nil
}

// DenseInto writes the matrix into outputMat, which must have the same shape
func (m *Matrix) DenseInto(outputMat *mat64.Dense) error {
	rows, cols := outputMat.Dims()
	if rows != m.Rows || cols != m.Cols {
		return fmt.Errorf("%w: matrix is %d by %d, output is %d by %d", ErrDimensionMismatch, m.Rows, m.Cols, rows, cols)
	}

	raw := outputMat.RawMatrix()
	for i := 0; i < rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+cols]
		for j := range row {
			row[j] = 0
		}
	}

	for _, e := range m.Entries() {
		outputMat.Set(e.Row, e.Col, outputMat.At(e.Row, e.Col)+e.Value)
	}

	return nil
}

// FromDense builds a CSR matrix holding the nonzero values of inputMat
func FromDense(inputMat *mat64.Dense) *Matrix {
	rows, cols := inputMat.Dims()

	m := &Matrix{
		Rows:   rows,
		Cols:   cols,
		Format: CSR,
		Indptr: make([]int, rows+1),
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			value := inputMat.At(i, j)
			if value == 0 {
				continue
			}
			m.Indices = append(m.Indices, j)
			m.Data = append(m.Data, value)
		}
		m.Indptr[i+1] = len(m.Data)
	}

	return m
}
