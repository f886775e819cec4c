package sparse_test

import (
	"testing"

	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/require"

	"github.com/KyungWonPark/mtxconv/internal/sparse"
)

func sample(t *testing.T) *sparse.Matrix {
	t.Helper()

	// [ 0 5 0 ]
	// [ 1 0 2 ]
	m, err := sparse.NewCOO(2, 3, []sparse.Entry{
		{Row: 1, Col: 2, Value: 2},
		{Row: 0, Col: 1, Value: 5},
		{Row: 1, Col: 0, Value: 1},
	})
	require.NoError(t, err)
	return m
}

func TestNewCOO_OutOfRange(t *testing.T) {
	_, err := sparse.NewCOO(2, 2, []sparse.Entry{{Row: 2, Col: 0, Value: 1}})
	require.ErrorIs(t, err, sparse.ErrInvalidMatrix)

	_, err = sparse.NewCOO(2, 2, []sparse.Entry{{Row: 0, Col: -1, Value: 1}})
	require.ErrorIs(t, err, sparse.ErrInvalidMatrix)
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"coo", "csr", "csc"} {
		f, err := sparse.ParseFormat(name)
		require.NoError(t, err)
		require.Equal(t, sparse.Format(name), f)
	}

	_, err := sparse.ParseFormat("dia")
	require.ErrorIs(t, err, sparse.ErrInvalidMatrix)
}

func TestToCSR(t *testing.T) {
	csr := sample(t).ToCSR()

	require.Equal(t, sparse.CSR, csr.Format)
	require.Equal(t, []int{0, 1, 3}, csr.Indptr)
	require.Equal(t, []int{1, 0, 2}, csr.Indices)
	require.Equal(t, []float64{5, 1, 2}, csr.Data)
	require.NoError(t, csr.Validate())
}

func TestToCSC(t *testing.T) {
	csc := sample(t).ToCSC()

	require.Equal(t, sparse.CSC, csc.Format)
	require.Equal(t, []int{0, 1, 2, 3}, csc.Indptr)
	require.Equal(t, []int{1, 0, 1}, csc.Indices)
	require.Equal(t, []float64{1, 5, 2}, csc.Data)
	require.NoError(t, csc.Validate())
}

func TestToCSR_SumsDuplicates(t *testing.T) {
	m, err := sparse.NewCOO(2, 2, []sparse.Entry{
		{Row: 0, Col: 1, Value: 1.5},
		{Row: 1, Col: 1, Value: 3},
		{Row: 0, Col: 1, Value: 2},
		{Row: 0, Col: 0, Value: 0},
	})
	require.NoError(t, err)

	csr := m.ToCSR()
	require.Equal(t, []int{0, 2, 3}, csr.Indptr)
	require.Equal(t, []int{0, 1, 1}, csr.Indices)
	// explicit zeros stay stored
	require.Equal(t, []float64{0, 3.5, 3}, csr.Data)
}

func TestLayouts_SameEntries(t *testing.T) {
	m := sample(t)
	want := m.ToCSR().Entries()

	require.Equal(t, want, m.ToCSC().ToCSR().Entries())
	require.Equal(t, want, m.ToCOO().ToCSR().Entries())
	require.Equal(t, want, m.To(sparse.CSR).Entries())
	require.Equal(t, sparse.CSC, m.To(sparse.CSC).Format)
	require.Equal(t, sparse.COO, m.To(sparse.COO).Format)
}

func TestValidate_Compressed(t *testing.T) {
	tests := []struct {
		name string
		m    sparse.Matrix
	}{
		{"short indptr", sparse.Matrix{Rows: 2, Cols: 2, Format: sparse.CSR, Indptr: []int{0, 1}, Indices: []int{0}, Data: []float64{1}}},
		{"indptr end", sparse.Matrix{Rows: 1, Cols: 2, Format: sparse.CSR, Indptr: []int{0, 2}, Indices: []int{0}, Data: []float64{1}}},
		{"decreasing", sparse.Matrix{Rows: 2, Cols: 2, Format: sparse.CSR, Indptr: []int{0, 2, 1}, Indices: []int{0}, Data: []float64{1}}},
		{"index range", sparse.Matrix{Rows: 1, Cols: 2, Format: sparse.CSC, Indptr: []int{0, 1, 1}, Indices: []int{3}, Data: []float64{1}}},
		{"unknown layout", sparse.Matrix{Rows: 1, Cols: 1, Format: "dia"}},
		{"negative shape", sparse.Matrix{Rows: -1, Cols: 1, Format: sparse.COO}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.m.Validate(), sparse.ErrInvalidMatrix)
		})
	}
}

func TestDense_RoundTrip(t *testing.T) {
	m := sample(t)

	dense, err := m.ToDense()
	require.NoError(t, err)
	require.True(t, mat64.Equal(dense, mat64.NewDense(2, 3, []float64{
		0, 5, 0,
		1, 0, 2,
	})))

	back := sparse.FromDense(dense)
	require.Equal(t, m.ToCSR().Entries(), back.Entries())
}

func TestDenseInto_Mismatch(t *testing.T) {
	err := sample(t).DenseInto(mat64.NewDense(3, 3, nil))
	require.ErrorIs(t, err, sparse.ErrDimensionMismatch)
}

func TestToDense_Empty(t *testing.T) {
	m, err := sparse.NewCOO(0, 4, nil)
	require.NoError(t, err)

	_, err = m.ToDense()
	require.ErrorIs(t, err, sparse.ErrInvalidMatrix)
}

func TestToDense_TooLarge(t *testing.T) {
	m, err := sparse.NewCOO(100000, 100000, []sparse.Entry{{Row: 5, Col: 5, Value: 1}})
	require.NoError(t, err)

	_, err = m.ToDense()
	require.ErrorIs(t, err, sparse.ErrInvalidMatrix)
}

func TestValidate_ShapeLimit(t *testing.T) {
	_, err := sparse.NewCOO(sparse.MaxDim+1, 1, nil)
	require.ErrorIs(t, err, sparse.ErrInvalidMatrix)

	m := &sparse.Matrix{Rows: 1, Cols: sparse.MaxDim + 1, Format: sparse.CSR, Indptr: []int{0, 0}}
	require.ErrorIs(t, m.Validate(), sparse.ErrInvalidMatrix)

	n, ok := (&sparse.Matrix{Rows: sparse.MaxDim, Cols: 3}).Capacity()
	require.True(t, ok)
	require.Equal(t, sparse.MaxDim*3, n)
}
