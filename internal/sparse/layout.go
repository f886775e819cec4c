package sparse

import (
	"sort"
)

type minorValue struct {
	minor int
	value float64
}

// ToCOO returns the matrix in coordinate layout
func (m *Matrix) ToCOO() *Matrix {
	entries := m.Entries()

	out := &Matrix{
		Rows:   m.Rows,
		Cols:   m.Cols,
		Format: COO,
		Field:  m.Field,
		Row:    make([]int, len(entries)),
		Col:    make([]int, len(entries)),
		Data:   make([]float64, len(entries)),
	}

	for i, e := range entries {
		out.Row[i] = e.Row
		out.Col[i] = e.Col
		out.Data[i] = e.Value
	}

	return out
}

// ToCSR returns the matrix in compressed row layout.
// Duplicate coordinates are summed and column indices come out sorted within each row.
func (m *Matrix) ToCSR() *Matrix {
	entries := m.Entries()

	major := make([]int, len(entries))
	for i, e := range entries {
		major[i] = e.Row
	}

	indptr, indices, data := compress(m.Rows, major, entries, func(e Entry) int { return e.Col })

	return &Matrix{
		Rows:    m.Rows,
		Cols:    m.Cols,
		Format:  CSR,
		Field:   m.Field,
		Indptr:  indptr,
		Indices: indices,
		Data:    data,
	}
}

// ToCSC returns the matrix in compressed column layout, with the same canonicalisation as ToCSR
func (m *Matrix) ToCSC() *Matrix {
	entries := m.Entries()

	major := make([]int, len(entries))
	for i, e := range entries {
		major[i] = e.Col
	}

	indptr, indices, data := compress(m.Cols, major, entries, func(e Entry) int { return e.Row })

	return &Matrix{
		Rows:    m.Rows,
		Cols:    m.Cols,
		Format:  CSC,
		Field:   m.Field,
		Indptr:  indptr,
		Indices: indices,
		Data:    data,
	}
}

// To returns the matrix converted to layout f
func (m *Matrix) To(f Format) *Matrix {
	switch f {
	case CSR:
		return m.ToCSR()
	case CSC:
		return m.ToCSC()
	default:
		return m.ToCOO()
	}
}

// compress buckets entries by major index (counting sort), then sorts each bucket
// by minor index and folds duplicates together.
func compress(n int, major []int, entries []Entry, minorOf func(Entry) int) ([]int, []int, []float64) {
	counts := make([]int, n+1)
	for _, k := range major {
		counts[k+1]++
	}
	for i := 0; i < n; i++ {
		counts[i+1] += counts[i]
	}

	buckets := make([]minorValue, len(entries))
	next := make([]int, n)
	copy(next, counts[:n])
	for i, e := range entries {
		k := major[i]
		buckets[next[k]] = minorValue{minor: minorOf(e), value: e.Value}
		next[k]++
	}

	indptr := make([]int, n+1)
	indices := make([]int, 0, len(entries))
	data := make([]float64, 0, len(entries))

	for i := 0; i < n; i++ {
		seg := buckets[counts[i]:counts[i+1]]
		sort.SliceStable(seg, func(a, b int) bool {
			return seg[a].minor < seg[b].minor
		})

		start := len(indices)
		for _, p := range seg {
			last := len(indices) - 1
			if last >= start && indices[last] == p.minor {
				data[last] += p.value
				continue
			}
			indices = append(indices, p.minor)
			data = append(data, p.value)
		}
		indptr[i+1] = len(indices)
	}

	return indptr, indices, data
}
