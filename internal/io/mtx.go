package io

import (
	"bufio"
	"fmt"
	goio "io"
	"math"
	"strconv"
	"strings"

	"github.com/gonum/matrix/mat64"

	"github.com/KyungWonPark/mtxconv/internal/sparse"
)

const mtxBanner = "%%MatrixMarket"

// maxPrealloc caps slices sized from counts a file declares; append grows past it
const maxPrealloc = 1 << 20

type mtxHeader struct {
	layout   string // coordinate | array
	field    sparse.Field
	symmetry string // general | symmetric | skew-symmetric
}

// mtxScanner yields the non-blank, non-comment lines of a Matrix Market body
type mtxScanner struct {
	s    *bufio.Scanner
	line int
}

func (ms *mtxScanner) next() ([]string, bool) {
	for ms.s.Scan() {
		ms.line++
		text := strings.TrimSpace(ms.s.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		return strings.Fields(text), true
	}

	return nil, false
}

func (ms *mtxScanner) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: matrix market line %d: %s", ErrUnsupportedFormat, ms.line, fmt.Sprintf(format, args...))
}

func parseMtxHeader(line string) (*mtxHeader, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) != 5 || fields[0] != strings.ToLower(mtxBanner) {
		return nil, fmt.Errorf("%w: missing %s header", ErrUnsupportedFormat, mtxBanner)
	}
	if fields[1] != "matrix" {
		return nil, fmt.Errorf("%w: object %q is not a matrix", ErrUnsupportedFormat, fields[1])
	}

	h := &mtxHeader{layout: fields[2], symmetry: fields[4]}

	switch h.layout {
	case "coordinate", "array":
	default:
		return nil, fmt.Errorf("%w: unknown matrix market format %q", ErrUnsupportedFormat, h.layout)
	}

	switch fields[3] {
	case "real", "double":
		h.field = sparse.Real
	case "integer":
		h.field = sparse.Integer
	case "pattern":
		if h.layout == "array" {
			return nil, fmt.Errorf("%w: pattern field requires coordinate format", ErrUnsupportedFormat)
		}
		h.field = sparse.Pattern
	default:
		return nil, fmt.Errorf("%w: unsupported field %q", ErrUnsupportedFormat, fields[3])
	}

	switch h.symmetry {
	case "general", "symmetric", "skew-symmetric":
	default:
		return nil, fmt.Errorf("%w: unsupported symmetry %q", ErrUnsupportedFormat, h.symmetry)
	}

	return h, nil
}

func parseMtxValue(h *mtxHeader, s string) (float64, error) {
	if h.field == sparse.Integer {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, err
		}
		if _, err := integerValue(float64(v)); err != nil {
			return 0, err
		}
		return float64(v), nil
	}

	return strconv.ParseFloat(s, 64)
}

// integerValue converts a value of an integer field back to int64. Values
// within 512 of the int64 limits round to 2^63 as float64 and are rejected.
func integerValue(v float64) (int64, error) {
	const limit = 1 << 63
	if v != math.Trunc(v) || v < -limit || v >= limit {
		return 0, fmt.Errorf("%w: integer value %g out of int64 range", ErrUnsupportedFormat, v)
	}

	return int64(v), nil
}

// parseMtx reads a Matrix Market stream into a COO matrix with symmetric storage expanded.
// Zeros listed in array format are dropped.
func parseMtx(r goio.Reader) (*sparse.Matrix, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)

	if !s.Scan() {
		if err := s.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: empty matrix market file", ErrUnsupportedFormat)
	}
	h, err := parseMtxHeader(s.Text())
	if err != nil {
		return nil, err
	}

	ms := &mtxScanner{s: s, line: 1}

	size, ok := ms.next()
	if !ok {
		return nil, ms.errorf("missing size line")
	}

	wantSize := 3
	if h.layout == "array" {
		wantSize = 2
	}
	if len(size) != wantSize {
		return nil, ms.errorf("size line has %d fields, want %d", len(size), wantSize)
	}

	dims := make([]int, wantSize)
	for i, tok := range size {
		dims[i], err = strconv.Atoi(tok)
		if err != nil || dims[i] < 0 {
			return nil, ms.errorf("bad size %q", tok)
		}
	}
	rows, cols := dims[0], dims[1]
	if rows > sparse.MaxDim || cols > sparse.MaxDim {
		return nil, ms.errorf("shape %d by %d exceeds %d", rows, cols, sparse.MaxDim)
	}
	if h.layout == "coordinate" {
		// rows and cols are at most MaxInt32, so the product fits int64
		if capacity := int64(rows) * int64(cols); int64(dims[2]) > capacity {
			return nil, ms.errorf("%d entries do not fit a %d by %d matrix", dims[2], rows, cols)
		}
	}

	var entries []sparse.Entry
	if h.layout == "coordinate" {
		entries, err = readCoordinate(ms, h, rows, cols, dims[2])
	} else {
		entries, err = readArray(ms, h, rows, cols)
	}
	if err != nil {
		return nil, err
	}

	if rest, ok := ms.next(); ok {
		return nil, ms.errorf("unexpected trailing data %q", strings.Join(rest, " "))
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	m, err := sparse.NewCOO(rows, cols, entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	m.Field = h.field

	return m, nil
}

func readCoordinate(ms *mtxScanner, h *mtxHeader, rows, cols, nnz int) ([]sparse.Entry, error) {
	want := 3
	if h.field == sparse.Pattern {
		want = 2
	}

	entries := make([]sparse.Entry, 0, min(nnz, maxPrealloc))
	for k := 0; k < nnz; k++ {
		tok, ok := ms.next()
		if !ok {
			return nil, ms.errorf("expected %d entries, found %d", nnz, k)
		}
		if len(tok) != want {
			return nil, ms.errorf("entry has %d fields, want %d", len(tok), want)
		}

		i, err0 := strconv.Atoi(tok[0])
		j, err1 := strconv.Atoi(tok[1])
		if err0 != nil || err1 != nil {
			return nil, ms.errorf("bad coordinate %q %q", tok[0], tok[1])
		}
		if i < 1 || i > rows || j < 1 || j > cols {
			return nil, ms.errorf("coordinate (%d, %d) outside %d by %d", i, j, rows, cols)
		}

		value := 1.0
		if h.field != sparse.Pattern {
			v, err := parseMtxValue(h, tok[2])
			if err != nil {
				return nil, ms.errorf("bad value %q", tok[2])
			}
			value = v
		}

		e := sparse.Entry{Row: i - 1, Col: j - 1, Value: value}
		entries = append(entries, e)

		if h.symmetry != "general" && e.Row != e.Col {
			mirror := sparse.Entry{Row: e.Col, Col: e.Row, Value: e.Value}
			if h.symmetry == "skew-symmetric" {
				mirror.Value = -e.Value
			}
			entries = append(entries, mirror)
		}
	}

	return entries, nil
}

// readArray reads column-major dense values. Symmetric storage lists the lower
// triangle only, skew-symmetric the strict lower triangle.
func readArray(ms *mtxScanner, h *mtxHeader, rows, cols int) ([]sparse.Entry, error) {
	if h.symmetry != "general" && rows != cols {
		return nil, ms.errorf("%s array must be square, got %d by %d", h.symmetry, rows, cols)
	}

	var entries []sparse.Entry
	for j := 0; j < cols; j++ {
		start := 0
		switch h.symmetry {
		case "symmetric":
			start = j
		case "skew-symmetric":
			start = j + 1
		}

		for i := start; i < rows; i++ {
			tok, ok := ms.next()
			if !ok {
				return nil, ms.errorf("array ends early at (%d, %d)", i+1, j+1)
			}
			if len(tok) != 1 {
				return nil, ms.errorf("array entry has %d fields, want 1", len(tok))
			}

			value, err := parseMtxValue(h, tok[0])
			if err != nil {
				return nil, ms.errorf("bad value %q", tok[0])
			}
			if value == 0 {
				continue
			}

			entries = append(entries, sparse.Entry{Row: i, Col: j, Value: value})
			switch {
			case h.symmetry == "symmetric" && i != j:
				entries = append(entries, sparse.Entry{Row: j, Col: i, Value: value})
			case h.symmetry == "skew-symmetric":
				entries = append(entries, sparse.Entry{Row: j, Col: i, Value: -value})
			}
		}
	}

	return entries, nil
}

// ReadMtx parses Matrix Market text into a COO matrix
func ReadMtx(r goio.Reader) (*sparse.Matrix, error) {
	return parseMtx(r)
}

// ReadDenseMtx parses Matrix Market text into a mat64.Dense
func ReadDenseMtx(r goio.Reader) (*mat64.Dense, error) {
	m, err := parseMtx(r)
	if err != nil {
		return nil, err
	}

	dense, err := m.ToDense()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	return dense, nil
}

func formatMtxValue(field sparse.Field, v float64) (string, error) {
	if field == sparse.Integer {
		n, err := integerValue(v)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	}

	return strconv.FormatFloat(v, 'g', -1, 64), nil
}

// WriteMtx writes m as a general coordinate Matrix Market file.
// Entries keep the matrix's own order: row-major for CSR.
func WriteMtx(w goio.Writer, m *sparse.Matrix) error {
	field := sparse.Real
	if m.Field == sparse.Integer {
		field = sparse.Integer
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s matrix coordinate %s general\n", mtxBanner, field)
	fmt.Fprintf(bw, "%d %d %d\n", m.Rows, m.Cols, m.NNZ())

	for _, e := range m.Entries() {
		value, err := formatMtxValue(field, e.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "%d %d %s\n", e.Row+1, e.Col+1, value)
	}

	return bw.Flush()
}

// WriteDenseMtx writes matrix as a general array Matrix Market file (column-major values)
func WriteDenseMtx(w goio.Writer, matrix *mat64.Dense) error {
	rows, cols := matrix.Dims()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s matrix array real general\n", mtxBanner)
	fmt.Fprintf(bw, "%d %d\n", rows, cols)

	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			fmt.Fprintf(bw, "%s\n", strconv.FormatFloat(matrix.At(i, j), 'g', -1, 64))
		}
	}

	return bw.Flush()
}
