package io

import (
	"bytes"
	"encoding/binary"
	"fmt"
	goio "io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"
	"github.com/gonum/matrix/mat64"
	"github.com/klauspost/compress/zip"
	"github.com/kshedden/gonpy"
)

// npyArray is a decoded .npy member. Numeric members fill Floats, integer members
// also fill Ints, byte and unicode scalars fill Text.
type npyArray struct {
	Dtype       string
	Shape       []int
	ColumnMajor bool

	Floats []float64
	Ints   []int
	Text   string
}

func (a *npyArray) isInteger() bool {
	return a.Dtype == "i4" || a.Dtype == "i8"
}

func (a *npyArray) isNumeric() bool {
	return a.isInteger() || a.Dtype == "f4" || a.Dtype == "f8"
}

type nopCloser struct {
	goio.Writer
}

func (nopCloser) Close() error { return nil }

// readNpy decodes one archive member
func readNpy(f *zip.File) (*npyArray, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, f.Name, err)
	}
	defer rc.Close()

	raw, err := goio.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, f.Name, err)
	}

	arr, err := decodeNpy(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, f.Name, err)
	}

	return arr, nil
}

var (
	npyDescrRe   = regexp.MustCompile(`'descr':\s*'([^']*)'`)
	npyFortranRe = regexp.MustCompile(`'fortran_order':\s*(False|True)`)
	npyShapeRe   = regexp.MustCompile(`'shape':\s*\(([^\(]*)\)`)
)

// checkNpyHeader parses the header the way gonpy does, and rejects the inputs
// gonpy panics on: an empty descr, non-integer or negative shape entries, and
// a shape whose element count the payload cannot hold.
func checkNpyHeader(raw []byte) error {
	if len(raw) < 10 || string(raw[:6]) != "\x93NUMPY" {
		return fmt.Errorf("not npy data")
	}

	var headerLen, start int
	switch raw[6] {
	case 1:
		headerLen, start = int(binary.LittleEndian.Uint16(raw[8:10])), 10
	case 2:
		if len(raw) < 12 {
			return fmt.Errorf("npy header truncated")
		}
		headerLen, start = int(binary.LittleEndian.Uint32(raw[8:12])), 12
	default:
		return fmt.Errorf("unsupported npy version %d", raw[6])
	}
	if headerLen > len(raw)-start {
		return fmt.Errorf("npy header of %d bytes is truncated", headerLen)
	}
	header := raw[start : start+headerLen]
	payload := len(raw) - start - headerLen

	ma := npyDescrRe.FindSubmatch(header)
	if ma == nil {
		return fmt.Errorf("dtype description not found in header")
	}
	descr := string(ma[1])
	if len(descr) < 2 {
		return fmt.Errorf("bad dtype %q", descr)
	}
	if npyFortranRe.Find(header) == nil {
		return fmt.Errorf("fortran_order not found in header")
	}

	ma = npyShapeRe.FindSubmatch(header)
	if ma == nil {
		return fmt.Errorf("shape not found in header")
	}
	count := 1
	for _, tok := range strings.Split(string(ma[1]), ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			break
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 {
			return fmt.Errorf("bad shape entry %q", tok)
		}
		if n != 0 && count > math.MaxInt/n {
			return fmt.Errorf("shape (%s) overflows", ma[1])
		}
		count *= n
	}

	itemSize, err := strconv.Atoi(descr[2:])
	if err != nil || itemSize < 0 {
		return fmt.Errorf("unsupported dtype %q", descr)
	}
	if descr[1] == 'U' {
		itemSize *= 4
	}
	if itemSize != 0 && count > payload/itemSize {
		return fmt.Errorf("shape (%s) of %s needs more than the %d payload bytes", ma[1], descr, payload)
	}

	return nil
}

func decodeNpy(raw []byte) (arr *npyArray, err error) {
	if err := checkNpyHeader(raw); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			arr, err = nil, fmt.Errorf("corrupt npy data: %v", r)
		}
	}()

	br := bytes.NewReader(raw)

	r, err := gonpy.NewReader(br)
	if err != nil {
		return nil, err
	}

	arr = &npyArray{
		Dtype:       r.Dtype,
		Shape:       r.Shape,
		ColumnMajor: r.ColumnMajor,
	}

	switch {
	case r.Dtype == "f8":
		arr.Floats, err = r.GetFloat64()
	case r.Dtype == "f4":
		var data []float32
		data, err = r.GetFloat32()
		arr.Floats = make([]float64, len(data))
		for i, v := range data {
			arr.Floats[i] = float64(v)
		}
	case r.Dtype == "i8":
		var data []int64
		data, err = r.GetInt64()
		if err == nil {
			arr.Ints, err = int64sToInts(data)
		}
	case r.Dtype == "i4":
		var data []int32
		data, err = r.GetInt32()
		arr.Ints = make([]int, len(data))
		for i, v := range data {
			arr.Ints[i] = int(v)
		}
	case strings.HasPrefix(r.Dtype, "S"):
		rest := raw[len(raw)-br.Len():]
		arr.Text = string(bytes.TrimRight(rest, "\x00"))
	case strings.HasPrefix(r.Dtype, "U"):
		arr.Text, err = decodeUTF32(raw[len(raw)-br.Len():], r.Endian)
	default:
		return nil, fmt.Errorf("unsupported dtype %q", r.Dtype)
	}
	if err != nil {
		return nil, err
	}

	if arr.Ints != nil {
		arr.Floats = make([]float64, len(arr.Ints))
		for i, v := range arr.Ints {
			arr.Floats[i] = float64(v)
		}
	}

	return arr, nil
}

func int64sToInts(data []int64) ([]int, error) {
	out := make([]int, len(data))
	for i, v := range data {
		n, err := safecast.Conv[int](v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}

	return out, nil
}

func decodeUTF32(b []byte, order binary.ByteOrder) (string, error) {
	if len(b)%4 != 0 {
		return "", fmt.Errorf("unicode payload of %d bytes is not a multiple of 4", len(b))
	}

	var sb strings.Builder
	for i := 0; i < len(b); i += 4 {
		r := rune(order.Uint32(b[i : i+4]))
		if r == 0 {
			break
		}
		if !utf8.ValidRune(r) {
			return "", fmt.Errorf("invalid code point %#x", r)
		}
		sb.WriteRune(r)
	}

	return sb.String(), nil
}

func createMember(zw *zip.Writer, name string, method uint16) (goio.Writer, error) {
	return zw.CreateHeader(&zip.FileHeader{Name: name + ".npy", Method: method})
}

func writeFloat64Npy(zw *zip.Writer, method uint16, name string, shape []int, data []float64) error {
	f, err := createMember(zw, name, method)
	if err != nil {
		return err
	}

	w, err := gonpy.NewWriter(nopCloser{f})
	if err != nil {
		return err
	}
	w.Shape = shape
	w.Version = 1

	return w.WriteFloat64(data)
}

func writeInt64Npy(zw *zip.Writer, method uint16, name string, shape []int, data []int64) error {
	f, err := createMember(zw, name, method)
	if err != nil {
		return err
	}

	w, err := gonpy.NewWriter(nopCloser{f})
	if err != nil {
		return err
	}
	w.Shape = shape
	w.Version = 1

	return w.WriteInt64(data)
}

func writeInt32Npy(zw *zip.Writer, method uint16, name string, shape []int, data []int32) error {
	f, err := createMember(zw, name, method)
	if err != nil {
		return err
	}

	w, err := gonpy.NewWriter(nopCloser{f})
	if err != nil {
		return err
	}
	w.Shape = shape
	w.Version = 1

	return w.WriteInt32(data)
}

// writeIndexNpy stores indices as int32 when every value fits, int64 otherwise
func writeIndexNpy(zw *zip.Writer, method uint16, name string, data []int) error {
	narrow := make([]int32, len(data))
	for i, v := range data {
		n, err := safecast.Conv[int32](v)
		if err != nil {
			wide := make([]int64, len(data))
			for k, x := range data {
				wide[k] = int64(x)
			}
			return writeInt64Npy(zw, method, name, []int{len(wide)}, wide)
		}
		narrow[i] = n
	}

	return writeInt32Npy(zw, method, name, []int{len(narrow)}, narrow)
}

// writeBytesScalarNpy stores s as a 0-d numpy bytes scalar ('|S<n>'), the way
// numpy saves the result of str.encode. gonpy has no string dtypes.
func writeBytesScalarNpy(zw *zip.Writer, method uint16, name, s string) error {
	f, err := createMember(zw, name, method)
	if err != nil {
		return err
	}

	header := fmt.Sprintf("{'descr': '|S%d', 'fortran_order': False, 'shape': (), }", len(s))
	// magic(6) + version(2) + length(2) + header + '\n' is padded to 64 bytes
	pad := 64 - (10+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"

	hl, err := safecast.Conv[uint16](len(header))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, hl)
	buf.WriteString(header)
	buf.WriteString(s)

	_, err = f.Write(buf.Bytes())
	return err
}

// npytoMat64 turns a 2-D numeric member into a mat64.Dense
func npytoMat64(arr *npyArray) (*mat64.Dense, error) {
	if len(arr.Shape) != 2 {
		return nil, fmt.Errorf("%w: expected a 2-d array, got shape %v", ErrUnsupportedFormat, arr.Shape)
	}
	rows, cols := arr.Shape[0], arr.Shape[1]
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: empty array of shape %v", ErrUnsupportedFormat, arr.Shape)
	}
	if !arr.isNumeric() || len(arr.Floats) != rows*cols {
		return nil, fmt.Errorf("%w: array of dtype %s does not hold %d numbers", ErrUnsupportedFormat, arr.Dtype, rows*cols)
	}

	if !arr.ColumnMajor {
		return mat64.NewDense(rows, cols, arr.Floats), nil
	}

	matrix := mat64.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			matrix.Set(i, j, arr.Floats[j*rows+i])
		}
	}

	return matrix, nil
}

// mat64toNpy writes matrix as a C-order float64 member
func mat64toNpy(zw *zip.Writer, method uint16, name string, matrix *mat64.Dense) error {
	rows, cols := matrix.Dims()
	rawMat := matrix.RawMatrix()

	data := rawMat.Data
	if rawMat.Stride != cols {
		data = make([]float64, 0, rows*cols)
		for i := 0; i < rows; i++ {
			data = append(data, rawMat.Data[i*rawMat.Stride:i*rawMat.Stride+cols]...)
		}
	}

	return writeFloat64Npy(zw, method, name, []int{rows, cols}, data[:rows*cols])
}
