package convert_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KyungWonPark/mtxconv/internal/convert"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestDetectMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mtx")
	touch(t, src)
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0o755))

	tests := []struct {
		name      string
		source    string
		target    string
		recursive bool
		want      convert.Mode
	}{
		{"in place", src, "", false, convert.FileInPlace},
		{"to dir", src, out, false, convert.FileToDir},
		{"to file", src, filepath.Join(out, "b.npz"), false, convert.FileToFile},
		{"all in place", dir, "", true, convert.AllInPlace},
		{"all to dir", dir, out, true, convert.AllToDir},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mode, err := convert.DetectMode(tc.source, tc.target, tc.recursive)
			require.NoError(t, err)
			require.Equal(t, tc.want, mode)
		})
	}
}

func TestDetectMode_Errors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mtx")
	touch(t, src)

	_, err := convert.DetectMode(filepath.Join(dir, "missing.mtx"), "", false)
	require.ErrorIs(t, err, convert.ErrSourceNotFound)

	_, err = convert.DetectMode(src, "", true)
	require.ErrorIs(t, err, convert.ErrInvalidArguments)

	_, err = convert.DetectMode(dir, "", false)
	require.ErrorIs(t, err, convert.ErrInvalidArguments)

	_, err = convert.DetectMode(dir, src, true)
	require.ErrorIs(t, err, convert.ErrInvalidArguments)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mtx")
	touch(t, src)
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0o755))

	c := convert.MtxToNpz()

	dest, err := c.Resolve(src, "")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "a.npz"), dest)

	dest, err = c.Resolve(src, out)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(out, "a.npz"), dest)

	// explicit target files are used verbatim
	dest, err = c.Resolve(src, filepath.Join(out, "renamed.bin"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(out, "renamed.bin"), dest)
}

func TestResolve_Errors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mtx")
	touch(t, src)
	existing := filepath.Join(dir, "taken.npz")
	touch(t, existing)
	wrongExt := filepath.Join(dir, "a.txt")
	touch(t, wrongExt)

	c := convert.MtxToNpz()

	_, err := c.Resolve(src, existing)
	require.ErrorIs(t, err, convert.ErrAlreadyExists)

	_, err = c.Resolve(filepath.Join(dir, "nope.mtx"), "")
	require.ErrorIs(t, err, convert.ErrSourceNotFound)

	_, err = c.Resolve(wrongExt, "")
	require.ErrorIs(t, err, convert.ErrUnsupportedFormat)
}

func TestTargetPath(t *testing.T) {
	c := convert.NpzToMtx()

	require.Equal(t, filepath.Join("data", "m.tar.mtx"), c.TargetPath(filepath.Join("data", "m.tar.npz"), "", convert.FileInPlace))
	require.Equal(t, filepath.Join("out", "m.mtx"), c.TargetPath(filepath.Join("data", "m.npz"), "out", convert.AllToDir))
	require.Equal(t, "x.y", c.TargetPath(filepath.Join("data", "m.npz"), "x.y", convert.FileToFile))
}

func TestMode_String(t *testing.T) {
	require.Equal(t, "Convert file in place", convert.FileInPlace.String())
	require.Equal(t, "Converting all files to target directory", convert.AllToDir.String())
}
