package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Mode says what the source and target arguments point at
type Mode int

const (
	// FileInPlace writes next to the source, same base name
	FileInPlace Mode = iota
	// FileToDir writes into the target directory, same base name
	FileToDir
	// FileToFile writes to the target path as given
	FileToFile
	// AllInPlace converts every matching file in the source directory, in place
	AllInPlace
	// AllToDir converts every matching file in the source directory into the target directory
	AllToDir
)

func (m Mode) String() string {
	switch m {
	case FileInPlace:
		return "Convert file in place"
	case FileToDir:
		return "Convert file to target directory"
	case FileToFile:
		return "Convert file to target file"
	case AllInPlace:
		return "Converting all files in place"
	case AllToDir:
		return "Converting all files to target directory"
	}

	return fmt.Sprintf("Mode(%d)", int(m))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DetectMode validates the argument combination and picks the execution mode.
// --recursive is allowed with, and only with, directories.
func DetectMode(source, target string, recursive bool) (Mode, error) {
	if !exists(source) {
		return 0, fmt.Errorf("%w: %s", ErrSourceNotFound, source)
	}

	if recursive {
		if !isDir(source) {
			return 0, fmt.Errorf("%w: use recursive option with and only with directories: %s", ErrInvalidArguments, source)
		}
		if target == "" {
			return AllInPlace, nil
		}
		if !isDir(target) {
			return 0, fmt.Errorf("%w: use recursive option with and only with directories: %s", ErrInvalidArguments, target)
		}
		return AllToDir, nil
	}

	if isDir(source) {
		return 0, fmt.Errorf("%w: use recursive option with and only with directories: %s", ErrInvalidArguments, source)
	}

	switch {
	case target == "":
		return FileInPlace, nil
	case isDir(target):
		return FileToDir, nil
	default:
		return FileToFile, nil
	}
}

// swapExt replaces the extension of path's base name with ext
func swapExt(path, ext string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

// TargetPath computes where a single source file is written for the given mode.
// Directory modes resolve per file, so for them target must be a directory (or
// empty for AllInPlace, meaning the source's own directory).
func (c *Converter) TargetPath(source, target string, mode Mode) string {
	switch mode {
	case FileToFile:
		return target
	case FileToDir, AllToDir:
		return filepath.Join(target, swapExt(source, c.TargetExt))
	default:
		return filepath.Join(filepath.Dir(source), swapExt(source, c.TargetExt))
	}
}

// Resolve is the single-file path resolver: it checks that source is an existing
// file with the source extension and returns the destination path. An existing
// destination is refused with ErrAlreadyExists.
func (c *Converter) Resolve(source, target string) (string, error) {
	mode, err := DetectMode(source, target, false)
	if err != nil {
		return "", err
	}

	dest, err := c.resolve(source, target, mode)
	if err != nil {
		return "", err
	}

	return dest, nil
}

// resolve checks one source file and returns its destination under mode.
// On ErrAlreadyExists the destination is returned along with the error.
func (c *Converter) resolve(source, target string, mode Mode) (string, error) {
	info, err := os.Stat(source)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrSourceNotFound, source)
	}
	if err := c.checkSourceExt(source); err != nil {
		return "", err
	}

	dest := c.TargetPath(source, target, mode)
	if exists(dest) {
		return dest, fmt.Errorf("%w: %s", ErrAlreadyExists, dest)
	}

	return dest, nil
}

func (c *Converter) checkSourceExt(source string) error {
	if !strings.EqualFold(filepath.Ext(source), c.SourceExt) {
		return fmt.Errorf("%w: %s does not have a %s extension", ErrUnsupportedFormat, source, c.SourceExt)
	}

	return nil
}
