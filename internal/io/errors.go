package io

import "errors"

// ErrUnsupportedFormat is returned when a source file is not a well-formed Matrix Market
// file or not an archive written by the matching save routine
var ErrUnsupportedFormat = errors.New("unsupported format")
