package convert

import (
	"errors"

	"github.com/KyungWonPark/mtxconv/internal/io"
)

var (
	// ErrSourceNotFound is returned when the source file or directory does not exist
	ErrSourceNotFound = errors.New("source not found")

	// ErrAlreadyExists is returned when the destination file is already on disk
	ErrAlreadyExists = errors.New("target already exists")

	// ErrUnsupportedFormat is returned when the source cannot be loaded
	ErrUnsupportedFormat = io.ErrUnsupportedFormat

	// ErrInvalidArguments is returned for source/target/recursive combinations that make no sense
	ErrInvalidArguments = errors.New("invalid arguments")
)
