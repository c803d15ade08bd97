package coursewizard

import "errors"

var (
	// ErrFormatNotRecognized is returned when pasted course-table text does
	// not have the expected shape.
	ErrFormatNotRecognized = errors.New("coursewizard: course table format not recognized")

	// ErrUnsupportedFormat is returned for unrecognized document or export
	// formats.
	ErrUnsupportedFormat = errors.New("coursewizard: unsupported format")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("coursewizard: invalid configuration")

	// ErrExportFailed is returned when an exporter cannot render the course.
	ErrExportFailed = errors.New("coursewizard: export failed")

	// ErrEmptyInput is returned when an operation receives no input at all.
	ErrEmptyInput = errors.New("coursewizard: empty input")
)
