package persist

import "errors"

var (
	// ErrBadHeader is returned when the header of a persisted file does not
	// match the Metadata supplied by the caller.
	ErrBadHeader = errors.New("wrong header")

	// ErrBadVersion is returned when the version of a persisted file does
	// not match the Metadata supplied by the caller.
	ErrBadVersion = errors.New("incompatible version")

	// ErrBadChecksum is returned when a persisted file's checksum does not
	// match its contents.
	ErrBadChecksum = errors.New("bad checksum")

	// ErrBadFilenameSuffix is returned when a caller tries to load a file
	// using the temporary-file suffix as part of the final filename.
	ErrBadFilenameSuffix = errors.New("cannot load file with the reserved temp suffix")
)

// Metadata identifies the type and version of a persisted file, so that
// LoadJSON can refuse to load a file that wasn't written for
// the struct being loaded into.
type Metadata struct {
	Header  string
	Version string
}
