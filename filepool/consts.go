// Package filepool implements a local, on-disk preallocation and recycling
// layer for fixed-size chunk files. It amortizes the cost of creating
// chunk files by preformatting a population of them on a local
// filesystem, handing them out atomically to a caller, and recycling
// returned files back into the pool once a background cleaner has
// zero-filled them.
package filepool

import (
	"errors"
	"time"
)

const (
	// descriptorMagic is the compile-time constant prefix of every pool
	// descriptor, used both as a sanity check and as part of the CRC's
	// canonical byte sequence.
	descriptorMagic = "FPOOLv1\x00"

	// cleanSuffix marks a chunk file as having been zero-filled since it
	// was last handed out.
	cleanSuffix = ".clean"

	defaultBlockSize        = 4096
	defaultMetaFileSize     = 4096
	defaultMinChunkFileNum  = 1
	defaultFormatterWorkers = 2

	defaultFailInterval          = 500 * time.Millisecond
	defaultSuccessInterval       = 10 * time.Millisecond
	defaultFormatterPollInterval = 10 * time.Millisecond
)

// Sentinel errors, checked by callers with errors.Is or direct comparison,
// matching the error taxonomy of the component this package models.
var (
	ErrDescriptorInvalid = errors.New("pool descriptor is invalid")
	ErrDirIllegalContent = errors.New("pool directory contains illegal content")
	ErrInsufficientSpace = errors.New("insufficient free space for target population")
	ErrAllocationFailure = errors.New("chunk allocation failed")
	ErrPoolEmpty         = errors.New("pool is empty")
	ErrAlreadyExists     = errors.New("target file already exists")
	ErrIOError           = errors.New("filesystem I/O error")

	errStopped = errors.New("cleaner stopped")
)

// Config holds everything needed to initialize and run a Pool. A
// zero-value Config with GetFileFromPool left false runs the pool in
// pass-through mode: every GetFile call allocates a brand-new chunk file
// on the spot instead of drawing from a preallocated population.
type Config struct {
	// GetFileFromPool selects pool mode (true) over pass-through mode
	// (false).
	GetFileFromPool bool

	// FilePoolDir is the directory holding preallocated chunk files.
	FilePoolDir string

	// MetaPath and MetaFileSize locate and size the on-disk descriptor. An
	// empty MetaPath skips descriptor validation entirely.
	MetaPath     string
	MetaFileSize uint32

	// FileSize, MetaPageSize and BlockSize describe chunk-file geometry.
	// They are overridden by the descriptor's values when one is loaded.
	FileSize     uint32
	MetaPageSize uint32
	BlockSize    uint32

	// PreAllocateNum or AllocateByPercent+AllocatePercent determine the
	// target population size for the Formatter.
	PreAllocateNum    uint64
	AllocateByPercent bool
	AllocatePercent   uint8

	// BytesPerWrite is the write-slice size used by the Formatter and the
	// Cleaner.
	BytesPerWrite uint32

	// RetryTimes bounds GetFile's retry loop.
	RetryTimes uint32

	// NeedClean and IOPS4Clean control whether StartCleaning launches the
	// background cleaner, and how fast it is allowed to run.
	NeedClean  bool
	IOPS4Clean uint32

	// MinChunkFileNum is the population threshold Initialize blocks on
	// before returning; it defaults to defaultMinChunkFileNum.
	MinChunkFileNum uint64

	// FormatterWorkers is the size of the Formatter's worker pool; it
	// defaults to defaultFormatterWorkers.
	FormatterWorkers int
}

func metaFileSizeOrDefault(n uint32) uint32 {
	if n == 0 {
		return defaultMetaFileSize
	}
	return n
}
