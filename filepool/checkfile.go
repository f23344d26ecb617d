package filepool

import (
	"path/filepath"
	"strconv"
	"strings"
)

// ParseChunkFilename splits a bare pool-directory entry name into its
// numeric id and clean/dirty state. It reports ok=false for anything that
// isn't a plain decimal number with an optional .clean suffix.
func ParseChunkFilename(name string) (id uint64, isClean bool, ok bool) {
	base := name
	isClean = strings.HasSuffix(name, cleanSuffix)
	if isClean {
		base = strings.TrimSuffix(name, cleanSuffix)
	}
	if base == "" {
		return 0, false, false
	}
	for _, r := range base {
		if r < '0' || r > '9' {
			return 0, false, false
		}
	}
	id, err := strconv.ParseUint(base, 10, 64)
	if err != nil {
		return 0, false, false
	}
	return id, isClean, true
}

// idName formats a chunk id as the bare filename it is stored under.
func idName(id uint64, clean bool) string {
	s := strconv.FormatUint(id, 10)
	if clean {
		return s + cleanSuffix
	}
	return s
}

// CheckPoolFile reports whether dir/name names a regular chunk file of
// exactly chunkLen bytes.
func CheckPoolFile(fs FS, dir, name string, chunkLen int64) bool {
	if _, _, ok := ParseChunkFilename(name); !ok {
		return false
	}
	info, err := fs.Stat(filepath.Join(dir, name))
	if err != nil {
		return false
	}
	return !info.IsDir && info.Size == chunkLen
}
