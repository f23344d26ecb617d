package filepool

import "github.com/distfs/filepool/build"

// Scan walks poolDir and populates inv with every chunk file found,
// classified as dirty or clean by its suffix. Id 0 is treated as a
// reserved sentinel and never tracked, matching the Formatter's policy of
// never allocating it.
func Scan(fs FS, poolDir string, chunkLen int64, inv *Inventory) error {
	entries, err := fs.List(poolDir)
	if err != nil {
		return build.ExtendErr("could not list pool directory", err)
	}

	var maxID uint64
	seen := make(map[uint64]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir {
			return ErrDirIllegalContent
		}
		id, isClean, ok := ParseChunkFilename(entry.Name)
		if !ok {
			return ErrDirIllegalContent
		}
		if entry.Size != chunkLen {
			return ErrDirIllegalContent
		}
		if id == 0 {
			continue
		}
		if seen[id] {
			return ErrDirIllegalContent
		}
		seen[id] = true

		if isClean {
			inv.Push(cleanKind, id)
		} else {
			inv.Push(dirtyKind, id)
		}
		if id > maxID {
			maxID = id
		}
	}
	inv.SetNextID(maxID + 1)
	return nil
}
