package filepool

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/distfs/filepool/build"
	"github.com/distfs/filepool/persist"
)

// formatterState is the small bundle of atomics shared between the
// Formatter's worker goroutines and its driver, modeled as a flat struct
// rather than a cross-thread pointer graph.
type formatterState struct {
	allocated uint64 // count of ids claimed by a worker so far
	failure   uint32 // 1 once any worker has hit a fatal allocation error
}

// Format grows the pool in poolDir up to the target population computed
// from cfg and the current free space, using cfg.FormatterWorkers worker
// goroutines. Id 0 is never allocated; the population occupies ids
// [1, target].
//
// Format blocks until at least cfg.MinChunkFileNum chunks are confirmed
// present on disk (or the whole target population, whichever is
// smaller), or until an allocation fails. If the threshold is reached
// first, the remaining work continues in a background goroutine; any
// later failure is only logged, since Initialize has already returned by
// then.
func Format(fs FS, cfg Config, inv *Inventory, existingFiles uint64, log *persist.Logger) error {
	chunkLen := int64(cfg.FileSize) + int64(cfg.MetaPageSize)
	bytesPerWrite := int64(cfg.BytesPerWrite)
	if bytesPerWrite <= 0 {
		bytesPerWrite = chunkLen
	}

	space, err := fs.Statfs(cfg.FilePoolDir)
	if err != nil {
		return build.ExtendErr("could not statfs pool directory", err)
	}

	var needSpace uint64
	if cfg.AllocateByPercent {
		needSpace = space.TotalBytes * uint64(cfg.AllocatePercent) / 100
	} else {
		needSpace = uint64(bytesPerWrite) * cfg.PreAllocateNum
	}
	if space.AvailableBytes+existingFiles*uint64(bytesPerWrite) < needSpace {
		return ErrInsufficientSpace
	}
	target := needSpace / uint64(bytesPerWrite)
	if target < existingFiles {
		target = existingFiles
	}

	// Validate the ids the Scanner already found: every one must be in
	// range and none may be duplicated across dirty and clean.
	seen := make(map[uint64]bool)
	for _, id := range inv.AllIDs() {
		if id == 0 || id > target || seen[id] {
			return ErrDirIllegalContent
		}
		seen[id] = true
	}

	minThreshold := cfg.MinChunkFileNum
	if minThreshold == 0 {
		minThreshold = defaultMinChunkFileNum
	}
	if minThreshold > target {
		minThreshold = target
	}

	workers := cfg.FormatterWorkers
	if workers <= 0 {
		workers = defaultFormatterWorkers
	}

	st := &formatterState{allocated: existingFiles}
	if target > existingFiles {
		inv.SetProgress(0, uint64(chunkLen)*(target-existingFiles))
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := atomic.AddUint64(&st.allocated, 1) - 1
				if i >= target {
					atomic.AddUint64(&st.allocated, ^uint64(0))
					return
				}
				id := i + 1
				if err := allocateChunk(fs, cfg.FilePoolDir, id, chunkLen, bytesPerWrite); err != nil {
					atomic.StoreUint32(&st.failure, 1)
					inv.RecordAllocation(false)
					return
				}
				inv.RecordAllocation(true)
				inv.AddProgress(uint64(chunkLen))
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	thresholdCh := make(chan error, 1)
	var signaled int32

	go func() {
		maxIndex := existingFiles
		ticker := time.NewTicker(defaultFormatterPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
			case <-done:
			}

			if atomic.LoadUint32(&st.failure) == 1 {
				if atomic.CompareAndSwapInt32(&signaled, 0, 1) {
					thresholdCh <- ErrAllocationFailure
				} else if log != nil {
					log.Severe("formatter failed after the startup threshold was already reached")
				}
				return
			}

			for maxIndex < target {
				id := maxIndex + 1
				if !CheckPoolFile(fs, cfg.FilePoolDir, idName(id, true), chunkLen) {
					break
				}
				maxIndex++
				inv.Push(cleanKind, id)
			}

			if maxIndex >= minThreshold && atomic.CompareAndSwapInt32(&signaled, 0, 1) {
				thresholdCh <- nil
			}

			select {
			case <-done:
				if maxIndex < target && log != nil {
					log.Println("formatter finished without reaching the target population:", maxIndex, "/", target)
				}
				inv.SetProgress(0, 0)
				return
			default:
			}
		}
	}()

	return <-thresholdCh
}

// allocateChunk creates poolDir/id.clean, reserves its extents, writes
// chunkLen zero bytes in bytesPerWrite slices, and syncs it.
func allocateChunk(fs FS, poolDir string, id uint64, chunkLen, bytesPerWrite int64) error {
	name := filepath.Join(poolDir, idName(id, true))
	f, err := fs.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fs.Fallocate(f, 0, chunkLen); err != nil {
		return err
	}

	if bytesPerWrite <= 0 {
		bytesPerWrite = chunkLen
	}
	zeros := make([]byte, bytesPerWrite)
	var written int64
	for written < chunkLen {
		n := bytesPerWrite
		if chunkLen-written < n {
			n = chunkLen - written
		}
		if _, err := f.WriteAt(zeros[:n], written); err != nil {
			return err
		}
		written += n
	}
	return f.Sync()
}
