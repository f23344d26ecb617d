package filepool

import (
	"path/filepath"

	"github.com/distfs/filepool/build"
	"github.com/distfs/filepool/persist"
	"github.com/distfs/filepool/ratelimit"
	csync "github.com/distfs/filepool/sync"
)

// State is a point-in-time snapshot of the pool's inventory and I/O
// counters, returned by GetState.
type State struct {
	InventoryState
}

// sourceChunk names a chunk file handed to GetFile's write/rename step,
// and records whether (and where) its id should be pushed back on
// failure.
type sourceChunk struct {
	path      string
	reenqueue bool
	id        uint64
	kind      idKind
}

// Pool is the public surface of the file pool: preallocation, recycling,
// and background cleaning of fixed-size chunk files for a storage
// engine that doesn't want to pay filesystem allocation cost on every
// write.
type Pool struct {
	cfg Config
	fs  FS
	log *persist.Logger

	inv      *Inventory
	throttle *ratelimit.Throttle
	cleaner  *Cleaner

	// guard separates the structural lifecycle (Initialize, UnInitialize)
	// from in-flight operations (GetFile, RecycleFile, Size, GetState):
	// the former takes the write lock, the latter the read lock, so that
	// UnInitialize can never clear the inventory out from under a
	// concurrent GetFile.
	guard    csync.TryRWMutex
	chunkLen int64
}

// New creates a Pool that performs all filesystem operations through fs
// and logs through log (either of which may be swapped for fakes in
// tests).
func New(fs FS, cfg Config, log *persist.Logger) *Pool {
	return &Pool{
		cfg: cfg,
		fs:  fs,
		log: log,
	}
}

// Initialize validates the pool descriptor (if one is configured),
// creates the pool directory if it doesn't exist, scans existing chunk
// files into the inventory, and, in pool mode, runs the Formatter until
// the minimum population threshold is reached.
//
// Initialize itself is not cancellable; if the Formatter detects a
// failure, Initialize returns an error and leaves the pool in an
// unspecified on-disk state that an operator must repair.
func (p *Pool) Initialize() error {
	p.guard.Lock()
	defer p.guard.Unlock()

	cfg := p.cfg
	chunkSize, metaPageSize, blockSize := cfg.FileSize, cfg.MetaPageSize, cfg.BlockSize

	if cfg.MetaPath != "" {
		desc, err := LoadDescriptor(p.fs, cfg.MetaPath, metaFileSizeOrDefault(cfg.MetaFileSize))
		if err != nil {
			return err
		}
		chunkSize = desc.ChunkSize
		metaPageSize = desc.MetaPageSize
		blockSize = desc.BlockSize
		if desc.BlockSizeDefaulted && p.log != nil {
			p.log.Println("WARN: descriptor is missing blockSize, defaulting to", desc.BlockSize)
		}
		if desc.FilePoolPath != "" {
			cfg.FilePoolDir = desc.FilePoolPath
		}
	}
	p.chunkLen = int64(chunkSize) + int64(metaPageSize)

	if !p.fs.Exists(cfg.FilePoolDir) {
		if err := p.fs.MkdirAll(cfg.FilePoolDir); err != nil {
			return build.ExtendErr("could not create pool directory", err)
		}
	}

	p.inv = NewInventory(chunkSize, metaPageSize, blockSize)
	if err := Scan(p.fs, cfg.FilePoolDir, p.chunkLen, p.inv); err != nil {
		return err
	}

	if cfg.GetFileFromPool {
		existing := p.inv.Snapshot().PreallocatedLeft
		if err := Format(p.fs, cfg, p.inv, existing, p.log); err != nil {
			return err
		}
	}

	p.throttle = ratelimit.NewThrottle(uint64(cfg.IOPS4Clean), 0)
	p.cleaner = NewCleaner(p.fs, cfg.FilePoolDir, p.chunkLen, int64(cfg.BytesPerWrite), p.throttle, p.inv, p.log)

	p.cfg = cfg
	return nil
}

// StartCleaning launches the background cleaner, if the pool is
// configured for it. StartCleaning may only be called after Initialize
// has returned successfully.
func (p *Pool) StartCleaning() error {
	p.guard.RLock()
	defer p.guard.RUnlock()

	if !p.cfg.NeedClean {
		return nil
	}
	return p.cleaner.Start()
}

// StopCleaning cooperatively stops the background cleaner and waits for
// it to exit. It is idempotent.
func (p *Pool) StopCleaning() error {
	p.guard.RLock()
	defer p.guard.RUnlock()

	return p.cleaner.Stop()
}

// GetFile pops a chunk file from the pool (or allocates a fresh one in
// pass-through mode), writes metaPage into its header, and renames it to
// targetPath. It retries up to Config.RetryTimes times, surfacing the
// last error on exhaustion.
func (p *Pool) GetFile(targetPath string, metaPage []byte, needClean bool) error {
	p.guard.RLock()
	defer p.guard.RUnlock()

	if uint32(len(metaPage)) != p.cfg.MetaPageSize {
		return ErrIOError
	}

	retries := p.cfg.RetryTimes
	if retries == 0 {
		retries = 1
	}

	var lastErr error
	for attempt := uint32(0); attempt < retries; attempt++ {
		chunk, err := p.acquireSource(needClean)
		if err != nil {
			lastErr = err
			continue
		}

		err = p.finishGetFile(chunk.path, targetPath, metaPage)
		if err == nil {
			return nil
		}
		if err == ErrAlreadyExists {
			// The source id is not returned to either deque, and the source
			// file is intentionally left in place for operator inspection;
			// retrying with a new chunk wouldn't change the outcome of the
			// rename that failed.
			return err
		}
		if chunk.reenqueue {
			p.inv.Push(chunk.kind, chunk.id)
		}
		lastErr = err
	}
	return lastErr
}

// acquireSource obtains a chunk file ready for GetFile's write/rename
// step, either from the inventory or freshly allocated in pass-through
// mode.
func (p *Pool) acquireSource(needClean bool) (sourceChunk, error) {
	if !p.cfg.GetFileFromPool {
		id := p.inv.BumpNextID()
		if err := allocateChunk(p.fs, p.cfg.FilePoolDir, id, p.chunkLen, int64(p.cfg.BytesPerWrite)); err != nil {
			return sourceChunk{}, build.ExtendErr("could not allocate chunk", err)
		}
		return sourceChunk{path: filepath.Join(p.cfg.FilePoolDir, idName(id, true))}, nil
	}

	if !needClean {
		if id, ok := p.inv.Pop(dirtyKind); ok {
			return sourceChunk{path: filepath.Join(p.cfg.FilePoolDir, idName(id, false)), reenqueue: true, id: id, kind: dirtyKind}, nil
		}
		if id, ok := p.inv.Pop(cleanKind); ok {
			return sourceChunk{path: filepath.Join(p.cfg.FilePoolDir, idName(id, true)), reenqueue: true, id: id, kind: cleanKind}, nil
		}
		return sourceChunk{}, ErrPoolEmpty
	}

	if id, ok := p.inv.Pop(cleanKind); ok {
		return sourceChunk{path: filepath.Join(p.cfg.FilePoolDir, idName(id, true)), reenqueue: true, id: id, kind: cleanKind}, nil
	}

	id, ok := p.inv.Pop(dirtyKind)
	if !ok {
		return sourceChunk{}, ErrPoolEmpty
	}
	name := filepath.Join(p.cfg.FilePoolDir, idName(id, false))
	f, err := p.fs.Open(name)
	if err != nil {
		return sourceChunk{}, build.ExtendErr("could not open dirty chunk for zeroing", err)
	}
	zeroErr := p.fs.ZeroRange(f, 0, p.chunkLen)
	f.Close()
	if zeroErr != nil {
		// Per design decision, a dirty chunk that fails the fast-path zero
		// is not re-enqueued: the id is surfaced as lost rather than risk
		// a later caller observing half-zeroed content.
		return sourceChunk{}, build.ExtendErr("could not zero dirty chunk", zeroErr)
	}
	return sourceChunk{path: name}, nil
}

// finishGetFile writes metaPage into src's header and renames it to
// targetPath, refusing to replace an existing file at targetPath.
func (p *Pool) finishGetFile(src, targetPath string, metaPage []byte) error {
	f, err := p.fs.Open(src)
	if err != nil {
		return build.ExtendErr("could not open source chunk", err)
	}
	if _, err := f.WriteAt(metaPage, 0); err != nil {
		f.Close()
		return build.ExtendErr("could not write metadata page", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return build.ExtendErr("could not sync metadata page", err)
	}
	if err := f.Close(); err != nil {
		return build.ExtendErr("could not close source chunk", err)
	}

	if p.fs.Exists(targetPath) {
		return ErrAlreadyExists
	}
	if err := p.fs.RenameNoReplace(src, targetPath); err != nil {
		return build.ExtendErr("could not claim chunk file", err)
	}
	return nil
}

// RecycleFile returns a chunk file to the pool. In pass-through mode it
// simply deletes path. In pool mode, a file of the wrong size is deleted
// unconditionally (best-effort: any delete error is swallowed, since a
// malformed recycle always reports success); otherwise it is renamed
// into the pool directory and pushed onto the dirty deque.
func (p *Pool) RecycleFile(path string) error {
	p.guard.RLock()
	defer p.guard.RUnlock()

	if !p.cfg.GetFileFromPool {
		return p.fs.Delete(path)
	}

	info, err := p.fs.Stat(path)
	if err != nil || info.Size != p.chunkLen {
		_ = p.fs.Delete(path)
		return nil
	}

	id := p.inv.BumpNextID()
	dest := filepath.Join(p.cfg.FilePoolDir, idName(id, false))
	if err := p.fs.Rename(path, dest); err != nil {
		return build.ExtendErr("could not recycle chunk file", err)
	}
	p.inv.Push(dirtyKind, id)
	return nil
}

// Size returns a snapshot of the number of chunk files currently held by
// the pool, across both deques.
func (p *Pool) Size() uint64 {
	p.guard.RLock()
	defer p.guard.RUnlock()

	return p.inv.Snapshot().PreallocatedLeft
}

// GetState returns a snapshot of the pool's inventory and I/O counters.
func (p *Pool) GetState() State {
	p.guard.RLock()
	defer p.guard.RUnlock()

	return State{InventoryState: p.inv.Snapshot()}
}

// UnInitialize clears the inventory. The caller must have already
// stopped the cleaner.
func (p *Pool) UnInitialize() error {
	p.guard.Lock()
	defer p.guard.Unlock()

	p.inv.Clear()
	return nil
}
