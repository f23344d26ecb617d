package filepool

import (
	"context"
	"path/filepath"
	"time"

	"github.com/distfs/filepool/build"
	"github.com/distfs/filepool/persist"
	"github.com/distfs/filepool/ratelimit"
	csync "github.com/distfs/filepool/sync"
)

// Cleaner is the background loop that converts dirty chunk files back
// into clean ones: pop a dirty id, zero-fill it under the Throttle, then
// rename it to the clean suffix and push it back as clean.
//
// Cleaner must never run concurrently with the Formatter; StartCleaning
// may only be called once Initialize has returned.
type Cleaner struct {
	fs            FS
	poolDir       string
	chunkLen      int64
	bytesPerWrite int64

	failInterval    time.Duration
	successInterval time.Duration

	inv      *Inventory
	throttle *ratelimit.Throttle
	log      *persist.Logger

	tg    csync.ThreadGroup
	guard csync.TryMutex // held for the lifetime of a running loop goroutine
}

// NewCleaner returns a Cleaner that zero-fills dirty chunks in poolDir
// under throttle, recording outcomes in inv.
func NewCleaner(fs FS, poolDir string, chunkLen, bytesPerWrite int64, throttle *ratelimit.Throttle, inv *Inventory, log *persist.Logger) *Cleaner {
	return &Cleaner{
		fs:              fs,
		poolDir:         poolDir,
		chunkLen:        chunkLen,
		bytesPerWrite:   bytesPerWrite,
		failInterval:    defaultFailInterval,
		successInterval: defaultSuccessInterval,
		inv:             inv,
		throttle:        throttle,
		log:             log,
	}
}

// Start launches the cleaner loop in its own goroutine. Start is
// idempotent: calling it while the loop is already running backs off via
// TryLock instead of blocking, and returns nil.
func (c *Cleaner) Start() error {
	if !c.guard.TryLock() {
		return nil
	}
	if err := c.tg.Add(); err != nil {
		c.guard.Unlock()
		return err
	}
	go func() {
		defer c.tg.Done()
		defer c.guard.Unlock()
		c.loop()
	}()
	return nil
}

// Stop cooperatively stops the cleaner loop, interrupts the Throttle so
// any in-flight wait returns promptly, and waits for the loop to exit.
// Stop is idempotent.
func (c *Cleaner) Stop() error {
	c.throttle.Interrupt()
	if err := c.tg.Stop(); err != nil && err != csync.ErrStopped {
		return err
	}
	return nil
}

func (c *Cleaner) loop() {
	stop := c.tg.StopChan()
	for {
		select {
		case <-stop:
			return
		default:
		}

		id, ok := c.inv.Pop(dirtyKind)
		if !ok {
			if sleepOrStop(c.failInterval, stop) {
				return
			}
			continue
		}

		if err := c.clean(id, stop); err != nil {
			c.inv.Push(dirtyKind, id)
			c.inv.RecordClean(false)
			if c.log != nil {
				c.log.Println("ERROR: cleaner failed to clean chunk", id, ":", err)
			}
			if sleepOrStop(c.failInterval, stop) {
				return
			}
			continue
		}

		c.inv.Push(cleanKind, id)
		c.inv.RecordClean(true)
		if sleepOrStop(c.successInterval, stop) {
			return
		}
	}
}

// clean zero-fills poolDir/id in bytesPerWrite slices, each gated by the
// Throttle, then renames it to the clean suffix.
func (c *Cleaner) clean(id uint64, stop <-chan struct{}) error {
	name := filepath.Join(c.poolDir, idName(id, false))
	f, err := c.fs.Open(name)
	if err != nil {
		return err
	}

	bytesPerWrite := c.bytesPerWrite
	if bytesPerWrite <= 0 {
		bytesPerWrite = c.chunkLen
	}
	zeros := make([]byte, bytesPerWrite)

	var written int64
	for written < c.chunkLen {
		select {
		case <-stop:
			f.Close()
			return errStopped
		default:
		}

		n := bytesPerWrite
		if c.chunkLen-written < n {
			n = c.chunkLen - written
		}
		if err := c.throttle.Consume(context.Background(), uint64(n)); err != nil {
			f.Close()
			return err
		}
		if _, err := f.WriteAt(zeros[:n], written); err != nil {
			return build.ComposeErrors(err, f.Close())
		}
		if err := f.Sync(); err != nil {
			return build.ComposeErrors(err, f.Close())
		}
		written += n
	}
	if err := f.Close(); err != nil {
		return err
	}

	cleanName := filepath.Join(c.poolDir, idName(id, true))
	return c.fs.Rename(name, cleanName)
}

// sleepOrStop sleeps for d, or returns true early if stop fires first.
func sleepOrStop(d time.Duration, stop <-chan struct{}) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return false
	case <-stop:
		return true
	}
}
