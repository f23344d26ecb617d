package filepool

import (
	"errors"
	"io"
	"os"
	"sort"

	"golang.org/x/sys/unix"
)

// errUnsupportedFile is returned by the production FS's Fallocate when
// handed a File that didn't originate from its own Create/Open.
var errUnsupportedFile = errors.New("file was not created by this FS")

// FileInfo is the subset of os.FileInfo the pool's components need.
type FileInfo struct {
	Name  string
	Size  int64
	IsDir bool
}

// StatfsResult reports free and total space for the filesystem backing a
// path, as used by the Formatter's sizing calculation.
type StatfsResult struct {
	TotalBytes     uint64
	AvailableBytes uint64
}

// File is the subset of *os.File the pool's components use. It is
// satisfied by *os.File in production and by an in-memory fake in tests.
type File interface {
	io.Closer
	WriteAt(p []byte, off int64) (int, error)
	ReadAt(p []byte, off int64) (int, error)
	Sync() error
}

// FS abstracts every local-filesystem operation the pool needs, so that
// tests can run against an in-memory fake instead of a real disk.
type FS interface {
	Create(name string) (File, error)
	Open(name string) (File, error)
	Fallocate(f File, offset, length int64) error
	ZeroRange(f File, offset, length int64) error
	Rename(oldpath, newpath string) error
	RenameNoReplace(oldpath, newpath string) error
	Stat(name string) (FileInfo, error)
	List(dir string) ([]FileInfo, error)
	Delete(name string) error
	MkdirAll(name string) error
	Exists(name string) bool
	Statfs(path string) (StatfsResult, error)
}

// osFS implements FS against the real operating system.
type osFS struct{}

// NewOSFS returns the production FS collaborator.
func NewOSFS() FS {
	return osFS{}
}

func (osFS) Create(name string) (File, error) {
	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
}

func (osFS) Open(name string) (File, error) {
	return os.OpenFile(name, os.O_RDWR, 0600)
}

func (osFS) Fallocate(f File, offset, length int64) error {
	osf, ok := f.(*os.File)
	if !ok {
		return errUnsupportedFile
	}
	return unix.Fallocate(int(osf.Fd()), 0, offset, length)
}

// ZeroRange zero-fills [offset, offset+length) using the kernel fast path
// instead of an explicit write pass, used by GetFile's dirty-chunk
// fallback when no clean chunk is available.
func (osFS) ZeroRange(f File, offset, length int64) error {
	osf, ok := f.(*os.File)
	if !ok {
		return errUnsupportedFile
	}
	return unix.Fallocate(int(osf.Fd()), unix.FALLOC_FL_ZERO_RANGE, offset, length)
}

func (osFS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (osFS) RenameNoReplace(oldpath, newpath string) error {
	return unix.Renameat2(unix.AT_FDCWD, oldpath, unix.AT_FDCWD, newpath, unix.RENAME_NOREPLACE)
}

func (osFS) Stat(name string) (FileInfo, error) {
	info, err := os.Stat(name)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Name: info.Name(), Size: info.Size(), IsDir: info.IsDir()}, nil
}

func (osFS) List(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, FileInfo{Name: e.Name(), Size: info.Size(), IsDir: e.IsDir()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (osFS) Delete(name string) error {
	return os.Remove(name)
}

func (osFS) MkdirAll(name string) error {
	return os.MkdirAll(name, 0700)
}

func (osFS) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

func (osFS) Statfs(path string) (StatfsResult, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return StatfsResult{}, err
	}
	return StatfsResult{
		TotalBytes:     st.Blocks * uint64(st.Bsize),
		AvailableBytes: st.Bavail * uint64(st.Bsize),
	}, nil
}
