package persist

import (
	"os"
	"path/filepath"

	"github.com/NebulousLabs/fastrand"
)

// RandomSuffix returns a random hex string, suitable for disambiguating
// concurrently-written temporary files.
func RandomSuffix() string {
	return hex(fastrand.Bytes(6))
}

func hex(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0x0f]
	}
	return string(out)
}

// SafeFile provides atomic file writes: data is written to a temporary
// file, and only becomes visible under its final name once Commit renames
// it into place. SaveJSON writes through it.
type SafeFile struct {
	file      *os.File
	finalName string
	tempName  string
}

// NewSafeFile creates a new SafeFile that will eventually be committed to
// finalName. The path may be relative; it is resolved to an absolute path
// immediately so that a later os.Chdir does not change where Commit writes.
func NewSafeFile(finalName string) (*SafeFile, error) {
	absFinalName, err := filepath.Abs(finalName)
	if err != nil {
		return nil, err
	}
	tempName := absFinalName + tempSuffix + "-" + RandomSuffix()
	f, err := os.OpenFile(tempName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}
	return &SafeFile{
		file:      f,
		finalName: absFinalName,
		tempName:  tempName,
	}, nil
}

// Name returns the file's current (temporary, pre-Commit) path.
func (sf *SafeFile) Name() string {
	return sf.tempName
}

// Write writes to the temporary file.
func (sf *SafeFile) Write(p []byte) (int, error) {
	return sf.file.Write(p)
}

// Sync flushes the temporary file's contents to stable storage.
func (sf *SafeFile) Sync() error {
	return sf.file.Sync()
}

// Commit syncs the temporary file and atomically renames it to its final
// name, making the write visible.
func (sf *SafeFile) Commit() error {
	if err := sf.file.Sync(); err != nil {
		return err
	}
	if err := sf.file.Close(); err != nil {
		return err
	}
	return os.Rename(sf.tempName, sf.finalName)
}

// Close closes the temporary file without committing it, and removes it.
// Calling Close after a successful Commit leaves the committed file alone
// and returns the error from closing the already-closed temporary file.
func (sf *SafeFile) Close() error {
	err := sf.file.Close()
	os.Remove(sf.tempName)
	return err
}
