package persist

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"os"
	"strings"
)

// jsonFile is the on-disk envelope written by SaveJSON: a header identifying
// the struct and version, a checksum of the encoded data, and the data
// itself.
type jsonFile struct {
	Header   string
	Version  string
	Checksum [sha256.Size]byte
	Data     json.RawMessage
}

// SaveJSON saves obj to filename, tagging it with meta and protecting it
// with a checksum. The write is atomic: a temporary file is written and
// synced, then renamed over filename, so a concurrent reader never observes
// a partially-written file.
func SaveJSON(meta Metadata, obj interface{}, filename string) error {
	if strings.HasSuffix(filename, tempSuffix) {
		return ErrBadFilenameSuffix
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	jf := jsonFile{
		Header:   meta.Header,
		Version:  meta.Version,
		Checksum: sha256.Sum256(data),
		Data:     data,
	}
	encoded, err := json.MarshalIndent(jf, "", "\t")
	if err != nil {
		return err
	}

	sf, err := NewSafeFile(filename)
	if err != nil {
		return err
	}
	defer sf.Close()

	if _, err := sf.Write(encoded); err != nil {
		return err
	}
	return sf.Commit()
}

// LoadJSON loads the object previously saved to filename with SaveJSON into
// obj, verifying that the header, version, and checksum all match.
func LoadJSON(meta Metadata, obj interface{}, filename string) error {
	if strings.HasSuffix(filename, tempSuffix) {
		return ErrBadFilenameSuffix
	}

	raw, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	var jf jsonFile
	if err := json.Unmarshal(raw, &jf); err != nil {
		return err
	}
	if jf.Header != meta.Header {
		return ErrBadHeader
	}
	if jf.Version != meta.Version {
		return ErrBadVersion
	}
	// The checksum covers the compact encoding SaveJSON produced; the
	// envelope's indentation also indents Data, so compact it back first.
	var data bytes.Buffer
	if err := json.Compact(&data, jf.Data); err != nil {
		return err
	}
	if sha256.Sum256(data.Bytes()) != jf.Checksum {
		return ErrBadChecksum
	}
	return json.Unmarshal(jf.Data, obj)
}
