package filepool

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strconv"
	"strings"
)

// Descriptor describes the geometry and location of a pool, as persisted
// in the small file at Config.MetaPath.
type Descriptor struct {
	ChunkSize          uint32
	MetaPageSize       uint32
	BlockSize          uint32
	BlockSizeDefaulted bool
	FilePoolPath       string
}

const (
	keyChunkSize    = "chunkSize"
	keyMetaPageSize = "metaPageSize"
	keyBlockSize    = "blockSize"
	keyFilePoolPath = "chunkfilepool_path"
	keyCRC          = "crc"
)

// canonicalBytes builds the bit-exact byte sequence the CRC is computed
// over: magic, then chunkSize and metaPageSize as little-endian u32,
// blockSize as little-endian u32 only when present, then the raw path
// bytes with no terminator.
func canonicalBytes(chunkSize, metaPageSize, blockSize uint32, hasBlockSize bool, filePoolPath string) []byte {
	buf := make([]byte, 0, len(descriptorMagic)+12+len(filePoolPath))
	buf = append(buf, descriptorMagic...)
	buf = binary.LittleEndian.AppendUint32(buf, chunkSize)
	buf = binary.LittleEndian.AppendUint32(buf, metaPageSize)
	if hasBlockSize {
		buf = binary.LittleEndian.AppendUint32(buf, blockSize)
	}
	buf = append(buf, filePoolPath...)
	return buf
}

// EncodeDescriptor serializes d as a key/value text blob, zero-padded to
// metaFileSize, with a CRC computed over the canonical binary layout.
func EncodeDescriptor(d Descriptor, metaFileSize uint32) ([]byte, error) {
	crc := crc32.ChecksumIEEE(canonicalBytes(d.ChunkSize, d.MetaPageSize, d.BlockSize, !d.BlockSizeDefaulted, d.FilePoolPath))

	var b strings.Builder
	fmt.Fprintf(&b, "%s=%d\n", keyChunkSize, d.ChunkSize)
	fmt.Fprintf(&b, "%s=%d\n", keyMetaPageSize, d.MetaPageSize)
	if !d.BlockSizeDefaulted {
		fmt.Fprintf(&b, "%s=%d\n", keyBlockSize, d.BlockSize)
	}
	fmt.Fprintf(&b, "%s=%s\n", keyFilePoolPath, d.FilePoolPath)
	fmt.Fprintf(&b, "%s=%d\n", keyCRC, crc)

	text := b.String()
	if uint32(len(text)) > metaFileSize {
		return nil, ErrDescriptorInvalid
	}
	out := make([]byte, metaFileSize)
	copy(out, text)
	return out, nil
}

// DecodeDescriptor parses a descriptor previously written by
// EncodeDescriptor and verifies its CRC. A descriptor written before
// blockSize existed decodes successfully with BlockSizeDefaulted set and
// BlockSize set to defaultBlockSize; the caller is expected to log a
// warning in that case.
func DecodeDescriptor(data []byte) (Descriptor, error) {
	text := strings.TrimRight(string(data), "\x00")
	values := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return Descriptor{}, ErrDescriptorInvalid
		}
		values[parts[0]] = parts[1]
	}

	chunkSizeStr, ok := values[keyChunkSize]
	if !ok {
		return Descriptor{}, ErrDescriptorInvalid
	}
	metaPageSizeStr, ok := values[keyMetaPageSize]
	if !ok {
		return Descriptor{}, ErrDescriptorInvalid
	}
	filePoolPath, ok := values[keyFilePoolPath]
	if !ok {
		return Descriptor{}, ErrDescriptorInvalid
	}
	crcStr, ok := values[keyCRC]
	if !ok {
		return Descriptor{}, ErrDescriptorInvalid
	}

	chunkSize, err := strconv.ParseUint(chunkSizeStr, 10, 32)
	if err != nil {
		return Descriptor{}, ErrDescriptorInvalid
	}
	metaPageSize, err := strconv.ParseUint(metaPageSizeStr, 10, 32)
	if err != nil {
		return Descriptor{}, ErrDescriptorInvalid
	}
	storedCRC, err := strconv.ParseUint(crcStr, 10, 32)
	if err != nil {
		return Descriptor{}, ErrDescriptorInvalid
	}

	d := Descriptor{
		ChunkSize:    uint32(chunkSize),
		MetaPageSize: uint32(metaPageSize),
		FilePoolPath: filePoolPath,
	}

	blockSizeStr, hasBlockSize := values[keyBlockSize]
	if hasBlockSize {
		blockSize, err := strconv.ParseUint(blockSizeStr, 10, 32)
		if err != nil {
			return Descriptor{}, ErrDescriptorInvalid
		}
		d.BlockSize = uint32(blockSize)
	} else {
		d.BlockSize = defaultBlockSize
		d.BlockSizeDefaulted = true
	}

	expectedCRC := crc32.ChecksumIEEE(canonicalBytes(d.ChunkSize, d.MetaPageSize, d.BlockSize, hasBlockSize, d.FilePoolPath))
	if uint32(storedCRC) != expectedCRC {
		return Descriptor{}, ErrDescriptorInvalid
	}
	return d, nil
}

// LoadDescriptor reads and decodes the descriptor at path.
func LoadDescriptor(fs FS, path string, metaFileSize uint32) (Descriptor, error) {
	f, err := fs.Open(path)
	if err != nil {
		return Descriptor{}, ErrDescriptorInvalid
	}
	defer f.Close()

	buf := make([]byte, metaFileSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return Descriptor{}, ErrDescriptorInvalid
	}
	return DecodeDescriptor(buf)
}

// SaveDescriptor encodes d and writes it to path, syncing before
// returning so the write is durable before Initialize proceeds.
func SaveDescriptor(fs FS, path string, d Descriptor, metaFileSize uint32) error {
	data, err := EncodeDescriptor(d, metaFileSize)
	if err != nil {
		return err
	}
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteAt(data, 0); err != nil {
		return err
	}
	return f.Sync()
}
