package filepool

import "testing"

func TestDescriptorRoundTrip(t *testing.T) {
	d := Descriptor{
		ChunkSize:    16 << 20,
		MetaPageSize: 4096,
		BlockSize:    4096,
		FilePoolPath: "/var/lib/pool",
	}
	data, err := EncodeDescriptor(d, defaultMetaFileSize)
	if err != nil {
		t.Fatal(err)
	}
	if uint32(len(data)) != defaultMetaFileSize {
		t.Fatalf("encoded descriptor has length %d, want %d", len(data), defaultMetaFileSize)
	}

	got, err := DecodeDescriptor(data)
	if err != nil {
		t.Fatal(err)
	}
	if got != d {
		t.Fatalf("decode(encode(d)) = %+v, want %+v", got, d)
	}

	// encode(decode(bytes)) == bytes
	data2, err := EncodeDescriptor(got, defaultMetaFileSize)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(data2) {
		t.Fatal("encode(decode(bytes)) != bytes")
	}
}

func TestDescriptorMissingBlockSizeDefaults(t *testing.T) {
	d := Descriptor{
		ChunkSize:          16 << 20,
		MetaPageSize:       4096,
		BlockSizeDefaulted: true,
		FilePoolPath:       "/var/lib/pool",
	}
	data, err := EncodeDescriptor(d, defaultMetaFileSize)
	if err != nil {
		t.Fatal(err)
	}

	got, err := DecodeDescriptor(data)
	if err != nil {
		t.Fatal(err)
	}
	if !got.BlockSizeDefaulted {
		t.Fatal("expected BlockSizeDefaulted to be true")
	}
	if got.BlockSize != defaultBlockSize {
		t.Fatalf("got BlockSize %d, want default %d", got.BlockSize, defaultBlockSize)
	}
}

func TestDescriptorCRCMismatch(t *testing.T) {
	d := Descriptor{ChunkSize: 1024, MetaPageSize: 64, BlockSize: 512, FilePoolPath: "/x"}
	data, err := EncodeDescriptor(d, defaultMetaFileSize)
	if err != nil {
		t.Fatal(err)
	}

	// Change one digit of the chunkSize value (1024 -> 2024): the text still
	// parses, but the stored CRC no longer matches.
	data[len(keyChunkSize)+1] = '2'

	if _, err := DecodeDescriptor(data); err != ErrDescriptorInvalid {
		t.Fatalf("got err %v, want ErrDescriptorInvalid", err)
	}
}

func TestDescriptorTooLargeForMetaFileSize(t *testing.T) {
	d := Descriptor{ChunkSize: 1, MetaPageSize: 1, BlockSize: 1, FilePoolPath: "/very/long/path/that/does/not/fit"}
	if _, err := EncodeDescriptor(d, 8); err != ErrDescriptorInvalid {
		t.Fatalf("got err %v, want ErrDescriptorInvalid", err)
	}
}

func TestLoadSaveDescriptor(t *testing.T) {
	fs := newMockFS()
	d := Descriptor{ChunkSize: 2048, MetaPageSize: 128, BlockSize: 512, FilePoolPath: "/pool"}

	if err := SaveDescriptor(fs, "/meta/descriptor", d, defaultMetaFileSize); err != nil {
		t.Fatal(err)
	}
	got, err := LoadDescriptor(fs, "/meta/descriptor", defaultMetaFileSize)
	if err != nil {
		t.Fatal(err)
	}
	if got != d {
		t.Fatalf("loaded descriptor %+v, want %+v", got, d)
	}
}
