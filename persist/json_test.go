package persist

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/distfs/filepool/build"
)

// TestSaveLoadJSON creates a simple object and then tries saving and loading
// it.
func TestSaveLoadJSON(t *testing.T) {
	if testing.Short() {
		t.SkipNow()
	}
	// Create the directory used for testing.
	dir := filepath.Join(build.TempDir(persistDir), t.Name())
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		t.Fatal(err)
	}

	// Create and save the test object.
	testMeta := Metadata{"Test Struct", "v1.2.1"}
	type testStruct struct {
		One   string
		Two   uint64
		Three []byte
	}

	obj1 := testStruct{"dog", 25, []byte("more dog")}
	obj1Filename := filepath.Join(dir, "obj1.json")
	err = SaveJSON(testMeta, obj1, obj1Filename)
	if err != nil {
		t.Fatal(err)
	}
	var obj2 testStruct

	// Try loading the object.
	err = LoadJSON(testMeta, &obj2, obj1Filename)
	if err != nil {
		t.Fatal(err)
	}
	if obj2.One != obj1.One || obj2.Two != obj1.Two || !bytes.Equal(obj2.Three, obj1.Three) {
		t.Error("persist mismatch")
	}

	// Try loading the object using the temp file suffix.
	err = LoadJSON(testMeta, &obj2, obj1Filename+tempSuffix)
	if err != ErrBadFilenameSuffix {
		t.Error("did not get bad filename suffix")
	}

	// Try saving the object multiple times concurrently.
	var wg sync.WaitGroup
	for i := 0; i < 250; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() {
				recover() // Error is irrelevant.
			}()
			SaveJSON(testMeta, obj1, obj1Filename)
		}(i)
	}
	wg.Wait()

	// Despite possible errors from saving the object many times concurrently,
	// the object should still be readable.
	err = LoadJSON(testMeta, &obj2, obj1Filename)
	if err != nil {
		t.Fatal(err)
	}
	if obj2.One != obj1.One || obj2.Two != obj1.Two || !bytes.Equal(obj2.Three, obj1.Three) {
		t.Error("persist mismatch")
	}
}
