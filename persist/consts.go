package persist

// persistDir is the subdirectory (relative to the build testing directory)
// used for scratch files created by this package's own tests.
const persistDir = "persist"

// tempSuffix is appended to a file's final name while a SafeFile is still
// being written, before it has been committed via atomic rename.
const tempSuffix = "_temp"
