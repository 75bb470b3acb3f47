package ports

// FileSystem abstracts whole-file operations.
// Frame stores are memory-mapped and bypass this interface; it covers
// flow files, image directories, debug output and summaries.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating parent directories if necessary.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)

	// ListFiles returns the paths of the regular files directly inside dir,
	// sorted by name.
	ListFiles(dir string) ([]string, error)
}
