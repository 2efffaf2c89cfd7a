package sed

import (
	"fmt"
	"os"
	"path/filepath"
)

// Discover lists the sample files (*.sed) in dir, sorted by name so batch
// row order is stable across runs. A missing or unreadable directory is an
// error naming the path.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading sample directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sed" {
			continue
		}

		files = append(files, filepath.Join(dir, entry.Name()))
	}

	return files, nil
}
