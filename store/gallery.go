// Package store persists generated mockup images to the output
// directory and serves them back by filename.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// filenameTimestamp is the layout used in generated file names.
const filenameTimestamp = "20060102-150405"

// Gallery manages the on-disk mockup gallery. File names follow the
// pattern mockup_{product}_{style}_{timestamp}.png, with a _{idx}
// suffix when a run produces multiple variations.
type Gallery struct {
	dir string
}

// NewGallery creates a gallery rooted at dir, creating the directory
// if it does not exist.
func NewGallery(dir string) (*Gallery, error) {
	if dir == "" {
		return nil, fmt.Errorf("gallery directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create gallery directory %s: %w", dir, err)
	}
	return &Gallery{dir: dir}, nil
}

// Dir returns the gallery root directory.
func (g *Gallery) Dir() string {
	return g.dir
}

// Save writes a batch of PNG images from one generation run and
// returns their filenames in order. A single image gets no index
// suffix; multiple variations are numbered from 0.
func (g *Gallery) Save(product, style string, images [][]byte) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}

	timestamp := time.Now().Format(filenameTimestamp)
	names := make([]string, 0, len(images))

	for i, png := range images {
		var name string
		if len(images) == 1 {
			name = fmt.Sprintf("mockup_%s_%s_%s.png", product, style, timestamp)
		} else {
			name = fmt.Sprintf("mockup_%s_%s_%s_%d.png", product, style, timestamp, i)
		}

		if err := os.WriteFile(filepath.Join(g.dir, name), png, 0644); err != nil {
			return names, fmt.Errorf("failed to write %s: %w", name, err)
		}
		names = append(names, name)
	}

	return names, nil
}

// SaveOne writes a single PNG image and returns its filename.
func (g *Gallery) SaveOne(product, style string, png []byte) (string, error) {
	names, err := g.Save(product, style, [][]byte{png})
	if err != nil {
		return "", err
	}
	return names[0], nil
}

// ValidFilename reports whether name is a plain gallery filename.
// Path separators and traversal components are rejected so that
// request paths cannot escape the gallery directory.
func ValidFilename(name string) bool {
	if name == "" || name != filepath.Base(name) {
		return false
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return false
	}
	return strings.HasSuffix(name, ".png")
}

// Path resolves a gallery filename to its absolute path.
// Returns an error if the name is invalid or the file does not exist.
func (g *Gallery) Path(name string) (string, error) {
	if !ValidFilename(name) {
		return "", fmt.Errorf("invalid gallery filename %q", name)
	}

	path := filepath.Join(g.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("gallery file %s not found: %w", name, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("gallery entry %s is a directory", name)
	}

	return path, nil
}

// Read returns the contents of a gallery file.
func (g *Gallery) Read(name string) ([]byte, error) {
	path, err := g.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gallery file %s: %w", name, err)
	}
	return data, nil
}

// List returns up to limit gallery filenames, newest first.
// Pass limit <= 0 for all files.
func (g *Gallery) List(limit int) ([]string, error) {
	entries, err := os.ReadDir(g.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read gallery directory: %w", err)
	}

	type fileInfo struct {
		name    string
		modTime time.Time
	}

	var files []fileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{name: entry.Name(), modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].name > files[j].name
		}
		return files[i].modTime.After(files[j].modTime)
	})

	if limit > 0 && limit < len(files) {
		files = files[:limit]
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names, nil
}

// Prune deletes gallery files older than maxAge and returns how many
// were removed. Database history rows are cleaned up separately.
func (g *Gallery) Prune(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(g.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read gallery directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(g.dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
		removed++
	}

	return removed, nil
}
