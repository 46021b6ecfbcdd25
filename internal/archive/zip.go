package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type zipEntry struct {
	path string
	rel  string
	size int64
}

// Zip packs the files of a chat into one or more zip files inside outDir.
// Files are grouped so that the uncompressed content of a part stays under the
// configured limit; a single file above the limit gets a part of its own.
// It returns the zip paths in order, or nil when the chat has no files.
func (a *Archive) Zip(chatName, outDir string) ([]string, error) {
	dir := a.ChatDir(chatName)
	entries, err := collectEntries(dir)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	groups := groupEntries(entries, a.zipMaxBytes)
	base := SanitizeName(chatName)
	paths := make([]string, 0, len(groups))
	for i, group := range groups {
		name := base + ".zip"
		if len(groups) > 1 {
			name = fmt.Sprintf("%s.part%d.zip", base, i+1)
		}
		out := filepath.Join(outDir, name)
		if err := writeZip(out, group); err != nil {
			return nil, err
		}
		paths = append(paths, out)
	}
	return paths, nil
}

func collectEntries(dir string) ([]zipEntry, error) {
	var entries []zipEntry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == dir {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), partialPrefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		entries = append(entries, zipEntry{path: path, rel: filepath.ToSlash(rel), size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list chat files: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })
	return entries, nil
}

func groupEntries(entries []zipEntry, maxBytes int64) [][]zipEntry {
	var groups [][]zipEntry
	var current []zipEntry
	var currentSize int64
	for _, e := range entries {
		if len(current) > 0 && maxBytes > 0 && currentSize+e.size > maxBytes {
			groups = append(groups, current)
			current, currentSize = nil, 0
		}
		current = append(current, e)
		currentSize += e.size
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

func writeZip(out string, entries []zipEntry) (err error) {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create zip: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close zip: %w", cerr)
		}
	}()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		if err := addToZip(zw, e); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish zip: %w", err)
	}
	return nil
}

func addToZip(zw *zip.Writer, e zipEntry) error {
	src, err := os.Open(e.path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", e.rel, err)
	}
	defer src.Close()

	w, err := zw.Create(e.rel)
	if err != nil {
		return fmt.Errorf("failed to add %s to zip: %w", e.rel, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("failed to write %s to zip: %w", e.rel, err)
	}
	return nil
}
