package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrDuplicate is returned when the target file exists and duplicates are not allowed
var ErrDuplicate = errors.New("file already exists")

// partialPrefix names downloads in progress. SanitizeName strips leading dots,
// so no archived file can carry it.
const partialPrefix = ".dl-"

// Fetcher downloads a remote file to a local path and returns its size
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) (int64, error)
}

// Archive lays out archived files under root/<chat name>[/<user>]/<file name>
type Archive struct {
	root        string
	fetcher     Fetcher
	zipMaxBytes int64
}

// SaveRequest describes a single file to archive
type SaveRequest struct {
	URL             string
	ChatName        string
	UserDir         string // empty unless files are sorted by user
	FileName        string
	AllowDuplicates bool
}

// New creates an archive rooted at root, creating the directory if needed
func New(root string, fetcher Fetcher, zipMaxBytes int64) (*Archive, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive root: %w", err)
	}
	return &Archive{root: root, fetcher: fetcher, zipMaxBytes: zipMaxBytes}, nil
}

// Root returns the archive root directory
func (a *Archive) Root() string {
	return a.root
}

// ChatDir returns the directory holding the files of a chat
func (a *Archive) ChatDir(chatName string) string {
	return filepath.Join(a.root, SanitizeName(chatName))
}

// Save downloads a file into the chat directory and returns its path relative
// to that directory together with its size
func (a *Archive) Save(ctx context.Context, req SaveRequest) (string, int64, error) {
	chatDir := a.ChatDir(req.ChatName)
	dir := chatDir
	if req.UserDir != "" {
		dir = filepath.Join(dir, SanitizeName(req.UserDir))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create chat directory: %w", err)
	}

	target, err := ResolveTarget(dir, SanitizeName(req.FileName), req.AllowDuplicates)
	if err != nil {
		return "", 0, err
	}

	// Download next to the target and rename, so a failed transfer never
	// leaves a file that looks archived.
	tmp, err := os.CreateTemp(dir, partialPrefix+"*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create download file: %w", err)
	}
	partial := tmp.Name()
	tmp.Close()
	size, err := a.fetcher.Fetch(ctx, req.URL, partial)
	if err != nil {
		_ = os.Remove(partial)
		return "", 0, fmt.Errorf("failed to download file: %w", err)
	}
	if err := os.Rename(partial, target); err != nil {
		_ = os.Remove(partial)
		return "", 0, fmt.Errorf("failed to move downloaded file: %w", err)
	}

	rel, err := filepath.Rel(chatDir, target)
	if err != nil {
		return "", 0, fmt.Errorf("failed to compute relative path: %w", err)
	}

	log.Debug().Str("path", rel).Int64("size", size).Msg("Archived file")
	return rel, size, nil
}

// Clear removes every archived file of a chat
func (a *Archive) Clear(chatName string) error {
	if chatName == "" {
		return nil
	}
	if err := os.RemoveAll(a.ChatDir(chatName)); err != nil {
		return fmt.Errorf("failed to clear chat directory: %w", err)
	}
	return nil
}

// Rename moves the directory of a chat after its name changed. A chat without
// files has no directory and nothing to move.
func (a *Archive) Rename(oldName, newName string) error {
	if oldName == "" || oldName == newName {
		return nil
	}
	from, to := a.ChatDir(oldName), a.ChatDir(newName)
	if !exists(from) {
		return nil
	}
	if exists(to) {
		return fmt.Errorf("cannot rename %s: target directory %s exists", from, to)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("failed to rename chat directory: %w", err)
	}
	return nil
}

// Remove deletes a single file given its path relative to the chat directory
func (a *Archive) Remove(chatName, relPath string) error {
	err := os.Remove(filepath.Join(a.ChatDir(chatName), relPath))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// Usage returns the number of bytes stored in the archive
func (a *Archive) Usage() (int64, error) {
	return dirSize(a.root)
}

// ResolveTarget picks the path a file is written to. An existing name is an
// ErrDuplicate unless duplicates are allowed, in which case the first free
// "name (n).ext" is used.
func ResolveTarget(dir, fileName string, allowDuplicates bool) (string, error) {
	target := filepath.Join(dir, fileName)
	if !exists(target) {
		return target, nil
	}
	if !allowDuplicates {
		return "", ErrDuplicate
	}

	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", base, n, ext))
		if !exists(candidate) {
			return candidate, nil
		}
	}
}

// SanitizeName turns an arbitrary label into a single safe path element
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "_", "\\", "_", "\x00", "").Replace(name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "_"
	}
	return name
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func dirSize(dir string) (int64, error) {
	var size int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to compute directory size: %w", err)
	}
	return size, nil
}
