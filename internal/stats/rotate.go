// Package stats keeps the connectivity history files and the small scratch
// files used for uptime and failure reporting.
package stats

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// DefaultMaxBytes is roughly two and a half months of cellular history at one
// row every five minutes.
const DefaultMaxBytes = 512 * 1024

// RotatingFile appends lines to a file, moving it to Path+".1" before a write
// would reach MaxBytes. Only one backup generation is kept.
type RotatingFile struct {
	Path     string
	MaxBytes int64
	// Header is written as the first line of a missing or empty file.
	Header string

	mu sync.Mutex
}

func NewRotatingFile(path, header string) *RotatingFile {
	return &RotatingFile{Path: path, MaxBytes: DefaultMaxBytes, Header: header}
}

func (f *RotatingFile) BackupPath() string {
	return f.Path + ".1"
}

// Append writes line followed by a newline.
func (f *RotatingFile) Append(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return err
	}

	size, err := f.size()
	if err != nil {
		return err
	}
	if size == 0 && f.Header != "" {
		if err := f.write(f.Header+"\n", &size); err != nil {
			return err
		}
	}
	return f.write(line+"\n", &size)
}

func (f *RotatingFile) size() (int64, error) {
	info, err := os.Stat(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (f *RotatingFile) write(record string, size *int64) error {
	if f.MaxBytes > 0 && *size > 0 && *size+int64(len(record)) >= f.MaxBytes {
		if err := f.rotate(); err != nil {
			return err
		}
		*size = 0
	}
	file, err := os.OpenFile(f.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	n, err := file.WriteString(record)
	*size += int64(n)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

func (f *RotatingFile) rotate() error {
	if err := os.Remove(f.BackupPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove old backup: %w", err)
	}
	return os.Rename(f.Path, f.BackupPath())
}
