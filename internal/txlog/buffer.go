// Package txlog recovers registry modification records from Windows
// registry transaction log files (.LOG, .LOG1, .LOG2).
//
// Transaction logs are append-only journals of writes that had not yet
// been committed to the hive when the system stopped. The on-disk format
// is only partially documented and files are frequently truncated, so
// recovery here is heuristic: candidate entries are located by signature
// scanning over the raw byte buffer and validated structurally, with no
// attempt at full format compliance (base-block reconciliation, hive-bin
// walking, or dirty-page checksums).
package txlog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for the load and scan stages. I/O level failures
// (ErrNotFound, ErrEmptyFile) abort a parse; ErrNoEntries reports a scan
// that completed cleanly but accepted zero entries.
var (
	ErrNotFound  = errors.New("log file not found")
	ErrEmptyFile = errors.New("log file empty or unreadable")
	ErrNoEntries = errors.New("no transaction entries found")
)

// baseBlockSize is the size of a registry base block header. Files shorter
// than this cannot contain a complete header; that is reported as a warning
// on the buffer, not an error, since signature scanning can still proceed.
const baseBlockSize = 512

// LogBuffer holds the entire contents of one transaction log file.
// The byte slice is treated as immutable for the duration of a scan.
type LogBuffer struct {
	Data        []byte
	HiveName    string
	ShortHeader bool
}

// Load reads a transaction log file wholesale into memory.
// Returns ErrNotFound if the path does not resolve to an existing file and
// ErrEmptyFile if the file is zero-length or the read comes up short.
func Load(path string) (*LogBuffer, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat log file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyFile, err)
	}
	if len(data) == 0 || int64(len(data)) < info.Size() {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	return &LogBuffer{
		Data:        data,
		HiveName:    HiveName(path),
		ShortHeader: len(data) < baseBlockSize,
	}, nil
}

// HiveName derives the hive name from a log file path by stripping the
// .LOG/.LOG1/.LOG2 suffix (e.g. "...\SYSTEM.LOG1" -> "SYSTEM").
// Names without a recognized suffix are returned unchanged.
func HiveName(path string) string {
	name := filepath.Base(path)
	for _, suffix := range []string{".LOG1", ".LOG2", ".LOG"} {
		if strings.HasSuffix(name, suffix) && len(name) > len(suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}
