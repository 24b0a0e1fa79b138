// Package roster persists enrollments: one "id name branch" line per run in a
// flat text log, next to a directory of face images.
package roster

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/andresmejia3/facenroll/internal/types"
)

const (
	// DefaultLogPath is the roster log in the working directory.
	DefaultLogPath = "datatext.txt"
	// DefaultDataDir holds the captured face images.
	DefaultDataDir = "Data"
)

// EnsureDirectory creates path if it does not exist. Existing directories are left alone.
func EnsureDirectory(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// AppendRecord adds one line for rec to the log at logPath. Records are never
// deduplicated: enrolling the same ID twice yields two lines.
func AppendRecord(rec types.EnrollmentRecord, logPath string) error {
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open roster log: %w", err)
	}

	if _, err := fmt.Fprintln(f, rec.Line()); err != nil {
		f.Close()
		return fmt.Errorf("write roster log: %w", err)
	}
	return f.Close()
}

// ReadAll parses the log back into records. The first field is the ID, the
// second the name and the rest the branch, so names with spaces misparse.
// A missing log is an empty roster.
func ReadAll(logPath string) ([]types.EnrollmentRecord, error) {
	f, err := os.Open(logPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open roster log: %w", err)
	}
	defer f.Close()

	var records []types.EnrollmentRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		rec := types.EnrollmentRecord{ID: fields[0]}
		if len(fields) > 1 {
			rec.Name = fields[1]
		}
		if len(fields) > 2 {
			rec.Branch = strings.Join(fields[2:], " ")
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read roster log: %w", err)
	}
	return records, nil
}

// ImageCount returns how many images for id are present in dataDir. Only
// "{id}_{n}.jpg" names with a numeric n are counted; a missing directory has none.
func ImageCount(dataDir, id string) (int, error) {
	entries, err := os.ReadDir(dataDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read image directory: %w", err)
	}

	prefix := id + "_"
	n := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".jpg") {
			continue
		}
		seq := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".jpg")
		if seq != "" && strings.Trim(seq, "0123456789") == "" {
			n++
		}
	}
	return n, nil
}
