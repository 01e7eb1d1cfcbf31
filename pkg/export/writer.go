// Package export writes the derived tables of a run to an output directory.
// Every file is written to a temporary sibling and renamed into place, so a
// failed write never leaves a truncated file where a previous result was.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dd0wney/cluso-telco/pkg/logging"
)

const (
	filePermissions = 0o644
	dirPermissions  = 0o755
)

// Written records one output file.
type Written struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// Writer writes output files into one directory.
type Writer struct {
	dir     string
	logger  logging.Logger
	written []Written
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string, logger logging.Logger) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is empty")
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Writer{
		dir:    dir,
		logger: logging.OrNop(logger).With(logging.Component("export")),
	}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Written returns the files written so far, in write order.
func (w *Writer) Written() []Written {
	out := make([]Written, len(w.written))
	copy(out, w.written)
	return out
}

func (w *Writer) record(name, path string, rows int) {
	w.written = append(w.written, Written{Name: name, Path: path, Rows: rows})
	w.logger.Info("output written", logging.Path(path), logging.Records(rows))
}

// CSV writes a table as <name>.csv with a header row.
func (w *Writer) CSV(t *Table) error {
	path := filepath.Join(w.dir, t.Name+".csv")
	err := writeAtomic(path, func(out io.Writer) error {
		cw := csv.NewWriter(out)
		if err := cw.Write(t.Header); err != nil {
			return err
		}
		if err := cw.WriteAll(t.Rows); err != nil {
			return err
		}
		return cw.Error()
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", t.Name, err)
	}
	w.record(t.Name, path, len(t.Rows))
	return nil
}

// JSON writes v as indented JSON to name.
func (w *Writer) JSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	path := filepath.Join(w.dir, name)
	err = writeAtomic(path, func(out io.Writer) error {
		_, err := out.Write(append(data, '\n'))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	w.record(name, path, 1)
	return nil
}

// File writes raw content produced by fn to name.
func (w *Writer) File(name string, fn func(io.Writer) error) error {
	path := filepath.Join(w.dir, name)
	if err := writeAtomic(path, fn); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	w.record(name, path, 0)
	return nil
}

// writeAtomic writes to a temporary file in the target directory, syncs it
// and renames it over path.
func writeAtomic(path string, fn func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err = fn(buf); err != nil {
		return err
	}
	if err = buf.Flush(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(filePermissions); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(tmpPath, path)
}
