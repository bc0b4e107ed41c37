package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Writer serializes batches to the output directory. Writes are atomic:
// tmp file → fsync → rename, so a crashed run never leaves a torn batch
// for the packaging collaborator to pick up.
type Writer struct {
	dir               string
	placeholderAuthor string
	importSet         string
}

// NewWriter creates the output directory if needed and returns a Writer.
func NewWriter(dir, placeholderAuthor, importSet string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: mkdir %s: %w", dir, err)
	}
	return &Writer{
		dir:               dir,
		placeholderAuthor: placeholderAuthor,
		importSet:         importSet,
	}, nil
}

// WriteBatch writes one batch as a JSON array of payloads, named by its
// index range, and returns the file name.
func (w *Writer) WriteBatch(b Batch) (string, error) {
	payloads := make([]Payload, len(b.Records))
	for i, r := range b.Records {
		payloads[i] = NewPayload(r, w.placeholderAuthor, w.importSet)
	}

	data, err := json.MarshalIndent(payloads, "", "  ")
	if err != nil {
		return "", fmt.Errorf("export: marshal batch [%d,%d]: %w", b.Start, b.End, err)
	}

	name := fmt.Sprintf("records-%06d-%06d.json", b.Start, b.End)
	if err := writeAtomic(filepath.Join(w.dir, name), data); err != nil {
		return "", err
	}
	return name, nil
}

// WriteJSON atomically writes v as indented JSON to path. Side outputs
// (redirect mappings, taxonomy terms) use it alongside the record batches.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal %s: %w", filepath.Base(path), err)
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".othala-tmp-*")
	if err != nil {
		return fmt.Errorf("export: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("export: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("export: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("export: rename: %w", err)
	}
	return nil
}
