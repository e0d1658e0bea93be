package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// jsonDocument is a JSON array persisted as a single file.
// Writes go to a temp file that is renamed over the target, so a crash
// mid-write leaves the previous document intact.
type jsonDocument[T any] struct {
	path string
}

func (d jsonDocument[T]) read() ([]T, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, err
	}

	var items []T
	err = json.Unmarshal(data, &items)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", d.path, err)
	}
	return items, nil
}

func (d jsonDocument[T]) write(items []T) error {
	if items == nil {
		items = []T{}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", d.path, err)
	}
	data = append(data, '\n')

	err = os.MkdirAll(filepath.Dir(d.path), 0755)
	if err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	err = atomic.WriteFile(d.path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", d.path, err)
	}
	return nil
}

// quarantine moves an unreadable document aside so it is not silently lost.
func (d jsonDocument[T]) quarantine() (string, error) {
	target := d.path + ".corrupt"
	return target, os.Rename(d.path, target)
}
