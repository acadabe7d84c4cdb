package generator

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vanshika/creditbridge/backend/internal/scoring"
)

// WriteRecords encodes records as an indented JSON array.
func WriteRecords(w io.Writer, records []scoring.ProfileRecord) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	return nil
}

// WriteFile writes records to path, creating parent directories as needed.
func WriteFile(path string, records []scoring.ProfileRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := WriteRecords(file, records); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

// ReadFile loads records previously written by WriteFile.
func ReadFile(path string) ([]scoring.ProfileRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var records []scoring.ProfileRecord
	if err := json.NewDecoder(file).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}
