package fs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	logging "sales-analysis/internal/infra/log"

	"go.uber.org/zap"
)

// WriteAtomic writes path through a temporary file in the same directory and
// renames it into place, so readers never see a half-written file.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFilePath := path + ".tmp"
	f, err := os.OpenFile(tempFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		os.Remove(tempFilePath)
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(tempFilePath)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempFilePath)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tempFilePath, path); err != nil {
		os.Remove(tempFilePath)
		return fmt.Errorf("failed to rename temporary file to %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SaveJSON writes data as indented JSON.
func SaveJSON(path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	jsonData = append(jsonData, '\n')

	err = WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(jsonData)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", filepath.Base(path), err)
	}

	logging.LogDebug("Saved JSON file", zap.String("file", path), zap.Int("bytes", len(jsonData)))
	return nil
}

// LoadJSON reads a file written by SaveJSON into out.
func LoadJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}
	return nil
}
