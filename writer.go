package goworkbook

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TWBFileName is the workbook entry's path inside the packaged archive.
const TWBFileName = "workbook.twb"

// Writer is the interface for workbook writers.
type Writer interface {
	Save(path string) error
	WriteTo(w io.Writer) error
}

// WriterType represents the output format.
type WriterType string

const (
	// WriterTWBX packages the workbook text together with the extract
	// artifact into a TWBX (ZIP) container.
	WriterTWBX WriterType = "TWBX"
)

// NewWriter creates a writer for the given format.
func NewWriter(w *Workbook, format WriterType) (Writer, error) {
	switch format {
	case WriterTWBX:
		return &TWBXWriter{workbook: w}, nil
	default:
		return nil, fmt.Errorf("unsupported writer format: %s", format)
	}
}

// TWBXWriter packages workbooks as TWBX archives: a two-entry ZIP holding
// the rendered workbook text at TWBFileName and the binary extract at the
// datasource's extract path. The writer never reads or interprets the
// extract; it only copies the bytes the extract writer produced.
type TWBXWriter struct {
	workbook    *Workbook
	extractFile string
}

// SetExtractFile points the writer at the binary extract artifact on disk
// to embed in the archive.
func (w *TWBXWriter) SetExtractFile(path string) { w.extractFile = path }

// Save writes the packaged workbook to a file.
func (w *TWBXWriter) Save(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	writeErr := w.WriteTo(f)
	closeErr := f.Close()

	if writeErr != nil {
		// Attempt cleanup on write failure
		os.Remove(path)
		return writeErr
	}
	return closeErr
}

// WriteTo writes the packaged workbook to a writer.
func (w *TWBXWriter) WriteTo(writer io.Writer) error {
	if w.workbook == nil {
		return fmt.Errorf("workbook is nil")
	}
	if w.extractFile == "" {
		return fmt.Errorf("extract file not set; call SetExtractFile first")
	}

	twb, err := w.workbook.RenderTWB()
	if err != nil {
		return err
	}

	zw := zip.NewWriter(writer)

	fw, err := zw.Create(TWBFileName)
	if err != nil {
		return fmt.Errorf("failed to create %s in zip: %w", TWBFileName, err)
	}
	if _, err := fw.Write([]byte(twb)); err != nil {
		return err
	}

	extractPath := w.workbook.datasource.ExtractPath()
	fw, err = zw.Create(extractPath)
	if err != nil {
		return fmt.Errorf("failed to create %s in zip: %w", extractPath, err)
	}
	src, err := os.Open(w.extractFile)
	if err != nil {
		return fmt.Errorf("failed to open extract file: %w", err)
	}
	_, copyErr := io.Copy(fw, src)
	closeErr := src.Close()
	if copyErr != nil {
		return copyErr
	}
	if closeErr != nil {
		return closeErr
	}

	return zw.Close()
}

// SaveTWB writes the workbook text alone (no packaging) to a file.
func (w *Workbook) SaveTWB(path string) error {
	twb, err := w.RenderTWB()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(twb), 0644)
}
