package goworkbook

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Extract file format constants. The artifact is opaque to the workbook
// core: only its relative path appears in the datasource connection.
const (
	extractMagic   = "GWEXTR01"
	extractVersion = uint16(1)
)

// ExtractWriter serializes a Dataset into the binary columnar extract
// artifact packaged next to the workbook text. Layout: magic, version,
// column count, then per column a header (name, datatype) followed by the
// column's values in row order.
type ExtractWriter struct {
	dataset *Dataset
}

// NewExtractWriter creates an extract writer over a dataset.
func NewExtractWriter(d *Dataset) *ExtractWriter {
	return &ExtractWriter{dataset: d}
}

// Save writes the extract artifact to a file.
func (e *ExtractWriter) Save(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create extract: %w", err)
	}
	writeErr := e.WriteTo(f)
	closeErr := f.Close()
	if writeErr != nil {
		os.Remove(path)
		return writeErr
	}
	return closeErr
}

// WriteTo writes the extract artifact to w.
func (e *ExtractWriter) WriteTo(w io.Writer) error {
	if e.dataset == nil {
		return fmt.Errorf("dataset is nil")
	}
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(extractMagic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, extractVersion); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(e.dataset.columns))); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(e.dataset.rows))); err != nil {
		return err
	}

	for i, col := range e.dataset.columns {
		if err := writeString(bw, col.Name); err != nil {
			return err
		}
		if err := writeString(bw, string(col.DataType)); err != nil {
			return err
		}
		if err := e.writeColumnValues(bw, i, col.DataType); err != nil {
			return fmt.Errorf("column %q: %w", col.Name, err)
		}
	}

	return bw.Flush()
}

// writeColumnValues encodes one column's values. Each value is preceded by
// a presence byte so empty cells survive the round trip.
func (e *ExtractWriter) writeColumnValues(w io.Writer, col int, dt DataType) error {
	for _, row := range e.dataset.rows {
		v := strings.TrimSpace(row[col])
		if v == "" {
			if err := binary.Write(w, binary.LittleEndian, byte(0)); err != nil {
				return err
			}
			continue
		}
		if err := binary.Write(w, binary.LittleEndian, byte(1)); err != nil {
			return err
		}
		if err := writeValue(w, v, dt); err != nil {
			return err
		}
	}
	return nil
}

func writeValue(w io.Writer, v string, dt DataType) error {
	switch dt {
	case DataTypeInteger:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, n)
	case DataTypeReal:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, f)
	case DataTypeBoolean:
		b := byte(0)
		if strings.EqualFold(v, "true") {
			b = 1
		}
		return binary.Write(w, binary.LittleEndian, b)
	case DataTypeDate, DataTypeDatetime:
		layout, ok := matchLayout(v)
		if !ok {
			return fmt.Errorf("unparseable timestamp %q", v)
		}
		t, err := time.Parse(layout, v)
		if err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, t.Unix())
	default:
		return writeString(w, v)
	}
}

// writeString writes a length-prefixed UTF-8 string.
func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}
