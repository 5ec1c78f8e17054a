package goworkbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatasetColumn is one column of a loaded dataset: its name and the type
// inferred from its values.
type DatasetColumn struct {
	Name     string
	DataType DataType
}

// Dataset is an in-memory tabular dataset loaded from a delimited file.
// Values are kept as strings; the inferred column types drive both registry
// population and extract encoding.
type Dataset struct {
	columns []DatasetColumn
	rows    [][]string
}

// Columns returns the dataset's column metadata.
func (d *Dataset) Columns() []DatasetColumn { return d.columns }

// Rows returns the raw row values.
func (d *Dataset) Rows() [][]string { return d.rows }

// RowCount returns the number of data rows.
func (d *Dataset) RowCount() int { return len(d.rows) }

// datetimeLayouts are the layouts tried, in order, when sniffing a
// date/datetime column.
var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
}

// ReadDatasetCSV loads a comma-delimited file with a header row and infers
// each column's type from its values.
func ReadDatasetCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	return ReadDataset(f)
}

// ReadDataset loads comma-delimited data with a header row from r.
func ReadDataset(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		// Ragged rows are padded rather than rejected.
		if len(rec) < len(header) {
			padded := make([]string, len(header))
			copy(padded, rec)
			rec = padded
		}
		rows = append(rows, rec[:len(header)])
	}

	ds := &Dataset{rows: rows}
	for i, name := range header {
		ds.columns = append(ds.columns, DatasetColumn{
			Name:     strings.TrimSpace(name),
			DataType: inferColumnType(rows, i),
		})
	}
	return ds, nil
}

// inferColumnType sniffs a column's type from its non-empty values: all
// integers => integer, all numeric => real, all booleans => boolean, all
// parseable timestamps => datetime (date when no value carries a time of
// day), anything else => string. An all-empty column is a string column.
func inferColumnType(rows [][]string, col int) DataType {
	sawValue := false
	isInt, isReal, isBool := true, true, true
	isTime, timeOnlyDates := true, true

	for _, row := range rows {
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		sawValue = true

		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isReal {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isReal = false
			}
		}
		if isBool {
			switch strings.ToLower(v) {
			case "true", "false":
			default:
				isBool = false
			}
		}
		if isTime {
			layout, ok := matchLayout(v)
			if !ok {
				isTime = false
			} else if strings.ContainsAny(layout, ":") {
				timeOnlyDates = false
			}
		}
	}

	switch {
	case !sawValue:
		return DataTypeString
	case isBool:
		return DataTypeBoolean
	case isInt:
		return DataTypeInteger
	case isReal:
		return DataTypeReal
	case isTime && timeOnlyDates:
		return DataTypeDate
	case isTime:
		return DataTypeDatetime
	default:
		return DataTypeString
	}
}

func matchLayout(v string) (string, bool) {
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return layout, true
		}
	}
	return "", false
}

// RegistryColumns maps the dataset's columns to registry Column specs using
// the standard role/classification inference: textual and boolean columns
// are nominal dimensions, numeric columns quantitative measures, temporal
// columns ordinal dimensions. geoRoles optionally attaches a geographic
// classification per column name.
func (d *Dataset) RegistryColumns(geoRoles map[string]GeoRole) []Column {
	cols := make([]Column, 0, len(d.columns))
	for _, dc := range d.columns {
		col := Column{
			Name:     dc.Name,
			DataType: dc.DataType,
			GeoRole:  geoRoles[dc.Name],
		}
		switch dc.DataType {
		case DataTypeInteger, DataTypeReal:
			col.Role = RoleMeasure
			col.Type = TypeQuantitative
		case DataTypeDate, DataTypeDatetime:
			col.Role = RoleDimension
			col.Type = TypeOrdinal
		default:
			col.Role = RoleDimension
			col.Type = TypeNominal
		}
		cols = append(cols, col)
	}
	return cols
}
