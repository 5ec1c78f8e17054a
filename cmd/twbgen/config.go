package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	goworkbook "github.com/VantageDataChat/GoTWB"
)

// Config describes a workbook to generate: the calculations to register,
// geographic roles to attach, the worksheets to assemble and the dashboard
// layout rows.
type Config struct {
	DatasourceCaption string            `toml:"datasource-caption"`
	GeoRoles          map[string]string `toml:"geo-roles"`
	Calculations      []CalcConfig      `toml:"calculation"`
	Worksheets        []WorksheetConfig `toml:"worksheet"`
	Dashboard         DashboardConfig   `toml:"dashboard"`
}

// CalcConfig is one calculated field. Pre-aggregated calculations render
// with the pass-through marker wherever they are placed.
type CalcConfig struct {
	Caption       string `toml:"caption"`
	Formula       string `toml:"formula"`
	DataType      string `toml:"datatype"`
	Format        string `toml:"format"`
	PreAggregated bool   `toml:"pre-aggregated"`
}

// WorksheetConfig is one visualization. Shelf and encoding entries are
// field specs: a caption, optionally prefixed with an aggregation like
// "avg:Sales" (measures default to sum).
type WorksheetConfig struct {
	Name   string   `toml:"name"`
	Mark   string   `toml:"mark"`
	Rows   []string `toml:"rows"`
	Cols   []string `toml:"cols"`
	Color  string   `toml:"color"`
	Size   string   `toml:"size"`
	Label  string   `toml:"label"`
	Detail []string `toml:"detail"`
}

// DashboardConfig lays worksheets out as stacked full-width rows, each row
// split evenly between its worksheets.
type DashboardConfig struct {
	Name   string      `toml:"name"`
	Width  int         `toml:"width"`
	Height int         `toml:"height"`
	Rows   []RowConfig `toml:"row"`
}

// RowConfig is one horizontal band of the dashboard.
type RowConfig struct {
	Worksheets []string `toml:"worksheets"`
	Height     int      `toml:"height"`
}

// LoadConfig parses a TOML workbook description.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.DatasourceCaption == "" {
		cfg.DatasourceCaption = "Extract"
	}
	if cfg.Dashboard.Width == 0 {
		cfg.Dashboard.Width = 1400
	}
	if cfg.Dashboard.Height == 0 {
		cfg.Dashboard.Height = 900
	}
	return &cfg, nil
}

// marks maps config mark names to the closed mark-type set.
var marks = map[string]goworkbook.MarkType{
	"automatic": goworkbook.MarkAutomatic,
	"bar":       goworkbook.MarkBar,
	"line":      goworkbook.MarkLine,
	"area":      goworkbook.MarkArea,
	"circle":    goworkbook.MarkCircle,
	"square":    goworkbook.MarkSquare,
	"text":      goworkbook.MarkText,
	"map":       goworkbook.MarkMap,
	"polygon":   goworkbook.MarkPolygon,
	"shape":     goworkbook.MarkShape,
	"pie":       goworkbook.MarkPie,
	"gantt":     goworkbook.MarkGanttBar,
}

func parseMark(s string) (goworkbook.MarkType, error) {
	if s == "" {
		return goworkbook.MarkAutomatic, nil
	}
	if m, ok := marks[strings.ToLower(s)]; ok {
		return m, nil
	}
	return "", fmt.Errorf("unknown mark type %q", s)
}

// aggregations maps field-spec prefixes to aggregation policies.
var aggregations = map[string]goworkbook.Aggregation{
	"none":   goworkbook.AggregationNone,
	"sum":    goworkbook.AggregationSum,
	"avg":    goworkbook.AggregationAvg,
	"count":  goworkbook.AggregationCount,
	"countd": goworkbook.AggregationCountD,
	"min":    goworkbook.AggregationMin,
	"max":    goworkbook.AggregationMax,
	"median": goworkbook.AggregationMedian,
	"attr":   goworkbook.AggregationAttr,
}

// parseFieldSpec splits an optional aggregation prefix off a field spec.
// "avg:Sales" yields (Sales, Avg); a bare caption defaults to Sum, which
// dimensions ignore.
func parseFieldSpec(spec string) (caption string, agg goworkbook.Aggregation, err error) {
	if prefix, rest, ok := strings.Cut(spec, ":"); ok {
		if a, known := aggregations[strings.ToLower(prefix)]; known {
			return rest, a, nil
		}
		return "", "", fmt.Errorf("unknown aggregation %q in field spec %q", prefix, spec)
	}
	return spec, goworkbook.AggregationSum, nil
}

func parseDataType(s string) goworkbook.DataType {
	switch strings.ToLower(s) {
	case "integer":
		return goworkbook.DataTypeInteger
	case "string":
		return goworkbook.DataTypeString
	case "boolean":
		return goworkbook.DataTypeBoolean
	case "date":
		return goworkbook.DataTypeDate
	case "datetime":
		return goworkbook.DataTypeDatetime
	default:
		return goworkbook.DataTypeReal
	}
}

func parseGeoRoles(m map[string]string) map[string]goworkbook.GeoRole {
	out := make(map[string]goworkbook.GeoRole, len(m))
	for col, role := range m {
		out[col] = goworkbook.GeoRole(role)
	}
	return out
}
