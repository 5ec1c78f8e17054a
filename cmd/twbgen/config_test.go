package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	goworkbook "github.com/VantageDataChat/GoTWB"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestParseFieldSpec(t *testing.T) {
	tests := []struct {
		spec    string
		caption string
		agg     goworkbook.Aggregation
	}{
		{"Sales", "Sales", goworkbook.AggregationSum},
		{"avg:Sales", "Sales", goworkbook.AggregationAvg},
		{"countd:Order ID", "Order ID", goworkbook.AggregationCountD},
		{"none:Region", "Region", goworkbook.AggregationNone},
	}
	for _, tt := range tests {
		caption, agg, err := parseFieldSpec(tt.spec)
		if err != nil {
			t.Errorf("parseFieldSpec(%q): %v", tt.spec, err)
			continue
		}
		if caption != tt.caption || agg != tt.agg {
			t.Errorf("parseFieldSpec(%q) = %q, %q; want %q, %q", tt.spec, caption, agg, tt.caption, tt.agg)
		}
	}
}

func TestParseFieldSpecUnknownAggregation(t *testing.T) {
	if _, _, err := parseFieldSpec("mode:Sales"); err == nil {
		t.Error("unknown aggregation prefix should fail")
	}
}

func TestParseMark(t *testing.T) {
	if m, err := parseMark("Bar"); err != nil || m != goworkbook.MarkBar {
		t.Errorf("parseMark(Bar) = %v, %v", m, err)
	}
	if m, err := parseMark(""); err != nil || m != goworkbook.MarkAutomatic {
		t.Errorf("parseMark empty = %v, %v; want automatic", m, err)
	}
	if _, err := parseMark("sparkline"); err == nil {
		t.Error("unknown mark should fail")
	}
}

func TestLoadConfig(t *testing.T) {
	doc := `
datasource-caption = "Superstore"

[geo-roles]
State = "State"

[[calculation]]
caption = "Profit Ratio"
formula = "SUM([Profit])/SUM([Sales])"
datatype = "real"
format = "p0%"
pre-aggregated = true

[[worksheet]]
name = "Sales by Region"
mark = "bar"
rows = ["Region"]
cols = ["Sales"]
color = "Profit Ratio"

[dashboard]
name = "Overview"

[[dashboard.row]]
worksheets = ["Sales by Region"]
height = 100000
`
	path := filepath.Join(t.TempDir(), "workbook.toml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DatasourceCaption != "Superstore" {
		t.Errorf("DatasourceCaption = %q", cfg.DatasourceCaption)
	}
	if len(cfg.Calculations) != 1 || !cfg.Calculations[0].PreAggregated {
		t.Errorf("calculations = %+v", cfg.Calculations)
	}
	if len(cfg.Worksheets) != 1 || cfg.Worksheets[0].Color != "Profit Ratio" {
		t.Errorf("worksheets = %+v", cfg.Worksheets)
	}
	// Unset dashboard size falls back to the defaults.
	if cfg.Dashboard.Width != 1400 || cfg.Dashboard.Height != 900 {
		t.Errorf("dashboard size = %dx%d, want 1400x900", cfg.Dashboard.Width, cfg.Dashboard.Height)
	}
	if len(cfg.Dashboard.Rows) != 1 || cfg.Dashboard.Rows[0].Height != 100000 {
		t.Errorf("dashboard rows = %+v", cfg.Dashboard.Rows)
	}
}

func TestBuildWorkbookFromConfig(t *testing.T) {
	cfg := &Config{
		DatasourceCaption: "Superstore",
		Calculations: []CalcConfig{{
			Caption: "Profit Ratio", Formula: "SUM([Profit])/SUM([Sales])",
			DataType: "real", PreAggregated: true,
		}},
		Worksheets: []WorksheetConfig{{
			Name: "Sales by Region", Mark: "bar",
			Rows: []string{"Region"}, Cols: []string{"Sales"},
			Color: "Profit Ratio",
		}},
		Dashboard: DashboardConfig{
			Name: "Overview", Width: 1400, Height: 900,
			Rows: []RowConfig{{Worksheets: []string{"Sales by Region"}, Height: 100000}},
		},
	}

	csv := "Region,Sales,Profit\nEast,100,10\nWest,200,-5\n"
	dataPath := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(dataPath, []byte(csv), 0644); err != nil {
		t.Fatal(err)
	}
	dataset, err := goworkbook.ReadDatasetCSV(dataPath)
	if err != nil {
		t.Fatal(err)
	}

	wb, err := buildWorkbook(testLogger(), cfg, dataset)
	if err != nil {
		t.Fatalf("buildWorkbook: %v", err)
	}
	if err := wb.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if len(wb.Worksheets()) != 1 || len(wb.Dashboards()) != 1 {
		t.Errorf("workbook has %d worksheets, %d dashboards", len(wb.Worksheets()), len(wb.Dashboards()))
	}
	if _, err := wb.RenderTWB(); err != nil {
		t.Errorf("RenderTWB: %v", err)
	}
}
