// Command twbgen builds a packaged workbook from a delimited dataset and a
// TOML description of its calculations, worksheets and dashboard layout.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	goworkbook "github.com/VantageDataChat/GoTWB"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		dataPath   string
		configPath string
		outPath    string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "twbgen",
		Short: "Generate a packaged workbook from a dataset and a TOML description",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			logger := log.NewWithOptions(os.Stderr, log.Options{
				ReportTimestamp: true,
				TimeFormat:      "15:04:05.00",
				Level:           level,
			})
			return generate(logger, dataPath, configPath, outPath)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "input dataset (CSV with header row)")
	cmd.Flags().StringVar(&configPath, "config", "", "workbook description (TOML)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "workbook.twbx", "output path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	cmd.MarkFlagRequired("data")
	cmd.MarkFlagRequired("config")

	return cmd
}

func generate(logger *log.Logger, dataPath, configPath, outPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger.Info("loading dataset", "path", dataPath)
	dataset, err := goworkbook.ReadDatasetCSV(dataPath)
	if err != nil {
		return err
	}
	logger.Debug("dataset loaded", "rows", dataset.RowCount(), "columns", len(dataset.Columns()))

	wb, err := buildWorkbook(logger, cfg, dataset)
	if err != nil {
		return err
	}

	if err := wb.Validate(); err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "twbgen")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	extractFile := filepath.Join(workDir, "Extract.hyper")
	logger.Info("writing extract", "path", extractFile)
	if err := goworkbook.NewExtractWriter(dataset).Save(extractFile); err != nil {
		return err
	}

	writer, err := goworkbook.NewWriter(wb, goworkbook.WriterTWBX)
	if err != nil {
		return err
	}
	writer.(*goworkbook.TWBXWriter).SetExtractFile(extractFile)

	logger.Info("packaging workbook", "path", outPath)
	if err := writer.Save(outPath); err != nil {
		return err
	}
	logger.Info("done", "worksheets", len(wb.Worksheets()), "dashboards", len(wb.Dashboards()))
	return nil
}

// buildWorkbook assembles the document model from the parsed description.
func buildWorkbook(logger *log.Logger, cfg *Config, dataset *goworkbook.Dataset) (*goworkbook.Workbook, error) {
	wb := goworkbook.New()
	ds := wb.Datasource()
	ds.SetCaption(cfg.DatasourceCaption)

	for _, col := range dataset.RegistryColumns(parseGeoRoles(cfg.GeoRoles)) {
		if err := ds.AddColumn(col); err != nil {
			return nil, err
		}
	}

	preAgg := make(map[string]bool)
	for _, cc := range cfg.Calculations {
		cf, err := ds.AddCalculatedField(goworkbook.CalculatedField{
			Caption:       cc.Caption,
			Formula:       cc.Formula,
			DataType:      parseDataType(cc.DataType),
			Role:          goworkbook.RoleMeasure,
			Type:          goworkbook.TypeQuantitative,
			DefaultFormat: cc.Format,
		})
		if err != nil {
			return nil, err
		}
		preAgg[cc.Caption] = cc.PreAggregated
		logger.Debug("registered calculation", "caption", cc.Caption, "id", cf.ID())
	}

	for _, wc := range cfg.Worksheets {
		if err := buildWorksheet(wb, wc, preAgg); err != nil {
			return nil, err
		}
		logger.Debug("assembled worksheet", "name", wc.Name)
	}

	if len(cfg.Dashboard.Rows) > 0 {
		d := wb.CreateDashboard(cfg.Dashboard.Name, cfg.Dashboard.Width, cfg.Dashboard.Height)
		root := d.AddContainerZone(goworkbook.Rect{W: goworkbook.MaxZoneExtent, H: goworkbook.MaxZoneExtent}, goworkbook.RootParent)
		y := 0
		for _, row := range cfg.Dashboard.Rows {
			d.AddWorksheetRow(row.Worksheets, y, row.Height, root)
			y += row.Height
		}
		logger.Debug("laid out dashboard", "name", cfg.Dashboard.Name, "rows", len(cfg.Dashboard.Rows))
	}

	return wb, nil
}

func buildWorksheet(wb *goworkbook.Workbook, wc WorksheetConfig, preAgg map[string]bool) error {
	ws, err := wb.CreateWorksheet(wc.Name)
	if err != nil {
		return err
	}
	mark, err := parseMark(wc.Mark)
	if err != nil {
		return err
	}
	ws.SetMarkType(mark)

	ds := wb.Datasource()
	place := func(spec string) (*goworkbook.FieldPlacement, error) {
		caption, agg, err := parseFieldSpec(spec)
		if err != nil {
			return nil, err
		}
		var fp *goworkbook.FieldPlacement
		if pre, ok := preAgg[caption]; ok {
			fp, err = ds.PlaceCalculated(caption, agg, pre)
		} else {
			fp, err = ds.Place(caption, agg)
		}
		if err != nil {
			return nil, err
		}
		f, _ := ds.LookupByCaption(caption)
		ws.DeclareDependency(f, agg)
		return fp, nil
	}

	for _, spec := range wc.Rows {
		fp, err := place(spec)
		if err != nil {
			return err
		}
		ws.AddRowField(fp)
	}
	for _, spec := range wc.Cols {
		fp, err := place(spec)
		if err != nil {
			return err
		}
		ws.AddColField(fp)
	}
	if wc.Color != "" {
		fp, err := place(wc.Color)
		if err != nil {
			return err
		}
		ws.SetColorEncoding(fp)
	}
	if wc.Size != "" {
		fp, err := place(wc.Size)
		if err != nil {
			return err
		}
		ws.SetSizeEncoding(fp)
	}
	if wc.Label != "" {
		fp, err := place(wc.Label)
		if err != nil {
			return err
		}
		ws.SetLabelEncoding(fp)
	}
	for _, spec := range wc.Detail {
		fp, err := place(spec)
		if err != nil {
			return err
		}
		ws.AddDetailEncoding(fp)
	}
	return nil
}
