package goworkbook

import (
	"fmt"
	"strings"
)

// Validate checks the workbook for structural issues and returns an error
// describing all problems found, or nil if the workbook is valid. It covers
// the same references RenderTWB resolves, but collects every problem instead
// of stopping at the first.
func (w *Workbook) Validate() error {
	var errs []string

	if w.datasource == nil {
		errs = append(errs, "datasource is nil")
	}
	if len(w.worksheets) == 0 {
		errs = append(errs, "workbook must have at least one worksheet")
	}

	for _, ws := range w.worksheets {
		prefix := fmt.Sprintf("worksheet %q", ws.name)
		if wsErrs := validateWorksheet(ws); len(wsErrs) > 0 {
			for _, e := range wsErrs {
				errs = append(errs, prefix+": "+e)
			}
		}
	}

	idx := w.worksheetIndex()
	for _, d := range w.dashboards {
		prefix := fmt.Sprintf("dashboard %q", d.name)
		if d.width <= 0 || d.height <= 0 {
			errs = append(errs, prefix+": size must be positive")
		}
		for _, e := range validateZones(d.zones, idx) {
			errs = append(errs, prefix+": "+e)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(errs, "\n  "))
}

func validateWorksheet(ws *Worksheet) []string {
	var errs []string
	if ws.name == "" {
		errs = append(errs, "name is empty")
	}
	for _, fp := range ws.allPlacements() {
		if fp.FieldName == "" && fp.CalcID == "" {
			errs = append(errs, "placement references no field")
			continue
		}
		if fp.CalcID != "" {
			if _, ok := ws.ds.lookupByCalcID(fp.CalcID); !ok {
				errs = append(errs, fmt.Sprintf("calculation %s not in registry", fp.CalcID))
			}
			continue
		}
		if _, ok := ws.ds.lookupByReference(fp.FieldName); !ok {
			errs = append(errs, fmt.Sprintf("field %q not in registry", fp.FieldName))
		}
	}
	return errs
}

func validateZones(zones []*Zone, worksheets map[string]*Worksheet) []string {
	var errs []string
	for _, z := range zones {
		switch z.typ {
		case ZoneWorksheet:
			if z.name == "" {
				errs = append(errs, fmt.Sprintf("zone %d: worksheet zone has no name", z.id))
			} else if _, ok := worksheets[z.name]; !ok {
				errs = append(errs, fmt.Sprintf("zone %d: unknown worksheet %q", z.id, z.name))
			}
		case ZoneFilter, ZoneParameter:
			if z.param == "" {
				errs = append(errs, fmt.Sprintf("zone %d: control zone has no field reference", z.id))
			}
		}
		if len(z.children) > 0 && z.typ != ZoneLayoutBasic {
			errs = append(errs, fmt.Sprintf("zone %d: only containers may have children", z.id))
		}
		errs = append(errs, validateZones(z.children, worksheets)...)
	}
	return errs
}
