// Package goworkbook provides a pure Go library for assembling
// visual-analytics workbooks and serializing them into the TWB markup
// dialect, packaged with a data extract as a TWBX archive.
//
// A Workbook is built incrementally: populate the Datasource registry with
// columns and calculated fields, assemble Worksheets that place those fields
// on shelves and encodings, lay the worksheets out on a Dashboard, then hand
// the workbook to a Writer. The consuming application's parser is sensitive
// to attribute names, ordering and escaping, so all serialization goes
// through the renderers in this package.
//
// See the Version variable for the current library version.
package goworkbook

import (
	"github.com/cockroachdb/errors"
)

// Workbook is the root aggregate: one datasource registry, an ordered list
// of worksheets and the dashboards laying them out. It is constructed
// incrementally by a single caller and treated as immutable once handed to
// a Writer; rendering never mutates it.
type Workbook struct {
	idgen           *IDGenerator
	datasource      *Datasource
	worksheets      []*Worksheet
	dashboards      []*Dashboard
	activeWorksheet string
}

// DefaultExtractPath is the extract artifact's path inside the packaged
// archive, as referenced by the datasource connection element.
const DefaultExtractPath = "Data/Extract.hyper"

// New creates a new Workbook with a freshly named datasource.
func New() *Workbook {
	idgen := newIDGenerator()
	return &Workbook{
		idgen:      idgen,
		datasource: newDatasource(nextDatasourceName(), "Extract", DefaultExtractPath, idgen),
	}
}

// Datasource returns the workbook's column/calculation registry.
func (w *Workbook) Datasource() *Datasource { return w.datasource }

// CreateWorksheet creates a worksheet bound to the workbook's datasource.
// The name is the join key dashboards use; a second worksheet with the same
// name fails with ErrDuplicateName.
func (w *Workbook) CreateWorksheet(name string) (*Worksheet, error) {
	for _, ws := range w.worksheets {
		if ws.name == name {
			return nil, errors.Wrapf(ErrDuplicateName, "worksheet %q", name)
		}
	}
	ws := newWorksheet(name, w.datasource)
	w.worksheets = append(w.worksheets, ws)
	return ws, nil
}

// GetWorksheet returns a worksheet by name.
func (w *Workbook) GetWorksheet(name string) (*Worksheet, bool) {
	for _, ws := range w.worksheets {
		if ws.name == name {
			return ws, true
		}
	}
	return nil, false
}

// Worksheets returns all worksheets in creation order.
func (w *Workbook) Worksheets() []*Worksheet { return w.worksheets }

// CreateDashboard creates a dashboard with a fixed pixel size. Zone ids are
// issued by the workbook's generator, so they stay unique even across
// multiple dashboards.
func (w *Workbook) CreateDashboard(name string, width, height int) *Dashboard {
	d := newDashboard(name, width, height, w.idgen)
	w.dashboards = append(w.dashboards, d)
	return d
}

// Dashboards returns all dashboards in creation order.
func (w *Workbook) Dashboards() []*Dashboard { return w.dashboards }

// SetActiveWorksheet names the worksheet the consuming application opens
// to. Defaults to the first worksheet in creation order.
func (w *Workbook) SetActiveWorksheet(name string) error {
	if _, ok := w.GetWorksheet(name); !ok {
		return errors.Wrapf(ErrUnresolvedField, "worksheet %q", name)
	}
	w.activeWorksheet = name
	return nil
}

// worksheetIndex returns the worksheets keyed by name, for zone resolution.
func (w *Workbook) worksheetIndex() map[string]*Worksheet {
	idx := make(map[string]*Worksheet, len(w.worksheets))
	for _, ws := range w.worksheets {
		idx[ws.name] = ws
	}
	return idx
}

// windowWorksheet returns the worksheet named by the windows block. The
// block must name at least one existing worksheet or the consuming
// application opens to an empty view.
func (w *Workbook) windowWorksheet() (string, error) {
	if w.activeWorksheet != "" {
		return w.activeWorksheet, nil
	}
	if len(w.worksheets) == 0 {
		return "", errors.New("workbook has no worksheets")
	}
	return w.worksheets[0].name, nil
}
