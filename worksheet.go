package goworkbook

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// MarkType is the visual mark used by a worksheet.
type MarkType string

// Mark types.
const (
	MarkAutomatic MarkType = "Automatic"
	MarkBar       MarkType = "Bar"
	MarkLine      MarkType = "Line"
	MarkArea      MarkType = "Area"
	MarkCircle    MarkType = "Circle"
	MarkSquare    MarkType = "Square"
	MarkText      MarkType = "Text"
	MarkMap       MarkType = "Map"
	MarkPolygon   MarkType = "Polygon"
	MarkShape     MarkType = "Shape"
	MarkPie       MarkType = "Pie"
	MarkGanttBar  MarkType = "GanttBar"
)

// DependencyColumn is one column declaration in a worksheet's local
// datasource-dependencies block. It repeats the type information the
// consuming application needs without re-reading the full datasource.
type DependencyColumn struct {
	Name         string
	Caption      string
	DataType     DataType
	Role         Role
	Type         ColType
	Aggregation  Aggregation
	SemanticRole string
}

// Worksheet assembles one visualization: a mark type, two ordered shelves
// (rows and columns), single-valued color/size/label encodings, an ordered
// detail list and the local dependency declarations. The worksheet name is
// the join key dashboards use to reference it.
type Worksheet struct {
	name string
	ds   *Datasource

	mark    MarkType
	rows    []*FieldPlacement
	cols    []*FieldPlacement
	color   *FieldPlacement
	size    *FieldPlacement
	label   *FieldPlacement
	details []*FieldPlacement

	depColumns []DependencyColumn
}

func newWorksheet(name string, ds *Datasource) *Worksheet {
	return &Worksheet{
		name: name,
		ds:   ds,
		mark: MarkAutomatic,
	}
}

// Name returns the worksheet name.
func (ws *Worksheet) Name() string { return ws.name }

// SetMarkType sets the visual mark type.
func (ws *Worksheet) SetMarkType(mark MarkType) *Worksheet {
	ws.mark = mark
	return ws
}

// GetMarkType returns the visual mark type.
func (ws *Worksheet) GetMarkType() MarkType { return ws.mark }

// normalize forces the categorical invariant on a placement: dimensions
// never carry an aggregation. The stray aggregation is dropped silently
// rather than rejected; the consuming application does the same on drop.
func normalize(fp *FieldPlacement) *FieldPlacement {
	if fp.Role == RoleDimension {
		fp.Aggregation = AggregationNone
	}
	return fp
}

// AddRowField appends a placement to the rows shelf. Shelf order is
// significant and preserved exactly.
func (ws *Worksheet) AddRowField(fp *FieldPlacement) *Worksheet {
	ws.rows = append(ws.rows, normalize(fp))
	return ws
}

// AddColField appends a placement to the columns shelf.
func (ws *Worksheet) AddColField(fp *FieldPlacement) *Worksheet {
	ws.cols = append(ws.cols, normalize(fp))
	return ws
}

// SetColorEncoding sets the color encoding, replacing any prior value.
func (ws *Worksheet) SetColorEncoding(fp *FieldPlacement) *Worksheet {
	ws.color = normalize(fp)
	return ws
}

// SetSizeEncoding sets the size encoding, replacing any prior value.
func (ws *Worksheet) SetSizeEncoding(fp *FieldPlacement) *Worksheet {
	ws.size = normalize(fp)
	return ws
}

// SetLabelEncoding sets the label encoding, replacing any prior value.
func (ws *Worksheet) SetLabelEncoding(fp *FieldPlacement) *Worksheet {
	ws.label = normalize(fp)
	return ws
}

// AddDetailEncoding appends a placement to the detail list. Order is not
// significant to the consuming application but is kept stable for
// reproducible output.
func (ws *Worksheet) AddDetailEncoding(fp *FieldPlacement) *Worksheet {
	ws.details = append(ws.details, normalize(fp))
	return ws
}

// AddDependencyColumn adds a raw dependency declaration. Redundant calls are
// fine; duplicates are suppressed at render time by rendered element.
func (ws *Worksheet) AddDependencyColumn(dep DependencyColumn) *Worksheet {
	if dep.Caption == "" {
		dep.Caption = dep.Name
	}
	ws.depColumns = append(ws.depColumns, dep)
	return ws
}

// DeclareDependency builds a dependency declaration from a registry entry.
// For measures the aggregation defaults to Sum when agg is empty.
func (ws *Worksheet) DeclareDependency(f Field, agg Aggregation) *Worksheet {
	switch field := f.(type) {
	case *Column:
		dep := DependencyColumn{
			Name:         field.Name,
			Caption:      field.Caption,
			DataType:     field.DataType,
			Role:         field.Role,
			Type:         field.Type,
			SemanticRole: field.SemanticRole(),
		}
		if field.Role == RoleMeasure {
			if agg == "" {
				agg = AggregationSum
			}
			dep.Aggregation = agg
		}
		ws.depColumns = append(ws.depColumns, dep)
	case *CalculatedField:
		dep := DependencyColumn{
			Name:     field.id,
			Caption:  field.Caption,
			DataType: field.DataType,
			Role:     field.Role,
			Type:     field.Type,
		}
		if field.Role == RoleMeasure {
			if agg == "" {
				agg = AggregationSum
			}
			dep.Aggregation = agg
		}
		ws.depColumns = append(ws.depColumns, dep)
	}
	return ws
}

// allPlacements returns every placement in the worksheet in first-use
// traversal order: rows, cols, color, size, details, label.
func (ws *Worksheet) allPlacements() []*FieldPlacement {
	var out []*FieldPlacement
	out = append(out, ws.rows...)
	out = append(out, ws.cols...)
	if ws.color != nil {
		out = append(out, ws.color)
	}
	if ws.size != nil {
		out = append(out, ws.size)
	}
	out = append(out, ws.details...)
	if ws.label != nil {
		out = append(out, ws.label)
	}
	return out
}

// resolve checks every placement against the registry. A placement that
// targets a calculation id or caption with no registry entry fails with
// ErrUnresolvedField; references may be created in any order relative to
// registration, so this runs at render time only.
func (ws *Worksheet) resolve() error {
	for _, fp := range ws.allPlacements() {
		if fp.CalcID != "" {
			if _, ok := ws.ds.lookupByCalcID(fp.CalcID); !ok {
				return errors.Wrapf(ErrUnresolvedField, "worksheet %q: calculation %s", ws.name, fp.CalcID)
			}
			continue
		}
		if _, ok := ws.ds.lookupByReference(fp.FieldName); !ok {
			return errors.Wrapf(ErrUnresolvedField, "worksheet %q: field %q", ws.name, fp.FieldName)
		}
	}
	return nil
}

// dependencyXML renders one dependency declaration. Attribute order is
// fixed: caption, datatype, name, role, type, aggregation, semantic-role.
func (dep *DependencyColumn) dependencyXML() string {
	aggAttr := ""
	if dep.Aggregation != "" && dep.Aggregation != AggregationNone {
		aggAttr = fmt.Sprintf(" aggregation='%s'", dep.Aggregation)
	}
	semAttr := ""
	if dep.SemanticRole != "" {
		semAttr = fmt.Sprintf(" semantic-role='%s'", dep.SemanticRole)
	}
	return fmt.Sprintf("          <column caption='%s' datatype='%s' name='[%s]' role='%s' type='%s'%s%s />",
		escapeAttr(dep.Caption), dep.DataType, escapeAttr(dep.Name), dep.Role, dep.Type, aggAttr, semAttr)
}

// renderDependencyColumns emits the dependency block deduplicated by
// rendered element, in first-declaration order.
func (ws *Worksheet) renderDependencyColumns() string {
	seen := make(map[string]bool)
	var parts []string
	for i := range ws.depColumns {
		line := ws.depColumns[i].dependencyXML()
		if seen[line] {
			continue
		}
		seen[line] = true
		parts = append(parts, line)
	}
	return strings.Join(parts, "\n")
}

// renderColumnInstances emits one column-instance per distinct canonical
// reference string, in first-use order across the whole worksheet.
func (ws *Worksheet) renderColumnInstances() string {
	seen := make(map[string]bool)
	var parts []string
	for _, fp := range ws.allPlacements() {
		key := fp.InstanceName()
		if seen[key] {
			continue
		}
		seen[key] = true
		parts = append(parts, fmt.Sprintf("            <column-instance column='%s' derivation='%s' name='%s' pivot='key' type='%s' />",
			fp.bracketName(), fp.Derivation(), key, fp.instanceType()))
	}
	return strings.Join(parts, "\n")
}

// qualify returns the fully-qualified reference for a placement.
func (ws *Worksheet) qualify(fp *FieldPlacement) string {
	return "[" + ws.ds.name + "]." + fp.InstanceName()
}

// renderEncodings emits the encodings block, sub-elements in fixed order:
// color, size, detail(s), label. Returns "" when no encoding is set.
func (ws *Worksheet) renderEncodings() string {
	var parts []string
	if ws.color != nil {
		parts = append(parts, fmt.Sprintf("              <color column='%s' />", ws.qualify(ws.color)))
	}
	if ws.size != nil {
		parts = append(parts, fmt.Sprintf("              <size column='%s' />", ws.qualify(ws.size)))
	}
	for _, d := range ws.details {
		parts = append(parts, fmt.Sprintf("              <lod column='%s' />", ws.qualify(d)))
	}
	if ws.label != nil {
		parts = append(parts, fmt.Sprintf("              <text column='%s' />", ws.qualify(ws.label)))
	}
	if len(parts) == 0 {
		return ""
	}
	return "            <encodings>\n" + strings.Join(parts, "\n") + "\n            </encodings>"
}

// renderShelf space-joins a shelf's fully-qualified references. The shelf is
// parsed as one compound expression by the consuming application; a newline
// here breaks the parse.
func (ws *Worksheet) renderShelf(shelf []*FieldPlacement) string {
	refs := make([]string, 0, len(shelf))
	for _, fp := range shelf {
		refs = append(refs, ws.qualify(fp))
	}
	return strings.Join(refs, " ")
}

// renderXML emits the complete worksheet element. Fixed order: dependency
// declarations, column-instances, mark, encodings, rows shelf, cols shelf.
func (ws *Worksheet) renderXML() (string, error) {
	if err := ws.resolve(); err != nil {
		return "", err
	}

	depColumns := ws.renderDependencyColumns()
	colInstances := ws.renderColumnInstances()
	deps := depColumns
	if depColumns != "" && colInstances != "" {
		deps = depColumns + "\n" + colInstances
	} else if colInstances != "" {
		deps = colInstances
	}

	encodings := ws.renderEncodings()
	encodingsSection := ""
	if encodings != "" {
		encodingsSection = "\n" + encodings
	}

	return fmt.Sprintf(`    <worksheet name='%s'>
      <table>
        <view>
          <datasources>
            <datasource caption='%s' name='%s' />
          </datasources>
          <datasource-dependencies datasource='%s'>
%s
          </datasource-dependencies>
          <aggregation value='true' />
        </view>
        <style />
        <panes>
          <pane selection-relaxation-option='selection-relaxation-allow'>
            <view>
              <breakdown value='auto' />
            </view>
            <mark class='%s' />%s
          </pane>
        </panes>
        <rows>%s</rows>
        <cols>%s</cols>
      </table>
    </worksheet>`,
		escapeAttr(ws.name),
		escapeAttr(ws.ds.caption), ws.ds.name,
		ws.ds.name,
		deps,
		ws.mark, encodingsSection,
		ws.renderShelf(ws.rows),
		ws.renderShelf(ws.cols)), nil
}
