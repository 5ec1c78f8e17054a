package goworkbook

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// GeoRole is a geographic classification attached to a column. It maps to a
// fixed semantic-role attribute value that enables location-aware rendering.
type GeoRole string

// Geographic roles.
const (
	GeoRoleNone       GeoRole = ""
	GeoRoleState      GeoRole = "State"
	GeoRoleCountry    GeoRole = "Country"
	GeoRoleCountryISO GeoRole = "Country_ISO"
	GeoRoleCity       GeoRole = "City"
	GeoRoleZipCode    GeoRole = "ZipCode"
	GeoRoleLatitude   GeoRole = "Latitude"
	GeoRoleLongitude  GeoRole = "Longitude"
	GeoRoleCounty     GeoRole = "County"
)

// semanticRoles maps a GeoRole to the semantic-role attribute value the
// consuming application understands.
var semanticRoles = map[GeoRole]string{
	GeoRoleState:      "[State].[Name]",
	GeoRoleCountry:    "[Country].[Name]",
	GeoRoleCountryISO: "[Country].[ISO3166_2]",
	GeoRoleCity:       "[City].[Name]",
	GeoRoleZipCode:    "[ZipCode].[Name]",
	GeoRoleLatitude:   "[Latitude]",
	GeoRoleLongitude:  "[Longitude]",
	GeoRoleCounty:     "[County].[Name]",
}

// Column is a plain column backed directly by the extract. Its name is its
// identity within the datasource.
type Column struct {
	Name     string
	Caption  string
	DataType DataType
	Role     Role
	Type     ColType
	GeoRole  GeoRole
}

// SemanticRole returns the semantic-role attribute value for the column's
// geographic role, or "" when the column has none.
func (c *Column) SemanticRole() string {
	return semanticRoles[c.GeoRole]
}

// CalculatedField is a formula-backed field. The formula text is opaque: it
// is escaped on output but never parsed or validated. The id is assigned by
// the registry at creation and never changes.
type CalculatedField struct {
	Caption       string
	Formula       string
	DataType      DataType
	Role          Role
	Type          ColType
	DefaultFormat string

	id string
}

// ID returns the generated calculation identifier without brackets.
func (cf *CalculatedField) ID() string { return cf.id }

// Name returns the internal field name "[Calculation_xxx]" used in markup.
func (cf *CalculatedField) Name() string { return "[" + cf.id + "]" }

// Field is a registry entry: either a *Column or a *CalculatedField. The
// caption accessor doubles as the seal keeping the variant set closed.
type Field interface {
	fieldCaption() string
}

func (c *Column) fieldCaption() string           { return c.Caption }
func (cf *CalculatedField) fieldCaption() string { return cf.Caption }

// Datasource is the per-data-source registry of columns and calculated
// fields. Entries live in a single ordered table tagged by kind so the
// caption-shadowing rule (columns win over calculations) is enforced in one
// place. Declaration rendering still emits all columns before all
// calculations regardless of creation interleaving; that ordering is a
// format requirement.
type Datasource struct {
	name        string
	caption     string
	extractPath string
	idgen       *IDGenerator
	entries     []Field
}

func newDatasource(name, caption, extractPath string, idgen *IDGenerator) *Datasource {
	return &Datasource{
		name:        name,
		caption:     caption,
		extractPath: extractPath,
		idgen:       idgen,
	}
}

// Name returns the datasource's unique name (federated.<hex>).
func (ds *Datasource) Name() string { return ds.name }

// Caption returns the datasource's display caption.
func (ds *Datasource) Caption() string { return ds.caption }

// SetCaption sets the datasource's display caption.
func (ds *Datasource) SetCaption(caption string) { ds.caption = caption }

// ExtractPath returns the relative path of the extract artifact inside the
// packaged archive.
func (ds *Datasource) ExtractPath() string { return ds.extractPath }

// SetExtractPath sets the extract path embedded in the connection element.
func (ds *Datasource) SetExtractPath(path string) { ds.extractPath = path }

// AddColumn registers a plain column. The caption defaults to the name.
// Registering a second column with the same name fails with ErrDuplicateName.
func (ds *Datasource) AddColumn(col Column) error {
	if col.Caption == "" {
		col.Caption = col.Name
	}
	for _, f := range ds.entries {
		if c, ok := f.(*Column); ok && c.Name == col.Name {
			return errors.Wrapf(ErrDuplicateName, "column %q", col.Name)
		}
	}
	ds.entries = append(ds.entries, &col)
	return nil
}

// AddCalculatedField registers a calculated field, assigning it a fresh
// calculation id that stays fixed for the workbook's lifetime. The caption
// must be unique among calculated fields.
func (ds *Datasource) AddCalculatedField(cf CalculatedField) (*CalculatedField, error) {
	for _, f := range ds.entries {
		if c, ok := f.(*CalculatedField); ok && c.Caption == cf.Caption {
			return nil, errors.Wrapf(ErrDuplicateName, "calculated field %q", cf.Caption)
		}
	}
	cf.id = ds.idgen.NextCalculationID()
	stored := &cf
	ds.entries = append(ds.entries, stored)
	return stored, nil
}

// LookupByCaption resolves a caption to a registry entry. Columns are
// searched before calculated fields, so a plain column always shadows a
// calculation of the same caption.
func (ds *Datasource) LookupByCaption(caption string) (Field, bool) {
	for _, f := range ds.entries {
		if c, ok := f.(*Column); ok && c.fieldCaption() == caption {
			return c, true
		}
	}
	for _, f := range ds.entries {
		if f.fieldCaption() == caption {
			return f, true
		}
	}
	return nil, false
}

// lookupByReference resolves a worksheet reference: a plain column's physical
// name or caption, or a calculated field's caption. Placements carry the
// physical name, so render-time resolution must accept it even when the
// column was registered under a different caption.
func (ds *Datasource) lookupByReference(ref string) (Field, bool) {
	for _, f := range ds.entries {
		if c, ok := f.(*Column); ok && (c.Name == ref || c.Caption == ref) {
			return c, true
		}
	}
	for _, f := range ds.entries {
		if c, ok := f.(*CalculatedField); ok && c.Caption == ref {
			return c, true
		}
	}
	return nil, false
}

// lookupByCalcID resolves a generated calculation id.
func (ds *Datasource) lookupByCalcID(id string) (*CalculatedField, bool) {
	for _, f := range ds.entries {
		if c, ok := f.(*CalculatedField); ok && c.id == id {
			return c, true
		}
	}
	return nil, false
}

// Columns returns the plain columns in insertion order.
func (ds *Datasource) Columns() []*Column {
	var cols []*Column
	for _, f := range ds.entries {
		if c, ok := f.(*Column); ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// CalculatedFields returns the calculated fields in insertion order.
func (ds *Datasource) CalculatedFields() []*CalculatedField {
	var calcs []*CalculatedField
	for _, f := range ds.entries {
		if c, ok := f.(*CalculatedField); ok {
			calcs = append(calcs, c)
		}
	}
	return calcs
}

// Place resolves a caption (or a column's physical name) and builds the
// canonical placement for it with the given aggregation. Callers placing a
// calculation whose formula already aggregates should use PlaceCalculated to
// set the pass-through flag.
func (ds *Datasource) Place(caption string, agg Aggregation) (*FieldPlacement, error) {
	f, ok := ds.lookupByReference(caption)
	if !ok {
		return nil, errors.Wrapf(ErrUnresolvedField, "no column or calculation %q", caption)
	}
	switch field := f.(type) {
	case *Column:
		return NewFieldPlacement(field.Name, field.Role, agg), nil
	case *CalculatedField:
		return NewCalculatedPlacement(field, agg, false), nil
	}
	return nil, errors.Wrapf(ErrUnresolvedField, "no column or calculation %q", caption)
}

// PlaceCalculated resolves a calculated field by caption and builds a
// pass-through placement for it.
func (ds *Datasource) PlaceCalculated(caption string, agg Aggregation, preAggregated bool) (*FieldPlacement, error) {
	f, ok := ds.LookupByCaption(caption)
	if !ok {
		return nil, errors.Wrapf(ErrUnresolvedField, "no calculation %q", caption)
	}
	cf, ok := f.(*CalculatedField)
	if !ok {
		return nil, errors.Wrapf(ErrUnresolvedField, "%q is not a calculated field", caption)
	}
	return NewCalculatedPlacement(cf, agg, preAggregated), nil
}

// columnXML renders a column declaration for the datasource block.
// Attribute order is fixed: caption, datatype, name, role, type, then the
// optional semantic-role.
func (c *Column) columnXML(indent string) string {
	geoAttr := ""
	if sr := c.SemanticRole(); sr != "" {
		geoAttr = fmt.Sprintf(" semantic-role='%s'", sr)
	}
	return fmt.Sprintf("%s<column caption='%s' datatype='%s' name='[%s]' role='%s' type='%s'%s />",
		indent, escapeAttr(c.Caption), c.DataType, escapeAttr(c.Name), c.Role, c.Type, geoAttr)
}

// columnXML renders a calculated-field declaration with its nested
// calculation element. The optional default-format attribute follows type.
func (cf *CalculatedField) columnXML(indent string) string {
	formatAttr := ""
	if cf.DefaultFormat != "" {
		formatAttr = fmt.Sprintf(" default-format='%s'", escapeAttr(cf.DefaultFormat))
	}
	return fmt.Sprintf("%s<column caption='%s' datatype='%s' name='%s' role='%s' type='%s'%s>\n%s  <calculation class='tableau' formula='%s' />\n%s</column>",
		indent, escapeAttr(cf.Caption), cf.DataType, cf.Name(), cf.Role, cf.Type, formatAttr,
		indent, escapeAttr(cf.Formula), indent)
}

// renderXML emits the complete datasource element: connection, then one
// declaration per column in insertion order, then one per calculated field
// in insertion order.
func (ds *Datasource) renderXML() string {
	var parts []string
	for _, c := range ds.Columns() {
		parts = append(parts, c.columnXML("      "))
	}
	for _, cf := range ds.CalculatedFields() {
		parts = append(parts, cf.columnXML("      "))
	}
	columnsXML := strings.Join(parts, "\n")
	if columnsXML != "" {
		columnsXML += "\n"
	}
	return fmt.Sprintf(`    <datasource caption='%s' inline='true' name='%s' version='%s'>
      <connection class='hyper' dbname='%s' default-settings='yes' sslmode='' username='tableau'>
        <relation name='Extract' table='[public].[Extract]' type='table' />
      </connection>
%s    </datasource>`,
		escapeAttr(ds.caption), ds.name, workbookVersion, escapeAttr(ds.extractPath), columnsXML)
}
