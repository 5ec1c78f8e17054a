package goworkbook

import "strings"

// DataType is the declared type of a column as the consuming application
// spells it.
type DataType string

// Column data types.
const (
	DataTypeString   DataType = "string"
	DataTypeInteger  DataType = "integer"
	DataTypeReal     DataType = "real"
	DataTypeBoolean  DataType = "boolean"
	DataTypeDate     DataType = "date"
	DataTypeDatetime DataType = "datetime"
)

// Role classifies a field as categorical or quantitative.
type Role string

// Field roles.
const (
	RoleDimension Role = "dimension"
	RoleMeasure   Role = "measure"
)

// ColType is the secondary classification carried in column declarations and
// column-instance elements.
type ColType string

// Column classifications.
const (
	TypeNominal      ColType = "nominal"
	TypeOrdinal      ColType = "ordinal"
	TypeQuantitative ColType = "quantitative"
)

// Aggregation is the aggregation policy applied to a measure placement.
// The value is the capitalized form used in dependency declarations; the
// canonical reference uses the lowercase form.
type Aggregation string

// Aggregation policies.
const (
	AggregationNone   Aggregation = "None"
	AggregationSum    Aggregation = "Sum"
	AggregationAvg    Aggregation = "Avg"
	AggregationCount  Aggregation = "Count"
	AggregationCountD Aggregation = "Countd"
	AggregationMin    Aggregation = "Min"
	AggregationMax    Aggregation = "Max"
	AggregationMedian Aggregation = "Median"
	AggregationAttr   Aggregation = "Attr"
)

// FieldPlacement is one field dropped onto a shelf or encoding: a reference
// to a column (by name) or a calculated field (by generated id), plus the
// aggregation policy to apply.
//
// PreAggregated marks a calculated field whose formula already performs its
// own aggregation. Such placements must render with the pass-through "usr"
// token instead of an aggregation name, otherwise the consuming application
// wraps the formula in a second aggregation. This is a hard rule of the
// target format; it overrides whatever Aggregation is set.
type FieldPlacement struct {
	FieldName     string
	Role          Role
	Aggregation   Aggregation
	CalcID        string
	PreAggregated bool
}

// NewFieldPlacement creates a placement for a plain column. Dimension
// placements always carry AggregationNone regardless of the argument.
func NewFieldPlacement(name string, role Role, agg Aggregation) *FieldPlacement {
	if role == RoleDimension {
		agg = AggregationNone
	}
	return &FieldPlacement{FieldName: name, Role: role, Aggregation: agg}
}

// NewCalculatedPlacement creates a placement for a calculated field. The
// placement references the field by its generated id; preAggregated marks a
// formula that already aggregates.
func NewCalculatedPlacement(cf *CalculatedField, agg Aggregation, preAggregated bool) *FieldPlacement {
	if cf.Role == RoleDimension {
		agg = AggregationNone
	}
	return &FieldPlacement{
		FieldName:     cf.Caption,
		Role:          cf.Role,
		Aggregation:   agg,
		CalcID:        cf.id,
		PreAggregated: preAggregated,
	}
}

// typeKey returns the classifier for the canonical reference: nk for
// categorical fields, qk for quantitative ones.
func (fp *FieldPlacement) typeKey() string {
	if fp.Role == RoleDimension {
		return "nk"
	}
	return "qk"
}

// Derivation returns the derivation attribute value for the placement's
// column-instance: None for dimensions, User for pass-through calculations,
// otherwise the aggregation name.
func (fp *FieldPlacement) Derivation() string {
	if fp.Role == RoleDimension {
		return string(AggregationNone)
	}
	if fp.CalcID != "" && fp.PreAggregated {
		return "User"
	}
	return string(fp.Aggregation)
}

// InstanceName returns the canonical reference string
// "[token:identifier:classifier]" used everywhere the field appears in a
// worksheet. The token is "none" for dimensions, "usr" for pass-through
// calculations, else the lowercase aggregation name; the identifier is the
// calculation id when the placement targets a calculation, else the column
// name. Every shelf, encoding and column-instance must go through this one
// method so the pass-through rule cannot diverge per chart type.
func (fp *FieldPlacement) InstanceName() string {
	name := fp.FieldName
	if fp.CalcID != "" {
		name = fp.CalcID
	}
	if fp.Role != RoleDimension && fp.CalcID != "" && fp.PreAggregated {
		return "[usr:" + name + ":" + fp.typeKey() + "]"
	}
	return "[" + strings.ToLower(fp.Derivation()) + ":" + name + ":" + fp.typeKey() + "]"
}

// bracketName returns the underlying column reference "[name]" or "[calcid]".
func (fp *FieldPlacement) bracketName() string {
	if fp.CalcID != "" {
		return "[" + fp.CalcID + "]"
	}
	return "[" + fp.FieldName + "]"
}

// instanceType returns the column-instance type attribute.
func (fp *FieldPlacement) instanceType() ColType {
	if fp.Role == RoleDimension {
		return TypeNominal
	}
	return TypeQuantitative
}
