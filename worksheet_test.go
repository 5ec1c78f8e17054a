package goworkbook

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

// buildSampleWorkbook assembles the scenario most rendering tests share: a
// bar chart of sum of Sales per Region, colored by a pass-through profit
// ratio calculation.
func buildSampleWorkbook(t *testing.T) (*Workbook, *CalculatedField) {
	t.Helper()
	wb := New()
	ds := wb.Datasource()
	for _, c := range []Column{
		{Name: "Region", DataType: DataTypeString, Role: RoleDimension, Type: TypeNominal},
		{Name: "Sales", DataType: DataTypeReal, Role: RoleMeasure, Type: TypeQuantitative},
		{Name: "Profit", DataType: DataTypeReal, Role: RoleMeasure, Type: TypeQuantitative},
	} {
		if err := ds.AddColumn(c); err != nil {
			t.Fatal(err)
		}
	}
	cf, err := ds.AddCalculatedField(CalculatedField{
		Caption:  "Profit Ratio",
		Formula:  "SUM([Profit])/SUM([Sales])",
		DataType: DataTypeReal,
		Role:     RoleMeasure,
		Type:     TypeQuantitative,
	})
	if err != nil {
		t.Fatal(err)
	}

	ws, err := wb.CreateWorksheet("Sales by Region")
	if err != nil {
		t.Fatal(err)
	}
	ws.SetMarkType(MarkBar)

	region, err := ds.Place("Region", AggregationNone)
	if err != nil {
		t.Fatal(err)
	}
	sales, err := ds.Place("Sales", AggregationSum)
	if err != nil {
		t.Fatal(err)
	}
	ratio, err := ds.PlaceCalculated("Profit Ratio", AggregationSum, true)
	if err != nil {
		t.Fatal(err)
	}

	ws.AddRowField(region).AddColField(sales).SetColorEncoding(ratio)
	regionField, _ := ds.LookupByCaption("Region")
	salesField, _ := ds.LookupByCaption("Sales")
	ws.DeclareDependency(regionField, AggregationNone).
		DeclareDependency(salesField, AggregationSum).
		DeclareDependency(cf, AggregationSum)

	return wb, cf
}

func TestWorksheetRender(t *testing.T) {
	wb, cf := buildSampleWorkbook(t)
	ws := wb.Worksheets()[0]
	ds := wb.Datasource()

	xml, err := ws.renderXML()
	if err != nil {
		t.Fatalf("renderXML: %v", err)
	}

	// Shelves hold fully-qualified references and the pass-through color
	// encoding must use the usr token.
	wantRows := "<rows>[" + ds.Name() + "].[none:Region:nk]</rows>"
	if !strings.Contains(xml, wantRows) {
		t.Errorf("rows shelf missing %q:\n%s", wantRows, xml)
	}
	wantCols := "<cols>[" + ds.Name() + "].[sum:Sales:qk]</cols>"
	if !strings.Contains(xml, wantCols) {
		t.Errorf("cols shelf missing %q:\n%s", wantCols, xml)
	}
	wantColor := "<color column='[" + ds.Name() + "].[usr:" + cf.ID() + ":qk]' />"
	if !strings.Contains(xml, wantColor) {
		t.Errorf("color encoding missing %q:\n%s", wantColor, xml)
	}
	if strings.Contains(xml, "[sum:"+cf.ID()) {
		t.Errorf("pass-through calculation leaked an aggregation token:\n%s", xml)
	}
	if !strings.Contains(xml, "<mark class='Bar' />") {
		t.Errorf("mark element wrong:\n%s", xml)
	}
}

func TestWorksheetColumnInstances(t *testing.T) {
	wb, cf := buildSampleWorkbook(t)
	ws := wb.Worksheets()[0]

	xml, err := ws.renderXML()
	if err != nil {
		t.Fatal(err)
	}

	instances := []string{
		"<column-instance column='[Region]' derivation='None' name='[none:Region:nk]' pivot='key' type='nominal' />",
		"<column-instance column='[Sales]' derivation='Sum' name='[sum:Sales:qk]' pivot='key' type='quantitative' />",
		"<column-instance column='[" + cf.ID() + "]' derivation='User' name='[usr:" + cf.ID() + ":qk]' pivot='key' type='quantitative' />",
	}
	for _, want := range instances {
		if n := strings.Count(xml, want); n != 1 {
			t.Errorf("column-instance %q appears %d times, want 1:\n%s", want, n, xml)
		}
	}
}

func TestWorksheetInstanceDedup(t *testing.T) {
	wb, _ := buildSampleWorkbook(t)
	ws := wb.Worksheets()[0]
	ds := wb.Datasource()

	// Same field, same aggregation, dropped twice more: still one instance.
	sales, err := ds.Place("Sales", AggregationSum)
	if err != nil {
		t.Fatal(err)
	}
	ws.SetSizeEncoding(sales)
	sales2, _ := ds.Place("Sales", AggregationSum)
	ws.SetLabelEncoding(sales2)

	xml, err := ws.renderXML()
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(xml, "name='[sum:Sales:qk]' pivot="); n != 1 {
		t.Errorf("[sum:Sales:qk] has %d column-instances, want 1", n)
	}

	// A different aggregation of the same field is a distinct instance.
	avg, _ := ds.Place("Sales", AggregationAvg)
	ws.AddDetailEncoding(avg)
	salesField, _ := ds.LookupByCaption("Sales")
	ws.DeclareDependency(salesField, AggregationAvg)

	xml, err = ws.renderXML()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(xml, "name='[avg:Sales:qk]'") {
		t.Errorf("avg instance missing after distinct-aggregation placement:\n%s", xml)
	}
}

func TestWorksheetDependencyDedup(t *testing.T) {
	wb, _ := buildSampleWorkbook(t)
	ws := wb.Worksheets()[0]
	ds := wb.Datasource()

	// Declaring the same dependency again must not duplicate the element.
	salesField, _ := ds.LookupByCaption("Sales")
	ws.DeclareDependency(salesField, AggregationSum)
	ws.DeclareDependency(salesField, AggregationSum)

	xml, err := ws.renderXML()
	if err != nil {
		t.Fatal(err)
	}
	want := "<column caption='Sales' datatype='real' name='[Sales]' role='measure' type='quantitative' aggregation='Sum' />"
	if n := strings.Count(xml, want); n != 1 {
		t.Errorf("Sales dependency appears %d times, want 1:\n%s", n, xml)
	}
}

func TestWorksheetShelfOrderAndJoin(t *testing.T) {
	wb := New()
	ds := wb.Datasource()
	for _, c := range []Column{
		{Name: "Category", DataType: DataTypeString, Role: RoleDimension, Type: TypeNominal},
		{Name: "Segment", DataType: DataTypeString, Role: RoleDimension, Type: TypeNominal},
	} {
		if err := ds.AddColumn(c); err != nil {
			t.Fatal(err)
		}
	}
	ws, err := wb.CreateWorksheet("Two Dims")
	if err != nil {
		t.Fatal(err)
	}
	a, _ := ds.Place("Category", AggregationNone)
	b, _ := ds.Place("Segment", AggregationNone)
	ws.AddRowField(a).AddRowField(b)
	ca, _ := ds.LookupByCaption("Category")
	cb, _ := ds.LookupByCaption("Segment")
	ws.DeclareDependency(ca, "").DeclareDependency(cb, "")

	xml, err := ws.renderXML()
	if err != nil {
		t.Fatal(err)
	}
	want := "<rows>[" + ds.Name() + "].[none:Category:nk] [" + ds.Name() + "].[none:Segment:nk]</rows>"
	if !strings.Contains(xml, want) {
		t.Errorf("rows shelf not space-joined in placement order, want %q:\n%s", want, xml)
	}
	if strings.Contains(xml, "[none:Category:nk]\n") {
		t.Errorf("shelf references newline-separated:\n%s", xml)
	}
}

func TestWorksheetResolvesCaptionedColumn(t *testing.T) {
	// A column whose caption differs from its physical name is placed by
	// caption but referenced by name; resolution must accept both.
	wb := New()
	ds := wb.Datasource()
	if err := ds.AddColumn(Column{Name: "sales_amt", Caption: "Sales", DataType: DataTypeReal, Role: RoleMeasure, Type: TypeQuantitative}); err != nil {
		t.Fatal(err)
	}
	ws, err := wb.CreateWorksheet("Captioned")
	if err != nil {
		t.Fatal(err)
	}

	fp, err := ds.Place("Sales", AggregationSum)
	if err != nil {
		t.Fatalf("Place by caption: %v", err)
	}
	ws.AddColField(fp)
	f, _ := ds.LookupByCaption("Sales")
	ws.DeclareDependency(f, AggregationSum)

	xml, err := ws.renderXML()
	if err != nil {
		t.Fatalf("renderXML on a fully registered field: %v", err)
	}
	// The placement carries the physical name throughout.
	if !strings.Contains(xml, "[sum:sales_amt:qk]") {
		t.Errorf("instance reference does not use the physical name:\n%s", xml)
	}
	if !strings.Contains(xml, "<column caption='Sales' datatype='real' name='[sales_amt]'") {
		t.Errorf("dependency declaration wrong:\n%s", xml)
	}
	if err := wb.Validate(); err != nil {
		t.Errorf("Validate on a fully registered field: %v", err)
	}

	// Placing by physical name resolves to the same column.
	byName, err := ds.Place("sales_amt", AggregationSum)
	if err != nil {
		t.Fatalf("Place by physical name: %v", err)
	}
	if byName.InstanceName() != fp.InstanceName() {
		t.Errorf("Place by name = %s, by caption = %s", byName.InstanceName(), fp.InstanceName())
	}
}

func TestWorksheetUnresolvedField(t *testing.T) {
	wb := New()
	ws, err := wb.CreateWorksheet("Dangling")
	if err != nil {
		t.Fatal(err)
	}
	ws.AddRowField(NewFieldPlacement("Ghost", RoleDimension, AggregationNone))

	if _, err := ws.renderXML(); !errors.Is(err, ErrUnresolvedField) {
		t.Errorf("renderXML with dangling reference err = %v, want ErrUnresolvedField", err)
	}
}

func TestWorksheetEncodingOrder(t *testing.T) {
	wb, _ := buildSampleWorkbook(t)
	ws := wb.Worksheets()[0]
	ds := wb.Datasource()

	sales, _ := ds.Place("Sales", AggregationSum)
	ws.SetSizeEncoding(sales)
	profit, _ := ds.Place("Profit", AggregationSum)
	ws.SetLabelEncoding(profit)
	region, _ := ds.Place("Region", AggregationNone)
	ws.AddDetailEncoding(region)
	profitField, _ := ds.LookupByCaption("Profit")
	ws.DeclareDependency(profitField, AggregationSum)

	xml, err := ws.renderXML()
	if err != nil {
		t.Fatal(err)
	}
	color := strings.Index(xml, "<color ")
	size := strings.Index(xml, "<size ")
	lod := strings.Index(xml, "<lod ")
	text := strings.Index(xml, "<text ")
	if color < 0 || size < 0 || lod < 0 || text < 0 {
		t.Fatalf("encodings block incomplete:\n%s", xml)
	}
	if !(color < size && size < lod && lod < text) {
		t.Errorf("encoding order wrong: color@%d size@%d lod@%d text@%d", color, size, lod, text)
	}
}
