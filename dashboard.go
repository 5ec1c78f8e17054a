package goworkbook

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ZoneType tags what a dashboard zone displays.
type ZoneType string

// Zone types.
const (
	ZoneLayoutBasic ZoneType = "layout-basic"
	ZoneWorksheet   ZoneType = "worksheet"
	ZoneText        ZoneType = "text"
	ZoneTitle       ZoneType = "title"
	ZoneFilter      ZoneType = "filter"
	ZoneParameter   ZoneType = "paramctrl"
	ZoneBlank       ZoneType = "blank"
	ZoneImage       ZoneType = "bitmap"
	ZoneWeb         ZoneType = "web"
)

// MaxZoneExtent is the nominal upper bound of the dashboard coordinate space
// on both axes. Rectangles are not validated against it: layouts may extend
// past the nominal bounds for visual bleed, and layout correctness is the
// caller's responsibility.
const MaxZoneExtent = 100000

// Rect is an axis-aligned rectangle in the dashboard's normalized
// 0-100000 coordinate space. Origin is top-left, y grows downward.
type Rect struct {
	X, Y, W, H int
}

// Zone is one rectangular region of a dashboard layout: a container
// grouping child zones, a worksheet reference, or a decorative/control
// element. A zone owns its children.
type Zone struct {
	id       int
	typ      ZoneType
	rect     Rect
	name     string // worksheet name, for ZoneWorksheet
	param    string // field reference, for filter/parameter zones
	children []*Zone
}

// ID returns the zone's document-unique id.
func (z *Zone) ID() int { return z.id }

// Type returns the zone's type tag.
func (z *Zone) Type() ZoneType { return z.typ }

// Children returns the zone's child zones in insertion order.
func (z *Zone) Children() []*Zone { return z.children }

// WorksheetName returns the referenced worksheet name, or "" for non
// worksheet zones.
func (z *Zone) WorksheetName() string {
	if z.typ == ZoneWorksheet {
		return z.name
	}
	return ""
}

// Dashboard is a named layout of zones at a fixed pixel size. Zones form a
// tree: the dashboard owns the top-level list, containers own their
// children. A flat id index lets callers attach children to any previously
// created zone; ids are issued by the workbook's generator so they are
// unique across dashboards.
type Dashboard struct {
	name   string
	width  int
	height int
	idgen  *IDGenerator
	zones  []*Zone
	byID   map[int]*Zone
}

func newDashboard(name string, width, height int, idgen *IDGenerator) *Dashboard {
	return &Dashboard{
		name:   name,
		width:  width,
		height: height,
		idgen:  idgen,
		byID:   make(map[int]*Zone),
	}
}

// Name returns the dashboard name.
func (d *Dashboard) Name() string { return d.name }

// Zones returns the top-level zones in insertion order.
func (d *Dashboard) Zones() []*Zone { return d.zones }

// attach registers a new zone under parentID, or at the top level when
// parentID has never been issued.
func (d *Dashboard) attach(z *Zone, parentID int) int {
	if parent, ok := d.byID[parentID]; ok {
		parent.children = append(parent.children, z)
	} else {
		d.zones = append(d.zones, z)
	}
	d.byID[z.id] = z
	return z.id
}

// RootParent is the parentID value meaning "attach at the top level".
const RootParent = 0

// AddContainerZone adds a grouping container and returns its id.
func (d *Dashboard) AddContainerZone(r Rect, parentID int) int {
	return d.attach(&Zone{id: d.idgen.NextZoneID(), typ: ZoneLayoutBasic, rect: r}, parentID)
}

// AddWorksheetZone adds a zone displaying the named worksheet. The name is
// resolved against the workbook at render time, not here, so worksheets may
// be created after the layout that references them.
func (d *Dashboard) AddWorksheetZone(worksheetName string, r Rect, parentID int) int {
	return d.attach(&Zone{id: d.idgen.NextZoneID(), typ: ZoneWorksheet, rect: r, name: worksheetName}, parentID)
}

// AddTextZone adds a text zone.
func (d *Dashboard) AddTextZone(r Rect, parentID int) int {
	return d.attach(&Zone{id: d.idgen.NextZoneID(), typ: ZoneText, rect: r}, parentID)
}

// AddTitleZone adds a dashboard title zone.
func (d *Dashboard) AddTitleZone(r Rect, parentID int) int {
	return d.attach(&Zone{id: d.idgen.NextZoneID(), typ: ZoneTitle, rect: r}, parentID)
}

// AddFilterZone adds an interactive filter control bound to a fully
// qualified field reference, e.g. "[federated.abc].[none:Region:nk]".
func (d *Dashboard) AddFilterZone(fieldRef string, r Rect, parentID int) int {
	return d.attach(&Zone{id: d.idgen.NextZoneID(), typ: ZoneFilter, rect: r, param: fieldRef}, parentID)
}

// AddParameterZone adds a parameter control bound to a field reference.
func (d *Dashboard) AddParameterZone(fieldRef string, r Rect, parentID int) int {
	return d.attach(&Zone{id: d.idgen.NextZoneID(), typ: ZoneParameter, rect: r, param: fieldRef}, parentID)
}

// AddBlankZone adds an empty padding zone.
func (d *Dashboard) AddBlankZone(r Rect, parentID int) int {
	return d.attach(&Zone{id: d.idgen.NextZoneID(), typ: ZoneBlank, rect: r}, parentID)
}

// AddWorksheetRow lays a list of worksheets out as one evenly split
// horizontal row inside a fresh container, the last cell absorbing the
// rounding remainder. Returns the container id.
func (d *Dashboard) AddWorksheetRow(worksheets []string, y, h, parentID int) int {
	container := d.AddContainerZone(Rect{X: 0, Y: y, W: MaxZoneExtent, H: h}, parentID)
	if len(worksheets) == 0 {
		return container
	}
	each := MaxZoneExtent / len(worksheets)
	for i, name := range worksheets {
		x := i * each
		w := each
		if i == len(worksheets)-1 {
			w = MaxZoneExtent - x
		}
		d.AddWorksheetZone(name, Rect{X: x, Y: 0, W: w, H: h}, container)
	}
	return container
}

// zoneXML renders a zone and, recursively, its children. Attribute order is
// fixed: h, id, name, param, type-v2, w, x, y. Indentation grows with depth
// for readability only.
func (z *Zone) zoneXML(indent int) string {
	ind := strings.Repeat(" ", indent)
	attrs := []string{
		fmt.Sprintf("h='%d'", z.rect.H),
		fmt.Sprintf("id='%d'", z.id),
	}
	if z.name != "" {
		attrs = append(attrs, fmt.Sprintf("name='%s'", escapeAttr(z.name)))
	}
	if z.param != "" {
		attrs = append(attrs, fmt.Sprintf("param='%s'", escapeAttr(z.param)))
	}
	attrs = append(attrs,
		fmt.Sprintf("type-v2='%s'", z.typ),
		fmt.Sprintf("w='%d'", z.rect.W),
		fmt.Sprintf("x='%d'", z.rect.X),
		fmt.Sprintf("y='%d'", z.rect.Y),
	)
	attrStr := strings.Join(attrs, " ")

	if len(z.children) == 0 {
		return fmt.Sprintf("%s<zone %s />", ind, attrStr)
	}
	childParts := make([]string, 0, len(z.children))
	for _, c := range z.children {
		childParts = append(childParts, c.zoneXML(indent+2))
	}
	return fmt.Sprintf("%s<zone %s>\n%s\n%s</zone>", ind, attrStr, strings.Join(childParts, "\n"), ind)
}

// resolve verifies every worksheet zone in the tree references an existing
// worksheet.
func (d *Dashboard) resolve(worksheets map[string]*Worksheet) error {
	var walk func(z *Zone) error
	walk = func(z *Zone) error {
		if z.typ == ZoneWorksheet {
			if _, ok := worksheets[z.name]; !ok {
				return errors.Wrapf(ErrUnresolvedField, "dashboard %q: zone %d references unknown worksheet %q", d.name, z.id, z.name)
			}
		}
		for _, c := range z.children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, z := range d.zones {
		if err := walk(z); err != nil {
			return err
		}
	}
	return nil
}

// renderXML emits the dashboard element with its recursively nested zones.
func (d *Dashboard) renderXML() string {
	zoneParts := make([]string, 0, len(d.zones))
	for _, z := range d.zones {
		zoneParts = append(zoneParts, z.zoneXML(8))
	}
	return fmt.Sprintf(`    <dashboard name='%s'>
      <style />
      <size maxheight='%d' maxwidth='%d' minheight='%d' minwidth='%d' />
      <zones>
%s
      </zones>
    </dashboard>`,
		escapeAttr(d.name), d.height, d.width, d.height, d.width, strings.Join(zoneParts, "\n"))
}
