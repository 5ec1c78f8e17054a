package goworkbook

import (
	"fmt"
	"strings"
)

// Markup constants for the produced document. The consuming application
// checks the version and source-build attributes on open.
const (
	workbookVersion = "18.1"
	sourceBuild     = "2022.3.0 (20223.22.1005.1835)"
	sourcePlatform  = "win"
	nsUser          = "http://www.tableausoftware.com/xml/user"
)

// attrReplacer escapes the five reserved markup characters for attribute
// positions. Replacement is a single pass over the input; emitted escapes
// are never rescanned.
var attrReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

// escapeAttr escapes free text (names, captions, formulas) for insertion
// into an attribute position. Escaping is total over the reserved set; all
// other characters pass through unaltered.
func escapeAttr(s string) string {
	return attrReplacer.Replace(s)
}

// renderPreferences emits the static preferences block.
func renderPreferences() string {
	return `  <preferences>
    <preference name='ui.encoding.shelf.height' value='24' />
    <preference name='ui.shelf.height' value='26' />
  </preferences>`
}

// renderWindows emits the window/UI-state block naming one worksheet. The
// cards structure is required verbatim by the consuming application.
func renderWindows(worksheetName string) string {
	return fmt.Sprintf(`  <windows source-height='30'>
    <window class='worksheet' name='%s'>
      <cards>
        <edge name='left'>
          <strip size='160'>
            <card type='pages' />
            <card type='filters' />
            <card type='marks' />
          </strip>
        </edge>
        <edge name='top'>
          <strip size='2147483647'>
            <card type='columns' />
          </strip>
          <strip size='2147483647'>
            <card type='rows' />
          </strip>
          <strip size='31'>
            <card type='title' />
          </strip>
        </edge>
      </cards>
    </window>
  </windows>`, escapeAttr(worksheetName))
}

// RenderTWB serializes the workbook into the complete TWB document text.
// Rendering is a pure traversal: it resolves every worksheet and zone
// reference (failing with ErrUnresolvedField on a dangling one) and never
// mutates the workbook.
func (w *Workbook) RenderTWB() (string, error) {
	windowSheet, err := w.windowWorksheet()
	if err != nil {
		return "", err
	}

	worksheetParts := make([]string, 0, len(w.worksheets))
	for _, ws := range w.worksheets {
		part, err := ws.renderXML()
		if err != nil {
			return "", err
		}
		worksheetParts = append(worksheetParts, part)
	}

	idx := w.worksheetIndex()
	dashboardParts := make([]string, 0, len(w.dashboards))
	for _, d := range w.dashboards {
		if err := d.resolve(idx); err != nil {
			return "", err
		}
		dashboardParts = append(dashboardParts, d.renderXML())
	}

	var b strings.Builder
	b.WriteString("<?xml version='1.0' encoding='utf-8' ?>\n")
	fmt.Fprintf(&b, "<workbook source-build='%s' source-platform='%s' version='%s' xmlns:user='%s'>\n",
		sourceBuild, sourcePlatform, workbookVersion, nsUser)
	b.WriteString(renderPreferences())
	b.WriteString("\n  <datasources>\n")
	b.WriteString(w.datasource.renderXML())
	b.WriteString("\n  </datasources>\n")
	b.WriteString("  <worksheets>\n")
	b.WriteString(strings.Join(worksheetParts, "\n"))
	b.WriteString("\n  </worksheets>\n")
	b.WriteString("  <dashboards>\n")
	b.WriteString(strings.Join(dashboardParts, "\n"))
	b.WriteString("\n  </dashboards>\n")
	b.WriteString(renderWindows(windowSheet))
	b.WriteString("\n</workbook>")
	return b.String(), nil
}
