package goworkbook

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// firstZoneID is the lowest zone id handed out. Lower ids are reserved by the
// consuming application for implicit dashboard elements.
const firstZoneID = 4

// IDGenerator issues document-unique identifiers: opaque calculation ids for
// calculated fields and monotonically increasing integer ids for dashboard
// zones. A Workbook owns exactly one generator so ids never collide across
// independently built worksheets and dashboards.
type IDGenerator struct {
	nextZone int
	issued   map[string]bool
}

func newIDGenerator() *IDGenerator {
	return &IDGenerator{
		nextZone: firstZoneID,
		issued:   make(map[string]bool),
	}
}

// NextCalculationID returns a fresh calculation identifier of the form
// "Calculation_xxxxxxxxxxxx". The token is random but guaranteed distinct
// from every id previously issued by this generator.
func (g *IDGenerator) NextCalculationID() string {
	for {
		u := uuid.New()
		id := "Calculation_" + hex.EncodeToString(u[:])[:12]
		if !g.issued[id] {
			g.issued[id] = true
			return id
		}
	}
}

// NextZoneID returns the next zone id. Ids increase by one per call starting
// at firstZoneID, irrespective of which dashboard or container asked.
func (g *IDGenerator) NextZoneID() int {
	id := g.nextZone
	g.nextZone++
	return id
}

// nextDatasourceName returns a fresh datasource name in the federated.<hex>
// form the consuming application expects.
func nextDatasourceName() string {
	u := uuid.New()
	return fmt.Sprintf("federated.%s", hex.EncodeToString(u[:])[:7])
}
