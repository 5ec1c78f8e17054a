package goworkbook

import (
	"regexp"
	"testing"
)

func TestNextCalculationIDFormat(t *testing.T) {
	g := newIDGenerator()
	pattern := regexp.MustCompile(`^Calculation_[0-9a-f]{12}$`)
	for i := 0; i < 10; i++ {
		id := g.NextCalculationID()
		if !pattern.MatchString(id) {
			t.Errorf("calculation id %q does not match Calculation_<12 hex>", id)
		}
	}
}

func TestNextCalculationIDDistinct(t *testing.T) {
	g := newIDGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.NextCalculationID()
		if seen[id] {
			t.Fatalf("duplicate calculation id %q after %d draws", id, i)
		}
		seen[id] = true
	}
}

func TestNextZoneIDSequence(t *testing.T) {
	g := newIDGenerator()
	for want := firstZoneID; want < firstZoneID+5; want++ {
		if got := g.NextZoneID(); got != want {
			t.Errorf("NextZoneID() = %d, want %d", got, want)
		}
	}
}

func TestNextDatasourceName(t *testing.T) {
	pattern := regexp.MustCompile(`^federated\.[0-9a-f]{7}$`)
	name := nextDatasourceName()
	if !pattern.MatchString(name) {
		t.Errorf("datasource name %q does not match federated.<7 hex>", name)
	}
}
