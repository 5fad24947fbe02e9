package reports

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRegistry_CountAndLookup(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 25 {
		t.Errorf("expected 25 report kinds, got %d", len(kinds))
	}

	for _, kind := range kinds {
		def, err := Lookup(kind)
		if err != nil {
			t.Errorf("Lookup(%s): %v", kind, err)
			continue
		}
		if def.Kind != kind {
			t.Errorf("Lookup(%s) returned kind %s", kind, def.Kind)
		}
		if def.Name == "" || def.Description == "" {
			t.Errorf("%s: missing name or description", kind)
		}
		if def.generate == nil {
			t.Errorf("%s: no generator registered", kind)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("profit_forecast")
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if !strings.Contains(err.Error(), "profit_forecast") {
		t.Errorf("expected offending kind in message, got %v", err)
	}
}

// The header helpers read display names back out of the registry, so the
// table must be populated before any generator runs.
func TestHeaders_ResolveRegistryNames(t *testing.T) {
	h := newHeader(KindIncomeStatement, testReq)
	if h.ReportType != "Income Statement (P&L)" {
		t.Errorf("unexpected report type %q", h.ReportType)
	}

	ah, asOf := asOfHeader(KindARAging, testReq)
	if ah.ReportType != "AR Aging" {
		t.Errorf("unexpected report type %q", ah.ReportType)
	}
	if !asOf.Equal(testReq.EndDate) {
		t.Errorf("expected as-of pinned to end date, got %v", asOf)
	}
	if !ah.StartDate.Equal(time.Unix(0, 0).UTC()) {
		t.Errorf("expected epoch start, got %v", ah.StartDate)
	}
}

func TestKinds_SortedAndStable(t *testing.T) {
	kinds := Kinds()
	for i := 1; i < len(kinds); i++ {
		if kinds[i] < kinds[i-1] {
			t.Errorf("Kinds() not sorted at %d: %s before %s", i, kinds[i-1], kinds[i])
		}
	}
}
