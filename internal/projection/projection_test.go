package projection

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func ptr(v float64) *float64 { return &v }

// Retroactive closure: the last computed balance equals the observed
// current balance exactly, and the opening equals B − ΣRESULTADO.
func TestProject_RetroactiveClosure(t *testing.T) {
	resultados := map[string]float64{
		"2025-01": 10000,
		"2025-02": -4000,
		"2025-03": 7000,
	}
	months := []string{"2025-01", "2025-02", "2025-03"}
	current := 250000.0

	res, err := Project(Input{
		Months:         months,
		Resultados:     resultados,
		CurrentBalance: ptr(current),
		BoundaryYear:   2025,
	})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	if res.Mode != ModeRetroactive {
		t.Fatalf("mode = %v, want retroactive", res.Mode)
	}

	wantOpening := current - 13000
	if math.Abs(res.Opening-wantOpening) > epsilon {
		t.Errorf("opening = %v, want %v", res.Opening, wantOpening)
	}
	if got := res.Balances["2025-03"]; math.Abs(got-current) > epsilon {
		t.Errorf("last balance = %v, want %v (closure)", got, current)
	}
	if got := res.Balances["2025-01"]; math.Abs(got-(wantOpening+10000)) > epsilon {
		t.Errorf("first balance = %v, want opening+resultado", got)
	}
	if res.Degraded {
		t.Error("result should not be degraded with a balance available")
	}
}

// Progressive projection: B=100.000 and one month of RESULTADO=25.000
// yields exactly 125.000.
func TestProject_Progressive(t *testing.T) {
	res, err := Project(Input{
		Months:         []string{"2026-01"},
		Resultados:     map[string]float64{"2026-01": 25000},
		CurrentBalance: ptr(100000),
		BoundaryYear:   2025,
	})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	if res.Mode != ModeProgressive {
		t.Fatalf("mode = %v, want progressive", res.Mode)
	}
	if got := res.Balances["2026-01"]; math.Abs(got-125000) > epsilon {
		t.Errorf("balance = %v, want 125000", got)
	}
	if res.Opening != 100000 {
		t.Errorf("opening = %v, want 100000", res.Opening)
	}
}

func TestProject_ProgressiveWalk(t *testing.T) {
	res, err := Project(Input{
		Months: []string{"2026-01", "2026-02", "2026-03"},
		Resultados: map[string]float64{
			"2026-01": 10000,
			"2026-02": -2500,
			"2026-03": 500,
		},
		CurrentBalance: ptr(50000),
		BoundaryYear:   2025,
	})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	want := map[string]float64{
		"2026-01": 60000,
		"2026-02": 57500,
		"2026-03": 58000,
	}
	for m, w := range want {
		if got := res.Balances[m]; math.Abs(got-w) > epsilon {
			t.Errorf("balance[%s] = %v, want %v", m, got, w)
		}
	}
}

// Mode is selected by the calendar year of the first month against the
// boundary year.
func TestProject_ModeSelection(t *testing.T) {
	tests := []struct {
		name     string
		first    string
		boundary int
		want     Mode
	}{
		{"year before boundary", "2023-05", 2025, ModeRetroactive},
		{"boundary year itself", "2025-01", 2025, ModeRetroactive},
		{"year after boundary", "2026-01", 2025, ModeProgressive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Project(Input{
				Months:         []string{tt.first},
				Resultados:     map[string]float64{},
				CurrentBalance: ptr(0),
				BoundaryYear:   tt.boundary,
			})
			if err != nil {
				t.Fatalf("Project failed: %v", err)
			}
			if res.Mode != tt.want {
				t.Errorf("mode = %v, want %v", res.Mode, tt.want)
			}
		})
	}
}

// Missing balance provider: anchor at 0, complete the series, flag the
// result degraded.
func TestProject_DegradedWithoutBalance(t *testing.T) {
	res, err := Project(Input{
		Months:       []string{"2026-01"},
		Resultados:   map[string]float64{"2026-01": 25000},
		BoundaryYear: 2025,
	})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	if !res.Degraded {
		t.Fatal("expected degraded result without a current balance")
	}
	if res.DegradedReason == "" {
		t.Error("degraded result must carry a reason")
	}
	if got := res.Balances["2026-01"]; math.Abs(got-25000) > epsilon {
		t.Errorf("balance = %v, want 25000 anchored at 0", got)
	}
}

func TestProject_Errors(t *testing.T) {
	if _, err := Project(Input{}); err == nil {
		t.Error("expected error for empty months")
	}
	if _, err := Project(Input{Months: []string{"not-a-month"}}); err == nil {
		t.Error("expected error for malformed month")
	}
}
