// Package projection derives a per-month bank balance series from the
// DRE's monthly RESULTADO. Historical periods are back-solved from the real
// current balance; budget periods are projected forward from it.
package projection

import (
	"fmt"
	"time"

	"github.com/dvloznov/agrofin/internal/domain"
)

// Mode selects the closure property of the series.
type Mode string

const (
	// ModeRetroactive back-solves an opening balance so the last computed
	// month lands exactly on the observed current balance.
	ModeRetroactive Mode = "retroativo"

	// ModeProgressive walks forward from the current balance. It is a
	// projection with no closure against future actuals.
	ModeProgressive Mode = "progressivo"
)

// Input describes one projection request.
type Input struct {
	// Months in chronological order, "YYYY-MM". Must be non-empty.
	Months []string

	// Resultados is the DRE's monthly RESULTADO keyed by month. Missing
	// months read as 0.
	Resultados map[string]float64

	// CurrentBalance is the externally observed balance. nil means the
	// provider was unavailable; the projection then anchors at 0 and is
	// flagged degraded.
	CurrentBalance *float64

	// BoundaryYear separates historical from budget periods: the series is
	// retroactive when the first month's year is ≤ BoundaryYear. Zero means
	// the current calendar year.
	BoundaryYear int
}

// Result is the projected series plus its confidence. A degraded result is
// still a complete series; it just lost its external anchor.
type Result struct {
	Mode           Mode
	Opening        float64
	Months         []string
	Balances       map[string]float64
	Degraded       bool
	DegradedReason string
}

// Project computes the balance series. The mode branch is a single
// deterministic decision per call; the two branches must not be conflated
// because only the retroactive one closes on the observed balance.
func Project(in Input) (Result, error) {
	if len(in.Months) == 0 {
		return Result{}, fmt.Errorf("projection: no months given")
	}

	first, err := time.Parse(domain.MonthLayout, in.Months[0])
	if err != nil {
		return Result{}, fmt.Errorf("projection: invalid month %q: %w", in.Months[0], err)
	}

	boundary := in.BoundaryYear
	if boundary == 0 {
		boundary = time.Now().Year()
	}

	mode := ModeProgressive
	if first.Year() <= boundary {
		mode = ModeRetroactive
	}

	res := Result{
		Mode:     mode,
		Months:   in.Months,
		Balances: make(map[string]float64, len(in.Months)),
	}

	var anchor float64
	if in.CurrentBalance != nil {
		anchor = *in.CurrentBalance
	} else {
		res.Degraded = true
		res.DegradedReason = "saldo real indisponível; projeção ancorada em 0"
	}

	opening := anchor
	if mode == ModeRetroactive {
		var total float64
		for _, m := range in.Months {
			total += in.Resultados[m]
		}
		opening = anchor - total
	}
	res.Opening = opening

	balance := opening
	for _, m := range in.Months {
		balance += in.Resultados[m]
		res.Balances[m] = balance
	}

	return res, nil
}
