package rateio

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/dvloznov/agrofin/internal/domain"
)

const epsilon = 1e-6

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func plantio(crop string, hectares float64) domain.Plantio {
	return domain.Plantio{
		ID:              crop + "-2025",
		Year:            2025,
		Crop:            crop,
		Hectares:        hectares,
		SacksPerHectare: 60,
		PricePerSack:    120,
		Active:          true,
	}
}

// Two-crop scenario: Soja 100 ha (25%) and Milho 300 ha (75%) over
// R$ 40.000 of direct costs.
func TestAllocate_TwoCrops(t *testing.T) {
	plantios := []domain.Plantio{
		plantio("Soja", 100),
		plantio("Milho", 300),
	}
	costs := CostTotals{CustosDiretos: 40000}

	res, err := Allocate(plantios, costs)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if len(res.Crops) != 2 {
		t.Fatalf("got %d crops, want 2", len(res.Crops))
	}

	byName := map[string]CropAllocation{}
	for _, a := range res.Crops {
		byName[a.Crop] = a
	}

	soja := byName["Soja"]
	if !almostEqual(soja.Share, 0.25) {
		t.Errorf("Soja share = %v, want 0.25", soja.Share)
	}
	if !almostEqual(soja.CustosDiretos, 10000) {
		t.Errorf("Soja direct cost = %v, want 10000", soja.CustosDiretos)
	}

	milho := byName["Milho"]
	if !almostEqual(milho.Share, 0.75) {
		t.Errorf("Milho share = %v, want 0.75", milho.Share)
	}
	if !almostEqual(milho.CustosDiretos, 30000) {
		t.Errorf("Milho direct cost = %v, want 30000", milho.CustosDiretos)
	}
}

// Partition property: per-category allocated sums equal the input totals,
// for 1 crop, equal hectares and wildly unequal hectares.
func TestAllocate_PartitionProperty(t *testing.T) {
	costs := CostTotals{
		CustosDiretos:         123456.78,
		CustosAdministrativos: 34567.89,
		DespesasExtra:         9876.54,
		Retiradas:             4500,
	}

	tests := []struct {
		name     string
		plantios []domain.Plantio
	}{
		{"single crop", []domain.Plantio{plantio("Soja", 1234.5)}},
		{"equal hectares", []domain.Plantio{
			plantio("Soja", 500), plantio("Milho", 500), plantio("Algodão", 500),
		}},
		{"wildly unequal", []domain.Plantio{
			plantio("Soja", 1), plantio("Milho", 10000),
		}},
		{"same crop merged across plantings", []domain.Plantio{
			plantio("Soja", 100), {ID: "soja-2", Year: 2025, Crop: "Soja", Hectares: 150, Active: true}, plantio("Milho", 250),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Allocate(tt.plantios, costs)
			if err != nil {
				t.Fatalf("Allocate failed: %v", err)
			}

			var got CostTotals
			var shares float64
			for _, a := range res.Crops {
				got.CustosDiretos += a.CustosDiretos
				got.CustosAdministrativos += a.CustosAdministrativos
				got.DespesasExtra += a.DespesasExtra
				got.Retiradas += a.Retiradas
				shares += a.Share
			}

			if !almostEqual(shares, 1) {
				t.Errorf("shares sum = %v, want 1", shares)
			}
			if !almostEqual(got.CustosDiretos, costs.CustosDiretos) {
				t.Errorf("direct costs sum = %v, want %v", got.CustosDiretos, costs.CustosDiretos)
			}
			if !almostEqual(got.CustosAdministrativos, costs.CustosAdministrativos) {
				t.Errorf("admin costs sum = %v, want %v", got.CustosAdministrativos, costs.CustosAdministrativos)
			}
			if !almostEqual(got.DespesasExtra, costs.DespesasExtra) {
				t.Errorf("extra costs sum = %v, want %v", got.DespesasExtra, costs.DespesasExtra)
			}
			if !almostEqual(got.Retiradas, costs.Retiradas) {
				t.Errorf("withdrawals sum = %v, want %v", got.Retiradas, costs.Retiradas)
			}
		})
	}
}

// Zero total hectares refuses the allocation outright.
func TestAllocate_ZeroHectares(t *testing.T) {
	tests := []struct {
		name     string
		plantios []domain.Plantio
	}{
		{"no plantings", nil},
		{"only inactive", []domain.Plantio{
			{ID: "x", Crop: "Soja", Hectares: 100, Active: false},
		}},
		{"active with zero hectares", []domain.Plantio{
			{ID: "y", Crop: "Soja", Hectares: 0, Active: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Allocate(tt.plantios, CostTotals{CustosDiretos: 1000})
			if !errors.Is(err, ErrNoHectares) {
				t.Fatalf("err = %v, want ErrNoHectares", err)
			}
			if len(res.Crops) != 0 {
				t.Errorf("expected empty result, got %d crops", len(res.Crops))
			}
		})
	}
}

func TestAllocate_UnitEconomics(t *testing.T) {
	plantios := []domain.Plantio{{
		ID: "soja-1", Year: 2025, Crop: "Soja",
		Hectares: 100, SacksPerHectare: 60, PricePerSack: 120, Active: true,
	}}
	res, err := Allocate(plantios, CostTotals{CustosDiretos: 300000})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	a := res.Crops[0]
	if !almostEqual(a.Sacks, 6000) {
		t.Errorf("sacks = %v, want 6000", a.Sacks)
	}
	if !almostEqual(a.EstimatedRevenue, 720000) {
		t.Errorf("estimated revenue = %v, want 720000", a.EstimatedRevenue)
	}
	if !almostEqual(a.CostPerHectare, 3000) {
		t.Errorf("cost/ha = %v, want 3000", a.CostPerHectare)
	}
	if !almostEqual(a.CostPerSack, 50) {
		t.Errorf("cost/sack = %v, want 50", a.CostPerSack)
	}
	if !almostEqual(a.Margin, 420000) {
		t.Errorf("margin = %v, want 420000", a.Margin)
	}
	if !almostEqual(a.MarginPerHectare, 4200) {
		t.Errorf("margin/ha = %v, want 4200", a.MarginPerHectare)
	}
}

func date(day string) time.Time {
	d, _ := time.Parse("2006-01-02", day)
	return d
}

// Two-tier rule: tagged expenses go straight to their crop; only the
// untagged remainder is rateado by hectares.
func TestAllocateWithCostCenters(t *testing.T) {
	plantios := []domain.Plantio{
		plantio("Soja", 100),
		plantio("Milho", 100),
	}
	txs := []domain.Transaction{
		// Directly attributed: only Soja pays for this.
		{Date: date("2025-01-10"), Amount: -8000, Category: domain.LinhaDespesaOperacional, CostCenter: "Soja"},
		// Untagged: split 50/50.
		{Date: date("2025-01-11"), Amount: -4000, Category: domain.LinhaDespesaOperacional},
		// Explicitly administrative: also split.
		{Date: date("2025-01-12"), Amount: -2000, Category: domain.LinhaDespesaAdministrativa, CostCenter: domain.CostCenterAdmin},
		// Revenue is never allocated.
		{Date: date("2025-01-13"), Amount: 50000, Category: domain.LinhaFaturamento},
	}

	res, err := AllocateWithCostCenters(plantios, txs)
	if err != nil {
		t.Fatalf("AllocateWithCostCenters failed: %v", err)
	}

	byName := map[string]CropAllocation{}
	for _, a := range res.Crops {
		byName[a.Crop] = a
	}

	soja := byName["Soja"]
	if !almostEqual(soja.CustosDiretos, 10000) { // 8000 direct + 2000 pool share
		t.Errorf("Soja direct costs = %v, want 10000", soja.CustosDiretos)
	}
	if !almostEqual(soja.CustosAdministrativos, 1000) {
		t.Errorf("Soja admin costs = %v, want 1000", soja.CustosAdministrativos)
	}

	milho := byName["Milho"]
	if !almostEqual(milho.CustosDiretos, 2000) { // pool share only
		t.Errorf("Milho direct costs = %v, want 2000", milho.CustosDiretos)
	}

	// Partition still holds over the full expense set.
	total := soja.TotalCost + milho.TotalCost
	if !almostEqual(total, 14000) {
		t.Errorf("total allocated = %v, want 14000", total)
	}
}

func TestAllocateWithCostCenters_UnknownCrop(t *testing.T) {
	plantios := []domain.Plantio{plantio("Soja", 100)}
	txs := []domain.Transaction{
		{Date: date("2025-01-10"), Amount: -5000, Category: domain.LinhaDespesaOperacional, CostCenter: "Trigo"},
	}

	res, err := AllocateWithCostCenters(plantios, txs)
	if err != nil {
		t.Fatalf("AllocateWithCostCenters failed: %v", err)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a warning for unknown cost center")
	}
	// The amount is not lost: it falls back to the pool.
	if !almostEqual(res.Crops[0].CustosDiretos, 5000) {
		t.Errorf("Soja direct costs = %v, want 5000", res.Crops[0].CustosDiretos)
	}
}
