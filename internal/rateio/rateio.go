// Package rateio distributes the DRE's aggregate costs across crops in
// proportion to planted area. Costs carrying a crop cost-center tag are
// attributed directly; only the shared remainder is split by hectare share.
package rateio

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/dvloznov/agrofin/internal/domain"
	"github.com/dvloznov/agrofin/internal/report"
)

// ErrNoHectares is returned when the active planting set has no area at
// all: a hectare share is undefined without a denominator, so the whole
// allocation is refused instead of dividing by zero.
var ErrNoHectares = errors.New("rateio: total de hectares é zero")

// CostTotals are the four DRE aggregates the engine distributes. Values are
// positive magnitudes.
type CostTotals struct {
	CustosDiretos         float64
	CustosAdministrativos float64
	DespesasExtra         float64
	Retiradas             float64
}

// Sum returns the combined cost magnitude.
func (c CostTotals) Sum() float64 {
	return c.CustosDiretos + c.CustosAdministrativos + c.DespesasExtra + c.Retiradas
}

// FromDRE extracts the four aggregates from a built DRE table. Expense rows
// are already displayed as absolute values there.
func FromDRE(t *report.Table) CostTotals {
	return CostTotals{
		CustosDiretos:         t.Total(domain.LinhaImpostos) + t.Total(domain.LinhaDespesaOperacional),
		CustosAdministrativos: t.Total(domain.LinhaDespesasPessoal) + t.Total(domain.LinhaDespesaAdministrativa),
		DespesasExtra:         t.Total(domain.LinhaInvestimentos) + t.Total(domain.LinhaDespesaExtra),
		Retiradas:             t.Total(domain.LinhaRetiradasSocios),
	}
}

// CropAllocation is the per-crop result: the hectare share, the four
// allocated cost categories and the derived unit economics.
type CropAllocation struct {
	Crop     string
	Hectares float64
	Share    float64 // crop hectares / total hectares
	Sacks    float64

	EstimatedRevenue float64

	CustosDiretos         float64
	CustosAdministrativos float64
	DespesasExtra         float64
	Retiradas             float64
	TotalCost             float64

	RevenuePerHectare float64
	CostPerHectare    float64
	CostPerSack       float64
	Margin            float64
	MarginPerHectare  float64
}

// Result bundles the allocations with the warnings produced while building
// them (unknown cost centers, zero-hectare crops).
type Result struct {
	Crops    []CropAllocation
	Warnings []string
}

// crop groups the plantios of one crop; multiple plantings of the same crop
// are merged before shares are computed.
type crop struct {
	hectares float64
	sacks    float64
	revenue  float64

	// directly attributed costs (cost-center tier)
	direct CostTotals
}

// Allocate distributes the cost totals across the active plantings purely
// by hectare share. The allocated amounts per category partition the input
// totals exactly (shares sum to 1 by construction).
func Allocate(plantios []domain.Plantio, costs CostTotals) (Result, error) {
	return allocate(plantios, costs, nil)
}

// AllocateWithCostCenters applies the two-tier rule: transaction amounts
// tagged with a crop cost center are attributed directly to that crop, and
// only untagged (or "Administrativo") expense transactions enter the
// hectare-proportional pool. Revenue and adjustment categories are ignored.
func AllocateWithCostCenters(plantios []domain.Plantio, txs []domain.Transaction) (Result, error) {
	return allocate(plantios, CostTotals{}, txs)
}

func allocate(plantios []domain.Plantio, pool CostTotals, txs []domain.Transaction) (Result, error) {
	active := domain.ActivePlantios(plantios)

	crops := make(map[string]*crop)
	var totalHectares float64
	for _, p := range active {
		c := crops[p.Crop]
		if c == nil {
			c = &crop{}
			crops[p.Crop] = c
		}
		c.hectares += p.Hectares
		c.sacks += p.Sacks()
		c.revenue += p.EstimatedRevenue()
		totalHectares += p.Hectares
	}

	if totalHectares == 0 {
		return Result{}, ErrNoHectares
	}

	var warnings []string
	if txs != nil {
		pool, warnings = splitCostCenters(txs, crops)
	}

	names := make([]string, 0, len(crops))
	for name := range crops {
		names = append(names, name)
	}
	sort.Strings(names)

	result := Result{Warnings: warnings, Crops: make([]CropAllocation, 0, len(names))}
	for _, name := range names {
		c := crops[name]
		share := c.hectares / totalHectares

		a := CropAllocation{
			Crop:             name,
			Hectares:         c.hectares,
			Share:            share,
			Sacks:            c.sacks,
			EstimatedRevenue: c.revenue,

			CustosDiretos:         c.direct.CustosDiretos + pool.CustosDiretos*share,
			CustosAdministrativos: c.direct.CustosAdministrativos + pool.CustosAdministrativos*share,
			DespesasExtra:         c.direct.DespesasExtra + pool.DespesasExtra*share,
			Retiradas:             c.direct.Retiradas + pool.Retiradas*share,
		}
		a.TotalCost = a.CustosDiretos + a.CustosAdministrativos + a.DespesasExtra + a.Retiradas
		a.Margin = a.EstimatedRevenue - a.TotalCost

		a.RevenuePerHectare = safeDiv(a.EstimatedRevenue, a.Hectares)
		a.CostPerHectare = safeDiv(a.TotalCost, a.Hectares)
		a.CostPerSack = safeDiv(a.TotalCost, a.Sacks)
		a.MarginPerHectare = safeDiv(a.Margin, a.Hectares)

		if a.Hectares == 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("cultura %q sem hectares; participa do rateio com custo zero", name))
		}

		result.Crops = append(result.Crops, a)
	}

	return result, nil
}

// splitCostCenters walks the transactions, attributing tagged expenses
// directly to their crop and accumulating the untagged remainder into the
// shared pool. Tags naming an unknown crop fall back to the pool with a
// warning rather than vanishing.
func splitCostCenters(txs []domain.Transaction, crops map[string]*crop) (CostTotals, []string) {
	var pool CostTotals
	var warnings []string
	unknown := make(map[string]bool)

	for _, tx := range txs {
		bucket, ok := costBucket(tx.Category)
		if !ok {
			continue
		}
		amount := math.Abs(tx.Amount)

		if tx.IsCropTagged() {
			if c, exists := crops[tx.CostCenter]; exists {
				addToBucket(&c.direct, bucket, amount)
				continue
			}
			if !unknown[tx.CostCenter] {
				unknown[tx.CostCenter] = true
				warnings = append(warnings,
					fmt.Sprintf("centro de custo %q não corresponde a nenhuma cultura ativa; valor rateado", tx.CostCenter))
			}
		}
		addToBucket(&pool, bucket, amount)
	}

	return pool, warnings
}

type bucket int

const (
	bucketDireto bucket = iota
	bucketAdministrativo
	bucketExtra
	bucketRetirada
)

// costBucket maps a taxonomy category to one of the four allocation
// buckets. Revenue and adjustment lines return false and are skipped.
func costBucket(category string) (bucket, bool) {
	switch category {
	case domain.LinhaImpostos, domain.LinhaDespesaOperacional:
		return bucketDireto, true
	case domain.LinhaDespesasPessoal, domain.LinhaDespesaAdministrativa:
		return bucketAdministrativo, true
	case domain.LinhaInvestimentos, domain.LinhaDespesaExtra:
		return bucketExtra, true
	case domain.LinhaRetiradasSocios:
		return bucketRetirada, true
	}
	return 0, false
}

func addToBucket(c *CostTotals, b bucket, amount float64) {
	switch b {
	case bucketDireto:
		c.CustosDiretos += amount
	case bucketAdministrativo:
		c.CustosAdministrativos += amount
	case bucketExtra:
		c.DespesasExtra += amount
	case bucketRetirada:
		c.Retiradas += amount
	}
}

// safeDiv is the zero-denominator convention of the whole system: report 0,
// never NaN.
func safeDiv(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}
