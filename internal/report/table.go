// Package report builds the DRE and cash-flow tables from categorized
// transactions. Both are projections of the same transaction set under two
// independent groupings; they are not expected to reconcile.
package report

import (
	"time"

	"github.com/dvloznov/agrofin/internal/domain"
)

// Table is a 2-D report: named rows × month columns, with a derived TOTAL
// per row and a "% of revenue" column computed against BaseRow.
type Table struct {
	// Rows in display order. Source rows first, derived subtotals after.
	Rows []string

	// Months in chronological order, "YYYY-MM".
	Months []string

	// BaseRow is the row the percentage column is computed against
	// (RECEITA for the DRE). Empty disables the percentage column.
	BaseRow string

	values map[string]map[string]float64
}

// NewTable creates an empty table over the given month columns.
func NewTable(months []string) *Table {
	return &Table{
		Months: months,
		values: make(map[string]map[string]float64),
	}
}

// AddRow appends a row. Missing months are zero-filled.
func (t *Table) AddRow(name string, byMonth map[string]float64) {
	row := make(map[string]float64, len(t.Months))
	for _, m := range t.Months {
		row[m] = byMonth[m]
	}
	t.values[name] = row
	t.Rows = append(t.Rows, name)
}

// Value returns one cell; absent rows or months read as 0.
func (t *Table) Value(row, month string) float64 {
	return t.values[row][month]
}

// HasRow reports whether the row exists.
func (t *Table) HasRow(name string) bool {
	_, ok := t.values[name]
	return ok
}

// Total returns the sum of a row's monthly values.
func (t *Table) Total(row string) float64 {
	var sum float64
	for _, m := range t.Months {
		sum += t.values[row][m]
	}
	return sum
}

// PercentOfRevenue returns Total(row)/Total(BaseRow)×100, and 0 when the
// base total is 0. Division by zero is never surfaced as NaN or ±Inf.
func (t *Table) PercentOfRevenue(row string) float64 {
	if t.BaseRow == "" {
		return 0
	}
	base := t.Total(t.BaseRow)
	if base == 0 {
		return 0
	}
	return t.Total(row) / base * 100
}

// RowSeries returns a copy of a row's monthly values keyed by month.
func (t *Table) RowSeries(row string) map[string]float64 {
	out := make(map[string]float64, len(t.Months))
	for _, m := range t.Months {
		out[m] = t.values[row][m]
	}
	return out
}

// MonthSpan returns the contiguous month columns covering the transaction
// set, from the earliest to the latest transaction month. An empty set
// yields no columns.
func MonthSpan(txs []domain.Transaction) []string {
	if len(txs) == 0 {
		return nil
	}

	min, max := txs[0].Date, txs[0].Date
	for _, tx := range txs[1:] {
		if tx.Date.Before(min) {
			min = tx.Date
		}
		if tx.Date.After(max) {
			max = tx.Date
		}
	}

	first := time.Date(min.Year(), min.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(max.Year(), max.Month(), 1, 0, 0, 0, 0, time.UTC)

	var months []string
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		months = append(months, m.Format(domain.MonthLayout))
	}
	return months
}
