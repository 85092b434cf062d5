package domain

import (
	"time"
)

// MonthLayout is the canonical month-column key used by every report table
// ("2006-01" → "2025-03").
const MonthLayout = "2006-01"

// CostCenterAdmin marks transactions that belong to no specific crop.
// They fall through to the hectare-proportional allocation.
const CostCenterAdmin = "Administrativo"

// Transaction is one dated, signed monetary record as produced by the
// importers. Amount is positive for money in and negative for money out.
// Category is a free label assigned by the categorizer; the report builders
// match it against the fixed line-item taxonomy.
type Transaction struct {
	Date        time.Time
	Description string
	Amount      float64
	Category    string
	CostCenter  string // crop name, CostCenterAdmin, or empty (untagged)
}

// Month returns the month-column key for this transaction.
func (t Transaction) Month() string {
	return t.Date.Format(MonthLayout)
}

// IsCropTagged reports whether the transaction is attributed directly to a
// crop cost center rather than the shared administrative pool.
func (t Transaction) IsCropTagged() bool {
	return t.CostCenter != "" && t.CostCenter != CostCenterAdmin
}
