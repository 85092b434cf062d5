// Package saldo resolves the real bank balance of a company. The projection
// layer tolerates its absence: a provider error degrades the projection, it
// never aborts a report.
package saldo

import (
	"context"
	"errors"
)

// ErrNoBalance signals that the provider has no balance recorded for the
// company. Callers treat it as "unavailable", not as a failure.
var ErrNoBalance = errors.New("saldo: nenhum saldo registrado")

// BalanceProvider returns the most recent known bank balance for a company.
type BalanceProvider interface {
	CurrentBalance(ctx context.Context, empresa string) (float64, error)
}

// Static serves balances from a fixed map. Used by the CLI when balances come
// from a config file and by tests.
type Static struct {
	Balances map[string]float64
}

// CurrentBalance returns the configured balance or ErrNoBalance.
func (s Static) CurrentBalance(_ context.Context, empresa string) (float64, error) {
	v, ok := s.Balances[empresa]
	if !ok {
		return 0, ErrNoBalance
	}
	return v, nil
}
