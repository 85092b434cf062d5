package report

import (
	"math"
	"strings"
	"testing"

	"github.com/dvloznov/agrofin/internal/domain"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// The end-to-end scenario: FATURAMENTO and RECEITA are distinct,
// independently-summed rows. MARGEM CONTRIBUIÇÃO uses whatever RECEITA
// sums to from its own category, not FATURAMENTO's.
func TestBuildDRE_FaturamentoAndReceitaAreIndependent(t *testing.T) {
	txs := []domain.Transaction{
		tx("2025-01-10", 10000, domain.LinhaFaturamento),
		tx("2025-01-12", -1000, domain.LinhaImpostos),
		tx("2025-01-20", -3000, domain.LinhaDespesaOperacional),
	}

	res := BuildDRE(txs, Options{})
	table := res.Table

	if got := table.Total(domain.LinhaFaturamento); !almostEqual(got, 10000) {
		t.Errorf("FATURAMENTO total = %v, want 10000", got)
	}
	if got := table.Total(domain.LinhaReceita); !almostEqual(got, 0) {
		t.Errorf("RECEITA total = %v, want 0 (no RECEITA transactions)", got)
	}

	// MC = RECEITA − IMPOSTOS − DESPESA OPERACIONAL = 0 − 1000 − 3000
	if got := table.Value(domain.LinhaMargemContribuicao, "2025-01"); !almostEqual(got, -4000) {
		t.Errorf("MARGEM CONTRIBUIÇÃO = %v, want -4000", got)
	}
}

// Subtotal consistency: every derived formula holds exactly as stated over
// the displayed values, for an input exercising all source rows.
func TestBuildDRE_SubtotalConsistency(t *testing.T) {
	txs := []domain.Transaction{
		tx("2025-01-05", 50000, domain.LinhaReceita),
		tx("2025-01-06", 80000, domain.LinhaFaturamento),
		tx("2025-01-07", -4500, domain.LinhaImpostos),
		tx("2025-01-08", -12000, domain.LinhaDespesaOperacional),
		tx("2025-01-09", -6000, domain.LinhaDespesasPessoal),
		tx("2025-01-10", -2500, domain.LinhaDespesaAdministrativa),
		tx("2025-01-11", -9000, domain.LinhaInvestimentos),
		tx("2025-01-12", -1500, domain.LinhaDespesaExtra),
		tx("2025-01-13", 700, domain.LinhaReceitaExtra),
		tx("2025-01-14", -3000, domain.LinhaRetiradasSocios),
		tx("2025-02-05", 20000, domain.LinhaReceita),
		tx("2025-02-07", -1000, domain.LinhaImpostos),
	}

	res := BuildDRE(txs, Options{
		Estoque: map[string]float64{"2025-01": 5000, "2025-02": 5500},
		Saldo:   map[string]float64{"2025-01": 100000, "2025-02": 112000},
	})
	table := res.Table

	for _, m := range table.Months {
		mc := table.Value(domain.LinhaMargemContribuicao, m)
		receita := table.Value(domain.LinhaReceita, m)
		impostos := table.Value(domain.LinhaImpostos, m)
		despOp := table.Value(domain.LinhaDespesaOperacional, m)
		if !almostEqual(mc+impostos+despOp, receita) {
			t.Errorf("month %s: MC+IMPOSTOS+DESP.OP = %v, want RECEITA = %v",
				m, mc+impostos+despOp, receita)
		}

		lo := table.Value(domain.LinhaLucroOperacional, m)
		if !almostEqual(lo, mc-table.Value(domain.LinhaDespesasPessoal, m)-table.Value(domain.LinhaDespesaAdministrativa, m)) {
			t.Errorf("month %s: LUCRO OPERACIONAL formula broken", m)
		}

		ll := table.Value(domain.LinhaLucroLiquido, m)
		if !almostEqual(ll, lo-table.Value(domain.LinhaInvestimentos, m)-table.Value(domain.LinhaDespesaExtra, m)) {
			t.Errorf("month %s: LUCRO LIQUIDO formula broken", m)
		}

		resultado := table.Value(domain.LinhaResultado, m)
		if !almostEqual(resultado, ll-table.Value(domain.LinhaRetiradasSocios, m)+table.Value(domain.LinhaReceitaExtra, m)) {
			t.Errorf("month %s: RESULTADO formula broken", m)
		}

		gerencial := table.Value(domain.LinhaResultadoGerencial, m)
		if !almostEqual(gerencial, resultado+table.Value(domain.LinhaEstoque, m)+table.Value(domain.LinhaSaldo, m)) {
			t.Errorf("month %s: RESULTADO GERENCIAL formula broken", m)
		}
	}
}

// Expense rows are absolutized for display while the formulas subtract them.
func TestBuildDRE_ExpenseRowsAbsolutized(t *testing.T) {
	txs := []domain.Transaction{
		tx("2025-01-05", 10000, domain.LinhaReceita),
		tx("2025-01-07", -2000, domain.LinhaImpostos),
	}

	table := BuildDRE(txs, Options{}).Table

	if got := table.Value(domain.LinhaImpostos, "2025-01"); !almostEqual(got, 2000) {
		t.Errorf("IMPOSTOS displayed = %v, want 2000 (absolute)", got)
	}
	if got := table.Value(domain.LinhaMargemContribuicao, "2025-01"); !almostEqual(got, 8000) {
		t.Errorf("MARGEM CONTRIBUIÇÃO = %v, want 8000", got)
	}
}

// Zero-revenue safety: every percentage cell is 0, never NaN or ±Inf.
func TestBuildDRE_ZeroRevenuePercentages(t *testing.T) {
	txs := []domain.Transaction{
		tx("2025-01-07", -2000, domain.LinhaImpostos),
	}

	table := BuildDRE(txs, Options{}).Table

	for _, row := range table.Rows {
		pct := table.PercentOfRevenue(row)
		if math.IsNaN(pct) || math.IsInf(pct, 0) {
			t.Fatalf("PercentOfRevenue(%q) = %v with zero revenue", row, pct)
		}
		if pct != 0 {
			t.Errorf("PercentOfRevenue(%q) = %v, want 0 with zero revenue", row, pct)
		}
	}
}

func TestBuildDRE_MissingCategoryWarnsAndZeroFills(t *testing.T) {
	txs := []domain.Transaction{
		tx("2025-01-05", 10000, domain.LinhaReceita),
	}

	res := BuildDRE(txs, Options{})

	if !res.Table.HasRow(domain.LinhaInvestimentos) {
		t.Fatal("INVESTIMENTOS row must exist even without transactions")
	}
	if got := res.Table.Total(domain.LinhaInvestimentos); got != 0 {
		t.Errorf("INVESTIMENTOS total = %v, want 0", got)
	}

	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, domain.LinhaInvestimentos) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning about %q, got %v", domain.LinhaInvestimentos, res.Warnings)
	}
}

// Exact matches win; the substring fallback only applies when a line item
// had no exact hit at all.
func TestBuildDRE_SubstringFallback(t *testing.T) {
	txs := []domain.Transaction{
		tx("2025-01-05", 10000, domain.LinhaReceita),
		tx("2025-01-13", 800, "Receita Extra Operacional (juros)"),
	}

	table := BuildDRE(txs, Options{}).Table

	if got := table.Total(domain.LinhaReceitaExtra); !almostEqual(got, 800) {
		t.Errorf("RECEITA EXTRA OPERACIONAL total = %v, want 800 via substring fallback", got)
	}
	// The exact RECEITA row must not have absorbed the extra-operational one.
	if got := table.Total(domain.LinhaReceita); !almostEqual(got, 10000) {
		t.Errorf("RECEITA total = %v, want 10000", got)
	}
}

// A feed with no RECEITA transactions at all: the fallback must not route
// RECEITA EXTRA OPERACIONAL amounts into RECEITA, which would count them
// twice in RESULTADO (once via MARGEM CONTRIBUIÇÃO, once via +RECEITA EXTRA).
func TestBuildDRE_FallbackDoesNotStealOtherLines(t *testing.T) {
	txs := []domain.Transaction{
		tx("2025-01-13", 500, domain.LinhaReceitaExtra),
		tx("2025-01-07", -100, domain.LinhaImpostos),
	}

	table := BuildDRE(txs, Options{}).Table

	if got := table.Total(domain.LinhaReceita); !almostEqual(got, 0) {
		t.Errorf("RECEITA total = %v, want 0 (no RECEITA transactions)", got)
	}
	if got := table.Total(domain.LinhaReceitaExtra); !almostEqual(got, 500) {
		t.Errorf("RECEITA EXTRA OPERACIONAL total = %v, want 500", got)
	}

	// RESULTADO = (0 − 100) − 0 + 500, the extra revenue counted once.
	if got := table.Value(domain.LinhaResultado, "2025-01"); !almostEqual(got, 400) {
		t.Errorf("RESULTADO = %v, want 400", got)
	}
}

func TestBuildDRE_SaldoUnavailable(t *testing.T) {
	txs := []domain.Transaction{
		tx("2025-01-05", 10000, domain.LinhaReceita),
	}

	res := BuildDRE(txs, Options{})

	if got := res.Table.Total(domain.LinhaSaldo); got != 0 {
		t.Errorf("SALDO total = %v, want 0 when unavailable", got)
	}

	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "saldo") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected degraded-saldo warning, got %v", res.Warnings)
	}
}

func TestBuildDRE_Empty(t *testing.T) {
	res := BuildDRE(nil, Options{})
	if len(res.Table.Months) != 0 {
		t.Errorf("empty input should yield no month columns, got %v", res.Table.Months)
	}
	if len(res.Warnings) == 0 {
		t.Error("empty input should surface missing-line warnings")
	}
}
