package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/dvloznov/agrofin/internal/categorizer"
	"github.com/dvloznov/agrofin/internal/domain"
)

// Options carries the inputs of the DRE that do not come from the
// transaction feed.
type Options struct {
	// Estoque is the per-month inventory value. When set it replaces the
	// ESTOQUE category sum from the transaction feed.
	Estoque map[string]float64

	// Saldo is the per-month bank balance produced by the projection
	// component. When absent the SALDO row is zero-filled and a warning is
	// recorded; RESULTADO GERENCIAL then degrades to RESULTADO + ESTOQUE.
	Saldo map[string]float64
}

// Result is a built report plus the missing-data warnings collected along
// the way. Warnings are the common case, not errors: a line item with no
// matching transactions still yields a zero-filled row.
type Result struct {
	Table    *Table
	Warnings []string
}

// sourceLine configures how one DRE source row is summed from transactions.
// Categories are tried as exact (normalized) matches first; only when no
// transaction matched any of them does the builder fall back to a substring
// match, so e.g. "Receita Extra Operacional (juros)" still lands on
// RECEITA EXTRA OPERACIONAL.
type sourceLine struct {
	name       string
	categories []string
}

var dreSources = []sourceLine{
	{domain.LinhaFaturamento, []string{domain.LinhaFaturamento}},
	{domain.LinhaReceita, []string{domain.LinhaReceita, "RECEITAS"}},
	{domain.LinhaImpostos, []string{domain.LinhaImpostos, "IMPOSTO"}},
	{domain.LinhaDespesaOperacional, []string{domain.LinhaDespesaOperacional, "DESPESAS OPERACIONAIS"}},
	{domain.LinhaDespesasPessoal, []string{domain.LinhaDespesasPessoal, "DESPESA COM PESSOAL"}},
	{domain.LinhaDespesaAdministrativa, []string{domain.LinhaDespesaAdministrativa, "DESPESAS ADMINISTRATIVAS"}},
	{domain.LinhaInvestimentos, []string{domain.LinhaInvestimentos, "INVESTIMENTO"}},
	{domain.LinhaDespesaExtra, []string{domain.LinhaDespesaExtra, "DESPESAS EXTRA OPERACIONAIS"}},
	{domain.LinhaReceitaExtra, []string{domain.LinhaReceitaExtra, "RECEITAS EXTRA OPERACIONAIS"}},
	{domain.LinhaRetiradasSocios, []string{domain.LinhaRetiradasSocios, "RETIRADA SOCIOS", "RETIRADAS"}},
}

// derivedRow is one subtotal with its formula. The slice below is evaluated
// strictly in order; each formula reads only rows added before it, which
// makes the dependency order a visible data structure instead of implicit
// call order.
type derivedRow struct {
	name    string
	formula func(t *Table, month string) float64
}

var dreDerived = []derivedRow{
	{domain.LinhaMargemContribuicao, func(t *Table, m string) float64 {
		return t.Value(domain.LinhaReceita, m) -
			t.Value(domain.LinhaImpostos, m) -
			t.Value(domain.LinhaDespesaOperacional, m)
	}},
	{domain.LinhaLucroOperacional, func(t *Table, m string) float64 {
		return t.Value(domain.LinhaMargemContribuicao, m) -
			t.Value(domain.LinhaDespesasPessoal, m) -
			t.Value(domain.LinhaDespesaAdministrativa, m)
	}},
	{domain.LinhaLucroLiquido, func(t *Table, m string) float64 {
		return t.Value(domain.LinhaLucroOperacional, m) -
			t.Value(domain.LinhaInvestimentos, m) -
			t.Value(domain.LinhaDespesaExtra, m)
	}},
	{domain.LinhaResultado, func(t *Table, m string) float64 {
		return t.Value(domain.LinhaLucroLiquido, m) -
			t.Value(domain.LinhaRetiradasSocios, m) +
			t.Value(domain.LinhaReceitaExtra, m)
	}},
	{domain.LinhaResultadoGerencial, func(t *Table, m string) float64 {
		return t.Value(domain.LinhaResultado, m) +
			t.Value(domain.LinhaEstoque, m) +
			t.Value(domain.LinhaSaldo, m)
	}},
}

// BuildDRE folds a categorized transaction set into the DRE table.
// Missing source categories degrade to zero-filled rows plus a warning;
// the build itself never fails on missing data.
func BuildDRE(txs []domain.Transaction, opts Options) Result {
	months := MonthSpan(txs)
	table := NewTable(months)
	table.BaseRow = domain.LinhaReceita

	var warnings []string

	for _, src := range dreSources {
		byMonth, matched := sumByCategory(txs, src.categories)
		if !matched {
			warnings = append(warnings, fmt.Sprintf("linha %q sem lançamentos no período", src.name))
		}
		if domain.IsExpenseLine(src.name) {
			for m, v := range byMonth {
				byMonth[m] = math.Abs(v)
			}
		}
		table.AddRow(src.name, byMonth)
	}

	// ESTOQUE: explicit per-month values win over the category sum.
	if len(opts.Estoque) > 0 {
		table.AddRow(domain.LinhaEstoque, opts.Estoque)
	} else {
		byMonth, matched := sumByCategory(txs, []string{domain.LinhaEstoque})
		if !matched {
			warnings = append(warnings, fmt.Sprintf("linha %q sem lançamentos no período", domain.LinhaEstoque))
		}
		table.AddRow(domain.LinhaEstoque, byMonth)
	}

	// SALDO comes from the balance projection, never from transactions.
	if len(opts.Saldo) > 0 {
		table.AddRow(domain.LinhaSaldo, opts.Saldo)
	} else {
		table.AddRow(domain.LinhaSaldo, nil)
		warnings = append(warnings, "saldo bancário indisponível; RESULTADO GERENCIAL sem ajuste de saldo")
	}

	for _, d := range dreDerived {
		byMonth := make(map[string]float64, len(months))
		for _, m := range months {
			byMonth[m] = d.formula(table, m)
		}
		table.AddRow(d.name, byMonth)
	}

	return Result{Table: table, Warnings: warnings}
}

// configuredCategories holds every normalized category any source line
// claims. The substring fallback consults it so a line never absorbs
// transactions that belong to a different line of the taxonomy.
var configuredCategories = func() map[string]bool {
	m := make(map[string]bool)
	for _, src := range dreSources {
		for _, c := range src.categories {
			m[categorizer.Normalize(c)] = true
		}
	}
	m[categorizer.Normalize(domain.LinhaEstoque)] = true
	return m
}()

// sumByCategory sums signed amounts per month for transactions whose
// category matches one of the candidates. Exact normalized equality is
// tried first over the whole set; the substring fallback only runs when the
// exact pass matched nothing, and it catches label variants only: a
// transaction whose category is itself a configured category of some line
// is never claimed via substring (RECEITA must not absorb
// RECEITA EXTRA OPERACIONAL).
func sumByCategory(txs []domain.Transaction, categories []string) (map[string]float64, bool) {
	normCats := make([]string, len(categories))
	for i, c := range categories {
		normCats[i] = categorizer.Normalize(c)
	}

	byMonth := make(map[string]float64)
	matched := false

	for _, tx := range txs {
		cat := categorizer.Normalize(tx.Category)
		for _, nc := range normCats {
			if cat == nc {
				byMonth[tx.Month()] += tx.Amount
				matched = true
				break
			}
		}
	}
	if matched {
		return byMonth, true
	}

	for _, tx := range txs {
		cat := categorizer.Normalize(tx.Category)
		if configuredCategories[cat] {
			continue
		}
		for _, nc := range normCats {
			if strings.Contains(cat, nc) {
				byMonth[tx.Month()] += tx.Amount
				matched = true
				break
			}
		}
	}
	return byMonth, matched
}
