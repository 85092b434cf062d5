package report

import (
	"math"
	"strings"

	"github.com/dvloznov/agrofin/internal/categorizer"
	"github.com/dvloznov/agrofin/internal/domain"
)

// Cash-flow row names. The grouping is liquidity-oriented and derived by
// keyword-matching the category text, independently from the DRE taxonomy.
// The two tables are not required to reconcile; that divergence is a known
// property of the system, not something the builders try to correct.
const (
	GrupoReceitas        = "Receitas"
	GrupoImpostos        = "Impostos e Taxas"
	GrupoCustosDiretos   = "Custos Diretos"
	GrupoPessoal         = "Despesas com Pessoal"
	GrupoAdministrativas = "Despesas Administrativas"
	GrupoInvestimentos   = "Investimentos"
	GrupoRetiradas       = "Retiradas"
	GrupoEstoque         = "Estoque"
	GrupoOutras          = "Outras"

	LinhaResultadoPeriodo = "RESULTADO DO PERÍODO"
	LinhaSaldoAcumulado   = "SALDO ACUMULADO"
)

// cashGroup routes categories into a liquidity bucket. The first group
// whose keyword occurs in the normalized category text wins, in this order;
// anything left over lands in Outras.
type cashGroup struct {
	name     string
	keywords []string
	outflow  bool // display as absolute value
}

var cashGroups = []cashGroup{
	{GrupoReceitas, []string{"RECEITA", "FATURAMENTO"}, false},
	{GrupoImpostos, []string{"IMPOSTO", "TAXA", "TRIBUTO"}, true},
	{GrupoCustosDiretos, []string{"DESPESA OPERACIONAL", "CUSTO"}, true},
	{GrupoPessoal, []string{"PESSOAL", "SALARIO", "FOLHA"}, true},
	{GrupoAdministrativas, []string{"ADMINISTRATIVA"}, true},
	{GrupoInvestimentos, []string{"INVESTIMENTO"}, true},
	{GrupoRetiradas, []string{"RETIRADA", "PRO LABORE"}, true},
	{GrupoEstoque, []string{"ESTOQUE"}, false},
}

// BuildCashFlow groups the transaction set into liquidity buckets and
// appends the monthly net result plus a running balance starting from
// opening. Like the DRE it is best-effort: unknown categories land in
// Outras rather than failing.
func BuildCashFlow(txs []domain.Transaction, opening float64) Result {
	months := MonthSpan(txs)
	table := NewTable(months)

	grouped := make(map[string]map[string]float64, len(cashGroups)+1)
	for _, g := range cashGroups {
		grouped[g.name] = make(map[string]float64)
	}
	grouped[GrupoOutras] = make(map[string]float64)

	net := make(map[string]float64)

	for _, tx := range txs {
		grouped[groupFor(tx.Category)][tx.Month()] += tx.Amount
		net[tx.Month()] += tx.Amount
	}

	for _, g := range cashGroups {
		byMonth := grouped[g.name]
		if g.outflow {
			for m, v := range byMonth {
				byMonth[m] = math.Abs(v)
			}
		}
		table.AddRow(g.name, byMonth)
	}
	table.AddRow(GrupoOutras, grouped[GrupoOutras])

	table.AddRow(LinhaResultadoPeriodo, net)

	running := make(map[string]float64, len(months))
	balance := opening
	for _, m := range months {
		balance += net[m]
		running[m] = balance
	}
	table.AddRow(LinhaSaldoAcumulado, running)

	return Result{Table: table}
}

// groupFor returns the liquidity bucket for a category label.
func groupFor(category string) string {
	norm := categorizer.Normalize(category)
	for _, g := range cashGroups {
		for _, kw := range g.keywords {
			if strings.Contains(norm, kw) {
				return g.name
			}
		}
	}
	return GrupoOutras
}
