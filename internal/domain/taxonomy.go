package domain

// Section groups DRE line items for display and for the cached "resumo"
// totals. Every line item belongs to exactly one section.
type Section string

const (
	SectionReceitas             Section = "Receitas"
	SectionCustosDiretos        Section = "Custos Diretos"
	SectionDespesasOperacionais Section = "Despesas Operacionais"
	SectionOutrasDespesas       Section = "Outras Despesas"
	SectionAjustes              Section = "Ajustes"
)

// Line items of the DRE. These names double as the category labels the
// categorizer assigns, so the builders can match on them directly.
const (
	LinhaFaturamento           = "FATURAMENTO"
	LinhaReceita               = "RECEITA"
	LinhaImpostos              = "IMPOSTOS"
	LinhaDespesaOperacional    = "DESPESA OPERACIONAL"
	LinhaDespesasPessoal       = "DESPESAS COM PESSOAL"
	LinhaDespesaAdministrativa = "DESPESA ADMINISTRATIVA"
	LinhaInvestimentos         = "INVESTIMENTOS"
	LinhaDespesaExtra          = "DESPESA EXTRA OPERACIONAL"
	LinhaReceitaExtra          = "RECEITA EXTRA OPERACIONAL"
	LinhaRetiradasSocios       = "RETIRADAS SÓCIOS"
	LinhaEstoque               = "ESTOQUE"
	LinhaSaldo                 = "SALDO"
)

// Derived subtotal rows computed by the DRE builder. Listed here because the
// cache and exporters need their names; the formulas live in the builder.
const (
	LinhaMargemContribuicao = "MARGEM CONTRIBUIÇÃO"
	LinhaLucroOperacional   = "LUCRO OPERACIONAL"
	LinhaLucroLiquido       = "LUCRO LIQUIDO"
	LinhaResultado          = "RESULTADO"
	LinhaResultadoGerencial = "RESULTADO GERENCIAL"
)

// lineSections maps every source line item to its section.
var lineSections = map[string]Section{
	LinhaFaturamento:           SectionReceitas,
	LinhaReceita:               SectionReceitas,
	LinhaReceitaExtra:          SectionReceitas,
	LinhaImpostos:              SectionCustosDiretos,
	LinhaDespesaOperacional:    SectionCustosDiretos,
	LinhaDespesasPessoal:       SectionDespesasOperacionais,
	LinhaDespesaAdministrativa: SectionDespesasOperacionais,
	LinhaInvestimentos:         SectionOutrasDespesas,
	LinhaDespesaExtra:          SectionOutrasDespesas,
	LinhaRetiradasSocios:       SectionOutrasDespesas,
	LinhaEstoque:               SectionAjustes,
	LinhaSaldo:                 SectionAjustes,
}

// SectionOf returns the section a line item belongs to, and whether the line
// item is part of the fixed taxonomy at all.
func SectionOf(line string) (Section, bool) {
	s, ok := lineSections[line]
	return s, ok
}

// SourceLines returns the source line items in their fixed display order.
func SourceLines() []string {
	return []string{
		LinhaFaturamento,
		LinhaReceita,
		LinhaImpostos,
		LinhaDespesaOperacional,
		LinhaDespesasPessoal,
		LinhaDespesaAdministrativa,
		LinhaInvestimentos,
		LinhaDespesaExtra,
		LinhaReceitaExtra,
		LinhaRetiradasSocios,
		LinhaEstoque,
		LinhaSaldo,
	}
}

// expenseLines are displayed as absolute values; the sign convention of the
// underlying transactions (expenses negative) is preserved only inside the
// subtotal formulas.
var expenseLines = map[string]bool{
	LinhaImpostos:              true,
	LinhaDespesaOperacional:    true,
	LinhaDespesasPessoal:       true,
	LinhaDespesaAdministrativa: true,
	LinhaInvestimentos:         true,
	LinhaDespesaExtra:          true,
	LinhaRetiradasSocios:       true,
}

// IsExpenseLine reports whether a line item's monthly values are absolutized
// for display.
func IsExpenseLine(line string) bool {
	return expenseLines[line]
}
