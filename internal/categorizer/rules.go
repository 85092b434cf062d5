package categorizer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dvloznov/agrofin/internal/domain"
)

// Rule maps one taxonomy category to the keywords that identify it in
// transaction free text. The matching policy is data, not code: the whole
// categorization behavior is defined by the rule slice handed to New.
type Rule struct {
	Category string   `yaml:"categoria"`
	Keywords []string `yaml:"palavras"`
}

// rulesFile is the YAML shape of an override file.
type rulesFile struct {
	Categorias []Rule `yaml:"categorias"`
}

// LoadRules reads a YAML rule file. The file fully replaces the default
// table; partial overrides are not supported.
func LoadRules(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadRules: read %q: %w", path, err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("LoadRules: parse %q: %w", path, err)
	}
	if len(f.Categorias) == 0 {
		return nil, fmt.Errorf("LoadRules: %q has no categories", path)
	}
	return f.Categorias, nil
}

// DefaultRules is the built-in keyword table for Brazilian agribusiness bank
// statements. Keywords are matched against the normalized (uppercased,
// accent-stripped) transaction description.
func DefaultRules() []Rule {
	return []Rule{
		{Category: domain.LinhaFaturamento, Keywords: []string{
			"VENDA SOJA", "VENDA MILHO", "VENDA DE GRAOS", "VENDA ALGODAO",
			"CPR", "FATURAMENTO", "LIQUIDACAO CONTRATO",
		}},
		{Category: domain.LinhaReceita, Keywords: []string{
			"RECEBIMENTO", "RECEITA", "ADIANTAMENTO CLIENTE",
		}},
		{Category: domain.LinhaImpostos, Keywords: []string{
			"FUNRURAL", "ICMS", "DARF", "IRPF", "ITR", "IPVA", "IMPOSTO", "TRIBUTO",
		}},
		{Category: domain.LinhaDespesaOperacional, Keywords: []string{
			"SEMENTE", "ADUBO", "FERTILIZANTE", "DEFENSIVO", "HERBICIDA",
			"FUNGICIDA", "INSETICIDA", "CALCARIO", "DIESEL", "COMBUSTIVEL",
			"FRETE", "COLHEITA", "SECAGEM", "ARMAZENAGEM", "PULVERIZACAO",
		}},
		{Category: domain.LinhaDespesasPessoal, Keywords: []string{
			"SALARIO", "FOLHA PAGAMENTO", "FGTS", "INSS", "RESCISAO",
			"FERIAS", "DECIMO TERCEIRO", "DIARISTA",
		}},
		{Category: domain.LinhaDespesaAdministrativa, Keywords: []string{
			"ENERGIA", "TELEFONE", "INTERNET", "CONTABILIDADE", "HONORARIO",
			"TARIFA", "ANUIDADE", "SEGURO", "ALUGUEL ESCRITORIO", "MATERIAL ESCRITORIO",
		}},
		{Category: domain.LinhaInvestimentos, Keywords: []string{
			"TRATOR", "COLHEITADEIRA", "PLANTADEIRA", "PULVERIZADOR",
			"IMPLEMENTO", "FINANCIAMENTO MAQUINA", "CONSORCIO", "SILO", "BARRACAO",
		}},
		{Category: domain.LinhaDespesaExtra, Keywords: []string{
			"JUROS", "IOF", "MULTA", "CARTORIO", "PARCELA EMPRESTIMO",
		}},
		{Category: domain.LinhaReceitaExtra, Keywords: []string{
			"RENDIMENTO APLICACAO", "RESGATE APLICACAO", "ARRENDAMENTO RECEBIDO",
			"INDENIZACAO", "JUROS RECEBIDOS",
		}},
		{Category: domain.LinhaRetiradasSocios, Keywords: []string{
			"RETIRADA", "PRO LABORE", "PIX SOCIO", "TRANSFERENCIA SOCIO", "DISTRIBUICAO LUCRO",
		}},
		{Category: domain.LinhaEstoque, Keywords: []string{
			"ESTOQUE", "GRAOS DEPOSITADOS",
		}},
	}
}
