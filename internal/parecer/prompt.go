package parecer

import (
	"fmt"
	"sort"
	"strings"
)

// buildPrompt assembles the instruction block plus the report summary,
// formatted for model consumption.
func buildPrompt(in Input) string {
	var b strings.Builder

	b.WriteString("Você é um analista financeiro especializado em agronegócio brasileiro.\n\n")
	b.WriteString("Tarefa:\n")
	b.WriteString("- Escreva um parecer curto sobre o resultado gerencial abaixo.\n")
	b.WriteString("- Responda APENAS com JSON estrito (sem comentários, sem texto extra).\n")
	b.WriteString("- O JSON deve ser um objeto com estes campos:\n")
	b.WriteString("  - \"resumo_executivo\": string, 2 a 4 frases\n")
	b.WriteString("  - \"pontos_atencao\": array de strings\n")
	b.WriteString("  - \"recomendacoes\": array de strings\n\n")

	fmt.Fprintf(&b, "Empresa: %s\n", in.Empresa)
	fmt.Fprintf(&b, "Período: %s\n\n", in.Periodo)

	b.WriteString("Totais do período (R$):\n")
	names := make([]string, 0, len(in.Resumo))
	for name := range in.Resumo {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  - %s: %.2f\n", name, in.Resumo[name])
	}

	if len(in.Warnings) > 0 {
		b.WriteString("\nAvisos de qualidade dos dados (considere ao avaliar):\n")
		for _, w := range in.Warnings {
			b.WriteString("  - " + w + "\n")
		}
	}

	b.WriteString("\nRegras:\n")
	b.WriteString("- Não invente números que não estejam acima.\n")
	b.WriteString("- Retorne SOMENTE JSON válido, sem cercas de código.\n")
	b.WriteString("- Não use ```json nem Markdown.\n")
	b.WriteString("- A resposta deve começar com \"{\" e terminar com \"}\".\n")

	return b.String()
}
