// Package parecer generates a short written opinion (parecer) over a built
// report using Gemini. One attempt only: a model failure is surfaced to the
// caller and the report ships without a narrative.
package parecer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultModelName = "gemini-2.0-flash"

// Input is the condensed report the model writes about.
type Input struct {
	Empresa string
	Periodo string

	// Resumo holds the section and subtotal totals from the cached report.
	Resumo map[string]float64

	// Warnings produced while building the report; the model is told about
	// degraded data so it can hedge accordingly.
	Warnings []string
}

// Parecer is the model's structured opinion.
type Parecer struct {
	ResumoExecutivo string   `json:"resumo_executivo"`
	PontosAtencao   []string `json:"pontos_atencao"`
	Recomendacoes   []string `json:"recomendacoes"`
}

// Generate sends the report summary to Gemini and parses the structured
// opinion. It expects the model to return a STRICT JSON object.
func Generate(ctx context.Context, in Input) (*Parecer, error) {
	prompt := buildPrompt(in)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("Generate: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, DefaultModelName, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Generate: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("Generate: empty response from model")
	}

	clean := cleanModelJSON(rawText)

	var p Parecer
	if err := json.Unmarshal([]byte(clean), &p); err != nil {
		return nil, fmt.Errorf("Generate: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	return &p, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
