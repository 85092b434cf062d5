// Package cache persists built reports as JSON documents, one per company
// per report type. Two on-disk shapes exist in the wild: the legacy flat map
// (v1) and the current sectioned document (v2). A schema_version field
// selects the shape and a migration adapter upgrades v1 on read, so callers
// only ever see the current shape.
package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dvloznov/agrofin/internal/domain"
	"github.com/dvloznov/agrofin/internal/report"
)

// SchemaVersion is the current document shape.
const SchemaVersion = 2

// Report types used as document keys.
const (
	TipoDRE   = "dre"
	TipoFluxo = "fluxo_caixa"
)

// SectionResultados collects the derived subtotal rows, which belong to no
// taxonomy section.
const SectionResultados = "Resultados"

// Record is one cell of the flat legacy-compatible array. Kept alongside the
// sectioned shape because downstream spreadsheets still consume it.
type Record struct {
	Linha string  `json:"linha"`
	Mes   string  `json:"mes"`
	Valor float64 `json:"valor"`
}

// Document is the current (v2) cache shape.
type Document struct {
	SchemaVersion int       `json:"schema_version"`
	Empresa       string    `json:"empresa"`
	Tipo          string    `json:"tipo"`
	GeneratedAt   time.Time `json:"gerado_em"`

	Months []string `json:"meses"`

	// Secoes: section → row → month → value.
	Secoes map[string]map[string]map[string]float64 `json:"secoes"`

	// Records is the flat array, one entry per row/month cell.
	Records []Record `json:"records"`

	// Resumo holds precomputed totals per section and per derived row.
	Resumo map[string]float64 `json:"resumo"`

	Warnings []string `json:"avisos,omitempty"`
}

// legacyDocument is the v1 shape: a flat row → month → value map with no
// version tag.
type legacyDocument struct {
	Empresa string                        `json:"empresa"`
	Tipo    string                        `json:"tipo"`
	Linhas  map[string]map[string]float64 `json:"linhas"`
}

// FromTable builds a v2 document from a built report table.
func FromTable(t *report.Table, empresa, tipo string, warnings []string) *Document {
	doc := &Document{
		SchemaVersion: SchemaVersion,
		Empresa:       empresa,
		Tipo:          tipo,
		GeneratedAt:   time.Now().UTC(),
		Months:        append([]string(nil), t.Months...),
		Secoes:        make(map[string]map[string]map[string]float64),
		Resumo:        make(map[string]float64),
		Warnings:      append([]string(nil), warnings...),
	}

	for _, row := range t.Rows {
		section := sectionName(row)

		rows := doc.Secoes[section]
		if rows == nil {
			rows = make(map[string]map[string]float64)
			doc.Secoes[section] = rows
		}
		series := make(map[string]float64, len(t.Months))
		for _, m := range t.Months {
			v := t.Value(row, m)
			series[m] = v
			doc.Records = append(doc.Records, Record{Linha: row, Mes: m, Valor: v})
		}
		rows[row] = series

		if section == SectionResultados {
			doc.Resumo[row] = t.Total(row)
		} else {
			doc.Resumo[section] += t.Total(row)
		}
	}

	return doc
}

// sectionName places taxonomy lines in their section and everything else
// (derived subtotals, cash-flow groups) under Resultados.
func sectionName(row string) string {
	if s, ok := domain.SectionOf(row); ok {
		return string(s)
	}
	return SectionResultados
}

// Decode parses raw JSON into the current shape, migrating legacy documents
// transparently. The version probe is the single place that inspects the
// shape; no caller probes keys.
func Decode(data []byte) (*Document, error) {
	var probe struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("cache: decoding version probe: %w", err)
	}

	if probe.SchemaVersion >= SchemaVersion {
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("cache: decoding document: %w", err)
		}
		return &doc, nil
	}

	var legacy legacyDocument
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("cache: decoding legacy document: %w", err)
	}
	return migrateV1(&legacy), nil
}

// migrateV1 upgrades the flat v1 map into the sectioned v2 shape. Totals are
// recomputed; the legacy shape never stored them reliably.
func migrateV1(legacy *legacyDocument) *Document {
	doc := &Document{
		SchemaVersion: SchemaVersion,
		Empresa:       legacy.Empresa,
		Tipo:          legacy.Tipo,
		Secoes:        make(map[string]map[string]map[string]float64),
		Resumo:        make(map[string]float64),
	}

	monthSet := make(map[string]bool)
	rows := make([]string, 0, len(legacy.Linhas))
	for row := range legacy.Linhas {
		rows = append(rows, row)
	}
	sort.Strings(rows)

	for _, row := range rows {
		series := legacy.Linhas[row]
		section := sectionName(row)

		dst := doc.Secoes[section]
		if dst == nil {
			dst = make(map[string]map[string]float64)
			doc.Secoes[section] = dst
		}
		copied := make(map[string]float64, len(series))
		var total float64
		months := make([]string, 0, len(series))
		for m := range series {
			months = append(months, m)
		}
		sort.Strings(months)
		for _, m := range months {
			v := series[m]
			copied[m] = v
			total += v
			monthSet[m] = true
			doc.Records = append(doc.Records, Record{Linha: row, Mes: m, Valor: v})
		}
		dst[row] = copied

		if section == SectionResultados {
			doc.Resumo[row] = total
		} else {
			doc.Resumo[section] += total
		}
	}

	for m := range monthSet {
		doc.Months = append(doc.Months, m)
	}
	sort.Strings(doc.Months)

	return doc
}
