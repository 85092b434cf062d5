// Package pipeline orchestrates one report generation end to end: import
// the feed, categorize, build the table, project balances, persist to the
// cache. Both the CLI and the API job worker drive it.
package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/agrofin/internal/cache"
	"github.com/dvloznov/agrofin/internal/categorizer"
	"github.com/dvloznov/agrofin/internal/domain"
	"github.com/dvloznov/agrofin/internal/importer"
	"github.com/dvloznov/agrofin/internal/jobs"
	"github.com/dvloznov/agrofin/internal/logger"
	"github.com/dvloznov/agrofin/internal/parecer"
	"github.com/dvloznov/agrofin/internal/projection"
	"github.com/dvloznov/agrofin/internal/report"
	"github.com/dvloznov/agrofin/internal/saldo"
)

// SaldoProjetado is the extra DRE row carrying the projected monthly bank
// balance.
const SaldoProjetado = "SALDO PROJETADO"

// Generator holds the collaborators of one report build. Balance and
// ParecerFn are optional; their absence degrades the output, it never fails
// the build.
type Generator struct {
	Cache       cache.Store
	Balance     saldo.BalanceProvider
	Categorizer *categorizer.Categorizer

	// BoundaryYear selects retroactive vs progressive projection. Zero means
	// the current calendar year.
	BoundaryYear int

	// ParecerFn generates the LLM narrative. Nil skips the step. A variable
	// rather than a direct call so the worker is testable without a model.
	ParecerFn func(ctx context.Context, in parecer.Input) (*parecer.Parecer, error)
}

// Output bundles everything one generation produced.
type Output struct {
	Document   *cache.Document
	Table      *report.Table
	Projection *projection.Result
	Parecer    *parecer.Parecer
	Warnings   []string
}

// Generate builds and caches one report for a company from its transaction
// feed.
func (g *Generator) Generate(ctx context.Context, empresa, tipo, feedPath string) (*Output, error) {
	log := logger.ForCompany(logger.FromContext(ctx), empresa)

	feed, err := importer.ReadFile(feedPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	warnings := feed.Warnings

	cat := g.Categorizer
	if cat == nil {
		cat = categorizer.New()
	}
	txs, unmatched := cat.Apply(feed.Transactions)
	if unmatched > 0 {
		warnings = append(warnings, fmt.Sprintf("%d lançamentos sem categoria reconhecida", unmatched))
	}

	balance := g.currentBalance(ctx, empresa, &warnings)

	var (
		table *report.Table
		proj  *projection.Result
	)
	switch tipo {
	case cache.TipoDRE:
		table, proj, warnings = g.buildDRE(txs, balance, warnings)
	case cache.TipoFluxo:
		table, warnings = g.buildCashFlow(txs, balance, warnings)
	default:
		return nil, fmt.Errorf("pipeline: tipo de relatório desconhecido %q", tipo)
	}

	doc := cache.FromTable(table, empresa, tipo, warnings)

	if g.Cache != nil {
		if err := g.Cache.Save(ctx, doc); err != nil {
			return nil, fmt.Errorf("pipeline: caching report: %w", err)
		}
	}

	log.Info().
		Str("tipo", tipo).
		Int("lancamentos", len(txs)).
		Int("avisos", len(warnings)).
		Msg("Report generated")

	return &Output{
		Document:   doc,
		Table:      table,
		Projection: proj,
		Warnings:   warnings,
	}, nil
}

// buildDRE builds the DRE table and projects the monthly bank balance from
// its RESULTADO row. The projected series feeds both the SALDO row of the
// DRE and the extra SALDO PROJETADO row.
func (g *Generator) buildDRE(txs []domain.Transaction, balance *float64, warnings []string) (*report.Table, *projection.Result, []string) {
	// First pass without SALDO to obtain the RESULTADO series.
	base := report.BuildDRE(txs, report.Options{})

	months := base.Table.Months
	proj, err := projection.Project(projection.Input{
		Months:         months,
		Resultados:     base.Table.RowSeries(domain.LinhaResultado),
		CurrentBalance: balance,
		BoundaryYear:   g.BoundaryYear,
	})
	if err != nil {
		// No months, nothing to project over.
		warnings = append(warnings, base.Warnings...)
		return base.Table, nil, warnings
	}
	if proj.Degraded {
		warnings = append(warnings, proj.DegradedReason)
	}

	res := report.BuildDRE(txs, report.Options{Saldo: proj.Balances})
	res.Table.AddRow(SaldoProjetado, proj.Balances)
	warnings = append(warnings, res.Warnings...)

	return res.Table, &proj, warnings
}

// buildCashFlow builds the cash-flow table. The opening balance is anchored
// so the final SALDO ACUMULADO lands on the real current balance; without a
// balance it opens at 0.
func (g *Generator) buildCashFlow(txs []domain.Transaction, balance *float64, warnings []string) (*report.Table, []string) {
	probe := report.BuildCashFlow(txs, 0)

	opening := 0.0
	if balance != nil {
		opening = *balance - probe.Table.Total(report.LinhaResultadoPeriodo)
	} else {
		warnings = append(warnings, "saldo real indisponível; fluxo de caixa abre em 0")
	}

	res := report.BuildCashFlow(txs, opening)
	warnings = append(warnings, res.Warnings...)
	return res.Table, warnings
}

// currentBalance resolves the real bank balance, tolerating absence.
func (g *Generator) currentBalance(ctx context.Context, empresa string, warnings *[]string) *float64 {
	if g.Balance == nil {
		return nil
	}
	v, err := g.Balance.CurrentBalance(ctx, empresa)
	if err != nil {
		*warnings = append(*warnings, "saldo real indisponível: "+err.Error())
		return nil
	}
	return &v
}

// HandleJob is the jobs.JobHandler the API worker runs. The parecer is best
// effort: a model failure is logged, the cached report stands.
func (g *Generator) HandleJob(ctx context.Context, job jobs.Job) error {
	reportJob, ok := job.(*jobs.GenerateReportJob)
	if !ok {
		return fmt.Errorf("pipeline: unexpected job type %T", job)
	}

	log := logger.FromContext(ctx)

	out, err := g.Generate(ctx, reportJob.Empresa, reportJob.Tipo, reportJob.FeedPath)
	if err != nil {
		return err
	}

	if reportJob.WithParecer && g.ParecerFn != nil {
		periodo := ""
		if n := len(out.Document.Months); n > 0 {
			periodo = out.Document.Months[0] + " a " + out.Document.Months[n-1]
		}
		p, err := g.ParecerFn(ctx, parecer.Input{
			Empresa:  reportJob.Empresa,
			Periodo:  periodo,
			Resumo:   out.Document.Resumo,
			Warnings: out.Warnings,
		})
		if err != nil {
			log.Warn().Err(err).Str("empresa", reportJob.Empresa).Msg("Parecer generation failed; report cached without narrative")
		} else {
			out.Parecer = p
			log.Info().Str("empresa", reportJob.Empresa).Msg("Parecer generated")
		}
	}

	return nil
}
