package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dvloznov/agrofin/internal/cache"
	"github.com/dvloznov/agrofin/internal/categorizer"
	"github.com/dvloznov/agrofin/internal/export"
	"github.com/dvloznov/agrofin/internal/importer"
	"github.com/dvloznov/agrofin/internal/logger"
	"github.com/dvloznov/agrofin/internal/notion"
	"github.com/dvloznov/agrofin/internal/parecer"
	"github.com/dvloznov/agrofin/internal/pipeline"
	"github.com/dvloznov/agrofin/internal/plantio"
	"github.com/dvloznov/agrofin/internal/rateio"
	"github.com/dvloznov/agrofin/internal/report"
	"github.com/dvloznov/agrofin/internal/saldo"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "gerar":
		runGerar(log)
	case "rateio":
		runRateio(log)
	case "export":
		runExport(log)
	case "parecer":
		runParecer(log)
	case "notion-sync":
		runNotionSync(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("AgroFin CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  gerar        Build a DRE or cash-flow report from a transaction feed")
	fmt.Println("  rateio       Allocate costs across crops by hectares")
	fmt.Println("  export       Export cached reports to an XLSX workbook")
	fmt.Println("  parecer      Generate the LLM narrative for a cached report")
	fmt.Println("  notion-sync  Sync a cached report summary to a Notion database")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// newGenerator wires the pipeline from flags and environment. A manual
// balance beats BigQuery; without either, projections degrade to zero.
func newGenerator(ctx context.Context, log zerolog.Logger, empresa, cacheDir, rulesPath, saldoFlag string, boundaryYear int) (*pipeline.Generator, func()) {
	store, err := cache.NewFSStore(cacheDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create cache directory")
	}

	cleanup := func() {}
	var balance saldo.BalanceProvider = saldo.Static{}
	switch {
	case saldoFlag != "":
		v, err := strconv.ParseFloat(saldoFlag, 64)
		if err != nil {
			log.Fatal().Str("value", saldoFlag).Msg("--saldo must be a number")
		}
		balance = saldo.Static{Balances: map[string]float64{empresa: v}}
	case os.Getenv("AGROFIN_BQ_PROJECT") != "":
		bq, err := saldo.NewBigQueryProvider(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery balance provider")
		}
		balance = bq
		cleanup = func() { bq.Close() }
	}

	cat := categorizer.New()
	if rulesPath != "" {
		rules, err := categorizer.LoadRules(rulesPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", rulesPath).Msg("Failed to load categorization rules")
		}
		cat = categorizer.NewWithRules(rules)
	}

	return &pipeline.Generator{
		Cache:        store,
		Balance:      balance,
		Categorizer:  cat,
		BoundaryYear: boundaryYear,
	}, cleanup
}

func runGerar(log zerolog.Logger) {
	fs := flag.NewFlagSet("gerar", flag.ExitOnError)
	empresa := fs.String("empresa", "", "Company name")
	tipo := fs.String("tipo", cache.TipoDRE, "Report type: dre or fluxo_caixa")
	feed := fs.String("feed", "", "Path to the transaction feed (CSV)")
	cacheDir := fs.String("cache-dir", "cache", "Report cache directory")
	rulesPath := fs.String("rules", "", "Path to categorization rules (YAML)")
	saldoFlag := fs.String("saldo", "", "Current bank balance (overrides BigQuery)")
	boundaryYear := fs.Int("boundary-year", 0, "Last retroactive projection year (0 = current year)")
	fs.Parse(os.Args[2:])

	if *empresa == "" || *feed == "" {
		log.Fatal().Msg("Usage: cli gerar -empresa NAME -feed PATH")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	g, cleanup := newGenerator(ctx, log, *empresa, *cacheDir, *rulesPath, *saldoFlag, *boundaryYear)
	defer cleanup()

	out, err := g.Generate(ctx, *empresa, *tipo, *feed)
	if err != nil {
		log.Fatal().Err(err).Msg("Report generation failed")
	}

	printTable(out.Table)
	for _, w := range out.Warnings {
		fmt.Fprintf(os.Stderr, "aviso: %s\n", w)
	}
}

func runRateio(log zerolog.Logger) {
	fs := flag.NewFlagSet("rateio", flag.ExitOnError)
	feed := fs.String("feed", "", "Path to the transaction feed (CSV)")
	plantiosPath := fs.String("plantios", "plantios.json", "Path to the planting records file")
	rulesPath := fs.String("rules", "", "Path to categorization rules (YAML)")
	fs.Parse(os.Args[2:])

	if *feed == "" {
		log.Fatal().Msg("Usage: cli rateio -feed PATH [-plantios PATH]")
	}

	res, err := importer.ReadFile(*feed)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to import feed")
	}

	cat := categorizer.New()
	if *rulesPath != "" {
		rules, err := categorizer.LoadRules(*rulesPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load categorization rules")
		}
		cat = categorizer.NewWithRules(rules)
	}
	txs, _ := cat.Apply(res.Transactions)

	store, err := plantio.NewStore(*plantiosPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open plantio store")
	}

	alloc, err := rateio.AllocateWithCostCenters(store.List(), txs)
	if err != nil {
		log.Fatal().Err(err).Msg("Allocation failed")
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CULTURA\tHA\tSHARE\tCUSTO TOTAL\tCUSTO/HA\tCUSTO/SACA\tMARGEM")
	for _, c := range alloc.Crops {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f%%\t%.2f\t%.2f\t%.2f\t%.2f\n",
			c.Crop, c.Hectares, c.Share*100, c.TotalCost, c.CostPerHectare, c.CostPerSack, c.Margin)
	}
	tw.Flush()

	for _, w := range alloc.Warnings {
		fmt.Fprintf(os.Stderr, "aviso: %s\n", w)
	}
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	empresa := fs.String("empresa", "", "Company name")
	feed := fs.String("feed", "", "Path to the transaction feed (CSV)")
	out := fs.String("out", "relatorio.xlsx", "Output XLSX path")
	cacheDir := fs.String("cache-dir", "cache", "Report cache directory")
	rulesPath := fs.String("rules", "", "Path to categorization rules (YAML)")
	saldoFlag := fs.String("saldo", "", "Current bank balance (overrides BigQuery)")
	boundaryYear := fs.Int("boundary-year", 0, "Last retroactive projection year (0 = current year)")
	fs.Parse(os.Args[2:])

	if *empresa == "" || *feed == "" {
		log.Fatal().Msg("Usage: cli export -empresa NAME -feed PATH [-out FILE]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	g, cleanup := newGenerator(ctx, log, *empresa, *cacheDir, *rulesPath, *saldoFlag, *boundaryYear)
	defer cleanup()

	var sheets []export.Sheet
	for _, spec := range []struct{ tipo, name string }{
		{cache.TipoDRE, "DRE"},
		{cache.TipoFluxo, "Fluxo de Caixa"},
	} {
		res, err := g.Generate(ctx, *empresa, spec.tipo, *feed)
		if err != nil {
			log.Fatal().Err(err).Str("tipo", spec.tipo).Msg("Report generation failed")
		}
		sheets = append(sheets, export.Sheet{Name: spec.name, Table: res.Table})
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create output file")
	}
	defer f.Close()

	if err := export.Write(f, sheets); err != nil {
		log.Fatal().Err(err).Msg("XLSX export failed")
	}

	fmt.Printf("Exported %s\n", *out)
}

func runParecer(log zerolog.Logger) {
	fs := flag.NewFlagSet("parecer", flag.ExitOnError)
	empresa := fs.String("empresa", "", "Company name")
	tipo := fs.String("tipo", cache.TipoDRE, "Report type: dre or fluxo_caixa")
	cacheDir := fs.String("cache-dir", "cache", "Report cache directory")
	fs.Parse(os.Args[2:])

	if *empresa == "" {
		log.Fatal().Msg("Usage: cli parecer -empresa NAME [-tipo dre]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	doc := loadDocument(ctx, log, *cacheDir, *empresa, *tipo)

	periodo := ""
	if len(doc.Months) > 0 {
		periodo = doc.Months[0] + " a " + doc.Months[len(doc.Months)-1]
	}

	p, err := parecer.Generate(ctx, parecer.Input{
		Empresa:  doc.Empresa,
		Periodo:  periodo,
		Resumo:   doc.Resumo,
		Warnings: doc.Warnings,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Parecer generation failed")
	}

	fmt.Println("\n=== Resumo Executivo ===")
	fmt.Println(p.ResumoExecutivo)
	fmt.Println("\n=== Pontos de Atenção ===")
	for _, s := range p.PontosAtencao {
		fmt.Printf("- %s\n", s)
	}
	fmt.Println("\n=== Recomendações ===")
	for _, s := range p.Recomendacoes {
		fmt.Printf("- %s\n", s)
	}
}

func runNotionSync(log zerolog.Logger) {
	fs := flag.NewFlagSet("notion-sync", flag.ExitOnError)
	empresa := fs.String("empresa", "", "Company name")
	tipo := fs.String("tipo", cache.TipoDRE, "Report type: dre or fluxo_caixa")
	cacheDir := fs.String("cache-dir", "cache", "Report cache directory")
	databaseID := fs.String("database", os.Getenv("AGROFIN_NOTION_DATABASE"), "Notion database ID (or set AGROFIN_NOTION_DATABASE)")
	dryRun := fs.Bool("dry-run", false, "Log planned changes without writing to Notion")
	fs.Parse(os.Args[2:])

	token := os.Getenv("AGROFIN_NOTION_TOKEN")
	if *empresa == "" || *databaseID == "" || token == "" {
		log.Fatal().Msg("Usage: cli notion-sync -empresa NAME -database ID (requires AGROFIN_NOTION_TOKEN)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	doc := loadDocument(ctx, log, *cacheDir, *empresa, *tipo)

	client := notion.NewClient(token)
	if err := notion.SyncResumo(ctx, client, *databaseID, doc, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Notion sync failed")
	}

	fmt.Println("Notion sync completed successfully.")
}

func loadDocument(ctx context.Context, log zerolog.Logger, cacheDir, empresa, tipo string) *cache.Document {
	store, err := cache.NewFSStore(cacheDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache directory")
	}
	doc, err := store.Load(ctx, empresa, tipo)
	if err != nil {
		log.Fatal().Err(err).Str("empresa", empresa).Str("tipo", tipo).Msg("Cached report not found; run 'cli gerar' first")
	}
	return doc
}

func printTable(t *report.Table) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprint(tw, "LINHA")
	for _, m := range t.Months {
		fmt.Fprintf(tw, "\t%s", m)
	}
	fmt.Fprint(tw, "\tTOTAL")
	if t.BaseRow != "" {
		fmt.Fprint(tw, "\t% RECEITA")
	}
	fmt.Fprintln(tw)

	for _, row := range t.Rows {
		fmt.Fprint(tw, row)
		for _, m := range t.Months {
			fmt.Fprintf(tw, "\t%.2f", t.Value(row, m))
		}
		fmt.Fprintf(tw, "\t%.2f", t.Total(row))
		if t.BaseRow != "" {
			fmt.Fprintf(tw, "\t%.1f", t.PercentOfRevenue(row))
		}
		fmt.Fprintln(tw)
	}

	tw.Flush()
}
