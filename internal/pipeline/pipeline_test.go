package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/dvloznov/agrofin/internal/cache"
	"github.com/dvloznov/agrofin/internal/domain"
	"github.com/dvloznov/agrofin/internal/jobs"
	"github.com/dvloznov/agrofin/internal/parecer"
	"github.com/dvloznov/agrofin/internal/report"
	"github.com/dvloznov/agrofin/internal/saldo"
)

const empresa = "Fazenda Boa Vista"

func writeFeed(t *testing.T) string {
	t.Helper()
	feed := "Data;Descrição;Valor;Categoria\n" +
		"05/01/2025;Venda de soja;10000;RECEITA\n" +
		"10/01/2025;Funrural;-1000;IMPOSTOS\n" +
		"05/02/2025;Venda de milho;8000;RECEITA\n" +
		"12/02/2025;Folha de pagamento;-2000;DESPESAS COM PESSOAL\n"

	path := filepath.Join(t.TempDir(), "feed.csv")
	if err := os.WriteFile(path, []byte(feed), 0o644); err != nil {
		t.Fatalf("writing feed: %v", err)
	}
	return path
}

func newGenerator(t *testing.T, balance float64) (*Generator, *cache.FSStore) {
	t.Helper()
	store, err := cache.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	return &Generator{
		Cache:        store,
		Balance:      saldo.Static{Balances: map[string]float64{empresa: balance}},
		BoundaryYear: 2025,
	}, store
}

func TestGenerate_DRE(t *testing.T) {
	g, store := newGenerator(t, 250000)
	feedPath := writeFeed(t)

	out, err := g.Generate(context.Background(), empresa, cache.TipoDRE, feedPath)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if out.Projection == nil {
		t.Fatal("DRE generation must project balances")
	}
	if out.Projection.Degraded {
		t.Error("projection degraded with a balance available")
	}

	// Retroactive closure: the projected balance of the last month equals
	// the real balance.
	last := out.Table.Months[len(out.Table.Months)-1]
	if got := out.Table.Value(SaldoProjetado, last); math.Abs(got-250000) > 1e-9 {
		t.Errorf("projected balance %s = %v, want 250000", last, got)
	}

	// RESULTADO: jan = 9000, fev = 6000.
	if got := out.Table.Value(domain.LinhaResultado, "2025-01"); math.Abs(got-9000) > 1e-9 {
		t.Errorf("resultado 2025-01 = %v, want 9000", got)
	}

	// The document landed in the cache.
	doc, err := store.Load(context.Background(), empresa, cache.TipoDRE)
	if err != nil {
		t.Fatalf("cached document missing: %v", err)
	}
	if doc.Empresa != empresa {
		t.Errorf("cached empresa = %q", doc.Empresa)
	}
}

func TestGenerate_DRE_DegradedWithoutBalance(t *testing.T) {
	store, err := cache.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	g := &Generator{
		Cache:        store,
		Balance:      saldo.Static{},
		BoundaryYear: 2025,
	}

	out, err := g.Generate(context.Background(), empresa, cache.TipoDRE, writeFeed(t))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if out.Projection == nil || !out.Projection.Degraded {
		t.Fatal("expected degraded projection without a balance")
	}
	if len(out.Warnings) == 0 {
		t.Error("degraded run must surface warnings")
	}
}

func TestGenerate_CashFlowAnchor(t *testing.T) {
	g, _ := newGenerator(t, 100000)

	out, err := g.Generate(context.Background(), empresa, cache.TipoFluxo, writeFeed(t))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	last := out.Table.Months[len(out.Table.Months)-1]
	if got := out.Table.Value(report.LinhaSaldoAcumulado, last); math.Abs(got-100000) > 1e-9 {
		t.Errorf("final running balance = %v, want the real balance 100000", got)
	}
}

func TestGenerate_UnknownTipo(t *testing.T) {
	g, _ := newGenerator(t, 0)
	_, err := g.Generate(context.Background(), empresa, "balanço", writeFeed(t))
	if err == nil {
		t.Fatal("expected error for unknown report type")
	}
}

func TestHandleJob_WithParecer(t *testing.T) {
	g, _ := newGenerator(t, 250000)

	var gotInput parecer.Input
	g.ParecerFn = func(_ context.Context, in parecer.Input) (*parecer.Parecer, error) {
		gotInput = in
		return &parecer.Parecer{ResumoExecutivo: "ok"}, nil
	}

	job := &jobs.GenerateReportJob{
		Empresa:     empresa,
		Tipo:        cache.TipoDRE,
		FeedPath:    writeFeed(t),
		WithParecer: true,
	}
	if err := g.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("HandleJob failed: %v", err)
	}

	if gotInput.Empresa != empresa {
		t.Errorf("parecer input empresa = %q", gotInput.Empresa)
	}
	if gotInput.Periodo != "2025-01 a 2025-02" {
		t.Errorf("parecer periodo = %q, want 2025-01 a 2025-02", gotInput.Periodo)
	}
}

// A model failure must not fail the job; the report is already cached.
func TestHandleJob_ParecerFailureTolerated(t *testing.T) {
	g, store := newGenerator(t, 250000)
	g.ParecerFn = func(_ context.Context, _ parecer.Input) (*parecer.Parecer, error) {
		return nil, errors.New("model unavailable")
	}

	job := &jobs.GenerateReportJob{
		Empresa:     empresa,
		Tipo:        cache.TipoDRE,
		FeedPath:    writeFeed(t),
		WithParecer: true,
	}
	if err := g.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("HandleJob must tolerate parecer failure, got: %v", err)
	}

	if _, err := store.Load(context.Background(), empresa, cache.TipoDRE); err != nil {
		t.Errorf("report should be cached despite parecer failure: %v", err)
	}
}
