package importer

import (
	"errors"
	"math"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestRead_SemicolonFeed(t *testing.T) {
	feed := strings.Join([]string{
		"Data;Descrição;Valor;Categoria;Centro de Custo",
		"05/01/2025;Venda de soja;R$ 120.000,00;RECEITA;",
		"10/01/2025;Adubo e defensivos;-35.500,50;DESPESA OPERACIONAL;Soja",
		"12/01/2025;Tarifa bancária;(89,90);DESPESA ADMINISTRATIVA;Administrativo",
	}, "\n")

	res, err := Read(strings.NewReader(feed))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
	if len(res.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(res.Transactions))
	}

	first := res.Transactions[0]
	if first.Amount != 120000 {
		t.Errorf("amount = %v, want 120000", first.Amount)
	}
	if first.Category != "RECEITA" {
		t.Errorf("category = %q", first.Category)
	}
	if got := first.Date.Format("2006-01-02"); got != "2025-01-05" {
		t.Errorf("date = %s, want 2025-01-05", got)
	}

	second := res.Transactions[1]
	if second.Amount != -35500.50 {
		t.Errorf("amount = %v, want -35500.50", second.Amount)
	}
	if second.CostCenter != "Soja" {
		t.Errorf("cost center = %q, want Soja", second.CostCenter)
	}

	third := res.Transactions[2]
	if third.Amount != -89.90 {
		t.Errorf("parenthesized amount = %v, want -89.90", third.Amount)
	}
}

func TestRead_CommaFeed(t *testing.T) {
	feed := "date,description,amount\n2025-02-01,Interest,10.50\n"

	res, err := Read(strings.NewReader(feed))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(res.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(res.Transactions))
	}
	if res.Transactions[0].Amount != 10.50 {
		t.Errorf("amount = %v, want 10.50", res.Transactions[0].Amount)
	}
}

// Bank exports arrive in ISO-8859-1; the reader must transparently decode
// them so descriptions keep their accents.
func TestRead_Latin1(t *testing.T) {
	feed := "Data;Descrição;Valor\n05/01/2025;Manutenção de trator;-1.000,00\n"
	encoded, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(feed))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}

	res, err := Read(strings.NewReader(string(encoded)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(res.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(res.Transactions))
	}
	if got := res.Transactions[0].Description; got != "Manutenção de trator" {
		t.Errorf("description = %q, want accents preserved", got)
	}
}

// Malformed rows degrade, they never abort the import: a bad date drops the
// row, a bad amount keeps the row with value 0, both with warnings.
func TestRead_BestEffort(t *testing.T) {
	feed := strings.Join([]string{
		"Data;Descrição;Valor",
		"não-é-data;Linha quebrada;100,00",
		"05/01/2025;Valor quebrado;abc",
		"06/01/2025;Linha boa;50,00",
	}, "\n")

	res, err := Read(strings.NewReader(feed))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(res.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(res.Transactions))
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(res.Warnings), res.Warnings)
	}
	if res.Transactions[0].Amount != 0 {
		t.Errorf("malformed amount = %v, want 0", res.Transactions[0].Amount)
	}
	if res.Transactions[1].Amount != 50 {
		t.Errorf("good row amount = %v, want 50", res.Transactions[1].Amount)
	}
}

func TestRead_NoHeader(t *testing.T) {
	_, err := Read(strings.NewReader("a;b;c\n1;2;3\n"))
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("err = %v, want ErrNoHeader", err)
	}
	_, err = Read(strings.NewReader(""))
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("empty input err = %v, want ErrNoHeader", err)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"R$ 1.234,56", 1234.56, false},
		{"-1.234,56", -1234.56, false},
		{"(500,00)", -500, false},
		{"1234.56", 1234.56, false},
		{"0", 0, false},
		{"", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) failed: %v", tt.in, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
