// Package importer reads tabular transaction feeds exported by banks and
// ERPs: semicolon or comma separated text, often in ISO-8859-1. Parsing is
// best effort: a malformed amount becomes 0 with a warning, a row without a
// parseable date is skipped with a warning, and the import never fails as a
// whole over bad rows.
package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/dvloznov/agrofin/internal/domain"
)

// ErrNoHeader is returned when the feed has no recognizable header row.
var ErrNoHeader = errors.New("importer: cabeçalho não reconhecido")

var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"02/01/06",
}

// Result is the parsed feed plus per-row warnings.
type Result struct {
	Transactions []domain.Transaction
	Warnings     []string
}

// ReadFile opens and parses a feed file, sniffing encoding and separator.
func ReadFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("importer: opening %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a feed. Input that is not valid UTF-8 is decoded as ISO-8859-1
// first, which covers the bank exports this system actually receives.
func Read(r io.Reader) (Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("importer: reading input: %w", err)
	}
	if !utf8.Valid(raw) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return Result{}, fmt.Errorf("importer: decoding ISO-8859-1: %w", err)
		}
		raw = decoded
	}

	sep := sniffSeparator(raw)
	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return Result{}, ErrNoHeader
	}
	if err != nil {
		return Result{}, fmt.Errorf("importer: reading header: %w", err)
	}

	cols, ok := mapColumns(header)
	if !ok {
		return Result{}, ErrNoHeader
	}

	var res Result
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("linha %d: %v; ignorada", line, err))
			continue
		}

		tx, warns, ok := parseRow(record, cols, line)
		res.Warnings = append(res.Warnings, warns...)
		if ok {
			res.Transactions = append(res.Transactions, tx)
		}
	}

	return res, nil
}

// columns holds the index of each recognized column, -1 when absent.
type columns struct {
	date, desc, amount, category, costCenter int
}

// mapColumns resolves header names to column indexes. Date and amount are
// required; the rest are optional.
func mapColumns(header []string) (columns, bool) {
	cols := columns{date: -1, desc: -1, amount: -1, category: -1, costCenter: -1}
	for i, h := range header {
		switch normalizeHeader(h) {
		case "data", "date", "dt":
			cols.date = i
		case "descricao", "historico", "description":
			cols.desc = i
		case "valor", "montante", "amount":
			cols.amount = i
		case "categoria", "category":
			cols.category = i
		case "centro de custo", "centro custo", "centro_custo", "cc":
			cols.costCenter = i
		}
	}
	return cols, cols.date >= 0 && cols.amount >= 0
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	replacer := strings.NewReplacer("á", "a", "ã", "a", "â", "a", "é", "e", "ê", "e", "í", "i", "ó", "o", "õ", "o", "ô", "o", "ú", "u", "ç", "c")
	return replacer.Replace(h)
}

func parseRow(record []string, cols columns, line int) (domain.Transaction, []string, bool) {
	var warns []string

	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := parseDate(field(cols.date))
	if err != nil {
		warns = append(warns, fmt.Sprintf("linha %d: data %q inválida; linha ignorada", line, field(cols.date)))
		return domain.Transaction{}, warns, false
	}

	amount, err := ParseAmount(field(cols.amount))
	if err != nil {
		warns = append(warns, fmt.Sprintf("linha %d: valor %q inválido; usando 0", line, field(cols.amount)))
		amount = 0
	}

	return domain.Transaction{
		Date:        date,
		Description: field(cols.desc),
		Amount:      amount,
		Category:    field(cols.category),
		CostCenter:  field(cols.costCenter),
	}, warns, true
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseAmount coerces a Brazilian-formatted currency string ("R$ 1.234,56",
// "-1.234,56", "(500,00)") into a float. Plain decimal-point numbers are
// accepted too.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	if strings.Contains(s, ",") {
		// Brazilian format: thousands dot, decimal comma.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if negative {
		v = -v
	}
	return v, nil
}

// sniffSeparator picks the separator by counting candidates in the first
// line. Semicolon wins ties because Brazilian exports favor it.
func sniffSeparator(raw []byte) rune {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	if !scanner.Scan() {
		return ';'
	}
	first := scanner.Text()
	if strings.Count(first, ";") >= strings.Count(first, ",") {
		return ';'
	}
	return ','
}
