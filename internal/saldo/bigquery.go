package saldo

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const (
	defaultDatasetID = "agrofin"
	saldosTable      = "saldos_bancarios"
)

// balanceRow mirrors the saldos_bancarios schema: one row per company per
// capture, latest wins.
type balanceRow struct {
	Empresa string  `bigquery:"empresa"`
	Saldo   float64 `bigquery:"saldo"`
}

// BigQueryProvider reads the latest captured balance from BigQuery. It holds
// a shared client to avoid creating a new connection per lookup.
type BigQueryProvider struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewBigQueryProvider creates a provider with a shared BigQuery client.
// Project and dataset come from AGROFIN_BQ_PROJECT and AGROFIN_BQ_DATASET.
func NewBigQueryProvider(ctx context.Context) (*BigQueryProvider, error) {
	projectID := os.Getenv("AGROFIN_BQ_PROJECT")
	if projectID == "" {
		return nil, fmt.Errorf("NewBigQueryProvider: AGROFIN_BQ_PROJECT not set")
	}
	datasetID := os.Getenv("AGROFIN_BQ_DATASET")
	if datasetID == "" {
		datasetID = defaultDatasetID
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryProvider: creating client: %w", err)
	}
	return &BigQueryProvider{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (p *BigQueryProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// CurrentBalance delegates to CurrentBalanceWithClient with the shared client.
func (p *BigQueryProvider) CurrentBalance(ctx context.Context, empresa string) (float64, error) {
	return CurrentBalanceWithClient(ctx, p.client, p.projectID, p.datasetID, empresa)
}

// CurrentBalanceWithClient retrieves the latest balance for a company using
// the provided BigQuery client. Returns ErrNoBalance when no row exists.
func CurrentBalanceWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID, empresa string) (float64, error) {
	query := fmt.Sprintf(`
		SELECT
			empresa,
			saldo
		FROM `+"`%s.%s.%s`"+`
		WHERE empresa = @empresa
		ORDER BY capturado_em DESC
		LIMIT 1
	`, projectID, datasetID, saldosTable)

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "empresa", Value: empresa},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("CurrentBalanceWithClient: reading query: %w", err)
	}

	var row balanceRow
	err = it.Next(&row)
	if err == iterator.Done {
		return 0, ErrNoBalance
	}
	if err != nil {
		return 0, fmt.Errorf("CurrentBalanceWithClient: reading row: %w", err)
	}

	return row.Saldo, nil
}
