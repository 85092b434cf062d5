package notion

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/agrofin/internal/cache"
	"github.com/dvloznov/agrofin/internal/logger"
)

// SyncResumo publishes the resumo lines of a cached report to a Notion
// database. One page per line, keyed by empresa|tipo|linha:
//  1. Queries all existing pages in the database.
//  2. Deletes stale pages belonging to the same empresa/tipo whose line no
//     longer exists in the document.
//  3. Creates missing lines and updates the values of existing ones.
func SyncResumo(ctx context.Context, svc Service, databaseID string, doc *cache.Document, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Str("empresa", doc.Empresa).
		Str("tipo", doc.Tipo).
		Bool("dry_run", dryRun).
		Int("linhas", len(doc.Resumo)).
		Msg("Starting resumo sync to Notion")

	pages, err := queryAllPages(ctx, svc, databaseID)
	if err != nil {
		return fmt.Errorf("SyncResumo: %w", err)
	}

	prefix := doc.Empresa + "|" + doc.Tipo + "|"

	valid := make(map[string]bool, len(doc.Resumo))
	for linha := range doc.Resumo {
		valid[rowKey(doc, linha)] = true
	}

	// Existing page per key, scoped to this empresa/tipo.
	existing := make(map[string]string)
	var deleted int
	for _, page := range pages {
		key := extractRowKey(page)
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if valid[key] {
			existing[key] = string(page.ID)
			continue
		}

		if dryRun {
			log.Info().Str("key", key).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would delete stale Notion page")
			deleted++
			continue
		}
		if err := svc.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("key", key).Str("page_id", string(page.ID)).Msg("Failed to delete stale Notion page")
			continue
		}
		deleted++
	}

	linhas := make([]string, 0, len(doc.Resumo))
	for linha := range doc.Resumo {
		linhas = append(linhas, linha)
	}
	sort.Strings(linhas)

	var created, updated int
	for _, linha := range linhas {
		key := rowKey(doc, linha)
		props := resumoProperties(doc, linha, doc.Resumo[linha])

		if pageID, ok := existing[key]; ok {
			if dryRun {
				log.Info().Str("key", key).Msg("[DRY RUN] Would update Notion page")
				updated++
				continue
			}
			if _, err := svc.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("key", key).Str("page_id", pageID).Msg("Failed to update Notion page")
				continue
			}
			updated++
			continue
		}

		if dryRun {
			log.Info().Str("key", key).Msg("[DRY RUN] Would create Notion page")
			created++
			continue
		}
		page, err := svc.CreatePage(ctx, databaseID, props)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to create Notion page")
			continue
		}
		log.Debug().Str("key", key).Str("page_id", string(page.ID)).Msg("Created Notion page")
		created++
	}

	log.Info().
		Int("created", created).
		Int("updated", updated).
		Int("deleted", deleted).
		Msg("Resumo sync completed")

	return nil
}

// queryAllPages reads every page of the database, following pagination.
func queryAllPages(ctx context.Context, svc Service, databaseID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := svc.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}

		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return all, nil
}
