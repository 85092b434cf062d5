package notion

import (
	"context"

	"github.com/jomei/notionapi"
)

// Service defines the Notion operations the publisher needs. The interface
// exists so the sync logic is testable without the real API.
type Service interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	DeletePage(ctx context.Context, pageID string) error
}
