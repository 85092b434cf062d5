package notion

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/agrofin/internal/cache"
)

// rowKey identifies one resumo line across syncs: empresa|tipo|linha. It is
// the idempotency key stored in the page title.
func rowKey(doc *cache.Document, linha string) string {
	return doc.Empresa + "|" + doc.Tipo + "|" + linha
}

// resumoProperties converts one resumo line into Notion page properties.
func resumoProperties(doc *cache.Document, linha string, valor float64) notionapi.Properties {
	props := notionapi.Properties{
		"Chave": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: rowKey(doc, linha),
					},
				},
			},
		},
		"Empresa": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: doc.Empresa,
			},
		},
		"Relatório": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: doc.Tipo,
			},
		},
		"Linha": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: linha,
					},
				},
			},
		},
		"Valor": notionapi.NumberProperty{
			Number: valor,
		},
	}

	if !doc.GeneratedAt.IsZero() {
		props["Gerado em"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(doc.GeneratedAt.UTC().Truncate(24 * time.Hour))
					return &d
				}(),
			},
		}
	}

	return props
}

// extractRowKey reads the idempotency key back from a Notion page. Returns
// empty string if the page has no recognizable key.
func extractRowKey(page notionapi.Page) string {
	if prop, ok := page.Properties["Chave"]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
