// Package store persists survey responses and answers the dashboard queries.
// The ingestion endpoint is the only writer; records are never updated or deleted.
package store

import (
	"context"

	"github.com/mbolis/cart-survey/model"
)

type Responses interface {
	// Insert stores r verbatim and returns the generated record id.
	Insert(ctx context.Context, r model.Response) (string, error)
	// List returns one page of records in rg, newest first, and the total matching count.
	List(ctx context.Context, rg model.Range, page model.Page) ([]model.Response, int64, error)
	Analytics(ctx context.Context, rg model.Range) (model.Analytics, error)
}

func nonNil(groups []model.GroupCount) []model.GroupCount {
	if groups == nil {
		return []model.GroupCount{}
	}
	return groups
}
