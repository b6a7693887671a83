package repository

import (
	"context"

	"subtube/domain/model"
)

// IStorage is the persistence abstraction shared by both backends (the Solr
// index and the JSON ledger). Both expose idempotent upsert-by-videoId and
// paginated keyword search over title and description.
type IStorage interface {
	// Upsert writes the batch, replacing any existing record with the same
	// VideoID, and returns the number of records written.
	Upsert(ctx context.Context, records []model.VideoRecord) (int, error)
	// Query runs a keyword search and returns the requested page. An empty or
	// whitespace-only text is rejected with *apperror.InvalidQueryError; an
	// unreachable backend surfaces as *apperror.BackendUnavailableError.
	Query(ctx context.Context, text string, page, pageSize int) (*model.ResultPage, error)
}
