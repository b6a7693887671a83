package usecase

import (
	"context"
	"errors"
	"strings"

	"subtube/domain/apperror"
	"subtube/domain/model"
	"subtube/domain/repository"
)

var errNotConfigured = errors.New("backend not configured")

// Storage source identifiers accepted by the search endpoint.
const (
	SourceJSON = "json"
	SourceSolr = "solr"
)

// ISearchUseCase validates a search request and runs it against the selected
// storage backend.
type ISearchUseCase interface {
	Search(ctx context.Context, query, source string, page int) (*model.ResultPage, error)
}

// SearchUseCase resolves the source identifier to one of the two repository
// variants. It adds no caching of its own; reads are cheap relative to
// extraction.
type SearchUseCase struct {
	ledger   repository.IStorage
	index    repository.IStorage
	pageSize int
}

// NewSearchUseCase wires both backends. Either may be nil when not
// configured; selecting an unconfigured backend fails as unavailable.
func NewSearchUseCase(ledger, index repository.IStorage, pageSize int) ISearchUseCase {
	if pageSize < 1 {
		pageSize = 10
	}
	return &SearchUseCase{ledger: ledger, index: index, pageSize: pageSize}
}

func (u *SearchUseCase) Search(ctx context.Context, query, source string, page int) (*model.ResultPage, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, &apperror.InvalidQueryError{Reason: "query must not be empty"}
	}
	if page < 1 {
		page = 1
	}

	var repo repository.IStorage
	switch source {
	case SourceJSON:
		repo = u.ledger
	case SourceSolr:
		repo = u.index
	default:
		return nil, &apperror.InvalidSourceError{Source: source}
	}
	if repo == nil {
		return nil, &apperror.BackendUnavailableError{Backend: source, Err: errNotConfigured}
	}

	return repo.Query(ctx, trimmed, page, u.pageSize)
}
