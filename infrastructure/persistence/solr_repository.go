package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"subtube/domain/apperror"
	"subtube/domain/model"
	"subtube/infrastructure/logger"

	"github.com/google/go-querystring/query"
)

// SolrRepository persists VideoRecords as documents in a Solr core and
// delegates relevance ranking to Solr. The document id is the videoId, so an
// add replaces any existing document with the same id.
type SolrRepository struct {
	baseURL string
	client  *http.Client
}

// NewSolrRepository takes the full core URL, e.g. http://localhost:8983/solr/videos.
func NewSolrRepository(baseURL string) *SolrRepository {
	return &SolrRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type solrDocument struct {
	ID           string `json:"id"`
	ChannelID    string `json:"channelId"`
	ChannelTitle string `json:"channelTitle"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	PublishedAt  string `json:"publishedAt"`
	URL          string `json:"url"`
	FetchedAt    string `json:"fetchedAt"`
}

type solrSelectParams struct {
	Query   string `url:"q"`
	DefType string `url:"defType"`
	QF      string `url:"qf"`
	Start   int    `url:"start"`
	Rows    int    `url:"rows"`
}

type solrSelectResponse struct {
	Response struct {
		NumFound int64          `json:"numFound"`
		Docs     []solrDocument `json:"docs"`
	} `json:"response"`
}

// Upsert submits the batch to /update with an immediate commit.
func (r *SolrRepository) Upsert(ctx context.Context, records []model.VideoRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	docs := make([]solrDocument, 0, len(records))
	for _, rec := range records {
		docs = append(docs, solrDocument{
			ID:           rec.VideoID,
			ChannelID:    rec.ChannelID,
			ChannelTitle: rec.ChannelTitle,
			Title:        rec.Title,
			Description:  rec.Description,
			PublishedAt:  rec.PublishedAt.UTC().Format(time.RFC3339),
			URL:          rec.URL,
			FetchedAt:    rec.FetchedAt.UTC().Format(time.RFC3339),
		})
	}

	body, err := json.Marshal(docs)
	if err != nil {
		return 0, fmt.Errorf("marshal solr documents: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/update?commit=true", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build solr update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := r.do(req, nil); err != nil {
		return 0, err
	}
	logger.GetLogger().WithField("documents", len(docs)).Debug("Solr upsert complete")
	return len(records), nil
}

// Query translates text into an edismax query over title and description and
// pages through start/rows. TotalPages is derived from Solr's numFound.
func (r *SolrRepository) Query(ctx context.Context, text string, page, pageSize int) (*model.ResultPage, error) {
	if len(queryTokens(text)) == 0 {
		return nil, &apperror.InvalidQueryError{Reason: "query must not be empty"}
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return nil, &apperror.InvalidQueryError{Reason: "page size must be positive"}
	}

	params := solrSelectParams{
		Query:   escapeSolr(strings.TrimSpace(text)),
		DefType: "edismax",
		QF:      "title description",
		Start:   (page - 1) * pageSize,
		Rows:    pageSize,
	}
	values, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("encode solr query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/select?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build solr select request: %w", err)
	}

	var parsed solrSelectResponse
	if err := r.do(req, &parsed); err != nil {
		return nil, err
	}

	results := make([]model.VideoRecord, 0, len(parsed.Response.Docs))
	for _, doc := range parsed.Response.Docs {
		publishedAt, _ := time.Parse(time.RFC3339, doc.PublishedAt)
		fetchedAt, _ := time.Parse(time.RFC3339, doc.FetchedAt)
		results = append(results, model.VideoRecord{
			VideoID:      doc.ID,
			ChannelID:    doc.ChannelID,
			ChannelTitle: doc.ChannelTitle,
			Title:        doc.Title,
			Description:  doc.Description,
			PublishedAt:  publishedAt,
			URL:          doc.URL,
			FetchedAt:    fetchedAt,
		})
	}

	return &model.ResultPage{
		Results:      results,
		CurrentPage:  page,
		TotalPages:   model.TotalPages(parsed.Response.NumFound, pageSize),
		TotalMatches: parsed.Response.NumFound,
	}, nil
}

func (r *SolrRepository) do(req *http.Request, out interface{}) error {
	resp, err := r.client.Do(req)
	if err != nil {
		return &apperror.BackendUnavailableError{Backend: "solr", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperror.BackendUnavailableError{Backend: "solr", Err: err}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return &apperror.BackendUnavailableError{Backend: "solr", Err: fmt.Errorf("solr returned %d: %s", resp.StatusCode, body)}
	}
	if resp.StatusCode != http.StatusOK {
		return &apperror.BackendRequestError{Backend: "solr", Err: fmt.Errorf("solr returned %d: %s", resp.StatusCode, body)}
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode solr response: %w", err)
		}
	}
	return nil
}

// escapeSolr escapes Lucene query syntax characters in user text so the terms
// are matched literally.
func escapeSolr(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch r {
		case '+', '-', '&', '|', '!', '(', ')', '{', '}', '[', ']', '^', '"', '~', '*', '?', ':', '\\', '/':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
