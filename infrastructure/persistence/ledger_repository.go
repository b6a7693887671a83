package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"subtube/domain/apperror"
	"subtube/domain/model"
	"subtube/infrastructure/logger"
)

// LedgerRepository persists VideoRecords as a single JSON file, deduplicated
// by videoId. Upserts rewrite the whole file through an atomic replace so a
// concurrent reader sees either the pre- or post-upsert content, never a torn
// write.
type LedgerRepository struct {
	path string
	mu   sync.RWMutex
}

func NewLedgerRepository(path string) *LedgerRepository {
	return &LedgerRepository{path: path}
}

// Upsert loads the ledger, replaces or inserts each incoming record by
// VideoID (existing order preserved, new records appended), and writes the
// full sequence back. Returns the number of records written.
func (r *LedgerRepository) Upsert(ctx context.Context, records []model.VideoRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.load()
	if err != nil {
		return 0, err
	}

	position := make(map[string]int, len(existing))
	for i, rec := range existing {
		position[rec.VideoID] = i
	}
	for _, rec := range records {
		if i, ok := position[rec.VideoID]; ok {
			existing[i] = rec
			continue
		}
		position[rec.VideoID] = len(existing)
		existing = append(existing, rec)
	}

	if err := r.replace(existing); err != nil {
		return 0, err
	}
	logger.GetLogger().WithField("records", len(records)).WithField("ledgerSize", len(existing)).Debug("Ledger upsert complete")
	return len(records), nil
}

// Query tokenizes text on whitespace and scores each record by the number of
// tokens found (case-insensitive) in its title or description. Records with
// score zero are excluded; survivors are sorted by score descending, ties by
// publishedAt descending.
func (r *LedgerRepository) Query(ctx context.Context, text string, page, pageSize int) (*model.ResultPage, error) {
	tokens := queryTokens(text)
	if len(tokens) == 0 {
		return nil, &apperror.InvalidQueryError{Reason: "query must not be empty"}
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return nil, &apperror.InvalidQueryError{Reason: "page size must be positive"}
	}

	r.mu.RLock()
	records, err := r.load()
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	type scored struct {
		record model.VideoRecord
		score  int
	}
	matches := make([]scored, 0)
	for _, rec := range records {
		haystack := strings.ToLower(rec.Title) + " " + strings.ToLower(rec.Description)
		score := 0
		for _, token := range tokens {
			if strings.Contains(haystack, token) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{record: rec, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].record.PublishedAt.After(matches[j].record.PublishedAt)
	})

	totalMatches := int64(len(matches))
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(matches) {
		start = len(matches)
	}
	if end > len(matches) {
		end = len(matches)
	}

	results := make([]model.VideoRecord, 0, end-start)
	for _, m := range matches[start:end] {
		results = append(results, m.record)
	}

	return &model.ResultPage{
		Results:      results,
		CurrentPage:  page,
		TotalPages:   model.TotalPages(totalMatches, pageSize),
		TotalMatches: totalMatches,
	}, nil
}

func (r *LedgerRepository) load() ([]model.VideoRecord, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &apperror.BackendUnavailableError{Backend: "json", Err: err}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var records []model.VideoRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &apperror.BackendUnavailableError{Backend: "json", Err: fmt.Errorf("corrupt ledger file %s: %w", r.path, err)}
	}
	return records, nil
}

// replace writes to a temporary file in the ledger's directory and renames it
// over the target, so readers never observe a partially-written file.
func (r *LedgerRepository) replace(records []model.VideoRecord) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &apperror.BackendUnavailableError{Backend: "json", Err: err}
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return &apperror.BackendUnavailableError{Backend: "json", Err: err}
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &apperror.BackendUnavailableError{Backend: "json", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &apperror.BackendUnavailableError{Backend: "json", Err: err}
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return &apperror.BackendUnavailableError{Backend: "json", Err: err}
	}
	return nil
}

func queryTokens(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
