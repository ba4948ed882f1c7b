package lookup

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/company-lookup/internal/model"
	"github.com/sells-group/company-lookup/pkg/google"
)

const (
	defaultResultCount  = 10
	fallbackResultCount = 3
)

// Searcher wraps the search client with the pipeline's semantics: an empty
// result set is a failure, and an optional degraded fallback substitutes a
// reduced-fidelity result set when the provider rejects the query.
type Searcher struct {
	client   google.Client
	num      int
	fallback bool
}

// NewSearcher creates a Searcher. num caps the result count per query;
// fallback enables the degraded retry-then-placeholder policy.
func NewSearcher(client google.Client, num int, fallback bool) *Searcher {
	if num <= 0 {
		num = defaultResultCount
	}
	return &Searcher{client: client, num: num, fallback: fallback}
}

// Search runs one query and normalizes the hits. The second return value
// reports whether the results came from the degraded fallback.
func (s *Searcher) Search(ctx context.Context, query string) ([]model.SearchResult, bool, error) {
	results, err := s.query(ctx, query, s.num)
	if err == nil {
		return results, false, nil
	}

	// An empty result set is recoverable for the caller but never masked
	// by the fallback.
	var noResults *NoResultsError
	if errors.As(err, &noResults) {
		return nil, false, err
	}

	if !s.fallback {
		return nil, false, &SearchUnavailableError{Err: err}
	}

	// Degraded fallback: retry once with a sanitized, shortened query and
	// a reduced result count.
	short := sanitizeQuery(query)
	zap.L().Warn("search degraded fallback",
		zap.String("query", query),
		zap.String("fallback_query", short),
		zap.Error(err),
	)
	results, fbErr := s.query(ctx, short, fallbackResultCount)
	if fbErr == nil {
		return results, true, nil
	}

	// Last resort: a single synthetic placeholder so the pipeline can
	// continue. The record built from it is marked low-confidence.
	zap.L().Warn("search fallback failed, substituting placeholder",
		zap.String("query", short),
		zap.Error(fbErr),
	)
	return []model.SearchResult{{
		Title:   "検索結果を取得できませんでした（プレースホルダー）",
		Link:    "",
		Snippet: "検索プロバイダーから結果を取得できなかったため、代替の空結果を使用しています。",
	}}, true, nil
}

func (s *Searcher) query(ctx context.Context, query string, num int) ([]model.SearchResult, error) {
	resp, err := s.client.Search(ctx, query, num)
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, &NoResultsError{Query: query}
	}

	results := make([]model.SearchResult, len(resp.Items))
	for i, item := range resp.Items {
		results[i] = model.SearchResult{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
		}
	}
	zap.L().Debug("search results", zap.String("query", query), zap.Int("count", len(results)))
	return results, nil
}
