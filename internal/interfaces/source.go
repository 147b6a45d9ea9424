package interfaces

import (
	"context"

	"sentiment-trader/internal/types"
)

// Source yields the most recent article-like records, newest first, at most limit.
type Source interface {
	FetchRecent(ctx context.Context, limit int) ([]types.Article, error)
}
