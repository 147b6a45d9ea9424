package engine

import (
	"context"

	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/types"
)

// collect fetches the latest articles and turns them into scored items.
// It reports false when the source failed or returned nothing.
func (e *Engine) collect(ctx context.Context, res *types.CycleResult) ([]types.ScoredItem, bool) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.Source.Timeout)
	defer cancel()

	articles, err := e.source.FetchRecent(fetchCtx, e.cfg.Source.Limit)
	if err != nil {
		res.Error = err.Error()
		logger.Warn(ctx, "News fetch failed, treating as no articles", "symbol", res.Symbol, "error", err)
		return nil, false
	}
	res.Fetched = len(articles)
	if len(articles) == 0 {
		logger.Info(ctx, "No articles this cycle", "symbol", res.Symbol)
		return nil, false
	}

	if e.cfg.Scoring.PreferPreScored {
		if items, ok := e.scorer.PreScored(articles); ok {
			res.PreScored = true
			logger.Debug(ctx, "Using pre-scored sentiment", "count", len(items))
			return items, true
		}
	}

	items, skipped := e.scorer.ScoreBatch(articles)
	res.Skipped = skipped
	if skipped > 0 {
		logger.Warn(ctx, "Skipped malformed articles", "symbol", res.Symbol, "skipped", skipped, "fetched", len(articles))
	}
	return items, true
}
