package news

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sentiment-trader/internal/api"
	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/logger"
	"sentiment-trader/internal/types"
)

var ErrSourceUnavailable = errors.New("news source unavailable")

// Config configures the HTTP news source.
type Config struct {
	BaseURL   string
	Limit     int
	Timeout   time.Duration
	StripHTML bool
	Sentiment string // optional server-side filter: positive, negative or neutral
}

// Source reads articles from a news API exposing GET /news/latest.
type Source struct {
	client *api.Client
	cfg    Config
}

var _ interfaces.Source = (*Source)(nil)

func NewSource(cfg Config) *Source {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Source{
		client: api.NewClient(
			api.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
			api.WithTimeout(cfg.Timeout),
			api.WithHeader("User-Agent", "sentiment-trader/1.0"),
			api.WithLogging(true),
		),
		cfg: cfg,
	}
}

type latestResponse struct {
	Count    int          `json:"count"`
	Articles []apiArticle `json:"articles"`
}

type apiArticle struct {
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	URL            string   `json:"url"`
	Source         string   `json:"source"`
	Published      string   `json:"published"`
	SentimentScore *float64 `json:"sentiment_score"`
	SentimentLabel *string  `json:"sentiment_label"`
}

// FetchRecent returns at most limit articles in the order the API lists them.
// A non-positive limit falls back to the configured one.
func (s *Source) FetchRecent(ctx context.Context, limit int) ([]types.Article, error) {
	if limit <= 0 {
		limit = s.cfg.Limit
	}
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if s.cfg.Sentiment != "" {
		q.Set("sentiment", s.cfg.Sentiment)
	}

	resp, err := s.client.GET(ctx, "/news/latest", q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	var body latestResponse
	if err := resp.ParseJSON(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	articles := make([]types.Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		articles = append(articles, s.convert(a))
		if limit > 0 && len(articles) == limit {
			break
		}
	}

	logger.Debug(ctx, "Fetched articles", "count", len(articles), "requested", limit)
	return articles, nil
}

func (s *Source) convert(a apiArticle) types.Article {
	desc := a.Summary
	if s.cfg.StripHTML {
		desc = StripHTML(desc)
	}
	out := types.Article{
		Title:          strings.TrimSpace(a.Title),
		Description:    strings.TrimSpace(desc),
		URL:            a.URL,
		Source:         a.Source,
		RawPublished:   a.Published,
		SentimentScore: a.SentimentScore,
	}
	if t, ok := ParseTimestamp(a.Published); ok {
		out.PublishedAt = t
	}
	if a.SentimentLabel != nil {
		out.SentimentLabel = *a.SentimentLabel
	}
	return out
}
