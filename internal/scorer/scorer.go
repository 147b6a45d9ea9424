package scorer

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"sentiment-trader/internal/interfaces"
	"sentiment-trader/internal/types"
)

// ErrMalformedItem marks an article that cannot be scored at all.
var ErrMalformedItem = errors.New("malformed item")

const (
	baseImportance   = 1.0
	keywordBonus     = 0.5
	lengthBonus      = 0.3
	firstLengthStep  = 100
	secondLengthStep = 200
	maxImportance    = 3.0
)

// Keywords is the fixed domain keyword set used for importance.
var Keywords = []string{
	"earnings", "profit", "revenue", "loss", "lawsuit", "merger",
	"acquisition", "ceo", "investigation", "regulation", "dividend",
	"upgrade", "downgrade", "analyst", "breakthrough", "crisis",
	"scandal", "partnership", "contract", "bankruptcy", "fraud",
}

// Scorer turns text into a polarity and an importance weight.
type Scorer struct {
	polarizer interfaces.Polarizer
	keywords  []string
}

var _ interfaces.Polarizer = (*Lexicon)(nil)

// New returns a Scorer using p for polarity, or the built-in lexicon when p is nil.
func New(p interfaces.Polarizer) *Scorer {
	if p == nil {
		p = NewLexicon()
	}
	return &Scorer{polarizer: p, keywords: Keywords}
}

// Score never fails: polarity falls back to 0.0 when the polarizer errors or
// returns something outside [-1, 1].
func (s *Scorer) Score(text string) (polarity, importance float64) {
	return s.polarity(text), Importance(text, s.keywords)
}

func (s *Scorer) polarity(text string) float64 {
	p, err := s.polarizer.Polarity(text)
	if err != nil || !usable(p) {
		return 0
	}
	return p
}

// Importance is 1.0 plus 0.5 per distinct keyword present (case-insensitive
// substring), plus 0.3 above 100 characters and 0.3 more above 200, capped at 3.0.
func Importance(text string, keywords []string) float64 {
	lower := strings.ToLower(text)
	score := baseImportance
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			score += keywordBonus
		}
	}
	n := utf8.RuneCountInString(text)
	if n > firstLengthStep {
		score += lengthBonus
	}
	if n > secondLengthStep {
		score += lengthBonus
	}
	return math.Min(score, maxImportance)
}

// ScoreArticle scores one article. Articles with no text are malformed.
func (s *Scorer) ScoreArticle(a types.Article) (types.ScoredItem, error) {
	text := a.Text()
	if text == "" {
		return types.ScoredItem{}, ErrMalformedItem
	}
	if !utf8.ValidString(text) {
		return types.ScoredItem{}, ErrMalformedItem
	}
	pol, imp := s.Score(text)
	return types.ScoredItem{
		Text:        text,
		PublishedAt: a.PublishedAt,
		Polarity:    pol,
		Importance:  imp,
	}, nil
}

// ScoreBatch scores every article, skipping malformed ones. skipped counts them.
func (s *Scorer) ScoreBatch(articles []types.Article) (items []types.ScoredItem, skipped int) {
	items = make([]types.ScoredItem, 0, len(articles))
	for _, a := range articles {
		it, err := s.ScoreArticle(a)
		if err != nil {
			skipped++
			continue
		}
		items = append(items, it)
	}
	return items, skipped
}

// PreScored uses the scores that came with the batch. It reports false, and
// returns nothing, unless every article carries a usable score; a partly
// scored batch goes through ScoreBatch instead so the two paths never mix.
// Importance is still computed locally from the text.
func (s *Scorer) PreScored(articles []types.Article) ([]types.ScoredItem, bool) {
	if len(articles) == 0 {
		return nil, false
	}
	items := make([]types.ScoredItem, 0, len(articles))
	for _, a := range articles {
		if a.SentimentScore == nil || !usable(*a.SentimentScore) {
			return nil, false
		}
		text := a.Text()
		if text == "" || !utf8.ValidString(text) {
			return nil, false
		}
		items = append(items, types.ScoredItem{
			Text:        text,
			PublishedAt: a.PublishedAt,
			Polarity:    *a.SentimentScore,
			Importance:  Importance(text, s.keywords),
		})
	}
	return items, true
}

func usable(p float64) bool {
	return !math.IsNaN(p) && p >= -1 && p <= 1
}
