package scorer

import (
	"errors"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidText is returned by the lexicon for text that is not valid UTF-8.
var ErrInvalidText = errors.New("text is not valid utf-8")

const (
	// normalization constant for the compound score
	alpha = 15.0

	boostIncr = 0.293
	boostDecr = -0.293
	negScalar = -0.74

	// how many tokens back a negation or booster still applies
	lookback = 3
)

// Lexicon is a word-valence polarity function with negation, booster and
// contrast ("but") handling. The zero value is not usable; use NewLexicon.
type Lexicon struct {
	valence  map[string]float64
	boosters map[string]float64
	negators map[string]bool
}

func NewLexicon() *Lexicon {
	return &Lexicon{
		valence:  loadValence(),
		boosters: loadBoosters(),
		negators: loadNegators(),
	}
}

// Polarity returns a compound score in [-1, 1]. Text with no known words is 0.
func (l *Lexicon) Polarity(text string) (float64, error) {
	if !utf8.ValidString(text) {
		return 0, ErrInvalidText
	}
	words := tokenize(strings.ToLower(text))
	if len(words) == 0 {
		return 0, nil
	}

	butAt := -1
	for i, w := range words {
		if w == "but" || w == "however" {
			butAt = i
		}
	}

	sum := 0.0
	for i, w := range words {
		v, ok := l.valence[w]
		if !ok {
			continue
		}
		for back := 1; back <= lookback && i-back >= 0; back++ {
			prev := words[i-back]
			if b, isBoost := l.boosters[prev]; isBoost {
				scaled := b * (1 - 0.05*float64(back-1))
				if v < 0 {
					scaled = -scaled
				}
				v += scaled
			}
		}
		for back := 1; back <= lookback && i-back >= 0; back++ {
			if l.negators[words[i-back]] {
				v *= negScalar
				break
			}
		}
		if butAt >= 0 {
			if i < butAt {
				v *= 0.5
			} else if i > butAt {
				v *= 1.5
			}
		}
		sum += v
	}

	return normalize(sum), nil
}

func normalize(s float64) float64 {
	if s == 0 {
		return 0
	}
	c := s / math.Sqrt(s*s+alpha)
	return math.Max(-1, math.Min(1, c))
}

// Label buckets a compound score the usual way: ±0.05 separates neutral.
func Label(compound float64) string {
	switch {
	case compound >= 0.05:
		return "positive"
	case compound <= -0.05:
		return "negative"
	default:
		return "neutral"
	}
}

// tokenize splits text into words, keeping in-word apostrophes and hyphens.
func tokenize(text string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.Trim(cur.String(), "'-"))
			cur.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || r == '\'' || r == '-' {
			cur.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	out := words[:0]
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func loadValence() map[string]float64 {
	m := make(map[string]float64, 256)
	set := func(v float64, words ...string) {
		for _, w := range words {
			m[w] = v
		}
	}

	set(3.2, "soar", "soars", "soared", "soaring", "skyrocket", "skyrockets", "breakthrough",
		"exceptional", "extraordinary", "tremendous", "outstanding", "excellent")
	set(2.6, "surge", "surges", "surged", "surging", "rally", "rallies", "rallied", "boom",
		"record", "remarkable", "beat", "beats", "outperform", "outperforms", "outperformed",
		"upgrade", "upgraded", "upgrades", "win", "wins", "winning", "success", "successful")
	set(2.0, "gain", "gains", "gained", "growth", "grew", "grow", "grows", "profit", "profits",
		"profitable", "strong", "strength", "robust", "solid", "improve", "improved",
		"improvement", "improves", "positive", "optimistic", "upbeat", "bullish", "rise",
		"rises", "rising", "rose", "jump", "jumps", "jumped", "boost", "boosts", "boosted",
		"superior", "succeed", "prosper", "achieve", "attain", "delight", "favorable",
		"innovative", "innovation", "leader", "leading", "opportunity", "progress",
		"valuable", "well-positioned", "expand", "expands", "expansion", "dividend")
	set(1.5, "good", "great", "better", "benefit", "benefits", "enhance", "enhanced",
		"competitive", "optimal", "approve", "approved", "approval", "agreement", "deal",
		"partnership", "recover", "recovery", "rebound", "rebounds", "stable", "steady",
		"higher", "up", "increase", "increases", "increased", "raise", "raises", "raised")

	set(-3.2, "bankruptcy", "bankrupt", "fraud", "collapse", "collapses", "collapsed",
		"plunge", "plunges", "plunged", "plunging", "crash", "crashes", "crashed",
		"scandal", "catastrophe", "catastrophic")
	set(-2.6, "crisis", "lawsuit", "lawsuits", "sued", "downgrade", "downgraded", "downgrades",
		"default", "defaults", "recession", "tumble", "tumbles", "tumbled", "slump",
		"slumps", "slumped", "miss", "misses", "missed", "investigation", "probe",
		"penalty", "fine", "fined", "underperform", "underperformed", "worst", "disaster")
	set(-2.0, "loss", "losses", "lose", "loses", "losing", "lost", "decline", "declines",
		"declined", "declining", "fall", "falls", "fell", "falling", "drop", "drops",
		"dropped", "weak", "weakness", "weaker", "negative", "bearish", "poor", "fail",
		"fails", "failed", "failure", "damage", "deteriorate", "deficit", "disappoint",
		"disappointing", "disappointed", "downturn", "slowdown", "unprofitable", "impair",
		"impairment", "worse", "worsen", "layoffs", "layoff", "cut", "cuts", "warning",
		"warns", "warned", "risk", "risks", "threat", "threatens")
	set(-1.5, "concern", "concerns", "challenge", "challenges", "challenging", "adverse",
		"difficult", "difficulty", "headwind", "headwinds", "obstacle", "problem", "problems",
		"uncertain", "uncertainty", "volatile", "volatility", "slow", "lower", "down",
		"decrease", "decreased", "debt", "fear", "fears", "erode", "inadequate",
		"ineffective", "inability", "abandon", "unfavorable", "disadvantage", "restructuring")
	return m
}

func loadBoosters() map[string]float64 {
	m := map[string]float64{}
	for _, w := range []string{"very", "extremely", "sharply", "significantly", "substantially",
		"hugely", "highly", "strongly", "massively", "dramatically", "deeply", "most", "more"} {
		m[w] = boostIncr
	}
	for _, w := range []string{"slightly", "marginally", "somewhat", "barely", "modestly",
		"little", "less", "partly"} {
		m[w] = boostDecr
	}
	return m
}

func loadNegators() map[string]bool {
	m := map[string]bool{}
	for _, w := range []string{"not", "no", "never", "none", "nor", "without", "neither",
		"cannot", "can't", "don't", "doesn't", "didn't", "isn't", "aren't", "wasn't",
		"weren't", "won't", "wouldn't", "shouldn't", "hasn't", "haven't", "hadn't", "despite"} {
		m[w] = true
	}
	return m
}
