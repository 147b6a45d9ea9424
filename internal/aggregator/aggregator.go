package aggregator

import (
	"math"
	"sort"
	"time"

	"sentiment-trader/internal/types"
)

const (
	// floor for the linear decay so old news never vanishes entirely
	minDecay = 0.1
	// decay used when an item has no usable timestamp
	unknownAgeDecay = 0.5
)

// Aggregate combines scored items into one importance-weighted, time-decayed
// value:
//
//	decay  = max(0.1, 1 - age_hours/halfLifeHours)
//	weight = importance * decay
//	value  = sum(polarity*weight) / sum(weight)
//
// Items without a timestamp decay by 0.5. Items dated after now count as age 0.
// Empty input or zero total weight yields 0.0. The result does not depend on
// item order.
func Aggregate(items []types.ScoredItem, now time.Time, halfLifeHours float64) types.AggregateSignal {
	sig := types.AggregateSignal{AsOf: now}
	if len(items) == 0 {
		return sig
	}

	terms := make([]term, 0, len(items))
	for _, it := range items {
		if math.IsNaN(it.Polarity) || math.IsNaN(it.Importance) || it.Importance < 0 {
			continue
		}
		w := it.Importance * DecayFactor(it.PublishedAt, now, halfLifeHours)
		terms = append(terms, term{weight: w, product: it.Polarity * w})
	}
	sig.SampleCount = len(terms)

	// summing in a canonical order keeps the result bit-identical for any
	// permutation of the input
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].weight != terms[j].weight {
			return terms[i].weight < terms[j].weight
		}
		return terms[i].product < terms[j].product
	})
	var weighted, total float64
	for _, t := range terms {
		weighted += t.product
		total += t.weight
	}

	if total > 0 {
		sig.Value = clamp(weighted / total)
	}
	return sig
}

// DecayFactor is the time weight of a single item: max(0.1, 1 - age/halfLife).
// Unlike the raw formula, a future timestamp counts as age 0, so no item
// weighs more than a fresh one (the raw formula would give 1.5 at -12h on a
// 24h half-life). A zero timestamp or half-life gives 0.5.
func DecayFactor(published, now time.Time, halfLifeHours float64) float64 {
	if published.IsZero() || halfLifeHours <= 0 {
		return unknownAgeDecay
	}
	age := now.Sub(published).Hours()
	if age < 0 {
		age = 0
	}
	return math.Max(minDecay, 1-age/halfLifeHours)
}

type term struct {
	weight, product float64
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
