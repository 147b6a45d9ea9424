package aggregator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sentiment-trader/internal/types"
)

var now = time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)

func item(pol, imp, ageHours float64) types.ScoredItem {
	return types.ScoredItem{
		Polarity:    pol,
		Importance:  imp,
		PublishedAt: now.Add(-time.Duration(ageHours * float64(time.Hour))),
	}
}

func TestAggregateReferenceExample(t *testing.T) {
	sig := Aggregate([]types.ScoredItem{item(0.8, 1, 0), item(-0.2, 2, 12)}, now, 24)
	assert.InDelta(t, 0.3, sig.Value, 1e-9)
	assert.Equal(t, 2, sig.SampleCount)
	assert.Equal(t, now, sig.AsOf)
}

func TestAggregateEmpty(t *testing.T) {
	sig := Aggregate(nil, now, 24)
	assert.Equal(t, 0.0, sig.Value)
	assert.Equal(t, 0, sig.SampleCount)
}

func TestAggregateZeroWeight(t *testing.T) {
	sig := Aggregate([]types.ScoredItem{item(0.9, 0, 0)}, now, 24)
	assert.Equal(t, 0.0, sig.Value)
}

func TestAggregateUniformFreshPolarity(t *testing.T) {
	sig := Aggregate([]types.ScoredItem{item(0.6, 1, 0), item(0.6, 2.5, 0), item(0.6, 3, 0)}, now, 24)
	assert.InDelta(t, 0.6, sig.Value, 1e-12)
}

func TestOlderItemWeighsLess(t *testing.T) {
	fresh := DecayFactor(now.Add(-1*time.Hour), now, 24)
	old := DecayFactor(now.Add(-10*time.Hour), now, 24)
	assert.Less(t, old, fresh)

	// a fresh positive and an older negative of equal importance lean positive
	sig := Aggregate([]types.ScoredItem{item(1, 1, 1), item(-1, 1, 10)}, now, 24)
	assert.Greater(t, sig.Value, 0.0)
}

func TestDecayFactor(t *testing.T) {
	assert.Equal(t, 1.0, DecayFactor(now, now, 24))
	assert.InDelta(t, 0.5, DecayFactor(now.Add(-12*time.Hour), now, 24), 1e-12)
	assert.Equal(t, 0.1, DecayFactor(now.Add(-100*time.Hour), now, 24))
	assert.Equal(t, 0.1, DecayFactor(now.Add(-24*time.Hour), now, 24))
	assert.Equal(t, 0.5, DecayFactor(time.Time{}, now, 24))
	assert.Equal(t, 1.0, DecayFactor(now.Add(2*time.Hour), now, 24))
}

func TestFutureItemWeighsLikeFresh(t *testing.T) {
	assert.Equal(t, 1.0, DecayFactor(now.Add(12*time.Hour), now, 24))

	items := []types.ScoredItem{item(1, 1, -12), item(-1, 1, 0)}
	sig := Aggregate(items, now, 24)
	assert.InDelta(t, 0.0, sig.Value, 1e-12)
}

func TestMissingTimestampUsesHalfDecay(t *testing.T) {
	items := []types.ScoredItem{
		{Polarity: 1, Importance: 1},
		item(-1, 1, 0),
	}
	// weights 0.5 and 1.0
	sig := Aggregate(items, now, 24)
	assert.InDelta(t, -1.0/3.0, sig.Value, 1e-12)
}

func TestAggregateOrderIndependent(t *testing.T) {
	items := []types.ScoredItem{
		item(0.13, 1.3, 0.5), item(-0.71, 2.5, 3), item(0.44, 1, 17),
		item(0.91, 3, 30), item(-0.05, 1.8, 8), item(0.27, 2.1, 0),
		{Polarity: 0.33, Importance: 1.6},
	}
	want := Aggregate(items, now, 24)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]types.ScoredItem(nil), items...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := Aggregate(shuffled, now, 24)
		assert.Equal(t, want.Value, got.Value)
	}

	assert.Equal(t, want, Aggregate(items, now, 24))
}
