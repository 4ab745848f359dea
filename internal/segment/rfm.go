package segment

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CustomerAggregate is one customer's order history, already reduced to
// the three RFM inputs.
type CustomerAggregate struct {
	CustomerID int64
	LastOrder  time.Time
	Orders     int
	Total      decimal.Decimal
}

// SegmentResult carries the quartile scores (1..4, 4 best) and the
// mapped segment label. Derived on demand, never persisted.
type SegmentResult struct {
	CustomerID int64
	Recency    int
	Frequency  int
	Monetary   int
	Label      string
}

// Score computes quartile RFM scores for every aggregate relative to
// the reference time. Pure and deterministic: identical input always
// yields identical output.
func Score(aggs []CustomerAggregate, at time.Time) []SegmentResult {
	if len(aggs) == 0 {
		return nil
	}

	recency := make([]float64, len(aggs))
	frequency := make([]float64, len(aggs))
	monetary := make([]float64, len(aggs))
	for i, agg := range aggs {
		recency[i] = at.Sub(agg.LastOrder).Hours()
		frequency[i] = float64(agg.Orders)
		monetary[i], _ = agg.Total.Float64()
	}

	// Recency inverts: the shortest gap since the last order scores 4.
	rScores := quartiles(recency, false)
	fScores := quartiles(frequency, true)
	mScores := quartiles(monetary, true)

	results := make([]SegmentResult, len(aggs))
	for i, agg := range aggs {
		results[i] = SegmentResult{
			CustomerID: agg.CustomerID,
			Recency:    rScores[i],
			Frequency:  fScores[i],
			Monetary:   mScores[i],
			Label:      label(rScores[i], fScores[i], mScores[i]),
		}
	}
	return results
}

// quartiles assigns each value a 1..4 score by rank. Equal values share
// a score regardless of input order.
func quartiles(values []float64, higherIsBetter bool) []int {
	n := len(values)
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	scores := make([]int, n)
	for i, v := range values {
		// Rank of the first occurrence, so ties collapse.
		rank := sort.SearchFloat64s(sorted, v)
		score := rank*4/n + 1
		if !higherIsBetter {
			score = 5 - score
		}
		scores[i] = score
	}
	return scores
}

// label maps a score triple to its segment. Fixed table, mirroring the
// usual RFM grid.
func label(r, f, m int) string {
	switch {
	case r >= 4 && f >= 4:
		return "Champions"
	case r >= 3 && f >= 3:
		return "Loyal Customers"
	case r >= 3 && m >= 3:
		return "Big Spenders"
	case r >= 3:
		return "Potential Loyalist"
	case r == 2 && f >= 3:
		return "At Risk"
	case r == 1 && f >= 4:
		return "Can't Lose Them"
	case r <= 2 && f <= 2:
		return "Hibernating"
	default:
		return "Needs Attention"
	}
}
