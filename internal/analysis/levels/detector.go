// Package levels detects support and resistance zones from recent price
// history. Local extrema are clustered into weighted levels whose strength
// is the number of times price reversed there.
package levels

import (
	"math"
	"sort"

	"stockscan/internal/analysis"
	"stockscan/internal/models"
)

const (
	// DefaultLookback is the window of recent bars scanned for pivots.
	DefaultLookback = 50
	// pivotWing is the number of bars on each side a pivot must dominate.
	pivotWing = 2
	// maxDistanceFraction drops candidates farther than this from the
	// reference price: a level 30% away is not actionable for a setup
	// entered today.
	maxDistanceFraction = 0.10
	// clusterTolerance merges same-type candidates within this fraction of
	// each other into one level.
	clusterTolerance = 0.005
	// minStrength drops one-touch candidates; a level needs at least two
	// reversals to count.
	minStrength = 2
)

// pivot is a raw extremum before clustering.
type pivot struct {
	price     float64
	levelType analysis.LevelType
}

// Detect scans the most recent lookback bars for support and resistance
// levels around the reference price. Levels are sorted by strength
// descending, then by absolute distance ascending. An empty result means
// no level cleared the strength bar, which callers treat as "fall back to
// ATR-derived stops", not as an error.
func Detect(bars []models.Bar, referencePrice float64, lookback int) []analysis.Level {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	if referencePrice <= 0 {
		return nil
	}
	if len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}
	if len(bars) < 2*pivotWing+1 {
		return nil
	}

	pivots := findPivots(bars)
	pivots = filterByDistance(pivots, referencePrice)
	clustered := cluster(pivots)

	result := make([]analysis.Level, 0, len(clustered))
	for _, c := range clustered {
		if c.strength < minStrength {
			continue
		}
		result = append(result, analysis.Level{
			Price:           c.price,
			Type:            c.levelType,
			Strength:        c.strength,
			DistancePercent: (c.price - referencePrice) / referencePrice * 100,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Strength != result[j].Strength {
			return result[i].Strength > result[j].Strength
		}
		return math.Abs(result[i].DistancePercent) < math.Abs(result[j].DistancePercent)
	})
	return result
}

// findPivots collects local extrema: a bar whose low is not above the lows
// of the two bars on each side is a support candidate, and symmetrically
// for highs and resistance.
func findPivots(bars []models.Bar) []pivot {
	var pivots []pivot
	for i := pivotWing; i < len(bars)-pivotWing; i++ {
		isLow, isHigh := true, true
		for j := i - pivotWing; j <= i+pivotWing; j++ {
			if j == i {
				continue
			}
			if bars[i].Low > bars[j].Low {
				isLow = false
			}
			if bars[i].High < bars[j].High {
				isHigh = false
			}
		}
		if isLow {
			pivots = append(pivots, pivot{price: bars[i].Low, levelType: analysis.LevelSupport})
		}
		if isHigh {
			pivots = append(pivots, pivot{price: bars[i].High, levelType: analysis.LevelResistance})
		}
	}
	return pivots
}

func filterByDistance(pivots []pivot, reference float64) []pivot {
	kept := pivots[:0]
	for _, p := range pivots {
		if math.Abs(p.price-reference)/reference <= maxDistanceFraction {
			kept = append(kept, p)
		}
	}
	return kept
}

// clusteredLevel accumulates pivots into a running weighted average.
type clusteredLevel struct {
	price     float64
	levelType analysis.LevelType
	strength  int
}

func (c *clusteredLevel) absorb(price float64) {
	c.price = (c.price*float64(c.strength) + price) / float64(c.strength+1)
	c.strength++
}

// cluster merges same-type pivots within clusterTolerance of an existing
// cluster's running average.
func cluster(pivots []pivot) []*clusteredLevel {
	var clusters []*clusteredLevel
	for _, p := range pivots {
		var home *clusteredLevel
		for _, c := range clusters {
			if c.levelType != p.levelType {
				continue
			}
			if math.Abs(p.price-c.price)/c.price <= clusterTolerance {
				home = c
				break
			}
		}
		if home != nil {
			home.absorb(p.price)
		} else {
			clusters = append(clusters, &clusteredLevel{
				price:     p.price,
				levelType: p.levelType,
				strength:  1,
			})
		}
	}
	return clusters
}

// NearestBelow returns the strongest-first nearest level of the given type
// strictly below the price, or nil.
func NearestBelow(lvls []analysis.Level, levelType analysis.LevelType, price float64) *analysis.Level {
	var best *analysis.Level
	for i := range lvls {
		l := &lvls[i]
		if l.Type != levelType || l.Price >= price {
			continue
		}
		if best == nil || l.Price > best.Price {
			best = l
		}
	}
	return best
}

// NearestAbove returns the nearest level of the given type strictly above
// the price, or nil.
func NearestAbove(lvls []analysis.Level, levelType analysis.LevelType, price float64) *analysis.Level {
	var best *analysis.Level
	for i := range lvls {
		l := &lvls[i]
		if l.Type != levelType || l.Price <= price {
			continue
		}
		if best == nil || l.Price < best.Price {
			best = l
		}
	}
	return best
}
