// Public domain.

package ddsolver

import (
	"math"
	"sort"
)

// Comparison is one row of a model comparison table.
type Comparison struct {
	*Result
	Rank   int     // 1 is best
	DWAIC  float64 // WAIC minus the best WAIC
	Weight float64 // relative likelihood, exp(-DWAIC/2) normalized
}

// Compare ranks fits of the same data by WAIC, best first.  Results with a
// WAIC that is not finite rank last and get zero weight.
func Compare(results []*Result) []Comparison {
	c := make([]Comparison, len(results))
	for i, r := range results {
		c[i].Result = r
	}
	finite := func(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
	sort.SliceStable(c, func(i, j int) bool {
		wi, wj := c[i].WAIC, c[j].WAIC
		if !finite(wj) {
			return finite(wi)
		}
		return finite(wi) && wi < wj
	})
	if len(c) == 0 {
		return c
	}
	best := c[0].WAIC
	var sum float64
	for i := range c {
		c[i].Rank = i + 1
		c[i].DWAIC = c[i].WAIC - best
		if finite(c[i].DWAIC) {
			c[i].Weight = math.Exp(-c[i].DWAIC / 2)
			sum += c[i].Weight
		}
	}
	if sum > 0 {
		for i := range c {
			c[i].Weight /= sum
		}
	}
	return c
}
