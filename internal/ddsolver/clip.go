// Public domain.

package ddsolver

// clipEps bounds predicted probabilities away from 0 and 1 when scoring,
// so a confident wrong prediction costs a large but finite log loss.
const clipEps = 1e-15

// clipProb returns p limited to [clipEps, 1-clipEps].
func clipProb(p float64) float64 {
	if p < clipEps {
		return clipEps
	} else if p > 1-clipEps {
		return 1 - clipEps
	}
	return p
}
