// Public domain.

package ddsolver

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// initial natural parameter values by name, before optimization
var initTheta = map[string]float64{
	"k":     1. / 50,
	"logk":  math.Log(1. / 50),
	"s":     1,
	"alpha": 1,
}

// objective value substituted where the log posterior is not finite
const hugeNLP = 1e300

// start returns a starting point for the chains: the maximum a posteriori
// estimate, in z space.  If the optimizer fails, the initial guess is
// returned and tuning must find the posterior mass.
func (f *fit) start() []float64 {
	theta := make([]float64, len(f.params))
	for i, p := range f.params {
		theta[i] = initTheta[p.Name]
	}
	z0 := f.toZ(theta)

	p := optimize.Problem{
		Func: func(z []float64) float64 {
			lp := f.logPost(z)
			if math.IsInf(lp, 0) || math.IsNaN(lp) {
				return hugeNLP
			}
			return -lp
		},
	}
	settings := &optimize.Settings{FuncEvaluations: 400 * len(z0)}
	res, err := optimize.Minimize(p, z0, settings, &optimize.NelderMead{})
	if res == nil || len(res.X) != len(z0) {
		return z0
	}
	if err != nil && !(res.F < p.Func(z0)) {
		return z0
	}
	return res.X
}
