// Public domain.

package ddsolver

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/soniakeys/discount/internal/ddata"
	"github.com/soniakeys/discount/internal/ddfunc"
)

// fit is the workspace for a single model fit.  Parameters are handled in
// two spaces: theta, the natural parameters (discount parameters followed
// by alpha), and z, the unconstrained space sampled by the chains, where
// positive parameters are log transformed.
type fit struct {
	// inputs.  fit constructed with these
	solver *Solver
	kind   ddfunc.Kind
	trials []ddata.Trial
	rnd    Rand

	params []ddfunc.Param // discount parameters then alpha
	np     int            // number of discount parameters
	eps    float64

	// scratch, reused by every posterior evaluation
	theta []float64
}

func (s *Solver) newFit(kind ddfunc.Kind, d *ddata.Data, rnd Rand) *fit {
	ps := append(append([]ddfunc.Param{}, kind.Params()...), ddfunc.Alpha)
	return &fit{
		solver: s,
		kind:   kind,
		trials: d.Trials,
		rnd:    rnd,
		params: ps,
		np:     len(ps) - 1,
		eps:    s.opt.Epsilon,
		theta:  make([]float64, len(ps)),
	}
}

// toTheta transforms z to natural parameters.
func (f *fit) toTheta(z, theta []float64) {
	for i, p := range f.params {
		if p.Positive {
			theta[i] = math.Exp(z[i])
		} else {
			theta[i] = z[i]
		}
	}
}

// toZ is the inverse of toTheta.
func (f *fit) toZ(theta []float64) []float64 {
	z := make([]float64, len(theta))
	for i, p := range f.params {
		if p.Positive {
			z[i] = math.Log(theta[i])
		} else {
			z[i] = theta[i]
		}
	}
	return z
}

// logPrior returns the log prior density of z, including the Jacobian of
// the log transform.  It leaves f.theta set from z.
func (f *fit) logPrior(z []float64) float64 {
	f.toTheta(z, f.theta)
	var lp float64
	for i, p := range f.params {
		th := f.theta[i]
		if p.Positive {
			if th == 0 || math.IsInf(th, 0) {
				return math.Inf(-1)
			}
			lp += z[i]
		}
		lp += p.Prior.LogProb(th)
	}
	return lp
}

// pChooseB returns the probability of choosing the delayed prospect.
func (f *fit) pChooseB(t *ddata.Trial, theta []float64) float64 {
	dp := theta[:f.np]
	va := t.A * f.kind.Fraction(t.DA, dp)
	vb := t.B * f.kind.Fraction(t.DB, dp)
	x := 0.
	if vb != va {
		x = (vb - va) / theta[f.np]
	}
	return f.eps + (1-2*f.eps)*distuv.UnitNormal.CDF(x)
}

// logBernoulli is the log probability of response r given P(r=1) = p.
func logBernoulli(r int, p float64) float64 {
	if r == 1 {
		return math.Log(p)
	}
	return math.Log1p(-p)
}

// logPost returns the unnormalized log posterior density at z.
func (f *fit) logPost(z []float64) float64 {
	lp := f.logPrior(z)
	if math.IsInf(lp, -1) || math.IsNaN(lp) {
		return math.Inf(-1)
	}
	for i := range f.trials {
		t := &f.trials[i]
		lp += logBernoulli(t.R, f.pChooseB(t, f.theta))
	}
	if math.IsNaN(lp) {
		return math.Inf(-1)
	}
	return lp
}
