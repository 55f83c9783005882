// Public domain.

// Package ddsolver fits discount function models to choice data.
//
// A model pairs a discount function with a psychometric choice rule.
// Subjective values of the two prospects are VA = A·δ(DA) and VB = B·δ(DB);
// the probability of choosing the delayed prospect is
//
//	P = ε + (1-2ε)·Φ((VB-VA)/α)
//
// Parameters are estimated by Markov chain Monte Carlo from the posterior
// under the priors declared in package ddfunc.  Fit results carry the
// posterior trace along with scores used to compare models.
package ddsolver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/soniakeys/discount/internal/ddata"
	"github.com/soniakeys/discount/internal/ddfunc"
)

// Options are sampler and scoring settings.
type Options struct {
	Draws    int     // retained draws per chain
	Tune     int     // discarded tuning iterations per chain
	Chains   int     // independent chains
	Epsilon  float64 // lapse rate of the choice rule
	MaxDelay float64 // delay range for AUC
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		Draws:    1000,
		Tune:     1000,
		Chains:   2,
		Epsilon:  .01,
		MaxDelay: ddfunc.DefaultMaxDelay,
	}
}

var ErrOptions = errors.New("invalid solver options")

// Validate reports the first unusable setting.
func (o Options) Validate() error {
	switch {
	case o.Draws < 2:
		return fmt.Errorf("%w: draws %d, need at least 2", ErrOptions, o.Draws)
	case o.Tune < 0:
		return fmt.Errorf("%w: tune %d", ErrOptions, o.Tune)
	case o.Chains < 1:
		return fmt.Errorf("%w: chains %d", ErrOptions, o.Chains)
	case !(o.Epsilon >= 0 && o.Epsilon < .5):
		return fmt.Errorf("%w: epsilon %g not in [0, 0.5)", ErrOptions, o.Epsilon)
	case !(o.MaxDelay > 0) || math.IsInf(o.MaxDelay, 0):
		return fmt.Errorf("%w: max delay %g", ErrOptions, o.MaxDelay)
	}
	return nil
}

// Solver holds options common to all fits.  It is safe for concurrent use;
// all per-fit state lives in the workspace created by Fit.
type Solver struct {
	opt Options
}

// New creates a Solver.  Options should already be validated.
func New(opt Options) *Solver {
	return &Solver{opt}
}

// Options returns the options the solver was created with.
func (s *Solver) Options() Options { return s.opt }

// Rand is the random number source used for sampling.  It is satisfied
// by *golang.org/x/exp/rand.Rand, which the command line program seeds
// per fit so that results can be made repeatable.
type Rand interface {
	Float64() float64
	NormFloat64() float64
}

// Trace holds posterior draws, chains concatenated.  Samples[j] are the
// draws of parameter Names[j].
type Trace struct {
	Names   []string
	Samples [][]float64
}

// Param returns the draws of the named parameter, nil if there is none.
func (t Trace) Param(name string) []float64 {
	for j, n := range t.Names {
		if n == name {
			return t.Samples[j]
		}
	}
	return nil
}

// Len returns the number of draws.
func (t Trace) Len() int {
	if len(t.Samples) == 0 {
		return 0
	}
	return len(t.Samples[0])
}

// Metrics score a fitted model against the data it was fit to.
type Metrics struct {
	LogLoss float64 // mean over draws of LogLossSamples
	AUC     float64 // normalized area under the posterior mean curve
	WAIC    float64 // deviance scale, lower is better
	WAICSE  float64
	PWAIC   float64 // effective number of parameters
	ROCAUC  float64 // mean over draws; NaN if only one response occurs
	MCC     float64 // Matthews correlation of posterior mean predictions

	LogLossSamples []float64 // one per draw
}

// Result is a fitted model.  It is not modified after Fit returns.
type Result struct {
	Kind    ddfunc.Kind
	Session ddata.Session
	Params  []float64 // posterior means, in Kind.ParamNames order
	Alpha   float64   // posterior mean of the choice noise
	Trace   Trace     // discount parameters followed by alpha
	RHat    []float64 // split R-hat by trace parameter
	// Converged is false if any R-hat exceeds RHatLimit or could not
	// be computed.  Unconverged results are returned, not retried.
	Converged bool
	Accept    float64 // acceptance rate over retained iterations
	Metrics
}

// RHatLimit is the largest split R-hat accepted as converged.
const RHatLimit = 1.1

// MeanParameters returns posterior means of the discount parameters by name.
func (r *Result) MeanParameters() map[string]float64 {
	m := make(map[string]float64, len(r.Params))
	for i, n := range r.Kind.ParamNames() {
		m[n] = r.Params[i]
	}
	return m
}

// Fit samples the posterior of kind given the trials in d and scores the
// result.  rnd is used for all random draws; a Rand seeded identically
// gives an identical Result.
func (s *Solver) Fit(ctx context.Context, kind ddfunc.Kind, d *ddata.Data, rnd Rand) (*Result, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ddfunc.ErrUnknownKind, int(kind))
	}
	if len(d.Trials) == 0 {
		return nil, fmt.Errorf("%s: no trials", d.Path)
	}
	f := s.newFit(kind, d, rnd) // create workspace
	z0 := f.start()
	tr, rhat, accept, err := f.sample(ctx, z0)
	if err != nil {
		return nil, err
	}
	r := &Result{
		Kind:      kind,
		Session:   d.Session,
		Trace:     tr,
		RHat:      rhat,
		Converged: true,
		Accept:    accept,
	}
	for _, rh := range rhat {
		if !(rh <= RHatLimit) {
			r.Converged = false
		}
	}
	r.Params = make([]float64, f.np)
	for j := range r.Params {
		r.Params[j] = stat.Mean(tr.Samples[j], nil)
	}
	r.Alpha = stat.Mean(tr.Samples[f.np], nil)
	r.Metrics, err = f.score(tr, r.Params)
	if err != nil {
		return nil, err
	}
	return r, nil
}
