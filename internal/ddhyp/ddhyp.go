// Public domain.

// Package ddhyp tests hypotheses about how a state, such as hunger, changes
// delay discounting across commodities.
//
// The observations are per participant changes in discount function AUC
// between a state condition and a baseline condition, for each of three
// commodities: food, money, and music.  Each hypothesis is a model giving
// the location of a Cauchy distribution of these changes for each
// commodity.  Models are fit by maximum likelihood and compared by AIC and
// BIC.
package ddhyp

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/soniakeys/discount/internal/ddcsv"
)

// Commodities, in the order of Delta fields.
const (
	Food  = "food"
	Money = "money"
	Music = "music"
)

var ErrData = errors.New("unusable hypothesis data")

// Delta holds one participant's AUC changes, state minus baseline.
type Delta struct {
	ID                 string
	Food, Money, Music float64
}

// Deltas computes AUC changes from result rows of a single discount
// function.  Participants lacking any of the six commodity and condition
// combinations are returned in skipped, sorted, and left out of the
// deltas.
func Deltas(rows []ddcsv.Row, state, baseline string) (d []Delta, skipped []string, err error) {
	if state == baseline {
		return nil, nil, fmt.Errorf("%w: state and baseline both %q", ErrData, state)
	}
	type cell struct{ id, commodity, condition string }
	auc := map[cell]float64{}
	ids := map[string]bool{}
	for _, r := range rows {
		if r.Condition != state && r.Condition != baseline {
			continue
		}
		c := cell{r.ID, r.Commodity, r.Condition}
		if _, dup := auc[c]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate row for %s %s %s",
				ErrData, r.ID, r.Commodity, r.Condition)
		}
		auc[c] = r.AUC
		ids[r.ID] = true
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)
participant:
	for _, id := range sorted {
		var ch [3]float64
		for i, com := range []string{Food, Money, Music} {
			s, ok1 := auc[cell{id, com, state}]
			b, ok2 := auc[cell{id, com, baseline}]
			if !ok1 || !ok2 || math.IsNaN(s) || math.IsNaN(b) {
				skipped = append(skipped, id)
				continue participant
			}
			ch[i] = s - b
		}
		d = append(d, Delta{id, ch[0], ch[1], ch[2]})
	}
	if len(d) == 0 {
		return nil, skipped, fmt.Errorf("%w: no participant has complete data", ErrData)
	}
	return d, skipped, nil
}

// Bound is an inclusive parameter range.  Infinite ends are unbounded.
type Bound struct {
	Lo, Hi float64
}

var (
	unbounded = Bound{math.Inf(-1), math.Inf(1)}
	nonPos    = Bound{math.Inf(-1), 0}
	nonNeg    = Bound{0, math.Inf(1)}
)

// Model is one hypothesis.  The last parameter is always the common
// Cauchy scale.
type Model struct {
	Name   string
	X0     []float64 // starting parameters
	Bounds []Bound   // one per parameter
	// loc gives the Cauchy locations for food, money, music
	loc func(p []float64) (food, money, music float64)
}

// Models lists the hypotheses in presentation order.
var Models = []*Model{
	{"1. Trait only", []float64{.05},
		[]Bound{unbounded},
		func(p []float64) (float64, float64, float64) { return 0, 0, 0 }},
	{"2. In-domain", []float64{-.25, .05},
		[]Bound{unbounded, unbounded},
		func(p []float64) (float64, float64, float64) { return p[0], 0, 0 }},
	{"3. Monetary primacy", []float64{-.25, .05},
		[]Bound{unbounded, unbounded},
		func(p []float64) (float64, float64, float64) { return p[0], p[0], 0 }},
	{"4. Devaluation", []float64{-.25, .1, .05},
		[]Bound{nonPos, nonNeg, nonNeg},
		func(p []float64) (float64, float64, float64) { return p[0], p[1], p[1] }},
	{"5. Spillover", []float64{-.25, -.1, .05},
		[]Bound{unbounded, unbounded, unbounded},
		func(p []float64) (float64, float64, float64) { return p[0], p[1], p[1] }},
	{"6. State-only", []float64{-.25, .05},
		[]Bound{unbounded, unbounded},
		func(p []float64) (float64, float64, float64) { return p[0], p[0], p[0] }},
}

// FreeParams is the number of fitted parameters.
func (m *Model) FreeParams() int { return len(m.X0) }

// NLL returns the negative log likelihood of d at parameters p, +Inf if p
// is out of bounds or the scale is not positive.
func (m *Model) NLL(p []float64, d []Delta) float64 {
	for i, b := range m.Bounds {
		if p[i] < b.Lo || p[i] > b.Hi {
			return math.Inf(1)
		}
	}
	scale := p[len(p)-1]
	if !(scale > 0) {
		return math.Inf(1)
	}
	lf, lm, lu := m.loc(p)
	cf := distuv.StudentsT{Mu: lf, Sigma: scale, Nu: 1}
	cm := distuv.StudentsT{Mu: lm, Sigma: scale, Nu: 1}
	cu := distuv.StudentsT{Mu: lu, Sigma: scale, Nu: 1}
	var ll float64
	for _, x := range d {
		ll += cf.LogProb(x.Food) + cm.LogProb(x.Money) + cu.LogProb(x.Music)
	}
	return -ll
}

// Fit is a maximum likelihood fit of a model.
type Fit struct {
	Model *Model
	X     []float64 // ML parameters
	LL    float64   // log likelihood at X
	AIC   float64
	BIC   float64
	N     int // participants
}

// objective value substituted where the likelihood is zero or undefined
const hugeNLL = 1e300

// FitModel finds parameters of m minimizing the negative log likelihood
// of d.
func FitModel(m *Model, d []Delta) (*Fit, error) {
	if len(d) == 0 {
		return nil, fmt.Errorf("%w: no deltas", ErrData)
	}
	p := optimize.Problem{
		Func: func(x []float64) float64 {
			v := m.NLL(x, d)
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return hugeNLL
			}
			return v
		},
	}
	settings := &optimize.Settings{FuncEvaluations: 2000 * len(m.X0)}
	res, err := optimize.Minimize(p, append([]float64{}, m.X0...), settings, &optimize.NelderMead{})
	if res == nil {
		return nil, fmt.Errorf("%s: %w", m.Name, err)
	}
	nll := m.NLL(res.X, d)
	if math.IsInf(nll, 0) || math.IsNaN(nll) {
		return nil, fmt.Errorf("%s: no valid solution found", m.Name)
	}
	k := float64(m.FreeParams())
	n := len(d)
	return &Fit{
		Model: m,
		X:     res.X,
		LL:    -nll,
		AIC:   2*nll + 2*k,
		BIC:   2*nll + math.Log(float64(n))*k,
		N:     n,
	}, nil
}

// FitAll fits every model in Models, in order.
func FitAll(d []Delta) ([]*Fit, error) {
	fits := make([]*Fit, len(Models))
	for i, m := range Models {
		f, err := FitModel(m, d)
		if err != nil {
			return nil, err
		}
		fits[i] = f
	}
	return fits, nil
}
