// Public domain.

// Package ddfunc defines the discount functions fitted by discount: four
// parametric families mapping a delay and a parameter vector to a discount
// fraction in [0,1].
package ddfunc

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat/distuv"
)

// Kind identifies one of the modeled discount function families.
type Kind int

const (
	Exponential Kind = iota
	Hyperbolic
	ModifiedRachlin
	Hyperboloid
)

// AUCPoints is the number of delays at which a curve is evaluated for AUC.
const AUCPoints = 500

// DefaultMaxDelay is the delay range, in days, over which AUC is computed
// when no other range is configured.
const DefaultMaxDelay = 30.

var (
	ErrInvalidParam = errors.New("invalid discount function parameters")
	ErrInvalidDelay = errors.New("invalid delay")
	ErrUnknownKind  = errors.New("unknown discount function")
)

// Prior is a log density over a single parameter.
type Prior interface {
	LogProb(x float64) float64
}

// HalfNormal is a normal distribution with mean zero folded onto x >= 0.
type HalfNormal struct {
	Sigma float64
}

// LogProb returns the log density at x, -Inf for x < 0.
func (h HalfNormal) LogProb(x float64) float64 {
	if x < 0 {
		return math.Inf(-1)
	}
	return math.Ln2 + distuv.Normal{Mu: 0, Sigma: h.Sigma}.LogProb(x)
}

// Param describes one parameter of a discount function.
type Param struct {
	Name     string
	Positive bool // must be > 0; sampled on the log scale
	Prior    Prior
}

// Alpha is the choice noise parameter shared by every model.  It scales
// the value difference in the psychometric choice function.
var Alpha = Param{"alpha", true, distuv.Exponential{Rate: 1}}

var logkPrior = distuv.Normal{Mu: math.Log(1. / 50), Sigma: 2}

// Kinds lists the modeled discount functions, indexed by Kind.
var Kinds = []struct {
	Abbr, Heading string
	Params        []Param
	fraction      func(t float64, p []float64) float64
}{
	{"Exp", "Exponential", []Param{
		{"k", true, HalfNormal{.5}},
	}, exponential},
	{"Hyp", "Hyperbolic", []Param{
		{"logk", false, logkPrior},
	}, hyperbolic},
	{"MR", "ModifiedRachlin", []Param{
		{"logk", false, logkPrior},
		{"s", true, HalfNormal{.5}},
	}, modifiedRachlin},
	{"HB", "Hyperboloid", []Param{
		{"logk", false, logkPrior},
		{"s", true, HalfNormal{1}},
	}, hyperboloid},
}

// All returns every Kind in table order.
func All() []Kind {
	k := make([]Kind, len(Kinds))
	for i := range k {
		k[i] = Kind(i)
	}
	return k
}

// ParseKind matches a heading or abbreviation, ignoring case.
func ParseKind(s string) (Kind, error) {
	for i, k := range Kinds {
		if strings.EqualFold(s, k.Heading) || strings.EqualFold(s, k.Abbr) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Valid reports whether k names a function in Kinds.
func (k Kind) Valid() bool { return k >= 0 && int(k) < len(Kinds) }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return Kinds[k].Heading
}

// Abbr returns the short column name of the function, "" for an invalid
// Kind.
func (k Kind) Abbr() string {
	if !k.Valid() {
		return ""
	}
	return Kinds[k].Abbr
}

// Params returns the discount parameters, not including Alpha.  It
// returns nil for an invalid Kind.
func (k Kind) Params() []Param {
	if !k.Valid() {
		return nil
	}
	return Kinds[k].Params
}

// ParamNames returns the names of the discount parameters.
func (k Kind) ParamNames() []string {
	ps := k.Params()
	n := make([]string, len(ps))
	for i, p := range ps {
		n[i] = p.Name
	}
	return n
}

// Validate checks a parameter vector for k.
func (k Kind) Validate(p []float64) error {
	if !k.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	ps := Kinds[k].Params
	if len(p) != len(ps) {
		return fmt.Errorf("%w: %s takes %d parameters, got %d",
			ErrInvalidParam, k, len(ps), len(p))
	}
	for i, x := range p {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %s = %g", ErrInvalidParam, ps[i].Name, x)
		}
		if ps[i].Positive && x <= 0 {
			return fmt.Errorf("%w: %s = %g, must be > 0",
				ErrInvalidParam, ps[i].Name, x)
		}
	}
	return nil
}

// Discount returns the discount fraction at delay t, validating arguments.
func (k Kind) Discount(t float64, p []float64) (float64, error) {
	if err := k.Validate(p); err != nil {
		return 0, err
	}
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("%w: %g", ErrInvalidDelay, t)
	}
	return k.Fraction(t, p), nil
}

// Fraction returns the discount fraction at delay t without validation.
// p must satisfy Validate.
func (k Kind) Fraction(t float64, p []float64) float64 {
	if t == 0 {
		// k*t would be NaN for an overflowed k
		return 1
	}
	return Kinds[k].fraction(t, p)
}

// Curve evaluates the function at each delay.  p must satisfy Validate.
func (k Kind) Curve(delays, p []float64) []float64 {
	df := make([]float64, len(delays))
	for i, t := range delays {
		df[i] = k.Fraction(t, p)
	}
	return df
}

// AUC returns the area under the discount curve over delays [0, maxDelay]
// with the delay axis normalized to [0,1].  The result is in [0,1].
func (k Kind) AUC(p []float64, maxDelay float64) (float64, error) {
	if err := k.Validate(p); err != nil {
		return math.NaN(), err
	}
	if !(maxDelay > 0) || math.IsInf(maxDelay, 0) {
		return math.NaN(), fmt.Errorf("%w: max delay %g", ErrInvalidDelay, maxDelay)
	}
	delays := floats.Span(make([]float64, AUCPoints), 0, maxDelay)
	df := k.Curve(delays, p)
	x := floats.Span(make([]float64, AUCPoints), 0, 1)
	return integrate.Trapezoidal(x, df), nil
}

func exponential(t float64, p []float64) float64 {
	return math.Exp(-p[0] * t)
}

func hyperbolic(t float64, p []float64) float64 {
	return 1 / (1 + math.Exp(p[0])*t)
}

func modifiedRachlin(t float64, p []float64) float64 {
	return 1 / (1 + math.Pow(math.Exp(p[0])*t, p[1]))
}

func hyperboloid(t float64, p []float64) float64 {
	return 1 / math.Pow(1+math.Exp(p[0])*t, p[1])
}
