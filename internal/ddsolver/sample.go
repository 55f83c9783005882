// Public domain.

package ddsolver

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// some parameters for the sampler
const (
	initStep     = .25 // initial proposal sd, z space
	jitter       = .1  // sd of chain starting offsets from the MAP point
	adaptEvery   = 50  // tuning iterations between proposal updates
	targetAccept = .44 // per coordinate acceptance rate sought in tuning
	blockAccept  = .3  // block acceptance rate sought in tuning
	minStep      = 1e-4
	maxStep      = 10
	minHist      = 50    // tuning draws needed to estimate a covariance
	covJitter    = 1e-8  // added to the covariance diagonal
	minVar       = 1e-12 // smaller variance means the chain has not moved
	ctxEvery     = 100   // iterations between cancellation checks
)

// walker is the state of one chain.
//
// Each iteration updates one coordinate at a time.  From halfway through
// tuning, if enough tuning draws are available, each iteration also makes
// a block move of all coordinates at once, proposed from a normal with the
// covariance of the chain's own tuning draws, scaled.  Both kernels leave
// the posterior invariant.  Proposals are fixed once tuning ends.
type walker struct {
	f    *fit
	z    []float64
	lp   float64
	step []float64 // per coordinate proposal sd
	acc  []int     // per coordinate acceptances since last adaptation

	chol  [][]float64 // lower Cholesky factor of the proposal covariance
	scale float64     // multiplier of chol
	bAcc  int         // block acceptances since last adaptation

	prop, xi []float64 // scratch
}

func (f *fit) newWalker(z0 []float64) *walker {
	nd := len(z0)
	w := &walker{
		f:    f,
		z:    make([]float64, nd),
		step: make([]float64, nd),
		acc:  make([]int, nd),
		prop: make([]float64, nd),
		xi:   make([]float64, nd),
	}
	for j := range w.z {
		w.z[j] = z0[j] + jitter*f.rnd.NormFloat64()
		w.step[j] = initStep
	}
	w.lp = f.logPost(w.z)
	if math.IsInf(w.lp, -1) {
		// jitter landed somewhere impossible.  start at z0 itself.
		copy(w.z, z0)
		w.lp = f.logPost(w.z)
	}
	return w
}

// update makes one sampler iteration and returns the number of accepted
// and proposed moves.
func (w *walker) update() (accepted, proposed int) {
	accepted, proposed = w.coordUpdate()
	if w.chol != nil {
		a, p := w.blockUpdate()
		accepted += a
		proposed += p
	}
	return
}

func (w *walker) coordUpdate() (accepted, proposed int) {
	for j := range w.z {
		old := w.z[j]
		w.z[j] += w.step[j] * w.f.rnd.NormFloat64()
		lpNew := w.f.logPost(w.z)
		if math.Log(w.f.rnd.Float64()) < lpNew-w.lp {
			w.lp = lpNew
			w.acc[j]++
			accepted++
		} else {
			w.z[j] = old
		}
	}
	return accepted, len(w.z)
}

func (w *walker) blockUpdate() (accepted, proposed int) {
	for j := range w.xi {
		w.xi[j] = w.f.rnd.NormFloat64()
	}
	for i, row := range w.chol {
		var d float64
		for j, l := range row {
			d += l * w.xi[j]
		}
		w.prop[i] = w.z[i] + w.scale*d
	}
	lpNew := w.f.logPost(w.prop)
	if math.Log(w.f.rnd.Float64()) < lpNew-w.lp {
		copy(w.z, w.prop)
		w.lp = lpNew
		w.bAcc++
		return 1, 1
	}
	return 0, 1
}

// adapt tunes proposals after adaptEvery iterations.  hist holds tuning
// draws for covariance estimation; allowBlock permits starting or
// updating block moves.
func (w *walker) adapt(hist [][]float64, allowBlock bool) {
	for j := range w.step {
		rate := float64(w.acc[j]) / adaptEvery
		w.step[j] = math.Min(maxStep,
			math.Max(minStep, w.step[j]*math.Exp(2*(rate-targetAccept))))
		w.acc[j] = 0
	}
	if w.chol != nil {
		rate := float64(w.bAcc) / adaptEvery
		w.scale = math.Min(maxStep,
			math.Max(minStep, w.scale*math.Exp(2*(rate-blockAccept))))
		w.bAcc = 0
	}
	if !allowBlock || len(hist) < minHist {
		return
	}
	l := cholCov(hist)
	if l == nil {
		return
	}
	if w.chol == nil {
		w.scale = 2.38 / math.Sqrt(float64(len(w.z)))
	}
	w.chol = l
}

// cholCov returns the lower Cholesky factor of the sample covariance of
// draws, as rows, or nil if the covariance is degenerate.
func cholCov(draws [][]float64) [][]float64 {
	n, d := len(draws), len(draws[0])
	x := mat.NewDense(n, d, nil)
	for i, z := range draws {
		x.SetRow(i, z)
	}
	cov := mat.NewSymDense(d, nil)
	stat.CovarianceMatrix(cov, x, nil)
	for i := 0; i < d; i++ {
		v := cov.At(i, i)
		if !(v > minVar) || math.IsInf(v, 0) {
			return nil
		}
		cov.SetSym(i, i, v+covJitter)
	}
	var chol mat.Cholesky
	if !chol.Factorize(cov) {
		return nil
	}
	lt := mat.NewTriDense(d, mat.Lower, nil)
	chol.LTo(lt)
	rows := make([][]float64, d)
	for i := range rows {
		rows[i] = make([]float64, i+1)
		for j := range rows[i] {
			rows[i][j] = lt.At(i, j)
		}
	}
	return rows
}

// sample runs the chains from z0 and returns the retained draws in natural
// parameter space, split R-hat per parameter, and the acceptance rate.
func (f *fit) sample(ctx context.Context, z0 []float64) (Trace, []float64, float64, error) {
	opt := f.solver.opt
	nd := len(z0)
	tr := Trace{
		Names:   make([]string, nd),
		Samples: make([][]float64, nd),
	}
	for j, p := range f.params {
		tr.Names[j] = p.Name
		tr.Samples[j] = make([]float64, 0, opt.Chains*opt.Draws)
	}
	theta := make([]float64, nd)
	var accepted, proposed int
	for c := 0; c < opt.Chains; c++ {
		w := f.newWalker(z0)
		// tuning draws after the first quarter of tuning
		var hist [][]float64
		for it := 0; it < opt.Tune+opt.Draws; it++ {
			if it%ctxEvery == 0 {
				if err := ctx.Err(); err != nil {
					return Trace{}, nil, 0, err
				}
			}
			a, p := w.update()
			if it < opt.Tune {
				if it >= opt.Tune/4 {
					hist = append(hist, append([]float64{}, w.z...))
				}
				if (it+1)%adaptEvery == 0 {
					w.adapt(hist, it+1 >= opt.Tune/2)
				}
				continue
			}
			accepted += a
			proposed += p
			f.toTheta(w.z, theta)
			for j, th := range theta {
				tr.Samples[j] = append(tr.Samples[j], th)
			}
		}
	}
	rhat := make([]float64, nd)
	for j, s := range tr.Samples {
		rhat[j] = splitRHat(s, opt.Chains)
	}
	return tr, rhat, float64(accepted) / float64(proposed), nil
}

// splitRHat computes the potential scale reduction factor with each of
// the chains, concatenated in draws, split in half.  The result is NaN if
// there are too few draws or every sequence is constant.
func splitRHat(draws []float64, chains int) float64 {
	n := len(draws) / chains / 2
	if n < 2 {
		return math.NaN()
	}
	m := 2 * chains
	means := make([]float64, m)
	vars := make([]float64, m)
	per := len(draws) / chains
	for c := 0; c < chains; c++ {
		ch := draws[c*per : (c+1)*per]
		for h := 0; h < 2; h++ {
			seq := ch[h*n : (h+1)*n]
			means[2*c+h], vars[2*c+h] = stat.MeanVariance(seq, nil)
		}
	}
	w := stat.Mean(vars, nil)
	if !(w > 0) {
		return math.NaN()
	}
	b := float64(n) * stat.Variance(means, nil)
	nf := float64(n)
	v := (nf-1)/nf*w + b/nf
	return math.Sqrt(v / w)
}
