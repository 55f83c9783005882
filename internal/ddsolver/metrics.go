// Public domain.

package ddsolver

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// score computes Metrics for a trace.  mean holds posterior mean discount
// parameters.
func (f *fit) score(tr Trace, mean []float64) (m Metrics, err error) {
	ns := tr.Len()
	nt := len(f.trials)
	r := make([]float64, nt)
	classes := make([]bool, nt)
	for i, t := range f.trials {
		r[i] = float64(t.R)
		classes[i] = t.R == 1
	}

	// p[s][i] = P(chooseB) for draw s and trial i.  ll[i][s] = log likelihood.
	p := make([][]float64, ns)
	ll := make([][]float64, nt)
	for i := range ll {
		ll[i] = make([]float64, ns)
	}
	theta := make([]float64, len(tr.Samples))
	for s := 0; s < ns; s++ {
		for j := range theta {
			theta[j] = tr.Samples[j][s]
		}
		ps := make([]float64, nt)
		for i := range f.trials {
			t := &f.trials[i]
			ps[i] = f.pChooseB(t, theta)
			ll[i][s] = logBernoulli(t.R, ps[i])
		}
		p[s] = ps
	}

	m.LogLossSamples = make([]float64, ns)
	for s, ps := range p {
		m.LogLossSamples[s] = logLoss(r, ps)
	}
	m.LogLoss = stat.Mean(m.LogLossSamples, nil)

	m.WAIC, m.WAICSE, m.PWAIC = waic(ll)

	m.ROCAUC = math.NaN()
	if pos := floats.Sum(r); pos > 0 && pos < float64(nt) {
		aucs := make([]float64, ns)
		for s, ps := range p {
			aucs[s] = rocAUC(ps, classes)
		}
		m.ROCAUC = stat.Mean(aucs, nil)
	}

	pMean := make([]float64, nt)
	for i := range pMean {
		for s := range p {
			pMean[i] += p[s][i]
		}
		pMean[i] /= float64(ns)
	}
	m.MCC = mcc(pMean, classes, .5)

	m.AUC, err = f.kind.AUC(mean, f.solver.opt.MaxDelay)
	return
}

// logLoss is the mean binary cross entropy of predictions p for
// responses r.
func logLoss(r, p []float64) float64 {
	var sum float64
	for i, y := range r {
		q := clipProb(p[i])
		sum += y*math.Log(q) + (1-y)*math.Log(1-q)
	}
	return -sum / float64(len(r))
}

// waic computes the widely applicable information criterion on the
// deviance scale from pointwise log likelihoods ll[trial][draw].
// Returned are the criterion, its standard error, and the effective
// number of parameters.
func waic(ll [][]float64) (w, se, pw float64) {
	nt := len(ll)
	pointwise := make([]float64, nt)
	for i, l := range ll {
		ns := float64(len(l))
		lppd := floats.LogSumExp(l) - math.Log(ns)
		// population variance of the log likelihood over draws
		v := stat.Variance(l, nil) * (ns - 1) / ns
		pw += v
		pointwise[i] = -2 * (lppd - v)
		w += pointwise[i]
	}
	se = math.Sqrt(float64(nt) * stat.Variance(pointwise, nil) * float64(nt-1) / float64(nt))
	return
}

// rocAUC is the area under the receiver operating characteristic curve of
// scores y against true classes.  Both classes must be present.  The result
// is NaN if any score is not finite.
func rocAUC(y []float64, classes []bool) float64 {
	for _, x := range y {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return math.NaN()
		}
	}
	ys := append([]float64{}, y...)
	cs := append([]bool{}, classes...)
	stat.SortWeightedLabeled(ys, cs, nil)
	tpr, fpr, _ := stat.ROC(nil, ys, cs, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// mcc computes the Matthews correlation coefficient of predictions
// p >= threshold against true classes.  It is 0 when any margin is empty.
func mcc(p []float64, classes []bool, threshold float64) float64 {
	var tp, fn, fp, tn float64
	for i, c := range classes {
		switch pred := p[i] >= threshold; {
		case c && pred:
			tp++
		case c:
			fn++
		case pred:
			fp++
		default:
			tn++
		}
	}
	if d := (tp + fp) * (tp + fn) * (tn + fp) * (tn + fn); d > 0 {
		return (tp*tn - fp*fn) / math.Sqrt(d)
	}
	return 0
}
