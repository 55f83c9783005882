// Public domain.

package ddhyp_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/discount/internal/ddcsv"
	"github.com/soniakeys/discount/internal/ddhyp"
)

var noise = []float64{-.05, .03, -.02, .04, 0, -.01, .02, -.03, .01, -.04}

// foodShift has hunger lowering food AUC only.
func foodShift() []ddhyp.Delta {
	d := make([]ddhyp.Delta, len(noise))
	for i, e := range noise {
		d[i] = ddhyp.Delta{
			ID:    string(rune('a' + i)),
			Food:  -.2 + e,
			Money: noise[(i+3)%len(noise)],
			Music: noise[(i+7)%len(noise)],
		}
	}
	return d
}

func TestDeltas(t *testing.T) {
	row := func(id, com, cond string, auc float64) ddcsv.Row {
		return ddcsv.Row{ID: id, Commodity: com, Condition: cond, AUC: auc}
	}
	var rows []ddcsv.Row
	for _, id := range []string{"B", "A"} {
		rows = append(rows,
			row(id, "food", "hungry", .3), row(id, "food", "fed", .5),
			row(id, "money", "hungry", .4), row(id, "money", "fed", .4),
			row(id, "music", "hungry", .6), row(id, "music", "fed", .5),
			row(id, "music", "other", .9))
	}
	// C lacks money, D has a NaN AUC
	rows = append(rows,
		row("C", "food", "hungry", .3), row("C", "food", "fed", .5),
		row("C", "music", "hungry", .6), row("C", "music", "fed", .5),
		row("D", "food", "hungry", .3), row("D", "food", "fed", .5),
		row("D", "money", "hungry", math.NaN()), row("D", "money", "fed", .5),
		row("D", "music", "hungry", .6), row("D", "music", "fed", .5))

	d, skipped, err := ddhyp.Deltas(rows, "hungry", "fed")
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "D"}, skipped)
	require.Len(t, d, 2)
	assert.Equal(t, "A", d[0].ID)
	assert.InDelta(t, -.2, d[0].Food, 1e-12)
	assert.InDelta(t, 0, d[0].Money, 1e-12)
	assert.InDelta(t, .1, d[1].Music, 1e-12)

	_, _, err = ddhyp.Deltas(append(rows, rows[0]), "hungry", "fed")
	assert.ErrorIs(t, err, ddhyp.ErrData)
	_, _, err = ddhyp.Deltas(rows, "fed", "fed")
	assert.ErrorIs(t, err, ddhyp.ErrData)
	_, _, err = ddhyp.Deltas(rows[14:], "hungry", "fed")
	assert.ErrorIs(t, err, ddhyp.ErrData)
}

func TestNLL(t *testing.T) {
	m := ddhyp.Models[0]
	d := []ddhyp.Delta{{Food: 0, Money: 0, Music: 0}}
	// Cauchy density at its location is 1/(πγ)
	assert.InDelta(t, 3*math.Log(math.Pi), m.NLL([]float64{1}, d), 1e-12)
	assert.True(t, math.IsInf(m.NLL([]float64{0}, d), 1))
	assert.True(t, math.IsInf(m.NLL([]float64{-1}, d), 1))

	dev := ddhyp.Models[3]
	assert.True(t, math.IsInf(dev.NLL([]float64{.1, 0, 1}, d), 1))
	assert.True(t, math.IsInf(dev.NLL([]float64{-.1, -.1, 1}, d), 1))
	assert.False(t, math.IsInf(dev.NLL([]float64{0, 0, 1}, d), 1))
}

func TestFitAll(t *testing.T) {
	fits, err := ddhyp.FitAll(foodShift())
	require.NoError(t, err)
	require.Len(t, fits, len(ddhyp.Models))
	for i, f := range fits {
		assert.Same(t, ddhyp.Models[i], f.Model)
		assert.Equal(t, len(noise), f.N)
		assert.Greater(t, f.X[len(f.X)-1], 0., f.Model.Name)
		k := float64(f.Model.FreeParams())
		assert.InDelta(t, -2*f.LL+2*k, f.AIC, 1e-9)
		assert.InDelta(t, -2*f.LL+math.Log(float64(len(noise)))*k, f.BIC, 1e-9)
	}
	trait, inDomain := fits[0], fits[1]
	assert.InDelta(t, -.2, inDomain.X[0], .05)
	assert.Less(t, inDomain.AIC, trait.AIC)
	assert.Less(t, inDomain.BIC, trait.BIC)
	// a shared shift misfits money and music
	assert.Less(t, inDomain.AIC, fits[5].AIC)

	dev := fits[3]
	assert.LessOrEqual(t, dev.X[0], 0.)
	assert.GreaterOrEqual(t, dev.X[1], 0.)
}

func TestFitModelEmpty(t *testing.T) {
	_, err := ddhyp.FitModel(ddhyp.Models[0], nil)
	assert.ErrorIs(t, err, ddhyp.ErrData)
}
