// Public domain.

package ddcsv_test

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/discount/internal/ddata"
	"github.com/soniakeys/discount/internal/ddcsv"
	"github.com/soniakeys/discount/internal/ddfunc"
	"github.com/soniakeys/discount/internal/ddsolver"
)

func testResult(kind ddfunc.Kind, params ...float64) *ddsolver.Result {
	return &ddsolver.Result{
		Kind: kind,
		Session: ddata.Session{
			ID: "AB", Commodity: "food", Condition: "hungry",
		},
		Params: params,
		Metrics: ddsolver.Metrics{
			LogLoss: .25, AUC: .5, WAIC: 31.5, ROCAUC: math.NaN(),
		},
	}
}

func ExampleWriteResults() {
	rows := []ddcsv.Row{ddcsv.RowFor(testResult(ddfunc.Hyperbolic, -3.5))}
	if err := ddcsv.WriteResults(os.Stdout, rows); err != nil {
		fmt.Println(err)
	}
	// Output:
	// id,commodity,condition,model,log_loss,AUC,WAIC,roc_auc,logk
	// AB,food,hungry,Hyperbolic,0.25,0.5,31.5,NaN,-3.5
}

func TestResultsRoundTrip(t *testing.T) {
	r1 := ddcsv.RowFor(testResult(ddfunc.Hyperboloid, -4.125, 0.7))
	r2 := r1
	r2.ID = "CD"
	r2.WAIC = 1. / 3
	var b bytes.Buffer
	require.NoError(t, ddcsv.WriteResults(&b, []ddcsv.Row{r1, r2}))

	rows, err := ddcsv.ReadResults(&b)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CD", rows[1].ID)
	assert.Equal(t, "Hyperboloid", rows[1].Model)
	assert.Equal(t, 1./3, rows[1].WAIC)
	assert.True(t, math.IsNaN(rows[0].ROCAUC))
	assert.Equal(t, []string{"logk", "s"}, rows[0].ParamNames)
	assert.Equal(t, []float64{-4.125, 0.7}, rows[0].Params)
}

func TestWriteResultsMixed(t *testing.T) {
	rows := []ddcsv.Row{
		ddcsv.RowFor(testResult(ddfunc.Hyperbolic, -3)),
		ddcsv.RowFor(testResult(ddfunc.Exponential, .1)),
	}
	err := ddcsv.WriteResults(&bytes.Buffer{}, rows)
	assert.ErrorIs(t, err, ddcsv.ErrFormat)
}

func TestWriteResultsEmpty(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, ddcsv.WriteResults(&b, nil))
	assert.Equal(t, strings.Join(ddcsv.Columns, ",")+"\n", b.String())
}

func TestReadResultsErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"id,commodity,condition\n",
		"id,commodity,condition,model,log_loss,AUC,WAIC,rocauc\n",
		"id,commodity,condition,model,log_loss,AUC,WAIC,roc_auc\nAB,food,fed,Exponential,x,1,1,1\n",
		"id,commodity,condition,model,log_loss,AUC,WAIC,roc_auc,k\nAB,food,fed,Exponential,1,1,1,1,?\n",
	} {
		_, err := ddcsv.ReadResults(strings.NewReader(in))
		assert.ErrorIs(t, err, ddcsv.ErrFormat, "%q", in)
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "modifiedrachlin.csv", ddcsv.FileName(ddfunc.ModifiedRachlin.String()))
}

func TestWriteCurves(t *testing.T) {
	d := &ddata.Data{Trials: []ddata.Trial{
		{A: 50, B: 100, DB: 10, R: 1},
		{A: 80, B: 100, DB: 40, R: 0},
	}}
	rs := []*ddsolver.Result{
		testResult(ddfunc.Exponential, .1),
		testResult(ddfunc.Hyperbolic, math.Log(.1)),
	}
	var b bytes.Buffer
	require.NoError(t, ddcsv.WriteCurves(&b, d, rs, 5))
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "delay,Exponential,Hyperbolic", lines[0])
	assert.Equal(t, "0,1,1", lines[1])
	assert.Equal(t, fmt.Sprintf("10,%s,%s",
		ftoa(math.Exp(-1)), ftoa(1/(1+math.Exp(math.Log(.1))*10))), lines[2])
	assert.True(t, strings.HasPrefix(lines[5], "40,"))

	assert.Error(t, ddcsv.WriteCurves(&b, d, rs, 1))
	assert.Error(t, ddcsv.WriteCurves(&b, &ddata.Data{}, rs, 5))
}

func ftoa(x float64) string {
	var b bytes.Buffer
	fmt.Fprint(&b, x)
	return b.String()
}

func TestWritePoints(t *testing.T) {
	d := &ddata.Data{Trials: []ddata.Trial{
		{A: 50, B: 100, DB: 10, R: 1},
		{A: 0, B: 0, DB: 3, R: 0},
	}}
	var b bytes.Buffer
	require.NoError(t, ddcsv.WritePoints(&b, d))
	assert.Equal(t, "DB,A/B,R\n10,0.5,1\n3,NaN,0\n", b.String())
}
