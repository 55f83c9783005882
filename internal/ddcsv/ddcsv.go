// Public domain.

// Package ddcsv reads and writes result tables as CSV.
//
// A results table holds fits of a single discount function, one row per
// session, long format.  A curves table holds fitted discount curves of one
// session, for inspection or plotting by other tools.
package ddcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/soniakeys/discount/internal/ddata"
	"github.com/soniakeys/discount/internal/ddsolver"
)

// Leading result columns.  Parameter columns follow.
var Columns = []string{
	"id", "commodity", "condition", "model",
	"log_loss", "AUC", "WAIC", "roc_auc",
}

var ErrFormat = errors.New("invalid results table")

// Row is one line of a results table.
type Row struct {
	ID, Commodity, Condition string
	Model                    string // discount function heading
	LogLoss, AUC, WAIC       float64
	ROCAUC                   float64
	ParamNames               []string
	Params                   []float64
}

// RowFor extracts a table row from a fit.
func RowFor(r *ddsolver.Result) Row {
	return Row{
		ID:         r.Session.ID,
		Commodity:  r.Session.Commodity,
		Condition:  r.Session.Condition,
		Model:      r.Kind.String(),
		LogLoss:    r.LogLoss,
		AUC:        r.AUC,
		WAIC:       r.WAIC,
		ROCAUC:     r.ROCAUC,
		ParamNames: r.Kind.ParamNames(),
		Params:     r.Params,
	}
}

// FileName returns the conventional results file name for a model
// heading, such as "hyperbolic.csv".
func FileName(model string) string {
	return strings.ToLower(model) + ".csv"
}

func ftoa(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// WriteResults writes a header and rows.  All rows must have the
// parameter names of the first.
func WriteResults(w io.Writer, rows []Row) error {
	var pn []string
	if len(rows) > 0 {
		pn = rows[0].ParamNames
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string{}, Columns...), pn...)); err != nil {
		return err
	}
	rec := make([]string, len(Columns)+len(pn))
	for _, r := range rows {
		if len(r.Params) != len(pn) || !sameNames(r.ParamNames, pn) {
			return fmt.Errorf("%w: %s %s %s has parameters %v, table has %v",
				ErrFormat, r.ID, r.Commodity, r.Condition, r.ParamNames, pn)
		}
		rec = append(rec[:0],
			r.ID, r.Commodity, r.Condition, r.Model,
			ftoa(r.LogLoss), ftoa(r.AUC), ftoa(r.WAIC), ftoa(r.ROCAUC))
		for _, p := range r.Params {
			rec = append(rec, ftoa(p))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ReadResults reads a table written by WriteResults.
func ReadResults(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	head, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty", ErrFormat)
	}
	if err != nil {
		return nil, err
	}
	if len(head) < len(Columns) {
		return nil, fmt.Errorf("%w: %d columns, need at least %d",
			ErrFormat, len(head), len(Columns))
	}
	for i, c := range Columns {
		if head[i] != c {
			return nil, fmt.Errorf("%w: column %d is %q, want %q",
				ErrFormat, i+1, head[i], c)
		}
	}
	pn := head[len(Columns):]
	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		var f [4]float64
		for i := range f {
			if f[i], err = strconv.ParseFloat(rec[4+i], 64); err != nil {
				return nil, fmt.Errorf("%w: line %d %s: %v",
					ErrFormat, line, Columns[4+i], err)
			}
		}
		row := Row{
			ID: rec[0], Commodity: rec[1], Condition: rec[2], Model: rec[3],
			LogLoss: f[0], AUC: f[1], WAIC: f[2], ROCAUC: f[3],
			ParamNames: pn,
			Params:     make([]float64, len(pn)),
		}
		for i := range pn {
			if row.Params[i], err = strconv.ParseFloat(rec[len(Columns)+i], 64); err != nil {
				return nil, fmt.Errorf("%w: line %d %s: %v", ErrFormat, line, pn[i], err)
			}
		}
		rows = append(rows, row)
	}
}

// WriteCurves writes the fitted discount fraction of each result at n
// delays spanning [0, maximum observed delay], one column per model.
// All results must be fits of d.
func WriteCurves(w io.Writer, d *ddata.Data, results []*ddsolver.Result, n int) error {
	if n < 2 {
		return fmt.Errorf("curve needs at least 2 points, got %d", n)
	}
	maxDB := d.MaxDB()
	if !(maxDB > 0) {
		return fmt.Errorf("%s: no positive delays", d.Path)
	}
	cw := csv.NewWriter(w)
	head := []string{"delay"}
	for _, r := range results {
		head = append(head, r.Kind.String())
	}
	if err := cw.Write(head); err != nil {
		return err
	}
	delays := floats.Span(make([]float64, n), 0, maxDB)
	curves := make([][]float64, len(results))
	for i, r := range results {
		curves[i] = r.Kind.Curve(delays, r.Params)
	}
	rec := make([]string, len(head))
	for j, t := range delays {
		rec[0] = ftoa(t)
		for i := range curves {
			rec[i+1] = ftoa(curves[i][j])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePoints writes the observed choices of d: the delay of the later
// prospect, the ratio of the sooner to the later reward, and whether the
// later prospect was chosen.  Trials with a zero later reward get a NaN
// ratio.
func WritePoints(w io.Writer, d *ddata.Data) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"DB", "A/B", "R"}); err != nil {
		return err
	}
	for _, t := range d.Trials {
		ratio := math.NaN()
		if t.B != 0 {
			ratio = t.A / t.B
		}
		if err := cw.Write([]string{ftoa(t.DB), ftoa(ratio), strconv.Itoa(t.R)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
