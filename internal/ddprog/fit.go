// Public domain.

package ddprog

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	xrand "golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/soniakeys/discount/internal/ddata"
	"github.com/soniakeys/discount/internal/ddcsv"
	"github.com/soniakeys/discount/internal/ddfunc"
	"github.com/soniakeys/discount/internal/ddsolver"
)

// points in a curves file
const curvePoints = 500

func newFitCmd(g *globals) *cobra.Command {
	def := defaultConfig()
	cmd := &cobra.Command{
		Use:   "fit [flags] <dir|file>...",
		Short: "Fit models to each session file and write result tables",
		Long: `Fit fits each configured model to each session file.

Directories are searched for files matching the pattern.  For each file a
model comparison is printed, best model first.  When all files are done,
one CSV per model is written to the output directory, with one row per
file.  The first error stops the batch.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, kinds, err := g.config(cmd)
			if err != nil {
				return err
			}
			log, err := g.logger()
			if err != nil {
				return err
			}
			defer log.Sync()
			files, err := ddata.Glob(args, c.Pattern)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no files matching %q", c.Pattern)
			}
			b := &batch{
				cfg:    c,
				kinds:  kinds,
				solver: ddsolver.New(c.solverOptions()),
				log:    log,
				out:    g.stdout,
			}
			return b.run(cmd.Context(), files)
		},
	}
	f := cmd.Flags()
	f.StringSliceP("models", "m", def.Models, "models to fit")
	f.Int("draws", def.Draws, "retained draws per chain")
	f.Int("tune", def.Tune, "tuning iterations per chain")
	f.Int("chains", def.Chains, "chains per fit")
	f.Uint64("seed", def.Seed, "random seed for repeatable fits")
	f.Bool("repeatable", def.Repeatable, "seed each fit from seed and file name")
	f.Float64("epsilon", def.Epsilon, "lapse rate of the choice rule")
	f.Float64("max-delay", def.MaxDelay, "delay range of AUC")
	f.IntP("workers", "j", def.Workers, "files fit concurrently")
	f.StringP("out", "o", def.OutDir, "output directory")
	f.Bool("curves", def.Curves, "write fitted curves and observed points per file")
	f.Bool("headings", def.Headings, "print headings")
	f.String("pattern", def.Pattern, "file name pattern within directories")
	return cmd
}

type batch struct {
	cfg    Config
	kinds  []ddfunc.Kind
	solver *ddsolver.Solver
	log    *zap.Logger
	out    io.Writer
}

// fits of one file
type fileFits struct {
	data    *ddata.Data
	results []*ddsolver.Result // in kinds order
}

// run fits all files, printing comparisons in file order, then writes
// the result tables.
func (b *batch) run(ctx context.Context, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := os.MkdirAll(b.cfg.OutDir, 0o755); err != nil {
		return err
	}
	if b.cfg.Curves {
		if err := os.MkdirAll(b.curvesDir(), 0o755); err != nil {
			return err
		}
	}
	b.log.Info("batch start",
		zap.Int("files", len(files)),
		zap.Strings("models", b.cfg.Models),
		zap.Bool("repeatable", b.cfg.Repeatable))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	// done[i] receives the fits of files[i].  buffered so a fast worker
	// can drop off results without waiting for workers ahead of it.
	done := make([]chan fileFits, len(files))
	for i := range done {
		done[i] = make(chan fileFits, 1)
	}
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for i, fn := range files {
			i, fn := i, fn
			if gctx.Err() != nil {
				return
			}
			g.Go(func() error {
				ff, err := b.fitFile(gctx, fn)
				if err != nil {
					return err
				}
				done[i] <- ff
				return nil
			})
		}
	}()

	// column headings, delayed until now to avoid printing headings only
	// to terminate with an error if some initialization fails.
	b.printHeadings()

	tables := make([][]ddcsv.Row, len(b.kinds))
collect:
	for i := range files {
		select {
		case ff := <-done[i]:
			b.printComparison(ff)
			for j, r := range ff.results {
				tables[j] = append(tables[j], ddcsv.RowFor(r))
			}
		case <-gctx.Done():
			break collect
		}
	}
	<-dispatched
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for j, k := range b.kinds {
		fn := filepath.Join(b.cfg.OutDir, ddcsv.FileName(k.String()))
		if err := writeFile(fn, func(w io.Writer) error {
			return ddcsv.WriteResults(w, tables[j])
		}); err != nil {
			return err
		}
		b.log.Info("results written", zap.String("file", fn), zap.Int("rows", len(tables[j])))
	}
	return nil
}

// fitFile reads fn and fits every model to it.
func (b *batch) fitFile(ctx context.Context, fn string) (fileFits, error) {
	d, err := ddata.ReadFile(fn)
	if err != nil {
		return fileFits{}, err
	}
	ff := fileFits{data: d, results: make([]*ddsolver.Result, len(b.kinds))}
	rnd := xrand.New(&xrand.PCGSource{})
	for j, k := range b.kinds {
		if b.cfg.Repeatable {
			rnd.Seed(ddsolver.SeedFor(b.cfg.Seed, fn, k))
		} else {
			rnd.Seed(uint64(time.Now().UnixNano()))
		}
		start := time.Now()
		r, err := b.solver.Fit(ctx, k, d, rnd)
		if err != nil {
			return fileFits{}, fmt.Errorf("%s %s: %w", filepath.Base(fn), k, err)
		}
		b.log.Info("fit",
			zap.String("file", filepath.Base(fn)),
			zap.String("model", k.String()),
			zap.Float64("waic", r.WAIC),
			zap.Float64("accept", r.Accept),
			zap.Duration("elapsed", time.Since(start)))
		if !r.Converged {
			b.log.Warn("not converged",
				zap.String("file", filepath.Base(fn)),
				zap.String("model", k.String()),
				zap.Float64s("rhat", r.RHat))
		}
		ff.results[j] = r
	}
	if b.cfg.Curves {
		if err := b.writeCurves(ff); err != nil {
			return fileFits{}, err
		}
	}
	return ff, nil
}

func (b *batch) curvesDir() string {
	return filepath.Join(b.cfg.OutDir, "curves")
}

// writeCurves writes <base>.curves.csv and <base>.points.csv.
func (b *batch) writeCurves(ff fileFits) error {
	base := strings.TrimSuffix(filepath.Base(ff.data.Path), filepath.Ext(ff.data.Path))
	fn := filepath.Join(b.curvesDir(), base+".curves.csv")
	if err := writeFile(fn, func(w io.Writer) error {
		return ddcsv.WriteCurves(w, ff.data, ff.results, curvePoints)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(b.curvesDir(), base+".points.csv"),
		func(w io.Writer) error { return ddcsv.WritePoints(w, ff.data) })
}

func writeFile(fn string, write func(io.Writer) error) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", fn, err)
	}
	return f.Close()
}

func (b *batch) printHeadings() {
	if b.cfg.Headings {
		fmt.Fprintln(b.out, versionString)
	}
}

// printComparison prints the models fit to one file, best first.
func (b *batch) printComparison(ff fileFits) {
	c := ddsolver.Compare(ff.results)
	fmt.Fprintln(b.out)
	fmt.Fprintln(b.out, filepath.Base(ff.data.Path))
	if b.cfg.Headings {
		fmt.Fprintln(b.out, "Rank Model              WAIC    dWAIC Weight LogLoss    AUC ROCAUC")
	}
	for _, r := range c {
		line := fmt.Sprintf("%4d %-15s %8s %8s %6.3f %7.4f %6.4f %6s",
			r.Rank, r.Kind, num(r.WAIC, 2), num(r.DWAIC, 2), r.Weight,
			r.LogLoss, r.AUC, num(r.ROCAUC, 4))
		if !r.Converged {
			line += " *"
		}
		fmt.Fprintln(b.out, line)
	}
}

// num formats x with prec decimals, or as "-" if it is not finite.
func num(x float64, prec int) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, x)
}
