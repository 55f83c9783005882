// Public domain.

package ddprog

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soniakeys/discount/internal/ddcsv"
	"github.com/soniakeys/discount/internal/ddhyp"
)

func newHypCmd(g *globals) *cobra.Command {
	def := defaultConfig()
	cmd := &cobra.Command{
		Use:   "hyp [flags] <results.csv>",
		Short: "Test hypotheses about state effects on AUC",
		Long: `Hyp reads a results table written by fit and tests hypotheses about
how the state condition changes AUC relative to the baseline condition
across food, money, and music.  Each hypothesis is fit by maximum
likelihood and scored by AIC and BIC, lower being better.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.config(cmd)
			if err != nil {
				return err
			}
			log, err := g.logger()
			if err != nil {
				return err
			}
			defer log.Sync()
			return runHyp(g, c, log, args[0])
		},
	}
	f := cmd.Flags()
	f.String("state", def.StateCondition, "state condition")
	f.String("baseline", def.BaselineCondition, "baseline condition")
	f.Bool("headings", def.Headings, "print headings")
	return cmd
}

func runHyp(g *globals, c Config, log *zap.Logger, fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	rows, err := ddcsv.ReadResults(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}
	d, skipped, err := ddhyp.Deltas(rows, c.StateCondition, c.BaselineCondition)
	if len(skipped) > 0 {
		log.Warn("incomplete participants skipped", zap.Strings("id", skipped))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}
	fits, err := ddhyp.FitAll(d)
	if err != nil {
		return err
	}
	log.Info("hypotheses fit", zap.String("file", fn), zap.Int("participants", len(d)))

	bestAIC, bestBIC := math.Inf(1), math.Inf(1)
	for _, h := range fits {
		bestAIC = math.Min(bestAIC, h.AIC)
		bestBIC = math.Min(bestBIC, h.BIC)
	}
	out := g.stdout
	if c.Headings {
		fmt.Fprintln(out, versionString)
		fmt.Fprintf(out, "%d participants, %s minus %s\n",
			len(d), c.StateCondition, c.BaselineCondition)
		fmt.Fprintln(out, "Hypothesis            k   LogLik      AIC      BIC  Parameters")
	}
	for _, h := range fits {
		ps := make([]string, len(h.X))
		for i, x := range h.X {
			ps[i] = fmt.Sprintf("%.4f", x)
		}
		mark := func(v, best float64) string {
			if v == best {
				return "*"
			}
			return " "
		}
		fmt.Fprintf(out, "%-20s %2d %8.2f %8.2f%s %8.2f%s %s\n",
			h.Model.Name, h.Model.FreeParams(), h.LL,
			h.AIC, mark(h.AIC, bestAIC), h.BIC, mark(h.BIC, bestBIC),
			strings.Join(ps, " "))
	}
	return nil
}
