// Public domain.

// Package ddprog implements the discount command.
package ddprog

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/soniakeys/exit"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soniakeys/discount/internal/ddfunc"
)

const versionString = "discount version 1.0 Go source."
const copyrightString = "Public domain."

// Main runs the command line and exits the process on error.
func Main() {
	defer exit.Handler()
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		exit.Log(err)
	}
}

// globals shared by subcommands
type globals struct {
	configFile string
	verbose    bool
	stdout     io.Writer
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	g := &globals{stdout: stdout}
	root := &cobra.Command{
		Use:   "discount",
		Short: "Fit delay discounting models to choice data",
		Long: `Discount fits delay discounting models to intertemporal choice data.

Input is a set of tab separated session logs, one per participant,
commodity, and condition, named ID-commodity-condition-YYYYMMDD-HHMM.
Each model is fit by posterior sampling and scored by log loss, AUC, WAIC,
and ROC AUC.  Fits are compared per session and collected in one CSV
table per discount function.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	pf := root.PersistentFlags()
	pf.StringVarP(&g.configFile, "config", "c", "",
		"config file (default "+configFile+" if present)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "development logging")

	root.AddCommand(
		newFitCmd(g),
		newHypCmd(g),
		newVersionCmd(g),
	)
	return root
}

// config loads the layered configuration for cmd.
func (g *globals) config(cmd *cobra.Command) (Config, []ddfunc.Kind, error) {
	fn, explicit := g.configFile, true
	if fn == "" {
		fn, explicit = configFile, false
	}
	c, err := loadConfig(fn, explicit)
	if err != nil {
		return c, nil, err
	}
	if err := c.applyFlags(cmd.Flags()); err != nil {
		return c, nil, err
	}
	kinds, err := c.validate()
	return c, kinds, err
}

// logger creates the run logger, tagged with a fresh run id.
func (g *globals) logger() (*zap.Logger, error) {
	var l *zap.Logger
	var err error
	if g.verbose {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.With(zap.String("run", uuid.NewString())), nil
}

func newVersionCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version and copyright",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(g.stdout, versionString)
			fmt.Fprintln(g.stdout, copyrightString)
		},
	}
}
