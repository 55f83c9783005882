// Public domain.

package ddprog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/soniakeys/discount/internal/ddfunc"
	"github.com/soniakeys/discount/internal/ddsolver"
)

// default config file, read from the working directory if present
const configFile = "discount.yaml"

// environment variable prefix
const envPrefix = "DISCOUNT_"

// Config holds every setting of the program.  Settings are layered,
// later sources overriding earlier ones: built in defaults, the YAML
// config file, DISCOUNT_ environment variables (which may come from a
// .env file), then command line flags.
type Config struct {
	Models            []string `yaml:"models" env:"MODELS"`
	Draws             int      `yaml:"draws" env:"DRAWS"`
	Tune              int      `yaml:"tune" env:"TUNE"`
	Chains            int      `yaml:"chains" env:"CHAINS"`
	Seed              uint64   `yaml:"seed" env:"SEED"`
	Repeatable        bool     `yaml:"repeatable" env:"REPEATABLE"`
	Epsilon           float64  `yaml:"epsilon" env:"EPSILON"`
	MaxDelay          float64  `yaml:"max_delay" env:"MAX_DELAY"`
	Workers           int      `yaml:"workers" env:"WORKERS"`
	OutDir            string   `yaml:"out_dir" env:"OUT_DIR"`
	Curves            bool     `yaml:"curves" env:"CURVES"`
	Headings          bool     `yaml:"headings" env:"HEADINGS"`
	Pattern           string   `yaml:"pattern" env:"PATTERN"`
	StateCondition    string   `yaml:"state_condition" env:"STATE_CONDITION"`
	BaselineCondition string   `yaml:"baseline_condition" env:"BASELINE_CONDITION"`
}

func defaultConfig() Config {
	o := ddsolver.DefaultOptions()
	c := Config{
		Draws:             o.Draws,
		Tune:              o.Tune,
		Chains:            o.Chains,
		Seed:              3,
		Repeatable:        true,
		Epsilon:           o.Epsilon,
		MaxDelay:          o.MaxDelay,
		Workers:           runtime.GOMAXPROCS(0),
		OutDir:            ".",
		Headings:          true,
		Pattern:           "*.txt",
		StateCondition:    "hungry",
		BaselineCondition: "fed",
	}
	for _, k := range ddfunc.All() {
		c.Models = append(c.Models, k.String())
	}
	return c
}

// loadConfig layers the config file and environment over defaults.
// A missing config file is an error only if fn was named explicitly.
func loadConfig(fn string, explicit bool) (Config, error) {
	c := defaultConfig()
	if err := c.readYAML(fn, explicit); err != nil {
		return c, err
	}
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return c, fmt.Errorf(".env: %w", err)
	}
	if err := env.ParseWithOptions(&c, env.Options{Prefix: envPrefix}); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) readYAML(fn string, explicit bool) error {
	f, err := os.Open(fn)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file %s: %w", fn, err)
	}
	return nil
}

// applyFlags copies flags set on the command line into c.
func (c *Config) applyFlags(flags *pflag.FlagSet) (err error) {
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "models":
			c.Models, err = flags.GetStringSlice(f.Name)
		case "draws":
			c.Draws, err = flags.GetInt(f.Name)
		case "tune":
			c.Tune, err = flags.GetInt(f.Name)
		case "chains":
			c.Chains, err = flags.GetInt(f.Name)
		case "seed":
			c.Seed, err = flags.GetUint64(f.Name)
		case "repeatable":
			c.Repeatable, err = flags.GetBool(f.Name)
		case "epsilon":
			c.Epsilon, err = flags.GetFloat64(f.Name)
		case "max-delay":
			c.MaxDelay, err = flags.GetFloat64(f.Name)
		case "workers":
			c.Workers, err = flags.GetInt(f.Name)
		case "out":
			c.OutDir, err = flags.GetString(f.Name)
		case "curves":
			c.Curves, err = flags.GetBool(f.Name)
		case "headings":
			c.Headings, err = flags.GetBool(f.Name)
		case "pattern":
			c.Pattern, err = flags.GetString(f.Name)
		case "state":
			c.StateCondition, err = flags.GetString(f.Name)
		case "baseline":
			c.BaselineCondition, err = flags.GetString(f.Name)
		}
	})
	return
}

// validate checks every setting, returning the models to fit.
func (c *Config) validate() ([]ddfunc.Kind, error) {
	bad := func(key string, format string, a ...interface{}) error {
		return fmt.Errorf("config %s: %s", key, fmt.Sprintf(format, a...))
	}
	if len(c.Models) == 0 {
		return nil, bad("models", "no models named")
	}
	var kinds []ddfunc.Kind
	seen := map[ddfunc.Kind]bool{}
	for _, m := range c.Models {
		k, err := ddfunc.ParseKind(strings.TrimSpace(m))
		if err != nil {
			return nil, bad("models", "%v", err)
		}
		if seen[k] {
			return nil, bad("models", "%s named twice", k)
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	switch {
	case c.Draws < 2:
		return nil, bad("draws", "%d, must be at least 2", c.Draws)
	case c.Tune < 0:
		return nil, bad("tune", "%d, must not be negative", c.Tune)
	case c.Chains < 1:
		return nil, bad("chains", "%d, must be at least 1", c.Chains)
	case !(c.Epsilon >= 0 && c.Epsilon < .5):
		return nil, bad("epsilon", "%g, must be in [0, 0.5)", c.Epsilon)
	case !(c.MaxDelay > 0) || math.IsInf(c.MaxDelay, 0):
		return nil, bad("max_delay", "%g, must be positive", c.MaxDelay)
	case c.Workers < 1:
		return nil, bad("workers", "%d, must be at least 1", c.Workers)
	case c.OutDir == "":
		return nil, bad("out_dir", "empty")
	case c.Pattern == "":
		return nil, bad("pattern", "empty")
	case c.StateCondition == "" || c.BaselineCondition == "":
		return nil, bad("state_condition", "state and baseline conditions must be named")
	case c.StateCondition == c.BaselineCondition:
		return nil, bad("state_condition", "same as baseline_condition %q", c.BaselineCondition)
	}
	return kinds, nil
}

func (c *Config) solverOptions() ddsolver.Options {
	return ddsolver.Options{
		Draws:    c.Draws,
		Tune:     c.Tune,
		Chains:   c.Chains,
		Epsilon:  c.Epsilon,
		MaxDelay: c.MaxDelay,
	}
}
