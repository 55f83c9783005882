// Public domain.

package ddprog

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/discount/internal/ddfunc"
)

func writeConfig(t *testing.T, yml string) string {
	fn := filepath.Join(t.TempDir(), "discount.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(yml), 0o644))
	return fn
}

func TestDefaultConfig(t *testing.T) {
	c := defaultConfig()
	kinds, err := c.validate()
	require.NoError(t, err)
	assert.Equal(t, ddfunc.All(), kinds)
	assert.True(t, c.Repeatable)
	assert.NoError(t, c.solverOptions().Validate())
}

func TestLoadConfigMissing(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "none.yaml")
	c, err := loadConfig(fn, false)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig().Draws, c.Draws)

	_, err = loadConfig(fn, true)
	assert.Error(t, err)
}

func TestConfigLayers(t *testing.T) {
	fn := writeConfig(t, `
models: [Hyp, HB]
draws: 400
tune: 300
epsilon: 0.02
out_dir: results
`)
	t.Setenv("DISCOUNT_TUNE", "250")
	t.Setenv("DISCOUNT_CURVES", "true")

	g := &globals{configFile: fn, stdout: io.Discard}
	cmd := newFitCmd(g)
	require.NoError(t, cmd.ParseFlags([]string{"--epsilon", "0.05", "-j", "3"}))
	c, kinds, err := g.config(cmd)
	require.NoError(t, err)

	assert.Equal(t, []ddfunc.Kind{ddfunc.Hyperbolic, ddfunc.Hyperboloid}, kinds)
	assert.Equal(t, 400, c.Draws)   // file
	assert.Equal(t, 250, c.Tune)    // environment over file
	assert.Equal(t, .05, c.Epsilon) // flag over file
	assert.Equal(t, 3, c.Workers)
	assert.True(t, c.Curves)
	assert.Equal(t, "results", c.OutDir)
	assert.Equal(t, defaultConfig().Chains, c.Chains)
}

func TestConfigFileErrors(t *testing.T) {
	_, err := loadConfig(writeConfig(t, "draws: many\n"), true)
	assert.Error(t, err)
	_, err = loadConfig(writeConfig(t, "drawz: 5\n"), true)
	assert.Error(t, err)
	// empty file is all defaults
	c, err := loadConfig(writeConfig(t, ""), true)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig().Draws, c.Draws)
}

func TestConfigValidate(t *testing.T) {
	tcs := map[string]func(*Config){
		"models":          func(c *Config) { c.Models = nil },
		"models ":         func(c *Config) { c.Models = []string{"Hyp", "Quadratic"} },
		"models  ":        func(c *Config) { c.Models = []string{"Hyp", "hyperbolic"} },
		"draws":           func(c *Config) { c.Draws = 1 },
		"tune":            func(c *Config) { c.Tune = -5 },
		"chains":          func(c *Config) { c.Chains = 0 },
		"epsilon":         func(c *Config) { c.Epsilon = .5 },
		"max_delay":       func(c *Config) { c.MaxDelay = -1 },
		"workers":         func(c *Config) { c.Workers = 0 },
		"out_dir":         func(c *Config) { c.OutDir = "" },
		"pattern":         func(c *Config) { c.Pattern = "" },
		"state_condition": func(c *Config) { c.StateCondition = c.BaselineCondition },
	}
	for name, mod := range tcs {
		c := defaultConfig()
		mod(&c)
		_, err := c.validate()
		if assert.Error(t, err, name) {
			key := strings.TrimSpace(name)
			assert.Contains(t, err.Error(), "config "+key+":", name)
		}
	}
}
