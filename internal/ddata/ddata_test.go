// Public domain.

package ddata_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/discount/internal/ddata"
)

func ExampleParseFilename() {
	s, err := ddata.ParseFilename("AB-food-hungry-20170101-1200.txt")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(s.ID, s.Commodity, s.Condition, s.Time.Format(time.RFC3339))
	// Output:
	// AB food hungry 2017-01-01T12:00:00Z
}

func TestParseFilename(t *testing.T) {
	s, err := ddata.ParseFilename("/data/raw/XY-money-fed-20161224-0935.txt")
	require.NoError(t, err)
	assert.Equal(t, "XY", s.ID)
	assert.Equal(t, "money", s.Commodity)
	assert.Equal(t, "fed", s.Condition)
	assert.Equal(t, "/data/raw/XY-money-fed-20161224-0935.txt", s.Path)

	for _, fn := range []string{
		"AB-food-hungry.txt",
		"AB-food-hungry-20170101-1200-extra.txt",
		"AB--hungry-20170101-1200.txt",
		"AB-food-hungry-2017011-1200.txt",
		"AB-food-hungry-20170101-2561.txt",
		"",
	} {
		_, err := ddata.ParseFilename(fn)
		assert.ErrorIs(t, err, ddata.ErrFilename, fn)
	}
}

const sessionLog = "trial\tA\tDA\tB\tDB\tR\tRT\n" +
	"1\t50\t0\t100\t30\t1\t1.2\n" +
	"2\t80\t0\t100\t7\t0\t0.8\n" +
	"\n" +
	"3\t20.5\t0\t100\t365\t0\t2.1\n"

func TestReadTrials(t *testing.T) {
	trials, err := ddata.ReadTrials(strings.NewReader(sessionLog))
	require.NoError(t, err)
	require.Len(t, trials, 3)
	assert.Equal(t, ddata.Trial{A: 50, DA: 0, B: 100, DB: 30, R: 1}, trials[0])
	assert.Equal(t, ddata.Trial{A: 20.5, DA: 0, B: 100, DB: 365, R: 0}, trials[2])
}

func TestReadTrialsErrors(t *testing.T) {
	tcs := map[string]string{
		"empty":          "",
		"header only":    "A\tDA\tB\tDB\tR\n",
		"missing column": "A\tDA\tB\tDB\n1\t0\t2\t3\n",
		"short row":      "A\tDA\tB\tDB\tR\n1\t0\t2\n",
		"not a number":   "A\tDA\tB\tDB\tR\n1\t0\tten\t3\t1\n",
		"bad response":   "A\tDA\tB\tDB\tR\n1\t0\t2\t3\t2\n",
		"negative delay": "A\tDA\tB\tDB\tR\n1\t0\t2\t-3\t1\n",
		"NaN delay":      "A\tDA\tB\tDB\tR\n1\t0\t2\tNaN\t1\n",
		"Inf amount":     "A\tDA\tB\tDB\tR\n1\t0\tInf\t3\t1\n",
		"+Inf amount":    "A\tDA\tB\tDB\tR\n+Inf\t0\t2\t3\t1\n",
	}
	for name, in := range tcs {
		_, err := ddata.ReadTrials(strings.NewReader(in))
		assert.ErrorIs(t, err, ddata.ErrFormat, name)
	}
}

func TestReadFileAndGlob(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"ZZ-music-fed-20170102-1000.txt",
		"AB-food-hungry-20170101-1200.txt",
	}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(sessionLog), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), nil, 0o644))

	files, err := ddata.Glob([]string{dir}, "*.txt")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, names[1], filepath.Base(files[0]))

	d, err := ddata.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "AB", d.ID)
	assert.Len(t, d.Trials, 3)
	assert.Equal(t, 365., d.MaxDB())

	_, err = ddata.Glob([]string{filepath.Join(dir, "nope")}, "*.txt")
	assert.Error(t, err)
}
