// Public domain.

// Package ddata reads delay discounting experiment sessions: tab separated
// logs of choice trials, with session metadata encoded in the file name.
package ddata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrFilename = errors.New("malformed session file name")
	ErrFormat   = errors.New("malformed trial data")
)

// Column headings required in a session log.
const (
	ColA  = "A"  // immediate amount
	ColDA = "DA" // immediate delay
	ColB  = "B"  // delayed amount
	ColDB = "DB" // delayed delay
	ColR  = "R"  // response, 1 = chose B
)

// Trial is a single choice between prospects A and B.
type Trial struct {
	A, DA float64
	B, DB float64
	R     int // 1 if the delayed prospect B was chosen, else 0
}

// Session identifies one experiment session.
type Session struct {
	ID        string // participant initials
	Commodity string
	Condition string
	Time      time.Time
	Path      string
}

// Data is a session with its trials.
type Data struct {
	Session
	Trials []Trial
}

// time layout of the last two file name fields
const nameTimeLayout = "20060102-1504"

// ParseFilename parses session metadata from a file name of the form
// initials-commodity-condition-YYYYMMDD-HHMM.ext.  Directories and the
// extension are ignored.
func ParseFilename(fn string) (Session, error) {
	base := filepath.Base(fn)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	f := strings.Split(stem, "-")
	if len(f) != 5 {
		return Session{}, fmt.Errorf("%w: %s: want 5 '-' separated fields, have %d",
			ErrFilename, base, len(f))
	}
	for i, s := range f[:3] {
		if s == "" {
			return Session{}, fmt.Errorf("%w: %s: empty field %d",
				ErrFilename, base, i+1)
		}
	}
	t, err := time.Parse(nameTimeLayout, f[3]+"-"+f[4])
	if err != nil {
		return Session{}, fmt.Errorf("%w: %s: %v", ErrFilename, base, err)
	}
	return Session{
		ID:        f[0],
		Commodity: f[1],
		Condition: f[2],
		Time:      t,
		Path:      fn,
	}, nil
}

// ReadTrials reads tab separated trials.  The first line holds column
// headings; columns are found by heading and extra columns are ignored.
func ReadTrials(r io.Reader) ([]Trial, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	head, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrFormat)
	}
	if err != nil {
		return nil, err
	}
	col := map[string]int{}
	for i, h := range head {
		col[strings.TrimSpace(h)] = i
	}
	var ix [5]int
	for i, h := range []string{ColA, ColDA, ColB, ColDB, ColR} {
		c, ok := col[h]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrFormat, h)
		}
		ix[i] = c
	}
	var trials []Trial
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		var v [5]float64
		for i, c := range ix {
			if c >= len(rec) {
				return nil, fmt.Errorf("%w: line %d: %d fields", ErrFormat, line, len(rec))
			}
			v[i], err = strconv.ParseFloat(strings.TrimSpace(rec[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
			}
			if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
				return nil, fmt.Errorf("%w: line %d: %s not finite", ErrFormat, line, rec[c])
			}
		}
		if v[4] != 0 && v[4] != 1 {
			return nil, fmt.Errorf("%w: line %d: response %g not 0 or 1",
				ErrFormat, line, v[4])
		}
		if v[1] < 0 || v[3] < 0 {
			return nil, fmt.Errorf("%w: line %d: negative delay", ErrFormat, line)
		}
		trials = append(trials, Trial{A: v[0], DA: v[1], B: v[2], DB: v[3], R: int(v[4])})
	}
	if len(trials) == 0 {
		return nil, fmt.Errorf("%w: no trials", ErrFormat)
	}
	return trials, nil
}

// ReadFile reads a session log, taking metadata from the file name.
func ReadFile(fn string) (*Data, error) {
	s, err := ParseFilename(fn)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	trials, err := ReadTrials(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return &Data{Session: s, Trials: trials}, nil
}

// Glob expands paths into a sorted list of session files.  Directories
// are searched (not recursively) for names matching pattern; other paths
// are taken as given.
func Glob(paths []string, pattern string) ([]string, error) {
	var files []string
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			files = append(files, p)
			continue
		}
		m, err := filepath.Glob(filepath.Join(p, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, m...)
	}
	sort.Strings(files)
	return files, nil
}

// MaxDB returns the longest delay offered in the trials.
func (d *Data) MaxDB() float64 {
	var m float64
	for _, t := range d.Trials {
		if t.DB > m {
			m = t.DB
		}
	}
	return m
}
