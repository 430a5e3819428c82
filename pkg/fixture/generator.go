package fixture

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// KeyRange bounds generated keys; both ends are inclusive.
type KeyRange struct {
	Low  int `yaml:"low" json:"low"`
	High int `yaml:"high" json:"high"`
}

// Options describe a batch of fixtures.
type Options struct {
	Files       int      `json:"files"`        // number of fixture files
	Lines       int      `json:"lines"`        // command lines per file, reset lines excluded
	ResetChance float64  `json:"reset_chance"` // probability that a set is followed by a reset
	Keys        KeyRange `json:"keys"`
}

// Validate reports whether o can drive a Generator.
func (o Options) Validate() error {
	switch {
	case o.Files < 1:
		return fmt.Errorf("%w: file count must be at least 1, got %d", ErrInvalidOptions, o.Files)
	case o.Lines < 0:
		return fmt.Errorf("%w: lines per file must not be negative, got %d", ErrInvalidOptions, o.Lines)
	case math.IsNaN(o.ResetChance) || o.ResetChance < 0 || o.ResetChance > 1:
		return fmt.Errorf("%w: reset chance must be within [0, 1], got %v", ErrInvalidOptions, o.ResetChance)
	case o.Keys.Low > o.Keys.High:
		return fmt.Errorf("%w: key range low %d exceeds high %d", ErrInvalidOptions, o.Keys.Low, o.Keys.High)
	case uint64(o.Keys.High-o.Keys.Low) >= math.MaxInt:
		return fmt.Errorf("%w: key range [%d, %d] is too wide", ErrInvalidOptions, o.Keys.Low, o.Keys.High)
	}
	return nil
}

// Stats counts what was written to one fixture.
type Stats struct {
	Commands int   `json:"commands"`
	Gets     int   `json:"gets"`
	Sets     int   `json:"sets"`
	Resets   int   `json:"resets"`
	Bytes    int64 `json:"bytes"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Commands += other.Commands
	s.Gets += other.Gets
	s.Sets += other.Sets
	s.Resets += other.Resets
	s.Bytes += other.Bytes
}

// Result describes one written fixture file.
type Result struct {
	Name  string `json:"name"`
	Path  string `json:"-"`
	Stats Stats  `json:"stats"`
}

// Notifier is told about every completed fixture, in order.
type Notifier interface {
	FileDone(index int, res Result)
}

// Generator draws random commands from a Source.
type Generator struct {
	opts Options
	rand Source
}

// NewGenerator returns a generator for opts drawing from src.
func NewGenerator(opts Options, src Source) (*Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Generator{opts: opts, rand: src}, nil
}

// Next draws one command. The kind is drawn first, then the key, then (for
// sets only) the reset.
func (g *Generator) Next() Command {
	set := g.rand.IntN(2) == 1
	key := g.opts.Keys.Low + g.rand.IntN(g.opts.Keys.High-g.opts.Keys.Low+1)
	if !set {
		return GetKey{K: key}
	}
	return SetKey{K: key, Reset: g.rand.Float64()*100 < g.opts.ResetChance*100}
}

// WriteFixture writes one fixture body of opts.Lines commands to w.
func (g *Generator) WriteFixture(w io.Writer) (Stats, error) {
	var st Stats
	for i := 0; i < g.opts.Lines; i++ {
		cmd := g.Next()
		n, err := WriteCommand(w, cmd)
		st.Bytes += int64(n)
		if err != nil {
			return st, err
		}
		st.Commands++
		switch c := cmd.(type) {
		case GetKey:
			st.Gets++
		case SetKey:
			st.Sets++
			if c.Reset {
				st.Resets++
			}
		}
	}
	return st, nil
}

// FileName returns the name of the fixture at the 0-based index.
func FileName(index int) string {
	return fmt.Sprintf("test_%03d.in", index+1)
}

// Generate writes opts.Files fixtures into dir, truncating existing files.
// The first I/O error aborts the run; files already written are left in place.
// notify may be nil.
func Generate(dir string, opts Options, src Source, notify Notifier) ([]Result, error) {
	g, err := NewGenerator(opts, src)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, opts.Files)
	for i := 0; i < opts.Files; i++ {
		res := Result{Name: FileName(i), Path: filepath.Join(dir, FileName(i))}
		res.Stats, err = g.writeFile(res.Path)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if notify != nil {
			notify.FileDone(i, res)
		}
	}
	return results, nil
}

func (g *Generator) writeFile(path string) (st Stats, err error) {
	f, err := os.Create(path)
	if err != nil {
		return st, &FileError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &FileError{Op: "close", Path: path, Err: cerr}
		}
	}()

	bw := bufio.NewWriter(f)
	if st, err = g.WriteFixture(bw); err != nil {
		return st, &FileError{Op: "write", Path: path, Err: err}
	}
	if err = bw.Flush(); err != nil {
		return st, &FileError{Op: "flush", Path: path, Err: err}
	}
	return st, nil
}
