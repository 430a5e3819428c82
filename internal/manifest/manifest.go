package manifest

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"

	"pkg.jsn.cam/permgen/pkg/fixture"
	"pkg.jsn.cam/permgen/pkg/storage"
)

// SchemaVersion is stamped into every manifest. Stores whose major version
// differs are refused.
const SchemaVersion = "v1.0.0"

var (
	ErrRunNotFound        = errors.New("run not found")
	ErrIncompatibleSchema = errors.New("incompatible manifest schema")
)

var (
	metaBucket    = []byte("meta")
	runsBucket    = []byte("runs")
	schemaVersion = []byte("schema_version")
)

// Run records one invocation of the generator.
type Run struct {
	ID         string           `json:"id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Seed       uint64           `json:"seed"`
	OutputDir  string           `json:"output_dir"`
	Options    fixture.Options  `json:"options"`
	Fixtures   []fixture.Result `json:"fixtures"`
}

// NewRun starts a run record with a fresh id.
func NewRun(seed uint64, outputDir string, opts fixture.Options) *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Seed:      seed,
		OutputDir: outputDir,
		Options:   opts,
	}
}

// Totals sums the stats of every fixture in the run.
func (r *Run) Totals() fixture.Stats {
	var total fixture.Stats
	for _, f := range r.Fixtures {
		total.Add(f.Stats)
	}
	return total
}

// Manifest is the run history kept alongside the fixtures.
type Manifest struct {
	store *storage.JSONStore
}

// Open prepares backend for use as a manifest, stamping the schema version on
// first use.
func Open(backend storage.Backend) (*Manifest, error) {
	store := storage.NewJSONStore(backend)
	for _, b := range [][]byte{metaBucket, runsBucket} {
		if err := store.CreateBucket(b); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", b, err)
		}
	}

	var version string
	found, err := store.GetJSON(metaBucket, schemaVersion, &version)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	if !found {
		if err := store.PutJSON(metaBucket, schemaVersion, SchemaVersion); err != nil {
			return nil, fmt.Errorf("failed to write schema version: %w", err)
		}
		return &Manifest{store: store}, nil
	}

	if ok, err := IsCompatible(version); err != nil || !ok {
		return nil, fmt.Errorf("%w: store has %s, want %s.x.x", ErrIncompatibleSchema, version, semver.Major(SchemaVersion))
	}
	return &Manifest{store: store}, nil
}

// OpenFile opens a bbolt-backed manifest at path.
func OpenFile(path string) (*Manifest, error) {
	backend, err := storage.NewBboltBackend(path)
	if err != nil {
		return nil, err
	}
	m, err := Open(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return m, nil
}

// IsCompatible reports whether a stored schema version can be read by this
// build. Only the major version has to match.
func IsCompatible(version string) (bool, error) {
	if !semver.IsValid(version) {
		return false, fmt.Errorf("invalid schema version: %s", version)
	}
	return semver.Major(version) == semver.Major(SchemaVersion), nil
}

// RecordRun stores r, replacing any run with the same id.
func (m *Manifest) RecordRun(r *Run) error {
	if r.ID == "" {
		return errors.New("run has no id")
	}
	return m.store.PutJSON(runsBucket, []byte(r.ID), r)
}

// Get returns the run with the given id.
func (m *Manifest) Get(id string) (*Run, error) {
	var r Run
	found, err := m.store.GetJSON(runsBucket, []byte(id), &r)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return &r, nil
}

// Runs returns every recorded run, oldest first.
func (m *Manifest) Runs() ([]*Run, error) {
	var runs []*Run
	err := m.store.ForEachJSON(runsBucket, func(_ []byte, decode func(v any) error) error {
		var r Run
		if err := decode(&r); err != nil {
			return err
		}
		runs = append(runs, &r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(runs, func(a, b *Run) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return runs, nil
}

func (m *Manifest) Close() error {
	return m.store.Close()
}
