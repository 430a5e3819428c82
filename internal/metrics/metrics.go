package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pkg.jsn.cam/permgen/pkg/fixture"
)

// Recorder counts generated output on a private registry, so several runs in
// one process (tests) never collide on the global one.
type Recorder struct {
	registry *prometheus.Registry

	FixturesWritten prometheus.Counter
	Commands        *prometheus.CounterVec
	Resets          prometheus.Counter
	BytesWritten    prometheus.Counter
	RunDuration     prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		FixturesWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "permgen_fixtures_written_total",
			Help: "Total number of fixture files written",
		}),
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "permgen_commands_total",
			Help: "Total number of commands written, by kind",
		}, []string{"kind"}),
		Resets: f.NewCounter(prometheus.CounterOpts{
			Name: "permgen_resets_total",
			Help: "Total number of reset lines written",
		}),
		BytesWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "permgen_bytes_written_total",
			Help: "Total number of bytes written to fixtures",
		}),
		RunDuration: f.NewGauge(prometheus.GaugeOpts{
			Name: "permgen_run_duration_seconds",
			Help: "Wall time of the last generation run",
		}),
	}
}

// FileDone implements fixture.Notifier.
func (r *Recorder) FileDone(_ int, res fixture.Result) {
	r.Observe(res.Stats)
}

// Observe adds one fixture's stats to the counters.
func (r *Recorder) Observe(st fixture.Stats) {
	r.FixturesWritten.Inc()
	r.Commands.WithLabelValues("get").Add(float64(st.Gets))
	r.Commands.WithLabelValues("set").Add(float64(st.Sets))
	r.Resets.Add(float64(st.Resets))
	r.BytesWritten.Add(float64(st.Bytes))
}

func (r *Recorder) ObserveDuration(d time.Duration) {
	r.RunDuration.Set(d.Seconds())
}

// WriteTextfile dumps every metric to path in the text exposition format
// read by node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
