// Package metrics exposes the runtime's lifecycle counters as prometheus
// collectors, fed from the loader's event stream.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/loader"
)

var (
	modulesRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "alphaid_modules_registered",
			Help: "Number of module records in the current registry.",
		},
	)

	constructedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alphaid_modules_constructed_total",
			Help: "Total number of module constructions completed.",
		},
	)
	constructFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alphaid_modules_construct_failures_total",
			Help: "Total number of module constructions that failed.",
		},
	)

	initializedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alphaid_modules_initialized_total",
			Help: "Total number of module initializations completed.",
		},
	)
	initFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alphaid_modules_init_failures_total",
			Help: "Total number of module initializations that failed.",
		},
	)

	unloadedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alphaid_modules_unloaded_total",
			Help: "Total number of module unloads completed.",
		},
	)
	unloadFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alphaid_modules_unload_failures_total",
			Help: "Total number of module unloads that failed or were declined.",
		},
	)

	phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alphaid_module_phase_duration_seconds",
			Help:    "Time taken by each bulk lifecycle phase.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)
)

func init() {
	prometheus.MustRegister(
		modulesRegistered,
		constructedTotal,
		constructFailuresTotal,
		initializedTotal,
		initFailuresTotal,
		unloadedTotal,
		unloadFailuresTotal,
		phaseDuration,
	)
}

// phases maps before-event names to the phase label of the matching
// duration observation.
var phases = map[string]string{
	loader.EventRebuildBefore:   "rebuild",
	loader.EventConstructBefore: "construct",
	loader.EventInitBefore:      "init",
	loader.EventUnloadBefore:    "unload",
}

// Observe attaches the lifecycle collectors to l's event stream.
func Observe(l *loader.Loader) {
	o := &observer{started: make(map[string]time.Time)}
	l.Subscribe(o.handle)
}

// observer pairs before and after events to time each phase.
type observer struct {
	mu      sync.Mutex
	started map[string]time.Time
}

func (o *observer) handle(ev loader.Event) {
	switch ev.Name {
	case loader.EventRebuildBefore, loader.EventConstructBefore,
		loader.EventInitBefore, loader.EventUnloadBefore:
		o.begin(phases[ev.Name])

	case loader.EventRebuildAfter:
		modulesRegistered.Set(float64(ev.Count))
		o.finish("rebuild")
	case loader.EventConstructAfter:
		constructedTotal.Add(float64(ev.Count))
		o.finish("construct")
	case loader.EventInitAfter:
		initializedTotal.Add(float64(ev.Count))
		o.finish("init")
	case loader.EventUnloadAfter:
		unloadedTotal.Add(float64(ev.Count))
		o.finish("unload")

	case loader.EventConstructFailure:
		constructFailuresTotal.Inc()
	case loader.EventInitFailure:
		initFailuresTotal.Inc()
	case loader.EventUnloadFailure:
		unloadFailuresTotal.Inc()
	}
}

func (o *observer) begin(phase string) {
	o.mu.Lock()
	o.started[phase] = time.Now()
	o.mu.Unlock()
}

func (o *observer) finish(phase string) {
	o.mu.Lock()
	start, ok := o.started[phase]
	delete(o.started, phase)
	o.mu.Unlock()
	if ok {
		phaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	}
}
