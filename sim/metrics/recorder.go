// Package metrics exposes simulation counters as prometheus collectors and
// builds the end-of-run report.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "cloudsim"

// Fully qualified metric names, for Value.
const (
	MetricEnergy            = namespace + "_datacenter_energy_joules"
	MetricMigrations        = namespace + "_vm_migrations_total"
	MetricCloudletsReturned = namespace + "_cloudlets_returned_total"
	MetricHostUtilization   = namespace + "_host_cpu_utilization"
	MetricEventsDispatched  = namespace + "_events_dispatched_total"
)

// Recorder owns a private prometheus registry with the simulation collectors
// and keeps the raw host utilization samples for the report. A nil Recorder
// is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	energy          *prometheus.GaugeVec
	migrations      *prometheus.CounterVec
	cloudlets       *prometheus.CounterVec
	hostUtilization *prometheus.GaugeVec
	dispatched      *prometheus.CounterVec

	hostOrder []hostKey
	samples   map[hostKey][]float64
}

type hostKey struct {
	datacenter string
	host       int
}

// NewRecorder creates a Recorder with every collector registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		energy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "datacenter_energy_joules",
				Help:      "Cumulative energy consumed by a datacenter's hosts.",
			},
			[]string{"datacenter"},
		),
		migrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vm_migrations_total",
				Help:      "VM migrations started by the consolidation policy.",
			},
			[]string{"datacenter"},
		),
		cloudlets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cloudlets_returned_total",
				Help:      "Cloudlets returned to their broker, by final status.",
			},
			[]string{"datacenter", "status"},
		),
		hostUtilization: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "host_cpu_utilization",
				Help:      "CPU utilization sampled at the last datacenter update.",
			},
			[]string{"datacenter", "host"},
		),
		dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_dispatched_total",
				Help:      "Events handed to entities by the kernel, by tag.",
			},
			[]string{"tag"},
		),
		samples: make(map[hostKey][]float64),
	}
	r.registry.MustRegister(r.energy, r.migrations, r.cloudlets, r.hostUtilization, r.dispatched)
	return r
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// SetEnergy records a datacenter's cumulative energy.
func (r *Recorder) SetEnergy(datacenter string, joules float64) {
	if r == nil {
		return
	}
	r.energy.WithLabelValues(datacenter).Set(joules)
}

// IncMigrations counts one started migration.
func (r *Recorder) IncMigrations(datacenter string) {
	if r == nil {
		return
	}
	r.migrations.WithLabelValues(datacenter).Inc()
}

// IncCloudletsReturned counts one cloudlet handed back with the given status.
func (r *Recorder) IncCloudletsReturned(datacenter, status string) {
	if r == nil {
		return
	}
	r.cloudlets.WithLabelValues(datacenter, status).Inc()
}

// ObserveHostUtilization records a utilization sample for a host.
func (r *Recorder) ObserveHostUtilization(datacenter string, host int, u float64) {
	if r == nil {
		return
	}
	r.hostUtilization.WithLabelValues(datacenter, strconv.Itoa(host)).Set(u)
	key := hostKey{datacenter: datacenter, host: host}
	if _, ok := r.samples[key]; !ok {
		r.hostOrder = append(r.hostOrder, key)
	}
	r.samples[key] = append(r.samples[key], u)
}

// ObserveDispatch counts one dispatched event.
func (r *Recorder) ObserveDispatch(tag string) {
	if r == nil {
		return
	}
	r.dispatched.WithLabelValues(tag).Inc()
}

// HostStats summarizes the utilization samples of every observed host, in
// first-observed order.
func (r *Recorder) HostStats() []HostStats {
	if r == nil {
		return nil
	}
	out := make([]HostStats, 0, len(r.hostOrder))
	for _, key := range r.hostOrder {
		out = append(out, summarize(key.datacenter, key.host, r.samples[key]))
	}
	return out
}

// Value reads the current value of the gauge or counter sample with the given
// metric name and exact label set.
func (r *Recorder) Value(name string, labels map[string]string) (float64, bool) {
	if r == nil {
		return 0, false
	}
	families, err := r.registry.Gather()
	if err != nil {
		return 0, false
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if !labelsMatch(m.GetLabel(), labels) {
				continue
			}
			switch {
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue(), true
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue(), true
			}
		}
	}
	return 0, false
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, p := range pairs {
		if v, ok := want[p.GetName()]; !ok || v != p.GetValue() {
			return false
		}
	}
	return true
}
