package metrics

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cloud-sim/cloud-sim/sim/trace"
)

// joulesPerKWh converts joules (W*sec) to kWh.
const joulesPerKWh = 3600 * 1000

// HostStats summarizes one host's utilization samples.
type HostStats struct {
	Datacenter string
	Host       int
	Samples    int
	Mean       float64
	StdDev     float64
	Max        float64
}

func summarize(datacenter string, host int, samples []float64) HostStats {
	hs := HostStats{Datacenter: datacenter, Host: host, Samples: len(samples)}
	if len(samples) == 0 {
		return hs
	}
	hs.Mean, hs.StdDev = stat.MeanStdDev(samples, nil)
	if len(samples) == 1 {
		hs.StdDev = 0
	}
	hs.Max = floats.Max(samples)
	return hs
}

// DatacenterSummary is the end-of-run state of one datacenter.
type DatacenterSummary struct {
	Name              string
	EnergyJoules      float64
	Migrations        int
	CloudletsReturned int
}

// EnergyKWh converts the consumed energy to kWh.
func (d DatacenterSummary) EnergyKWh() float64 { return d.EnergyJoules / joulesPerKWh }

// BrokerSummary is the end-of-run state of one broker.
type BrokerSummary struct {
	Name       string
	State      string
	VmsCreated int
	Submitted  int
	Received   int
	Pending    int
}

// Report aggregates one run for final printing.
type Report struct {
	RunID         string
	SimulatedTime float64
	Dispatched    int64
	Datacenters   []DatacenterSummary
	Brokers       []BrokerSummary
	Hosts         []HostStats
	Trace         *trace.TraceSummary // nil unless tracing was on
}

// NewReport creates an empty report with a fresh run id.
func NewReport() *Report {
	return &Report{RunID: uuid.NewString()}
}

// TotalEnergyJoules sums the energy of every datacenter.
func (r *Report) TotalEnergyJoules() float64 {
	var total float64
	for _, dc := range r.Datacenters {
		total += dc.EnergyJoules
	}
	return total
}

// TotalMigrations sums the migrations of every datacenter.
func (r *Report) TotalMigrations() int {
	total := 0
	for _, dc := range r.Datacenters {
		total += dc.Migrations
	}
	return total
}

// Print writes the report in a fixed human-readable layout.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Run ID               : %s\n", r.RunID)
	fmt.Fprintf(w, "Simulated Time       : %.2f s\n", r.SimulatedTime)
	fmt.Fprintf(w, "Dispatched Events    : %d\n", r.Dispatched)
	fmt.Fprintf(w, "Total Energy         : %.2f kWh\n", r.TotalEnergyJoules()/joulesPerKWh)
	fmt.Fprintf(w, "Total Migrations     : %d\n", r.TotalMigrations())
	for _, dc := range r.Datacenters {
		fmt.Fprintf(w, "--- Datacenter %s ---\n", dc.Name)
		fmt.Fprintf(w, "  Energy             : %.2f W*sec (%.4f kWh)\n", dc.EnergyJoules, dc.EnergyKWh())
		fmt.Fprintf(w, "  Migrations         : %d\n", dc.Migrations)
		fmt.Fprintf(w, "  Cloudlets Returned : %d\n", dc.CloudletsReturned)
	}
	for _, b := range r.Brokers {
		fmt.Fprintf(w, "--- Broker %s ---\n", b.Name)
		fmt.Fprintf(w, "  Final State        : %s\n", b.State)
		fmt.Fprintf(w, "  VMs Created        : %d\n", b.VmsCreated)
		fmt.Fprintf(w, "  Cloudlets          : %d submitted, %d received, %d pending\n", b.Submitted, b.Received, b.Pending)
	}
	if len(r.Hosts) > 0 {
		fmt.Fprintln(w, "--- Host Utilization ---")
		for _, h := range r.Hosts {
			fmt.Fprintf(w, "  %s/host-%d: mean %.2f%%, stddev %.2f%%, max %.2f%% over %d samples\n",
				h.Datacenter, h.Host, h.Mean*100, h.StdDev*100, h.Max*100, h.Samples)
		}
	}
	if r.Trace != nil {
		r.printTrace(w)
	}
}

func (r *Report) printTrace(w io.Writer) {
	t := r.Trace
	fmt.Fprintln(w, "--- Event Trace ---")
	fmt.Fprintf(w, "  Traced Dispatches  : %d\n", t.TotalDispatches)
	tags := make([]string, 0, len(t.TagCounts))
	for tag := range t.TagCounts {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	for _, tag := range tags {
		fmt.Fprintf(w, "    %-18s : %d\n", tag, t.TagCounts[tag])
	}
	fmt.Fprintf(w, "  Traced Migrations  : %d (%d distinct VMs)\n", t.Migrations, t.MigratedVms)
	if t.Migrations > 0 {
		fmt.Fprintf(w, "  Migration Delay    : mean %.2f s, max %.2f s\n", t.MeanDelay, t.MaxDelay)
	}
}
