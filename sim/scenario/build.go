// Package scenario turns a declarative scenario description into a wired
// simulation: datacenters with their hosts and policies, brokers with their
// VMs and cloudlets, and the metrics and trace collectors.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cloud-sim/cloud-sim/sim"
	"github.com/cloud-sim/cloud-sim/sim/broker"
	"github.com/cloud-sim/cloud-sim/sim/cloud"
	"github.com/cloud-sim/cloud-sim/sim/datacenter"
	"github.com/cloud-sim/cloud-sim/sim/metrics"
	"github.com/cloud-sim/cloud-sim/sim/policy"
	"github.com/cloud-sim/cloud-sim/sim/power"
	"github.com/cloud-sim/cloud-sim/sim/trace"
	"github.com/cloud-sim/cloud-sim/sim/utilization"
)

// planetLabFileSize is the input and output size of every trace-driven cloudlet.
const planetLabFileSize = 300

// Simulation is a scenario wired into a simulator. Run it once.
type Simulation struct {
	Simulator   *sim.Simulator
	Datacenters []*datacenter.PowerDatacenter
	Brokers     []*broker.DatacenterBroker
	Metrics     *metrics.Recorder
	Trace       *trace.SimulationTrace // nil unless tracing is on

	streams *sim.Streams
}

// Build validates spec and creates every entity it describes. Datacenters
// are registered before brokers, so they hold the lowest ids.
func Build(spec *ScenarioSpec) (*Simulation, error) {
	if err := spec.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid scenario")
	}
	out := &Simulation{
		Metrics: metrics.NewRecorder(),
		streams: sim.NewStreams(spec.Seed),
	}
	if trace.TraceLevel(spec.Trace) == trace.TraceLevelEvents {
		out.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})
	}
	out.Simulator = sim.NewSimulator(sim.Options{
		Horizon: spec.Horizon,
		Trace:   out.Trace,
		OnDispatch: func(ev *sim.Event) {
			out.Metrics.ObserveDispatch(ev.Tag().String())
		},
	})

	for i := range spec.Datacenters {
		dc, err := out.buildDatacenter(&spec.Datacenters[i])
		if err != nil {
			return nil, errors.Wrapf(err, "datacenter %q", spec.Datacenters[i].Name)
		}
		out.Datacenters = append(out.Datacenters, dc)
	}
	for i := range spec.Brokers {
		b, err := out.buildBroker(&spec.Brokers[i])
		if err != nil {
			return nil, errors.Wrapf(err, "broker %q", spec.Brokers[i].Name)
		}
		out.Brokers = append(out.Brokers, b)
	}
	logrus.Infof("Built scenario: %d datacenter(s), %d broker(s), seed %d", len(out.Datacenters), len(out.Brokers), spec.Seed)
	return out, nil
}

func (s *Simulation) buildDatacenter(spec *DatacenterSpec) (*datacenter.PowerDatacenter, error) {
	var hosts []*cloud.Host
	for _, hs := range spec.Hosts {
		pm, err := power.NewModel(hs.PowerModel, hs.MaxPower, hs.StaticPercent)
		if err != nil {
			return nil, err
		}
		for i := 0; i < hs.Count; i++ {
			hosts = append(hosts, cloud.NewHost(len(hosts), hs.Pes, hs.MipsPerPe, hs.Ram, hs.Bw, hs.Storage, pm))
		}
	}
	p, err := policy.NewAllocationPolicy(spec.Policy, hosts, spec.Threshold)
	if err != nil {
		return nil, err
	}
	c := spec.Characteristics
	dc, err := datacenter.New(datacenter.Config{
		Name: spec.Name,
		Characteristics: cloud.CharacteristicsConfig{
			Architecture:   c.Architecture,
			OS:             c.OS,
			Vmm:            c.Vmm,
			TimeZone:       c.TimeZone,
			CostPerSecond:  c.CostPerSecond,
			CostPerMem:     c.CostPerMem,
			CostPerStorage: c.CostPerStorage,
			CostPerBw:      c.CostPerBw,
		},
		Hosts:              hosts,
		Policy:             p,
		SchedulingInterval: spec.SchedulingInterval,
		DisableMigrations:  spec.DisableMigrations,
		Metrics:            s.Metrics,
		Trace:              s.Trace,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.Simulator.AddEntity(dc); err != nil {
		return nil, err
	}
	return dc, nil
}

func (s *Simulation) buildBroker(spec *BrokerSpec) (*broker.DatacenterBroker, error) {
	var opts []broker.Option
	if spec.AbortOnVmFailure {
		opts = append(opts, broker.WithAbortOnVmFailure())
	}
	b := broker.New(spec.Name, opts...)
	if _, err := s.Simulator.AddEntity(b); err != nil {
		return nil, err
	}

	var vms []*cloud.Vm
	for _, vs := range spec.Vms {
		for i := 0; i < vs.Count; i++ {
			vm := cloud.NewVm(len(vms), b.ID(), vs.Mips, vs.Pes, vs.Ram, vs.Bw, vs.Size)
			if vs.Vmm != "" {
				vm.Vmm = vs.Vmm
			}
			vms = append(vms, vm)
		}
	}
	if err := b.SubmitVmList(vms...); err != nil {
		return nil, err
	}

	workload := s.streams.Stream(sim.StreamWorkload)
	var cloudlets []*cloud.Cloudlet
	type binding struct{ cloudlet, vm int }
	var bindings []binding
	for _, cs := range spec.Cloudlets {
		for i := 0; i < cs.Count; i++ {
			id := len(cloudlets)
			length := cs.Length
			if cs.LengthMax > cs.Length {
				length += workload.Float64() * (cs.LengthMax - cs.Length)
			}
			stream := sim.CloudletStream(spec.Name, id)
			cpu, err := s.buildModel(cs.Utilization.CPU, stream+"_cpu")
			if err != nil {
				return nil, errors.Wrapf(err, "cloudlet #%d cpu", id)
			}
			ram, err := s.buildModel(cs.Utilization.RAM, stream+"_ram")
			if err != nil {
				return nil, errors.Wrapf(err, "cloudlet #%d ram", id)
			}
			bw, err := s.buildModel(cs.Utilization.BW, stream+"_bw")
			if err != nil {
				return nil, errors.Wrapf(err, "cloudlet #%d bw", id)
			}
			cl := cloud.NewCloudlet(id, b.ID(), length, cs.Pes, cpu, ram, bw)
			cl.FileSize = cs.FileSize
			cl.OutputSize = cs.OutputSize
			cloudlets = append(cloudlets, cl)
			if i < len(cs.Bind) {
				bindings = append(bindings, binding{cloudlet: id, vm: cs.Bind[i]})
			}
		}
	}
	if spec.PlanetLab != nil {
		traced, err := planetLabCloudlets(spec.PlanetLab, b.ID(), len(cloudlets))
		if err != nil {
			return nil, err
		}
		for i, cl := range traced {
			if i < len(vms) {
				bindings = append(bindings, binding{cloudlet: cl.ID, vm: i})
			}
		}
		cloudlets = append(cloudlets, traced...)
	}
	if err := b.SubmitCloudletList(cloudlets...); err != nil {
		return nil, err
	}
	for _, bd := range bindings {
		if err := b.BindCloudletToVm(bd.cloudlet, bd.vm); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// planetLabCloudlets creates one CPU-trace-driven cloudlet per regular file
// in spec.Dir, numbered from firstID in file-name order.
func planetLabCloudlets(spec *PlanetLabSpec, userID, firstID int) ([]*cloud.Cloudlet, error) {
	entries, err := os.ReadDir(spec.Dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading planetlab directory")
	}
	var out []*cloud.Cloudlet
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		cpu, err := utilization.LoadPlanetLabTrace(filepath.Join(spec.Dir, e.Name()), spec.Interval)
		if err != nil {
			return nil, err
		}
		cl := cloud.NewCloudlet(firstID+len(out), userID, spec.Length, spec.Pes, cpu, utilization.Null{}, utilization.Null{})
		cl.FileSize = planetLabFileSize
		cl.OutputSize = planetLabFileSize
		out = append(out, cl)
	}
	if len(out) == 0 {
		return nil, errors.Errorf("no trace files in %s", spec.Dir)
	}
	return out, nil
}

// buildModel returns nil for an absent spec; the cloudlet then demands the full resource.
func (s *Simulation) buildModel(spec *ModelSpec, stream string) (utilization.Model, error) {
	if spec == nil {
		return nil, nil
	}
	switch spec.Type {
	case "full":
		return utilization.Full{}, nil
	case "null":
		return utilization.Null{}, nil
	case "constant":
		return utilization.Constant{Value: spec.Value}, nil
	case "stochastic":
		return utilization.NewStochastic(s.streams.Stream(stream)), nil
	case "series":
		return utilization.NewInterpolated(spec.Samples, spec.Interval)
	case "trace":
		return utilization.LoadPlanetLabTrace(spec.File, spec.Interval)
	default:
		return nil, fmt.Errorf("unknown utilization type %q", spec.Type)
	}
}

// Run executes the simulation and summarizes it.
func (s *Simulation) Run() *metrics.Report {
	end := s.Simulator.Run()

	report := metrics.NewReport()
	report.SimulatedTime = end
	report.Dispatched = s.Simulator.Dispatched()
	for _, dc := range s.Datacenters {
		report.Datacenters = append(report.Datacenters, metrics.DatacenterSummary{
			Name:              dc.Name(),
			EnergyJoules:      dc.Power(),
			Migrations:        dc.MigrationCount(),
			CloudletsReturned: dc.CloudletsReturned(),
		})
	}
	for _, b := range s.Brokers {
		report.Brokers = append(report.Brokers, metrics.BrokerSummary{
			Name:       b.Name(),
			State:      b.State().String(),
			VmsCreated: b.VmCreations(),
			Submitted:  len(b.SubmittedCloudlets()),
			Received:   len(b.ReceivedCloudlets()),
			Pending:    len(b.PendingCloudlets()),
		})
	}
	report.Hosts = s.Metrics.HostStats()
	if s.Trace.Enabled() {
		report.Trace = trace.Summarize(s.Trace)
	}
	return report
}
