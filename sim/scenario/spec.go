package scenario

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cloud-sim/cloud-sim/sim/policy"
	"github.com/cloud-sim/cloud-sim/sim/power"
	"github.com/cloud-sim/cloud-sim/sim/trace"
)

// ScenarioSpec is the top-level scenario configuration.
// Loaded from YAML via LoadScenarioSpec(path).
type ScenarioSpec struct {
	Seed        int64            `yaml:"seed"`
	Horizon     float64          `yaml:"horizon,omitempty"` // 0 = run until no events remain
	Trace       string           `yaml:"trace,omitempty"`   // "none" or "events"
	Datacenters []DatacenterSpec `yaml:"datacenters"`
	Brokers     []BrokerSpec     `yaml:"brokers"`
}

// DatacenterSpec describes one power-aware datacenter.
type DatacenterSpec struct {
	Name               string              `yaml:"name"`
	Policy             string              `yaml:"policy,omitempty"`
	Threshold          float64             `yaml:"threshold,omitempty"`
	SchedulingInterval float64             `yaml:"scheduling_interval"`
	DisableMigrations  bool                `yaml:"disable_migrations,omitempty"`
	Characteristics    CharacteristicsSpec `yaml:"characteristics,omitempty"`
	Hosts              []HostSpec          `yaml:"hosts"`
}

// CharacteristicsSpec is the static description a datacenter reports to brokers.
type CharacteristicsSpec struct {
	Architecture   string  `yaml:"architecture,omitempty"`
	OS             string  `yaml:"os,omitempty"`
	Vmm            string  `yaml:"vmm,omitempty"`
	TimeZone       float64 `yaml:"time_zone,omitempty"`
	CostPerSecond  float64 `yaml:"cost_per_second,omitempty"`
	CostPerMem     float64 `yaml:"cost_per_mem,omitempty"`
	CostPerStorage float64 `yaml:"cost_per_storage,omitempty"`
	CostPerBw      float64 `yaml:"cost_per_bw,omitempty"`
}

// HostSpec describes Count identical hosts.
type HostSpec struct {
	Count         int     `yaml:"count"`
	Pes           int     `yaml:"pes"`
	MipsPerPe     float64 `yaml:"mips_per_pe"`
	Ram           int     `yaml:"ram"`
	Bw            int64   `yaml:"bw"`
	Storage       int64   `yaml:"storage"`
	PowerModel    string  `yaml:"power_model,omitempty"`
	MaxPower      float64 `yaml:"max_power,omitempty"`
	StaticPercent float64 `yaml:"static_percent,omitempty"`
}

// BrokerSpec describes one tenant and its workload.
type BrokerSpec struct {
	Name      string         `yaml:"name"`
	Vms       []VmSpec       `yaml:"vms"`
	Cloudlets []CloudletSpec `yaml:"cloudlets"`
	PlanetLab *PlanetLabSpec `yaml:"planetlab,omitempty"`
	// AbortOnVmFailure ends the simulation at the first refused VM creation.
	AbortOnVmFailure bool `yaml:"abort_on_vm_failure,omitempty"`
}

// PlanetLabSpec adds one cloudlet per trace file in Dir, in file-name order.
// Each cloudlet's CPU demand follows its trace, RAM and BW demand nothing,
// and the i-th cloudlet is bound to the broker's VM #i when that VM exists.
type PlanetLabSpec struct {
	Dir      string  `yaml:"dir"`
	Interval float64 `yaml:"interval"`
	Length   float64 `yaml:"length"`
	Pes      int     `yaml:"pes"`
}

// VmSpec describes Count identical VMs. Ids are assigned per broker in order.
type VmSpec struct {
	Count int     `yaml:"count"`
	Mips  float64 `yaml:"mips"`
	Pes   int     `yaml:"pes"`
	Ram   int     `yaml:"ram"`
	Bw    int64   `yaml:"bw"`
	Size  int64   `yaml:"size"`
	Vmm   string  `yaml:"vmm,omitempty"`
}

// CloudletSpec describes Count cloudlets. Ids are assigned per broker in order.
// When LengthMax exceeds Length, each length is drawn uniformly from
// [Length, LengthMax] with the workload RNG. The i-th cloudlet of the group is
// bound to VM Bind[i]; cloudlets past the end of Bind stay unbound.
type CloudletSpec struct {
	Count       int             `yaml:"count"`
	Length      float64         `yaml:"length"`
	LengthMax   float64         `yaml:"length_max,omitempty"`
	Pes         int             `yaml:"pes"`
	FileSize    int64           `yaml:"file_size,omitempty"`
	OutputSize  int64           `yaml:"output_size,omitempty"`
	Bind        []int           `yaml:"bind,omitempty"`
	Utilization UtilizationSpec `yaml:"utilization,omitempty"`
}

// UtilizationSpec selects the demand models of a cloudlet group.
type UtilizationSpec struct {
	CPU *ModelSpec `yaml:"cpu,omitempty"`
	RAM *ModelSpec `yaml:"ram,omitempty"`
	BW  *ModelSpec `yaml:"bw,omitempty"`
}

// ModelSpec parameterizes one utilization model.
// Types: full, null, constant (value), stochastic, series (samples, interval),
// trace (file, interval).
type ModelSpec struct {
	Type     string    `yaml:"type"`
	Value    float64   `yaml:"value,omitempty"`
	Samples  []float64 `yaml:"samples,omitempty"`
	Interval float64   `yaml:"interval,omitempty"`
	File     string    `yaml:"file,omitempty"`
}

var validModelTypes = map[string]bool{
	"full": true, "null": true, "constant": true, "stochastic": true, "series": true, "trace": true,
}

// LoadScenarioSpec reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScenarioSpec(path string) (*ScenarioSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenarioSpec(data)
}

// ParseScenarioSpec parses a YAML scenario held in memory.
func ParseScenarioSpec(data []byte) (*ScenarioSpec, error) {
	var spec ScenarioSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &spec, nil
}

// Validate checks every field of the scenario and reports the first invalid one.
func (s *ScenarioSpec) Validate() error {
	if s.Horizon < 0 || math.IsNaN(s.Horizon) || math.IsInf(s.Horizon, 0) {
		return fmt.Errorf("horizon must be a non-negative finite number, got %f", s.Horizon)
	}
	if !trace.IsValidTraceLevel(s.Trace) {
		return fmt.Errorf("unknown trace level %q; valid: none, events", s.Trace)
	}
	if len(s.Brokers) == 0 {
		return fmt.Errorf("at least one broker required")
	}
	names := map[string]bool{}
	for i := range s.Datacenters {
		dc := &s.Datacenters[i]
		if err := validateDatacenter(dc, i); err != nil {
			return err
		}
		if names[dc.Name] {
			return fmt.Errorf("datacenter[%d]: duplicate name %q", i, dc.Name)
		}
		names[dc.Name] = true
	}
	for i := range s.Brokers {
		b := &s.Brokers[i]
		if err := validateBroker(b, i); err != nil {
			return err
		}
		if names[b.Name] {
			return fmt.Errorf("broker[%d]: duplicate name %q", i, b.Name)
		}
		names[b.Name] = true
	}
	return nil
}

func validateDatacenter(dc *DatacenterSpec, idx int) error {
	prefix := fmt.Sprintf("datacenter[%d]", idx)
	if dc.Name == "" {
		return fmt.Errorf("%s: name required", prefix)
	}
	if !policy.IsValidPolicy(dc.Policy) {
		return fmt.Errorf("%s: unknown policy %q; valid: simple, static-threshold", prefix, dc.Policy)
	}
	if dc.Policy == "static-threshold" && (dc.Threshold <= 0 || dc.Threshold > 1) {
		return fmt.Errorf("%s: threshold must be in (0,1], got %f", prefix, dc.Threshold)
	}
	if err := validateFinitePositive(prefix+".scheduling_interval", dc.SchedulingInterval); err != nil {
		return err
	}
	if len(dc.Hosts) == 0 {
		return fmt.Errorf("%s: at least one host group required", prefix)
	}
	for j, h := range dc.Hosts {
		hp := fmt.Sprintf("%s.hosts[%d]", prefix, j)
		if h.Count <= 0 || h.Pes <= 0 || h.Ram <= 0 || h.Bw <= 0 || h.Storage < 0 {
			return fmt.Errorf("%s: count, pes, ram and bw must be positive", hp)
		}
		if err := validateFinitePositive(hp+".mips_per_pe", h.MipsPerPe); err != nil {
			return err
		}
		if !power.IsValidModel(h.PowerModel) {
			return fmt.Errorf("%s: unknown power model %q", hp, h.PowerModel)
		}
	}
	return nil
}

func validateBroker(b *BrokerSpec, idx int) error {
	prefix := fmt.Sprintf("broker[%d]", idx)
	if b.Name == "" {
		return fmt.Errorf("%s: name required", prefix)
	}
	totalVms := 0
	for j, vm := range b.Vms {
		vp := fmt.Sprintf("%s.vms[%d]", prefix, j)
		if vm.Count <= 0 || vm.Pes <= 0 || vm.Ram < 0 || vm.Bw < 0 || vm.Size < 0 {
			return fmt.Errorf("%s: count and pes must be positive, sizes non-negative", vp)
		}
		if err := validateFinitePositive(vp+".mips", vm.Mips); err != nil {
			return err
		}
		totalVms += vm.Count
	}
	if totalVms == 0 && (len(b.Cloudlets) > 0 || b.PlanetLab != nil) {
		return fmt.Errorf("%s: cloudlets need at least one VM", prefix)
	}
	for j, cl := range b.Cloudlets {
		cp := fmt.Sprintf("%s.cloudlets[%d]", prefix, j)
		if cl.Count <= 0 || cl.Pes <= 0 {
			return fmt.Errorf("%s: count and pes must be positive", cp)
		}
		if err := validateFinitePositive(cp+".length", cl.Length); err != nil {
			return err
		}
		if cl.LengthMax != 0 && cl.LengthMax < cl.Length {
			return fmt.Errorf("%s: length_max %f below length %f", cp, cl.LengthMax, cl.Length)
		}
		if len(cl.Bind) > cl.Count {
			return fmt.Errorf("%s: %d bindings for %d cloudlets", cp, len(cl.Bind), cl.Count)
		}
		for _, vmID := range cl.Bind {
			if vmID < 0 || vmID >= totalVms {
				return fmt.Errorf("%s: bind names VM #%d, broker has %d VMs", cp, vmID, totalVms)
			}
		}
		models := []struct {
			name  string
			model *ModelSpec
		}{
			{"cpu", cl.Utilization.CPU},
			{"ram", cl.Utilization.RAM},
			{"bw", cl.Utilization.BW},
		}
		for _, m := range models {
			if err := validateModel(cp+".utilization."+m.name, m.model); err != nil {
				return err
			}
		}
	}
	if pl := b.PlanetLab; pl != nil {
		pp := prefix + ".planetlab"
		if pl.Dir == "" {
			return fmt.Errorf("%s: dir required", pp)
		}
		if pl.Pes <= 0 {
			return fmt.Errorf("%s: pes must be positive, got %d", pp, pl.Pes)
		}
		if err := validateFinitePositive(pp+".interval", pl.Interval); err != nil {
			return err
		}
		if err := validateFinitePositive(pp+".length", pl.Length); err != nil {
			return err
		}
	}
	return nil
}

func validateModel(prefix string, m *ModelSpec) error {
	if m == nil {
		return nil
	}
	if !validModelTypes[m.Type] {
		return fmt.Errorf("%s: unknown utilization type %q; valid: full, null, constant, stochastic, series, trace", prefix, m.Type)
	}
	switch m.Type {
	case "constant":
		if m.Value < 0 || m.Value > 1 {
			return fmt.Errorf("%s: value must be in [0,1], got %f", prefix, m.Value)
		}
	case "series":
		if len(m.Samples) == 0 {
			return fmt.Errorf("%s: samples required", prefix)
		}
		return validateFinitePositive(prefix+".interval", m.Interval)
	case "trace":
		if m.File == "" {
			return fmt.Errorf("%s: file required", prefix)
		}
		return validateFinitePositive(prefix+".interval", m.Interval)
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}
