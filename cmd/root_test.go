package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloud-sim/cloud-sim/sim/metrics"
	"github.com/cloud-sim/cloud-sim/sim/scenario"
)

// overrideFlags binds the run flags that applyOverrides reads to a fresh set,
// so tests do not leak Changed state through runCmd.
func overrideFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.Int64Var(&seed, "seed", 42, "")
	fs.Float64Var(&simulationHorizon, "horizon", 0, "")
	fs.StringVar(&traceLevel, "trace", "none", "")
	fs.Float64Var(&schedulingInterval, "scheduling-interval", 300, "")
	fs.BoolVar(&disableMigrations, "disable-migrations", false, "")
	fs.StringVar(&policyName, "policy", "static-threshold", "")
	fs.Float64Var(&threshold, "threshold", 0.8, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestApplyOverrides_OnlyChangedFlagsWin(t *testing.T) {
	// GIVEN a scenario with its own seed and policy
	spec := scenario.DefaultScenario()
	spec.Seed = 9
	spec.Datacenters[0].Threshold = 0.7

	// WHEN only --policy and --scheduling-interval are given
	applyOverrides(overrideFlags(t, "--policy=simple", "--scheduling-interval=60"), spec)

	// THEN those override and everything else keeps the scenario value
	assert.Equal(t, int64(9), spec.Seed)
	assert.Equal(t, "simple", spec.Datacenters[0].Policy)
	assert.Equal(t, 60.0, spec.Datacenters[0].SchedulingInterval)
	assert.Equal(t, 0.7, spec.Datacenters[0].Threshold)
	assert.False(t, spec.Datacenters[0].DisableMigrations)
}

func TestApplyOverrides_SeedHorizonAndTrace(t *testing.T) {
	spec := scenario.DefaultScenario()

	applyOverrides(overrideFlags(t, "--seed=100", "--horizon=1200", "--trace=events", "--disable-migrations"), spec)

	assert.Equal(t, int64(100), spec.Seed)
	assert.Equal(t, 1200.0, spec.Horizon)
	assert.Equal(t, "events", spec.Trace)
	assert.True(t, spec.Datacenters[0].DisableMigrations)
	assert.NoError(t, spec.Validate())
}

func TestTraceFlag_AddsTraceSectionToReport(t *testing.T) {
	spec := scenario.DefaultScenario()
	applyOverrides(overrideFlags(t, "--trace=events"), spec)

	s, err := scenario.Build(spec)
	require.NoError(t, err)
	var buf bytes.Buffer
	s.Run().Print(&buf)

	assert.Contains(t, buf.String(), "--- Event Trace ---")
	assert.Contains(t, buf.String(), "CloudletSubmit")
}

func TestWriteMetrics_TextFormat(t *testing.T) {
	// GIVEN a recorder with energy and migration samples
	r := metrics.NewRecorder()
	r.SetEnergy("dc-0", 1234.5)
	r.IncMigrations("dc-0")
	path := filepath.Join(t.TempDir(), "metrics.prom")

	// WHEN the registry is dumped
	require.NoError(t, writeMetrics(path, r.Registry()))

	// THEN the file holds the Prometheus exposition text
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "# TYPE cloudsim_datacenter_energy_joules gauge")
	assert.Contains(t, out, `cloudsim_datacenter_energy_joules{datacenter="dc-0"} 1234.5`)
	assert.Contains(t, out, `cloudsim_vm_migrations_total{datacenter="dc-0"} 1`)
}
