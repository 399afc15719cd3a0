package cmd

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cloud-sim/cloud-sim/sim/scenario"
)

var (
	scenarioPath       string  // YAML scenario file; empty runs the built-in scenario
	seed               int64   // Seed for stochastic utilization and cloudlet lengths
	simulationHorizon  float64 // Simulated seconds after which the run stops (0 = unbounded)
	logLevel           string  // Log verbosity level
	schedulingInterval float64 // Datacenter processing interval in simulated seconds
	disableMigrations  bool    // Turn off VM consolidation in every datacenter
	policyName         string  // VM allocation policy for every datacenter
	threshold          float64 // Overload threshold for static-threshold
	traceLevel         string  // Trace verbosity: none, events
	metricsOut         string  // Path for a Prometheus text dump of the run's metrics
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cloud-sim",
	Short: "Discrete-event simulator for power-aware cloud datacenters",
}

// runCmd executes a scenario, with CLI flags overriding scenario values
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a cloud simulation scenario",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		spec := scenario.DefaultScenario()
		if scenarioPath != "" {
			spec, err = scenario.LoadScenarioSpec(scenarioPath)
			if err != nil {
				logrus.Fatalf("Failed to load scenario: %v", err)
			}
		}
		applyOverrides(cmd.Flags(), spec)

		s, err := scenario.Build(spec)
		if err != nil {
			logrus.Fatalf("Failed to build scenario: %v", err)
		}

		startTime := time.Now()
		report := s.Run()
		report.Print(os.Stdout)
		logrus.Infof("Simulation wall time: %v", time.Since(startTime))

		if metricsOut != "" {
			if err := writeMetrics(metricsOut, s.Metrics.Registry()); err != nil {
				logrus.Fatalf("Failed to write metrics: %v", err)
			}
			logrus.Infof("Metrics written to %s", metricsOut)
		}
		logrus.Info("Simulation complete.")
	},
}

// applyOverrides copies explicitly set flags onto the scenario. Datacenter
// settings apply to every datacenter.
func applyOverrides(flags *pflag.FlagSet, spec *scenario.ScenarioSpec) {
	if flags.Changed("seed") {
		spec.Seed = seed
	}
	if flags.Changed("horizon") {
		spec.Horizon = simulationHorizon
	}
	if flags.Changed("trace") {
		spec.Trace = traceLevel
	}
	for i := range spec.Datacenters {
		dc := &spec.Datacenters[i]
		if flags.Changed("scheduling-interval") {
			dc.SchedulingInterval = schedulingInterval
		}
		if flags.Changed("disable-migrations") {
			dc.DisableMigrations = disableMigrations
		}
		if flags.Changed("policy") {
			dc.Policy = policyName
		}
		if flags.Changed("threshold") {
			dc.Threshold = threshold
		}
	}
}

// writeMetrics dumps every collected metric family in the Prometheus text format.
func writeMetrics(path string, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating metrics file")
	}
	defer f.Close()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return errors.Wrapf(err, "writing %s", mf.GetName())
		}
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a YAML scenario (default: built-in 1 datacenter, 3 VMs, 5 cloudlets)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for stochastic utilization and cloudlet lengths")
	runCmd.Flags().Float64Var(&simulationHorizon, "horizon", 0, "Simulation horizon in simulated seconds (0 = until no events remain)")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Datacenter overrides
	runCmd.Flags().Float64Var(&schedulingInterval, "scheduling-interval", 300, "Datacenter scheduling interval in seconds")
	runCmd.Flags().BoolVar(&disableMigrations, "disable-migrations", false, "Disable VM migrations")
	runCmd.Flags().StringVar(&policyName, "policy", "static-threshold", "VM allocation policy (simple, static-threshold)")
	runCmd.Flags().Float64Var(&threshold, "threshold", 0.8, "Host overload threshold for static-threshold")

	// Output
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Trace level (none, events)")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus text-format metrics to this file")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
