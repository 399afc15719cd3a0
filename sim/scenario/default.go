package scenario

// DefaultScenario is used when no scenario file is given: one datacenter with
// two hosts under the static-threshold policy, and one broker running five
// cloudlets on three VMs, the first three cloudlets bound to VMs 0, 1 and 2.
func DefaultScenario() *ScenarioSpec {
	return &ScenarioSpec{
		Seed:  42,
		Trace: "none",
		Datacenters: []DatacenterSpec{{
			Name:               "datacenter-0",
			Policy:             "static-threshold",
			Threshold:          0.8,
			SchedulingInterval: 300,
			Characteristics: CharacteristicsSpec{
				Architecture:   "x86",
				OS:             "Linux",
				Vmm:            "Xen",
				TimeZone:       10,
				CostPerSecond:  3.0,
				CostPerMem:     0.05,
				CostPerStorage: 0.001,
			},
			Hosts: []HostSpec{{
				Count:         2,
				Pes:           2,
				MipsPerPe:     1000,
				Ram:           4096,
				Bw:            10000,
				Storage:       1000000,
				PowerModel:    "linear",
				MaxPower:      250,
				StaticPercent: 0.7,
			}},
		}},
		Brokers: []BrokerSpec{{
			Name: "broker-0",
			Vms: []VmSpec{{
				Count: 3,
				Mips:  1000,
				Pes:   1,
				Ram:   512,
				Bw:    1000,
				Size:  10000,
				Vmm:   "Xen",
			}},
			Cloudlets: []CloudletSpec{{
				Count:      5,
				Length:     400000,
				Pes:        1,
				FileSize:   300,
				OutputSize: 300,
				Bind:       []int{0, 1, 2},
				Utilization: UtilizationSpec{
					CPU: &ModelSpec{Type: "stochastic"},
					RAM: &ModelSpec{Type: "null"},
					BW:  &ModelSpec{Type: "null"},
				},
			}},
		}},
	}
}
