package datacenter

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/cloud-sim/cloud-sim/sim"
	"github.com/cloud-sim/cloud-sim/sim/cloud"
	"github.com/cloud-sim/cloud-sim/sim/metrics"
	"github.com/cloud-sim/cloud-sim/sim/policy"
	"github.com/cloud-sim/cloud-sim/sim/policy/mocks"
	"github.com/cloud-sim/cloud-sim/sim/power"
	"github.com/cloud-sim/cloud-sim/sim/trace"
)

// tenant plays the broker side: it runs a script at start and keeps every
// event it receives.
type tenant struct {
	sim.BaseEntity
	script   func(s *sim.Simulator, t *tenant)
	received []*sim.Event
}

func (t *tenant) StartEntity(s *sim.Simulator) {
	if t.script != nil {
		t.script(s, t)
	}
}

func (t *tenant) ProcessEvent(_ *sim.Simulator, ev *sim.Event) { t.received = append(t.received, ev) }

func (t *tenant) ShutdownEntity(*sim.Simulator) {}

func (t *tenant) withTag(tag sim.Tag) []*sim.Event {
	var out []*sim.Event
	for _, ev := range t.received {
		if ev.Tag() == tag {
			out = append(out, ev)
		}
	}
	return out
}

type DatacenterTestSuite struct {
	suite.Suite

	ctrl     *gomock.Controller
	simu     *sim.Simulator
	hosts    []*cloud.Host
	recorder *metrics.Recorder
	tr       *trace.SimulationTrace
	user     *tenant
}

func TestDatacenterTestSuite(t *testing.T) {
	suite.Run(t, new(DatacenterTestSuite))
}

func (suite *DatacenterTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.tr = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelEvents})
	suite.simu = sim.NewSimulator(sim.Options{Horizon: 3000, Trace: suite.tr})
	suite.recorder = metrics.NewRecorder()
	suite.hosts = []*cloud.Host{
		cloud.NewHost(0, 2, 1000, 4096, 10000, 100000, power.Linear{MaxPower: 250, StaticPercent: 0.7}),
		cloud.NewHost(1, 2, 1000, 4096, 10000, 100000, power.Linear{MaxPower: 250, StaticPercent: 0.7}),
	}
	suite.user = &tenant{BaseEntity: sim.NewBaseEntity("tenant")}
}

func (suite *DatacenterTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *DatacenterTestSuite) metricValue(name string, labels map[string]string) float64 {
	v, ok := suite.recorder.Value(name, labels)
	suite.Require().True(ok, "metric %s%v not recorded", name, labels)
	return v
}

func (suite *DatacenterTestSuite) newDatacenter(p policy.AllocationPolicy, disableMigrations bool) *PowerDatacenter {
	dc, err := New(Config{
		Name:               "dc-0",
		Characteristics:    cloud.CharacteristicsConfig{Architecture: "x86", OS: "Linux", Vmm: "Xen"},
		Hosts:              suite.hosts,
		Policy:             p,
		SchedulingInterval: 300,
		DisableMigrations:  disableMigrations,
		Metrics:            suite.recorder,
		Trace:              suite.tr,
	})
	suite.Require().NoError(err)
	_, err = suite.simu.AddEntity(dc)
	suite.Require().NoError(err)
	_, err = suite.simu.AddEntity(suite.user)
	suite.Require().NoError(err)
	return dc
}

func (suite *DatacenterTestSuite) TestNewRejectsBadConfig() {
	_, err := New(Config{Name: "x", Policy: policy.NewSimple(suite.hosts), SchedulingInterval: 300})
	suite.Error(err)
	_, err = New(Config{Name: "x", Hosts: suite.hosts, SchedulingInterval: 300})
	suite.Error(err)
	_, err = New(Config{Name: "x", Hosts: suite.hosts, Policy: policy.NewSimple(suite.hosts)})
	suite.Error(err)
}

func (suite *DatacenterTestSuite) TestAnswersCharacteristicsQueryAndRegisters() {
	dc := suite.newDatacenter(policy.NewSimple(suite.hosts), true)
	suite.user.script = func(s *sim.Simulator, t *tenant) {
		t.SendNow(s, dc.ID(), sim.TagCharacteristicsQuery, sim.RequesterPayload{ID: t.ID()})
	}

	suite.simu.Run()

	replies := suite.user.withTag(sim.TagCharacteristics)
	suite.Require().Len(replies, 1)
	c := replies[0].Data().(sim.CharacteristicsPayload).Characteristics
	suite.Equal(2, c.NumHosts())
	suite.Equal("x86", c.Architecture())
	suite.Equal([]int{dc.ID()}, suite.simu.Directory().DatacenterIDs())
}

func (suite *DatacenterTestSuite) TestVmCreateAcksBothOutcomes() {
	p := mocks.NewMockAllocationPolicy(suite.ctrl)
	dc := suite.newDatacenter(p, true)
	placed := cloud.NewVm(0, suite.user.ID(), 1000, 1, 512, 100, 10)
	rejected := cloud.NewVm(1, suite.user.ID(), 1000, 1, 512, 100, 10)
	gomock.InOrder(
		p.EXPECT().AllocateHostForVm(placed).DoAndReturn(func(vm *cloud.Vm) bool {
			return suite.hosts[0].VmCreate(vm)
		}),
		p.EXPECT().AllocateHostForVm(rejected).Return(false),
	)
	suite.user.script = func(s *sim.Simulator, t *tenant) {
		t.SendNow(s, dc.ID(), sim.TagVmCreate, sim.VmPayload{Vm: placed})
		t.SendNow(s, dc.ID(), sim.TagVmCreate, sim.VmPayload{Vm: rejected})
	}

	suite.simu.Run()

	acks := suite.user.withTag(sim.TagVmCreateAck)
	suite.Require().Len(acks, 2)
	suite.Equal(sim.VmAckPayload{DatacenterID: dc.ID(), VmID: 0, Success: true}, acks[0].Data())
	suite.Equal(sim.VmAckPayload{DatacenterID: dc.ID(), VmID: 1, Success: false}, acks[1].Data())
	suite.Equal([]*cloud.Vm{placed}, dc.VmList())
}

func (suite *DatacenterTestSuite) TestSubmissionKeepsExactlyOneTick() {
	var ticks []*sim.Event
	suite.simu = sim.NewSimulator(sim.Options{OnDispatch: func(ev *sim.Event) {
		if ev.Tag() == sim.TagEndOfSimulation && ev.Source() == suite.user.ID() {
			for _, f := range suite.simu.FutureEvents() {
				if f.Tag() == sim.TagDatacenterTick {
					ticks = append(ticks, f)
				}
			}
		}
	}})
	dc := suite.newDatacenter(policy.NewSimple(suite.hosts), true)
	vm := cloud.NewVm(0, suite.user.ID(), 1000, 1, 512, 100, 10)
	suite.user.script = func(s *sim.Simulator, t *tenant) {
		t.SendNow(s, dc.ID(), sim.TagVmCreate, sim.VmPayload{Vm: vm})
		for i := 0; i < 3; i++ {
			cl := cloud.NewCloudlet(i, t.ID(), 1e9, 1, nil, nil, nil)
			cl.SetVmID(vm.ID)
			t.SendNow(s, dc.ID(), sim.TagCloudletSubmit, sim.CloudletPayload{Cloudlet: cl})
		}
		t.Send(s, t.ID(), 1, sim.TagEndOfSimulation, nil)
	}

	suite.simu.Run()

	suite.Require().Len(ticks, 1)
	suite.Equal(300.0, ticks[0].Time())
	suite.Zero(dc.Power(), "no processing before the first tick")
}

func (suite *DatacenterTestSuite) TestEnergyAccumulatesPerFrame() {
	suite.simu = sim.NewSimulator(sim.Options{Horizon: 950})
	dc := suite.newDatacenter(policy.NewSimple(suite.hosts), true)
	vm := cloud.NewVm(0, suite.user.ID(), 1000, 1, 512, 100, 10)
	suite.user.script = func(s *sim.Simulator, t *tenant) {
		t.SendNow(s, dc.ID(), sim.TagVmCreate, sim.VmPayload{Vm: vm})
		cl := cloud.NewCloudlet(0, t.ID(), 1e9, 1, nil, nil, nil)
		cl.SetVmID(vm.ID)
		t.SendNow(s, dc.ID(), sim.TagCloudletSubmit, sim.CloudletPayload{Cloudlet: cl})
	}

	end := suite.simu.Run()

	// ticks at 300, 600, 900; the host idles (and is treated as off) until
	// the first allocation at 300, then runs at 50% with host #1 off
	suite.Equal(900.0, end)
	frame := (175.0 + 37.5) * 300
	suite.InDelta(2*frame, dc.Power(), 1e-6)
	suite.InDelta(2*frame, suite.metricValue(metrics.MetricEnergy, map[string]string{"datacenter": "dc-0"}), 1e-6)
}

func (suite *DatacenterTestSuite) TestCompletedCloudletReturnedAndVmFreed() {
	dc := suite.newDatacenter(policy.NewSimple(suite.hosts), true)
	vm := cloud.NewVm(0, suite.user.ID(), 1000, 1, 512, 100, 10)
	suite.user.script = func(s *sim.Simulator, t *tenant) {
		t.SendNow(s, dc.ID(), sim.TagVmCreate, sim.VmPayload{Vm: vm})
		cl := cloud.NewCloudlet(0, t.ID(), 100000, 1, nil, nil, nil)
		cl.SetVmID(vm.ID)
		t.SendNow(s, dc.ID(), sim.TagCloudletSubmit, sim.CloudletPayload{Cloudlet: cl})
	}

	suite.simu.Run()

	returns := suite.user.withTag(sim.TagCloudletReturn)
	suite.Require().Len(returns, 1)
	cl := returns[0].Data().(sim.CloudletPayload).Cloudlet
	suite.Equal(cloud.CloudletSuccess, cl.Status())
	suite.Equal(600.0, cl.FinishTime())
	suite.Equal(dc.ID(), cl.DatacenterID())
	suite.Empty(dc.VmList())
	suite.Nil(vm.Host())
	suite.Equal(1, dc.CloudletsReturned())
	suite.Equal(1.0, suite.metricValue(metrics.MetricCloudletsReturned, map[string]string{"datacenter": "dc-0", "status": "Success"}))
}

func (suite *DatacenterTestSuite) TestCloudletForUnknownVmFails() {
	dc := suite.newDatacenter(policy.NewSimple(suite.hosts), true)
	suite.user.script = func(s *sim.Simulator, t *tenant) {
		cl := cloud.NewCloudlet(0, t.ID(), 1000, 1, nil, nil, nil)
		cl.SetVmID(42)
		t.SendNow(s, dc.ID(), sim.TagCloudletSubmit, sim.CloudletPayload{Cloudlet: cl})
		t.Send(s, t.ID(), 10, sim.TagEndOfSimulation, nil)
	}

	suite.simu.Run()

	returns := suite.user.withTag(sim.TagCloudletReturn)
	suite.Require().Len(returns, 1)
	suite.Equal(cloud.CloudletFailed, returns[0].Data().(sim.CloudletPayload).Cloudlet.Status())
}

func (suite *DatacenterTestSuite) TestVmDestroyToleratesUnknownVm() {
	dc := suite.newDatacenter(policy.NewSimple(suite.hosts), true)
	ghost := cloud.NewVm(9, suite.user.ID(), 1000, 1, 512, 100, 10)
	suite.user.script = func(s *sim.Simulator, t *tenant) {
		t.SendNow(s, dc.ID(), sim.TagVmDestroy, sim.VmPayload{Vm: ghost})
	}
	suite.NotPanics(func() { suite.simu.Run() })
	suite.Empty(dc.VmList())
}

func (suite *DatacenterTestSuite) TestMigrationLandsOnTargetOnce() {
	// GIVEN a policy that asks for one migration of the only VM
	p := mocks.NewMockAllocationPolicy(suite.ctrl)
	src, dst := suite.hosts[0], suite.hosts[1]
	vm := cloud.NewVm(0, 0, 1000, 1, 1024, 100, 10)
	p.EXPECT().AllocateHostForVm(vm).DoAndReturn(func(vm *cloud.Vm) bool { return src.VmCreate(vm) })
	gomock.InOrder(
		p.EXPECT().OptimizeAllocation(gomock.Any()).Return([]policy.Migration{{Vm: vm, Host: dst}}),
		p.EXPECT().OptimizeAllocation(gomock.Any()).Return(nil).AnyTimes(),
	)
	p.EXPECT().DeallocateHostForVm(vm).Do(func(vm *cloud.Vm) { vm.Host().VmDestroy(vm) })
	p.EXPECT().AllocateHostForVmOn(vm, dst).DoAndReturn(func(vm *cloud.Vm, h *cloud.Host) bool { return h.VmCreate(vm) })

	doubleCounted := false
	suite.simu = sim.NewSimulator(sim.Options{Horizon: 2500, Trace: suite.tr, OnDispatch: func(*sim.Event) {
		if vm.InMigration() && dst.UtilizationMips() > 0 {
			doubleCounted = true
		}
	}})
	dc := suite.newDatacenter(p, false)
	vm.UserID = suite.user.ID()
	suite.user.script = func(s *sim.Simulator, t *tenant) {
		t.SendNow(s, dc.ID(), sim.TagVmCreate, sim.VmPayload{Vm: vm})
		cl := cloud.NewCloudlet(0, t.ID(), 1e9, 1, nil, nil, nil)
		cl.SetVmID(vm.ID)
		t.SendNow(s, dc.ID(), sim.TagCloudletSubmit, sim.CloudletPayload{Cloudlet: cl})
	}

	// WHEN the run passes the migration delay (1024 / (10000/16000) = 1638.4s after the first tick)
	suite.simu.Run()

	// THEN the VM ends on the target only, counted once
	suite.Equal(1, dc.MigrationCount())
	suite.False(doubleCounted)
	suite.False(vm.InMigration())
	suite.Same(dst, vm.Host())
	suite.Empty(src.Vms())
	suite.Equal([]*cloud.Vm{vm}, dst.Vms())
	suite.Empty(dst.MigratingInVms())
	suite.Equal(1.0, suite.metricValue(metrics.MetricMigrations, map[string]string{"datacenter": "dc-0"}))

	summary := trace.Summarize(suite.tr)
	suite.Equal(1, summary.Migrations)
	suite.InDelta(1638.4, summary.MaxDelay, 1e-9)
}

func (suite *DatacenterTestSuite) TestVmDestroyCancelsMigration() {
	p := mocks.NewMockAllocationPolicy(suite.ctrl)
	src, dst := suite.hosts[0], suite.hosts[1]
	vm := cloud.NewVm(0, 0, 1000, 1, 1024, 100, 10)
	p.EXPECT().AllocateHostForVm(vm).DoAndReturn(func(vm *cloud.Vm) bool { return src.VmCreate(vm) })
	p.EXPECT().OptimizeAllocation(gomock.Any()).Return([]policy.Migration{{Vm: vm, Host: dst}})
	p.EXPECT().DeallocateHostForVm(vm).Do(func(vm *cloud.Vm) { vm.Host().VmDestroy(vm) })

	dc := suite.newDatacenter(p, false)
	vm.UserID = suite.user.ID()
	suite.user.script = func(s *sim.Simulator, t *tenant) {
		t.SendNow(s, dc.ID(), sim.TagVmCreate, sim.VmPayload{Vm: vm})
		cl := cloud.NewCloudlet(0, t.ID(), 1e9, 1, nil, nil, nil)
		cl.SetVmID(vm.ID)
		t.SendNow(s, dc.ID(), sim.TagCloudletSubmit, sim.CloudletPayload{Cloudlet: cl})
		t.Send(s, dc.ID(), 400, sim.TagVmDestroy, sim.VmPayload{Vm: vm})
		t.Send(s, t.ID(), 500, sim.TagEndOfSimulation, nil)
	}

	suite.simu.Run()

	suite.Equal(1, dc.MigrationCount())
	suite.False(vm.InMigration())
	suite.Nil(vm.Host())
	suite.Empty(dst.MigratingInVms())
	suite.Empty(dc.VmList())
}
