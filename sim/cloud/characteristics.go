package cloud

import "golang.org/x/exp/slices"

// CharacteristicsConfig is the descriptive part of DatacenterCharacteristics.
type CharacteristicsConfig struct {
	Architecture   string
	OS             string
	Vmm            string
	TimeZone       float64
	CostPerSecond  float64
	CostPerMem     float64
	CostPerStorage float64
	CostPerBw      float64
}

// DatacenterCharacteristics is the static description a datacenter hands to
// brokers during negotiation. It is immutable.
type DatacenterCharacteristics struct {
	cfg       CharacteristicsConfig
	hostIDs   []int
	numPes    int
	totalMips float64
}

// NewDatacenterCharacteristics snapshots the host inventory.
func NewDatacenterCharacteristics(cfg CharacteristicsConfig, hosts []*Host) *DatacenterCharacteristics {
	c := &DatacenterCharacteristics{cfg: cfg}
	for _, h := range hosts {
		c.hostIDs = append(c.hostIDs, h.ID)
		c.numPes += h.Pes
		c.totalMips += h.TotalMips()
	}
	return c
}

func (c *DatacenterCharacteristics) Architecture() string    { return c.cfg.Architecture }
func (c *DatacenterCharacteristics) OS() string              { return c.cfg.OS }
func (c *DatacenterCharacteristics) Vmm() string             { return c.cfg.Vmm }
func (c *DatacenterCharacteristics) TimeZone() float64       { return c.cfg.TimeZone }
func (c *DatacenterCharacteristics) CostPerSecond() float64  { return c.cfg.CostPerSecond }
func (c *DatacenterCharacteristics) CostPerMem() float64     { return c.cfg.CostPerMem }
func (c *DatacenterCharacteristics) CostPerStorage() float64 { return c.cfg.CostPerStorage }
func (c *DatacenterCharacteristics) CostPerBw() float64      { return c.cfg.CostPerBw }
func (c *DatacenterCharacteristics) NumHosts() int           { return len(c.hostIDs) }
func (c *DatacenterCharacteristics) NumPes() int             { return c.numPes }
func (c *DatacenterCharacteristics) TotalMips() float64      { return c.totalMips }
func (c *DatacenterCharacteristics) HostIDs() []int          { return slices.Clone(c.hostIDs) }

// ProcessingCost is the cost of running for the given number of seconds.
func (c *DatacenterCharacteristics) ProcessingCost(seconds float64) float64 {
	return c.cfg.CostPerSecond * seconds
}
