package utilization

import (
	"fmt"
	"math"
)

// Interpolated holds a fixed-length sample series taken every interval
// seconds and linearly interpolates between samples. The series carries one
// extra trailing slot that repeats the last sample, bounding the tail.
type Interpolated struct {
	interval float64
	data     []float64
}

// NewInterpolated copies samples and appends the trailing duplicate slot.
func NewInterpolated(samples []float64, interval float64) (*Interpolated, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("interpolated utilization needs at least one sample")
	}
	if interval <= 0 || math.IsNaN(interval) || math.IsInf(interval, 0) {
		return nil, fmt.Errorf("sampling interval must be a positive finite number, got %v", interval)
	}
	data := make([]float64, len(samples)+1)
	copy(data, samples)
	data[len(data)-1] = data[len(data)-2]
	return &Interpolated{interval: interval, data: data}, nil
}

// Interval returns the sampling interval.
func (m *Interpolated) Interval() float64 { return m.interval }

// Len returns the number of slots, including the trailing duplicate.
func (m *Interpolated) Len() int { return len(m.data) }

// Utilization returns the sample at a boundary, or the linear interpolation
// v1 + (v2-v1)/((i2-i1)*interval) * (time - i1*interval) between the floor and
// ceiling samples. Times past the series clamp to the last slot.
func (m *Interpolated) Utilization(time float64) float64 {
	if time <= 0 {
		return m.data[0]
	}
	if math.Mod(time, m.interval) == 0 {
		return m.sample(int(time / m.interval))
	}
	i1 := int(math.Floor(time / m.interval))
	i2 := int(math.Ceil(time / m.interval))
	if i1 >= len(m.data)-1 {
		return m.data[len(m.data)-1]
	}
	v1 := m.sample(i1)
	v2 := m.sample(i2)
	delta := (v2 - v1) / (float64(i2-i1) * m.interval)
	return v1 + delta*(time-float64(i1)*m.interval)
}

func (m *Interpolated) sample(i int) float64 {
	if i >= len(m.data) {
		return m.data[len(m.data)-1]
	}
	return m.data[i]
}
