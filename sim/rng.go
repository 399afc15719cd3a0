package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// StreamWorkload draws cloudlet lengths when a scenario gives a length range.
// It is seeded with the run seed itself.
const StreamWorkload = "workload"

// CloudletStream names the utilization stream of one cloudlet. Every
// stochastic cloudlet draws from its own stream, so adding a cloudlet never
// shifts the demand of the others.
func CloudletStream(brokerName string, cloudletID int) string {
	return fmt.Sprintf("cloudlet_%s_%d", brokerName, cloudletID)
}

// Streams hands out named random sources derived from one run seed. The same
// seed and the same scenario always replay the same run.
// Not safe for concurrent use; the kernel is single-threaded.
type Streams struct {
	seed   int64
	byName map[string]*rand.Rand
}

// NewStreams returns the stream set of a run seeded with seed.
func NewStreams(seed int64) *Streams {
	return &Streams{seed: seed, byName: make(map[string]*rand.Rand)}
}

// Seed returns the run seed.
func (s *Streams) Seed() int64 { return s.seed }

// Stream returns the source registered under name, creating it on first use.
func (s *Streams) Stream(name string) *rand.Rand {
	if r, ok := s.byName[name]; ok {
		return r
	}
	r := rand.New(rand.NewSource(streamSeed(s.seed, name)))
	s.byName[name] = r
	return r
}

// streamSeed mixes the run seed with an FNV-1a hash of the stream name.
func streamSeed(seed int64, name string) int64 {
	if name == StreamWorkload {
		return seed
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	return seed ^ int64(h.Sum64())
}
