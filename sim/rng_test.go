package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreams_SameSeedReplays(t *testing.T) {
	a := NewStreams(42)
	b := NewStreams(42)
	name := CloudletStream("broker", 3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, a.Stream(name).Float64(), b.Stream(name).Float64(), "draw %d", i)
	}
}

func TestStreams_CloudletStreamsAreIsolated(t *testing.T) {
	used := NewStreams(42)
	for i := 0; i < 10; i++ {
		used.Stream(CloudletStream("broker", 0)).Float64()
	}
	got := used.Stream(CloudletStream("broker", 1)).Float64()

	want := NewStreams(42).Stream(CloudletStream("broker", 1)).Float64()
	assert.Equal(t, want, got)
}

func TestStreams_WorkloadSeededWithRunSeed(t *testing.T) {
	workload := NewStreams(42).Stream(StreamWorkload)
	direct := rand.New(rand.NewSource(42))

	for i := 0; i < 10; i++ {
		assert.Equal(t, direct.Float64(), workload.Float64(), "draw %d", i)
	}
}

func TestStreams_CachesSource(t *testing.T) {
	s := NewStreams(7)
	require.Same(t, s.Stream(StreamWorkload), s.Stream(StreamWorkload))
	assert.Len(t, s.byName, 1)
	assert.Equal(t, int64(7), s.Seed())
}

func TestStreamSeed_DistinctPerName(t *testing.T) {
	names := []string{
		StreamWorkload,
		CloudletStream("broker", 0),
		CloudletStream("broker", 1),
		CloudletStream("broker", 10),
		CloudletStream("other", 1),
		"",
	}
	seen := make(map[int64]string)
	for _, name := range names {
		seed := streamSeed(42, name)
		if prev, ok := seen[seed]; ok {
			t.Errorf("streams %q and %q share seed %d", name, prev, seed)
		}
		seen[seed] = name
	}
}

func TestCloudletStream(t *testing.T) {
	assert.Equal(t, "cloudlet_b0_7", CloudletStream("b0", 7))
}
