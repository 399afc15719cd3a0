package utilization

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// PlanetLabSamples is the number of samples in a PlanetLab day trace
// (one every 300 seconds).
const PlanetLabSamples = 288

// LoadPlanetLabTrace reads a PlanetLab-style trace: one integer CPU
// percentage per line, at most PlanetLabSamples lines, and returns an
// Interpolated model with the values scaled to [0,1].
func LoadPlanetLabTrace(path string, interval float64) (*Interpolated, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening utilization trace: %w", err)
	}
	defer f.Close()

	samples := make([]float64, 0, PlanetLabSamples)
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() && len(samples) < PlanetLabSamples {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		pct, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: parsing utilization %q: %w", path, line, text, err)
		}
		samples = append(samples, clamp(float64(pct)/100.0))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading utilization trace: %w", err)
	}
	return NewInterpolated(samples, interval)
}
