package power

import "fmt"

// validModelNames lists the names NewModel accepts.
var validModelNames = map[string]bool{
	"":            true,
	"linear":      true,
	"square":      true,
	"cubic":       true,
	"sqrt":        true,
	"hp-ml110-g4": true,
	"hp-ml110-g5": true,
}

// IsValidModel reports whether name is a recognised power model.
func IsValidModel(name string) bool { return validModelNames[name] }

// NewModel builds a power model by name. maxPower and staticPercent apply to
// the analytic models and are ignored by the SPECpower profiles. An empty
// name selects "linear".
func NewModel(name string, maxPower, staticPercent float64) (Model, error) {
	if name != "hp-ml110-g4" && name != "hp-ml110-g5" {
		if maxPower <= 0 {
			return nil, fmt.Errorf("power model %q: max power must be positive, got %v", name, maxPower)
		}
		if staticPercent < 0 || staticPercent > 1 {
			return nil, fmt.Errorf("power model %q: static percent must be in [0,1], got %v", name, staticPercent)
		}
	}
	switch name {
	case "", "linear":
		return Linear{MaxPower: maxPower, StaticPercent: staticPercent}, nil
	case "square":
		return Square{MaxPower: maxPower, StaticPercent: staticPercent}, nil
	case "cubic":
		return Cubic{MaxPower: maxPower, StaticPercent: staticPercent}, nil
	case "sqrt":
		return Sqrt{MaxPower: maxPower, StaticPercent: staticPercent}, nil
	case "hp-ml110-g4":
		return HpProLiantMl110G4, nil
	case "hp-ml110-g5":
		return HpProLiantMl110G5, nil
	default:
		return nil, fmt.Errorf("unknown power model %q", name)
	}
}
