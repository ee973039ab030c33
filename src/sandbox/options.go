package sandbox

import "fmt"

//Placement selects the cell receiving the grain on each step
type Placement string

const (
	//PlacementFixed drops the grains at Options.Injection
	PlacementFixed Placement = "fixed"
	//PlacementRandom drops the grains at the uniformly random cell
	PlacementRandom Placement = "random"
	//PlacementCenter drops the grains at the center cell (Size/2, Size/2), Options.Injection is ignored
	PlacementCenter Placement = "center"
)

//default options
const (
	DefSize       = 32
	DefIterations = 2000
	DefInjectionI = 16
	DefInjectionJ = 16
	DefEngine     = "scan"
)

//Options represents the Simulation's configurable options
type Options struct {
	Size       int
	Iterations int
	Injection  Point
	Placement  Placement
	Seed       uint64 //random placement seed
	Engine     string
}

//DefaultOptions returns the reference configuration
func DefaultOptions() Options {
	return Options{
		Size:       DefSize,
		Iterations: DefIterations,
		Injection:  Point{DefInjectionI, DefInjectionJ},
		Placement:  PlacementFixed,
		Engine:     DefEngine,
	}
}

//Validate checks the options once before the run
//the fixed injection point is not adjusted to the grid size, it must fit
func (o Options) Validate() error {
	if o.Size <= 0 {
		return fmt.Errorf("%w: grid size must be positive, got %d", ErrConfiguration, o.Size)
	}
	if o.Iterations < 0 {
		return fmt.Errorf("%w: iterations must not be negative, got %d", ErrConfiguration, o.Iterations)
	}
	switch o.Placement {
	case PlacementFixed:
		p := o.Injection
		if p.I < 0 || p.J < 0 || p.I >= o.Size || p.J >= o.Size {
			return fmt.Errorf("%w: injection point %v is outside of %dx%d grid", ErrConfiguration, p, o.Size, o.Size)
		}
	case PlacementRandom, PlacementCenter:
	default:
		return fmt.Errorf("%w: unknown placement %q", ErrConfiguration, o.Placement)
	}
	if _, ok := Engines[o.Engine]; !ok {
		return fmt.Errorf("%w: unknown engine %q", ErrConfiguration, o.Engine)
	}
	return nil
}
