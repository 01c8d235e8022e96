package portfolio

// Stage is one of the four sequential financing phases.
type Stage int

const (
	PreSeed Stage = iota
	Seed
	SeriesA
	SeriesB
)

// NumStages is the number of stages a project can reach.
const NumStages = 4

// Stages lists every stage in order.
var Stages = [NumStages]Stage{PreSeed, Seed, SeriesA, SeriesB}

// String returns the display name of the stage.
func (s Stage) String() string {
	switch s {
	case PreSeed:
		return "Pre-Seed"
	case Seed:
		return "Seed"
	case SeriesA:
		return "Series A"
	case SeriesB:
		return "Series B"
	default:
		return "unknown"
	}
}
