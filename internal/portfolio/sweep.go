package portfolio

import (
	"context"
	"fmt"
)

// SweepPoint pairs a correlation value with the run it produced.
type SweepPoint struct {
	Correlation float64 `json:"correlation"`
	Result      *Result `json:"result"`
}

// Sweep runs cfg once per correlation value, all other fields unchanged.
// Every derived Config is validated before the first run, so an invalid
// value fails the whole sweep without drawing from src.
func Sweep(ctx context.Context, cfg Config, correlations []float64, src Source, opts ...Option) ([]SweepPoint, error) {
	if len(correlations) == 0 {
		return nil, invalid("correlation", "sweep needs at least one value")
	}

	cfgs := make([]Config, len(correlations))
	for i, c := range correlations {
		cfgs[i] = cfg
		cfgs[i].Correlation = c
		if err := cfgs[i].WithDefaults().Validate(); err != nil {
			return nil, err
		}
	}

	if src == nil {
		src = DefaultSource()
	}

	points := make([]SweepPoint, 0, len(cfgs))
	for _, c := range cfgs {
		res, err := Run(ctx, c, src, opts...)
		if err != nil {
			return nil, fmt.Errorf("correlation %g: %w", c.Correlation, err)
		}
		points = append(points, SweepPoint{Correlation: c.Correlation, Result: res})
	}
	return points, nil
}
