package portfolio

import (
	"math"
	"sort"

	"github.com/inventure/venturesim/internal/constants"
)

// Bucket is one point of the empirical distribution of Series B counts.
type Bucket struct {
	Count       int     `json:"count"`
	Probability float64 `json:"probability"`
}

// StageBreakdown is the trial-averaged population and capital of one stage.
type StageBreakdown struct {
	Stage           string  `json:"stage"`
	MeanEntityCount float64 `json:"mean_entity_count"`
	MeanInvestment  float64 `json:"mean_investment"`
}

// Result is the aggregate of all trials in one run. Presentation layers
// read it; nothing in the engine holds on to it.
type Result struct {
	ExpectedSuccessCount float64          `json:"expected_success_count"`
	StandardDeviation    float64          `json:"standard_deviation"`
	ConfidenceInterval   [2]float64       `json:"confidence_interval"`
	ProbabilityOfTarget  float64          `json:"probability_of_target"`
	Distribution         []Bucket         `json:"distribution"`
	TotalInvestment      float64          `json:"total_investment"`
	InvestmentBreakdown  []StageBreakdown `json:"investment_breakdown"`
	TrialCount           int              `json:"trial_count"`
}

// trial is the outcome of one cohort pass: survivors per stage.
type trial struct {
	counts [NumStages]int
}

func (t trial) final() int {
	return t.counts[SeriesB]
}

// tally folds trials into exact integer sums. Tallies from independent
// chunks merge without regard to order.
type tally struct {
	trials    int
	stageSums [NumStages]int64
	hits      int
	hist      map[int]int
}

func newTally() *tally {
	return &tally{hist: make(map[int]int)}
}

func (t *tally) add(tr trial, target int) {
	t.trials++
	for s, n := range tr.counts {
		t.stageSums[s] += int64(n)
	}
	final := tr.final()
	if final >= target {
		t.hits++
	}
	t.hist[final]++
}

func (t *tally) merge(o *tally) {
	t.trials += o.trials
	for s := range t.stageSums {
		t.stageSums[s] += o.stageSums[s]
	}
	t.hits += o.hits
	for k, v := range o.hist {
		t.hist[k] += v
	}
}

// result assembles the public Result. Every statistic is derived from the
// integer sums and the sorted histogram, so it does not depend on the order
// in which trials were folded.
func (t *tally) result(cfg Config) *Result {
	n := float64(t.trials)

	keys := make([]int, 0, len(t.hist))
	for k := range t.hist {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	mean := float64(t.stageSums[SeriesB]) / n

	var sd float64
	if t.trials > 1 {
		var ss float64
		for _, k := range keys {
			d := float64(k) - mean
			ss += float64(t.hist[k]) * d * d
		}
		sd = math.Sqrt(ss / (n - 1))
	}

	dist := make([]Bucket, len(keys))
	for i, k := range keys {
		dist[i] = Bucket{Count: k, Probability: float64(t.hist[k]) / n}
	}

	breakdown := make([]StageBreakdown, NumStages)
	var total float64
	for _, s := range Stages {
		meanCount := float64(t.stageSums[s]) / n
		inv := meanCount * cfg.Investment.At(s)
		breakdown[s] = StageBreakdown{
			Stage:           s.String(),
			MeanEntityCount: meanCount,
			MeanInvestment:  inv,
		}
		total += inv
	}

	return &Result{
		ExpectedSuccessCount: mean,
		StandardDeviation:    sd,
		ConfidenceInterval: [2]float64{
			math.Max(0, math.Floor(mean-constants.ConfidenceZ*sd)),
			math.Ceil(mean + constants.ConfidenceZ*sd),
		},
		ProbabilityOfTarget: float64(t.hits) / n,
		Distribution:        dist,
		TotalInvestment:     total,
		InvestmentBreakdown: breakdown,
		TrialCount:          t.trials,
	}
}
