package portfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/inventure/venturesim/internal/logging"
)

// scriptedSource replays a fixed list of draws.
type scriptedSource struct {
	values []float64
	next   int
}

func (s *scriptedSource) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// countingSource counts draws taken from an inner source.
type countingSource struct {
	inner Source
	calls int
}

func (s *countingSource) Float64() float64 {
	s.calls++
	return s.inner.Float64()
}

func halfRates() Rates {
	return Rates{PreSeedToSeed: 0.5, SeedToSeriesA: 0.5, SeriesAToSeriesB: 0.5}
}

// checkInvariants asserts the structural guarantees every Result carries.
func checkInvariants(t *testing.T, cfg Config, res *Result) {
	t.Helper()

	if res.ExpectedSuccessCount < 0 {
		t.Errorf("ExpectedSuccessCount = %f, want >= 0", res.ExpectedSuccessCount)
	}
	lo, hi := res.ConfidenceInterval[0], res.ConfidenceInterval[1]
	if lo < 0 {
		t.Errorf("confidence lower bound = %f, want >= 0", lo)
	}
	if lo > res.ExpectedSuccessCount || res.ExpectedSuccessCount > hi {
		t.Errorf("interval [%f, %f] does not bracket mean %f", lo, hi, res.ExpectedSuccessCount)
	}
	if res.ProbabilityOfTarget < 0 || res.ProbabilityOfTarget > 1 {
		t.Errorf("ProbabilityOfTarget = %f, want in [0, 1]", res.ProbabilityOfTarget)
	}

	var sum float64
	for i, b := range res.Distribution {
		sum += b.Probability
		if i > 0 && res.Distribution[i-1].Count >= b.Count {
			t.Errorf("distribution not strictly ascending at %d: %d then %d", i, res.Distribution[i-1].Count, b.Count)
		}
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("distribution probabilities sum to %f, want 1", sum)
	}

	if len(res.InvestmentBreakdown) != NumStages {
		t.Fatalf("breakdown has %d entries, want %d", len(res.InvestmentBreakdown), NumStages)
	}
	var inv float64
	for i, b := range res.InvestmentBreakdown {
		if b.Stage != Stages[i].String() {
			t.Errorf("breakdown[%d].Stage = %q, want %q", i, b.Stage, Stages[i].String())
		}
		inv += b.MeanInvestment
	}
	if math.Abs(inv-res.TotalInvestment) > 1e-9*math.Max(1, res.TotalInvestment) {
		t.Errorf("breakdown investment sums to %f, TotalInvestment = %f", inv, res.TotalInvestment)
	}
	if got := res.InvestmentBreakdown[PreSeed].MeanEntityCount; got != float64(cfg.PreSeedCount) {
		t.Errorf("pre-seed mean count = %f, want %d", got, cfg.PreSeedCount)
	}
	if res.TrialCount != cfg.WithDefaults().TrialCount {
		t.Errorf("TrialCount = %d, want %d", res.TrialCount, cfg.WithDefaults().TrialCount)
	}
}

func TestRun_ScriptedIndependentTrial(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreSeedCount = 2
	cfg.Rates = halfRates()
	cfg.Correlation = 0
	cfg.TargetCount = 1
	cfg.TrialCount = 1

	// Per transition: fresh common draw, then one draw per remaining project.
	src := &scriptedSource{values: []float64{
		0.9, 0.1, 0.7, // 1 of 2 advances to Seed
		0.0, 0.2, // advances to Series A
		0.0, 0.3, // advances to Series B
	}}

	res, err := Run(context.Background(), cfg, src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if src.next != len(src.values) {
		t.Errorf("consumed %d draws, want %d", src.next, len(src.values))
	}

	checkInvariants(t, cfg, res)

	wantCounts := []float64{2, 1, 1, 1}
	for i, b := range res.InvestmentBreakdown {
		if b.MeanEntityCount != wantCounts[i] {
			t.Errorf("%s count = %f, want %f", b.Stage, b.MeanEntityCount, wantCounts[i])
		}
	}
	if res.ExpectedSuccessCount != 1 {
		t.Errorf("ExpectedSuccessCount = %f, want 1", res.ExpectedSuccessCount)
	}
	if res.StandardDeviation != 0 {
		t.Errorf("StandardDeviation = %f, want 0 for a single trial", res.StandardDeviation)
	}
	if res.ConfidenceInterval != [2]float64{1, 1} {
		t.Errorf("ConfidenceInterval = %v, want [1 1]", res.ConfidenceInterval)
	}
	if res.TotalInvestment != 44.5 {
		t.Errorf("TotalInvestment = %f, want 44.5", res.TotalInvestment)
	}
	if res.ProbabilityOfTarget != 1 {
		t.Errorf("ProbabilityOfTarget = %f, want 1", res.ProbabilityOfTarget)
	}
}

func TestRun_FullCorrelationSharesFate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreSeedCount = 3
	cfg.Rates = halfRates()
	cfg.Correlation = 1
	cfg.TrialCount = 1

	src := &scriptedSource{values: []float64{
		0.1, 0.99, 0.99, 0.99, // common 0.1 beats the rate: everyone advances
		0.9, 0.0, 0.0, 0.0, // common 0.3*0.1 + 0.7*0.9 = 0.66: nobody advances
		0.5, // Series A is empty; only the common draw is taken
	}}

	res, err := Run(context.Background(), cfg, src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if src.next != len(src.values) {
		t.Errorf("consumed %d draws, want %d", src.next, len(src.values))
	}

	wantCounts := []float64{3, 3, 0, 0}
	for i, b := range res.InvestmentBreakdown {
		if b.MeanEntityCount != wantCounts[i] {
			t.Errorf("%s count = %f, want %f", b.Stage, b.MeanEntityCount, wantCounts[i])
		}
	}
}

func TestRun_CarryOverZeroUsesFreshCommonFactor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreSeedCount = 1
	cfg.Rates = Rates{PreSeedToSeed: 0.99, SeedToSeriesA: 0.5, SeriesAToSeriesB: 0.5}
	cfg.Correlation = 1
	cfg.TrialCount = 1

	// The Seed transition's fresh draw is 0.4. Without carry-over it beats
	// the 0.5 rate; with the default 0.3 the blend is 0.3*0.95 + 0.7*0.4 = 0.565.
	draws := []float64{0.95, 0.9, 0.4, 0.9, 0.4, 0.9}

	zero := 0.0
	cfg.CarryOver = &zero
	res, err := Run(context.Background(), cfg, &scriptedSource{values: draws})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ExpectedSuccessCount != 1 {
		t.Errorf("carry-over 0: ExpectedSuccessCount = %f, want 1", res.ExpectedSuccessCount)
	}

	cfg.CarryOver = nil
	res, err = Run(context.Background(), cfg, &scriptedSource{values: draws})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ExpectedSuccessCount != 0 {
		t.Errorf("default carry-over: ExpectedSuccessCount = %f, want 0", res.ExpectedSuccessCount)
	}
}

func TestRun_SampleStatistics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreSeedCount = 1
	cfg.Rates = halfRates()
	cfg.Correlation = 0
	cfg.TargetCount = 1
	cfg.TrialCount = 2

	src := &scriptedSource{values: []float64{
		0.5, 0.1, 0.5, 0.1, 0.5, 0.1, // trial 1: reaches Series B
		0.5, 0.9, 0.5, 0.5, // trial 2: fails at the first transition
	}}

	res, err := Run(context.Background(), cfg, src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	checkInvariants(t, cfg, res)

	if res.ExpectedSuccessCount != 0.5 {
		t.Errorf("ExpectedSuccessCount = %f, want 0.5", res.ExpectedSuccessCount)
	}
	if want := math.Sqrt(0.5); math.Abs(res.StandardDeviation-want) > 1e-12 {
		t.Errorf("StandardDeviation = %f, want %f", res.StandardDeviation, want)
	}
	if res.ConfidenceInterval != [2]float64{0, 2} {
		t.Errorf("ConfidenceInterval = %v, want [0 2]", res.ConfidenceInterval)
	}
	want := []Bucket{{Count: 0, Probability: 0.5}, {Count: 1, Probability: 0.5}}
	if !reflect.DeepEqual(res.Distribution, want) {
		t.Errorf("Distribution = %v, want %v", res.Distribution, want)
	}
	if res.ProbabilityOfTarget != 0.5 {
		t.Errorf("ProbabilityOfTarget = %f, want 0.5", res.ProbabilityOfTarget)
	}
	if got := res.InvestmentBreakdown[Seed].MeanEntityCount; got != 0.5 {
		t.Errorf("Seed mean count = %f, want 0.5", got)
	}
}

func TestRun_InvalidConfigurationRunsNoTrials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"rate above one", func(c *Config) { c.Rates.PreSeedToSeed = 1.5 }, "advancement_rates.pre_seed_to_seed"},
		{"zero pre-seed count", func(c *Config) { c.PreSeedCount = 0 }, "pre_seed_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			src := &countingSource{inner: NewSource(1)}

			res, err := Run(context.Background(), cfg, src)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if res != nil {
				t.Errorf("expected nil result, got %+v", res)
			}
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
			if src.calls != 0 {
				t.Errorf("source drew %d values, want 0", src.calls)
			}
		})
	}
}

func TestRun_DefaultScenario(t *testing.T) {
	cfg := DefaultConfig()

	res, err := Run(context.Background(), cfg, NewSource(2025))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	checkInvariants(t, cfg, res)

	if res.ExpectedSuccessCount < 35 || res.ExpectedSuccessCount > 50 {
		t.Errorf("ExpectedSuccessCount = %f, want in [35, 50]", res.ExpectedSuccessCount)
	}
	if res.ProbabilityOfTarget <= 0 || res.ProbabilityOfTarget >= 1 {
		t.Errorf("ProbabilityOfTarget = %f, want in (0, 1)", res.ProbabilityOfTarget)
	}
	// Pre-seed alone is 876 * 0.5 = 438; the cohort's mean total sits near
	// the closed-form 2610 pulled down slightly by correlation.
	if res.TotalInvestment < 2000 || res.TotalInvestment > 3000 {
		t.Errorf("TotalInvestment = %f, want in [2000, 3000]", res.TotalInvestment)
	}
	if got := res.InvestmentBreakdown[PreSeed].MeanInvestment; got != 438 {
		t.Errorf("pre-seed investment = %f, want 438", got)
	}
}

func TestRun_ZeroCorrelationConvergesToAnalytic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Correlation = 0
	cfg.TrialCount = 10000

	res, err := Run(context.Background(), cfg, NewSource(11))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := float64(cfg.PreSeedCount) * 0.20 * 0.40 * 0.60
	// Standard error of the mean is about 0.065 here.
	if math.Abs(res.ExpectedSuccessCount-want) > 0.5 {
		t.Errorf("ExpectedSuccessCount = %f, want %f +/- 0.5", res.ExpectedSuccessCount, want)
	}

	// A binomial count has variance n*p*(1-p).
	p := 0.20 * 0.40 * 0.60
	wantSD := math.Sqrt(float64(cfg.PreSeedCount) * p * (1 - p))
	if math.Abs(res.StandardDeviation-wantSD) > 0.5 {
		t.Errorf("StandardDeviation = %f, want %f +/- 0.5", res.StandardDeviation, wantSD)
	}
}

func TestRun_CorrelationIncreasesDispersion(t *testing.T) {
	correlations := []float64{0, 0.05, 0.10, 0.20}
	prev := -1.0

	for _, c := range correlations {
		cfg := DefaultConfig()
		cfg.Correlation = c
		cfg.TrialCount = 4000

		res, err := Run(context.Background(), cfg, NewSource(99), WithWorkers(4))
		if err != nil {
			t.Fatalf("Run(correlation=%g) failed: %v", c, err)
		}
		checkInvariants(t, cfg, res)

		if res.StandardDeviation <= prev {
			t.Errorf("correlation %g: StandardDeviation = %f, want > %f", c, res.StandardDeviation, prev)
		}
		prev = res.StandardDeviation
	}
}

func TestRun_RateBoundaries(t *testing.T) {
	t.Run("rates near zero", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.PreSeedCount = 200
		cfg.Rates = Rates{PreSeedToSeed: 1e-6, SeedToSeriesA: 1e-6, SeriesAToSeriesB: 1e-6}
		cfg.TrialCount = 200

		res, err := Run(context.Background(), cfg, NewSource(3))
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		checkInvariants(t, cfg, res)
		if res.ExpectedSuccessCount > 0.01 {
			t.Errorf("ExpectedSuccessCount = %f, want ~0", res.ExpectedSuccessCount)
		}
	})

	t.Run("rates near one", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.PreSeedCount = 200
		cfg.Rates = Rates{PreSeedToSeed: 0.999999, SeedToSeriesA: 0.999999, SeriesAToSeriesB: 0.999999}
		cfg.Correlation = 0
		cfg.TrialCount = 200

		res, err := Run(context.Background(), cfg, NewSource(4))
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		checkInvariants(t, cfg, res)
		if res.ExpectedSuccessCount < 199.9 {
			t.Errorf("ExpectedSuccessCount = %f, want ~200", res.ExpectedSuccessCount)
		}
	})

	t.Run("full correlation", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Correlation = 1
		cfg.TrialCount = 500

		res, err := Run(context.Background(), cfg, NewSource(5))
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		checkInvariants(t, cfg, res)
		// Every trial ends with either the whole surviving cohort or nobody.
		for _, b := range res.Distribution {
			if b.Count != 0 && b.Count != cfg.PreSeedCount {
				t.Errorf("unexpected final count %d under full correlation", b.Count)
			}
		}
	})
}

func TestRun_SeededRunsAreIdentical(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrialCount = 700

	a, err := Run(context.Background(), cfg, NewSource(42))
	if err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	b, err := Run(context.Background(), cfg, NewSource(42))
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("sequential runs with the same seed differ")
	}

	p2, err := Run(context.Background(), cfg, NewSource(42), WithWorkers(2))
	if err != nil {
		t.Fatalf("parallel Run failed: %v", err)
	}
	p5, err := Run(context.Background(), cfg, NewSource(42), WithWorkers(5))
	if err != nil {
		t.Fatalf("parallel Run failed: %v", err)
	}
	if !reflect.DeepEqual(p2, p5) {
		t.Error("parallel runs with the same seed differ across worker counts")
	}
	checkInvariants(t, cfg, p2)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 3} {
		res, err := Run(ctx, DefaultConfig(), NewSource(1), WithWorkers(workers))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: expected context.Canceled, got %v", workers, err)
		}
		if res != nil {
			t.Errorf("workers=%d: expected nil result on cancellation", workers)
		}
	}
}

func TestRun_Progress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreSeedCount = 50
	cfg.TrialCount = 600

	for _, workers := range []int{1, 3} {
		var calls, last int
		_, err := Run(context.Background(), cfg, NewSource(8),
			WithWorkers(workers),
			WithProgress(func(done, total int) {
				calls++
				if done < last {
					t.Errorf("workers=%d: progress went backwards: %d after %d", workers, done, last)
				}
				if total != cfg.TrialCount {
					t.Errorf("workers=%d: total = %d, want %d", workers, total, cfg.TrialCount)
				}
				last = done
			}))
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if calls != 3 {
			t.Errorf("workers=%d: progress called %d times, want 3", workers, calls)
		}
		if last != cfg.TrialCount {
			t.Errorf("workers=%d: final progress = %d, want %d", workers, last, cfg.TrialCount)
		}
	}
}

func TestRun_TraceLogsChunkProgress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreSeedCount = 50
	cfg.TrialCount = 600

	tests := []struct {
		name      string
		level     slog.Level
		workers   int
		wantLines int
	}{
		{"trace sequential", logging.LevelTrace, 1, 3},
		{"trace parallel", logging.LevelTrace, 4, 3},
		{"debug hides progress", slog.LevelDebug, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: tt.level}))

			if _, err := Run(context.Background(), cfg, NewSource(8),
				WithWorkers(tt.workers), WithLogger(logger)); err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			var progress []map[string]any
			runIDs := map[any]bool{}
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				var entry map[string]any
				if err := json.Unmarshal([]byte(line), &entry); err != nil {
					t.Fatalf("invalid log line %q: %v", line, err)
				}
				runIDs[entry["run_id"]] = true
				if entry["msg"] == "simulation progress" {
					progress = append(progress, entry)
				}
			}

			if len(progress) != tt.wantLines {
				t.Fatalf("got %d progress lines, want %d\n%s", len(progress), tt.wantLines, buf.String())
			}
			if len(runIDs) != 1 || runIDs[nil] {
				t.Errorf("log lines carry run_ids %v, want one shared run_id", runIDs)
			}
			if tt.wantLines == 0 {
				return
			}
			last := progress[len(progress)-1]
			if last["done"] != float64(cfg.TrialCount) || last["total"] != float64(cfg.TrialCount) {
				t.Errorf("final progress = %v/%v, want %d/%d", last["done"], last["total"], cfg.TrialCount, cfg.TrialCount)
			}
		})
	}
}

func TestRun_NilSourceAndDefaultTrials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreSeedCount = 20
	cfg.TrialCount = 0

	res, err := Run(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.TrialCount != 1000 {
		t.Errorf("TrialCount = %d, want default 1000", res.TrialCount)
	}
	checkInvariants(t, cfg, res)
}
