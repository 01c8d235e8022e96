package mcp

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inventure/venturesim/internal/config"
	"github.com/inventure/venturesim/internal/portfolio"
	"github.com/inventure/venturesim/internal/preset"
	"github.com/inventure/venturesim/internal/store"
)

// testSettings keeps runs small and rate limits out of the way.
func testSettings() *config.VenturesimConfig {
	settings := config.Default()
	settings.Simulation.Trials = 200
	settings.MCP.SimulationsPerMinute = 6000
	settings.MCP.Burst = 100
	settings.MCP.MaxTrials = 5000
	return settings
}

func setupTestServerWith(t *testing.T, settings *config.VenturesimConfig) (*Server, string) {
	t.Helper()
	tmpDir := t.TempDir()

	server, err := NewServer(&Config{
		Name:     "test-server",
		Version:  "v1.0.0",
		Dir:      tmpDir,
		Settings: settings,
		Store:    store.NewInMemoryPresetStore(),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	return server, tmpDir
}

func setupTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	return setupTestServerWith(t, testSettings())
}

func seedPtr(v uint64) *uint64 { return &v }

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func TestHandleSimulate_Defaults(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	_, out, err := server.handleSimulate(ctx, nil, SimulateInput{Seed: seedPtr(7)})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}

	if out.Preset != preset.Baseline {
		t.Errorf("Preset = %q, want %q", out.Preset, preset.Baseline)
	}
	if out.Seed != 7 {
		t.Errorf("Seed = %d, want 7", out.Seed)
	}
	if out.Result.TrialCount != 200 {
		t.Errorf("TrialCount = %d, want 200 from settings", out.Result.TrialCount)
	}
	if out.Config.CarryOver == nil || *out.Config.CarryOver != server.settings.Simulation.CarryOver {
		t.Errorf("CarryOver = %v, want settings value", out.Config.CarryOver)
	}
	if out.Result.ExpectedSuccessCount < 36 || out.Result.ExpectedSuccessCount > 48 {
		t.Errorf("ExpectedSuccessCount = %.2f, want near 42", out.Result.ExpectedSuccessCount)
	}
	if !strings.Contains(out.Summary, "Series B") {
		t.Errorf("Summary = %q, want mention of Series B", out.Summary)
	}
}

func TestHandleSimulate_Reproducible(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	_, first, err := server.handleSimulate(ctx, nil, SimulateInput{Trials: 100})
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	_, second, err := server.handleSimulate(ctx, nil, SimulateInput{Trials: 100, Seed: seedPtr(first.Seed)})
	if err != nil {
		t.Fatalf("replay call: %v", err)
	}

	if first.Result.ExpectedSuccessCount != second.Result.ExpectedSuccessCount ||
		first.Result.StandardDeviation != second.Result.StandardDeviation {
		t.Errorf("replay with seed %d differs: %+v vs %+v", first.Seed, first.Result, second.Result)
	}
}

func TestHandleSimulate_Scenario(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	count := 100
	_, out, err := server.handleSimulate(ctx, nil, SimulateInput{
		Preset: preset.Conservative,
		Scenario: preset.Overrides{
			PreSeedCount: &count,
			Correlation:  floatPtr(0.1),
		},
		Trials: 50,
		Seed:   seedPtr(1),
	})
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}

	if out.Config.PreSeedCount != 100 {
		t.Errorf("PreSeedCount = %d, want 100", out.Config.PreSeedCount)
	}
	if out.Config.Correlation != 0.1 {
		t.Errorf("Correlation = %v, want 0.1", out.Config.Correlation)
	}
	if out.Config.Rates.PreSeedToSeed != 0.15 {
		t.Errorf("PreSeedToSeed = %v, want conservative 0.15", out.Config.Rates.PreSeedToSeed)
	}
	if out.Result.TrialCount != 50 {
		t.Errorf("TrialCount = %d, want 50", out.Result.TrialCount)
	}
}

func TestHandleSimulate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input SimulateInput
		check func(error) bool
	}{
		{
			name:  "unknown preset",
			input: SimulateInput{Preset: "missing"},
			check: func(err error) bool { return errors.Is(err, preset.ErrNotFound) },
		},
		{
			name:  "trials above server limit",
			input: SimulateInput{Trials: 5001},
			check: func(err error) bool { return strings.Contains(err.Error(), "server limit") },
		},
		{
			name:  "pre-seed count above server limit",
			input: SimulateInput{Scenario: preset.Overrides{PreSeedCount: intPtr(2000000000)}},
			check: func(err error) bool {
				return strings.Contains(err.Error(), "pre_seed_count") && strings.Contains(err.Error(), "server limit")
			},
		},
		{
			name:  "negative trials",
			input: SimulateInput{Trials: -1},
			check: func(err error) bool { return strings.Contains(err.Error(), "positive") },
		},
		{
			name:  "rate out of range",
			input: SimulateInput{Scenario: preset.Overrides{SeedToSeriesA: floatPtr(1.5)}},
			check: func(err error) bool { return errors.Is(err, portfolio.ErrInvalidConfiguration) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := setupTestServer(t)
			_, _, err := server.handleSimulate(context.Background(), nil, tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestHandleSimulate_RateLimited(t *testing.T) {
	settings := testSettings()
	settings.MCP.SimulationsPerMinute = 1
	settings.MCP.Burst = 1
	server, _ := setupTestServerWith(t, settings)
	ctx := context.Background()

	if _, _, err := server.handleSimulate(ctx, nil, SimulateInput{Trials: 10}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	_, _, err := server.handleSimulate(ctx, nil, SimulateInput{Trials: 10})
	if err == nil || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("second call error = %v, want rate limit", err)
	}
}

func TestHandleSimulate_Audited(t *testing.T) {
	server, dir := setupTestServer(t)

	if _, _, err := server.handleSimulate(context.Background(), nil, SimulateInput{
		Preset: preset.Baseline, Trials: 10, Seed: seedPtr(99),
	}); err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}

	entries := readAuditEntries(t, filepath.Join(dir, "audit.jsonl"))
	if len(entries) != 1 {
		t.Fatalf("got %d audit entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Tool != "portfolio_simulate" || e.Status != "success" {
		t.Errorf("entry = %+v", e)
	}
	if e.Params["seed"] != "99" || e.Params["trials"] != "10" || e.Params["preset"] != "(set)" {
		t.Errorf("params = %v", e.Params)
	}
}

func TestHandleEstimate(t *testing.T) {
	server, _ := setupTestServer(t)

	_, out, err := server.handleEstimate(context.Background(), nil, EstimateInput{})
	if err != nil {
		t.Fatalf("handleEstimate failed: %v", err)
	}

	want, err := portfolio.EstimateOf(portfolio.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if out.Estimate.ExpectedSuccessCount != want.ExpectedSuccessCount {
		t.Errorf("ExpectedSuccessCount = %v, want %v", out.Estimate.ExpectedSuccessCount, want.ExpectedSuccessCount)
	}
	if out.Estimate.TotalInvestment != want.TotalInvestment {
		t.Errorf("TotalInvestment = %v, want %v", out.Estimate.TotalInvestment, want.TotalInvestment)
	}
	if !strings.Contains(out.Summary, "ignoring correlation") {
		t.Errorf("Summary = %q", out.Summary)
	}
}

func TestHandlePresets(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	if err := server.catalog.Save(ctx, preset.Preset{
		Name:        "fund-iii",
		Description: "Third fund",
		Config:      portfolio.DefaultConfig(),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	_, out, err := server.handlePresets(ctx, nil, PresetsInput{})
	if err != nil {
		t.Fatalf("handlePresets failed: %v", err)
	}
	if out.Count != len(preset.Builtins())+1 {
		t.Errorf("Count = %d, want %d", out.Count, len(preset.Builtins())+1)
	}
	last := out.Presets[len(out.Presets)-1]
	if last.Name != "fund-iii" || last.BuiltIn {
		t.Errorf("last preset = %+v, want stored fund-iii", last)
	}
	if last.Config != nil {
		t.Error("list view should omit configs")
	}

	_, one, err := server.handlePresets(ctx, nil, PresetsInput{Name: preset.Aggressive})
	if err != nil {
		t.Fatalf("handlePresets(name) failed: %v", err)
	}
	if one.Count != 1 || one.Presets[0].Config == nil {
		t.Fatalf("single preset = %+v, want config", one)
	}
	if one.Presets[0].Config.TargetCount != 80 {
		t.Errorf("TargetCount = %d, want 80", one.Presets[0].Config.TargetCount)
	}

	if _, _, err := server.handlePresets(ctx, nil, PresetsInput{Name: "nope"}); !errors.Is(err, preset.ErrNotFound) {
		t.Errorf("missing preset error = %v, want ErrNotFound", err)
	}
}

func TestHandleSweep(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	_, out, err := server.handleSweep(ctx, nil, SweepInput{Trials: 100, Seed: seedPtr(3)})
	if err != nil {
		t.Fatalf("handleSweep failed: %v", err)
	}

	if len(out.Points) != 5 {
		t.Fatalf("got %d points, want the 5 default correlations", len(out.Points))
	}
	if out.Points[0].Correlation != 0 || out.Points[4].Correlation != 0.20 {
		t.Errorf("correlations = %v .. %v", out.Points[0].Correlation, out.Points[4].Correlation)
	}
	if out.Seed != 3 {
		t.Errorf("Seed = %d, want 3", out.Seed)
	}
	if out.Points[4].StandardDeviation <= out.Points[0].StandardDeviation {
		t.Errorf("sd at 0.20 (%.2f) should exceed sd at 0 (%.2f)",
			out.Points[4].StandardDeviation, out.Points[0].StandardDeviation)
	}
}

func TestHandleSweep_Errors(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	tooMany := make([]float64, maxSweepPoints+1)
	if _, _, err := server.handleSweep(ctx, nil, SweepInput{Correlations: tooMany}); err == nil {
		t.Error("expected error for too many correlation values")
	}

	huge := SweepInput{Scenario: preset.Overrides{PreSeedCount: intPtr(2000000000)}}
	if _, _, err := server.handleSweep(ctx, nil, huge); err == nil || !strings.Contains(err.Error(), "server limit") {
		t.Errorf("err = %v, want pre_seed_count server limit", err)
	}

	_, _, err := server.handleSweep(ctx, nil, SweepInput{Correlations: []float64{0, 1.2}, Trials: 10})
	if !errors.Is(err, portfolio.ErrInvalidConfiguration) {
		t.Errorf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestHandlePresetResource(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	req := &sdk.ReadResourceRequest{Params: &sdk.ReadResourceParams{URI: presetURIPrefix + preset.Baseline}}
	result, err := server.handlePresetResource(ctx, req)
	if err != nil {
		t.Fatalf("handlePresetResource failed: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(result.Contents))
	}
	text := result.Contents[0].Text
	for _, want := range []string{"name: baseline", "pre_seed_count: 876"} {
		if !strings.Contains(text, want) {
			t.Errorf("resource text missing %q:\n%s", want, text)
		}
	}

	bad := []string{"venturesim://other/baseline", presetURIPrefix, presetURIPrefix + "missing"}
	for _, uri := range bad {
		req := &sdk.ReadResourceRequest{Params: &sdk.ReadResourceParams{URI: uri}}
		if _, err := server.handlePresetResource(ctx, req); err == nil {
			t.Errorf("URI %q: expected error", uri)
		}
	}
}

func TestHandlePresetsResource(t *testing.T) {
	server, _ := setupTestServer(t)

	result, err := server.handlePresetsResource(context.Background(), &sdk.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handlePresetsResource failed: %v", err)
	}
	text := result.Contents[0].Text
	for _, p := range preset.Builtins() {
		if !strings.Contains(text, p.Name) {
			t.Errorf("presets table missing %q", p.Name)
		}
	}
}

func TestCountOverrides(t *testing.T) {
	if got := countOverrides(preset.Overrides{}); got != 0 {
		t.Errorf("empty overrides = %d, want 0", got)
	}
	n := 10
	if got := countOverrides(preset.Overrides{PreSeedCount: &n, CarryOver: floatPtr(0.5)}); got != 2 {
		t.Errorf("two overrides = %d, want 2", got)
	}
}
