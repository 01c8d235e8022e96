package mcp

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"

	"github.com/inventure/venturesim/internal/constants"
	"github.com/inventure/venturesim/internal/portfolio"
	"github.com/inventure/venturesim/internal/preset"
	"github.com/inventure/venturesim/internal/ratelimit"
	"github.com/inventure/venturesim/internal/report"
)

const (
	presetsURI      = "venturesim://presets"
	presetURIPrefix = "venturesim://presets/"

	// maxSweepPoints bounds the number of full runs one sweep call may start.
	maxSweepPoints = 21
)

// registerTools registers all portfolio tools with the MCP server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name: constants.ToolSimulate,
		Description: "Run a Monte Carlo simulation of a staged venture portfolio " +
			"(Pre-Seed -> Seed -> Series A -> Series B) and return the expected number of Series B projects, " +
			"its dispersion, the probability of reaching the target and the capital deployed per stage",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: constants.ToolEstimate,
		Description: "Closed-form expected values for a scenario, ignoring correlation. " +
			"Instant, but has no dispersion; use portfolio_simulate for confidence intervals",
	}, s.handleEstimate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        constants.ToolPresets,
		Description: "List the built-in and saved scenario presets, or show one preset's configuration",
	}, s.handlePresets)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: constants.ToolSweep,
		Description: "Run the same scenario at several correlation values to show how shared market " +
			"conditions widen the spread of Series B outcomes",
	}, s.handleSweep)
}

// registerResources registers MCP resources for preset discovery.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         presetsURI,
		Name:        "presets",
		Description: "Table of available scenario presets",
		MIMEType:    "text/plain",
	}, s.handlePresetsResource)

	s.server.AddResourceTemplate(&sdk.ResourceTemplate{
		URITemplate: presetURIPrefix + "{name}",
		Name:        "preset",
		Description: "One scenario preset as YAML, in the format accepted by 'venturesim preset import'",
		MIMEType:    "application/yaml",
	}, s.handlePresetResource)
}

func (s *Server) handlePresetsResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	presets, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}

	var buf bytes.Buffer
	if err := report.WritePresets(&buf, presets); err != nil {
		return nil, err
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      presetsURI,
				MIMEType: "text/plain",
				Text:     buf.String(),
			},
		},
	}, nil
}

// handlePresetResource serves venturesim://presets/{name}.
func (s *Server) handlePresetResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	uri := req.Params.URI
	if !strings.HasPrefix(uri, presetURIPrefix) {
		return nil, fmt.Errorf("invalid URI format: %s", uri)
	}
	name := strings.TrimPrefix(uri, presetURIPrefix)
	if name == "" {
		return nil, fmt.Errorf("preset name is required")
	}

	p, err := s.catalog.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preset: %w", err)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/yaml",
				Text:     string(data),
			},
		},
	}, nil
}

// handleSimulate implements the portfolio_simulate tool.
func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	seed := s.pickSeed(args.Seed)
	defer func() {
		s.auditTool(constants.ToolSimulate, start, retErr, sanitizeToolParams(map[string]any{
			"preset": args.Preset, "trials": args.Trials, "seed": seed,
			"overrides": countOverrides(args.Scenario),
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, constants.ToolSimulate); err != nil {
		return nil, SimulateOutput{}, err
	}

	name, cfg, err := s.resolveScenario(ctx, args.Preset, args.Scenario, args.Trials)
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	res, err := portfolio.Run(ctx, cfg, s.newSource(seed),
		portfolio.WithWorkers(s.settings.Simulation.Workers),
		portfolio.WithLogger(s.logger))
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("simulation failed: %w", err)
	}

	s.logger.Debug("simulation complete",
		"preset", name, "trials", res.TrialCount, "seed", seed,
		"expected", res.ExpectedSuccessCount)

	return nil, SimulateOutput{
		Preset: name,
		Config: cfg,
		Seed:   seed,
		Result: *res,
		Summary: fmt.Sprintf("Expected %s Series B projects (95%% CI %s-%s) over %d trials; "+
			"%s chance of reaching %d; %s deployed in total",
			report.Count(res.ExpectedSuccessCount),
			report.Count(res.ConfidenceInterval[0]), report.Count(res.ConfidenceInterval[1]),
			res.TrialCount,
			report.Percent(res.ProbabilityOfTarget), cfg.TargetCount,
			report.Money(res.TotalInvestment)),
	}, nil
}

// handleEstimate implements the portfolio_estimate tool.
func (s *Server) handleEstimate(ctx context.Context, req *sdk.CallToolRequest, args EstimateInput) (_ *sdk.CallToolResult, _ EstimateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(constants.ToolEstimate, start, retErr, sanitizeToolParams(map[string]any{
			"preset": args.Preset, "overrides": countOverrides(args.Scenario),
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, constants.ToolEstimate); err != nil {
		return nil, EstimateOutput{}, err
	}

	name, cfg, err := s.resolveScenario(ctx, args.Preset, args.Scenario, 0)
	if err != nil {
		return nil, EstimateOutput{}, err
	}

	est, err := portfolio.EstimateOf(cfg)
	if err != nil {
		return nil, EstimateOutput{}, err
	}

	return nil, EstimateOutput{
		Preset:   name,
		Config:   cfg,
		Estimate: *est,
		Summary: fmt.Sprintf("Expected %s Series B projects and %s deployed, ignoring correlation",
			report.Count(est.ExpectedSuccessCount), report.Money(est.TotalInvestment)),
	}, nil
}

// handlePresets implements the portfolio_presets tool.
func (s *Server) handlePresets(ctx context.Context, req *sdk.CallToolRequest, args PresetsInput) (_ *sdk.CallToolResult, _ PresetsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(constants.ToolPresets, start, retErr, sanitizeToolParams(map[string]any{
			"name": args.Name,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, constants.ToolPresets); err != nil {
		return nil, PresetsOutput{}, err
	}

	if args.Name != "" {
		p, err := s.catalog.Get(ctx, args.Name)
		if err != nil {
			return nil, PresetsOutput{}, err
		}
		item := toListItem(p)
		cfg := p.Config
		item.Config = &cfg
		return nil, PresetsOutput{Presets: []PresetListItem{item}, Count: 1}, nil
	}

	presets, err := s.catalog.List(ctx)
	if err != nil {
		return nil, PresetsOutput{}, fmt.Errorf("failed to list presets: %w", err)
	}

	items := make([]PresetListItem, 0, len(presets))
	for _, p := range presets {
		items = append(items, toListItem(p))
	}

	return nil, PresetsOutput{Presets: items, Count: len(items)}, nil
}

// handleSweep implements the portfolio_sweep tool.
func (s *Server) handleSweep(ctx context.Context, req *sdk.CallToolRequest, args SweepInput) (_ *sdk.CallToolResult, _ SweepOutput, retErr error) {
	start := time.Now()
	seed := s.pickSeed(args.Seed)
	defer func() {
		s.auditTool(constants.ToolSweep, start, retErr, sanitizeToolParams(map[string]any{
			"preset": args.Preset, "trials": args.Trials, "seed": seed,
			"correlation_count": len(args.Correlations),
			"overrides":         countOverrides(args.Scenario),
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, constants.ToolSweep); err != nil {
		return nil, SweepOutput{}, err
	}

	correlations := args.Correlations
	if len(correlations) == 0 {
		correlations = constants.DefaultSweepCorrelations
	}
	if len(correlations) > maxSweepPoints {
		return nil, SweepOutput{}, fmt.Errorf("sweep accepts at most %d correlation values, got %d", maxSweepPoints, len(correlations))
	}

	name, cfg, err := s.resolveScenario(ctx, args.Preset, args.Scenario, args.Trials)
	if err != nil {
		return nil, SweepOutput{}, err
	}

	points, err := portfolio.Sweep(ctx, cfg, correlations, s.newSource(seed),
		portfolio.WithWorkers(s.settings.Simulation.Workers),
		portfolio.WithLogger(s.logger))
	if err != nil {
		return nil, SweepOutput{}, fmt.Errorf("sweep failed: %w", err)
	}

	items := make([]SweepPointItem, 0, len(points))
	for _, p := range points {
		items = append(items, SweepPointItem{
			Correlation:          p.Correlation,
			ExpectedSuccessCount: p.Result.ExpectedSuccessCount,
			StandardDeviation:    p.Result.StandardDeviation,
			ConfidenceInterval:   p.Result.ConfidenceInterval,
			ProbabilityOfTarget:  p.Result.ProbabilityOfTarget,
			TotalInvestment:      p.Result.TotalInvestment,
		})
	}

	first, last := items[0], items[len(items)-1]
	return nil, SweepOutput{
		Preset: name,
		Seed:   seed,
		Points: items,
		Summary: fmt.Sprintf("%d correlation values; standard deviation %s at %g, %s at %g",
			len(items),
			report.Count(first.StandardDeviation), first.Correlation,
			report.Count(last.StandardDeviation), last.Correlation),
	}, nil
}

// resolveScenario turns a preset name and overrides into a validated Config.
// Trials resolve in order: the call's value, the preset's, the server setting.
func (s *Server) resolveScenario(ctx context.Context, presetName string, overrides preset.Overrides, trials int) (string, portfolio.Config, error) {
	if presetName == "" {
		presetName = preset.Baseline
	}

	p, err := s.catalog.Get(ctx, presetName)
	if err != nil {
		return "", portfolio.Config{}, err
	}

	cfg := overrides.Apply(p.Config)
	if cfg.CarryOver == nil {
		carry := s.settings.Simulation.CarryOver
		cfg.CarryOver = &carry
	}

	switch {
	case trials < 0:
		return "", portfolio.Config{}, fmt.Errorf("trials must be positive, got %d", trials)
	case trials > 0:
		cfg.TrialCount = trials
	case cfg.TrialCount == 0:
		cfg.TrialCount = s.settings.Simulation.Trials
	}

	if limit := s.settings.MCP.MaxTrials; limit > 0 && cfg.TrialCount > limit {
		return "", portfolio.Config{}, fmt.Errorf("trials %d exceeds the server limit of %d", cfg.TrialCount, limit)
	}
	if limit := s.settings.MCP.MaxPreSeedCount; limit > 0 && cfg.PreSeedCount > limit {
		return "", portfolio.Config{}, fmt.Errorf("pre_seed_count %d exceeds the server limit of %d", cfg.PreSeedCount, limit)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return "", portfolio.Config{}, err
	}
	return p.Name, cfg, nil
}

// pickSeed returns the requested seed or a fresh random one. The seed is
// always reported back so the caller can replay the run.
func (s *Server) pickSeed(requested *uint64) uint64 {
	if requested != nil {
		return *requested
	}
	if s.settings.Simulation.Seed != nil {
		return *s.settings.Simulation.Seed
	}
	return rand.Uint64()
}

func toListItem(p preset.Preset) PresetListItem {
	item := PresetListItem{
		Name:        p.Name,
		Description: p.Description,
		BuiltIn:     p.BuiltIn,
	}
	if !p.UpdatedAt.IsZero() {
		updated := p.UpdatedAt
		item.UpdatedAt = &updated
	}
	return item
}

// countOverrides returns how many scenario fields a call replaced.
func countOverrides(o preset.Overrides) int {
	if o.IsZero() {
		return 0
	}
	n := 0
	for _, set := range []bool{
		o.PreSeedCount != nil, o.PreSeedToSeed != nil, o.SeedToSeriesA != nil,
		o.SeriesAToSeriesB != nil, o.PreSeedInvestment != nil, o.SeedInvestment != nil,
		o.SeriesAInvestment != nil, o.SeriesBInvestment != nil, o.Correlation != nil,
		o.TargetCount != nil, o.CarryOver != nil,
	} {
		if set {
			n++
		}
	}
	return n
}
