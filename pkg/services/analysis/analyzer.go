package analysis

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
	"github.com/hydro-tools/flow-atlas/pkg/services/extrap"
	"github.com/hydro-tools/flow-atlas/pkg/services/oursin"
)

// Result is the complete outcome of one measurement analysis.
type Result struct {
	State     domain.ExtrapolationState
	Report    domain.UncertaintyReport
	Scenarios []domain.ScenarioResult
}

// Analyzer runs the extrapolation engine and the uncertainty ensemble
// back to back for one measurement.
type Analyzer struct {
	builder extrap.ProfileBuilder
	engine  *oursin.Engine
}

func NewAnalyzer(builder extrap.ProfileBuilder, repro oursin.Reprocessor, cfg oursin.Config) (*Analyzer, error) {
	engine, err := oursin.NewEngine(cfg, repro)
	if err != nil {
		return nil, fmt.Errorf("failed to create uncertainty engine: %w", err)
	}
	return &Analyzer{builder: builder, engine: engine}, nil
}

// Run selects the extrapolation fits for the measurement and evaluates
// its uncertainty.
func (a *Analyzer) Run(ctx context.Context, meas domain.Measurement) (Result, error) {
	logger := zerolog.Ctx(ctx)

	coordinator, err := extrap.NewCoordinator(a.builder, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create extrapolation coordinator: %w", err)
	}

	state, err := coordinator.Populate(ctx, meas.Transects)
	if err != nil {
		return Result{}, fmt.Errorf("extrapolation failed: %w", err)
	}
	logger.Info().
		Str("topMethod", string(state.Composite.TopMethod)).
		Str("botMethod", string(state.Composite.BotMethod)).
		Float64("exponent", state.Composite.Exponent).
		Msg("extrapolation selected")

	report, scenarios, err := a.engine.Evaluate(ctx, meas, state)
	if err != nil {
		return Result{}, fmt.Errorf("uncertainty evaluation failed: %w", err)
	}

	return Result{State: state, Report: report, Scenarios: scenarios}, nil
}
