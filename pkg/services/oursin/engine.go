package oursin

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
)

// Engine evaluates the total discharge uncertainty of a measurement by
// combining the analytic noise terms with the spread of the
// deterministic reprocessing ensemble.
type Engine struct {
	cfg      Config
	repro    Reprocessor
	families *familyRegistry
}

// NewEngine wires an engine. The reprocessor is required; it is only
// invoked for scenarios that are neither disabled nor pinned.
func NewEngine(cfg Config, repro Reprocessor) (*Engine, error) {
	if repro == nil {
		return nil, fmt.Errorf("oursin: reprocessor is required")
	}
	if cfg.Workers < 1 {
		cfg.Workers = DefaultConfig().Workers
	}
	return &Engine{cfg: cfg, repro: repro, families: defaultFamilies}, nil
}

// Evaluate runs the full uncertainty evaluation for a measurement and
// its extrapolation state. The returned scenario results preserve the
// outcome of every ensemble member, including disabled and failed ones.
func (e *Engine) Evaluate(ctx context.Context, meas domain.Measurement,
	state domain.ExtrapolationState) (domain.UncertaintyReport, []domain.ScenarioResult, error) {

	logger := zerolog.Ctx(ctx)

	idx := meas.CheckedIdx()
	if len(idx) == 0 {
		return domain.UncertaintyReport{}, nil, fmt.Errorf("oursin: no checked transects")
	}
	if len(state.PerTransect) != len(meas.Transects) {
		return domain.UncertaintyReport{}, nil, fmt.Errorf(
			"oursin: extrapolation state covers %d transects, measurement has %d",
			len(state.PerTransect), len(meas.Transects))
	}

	baseline := make([]domain.DischargeSummary, len(idx))
	for k, i := range idx {
		baseline[k] = meas.Discharges[i].Summary()
	}

	scenarios := e.families.build(meas, state, e.cfg)
	results := e.runScenarios(ctx, meas, baseline, scenarios)

	byName := make(map[string]domain.ScenarioResult, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}

	table := make([]domain.TermSet, len(idx))
	contribs := make([]domain.MeasuredContrib, len(idx))
	for k := range table {
		table[k] = make(domain.TermSet, len(domain.Terms))
	}

	// Analytic terms.
	movbed := movingBedUncertainty(meas)
	cov := transectCov68(meas)
	for k, i := range idx {
		uMeas, contrib := measuredUncertainty(meas.Transects[i], meas.Discharges[i], e.cfg)
		contribs[k] = contrib
		table[k][domain.TermMeasured] = uMeas
		table[k][domain.TermSystematic] = systematicUncertainty68
		table[k][domain.TermMovingBed] = movbed
		table[k][domain.TermEnsembles] = ensembleCountUncertainty(meas.Discharges[i])
		table[k][domain.TermCov] = cov
	}

	// Empirical terms from the scenario spreads.
	for term := range categorySets {
		vals := empiricalTerm(term, baseline, byName)
		for k := range table {
			table[k][term] = vals[k]
		}
	}

	// User overrides replace the computed value for every transect but
	// never reshape the table.
	for _, term := range domain.Terms {
		if pct, ok := e.cfg.termOverride(term); ok {
			for k := range table {
				table[k][term] = 0.01 * pct
			}
		}
	}

	report := combineTerms(table, baseline, e.cfg.Total95User)
	report.MeasuredContrib = contribs

	logger.Info().
		Int("transects", len(idx)).
		Int("scenarios", len(scenarios)).
		Float64("combined95", report.Combined95).
		Msg("uncertainty evaluation complete")

	return report, results, nil
}

// runScenarios executes the ensemble on a bounded worker pool. Each
// worker writes only its own pre-sized slot; a failed scenario is
// recorded, never propagated.
func (e *Engine) runScenarios(ctx context.Context, meas domain.Measurement,
	baseline []domain.DischargeSummary, scenarios []Scenario) []domain.ScenarioResult {

	logger := zerolog.Ctx(ctx)
	results := make([]domain.ScenarioResult, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			if e.cfg.familyDisabled(sc.Family) || sc.PinBaseline {
				results[i] = domain.ScenarioResult{Name: sc.Name, State: domain.ScenarioDisabled}
				return nil
			}

			ds, err := e.repro.Reprocess(gctx, meas, sc)
			if err == nil && len(ds) != len(baseline) {
				err = fmt.Errorf("reprocessor returned %d transects, want %d", len(ds), len(baseline))
			}
			if err != nil {
				logger.Warn().Err(err).Str("scenario", sc.Name).
					Msg("scenario failed, substituting baseline")
				results[i] = domain.ScenarioResult{Name: sc.Name, State: domain.ScenarioFailed, Err: err}
				return nil
			}

			results[i] = domain.ScenarioResult{Name: sc.Name, State: domain.ScenarioComputed, Discharges: ds}
			return nil
		})
	}
	// Workers never return errors; failures are recorded in their slots.
	_ = g.Wait()

	return results
}
