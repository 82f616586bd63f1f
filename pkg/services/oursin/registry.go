package oursin

import (
	"fmt"
	"sync"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
)

// familyBuilder enumerates the scenarios of one perturbation family for
// a measurement and its extrapolation state.
type familyBuilder func(meas domain.Measurement, state domain.ExtrapolationState, cfg Config) []Scenario

// familyRegistry maps family names to their scenario builders keeping a
// stable enumeration order.
type familyRegistry struct {
	mu       sync.RWMutex
	builders map[string]familyBuilder
	order    []string
}

func newFamilyRegistry() *familyRegistry {
	return &familyRegistry{builders: make(map[string]familyBuilder)}
}

func (r *familyRegistry) register(family string, builder familyBuilder) error {
	if family == "" {
		return fmt.Errorf("family name cannot be empty")
	}
	if builder == nil {
		return fmt.Errorf("builder cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[family]; exists {
		return fmt.Errorf("family %q is already registered", family)
	}
	r.builders[family] = builder
	r.order = append(r.order, family)
	return nil
}

func (r *familyRegistry) build(meas domain.Measurement, state domain.ExtrapolationState, cfg Config) []Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var scenarios []Scenario
	for _, family := range r.order {
		scenarios = append(scenarios, r.builders[family](meas, state, cfg)...)
	}
	return scenarios
}

func (r *familyRegistry) families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

var defaultFamilies = newFamilyRegistry()

func init() {
	for _, f := range []struct {
		name    string
		builder familyBuilder
	}{
		{FamilyExtrapolation, buildExtrapolationScenarios},
		{FamilyEdges, buildEdgeScenarios},
		{FamilyDraft, buildDraftScenarios},
		{FamilyEnsembles, buildEnsembleScenarios},
		{FamilyCells, buildCellScenarios},
	} {
		if err := defaultFamilies.register(f.name, f.builder); err != nil {
			panic(err)
		}
	}
}

func checkedFits(meas domain.Measurement, state domain.ExtrapolationState) []domain.SelectedFit {
	var fits []domain.SelectedFit
	for _, i := range meas.CheckedIdx() {
		fits = append(fits, state.PerTransect[i])
	}
	return fits
}

func buildExtrapolationScenarios(meas domain.Measurement, state domain.ExtrapolationState, cfg Config) []Scenario {
	fits := checkedFits(meas, state)
	pp := powerBand(fits, cfg)
	ns := noSlipBand(fits, cfg)

	// A power fit is not applicable to bi-directional flow.
	ppPinned := bidirectionalFlow(meas)

	extrap := func(name string, top domain.TopMethod, bot domain.BotMethod, exp *float64, pin bool) Scenario {
		return Scenario{
			Name:        name,
			Family:      FamilyExtrapolation,
			PinBaseline: pin,
			Patch:       ScenarioPatch{Extrap: &ExtrapPatch{Top: top, Bot: bot, Exponent: exp}},
		}
	}

	ppExp := func(v float64) *float64 {
		if pp.collapse {
			return nil
		}
		return &v
	}
	nsExp := func(v float64) *float64 {
		if ns.collapse {
			return nil
		}
		return &v
	}

	return []Scenario{
		extrap(ScenarioPPOpt, domain.TopPower, domain.BotPower, nil, ppPinned),
		extrap(ScenarioPPMin, domain.TopPower, domain.BotPower, ppExp(pp.min), ppPinned),
		extrap(ScenarioPPMax, domain.TopPower, domain.BotPower, ppExp(pp.max), ppPinned),
		extrap(ScenarioCNSOpt, domain.TopConstant, domain.BotNoSlip, nil, false),
		extrap(ScenarioCNSMin, domain.TopConstant, domain.BotNoSlip, nsExp(ns.min), false),
		extrap(ScenarioCNSMax, domain.TopConstant, domain.BotNoSlip, nsExp(ns.max), false),
		extrap(Scenario3PNSOpt, domain.TopThreePoint, domain.BotNoSlip, nil, false),
	}
}

func buildEdgeScenarios(meas domain.Measurement, _ domain.ExtrapolationState, cfg Config) []Scenario {
	minLeft, minRight := edgeDistances(meas, cfg, false)
	maxLeft, maxRight := edgeDistances(meas, cfg, true)

	return []Scenario{
		{
			Name:   ScenarioEdgeMin,
			Family: FamilyEdges,
			Patch: ScenarioPatch{Edges: &EdgePatch{
				LeftDistance:  minLeft,
				RightDistance: minRight,
				Shape:         domain.EdgeTriangular,
			}},
		},
		{
			Name:   ScenarioEdgeMax,
			Family: FamilyEdges,
			Patch: ScenarioPatch{Edges: &EdgePatch{
				LeftDistance:  maxLeft,
				RightDistance: maxRight,
				Shape:         domain.EdgeRectangular,
			}},
		},
	}
}

func buildDraftScenarios(meas domain.Measurement, _ domain.ExtrapolationState, cfg Config) []Scenario {
	var minDraft, maxDraft []float64
	for _, i := range meas.CheckedIdx() {
		lo, hi := draftBounds(meas.Transects[i], cfg)
		minDraft = append(minDraft, lo)
		maxDraft = append(maxDraft, hi)
	}

	return []Scenario{
		{Name: ScenarioDraftMin, Family: FamilyDraft, Patch: ScenarioPatch{Draft: minDraft}},
		{Name: ScenarioDraftMax, Family: FamilyDraft, Patch: ScenarioPatch{Draft: maxDraft}},
	}
}

func buildEnsembleScenarios(domain.Measurement, domain.ExtrapolationState, Config) []Scenario {
	return []Scenario{
		{Name: ScenarioEnsHold, Family: FamilyEnsembles, Patch: ScenarioPatch{Ensembles: EnsHoldLast}},
		{Name: ScenarioEnsNext, Family: FamilyEnsembles, Patch: ScenarioPatch{Ensembles: EnsUseNext}},
	}
}

func buildCellScenarios(domain.Measurement, domain.ExtrapolationState, Config) []Scenario {
	cells := func(name string, policy CellPolicy) Scenario {
		return Scenario{Name: name, Family: FamilyCells, Patch: ScenarioPatch{Cells: policy}}
	}
	return []Scenario{
		cells(ScenarioCellsLegacy, CellsLegacy),
		cells(ScenarioCellsAbove, CellsAbove),
		cells(ScenarioCellsBelow, CellsBelow),
		cells(ScenarioCellsBefore, CellsBefore),
		cells(ScenarioCellsAfter, CellsAfter),
		cells(ScenarioShallowEns, CellsShallowSkip),
	}
}
