package oursin

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
)

// Scenario families. Disabling a family pins all of its scenarios to
// the baseline.
const (
	FamilyExtrapolation = "extrapolation"
	FamilyEdges         = "edges"
	FamilyDraft         = "draft"
	FamilyEnsembles     = "ensembles"
	FamilyCells         = "cells"
)

// Scenario names, fixed so category sets and file-backed reprocessors
// can address them.
const (
	ScenarioPPOpt       = "pp_opt"
	ScenarioPPMin       = "pp_min"
	ScenarioPPMax       = "pp_max"
	ScenarioCNSOpt      = "cns_opt"
	ScenarioCNSMin      = "cns_min"
	ScenarioCNSMax      = "cns_max"
	Scenario3PNSOpt     = "3pns_opt"
	ScenarioEdgeMin     = "edge_min"
	ScenarioEdgeMax     = "edge_max"
	ScenarioDraftMin    = "draft_min"
	ScenarioDraftMax    = "draft_max"
	ScenarioEnsHold     = "ens_hold"
	ScenarioEnsNext     = "ens_next"
	ScenarioCellsLegacy = "cells_legacy"
	ScenarioCellsAbove  = "cells_above"
	ScenarioCellsBelow  = "cells_below"
	ScenarioCellsBefore = "cells_before"
	ScenarioCellsAfter  = "cells_after"
	ScenarioShallowEns  = "shallow_ens"
)

// ExtrapPatch replaces the extrapolation model for every transect. A nil
// Exponent keeps each transect's optimized exponent for the method pair.
type ExtrapPatch struct {
	Top      domain.TopMethod
	Bot      domain.BotMethod
	Exponent *float64
}

// EdgePatch replaces the edge geometry. Distances align with the
// measurement's checked transects.
type EdgePatch struct {
	LeftDistance  []float64
	RightDistance []float64
	Shape         domain.EdgeShape
}

// CellPolicy selects the substitution method for invalid depth cells.
type CellPolicy string

const (
	CellsLegacy CellPolicy = "legacy"
	CellsAbove  CellPolicy = "above"
	CellsBelow  CellPolicy = "below"
	CellsBefore CellPolicy = "before"
	CellsAfter  CellPolicy = "after"
	// CellsShallowSkip drops the interpolated discharge of ensembles too
	// shallow for any valid cell.
	CellsShallowSkip CellPolicy = "shallow_skip"
)

// EnsPolicy selects the substitution method for invalid ensembles.
type EnsPolicy string

const (
	EnsHoldLast EnsPolicy = "hold_last"
	EnsUseNext  EnsPolicy = "use_next"
)

// ScenarioPatch is one deterministic perturbation applied against the
// immutable baseline measurement. Zero-valued fields leave the baseline
// untouched.
type ScenarioPatch struct {
	Extrap *ExtrapPatch
	Edges  *EdgePatch
	// Draft replaces the transducer draft per checked transect, meters.
	Draft     []float64
	Cells     CellPolicy
	Ensembles EnsPolicy
}

// Scenario is one named member of the reprocessing ensemble. PinBaseline
// marks scenarios whose result is known to equal the baseline without
// reprocessing, such as power fits under bi-directional flow.
type Scenario struct {
	Name        string
	Family      string
	PinBaseline bool
	Patch       ScenarioPatch
}

// Reprocessor recomputes the per-transect discharge decomposition of the
// checked transects under a scenario patch. It wraps the external
// discharge integrator.
type Reprocessor interface {
	Reprocess(ctx context.Context, meas domain.Measurement, scenario Scenario) ([]domain.DischargeSummary, error)
}

// exponentBand is the exponent range explored by one extrapolation
// family.
type exponentBand struct {
	min, max float64
	// collapse pins the min/max scenarios to the optimized one because
	// no transect selected the method.
	collapse bool
}

// powerBand derives the power-fit exponent band from the per-transect
// selections: the mean of the 95% CI bounds when every transect has one,
// otherwise the mean exponent +/- 0.2, always within 0.2 of the mean and
// inside (0, 1).
func powerBand(fits []domain.SelectedFit, cfg Config) exponentBand {
	var exps, ciMin, ciMax []float64
	for _, f := range fits {
		if f.BotMethodAuto != domain.BotPower {
			continue
		}
		exps = append(exps, f.PowerExponent)
		ciMin = append(ciMin, f.ExponentCI[0])
		ciMax = append(ciMax, f.ExponentCI[1])
	}
	if len(exps) == 0 {
		return exponentBand{collapse: true}
	}

	mean := 0.16
	if !anyNaN(exps) {
		mean = stat.Mean(exps, nil)
	}

	min := mean - 0.2
	if !anyNaN(ciMin) {
		min = stat.Mean(ciMin, nil)
	}
	max := mean + 0.2
	if !anyNaN(ciMax) {
		max = stat.Mean(ciMax, nil)
	}

	return clampBand(mean, min, max, cfg.ExpPPMin, cfg.ExpPPMax)
}

// noSlipBand derives the no-slip exponent band: the spread of the
// per-transect exponents, +/- 0.05 when only one transect selected no
// slip, within 0.2 of the mean and inside (0, 1).
func noSlipBand(fits []domain.SelectedFit, cfg Config) exponentBand {
	var exps []float64
	for _, f := range fits {
		if f.BotMethodAuto == domain.BotNoSlip {
			exps = append(exps, f.NoSlipExponent)
		}
	}
	if len(exps) == 0 {
		return exponentBand{collapse: true}
	}

	mean := nanMean(exps)
	var min, max float64
	if len(exps) == 1 {
		min = exps[0] - 0.05
		max = exps[0] + 0.05
	} else {
		min = nanMin(exps)
		max = nanMax(exps)
	}

	return clampBand(mean, min, max, cfg.ExpNSMin, cfg.ExpNSMax)
}

func clampBand(mean, min, max float64, userMin, userMax *float64) exponentBand {
	if mean-min > 0.2 {
		min = mean - 0.2
	}
	if max-mean > 0.2 {
		max = mean + 0.2
	}
	if min <= 0 {
		min = 0.01
	}
	if max >= 1 {
		max = 0.99
	}
	if userMin != nil {
		min = *userMin
	}
	if userMax != nil {
		max = *userMax
	}
	return exponentBand{min: min, max: max}
}

// draftBounds computes the min and max transducer draft for one
// transect. The offset grows for deep water where a draft error has a
// larger relative reach, and the minimum never goes non-positive.
func draftBounds(t domain.Transect, cfg Config) (min, max float64) {
	err := 0.02
	if cfg.DraftError != nil {
		err = *cfg.DraftError
	} else {
		depths := append([]float64(nil), t.Depth...)
		sort.Float64s(depths)
		if stat.Quantile(0.9, stat.Empirical, depths, nil) >= 2.5 {
			err = 0.05
		}
	}

	min = t.DraftOrig - err
	max = t.DraftOrig + err
	if min <= 0 {
		min = 0.01
	}
	return min, max
}

// edgeDistances computes the perturbed edge distances per checked
// transect, floored at 0.10 m.
func edgeDistances(m domain.Measurement, cfg Config, grow bool) (left, right []float64) {
	sign := -1.0
	if grow {
		sign = 1.0
	}
	for _, i := range m.CheckedIdx() {
		t := m.Transects[i]
		l := (1 + sign*cfg.LeftEdgePercent*0.01) * t.LeftEdge.Distance
		r := (1 + sign*cfg.RightEdgePercent*0.01) * t.RightEdge.Distance
		if l <= 0 {
			l = 0.10
		}
		if r <= 0 {
			r = 0.10
		}
		left = append(left, l)
		right = append(right, r)
	}
	return left, right
}

// bidirectionalFlow reports whether the mean top and bottom discharges
// of the checked transects have opposite signs, which rules out a power
// fit.
func bidirectionalFlow(m domain.Measurement) bool {
	var top, bot float64
	idx := m.CheckedIdx()
	for _, i := range idx {
		top += m.Discharges[i].Top
		bot += m.Discharges[i].Bottom
	}
	return math.Signbit(top) != math.Signbit(bot)
}

func anyNaN(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func nanMean(vals []float64) float64 {
	var sum float64
	n := 0
	for _, v := range vals {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func nanMin(vals []float64) float64 {
	out := math.NaN()
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(out) || v < out {
			out = v
		}
	}
	return out
}

func nanMax(vals []float64) float64 {
	out := math.NaN()
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(out) || v > out {
			out = v
		}
	}
	return out
}
