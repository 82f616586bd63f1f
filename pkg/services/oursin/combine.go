package oursin

import (
	"math"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
)

// twoSqrtThree converts a min-to-max range into a 68% standard
// uncertainty under the rectangular law.
var twoSqrtThree = 2 * math.Sqrt(3)

// rectSpread is (max - min) / (2 sqrt 3) over the finite values of one
// scenario set, NaN when none are finite.
func rectSpread(vals []float64) float64 {
	lo, hi := nanMin(vals), nanMax(vals)
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return math.NaN()
	}
	return (hi - lo) / twoSqrtThree
}

// categorySets names the scenarios contributing to each empirical term
// and the discharge component they perturb.
var categorySets = map[domain.Term]struct {
	scenarios []string
	component func(domain.DischargeSummary) float64
}{
	domain.TermTop: {
		scenarios: []string{
			ScenarioPPOpt, ScenarioPPMin, ScenarioPPMax,
			ScenarioCNSOpt, ScenarioCNSMin, ScenarioCNSMax,
			Scenario3PNSOpt,
			ScenarioDraftMax, ScenarioDraftMin,
		},
		component: func(d domain.DischargeSummary) float64 { return d.Top },
	},
	domain.TermBot: {
		scenarios: []string{
			ScenarioPPOpt, ScenarioPPMin, ScenarioPPMax,
			ScenarioCNSOpt, ScenarioCNSMin, ScenarioCNSMax,
			Scenario3PNSOpt,
		},
		component: func(d domain.DischargeSummary) float64 { return d.Bottom },
	},
	domain.TermLeft: {
		scenarios: []string{
			ScenarioEdgeMin, ScenarioEdgeMax,
			ScenarioDraftMin, ScenarioDraftMax,
		},
		component: func(d domain.DischargeSummary) float64 { return d.Left },
	},
	domain.TermRight: {
		scenarios: []string{
			ScenarioEdgeMin, ScenarioEdgeMax,
			ScenarioDraftMin, ScenarioDraftMax,
		},
		component: func(d domain.DischargeSummary) float64 { return d.Right },
	},
	domain.TermBadEns: {
		scenarios: []string{ScenarioEnsHold, ScenarioEnsNext},
		component: func(d domain.DischargeSummary) float64 { return d.Total },
	},
	domain.TermBadCell: {
		scenarios: []string{
			ScenarioCellsLegacy, ScenarioCellsAbove, ScenarioCellsBelow,
			ScenarioCellsBefore, ScenarioCellsAfter, ScenarioShallowEns,
		},
		component: func(d domain.DischargeSummary) float64 { return d.Total },
	},
}

// empiricalTerm evaluates one category's per-transect rectangular-law
// uncertainty. The baseline is always a member of the scenario set, and
// disabled or failed scenarios resolve to the baseline here, never
// earlier.
func empiricalTerm(term domain.Term, baseline []domain.DischargeSummary,
	results map[string]domain.ScenarioResult) []float64 {

	set := categorySets[term]
	out := make([]float64, len(baseline))
	for k := range baseline {
		vals := []float64{set.component(baseline[k])}
		for _, name := range set.scenarios {
			ds := baseline
			if r, ok := results[name]; ok && r.State == domain.ScenarioComputed {
				ds = r.Discharges
			}
			vals = append(vals, set.component(ds[k]))
		}
		out[k] = rectSpread(vals) / baseline[k].Total
	}
	return out
}

// combineTerms folds the per-transect term table into the measurement
// totals. The measured-area term is the only random one: its variance
// shrinks with the number of transects, while every systematic term
// contributes its mean squared value unreduced. NaN terms propagate so
// an incomputable term surfaces as an incomputable total rather than a
// silently optimistic one.
func combineTerms(table []domain.TermSet, baseline []domain.DischargeSummary,
	userTotal95 *float64) domain.UncertaintyReport {

	n := float64(len(table))

	report := domain.UncertaintyReport{
		TermValues:         make(map[domain.Term]float64, len(domain.Terms)),
		TermContrib:        make(map[domain.Term]float64, len(domain.Terms)),
		ByTransect:         make([]domain.TransectUncertainty, len(table)),
		VarianceByTransect: make([]domain.TermSet, len(table)),
	}

	// Measurement-level mean squared value per term.
	meanSq := make(map[domain.Term]float64, len(domain.Terms))
	for _, term := range domain.Terms {
		var sum float64
		for _, row := range table {
			sum += row[term] * row[term]
		}
		meanSq[term] = sum / n
	}

	var variance float64
	for _, term := range domain.Terms {
		if term == domain.TermMeasured {
			variance += meanSq[term] / n
		} else {
			variance += meanSq[term]
		}
	}

	report.Combined68 = 100 * math.Sqrt(variance)
	report.Combined95 = 2 * report.Combined68

	for _, term := range domain.Terms {
		v := meanSq[term]
		if term == domain.TermMeasured {
			v /= n
		}
		report.TermValues[term] = 100 * math.Sqrt(v)
		report.TermContrib[term] = v / variance
	}

	var meanTotal float64
	for _, d := range baseline {
		meanTotal += d.Total
	}
	meanTotal /= n
	report.Combined68Abs = 0.01 * report.Combined68 * meanTotal
	report.Combined95Abs = 0.01 * report.Combined95 * meanTotal

	for k, row := range table {
		var sumSq float64
		varRow := make(domain.TermSet, len(domain.Terms))
		for _, term := range domain.Terms {
			sq := row[term] * row[term]
			varRow[term] = sq
			sumSq += sq
		}
		report.VarianceByTransect[k] = varRow

		c68 := 100 * math.Sqrt(sumSq)
		report.ByTransect[k] = domain.TransectUncertainty{
			Combined68: c68,
			Combined95: 2 * c68,
			Abs68:      0.01 * c68 * baseline[k].Total,
			Abs95:      0.02 * c68 * baseline[k].Total,
		}
	}

	report.UserTotal95 = userTotal95
	return report
}
