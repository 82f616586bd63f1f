package export

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
	"github.com/hydro-tools/flow-atlas/pkg/services/analysis"
)

func testResult() analysis.Result {
	termValues := make(map[domain.Term]float64, len(domain.Terms))
	termContrib := make(map[domain.Term]float64, len(domain.Terms))
	for _, term := range domain.Terms {
		termValues[term] = 0.5
		termContrib[term] = 1.0 / float64(len(domain.Terms))
	}

	composite := domain.SelectedFit{FitMethod: domain.FitAutomatic}
	composite.TopMethod = domain.TopPower
	composite.BotMethod = domain.BotPower
	composite.Exponent = 1.0 / 6.0

	return analysis.Result{
		State: domain.ExtrapolationState{
			FitMethod: domain.FitAutomatic,
			Composite: composite,
			Messages:  []string{"The measurement profile may warrant a 3-point fit at the top"},
		},
		Report: domain.UncertaintyReport{
			Combined68:  1.23,
			Combined95:  2.46,
			TermValues:  termValues,
			TermContrib: termContrib,
			ByTransect:  []domain.TransectUncertainty{{Combined68: 1.1}, {Combined68: 1.3}},
		},
		Scenarios: []domain.ScenarioResult{
			{Name: "pp_opt", State: domain.ScenarioComputed},
			{Name: "cns_opt", State: domain.ScenarioDisabled},
			{Name: "edge_min", State: domain.ScenarioFailed},
		},
	}
}

func TestReporter_Handle(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf)

	require.NoError(t, reporter.Handle(testResult()))
	out := buf.String()

	assert.Contains(t, out, "Automatic fit, 2 transects")
	assert.Contains(t, out, "Power/Power exponent 0.1667")
	assert.Contains(t, out, "Combined 95%: 2.46")
	assert.Contains(t, out, "Note: The measurement profile may warrant a 3-point fit at the top")
	assert.Contains(t, out, "u_meas")
	assert.Contains(t, out, "u_cov")
	assert.Contains(t, out, "pp_opt")
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "failed (baseline substituted)")
}

func TestReporter_HandleRendersIncomputableValues(t *testing.T) {
	result := testResult()
	result.Report.Combined68 = math.NaN()
	result.Report.Combined95 = math.NaN()
	result.Report.TermValues[domain.TermCov] = math.NaN()

	var buf bytes.Buffer
	require.NoError(t, NewReporter(&buf).Handle(result))

	assert.Contains(t, buf.String(), "Combined 95%: n/a")
}
