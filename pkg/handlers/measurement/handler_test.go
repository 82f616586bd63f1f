package measurement

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydro-tools/flow-atlas/pkg/models/api"
	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
	"github.com/hydro-tools/flow-atlas/pkg/services/oursin"
	"github.com/hydro-tools/flow-atlas/pkg/store/measurementfile"
)

func fixtureProfile(source string, coef float64) domain.NormalizedProfile {
	p := domain.NormalizedProfile{Source: source, DataType: "q"}
	for k := 0; k < 20; k++ {
		z := 0.975 - 0.05*float64(k)
		p.Z = append(p.Z, z)
		p.Median = append(p.Median, coef*math.Pow(z, 1.0/6.0))
		p.IQRLower = append(p.IQRLower, 0)
		p.IQRUpper = append(p.IQRUpper, 0)
		p.Valid = append(p.Valid, k)
	}
	return p
}

func fixtureTransect(source string) domain.Transect {
	allTrue := func(n int) []bool {
		out := make([]bool, n)
		for i := range out {
			out[i] = true
		}
		return out
	}
	row := func(v float64) []float64 { return []float64{v, v, v} }

	return domain.Transect{
		Source:       source,
		Checked:      true,
		LeftEdge:     domain.Edge{Distance: 2, Shape: domain.EdgeTriangular},
		RightEdge:    domain.Edge{Distance: 3, Shape: domain.EdgeTriangular},
		DraftOrig:    0.3,
		DraftUse:     0.3,
		Depth:        row(2),
		EnsDuration:  row(1),
		BoatU:        row(1),
		BoatV:        row(0),
		BoatW:        row(0),
		BoatErrV:     row(0.02),
		BoatValid:    allTrue(3),
		WaterU:       [][]float64{row(1), row(1)},
		WaterV:       [][]float64{row(0), row(0)},
		WaterErrV:    [][]float64{row(0.05), row(0.05)},
		WaterValid:   [][]bool{allTrue(3), allTrue(3)},
		CellsAboveSL: [][]bool{allTrue(3), allTrue(3)},
		Extrap: domain.ExtrapSetting{
			Top: domain.TopPower, Bot: domain.BotPower, Exponent: domain.DefaultExponent,
		},
	}
}

func fixtureDischarge(total float64) domain.Discharge {
	return domain.Discharge{
		Total:     total,
		Top:       0.1 * total,
		Middle:    0.81 * total,
		Bottom:    0.05 * total,
		Left:      0.02 * total,
		Right:     0.02 * total,
		MiddleEns: []float64{0.3 * total, 0.4 * total, 0.3 * total},
	}
}

func fixtureFile() *measurementfile.File {
	baseline := []domain.DischargeSummary{
		fixtureDischarge(10).Summary(),
		fixtureDischarge(10.4).Summary(),
	}
	scenarios := map[string][]domain.DischargeSummary{}
	for _, name := range []string{
		oursin.ScenarioPPOpt, oursin.ScenarioPPMin, oursin.ScenarioPPMax,
		oursin.ScenarioCNSOpt, oursin.ScenarioCNSMin, oursin.ScenarioCNSMax,
		oursin.Scenario3PNSOpt,
		oursin.ScenarioEdgeMin, oursin.ScenarioEdgeMax,
		oursin.ScenarioDraftMin, oursin.ScenarioDraftMax,
		oursin.ScenarioEnsHold, oursin.ScenarioEnsNext,
		oursin.ScenarioCellsLegacy, oursin.ScenarioCellsAbove, oursin.ScenarioCellsBelow,
		oursin.ScenarioCellsBefore, oursin.ScenarioCellsAfter, oursin.ScenarioShallowEns,
	} {
		scenarios[name] = baseline
	}

	return &measurementfile.File{
		Measurement: domain.Measurement{
			Transects:  []domain.Transect{fixtureTransect("transect_1"), fixtureTransect("transect_2")},
			Discharges: []domain.Discharge{fixtureDischarge(10), fixtureDischarge(10.4)},
		},
		Profiles: []domain.NormalizedProfile{
			fixtureProfile("transect_1", 1.0),
			fixtureProfile("transect_2", 1.1),
		},
		Composite: fixtureProfile("composite", 1.05),
		Scenarios: scenarios,
	}
}

func TestHandler_Analyze(t *testing.T) {
	handler := NewHandler(oursin.DefaultConfig())

	t.Run("analyzes a valid measurement", func(t *testing.T) {
		var body bytes.Buffer
		require.NoError(t, json.NewEncoder(&body).Encode(fixtureFile()))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/measurements/analyze", &body)
		rec := httptest.NewRecorder()
		handler.Analyze(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var report api.AnalysisReport
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))

		assert.Equal(t, string(domain.FitAutomatic), report.FitMethod)
		require.Len(t, report.PerTransect, 2)
		assert.Equal(t, "transect_1", report.PerTransect[0].Source)
		assert.Equal(t, "composite", report.Composite.Source)

		assert.Greater(t, float64(report.Uncertainty.Combined68), 0.0)
		assert.InDelta(t, 2*float64(report.Uncertainty.Combined68),
			float64(report.Uncertainty.Combined95), 1e-9)
		require.Len(t, report.Uncertainty.ByTransect, 2)
		assert.Equal(t, "transect_2", report.Uncertainty.ByTransect[1].Source)

		require.Len(t, report.Scenarios, 19)
		for _, sc := range report.Scenarios {
			assert.Equal(t, "computed", sc.State, sc.Name)
		}
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/measurements/analyze",
			bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		handler.Analyze(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects an inconsistent measurement file", func(t *testing.T) {
		file := fixtureFile()
		file.Profiles = file.Profiles[:1]
		var body bytes.Buffer
		require.NoError(t, json.NewEncoder(&body).Encode(file))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/measurements/analyze", &body)
		rec := httptest.NewRecorder()
		handler.Analyze(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
