package oursin

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
)

// quietTransect is a three-ensemble, two-cell transect with every noise
// source silent: flat depths, no vertical boat motion, constant error
// velocities and a zero instrument configuration.
func quietTransect(source string) domain.Transect {
	allTrue := func(n int) []bool {
		out := make([]bool, n)
		for i := range out {
			out[i] = true
		}
		return out
	}
	row := func(v float64) []float64 { return []float64{v, v, v} }

	return domain.Transect{
		Source:      source,
		Checked:     true,
		LeftEdge:    domain.Edge{Distance: 2, Shape: domain.EdgeTriangular},
		RightEdge:   domain.Edge{Distance: 2, Shape: domain.EdgeTriangular},
		DraftOrig:   0.3,
		DraftUse:    0.3,
		Depth:       row(2),
		EnsDuration: row(1),
		BoatU:       row(1),
		BoatV:       row(0),
		BoatW:       row(0),
		BoatErrV:    row(0.02),
		BoatValid:   allTrue(3),
		WaterU:      [][]float64{row(1), row(1)},
		WaterV:      [][]float64{row(0), row(0)},
		WaterErrV:   [][]float64{row(0.05), row(0.05)},
		WaterValid:  [][]bool{allTrue(3), allTrue(3)},
		CellsAboveSL: [][]bool{
			allTrue(3), allTrue(3),
		},
		Extrap: domain.ExtrapSetting{
			Top: domain.TopPower, Bot: domain.BotPower, Exponent: domain.DefaultExponent,
		},
	}
}

func quietDischarge(total float64) domain.Discharge {
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

func TestInstrumentNoise(t *testing.T) {
	t.Run("broadband formula", func(t *testing.T) {
		adcp := domain.ADCPConfig{AmbiguityVel: 2, CodeCycles: 4, Correlation: 0.9, WaterPings: 1}
		got := instrumentNoise(adcp)
		want := math.Sqrt2 * 2 / (math.Pi * 4) * math.Sqrt((1-0.81)/0.81)
		assert.InDelta(t, want, got, 1e-12)
	})

	t.Run("zero for an incomplete configuration", func(t *testing.T) {
		assert.Equal(t, 0.0, instrumentNoise(domain.ADCPConfig{}))
		assert.Equal(t, 0.0, instrumentNoise(domain.ADCPConfig{AmbiguityVel: 2, CodeCycles: 4, WaterPings: 1}))
		assert.Equal(t, 0.0, instrumentNoise(domain.ADCPConfig{AmbiguityVel: 2, CodeCycles: 4, Correlation: 1.2, WaterPings: 1}))
	})
}

func TestBoatNoise_CappedAtHalfTheSignal(t *testing.T) {
	tr := quietTransect("transect_1")
	tr.ADCP = domain.ADCPConfig{AmbiguityVel: 2, CodeCycles: 4, Correlation: 0.5, WaterPings: 1}
	// Nearly stationary boat: raw relative noise far above the cap.
	for i := range tr.BoatU {
		tr.BoatU[i] = 0.001
		tr.BoatV[i] = 0
	}

	for _, v := range boatNoise(tr) {
		assert.Equal(t, maxRelBoatNoise, v)
	}
}

func TestWaterNoise_CappedPerCell(t *testing.T) {
	tr := quietTransect("transect_1")
	tr.ADCP = domain.ADCPConfig{AmbiguityVel: 2, CodeCycles: 4, Correlation: 0.5, WaterPings: 1}
	for c := range tr.WaterU {
		for e := range tr.WaterU[c] {
			tr.WaterU[c][e] = 0.001
			tr.WaterV[c][e] = 0
		}
	}

	for _, v := range waterNoise(tr) {
		assert.Equal(t, maxRelWaterNoise, v)
	}
}

func TestDepthErrorBoatMotion(t *testing.T) {
	tr := quietTransect("transect_1")
	tr.BoatW = []float64{0.1, -0.1, 0}

	got := depthErrorBoatMotion(tr)

	assert.InDelta(t, 0.05, got[0], 1e-12)
	assert.InDelta(t, 0.05, got[1], 1e-12)
	assert.Equal(t, 0.0, got[2])
}

func TestCellsPerEnsemble(t *testing.T) {
	tr := quietTransect("transect_1")
	tr.CellsAboveSL[0][2] = false
	tr.CellsAboveSL[1][2] = false

	got := cellsPerEnsemble(tr)

	assert.Equal(t, 2.0, got[0])
	assert.Equal(t, 2.0, got[1])
	assert.True(t, math.IsNaN(got[2]))
}

func TestMeasuredUncertainty(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("quiet transect leaves only the cell size term", func(t *testing.T) {
		tr := quietTransect("transect_1")
		d := quietDischarge(10)

		u, contrib := measuredUncertainty(tr, d, cfg)

		// sum(q_e^2) = 34, two cells, dzi = 0.5%.
		want := math.Sqrt(34 * 0.5 * 0.005 * 0.005 / 100)
		assert.InDelta(t, want, u, 1e-12)
		assert.InDelta(t, 1.0, contrib.CellSize, 1e-12)
		assert.Equal(t, 0.0, contrib.BoatNoise)
		assert.Equal(t, 0.0, contrib.WaterNoise)
	})

	t.Run("contributions sum to one", func(t *testing.T) {
		tr := quietTransect("transect_1")
		tr.ADCP = domain.ADCPConfig{AmbiguityVel: 2, CodeCycles: 4, Correlation: 0.9, WaterPings: 1}
		tr.BoatW = []float64{0.05, -0.02, 0.03}
		tr.BoatErrV = []float64{0.01, 0.05, 0.03}
		tr.WaterErrV = [][]float64{{0.02, 0.08, 0.05}, {0.04, 0.01, 0.06}}
		d := quietDischarge(10)

		u, contrib := measuredUncertainty(tr, d, cfg)

		require.False(t, math.IsNaN(u))
		assert.Greater(t, u, 0.0)
		sum := contrib.BoatNoise + contrib.BoatErrV + contrib.DepthMotion +
			contrib.WaterNoise + contrib.WaterErrV + contrib.CellSize
		assert.InDelta(t, 1.0, sum, 1e-12)
	})
}
