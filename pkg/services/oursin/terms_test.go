package oursin

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
)

func TestMovingBedUncertainty(t *testing.T) {
	m := domain.Measurement{MovingBed95: 1.5}
	assert.InDelta(t, 0.0075, movingBedUncertainty(m), 1e-12)
}

func TestEnsembleCountUncertainty(t *testing.T) {
	d := domain.Discharge{MiddleEns: make([]float64, 100)}
	assert.InDelta(t, 0.01*32*math.Pow(100, -0.88), ensembleCountUncertainty(d), 1e-12)
}

func TestTransectCov68(t *testing.T) {
	meas := func(totals ...float64) domain.Measurement {
		var m domain.Measurement
		for _, q := range totals {
			m.Transects = append(m.Transects, domain.Transect{Checked: true})
			m.Discharges = append(m.Discharges, domain.Discharge{Total: q})
		}
		return m
	}

	t.Run("NaN below two checked transects", func(t *testing.T) {
		assert.True(t, math.IsNaN(transectCov68(meas(10))))
	})

	t.Run("two transects use the reduced coverage factor", func(t *testing.T) {
		// std = 0.2828, mean = 10.2, cov = 0.02773; x3.3 then halved.
		got := transectCov68(meas(10, 10.4))
		assert.InDelta(t, 0.0457545, got, 1e-6)
	})

	t.Run("three or more transects use the t distribution", func(t *testing.T) {
		// std = 0.2, mean = 10.2, t(0.975, 2) = 4.3027.
		got := transectCov68(meas(10, 10.2, 10.4))
		want := 4.30265 * (0.2 / 10.2) / math.Sqrt(3) / 2
		assert.InDelta(t, want, got, 1e-5)
	})

	t.Run("unchecked transects are excluded", func(t *testing.T) {
		m := meas(10, 10.4)
		m.Transects = append(m.Transects, domain.Transect{Checked: false})
		m.Discharges = append(m.Discharges, domain.Discharge{Total: 99})
		assert.InDelta(t, 0.0457545, transectCov68(m), 1e-6)
	})
}
