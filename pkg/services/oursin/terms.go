package oursin

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
)

// systematicUncertainty68 is the irreducible relative uncertainty of the
// method itself, at the 68% confidence level.
const systematicUncertainty68 = 0.01 * 1.31

// movingBedUncertainty halves the externally supplied 95% moving-bed
// correction uncertainty to the 68% level.
func movingBedUncertainty(m domain.Measurement) float64 {
	return 0.01 * m.MovingBed95 / 2
}

// ensembleCountUncertainty is the ISO 748 style uncertainty from the
// limited number of ensembles in one transect.
func ensembleCountUncertainty(d domain.Discharge) float64 {
	return 0.01 * 32 * math.Pow(float64(len(d.MiddleEns)), -0.88)
}

// transectCov68 is the coefficient of variation of the checked transect
// totals, inflated to 95% and halved back to 68%. NaN for fewer than two
// checked transects.
func transectCov68(m domain.Measurement) float64 {
	idx := m.CheckedIdx()
	if len(idx) < 2 {
		return math.NaN()
	}

	totals := make([]float64, len(idx))
	for k, i := range idx {
		totals[k] = m.Discharges[i].Total
	}
	n := float64(len(totals))
	cov := math.Abs(stat.StdDev(totals, nil) / stat.Mean(totals, nil))

	var cov95 float64
	if len(totals) == 2 {
		// Reduced coverage factor for two transects, accounting for
		// prior knowledge from the 720 second duration analysis.
		cov95 = cov * 3.3
	} else {
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}
		cov95 = dist.Quantile(0.975) * cov / math.Sqrt(n)
	}
	return cov95 / 2
}
