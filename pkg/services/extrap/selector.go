package extrap

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
)

// Decision boundaries of the automatic selection. These reproduce the
// established method and are not tunable.
const (
	minBinsForDiagnostics = 6
	goodFitR2             = 0.8
	goodTopLinearR2       = 0.9
	noSlipEvidenceR2      = 0.6
	surfaceMismatch       = 0.1
	surfaceCellMismatch   = 0.05
)

// SelectFit determines the extrapolation model for one profile. Manual
// mode delegates directly to FitProfile with the supplied setting.
// Automatic mode fits an optimized Power/Power baseline, evaluates the
// diagnostic triggers, and either keeps Power/Power or switches to
// Constant/No Slip before producing the definitive curve.
func SelectFit(profile domain.NormalizedProfile, fitMethod domain.FitMethod,
	manual *domain.ExtrapSetting) domain.SelectedFit {

	sel := domain.SelectedFit{
		FitMethod:      fitMethod,
		TopMethodAuto:  domain.TopPower,
		BotMethodAuto:  domain.BotPower,
		ExponentAuto:   domain.DefaultExponent,
		PowerExponent:  domain.DefaultExponent,
		NoSlipExponent: domain.DefaultExponent,
	}

	if fitMethod == domain.FitManual {
		setting := domain.ExtrapSetting{
			Top:      domain.TopPower,
			Bot:      domain.BotPower,
			Exponent: domain.DefaultExponent,
		}
		if manual != nil {
			setting = *manual
		}
		sel.FitResult = FitProfile(profile, setting.Top, setting.Bot, domain.ExpManual, setting.Exponent)
		return sel
	}

	// Optimized power/power reference fit.
	base := FitProfile(profile, domain.TopPower, domain.BotPower, domain.ExpOptimize, 0)
	sel.PowerExponent = base.Exponent
	sel.OptRSquared = base.RSquared
	selCI := base.ExponentCI

	valid := profile.Valid
	if len(valid) > minBinsForDiagnostics {
		med := profile.Median

		// Deltas between the data and the baseline curve at the top two,
		// bottom two and middle two valid bins.
		topDelta := deltaSum(profile, base, valid[:2])
		botDelta := deltaSum(profile, base, valid[len(valid)-2:])
		mid := len(valid)/2 - 1
		midDelta := deltaSum(profile, base, valid[mid:mid+2])

		// Water-surface behavior from a linear fit of the top four
		// median bins.
		intercept, slope := topLinearFit(profile, valid[:4])
		x := make([]float64, 4)
		y := make([]float64, 4)
		for k, i := range valid[:4] {
			x[k] = profile.Z[i]
			y[k] = med[i]
		}
		var ssRes, sumAbs float64
		for k := range x {
			r := y[k] - (slope*x[k] + intercept)
			ssRes += r * r
			sumAbs += math.Abs(r)
		}
		sel.TopFitR2 = 1 - ssRes/(sumAbs/4)
		corr := stat.Correlation(x, y, nil)
		sel.TopR2 = corr * corr

		// The optimized exponent is kept only when it is justified: a
		// good baseline fit whose 95% CI excludes the 1/6 default, or a
		// top linear fit good enough to rule out a constant top.
		if (base.RSquared < goodFitR2 || (domain.DefaultExponent > selCI[0] && domain.DefaultExponent < selCI[1])) &&
			(sel.TopFitR2 < goodFitR2 || sel.TopR2 < goodTopLinearR2) {
			base = FitProfile(profile, domain.TopPower, domain.BotPower, domain.ExpManual, domain.DefaultExponent)
		}

		sel.ExponentAuto = base.Exponent
		sel.FitR2 = base.RSquared
		sel.TopMaxDiff = base.U[len(base.U)-1] - (slope + intercept)

		// Optimized no-slip alternative for the bottom comparison.
		nsFit := FitProfile(profile, domain.TopConstant, domain.BotNoSlip, domain.ExpOptimize, 0)
		sel.NoSlipExponent = nsFit.Exponent
		sel.BotR2 = nsFit.RSquared
		sel.BotDiff = curveValueAt(base, 0.1) - curveValueAt(nsFit, 0.1)

		topCondition := math.Abs(sel.TopMaxDiff) > surfaceMismatch &&
			(sel.TopMaxDiff > 0 || math.Abs(med[valid[0]]-base.U[len(base.U)-1]) > surfaceCellMismatch)
		bottomCondition := math.Abs(sel.BotDiff) > surfaceMismatch && sel.BotR2 > noSlipEvidenceR2
		bidirectionalCondition := sign(med[valid[0]]) != sign(med[valid[len(valid)-1]])
		cShapeCondition := sign(botDelta)*sign(topDelta) == sign(midDelta) &&
			math.Abs(botDelta+topDelta) > surfaceMismatch

		if topCondition || bottomCondition || bidirectionalCondition || cShapeCondition {
			sel.TopMethodAuto = domain.TopConstant
			sel.BotMethodAuto = domain.BotNoSlip
			if nsFit.RSquared > goodFitR2 {
				sel.ExponentAuto = nsFit.Exponent
				sel.FitR2 = nsFit.RSquared
			} else {
				sel.ExponentAuto = domain.DefaultExponent
				sel.FitR2 = math.NaN()
			}
			if !math.IsNaN(nsFit.ExponentCI[0]) && !math.IsNaN(nsFit.ExponentCI[1]) {
				selCI = nsFit.ExponentCI
			} else {
				selCI = [2]float64{math.NaN(), math.NaN()}
			}
		}
	}

	// Definitive curve with the selected method and exponent. The
	// baseline curve is retained for diagnostic display.
	final := FitProfile(profile, sel.TopMethodAuto, sel.BotMethodAuto, domain.ExpManual, sel.ExponentAuto)
	final.ExponentCI = selCI
	sel.FitResult = final
	sel.ZAuto = base.Z
	sel.UAuto = base.U
	return sel
}

// deltaSum accumulates the difference between the measured medians and
// the baseline power curve at the given bins.
func deltaSum(profile domain.NormalizedProfile, fit domain.FitResult, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		d := profile.Median[i] - fit.Coef*math.Pow(profile.Z[i], fit.Exponent)
		if !math.IsNaN(d) {
			sum += d
		}
	}
	return sum
}

// topLinearFit regresses the medians of the given bins on depth.
func topLinearFit(profile domain.NormalizedProfile, idx []int) (intercept, slope float64) {
	x := make([]float64, len(idx))
	y := make([]float64, len(idx))
	for k, i := range idx {
		x[k] = profile.Z[i]
		y[k] = profile.Median[i]
	}
	intercept, slope = stat.LinearRegression(x, y, nil, false)
	return intercept, slope
}

// curveValueAt returns the fitted value at the grid point closest to z,
// or NaN when the curve does not reach z.
func curveValueAt(fit domain.FitResult, z float64) float64 {
	for i := range fit.Z {
		if math.Abs(fit.Z[i]-z) < 1e-6 {
			return fit.U[i]
		}
	}
	return math.NaN()
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	case v == 0:
		return 0
	}
	return math.NaN()
}
