package extrap

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
)

// zStep is the resolution of the extrapolated curve and half of binWidth,
// the normalized height of one profile depth band.
const (
	zStep    = 0.01
	binWidth = 0.05
)

// FitProfile fits one parametric extrapolation model to a normalized
// profile and reports the fit statistics.
//
// The exponent argument is used only when method is ExpManual. Power top
// with No Slip bottom is not a valid combination; the top is silently
// forced to Constant. A profile with no valid bins yields NaN exponent,
// r-squared and confidence interval with the method metadata preserved.
func FitProfile(profile domain.NormalizedProfile, top domain.TopMethod, bot domain.BotMethod,
	method domain.ExpMethod, exponent float64) domain.FitResult {

	if bot == domain.BotNoSlip && top == domain.TopPower {
		top = domain.TopConstant
	}

	res := domain.FitResult{
		Source:     profile.Source,
		DataType:   profile.DataType,
		TopMethod:  top,
		BotMethod:  bot,
		ExpMethod:  method,
		Exponent:   math.NaN(),
		Coef:       math.NaN(),
		RSquared:   math.NaN(),
		ExponentCI: [2]float64{math.NaN(), math.NaN()},
	}

	valid := profile.Valid
	if len(valid) == 0 {
		return res
	}

	// Highest valid bin; valid indices are ordered surface first.
	maxZ := profile.Z[valid[0]]
	topValue := profile.Median[valid[0]]

	// The exponent-fitting window defaults to every valid bin. No-slip
	// bottoms restrict it to a near-bed subset.
	window := valid
	if bot == domain.BotNoSlip {
		window, method = noSlipWindow(profile, valid, method)
	}

	// Extrapolated curve skeleton: lower power-law segment plus, for
	// non-power tops, an upper segment holding the top estimate.
	var zLower, zUpper, uUpper []float64
	switch {
	case top == domain.TopPower && bot == domain.BotPower:
		zLower = grid(0, 1)
	case bot == domain.BotPower:
		zLower = grid(0, maxZ)
		zUpper = grid(maxZ+zStep, 1)
		uUpper = topSegment(profile, valid, top, zUpper, topValue)
	default:
		zLower = grid(0, profile.Z[window[0]])
		zUpper = grid(maxZ+zStep, 1)
		uUpper = topSegment(profile, valid, top, zUpper, topValue)
	}

	// Fit the exponent over the window.
	zfit := make([]float64, 0, len(window))
	yfit := make([]float64, 0, len(window))
	for _, i := range window {
		if !math.IsNaN(profile.Z[i]) && !math.IsNaN(profile.Median[i]) {
			zfit = append(zfit, profile.Z[i])
			yfit = append(yfit, profile.Median[i])
		}
	}

	switch method {
	case domain.ExpManual:
		res.Exponent = exponent
	case domain.ExpDefault:
		res.Exponent = domain.DefaultExponent
	case domain.ExpOptimize:
		// Seeded from the deepest valid point; bounded to [0.01, 1] and
		// clamped at the 0.05 floor.
		if len(zfit) > 1 {
			a, b := optimizeExponent(zfit, yfit, domain.DefaultExponent)
			if math.IsNaN(b) || b < exponentFloor {
				b = exponentFloor
			}
			res.Exponent = b
			if len(zfit) > 2 {
				res.ExponentCI = exponentCI(zfit, yfit, a, b, len(window))
			}
		}
	}

	if len(zfit) > 2 && !math.IsNaN(res.Exponent) {
		a := amplitudeFor(zfit, yfit, res.Exponent)
		res.RSquared = rSquared(zfit, yfit, a, res.Exponent)
	}

	// The power-law coefficient is not a free parameter: it conserves the
	// summed normalized discharge of the window's 0.05-wide depth bins.
	res.Coef = conservingCoef(profile, window, res.Exponent)

	res.Residuals = make([]float64, len(window))
	for k, i := range window {
		res.Residuals[k] = profile.Median[i] - res.Coef*math.Pow(profile.Z[i], res.Exponent)
	}

	res.Z = make([]float64, 0, len(zLower)+len(zUpper))
	res.U = make([]float64, 0, len(zLower)+len(zUpper))
	for _, z := range zLower {
		res.Z = append(res.Z, z)
		res.U = append(res.U, res.Coef*math.Pow(z, res.Exponent))
	}
	res.Z = append(res.Z, zUpper...)
	res.U = append(res.U, uUpper...)

	return res
}

// noSlipWindow selects the near-bed subset used to fit a no-slip
// exponent. Optimize mode takes the deepest third of the valid bins and
// falls back to the default exponent when that subset has fewer than 4
// bins; an empty subset falls through to the default-mode selection.
// Other modes take every bin at or below 20% of depth, or the single
// deepest bin when none qualify.
func noSlipWindow(profile domain.NormalizedProfile, valid []int,
	method domain.ExpMethod) ([]int, domain.ExpMethod) {

	if method == domain.ExpOptimize {
		count := len(valid) / 3
		window := valid[len(valid)-count:]
		if len(window) >= 4 {
			return window, method
		}
		method = domain.ExpDefault
		if len(window) > 0 {
			return window, method
		}
	}

	var window []int
	for _, i := range valid {
		if profile.Z[i] <= 0.2 {
			window = append(window, i)
		}
	}
	if len(window) == 0 {
		window = []int{valid[len(valid)-1]}
	}
	return window, method
}

// topSegment builds the extrapolated values above the highest valid bin:
// a constant hold of the top valid median, or a linear extension of the
// top three bins for a 3-point top. With fewer than 6 valid bins the
// 3-point top degrades to constant.
func topSegment(profile domain.NormalizedProfile, valid []int, top domain.TopMethod,
	zUpper []float64, topValue float64) []float64 {

	u := make([]float64, len(zUpper))
	if top == domain.TopThreePoint && len(valid) >= 6 {
		slope, intercept := linearThrough(profile, valid[:3])
		for i, z := range zUpper {
			u[i] = slope*z + intercept
		}
		return u
	}
	for i := range u {
		u[i] = topValue
	}
	return u
}

// linearThrough fits a least-squares line through the given bins.
func linearThrough(profile domain.NormalizedProfile, idx []int) (slope, intercept float64) {
	x := make([]float64, len(idx))
	y := make([]float64, len(idx))
	for k, i := range idx {
		x[k] = profile.Z[i]
		y[k] = profile.Median[i]
	}
	intercept, slope = stat.LinearRegression(x, y, nil, false)
	return slope, intercept
}

// conservingCoef derives the power-law coefficient so that the integral
// of the fitted curve over each 0.05-wide depth bin of the window matches
// the summed normalized discharge of those bins.
func conservingCoef(profile domain.NormalizedProfile, window []int, exponent float64) float64 {
	e1 := exponent + 1
	var sumY, sumZ float64
	for _, i := range window {
		if !math.IsNaN(profile.Median[i]) {
			sumY += profile.Median[i]
		}
		z := profile.Z[i]
		if !math.IsNaN(z) {
			// The deepest bin's lower edge can land a hair below zero in
			// floating point, and Pow(negative, non-integer) is NaN.
			lo := math.Max(z-0.5*binWidth, 0)
			sumZ += math.Pow(z+0.5*binWidth, e1) - math.Pow(lo, e1)
		}
	}
	if sumZ == 0 {
		return math.NaN()
	}
	return e1 * binWidth * sumY / sumZ
}

// grid returns values from start to stop inclusive in zStep increments.
func grid(start, stop float64) []float64 {
	if stop < start {
		return nil
	}
	n := int(math.Floor((stop-start)/zStep + 1e-9))
	out := make([]float64, 0, n+2)
	for i := 0; i <= n; i++ {
		out = append(out, start+zStep*float64(i))
	}
	if out[len(out)-1] < stop-1e-9 {
		out = append(out, stop)
	}
	return out
}
