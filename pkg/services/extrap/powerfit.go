package extrap

import (
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	expLowerBound = 0.01
	expUpperBound = 1.0
	exponentFloor = 0.05
)

// amplitudeFor returns the least-squares amplitude a of y = a*z^b for a
// fixed exponent b.
func amplitudeFor(z, y []float64, b float64) float64 {
	var num, den float64
	for i := range z {
		zb := math.Pow(z[i], b)
		num += y[i] * zb
		den += zb * zb
	}
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// optimizeExponent minimizes the residual sum of squares of y = a*z^b
// over b in [0.01, 1]. The amplitude is profiled out in closed form so
// the search is one-dimensional.
func optimizeExponent(z, y []float64, b0 float64) (float64, float64) {
	sse := func(x []float64) float64 {
		b := x[0]
		var penalty float64
		if b < expLowerBound {
			penalty = 1e6 * (expLowerBound - b) * (expLowerBound - b)
			b = expLowerBound
		} else if b > expUpperBound {
			penalty = 1e6 * (b - expUpperBound) * (b - expUpperBound)
			b = expUpperBound
		}
		a := amplitudeFor(z, y, b)
		var s float64
		for i := range z {
			r := y[i] - a*math.Pow(z[i], b)
			s += r * r
		}
		return s + penalty
	}

	problem := optimize.Problem{Func: sse}
	result, err := optimize.Minimize(problem, []float64{b0}, nil, &optimize.NelderMead{})
	if err != nil && result == nil {
		return math.NaN(), math.NaN()
	}

	b := result.X[0]
	if b < expLowerBound {
		b = expLowerBound
	} else if b > expUpperBound {
		b = expUpperBound
	}
	return amplitudeFor(z, y, b), b
}

// exponentCI computes the two-sided 95% confidence interval of the fitted
// exponent from the Jacobian of the power curve at the optimum and the
// Student-t quantile with n-2 degrees of freedom.
func exponentCI(z, y []float64, a, b float64, n int) [2]float64 {
	nan := [2]float64{math.NaN(), math.NaN()}
	if n <= 2 || math.IsNaN(a) || math.IsNaN(b) {
		return nan
	}

	var jaa, jab, jbb, sse float64
	for i := range z {
		zb := math.Pow(z[i], b)
		da := zb
		db := a * zb * math.Log(z[i])
		jaa += da * da
		jab += da * db
		jbb += db * db
		r := y[i] - a*zb
		sse += r * r
	}

	det := jaa*jbb - jab*jab
	if det <= 0 {
		return nan
	}
	covBB := (sse / float64(n-2)) * jaa / det

	tv := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}.Quantile(0.975)
	half := tv * math.Sqrt(covBB)
	return [2]float64{b - half, b + half}
}

// rSquared evaluates the model r-squared of y = a*z^b against the
// mean-centered residual sum of squares.
func rSquared(z, y []float64, a, b float64) float64 {
	var mean float64
	var n int
	for i := range y {
		if !math.IsNaN(y[i]) && !math.IsNaN(z[i]) {
			mean += y[i]
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	mean /= float64(n)

	var ssTot, ssRes float64
	for i := range y {
		if math.IsNaN(y[i]) || math.IsNaN(z[i]) {
			continue
		}
		d := y[i] - mean
		ssTot += d * d
		r := y[i] - a*math.Pow(z[i], b)
		ssRes += r * r
	}
	if ssTot == 0 {
		return math.NaN()
	}
	return 1 - ssRes/ssTot
}
