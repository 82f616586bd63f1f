package oursin

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
)

// Relative noise caps. Instrument noise cannot plausibly exceed the
// signal itself for water velocities, nor half of it for boat velocities.
const (
	maxRelBoatNoise  = 0.5
	maxRelWaterNoise = 1.0
)

// instrumentNoise is the broadband radial velocity noise of one ping,
// m/s, from the instrument configuration. Returns 0 when the
// configuration is incomplete.
func instrumentNoise(adcp domain.ADCPConfig) float64 {
	if adcp.AmbiguityVel <= 0 || adcp.CodeCycles <= 0 || adcp.WaterPings <= 0 ||
		adcp.Correlation <= 0 || adcp.Correlation > 1 {
		return 0
	}
	r := adcp.Correlation
	return math.Sqrt2 * adcp.AmbiguityVel /
		(math.Pi * adcp.CodeCycles * math.Sqrt(adcp.WaterPings)) *
		math.Sqrt((1-r*r)/(r*r))
}

// depthErrorBoatMotion is the relative depth error per ensemble caused by
// the boat's vertical velocity over the ensemble duration.
func depthErrorBoatMotion(t domain.Transect) []float64 {
	out := make([]float64, t.Ensembles())
	for i := range out {
		e := math.Abs(t.BoatW[i]*t.EnsDuration[i]) / t.Depth[i]
		if math.IsNaN(e) || math.IsInf(e, 0) {
			e = 0
		}
		out[i] = e
	}
	return out
}

// boatStdByErrorVelocity is the relative standard deviation of the boat
// velocity per ensemble. The error velocity is scaled so its standard
// deviation matches that of the horizontal boat velocity.
func boatStdByErrorVelocity(t domain.Transect) []float64 {
	var valid []float64
	for i, d := range t.BoatErrV {
		if t.BoatValid[i] && !math.IsNaN(d) {
			valid = append(valid, d)
		}
	}
	sd := math.NaN()
	if len(valid) > 0 {
		sd = stat.StdDev(valid, nil)
	}

	out := make([]float64, t.Ensembles())
	for i := range out {
		speed := math.Hypot(t.BoatU[i], t.BoatV[i])
		v := math.Abs(sd) / speed
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		out[i] = v
	}
	return out
}

// boatNoise is the relative instrument noise of the boat velocity per
// ensemble, capped at maxRelBoatNoise.
func boatNoise(t domain.Transect) []float64 {
	sigma := instrumentNoise(t.ADCP)
	out := make([]float64, t.Ensembles())
	for i := range out {
		speed := math.Hypot(t.BoatU[i], t.BoatV[i])
		v := sigma / speed
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		out[i] = math.Min(v, maxRelBoatNoise)
	}
	return out
}

// waterStdByErrorVelocity is the relative standard deviation of the
// water velocity per ensemble: the overall standard deviation of the
// valid error velocities divided by each cell's speed, reduced to one
// value per ensemble by the median over cells.
func waterStdByErrorVelocity(t domain.Transect) []float64 {
	var valid []float64
	for c := range t.WaterErrV {
		for e := range t.WaterErrV[c] {
			if t.WaterValid[c][e] && !math.IsNaN(t.WaterErrV[c][e]) {
				valid = append(valid, t.WaterErrV[c][e])
			}
		}
	}
	sd := math.NaN()
	if len(valid) > 0 {
		sd = stat.StdDev(valid, nil)
	}

	return medianRelOverCells(t, func(c, e int) float64 {
		return sd / math.Hypot(t.WaterU[c][e], t.WaterV[c][e])
	}, math.Inf(1))
}

// waterNoise is the relative instrument noise of the water velocity per
// ensemble, each cell capped at maxRelWaterNoise before the median.
func waterNoise(t domain.Transect) []float64 {
	sigma := instrumentNoise(t.ADCP)
	return medianRelOverCells(t, func(c, e int) float64 {
		return sigma / math.Hypot(t.WaterU[c][e], t.WaterV[c][e])
	}, maxRelWaterNoise)
}

// medianRelOverCells evaluates rel for every cell above the side lobe,
// caps it, and reduces to the per-ensemble median. Ensembles without
// usable cells get 0.
func medianRelOverCells(t domain.Transect, rel func(c, e int) float64, limit float64) []float64 {
	nEns := t.Ensembles()
	out := make([]float64, nEns)
	for e := 0; e < nEns; e++ {
		var vals []float64
		for c := range t.CellsAboveSL {
			if !t.CellsAboveSL[c][e] {
				continue
			}
			v := rel(c, e)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			vals = append(vals, math.Min(v, limit))
		}
		if len(vals) == 0 {
			out[e] = 0
			continue
		}
		sort.Float64s(vals)
		out[e] = stat.Quantile(0.5, stat.Empirical, vals, nil)
	}
	return out
}

// cellsPerEnsemble counts the cells above the side lobe per ensemble,
// NaN when there are none.
func cellsPerEnsemble(t domain.Transect) []float64 {
	nEns := t.Ensembles()
	out := make([]float64, nEns)
	for e := 0; e < nEns; e++ {
		n := 0
		for c := range t.CellsAboveSL {
			if t.CellsAboveSL[c][e] {
				n++
			}
		}
		if n == 0 {
			out[e] = math.NaN()
		} else {
			out[e] = float64(n)
		}
	}
	return out
}

// measuredUncertainty combines the six noise sources of the measured
// area into one relative 68% uncertainty per transect, with the
// fractional contribution of each source. Per-ensemble variances are
// weighted by the ensemble's share of the squared total discharge.
func measuredUncertainty(t domain.Transect, d domain.Discharge, cfg Config) (float64, domain.MeasuredContrib) {
	uDzi := cfg.DziPercent * 0.01
	rho := cfg.CrossCellCorrelation

	depthErr := depthErrorBoatMotion(t)
	bNoise := boatNoise(t)
	bErrV := boatStdByErrorVelocity(t)
	wNoise := waterNoise(t)
	wErrV := waterStdByErrorVelocity(t)
	nCells := cellsPerEnsemble(t)

	q2Total := d.Total * d.Total
	var c2BoatNoise, c2BoatErrV, c2Depth, c2WaterNoise, c2WaterErrV, c2Dzi float64
	for e := range d.MiddleEns {
		q2 := d.MiddleEns[e] * d.MiddleEns[e]
		n := nCells[e]
		corrFactor := (1 + (n-1)*rho) / n

		vBoatNoise := q2 * bNoise[e] * bNoise[e]
		vBoatErrV := q2 * bErrV[e] * bErrV[e]
		vDepth := q2 * depthErr[e] * depthErr[e]
		vWaterNoise := q2 * corrFactor * wNoise[e] * wNoise[e]
		vWaterErrV := q2 * (1 / n) * wErrV[e] * wErrV[e]
		vDzi := q2 * (1 / n) * uDzi * uDzi

		c2BoatNoise += nanToZero(vBoatNoise)
		c2BoatErrV += nanToZero(vBoatErrV)
		c2Depth += nanToZero(vDepth)
		c2WaterNoise += nanToZero(vWaterNoise)
		c2WaterErrV += nanToZero(vWaterErrV)
		c2Dzi += nanToZero(vDzi)
	}

	// Summing the per-source accumulators keeps the contribution
	// fractions summing to exactly 1.
	u2 := c2BoatNoise + c2BoatErrV + c2Depth + c2WaterNoise + c2WaterErrV + c2Dzi
	u2Rel := u2 / q2Total
	u := math.Sqrt(u2Rel)

	contrib := domain.MeasuredContrib{
		BoatNoise:   (c2BoatNoise / q2Total) / u2Rel,
		BoatErrV:    (c2BoatErrV / q2Total) / u2Rel,
		DepthMotion: (c2Depth / q2Total) / u2Rel,
		WaterNoise:  (c2WaterNoise / q2Total) / u2Rel,
		WaterErrV:   (c2WaterErrV / q2Total) / u2Rel,
		CellSize:    (c2Dzi / q2Total) / u2Rel,
	}
	return u, contrib
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
