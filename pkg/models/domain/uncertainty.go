package domain

// Term names one contribution to the combined discharge uncertainty.
type Term string

const (
	TermMeasured   Term = "u_meas"
	TermMovingBed  Term = "u_movbed"
	TermSystematic Term = "u_syst"
	TermEnsembles  Term = "u_ens"
	TermBadCell    Term = "u_badcell"
	TermBadEns     Term = "u_badens"
	TermTop        Term = "u_top"
	TermBot        Term = "u_bot"
	TermLeft       Term = "u_left"
	TermRight      Term = "u_right"
	TermCov        Term = "u_cov"
)

// Terms lists every term in the order used for reporting. TermMeasured is
// the only random term; all others are systematic.
var Terms = []Term{
	TermMeasured,
	TermMovingBed,
	TermSystematic,
	TermEnsembles,
	TermBadCell,
	TermBadEns,
	TermTop,
	TermBot,
	TermLeft,
	TermRight,
	TermCov,
}

// TermSet holds one transect's uncertainty contributions as relative
// fractions at the 68% confidence level.
type TermSet map[Term]float64

// MeasuredContrib is the fractional contribution of each noise source to
// one transect's measured-area uncertainty. The six fractions sum to 1.
type MeasuredContrib struct {
	BoatNoise   float64 `json:"boat_noise"`
	BoatErrV    float64 `json:"boat_err_v"`
	DepthMotion float64 `json:"depth_motion"`
	WaterNoise  float64 `json:"water_noise"`
	WaterErrV   float64 `json:"water_err_v"`
	CellSize    float64 `json:"cell_size"`
}

// ScenarioState tags the outcome of one reprocessing scenario.
type ScenarioState int

const (
	ScenarioComputed ScenarioState = iota
	ScenarioDisabled
	ScenarioFailed
)

// ScenarioResult is the per-transect discharge decomposition produced by
// one reprocessing scenario. Disabled and Failed results resolve to the
// baseline at the combination step, never earlier.
type ScenarioResult struct {
	Name       string
	State      ScenarioState
	Discharges []DischargeSummary
	Err        error
}

// TransectUncertainty is one transect's combined uncertainty.
type TransectUncertainty struct {
	Combined68 float64 `json:"combined_68"`
	Combined95 float64 `json:"combined_95"`
	Abs68      float64 `json:"abs_68"`
	Abs95      float64 `json:"abs_95"`
}

// UncertaintyReport is the combined output of the uncertainty ensemble.
// Percent values are relative to the baseline total discharge; absolute
// values are in discharge units.
type UncertaintyReport struct {
	Combined68 float64 `json:"combined_68"`
	Combined95 float64 `json:"combined_95"`

	Combined68Abs float64 `json:"combined_68_abs"`
	Combined95Abs float64 `json:"combined_95_abs"`

	// TermValues holds the measurement-level 68% value of each term in
	// percent; TermContrib its fraction of the total variance.
	TermValues  map[Term]float64 `json:"term_values"`
	TermContrib map[Term]float64 `json:"term_contrib"`

	ByTransect []TransectUncertainty `json:"by_transect"`

	// VarianceByTransect is the squared 68% fraction of every term for
	// every checked transect.
	VarianceByTransect []TermSet `json:"variance_by_transect"`

	// MeasuredContrib decomposes the measured-area term per transect.
	MeasuredContrib []MeasuredContrib `json:"measured_contrib"`

	// UserTotal95 is a caller-supplied total that bypasses the
	// combination for reporting purposes. The term table above is
	// unaffected by it.
	UserTotal95 *float64 `json:"user_total_95,omitempty"`
}
