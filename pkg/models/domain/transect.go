package domain

// EdgeShape is the assumed cross-section shape of an edge estimate.
type EdgeShape string

const (
	EdgeTriangular  EdgeShape = "Triangular"
	EdgeRectangular EdgeShape = "Rectangular"
)

// Edge describes one bank of a transect.
type Edge struct {
	Distance float64   `json:"distance_m"`
	Shape    EdgeShape `json:"shape"`
	Coef     float64   `json:"coef"`
}

// ADCPConfig carries the instrument configuration needed by the
// water-velocity noise model.
type ADCPConfig struct {
	// AmbiguityVel is the ambiguity velocity in m/s.
	AmbiguityVel float64 `json:"ambiguity_vel_mps"`
	// CodeCycles is the number of carrier cycles per pulse code element
	// (4 for WB0, 16 for WB1).
	CodeCycles float64 `json:"code_cycles"`
	// Correlation is the beam-signal correlation of the water returns.
	Correlation float64 `json:"correlation"`
	// WaterPings is the number of pings averaged per water velocity
	// estimate.
	WaterPings float64 `json:"water_pings"`
}

// Transect is one boat crossing. Per-ensemble arrays share one length;
// per-cell arrays are cell-major with one row per depth cell.
type Transect struct {
	Source    string `json:"source"`
	Checked   bool   `json:"checked"`
	StartEdge string `json:"start_edge"`

	LeftEdge  Edge `json:"left_edge"`
	RightEdge Edge `json:"right_edge"`

	DraftOrig float64 `json:"draft_orig_m"`
	DraftUse  float64 `json:"draft_use_m"`

	Depth       []float64 `json:"depth_m"`
	EnsDuration []float64 `json:"ens_duration_sec"`

	BoatU     []float64 `json:"boat_u_mps"`
	BoatV     []float64 `json:"boat_v_mps"`
	BoatW     []float64 `json:"boat_w_mps"`
	BoatErrV  []float64 `json:"boat_err_v_mps"`
	BoatValid []bool    `json:"boat_valid"`

	WaterU     [][]float64 `json:"water_u_mps"`
	WaterV     [][]float64 `json:"water_v_mps"`
	WaterErrV  [][]float64 `json:"water_err_v_mps"`
	WaterValid [][]bool    `json:"water_valid"`

	CellsAboveSL [][]bool `json:"cells_above_sl"`

	Temperature  []float64 `json:"temperature_c"`
	SpeedOfSound []float64 `json:"speed_of_sound_mps"`

	ADCP   ADCPConfig    `json:"adcp"`
	Extrap ExtrapSetting `json:"extrap"`
}

// Ensembles reports the number of ensembles in the transect.
func (t Transect) Ensembles() int {
	return len(t.Depth)
}
