package domain

// Discharge is the per-transect output of the external discharge
// integrator under the baseline processing configuration.
type Discharge struct {
	Total  float64 `json:"total"`
	Top    float64 `json:"top"`
	Middle float64 `json:"middle"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`

	// MiddleEns is the measured (middle) discharge per ensemble.
	MiddleEns []float64 `json:"middle_ens"`
	// MiddleCells is the measured discharge per cell, cell-major.
	MiddleCells [][]float64 `json:"middle_cells"`

	// CorrectionFactor is the moving-bed adjustment applied upstream.
	CorrectionFactor float64 `json:"correction_factor"`
}

// DischargeSummary is the scalar decomposition of one transect's
// discharge as produced by a reprocessing scenario.
type DischargeSummary struct {
	Total  float64 `json:"total"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Middle float64 `json:"middle"`
}

// Summary collapses a Discharge to its scalar decomposition.
func (d Discharge) Summary() DischargeSummary {
	return DischargeSummary{
		Total:  d.Total,
		Top:    d.Top,
		Bottom: d.Bottom,
		Left:   d.Left,
		Right:  d.Right,
		Middle: d.Middle,
	}
}

// Measurement bundles the value objects one discharge measurement
// contributes to this module: the transects, the baseline discharge
// decomposition per transect, and the externally computed 95% moving-bed
// correction uncertainty in percent.
type Measurement struct {
	Transects  []Transect  `json:"transects"`
	Discharges []Discharge `json:"discharges"`

	MovingBed95 float64 `json:"moving_bed_95"`
}

// CheckedIdx returns the indices of checked transects in order.
func (m Measurement) CheckedIdx() []int {
	var idx []int
	for i, t := range m.Transects {
		if t.Checked {
			idx = append(idx, i)
		}
	}
	return idx
}
