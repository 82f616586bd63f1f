package domain

// NormalizedProfile is a depth-normalized velocity or unit-discharge
// profile for one transect, produced upstream of this module. Z is the
// normalized distance from the streambed (1 = water surface) of each 5%
// depth-band median, ordered surface first. Valid lists the indices of
// bins whose medians met the point-count threshold, in the same order.
type NormalizedProfile struct {
	Source   string `json:"source"`
	DataType string `json:"data_type"`

	Z        []float64 `json:"z"`
	Median   []float64 `json:"median"`
	IQRLower []float64 `json:"iqr_lower"`
	IQRUpper []float64 `json:"iqr_upper"`

	Valid []int `json:"valid"`
}

// ValidCount reports the number of valid bins.
func (p NormalizedProfile) ValidCount() int {
	return len(p.Valid)
}
