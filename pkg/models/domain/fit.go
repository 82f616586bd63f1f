package domain

// TopMethod identifies the parametric model used for the unmeasured
// near-surface zone of a velocity profile.
type TopMethod string

const (
	TopPower      TopMethod = "Power"
	TopConstant   TopMethod = "Constant"
	TopThreePoint TopMethod = "3-Point"
)

// BotMethod identifies the parametric model used for the unmeasured
// near-bed zone of a velocity profile.
type BotMethod string

const (
	BotPower  BotMethod = "Power"
	BotNoSlip BotMethod = "No Slip"
)

// ExpMethod controls how the power-law exponent is determined.
type ExpMethod string

const (
	ExpManual   ExpMethod = "manual"
	ExpDefault  ExpMethod = "default"
	ExpOptimize ExpMethod = "optimize"
)

// FitMethod selects between user-specified and automatic model selection.
type FitMethod string

const (
	FitAutomatic FitMethod = "Automatic"
	FitManual    FitMethod = "Manual"
)

// DefaultExponent is the conventional 1/6 power-law exponent used when an
// optimized exponent cannot be justified.
const DefaultExponent = 1.0 / 6.0

// ExtrapSetting is a transect's stored extrapolation configuration, reused
// when the measurement-level fit method is Manual.
type ExtrapSetting struct {
	Top      TopMethod `json:"top"`
	Bot      BotMethod `json:"bot"`
	Exponent float64   `json:"exponent"`
}

// FitResult holds one parametric extrapolation fit and its statistics.
// Exponent, RSquared and ExponentCI are NaN when the profile had no valid
// bins or too few points for the statistic.
type FitResult struct {
	Source    string
	DataType  string
	TopMethod TopMethod
	BotMethod BotMethod
	ExpMethod ExpMethod

	Exponent float64
	Coef     float64

	// Extrapolated curve. Z increases monotonically and covers [0, 1].
	Z []float64
	U []float64

	Residuals  []float64
	RSquared   float64
	ExponentCI [2]float64
}

// SelectedFit is a FitResult plus the provenance of the selection: the
// automatic-mode diagnostics and the method that was actually applied.
type SelectedFit struct {
	FitResult

	FitMethod FitMethod

	// Automatic selection outcome.
	TopMethodAuto TopMethod
	BotMethodAuto BotMethod
	ExponentAuto  float64

	// Candidate exponents from the diagnostic fits.
	PowerExponent  float64
	NoSlipExponent float64

	// Diagnostics from the automatic selection.
	OptRSquared float64
	TopFitR2    float64
	TopR2       float64
	TopMaxDiff  float64
	BotDiff     float64
	BotR2       float64
	FitR2       float64

	// Automatic reference curve retained for diagnostic display.
	ZAuto []float64
	UAuto []float64
}

// ExtrapolationState is the per-measurement outcome of the extrapolation
// engine. PerTransect aligns 1:1 with the measurement's transects.
type ExtrapolationState struct {
	Threshold   float64
	Subsection  [2]float64
	FitMethod   FitMethod
	DataType    string
	PerTransect []SelectedFit
	Composite   SelectedFit
	Messages    []string
}
