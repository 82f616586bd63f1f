package api

type FitSummary struct {
	Source      string `json:"source"`
	TopMethod   string `json:"top_method"`
	BotMethod   string `json:"bot_method"`
	Exponent    Float  `json:"exponent"`
	RSquared    Float  `json:"r_squared"`
	FitMethod   string `json:"fit_method"`
	Coefficient Float  `json:"coefficient"`
}

type TermValue struct {
	Term         string `json:"term"`
	Value68      Float  `json:"value_68"`
	Contribution Float  `json:"contribution"`
}

type TransectUncertainty struct {
	Source     string `json:"source"`
	Combined68 Float  `json:"combined_68"`
	Combined95 Float  `json:"combined_95"`
	Abs95      Float  `json:"abs_95"`
}

type UncertaintyReport struct {
	Combined68    Float                 `json:"combined_68"`
	Combined95    Float                 `json:"combined_95"`
	Combined68Abs Float                 `json:"combined_68_abs"`
	Combined95Abs Float                 `json:"combined_95_abs"`
	Terms         []TermValue           `json:"terms"`
	ByTransect    []TransectUncertainty `json:"by_transect"`
	UserTotal95   *float64              `json:"user_total_95,omitempty"`
}

type ScenarioOutcome struct {
	Name  string `json:"name"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

type AnalysisReport struct {
	FitMethod   string            `json:"fit_method"`
	PerTransect []FitSummary      `json:"per_transect"`
	Composite   FitSummary        `json:"composite"`
	Messages    []string          `json:"messages,omitempty"`
	Uncertainty UncertaintyReport `json:"uncertainty"`
	Scenarios   []ScenarioOutcome `json:"scenarios"`
}
