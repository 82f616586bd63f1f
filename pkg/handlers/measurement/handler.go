package measurement

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hydro-tools/flow-atlas/pkg/adapters"
	"github.com/hydro-tools/flow-atlas/pkg/models/api"
	"github.com/hydro-tools/flow-atlas/pkg/services/analysis"
	"github.com/hydro-tools/flow-atlas/pkg/services/oursin"
	"github.com/hydro-tools/flow-atlas/pkg/store/measurementfile"
)

type Handler struct {
	cfg oursin.Config
}

func NewHandler(cfg oursin.Config) *Handler {
	return &Handler{cfg: cfg}
}

// Analyze accepts a materialized measurement file, runs the
// extrapolation and uncertainty pipeline, and returns the report.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	file, err := measurementfile.Decode(r.Body)
	if err != nil {
		logger.Warn().Err(err).Msg("rejected measurement payload")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	store := measurementfile.NewStore(file)
	analyzer, err := analysis.NewAnalyzer(store, store, h.cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create analyzer")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	result, err := analyzer.Run(ctx, file.Measurement)
	if err != nil {
		logger.Error().Err(err).Msg("analysis failed")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	response := buildReport(file, result)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode analysis report")
	}
}

func buildReport(file *measurementfile.File, result analysis.Result) api.AnalysisReport {
	report := api.AnalysisReport{
		FitMethod: string(result.State.FitMethod),
		Composite: adapters.MapDomainFitToAPI(result.State.Composite),
		Messages:  result.State.Messages,
	}
	for _, fit := range result.State.PerTransect {
		report.PerTransect = append(report.PerTransect, adapters.MapDomainFitToAPI(fit))
	}

	var sources []string
	for _, i := range file.Measurement.CheckedIdx() {
		sources = append(sources, file.Measurement.Transects[i].Source)
	}
	report.Uncertainty = adapters.MapDomainReportToAPI(result.Report, sources)

	for _, sc := range result.Scenarios {
		report.Scenarios = append(report.Scenarios, adapters.MapDomainScenarioToAPI(sc))
	}
	return report
}
