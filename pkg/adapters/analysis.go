package adapters

import (
	"github.com/hydro-tools/flow-atlas/pkg/models/api"
	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
)

func MapDomainFitToAPI(fit domain.SelectedFit) api.FitSummary {
	return api.FitSummary{
		Source:      fit.Source,
		TopMethod:   string(fit.TopMethod),
		BotMethod:   string(fit.BotMethod),
		Exponent:    api.Float(fit.Exponent),
		RSquared:    api.Float(fit.RSquared),
		FitMethod:   string(fit.FitMethod),
		Coefficient: api.Float(fit.Coef),
	}
}

func MapDomainReportToAPI(report domain.UncertaintyReport, sources []string) api.UncertaintyReport {
	out := api.UncertaintyReport{
		Combined68:    api.Float(report.Combined68),
		Combined95:    api.Float(report.Combined95),
		Combined68Abs: api.Float(report.Combined68Abs),
		Combined95Abs: api.Float(report.Combined95Abs),
		UserTotal95:   report.UserTotal95,
	}

	for _, term := range domain.Terms {
		out.Terms = append(out.Terms, api.TermValue{
			Term:         string(term),
			Value68:      api.Float(report.TermValues[term]),
			Contribution: api.Float(report.TermContrib[term]),
		})
	}

	for i, t := range report.ByTransect {
		source := ""
		if i < len(sources) {
			source = sources[i]
		}
		out.ByTransect = append(out.ByTransect, api.TransectUncertainty{
			Source:     source,
			Combined68: api.Float(t.Combined68),
			Combined95: api.Float(t.Combined95),
			Abs95:      api.Float(t.Abs95),
		})
	}
	return out
}

func MapDomainScenarioToAPI(result domain.ScenarioResult) api.ScenarioOutcome {
	out := api.ScenarioOutcome{Name: result.Name}
	switch result.State {
	case domain.ScenarioComputed:
		out.State = "computed"
	case domain.ScenarioDisabled:
		out.State = "disabled"
	case domain.ScenarioFailed:
		out.State = "failed"
		if result.Err != nil {
			out.Error = result.Err.Error()
		}
	}
	return out
}
