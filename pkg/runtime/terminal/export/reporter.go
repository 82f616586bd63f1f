package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/template"

	"github.com/hydro-tools/flow-atlas/pkg/models/domain"
	"github.com/hydro-tools/flow-atlas/pkg/services/analysis"
)

type TableConfig struct {
	TermWidth  int
	ValueWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		TermWidth:  12,
		ValueWidth: 14,
	}
}

// Reporter renders an analysis result to the terminal in a formatted
// text form.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) Handle(result analysis.Result) error {
	funcMap := template.FuncMap{
		"formatRow": func(term string, value, contrib float64) string {
			return fmt.Sprintf("| %-*s | %*s | %*s |",
				c.config.TermWidth, term,
				c.config.ValueWidth, formatPct(value),
				c.config.ValueWidth, formatPct(100*contrib))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+",
				strings.Repeat("-", c.config.TermWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2))
		},
		"pct":   formatPct,
		"terms": func() []domain.Term { return domain.Terms },
	}

	tmpl := `
Discharge Uncertainty ({{.State.FitMethod}} fit, {{len .Report.ByTransect}} transects)

Selected fit: {{.State.Composite.TopMethod}}/{{.State.Composite.BotMethod}} exponent {{printf "%.4f" .State.Composite.Exponent}}
Combined 68%: {{pct .Report.Combined68}}
Combined 95%: {{pct .Report.Combined95}}
{{- if .Report.UserTotal95}}
Reported 95% (user supplied): {{pct (deref .Report.UserTotal95)}}
{{- end}}
{{- range .State.Messages}}
Note: {{.}}
{{- end}}

{{separator}}
| {{printf "%-12s" "Term"}} | {{printf "%14s" "68% [%]"}} | {{printf "%14s" "Contrib [%]"}} |
{{separator}}
{{- range terms}}
{{formatRow (printf "%s" .) (index $.Report.TermValues .) (index $.Report.TermContrib .)}}
{{- end}}
{{separator}}

Scenarios:
{{- range .Scenarios}}
  {{printf "%-14s" .Name}} {{stateName .State}}
{{- end}}
`

	funcMap["deref"] = func(v *float64) float64 { return *v }
	funcMap["stateName"] = func(s domain.ScenarioState) string {
		switch s {
		case domain.ScenarioComputed:
			return "computed"
		case domain.ScenarioDisabled:
			return "disabled"
		default:
			return "failed (baseline substituted)"
		}
	}

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, result)
}

func formatPct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
