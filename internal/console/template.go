package console

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pixil98/go-idle/internal/display"
)

const welcomeText = `Welcome to Gravity Poop!
Click to make poop, buy producers to make it for you, and prestige for Gold Essence.
Type 'help' for a list of commands.`

// templateFuncs provides sprig plus the number formatting helpers.
var templateFuncs = func() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["count"] = display.Count
	fm["rate"] = display.Rate
	fm["percent"] = display.Percent
	return fm
}()

var templates = template.Must(template.New("console").Funcs(templateFuncs).Parse(`
{{- define "status" -}}
Poop:           {{ count .ResourceCount }} ({{ rate .EffectiveProductionRate }}/s)
Total produced: {{ count .TotalResourceProduced }}
Clicks:         {{ .ClickCount }}
Gold Essence:   {{ .PrestigeCurrency }} (x{{ printf "%.2f" .EffectiveMultiplier }} multiplier)
Prestige:       {{ .Prestige }} ({{ percent .PrestigeProgress }})
{{- if .ActiveBonuses }}
Golden poop:    {{ len .ActiveBonuses }} active
{{- end }}
{{- end -}}

{{- define "store" -}}
{{ upper "store" }}
{{ repeat 64 "-" }}
{{- range .Rows }}
{{ printf "%2d" .Index }}. {{ printf "%-22s" .DisplayName }} x{{ printf "%-4d" .OwnedCount }} {{ printf "%12s" (count .NextCost) }}  +{{ rate .BaseProductionRate }}/s{{ if .Affordable }}  *{{ end }}
{{- end }}
{{ repeat 64 "-" }}
Buy with 'buy <number|name>'. * = affordable.
{{- end -}}

{{- define "achievements" -}}
{{ upper "achievements" }} ({{ .Unlocked }}/{{ len .Rows }})
{{- range .Rows }}
[{{ if .Unlocked }}x{{ else }} {{ end }}] {{ .Title }}: {{ .Description }}
{{- end }}
{{- end -}}

{{- define "bonus" -}}
{{- if not (or .Events .Active) -}}
No golden poop right now.
{{- else -}}
{{- range .Events }}
Golden poop {{ .ID | trunc 8 }} vanishes in {{ .Remaining }}. Type 'collect'!
{{- end }}
{{- range .Active }}
Bonus x{{ .Factor }} active for {{ .Remaining }}.
{{- end }}
{{- end -}}
{{- end -}}

{{- define "help" -}}
Available commands:
{{- range . }}
  {{ printf "%-18s" .Usage }} {{ .Description }}
{{- end }}
{{- end -}}
`))

// render expands a named template using data.
func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("executing %s template: %w", name, err)
	}
	return strings.Trim(buf.String(), "\n"), nil
}
