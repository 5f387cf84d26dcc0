package synth

import (
	"log/slog"
	"os"
	"strings"
	"text/template"

	"tabforge"
	defaults "tabforge/default"
)

// analyzerUserTemplate frames the sample for the analysis call.
const analyzerUserTemplate = `Analyze the structure and patterns of this sample dataset:

{{.Sample}}

Describe the formatting of the data, what the dataset represents, what each
column stands for and how new rows should look.`

// generatorUserTemplate frames the analysis, the sample and the row count
// for one synthesis call.
const generatorUserTemplate = `Analysis:
{{.Analysis}}

Sample data:
{{.Sample}}

Generate {{.Count}} new rows based on this analysis and sample data. Use the
exact same formatting as the original data. Output only the generated rows,
never any other text. Start directly with the first row.`

var (
	analyzerUserTmpl  = template.Must(template.New("analyzer_user").Parse(analyzerUserTemplate))
	generatorUserTmpl = template.Must(template.New("generator_user").Parse(generatorUserTemplate))
)

// PromptData holds the data passed to the prompt templates.
type PromptData struct {
	Sample   string
	Analysis string
	Count    int
}

// PromptSet carries the system instructions for the two pipeline stages.
// The user message templates are fixed; the system instructions can be
// overridden by files in the config directory.
type PromptSet struct {
	analyzerSystem  string // template source (empty = use default)
	generatorSystem string
}

// LoadPrompts builds the prompt set, picking up config-dir overrides when
// present.
func LoadPrompts() *PromptSet {
	return &PromptSet{
		analyzerSystem:  loadCustomPrompt(tabforge.AnalyzerPromptPath()),
		generatorSystem: loadCustomPrompt(tabforge.GeneratorPromptPath()),
	}
}

// loadCustomPrompt loads a custom prompt template.
// Returns empty string if no custom prompt exists.
func loadCustomPrompt(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	slog.Info("loaded custom prompt", "path", path)
	return string(data)
}

// AnalyzerSystem renders the analyzer system instruction.
func (p *PromptSet) AnalyzerSystem() string {
	return renderSystem(p.analyzerSystem, defaults.AnalyzerPrompt)
}

// GeneratorSystem renders the generator system instruction.
func (p *PromptSet) GeneratorSystem() string {
	return renderSystem(p.generatorSystem, defaults.GeneratorPrompt)
}

// AnalyzerUser renders the user message for the analysis call.
func (p *PromptSet) AnalyzerUser(sample string) string {
	var buf strings.Builder
	analyzerUserTmpl.Execute(&buf, PromptData{Sample: sample})
	return buf.String()
}

// GeneratorUser renders the user message for one synthesis call.
func (p *PromptSet) GeneratorUser(analysis, sample string, count int) string {
	var buf strings.Builder
	generatorUserTmpl.Execute(&buf, PromptData{Analysis: analysis, Sample: sample, Count: count})
	return buf.String()
}

// renderSystem renders a system instruction from the custom source, falling
// back to the built-in default when the custom one is absent or broken.
func renderSystem(custom, builtin string) string {
	tmplSrc := custom
	if tmplSrc == "" {
		tmplSrc = builtin
	}

	t, err := template.New("prompt").Parse(tmplSrc)
	if err != nil {
		slog.Warn("failed to parse prompt template, falling back to default", "error", err)
		t, _ = template.New("prompt").Parse(builtin)
	}

	var buf strings.Builder
	if err := t.Execute(&buf, PromptData{}); err != nil {
		slog.Warn("failed to execute prompt template, falling back to default", "error", err)
		t, _ = template.New("prompt").Parse(builtin)
		buf.Reset()
		t.Execute(&buf, PromptData{})
	}

	return strings.TrimRight(buf.String(), " \t\n")
}
