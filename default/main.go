// Package defaults provides embedded default assets (system prompts and config).
package defaults

import _ "embed"

//go:embed analyzer_prompt.md
var AnalyzerPrompt string

//go:embed generator_prompt.md
var GeneratorPrompt string

//go:embed default_config.toml
var DefaultConfigTOML []byte
