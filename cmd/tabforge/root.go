// Command tabforge generates synthetic tabular datasets. It reads a
// delimited sample file, has one model call describe its structure, then
// generates new rows in batches until the requested count is reached,
// appending them to the output file as they arrive.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tabforge"
	"tabforge/dataset"
	"tabforge/infer"
	"tabforge/similarity"
	"tabforge/synth"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	input       string
	rows        int
	model       string
	maxTokens   int
	temperature float64
	output      string
	dataDir     string
	strict      bool
	verbose     bool
}

var rootCmd = &cobra.Command{
	Use:   "tabforge",
	Short: "Generate synthetic tabular data from a sample file",
	Long: `Tabforge grows a dataset from a small sample. One model call analyzes
the sample's structure, then a generator produces new rows in batches
of up to 30 until the requested count is reached.

Parameters not given as flags are prompted for when run from a
terminal; otherwise config defaults apply. The API key is read from
the ANTHROPIC_API_KEY environment variable or the config file.`,
	Args: cobra.NoArgs,
	RunE: runRoot,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&rootFlags.input, "input", "i", "", "Sample file name, resolved inside the data dir")
	f.IntVar(&rootFlags.rows, "rows", 0, "Number of rows to generate")
	f.StringVar(&rootFlags.model, "model", "", "Model ID or catalog number (see 'tabforge models')")
	f.IntVar(&rootFlags.maxTokens, "max-tokens", 0, "Max tokens per generation call")
	f.Float64Var(&rootFlags.temperature, "temperature", -1, "Sampling temperature between 0 and 1")
	f.StringVarP(&rootFlags.output, "output", "o", "", "Output file name, resolved inside the data dir")
	f.StringVar(&rootFlags.dataDir, "data-dir", "", "Directory holding sample and output files")
	f.BoolVar(&rootFlags.strict, "strict", false, "Discard batches whose rows have the wrong field count")
	f.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(modelsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if rootFlags.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := tabforge.LoadConfig()
	if err != nil {
		return err
	}
	for _, warn := range tabforge.ValidateConfig(cfg) {
		slog.Warn(warn)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	p := newPrompter(os.Stdin, cmd.OutOrStdout())

	input := rootFlags.input
	if input == "" {
		if !interactive {
			return fmt.Errorf("no sample file: pass --input or run from a terminal")
		}
		input, err = p.fileName()
		if errors.Is(err, errQuit) {
			fmt.Fprintln(cmd.OutOrStdout(), "Quitting the application...")
			return nil
		}
		if err != nil {
			return err
		}
	}

	rows := rootFlags.rows
	if !cmd.Flags().Changed("rows") {
		rows = defaultRows
		if interactive {
			rows = p.desiredRows(defaultRows)
		}
	}

	model := catalogModel(rootFlags.model)
	if model == "" {
		model = tabforge.ResolveModel(cfg)
		if interactive {
			model = p.modelChoice()
		}
	}

	maxTokens := cfg.Generation.MaxTokens
	if cmd.Flags().Changed("max-tokens") && rootFlags.maxTokens > 0 {
		maxTokens = rootFlags.maxTokens
	} else if interactive {
		maxTokens = p.maxTokens(cfg.Generation.MaxTokens)
	}

	temperature := cfg.Generation.Temperature
	if cmd.Flags().Changed("temperature") && rootFlags.temperature >= 0 && rootFlags.temperature <= 1 {
		temperature = rootFlags.temperature
	} else if interactive {
		temperature = p.temperature(cfg.Generation.Temperature)
	}

	dataDir := rootFlags.dataDir
	if dataDir == "" {
		dataDir = tabforge.ResolveDataDir(cfg)
	}
	output := rootFlags.output
	if output == "" {
		output = tabforge.ResolveOutput(cfg)
	}

	apiKey := tabforge.ResolveAPIKey(cfg)
	if apiKey == "" && interactive {
		apiKey, err = readAPIKey(cmd.OutOrStdout())
		if err != nil {
			return err
		}
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or api_key in %s", tabforge.ConfigPath())
	}

	sample, err := dataset.Read(filepath.Join(dataDir, input))
	if err != nil {
		return err
	}

	client := infer.NewAnthropic(tabforge.ResolveBaseURL(cfg), apiKey, 0)
	engine := synth.NewEngine(cfg, client)
	defer engine.Close()

	if tabforge.EmbeddingEnabled(cfg) {
		if guard := primeGuard(ctx, cfg, sample, dataDir); guard != nil {
			engine.SetScreen(guard)
		}
	}

	sink := dataset.NewStore(filepath.Join(dataDir, output))
	if sink.Exists() {
		slog.Info("output file exists, appending", "path", sink.Path())
	}

	slog.Info("launching agents", "model", model, "rows", rows)
	n, err := engine.Run(ctx, sample, sink, synth.Params{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		DesiredRows: rows,
		Strict:      rootFlags.strict || cfg.StrictRows,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d rows into %s\n", n, sink.Path())
	return nil
}

// catalogModel turns a --model value into a model ID. Catalog numbers map
// to their entry; anything else is taken as a literal ID.
func catalogModel(v string) string {
	for _, m := range tabforge.Catalog {
		if m.Choice == v {
			return m.ID
		}
	}
	return v
}

// primeGuard builds the similarity guard from the sample's data rows. A
// failed prime disables screening rather than failing the run.
func primeGuard(ctx context.Context, cfg *tabforge.Config, sample dataset.Table, dataDir string) *similarity.Guard {
	if len(sample) < 2 {
		return nil
	}

	embedder := similarity.NewEmbedder(
		tabforge.ResolveEmbeddingBaseURL(cfg),
		tabforge.ResolveEmbeddingAPIKey(cfg),
		tabforge.ResolveEmbeddingModel(cfg),
	)
	guard := similarity.NewGuard(embedder, cfg.Embedding.Threshold, cfg.Embedding.Action)

	// Embedding cache in the data dir's .cache/ keeps repeat runs on the
	// same sample from re-embedding it.
	cacheDir := filepath.Join(dataDir, ".cache")
	os.MkdirAll(cacheDir, 0755)
	cachePath := filepath.Join(cacheDir, "embeddings.json")
	if err := guard.LoadCache(cachePath); err != nil {
		slog.Debug("no embedding cache loaded", "error", err)
	}

	lines := make([]string, 0, len(sample)-1)
	for _, row := range sample[1:] {
		lines = append(lines, dataset.FormatRow(row))
	}
	if err := guard.Prime(ctx, lines); err != nil {
		slog.Warn("similarity guard disabled", "error", err)
		return nil
	}
	if err := guard.SaveCache(cachePath); err != nil {
		slog.Warn("failed to save embedding cache", "error", err)
	}

	slog.Info("similarity guard primed", "rows", guard.Len())
	return guard
}

// readAPIKey prompts for the key without echoing it.
func readAPIKey(out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter your Anthropic API key: ")
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read API key: %w", err)
	}
	return strings.TrimSpace(string(key)), nil
}
