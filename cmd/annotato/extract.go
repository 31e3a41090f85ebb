package annotato

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	annotato "github.com/soundprediction/annotato"
	"github.com/soundprediction/annotato/pkg/align"
	"github.com/soundprediction/annotato/pkg/config"
	"github.com/soundprediction/annotato/pkg/jsonl"
	"github.com/soundprediction/annotato/pkg/logger"
	"github.com/soundprediction/annotato/pkg/nlp"
	"github.com/soundprediction/annotato/pkg/types"
)

var (
	extractTask       string
	extractExamples   string
	extractInput      string
	extractOutput     string
	extractModel      string
	extractBaseURL    string
	extractConc       int
	extractNoValidate bool

	extractCmd = &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract structured annotations from text",
		Long: `Extract runs the extraction pipeline over one or more text files, or over
stdin when no file is given. Each input becomes one annotated document in the
JSON Lines output.

The task describes what to extract; the examples file is a YAML list of
demonstrations, each with a text and the extractions a correct run would
produce for it:

  - text: "Lady Juliet gazed longingly at the stars"
    extractions:
      - extraction_class: character
        extraction_text: "Lady Juliet"
        attributes:
          emotional_state: "yearning"`,
		RunE: runExtract,
	}
)

func init() {
	extractCmd.Flags().StringVarP(&extractTask, "task", "t", "", "task description (required)")
	extractCmd.Flags().StringVarP(&extractExamples, "examples", "e", "", "YAML file of worked examples (required)")
	extractCmd.Flags().StringVarP(&extractInput, "input", "i", "", "input text file (default: stdin)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output JSONL file (default: stdout)")
	extractCmd.Flags().StringVar(&extractModel, "model", "", "model name (default from config)")
	extractCmd.Flags().StringVar(&extractBaseURL, "base-url", "", "OpenAI-compatible base URL")
	extractCmd.Flags().IntVar(&extractConc, "concurrency", 0, "documents processed in parallel (default: CPU count)")
	extractCmd.Flags().BoolVar(&extractNoValidate, "no-validate", false, "skip JSON Schema validation of model output")
	extractCmd.MarkFlagRequired("task")
	extractCmd.MarkFlagRequired("examples")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if extractModel != "" {
		cfg.NLP.Model = extractModel
	}
	if extractBaseURL != "" {
		cfg.NLP.BaseURL = extractBaseURL
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	examples, err := loadExamples(extractExamples)
	if err != nil {
		return err
	}

	texts, err := readInputs(extractInput, args)
	if err != nil {
		return err
	}
	if len(texts) == 0 {
		return fmt.Errorf("no input text provided")
	}

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}

	opts := []annotato.Option{
		annotato.WithLogger(log),
		annotato.WithConcurrency(extractConc),
		annotato.WithAlignerConfig(align.Config{
			Threshold: cfg.Aligner.FuzzyThreshold,
			Tolerance: cfg.Aligner.Tolerance,
		}),
	}
	if extractNoValidate {
		opts = append(opts, annotato.WithoutResponseValidation())
	}

	extractor, err := annotato.New(client, extractTask, examples, opts...)
	if err != nil {
		return err
	}
	defer extractor.Close()

	start := time.Now()
	results, errs := extractor.ExtractAll(cmd.Context(), texts)

	var docs []*types.AnnotatedDocument
	failed := 0
	for i, result := range results {
		if errs[i] != nil {
			failed++
			log.Error("Extraction failed", "input", i, "error", errs[i])
			continue
		}
		docs = append(docs, result.Document)
		for _, conflict := range result.Conflicts {
			log.Warn("Dropped overlapping extraction",
				"kept", conflict.Kept.ExtractionText,
				"dropped", conflict.Dropped.ExtractionText)
		}
	}

	log.Info("Extraction run complete",
		"documents", len(docs),
		"failed", failed,
		"duration", time.Since(start).Round(time.Millisecond))

	if err := writeOutput(extractOutput, docs); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(texts))
	}
	return nil
}

// buildClient assembles the gateway chain: OpenAI client, optional circuit
// breaker, retry with exponential backoff.
func buildClient(cfg *config.Config) (nlp.Client, error) {
	clientCfg := nlp.Config{
		Model:   cfg.NLP.Model,
		BaseURL: cfg.NLP.BaseURL,
	}
	if cfg.NLP.Temperature > 0 {
		clientCfg.Temperature = &cfg.NLP.Temperature
	}
	if cfg.NLP.MaxTokens > 0 {
		clientCfg.MaxTokens = &cfg.NLP.MaxTokens
	}

	base, err := nlp.NewOpenAIClient(cfg.NLP.APIKey, clientCfg)
	if err != nil {
		return nil, err
	}

	var client nlp.Client = base
	if cfg.CircuitBreaker.Enabled {
		client = nlp.NewBreakerClient(client, nlp.BreakerConfig{
			MaxRequests:      cfg.CircuitBreaker.MaxRequests,
			Interval:         cfg.CircuitBreaker.Interval,
			Timeout:          cfg.CircuitBreaker.Timeout,
			ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
		}, "annotato-gateway")
	}
	client = nlp.NewRetryClient(client, nlp.RetryConfig{
		MaxAttempts:  uint(cfg.Retry.MaxAttempts),
		InitialDelay: time.Duration(cfg.Retry.InitialDelay) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.Retry.MaxDelay) * time.Millisecond,
	})
	return client, nil
}

func loadExamples(path string) ([]types.ExampleData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read examples file: %w", err)
	}
	var examples []types.ExampleData
	if err := yaml.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("failed to parse examples file: %w", err)
	}
	return examples, nil
}

// readInputs returns one source text per input: each named file is a
// document, or stdin is a single document when no files are given.
func readInputs(input string, args []string) ([]string, error) {
	paths := args
	if input != "" {
		paths = append([]string{input}, args...)
	}

	if len(paths) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		if len(data) == 0 {
			return nil, nil
		}
		return []string{string(data)}, nil
	}

	texts := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		texts = append(texts, string(data))
	}
	return texts, nil
}

func writeOutput(path string, docs []*types.AnnotatedDocument) error {
	if path == "" {
		return jsonl.Save(os.Stdout, docs)
	}
	return jsonl.SaveFile(path, docs)
}
