package annotato

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/soundprediction/annotato/pkg/align"
	"github.com/soundprediction/annotato/pkg/document"
	"github.com/soundprediction/annotato/pkg/nlp"
	"github.com/soundprediction/annotato/pkg/parser"
	"github.com/soundprediction/annotato/pkg/prompts"
	"github.com/soundprediction/annotato/pkg/resolver"
	"github.com/soundprediction/annotato/pkg/schema"
	"github.com/soundprediction/annotato/pkg/types"
	"github.com/soundprediction/annotato/pkg/utils"
)

// Result is the outcome of extracting from one source text: the annotated
// document, the overlap conflicts dropped during resolution, the raw model
// output, and token usage when the backend reports it.
type Result struct {
	Document  *types.AnnotatedDocument
	Conflicts []resolver.Conflict
	Raw       string
	Usage     *types.TokenUsage
}

// Extractor runs the extraction pipeline for a fixed task and example set:
// prompt rendering, one model call per document, response parsing, span
// alignment, conflict resolution, and document assembly. The schema is
// compiled once at construction, so schema problems surface before any
// model call is made. An Extractor is safe for concurrent use.
type Extractor struct {
	client       nlp.Client
	schema       *schema.Schema
	instructions string
	parser       *parser.Parser
	aligner      *align.Aligner
	logger       *slog.Logger
	concurrency  int
}

// Option configures an Extractor.
type Option func(*extractorOptions)

type extractorOptions struct {
	logger       *slog.Logger
	alignerCfg   align.Config
	concurrency  int
	skipValidate bool
}

// WithLogger sets the logger used by the pipeline. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *extractorOptions) {
		o.logger = logger
	}
}

// WithAlignerConfig overrides the fuzzy alignment threshold and window
// tolerance.
func WithAlignerConfig(cfg align.Config) Option {
	return func(o *extractorOptions) {
		o.alignerCfg = cfg
	}
}

// WithConcurrency sets the number of documents processed in parallel by
// ExtractAll. Defaults to the CPU count.
func WithConcurrency(n int) Option {
	return func(o *extractorOptions) {
		o.concurrency = n
	}
}

// WithoutResponseValidation disables JSON Schema validation of model
// output. Parsing and per-record checks still apply.
func WithoutResponseValidation() Option {
	return func(o *extractorOptions) {
		o.skipValidate = true
	}
}

// New creates an Extractor for the given task and examples. It returns
// schema.SchemaError if the task is empty, examples are missing, or an
// example's extraction text is not a substring of its example text.
func New(client nlp.Client, task string, examples []types.ExampleData, opts ...Option) (*Extractor, error) {
	if client == nil {
		return nil, fmt.Errorf("nlp client is required")
	}

	o := &extractorOptions{
		logger:     slog.Default(),
		alignerCfg: align.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}

	s, err := schema.Compile(task, examples)
	if err != nil {
		return nil, err
	}

	// The prompt depends only on the schema and examples, so it is rendered
	// once here; Extract only appends the source text.
	instructions, err := prompts.Render(s, examples)
	if err != nil {
		return nil, err
	}

	var responseSchema []byte
	if !o.skipValidate {
		responseSchema = s.ResponseJSONSchema()
	}
	p, err := parser.New(responseSchema)
	if err != nil {
		return nil, err
	}

	return &Extractor{
		client:       client,
		schema:       s,
		instructions: instructions,
		parser:       p,
		aligner:      align.New(o.alignerCfg),
		logger:       o.logger,
		concurrency:  o.concurrency,
	}, nil
}

// Schema returns the compiled extraction schema.
func (e *Extractor) Schema() *schema.Schema {
	return e.schema
}

// Extract runs the full pipeline on one source text.
func (e *Extractor) Extract(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("source text cannot be empty")
	}

	messages := []types.Message{
		nlp.NewSystemMessage(e.instructions),
		nlp.NewUserMessage(text),
	}

	e.logger.Debug("Sending extraction request",
		"classes", e.schema.Classes,
		"text_bytes", len(text))

	resp, err := e.client.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}

	candidates, err := e.parser.Parse(resp.Content)
	if err != nil {
		return nil, err
	}

	extractions := e.aligner.Align(text, candidates)
	resolution := resolver.Resolve(extractions)
	doc := document.Assemble(text, resolution)

	e.logger.Info("Extraction complete",
		"document_id", doc.DocumentID,
		"extractions", doc.ExtractionCount(),
		"conflicts", resolution.ConflictCount())

	return &Result{
		Document:  doc,
		Conflicts: resolution.Conflicts,
		Raw:       resp.Content,
		Usage:     resp.TokensUsed,
	}, nil
}

// ExtractAll processes texts concurrently, one model call per text.
// Results and errors are positional: results[i] and errs[i] belong to
// texts[i]. A failure on one text does not stop the others.
func (e *Extractor) ExtractAll(ctx context.Context, texts []string) ([]*Result, []error) {
	pool := utils.NewWorkerPool(e.concurrency, func(ctx context.Context, text string) (*Result, error) {
		return e.Extract(ctx, text)
	})
	return pool.ProcessItems(ctx, texts)
}

// Close releases the underlying model client.
func (e *Extractor) Close() error {
	return e.client.Close()
}
