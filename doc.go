// Package annotato provides schema-guided structured extraction from
// unstructured text using large language models.
//
// Given a task description and a handful of worked examples, annotato
// compiles an extraction schema, prompts a model once per document, parses
// the (possibly malformed) JSON output, aligns every extraction back to a
// character interval in the source text, resolves overlap conflicts, and
// returns an annotated document whose spans are verifiable against the
// original text.
//
// # Basic Usage
//
// Create an Extractor with a model client, a task, and examples:
//
//	client, err := nlp.NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), nlp.Config{
//		Model: "gpt-4o-mini",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	examples := []types.ExampleData{{
//		Text: "Lady Juliet gazed longingly at the stars",
//		Extractions: []types.Extraction{{
//			ExtractionClass: "character",
//			ExtractionText:  "Lady Juliet",
//			Attributes:      types.AttributeSet{"emotional_state": "yearning"},
//		}},
//	}}
//
//	extractor, err := annotato.New(client,
//		"Extract characters and emotions in order of appearance.", examples)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer extractor.Close()
//
//	result, err := extractor.Extract(ctx, sourceText)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, e := range result.Document.Extractions {
//		fmt.Println(e.ExtractionClass, e.ExtractionText, e.AlignmentStatus)
//	}
//
// # Span Grounding
//
// Every extraction the model returns is searched for in the source text,
// exact match first, then fuzzy. Aligned extractions carry a half-open byte
// interval into the exact text they were extracted from, so downstream
// consumers can verify each claim by slicing the source. Extractions that
// cannot be located are kept with alignment status "unaligned" rather than
// silently dropped.
//
// # Error Handling
//
// The pipeline surfaces typed errors for each failure mode:
//
//   - schema.SchemaError: invalid task or examples, detected before any model call
//   - nlp.TransientError / nlp.FatalError: gateway failures, classified for retry
//   - parser.MalformedResponseError: model output with no recoverable JSON
//
// Alignment overlap conflicts are not errors; they are reported in
// Result.Conflicts.
//
// # Architecture
//
// The library follows a modular architecture:
//
//   - pkg/schema: schema compilation from task and examples
//   - pkg/prompts: deterministic prompt construction
//   - pkg/nlp: model gateway clients, retry and circuit breaking
//   - pkg/parser: lenient JSON extraction and repair
//   - pkg/align: span alignment against the source text
//   - pkg/resolver: ordering, overlap conflicts, sequence indices
//   - pkg/document: annotated document assembly
//   - pkg/jsonl: JSON Lines persistence
//
// This design allows easy extension with additional model gateways and
// output formats.
package annotato
