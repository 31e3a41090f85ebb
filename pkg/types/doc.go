// Package types defines the shared data model for the annotato extraction
// pipeline: extractions, character intervals, few-shot examples, annotated
// documents, and the gateway message/response wire types.
package types
