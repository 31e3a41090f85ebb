// Package utils provides concurrency helpers shared across the extraction
// pipeline: a bounded worker pool, batching, and panic recovery that
// converts goroutine panics into errors.
package utils
