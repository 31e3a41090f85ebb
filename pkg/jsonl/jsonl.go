// Package jsonl persists annotated documents as JSON Lines: one JSON object
// per line per document. The format round-trips losslessly — reading back a
// saved stream reconstructs equivalent documents, and every char interval
// indexes into the exact text string stored alongside it.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/soundprediction/annotato/pkg/types"
)

// maxLineBytes bounds a single serialized document line (64 MiB).
const maxLineBytes = 64 << 20

// Save writes documents to w, one JSON object per line.
func Save(w io.Writer, docs []*types.AnnotatedDocument) error {
	enc := json.NewEncoder(w)
	for i, doc := range docs {
		if doc == nil {
			return fmt.Errorf("document %d is nil", i)
		}
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode document %s: %w", doc.DocumentID, err)
		}
	}
	return nil
}

// Load reads documents from r, skipping blank lines.
func Load(r io.Reader) ([]*types.AnnotatedDocument, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var docs []*types.AnnotatedDocument
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var doc types.AnnotatedDocument
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		docs = append(docs, &doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return docs, nil
}

// SaveFile writes documents to path, creating or truncating it.
func SaveFile(path string, docs []*types.AnnotatedDocument) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Save(f, docs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads documents from path.
func LoadFile(path string) ([]*types.AnnotatedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
