// Package corpus loads the document collection, the query set, and the
// stopword list from their on-disk sources. Documents and queries are
// line-delimited JSON in the BEIR layout; stopwords are one word per line.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/skarande/trecrank/internal/index"
	"github.com/skarande/trecrank/internal/ranker"
	apperrors "github.com/skarande/trecrank/pkg/errors"
)

// Document is one corpus record prior to normalisation.
type Document struct {
	ID    index.DocID
	Title string
	Body  string
}

// Query is one query record prior to normalisation.
type Query struct {
	ID   ranker.QueryID
	Text string
}

// scanBufSize bounds a single JSONL record; corpus abstracts can exceed the
// bufio default of 64 KiB.
const scanBufSize = 10 * 1024 * 1024

type documentRecord struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

type queryRecord struct {
	ID   string `json:"_id"`
	Text string `json:"text"`
}

// LoadDocuments reads a JSONL corpus file into memory. Malformed records are
// hard failures; the retrieval core assumes well-formed input.
func LoadDocuments(path string) ([]Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCorpusUnreadable, err)
	}
	defer file.Close()

	var documents []Document
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), scanBufSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec documentRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%w: parsing %s line %d: %v", apperrors.ErrCorpusUnreadable, path, lineNo, err)
		}
		id, err := strconv.ParseUint(rec.ID, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: document id %q at %s line %d is not numeric", apperrors.ErrCorpusUnreadable, rec.ID, path, lineNo)
		}
		documents = append(documents, Document{
			ID:    index.DocID(id),
			Title: rec.Title,
			Body:  rec.Text,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrCorpusUnreadable, path, err)
	}
	return documents, nil
}

// LoadQueries reads a JSONL query file into memory.
func LoadQueries(path string) ([]Query, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrQueryUnreadable, err)
	}
	defer file.Close()

	var queries []Query
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec queryRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%w: parsing %s line %d: %v", apperrors.ErrQueryUnreadable, path, lineNo, err)
		}
		id, err := strconv.ParseUint(rec.ID, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: query id %q at %s line %d is not numeric", apperrors.ErrQueryUnreadable, rec.ID, path, lineNo)
		}
		queries = append(queries, Query{
			ID:   ranker.QueryID(id),
			Text: rec.Text,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrQueryUnreadable, path, err)
	}
	return queries, nil
}

// LoadStopwords reads a stopword file, one word per line. Blank lines are
// ignored.
func LoadStopwords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stopword file: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stopword file: %w", err)
	}
	return words, nil
}
