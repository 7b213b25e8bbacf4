// Package index implements the per-job search index: a self-contained
// directory holding the clustered records plus metadata, opened read-only by
// the query path. Each query call opens its own handle; there is no shared
// search-session state.
package index

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/interactomics/clusterquery/internal/mitab"
)

const (
	recordsFile = "records.mitab"
	metaFile    = "meta.json"
)

var ErrNotFound = errors.New("index not found")

// Meta describes an index directory.
type Meta struct {
	TotalRecords int       `json:"total_records"`
	CreatedAt    time.Time `json:"created_at"`
}

// Index is a read-only handle on one job's index directory.
type Index struct {
	location string
	records  []mitab.Record
	lines    []string // lowercased, for matching
}

// Build writes a new index directory at location from the given records.
// The directory is created atomically: records and metadata land in a temp
// directory that is renamed into place, so a crashed build never leaves a
// half-written index behind.
func Build(location string, records []mitab.Record) error {
	parent := filepath.Dir(location)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create index parent dir: %w", err)
	}

	tmp, err := os.MkdirTemp(parent, ".build-*")
	if err != nil {
		return fmt.Errorf("create index temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	f, err := os.Create(filepath.Join(tmp, recordsFile))
	if err != nil {
		return fmt.Errorf("create records file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, r := range records {
		if _, err := w.WriteString(r.Line() + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("write record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush records file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close records file: %w", err)
	}

	meta, err := json.Marshal(Meta{TotalRecords: len(records), CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal index meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, metaFile), meta, 0o644); err != nil {
		return fmt.Errorf("write index meta: %w", err)
	}

	os.RemoveAll(location)
	if err := os.Rename(tmp, location); err != nil {
		return fmt.Errorf("publish index dir: %w", err)
	}
	return nil
}

// Open attaches to an existing index directory. A missing or unreadable
// directory is ErrNotFound-wrapped so callers can tell infrastructure
// failures apart from bad requests.
func Open(location string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(location, recordsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return nil, fmt.Errorf("open index at %s: %w", location, err)
	}

	ix := &Index{location: location}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		r, err := mitab.ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("corrupt index at %s: %w", location, err)
		}
		ix.records = append(ix.records, r)
		ix.lines = append(ix.lines, strings.ToLower(line))
	}
	return ix, nil
}

// Search returns at most blockSize matching records starting at offset from,
// plus the total match count independent of the pagination window. The query
// is tokenized and lowercased; every token must appear in a record for it to
// match. "*" and the empty query match everything.
func (ix *Index) Search(query string, from, blockSize int) ([]mitab.Record, int, error) {
	if from < 0 {
		return nil, 0, fmt.Errorf("negative offset: %d", from)
	}
	if blockSize < 0 {
		return nil, 0, fmt.Errorf("negative block size: %d", blockSize)
	}

	tokens := tokenize(query)

	var matched []int
	for i, line := range ix.lines {
		if matches(line, tokens) {
			matched = append(matched, i)
		}
	}

	total := len(matched)
	if from >= total || blockSize == 0 {
		return []mitab.Record{}, total, nil
	}

	end := from + blockSize
	if end > total {
		end = total
	}
	page := make([]mitab.Record, 0, end-from)
	for _, idx := range matched[from:end] {
		page = append(page, ix.records[idx])
	}
	return page, total, nil
}

// Count returns the number of records in the index.
func (ix *Index) Count() int {
	return len(ix.records)
}

// Location returns the directory this handle was opened from.
func (ix *Index) Location() string {
	return ix.location
}

// tokenize splits a free-text query into lowercase match tokens. Field
// prefixes ("identifier:P12345") and quoting are stripped; boolean
// connectives are dropped, leaving conjunctive matching over the values.
func tokenize(query string) []string {
	query = strings.TrimSpace(query)
	if query == "" || query == "*" {
		return nil
	}

	var tokens []string
	for _, raw := range strings.Fields(query) {
		switch strings.ToUpper(raw) {
		case "AND", "OR", "NOT":
			continue
		}
		tok := strings.ToLower(raw)
		tok = strings.Trim(tok, "()\"")
		if name, value, ok := strings.Cut(tok, ":"); ok && isFieldName(name) {
			tok = strings.Trim(value, "\"")
		}
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func matches(line string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(line, tok) {
			return false
		}
	}
	return true
}

var fieldNames = map[string]bool{
	"identifier":     true,
	"alias":          true,
	"species":        true,
	"taxid":          true,
	"detmethod":      true,
	"type":           true,
	"pubid":          true,
	"interaction_id": true,
}

func isFieldName(name string) bool {
	return fieldNames[name]
}
