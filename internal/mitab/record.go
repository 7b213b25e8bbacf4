// Package mitab models binary interaction records in the delimited tabular
// interchange format and converts them to the hierarchical XML document form.
package mitab

import (
	"fmt"
	"strings"
)

// Number of columns in a tabular record line.
const columnCount = 15

const emptyColumn = "-"

// Record is one binary molecular interaction, column-aligned with the
// tabular interchange format. Multi-valued columns hold one string per value.
type Record struct {
	InteractorA      string
	InteractorB      string
	AltIDsA          []string
	AltIDsB          []string
	AliasesA         []string
	AliasesB         []string
	DetectionMethods []string
	FirstAuthor      string
	Publications     []string
	TaxidA           string
	TaxidB           string
	InteractionTypes []string
	SourceDatabases  []string
	InteractionIDs   []string
	Confidences      []string
}

// Line renders the record as one tab-delimited line. Pure, no I/O.
// Empty columns are rendered as "-"; multi-valued columns are joined with "|".
func (r Record) Line() string {
	cols := []string{
		orEmpty(r.InteractorA),
		orEmpty(r.InteractorB),
		joinValues(r.AltIDsA),
		joinValues(r.AltIDsB),
		joinValues(r.AliasesA),
		joinValues(r.AliasesB),
		joinValues(r.DetectionMethods),
		orEmpty(r.FirstAuthor),
		joinValues(r.Publications),
		orEmpty(r.TaxidA),
		orEmpty(r.TaxidB),
		joinValues(r.InteractionTypes),
		joinValues(r.SourceDatabases),
		joinValues(r.InteractionIDs),
		joinValues(r.Confidences),
	}
	return strings.Join(cols, "\t")
}

// ParseLine parses one tab-delimited line into a Record. Lines with fewer
// columns than the format defines are padded; extra columns are ignored so
// newer upstream formats still parse.
func ParseLine(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Record{}, fmt.Errorf("empty line")
	}

	cols := strings.Split(line, "\t")
	for len(cols) < columnCount {
		cols = append(cols, emptyColumn)
	}

	r := Record{
		InteractorA:      parseValue(cols[0]),
		InteractorB:      parseValue(cols[1]),
		AltIDsA:          splitValues(cols[2]),
		AltIDsB:          splitValues(cols[3]),
		AliasesA:         splitValues(cols[4]),
		AliasesB:         splitValues(cols[5]),
		DetectionMethods: splitValues(cols[6]),
		FirstAuthor:      parseValue(cols[7]),
		Publications:     splitValues(cols[8]),
		TaxidA:           parseValue(cols[9]),
		TaxidB:           parseValue(cols[10]),
		InteractionTypes: splitValues(cols[11]),
		SourceDatabases:  splitValues(cols[12]),
		InteractionIDs:   splitValues(cols[13]),
		Confidences:      splitValues(cols[14]),
	}

	if r.InteractorA == "" && r.InteractorB == "" {
		return Record{}, fmt.Errorf("record has no interactors: %q", line)
	}
	return r, nil
}

// ParseLines parses a block of tabular text, skipping blank lines and a
// leading header line (identified by its "#" prefix).
func ParseLines(text string) ([]Record, error) {
	var records []Record
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func orEmpty(v string) string {
	if v == "" {
		return emptyColumn
	}
	return v
}

func parseValue(col string) string {
	col = strings.TrimSpace(col)
	if col == emptyColumn {
		return ""
	}
	return col
}

func joinValues(values []string) string {
	if len(values) == 0 {
		return emptyColumn
	}
	return strings.Join(values, "|")
}

func splitValues(col string) []string {
	col = strings.TrimSpace(col)
	if col == "" || col == emptyColumn {
		return nil
	}
	return strings.Split(col, "|")
}
