package cluster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/interactomics/clusterquery/internal/mitab"
)

// Supported return types for the query operation.
const (
	ResultTypeMITAB = "psi-mi/tab25"
	ResultTypeXML   = "psi-mi/xml25"
	ResultTypeCount = "count"
)

var supportedReturnTypes = []string{ResultTypeMITAB, ResultTypeXML, ResultTypeCount}

// lineSeparator terminates tabular result lines. Wire output is always "\n",
// independent of the platform the server runs on.
const lineSeparator = "\n"

// SupportedReturnTypes returns the supported return types in their canonical
// order. The list is static.
func SupportedReturnTypes() []string {
	return append([]string(nil), supportedReturnTypes...)
}

// ResultInfo is the pagination envelope attached to every query response.
// TotalResults reflects the full match count regardless of the page window.
type ResultInfo struct {
	FirstResult  int    `json:"firstResult"`
	BlockSize    int    `json:"blockSize"`
	TotalResults int    `json:"totalResults"`
	ResultType   string `json:"resultType"`
}

// QueryResponse pairs the envelope with the formatted result body.
type QueryResponse struct {
	ResultInfo ResultInfo `json:"resultInfo"`
	ResultSet  string     `json:"resultSet"`
}

// formatInput carries everything a formatter needs to render one page.
// maxResult is the page size as requested by the caller, before capping;
// the warning annotation depends on it.
type formatInput struct {
	records    []mitab.Record
	totalCount int
	query      string
	maxResult  int
	hardCap    int
}

type formatFunc func(formatInput) (string, error)

// One handler per return type. formatterFor fails for anything not listed
// here, so adding a type means adding a handler.
var formatters = map[string]formatFunc{
	ResultTypeMITAB: formatMITAB,
	ResultTypeXML:   formatXML,
	ResultTypeCount: formatCount,
}

func formatterFor(resultType string) (formatFunc, error) {
	f, ok := formatters[resultType]
	if !ok {
		return nil, &UnsupportedResultTypeError{
			Requested: resultType,
			Supported: SupportedReturnTypes(),
		}
	}
	return f, nil
}

// formatMITAB renders one tab-delimited line per record. The tabular format
// carries no envelope, so no annotations are embedded.
func formatMITAB(in formatInput) (string, error) {
	lines := make([]string, 0, len(in.records))
	for _, r := range in.records {
		lines = append(lines, r.Line())
	}
	return strings.Join(lines, lineSeparator), nil
}

// formatXML converts the page into an entry-set document. A non-empty page
// gets an annotation block on the first entry: the free-text query, the
// total match count, and a cap warning when the caller asked for more than
// the hard cap while more matches than the cap exist.
func formatXML(in formatInput) (string, error) {
	es, err := mitab.ToEntrySet(in.records)
	if err != nil {
		return "", &ConversionError{Err: err}
	}

	if len(es.Entries) > 0 {
		attrs := []mitab.Attribute{
			{Name: "query", Value: in.query},
			{Name: "totalResults", Value: strconv.Itoa(in.totalCount)},
		}
		if in.maxResult > in.hardCap && in.hardCap < in.totalCount {
			attrs = append(attrs, mitab.Attribute{
				Name: "warning",
				Value: fmt.Sprintf("results capped at %d records out of %d total matches",
					in.hardCap, in.totalCount),
			})
		}
		es.Entries[0].AttributeList = &mitab.AttributeList{Attributes: attrs}
	}

	out, err := es.Marshal()
	if err != nil {
		return "", &ConversionError{Err: err}
	}
	return out, nil
}

// formatCount returns an empty body: the envelope's TotalResults already
// carries the answer.
func formatCount(formatInput) (string, error) {
	return "", nil
}
