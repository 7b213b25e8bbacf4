package miql

import "testing"

func TestBuildInteractionQuery(t *testing.T) {
	b := QueryBuilder{}

	tests := []struct {
		name     string
		params   InteractionParams
		expected string
	}{
		{
			name:     "single identifier",
			params:   InteractionParams{Identifiers: []string{"P12345"}},
			expected: "identifier:P12345",
		},
		{
			name:     "multiple identifiers are OR'ed",
			params:   InteractionParams{Identifiers: []string{"P12345", "Q67890"}},
			expected: "(identifier:P12345 OR identifier:Q67890)",
		},
		{
			name: "identifier with species filter",
			params: InteractionParams{
				Identifiers: []string{"P12345"},
				Species:     "9606",
			},
			expected: "identifier:P12345 AND species:9606",
		},
		{
			name: "MI ontology term is quoted",
			params: InteractionParams{
				Identifiers:     []string{"P12345"},
				DetectionMethod: "MI:0018",
			},
			expected: `identifier:P12345 AND detmethod:"MI:0018"`,
		},
		{
			name: "value with whitespace is quoted",
			params: InteractionParams{
				Identifiers:     []string{"P12345"},
				InteractionType: "physical association",
			},
			expected: `identifier:P12345 AND type:"physical association"`,
		},
		{
			name:     "empty params match everything",
			params:   InteractionParams{},
			expected: "*",
		},
		{
			name: "all filters combined",
			params: InteractionParams{
				Identifiers:     []string{"P12345", "Q67890"},
				Species:         "9606",
				DetectionMethod: "MI:0018",
				InteractionType: "MI:0915",
			},
			expected: `(identifier:P12345 OR identifier:Q67890) AND species:9606 AND detmethod:"MI:0018" AND type:"MI:0915"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.BuildInteractionQuery(tt.params)
			if got != tt.expected {
				t.Errorf("\nexpected: %s\ngot:      %s", tt.expected, got)
			}
		})
	}
}
