// Package analysis merges interaction records pulled from multiple upstream
// services into one deduplicated, ranked set for indexing.
package analysis

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/interactomics/clusterquery/internal/mitab"
)

// Merge clusters records by interaction fingerprint and collapses each group
// into a single record, unioning the evidence columns (detection methods,
// publications, source databases, interaction IDs, confidences).
// Returns records sorted by interactor pair for stable index layout.
// Returns an empty slice for empty input (never nil).
func Merge(records []mitab.Record) []mitab.Record {
	if len(records) == 0 {
		return []mitab.Record{}
	}

	groups := make(map[string]*mitab.Record)
	order := make([]string, 0, len(records))

	for _, r := range records {
		fp := Fingerprint(r)
		merged, exists := groups[fp]
		if !exists {
			cp := r
			groups[fp] = &cp
			order = append(order, fp)
			continue
		}

		// A B-A record carries its columns flipped relative to the group
		// representative; realign before unioning the side-specific ones.
		if normalizeID(r.InteractorA) != normalizeID(merged.InteractorA) {
			r = flip(r)
		}

		merged.AltIDsA = unionValues(merged.AltIDsA, r.AltIDsA)
		merged.AltIDsB = unionValues(merged.AltIDsB, r.AltIDsB)
		merged.AliasesA = unionValues(merged.AliasesA, r.AliasesA)
		merged.AliasesB = unionValues(merged.AliasesB, r.AliasesB)
		merged.DetectionMethods = unionValues(merged.DetectionMethods, r.DetectionMethods)
		merged.Publications = unionValues(merged.Publications, r.Publications)
		merged.InteractionTypes = unionValues(merged.InteractionTypes, r.InteractionTypes)
		merged.SourceDatabases = unionValues(merged.SourceDatabases, r.SourceDatabases)
		merged.InteractionIDs = unionValues(merged.InteractionIDs, r.InteractionIDs)
		merged.Confidences = unionValues(merged.Confidences, r.Confidences)
		if merged.FirstAuthor == "" {
			merged.FirstAuthor = r.FirstAuthor
		}
	}

	out := make([]mitab.Record, 0, len(groups))
	for _, fp := range order {
		out = append(out, *groups[fp])
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].InteractorA != out[j].InteractorA {
			return out[i].InteractorA < out[j].InteractorA
		}
		return out[i].InteractorB < out[j].InteractorB
	})

	return out
}

// Fingerprint computes a stable SHA-256 fingerprint for an interaction.
// The interactor pair is normalized (lowercased, sorted) so A-B and B-A
// evidence for the same pair collapses into one cluster.
func Fingerprint(r mitab.Record) string {
	a := normalizeID(r.InteractorA)
	b := normalizeID(r.InteractorB)
	if a > b {
		a, b = b, a
	}
	hash := sha256.Sum256([]byte(a + "\x1f" + b))
	return fmt.Sprintf("%x", hash)
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// flip swaps the A and B sides of a record.
func flip(r mitab.Record) mitab.Record {
	r.InteractorA, r.InteractorB = r.InteractorB, r.InteractorA
	r.AltIDsA, r.AltIDsB = r.AltIDsB, r.AltIDsA
	r.AliasesA, r.AliasesB = r.AliasesB, r.AliasesA
	r.TaxidA, r.TaxidB = r.TaxidB, r.TaxidA
	return r
}

// unionValues appends the values of b not already present in a, preserving
// first-seen order.
func unionValues(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := seen[v]; !ok {
			a = append(a, v)
			seen[v] = struct{}{}
		}
	}
	return a
}
