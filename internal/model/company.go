// Package model defines the core data types for company lookups.
package model

import "strings"

// MaxBatchSize is the largest number of companies accepted in one batch.
const MaxBatchSize = 500

// CompanyFields holds the six business fields extracted for a company.
// Unknown values are empty strings, never null in serialized form.
type CompanyFields struct {
	PostalCode          string `json:"postalCode"`
	Prefecture          string `json:"prefecture"`
	City                string `json:"city"`
	Address             string `json:"address"`
	RepresentativeTitle string `json:"representativeTitle"`
	RepresentativeName  string `json:"representativeName"`
}

// AllEmpty reports whether every field is blank.
func (f CompanyFields) AllEmpty() bool {
	return f.PostalCode == "" &&
		f.Prefecture == "" &&
		f.City == "" &&
		f.Address == "" &&
		f.RepresentativeTitle == "" &&
		f.RepresentativeName == ""
}

// CompanyRecord is the terminal outcome of one company's pipeline run.
// A record is either Resolved (fields populated best-effort, ErrorOccurred
// false) or Failed (ErrorOccurred true, Error non-empty, fields blank).
type CompanyRecord struct {
	CompanyName string `json:"companyName"`
	CompanyFields

	// ErrorOccurred and Error are set only on Failed records.
	ErrorOccurred bool   `json:"errorOccurred,omitempty"`
	Error         string `json:"error,omitempty"`

	// LowConfidence marks a record assembled from degraded-fallback search
	// results rather than real ones.
	LowConfidence bool `json:"lowConfidence,omitempty"`
}

// ResolvedRecord builds a Resolved record for a company.
func ResolvedRecord(companyName string, fields CompanyFields, lowConfidence bool) CompanyRecord {
	return CompanyRecord{
		CompanyName:   companyName,
		CompanyFields: fields,
		LowConfidence: lowConfidence,
	}
}

// FailedRecord builds a Failed record carrying a human-readable cause.
func FailedRecord(companyName string, cause error) CompanyRecord {
	msg := "unknown error occurred"
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	return CompanyRecord{
		CompanyName:   companyName,
		ErrorOccurred: true,
		Error:         msg,
	}
}

// Failed reports whether the record is in the Failed terminal state.
func (r CompanyRecord) Failed() bool {
	return r.ErrorOccurred
}

// SearchResult is one normalized web-search hit.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// NormalizeCompanyNames trims each name, drops empties, and removes
// case-sensitive duplicates while preserving first-occurrence order.
func NormalizeCompanyNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
