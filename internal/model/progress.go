package model

import (
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
)

// StepNumber identifies a pipeline step in a progress event. It serializes
// as a JSON number for steps 1-5 and as the string "error" when a company's
// pipeline fails, matching the notification wire contract. Decoding accepts
// any string marker.
type StepNumber struct {
	n      int
	marker string
}

// Step returns the StepNumber for a numbered pipeline step.
func Step(n int) StepNumber {
	return StepNumber{n: n}
}

// StepError marks the step at which a company's pipeline failed.
func StepError() StepNumber {
	return StepNumber{marker: "error"}
}

// Int returns the numeric step, or 0 for terminal markers.
func (s StepNumber) Int() int {
	return s.n
}

// IsError reports whether this is the "error" terminal marker.
func (s StepNumber) IsError() bool {
	return s.marker == "error"
}

func (s StepNumber) String() string {
	if s.marker != "" {
		return s.marker
	}
	return strconv.Itoa(s.n)
}

// MarshalJSON implements json.Marshaler.
func (s StepNumber) MarshalJSON() ([]byte, error) {
	if s.marker != "" {
		return json.Marshal(s.marker)
	}
	return json.Marshal(s.n)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *StepNumber) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*s = StepNumber{n: n}
		return nil
	}
	var marker string
	if err := json.Unmarshal(data, &marker); err != nil {
		return eris.Wrap(err, "model: step number must be a number or string")
	}
	*s = StepNumber{marker: marker}
	return nil
}

// ProgressEvent is a transient step-level notification for one company.
type ProgressEvent struct {
	Company    string     `json:"company"`
	Step       string     `json:"step"`
	StepNumber StepNumber `json:"stepNumber"`
}

// BatchSummary describes the outcome of a completed batch.
type BatchSummary struct {
	TotalCompanies int             `json:"totalCompanies"`
	SuccessCount   int             `json:"successCount"`
	ErrorCount     int             `json:"errorCount"`
	Results        []CompanyRecord `json:"results,omitempty"`
}

// Summarize tallies a result set into a BatchSummary.
func Summarize(results []CompanyRecord) BatchSummary {
	s := BatchSummary{
		TotalCompanies: len(results),
		Results:        results,
	}
	for _, r := range results {
		if r.Failed() {
			s.ErrorCount++
		} else {
			s.SuccessCount++
		}
	}
	return s
}
