package models

import "fmt"

// Outcome classifies one field comparison
type Outcome int

const (
	OutcomeMatch Outcome = iota
	OutcomeMismatch
	OutcomeNotFound
	OutcomeDecodeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatch:
		return "match"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeDecodeError:
		return "decode_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ComparisonResult is the outcome of reconciling one field within one context.
// Results are consumed by reporting as they are produced and not retained.
type ComparisonResult struct {
	Context  string // location name, or "profile"
	Field    string
	Expected string // decoded API value
	Observed string // value read from the UI
	Outcome  Outcome
	Err      error // underlying cause for NotFound / DecodeError
}

// RunSummary accumulates outcome counts across the whole run
type RunSummary struct {
	RunID        string
	Contexts     int // contexts fully processed
	Abandoned    int // contexts abandoned on transport or interaction failure
	Match        int
	Mismatch     int
	NotFound     int
	DecodeErrors int
}

// Record tallies one comparison result
func (s *RunSummary) Record(r ComparisonResult) {
	switch r.Outcome {
	case OutcomeMatch:
		s.Match++
	case OutcomeMismatch:
		s.Mismatch++
	case OutcomeNotFound:
		s.NotFound++
	case OutcomeDecodeError:
		s.DecodeErrors++
	}
}

// Total returns the number of recorded comparisons
func (s *RunSummary) Total() int {
	return s.Match + s.Mismatch + s.NotFound + s.DecodeErrors
}

// Clean reports whether the run saw no mismatches or errors
func (s *RunSummary) Clean() bool {
	return s.Mismatch == 0 && s.NotFound == 0 && s.DecodeErrors == 0 && s.Abandoned == 0
}
