package models

// RawMatch is an unvalidated regex hit.
type RawMatch struct {
	Category  Category
	Value     string
	Offset    int
	Segment   int
	Ref       ResourceRef
	RuleID    string
	RuleIndex int
	Severity  Severity
}

// StageAccepted is the Decision.Stage value of an accepted match.
const StageAccepted = 0

// Decision is the filter chain's verdict on a RawMatch.
type Decision struct {
	Match    RawMatch
	Accepted bool
	// Stage is the 1-based index of the rejecting stage, or StageAccepted.
	Stage  int
	Reason string
}
