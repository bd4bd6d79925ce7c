package audit

import "time"

// Status is the final verdict for a checked URL. Exactly one value is
// produced per check; the string forms are what the report writers emit.
type Status string

// Verdict values in report casing.
const (
	StatusServerError Status = "5xx"
	StatusNotFound    Status = "404"
	StatusParked      Status = "Parked"
	StatusBroken      Status = "Broken"
	StatusOK          Status = "ok"
	StatusOther       Status = "Other"
)

// Target is one normalized URL scheduled for checking. Index preserves the
// original input order so the report can be re-sorted deterministically.
type Target struct {
	URL   string
	Index int
}

// CheckResult is the immutable outcome of a URL's full attempt sequence.
type CheckResult struct {
	Target   Target
	Status   Status
	Notes    string
	Err      string
	Attempts int
	Elapsed  time.Duration
}

// ClassificationSignals is a read-only view over a rendered document,
// computed fresh per attempt. BodyText is already lower-cased; Title and
// MetaDescription keep their original casing for note text.
type ClassificationSignals struct {
	Title           string
	BodyText        string
	BodyLength      int
	ElementCount    int
	MetaDescription string
}

// OracleVerdict is the three-valued answer of the disambiguation oracle.
type OracleVerdict string

// Oracle answers. Unavailability and timeouts collapse to inconclusive.
const (
	VerdictConfirmedParked OracleVerdict = "confirmed-parked"
	VerdictNormal          OracleVerdict = "normal"
	VerdictInconclusive    OracleVerdict = "inconclusive"
)
