package audit

// ResponseCandidate is the coarse category derived from an HTTP status code
// before any content inspection.
type ResponseCandidate int

// Candidate values, first match wins.
const (
	// CandidateServerError marks a 5xx response, subject to retry policy.
	CandidateServerError ResponseCandidate = iota
	// CandidateNotFound marks a confirmed 404. Not retried; content may
	// still be inspected for note enrichment.
	CandidateNotFound
	// CandidateDeferred marks a 403: Ok if content is substantial, else Broken.
	CandidateDeferred
	// CandidateBroken marks any other 4xx.
	CandidateBroken
	// CandidateContent means the verdict falls to the content classifier.
	CandidateContent
)

// ClassifyResponse maps an HTTP status code to its candidate category.
// Absence of a response never reaches this table; the orchestrator routes
// navigation failures through the retry path instead.
func ClassifyResponse(statusCode int) ResponseCandidate {
	switch {
	case statusCode >= 500 && statusCode <= 599:
		return CandidateServerError
	case statusCode == 404:
		return CandidateNotFound
	case statusCode == 403:
		return CandidateDeferred
	case statusCode >= 400 && statusCode <= 499:
		return CandidateBroken
	default:
		return CandidateContent
	}
}
