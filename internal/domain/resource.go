package domain

// Origin names the locator strategy that produced a candidate.
type Origin string

const (
	OriginSelectorScan Origin = "selector_scan"
	OriginStandardPath Origin = "standard_path"
	OriginMarkupScan   Origin = "markup_scan"
	OriginURLMutation  Origin = "url_mutation"
)

// ResourceCandidate is a URL that may point at the article's downloadable document.
type ResourceCandidate struct {
	URL    string
	Origin Origin
}

// Attempt records one verification of a candidate.
type Attempt struct {
	Candidate ResourceCandidate
	Err       error
}

// ResourceResult is the outcome of the locator cascade.
type ResourceResult struct {
	Found     bool
	Candidate ResourceCandidate
	File      string
	Attempts  []Attempt
}
