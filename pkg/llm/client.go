package llm

// SearchHit is one raw result from the upstream web search, handed to
// the model for relevance judgement.
type SearchHit struct {
	URL     string
	Title   string
	Snippet string
}

type FindInput struct {
	Headline string
	Excerpt  string
	DeadURL  string
	Hits     []SearchHit
}

// Candidate carries the externally supplied relevance score (0-100)
// that the citation scorer combines with domain trust and usage.
type Candidate struct {
	URL       string  `json:"url"`
	Source    string  `json:"source"`
	Anchor    string  `json:"anchor"`
	Relevance float64 `json:"relevance"`
}

type FindResult struct {
	Candidates []Candidate
	ModelUsed  string
}

type CitationFinder interface {
	FindCitations(input FindInput) (*FindResult, error)
}
