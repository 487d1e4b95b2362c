package search

// Result is a candidate source page found for an article's topic. The
// relevance judgement is not made here; results are handed to the
// citation finder as-is.
type Result struct {
	URL     string
	Title   string
	Snippet string
	Rank    int
}

type SearchClient interface {
	Search(query string, limit int) ([]Result, error)
	Name() string
}
