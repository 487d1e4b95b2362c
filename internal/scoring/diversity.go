package scoring

import (
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"
)

// EnforceDomainDiversity keeps at most one candidate per domain, up to
// max results. Single greedy pass in input order: callers must pre-sort
// by FinalScore descending, ties and exclusions resolve purely by that
// order. Candidates with an empty domain are non-scorable and dropped.
func EnforceDomainDiversity(ranked []model.CitationScore, max int) []model.CitationScore {
	if max <= 0 {
		return nil
	}

	seen := make(map[string]bool, len(ranked))
	var kept []model.CitationScore
	for _, c := range ranked {
		if c.Domain == "" || seen[c.Domain] {
			continue
		}
		seen[c.Domain] = true
		kept = append(kept, c)
		if len(kept) == max {
			break
		}
	}
	return kept
}
