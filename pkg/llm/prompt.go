package llm

import (
	"fmt"
	"strings"
)

const maxExcerptChars = 600

const findSystemPrompt = `You are a citation editor for a real-estate content site. Given an article and a list of web search results, pick the results that genuinely support the article's claims and could replace a dead citation.

Rules:
1. Only use URLs from the provided search results, never invent URLs
2. Prefer official statistics bodies, government portals, industry associations and established publications
3. Reject forums, aggregators, and pages that merely mention the topic
4. The anchor must be a short factual phrase that fits inline in the article
5. relevance is 0-100: how directly the page supports this specific article

Output as a JSON array only, no other text:
[
  {
    "url": "https://example.com/page",
    "source": "publication or body name",
    "anchor": "short anchor phrase",
    "relevance": 0-100
  }
]`

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func formatFindInput(input FindInput) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Article headline: %s\n", input.Headline))
	sb.WriteString(fmt.Sprintf("Article excerpt: %s\n", truncate(input.Excerpt, maxExcerptChars)))
	if input.DeadURL != "" {
		sb.WriteString(fmt.Sprintf("Dead citation being replaced: %s\n", input.DeadURL))
	}
	sb.WriteString("\nSearch results:\n")
	for i, h := range input.Hits {
		sb.WriteString(fmt.Sprintf("[%d] %s\n", i, h.Title))
		sb.WriteString(fmt.Sprintf("    URL: %s\n", h.URL))
		sb.WriteString(fmt.Sprintf("    Snippet: %s\n", truncate(h.Snippet, 200)))
	}
	return sb.String()
}
