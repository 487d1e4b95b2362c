package model

// DomainInfo is the resolved trust/usage view of a registrable domain.
// A missing approved_domain row yields the default trust score; a row
// with is_allowed = false marks the domain banned and candidates on it
// are rejected outright rather than scored low.
type DomainInfo struct {
	Domain     string
	TrustScore int
	UseCount   int
	Banned     bool
}

const DefaultTrustScore = 50

type DomainStat struct {
	Domain    string
	TotalUses int
}

type ApprovedDomain struct {
	Domain     string
	TrustScore int
	IsAllowed  bool
}

// CitationScore is recomputed on every scoring pass and logged for
// audit; it is never treated as primary truth.
type CitationScore struct {
	URL               string
	Domain            string
	Source            string
	Anchor            string
	RelevanceScore    float64
	TrustScore        int
	NoveltyBoost      float64
	OverusePenalty    float64
	FinalScore        float64
	DomainUseCount    int
	IsOverused        bool
	IsCriticalOveruse bool
}
