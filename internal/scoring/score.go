package scoring

import (
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"
)

const (
	noveltyFullBoost = 20
	noveltyHalfBoost = 10
	overuseRate      = 1.5

	overusedThreshold = 50
	criticalThreshold = 100
)

// Score combines an externally supplied relevance score (0-100) with
// the domain's trust, novelty and overuse signals into one ranking
// number. Pure function of its inputs; persistence of the audit record
// is the caller's concern.
func Score(rawURL string, relevance float64, info model.DomainInfo) model.CitationScore {
	novelty := noveltyBoost(info.UseCount)
	penalty := float64(info.UseCount) * overuseRate

	return model.CitationScore{
		URL:               rawURL,
		Domain:            info.Domain,
		RelevanceScore:    relevance,
		TrustScore:        info.TrustScore,
		NoveltyBoost:      novelty,
		OverusePenalty:    penalty,
		FinalScore:        relevance + float64(info.TrustScore)/10 + novelty - penalty,
		DomainUseCount:    info.UseCount,
		IsOverused:        info.UseCount > overusedThreshold,
		IsCriticalOveruse: info.UseCount > criticalThreshold,
	}
}

func noveltyBoost(useCount int) float64 {
	switch {
	case useCount < 5:
		return noveltyFullBoost
	case useCount < 10:
		return noveltyHalfBoost
	default:
		return 0
	}
}
