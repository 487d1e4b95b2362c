package repository

import (
	"database/sql"

	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/model"
	"github.com/delsolprimehomes1/blog-knowledge-vault-sub003/internal/scoring"
)

type DomainRepository struct {
	db *sql.DB
}

func NewDomainRepository(db *sql.DB) *DomainRepository {
	return &DomainRepository{db: db}
}

// Lookup resolves a registrable domain to its trust score, usage count
// and banned flag. A missing approved_domain row means default trust
// and implicitly allowed; an existing row with is_allowed = false marks
// the domain banned outright.
func (r *DomainRepository) Lookup(domain string) (*model.DomainInfo, error) {
	info := &model.DomainInfo{
		Domain:     domain,
		TrustScore: model.DefaultTrustScore,
	}

	var trust int
	var allowed bool
	err := r.db.QueryRow(`
		SELECT trust_score, is_allowed FROM approved_domain WHERE domain = $1
	`, domain).Scan(&trust, &allowed)

	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	if err == nil {
		if allowed {
			info.TrustScore = trust
		} else {
			info.Banned = true
		}
	}

	var uses int
	err = r.db.QueryRow(`
		SELECT total_uses FROM domain_stat WHERE domain = $1
	`, domain).Scan(&uses)

	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	info.UseCount = uses

	return info, nil
}

// LookupURL resolves a citation URL straight to its domain info. A
// malformed URL yields nil and the caller must reject the citation.
func (r *DomainRepository) LookupURL(rawURL string) (*model.DomainInfo, error) {
	domain := scoring.ExtractDomain(rawURL)
	if domain == "" {
		return nil, nil
	}
	return r.Lookup(domain)
}

// IncrementUsage is an additive upsert so concurrent chunk processors
// never lose updates to the shared counter.
func (r *DomainRepository) IncrementUsage(domain string) error {
	_, err := r.db.Exec(`
		INSERT INTO domain_stat(domain, total_uses)
		VALUES($1, 1)
		ON CONFLICT (domain) DO UPDATE SET total_uses = domain_stat.total_uses + 1
	`, domain)
	return err
}

// LogScore appends an audit row for a scoring pass. Callers treat
// failures as non-fatal: the log must never block or fail scoring.
func (r *DomainRepository) LogScore(jobID string, articleID int64, s model.CitationScore) error {
	_, err := r.db.Exec(`
		INSERT INTO citation_score_log(job_id, article_id, url, domain, relevance_score, trust_score, novelty_boost, overuse_penalty, final_score, domain_use_count)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, jobID, articleID, s.URL, s.Domain, s.RelevanceScore, s.TrustScore, s.NoveltyBoost, s.OverusePenalty, s.FinalScore, s.DomainUseCount)
	return err
}
