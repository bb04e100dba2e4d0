package recommend

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/uosnotice/programrank/internal/program"
	"github.com/uosnotice/programrank/internal/similarity"
)

// FieldScores holds the free-text relevance of every program in a pool,
// index-aligned with the pool
type FieldScores struct {
	Scores       []float64 // 0..MaxScore
	Similarities []float64 // raw cosine similarity, 0..1
	Degraded     bool      // vector space could not be built; all scores are zero
}

// FieldScorer scores programs against a user's free-text interest fields
type FieldScorer struct {
	config FieldConfig
	logger zerolog.Logger
}

// NewFieldScorer creates a FieldScorer
func NewFieldScorer(cfg FieldConfig, logger zerolog.Logger) *FieldScorer {
	return &FieldScorer{config: cfg, logger: logger}
}

// Score builds a vector space over the whole pool and scores every program
// by cosine similarity to the joined interest fields. Scores depend on the
// pool: document frequencies come from every program in it.
func (s *FieldScorer) Score(user program.UserProfile, pool []program.Program) FieldScores {
	result := FieldScores{
		Scores:       make([]float64, len(pool)),
		Similarities: make([]float64, len(pool)),
	}
	if len(pool) == 0 {
		return result
	}

	query := Query(user)
	if query == "" {
		return result
	}

	docs := make([]string, len(pool))
	for i := range pool {
		docs[i] = pool[i].Text(s.config.ContentLimit)
	}

	corpus, err := similarity.NewCorpus(docs, s.config.Vectorizer)
	if err != nil {
		s.logger.Warn().Err(err).Int("pool_size", len(pool)).Msg("field relevance unavailable, using zero scores")
		result.Degraded = true
		return result
	}

	qv := corpus.Transform(query)
	if qv.IsZero() {
		return result
	}

	for i, doc := range docs {
		sim := similarity.Cosine(qv, corpus.Transform(doc))
		result.Similarities[i] = sim
		result.Scores[i] = sim * s.config.MaxScore
	}
	return result
}

// Query joins the user's non-blank interest fields into one query string
func Query(user program.UserProfile) string {
	fields := make([]string, 0, len(user.InterestFields))
	for _, f := range user.InterestFields {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return strings.Join(fields, " ")
}
