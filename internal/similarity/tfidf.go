package similarity

import (
	"errors"
	"math"
	"sort"
	"strings"
)

// ErrEmptyVocabulary is returned when no document in a corpus yields a term
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain no terms")

// VectorizerConfig controls how documents are turned into terms
type VectorizerConfig struct {
	MaxFeatures int // Keep only the most frequent terms (0 keeps all)
	MaxNGram    int // Longest word n-gram to index (1 = unigrams)
	MinTokenLen int // Shortest token, in characters, kept before n-gram expansion
}

// DefaultVectorizerConfig returns unigrams and bigrams over tokens of two or
// more characters, limited to 1000 terms
func DefaultVectorizerConfig() VectorizerConfig {
	return VectorizerConfig{
		MaxFeatures: 1000,
		MaxNGram:    2,
		MinTokenLen: 2,
	}
}

// Vector is a sparse, L2-normalized term vector with indexes in ascending order
type Vector struct {
	idx []int
	val []float64
}

// IsZero reports whether the vector has no weight
func (v Vector) IsZero() bool {
	return len(v.idx) == 0
}

// Corpus holds the vocabulary and inverse document frequencies of a document set
type Corpus struct {
	config VectorizerConfig
	vocab  map[string]int
	idf    []float64
}

// NewCorpus builds a vocabulary over docs and weights each term with a
// smoothed inverse document frequency: ln((1+n)/(1+df)) + 1
func NewCorpus(docs []string, cfg VectorizerConfig) (*Corpus, error) {
	if cfg.MaxNGram < 1 {
		cfg.MaxNGram = 1
	}

	counts := make(map[string]int)
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range Terms(doc, cfg) {
			counts[term]++
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}
	if len(counts) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	if cfg.MaxFeatures > 0 && len(terms) > cfg.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if counts[terms[i]] != counts[terms[j]] {
				return counts[terms[i]] > counts[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:cfg.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	c := &Corpus{
		config: cfg,
		vocab:  make(map[string]int, len(terms)),
		idf:    make([]float64, len(terms)),
	}
	for i, term := range terms {
		c.vocab[term] = i
		c.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return c, nil
}

// Size returns the number of terms in the vocabulary
func (c *Corpus) Size() int {
	return len(c.vocab)
}

// Transform embeds doc in the corpus vector space. Terms outside the
// vocabulary are ignored.
func (c *Corpus) Transform(doc string) Vector {
	tf := make(map[int]float64)
	for _, term := range Terms(doc, c.config) {
		if i, ok := c.vocab[term]; ok {
			tf[i]++
		}
	}
	if len(tf) == 0 {
		return Vector{}
	}

	v := Vector{
		idx: make([]int, 0, len(tf)),
		val: make([]float64, 0, len(tf)),
	}
	for i := range tf {
		v.idx = append(v.idx, i)
	}
	sort.Ints(v.idx)

	var norm float64
	for _, i := range v.idx {
		w := tf[i] * c.idf[i]
		v.val = append(v.val, w)
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for k := range v.val {
		v.val[k] /= norm
	}
	return v
}

// Cosine returns the cosine similarity of two vectors in [0, 1]
func Cosine(a, b Vector) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}

	var dot, na, nb float64
	for _, w := range a.val {
		na += w * w
	}
	for _, w := range b.val {
		nb += w * w
	}
	for i, j := 0, 0; i < len(a.idx) && j < len(b.idx); {
		switch {
		case a.idx[i] == b.idx[j]:
			dot += a.val[i] * b.val[j]
			i++
			j++
		case a.idx[i] < b.idx[j]:
			i++
		default:
			j++
		}
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, sim))
}

// Terms splits doc into preprocessed tokens and their word n-grams
func Terms(doc string, cfg VectorizerConfig) []string {
	var tokens []string
	for _, tok := range strings.Fields(Preprocess(doc)) {
		if len([]rune(tok)) >= cfg.MinTokenLen {
			tokens = append(tokens, tok)
		}
	}

	maxN := max(cfg.MaxNGram, 1)
	terms := make([]string, 0, len(tokens)*maxN)
	for n := 1; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}
