package categorize

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

const maxVocabulary = 1000

// stopWords are dropped during tokenization. Merchant names and descriptions
// are short, so filler words carry no signal and only widen the vocabulary.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "had": {}, "has": {},
	"have": {}, "he": {}, "her": {}, "his": {}, "i": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "me": {}, "my": {}, "no": {},
	"not": {}, "of": {}, "on": {}, "or": {}, "our": {}, "she": {}, "so": {},
	"that": {}, "the": {}, "their": {}, "them": {}, "then": {}, "there": {},
	"they": {}, "this": {}, "to": {}, "was": {}, "we": {}, "were": {},
	"what": {}, "when": {}, "which": {}, "who": {}, "will": {}, "with": {},
	"you": {}, "your": {},
}

// Tokenize lowercases, strips everything outside a-z and splits on spaces.
// Single-letter tokens and stopwords are dropped.
func Tokenize(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) < 2 {
			continue
		}
		if _, skip := stopWords[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Vectorizer is a TF-IDF text vectorizer with a bounded vocabulary. The
// fitted state is plain data so it round-trips through JSON for persistence.
type Vectorizer struct {
	Vocab map[string]int `json:"vocab"`
	IDF   []float64      `json:"idf"`
}

// Fit builds the vocabulary and IDF weights from a document corpus. When the
// corpus yields more than maxVocabulary distinct terms, the most frequent
// terms win; term indices are assigned alphabetically for stable vectors.
func (v *Vectorizer) Fit(docs []string) {
	termCount := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range Tokenize(doc) {
			termCount[tok]++
			seen[tok] = true
		}
		for tok := range seen {
			docFreq[tok]++
		}
	}

	terms := make([]string, 0, len(termCount))
	for term := range termCount {
		terms = append(terms, term)
	}
	if len(terms) > maxVocabulary {
		sort.Slice(terms, func(i, j int) bool {
			if termCount[terms[i]] != termCount[terms[j]] {
				return termCount[terms[i]] > termCount[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:maxVocabulary]
	}
	sort.Strings(terms)

	v.Vocab = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		v.Vocab[term] = i
		// Smoothed IDF keeps terms present in every document from zeroing out.
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
}

// Dim returns the vector width.
func (v *Vectorizer) Dim() int { return len(v.IDF) }

// Transform maps one document onto the fitted vocabulary. Unknown terms are
// ignored. The vector is L2-normalized so document length does not dominate.
func (v *Vectorizer) Transform(doc string) []float64 {
	vec := make([]float64, len(v.IDF))
	for _, tok := range Tokenize(doc) {
		if idx, ok := v.Vocab[tok]; ok {
			vec[idx] += v.IDF[idx]
		}
	}
	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec
}
