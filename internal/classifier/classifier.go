package classifier

import (
	"strings"

	"purchase-drivers/internal/taxonomy"
	"purchase-drivers/internal/tokenizer"
)

// DriverScores holds a non-negative score for every driver in the taxonomy.
type DriverScores map[taxonomy.Driver]int

// Total sums all scores.
func (s DriverScores) Total() int {
	t := 0
	for _, v := range s {
		t += v
	}
	return t
}

// Strings keys the scores by driver name, for serialization.
func (s DriverScores) Strings() map[string]int {
	out := make(map[string]int, len(s))
	for d, v := range s {
		out[string(d)] = v
	}
	return out
}

type keyword struct {
	text   string
	phrase bool
}

// Scorer counts taxonomy keywords in text fragments.
type Scorer struct {
	tax      *taxonomy.Taxonomy
	tok      *tokenizer.Tokenizer
	keywords map[taxonomy.Driver][]keyword
}

// NewScorer prepares a Scorer for tax. A nil taxonomy is a programming error.
func NewScorer(tax *taxonomy.Taxonomy) *Scorer {
	if tax == nil {
		panic("classifier: nil taxonomy")
	}
	tok := tokenizer.New(tax.Alphabet())
	s := &Scorer{tax: tax, tok: tok, keywords: make(map[taxonomy.Driver][]keyword)}
	for _, d := range taxonomy.All() {
		for _, kw := range tax.Keywords(d) {
			s.keywords[d] = append(s.keywords[d], keyword{text: kw, phrase: isPhrase(kw)})
		}
	}
	return s
}

// isPhrase reports whether kw is counted by substring search. Only keywords
// with a space are; the rest must equal a whole token, so a hyphenated
// keyword such as "calidad-precio" never matches.
func isPhrase(kw string) bool {
	return strings.Contains(kw, " ")
}

// Tokenizer returns the tokenizer built from the taxonomy's alphabet.
func (s *Scorer) Tokenizer() *tokenizer.Tokenizer { return s.tok }

// Taxonomy returns the configuration the scorer was built with.
func (s *Scorer) Taxonomy() *taxonomy.Taxonomy { return s.tax }

// Score accumulates keyword counts over fragments. A fragment containing any
// negation marker contributes nothing to any driver, whichever keyword the
// marker actually refers to.
func (s *Scorer) Score(fragments []string) DriverScores {
	scores := make(DriverScores, len(s.keywords))
	for _, d := range taxonomy.All() {
		scores[d] = 0
	}
	for _, frag := range fragments {
		for d, n := range s.scoreFragment(frag) {
			scores[d] += n
		}
	}
	return scores
}

func (s *Scorer) scoreFragment(frag string) map[taxonomy.Driver]int {
	tokens := s.tok.Tokenize(frag)
	counts := make(map[string]int, len(tokens))
	negated := false
	for _, t := range tokens {
		counts[t]++
		if s.tax.IsNegation(t) {
			negated = true
		}
	}
	lower := tokenizer.Normalize(frag)

	out := make(map[taxonomy.Driver]int)
	for d, kws := range s.keywords {
		count := 0
		for _, kw := range kws {
			if kw.phrase {
				count += strings.Count(lower, kw.text)
			} else {
				count += counts[kw.text]
			}
		}
		if count == 0 {
			continue
		}
		penalty := 0
		if negated {
			penalty = count
		}
		out[d] = max(0, count-penalty)
	}
	return out
}
