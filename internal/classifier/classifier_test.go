package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purchase-drivers/internal/models"
	"purchase-drivers/internal/taxonomy"
)

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	tax, err := taxonomy.Default()
	require.NoError(t, err)
	return NewScorer(tax)
}

func TestScoreAllDriversPresent(t *testing.T) {
	s := newScorer(t)
	for _, frags := range [][]string{nil, {}, {"texto sin relación alguna 123"}} {
		scores := s.Score(frags)
		assert.Len(t, scores, 10)
		for _, d := range taxonomy.All() {
			v, ok := scores[d]
			assert.True(t, ok, "driver %s present", d)
			assert.Zero(t, v)
		}
	}
}

func TestNegationZeroesFragment(t *testing.T) {
	s := newScorer(t)
	scores := s.Score([]string{"no me gusta el precio"})
	assert.Equal(t, 0, scores[taxonomy.Price])

	scores = s.Score([]string{"me gusta el precio"})
	assert.Equal(t, 1, scores[taxonomy.Price])
}

// The negation marker is not scoped to the keyword it modifies: "sin" here is
// about shipping, yet the price mention is dropped too. This is current,
// intended behavior.
func TestNegationIsFragmentScoped(t *testing.T) {
	s := newScorer(t)
	scores := s.Score([]string{"sin envío gratis pero buen precio"})
	assert.Equal(t, 0, scores[taxonomy.Shipping])
	assert.Equal(t, 0, scores[taxonomy.Price])

	scores = s.Score([]string{"sin envío gratis", "buen precio"})
	assert.Equal(t, 0, scores[taxonomy.Shipping])
	assert.Equal(t, 1, scores[taxonomy.Price])
}

func TestPhraseAndTokenCounting(t *testing.T) {
	s := newScorer(t)

	scores := s.Score([]string{"Excelente relación calidad precio"})
	assert.Equal(t, 2, scores[taxonomy.Price], "phrase plus the precio token")
	assert.Equal(t, 1, scores[taxonomy.Quality])

	// Intended: "calidad-precio" has no space, so it is matched as a token
	// and never found; only the calidad and precio tokens count.
	scores = s.Score([]string{"gran calidad-precio"})
	assert.Equal(t, 1, scores[taxonomy.Price])
	assert.Equal(t, 1, scores[taxonomy.Quality])

	// single-word keywords need a whole token
	scores = s.Score([]string{"preciosísimo"})
	assert.Equal(t, 0, scores[taxonomy.Price])

	scores = s.Score([]string{"Me lo recomendaron mis amigos y mi amigo"})
	assert.Equal(t, 2, scores[taxonomy.SocialRecommendation])
}

func TestRepeatedFragmentsAccumulate(t *testing.T) {
	s := newScorer(t)
	scores := s.Score([]string{"precio", "precio", "precio"})
	assert.Equal(t, 3, scores[taxonomy.Price])
	assert.Equal(t, 3, scores.Total())
}

func TestScoreIsIdempotent(t *testing.T) {
	s := newScorer(t)
	frags := []string{"buen precio", "llegó rápido", "no funciona"}
	first := s.Score(frags)
	second := s.Score(frags)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, first[taxonomy.Price])
	assert.Equal(t, 2, first[taxonomy.Shipping])
	assert.Equal(t, 0, first[taxonomy.Features])
}

func TestNormalize(t *testing.T) {
	scores := DriverScores{}
	for _, d := range taxonomy.All() {
		scores[d] = 0
	}
	props := Normalize(scores)
	assert.Len(t, props, 10)
	for _, v := range props {
		assert.Zero(t, v)
	}

	scores[taxonomy.Price] = 1
	scores[taxonomy.Quality] = 2
	props = Normalize(scores)
	assert.Equal(t, 0.3333, props[taxonomy.Price])
	assert.Equal(t, 0.6667, props[taxonomy.Quality])
	assert.Equal(t, 0.0, props[taxonomy.Shipping])

	sum := 0.0
	for _, v := range props {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
}

func TestNormalizeRoundsHalfToEven(t *testing.T) {
	scores := DriverScores{taxonomy.Price: 1, taxonomy.Quality: 31}
	props := Normalize(scores)
	assert.Equal(t, 0.0312, props[taxonomy.Price])
	assert.Equal(t, 0.9688, props[taxonomy.Quality])

	scores = DriverScores{taxonomy.Price: 5, taxonomy.Quality: 27}
	props = Normalize(scores)
	assert.Equal(t, 0.1562, props[taxonomy.Price])
	assert.Equal(t, 0.8438, props[taxonomy.Quality])
}

func TestNormalizeSumsToOne(t *testing.T) {
	scores := DriverScores{}
	for i, d := range taxonomy.All() {
		scores[d] = i*7 + 3
	}
	sum := 0.0
	for _, v := range Normalize(scores) {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 10*0.00005)
}

func TestTopKeywords(t *testing.T) {
	s := newScorer(t)
	frags := []string{"me encantó este producto genial", "genial producto genial"}

	got := TopKeywords(s.Tokenizer(), frags, 5, 20)
	assert.Equal(t, []models.KeywordCount{
		{Token: "genial", Count: 3},
		{Token: "producto", Count: 2},
		{Token: "encantó", Count: 1},
	}, got)

	got = TopKeywords(s.Tokenizer(), frags, 4, 20)
	assert.Equal(t, []models.KeywordCount{
		{Token: "genial", Count: 3},
		{Token: "producto", Count: 2},
		{Token: "encantó", Count: 1},
		{Token: "este", Count: 1},
	}, got)

	got = TopKeywords(s.Tokenizer(), frags, 4, 2)
	assert.Len(t, got, 2)

	assert.Empty(t, TopKeywords(s.Tokenizer(), nil, 4, 20))
}

func TestTopKeywordsTiesByFirstSeen(t *testing.T) {
	s := newScorer(t)
	got := TopKeywords(s.Tokenizer(), []string{"zeta alfa mango", "mango alfa zeta"}, 4, 20)
	require.Len(t, got, 3)
	assert.Equal(t, "zeta", got[0].Token)
	assert.Equal(t, "alfa", got[1].Token)
	assert.Equal(t, "mango", got[2].Token)
}
