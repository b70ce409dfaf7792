package analyzer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"purchase-drivers/internal/models"
	"purchase-drivers/internal/taxonomy"
)

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	tax, err := taxonomy.Default()
	require.NoError(t, err)
	return New(tax, DefaultOptions())
}

func parse(t *testing.T, s string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func TestWeighting(t *testing.T) {
	a := newAnalyzer(t)
	r := a.FromBlocks("https://shop.example/p/1", models.Blocks{
		models.BlockTitle:  {"buen precio"},
		models.BlockReview: {"precio"},
	})
	assert.Equal(t, 7, r.DriverScores["price"])
	assert.Equal(t, 1.0, r.DriverProportions["price"])
	assert.Equal(t, 1, r.ReviewCount)
}

func TestPricesAreNotScored(t *testing.T) {
	a := newAnalyzer(t)
	r := a.FromBlocks("", models.Blocks{
		models.BlockPrice:       {"precio 19,99 €"},
		models.BlockDescription: {"un precio"},
	})
	assert.Equal(t, 2, r.DriverScores["price"])
	assert.Equal(t, []string{"precio 19,99 €"}, r.DetectedPrice)
}

func TestWeightedOrderAndCounts(t *testing.T) {
	a := newAnalyzer(t)
	got := a.Weighted(models.Blocks{
		models.BlockTitle:       {"t"},
		models.BlockDescription: {"d1", "d2"},
		models.BlockReview:      {"r"},
		models.BlockPrice:       {"p"},
	})
	assert.Equal(t, []string{"t", "t", "t", "d1", "d2", "d1", "d2", "r", "r", "r", "r"}, got)
}

func TestNoMatchesGivesZeroReport(t *testing.T) {
	a := newAnalyzer(t)
	r := a.Analyze("https://tienda.example:8443/x?y=1", parse(t, "<html><body><div>hola</div></body></html>"))

	assert.Equal(t, "tienda.example:8443", r.Domain)
	assert.Len(t, r.DriverScores, 10)
	assert.Len(t, r.DriverProportions, 10)
	for _, d := range taxonomy.All() {
		assert.Zero(t, r.DriverScores[string(d)])
		assert.Zero(t, r.DriverProportions[string(d)])
	}
	assert.NotNil(t, r.Title)
	assert.NotNil(t, r.DetectedPrice)
	assert.NotNil(t, r.TopReviewKeywords)
	assert.Empty(t, r.TopReviewKeywords)
	assert.Equal(t, DefaultNote, r.Note)
}

func TestAnalyzePage(t *testing.T) {
	page := `<html><body>
<h1>Auriculares Inalámbricos X200</h1>
<span class="a-price">29,90 €</span>
<div class="feature-bullets">Batería de larga duración, cancelación de ruido y diseño elegante para uso diario.</div>
<div class="review-text">El envío llegó rápido y el sonido es genial, genial de verdad.</div>
<div class="review-text">No funciona el micrófono, una pena total la verdad.</div>
</body></html>`
	a := newAnalyzer(t)
	r := a.Analyze("https://www.amazon.es/dp/B000", parse(t, page))

	assert.Equal(t, "www.amazon.es", r.Domain)
	assert.Equal(t, []string{"Auriculares Inalámbricos X200"}, r.Title)
	assert.Equal(t, []string{"29,90 €"}, r.DetectedPrice)
	assert.Equal(t, 2, r.ReviewCount)

	// description x2: batería (features), diseño + elegante (aesthetics), para (fit)
	// first review x4: envío + llegó + rápido (shipping); second review is negated.
	assert.Equal(t, 2, r.DriverScores["features"])
	assert.Equal(t, 4, r.DriverScores["aesthetics"])
	assert.Equal(t, 2, r.DriverScores["fit_compatibility"])
	assert.Equal(t, 12, r.DriverScores["shipping"])
	assert.Equal(t, 0, r.DriverScores["price"])

	sum := 0.0
	for _, v := range r.DriverProportions {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-3)

	require.NotEmpty(t, r.TopReviewKeywords)
	assert.Equal(t, models.KeywordCount{Token: "genial", Count: 2}, r.TopReviewKeywords[0])
}

func TestPreviewBounds(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxTitles = 1
	opts.MaxKeywords = 1
	tax, err := taxonomy.Default()
	require.NoError(t, err)
	a := New(tax, opts)

	blocks := models.Blocks{
		models.BlockTitle:  {"uno", "dos", "tres", "cuatro"},
		models.BlockPrice:  {"1,00 €", "2,00 €", "3,00 €", "4,00 €"},
		models.BlockReview: {"alfa beta gamma", "beta gamma", "gamma"},
	}
	r := a.FromBlocks("x", blocks)
	assert.Equal(t, []string{"uno"}, r.Title)
	assert.Equal(t, []string{"1,00 €", "2,00 €", "3,00 €"}, r.DetectedPrice)
	assert.Equal(t, []models.KeywordCount{{Token: "gamma", Count: 3}}, r.TopReviewKeywords)

	// previews are copies
	r.Title[0] = "changed"
	assert.Equal(t, "uno", blocks[models.BlockTitle][0])
}

func TestAnalyzeIsRepeatable(t *testing.T) {
	a := newAnalyzer(t)
	doc := parse(t, `<h1>Buen precio siempre</h1><blockquote>Llegó rápido, buen precio y buena calidad.</blockquote>`)
	assert.Equal(t, a.Analyze("u", doc), a.Analyze("u", doc))
}

func TestAnalyzeBatchKeepsOrder(t *testing.T) {
	a := newAnalyzer(t)
	var pages []Page
	for i := 0; i < 25; i++ {
		pages = append(pages, Page{
			URL: fmt.Sprintf("https://shop%d.example/p", i),
			Doc: parse(t, fmt.Sprintf("<h1>Producto número %d barato</h1>", i)),
		})
	}
	reports, err := a.AnalyzeBatch(context.Background(), pages, 4)
	require.NoError(t, err)
	require.Len(t, reports, len(pages))
	for i, r := range reports {
		assert.Equal(t, fmt.Sprintf("shop%d.example", i), r.Domain)
		assert.Equal(t, 3, r.DriverScores["price"])
	}
}

func TestAnalyzeBatchCancelled(t *testing.T) {
	a := newAnalyzer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.AnalyzeBatch(ctx, []Page{{URL: "a"}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
