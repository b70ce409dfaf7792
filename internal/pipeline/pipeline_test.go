package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purchase-drivers/internal/analyzer"
	"purchase-drivers/internal/crawler"
	"purchase-drivers/internal/models"
	"purchase-drivers/internal/taxonomy"
	"purchase-drivers/pkg/logger"
)

const productPage = `<html><head><title>Tienda</title></head><body>
<h1>Zapatillas Running Ligeras</h1>
<span>49,95 €</span>
<div class="review">Muy cómodo y fácil de limpiar, buen precio.</div>
</body></html>`

type fakeFetcher struct {
	pages map[string]string
	err   error
}

func (f fakeFetcher) Fetch(_ context.Context, u string) (crawler.Page, error) {
	if f.err != nil {
		return crawler.Page{}, f.err
	}
	body, ok := f.pages[u]
	if !ok {
		return crawler.Page{}, crawler.ErrStatus
	}
	return crawler.Page{Body: []byte(body), FinalURL: u, ContentType: "text/html; charset=utf-8", Attempts: 1}, nil
}

type memRecorder struct {
	mu      sync.Mutex
	reports []models.Report
	err     error
}

func (m *memRecorder) Save(_ context.Context, r models.Report) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.reports = append(m.reports, r)
	return "id", nil
}

func newAnalyzer(t *testing.T) *analyzer.Analyzer {
	t.Helper()
	tax, err := taxonomy.Default()
	require.NoError(t, err)
	return analyzer.New(tax, analyzer.DefaultOptions())
}

func TestRun(t *testing.T) {
	rec := &memRecorder{}
	f := fakeFetcher{pages: map[string]string{"https://shop.example/z": productPage}}
	p := New(f, newAnalyzer(t), logger.Nop(), WithRecorder(rec), WithTimeout(time.Second))

	r, err := p.Run(context.Background(), "https://shop.example/z")
	require.NoError(t, err)
	assert.Equal(t, "shop.example", r.Domain)
	assert.Equal(t, []string{"Zapatillas Running Ligeras"}, r.Title)
	assert.Equal(t, []string{"49,95 €"}, r.DetectedPrice)
	assert.Equal(t, 1, r.ReviewCount)
	// review x4: cómodo + fácil (usability), precio (price)
	assert.Equal(t, 8, r.DriverScores["usability"])
	assert.Equal(t, 4, r.DriverScores["price"])
	require.Len(t, rec.reports, 1)
}

func TestRunFetchError(t *testing.T) {
	p := New(fakeFetcher{err: crawler.ErrInvalidURL}, newAnalyzer(t), logger.Nop())
	_, err := p.Run(context.Background(), "nope")
	assert.ErrorIs(t, err, crawler.ErrInvalidURL)
}

func TestRecorderFailureDoesNotFailRun(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	f := fakeFetcher{pages: map[string]string{"u": productPage}}
	_, err := New(f, newAnalyzer(t), logger.Nop(), WithRecorder(rec)).Run(context.Background(), "u")
	assert.NoError(t, err)
}

func TestRunBatch(t *testing.T) {
	f := fakeFetcher{pages: map[string]string{
		"https://a.example": productPage,
		"https://c.example": "<h1>Otro producto barato</h1>",
	}}
	p := New(f, newAnalyzer(t), logger.Nop())

	recs := p.RunBatch(context.Background(), []string{"https://a.example", "https://b.example", "", "https://c.example"}, 2)
	require.Len(t, recs, 4)

	assert.NotNil(t, recs[0].Result)
	assert.Empty(t, recs[0].Error)
	assert.Nil(t, recs[1].Result)
	assert.Contains(t, recs[1].Error, "unexpected http status")
	assert.Equal(t, "empty url", recs[2].Error)
	require.NotNil(t, recs[3].Result)
	assert.Equal(t, 3, recs[3].Result.DriverScores["price"])
}

func TestRunAgainstHTTPServer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "Envío rápido y buen precio, lo recomiendo." in Latin-1
		w.Write([]byte("<html><body><blockquote>Env\xedo r\xe1pido y buen precio, lo recomiendo.</blockquote></body></html>"))
	}))
	defer ts.Close()

	opts := crawler.DefaultOptions()
	opts.Cookies = ""
	opts.InitialBackoff = time.Millisecond
	p := New(crawler.NewHTTPClient(opts), newAnalyzer(t), logger.Nop())

	r, err := p.Run(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, r.ReviewCount)
	assert.Equal(t, 8, r.DriverScores["shipping"])
	assert.Equal(t, 4, r.DriverScores["price"])
	require.NotEmpty(t, r.TopReviewKeywords)
	assert.Equal(t, "envío", r.TopReviewKeywords[0].Token)
}
