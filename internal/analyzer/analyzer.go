// Package analyzer turns a parsed product page into a purchase-driver report.
//
// The Analyzer composes the extractor, scorer and keyword ranker; it holds
// only immutable configuration, so one instance can serve concurrent calls.
package analyzer

import (
	"context"
	"net/url"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"purchase-drivers/internal/classifier"
	"purchase-drivers/internal/extractor"
	"purchase-drivers/internal/models"
	"purchase-drivers/internal/taxonomy"
)

// DefaultNote is attached to every report.
const DefaultNote = "Heuristic based on title, description and review text. " +
	"For real accuracy, cross-check with sales/UTM data or use advanced NLP."

// Weights is how many times each block's fragments are repeated before
// scoring. Prices are extracted but never scored.
type Weights struct {
	Title       int
	Description int
	Review      int
}

type Options struct {
	Weights         Weights
	MaxTitles       int
	MaxPrices       int
	MaxKeywords     int
	MinKeywordRunes int
	Note            string
}

func DefaultOptions() Options {
	return Options{
		Weights:         Weights{Title: 3, Description: 2, Review: 4},
		MaxTitles:       3,
		MaxPrices:       3,
		MaxKeywords:     20,
		MinKeywordRunes: 4,
		Note:            DefaultNote,
	}
}

type Analyzer struct {
	extractor *extractor.Extractor
	scorer    *classifier.Scorer
	opts      Options
}

// New builds an Analyzer over tax with the default extraction rules.
func New(tax *taxonomy.Taxonomy, opts Options) *Analyzer {
	return &Analyzer{
		extractor: extractor.New(),
		scorer:    classifier.NewScorer(tax),
		opts:      opts,
	}
}

// WithExtractor swaps the extraction rule set.
func (a *Analyzer) WithExtractor(e *extractor.Extractor) *Analyzer {
	cp := *a
	cp.extractor = e
	return &cp
}

func (a *Analyzer) Options() Options { return a.opts }

// Analyze builds the report for doc. rawURL is passed through; the domain is
// its host, empty when the URL does not parse.
func (a *Analyzer) Analyze(rawURL string, doc *html.Node) models.Report {
	return a.FromBlocks(rawURL, a.extractor.Extract(doc))
}

// FromBlocks assembles a report from already extracted blocks.
func (a *Analyzer) FromBlocks(rawURL string, blocks models.Blocks) models.Report {
	scores := a.scorer.Score(a.Weighted(blocks))
	reviews := blocks[models.BlockReview]

	return models.Report{
		URL:               rawURL,
		Domain:            domain(rawURL),
		Title:             head(blocks[models.BlockTitle], a.opts.MaxTitles),
		DetectedPrice:     head(blocks[models.BlockPrice], a.opts.MaxPrices),
		ReviewCount:       len(reviews),
		DriverScores:      scores.Strings(),
		DriverProportions: classifier.Normalize(scores).Strings(),
		TopReviewKeywords: classifier.TopKeywords(a.scorer.Tokenizer(), reviews, a.opts.MinKeywordRunes, a.opts.MaxKeywords),
		Note:              a.opts.Note,
	}
}

// Weighted lists title, description and review fragments, each repeated by
// its weight, in that order.
func (a *Analyzer) Weighted(blocks models.Blocks) []string {
	w := a.opts.Weights
	var out []string
	out = repeat(out, blocks[models.BlockTitle], w.Title)
	out = repeat(out, blocks[models.BlockDescription], w.Description)
	out = repeat(out, blocks[models.BlockReview], w.Review)
	return out
}

// repeat appends src to dst n times.
func repeat(dst, src []string, n int) []string {
	for i := 0; i < n; i++ {
		dst = append(dst, src...)
	}
	return dst
}

func head(s []string, n int) []string {
	if n >= 0 && n < len(s) {
		s = s[:n]
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Page is one input of AnalyzeBatch.
type Page struct {
	URL string
	Doc *html.Node
}

// AnalyzeBatch analyzes pages with at most limit running at once and returns
// reports in input order. It stops early only when ctx is cancelled.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, pages []Page, limit int) ([]models.Report, error) {
	out := make([]models.Report, len(pages))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, p := range pages {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = a.Analyze(p.URL, p.Doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
