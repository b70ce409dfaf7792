// Package pipeline wires fetching, parsing and analysis for the CLI and the
// HTTP server.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"purchase-drivers/internal/analyzer"
	"purchase-drivers/internal/crawler"
	"purchase-drivers/internal/models"
	"purchase-drivers/internal/parser"
	"purchase-drivers/pkg/logger"
)

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (crawler.Page, error)
}

// Recorder persists finished reports; the sqlite store satisfies it.
type Recorder interface {
	Save(ctx context.Context, r models.Report) (string, error)
}

// ErrParse marks failures turning a fetched body into a document.
var ErrParse = errors.New("parse page")

type Pipeline struct {
	fetcher  Fetcher
	parser   *parser.Parser
	analyzer *analyzer.Analyzer
	recorder Recorder
	log      *logger.Logger
	timeout  time.Duration
}

type Option func(*Pipeline)

// WithRecorder saves every successful report.
func WithRecorder(r Recorder) Option { return func(p *Pipeline) { p.recorder = r } }

// WithTimeout bounds each single analysis, fetch included.
func WithTimeout(d time.Duration) Option { return func(p *Pipeline) { p.timeout = d } }

func New(f Fetcher, a *analyzer.Analyzer, l *logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{fetcher: f, parser: parser.New(), analyzer: a, log: l}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run fetches rawURL and analyzes it. The report keeps the URL as given; the
// domain is taken from it, not from any redirect target.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (models.Report, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	page, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return models.Report{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	doc, err := p.parser.Parse(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		return models.Report{}, fmt.Errorf("%w %s: %v", ErrParse, rawURL, err)
	}

	report := p.analyzer.Analyze(rawURL, doc.Root)
	p.log.With("url", rawURL).Debugf("analyzed %q (lang=%s) in %s after %d attempt(s): %d reviews",
		doc.Title, doc.Lang, page.Elapsed, page.Attempts, report.ReviewCount)

	if p.recorder != nil {
		if _, err := p.recorder.Save(ctx, report); err != nil {
			// history is best effort; the analysis itself succeeded
			p.log.Warnf("save report for %s: %v", rawURL, err)
		}
	}
	return report, nil
}

// RunBatch analyzes urls with at most concurrency in flight. Records come
// back in input order; per-URL failures are recorded, not returned.
func (p *Pipeline) RunBatch(ctx context.Context, urls []string, concurrency int) []models.BatchRecord {
	out := make([]models.BatchRecord, len(urls))
	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			if u == "" {
				out[i] = models.BatchRecord{URL: u, Error: "empty url"}
				return nil
			}
			r, err := p.Run(ctx, u)
			if err != nil {
				p.log.Errorf("%v", err)
				out[i] = models.BatchRecord{URL: u, Error: err.Error()}
				return nil
			}
			out[i] = models.BatchRecord{URL: u, Result: &r}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
