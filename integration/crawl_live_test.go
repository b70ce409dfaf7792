//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"purchase-drivers/internal/analyzer"
	"purchase-drivers/internal/crawler"
	"purchase-drivers/internal/pipeline"
	"purchase-drivers/internal/taxonomy"
	"purchase-drivers/pkg/logger"
)

func TestLiveProductPage(t *testing.T) {
	// Spanish Amazon listing (subject to change / blocking)
	url := "https://www.amazon.es/dp/B09B8V1LZ3"

	opts := crawler.DefaultOptions()
	opts.Attempts = 2
	p := pipeline.New(
		crawler.NewHTTPClient(opts),
		analyzer.New(taxonomy.MustDefault(), analyzer.DefaultOptions()),
		logger.Nop(),
		pipeline.WithTimeout(60*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	r, err := p.Run(ctx, url)
	if err != nil {
		t.Skipf("skipping: fetch failed due to network/robots/captcha: %v", err)
		return
	}
	assert.Equal(t, "www.amazon.es", r.Domain)
	assert.Len(t, r.DriverScores, len(taxonomy.All()))
	assert.LessOrEqual(t, len(r.Title), 3)
	assert.LessOrEqual(t, len(r.TopReviewKeywords), 20)
	if len(r.Title) == 0 {
		t.Logf("no title extracted (layout change?)")
	}
}
