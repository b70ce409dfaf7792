package crawler

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrNonHTML    = errors.New("non-html content")
	ErrStatus     = errors.New("unexpected http status")
)

// Browser user agents rotated per attempt; some shops answer 403 to anything else.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

type Options struct {
	Timeout     time.Duration
	DialTimeout time.Duration
	SizeCap     int64
	// Attempts is the total number of tries, including the first.
	Attempts int
	// InitialBackoff is the wait before the second attempt; it grows after that.
	InitialBackoff time.Duration
	// Cookies in "k1=v1; k2=v2" form, sent with every request.
	Cookies string
	// AcceptLanguage defaults to the LANG environment variable.
	AcceptLanguage string
}

func DefaultOptions() Options {
	return Options{
		Timeout:        25 * time.Second,
		DialTimeout:    5 * time.Second,
		SizeCap:        5 * 1024 * 1024,
		Attempts:       3,
		InitialBackoff: 800 * time.Millisecond,
		Cookies:        os.Getenv("SCRAPE_COOKIES"),
	}
}

type HTTPClient struct {
	client  *http.Client
	opts    Options
	cookies []*http.Cookie
	pickUA  func() string
}

// Page is a fetched, size-capped HTML body.
type Page struct {
	Body        []byte
	FinalURL    string
	ContentType string
	Elapsed     time.Duration
	Attempts    int
}

func NewHTTPClient(opts Options) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts:    opts,
		cookies: ParseCookies(opts.Cookies),
		pickUA:  func() string { return userAgents[rand.Intn(len(userAgents))] },
	}
}

// ParseCookies reads "k1=v1; k2=v2"; malformed pairs are skipped.
func ParseCookies(s string) []*http.Cookie {
	var out []*http.Cookie
	for _, kv := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out = append(out, &http.Cookie{Name: k, Value: strings.TrimSpace(v)})
	}
	return out
}

// Fetch downloads rawURL, retrying transport errors, 403, 429 and 5xx
// responses with exponential backoff. Other statuses fail immediately.
func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (Page, error) {
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Page{}, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = h.opts.InitialBackoff
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(h.opts.Attempts-1)), ctx)

	var page Page
	attempts := 0
	op := func() error {
		attempts++
		p, err := h.fetchOnce(ctx, u)
		if err != nil {
			return err
		}
		page = p
		return nil
	}
	if err := backoff.Retry(op, policy); err != nil {
		return Page{}, err
	}
	page.Elapsed = time.Since(start)
	page.Attempts = attempts
	return page, nil
}

func (h *HTTPClient) fetchOnce(ctx context.Context, u *url.URL) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, backoff.Permanent(err)
	}
	h.setHeaders(req, u)

	resp, err := h.client.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		err := fmt.Errorf("%w %d", ErrStatus, resp.StatusCode)
		if retryable(resp.StatusCode) {
			return Page{}, err
		}
		return Page{}, backoff.Permanent(err)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") && mediaType != "" {
		// still allow if empty (some servers omit), otherwise reject non-html
		return Page{}, backoff.Permanent(fmt.Errorf("%w: %s", ErrNonHTML, mediaType))
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return Page{}, backoff.Permanent(fmt.Errorf("gzip: %w", err))
		}
		defer gz.Close()
		body = gz
	}

	// enforce a size cap
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(body, h.opts.SizeCap)); err != nil {
		return Page{}, fmt.Errorf("read body: %w", err)
	}

	return Page{
		Body:        buf.Bytes(),
		FinalURL:    resp.Request.URL.String(),
		ContentType: contentType,
	}, nil
}

func (h *HTTPClient) setHeaders(req *http.Request, u *url.URL) {
	lang := h.opts.AcceptLanguage
	if lang == "" {
		lang = os.Getenv("LANG")
	}
	if lang == "" {
		lang = "es-ES,es;q=0.9,en;q=0.8"
	}
	req.Header.Set("User-Agent", h.pickUA())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", lang)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Referer", "https://"+u.Host+"/")
	for _, c := range h.cookies {
		req.AddCookie(c)
	}
}

func retryable(status int) bool {
	switch status {
	case http.StatusForbidden, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
