package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

type Parser struct{}

func New() *Parser { return &Parser{} }

// Document is a parsed page. Root is what the analyzer consumes; Title and
// Lang are only used for logging.
type Document struct {
	Root  *html.Node
	Title string
	Lang  string
}

func (p *Parser) Parse(r io.Reader, contentType string) (Document, error) {
	// Decode to UTF-8 if needed
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read body: %w", err)
	}

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return Document{}, fmt.Errorf("decode body: %w", err)
		}
		utf8data = data
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8data))
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}

	lang := strings.TrimSpace(doc.Find("html").AttrOr("lang", ""))
	if lang == "" {
		lang = strings.TrimSpace(doc.Find(`meta[property="og:locale"]`).AttrOr("content", ""))
	}

	return Document{
		Root:  doc.Get(0),
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Lang:  lang,
	}, nil
}
