package extractor

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"purchase-drivers/internal/models"
)

// Extractor pulls categorized text fragments out of a parsed page.
// It never modifies the tree and keeps no state between calls.
type Extractor struct {
	rules []Rule
}

// New returns an Extractor over rules, or DefaultRules when none are given.
func New(rules ...Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Extractor{rules: cp}
}

// Extract runs every rule over doc. All block categories are present in the
// result, with an empty slice when nothing matched.
func (e *Extractor) Extract(doc *html.Node) models.Blocks {
	blocks := make(models.Blocks, 4)
	for _, c := range models.BlockCategories() {
		blocks[c] = []string{}
	}
	if doc == nil {
		return blocks
	}
	for _, r := range e.rules {
		if _, ok := blocks[r.Category]; !ok {
			blocks[r.Category] = []string{}
		}
		walk(doc, func(n *html.Node) {
			if !r.Match(n) {
				return
			}
			txt := Clean(nodeText(n))
			if r.keep(txt) {
				blocks[r.Category] = append(blocks[r.Category], txt)
			}
		})
	}
	return blocks
}

func (r Rule) keep(txt string) bool {
	n := utf8.RuneCountInString(txt)
	if n < r.MinRunes {
		return false
	}
	return r.MaxRunes == 0 || n <= r.MaxRunes
}

// Clean collapses whitespace runs to a single space and trims the ends.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// walk visits n and its descendants depth-first, skipping non-content subtrees.
func walk(n *html.Node, visit func(*html.Node)) {
	if skipped(n) {
		return
	}
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func skipped(n *html.Node) bool {
	if n.Type == html.CommentNode {
		return true
	}
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}

// nodeText joins the descendant text of n with single spaces.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var parts []string
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			parts = append(parts, c.Data)
		}
	})
	return strings.Join(parts, " ")
}
