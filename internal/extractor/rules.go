package extractor

import (
	"regexp"

	"golang.org/x/net/html"

	"purchase-drivers/internal/models"
)

// Predicate reports whether a node feeds a rule.
type Predicate func(n *html.Node) bool

// Rule sends the text of every matching node to Category. Fragments outside
// [MinRunes, MaxRunes] are dropped; MaxRunes 0 means unbounded.
type Rule struct {
	Name     string
	Category models.BlockCategory
	Match    Predicate
	MinRunes int
	MaxRunes int
}

var (
	titleIDRe    = regexp.MustCompile(`(?i)title|productTitle`)
	titleClassRe = regexp.MustCompile(`(?i)title|product-title`)
	// Go's \s is ASCII only; shops commonly put a no-break space before the currency.
	priceRe        = regexp.MustCompile(`(?i)(\d+[.,]\d{2})[\s\x{00A0}]?(€|eur|euros)`)
	descIDRe       = regexp.MustCompile(`(?i)productDescription|description`)
	descClassRe    = regexp.MustCompile(`(?i)description|product-desc|about|feature`)
	reviewClassRe  = regexp.MustCompile(`(?i)review|opini[oó]n|valoraci[oó]n|rating`)
	commentClassRe = regexp.MustCompile(`(?i)comment`)
)

// DefaultRules is the product-page rule set. Order matters: fragments are
// emitted rule by rule, each rule in document order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "h1", Category: models.BlockTitle, Match: Tag("h1"), MinRunes: 6},
		{Name: "title-id", Category: models.BlockTitle, Match: AttrMatches("id", titleIDRe), MinRunes: 6},
		{Name: "title-class", Category: models.BlockTitle, Match: AttrMatches("class", titleClassRe), MinRunes: 6},

		{Name: "price-text", Category: models.BlockPrice, Match: TextMatches(priceRe)},

		{Name: "description-id", Category: models.BlockDescription, Match: AttrMatches("id", descIDRe), MinRunes: 41},
		{Name: "description-class", Category: models.BlockDescription, Match: AttrMatches("class", descClassRe), MinRunes: 41},

		{Name: "review-body", Category: models.BlockReview, Match: AttrEquals("data-hook", "review-body"), MinRunes: 20, MaxRunes: 2000},
		{Name: "review-class", Category: models.BlockReview, Match: AttrMatches("class", reviewClassRe), MinRunes: 20, MaxRunes: 2000},
		{Name: "q", Category: models.BlockReview, Match: Tag("q"), MinRunes: 20, MaxRunes: 2000},
		{Name: "blockquote", Category: models.BlockReview, Match: Tag("blockquote"), MinRunes: 20, MaxRunes: 2000},
		{Name: "comment-paragraph", Category: models.BlockReview, Match: All(Tag("p"), AttrMatches("class", commentClassRe)), MinRunes: 20, MaxRunes: 2000},
	}
}

// Tag matches elements by lowercase tag name.
func Tag(name string) Predicate {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == name
	}
}

// AttrMatches matches elements carrying key whose value contains a match of re.
func AttrMatches(key string, re *regexp.Regexp) Predicate {
	return func(n *html.Node) bool {
		v, ok := attr(n, key)
		return ok && re.MatchString(v)
	}
}

// AttrEquals matches elements whose key attribute is exactly val.
func AttrEquals(key, val string) Predicate {
	return func(n *html.Node) bool {
		v, ok := attr(n, key)
		return ok && v == val
	}
}

// TextMatches matches text nodes containing a match of re.
func TextMatches(re *regexp.Regexp) Predicate {
	return func(n *html.Node) bool {
		return n.Type == html.TextNode && re.MatchString(n.Data)
	}
}

// All matches when every predicate does.
func All(ps ...Predicate) Predicate {
	return func(n *html.Node) bool {
		for _, p := range ps {
			if !p(n) {
				return false
			}
		}
		return true
	}
}

func attr(n *html.Node, key string) (string, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
