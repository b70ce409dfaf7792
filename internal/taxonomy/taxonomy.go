// Package taxonomy holds the static purchase-driver configuration: the fixed
// set of driver categories, their keyword phrases, the negation markers and
// the alphabet tokens are drawn from.
//
// A Taxonomy is validated once at construction and never mutated afterwards;
// accessors hand out copies.
package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Driver is one of the fixed purchase-motivation categories.
type Driver string

const (
	Price                Driver = "price"
	Quality              Driver = "quality"
	Shipping             Driver = "shipping"
	BrandTrust           Driver = "brand_trust"
	Features             Driver = "features"
	Usability            Driver = "usability"
	Aesthetics           Driver = "aesthetics"
	FitCompatibility     Driver = "fit_compatibility"
	NeedGift             Driver = "need_gift"
	SocialRecommendation Driver = "social_recommendation"
)

var allDrivers = []Driver{
	Price, Quality, Shipping, BrandTrust, Features,
	Usability, Aesthetics, FitCompatibility, NeedGift, SocialRecommendation,
}

// All returns the fixed driver set in canonical order.
func All() []Driver {
	out := make([]Driver, len(allDrivers))
	copy(out, allDrivers)
	return out
}

// Known reports whether d belongs to the fixed driver set.
func Known(d Driver) bool {
	for _, k := range allDrivers {
		if k == d {
			return true
		}
	}
	return false
}

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid taxonomy configuration")

//go:embed default_es.yaml
var defaultES []byte

type fileDriver struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

type file struct {
	Language  string                `yaml:"language"`
	Alphabet  string                `yaml:"alphabet"`
	Negations []string              `yaml:"negations"`
	Drivers   map[string]fileDriver `yaml:"drivers"`
}

// Taxonomy is the immutable driver configuration.
type Taxonomy struct {
	language  string
	alphabet  string
	negations map[string]struct{}
	labels    map[Driver]string
	keywords  map[Driver][]string
}

// Spec is the in-memory form accepted by New.
type Spec struct {
	Language  string
	Alphabet  string
	Negations []string
	Labels    map[Driver]string
	Keywords  map[Driver][]string
}

// New validates s and builds a Taxonomy. Every driver in All must be
// present with at least one non-empty keyword; unknown drivers are rejected.
func New(s Spec) (*Taxonomy, error) {
	alphabet := norm.NFC.String(strings.ToLower(s.Alphabet))
	if strings.TrimSpace(alphabet) == "" {
		return nil, fmt.Errorf("%w: empty alphabet", ErrInvalidConfig)
	}
	if len(s.Negations) == 0 {
		return nil, fmt.Errorf("%w: empty negation set", ErrInvalidConfig)
	}
	for d := range s.Keywords {
		if !Known(d) {
			return nil, fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, d)
		}
	}

	t := &Taxonomy{
		language:  s.Language,
		alphabet:  alphabet,
		negations: make(map[string]struct{}, len(s.Negations)),
		labels:    make(map[Driver]string, len(allDrivers)),
		keywords:  make(map[Driver][]string, len(allDrivers)),
	}
	for _, n := range s.Negations {
		n = norm.NFC.String(strings.ToLower(strings.TrimSpace(n)))
		if n == "" {
			return nil, fmt.Errorf("%w: empty negation marker", ErrInvalidConfig)
		}
		t.negations[n] = struct{}{}
	}
	for _, d := range allDrivers {
		kws, ok := s.Keywords[d]
		if !ok {
			return nil, fmt.Errorf("%w: missing driver %q", ErrInvalidConfig, d)
		}
		if len(kws) == 0 {
			return nil, fmt.Errorf("%w: driver %q has no keywords", ErrInvalidConfig, d)
		}
		list := make([]string, 0, len(kws))
		for _, kw := range kws {
			kw = norm.NFC.String(strings.ToLower(strings.TrimSpace(kw)))
			if kw == "" {
				return nil, fmt.Errorf("%w: driver %q has an empty keyword", ErrInvalidConfig, d)
			}
			list = append(list, kw)
		}
		t.keywords[d] = list
		label := s.Labels[d]
		if label == "" {
			label = string(d)
		}
		t.labels[d] = label
	}
	return t, nil
}

// Parse decodes a YAML taxonomy document.
func Parse(data []byte) (*Taxonomy, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	s := Spec{
		Language:  f.Language,
		Alphabet:  f.Alphabet,
		Negations: f.Negations,
		Labels:    make(map[Driver]string, len(f.Drivers)),
		Keywords:  make(map[Driver][]string, len(f.Drivers)),
	}
	for name, d := range f.Drivers {
		s.Labels[Driver(name)] = d.Label
		s.Keywords[Driver(name)] = d.Keywords
	}
	return New(s)
}

// Load reads and parses a YAML taxonomy file.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse taxonomy %s: %w", path, err)
	}
	return t, nil
}

// Default returns the embedded Spanish taxonomy.
func Default() (*Taxonomy, error) {
	return Parse(defaultES)
}

// MustDefault is Default for program start-up; it panics on a broken embed.
func MustDefault() *Taxonomy {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Taxonomy) Language() string { return t.language }

// Alphabet returns the lowercase runes that may appear in a token.
func (t *Taxonomy) Alphabet() string { return t.alphabet }

// Label returns the display name of d in the taxonomy's language.
func (t *Taxonomy) Label(d Driver) string {
	if l, ok := t.labels[d]; ok {
		return l
	}
	return string(d)
}

// Keywords returns a copy of the keyword phrases for d, lowercased and NFC-normalized.
func (t *Taxonomy) Keywords(d Driver) []string {
	kws := t.keywords[d]
	out := make([]string, len(kws))
	copy(out, kws)
	return out
}

// IsNegation reports whether token is a negation marker.
func (t *Taxonomy) IsNegation(token string) bool {
	_, ok := t.negations[token]
	return ok
}

// Negations returns the negation markers in no particular order.
func (t *Taxonomy) Negations() []string {
	out := make([]string, 0, len(t.negations))
	for n := range t.negations {
		out = append(out, n)
	}
	return out
}
