// Package source holds one goquery extractor per job board. Every extractor
// satisfies model.Source and tries a fixed waterfall of container strategies,
// keeping the first one that finds anything.
package source

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jobrisk/jobrisk/internal/model"
)

// strategy locates the repeated listing containers in a page.
type strategy struct {
	name string
	find func(doc *goquery.Document) *goquery.Selection
}

// runWaterfall returns the containers of the first strategy with a non-empty
// result, and that strategy's name.
func runWaterfall(doc *goquery.Document, strategies []strategy) (*goquery.Selection, string) {
	for _, s := range strategies {
		if sel := s.find(doc); sel.Length() > 0 {
			return sel, s.name
		}
	}
	return doc.Selection.Slice(0, 0), ""
}

// titleAnchor marks a listing title in every supported board.
const titleAnchor = "h3 a"

// outermost drops every element nested inside another element of sel, so a
// listing wrapped in several matching classes is kept once.
func outermost(sel *goquery.Selection) *goquery.Selection {
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Parents().FilterSelection(sel).Length() == 0
	})
}

// dateContainers maps every date match to its nearest ancestor holding a
// title anchor, without duplicates. An ancestor holding several titles, as in
// a flat list with no per-listing wrapper, is split into one block per h3.
func dateContainers(doc *goquery.Document, date string) *goquery.Selection {
	seen := make(map[*html.Node]bool)
	var ancestors []*goquery.Selection
	doc.Find(date).Each(func(_ int, s *goquery.Selection) {
		p := s.Parents().FilterFunction(func(_ int, p *goquery.Selection) bool {
			return p.Find(titleAnchor).Length() > 0
		}).First()
		if p.Length() == 0 || seen[p.Get(0)] {
			return
		}
		seen[p.Get(0)] = true
		ancestors = append(ancestors, p)
	})

	covered := make(map[*html.Node]bool)
	for _, p := range ancestors {
		if a := p.Find(titleAnchor); a.Length() == 1 {
			covered[a.Get(0)] = true
		}
	}

	var nodes []*html.Node
	for _, p := range ancestors {
		if p.Find(titleAnchor).Length() == 1 {
			nodes = append(nodes, p.Get(0))
			continue
		}
		p.Find("h3").Each(func(_ int, h *goquery.Selection) {
			a := h.Find("a").First()
			if a.Length() == 0 || covered[a.Get(0)] {
				return
			}
			covered[a.Get(0)] = true
			nodes = append(nodes, titleBlock(h))
		})
	}
	return doc.Selection.Slice(0, 0).AddNodes(nodes...)
}

// titleBlock copies h and its following siblings up to the next h3 into a
// detached div that reads like a per-listing wrapper.
func titleBlock(h *goquery.Selection) *html.Node {
	block := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range h.AddSelection(h.NextUntil("h3")).Clone().Nodes {
		block.AppendChild(n)
	}
	return block
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func firstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if t := text(s.Find(sel).First()); t != "" {
			return t
		}
	}
	return ""
}

// resolve turns href into an absolute URL against base.
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// Keywords match in any case; the code itself must be upper case or digits.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?i:r[ée]f[ée]rence)(?:\s*[:.]\s*|\s+)([A-Z0-9][A-Z0-9\-_/]*)`),
	regexp.MustCompile(`\b(?i:r[ée]f)(?:\s*[:.]\s*|\s+)([A-Z0-9][A-Z0-9\-_/]*)`),
	regexp.MustCompile(`-\s*([A-Z0-9][A-Z0-9\-_/]*)\s*$`),
}

// ExtractReference pulls an offer reference out of a title, e.g.
// "Comptable (Réf: CPT-2024)" or "Chauffeur - DRV01". A trailing code must
// contain a digit so plain words such as "CDI" are not taken for one.
func ExtractReference(title string) string {
	for i, re := range referencePatterns {
		m := re.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		ref := strings.Trim(m[1], "-_/")
		if i == len(referencePatterns)-1 && !strings.ContainsAny(ref, "0123456789") {
			continue
		}
		if ref != "" {
			return ref
		}
	}
	return ""
}

// Constructor builds a Source for a base URL.
type Constructor func(baseURL string) (model.Source, error)

var registry = map[string]Constructor{
	AsakoName:     func(base string) (model.Source, error) { return NewAsako(base) },
	PortaljobName: func(base string) (model.Source, error) { return NewPortaljob(base) },
}

// New returns the named source. An empty baseURL uses the source's default.
func New(name, baseURL string) (model.Source, error) {
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("source %q: %w", name, model.ErrUnknownSource)
	}
	return c(baseURL)
}

// Names lists the registered sources in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// withIdentity overrides a source's identity rule.
type withIdentity struct {
	model.Source
	rule model.IdentityRule
}

func (w withIdentity) Identity() model.IdentityRule { return w.rule }

// WithIdentity returns src with its identity rule replaced by rule.
// An empty rule returns src unchanged.
func WithIdentity(src model.Source, rule model.IdentityRule) model.Source {
	if rule == "" || rule == src.Identity() {
		return src
	}
	return withIdentity{Source: src, rule: rule}
}

func parseBase(raw, def string) (*url.URL, error) {
	if raw == "" {
		raw = def
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", raw)
	}
	return u, nil
}
