package source

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jobrisk/jobrisk/internal/keywords"
	"github.com/jobrisk/jobrisk/internal/model"
)

const (
	AsakoName       = "asako"
	asakoDefaultURL = "https://www.asako.mg"

	asakoMaxDescription = 200
)

// Asako extracts listings from asako.mg category pages.
type Asako struct {
	base *url.URL
}

var _ model.Source = (*Asako)(nil)

func NewAsako(baseURL string) (*Asako, error) {
	u, err := parseBase(baseURL, asakoDefaultURL)
	if err != nil {
		return nil, err
	}
	return &Asako{base: u}, nil
}

func (a *Asako) Name() string { return AsakoName }

func (a *Asako) Identity() model.IdentityRule { return model.IdentityLink }

// PageURL returns /{category} for the first page and /{category}?page=N after.
func (a *Asako) PageURL(category string, page int) string {
	u := a.base.String() + "/" + url.PathEscape(strings.Trim(category, "/"))
	if page > 1 {
		u += fmt.Sprintf("?page=%d", page)
	}
	return u
}

var asakoStrategies = []strategy{
	{"flex_item", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("div.d-flex.item")
	}},
	{"item_class", func(doc *goquery.Document) *goquery.Selection {
		return outermost(doc.Find("[class*='item']").FilterFunction(singleTitle))
	}},
	{"offer_class", func(doc *goquery.Document) *goquery.Selection {
		return outermost(doc.Find("[class*='offer']").FilterFunction(singleTitle))
	}},
	{"title_and_date", func(doc *goquery.Document) *goquery.Selection {
		return dateContainers(doc, "span.date-pub")
	}},
}

func singleTitle(_ int, s *goquery.Selection) bool {
	return s.Find(titleAnchor).Length() == 1
}

func (a *Asako) Extract(markup string) (model.ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return model.ExtractResult{}, fmt.Errorf("parsing asako markup: %w", err)
	}

	containers, name := runWaterfall(doc, asakoStrategies)
	res := model.ExtractResult{Strategy: name}
	containers.Each(func(_ int, s *goquery.Selection) {
		raw := a.extractOne(s)
		if raw[model.FieldTitle] == "" || raw[model.FieldLink] == "" {
			res.Skipped++
			return
		}
		res.Records = append(res.Records, raw)
	})
	return res, nil
}

func (a *Asako) extractOne(s *goquery.Selection) model.RawFields {
	raw := model.RawFields{}

	anchor := s.Find("h3 a").First()
	title := text(anchor)
	if title == "" {
		title = strings.TrimSpace(anchor.AttrOr("title", ""))
	}
	if title == "" {
		title = text(s.Find("h3").First())
	}
	raw[model.FieldTitle] = title

	href := anchor.AttrOr("href", "")
	if !strings.Contains(href, "/annonces/") && !strings.Contains(href, "/offre/") {
		if alt := s.Find("a[href*='/annonces/'], a[href*='/offre/']").First(); alt.Length() > 0 {
			href = alt.AttrOr("href", "")
		}
	}
	raw[model.FieldLink] = resolve(a.base, href)

	raw[model.FieldCompany] = asakoCompany(s)
	raw[model.FieldDate] = text(s.Find("span.date-pub").First())
	raw[model.FieldContractType] = text(s.Find("span.contrat-type").First())
	raw[model.FieldSector] = text(s.Find("a[href*='/emploi/s-']").First())
	raw[model.FieldJobTitle] = text(s.Find("a[href*='/emploi/m-']").First())
	raw[model.FieldLocation] = text(s.Find("a[href*='/emploi/v-']").First())

	desc := firstText(s, "p.description", ".description")
	if r := []rune(desc); len(r) > asakoMaxDescription {
		desc = string(r[:asakoMaxDescription]) + "..."
	}
	raw[model.FieldDescription] = desc

	if raw[model.FieldSector] == "" {
		raw[model.FieldSector] = keywords.InferSector(title + " " + desc)
	}
	raw[model.FieldReference] = ExtractReference(title)
	return raw
}

// asakoCompany prefers the company profile slug, which is always present,
// over the display text, which is often truncated.
func asakoCompany(s *goquery.Selection) string {
	if href, ok := s.Find("a[href*='/profil-entreprise/']").First().Attr("href"); ok {
		slug := href[strings.Index(href, "/profil-entreprise/")+len("/profil-entreprise/"):]
		slug = strings.Trim(strings.SplitN(slug, "?", 2)[0], "/")
		if slug != "" {
			name := strings.ReplaceAll(slug, "-", " ")
			return cases.Title(language.French).String(name)
		}
	}
	return firstText(s, "span.company", ".company")
}
