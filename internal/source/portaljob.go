package source

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobrisk/jobrisk/internal/keywords"
	"github.com/jobrisk/jobrisk/internal/model"
)

const (
	PortaljobName       = "portaljob"
	portaljobDefaultURL = "https://www.portaljob-madagascar.com"

	deadlineLabel = "Date limite :"
)

// Portaljob extracts listings from portaljob-madagascar.com. The site has a
// single listing feed, so category is only used to build the first page path.
type Portaljob struct {
	base *url.URL
}

var _ model.Source = (*Portaljob)(nil)

func NewPortaljob(baseURL string) (*Portaljob, error) {
	u, err := parseBase(baseURL, portaljobDefaultURL)
	if err != nil {
		return nil, err
	}
	return &Portaljob{base: u}, nil
}

func (p *Portaljob) Name() string { return PortaljobName }

// Identity matches on link, or on title and company when the site reposts an
// offer under a new link.
func (p *Portaljob) Identity() model.IdentityRule { return model.IdentityLinkOrTitleCompany }

// PageURL returns /emploi/{category} for page 1 and /emploi/{category}/page/N after.
// The usual category is "liste".
func (p *Portaljob) PageURL(category string, page int) string {
	if category == "" {
		category = "liste"
	}
	u := p.base.String() + "/emploi/" + url.PathEscape(strings.Trim(category, "/"))
	if page > 1 {
		u += fmt.Sprintf("/page/%d", page)
	}
	return u
}

var portaljobStrategies = []strategy{
	{"item_annonce", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("article.item_annonce")
	}},
	{"article_title", func(doc *goquery.Document) *goquery.Selection {
		return outermost(doc.Find("article").FilterFunction(singleTitle))
	}},
	{"title_and_date", func(doc *goquery.Document) *goquery.Selection {
		return dateContainers(doc, "aside.date_annonce")
	}},
}

func (p *Portaljob) Extract(markup string) (model.ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return model.ExtractResult{}, fmt.Errorf("parsing portaljob markup: %w", err)
	}

	containers, name := runWaterfall(doc, portaljobStrategies)
	res := model.ExtractResult{Strategy: name}
	containers.Each(func(_ int, s *goquery.Selection) {
		raw := p.extractOne(s)
		if raw[model.FieldTitle] == "" || raw[model.FieldLink] == "" {
			res.Skipped++
			return
		}
		res.Records = append(res.Records, raw)
	})
	return res, nil
}

func (p *Portaljob) extractOne(s *goquery.Selection) model.RawFields {
	raw := model.RawFields{}

	anchor := s.Find("h3 a").First()
	title := text(anchor)
	if title == "" {
		title = strings.TrimSpace(anchor.AttrOr("title", ""))
	}
	raw[model.FieldTitle] = title
	raw[model.FieldLink] = resolve(p.base, anchor.AttrOr("href", ""))
	raw[model.FieldCompany] = text(s.Find("h4").First())
	raw[model.FieldContractType] = text(s.Find("h5").First())
	raw[model.FieldJobTitle] = title

	desc := firstText(s, "a.description", ".description")
	if i := strings.Index(desc, deadlineLabel); i >= 0 {
		desc = strings.TrimSpace(desc[:i])
	}
	raw[model.FieldDescription] = desc

	raw[model.FieldDate] = portaljobDate(s)

	deadline := text(s.Find("i.date_lim").First())
	raw[model.FieldDeadline] = strings.TrimSpace(strings.TrimPrefix(deadline, deadlineLabel))

	if s.Find("div.urgent_flag").Length() > 0 {
		raw[model.FieldUrgent] = "oui"
	}

	raw[model.FieldSector] = keywords.InferSector(title + " " + desc)
	raw[model.FieldReference] = ExtractReference(title)
	return raw
}

// portaljobDate rebuilds "15 nov 2024" from the split date block. Offers
// flagged "prem" were posted today.
func portaljobDate(s *goquery.Selection) string {
	block := s.Find("aside.date_annonce div.date").First()
	if s.HasClass("prem") || block.HasClass("prem") {
		return "aujourd'hui"
	}
	day := text(block.Find("b").First())
	month := text(block.Find("span.mois").First())
	year := text(block.Find("span.annee").First())
	if day == "" || month == "" || year == "" {
		return text(block)
	}
	return day + " " + month + " " + year
}
