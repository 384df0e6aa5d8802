package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Selectors locate tender fields on a detail page.
type Selectors struct {
	Title        string
	Description  string
	Organization string
	Category     string
	Budget       string
	Deadline     string
	Email        string
	Phone        string
	Requirements string
}

var DefaultSelectors = Selectors{
	Title:        "h1",
	Description:  ".tender-description",
	Organization: ".tender-organization",
	Category:     ".tender-category",
	Budget:       ".tender-budget",
	Deadline:     ".tender-deadline",
	Email:        "a[href^='mailto:']",
	Phone:        ".tender-phone",
	Requirements: ".tender-requirements li",
}

// HTMLSource walks a portal listing page and parses each linked detail page.
type HTMLSource struct {
	BaseURL   string
	ListPath  string
	LinkSel   string
	MaxLinks  int
	Country   string
	Selectors Selectors
}

func NewHTMLSource(baseURL, country string) *HTMLSource {
	return &HTMLSource{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ListPath:  "/tenders",
		LinkSel:   "a.tender-link",
		MaxLinks:  10,
		Country:   country,
		Selectors: DefaultSelectors,
	}
}

// Fetch returns raw records for every detail page that could be parsed.
// A failing detail page is logged and skipped; a failing listing page is an error.
func (s *HTMLSource) Fetch(ctx context.Context, f *Fetcher, lg *zap.Logger) ([]RawTender, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	list, err := f.GetPage(ctx, s.BaseURL+s.ListPath)
	if err != nil {
		return nil, err
	}

	links := ListingLinks(list, s.LinkSel, s.MaxLinks)
	out := make([]RawTender, 0, len(links))
	for _, href := range links {
		ref, err := url.Parse(href)
		if err != nil {
			lg.Warn("bad tender link", zap.String("href", href), zap.Error(err))
			continue
		}
		pageURL := base.ResolveReference(ref).String()
		doc, err := f.GetPage(ctx, pageURL)
		if err != nil {
			lg.Warn("tender page skipped", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		raw := ParseTenderPage(doc, s.Selectors)
		raw.Country = s.Country
		if raw.Website == "" {
			raw.Website = pageURL
		}
		out = append(out, raw)
	}
	return out, nil
}

// ListingLinks returns up to limit hrefs matched by sel, in document order.
func ListingLinks(doc *goquery.Document, sel string, limit int) []string {
	var out []string
	doc.Find(sel).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if href, ok := a.Attr("href"); ok && strings.TrimSpace(href) != "" {
			out = append(out, strings.TrimSpace(href))
		}
		return limit <= 0 || len(out) < limit
	})
	return out
}

// ParseTenderPage extracts a raw record from a detail page. Budget text is run
// through ExtractBudget so currency words on the page are honoured.
func ParseTenderPage(doc *goquery.Document, sel Selectors) RawTender {
	text := func(q string) string {
		if q == "" {
			return ""
		}
		return CleanText(doc.Find(q).First().Text())
	}

	raw := RawTender{
		Title:        text(sel.Title),
		Description:  text(sel.Description),
		Organization: text(sel.Organization),
		Category:     text(sel.Category),
		Deadline:     text(sel.Deadline),
		ContactPhone: text(sel.Phone),
	}
	if sel.Email != "" {
		if href, ok := doc.Find(sel.Email).First().Attr("href"); ok {
			raw.ContactEmail = strings.TrimPrefix(href, "mailto:")
		}
	}
	if b := text(sel.Budget); b != "" {
		raw.Budget, raw.Currency = ExtractBudget(b)
	}
	if sel.Requirements != "" {
		doc.Find(sel.Requirements).Each(func(_ int, li *goquery.Selection) {
			if r := CleanText(li.Text()); r != "" {
				raw.Requirements = append(raw.Requirements, r)
			}
		})
	}
	return raw
}
