package playstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const htmlAccept = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"

// PageDetails is what can be read off an app detail page. Values are raw
// strings; normalization happens in the resolver.
type PageDetails struct {
	AppID         string
	Title         string
	DeveloperID   string
	DeveloperName string
	Updated       string
}

// PageClient scrapes the public store pages.
type PageClient struct {
	BaseURL string
	Country string
	Lang    string
	Client  *Client
}

func NewPageClient(baseURL string, client *Client) *PageClient {
	return &PageClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Country: "in",
		Lang:    "en",
		Client:  client,
	}
}

// SearchIDs returns app ids linked from the search results page for term.
func (p *PageClient) SearchIDs(ctx context.Context, term string, limit int) ([]string, error) {
	q := p.baseQuery()
	q.Set("q", term)
	q.Set("c", "apps")

	doc, err := p.fetch(ctx, p.BaseURL+"/store/search?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("store page: search: %w", err)
	}
	return extractAppIDs(doc, limit), nil
}

// CategoryIDs returns app ids linked from a category page. The page is not
// keyword-scoped.
func (p *PageClient) CategoryIDs(ctx context.Context, category string, limit int) ([]string, error) {
	u := p.BaseURL + "/store/apps/category/" + url.PathEscape(category) + "?" + p.baseQuery().Encode()

	doc, err := p.fetch(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("store page: category: %w", err)
	}
	return extractAppIDs(doc, limit), nil
}

// Details scrapes the detail page of one app.
func (p *PageClient) Details(ctx context.Context, appID string) (PageDetails, error) {
	q := p.baseQuery()
	q.Set("id", appID)

	doc, err := p.fetch(ctx, p.BaseURL+"/store/apps/details?"+q.Encode())
	if err != nil {
		return PageDetails{}, fmt.Errorf("store page: details %s: %w", appID, err)
	}
	d := parseDetails(doc)
	d.AppID = appID
	return d, nil
}

func (p *PageClient) fetch(ctx context.Context, u string) (*goquery.Document, error) {
	body, err := p.Client.Get(ctx, u, htmlAccept)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func (p *PageClient) baseQuery() url.Values {
	q := url.Values{}
	if p.Lang != "" {
		q.Set("hl", p.Lang)
	}
	if p.Country != "" {
		q.Set("gl", p.Country)
	}
	return q
}

// extractAppIDs collects distinct ids from links to detail pages, in
// document order.
func extractAppIDs(doc *goquery.Document, limit int) []string {
	seen := make(map[string]struct{})
	var ids []string
	doc.Find(`a[href*="details?id="]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		id := AppIDFromURL(href)
		if id == "" {
			return true
		}
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		return limit <= 0 || len(ids) < limit
	})
	return ids
}

// AppIDFromURL returns the id query parameter of a detail page link.
func AppIDFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	if !strings.Contains(u.Path, "details") {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("id"))
}

type ldApp struct {
	Type   string `json:"@type"`
	Name   string `json:"name"`
	Author struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"author"`
	DateModified string `json:"dateModified"`
}

var reUpdatedOn = regexp.MustCompile(`(?i)updated on\s*([A-Za-z]{3,9}\.? \d{1,2}, \d{4}|\d{1,2} [A-Za-z]{3,9} \d{4})`)

func parseDetails(doc *goquery.Document) PageDetails {
	var d PageDetails

	// JSON-LD block first, it is the most stable part of the page.
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var ld ldApp
		if err := json.Unmarshal([]byte(s.Text()), &ld); err != nil {
			return true
		}
		if ld.Type != "SoftwareApplication" && ld.Type != "MobileApplication" {
			return true
		}
		d.Title = strings.TrimSpace(ld.Name)
		d.DeveloperName = strings.TrimSpace(ld.Author.Name)
		d.DeveloperID = developerIDFromURL(ld.Author.URL)
		d.Updated = strings.TrimSpace(ld.DateModified)
		return false
	})

	if d.Title == "" {
		d.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if d.Title == "" {
		d.Title = strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	}

	if d.DeveloperID == "" || d.DeveloperName == "" {
		dev := doc.Find(`a[href*="/store/apps/dev"]`).First()
		if d.DeveloperID == "" {
			d.DeveloperID = developerIDFromURL(dev.AttrOr("href", ""))
		}
		if d.DeveloperName == "" {
			d.DeveloperName = strings.TrimSpace(dev.Text())
		}
	}

	if d.Updated == "" {
		d.Updated = updatedLabel(doc)
	}
	return d
}

// updatedLabel finds the "Updated on" value, either as the sibling of a label
// element or inline in the page text.
func updatedLabel(doc *goquery.Document) string {
	var out string
	doc.Find("div, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.Text()), "updated on") {
			return true
		}
		out = strings.TrimSpace(s.Next().Text())
		return out == ""
	})
	if out != "" {
		return out
	}

	if v := doc.Find(`[itemprop="datePublished"]`).First(); v.Length() > 0 {
		if c := strings.TrimSpace(v.AttrOr("content", "")); c != "" {
			return c
		}
		return strings.TrimSpace(v.Text())
	}

	if m := reUpdatedOn.FindStringSubmatch(doc.Text()); m != nil {
		return m[1]
	}
	return ""
}

func developerIDFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	if !strings.Contains(u.Path, "/dev") {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("id"))
}
