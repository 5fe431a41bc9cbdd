package playstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrMalformed is returned when a listing response is not a sequence of apps.
var ErrMalformed = errors.New("malformed response")

// Record is one app entry as returned by the catalog API. Field names vary
// between API versions, so records stay untyped until the resolver
// normalizes them.
type Record map[string]any

// APIClient talks to a JSON catalog API shaped like the google-play-scraper
// REST wrappers:
//
//	GET {BaseURL}/api/apps?collection=topselling_free&category=APPLICATION&num=20
//	GET {BaseURL}/api/apps?q=tools&num=20
//	GET {BaseURL}/api/apps/{appId}
//
// Lists come back either as a bare JSON array or wrapped in {"results": [...]}.
type APIClient struct {
	BaseURL string
	Country string
	Lang    string
	Client  *Client
}

func NewAPIClient(baseURL string, client *Client) *APIClient {
	return &APIClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Country: "in",
		Lang:    "en",
		Client:  client,
	}
}

// List returns a popularity-ranked listing for a collection/category pair.
func (a *APIClient) List(ctx context.Context, collection, category string, num int) ([]Record, error) {
	q := a.baseQuery()
	q.Set("collection", collection)
	q.Set("category", category)
	q.Set("num", strconv.Itoa(num))

	body, err := a.Client.Get(ctx, a.BaseURL+"/api/apps?"+q.Encode(), "application/json")
	if err != nil {
		return nil, fmt.Errorf("catalog api: list: %w", err)
	}
	recs, err := decodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("catalog api: list: %w", err)
	}
	return recs, nil
}

// Search returns apps matching term, at most num of them.
func (a *APIClient) Search(ctx context.Context, term string, num int) ([]Record, error) {
	q := a.baseQuery()
	q.Set("q", term)
	q.Set("num", strconv.Itoa(num))

	body, err := a.Client.Get(ctx, a.BaseURL+"/api/apps?"+q.Encode(), "application/json")
	if err != nil {
		return nil, fmt.Errorf("catalog api: search: %w", err)
	}
	recs, err := decodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("catalog api: search: %w", err)
	}
	if len(recs) > num {
		recs = recs[:num]
	}
	return recs, nil
}

// App returns the raw detail record of one app.
func (a *APIClient) App(ctx context.Context, appID string) (Record, error) {
	u := a.BaseURL + "/api/apps/" + url.PathEscape(appID) + "?" + a.baseQuery().Encode()

	body, err := a.Client.Get(ctx, u, "application/json")
	if err != nil {
		return nil, fmt.Errorf("catalog api: app %s: %w", appID, err)
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("catalog api: app %s: decode: %w", appID, err)
	}
	return rec, nil
}

func (a *APIClient) baseQuery() url.Values {
	q := url.Values{}
	if a.Country != "" {
		q.Set("country", a.Country)
	}
	if a.Lang != "" {
		q.Set("lang", a.Lang)
	}
	return q
}

func decodeRecords(body []byte) ([]Record, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		res, ok := v["results"].([]any)
		if !ok {
			return nil, ErrMalformed
		}
		items = res
	default:
		return nil, ErrMalformed
	}

	out := make([]Record, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out, nil
}

// String returns the first non-empty string value among keys. Numbers are
// formatted, everything else is ignored.
func (r Record) String(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// Object returns the nested object under key, if any.
func (r Record) Object(key string) Record {
	if m, ok := r[key].(map[string]any); ok {
		return Record(m)
	}
	return nil
}
