package playstore

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// FeedClient reads app listings published as RSS or Atom feeds, such as
// third-party "top new apps" charts. Items are expected to link to store
// detail pages.
type FeedClient struct {
	Client *Client
	Parser *gofeed.Parser
}

func NewFeedClient(client *Client) *FeedClient {
	return &FeedClient{Client: client, Parser: gofeed.NewParser()}
}

// ListIDs returns distinct app ids linked from the feed items, in feed order.
func (f *FeedClient) ListIDs(ctx context.Context, feedURL string, limit int) ([]string, error) {
	body, err := f.Client.Get(ctx, feedURL, "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.1")
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}

	feed, err := f.Parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("feed: parse: %w", err)
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, it := range feed.Items {
		if limit > 0 && len(ids) >= limit {
			break
		}
		id := AppIDFromURL(it.Link)
		if id == "" {
			id = AppIDFromURL(it.GUID)
		}
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
