package scraper

import (
	"context"
	"errors"

	"github.com/setu007/play-scraper-render/internal/playstore"
	"github.com/setu007/play-scraper-render/pkg/models"
)

var errUnusable = errors.New("unusable metadata")

// Resolver turns one app id into normalized metadata. Failures are always
// *ResolutionError.
type Resolver interface {
	Resolve(ctx context.Context, appID string) (models.AppMetadata, error)
}

// APIResolver resolves metadata through the catalog API's detail endpoint.
type APIResolver struct {
	API *playstore.APIClient
}

func (r *APIResolver) Resolve(ctx context.Context, appID string) (models.AppMetadata, error) {
	rec, err := r.API.App(ctx, appID)
	if err != nil {
		return models.AppMetadata{}, &ResolutionError{AppID: appID, Err: err}
	}
	f := fieldsFromRecord(rec)
	if !f.usable() {
		return models.AppMetadata{}, &ResolutionError{AppID: appID, Err: errUnusable}
	}
	return Normalize(appID, f), nil
}

// usable reports whether the upstream gave us anything to identify the app
// or its publisher. Error envelopes such as {"error":"quota exceeded"} and
// blank pages have neither.
func (f Fields) usable() bool {
	return f.Title != "" || f.PublisherID != "" || f.PublisherName != ""
}

// fieldsFromRecord maps the API shapes seen across versions. The developer
// may be a plain name or an object carrying id and name.
func fieldsFromRecord(rec playstore.Record) Fields {
	f := Fields{
		AppID:         rec.String("appId", "app_id", "app", "id"),
		PublisherID:   rec.String("developerId", "developer_id", "devId"),
		PublisherName: rec.String("developer", "developerName", "developer_name"),
		Title:         rec.String("title", "name"),
	}

	if dev := rec.Object("developer"); dev != nil {
		if f.PublisherID == "" {
			f.PublisherID = dev.String("devId", "id")
		}
		if f.PublisherName == "" {
			f.PublisherName = dev.String("name")
		}
	}

	for _, k := range []string{"updated", "lastUpdated", "updatedAt", "last_updated"} {
		if v, ok := rec[k]; ok && v != nil {
			f.Updated = v
			break
		}
	}
	return f
}

// PageResolver resolves metadata by scraping the app's detail page.
type PageResolver struct {
	Pages *playstore.PageClient
}

func (r *PageResolver) Resolve(ctx context.Context, appID string) (models.AppMetadata, error) {
	d, err := r.Pages.Details(ctx, appID)
	if err != nil {
		return models.AppMetadata{}, &ResolutionError{AppID: appID, Err: err}
	}
	f := fieldsFromPage(d)
	if !f.usable() {
		return models.AppMetadata{}, &ResolutionError{AppID: appID, Err: errUnusable}
	}
	return Normalize(appID, f), nil
}

func fieldsFromPage(d playstore.PageDetails) Fields {
	f := Fields{
		AppID:         d.AppID,
		PublisherID:   d.DeveloperID,
		PublisherName: d.DeveloperName,
		Title:         d.Title,
	}
	if d.Updated != "" {
		f.Updated = d.Updated
	}
	return f
}
