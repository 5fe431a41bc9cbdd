// Package mirror serves a local, file-backed copy of the catalog API so runs
// can be exercised without reaching the real store.
package mirror

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type App struct {
	AppID       string   `json:"appId"`
	Title       string   `json:"title"`
	DeveloperID string   `json:"developerId,omitempty"`
	Developer   string   `json:"developer,omitempty"`
	Updated     any      `json:"updated,omitempty"` // ms number or date string, passed through as-is
	Category    string   `json:"category,omitempty"`
	Collections []string `json:"collections,omitempty"`
	Summary     string   `json:"summary,omitempty"`
}

type Catalog struct {
	Apps []App `json:"apps"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var cat Catalog
	if err := json.Unmarshal(b, &cat); err != nil {
		return nil, fmt.Errorf("catalog %s invalid JSON: %w", path, err)
	}
	for i, a := range cat.Apps {
		if strings.TrimSpace(a.AppID) == "" {
			return nil, fmt.Errorf("catalog %s: app #%d has no appId", path, i)
		}
	}
	return &cat, nil
}

// Write stores cat at path, creating the directory.
func Write(path string, cat *Catalog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// List returns apps in file order that belong to collection and category.
// Empty filters match everything, as does the umbrella category APPLICATION;
// an app without collections is in all of them.
func (c *Catalog) List(collection, category string, num int) []App {
	out := make([]App, 0, num)
	for _, a := range c.Apps {
		if len(out) >= num {
			break
		}
		if !inCategory(a, category) {
			continue
		}
		if collection != "" && len(a.Collections) > 0 && !containsFold(a.Collections, collection) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Search matches term against title, developer and summary.
func (c *Catalog) Search(term string, num int) []App {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]App, 0, num)
	if term == "" {
		return out
	}
	for _, a := range c.Apps {
		if len(out) >= num {
			break
		}
		hay := strings.ToLower(a.Title + " " + a.Developer + " " + a.Summary)
		if strings.Contains(hay, term) {
			out = append(out, a)
		}
	}
	return out
}

func (c *Catalog) Get(appID string) (App, bool) {
	for _, a := range c.Apps {
		if a.AppID == appID {
			return a, true
		}
	}
	return App{}, false
}

func inCategory(a App, category string) bool {
	if category == "" || a.Category == "" || strings.EqualFold(category, "APPLICATION") {
		return true
	}
	return strings.EqualFold(a.Category, category)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// Sample is a small catalog for demos: one stale single-app publisher, one
// stale pair and one busy publisher.
func Sample() *Catalog {
	return &Catalog{Apps: []App{
		{AppID: "com.quietlabs.unitconvert", Title: "Unit Converter Classic", DeveloperID: "7001", Developer: "Quiet Labs",
			Updated: "2019-04-12", Category: "TOOLS", Summary: "Offline unit conversion tools"},
		{AppID: "com.oldnotes.pad", Title: "Old Notes Pad", DeveloperID: "7002", Developer: "Old Notes",
			Updated: "March 3, 2020", Category: "PRODUCTIVITY", Summary: "Plain text notes"},
		{AppID: "com.oldnotes.todo", Title: "Old Notes Todo", DeveloperID: "7002", Developer: "Old Notes",
			Updated: 1546300800000, Category: "PRODUCTIVITY", Summary: "Todo lists and productivity"},
		{AppID: "com.busy.studio.flash", Title: "Flash Study", DeveloperID: "7003", Developer: "Busy Studio",
			Updated: "2025-09-01", Category: "EDUCATION", Summary: "Flashcards for education"},
		{AppID: "com.busy.studio.math", Title: "Math Drills", DeveloperID: "7003", Developer: "Busy Studio",
			Updated: "2025-08-15", Category: "EDUCATION", Summary: "Math practice"},
	}}
}
