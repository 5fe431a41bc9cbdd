package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/setu007/play-scraper-render/pkg/models"
)

// Header is the first line of every CSV report.
var Header = []string{"developerId", "developerName", "appCount", "latestUpdate", "sampleApps"}

// FormatDate renders a ms timestamp as a UTC calendar date, or "unknown" for 0.
func FormatDate(ms int64) string {
	if ms <= 0 {
		return "unknown"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}

// Row flattens one aggregate into CSV fields.
func Row(p models.PublisherAggregate) []string {
	return []string{
		p.PublisherID,
		p.Name,
		strconv.Itoa(p.AppCount),
		FormatDate(p.MostRecentUpdate),
		sampleApps(p.SampleTitles),
	}
}

func sampleApps(s []models.SampleApp) string {
	parts := make([]string, 0, len(s))
	for _, a := range s {
		parts = append(parts, a.Title+" ("+a.AppID+")")
	}
	return strings.Join(parts, " | ")
}

// CSV renders the header plus one line per aggregate. Every field is quoted,
// embedded quotes are doubled and lines are joined with a bare "\n" with no
// trailing newline. encoding/csv only quotes when needed, so lines are built
// by hand.
func CSV(rows []models.PublisherAggregate) []byte {
	lines := make([][]string, 0, len(rows)+1)
	lines = append(lines, Header)
	for _, p := range rows {
		lines = append(lines, Row(p))
	}
	return joinLines(lines)
}

func joinLines(lines [][]string) []byte {
	var b strings.Builder
	for i, fields := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, f := range fields {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(f, `"`, `""`))
			b.WriteByte('"')
		}
	}
	return []byte(b.String())
}
