package normalize

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
)

// DefaultSiteURL is the base of the canonical deep links.
const DefaultSiteURL = "http://trakt.tv"

// Options are the per-run settings for Normalize.
type Options struct {
	// ListType is the only kind admitted into the output.
	ListType Kind
	// StripDates removes a trailing " (YYYY)" from titles.
	StripDates bool
	// SiteURL overrides DefaultSiteURL.
	SiteURL string
}

// Item is a normalized output record: a flat map from field name to scalar.
type Item map[string]any

// Title returns the item's title, or "" when it is missing or not a string.
func (it Item) Title() string {
	s, _ := it[FieldTitle].(string)
	return s
}

// URL returns the item's canonical link.
func (it Item) URL() string {
	s, _ := it[FieldURL].(string)
	return s
}

// Valid reports whether the item has both a title and a URL.
func (it Item) Valid() bool {
	return it.Title() != "" && it.URL() != ""
}

// Stats counts what happened to each record of a batch.
type Stats struct {
	Received    int
	Emitted     int
	UnknownType int
	Mismatched  int
	Invalid     int
}

// Summary returns a human-readable summary of the run.
func (s Stats) Summary() string {
	return fmt.Sprintf(
		"received=%d emitted=%d unknown_type=%d mismatched=%d invalid=%d",
		s.Received, s.Emitted, s.UnknownType, s.Mismatched, s.Invalid,
	)
}

var yearSuffix = regexp.MustCompile(`\s+\(\d{4}\)$`)

// StripYear removes a trailing parenthesized four digit year preceded by
// whitespace. Any other title is returned unchanged.
func StripYear(title string) string {
	return yearSuffix.ReplaceAllString(title, "")
}

// CanonicalURL builds the deep link for a record. Missing identifiers leave
// empty path segments rather than failing.
func CanonicalURL(siteURL string, r Record) string {
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}
	if r.Type == KindEpisode {
		var slug, season, number string
		if r.Show != nil {
			slug = r.Show.IDs.Slug
		}
		if r.Episode != nil {
			season = optInt(r.Episode.Season)
			number = optInt(r.Episode.Number)
		}
		return fmt.Sprintf("%s/shows/%s/seasons/%s/episodes/%s", siteURL, slug, season, number)
	}

	var slug string
	switch r.Type {
	case KindMovie:
		if r.Movie != nil {
			slug = r.Movie.IDs.Slug
		}
	case KindShow:
		if r.Show != nil {
			slug = r.Show.IDs.Slug
		}
	}
	return fmt.Sprintf("%s/%s/%s", siteURL, r.Type.Plural(), slug)
}

func optInt(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

// Apply builds the item for a record using the field map of its kind.
// The url is set first and is never overwritten by a mapping.
func Apply(siteURL string, fm FieldMap, r Record) Item {
	item := Item{FieldURL: CanonicalURL(siteURL, r)}
	for _, m := range fm {
		if m.Field == FieldURL {
			continue
		}
		if v, ok := m.Projection.Apply(r); ok {
			item[m.Field] = v
		}
	}
	return item
}

// Normalize converts a batch of raw records into output items.
//
// Records of an unknown kind or of a kind other than opts.ListType are
// skipped, as are items missing a title or URL. None of these fail the batch;
// each is logged at debug level. Output order follows input order.
func Normalize(records []Record, opts Options, logger *slog.Logger) ([]Item, Stats) {
	if logger == nil {
		logger = slog.Default()
	}

	stats := Stats{Received: len(records)}
	items := make([]Item, 0, len(records))
	if len(records) == 0 {
		logger.Warn("No records to normalize", "list_type", opts.ListType)
		return items, stats
	}

	for _, r := range records {
		fm, known := FieldMaps[r.Type]
		if !known {
			stats.UnknownType++
			logger.Debug("Unknown type", "type", r.Type)
			continue
		}
		if r.Type != opts.ListType {
			stats.Mismatched++
			logger.Debug("Skipping record, not a "+string(opts.ListType),
				"type", r.Type, "title", payloadTitle(r))
			continue
		}

		item := Apply(opts.SiteURL, fm, r)
		if !item.Valid() {
			stats.Invalid++
			logger.Debug("Invalid item created", "item", item)
			continue
		}
		if opts.StripDates {
			item[FieldTitle] = StripYear(item.Title())
		}
		items = append(items, item)
	}

	stats.Emitted = len(items)
	return items, stats
}

func payloadTitle(r Record) string {
	switch r.Type {
	case KindMovie:
		if r.Movie != nil {
			return r.Movie.Title
		}
	case KindShow:
		if r.Show != nil {
			return r.Show.Title
		}
	case KindEpisode:
		if r.Episode != nil {
			return r.Episode.Title
		}
	}
	return ""
}
