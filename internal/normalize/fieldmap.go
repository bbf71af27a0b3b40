package normalize

import (
	"fmt"
	"strings"
)

// Output field names shared by every kind.
const (
	FieldTitle = "title"
	FieldURL   = "url"
)

// Projection derives one output value from a record. ok=false means the value
// is absent and the field is left out of the item.
type Projection interface {
	Apply(r Record) (value any, ok bool)
}

// Path is a literal projection: a dotted path into the raw document.
type Path string

// Apply resolves the path and reduces the result to a scalar.
func (p Path) Apply(r Record) (any, bool) {
	v, ok := r.Lookup(string(p))
	if !ok {
		return nil, false
	}
	return scalar(v)
}

// Computed is a projection built from the typed view of a record. It must
// return ok=false instead of panicking when nested data is missing.
type Computed func(r Record) (any, bool)

// Apply calls the function.
func (c Computed) Apply(r Record) (any, bool) {
	return c(r)
}

// Mapping binds an output field to its projection.
type Mapping struct {
	Field      string
	Projection Projection
}

// FieldMap is the ordered list of derivations for one kind.
type FieldMap []Mapping

// FieldMaps is the single source of truth for how each raw shape becomes an
// output item. The url field is not listed: it is derived separately and a
// mapping can never override it.
var FieldMaps = map[Kind]FieldMap{
	KindMovie: {
		{FieldTitle, Computed(movieTitle)},
		{"movie_name", Path("movie.title")},
		{"movie_year", Path("movie.year")},
		{"imdb_id", Path("movie.ids.imdb")},
		{"tmdb_id", Path("movie.ids.tmdb")},
		{"trakt_id", Path("movie.ids.trakt")},
		{"trakt_slug", Path("movie.ids.slug")},
	},
	KindShow: {
		{FieldTitle, Path("show.title")},
		{"imdb_id", Path("show.ids.imdb")},
		{"tvdb_id", Path("show.ids.tvdb")},
		{"tvrage_id", Path("show.ids.tvrage")},
		{"tmdb_id", Path("show.ids.tmdb")},
		{"trakt_id", Path("show.ids.trakt")},
		{"trakt_slug", Path("show.ids.slug")},
	},
	KindEpisode: {
		{FieldTitle, Computed(episodeTitle)},
		{"series_name", Path("show.title")},
		{"series_season", Path("episode.season")},
		{"series_episode", Path("episode.number")},
		{"series_id", Computed(seriesID)},
		{"imdb_id", Path("episode.ids.imdb")},
		{"tvdb_id", Path("episode.ids.tvdb")},
		{"tvrage_id", Path("episode.ids.tvrage")},
		{"trakt_id", Path("show.ids.trakt")},
		{"trakt_slug", Path("show.ids.slug")},
	},
}

// movieTitle renders "Title (Year)"; the year is omitted when unknown.
func movieTitle(r Record) (any, bool) {
	if r.Movie == nil || r.Movie.Title == "" {
		return nil, false
	}
	if r.Movie.Year == nil {
		return r.Movie.Title, true
	}
	return fmt.Sprintf("%s (%d)", r.Movie.Title, *r.Movie.Year), true
}

// episodeTitle renders "Show S01E02 Episode Title".
func episodeTitle(r Record) (any, bool) {
	if r.Show == nil || r.Show.Title == "" {
		return nil, false
	}
	id, ok := seriesID(r)
	if !ok {
		return nil, false
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", r.Show.Title, id, r.Episode.Title)), true
}

func seriesID(r Record) (any, bool) {
	if r.Episode == nil || r.Episode.Season == nil || r.Episode.Number == nil {
		return nil, false
	}
	return fmt.Sprintf("S%02dE%02d", *r.Episode.Season, *r.Episode.Number), true
}
