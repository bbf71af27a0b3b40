// Package normalize converts raw Trakt list entries into flat, uniformly
// shaped items.
//
// A raw entry is discriminated by its "type" field (movie, show or episode)
// and carries a differently shaped payload for each. The FieldMaps table
// declares how every shape maps onto output fields; Normalize applies it,
// filters out entries that do not match the requested list type, and drops
// items that end up without a title or URL.
package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// Kind is the discriminant of a raw list entry.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindShow    Kind = "show"
	KindEpisode Kind = "episode"
)

// Plural returns the path segment Trakt uses for the kind ("movies", "shows").
func (k Kind) Plural() string {
	return string(k) + "s"
}

// KindFromListType derives the record kind from a configured list type by
// stripping the trailing plural marker ("movies" -> "movie").
// Only regular English plurals are handled; singular input passes through.
func KindFromListType(listType string) Kind {
	return Kind(strings.TrimRight(listType, "s"))
}

// IDs holds the external identifiers attached to a payload. Zero values mean
// the identifier was not supplied.
type IDs struct {
	Trakt  int64
	Slug   string
	IMDB   string
	TMDB   int64
	TVDB   int64
	TVRage int64
}

// Movie is the typed view of a "movie" payload.
type Movie struct {
	Title string
	Year  *int64
	IDs   IDs
}

// Show is the typed view of a "show" payload.
type Show struct {
	Title string
	Year  *int64
	IDs   IDs
}

// Episode is the typed view of an "episode" payload.
type Episode struct {
	Season *int64
	Number *int64
	Title  string
	IDs    IDs
}

// Record is one raw list entry: the discriminant, typed views of the nested
// payloads it carries, and the decoded document used by literal projections.
//
// Records are read-only once built; Normalize never mutates them.
type Record struct {
	Type    Kind
	Movie   *Movie
	Show    *Show
	Episode *Episode

	doc map[string]any
}

// NewRecord builds a Record from an already decoded JSON object.
// Nested payloads that are missing or not objects leave the matching typed
// view nil; fields of the wrong JSON type are treated as absent.
func NewRecord(doc map[string]any) Record {
	r := Record{doc: doc}
	if doc == nil {
		return r
	}
	if t, ok := doc["type"].(string); ok {
		r.Type = Kind(t)
	}
	if m, ok := doc["movie"].(map[string]any); ok {
		r.Movie = &Movie{
			Title: stringAt(m, "title"),
			Year:  intPtrAt(m, "year"),
			IDs:   idsAt(m),
		}
	}
	if m, ok := doc["show"].(map[string]any); ok {
		r.Show = &Show{
			Title: stringAt(m, "title"),
			Year:  intPtrAt(m, "year"),
			IDs:   idsAt(m),
		}
	}
	if m, ok := doc["episode"].(map[string]any); ok {
		r.Episode = &Episode{
			Season: intPtrAt(m, "season"),
			Number: intPtrAt(m, "number"),
			Title:  stringAt(m, "title"),
			IDs:    idsAt(m),
		}
	}
	return r
}

// UnmarshalJSON decodes a single list entry. Anything that is valid JSON
// decodes without error; entries that are not objects become records with
// an empty discriminant and are later skipped as unknown.
func (r *Record) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	doc, _ := v.(map[string]any)
	*r = NewRecord(doc)
	return nil
}

// MarshalJSON re-encodes the original document, so a record survives a round
// trip through a cache unchanged.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.doc == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.doc)
}

// Lookup resolves a dotted path ("movie.ids.imdb") against the raw document.
// A missing intermediate node or a JSON null yields ok=false.
func (r Record) Lookup(path string) (any, bool) {
	var cur any = r.doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// --------------------------------------------------------------------------
// Lenient accessors
// --------------------------------------------------------------------------

func idsAt(m map[string]any) IDs {
	ids, _ := m["ids"].(map[string]any)
	if ids == nil {
		return IDs{}
	}
	return IDs{
		Trakt:  intAt(ids, "trakt"),
		Slug:   stringAt(ids, "slug"),
		IMDB:   stringAt(ids, "imdb"),
		TMDB:   intAt(ids, "tmdb"),
		TVDB:   intAt(ids, "tvdb"),
		TVRage: intAt(ids, "tvrage"),
	}
}

func stringAt(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intAt(m map[string]any, key string) int64 {
	n, _ := toInt(m[key])
	return n
}

func intPtrAt(m map[string]any, key string) *int64 {
	n, ok := toInt(m[key])
	if !ok {
		return nil
	}
	return &n
}

// toInt accepts the numeric representations a decoded document can hold.
func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}

// scalar reduces a resolved value to an output scalar. Objects and arrays are
// not scalars and yield ok=false.
func scalar(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case string, bool:
		return x, true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, true
		}
		f, err := x.Float64()
		return f, err == nil
	case float64:
		if i, ok := toInt(x); ok {
			return i, true
		}
		return x, true
	case int, int32, int64:
		i, _ := toInt(x)
		return i, true
	default:
		return nil, false
	}
}
