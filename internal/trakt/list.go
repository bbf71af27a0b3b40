package trakt

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"github.com/albapepper/traktlist/internal/normalize"
)

// Lists with a dedicated user-scoped endpoint. Any other name is a custom list.
var reservedLists = map[string]bool{
	"collection": true,
	"watchlist":  true,
	"watched":    true,
}

// IsReservedList reports whether name is one of the built-in user lists.
func IsReservedList(name string) bool {
	return reservedLists[name]
}

// ListRequest identifies one user list.
type ListRequest struct {
	Username string
	// Password is sent as the OAuth bearer token; only private lists need it.
	Password string
	// ListType is the configured media kind, e.g. "movies".
	ListType string
	// List is a reserved list name or the display name of a custom list.
	List string
}

// Path returns the API path for the request.
func (r ListRequest) Path() string {
	user := url.PathEscape(r.Username)
	if IsReservedList(r.List) {
		kind := normalize.KindFromListType(r.ListType)
		return fmt.Sprintf("/users/%s/%s/%s", user, r.List, kind.Plural())
	}
	return fmt.Sprintf("/users/%s/lists/%s/items", user, ListSlug(r.List))
}

// slugStripped are removed outright from custom list names.
const slugStripped = "!@#$%^*()[]{}/=?+\\|"

var slugReplacer = strings.NewReplacer("&", "and", " ", "-")

// ListSlug converts a custom list name into the slug Trakt uses in URLs:
// transliterated to ASCII and lower-cased, the characters in slugStripped
// removed, "&" spelled out and every space replaced by a dash.
func ListSlug(name string) string {
	name = strings.ToLower(unidecode.Unidecode(name))
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(slugStripped, r) {
			return -1
		}
		return r
	}, name)
	return slugReplacer.Replace(name)
}
