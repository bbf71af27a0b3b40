package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/traktlist/internal/api/respond"
	"github.com/albapepper/traktlist/internal/cache"
	"github.com/albapepper/traktlist/internal/config"
	"github.com/albapepper/traktlist/internal/lists"
	"github.com/albapepper/traktlist/internal/normalize"
	"github.com/albapepper/traktlist/internal/trakt"
)

// TokenHeader carries the Trakt OAuth token for private lists.
const TokenHeader = "X-Trakt-Token"

// ListResponse is the body of GET /lists/{username}/{type}/{list}.
type ListResponse struct {
	Username string           `json:"username"`
	ListType string           `json:"list_type"`
	List     string           `json:"list"`
	Count    int              `json:"count"`
	Items    []normalize.Item `json:"items"`
}

// GetList returns a normalized Trakt list.
// @Summary Get normalized list
// @Description Retrieves a Trakt collection, watchlist, watched list or custom list and returns one entry per matching item with title, url and the kind's id fields.
// @Tags lists
// @Produce json
// @Param username path string true "Trakt username"
// @Param type path string true "Item type" Enums(movies, shows, episodes)
// @Param list path string true "collection, watchlist, watched, or a custom list name"
// @Param strip_dates query bool false "Drop the trailing (YYYY) from titles"
// @Param refresh query bool false "Bypass cached data"
// @Param X-Trakt-Token header string false "OAuth token for private lists"
// @Success 200 {object} ListResponse
// @Success 304
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /lists/{username}/{type}/{list} [get]
func (h *Handler) GetList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stripDates, err := parseBoolParam(q.Get("strip_dates"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_PARAM", "strip_dates must be a boolean")
		return
	}
	refresh, err := parseBoolParam(q.Get("refresh"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_PARAM", "refresh must be a boolean")
		return
	}

	cfg := config.ListConfig{
		Username:   chi.URLParam(r, "username"),
		Password:   requestToken(r),
		ListType:   chi.URLParam(r, "type"),
		List:       chi.URLParam(r, "list"),
		StripDates: stripDates,
	}

	cacheKey := lists.CacheKey(cfg) + ":response"
	ttl := h.cfg.ListCacheTTL
	caching := respond.Caching{TTL: ttl, Private: cfg.Password != ""}

	if !refresh {
		if data, etag, ok := h.cache.Get(cacheKey); ok {
			if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
				respond.WriteNotModified(w, etag)
				return
			}
			caching.Hit = true
			respond.WriteJSON(w, data, etag, caching)
			return
		}
	}

	res, err := h.lists.Fetch(r.Context(), cfg, lists.FetchOptions{NoCache: refresh})
	if err != nil {
		writeFetchError(w, err)
		return
	}

	data, err := json.Marshal(ListResponse{
		Username: cfg.Username,
		ListType: cfg.ListType,
		List:     cfg.List,
		Count:    len(res.Items),
		Items:    res.Items,
	})
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_FAILED", "Could not encode list")
		return
	}

	etag := h.cache.Set(cacheKey, data, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	caching.Hit = res.Cached
	respond.WriteJSON(w, data, etag, caching)
}

func writeFetchError(w http.ResponseWriter, err error) {
	var verr *config.ValidationError
	if errors.As(err, &verr) {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_CONFIG", "Invalid list configuration", strings.Join(verr.Problems, "; "))
		return
	}

	var serr *trakt.StatusError
	if errors.As(err, &serr) {
		switch serr.StatusCode {
		case http.StatusNotFound:
			respond.WriteError(w, http.StatusNotFound, "LIST_NOT_FOUND", "Trakt list not found")
			return
		case http.StatusUnauthorized, http.StatusForbidden:
			respond.WriteError(w, http.StatusForbidden, "LIST_FORBIDDEN", "Trakt list is private")
			return
		}
	}

	if errors.Is(err, trakt.ErrRetrieve) {
		respond.WriteErrorDetail(w, http.StatusBadGateway, "RETRIEVE_FAILED", "Trakt list could not be retrieved", err.Error())
		return
	}
	respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Unexpected error")
}

// requestToken reads the OAuth token from X-Trakt-Token or a bearer
// Authorization header.
func requestToken(r *http.Request) string {
	if tok := strings.TrimSpace(r.Header.Get(TokenHeader)); tok != "" {
		return tok
	}
	auth := r.Header.Get("Authorization")
	if tok, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	return ""
}

func parseBoolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
