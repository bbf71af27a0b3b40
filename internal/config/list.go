package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/albapepper/traktlist/internal/normalize"
)

// ListConfig describes one Trakt list to retrieve.
type ListConfig struct {
	Username   string `json:"username" yaml:"username" validate:"required"`
	Password   string `json:"password,omitempty" yaml:"password,omitempty"`
	ListType   string `json:"listType" yaml:"listType" validate:"required,oneof=movies shows episodes movie show episode"`
	List       string `json:"list" yaml:"list" validate:"required"`
	StripDates bool   `json:"stripDates,omitempty" yaml:"stripDates,omitempty"`
}

// Kind returns the record kind admitted for this list.
func (c ListConfig) Kind() normalize.Kind {
	return normalize.KindFromListType(c.ListType)
}

// ValidationError lists every problem found in a ListConfig.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid list config: " + strings.Join(e.Problems, "; ")
}

// Validate checks required fields, the list type enum, and rejects episode
// lists for the collection and watched endpoints, which Trakt does not expose
// per episode.
func (c ListConfig) Validate() error {
	err := listValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate list config: %w", err)
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			verr.Problems = append(verr.Problems, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			verr.Problems = append(verr.Problems, fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value()))
		case "episodelist":
			verr.Problems = append(verr.Problems, "`collection` and `watched` lists do not support `episodes` type")
		default:
			verr.Problems = append(verr.Problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return verr
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func listValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		validate.RegisterStructValidation(validateEpisodeList, ListConfig{})
	})
	return validate
}

func validateEpisodeList(sl validator.StructLevel) {
	c := sl.Current().Interface().(ListConfig)
	if c.Kind() != normalize.KindEpisode {
		return
	}
	if c.List == "collection" || c.List == "watched" {
		sl.ReportError(c.List, "list", "List", "episodelist", "")
	}
}
