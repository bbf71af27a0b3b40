package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ListFile is the on-disk format consumed by the batch command:
//
//	lists:
//	  - username: alice
//	    listType: movies
//	    list: watchlist
//	    stripDates: true
type ListFile struct {
	Lists []ListConfig `yaml:"lists"`
}

// LoadListFile reads and validates every list in a YAML list file.
func LoadListFile(path string) ([]ListConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read list file: %w", err)
	}
	return ParseListFile(data)
}

// ParseListFile decodes a YAML list file. Unknown keys are rejected so typos
// such as "list_type" fail loudly instead of producing an empty field.
func ParseListFile(data []byte) ([]ListConfig, error) {
	var lf ListFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&lf); err != nil {
		return nil, fmt.Errorf("parse list file: %w", err)
	}
	if len(lf.Lists) == 0 {
		return nil, fmt.Errorf("parse list file: no lists defined")
	}
	for i, c := range lf.Lists {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("list %d (%s/%s): %w", i+1, c.Username, c.List, err)
		}
	}
	return lf.Lists, nil
}
