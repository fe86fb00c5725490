package diseases

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Adda-Baaj/arogya-bot/internal/domain"
)

// Source describes where the dataset for one category lives and how its
// records are shaped: {"<collection>": [{"name": ..., "<field>": [...]}]}.
type Source struct {
	Category   domain.Category `json:"category" yaml:"category"`
	URL        string          `json:"url" yaml:"url"`
	Collection string          `json:"collection" yaml:"collection"`
	Field      string          `json:"field" yaml:"field"`
}

const (
	SymptomsCollection   = "diseases_with_symptoms"
	SymptomsField        = "symptoms"
	PreventionCollection = "diseases_with_prevention_measures"
	PreventionField      = "prevention_measures"
)

// DefaultSources returns the two stock datasets at the given URLs.
func DefaultSources(symptomsURL, preventionURL string) []Source {
	return []Source{
		{Category: domain.CategorySymptoms, URL: symptomsURL, Collection: SymptomsCollection, Field: SymptomsField},
		{Category: domain.CategoryPrevention, URL: preventionURL, Collection: PreventionCollection, Field: PreventionField},
	}
}

type sourcesFile struct {
	Sources []Source `json:"sources" yaml:"sources"`
}

// LoadSources loads the dataset registry from a YAML or JSON file.
func LoadSources(path string) ([]Source, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sources file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	reg, err := parseSources(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(reg.Sources) == 0 {
		return nil, errors.New("sources file contains no sources entries")
	}

	seen := make(map[domain.Category]struct{}, len(reg.Sources))
	for i := range reg.Sources {
		src := sanitizeSource(reg.Sources[i])
		if err := validateSource(src); err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		if _, dup := seen[src.Category]; dup {
			return nil, fmt.Errorf("duplicate source category %q", src.Category)
		}
		seen[src.Category] = struct{}{}
		reg.Sources[i] = src
	}
	return reg.Sources, nil
}

func parseSources(data []byte, ext string) (sourcesFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg sourcesFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return sourcesFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

func sanitizeSource(src Source) Source {
	if cat, err := domain.ParseCategory(string(src.Category)); err == nil {
		src.Category = cat
	}
	src.URL = strings.TrimSpace(src.URL)
	src.Collection = strings.TrimSpace(src.Collection)
	src.Field = strings.TrimSpace(src.Field)

	// fill the stock record shape when the file only overrides the URL
	switch src.Category {
	case domain.CategorySymptoms:
		if src.Collection == "" {
			src.Collection = SymptomsCollection
		}
		if src.Field == "" {
			src.Field = SymptomsField
		}
	case domain.CategoryPrevention:
		if src.Collection == "" {
			src.Collection = PreventionCollection
		}
		if src.Field == "" {
			src.Field = PreventionField
		}
	}
	return src
}

func validateSource(src Source) error {
	if _, err := domain.ParseCategory(string(src.Category)); err != nil {
		return err
	}
	if src.URL == "" {
		return fmt.Errorf("url is required for category %q", src.Category)
	}
	if src.Collection == "" {
		return fmt.Errorf("collection is required for category %q", src.Category)
	}
	if src.Field == "" {
		return fmt.Errorf("field is required for category %q", src.Category)
	}
	return nil
}
