package dictionary

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// FileFormat represents the dictionary resource formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatCorpus             // line-oriented frequency corpus
	FormatJSONMap            // JSON object
	FormatYAMLMap            // YAML mapping
)

// ErrUnknownFormat is returned for resources whose extension is not recognized
var ErrUnknownFormat = errors.New("unknown resource format")

// FormatInfo contains metadata about a resource format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatCorpus: {
		Format:      FormatCorpus,
		Description: "Frequency corpus",
		Extensions:  []string{".txt", ".dat"},
	},
	FormatJSONMap: {
		Format:      FormatJSONMap,
		Description: "JSON mapping",
		Extensions:  []string{".json"},
	},
	FormatYAMLMap: {
		Format:      FormatYAMLMap,
		Description: "YAML mapping",
		Extensions:  []string{".yaml", ".yml"},
	},
}

// DetectFormat picks the format of a resource from its extension
func DetectFormat(name string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(name))
	for format, info := range supportedFormats {
		for _, e := range info.Extensions {
			if e == ext {
				return format, nil
			}
		}
	}
	return FormatUnknown, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
}

// WordFreq is one entry of a word frequency map
type WordFreq struct {
	Word      string
	Frequency float64
}

// ParseWordMap reads a JSON object of word to count, in document order.
// Non-numeric values are skipped.
func ParseWordMap(text string) ([]WordFreq, error) {
	if !gjson.Valid(text) {
		return nil, errors.New("word map is not valid JSON")
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return nil, errors.New("word map must be a JSON object")
	}

	var words []WordFreq
	root.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.Number {
			return true
		}
		words = append(words, WordFreq{Word: key.String(), Frequency: value.Float()})
		return true
	})
	return words, nil
}

// ParseAlternatives reads a spelling to candidates mapping.
// Values may be a single string or a list of strings.
func ParseAlternatives(name, text string) (map[string][]string, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSONMap:
		return parseJSONAlternatives(text)
	case FormatYAMLMap:
		return parseYAMLAlternatives(text)
	}
	return nil, fmt.Errorf("%w: %s is not a mapping", ErrUnknownFormat, name)
}

func parseJSONAlternatives(text string) (map[string][]string, error) {
	if !gjson.Valid(text) {
		return nil, errors.New("alternatives are not valid JSON")
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return nil, errors.New("alternatives must be a JSON object")
	}

	out := make(map[string][]string)
	root.ForEach(func(key, value gjson.Result) bool {
		var alts []string
		switch {
		case value.IsArray():
			for _, v := range value.Array() {
				if v.Type == gjson.String && v.String() != "" {
					alts = append(alts, v.String())
				}
			}
		case value.Type == gjson.String && value.String() != "":
			alts = []string{value.String()}
		}
		if len(alts) > 0 {
			out[key.String()] = alts
		}
		return true
	})
	return out, nil
}

func parseYAMLAlternatives(text string) (map[string][]string, error) {
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("alternatives are not valid YAML: %w", err)
	}

	out := make(map[string][]string, len(raw))
	for key, value := range raw {
		var alts []string
		switch v := value.(type) {
		case string:
			if v != "" {
				alts = []string{v}
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					alts = append(alts, s)
				}
			}
		}
		if len(alts) > 0 {
			out[key] = alts
		}
	}
	return out, nil
}
