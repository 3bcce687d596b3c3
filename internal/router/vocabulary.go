package router

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywords []byte

var (
	ErrVocabularyVersion = errors.New("keyword vocabulary has no version")
	ErrVocabularyEmpty   = errors.New("keyword vocabulary has an empty list")
)

// LoadVocabulary reads the keyword lists from path, or the built-in lists when path is empty.
func LoadVocabulary(path string) (Vocabulary, error) {
	data := defaultKeywords
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Vocabulary{}, fmt.Errorf("read keywords: %w", err)
		}
	}
	return ParseVocabulary(data)
}

// ParseVocabulary decodes a YAML vocabulary and lower-cases every keyword.
func ParseVocabulary(data []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse keywords: %w", err)
	}
	if v.Version <= 0 {
		return Vocabulary{}, ErrVocabularyVersion
	}
	if len(v.Media) == 0 || len(v.Table) == 0 {
		return Vocabulary{}, ErrVocabularyEmpty
	}
	v.Media = normalizeKeywords(v.Media)
	v.Table = normalizeKeywords(v.Table)
	return v, nil
}

// DefaultVocabulary returns the built-in lists.
func DefaultVocabulary() Vocabulary {
	v, err := ParseVocabulary(defaultKeywords)
	if err != nil {
		panic(err)
	}
	return v
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
