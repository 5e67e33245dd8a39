// ABOUTME: Embedded TOML translation catalogs and key lookup
// ABOUTME: Falls back from the requested language to English to the caller's default

package locale

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultLanguage is used when a requested language has no catalog.
const DefaultLanguage = "en"

//go:embed catalogs/*.toml
var catalogFS embed.FS

// Catalogs maps a language tag to its key/value translations.
type Catalogs map[string]map[string]string

// Load parses every embedded catalog. The file name without extension is the language tag.
func Load() (Catalogs, error) {
	entries, err := catalogFS.ReadDir("catalogs")
	if err != nil {
		return nil, fmt.Errorf("reading catalogs: %w", err)
	}

	catalogs := make(Catalogs, len(entries))
	for _, e := range entries {
		name := e.Name()
		data, err := catalogFS.ReadFile(path.Join("catalogs", name))
		if err != nil {
			return nil, fmt.Errorf("reading catalog %s: %w", name, err)
		}
		var messages map[string]string
		if _, err := toml.Decode(string(data), &messages); err != nil {
			return nil, fmt.Errorf("parsing catalog %s: %w", name, err)
		}
		catalogs[strings.TrimSuffix(name, ".toml")] = messages
	}
	if _, ok := catalogs[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("missing %s catalog", DefaultLanguage)
	}
	return catalogs, nil
}

// MustLoad is Load for package initialization; it panics on a broken embed.
func MustLoad() Catalogs {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// T translates key into lang, then English, then returns fallback.
func (c Catalogs) T(lang, key, fallback string) string {
	if msg, ok := c[lang][key]; ok && msg != "" {
		return msg
	}
	if msg, ok := c[DefaultLanguage][key]; ok && msg != "" {
		return msg
	}
	return fallback
}

// Has reports whether lang has a catalog.
func (c Catalogs) Has(lang string) bool {
	_, ok := c[lang]
	return ok
}

// Languages lists the available language tags, sorted.
func (c Catalogs) Languages() []string {
	langs := make([]string, 0, len(c))
	for lang := range c {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
