// Package i18n resolves display strings by dotted key for each supported
// locale. Lookups never fail: a missing key resolves to the key itself.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/jrsteele09/go-portfolio/locale"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// Dictionary maps flattened dotted keys to display strings.
type Dictionary map[string]string

// Catalog holds one dictionary per supported locale. It is safe for
// concurrent use and can be swapped in place by Replace.
type Catalog struct {
	mu    sync.RWMutex
	dicts map[locale.Locale]Dictionary
}

// New builds a catalog from already flattened dictionaries.
func New(dicts map[locale.Locale]Dictionary) *Catalog {
	c := &Catalog{}
	c.Replace(dicts)
	return c
}

// LoadEmbedded loads the dictionaries compiled into the binary.
func LoadEmbedded() (*Catalog, error) {
	sub, err := fs.Sub(embeddedLocales, "locales")
	if err != nil {
		return nil, fmt.Errorf("embedded locales: %w", err)
	}
	return Load(sub)
}

// LoadDir loads <dir>/<locale>.json for every supported locale.
func LoadDir(dir string) (*Catalog, error) {
	return Load(os.DirFS(dir))
}

// Load reads <locale>.json for every supported locale from fsys.
func Load(fsys fs.FS) (*Catalog, error) {
	dicts, err := readDictionaries(fsys)
	if err != nil {
		return nil, err
	}
	return New(dicts), nil
}

func readDictionaries(fsys fs.FS) (map[locale.Locale]Dictionary, error) {
	dicts := make(map[locale.Locale]Dictionary, len(locale.Supported()))
	for _, l := range locale.Supported() {
		name := string(l) + ".json"
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read dictionary %s: %w", name, err)
		}
		dict, err := ParseDictionary(data)
		if err != nil {
			return nil, fmt.Errorf("parse dictionary %s: %w", name, err)
		}
		dicts[l] = dict
	}
	return dicts, nil
}

// ParseDictionary flattens a nested JSON document into dotted keys.
func ParseDictionary(data []byte) (Dictionary, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	dict := Dictionary{}
	flatten(dict, "", root)
	return dict, nil
}

func flatten(dict Dictionary, prefix string, value any) {
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			flatten(dict, join(key), child)
		}
	case []any:
		for i, child := range v {
			flatten(dict, join(strconv.Itoa(i)), child)
		}
	case string:
		dict[prefix] = v
	case nil:
	default:
		dict[prefix] = fmt.Sprint(v)
	}
}

// Replace swaps every dictionary at once.
func (c *Catalog) Replace(dicts map[locale.Locale]Dictionary) {
	copied := make(map[locale.Locale]Dictionary, len(dicts))
	for l, dict := range dicts {
		d := make(Dictionary, len(dict))
		for k, v := range dict {
			d[k] = v
		}
		copied[l] = d
	}
	c.mu.Lock()
	c.dicts = copied
	c.mu.Unlock()
}

// T returns the string for key in l, or key itself when there is none.
func (c *Catalog) T(l locale.Locale, key string) string {
	if c == nil {
		return key
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if value, ok := c.dicts[l][key]; ok && value != "" {
		return value
	}
	return key
}

// Translator binds T to a locale, for use as a template function.
func (c *Catalog) Translator(l locale.Locale) func(string) string {
	return func(key string) string {
		return c.T(l, key)
	}
}

// Keys returns the sorted keys defined for l.
func (c *Catalog) Keys(l locale.Locale) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.dicts[l]))
	for k := range c.dicts[l] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate reports keys that are defined for one locale but missing from
// another.
func (c *Catalog) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := map[string]struct{}{}
	for _, dict := range c.dicts {
		for k := range dict {
			all[k] = struct{}{}
		}
	}

	var problems []string
	for _, l := range locale.Supported() {
		dict, ok := c.dicts[l]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: dictionary missing", l))
			continue
		}
		var missing []string
		for k := range all {
			if _, ok := dict[k]; !ok {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			problems = append(problems, fmt.Sprintf("%s: missing %s", l, strings.Join(missing, ", ")))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("i18n catalog incomplete: %s", strings.Join(problems, "; "))
	}
	return nil
}
