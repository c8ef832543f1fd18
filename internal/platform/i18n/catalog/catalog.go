// Package catalog loads the YAML message catalogs shipped with the engine.
//
// Files live at locales/<locale>/<namespace>.yaml. The shared namespace holds
// engine-wide messages; each game adds its own namespace for overrides.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	// BaseLocale must exist and is the fallback for every lookup.
	BaseLocale = "en-US"
	// SharedNamespace holds messages every game can fall back to.
	SharedNamespace = "shared"

	enginePrefix = "engine."
	catalogGlob  = "locales/*/*.yaml"
)

//go:embed locales/*/*.yaml
var embedded embed.FS

var defaultBundle = mustLoad(embedded)

// messages maps namespace -> key -> template.
type messages map[string]map[string]string

// Bundle is an immutable set of catalogs keyed by locale.
type Bundle struct {
	byLocale map[string]messages
	// order lists BaseLocale first so the matcher falls back to it.
	order   []string
	matcher language.Matcher
}

type file struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Default returns the bundle embedded in the binary.
func Default() *Bundle { return defaultBundle }

// LoadEmbedded parses the embedded catalogs again.
func LoadEmbedded() (*Bundle, error) { return LoadFromFS(embedded) }

// LoadFromFS reads every catalog under locales/ in fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, catalogGlob)
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	slices.Sort(paths)

	b := &Bundle{byLocale: map[string]messages{}}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var f file
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := b.add(p, f); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", p, err)
		}
	}
	if !b.HasLocale(BaseLocale) {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	b.order = []string{BaseLocale}
	for _, loc := range b.Locales() {
		if loc != BaseLocale {
			b.order = append(b.order, loc)
		}
	}
	tags := make([]language.Tag, len(b.order))
	for i, loc := range b.order {
		if tags[i], err = language.Parse(loc); err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", loc, err)
		}
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// add checks that f's header agrees with its path, then merges its messages.
func (b *Bundle) add(p string, f file) error {
	locale := strings.TrimSpace(f.Locale)
	namespace := strings.TrimSpace(f.Namespace)
	wantLocale := path.Base(path.Dir(p))
	wantNamespace := strings.TrimSuffix(path.Base(p), path.Ext(p))

	switch {
	case locale == "":
		return fmt.Errorf("locale is required")
	case locale != wantLocale:
		return fmt.Errorf("locale %q must match path locale %q", locale, wantLocale)
	case namespace == "":
		return fmt.Errorf("namespace is required")
	case namespace != wantNamespace:
		return fmt.Errorf("namespace %q must match filename namespace %q", namespace, wantNamespace)
	case len(f.Messages) == 0:
		return fmt.Errorf("messages map is required")
	}

	byNamespace := b.byLocale[locale]
	if byNamespace == nil {
		byNamespace = messages{}
		b.byLocale[locale] = byNamespace
	}
	if _, dup := byNamespace[namespace]; dup {
		return fmt.Errorf("namespace %q already defined for locale %q", namespace, locale)
	}

	out := make(map[string]string, len(f.Messages))
	for key, value := range f.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("message key cannot be blank")
		}
		if strings.HasPrefix(key, enginePrefix) && namespace != SharedNamespace {
			return fmt.Errorf("key %q belongs in the %s namespace", key, SharedNamespace)
		}
		if _, dup := out[key]; dup {
			return fmt.Errorf("duplicate key %q in namespace %q", key, namespace)
		}
		out[key] = value
	}
	byNamespace[namespace] = out
	return nil
}

// MatchLocale negotiates requested (a locale or an Accept-Language value)
// against the bundle. Anything unmatched resolves to BaseLocale.
func (b *Bundle) MatchLocale(requested string) string {
	requested = strings.TrimSpace(requested)
	if b == nil || b.matcher == nil || requested == "" {
		return BaseLocale
	}
	if b.HasLocale(requested) {
		return requested
	}
	desired, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(desired) == 0 {
		return BaseLocale
	}
	_, i, confidence := b.matcher.Match(desired...)
	if confidence == language.No || i < 0 || i >= len(b.order) {
		return BaseLocale
	}
	return b.order[i]
}

func (b *Bundle) HasLocale(locale string) bool {
	if b == nil {
		return false
	}
	_, ok := b.byLocale[strings.TrimSpace(locale)]
	return ok
}

// Locales lists the loaded locales in sorted order.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(b.byLocale))
}

// NamespaceMessages returns a copy of one namespace. Unknown locales or
// namespaces give an empty map.
func (b *Bundle) NamespaceMessages(locale, namespace string) map[string]string {
	ns := b.namespace(locale, namespace)
	if ns == nil {
		return map[string]string{}
	}
	return maps.Clone(ns)
}

// Lookup finds key in exactly locale and namespace, with no fallback.
func (b *Bundle) Lookup(locale, namespace, key string) (string, bool) {
	value, ok := b.namespace(locale, namespace)[strings.TrimSpace(key)]
	return value, ok
}

func (b *Bundle) namespace(locale, namespace string) map[string]string {
	if b == nil {
		return nil
	}
	return b.byLocale[strings.TrimSpace(locale)][strings.TrimSpace(namespace)]
}

func mustLoad(fsys fs.FS) *Bundle {
	b, err := LoadFromFS(fsys)
	if err != nil {
		panic(err)
	}
	return b
}
