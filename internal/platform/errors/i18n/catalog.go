// Package i18n resolves engine error codes into user-facing text.
//
// Lookups try the game namespace before the shared namespace, first in the
// negotiated locale and then in the base locale. When nothing matches the
// raw code is returned, so callers always get something printable.
package i18n

import (
	"bytes"
	"strings"
	"text/template"

	i18ncatalog "github.com/louisbranch/tabletop.run/internal/platform/i18n/catalog"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

const keyPrefix = "error."

// Resolver translates codes using a catalog bundle.
type Resolver struct {
	bundle *i18ncatalog.Bundle
}

// NewResolver builds a resolver over bundle. A nil bundle uses the embedded one.
func NewResolver(bundle *i18ncatalog.Bundle) *Resolver {
	if bundle == nil {
		bundle = i18ncatalog.Default()
	}
	return &Resolver{bundle: bundle}
}

// Message returns the text for code in locale, preferring the game namespace.
func (r *Resolver) Message(locale string, gameNamespace string, code Code, metadata map[string]string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tmpl, ok := r.lookup(locale, gameNamespace, keyPrefix+code)
	if !ok {
		return code
	}
	return Format(tmpl, metadata)
}

func (r *Resolver) lookup(locale string, gameNamespace string, key string) (string, bool) {
	if r == nil || r.bundle == nil {
		return "", false
	}
	resolved := r.bundle.MatchLocale(locale)
	locales := []string{resolved}
	if resolved != i18ncatalog.BaseLocale {
		locales = append(locales, i18ncatalog.BaseLocale)
	}
	namespaces := make([]string, 0, 2)
	if ns := strings.TrimSpace(gameNamespace); ns != "" && ns != i18ncatalog.SharedNamespace {
		namespaces = append(namespaces, ns)
	}
	namespaces = append(namespaces, i18ncatalog.SharedNamespace)

	for _, loc := range locales {
		for _, ns := range namespaces {
			if value, ok := r.bundle.Lookup(loc, ns, key); ok {
				return value, true
			}
		}
	}
	return "", false
}

// Format renders a message template with the given metadata.
// Templates are always executed even with nil/empty metadata to ensure
// consistent output (template variables without metadata render as empty).
// A template that fails to parse or execute is returned verbatim.
func Format(tmpl string, metadata map[string]string) string {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}
