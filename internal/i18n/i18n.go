// Package i18n resolves dotted message keys to user-facing strings.
// Locale files are flat JSON maps embedded at build time; unknown
// locales fall back to English and unknown keys fall back to the key
// itself so a missing translation never breaks a response.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"
)

//go:embed locales/*.json
var localeFS embed.FS

const DefaultLocale = "en"

var messages = map[string]map[string]string{}

func init() {
	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		log.Fatalf("i18n: reading locales: %v", err)
	}
	for _, e := range entries {
		locale := strings.TrimSuffix(e.Name(), ".json")
		raw, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			log.Fatalf("i18n: reading %s: %v", e.Name(), err)
		}
		m := map[string]string{}
		if err := json.Unmarshal(raw, &m); err != nil {
			log.Fatalf("i18n: parsing %s: %v", e.Name(), err)
		}
		messages[locale] = m
	}
}

// T resolves key for locale, interpolating {name} placeholders from
// params. Values are formatted with %v.
func T(locale, key string, params map[string]any) string {
	m, ok := messages[locale]
	if !ok {
		m = messages[DefaultLocale]
	}
	s, ok := m[key]
	if !ok {
		if s, ok = messages[DefaultLocale][key]; !ok {
			return key
		}
	}
	for k, v := range params {
		s = strings.ReplaceAll(s, "{"+k+"}", fmt.Sprintf("%v", v))
	}
	return s
}

// FromRequest picks a supported locale from the Accept-Language
// header, defaulting to English.
func FromRequest(r *http.Request) string {
	header := r.Header.Get("Accept-Language")
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		if len(tag) >= 2 {
			tag = tag[:2]
		}
		if _, ok := messages[tag]; ok {
			return tag
		}
	}
	return DefaultLocale
}
