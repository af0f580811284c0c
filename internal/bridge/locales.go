package bridge

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales.yaml
var localesYAML []byte

// Locale holds the per-language strings the bridge emits itself: the
// fallback action record, the generic error reply, and the busy notice used
// by surfaces that drop sends while a turn is in flight. The model handles
// everything else via the reply-only-in-language directive.
type Locale struct {
	Code           string `yaml:"-"`
	Name           string `yaml:"name"`
	ActionFallback string `yaml:"actionFallback"`
	ErrorReply     string `yaml:"errorReply"`
	BusyNotice     string `yaml:"busyNotice"`
}

// DefaultLanguage is used when config names no language or an unknown one.
const DefaultLanguage = "en"

var locales = loadLocales()

func loadLocales() map[string]Locale {
	var pack struct {
		Languages map[string]Locale `yaml:"languages"`
	}
	if err := yaml.Unmarshal(localesYAML, &pack); err != nil {
		panic("bridge: embedded locales.yaml is invalid: " + err.Error())
	}
	for code, loc := range pack.Languages {
		loc.Code = code
		pack.Languages[code] = loc
	}
	return pack.Languages
}

// ResolveLocale returns the locale for a language code. Region subtags are
// dropped ("de-AT" matches "de"); unknown codes fall back to English.
func ResolveLocale(code string) Locale {
	c := strings.ToLower(strings.TrimSpace(code))
	if loc, ok := locales[c]; ok {
		return loc
	}
	if base, _, found := strings.Cut(c, "-"); found {
		if loc, ok := locales[base]; ok {
			return loc
		}
	}
	return locales[DefaultLanguage]
}

// Languages returns the codes of all bundled locales.
func Languages() []string {
	out := make([]string, 0, len(locales))
	for code := range locales {
		out = append(out, code)
	}
	return out
}
