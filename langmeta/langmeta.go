// Package langmeta provides a shared language metadata registry (English
// and native display names) used by prompt construction and CLI output.
// Resolution is display-only: the language code a project configures is
// passed through to engines verbatim, since game localization folders use
// their own naming ("schinese", "trad_chinese") that must not be rewritten.
package langmeta

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Meta describes display metadata for one language.
type Meta struct {
	Code   string // canonical BCP 47 tag
	Name   string // English name, used when prompting translation backends
	Native string // native self-name, used in CLI output
}

// Registry contains canonical language metadata. Variants are resolved in
// Resolve via normalization, alias lookup, and base fallback.
var Registry = map[string]Meta{
	"ar":    {Code: "ar", Name: "Arabic", Native: "العربية"},
	"cs":    {Code: "cs", Name: "Czech", Native: "Čeština"},
	"de":    {Code: "de", Name: "German", Native: "Deutsch"},
	"el":    {Code: "el", Name: "Greek", Native: "Ελληνικά"},
	"en":    {Code: "en", Name: "English", Native: "English"},
	"es":    {Code: "es", Name: "Spanish", Native: "Español"},
	"fi":    {Code: "fi", Name: "Finnish", Native: "Suomi"},
	"fr":    {Code: "fr", Name: "French", Native: "Français"},
	"hu":    {Code: "hu", Name: "Hungarian", Native: "Magyar"},
	"id":    {Code: "id", Name: "Indonesian", Native: "Bahasa Indonesia"},
	"it":    {Code: "it", Name: "Italian", Native: "Italiano"},
	"ja":    {Code: "ja", Name: "Japanese", Native: "日本語"},
	"ko":    {Code: "ko", Name: "Korean", Native: "한국어"},
	"nl":    {Code: "nl", Name: "Dutch", Native: "Nederlands"},
	"pl":    {Code: "pl", Name: "Polish", Native: "Polski"},
	"pt":    {Code: "pt", Name: "Portuguese", Native: "Português"},
	"pt-BR": {Code: "pt-BR", Name: "Brazilian Portuguese", Native: "Português (Brasil)"},
	"ro":    {Code: "ro", Name: "Romanian", Native: "Română"},
	"ru":    {Code: "ru", Name: "Russian", Native: "Русский"},
	"sv":    {Code: "sv", Name: "Swedish", Native: "Svenska"},
	"th":    {Code: "th", Name: "Thai", Native: "ไทย"},
	"tr":    {Code: "tr", Name: "Turkish", Native: "Türkçe"},
	"uk":    {Code: "uk", Name: "Ukrainian", Native: "Українська"},
	"vi":    {Code: "vi", Name: "Vietnamese", Native: "Tiếng Việt"},
	"zh":    {Code: "zh", Name: "Chinese", Native: "中文"},
	"zh-CN": {Code: "zh-CN", Name: "Simplified Chinese", Native: "简体中文"},
	"zh-TW": {Code: "zh-TW", Name: "Traditional Chinese", Native: "繁體中文"},
}

// aliases maps the language names game engines and their communities use
// to canonical registry codes.
var aliases = map[string]string{
	"chinese":      "zh-CN",
	"english":      "en",
	"french":       "fr",
	"german":       "de",
	"italian":      "it",
	"japanese":     "ja",
	"korean":       "ko",
	"portuguese":   "pt",
	"russian":      "ru",
	"schinese":     "zh-CN",
	"simp_chinese": "zh-CN",
	"spanish":      "es",
	"tchinese":     "zh-TW",
	"trad_chinese": "zh-TW",
	"zh-hans":      "zh-CN",
	"zh-hant":      "zh-TW",
}

// Auto is the pseudo-code accepted for an unspecified source language.
const Auto = "auto"

var (
	matcherTags  []language.Tag
	matcherMetas []Meta
	matcher      language.Matcher
)

func init() {
	codes := make([]string, 0, len(Registry))
	for c := range Registry {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	// English first so the matcher prefers it for degenerate inputs.
	sort.SliceStable(codes, func(i, j int) bool { return codes[i] == "en" && codes[j] != "en" })
	for _, c := range codes {
		matcherTags = append(matcherTags, language.MustParse(c))
		matcherMetas = append(matcherMetas, Registry[c])
	}
	matcher = language.NewMatcher(matcherTags)
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a language code, accepting
// variants like pt_BR, zh-Hans, engine names like simp_chinese, and the
// "auto" pseudo-code. Unknown codes resolve to a Meta naming the code
// itself so callers never need to special-case a miss.
func Resolve(lang string) Meta {
	if strings.EqualFold(strings.TrimSpace(lang), Auto) {
		return Meta{Code: Auto, Name: "the source language", Native: Auto}
	}
	if m, ok := Registry[lang]; ok {
		return m
	}
	normalized := canonicalize(lang)
	if m, ok := Registry[normalized]; ok {
		return m
	}
	if code, ok := aliases[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return Registry[code]
	}
	if tag, err := language.Parse(normalized); err == nil {
		if _, idx, conf := matcher.Match(tag); conf >= language.High {
			return matcherMetas[idx]
		}
		if base, conf := tag.Base(); conf >= language.High {
			if m, ok := Registry[base.String()]; ok {
				return m
			}
		}
	}
	if parts := strings.SplitN(normalized, "-", 2); len(parts) == 2 {
		if m, ok := Registry[parts[0]]; ok {
			return m
		}
	}
	return Meta{Code: normalized, Name: lang, Native: lang}
}
