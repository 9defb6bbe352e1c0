// Package i18n selects the message printer for CLI output.
package i18n

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLang is the fallback language
var DefaultLang = language.English

// SupportedLangs are the languages we support
var SupportedLangs = []language.Tag{
	language.English,
	language.German,
}

var matcher = language.NewMatcher(SupportedLangs)

func init() {
	for key, msg := range german {
		_ = message.SetString(language.German, key, msg)
	}
}

// german holds translations for the summary lines the CLI prints.
var german = map[string]string{
	"%d change(s) planned for %s\n": "%d Änderung(en) für %s geplant\n",
	"%d change(s) applied to %s\n":  "%d Änderung(en) auf %s angewendet\n",
	"%s: no changes\n":              "%s: keine Änderungen\n",
	"%d prefixes written to %s\n":   "%d Präfixe nach %s geschrieben\n",
	"%s is already %s\n":            "%s ist bereits %s\n",
	"%s: %s was not changed\n":      "%s: %s wurde nicht geändert\n",
	"%s: %s set to %s\n":            "%s: %s auf %s gesetzt\n",
	"%s handed to %s\n":             "%s an %s übergeben\n",
	"%s released from %s\n":         "%s von %s freigegeben\n",
}

// MatchLanguage returns the best matching language for an Accept-Language
// style list of tags.
func MatchLanguage(acceptLang string) language.Tag {
	tags, _, _ := language.ParseAcceptLanguage(acceptLang)
	_, i, _ := matcher.Match(tags...)
	return SupportedLangs[i]
}

// LocaleTag maps a POSIX locale such as "de_DE.UTF-8" to a supported tag.
func LocaleTag(locale string) language.Tag {
	if i := strings.IndexAny(locale, ".@"); i != -1 {
		locale = locale[:i]
	}
	if locale == "" || locale == "C" || locale == "POSIX" {
		return DefaultLang
	}

	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return MatchLanguage(locale)
	}
	_, i, _ := matcher.Match(tag)
	return SupportedLangs[i]
}

// NewCLIPrinter returns a printer for the system's locale (from env vars)
func NewCLIPrinter() *message.Printer {
	lang := os.Getenv("LC_ALL")
	if lang == "" {
		lang = os.Getenv("LC_MESSAGES")
	}
	if lang == "" {
		lang = os.Getenv("LANG")
	}
	return message.NewPrinter(LocaleTag(lang))
}
