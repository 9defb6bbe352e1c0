package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func base(t language.Tag) language.Base {
	b, _ := t.Base()
	return b
}

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		accept   string
		expected language.Tag
	}{
		{"en-US,en;q=0.9", language.English},
		{"de-DE,de;q=0.9", language.German},
		{"fr-FR", language.English}, // Fallback
		{"", language.English},      // Empty
	}

	for _, tt := range tests {
		assert.Equal(t, base(tt.expected), base(MatchLanguage(tt.accept)), "Accept: %s", tt.accept)
	}
}

func TestLocaleTag(t *testing.T) {
	tests := map[string]language.Tag{
		"de_DE.UTF-8":      language.German,
		"de_AT@euro":       language.German,
		"en_GB.UTF-8":      language.English,
		"C":                language.English,
		"POSIX":            language.English,
		"":                 language.English,
		"fr_FR.ISO-8859-1": language.English,
	}
	for locale, want := range tests {
		assert.Equal(t, base(want), base(LocaleTag(locale)), locale)
	}
}

func TestNewCLIPrinter(t *testing.T) {
	t.Setenv("LC_ALL", "de_DE.UTF-8")
	p := NewCLIPrinter()
	assert.Equal(t, "eth0: keine Änderungen\n", p.Sprintf("%s: no changes\n", "eth0"))

	t.Setenv("LC_ALL", "C")
	p = NewCLIPrinter()
	assert.Equal(t, "eth0: no changes\n", p.Sprintf("%s: no changes\n", "eth0"))

}
