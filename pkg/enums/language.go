package enums

import "fmt"

// Language is a supported display language.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageVietnamese Language = "vi"
)

var validLanguages = []Language{
	LanguageEnglish,
	LanguageVietnamese,
}

// String implements fmt.Stringer.
func (l Language) String() string {
	return string(l)
}

// IsValid reports whether the value is a known Language.
func (l Language) IsValid() bool {
	for _, candidate := range validLanguages {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLanguage converts raw input into a Language.
func ParseLanguage(value string) (Language, error) {
	for _, candidate := range validLanguages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid language %q", value)
}
