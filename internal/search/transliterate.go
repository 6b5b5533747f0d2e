package search

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/cases"
)

// Transliterator renders a title into two searchable ASCII forms: the full
// phonetic spelling and the initials.
type Transliterator interface {
	Name() string
	Transliterate(title string) (full, initials string)
}

// Transliterator names accepted by NewTransliterator.
const (
	TransliterationPinyin = "pinyin"
	TransliterationNone   = "none"
)

// NewTransliterator returns the transliterator registered under name.
// An unknown name returns false.
func NewTransliterator(name string) (Transliterator, bool) {
	switch strings.ToLower(name) {
	case "", TransliterationPinyin:
		return Pinyin{}, true
	case TransliterationNone:
		return Passthrough{}, true
	}
	return nil, false
}

// Pinyin transliterates Han characters to toneless pinyin, one character at
// a time. Other letters and digits, including Han characters without a
// reading, are kept case-folded; anything else is dropped.
type Pinyin struct{}

// Name implements Transliterator.
func (Pinyin) Name() string { return TransliterationPinyin }

// Transliterate implements Transliterator.
func (Pinyin) Transliterate(title string) (string, string) {
	args := pinyin.NewArgs()
	return transliterate(title, func(r rune) string {
		if py := pinyin.SinglePinyin(r, args); len(py) > 0 {
			return py[0]
		}
		return ""
	})
}

// transliterate applies reading to each Han rune; an empty reading leaves
// the rune to the letter/digit rule.
func transliterate(title string, reading func(rune) string) (string, string) {
	fold := cases.Fold()

	var full, initials strings.Builder
	for _, r := range title {
		if unicode.Is(unicode.Han, r) {
			if syllable := strings.ToLower(reading(r)); syllable != "" {
				full.WriteString(syllable)
				initials.WriteByte(syllable[0])
				continue
			}
		}

		for _, c := range fold.String(string(r)) {
			if unicode.IsLetter(c) || unicode.IsDigit(c) {
				full.WriteRune(c)
				initials.WriteRune(c)
			}
		}
	}
	return full.String(), initials.String()
}

// Passthrough is used when phonetic transliteration is disabled: both forms
// are the lower-cased ASCII subset of the title.
type Passthrough struct{}

// Name implements Transliterator.
func (Passthrough) Name() string { return TransliterationNone }

// Transliterate implements Transliterator.
func (Passthrough) Transliterate(title string) (string, string) {
	ascii := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return unicode.ToLower(r)
	}, title)
	return ascii, ascii
}
