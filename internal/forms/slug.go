package forms

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const (
	slugMaxLen = 300
	// numbered suffixes tried before falling back to a random one
	slugAttempts = 50
)

// Uzbek and Russian Cyrillic to the Uzbek Latin alphabet, apostrophes dropped.
var cyrillic = strings.NewReplacer(
	"а", "a", "б", "b", "в", "v", "г", "g", "ғ", "g", "д", "d", "е", "e", "ё", "yo",
	"ж", "j", "з", "z", "и", "i", "й", "y", "к", "k", "қ", "q", "л", "l", "м", "m",
	"н", "n", "о", "o", "п", "p", "р", "r", "с", "s", "т", "t", "у", "u", "ў", "o",
	"ф", "f", "х", "x", "ҳ", "h", "ц", "ts", "ч", "ch", "ш", "sh", "щ", "sh", "ъ", "",
	"ы", "i", "ь", "", "э", "e", "ю", "yu", "я", "ya",
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// Slugify turns free text into [a-z0-9-]: Cyrillic is transliterated,
// diacritics are stripped, runs of other characters collapse into one hyphen,
// and the result is at most maxLen runes (100 when maxLen <= 0). An empty
// result becomes "item".
func Slugify(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 100
	}
	s = cyrillic.Replace(strings.ToLower(strings.TrimSpace(s)))

	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = string(buf)

	s = reNonAlnum.ReplaceAllString(s, "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if utf8.RuneCountInString(s) > maxLen {
		s = strings.Trim(string([]rune(s)[:maxLen]), "-")
	}
	if s == "" {
		s = "item"
	}
	return s
}

// uniqueSlug appends -2, -3, ... to base until taken reports false. Once the
// numbered suffixes run out a short random suffix is used instead.
func uniqueSlug(ctx context.Context, base string, taken func(context.Context, string) (bool, error)) (string, error) {
	candidate := func(i int) string {
		switch {
		case i == 1:
			return base
		case i <= slugAttempts:
			return withSuffix(base, fmt.Sprintf("-%d", i))
		default:
			return withSuffix(base, "-"+uuid.NewString()[:8])
		}
	}

	for i := 1; i <= slugAttempts+5; i++ {
		slug := candidate(i)
		used, err := taken(ctx, slug)
		if err != nil {
			return "", err
		}
		if !used {
			return slug, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q", base)
}

func withSuffix(base, suffix string) string {
	if len(base)+len(suffix) > slugMaxLen {
		base = strings.Trim(base[:slugMaxLen-len(suffix)], "-")
	}
	return base + suffix
}
