package intake

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Slugify lowercases a title and collapses everything that is not a
// letter or digit into single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen

	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// slugChecker reports whether a slug is already taken.
type slugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// uniqueSlug returns the slugified title, suffixed with -2, -3, ... if
// the plain form is taken.
func uniqueSlug(ctx context.Context, checker slugChecker, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "untitled"
	}

	slug := base
	for i := 2; ; i++ {
		taken, err := checker.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
