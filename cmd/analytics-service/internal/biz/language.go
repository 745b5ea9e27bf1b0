package biz

import "strings"

// PrimaryLanguage returns the lower-cased primary subtag of a locale hint,
// e.g. "en-US" -> "en". An empty result means no language is known.
func PrimaryLanguage(hint string) string {
	hint = strings.TrimSpace(hint)
	if i := strings.IndexAny(hint, "-_"); i >= 0 {
		hint = hint[:i]
	}
	return strings.ToLower(hint)
}
