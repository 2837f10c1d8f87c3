// Package normalize produces canonical comparison forms of display
// strings so that "Groceries", "groceries " and "GROCERIES!" all map to
// the same subcategory.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var fold = cases.Fold()

// SubcategoryName case-folds the name and strips all punctuation and
// whitespace. The result is used as a unique dedup key, not for display.
func SubcategoryName(name string) string {
	folded := fold.String(name)
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}
