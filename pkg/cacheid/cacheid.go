// Package cacheid derives the keys under which cacheable items are stored.
package cacheid

import "strings"

// Item is anything that can be stored in the cache under a derived key.
// UIDFields returns the ordered semantic fields the key is built from.
type Item interface {
	UIDFields() []string
}

// Generate removes all spaces from each field and concatenates them in order.
// Two calls with equal space-stripped fields always return the same key, so
// every cacheable type must choose a field list that cannot collide.
func Generate(fields ...string) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(strings.ReplaceAll(f, " ", ""))
	}
	return b.String()
}

// For returns the key of a cacheable item.
func For(item Item) string {
	return Generate(item.UIDFields()...)
}
