package models

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims a tag or metric name, collapses inner whitespace and
// brings it to Unicode NFC so visually equal names collide on the
// (user, name) unique key.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}

// UniqueNames normalizes names and drops blanks and duplicates, keeping the
// first occurrence order.
func UniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = NormalizeName(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
