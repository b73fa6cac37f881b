// Package textutil holds the string coercions shared by the catalog and
// the asset adapter: slugs, allergen lists, focal points and diacritic folding.
package textutil

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// StripDiacritics decomposes s and drops combining marks, so "Núm" becomes "Num".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify lowercases name, folds diacritics and collapses every run of
// non-alphanumerics into one hyphen, without leading or trailing hyphens.
func Slugify(name string) string {
	s := strings.ToLower(StripDiacritics(name))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SortByName orders items by name with Spanish collation, so "Ñoquis"
// follows "Nata" and accented or lowercase names are not pushed past "Z".
func SortByName[T any](items []T, name func(T) string) {
	c := collate.New(language.Spanish)
	slices.SortStableFunc(items, func(a, b T) int { return c.CompareString(name(a), name(b)) })
}

// ParseAllergens splits comma-separated input, trimming entries and
// dropping empty ones. The result is never nil.
func ParseAllergens(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AllergensToText is the editing form of an allergen list.
func AllergensToText(allergens []string) string {
	return strings.Join(allergens, ", ")
}

const DefaultFocalPoint = "50% 50%"

// ParseFocalPoint reads an "X% Y%" image position. Each axis is clamped to 0..100.
func ParseFocalPoint(s string) (x, y float64, err error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("focal point %q: want \"X%% Y%%\"", s)
	}
	vals := [2]float64{}
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("focal point %q: %w", s, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, fmt.Errorf("focal point %q: not a finite number", s)
		}
		vals[i] = clamp(v, 0, 100)
	}
	return vals[0], vals[1], nil
}

func FormatFocalPoint(x, y float64) string {
	return fmt.Sprintf("%.0f%% %.0f%%", clamp(x, 0, 100), clamp(y, 0, 100))
}

// NormalizeFocalPoint rewrites s in canonical form. Empty input stays empty.
func NormalizeFocalPoint(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	x, y, err := ParseFocalPoint(s)
	if err != nil {
		return "", err
	}
	return FormatFocalPoint(x, y), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
