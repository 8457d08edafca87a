package catalog

import "strings"

// Canonical category slugs. Catalog files spell categories loosely
// (English/Russian, singular/plural); matching is substring-based over the
// variant tables below.
var (
	SkincareCategories = []string{
		"cleanser", "toner", "serum", "moisturizer", "eye_cream", "sunscreen", "mask",
	}
	MakeupCategories = []string{
		"foundation", "concealer", "corrector", "powder", "blush", "bronzer",
		"contour", "highlighter", "eyebrow", "mascara", "eyeshadow", "eyeliner",
		"lipstick", "lip_gloss", "lip_liner",
	}
)

// categoryVariants maps a canonical slug to accepted substrings. A product
// belongs to a category iff its lowercased category field contains any of
// them.
var categoryVariants = map[string][]string{
	"cleanser":    {"cleanser", "cleansing", "micellar", "очищ", "умыван", "мицелляр"},
	"toner":       {"toner", "тоник", "тонер"},
	"serum":       {"serum", "сыворотк"},
	"moisturizer": {"moisturizer", "moisturiser", "face_cream", "увлажн", "крем"},
	"eye_cream":   {"eye_cream", "eye cream", "глаз", "патч"},
	"sunscreen":   {"sunscreen", "sunblock", "spf", "спф", "солнцезащит"},
	"mask":        {"mask", "маск"},
	"foundation":  {"foundation", "bb_cream", "bb cream", "cc_cream", "cc cream", "тональн"},
	"concealer":   {"concealer", "консилер"},
	"corrector":   {"corrector", "корректор"},
	"powder":      {"powder", "пудр"},
	"blush":       {"blush", "румян"},
	"bronzer":     {"bronzer", "бронзер"},
	"contour":     {"contour", "контур", "скульптор"},
	"highlighter": {"highlighter", "хайлайтер"},
	"eyebrow":     {"eyebrow", "brow", "бров"},
	"mascara":     {"mascara", "тушь"},
	"eyeshadow":   {"eyeshadow", "shadow", "тени"},
	"eyeliner":    {"eyeliner", "подводк", "кайал"},
	"lipstick":    {"lipstick", "помад"},
	"lip_gloss":   {"lip_gloss", "lip gloss", "gloss", "блеск"},
	"lip_liner":   {"lip_liner", "lip liner", "lipliner", "карандаш для губ"},
}

// variantSupportingSlugs are the makeup categories whose products may carry
// purchasable variants (shades, volumes).
var variantSupportingSlugs = []string{
	"foundation", "lipstick", "eyeshadow", "mascara", "concealer", "powder", "blush",
}

// MatchesCategory reports whether a raw category string belongs to the
// canonical slug.
func MatchesCategory(raw, slug string) bool {
	variants, ok := categoryVariants[slug]
	if !ok {
		return false
	}
	lower := strings.ToLower(raw)
	for _, v := range variants {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}

// canonicalOrder lists slugs from most to least specific so that strings
// like "тональный крем" resolve to foundation, not moisturizer, and
// "крем для глаз" to eye_cream.
var canonicalOrder = []string{
	"foundation", "concealer", "corrector", "powder", "blush", "bronzer",
	"contour", "highlighter", "eyebrow", "mascara", "eyeshadow", "eyeliner",
	"lipstick", "lip_gloss", "lip_liner",
	"eye_cream", "sunscreen", "cleanser", "toner", "serum", "mask", "moisturizer",
}

// CanonicalCategory resolves a raw category string to its canonical slug.
func CanonicalCategory(raw string) (string, bool) {
	for _, slug := range canonicalOrder {
		if MatchesCategory(raw, slug) {
			return slug, true
		}
	}
	return "", false
}

// SameCategory reports whether two raw category strings resolve to the
// same canonical slug.
func SameCategory(a, b string) bool {
	slugA, okA := CanonicalCategory(a)
	slugB, okB := CanonicalCategory(b)
	return okA && okB && slugA == slugB
}

// SupportsVariants reports whether a raw category string names a category
// where per-shade/per-volume variants make sense.
func SupportsVariants(raw string) bool {
	for _, slug := range variantSupportingSlugs {
		if MatchesCategory(raw, slug) {
			return true
		}
	}
	return false
}

// IsSkincare reports whether the slug is one of the skincare categories.
func IsSkincare(slug string) bool {
	for _, s := range SkincareCategories {
		if s == slug {
			return true
		}
	}
	return false
}
