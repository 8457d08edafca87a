package sources

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/dariamatveeva/beautycare-backend/internal/catalog"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
	"github.com/dariamatveeva/beautycare-backend/pkg/money"
)

// Resolved is the outcome of source resolution for one product.
type Resolved struct {
	Product           *catalog.Product
	Source            Info
	Available         bool
	Alternative       *catalog.Product
	AlternativeReason string
	VerifiedAt        time.Time
	CurrencyVerified  bool
}

// Resolver resolves products against the current catalog snapshot.
type Resolver struct {
	logg *logger.Logger
	now  func() time.Time
}

// NewResolver builds a resolver; the logger may be nil in tests.
func NewResolver(logg *logger.Logger) *Resolver {
	return &Resolver{logg: logg, now: time.Now}
}

// Resolve classifies the product's source, checks availability against the
// snapshot and, when the product cannot be bought, searches for an
// alternative.
func (r *Resolver) Resolve(ctx context.Context, snap *catalog.Snapshot, product *catalog.Product) Resolved {
	resolved := Resolved{
		Product:          product,
		Source:           ByLink(product.Link),
		Available:        product.Available(),
		VerifiedAt:       r.now(),
		CurrencyVerified: CurrencyVerified(product.Currency, product.Price),
	}
	if resolved.Available {
		return resolved
	}

	alt, reason := r.FindAlternative(snap, product)
	resolved.Alternative = alt
	resolved.AlternativeReason = reason
	if alt != nil && r.logg != nil {
		lctx := r.logg.WithFields(ctx, map[string]any{
			"product_id":  product.ID,
			"alternative": alt.ID,
			"reason":      reason,
		})
		r.logg.Info(lctx, "substituted unavailable product")
	}
	return resolved
}

// CurrencyVerified reports whether a price can be trusted: recognized
// currency and a positive amount.
func CurrencyVerified(currency string, price float64) bool {
	_, ok := money.NormalizeCurrency(currency)
	return ok && price > 0
}

// universalFallbacks maps a canonical category slug to replacement
// category terms tried when nothing in the same category is available.
var universalFallbacks = map[string][]string{
	"foundation": {"bb_cream", "tinted_moisturizer", "concealer"},
	"lipstick":   {"lip_tint", "tinted_lip_balm", "lip_gloss"},
	"cleanser":   {"micellar_water", "cleansing_oil"},
	"toner":      {"essence", "mist"},
	"serum":      {"essence", "ampoule"},
}

// FindAlternative tries three strategies in order: same brand and
// base-name within ±20% of the price, same category within ±30%, and the
// universal cross-category mapping. Each candidate set is ranked by
// source priority.
func (r *Resolver) FindAlternative(snap *catalog.Snapshot, product *catalog.Product) (*catalog.Product, string) {
	base := BaseName(product.Title)
	brand := strings.ToLower(product.Brand)

	if alt := bestCandidate(snap, product, func(item *catalog.Product) bool {
		return strings.ToLower(item.Brand) == brand &&
			BaseName(item.Title) == base &&
			priceWithin(item.Price, product.Price, 0.20)
	}); alt != nil {
		return alt, ReasonProductVariant
	}

	if alt := bestCandidate(snap, product, func(item *catalog.Product) bool {
		if strings.EqualFold(item.Brand, product.Brand) && strings.EqualFold(item.Title, product.Title) {
			return false
		}
		return catalog.SameCategory(item.Category, product.Category) &&
			priceWithin(item.Price, product.Price, 0.30)
	}); alt != nil {
		return alt, ReasonSameCategory
	}

	slug, ok := catalog.CanonicalCategory(product.Category)
	if !ok {
		return nil, ""
	}
	terms := universalFallbacks[slug]
	if alt := bestCandidate(snap, product, func(item *catalog.Product) bool {
		lower := strings.ToLower(item.Category)
		for _, term := range terms {
			if strings.Contains(lower, term) || strings.Contains(lower, strings.ReplaceAll(term, "_", " ")) {
				return true
			}
		}
		return false
	}); alt != nil {
		return alt, ReasonUniversal
	}
	return nil, ""
}

func bestCandidate(snap *catalog.Snapshot, product *catalog.Product, match func(*catalog.Product) bool) *catalog.Product {
	var best *catalog.Product
	bestPriority := 0
	for i := range snap.Products() {
		item := &snap.Products()[i]
		if item.ID == product.ID || !item.Available() {
			continue
		}
		if !match(item) {
			continue
		}
		p := Priority(item.Link)
		if best == nil || p < bestPriority {
			best = item
			bestPriority = p
		}
	}
	return best
}

func priceWithin(candidate, reference, tolerance float64) bool {
	if reference <= 0 {
		return candidate > 0
	}
	diff := candidate - reference
	if diff < 0 {
		diff = -diff
	}
	return diff <= reference*tolerance
}

var baseNameStrippers = []*regexp.Regexp{
	// " - NN" style shade suffixes, with optional letters
	regexp.MustCompile(`\s*[-–—]\s*\d+[\p{L}]*$`),
	// parenthesized suffix: "(Fair)", "(30 ml)"
	regexp.MustCompile(`\s*\([^)]*\)$`),
	// trailing numeric-with-letters token: "110 Porcelain" loses "110"
	regexp.MustCompile(`\s+\d+[\p{L}]*$`),
}

var shadeWords = map[string]struct{}{
	"fair": {}, "light": {}, "medium": {}, "deep": {}, "dark": {},
	"ivory": {}, "porcelain": {}, "beige": {}, "sand": {}, "natural": {},
	"светлый": {}, "средний": {}, "темный": {}, "бежевый": {}, "фарфоровый": {},
}

// BaseName strips trailing shade and size decorations from a product
// title so variants of one product compare equal.
func BaseName(title string) string {
	name := strings.TrimSpace(title)
	for changed := true; changed; {
		changed = false
		for _, re := range baseNameStrippers {
			if stripped := re.ReplaceAllString(name, ""); stripped != name {
				name = strings.TrimSpace(stripped)
				changed = true
			}
		}
		if fields := strings.Fields(name); len(fields) > 1 {
			last := strings.ToLower(fields[len(fields)-1])
			if _, ok := shadeWords[last]; ok {
				name = strings.TrimSpace(strings.Join(fields[:len(fields)-1], " "))
				changed = true
			}
		}
	}
	return strings.ToLower(name)
}
