package recommend

import (
	"math"

	"github.com/dariamatveeva/beautycare-backend/internal/catalog"
	"github.com/dariamatveeva/beautycare-backend/internal/profiles"
)

// Active-ingredient groups the scoring rules key on.
var (
	pregnancyUnsafeActives = []string{"retinol", "retinoid", "salicylic", "hydroquinone"}
	irritantActives        = []string{"fragrance", "alcohol", "retinol"}
	drySkinActives         = []string{"hyaluronic", "ceramide", "squalane"}
	oilySkinActives        = []string{"niacinamide", "salicylic", "zinc"}
	acneActives            = []string{"salicylic", "niacinamide", "benzoyl"}
	pigmentationActives    = []string{"vitamin_c", "arbutin", "kojic"}
	wrinkleActives         = []string{"retinol", "peptide"}
	gentleActives          = []string{"panthenol", "ceramide", "hyaluronic", "aloe"}
)

// reason identifies a fired scoring rule; explain strings are built from
// these.
type reason int

const (
	reasonUndertone reason = iota
	reasonSeason
	reasonContrast
	reasonDrySkin
	reasonOilySkin
	reasonAcne
	reasonPigmentation
	reasonWrinkles
	reasonGentle
	reasonPregnancySafe
)

// scoreResult carries the clamped score and the rules that fired.
type scoreResult struct {
	score    float64
	excluded bool
	reasons  []reason
}

// scoreProduct runs the scoring pipeline for one (category, product)
// pair. Explicitly out-of-stock products and pregnancy-unsafe formulas
// are excluded outright.
func scoreProduct(profile *profiles.Profile, product *catalog.Product, slug string) scoreResult {
	if product.OutOfStock() {
		return scoreResult{excluded: true}
	}
	if profile.Pregnant && hasAnyActive(product, pregnancyUnsafeActives) {
		return scoreResult{score: math.Inf(-1), excluded: true}
	}

	var result scoreResult
	score := 0.0

	if profile.Sensitivity == profiles.SensitivityHigh && hasAnyActive(product, irritantActives) {
		score -= 0.3
	}

	if catalog.IsSkincare(slug) {
		if profile.SkinType == profiles.SkinDry && hasAnyActive(product, drySkinActives) {
			score += 0.3
			result.reasons = append(result.reasons, reasonDrySkin)
		}
		if profile.SkinType == profiles.SkinOily && hasAnyActive(product, oilySkinActives) {
			score += 0.3
			result.reasons = append(result.reasons, reasonOilySkin)
		}
		if profile.HasConcern(profiles.ConcernAcne) && hasAnyActive(product, acneActives) {
			score += 0.4
			result.reasons = append(result.reasons, reasonAcne)
		}
		if profile.HasConcern(profiles.ConcernPigmentation) && hasAnyActive(product, pigmentationActives) {
			score += 0.4
			result.reasons = append(result.reasons, reasonPigmentation)
		}
		if profile.HasConcern(profiles.ConcernWrinkles) && hasAnyActive(product, wrinkleActives) {
			score += 0.4
			result.reasons = append(result.reasons, reasonWrinkles)
		}
	} else {
		if undertoneMatch(profile, product) {
			score += 0.5
			result.reasons = append(result.reasons, reasonUndertone)
		}
	}

	// Only an explicit in_stock: true earns the bonus; entries that omit
	// the flag still participate but without it.
	if product.ConfirmedInStock() {
		score += 0.1
	}

	if profile.Season != "" && product.HasTag(profile.Season) {
		result.reasons = append(result.reasons, reasonSeason)
	}
	if profile.Contrast != "" && product.HasTag(profile.Contrast+"_contrast") {
		result.reasons = append(result.reasons, reasonContrast)
	}
	if hasAnyActive(product, gentleActives) {
		result.reasons = append(result.reasons, reasonGentle)
	}
	if profile.Pregnant && !hasAnyActive(product, pregnancyUnsafeActives) {
		result.reasons = append(result.reasons, reasonPregnancySafe)
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	result.score = score
	return result
}

func hasAnyActive(product *catalog.Product, actives []string) bool {
	for _, a := range actives {
		if product.HasActive(a) {
			return true
		}
	}
	return false
}

func undertoneMatch(profile *profiles.Profile, product *catalog.Product) bool {
	if profile.Undertone == "" || profile.Undertone == profiles.UndertoneUnknown {
		return false
	}
	if product.Shade != nil && product.Shade.Undertone == profile.Undertone {
		return true
	}
	for _, v := range product.Variants {
		if v.Undertone == profile.Undertone {
			return true
		}
	}
	return false
}
