// Package profiles holds the user profile model accumulated by the
// questionnaire flows and consumed by the recommendation selector, plus
// its per-user JSON persistence.
package profiles

// Skin type values.
const (
	SkinDry    = "dry"
	SkinNormal = "normal"
	SkinCombo  = "combo"
	SkinOily   = "oily"
)

// Sensitivity levels.
const (
	SensitivityLow  = "low"
	SensitivityMid  = "mid"
	SensitivityHigh = "high"
)

// Undertone values.
const (
	UndertoneWarm    = "warm"
	UndertoneCool    = "cool"
	UndertoneNeutral = "neutral"
	UndertoneUnknown = "unknown"
)

// Color seasons.
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
	SeasonWinter = "winter"
)

// Concern slugs written by the questionnaire and read by the selector.
const (
	ConcernAcne          = "acne"
	ConcernPigmentation  = "pigmentation"
	ConcernWrinkles      = "wrinkles"
	ConcernRedness       = "redness"
	ConcernDehydration   = "dehydration"
	ConcernEnlargedPores = "enlarged_pores"
	ConcernCouperose     = "couperose"
	ConcernAging         = "aging"
	ConcernDarkCircles   = "dark_circles"
	ConcernPuffiness     = "puffiness"
	ConcernHydrationNeed = "hydration_needed"
	ConcernSeasonal      = "seasonal_changes"
)

// Profile aggregates everything the flows learn about a user. Every field
// is optional; the selector tolerates any subset.
type Profile struct {
	UserID int64 `json:"user_id"`

	// demographics
	Age      int    `json:"age,omitempty"`
	Sex      string `json:"sex,omitempty"`
	Pregnant bool   `json:"pregnant,omitempty"`

	// skin axis
	Fitzpatrick string   `json:"fitzpatrick,omitempty"`
	Baumann     string   `json:"baumann,omitempty"`
	SkinType    string   `json:"skin_type,omitempty"`
	Dehydrated  bool     `json:"dehydrated,omitempty"`
	Sensitivity string   `json:"sensitivity,omitempty"`
	Allergies   []string `json:"allergies,omitempty"`
	Concerns    []string `json:"concerns,omitempty"`

	// color axis
	Undertone string `json:"undertone,omitempty"`
	Season    string `json:"season,omitempty"`
	AltSeason string `json:"alt_season,omitempty"`
	Contrast  string `json:"contrast,omitempty"`
	EyeColor  string `json:"eye_color,omitempty"`
	HairColor string `json:"hair_color,omitempty"`
	BrowColor string `json:"brow_color,omitempty"`
}

// HasConcern reports whether the profile lists the given concern slug.
func (p *Profile) HasConcern(slug string) bool {
	for _, c := range p.Concerns {
		if c == slug {
			return true
		}
	}
	return false
}

// AddConcern appends a concern once.
func (p *Profile) AddConcern(slug string) {
	if !p.HasConcern(slug) {
		p.Concerns = append(p.Concerns, slug)
	}
}
