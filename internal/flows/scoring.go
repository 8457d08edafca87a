package flows

import (
	"strings"

	"github.com/dariamatveeva/beautycare-backend/internal/profiles"
)

// seasonByLetter maps the dominant answer letter to a color season.
var seasonByLetter = map[string]string{
	"a": profiles.SeasonSpring,
	"b": profiles.SeasonSummer,
	"c": profiles.SeasonAutumn,
	"d": profiles.SeasonWinter,
}

// seasonTieOrder breaks histogram ties, highest-contrast season first.
var seasonTieOrder = []string{
	profiles.SeasonWinter,
	profiles.SeasonAutumn,
	profiles.SeasonSpring,
	profiles.SeasonSummer,
}

// DetermineSeason counts letter answers across the palette questionnaire
// and returns the winning season.
func DetermineSeason(answers map[string]string) string {
	scores := map[string]int{
		profiles.SeasonSpring: 0,
		profiles.SeasonSummer: 0,
		profiles.SeasonAutumn: 0,
		profiles.SeasonWinter: 0,
	}
	for _, answer := range answers {
		if season, ok := seasonByLetter[strings.ToLower(answer)]; ok {
			scores[season]++
		}
	}

	max := 0
	for _, score := range scores {
		if score > max {
			max = score
		}
	}
	for _, season := range seasonTieOrder {
		if scores[season] == max {
			return season
		}
	}
	return profiles.SeasonSpring
}

// DetermineUndertone maps the skin-undertone answer letter. Warm and cool
// are explicit; mixed veins and "hard to tell" both land on neutral.
func DetermineUndertone(answer string) string {
	switch strings.ToLower(answer) {
	case "a":
		return profiles.UndertoneWarm
	case "b":
		return profiles.UndertoneCool
	default:
		return profiles.UndertoneNeutral
	}
}

// SkinAnalysis is the intermediate result of the detailed skincare rules
// before it is folded into a profile.
type SkinAnalysis struct {
	SkinType    string
	Sensitivity string
	Concerns    []string
	CareLevel   string
}

func (a *SkinAnalysis) addConcern(slug string) {
	for _, c := range a.Concerns {
		if c == slug {
			return
		}
	}
	a.Concerns = append(a.Concerns, slug)
}

func (a *SkinAnalysis) hasConcern(slug string) bool {
	for _, c := range a.Concerns {
		if c == slug {
			return true
		}
	}
	return false
}

// AnalyzeSkin applies the additive detailed-skincare rule table to the
// collected answers. Later rules may override the skin type set by earlier
// ones; rule order matches the questionnaire order.
func AnalyzeSkin(answers map[string]string) SkinAnalysis {
	analysis := SkinAnalysis{
		SkinType:    profiles.SkinNormal,
		Sensitivity: "normal",
		CareLevel:   "basic",
	}
	get := func(key string) string { return strings.ToLower(answers[key]) }

	switch get("tightness") {
	case "a":
		analysis.SkinType = profiles.SkinDry
		analysis.addConcern(profiles.ConcernDehydration)
	case "c":
		analysis.SkinType = profiles.SkinCombo
	case "d":
		analysis.addConcern(profiles.ConcernSeasonal)
	}

	if get("sun") == "c" {
		analysis.addConcern(profiles.ConcernPigmentation)
		analysis.Sensitivity = "sensitive"
	}

	switch get("imperfections") {
	case "a":
		if analysis.SkinType != profiles.SkinDry {
			analysis.SkinType = profiles.SkinOily
		}
		analysis.addConcern(profiles.ConcernEnlargedPores)
	case "b":
		analysis.SkinType = profiles.SkinOily
		analysis.addConcern(profiles.ConcernAcne)
	case "c":
		analysis.SkinType = profiles.SkinDry
		analysis.addConcern(profiles.ConcernDehydration)
	case "d":
		analysis.addConcern(profiles.ConcernPigmentation)
		analysis.addConcern(profiles.ConcernRedness)
	}

	switch get("eye") {
	case "a":
		analysis.addConcern(profiles.ConcernPuffiness)
	case "b":
		analysis.addConcern(profiles.ConcernDarkCircles)
	case "c":
		analysis.addConcern(profiles.ConcernAging)
	}

	switch get("couperose") {
	case "a", "b", "d":
		analysis.addConcern(profiles.ConcernCouperose)
		analysis.Sensitivity = "sensitive"
	}

	switch get("care") {
	case "b":
		analysis.CareLevel = "advanced"
	case "c":
		analysis.CareLevel = "professional"
	case "d":
		analysis.CareLevel = "none"
	}

	switch get("allergies") {
	case "a":
		analysis.Sensitivity = "very_sensitive"
	case "b":
		analysis.Sensitivity = "sensitive"
	}

	switch get("effect") {
	case "a":
		if !analysis.hasConcern(profiles.ConcernDehydration) {
			analysis.addConcern(profiles.ConcernHydrationNeed)
		}
	case "b":
		if analysis.SkinType != profiles.SkinDry {
			analysis.SkinType = profiles.SkinOily
		}
	case "c":
		analysis.addConcern(profiles.ConcernAging)
	}

	return analysis
}

// sensitivityLevel converts the analysis wording to the profile scale.
func sensitivityLevel(raw string) string {
	switch raw {
	case "very_sensitive":
		return profiles.SensitivityHigh
	case "sensitive":
		return profiles.SensitivityMid
	default:
		return profiles.SensitivityLow
	}
}

// ApplyTo folds the analysis into a profile.
func (a SkinAnalysis) ApplyTo(p *profiles.Profile) {
	p.SkinType = a.SkinType
	p.Sensitivity = sensitivityLevel(a.Sensitivity)
	for _, concern := range a.Concerns {
		p.AddConcern(concern)
	}
	if a.hasConcern(profiles.ConcernDehydration) || a.hasConcern(profiles.ConcernHydrationNeed) {
		p.Dehydrated = true
	}
}

// BuildProfile converts a completed session's answers into a profile. Each
// flow contributes only its own axis.
func BuildProfile(session *Session) *profiles.Profile {
	profile := &profiles.Profile{UserID: session.UserID}
	answers := session.FlowData

	switch session.Flow {
	case FlowPalette, FlowDetailedPalette:
		profile.Season = DetermineSeason(answers)
		profile.Undertone = DetermineUndertone(answers["undertone"])
		if contrast := strings.ToLower(answers["contrast"]); contrast != "" {
			profile.Contrast = contrastLevel(contrast)
		}
		if hair := answers["hair_color"]; hair != "" {
			profile.HairColor = hair
		}
		if eyes := answers["eye_color"]; eyes != "" {
			profile.EyeColor = eyes
		}
	case FlowSkincare:
		if skinType := strings.ToLower(answers["skin_type"]); validSkinType(skinType) {
			profile.SkinType = skinType
		}
		for _, concern := range strings.Split(answers["concerns"], ",") {
			if concern = strings.TrimSpace(concern); concern != "" {
				profile.AddConcern(concern)
			}
		}
	case FlowDetailedSkincare:
		AnalyzeSkin(answers).ApplyTo(profile)
	}
	return profile
}

// contrastLevel maps letter answers to contrast labels; non-letter values
// pass through.
func contrastLevel(answer string) string {
	switch answer {
	case "a":
		return "high"
	case "b":
		return "medium"
	case "c":
		return "low"
	}
	return answer
}

func validSkinType(t string) bool {
	switch t {
	case profiles.SkinDry, profiles.SkinNormal, profiles.SkinCombo, profiles.SkinOily:
		return true
	}
	return false
}
