package recommend

import (
	"strings"

	"github.com/dariamatveeva/beautycare-backend/internal/catalog"
)

const explainMaxLen = 120

var reasonPhrases = map[reason]string{
	reasonUndertone:     "подходит вашему подтону",
	reasonSeason:        "подходит вашему цветотипу",
	reasonContrast:      "подходит вашему контрасту",
	reasonDrySkin:       "увлажняет сухую кожу",
	reasonOilySkin:      "регулирует жирность",
	reasonAcne:          "помогает при акне",
	reasonPigmentation:  "осветляет пигментацию",
	reasonWrinkles:      "работает с морщинами",
	reasonGentle:        "мягкая формула",
	reasonPregnancySafe: "безопасно при беременности",
}

// explain builds the "Подойдет: …" phrase from up to three fired rules.
// Over-long phrases are cut to 117 characters plus an ellipsis so the
// result never exceeds 120. Without fired rules a category default is
// used.
func explain(slug string, reasons []reason) string {
	if len(reasons) == 0 {
		if catalog.IsSkincare(slug) {
			return "Подойдет: рекомендовано для вашей кожи"
		}
		return "Подойдет: подходит вашему типу"
	}

	phrases := make([]string, 0, 3)
	for _, r := range reasons {
		phrase, ok := reasonPhrases[r]
		if !ok {
			continue
		}
		phrases = append(phrases, phrase)
		if len(phrases) == 3 {
			break
		}
	}

	out := "Подойдет: " + strings.Join(phrases, ", ")
	if runes := []rune(out); len(runes) > explainMaxLen {
		out = string(runes[:explainMaxLen-3]) + "…"
	}
	return out
}
