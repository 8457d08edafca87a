// Package flows implements the questionnaire engine: flow definitions,
// session coordination with conflict detection and expiry, answer scoring
// into user profiles, and the background session sweeper.
package flows

// Flow name slugs. The set is closed; anything else is rejected at start.
const (
	FlowPalette          = "palette"
	FlowSkincare         = "skincare"
	FlowDetailedPalette  = "detailed_palette"
	FlowDetailedSkincare = "detailed_skincare"
)

// Definition is one questionnaire flow: a fixed ordered step list plus the
// display strings shown around it.
type Definition struct {
	Name             string
	Title            string
	Description      string
	DurationEstimate string
	Steps            []string
}

var definitions = map[string]Definition{
	FlowPalette: {
		Name:             FlowPalette,
		Title:            "Цветотип",
		Description:      "Определение вашего цветотипа внешности",
		DurationEstimate: "5-7 минут",
		Steps: []string{
			"A1_UNDERTONE", "A2_VALUE", "A3_HAIR", "A4_BROWS",
			"A5_EYES", "A6_CONTRAST", "A7_CONFIRM", "A8_REPORT",
		},
	},
	FlowSkincare: {
		Name:             FlowSkincare,
		Title:            "Уход за кожей",
		Description:      "Подбор ухода под ваш тип кожи",
		DurationEstimate: "3-5 минут",
		Steps:            []string{"B1_TYPE", "B2_CONCERNS", "B3_CONFIRM", "B4_REPORT"},
	},
	FlowDetailedPalette: {
		Name:             FlowDetailedPalette,
		Title:            "Детальный цветотип",
		Description:      "Углубленный анализ вашего цветотипа",
		DurationEstimate: "10-12 минут",
		Steps: []string{
			"Q1_HAIR_COLOR", "Q2_EYE_COLOR", "Q3_SKIN_UNDERTONE", "Q4_CONTRAST",
			"Q5_SUN_REACTION", "Q6_FACE_SHAPE", "Q7_MAKEUP_STYLE", "Q8_LIP_COLOR",
			"RESULT",
		},
	},
	FlowDetailedSkincare: {
		Name:             FlowDetailedSkincare,
		Title:            "Детальный уход",
		Description:      "Комплексная диагностика кожи",
		DurationEstimate: "10-15 минут",
		Steps: []string{
			"Q1_TIGHTNESS", "Q2_SUN_REACTION", "Q3_IMPERFECTIONS", "Q4_EYE_AREA",
			"Q5_COUPEROSE", "Q6_CURRENT_CARE", "Q7_ALLERGIES", "Q8_DESIRED_EFFECT",
			"RESULT",
		},
	},
}

// DefinitionFor returns the flow definition for a slug.
func DefinitionFor(flow string) (Definition, bool) {
	def, ok := definitions[flow]
	return def, ok
}

// KnownFlow reports whether the slug names a defined flow.
func KnownFlow(flow string) bool {
	_, ok := definitions[flow]
	return ok
}

// stepIndex returns the position of a step in its flow, or -1.
func stepIndex(flow, step string) int {
	def, ok := definitions[flow]
	if !ok {
		return -1
	}
	for i, s := range def.Steps {
		if s == step {
			return i
		}
	}
	return -1
}

// stepHints are contextual tips shown alongside a question. Step
// identifiers are unique across flows, so the map is flat.
var stepHints = map[string]string{
	"A1_UNDERTONE": "Посмотрите на внутреннюю сторону запястья при естественном освещении. Это поможет определить ваш подтон.",
	"A2_VALUE":     "Светлота определяет, насколько яркими или приглушенными должны быть ваши цвета.",
	"A3_HAIR":      "Естественный цвет волос влияет на выбор оттенков макияжа и одежды.",
	"A4_BROWS":     "Форма и цвет бровей помогают гармонично завершить образ.",
	"A5_EYES":      "Цвет глаз определяет наиболее выигрышные оттенки теней и подводки.",
	"A6_CONTRAST":  "Контрастность влияет на интенсивность макияжа и аксессуаров.",

	"B1_TYPE":     "Тип кожи - основа для выбора правильного ухода.",
	"B2_CONCERNS": "Проблемы кожи помогут подобрать целевые средства с нужными активами.",
	"B3_CONFIRM":  "Проверьте данные перед формированием рекомендаций.",

	"Q1_HAIR_COLOR":     "Учитываем только натуральный цвет волос без окрашивания.",
	"Q2_EYE_COLOR":      "Основной цвет радужки, не учитывая вкрапления.",
	"Q3_SKIN_UNDERTONE": "Вены на запястье: синие = холодный, зеленые = теплый подтон.",
	"Q4_CONTRAST":       "Разница между цветом волос, глаз и кожи.",
	"Q5_SUN_REACTION":   "Реакция на солнце указывает на чувствительность кожи.",

	"Q1_TIGHTNESS":     "Ощущения после очищения говорят о потребности в увлажнении.",
	"Q2_SUN_REACTION":  "Реакция на UV помогает подобрать правильный SPF.",
	"Q3_IMPERFECTIONS": "Основные проблемы определяют целевые активные ингредиенты.",
	"Q4_EYE_AREA":      "Деликатная зона требует специального ухода.",
}

// StepHint returns the tip for a step, if one exists.
func StepHint(step string) (string, bool) {
	hint, ok := stepHints[step]
	return hint, ok
}

// Encouragement returns a short motivation message for milestone steps and
// an empty string otherwise.
func Encouragement(stepCount int) string {
	switch {
	case stepCount >= 7:
		return "Финишная прямая! Сейчас сформируем ваши персональные рекомендации."
	case stepCount == 5:
		return "Почти готово! Последние вопросы для идеального результата."
	case stepCount == 3:
		return "Вы уже на середине пути! Осталось совсем немного."
	case stepCount == 1:
		return "Отличное начало! Продолжайте отвечать честно для точных рекомендаций."
	}
	return ""
}
