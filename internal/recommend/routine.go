package recommend

import "github.com/dariamatveeva/beautycare-backend/internal/profiles"

// Routine is the ordered application sequence returned with a selection.
type Routine struct {
	Morning []string `json:"morning"`
	Evening []string `json:"evening"`
	Weekly  []string `json:"weekly"`
}

// buildRoutine assembles AM/PM/weekly steps, adjusted for the profile's
// skin type.
func buildRoutine(profile *profiles.Profile) Routine {
	routine := Routine{
		Morning: []string{"cleanser", "toner", "serum", "moisturizer", "sunscreen"},
		Evening: []string{"cleanser", "toner", "treatment", "moisturizer"},
		Weekly:  []string{"exfoliation (1-2x)", "mask (1x)"},
	}
	switch profile.SkinType {
	case profiles.SkinDry:
		routine.Evening = append(routine.Evening, "face_oil")
	case profiles.SkinOily:
		morning := make([]string, 0, len(routine.Morning)+1)
		for _, step := range routine.Morning {
			morning = append(morning, step)
			if step == "toner" {
				morning = append(morning, "sebum_control_serum")
			}
		}
		routine.Morning = morning
	}
	return routine
}
