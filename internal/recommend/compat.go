package recommend

import "fmt"

// incompatiblePairs lists active combinations that should not share a
// routine.
var incompatiblePairs = [][2]string{
	{"retinol", "vitamin_c"},
	{"retinol", "aha"},
	{"retinol", "bha"},
	{"vitamin_c", "niacinamide"},
	{"benzoyl_peroxide", "retinol"},
}

// compatibilityWarnings scans the union of actives across the selected
// skincare products and reports each incompatible pair present.
func compatibilityWarnings(actives map[string]struct{}) []string {
	var warnings []string
	for _, pair := range incompatiblePairs {
		_, hasFirst := actives[pair[0]]
		_, hasSecond := actives[pair[1]]
		if hasFirst && hasSecond {
			warnings = append(warnings,
				fmt.Sprintf("Не сочетайте %s и %s в одном уходе", pair[0], pair[1]))
		}
	}
	return warnings
}
