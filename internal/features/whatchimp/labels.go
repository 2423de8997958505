package whatchimp

// Label IDs are fixed at deploy time in the CRM workspace. Two families:
// RFM segment and churn risk. A customer carries at most one label per
// family, so resolution yields 0-2 IDs.
var segmentLabels = map[string]int{
	"VIP":       2001,
	"Frequente": 2002,
	"Regular":   2003,
	"Novato":    2004,
	"Dormente":  2005,
}

var riskLabels = map[string]int{
	"Alto":  3001,
	"Médio": 3002,
	"Baixo": 3003,
}

// ResolveLabels maps a customer's segment and risk labels to CRM label IDs.
// Unknown strings are silently omitted; a renamed segment must never abort a
// sync run.
func ResolveLabels(segment, risk string) []int {
	labels := make([]int, 0, 2)
	if id, ok := segmentLabels[segment]; ok {
		labels = append(labels, id)
	}
	if id, ok := riskLabels[risk]; ok {
		labels = append(labels, id)
	}
	return labels
}

// ManagedLabelIDs returns every label ID this pipeline maintains, across both
// families. The existing-subscriber flow removes all of them before assigning
// the current set; the provider has no atomic replace and assigning without
// clearing accumulates stale labels as customers move between segments.
func ManagedLabelIDs() []int {
	ids := make([]int, 0, len(segmentLabels)+len(riskLabels))
	for _, id := range segmentLabels {
		ids = append(ids, id)
	}
	for _, id := range riskLabels {
		ids = append(ids, id)
	}
	return ids
}

// LabelMapping exposes the static name -> ID tables for the get_labels API.
func LabelMapping() map[string]map[string]int {
	segments := make(map[string]int, len(segmentLabels))
	for k, v := range segmentLabels {
		segments[k] = v
	}
	risks := make(map[string]int, len(riskLabels))
	for k, v := range riskLabels {
		risks[k] = v
	}
	return map[string]map[string]int{
		"segments": segments,
		"risk":     risks,
	}
}
