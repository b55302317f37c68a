package conversation

import "github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/leads"

// Qualify decides whether a turn produces a lead. Extracted fields win over
// engagement; windowLen counts stored turns including the latest reply.
func Qualify(fields LeadFields, windowLen, minTurns int) (string, bool) {
	if fields.Any() {
		return leads.TriggerFields, true
	}
	if minTurns > 0 && windowLen >= minTurns {
		return leads.TriggerEngagement, true
	}
	return "", false
}
