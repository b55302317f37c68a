package conversation

import (
	"fmt"
	"strings"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/agency"
)

const assistantGuidelines = `Keep replies short and conversational, at most three sentences.
When the visitor seems interested, ask for their name and the best email or phone number to reach them.
Never promise prices, availability or legal terms you were not given.`

// systemPrompt builds the instruction blocks for an agency's assistant.
func systemPrompt(a *agency.Agency) []string {
	name := strings.TrimSpace(a.AssistantName)
	if name == "" {
		name = agency.DefaultAssistantName
	}
	identity := fmt.Sprintf("You are %s, the sales assistant for %s.", name, a.Name)
	blocks := []string{identity}
	if prompt := strings.TrimSpace(a.Prompt); prompt != "" {
		blocks = append(blocks, prompt)
	}
	return append(blocks, assistantGuidelines)
}
