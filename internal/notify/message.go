package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/agency"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/leads"
)

const blank = "-"

type leadLine struct {
	label string
	value string
}

func leadLines(lead *leads.Lead) []leadLine {
	return []leadLine{
		{"Name", orBlank(lead.Name)},
		{"Email", orBlank(lead.Email)},
		{"Phone", orBlank(lead.Phone)},
		{"Budget", orBlank(lead.Budget)},
		{"Captured", lead.CreatedAt.UTC().Format(time.RFC1123)},
	}
}

func orBlank(v string) string {
	if strings.TrimSpace(v) == "" {
		return blank
	}
	return v
}

// LeadEmail renders the owner notification for a new lead.
func LeadEmail(a *agency.Agency, lead *leads.Lead, dashboardURL string) EmailMessage {
	who := strings.TrimSpace(lead.Name)
	if who == "" {
		who = "a website visitor"
	}
	subject := fmt.Sprintf("New lead for %s: %s", a.Name, who)

	var text strings.Builder
	fmt.Fprintf(&text, "Your assistant captured a new lead for %s.\n\n", a.Name)
	for _, l := range leadLines(lead) {
		fmt.Fprintf(&text, "%s: %s\n", l.label, l.value)
	}
	fmt.Fprintf(&text, "\nSummary:\n%s\n", orBlank(lead.Message))
	if dashboardURL != "" {
		fmt.Fprintf(&text, "\nView all leads: %s\n", dashboardURL)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "<p>Your assistant captured a new lead for <strong>%s</strong>.</p><table>", html.EscapeString(a.Name))
	for _, l := range leadLines(lead) {
		fmt.Fprintf(&body, "<tr><td><strong>%s</strong></td><td>%s</td></tr>", l.label, html.EscapeString(l.value))
	}
	fmt.Fprintf(&body, "</table><p><strong>Summary</strong><br>%s</p>", html.EscapeString(orBlank(lead.Message)))
	if dashboardURL != "" {
		fmt.Fprintf(&body, `<p><a href="%s">View all leads</a></p>`, html.EscapeString(dashboardURL))
	}

	return EmailMessage{
		To:       a.OwnerEmail,
		ToName:   a.OwnerName,
		ReplyTo:  strings.TrimSpace(lead.Email),
		Subject:  subject,
		Body:     text.String(),
		HTML:     body.String(),
		Category: CategoryLead,
	}
}
