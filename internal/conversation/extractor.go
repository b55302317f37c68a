package conversation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LeadFields are the contact and intent details pulled from one message.
type LeadFields struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Budget string `json:"budget,omitempty"`
}

// Any reports whether at least one field was found.
func (f LeadFields) Any() bool {
	return f.Name != "" || f.Email != "" || f.Phone != "" || f.Budget != ""
}

var (
	emailRE = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9\-]+(?:\.[a-z0-9\-]+)*\.[a-z]{2,}`)

	// at least nine digits, each optionally preceded by up to two separators
	phoneRE = regexp.MustCompile(`\+?\(?\d(?:[\s\-().]{0,2}\d){8,}`)

	budgetRE = regexp.MustCompile(`(?i)(?:[$€£]\s?|\b(?:aed|usd|eur|gbp|inr)\s?)?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?(?:\s?(?:million|billion|thousand|lakhs?|crores?|mn|bn|k|m|b|aed|usd|eur|gbp|inr|dollars?|dirhams?)\b)?`)

	nameRE = regexp.MustCompile(`\b(?i:my name is|i am|i'm|im|call me|this is)\s+(\p{Lu}[\p{L}\p{M}'\-]*)`)
)

var nameTextNormalizer = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"′", "'",
)

type fieldMatcher struct {
	field string
	match func(text string) string
}

// leadMatchers run in this order on every message.
var leadMatchers = []fieldMatcher{
	{field: "email", match: matchEmail},
	{field: "phone", match: matchPhone},
	{field: "budget", match: matchBudget},
	{field: "name", match: matchName},
}

// Extract runs every matcher over text. It never fails; unmatched fields stay empty.
func Extract(text string) LeadFields {
	var out LeadFields
	for _, m := range leadMatchers {
		value := m.match(text)
		switch m.field {
		case "email":
			out.Email = value
		case "phone":
			out.Phone = value
		case "budget":
			out.Budget = value
		case "name":
			out.Name = value
		}
	}
	return out
}

func matchEmail(text string) string {
	return emailRE.FindString(text)
}

func phoneSpan(text string) []int {
	for _, loc := range phoneRE.FindAllStringIndex(text, -1) {
		if isWordRune(runeBefore(text, loc[0])) || isWordRune(runeAfter(text, loc[1])) || runeAfter(text, loc[1]) == '@' {
			continue
		}
		return loc
	}
	return nil
}

func matchPhone(text string) string {
	loc := phoneSpan(text)
	if loc == nil {
		return ""
	}
	return strings.TrimSpace(text[loc[0]:loc[1]])
}

// matchBudget returns the first numeric amount that is not part of the
// message's email or phone number.
func matchBudget(text string) string {
	var taken [][]int
	if loc := emailRE.FindStringIndex(text); loc != nil {
		taken = append(taken, loc)
	}
	if loc := phoneSpan(text); loc != nil {
		taken = append(taken, loc)
	}
	for _, loc := range budgetRE.FindAllStringIndex(text, -1) {
		if overlapsAny(loc, taken) {
			continue
		}
		if isWordRune(runeBefore(text, loc[0])) || isWordRune(runeAfter(text, loc[1])) {
			continue
		}
		return strings.TrimSpace(text[loc[0]:loc[1]])
	}
	return ""
}

func matchName(text string) string {
	normalized := nameTextNormalizer.Replace(text)
	for _, match := range nameRE.FindAllStringSubmatch(normalized, -1) {
		word := strings.Trim(match[1], "'-")
		if looksLikeNameWord(word) {
			return word
		}
	}
	return ""
}

func looksLikeNameWord(word string) bool {
	count := utf8.RuneCountInString(word)
	if count < 2 || count > 30 {
		return false
	}
	return !notNames[strings.ToLower(word)]
}

// notNames are capitalized words that commonly follow an intro phrase.
var notNames = map[string]bool{
	"a": true, "an": true, "the": true, "not": true, "just": true, "so": true,
	"very": true, "really": true, "also": true, "still": true, "here": true,
	"looking": true, "interested": true, "searching": true, "planning": true,
	"thinking": true, "hoping": true, "trying": true, "calling": true,
	"writing": true, "wondering": true, "curious": true, "ready": true,
	"buying": true, "selling": true, "renting": true, "moving": true,
	"going": true, "good": true, "great": true, "fine": true, "ok": true,
	"okay": true, "sure": true, "happy": true, "glad": true, "sorry": true,
	"available": true, "back": true, "new": true, "yes": true, "no": true,
	"hi": true, "hello": true, "in": true, "at": true, "from": true,
	"with": true, "on": true, "about": true, "what": true, "it": true,
}

func overlapsAny(loc []int, spans [][]int) bool {
	for _, s := range spans {
		if loc[0] < s[1] && s[0] < loc[1] {
			return true
		}
	}
	return false
}

func runeBefore(text string, idx int) rune {
	if idx <= 0 {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeLastRuneInString(text[:idx])
	return r
}

func runeAfter(text string, idx int) rune {
	if idx >= len(text) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(text[idx:])
	return r
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
