// Package qualify implements the lead-qualification heuristics behind the
// chat widget: contact extraction from free-form conversation text and
// conversion scoring.
package qualify

import (
	"regexp"
	"strings"

	"github.com/LeeSpain/vision-sync-server/internal/domain"
)

// Package-level compiled patterns. The whole turn history is lowercased
// before scanning, so the character classes only need lowercase letters.
var (
	emailRE = regexp.MustCompile(`[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)

	// Loose North-American shape: optional country code, optional
	// parentheses, dots/dashes/spaces as separators.
	phoneRE = regexp.MustCompile(`(\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

	// "my name is Jane Doe" and similar self-introductions; captures one or
	// two words.
	nameRE = regexp.MustCompile(`(?:my name is|i'm|i am|call me|this is)\s+([a-z]+(?:\s+[a-z]+)?)`)

	phoneStripRE = regexp.MustCompile(`[^0-9+]`)
)

// ContactInfo holds contact fields pulled from a conversation. Empty string
// means the field was not found. It is transient: recomputed from the full
// turn history on every message, never persisted on its own.
type ContactInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// HasEmail reports whether an email was found.
func (c ContactInfo) HasEmail() bool { return c.Email != "" }

// HasPhone reports whether a phone number was found.
func (c ContactInfo) HasPhone() bool { return c.Phone != "" }

// HasName reports whether a name was found.
func (c ContactInfo) HasName() bool { return c.Name != "" }

// Complete reports whether the contact is complete for qualification
// purposes: both email and name present. Phone is a bonus, not a
// requirement.
func (c ContactInfo) Complete() bool {
	return c.HasEmail() && c.HasName()
}

// RegexExtractor is the heuristic contact extractor. It is pure and
// deterministic; ambiguous matches resolve to the first match in document
// order. False positives on name extraction are an accepted trade-off for a
// lead-qualification heuristic.
type RegexExtractor struct{}

// NewRegexExtractor creates the default extractor.
func NewRegexExtractor() RegexExtractor {
	return RegexExtractor{}
}

// Extract scans the full turn history, concatenated and lowercased, and
// returns at most one match per field.
func (RegexExtractor) Extract(turns []domain.Turn) ContactInfo {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	text := strings.ToLower(b.String())

	info := ContactInfo{}

	if m := emailRE.FindString(text); m != "" {
		info.Email = m
	}
	if m := phoneRE.FindString(text); m != "" {
		info.Phone = normalizePhone(m)
	}
	if m := nameRE.FindStringSubmatch(text); m != nil {
		info.Name = strings.TrimSpace(m[1])
	}

	return info
}

// normalizePhone strips everything except digits and a leading plus.
func normalizePhone(raw string) string {
	cleaned := phoneStripRE.ReplaceAllString(raw, "")
	if strings.HasPrefix(cleaned, "+") {
		return "+" + strings.ReplaceAll(cleaned[1:], "+", "")
	}
	return strings.ReplaceAll(cleaned, "+", "")
}
