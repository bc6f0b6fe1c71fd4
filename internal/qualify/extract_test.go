package qualify

import (
	"testing"

	"github.com/LeeSpain/vision-sync-server/internal/domain"
)

func turns(contents ...string) []domain.Turn {
	ts := make([]domain.Turn, len(contents))
	for i, c := range contents {
		ts[i] = domain.Turn{Role: "user", Content: c}
	}
	return ts
}

func TestRegexExtractor_Email(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain", "my email is jane@example.com", "jane@example.com"},
		{"uppercase input", "Reach me at Jane.Doe@Example.COM", "jane.doe@example.com"},
		{"plus tag", "use jane+leads@example.co.uk please", "jane+leads@example.co.uk"},
		{"first match wins", "a@one.com or b@two.com", "a@one.com"},
		{"none", "no contact details here", ""},
	}

	ex := NewRegexExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ex.Extract(turns(tt.content))
			if got.Email != tt.want {
				t.Errorf("Extract() email = %q, want %q", got.Email, tt.want)
			}
		})
	}
}

func TestRegexExtractor_Phone(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"dashes", "call me back at 555-123-4567", "5551234567"},
		{"parens and spaces", "phone: (555) 123 4567", "5551234567"},
		{"dots", "it's 555.123.4567", "5551234567"},
		{"country code", "+1 555-123-4567 works", "+15551234567"},
		{"no phone", "I never give out my number", ""},
	}

	ex := NewRegexExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ex.Extract(turns(tt.content))
			if got.Phone != tt.want {
				t.Errorf("Extract() phone = %q, want %q", got.Phone, tt.want)
			}
		})
	}
}

func TestRegexExtractor_Name(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"my name is", "my name is Jane Doe", "jane doe"},
		{"i'm", "hi, I'm Bob", "bob"},
		{"i am", "i am carlos ruiz and I like templates", "carlos ruiz"},
		{"call me", "call me Maria", "maria"},
		{"this is", "this is Sam Smith speaking", "sam smith"},
		{"no introduction", "what does the platform cost?", ""},
	}

	ex := NewRegexExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ex.Extract(turns(tt.content))
			if got.Name != tt.want {
				t.Errorf("Extract() name = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestRegexExtractor_ScansFullHistory(t *testing.T) {
	ex := NewRegexExtractor()
	history := turns(
		"hello, I'm Jane Doe",
		"tell me about the investment options",
		"you can reach me at jane@example.com",
	)

	got := ex.Extract(history)
	if got.Name != "jane doe" {
		t.Errorf("expected name from earlier turn, got %q", got.Name)
	}
	if got.Email != "jane@example.com" {
		t.Errorf("expected email from later turn, got %q", got.Email)
	}
	if got.Phone != "" {
		t.Errorf("expected no phone, got %q", got.Phone)
	}
}

func TestRegexExtractor_Deterministic(t *testing.T) {
	ex := NewRegexExtractor()
	history := turns("I'm Jane Doe, email jane@example.com, phone 555-123-4567")

	first := ex.Extract(history)
	second := ex.Extract(history)
	if first != second {
		t.Errorf("expected identical results, got %+v vs %+v", first, second)
	}
}

func TestRegexExtractor_EmptyHistory(t *testing.T) {
	ex := NewRegexExtractor()
	got := ex.Extract(nil)
	if got != (ContactInfo{}) {
		t.Errorf("expected empty ContactInfo, got %+v", got)
	}
}

func TestContactInfo_Complete(t *testing.T) {
	tests := []struct {
		name string
		info ContactInfo
		want bool
	}{
		{"email and name", ContactInfo{Name: "jane doe", Email: "jane@example.com"}, true},
		{"email only", ContactInfo{Email: "jane@example.com"}, false},
		{"name only", ContactInfo{Name: "jane doe"}, false},
		{"phone does not count", ContactInfo{Email: "jane@example.com", Phone: "5551234567"}, false},
		{"all three", ContactInfo{Name: "jane doe", Email: "jane@example.com", Phone: "5551234567"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Complete(); got != tt.want {
				t.Errorf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}
