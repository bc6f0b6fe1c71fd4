package qualify

import "strings"

// Scoring weights. The raw sum can exceed the 0-100 scale (base + all
// bonuses is 120), so the result is capped at MaxScore.
const (
	baseScore     = 25
	emailPoints   = 30
	phonePoints   = 25
	namePoints    = 20
	keywordPoints = 20

	// MaxScore is the ceiling of the conversion scale.
	MaxScore = 100
)

// buyingKeywords are the purchase-intent signals checked against the latest
// visitor message, as lowercase substrings ("pricing" matches via "price").
var buyingKeywords = []string{"price", "cost", "buy", "interested", "contact"}

// Score is the result of conversion scoring for one message turn.
type Score struct {
	Value     int  `json:"value"`
	Qualified bool `json:"qualified"`
}

// ScoreConversation maps extracted contact fields and the latest visitor
// message to a conversion score and qualification flag. Deterministic and
// monotonically non-decreasing as more contact fields become present.
func ScoreConversation(info ContactInfo, latestMessage string) Score {
	score := baseScore
	if info.HasEmail() {
		score += emailPoints
	}
	if info.HasPhone() {
		score += phonePoints
	}
	if info.HasName() {
		score += namePoints
	}

	hasKeyword := containsBuyingKeyword(latestMessage)
	if hasKeyword || info.Complete() {
		score += keywordPoints
	}
	if score > MaxScore {
		score = MaxScore
	}

	return Score{
		Value:     score,
		Qualified: hasKeyword || info.Complete(),
	}
}

func containsBuyingKeyword(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range buyingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
