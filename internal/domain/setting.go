package domain

import (
	"time"

	"github.com/google/uuid"
)

// Setting represents a single stored configuration value. Stored settings
// override process configuration; the chat orchestrator reads them fresh on
// every request so admin edits take effect without a restart.
type Setting struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	ValueType   string    `json:"value_type"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Setting categories
const (
	SettingCategoryBusiness = "business"
	SettingCategoryAI       = "ai"
	SettingCategoryChat     = "chat"
)

// Setting value types
const (
	SettingTypeString = "string"
	SettingTypeInt    = "int"
	SettingTypeBool   = "bool"
	SettingTypeJSON   = "json"
)

// Setting keys (constants to avoid typos at call sites)
const (
	SettingKeyBusinessName   = "business_name"
	SettingKeyWelcomeMessage = "welcome_message"
	SettingKeyModelAPIKey    = "model_api_key"
	SettingKeyModelName      = "model_name"
	SettingKeyMaxReplyWords  = "max_reply_words"
)
