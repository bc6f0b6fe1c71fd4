package domain

import "strconv"

// ChatSettings is the typed view of the stored chat configuration.
// Stored values override process configuration; missing keys fall back to
// the defaults below.
type ChatSettings struct {
	BusinessName   string
	WelcomeMessage string
	ModelAPIKey    string
	ModelName      string
	MaxReplyWords  int
}

// NewChatSettingsFromMap creates ChatSettings from a map of setting key -> value.
func NewChatSettingsFromMap(settings map[string]string) *ChatSettings {
	cs := &ChatSettings{
		BusinessName:  "Vision-Sync",
		MaxReplyWords: 120,
	}

	if v, ok := settings[SettingKeyBusinessName]; ok && v != "" {
		cs.BusinessName = v
	}
	if v, ok := settings[SettingKeyWelcomeMessage]; ok && v != "" {
		cs.WelcomeMessage = v
	}
	if v, ok := settings[SettingKeyModelAPIKey]; ok && v != "" {
		cs.ModelAPIKey = v
	}
	if v, ok := settings[SettingKeyModelName]; ok && v != "" {
		cs.ModelName = v
	}
	if v, ok := settings[SettingKeyMaxReplyWords]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cs.MaxReplyWords = n
		}
	}

	return cs
}

// ToMap converts the settings back to key -> value form for storage.
func (cs *ChatSettings) ToMap() map[string]string {
	return map[string]string{
		SettingKeyBusinessName:   cs.BusinessName,
		SettingKeyWelcomeMessage: cs.WelcomeMessage,
		SettingKeyModelAPIKey:    cs.ModelAPIKey,
		SettingKeyModelName:      cs.ModelName,
		SettingKeyMaxReplyWords:  strconv.Itoa(cs.MaxReplyWords),
	}
}
