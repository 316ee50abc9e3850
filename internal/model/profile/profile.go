package profile

import "github.com/zhouzirui/bothive/internal/config"

// Profile is the bot identity shown by the widget and used to prime replies.
type Profile struct {
	Name         string `json:"name"`
	Tagline      string `json:"tagline"`
	Welcome      string `json:"welcome"`
	Placeholder  string `json:"placeholder"`
	SystemPrompt string `json:"-"`
}

// FromConfig builds the profile from the widget and AI settings.
func FromConfig(cfg *config.Config) Profile {
	return Profile{
		Name:         cfg.Widget.BotName,
		Tagline:      cfg.Widget.BotTagline,
		Welcome:      cfg.Widget.WelcomeMessage,
		Placeholder:  cfg.Widget.Placeholder,
		SystemPrompt: cfg.AI.SystemPrompt,
	}
}
