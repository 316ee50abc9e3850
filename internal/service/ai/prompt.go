package ai

import (
	"strings"

	"github.com/zhouzirui/bothive/internal/model/profile"
)

// BuildSystemPrompt composes the system message for the bot profile.
func BuildSystemPrompt(p profile.Profile) string {
	var builder strings.Builder
	if p.SystemPrompt != "" {
		builder.WriteString(p.SystemPrompt)
	} else {
		builder.WriteString("You are a helpful website assistant.")
	}
	if p.Name != "" {
		builder.WriteString("\nYour name is ")
		builder.WriteString(p.Name)
		builder.WriteString(".")
	}
	builder.WriteString("\nReplies are shown in a small chat window: keep them short, plain text, no markdown.")
	return builder.String()
}
