package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhouzirui/bothive/internal/model/chat"
	"github.com/zhouzirui/bothive/internal/model/profile"
)

// Fallback answers without a model so the webhook works before credentials are set.
type Fallback struct {
	profile profile.Profile
}

// NewFallback returns a responder for p.
func NewFallback(p profile.Profile) *Fallback {
	return &Fallback{profile: p}
}

// Reply greets on the first turn and acknowledges every later message.
func (f *Fallback) Reply(_ context.Context, _ string, history []chat.Turn, message string) (string, error) {
	lower := strings.ToLower(message)
	switch {
	case len(history) == 0 && isGreeting(lower):
		return fmt.Sprintf("Hi! I'm %s. How can I help?", f.profile.Name), nil
	case strings.HasSuffix(lower, "?"):
		return fmt.Sprintf("Good question! A teammate will follow up on %q shortly.", message), nil
	default:
		return fmt.Sprintf("Thanks, I got your message: %q", message), nil
	}
}

func isGreeting(lower string) bool {
	for _, greeting := range []string{"hi", "hello", "hey"} {
		if lower == greeting || strings.HasPrefix(lower, greeting+" ") {
			return true
		}
	}
	return false
}
