package widget

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/bothive/internal/model/chat"
	"github.com/zhouzirui/bothive/internal/model/profile"
	"github.com/zhouzirui/bothive/internal/service/conversation"
)

// Renderer prints the conversation view to a terminal.
type Renderer struct {
	out     io.Writer
	botName string

	header  lipgloss.Style
	tagline lipgloss.Style
	bot     lipgloss.Style
	user    lipgloss.Style
	meta    lipgloss.Style
	system  lipgloss.Style
	warning lipgloss.Style
}

// NewRenderer styles output for out; color support is detected from out.
func NewRenderer(out io.Writer, botName string) *Renderer {
	r := lipgloss.NewRenderer(out)
	return &Renderer{
		out:     out,
		botName: botName,
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#4F46E5")).Padding(0, 1),
		tagline: r.NewStyle().Foreground(lipgloss.Color("#A5B4FC")),
		bot:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#4F46E5")),
		user:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981")),
		meta:    r.NewStyle().Faint(true),
		system:  r.NewStyle().Italic(true).Faint(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
	}
}

// Header prints the bot name and tagline.
func (r *Renderer) Header(p profile.Profile) {
	fmt.Fprintf(r.out, "%s %s\n\n", r.header.Render(p.Name), r.tagline.Render(p.Tagline))
}

// Turn prints one message with its local time.
func (r *Renderer) Turn(turn chat.Turn) {
	label := r.user.Render("You")
	if turn.Role == chat.RoleBot {
		label = r.bot.Render(r.botName)
	}
	stamp := r.meta.Render(turn.Time.Local().Format("15:04"))
	fmt.Fprintf(r.out, "%s %s\n  %s\n", label, stamp, turn.Text)
}

// System prints a divider notice that is never persisted.
func (r *Renderer) System(text string) {
	fmt.Fprintf(r.out, "%s\n", r.system.Render("-- "+text+" --"))
}

// Warning prints a one-line failure notice.
func (r *Renderer) Warning(text string) {
	fmt.Fprintf(r.out, "%s\n", r.warning.Render("⚠️  "+text))
}

// State shows the typing indicator while a reply is pending.
func (r *Renderer) State(s conversation.State) {
	if s == conversation.StateAwaitingResult {
		fmt.Fprintf(r.out, "%s\n", r.meta.Render(r.botName+" is typing…"))
	}
}
