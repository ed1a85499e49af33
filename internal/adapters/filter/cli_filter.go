package filter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mikey/email-concierge/internal/core"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	colorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	colorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	colorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	colorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	colorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	colorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	colorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Background(colorBlue).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Width(12)

	draftStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	signalOn  = lipgloss.NewStyle().Foreground(colorGreen)
	signalOff = lipgloss.NewStyle().Foreground(colorGray)
)

// TierStyle returns a color-coded style for a priority tier
func TierStyle(t core.Tier) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch t {
	case core.TierInterruptNow:
		return base.Foreground(colorRed)
	case core.TierNotifyNonUrgent:
		return base.Foreground(colorYellow)
	case core.TierLogSilently:
		return base.Foreground(colorBlue)
	case core.TierBatchForLater:
		return base.Foreground(colorGreen)
	default:
		return base.Foreground(colorGray)
	}
}

// CliFilter renders triage results for the command line
type CliFilter struct {
	out     io.Writer
	verbose bool
}

// NewCliFilter creates a new CLI renderer writing to out
func NewCliFilter(out io.Writer, verbose bool) *CliFilter {
	return &CliFilter{
		out:     out,
		verbose: verbose,
	}
}

// PrintResult writes the quick view of a triage result
func (f *CliFilter) PrintResult(msg *Message, result *core.TriageResult) {
	var sb strings.Builder

	sb.WriteString(headerStyle.Render("Email Concierge"))
	sb.WriteString("\n")
	f.row(&sb, "From", msg.From)
	f.row(&sb, "Subject", msg.Subject)
	if f.verbose {
		preview := msg.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		f.row(&sb, "Body", preview)
	}
	sb.WriteString("\n")

	f.row(&sb, "Priority", TierStyle(result.Tier).Render(string(result.Tier)))
	f.row(&sb, "Folder", result.Folder)
	f.row(&sb, "Notify", yesNo(result.Notify))
	f.row(&sb, "Reason", result.Reason)
	f.row(&sb, "Action", result.RecommendedAction)
	f.row(&sb, "Reply", yesNo(result.ReplyRecommended))
	f.row(&sb, "Signals", renderSignals(result.Signals))

	if result.HasDraft() {
		sb.WriteString("\n")
		sb.WriteString(draftStyle.Render(*result.Draft))
		sb.WriteString("\n")
	}

	fmt.Fprintln(f.out, sb.String())
}

// PrintJSON writes results as indented JSON; a single result is written
// as an object, several as an array
func (f *CliFilter) PrintJSON(results ...*core.TriageResult) error {
	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")

	var v interface{} = results
	if len(results) == 1 {
		v = results[0]
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// PrintError writes a failure for one message without aborting a batch
func (f *CliFilter) PrintError(subject string, err error) {
	fmt.Fprintf(f.out, "%s %s: %v\n", TierStyle(core.TierInterruptNow).Render("error"), subject, err)
}

func (f *CliFilter) row(sb *strings.Builder, label, value string) {
	sb.WriteString(labelStyle.Render(label))
	sb.WriteString(value)
	sb.WriteString("\n")
}

func renderSignals(s core.Signals) string {
	named := []struct {
		name string
		on   bool
	}{
		{"reply", s.IsReplyToUser},
		{"known", s.KnownContact},
		{"human", s.HumanSender},
		{"transactional", s.IsTransactional},
		{"newsletter", s.IsNewsletter},
		{"promotional", s.IsPromotional},
	}

	parts := make([]string, 0, len(named))
	for _, n := range named {
		if n.on {
			parts = append(parts, signalOn.Render("+"+n.name))
		} else {
			parts = append(parts, signalOff.Render("-"+n.name))
		}
	}
	return strings.Join(parts, " ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
