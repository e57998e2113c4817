package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"basegraph.app/specflow/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#4A5568")).Padding(0, 1)

	typeStyles = map[model.WorkItemType]lipgloss.Style{
		model.WorkItemTypeUserStory: lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
		model.WorkItemTypeTask:      lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
		model.WorkItemTypeBug:       lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		model.WorkItemTypeFeature:   lipgloss.NewStyle().Foreground(lipgloss.Color("#B084F5")).Bold(true),
	}

	defaultTypeStyle = lipgloss.NewStyle().Bold(true)
)

// Text writes one bordered card per ticket.
func Text(w io.Writer, tickets []model.Ticket) error {
	if _, err := fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Draft tickets (%d)", len(tickets)))); err != nil {
		return err
	}
	for i, t := range tickets {
		if _, err := fmt.Fprintln(w, card(i+1, t)); err != nil {
			return err
		}
	}
	return nil
}

// JSON writes the tickets as an indented JSON array.
func JSON(w io.Writer, tickets []model.Ticket) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	return enc.Encode(tickets)
}

func card(n int, t model.Ticket) string {
	typeStyle, ok := typeStyles[t.Type]
	if !ok {
		typeStyle = defaultTypeStyle
	}

	lines := []string{
		fmt.Sprintf("#%d %s  %s", n, typeStyle.Render(string(t.Type)), sectionStyle.Render("P"+string(t.Priority))),
		titleStyle.Render(t.Title),
	}
	if t.Description != "" {
		lines = append(lines, "", t.Description)
	}
	if t.AcceptanceCriteria != "" {
		lines = append(lines, "", sectionStyle.Render("Acceptance criteria"), string(t.AcceptanceCriteria))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}
