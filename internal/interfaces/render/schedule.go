package render

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

// Schedule renders every route with its slots for date.
func Schedule(date string, resources []reservation.Resource) string {
	s := newStyles()
	lines := []string{
		s.title.Render("Schedule " + date),
		s.header.Render(fmt.Sprintf("routes: %d", len(resources))),
	}
	if len(resources) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, s.empty.Render("No routes."))...)
	}
	for _, r := range resources {
		parts := []string{s.route.Render(fmt.Sprintf("[%d] %s", r.ID, r.Name))}
		for _, slot := range r.Slots {
			style := s.detail
			if !slot.Available(date) {
				style = s.empty
			}
			parts = append(parts, style.Render(fmt.Sprintf("  %s  seats %d", slot.TimeOfDay, slot.RemainingSeats)))
		}
		if len(r.Slots) == 0 {
			parts = append(parts, s.empty.Render("  no departures"))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
