// Package render formats boarding codes, schedules and ride statistics for
// the terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/example/shuttle-pass/internal/application/usecases"
	"github.com/example/shuttle-pass/internal/domain/reservation"
)

// Boarding renders the result of a single refresh cycle.
func Boarding(rep usecases.Report) string {
	s := newStyles()
	lines := []string{
		s.title.Render("Boarding pass"),
		s.header.Render(fmt.Sprintf("direction: %s", rep.Direction)),
	}
	lines = append(lines, s.section.Render(boardingCard(rep.Candidate, rep.Outcome, nil, s)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Nearby renders one card per departure of a nearby cycle.
func Nearby(rep usecases.NearbyReport) string {
	s := newStyles()
	lines := []string{
		s.title.Render("Nearby departures"),
		s.header.Render(fmt.Sprintf("direction: %s  departures: %d", rep.Direction, len(rep.Cards))),
	}
	if len(rep.Cards) == 0 {
		lines = append(lines, s.empty.Render("No departures in the window."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	for _, c := range rep.Cards {
		lines = append(lines, s.section.Render(boardingCard(c.Candidate, c.Outcome, c.Err, s)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func boardingCard(c reservation.Candidate, out usecases.Outcome, err error, s styles) string {
	parts := []string{
		s.route.Render(fmt.Sprintf("%s %s", c.Slot.TimeOfDay, c.ResourceName)),
		s.detail.Render(departureLabel(c.TimeDifference)),
	}
	if err != nil {
		parts = append(parts, s.failure.Render("failed: "+reservation.Describe(err)))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}
	if out.Result.IsPastDeparture {
		parts = append(parts, s.past.Render("already departed, temporary code"))
	}
	parts = append(parts, s.code.Render(out.Result.Code))
	if len(out.Trace) > 0 {
		parts = append(parts, s.header.Render("steps: "+trace(out.Trace)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func departureLabel(diff int) string {
	switch {
	case diff < 0:
		return fmt.Sprintf("left %d min ago", -diff)
	case diff == 0:
		return "departs now"
	default:
		return fmt.Sprintf("departs in %d min", diff)
	}
}

func trace(states []usecases.State) string {
	names := make([]string, len(states))
	for i, st := range states {
		names[i] = st.String()
	}
	return strings.Join(names, " > ")
}

// Recent renders the local boarding log, newest first.
func Recent(entries []reservation.LoggedBoarding) string {
	s := newStyles()
	lines := []string{
		s.title.Render("Recent boarding codes"),
		s.header.Render(fmt.Sprintf("entries: %d", len(entries))),
	}
	if len(entries) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, s.empty.Render("Nothing recorded yet."))...)
	}
	for _, e := range entries {
		kind := "qr"
		if e.IsPastDeparture {
			kind = "temp"
		}
		lines = append(lines, s.detail.Render(fmt.Sprintf("%s  %-4s  %s  %s  %s",
			e.AcquiredAt.Format(time.DateTime), kind, e.DepartureTime, e.RouteName, e.Code)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
