package render

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/example/shuttle-pass/internal/domain/history"
	"github.com/example/shuttle-pass/internal/domain/reservation"
)

const (
	chartHeight = 8
	chartWidth  = 60
)

// Stats renders aggregated ride statistics.
func Stats(st history.Statistics) string {
	s := newStyles()
	lines := []string{
		s.title.Render("Ride history"),
		s.header.Render(fmt.Sprintf("valid rides: %d  days: %d  %s", st.ValidCount, len(st.CalendarDates), span(st))),
	}
	if st.ValidCount == 0 && st.SignInDeltas.Total() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, s.empty.Render("No rides yet."))...)
	}

	routes := []string{s.key.Render("By route")}
	for _, rc := range st.RouteCounts {
		routes = append(routes, s.detail.Render(fmt.Sprintf("  %4d  %s", rc.Count, rc.Route)))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, routes...)))

	hours := []string{s.key.Render("By hour  (outbound / return)")}
	for h := history.FirstHour; h <= history.LastHour; h++ {
		hc, ok := st.HourCounts[h]
		if !ok {
			continue
		}
		hours = append(hours, s.detail.Render(fmt.Sprintf("  %02d:30  %3d / %-3d", h, hc.Outbound, hc.Return)))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, hours...)))

	statuses := []string{s.key.Render("By status")}
	names := make([]string, 0, len(st.StatusCounts))
	for name := range st.StatusCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		statuses = append(statuses, s.detail.Render(fmt.Sprintf("  %4d  %s", st.StatusCounts[name], name)))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, statuses...)))

	if chart := deltaChart(st.SignInDeltas); chart != "" {
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, s.key.Render("Sign-in offset"), chart)))
	}
	if st.SkippedSignIns > 0 {
		lines = append(lines, s.empty.Render(fmt.Sprintf("%d sign-ins skipped (unreadable time)", st.SkippedSignIns)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func span(st history.Statistics) string {
	if st.EarliestDate.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s .. %s", st.EarliestDate.Format(reservation.DateLayout), st.LatestDate.Format(reservation.DateLayout))
}

// deltaChart plots the histogram from Min to Max. Empty when there is nothing to plot.
func deltaChart(h history.DeltaHistogram) string {
	if h.Total() == 0 || h.Max <= h.Min {
		return ""
	}
	data := make([]float64, 0, h.Max-h.Min+1)
	for m := h.Min; m <= h.Max; m++ {
		data = append(data, float64(h.Buckets[m]))
	}
	width := max(chartWidth, len(data))
	return asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("minutes from departure (%d..%d)", h.Min, h.Max)),
	)
}
