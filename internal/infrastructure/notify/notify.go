// Package notify raises desktop notifications for background refresh results.
package notify

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/example/shuttle-pass/internal/application/usecases"
)

// Desktop notifies through the platform notification service.
type Desktop struct {
	// Send defaults to beeep.Notify.
	Send   func(title, message string, icon any) error
	Logger *slog.Logger
}

func NewDesktop(logger *slog.Logger) *Desktop {
	return &Desktop{Send: beeep.Notify, Logger: logger}
}

// Boarding announces the code a background cycle obtained. Failures are only
// logged; a headless host has no notification service.
func (d *Desktop) Boarding(rep usecases.Report) {
	title, body := Message(rep)
	if err := d.Send(title, body, ""); err != nil && d.Logger != nil {
		d.Logger.Debug("desktop notification failed", "err", err)
	}
}

// Message renders the notification text for a report.
func Message(rep usecases.Report) (title, body string) {
	res := rep.Outcome.Result
	if res.IsPastDeparture {
		title = "Temporary boarding code ready"
	} else {
		title = "Seat reserved"
	}
	body = fmt.Sprintf("%s at %s (%s)", res.RouteName, res.DepartureTime, rep.Direction)
	return title, body
}
