package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/shuttle-pass/internal/application/usecases"
	"github.com/example/shuttle-pass/internal/domain/reservation"
)

func TestBoardingNotification(t *testing.T) {
	var title, body string
	d := &Desktop{Send: func(t, m string, _ any) error {
		title, body = t, m
		return nil
	}}
	d.Boarding(usecases.Report{
		Direction: reservation.Outbound,
		Outcome:   usecases.Outcome{Result: reservation.BoardingResult{RouteName: "Route 2", DepartureTime: "14:00"}},
	})
	assert.Equal(t, "Seat reserved", title)
	assert.Equal(t, "Route 2 at 14:00 (outbound)", body)
}

func TestBoardingNotificationFailureIsSwallowed(t *testing.T) {
	d := &Desktop{Send: func(string, string, any) error { return errors.New("no dbus") }}
	assert.NotPanics(t, func() {
		d.Boarding(usecases.Report{Outcome: usecases.Outcome{Result: reservation.BoardingResult{IsPastDeparture: true}}})
	})
	title, _ := Message(usecases.Report{Outcome: usecases.Outcome{Result: reservation.BoardingResult{IsPastDeparture: true}}})
	assert.Equal(t, "Temporary boarding code ready", title)
}
