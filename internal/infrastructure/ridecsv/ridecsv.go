// Package ridecsv reads and writes ride history as CSV, so statistics can be
// computed offline from an export.
package ridecsv

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"github.com/example/shuttle-pass/internal/domain/reservation"
)

// Read parses rides with a header row. A leading byte order mark, as written
// by spreadsheet exports, is skipped.
func Read(r io.Reader) ([]reservation.RideRecord, error) {
	var rows []*reservation.RideRecord
	if err := gocsv.UnmarshalCSV(gocsv.LazyCSVReader(bom.NewReader(r)), &rows); err != nil {
		return nil, fmt.Errorf("unmarshaling rides: %w", err)
	}
	out := make([]reservation.RideRecord, 0, len(rows))
	for i, row := range rows {
		if strings.TrimSpace(row.AppointmentTime) == "" {
			return nil, fmt.Errorf("ride %d has no appointment_time", i+1)
		}
		out = append(out, *row)
	}
	return out, nil
}

// Write emits rides with a header row.
func Write(w io.Writer, rides []reservation.RideRecord) error {
	if err := gocsv.Marshal(rides, w); err != nil {
		return fmt.Errorf("marshaling rides: %w", err)
	}
	return nil
}
