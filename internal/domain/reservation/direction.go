package reservation

import (
	"context"
	"math"
	"time"
)

// DirectionConfig drives the time based direction rule.
type DirectionConfig struct {
	CriticalHour        int
	MorningGoesOutbound bool
}

// ResolveDirection picks the direction from the hour of now. Before the
// critical hour travelers go the "morning" way, afterwards the other way.
func ResolveDirection(now time.Time, cfg DirectionConfig) Direction {
	morning := Return
	if cfg.MorningGoesOutbound {
		morning = Outbound
	}
	if now.Hour() < cfg.CriticalHour {
		return morning
	}
	return morning.Opposite()
}

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Lat float64 `mapstructure:"lat" toml:"lat" json:"lat"`
	Lon float64 `mapstructure:"lon" toml:"lon" json:"lon"`
}

// Locator returns the current device position.
type Locator interface {
	Locate(ctx context.Context) (Coordinate, error)
}

// StaticLocator always reports the same position.
type StaticLocator Coordinate

func (l StaticLocator) Locate(context.Context) (Coordinate, error) {
	return Coordinate(l), nil
}

// LocationResolver derives the direction from proximity to the two campuses.
// Anchors are named after the campus each direction travels to.
type LocationResolver struct {
	Locator             Locator
	OutboundDestination Coordinate
	ReturnDestination   Coordinate
	Fallback            DirectionConfig
}

// Resolve returns Outbound when the device is nearer the Return destination,
// since the user travels away from where they are. Without a position it falls
// back to the time based rule.
func (r LocationResolver) Resolve(ctx context.Context, now time.Time) Direction {
	if r.Locator == nil {
		return ResolveDirection(now, r.Fallback)
	}
	pos, err := r.Locator.Locate(ctx)
	if err != nil {
		return ResolveDirection(now, r.Fallback)
	}
	toOutbound := HaversineDistance(pos.Lat, pos.Lon, r.OutboundDestination.Lat, r.OutboundDestination.Lon)
	toReturn := HaversineDistance(pos.Lat, pos.Lon, r.ReturnDestination.Lat, r.ReturnDestination.Lon)
	if toReturn < toOutbound {
		return Outbound
	}
	return Return
}

// HaversineDistance is the great-circle distance in kilometers.
func HaversineDistance(aLat, aLon, bLat, bLon float64) float64 {
	const earthRadiusKm = 6371

	aLatRad := aLat * math.Pi / 180
	aLonRad := aLon * math.Pi / 180
	bLatRad := bLat * math.Pi / 180
	bLonRad := bLon * math.Pi / 180
	deltaLat := aLatRad - bLatRad
	deltaLon := aLonRad - bLonRad

	a := math.Cos(aLatRad)*math.Cos(bLatRad)*math.Pow(math.Sin(deltaLon/2), 2) + math.Pow(math.Sin(deltaLat/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return c * earthRadiusKm
}
