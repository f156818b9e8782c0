// Package settings stores the user's tunables in a TOML file. Viper reads the
// file and SHUTTLE_* environment overrides; go-toml writes it back.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/example/shuttle-pass/internal/domain/history"
	"github.com/example/shuttle-pass/internal/domain/reservation"
)

const (
	currentVersion = 1
	envPrefix      = "SHUTTLE"
	fileMode       = 0o600
	dirMode        = 0o700
	tempPattern    = ".settings-*.toml.tmp"
)

// Settings are the user configurable thresholds of a refresh cycle.
type Settings struct {
	Version             int                    `mapstructure:"version" toml:"version"`
	CriticalHour        int                    `mapstructure:"critical_hour" toml:"critical_hour"`
	MorningGoesOutbound bool                   `mapstructure:"morning_goes_outbound" toml:"morning_goes_outbound"`
	PastTolerance       int                    `mapstructure:"past_tolerance" toml:"past_tolerance"`
	FutureTolerance     int                    `mapstructure:"future_tolerance" toml:"future_tolerance"`
	OutboundRoutes      []int                  `mapstructure:"outbound_routes" toml:"outbound_routes"`
	ReturnRoutes        []int                  `mapstructure:"return_routes" toml:"return_routes"`
	LookupAttempts      int                    `mapstructure:"lookup_attempts" toml:"lookup_attempts"`
	LookupDelayMS       int                    `mapstructure:"lookup_delay_ms" toml:"lookup_delay_ms"`
	OutboundDestination reservation.Coordinate `mapstructure:"outbound_destination" toml:"outbound_destination"`
	ReturnDestination   reservation.Coordinate `mapstructure:"return_destination" toml:"return_destination"`
	OutboundMarker      string                 `mapstructure:"outbound_marker" toml:"outbound_marker"`
	ReturnMarker        string                 `mapstructure:"return_marker" toml:"return_marker"`
	CancelledStatus     string                 `mapstructure:"cancelled_status" toml:"cancelled_status"`
}

// Default returns the settings used before the user changes anything.
func Default() Settings {
	routes := reservation.DefaultRoutes()
	return Settings{
		Version:             currentVersion,
		CriticalHour:        14,
		MorningGoesOutbound: true,
		PastTolerance:       10,
		FutureTolerance:     30,
		OutboundRoutes:      routes[reservation.Outbound],
		ReturnRoutes:        routes[reservation.Return],
		LookupAttempts:      3,
		LookupDelayMS:       1000,
		OutboundDestination: reservation.Coordinate{Lat: 40.1527, Lon: 116.2698},
		ReturnDestination:   reservation.Coordinate{Lat: 39.9929, Lon: 116.3055},
		OutboundMarker:      history.DefaultOutboundMarker,
		ReturnMarker:        history.DefaultReturnMarker,
		CancelledStatus:     history.DefaultCancelledStatus,
	}
}

// Load reads path, falling back to defaults for a missing file or key.
// SHUTTLE_<KEY> environment variables override the file.
func Load(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("version", d.Version)
	v.SetDefault("critical_hour", d.CriticalHour)
	v.SetDefault("morning_goes_outbound", d.MorningGoesOutbound)
	v.SetDefault("past_tolerance", d.PastTolerance)
	v.SetDefault("future_tolerance", d.FutureTolerance)
	v.SetDefault("outbound_routes", d.OutboundRoutes)
	v.SetDefault("return_routes", d.ReturnRoutes)
	v.SetDefault("lookup_attempts", d.LookupAttempts)
	v.SetDefault("lookup_delay_ms", d.LookupDelayMS)
	v.SetDefault("outbound_destination.lat", d.OutboundDestination.Lat)
	v.SetDefault("outbound_destination.lon", d.OutboundDestination.Lon)
	v.SetDefault("return_destination.lat", d.ReturnDestination.Lat)
	v.SetDefault("return_destination.lon", d.ReturnDestination.Lon)
	v.SetDefault("outbound_marker", d.OutboundMarker)
	v.SetDefault("return_marker", d.ReturnMarker)
	v.SetDefault("cancelled_status", d.CancelledStatus)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if s.Version > currentVersion {
		return Settings{}, fmt.Errorf("unsupported settings version %d (current %d)", s.Version, currentVersion)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	switch {
	case s.CriticalHour < 0 || s.CriticalHour > 24:
		return fmt.Errorf("critical_hour must be within 0..24 (got %d)", s.CriticalHour)
	case s.PastTolerance < 0 || s.FutureTolerance < 0:
		return errors.New("tolerances must not be negative")
	case s.LookupAttempts < 1:
		return fmt.Errorf("lookup_attempts must be at least 1 (got %d)", s.LookupAttempts)
	case s.LookupDelayMS < 0:
		return errors.New("lookup_delay_ms must not be negative")
	}
	return nil
}

// Save writes s atomically with owner-only permissions.
func Save(path string, s Settings) error {
	if s.Version == 0 {
		s.Version = currentVersion
	}
	if err := s.Validate(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp settings file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp settings file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	cleanup = false
	return nil
}

// Set changes one key from its string form, as given on the command line.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	var err error
	switch key {
	case "critical_hour":
		s.CriticalHour, err = strconv.Atoi(value)
	case "morning_goes_outbound":
		s.MorningGoesOutbound, err = strconv.ParseBool(value)
	case "past_tolerance":
		s.PastTolerance, err = strconv.Atoi(value)
	case "future_tolerance":
		s.FutureTolerance, err = strconv.Atoi(value)
	case "outbound_routes":
		s.OutboundRoutes, err = parseInts(value)
	case "return_routes":
		s.ReturnRoutes, err = parseInts(value)
	case "lookup_attempts":
		s.LookupAttempts, err = strconv.Atoi(value)
	case "lookup_delay_ms":
		s.LookupDelayMS, err = strconv.Atoi(value)
	case "outbound_destination":
		s.OutboundDestination, err = parseCoordinate(value)
	case "return_destination":
		s.ReturnDestination, err = parseCoordinate(value)
	case "outbound_marker":
		s.OutboundMarker = value
	case "return_marker":
		s.ReturnMarker = value
	case "cancelled_status":
		s.CancelledStatus = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return s.Validate()
}

func (s Settings) Direction() reservation.DirectionConfig {
	return reservation.DirectionConfig{CriticalHour: s.CriticalHour, MorningGoesOutbound: s.MorningGoesOutbound}
}

func (s Settings) Selector() reservation.Selector {
	return reservation.Selector{
		Routes: reservation.RouteTable{
			reservation.Outbound: s.OutboundRoutes,
			reservation.Return:   s.ReturnRoutes,
		},
		PastTolerance:   s.PastTolerance,
		FutureTolerance: s.FutureTolerance,
	}
}

// Resolver picks direction from location when locator is set, else from the clock.
func (s Settings) Resolver(locator reservation.Locator) reservation.LocationResolver {
	return reservation.LocationResolver{
		Locator:             locator,
		OutboundDestination: s.OutboundDestination,
		ReturnDestination:   s.ReturnDestination,
		Fallback:            s.Direction(),
	}
}

func (s Settings) LookupDelay() time.Duration {
	return time.Duration(s.LookupDelayMS) * time.Millisecond
}

// Aggregator returns a history aggregator using the configured markers.
func (s Settings) Aggregator() history.Aggregator {
	return history.Aggregator{
		CancelledStatus: s.CancelledStatus,
		OutboundMarker:  s.OutboundMarker,
		ReturnMarker:    s.ReturnMarker,
	}
}

func parseInts(value string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func parseCoordinate(value string) (reservation.Coordinate, error) {
	lat, lon, ok := strings.Cut(value, ",")
	if !ok {
		return reservation.Coordinate{}, errors.New(`want "lat,lon"`)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return reservation.Coordinate{}, err
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return reservation.Coordinate{}, err
	}
	return reservation.Coordinate{Lat: la, Lon: lo}, nil
}
