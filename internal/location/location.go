// Package location provides device-location sources and single-shot
// consumption of their updates.
package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/clima/internal/weather"
)

// ErrLocationUnknown is reported when no position could be determined.
var ErrLocationUnknown = errors.New("location unknown")

// Update is one position report, or the error that prevented it.
type Update struct {
	Coordinates weather.Coordinates
	Err         error
}

// Source delivers location updates until ctx is cancelled, then closes the channel.
type Source interface {
	Start(ctx context.Context) <-chan Update
}

// RequestOnce takes the first update from src and stops listening. Errors are
// always classified; unclassified source errors count as transport failures.
func RequestOnce(ctx context.Context, src Source) (weather.Coordinates, error) {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	select {
	case u, ok := <-src.Start(ctx):
		if !ok {
			return weather.Coordinates{}, weather.Transport(ErrLocationUnknown)
		}
		if u.Err != nil {
			return weather.Coordinates{}, classify(u.Err)
		}
		return u.Coordinates, nil
	case <-ctx.Done():
		return weather.Coordinates{}, weather.Transport(fmt.Errorf("%w: %v", ErrLocationUnknown, ctx.Err()))
	}
}

func classify(err error) error {
	var fe *weather.FetchError
	if errors.As(err, &fe) {
		return err
	}
	if errors.Is(err, weather.ErrPermissionDenied) {
		return weather.Permission(err)
	}
	return weather.Transport(err)
}

// Static reports the same coordinates continuously, like a device that keeps
// publishing fixes until told to stop.
type Static struct {
	Coordinates weather.Coordinates
}

func (s Static) Start(ctx context.Context) <-chan Update {
	return repeat(ctx, Update{Coordinates: s.Coordinates})
}

// Denied reports that location permission was refused.
type Denied struct{}

func (Denied) Start(ctx context.Context) <-chan Update {
	return repeat(ctx, Update{Err: weather.Permission(weather.ErrPermissionDenied)})
}

// Unknown reports that no position is available.
type Unknown struct{}

func (Unknown) Start(ctx context.Context) <-chan Update {
	return repeat(ctx, Update{Err: weather.Transport(ErrLocationUnknown)})
}

// GeocodeFunc resolves an address to coordinates.
type GeocodeFunc func(address geocoder.Address) (geocoder.Location, error)

// Geocoded resolves a fixed address through the Google geocoding API on
// every Start and then reports the result continuously.
type Geocoded struct {
	Address geocoder.Address
	Lookup  GeocodeFunc
}

// NewGeocoded creates a Geocoded source backed by kelvins/geocoder.
// The geocoder package keeps its API key in a package variable.
func NewGeocoded(apiKey, city, country string) *Geocoded {
	geocoder.ApiKey = apiKey
	return &Geocoded{
		Address: geocoder.Address{City: city, Country: country},
		Lookup:  geocoder.Geocoding,
	}
}

func (g *Geocoded) Start(ctx context.Context) <-chan Update {
	out := make(chan Update)
	go func() {
		defer close(out)

		loc, err := g.Lookup(g.Address)
		u := Update{Coordinates: weather.Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude}}
		if err != nil {
			u = Update{Err: weather.Transport(fmt.Errorf("geocode %s, %s: %w", g.Address.City, g.Address.Country, err))}
		}
		for {
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func repeat(ctx context.Context, u Update) <-chan Update {
	out := make(chan Update)
	go func() {
		defer close(out)
		for {
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
