package display

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/clima/internal/location"
	"github.com/i474232898/clima/internal/weather"
)

// ErrEmptyCity is returned by Search for a blank city name.
var ErrEmptyCity = errors.New("city name is required")

const defaultLocationTimeout = 30 * time.Second

// Controller owns the Fetcher and the Screen and drives the two fetch
// triggers: a city search and a current-location refresh.
type Controller struct {
	queue   *weather.MainQueue
	screen  *Screen
	fetcher *weather.Fetcher
	locator location.Source
	logger  *zap.Logger

	// LocationTimeout bounds how long RefreshLocation waits for a position.
	LocationTimeout time.Duration

	wg sync.WaitGroup
}

// New wires a Screen to a Fetcher through the main queue and returns the
// Controller for it. journal and logger may be nil.
func New(queue *weather.MainQueue, provider weather.Provider, locator location.Source, journal weather.Journal, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locator == nil {
		locator = location.Unknown{}
	}
	screen := NewScreen()
	fetcher := weather.NewFetcher(provider, weather.OnMain(queue, screen), journal, logger)
	return &Controller{
		queue:           queue,
		screen:          screen,
		fetcher:         fetcher,
		locator:         locator,
		logger:          logger,
		LocationTimeout: defaultLocationTimeout,
	}
}

// Search fetches weather for city. A blank name is refused before anything
// is shown, the way the search field refuses to end editing while empty.
func (c *Controller) Search(city string) error {
	if strings.TrimSpace(city) == "" {
		return ErrEmptyCity
	}
	c.logger.Debug("search requested", zap.String("city", city))
	c.fetcher.FetchByCity(city)
	return nil
}

// RefreshLocation shows the loading state, asks the locator for one position
// and fetches weather for it. It returns without waiting for either step.
func (c *Controller) RefreshLocation() {
	// Loading shows while the position is resolved. The coordinate fetch
	// reports started again, which re-shows the same loading state.
	c.queue.Dispatch(c.screen.OnFetchStarted)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.LocationTimeout)
		defer cancel()

		coords, err := location.RequestOnce(ctx, c.locator)
		if err != nil {
			c.logger.Warn("location request failed", zap.Stringer("kind", weather.KindOf(err)), zap.Error(err))
			c.queue.Dispatch(func() { c.screen.OnFetchFailed(err) })
			return
		}
		c.fetcher.FetchByCoordinates(coords.Latitude, coords.Longitude)
	}()
}

// DismissAlert clears the presented alert.
func (c *Controller) DismissAlert() {
	c.queue.Dispatch(c.screen.DismissAlert)
}

// View returns the current screen state, read on the main queue.
func (c *Controller) View() View {
	var v View
	c.queue.Sync(func() { v = c.screen.Snapshot() })
	return v
}

// Wait blocks until pending location requests and fetches have delivered
// their results to the main queue.
func (c *Controller) Wait() {
	c.wg.Wait()
	c.fetcher.Wait()
}
