package weather

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fetcher turns fetch intents into provider calls and reports every step to a
// single Observer. Each call is independent: there is no deduplication, no
// cancellation and no ordering between overlapping fetches, so a slow earlier
// response can be delivered after a newer one.
type Fetcher struct {
	provider Provider
	observer Observer
	journal  Journal
	logger   *zap.Logger

	wg sync.WaitGroup
}

// NewFetcher creates a Fetcher. journal and logger may be nil.
func NewFetcher(provider Provider, observer Observer, journal Journal, logger *zap.Logger) *Fetcher {
	if observer == nil {
		observer = ObserverFuncs{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		provider: provider,
		observer: observer,
		journal:  journal,
		logger:   logger,
	}
}

// FetchByCity fetches current weather for a city name. The result is delivered
// to the observer; the call returns as soon as OnFetchStarted has fired.
func (f *Fetcher) FetchByCity(name string) {
	f.fetch(CityLocation(name))
}

// FetchByCoordinates fetches current weather for a latitude/longitude pair.
func (f *Fetcher) FetchByCoordinates(lat, lon float64) {
	f.fetch(CoordinatesLocation(lat, lon))
}

// Wait blocks until every fetch started so far has delivered its terminal notification.
func (f *Fetcher) Wait() {
	f.wg.Wait()
}

func (f *Fetcher) fetch(loc Location) {
	id := uuid.NewString()
	f.observer.OnFetchStarted()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.run(id, loc)
	}()
}

func (f *Fetcher) run(id string, loc Location) {
	outcome := FetchOutcome{
		ID:        id,
		Provider:  f.provider.Name(),
		Location:  loc.Key(),
		StartedAt: time.Now().UTC(),
	}
	log := f.logger.With(zap.String("fetch_id", id), zap.String("location", loc.Key()))
	log.Debug("fetch started")

	record, err := f.perform(&outcome, loc)
	outcome.FinishedAt = time.Now().UTC()
	latency := outcome.FinishedAt.Sub(outcome.StartedAt)

	if err != nil {
		err = Classify(err)
		kind := KindOf(err)
		outcome.Kind = kind.String()
		outcome.Error = err.Error()
		f.record(outcome)
		log.Warn("fetch failed", zap.Stringer("kind", kind), zap.Duration("latency", latency), zap.Error(err))
		f.observer.OnFetchFailed(err)
		return
	}

	outcome.Record = &record
	f.record(outcome)
	log.Info("fetch succeeded",
		zap.String("city", record.CityName),
		zap.Int("condition_code", record.ConditionCode),
		zap.Float64("temperature", record.Temperature),
		zap.Duration("latency", latency),
	)
	f.observer.OnFetchSucceeded(record)
}

// perform resolves the URL and runs the provider call. A panic anywhere in the
// provider path becomes an invalid-data failure.
func (f *Fetcher) perform(outcome *FetchOutcome, loc Location) (record Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			record = Record{}
			err = InvalidData(fmt.Errorf("%w: recovered from panic: %v", ErrInvalidData, r))
		}
	}()

	if err := loc.Validate(); err != nil {
		return Record{}, err
	}

	requestURL, err := f.provider.RequestURL(loc)
	if err != nil {
		return Record{}, err
	}
	outcome.URL = requestURL
	f.observer.OnRequestURLResolved(requestURL)

	return f.provider.Fetch(context.Background(), requestURL)
}

func (f *Fetcher) record(outcome FetchOutcome) {
	if f.journal != nil {
		f.journal.Append(outcome)
	}
}
