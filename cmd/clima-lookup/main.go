package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/i474232898/clima/internal/config"
	"github.com/i474232898/clima/internal/display"
	"github.com/i474232898/clima/internal/logging"
	"github.com/i474232898/clima/internal/weather"
	"github.com/i474232898/clima/internal/weather/providers"
)

func main() {
	var (
		city = flag.String("city", "", "City name to look up")
		lat  = flag.Float64("lat", 0, "Latitude (used with -lon when -city is empty)")
		lon  = flag.Float64("lon", 0, "Longitude (used with -lat when -city is empty)")
		url  = flag.Bool("url", false, "Print the request URL (API key redacted)")
	)
	flag.Parse()

	if *city == "" && !coordinatesSet() {
		fmt.Fprintln(os.Stderr, "error: use -city, or -lat and -lon")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.AppName, "error")
	defer func() { _ = log.Sync() }()

	provider := providers.NewOpenWeatherProvider(
		&http.Client{Timeout: cfg.HTTPTimeout}, cfg.OpenWeatherBaseURL, cfg.OpenWeatherAPIKey)

	queue := weather.NewMainQueue(8)
	defer queue.Close()

	failed := false
	fetcher := weather.NewFetcher(provider, weather.OnMain(queue, weather.ObserverFuncs{
		Started: func() { fmt.Println("Loading weather data…") },
		URLResolved: func(u string) {
			if *url {
				fmt.Println("Request:", providers.RedactURL(u))
			}
		},
		Succeeded: printRecord,
		Failed: func(err error) {
			failed = true
			alert := display.AlertFor(err)
			fmt.Fprintf(os.Stderr, "%s\n%s\n", alert.Title, alert.Message)
			log.Debug("lookup failed", zap.Error(err))
		},
	}), nil, log)

	if *city != "" {
		fetcher.FetchByCity(*city)
	} else {
		fetcher.FetchByCoordinates(*lat, *lon)
	}

	fetcher.Wait()
	// Drain the queue so every notification has printed.
	queue.Sync(func() {})

	if failed {
		os.Exit(1)
	}
}

func printRecord(r weather.Record) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "City:\t%s\n", r.CityName)
	fmt.Fprintf(tw, "Temperature:\t%s\n", r.TemperatureString())
	fmt.Fprintf(tw, "Condition:\t%s (%d, %s)\n", r.ConditionName(), r.ConditionCode, r.Condition())
	tw.Flush()
}

func coordinatesSet() bool {
	seen := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	return seen["lat"] && seen["lon"]
}
