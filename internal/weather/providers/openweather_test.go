package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/clima/internal/weather"
)

const testAPIKey = "test-key"

const sampleResponse = `{"weather":[{"id":800}],"main":{"temp":72.5},"name":"London"}`

func newTestProvider(baseURL string) *OpenWeatherProvider {
	return NewOpenWeatherProvider(&http.Client{Timeout: 5 * time.Second}, baseURL, testAPIKey)
}

func TestRequestURLByCity(t *testing.T) {
	p := newTestProvider("https://api.example.test/data/2.5/weather")

	u, err := p.RequestURL(weather.CityLocation("New York"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "https://api.example.test/data/2.5/weather?appid=test-key&units=imperial&q=New%20York"
	if u != expected {
		t.Fatalf("expected %q, got %q", expected, u)
	}
}

func TestRequestURLCityHasSingleQuery(t *testing.T) {
	p := newTestProvider("")

	for _, city := range []string{"London", "New York", "Rio de Janeiro", "a q=b&lat=1", "São Paulo"} {
		u, err := p.RequestURL(weather.CityLocation(city))
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", city, err)
		}
		if !strings.HasPrefix(u, DefaultOpenWeatherURL+"?") {
			t.Errorf("%q: expected default base URL, got %q", city, u)
		}
		if n := strings.Count(u, "q="); n != 1 {
			t.Errorf("%q: expected exactly one q=, got %d in %q", city, n, u)
		}
		if strings.Contains(u, "lat=") || strings.Contains(u, "lon=") {
			t.Errorf("%q: expected no lat/lon in %q", city, u)
		}
		if strings.Contains(u, " ") || strings.Contains(u, "+") {
			t.Errorf("%q: expected spaces encoded as %%20 in %q", city, u)
		}
	}
}

func TestRequestURLByCoordinates(t *testing.T) {
	p := newTestProvider("https://api.example.test/weather")

	u, err := p.RequestURL(weather.CoordinatesLocation(37.7749, -122.4194))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "https://api.example.test/weather?appid=test-key&units=imperial&lat=37.7749&lon=-122.4194"
	if u != expected {
		t.Fatalf("expected %q, got %q", expected, u)
	}
	if strings.Contains(u, "q=") {
		t.Fatalf("expected no q= in %q", u)
	}
}

func TestRequestURLRejectsInvalidLocation(t *testing.T) {
	p := newTestProvider("")

	if _, err := p.RequestURL(weather.CityLocation("")); weather.KindOf(err) != weather.KindInvalidData {
		t.Fatalf("expected invalid data for empty city, got %v", err)
	}
	if _, err := p.RequestURL(weather.CoordinatesLocation(0, 200)); err == nil {
		t.Fatal("expected error for out-of-range longitude")
	}
}

func TestCityNameRoundTrip(t *testing.T) {
	encoded := EncodeCityName("New York")
	if encoded != "New%20York" {
		t.Fatalf("expected New%%20York, got %q", encoded)
	}
	if got := DecodeCityName(encoded); got != "New York" {
		t.Fatalf("expected New York, got %q", got)
	}
}

func TestDecodeRecordSample(t *testing.T) {
	r, err := DecodeRecord([]byte(sampleResponse))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ConditionCode != 800 {
		t.Errorf("expected condition 800, got %d", r.ConditionCode)
	}
	if r.Temperature != 72.5 {
		t.Errorf("expected temperature 72.5, got %f", r.Temperature)
	}
	if r.CityName != "London" {
		t.Errorf("expected London, got %s", r.CityName)
	}
	if got := r.TemperatureString(); got != "73°F" {
		t.Errorf("expected 73°F, got %s", got)
	}
	if got := r.ConditionName(); got != "sun.max" {
		t.Errorf("expected sun.max, got %s", got)
	}
}

func TestDecodeRecordUsesFirstCondition(t *testing.T) {
	body := `{"coord":{"lon":-0.13,"lat":51.51},"weather":[{"id":501,"main":"Rain"},{"id":701}],` +
		`"main":{"temp":55.2,"humidity":80},"name":"New%20York","cod":200}`
	r, err := DecodeRecord([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ConditionCode != 501 {
		t.Errorf("expected first condition 501, got %d", r.ConditionCode)
	}
	if r.CityName != "New York" {
		t.Errorf("expected decoded city name, got %q", r.CityName)
	}
}

func TestDecodeRecordFailures(t *testing.T) {
	cases := map[string]string{
		"empty weather":    `{"weather":[],"main":{"temp":72.5},"name":"London"}`,
		"missing weather":  `{"main":{"temp":72.5},"name":"London"}`,
		"missing id":       `{"weather":[{"main":"Clear"}],"main":{"temp":72.5},"name":"London"}`,
		"missing main":     `{"weather":[{"id":800}],"name":"London"}`,
		"missing temp":     `{"weather":[{"id":800}],"main":{},"name":"London"}`,
		"missing name":     `{"weather":[{"id":800}],"main":{"temp":72.5}}`,
		"id wrong type":    `{"weather":[{"id":"800"}],"main":{"temp":72.5},"name":"London"}`,
		"temp wrong type":  `{"weather":[{"id":800}],"main":{"temp":"warm"},"name":"London"}`,
		"weather not list": `{"weather":{"id":800},"main":{"temp":72.5},"name":"London"}`,
		"malformed":        `{"weather":[{"id":800}`,
		"empty body":       ``,
	}
	for name, body := range cases {
		_, err := DecodeRecord([]byte(body))
		if err == nil {
			t.Errorf("%s: expected error, got nil", name)
			continue
		}
		if weather.KindOf(err) != weather.KindInvalidData {
			t.Errorf("%s: expected invalid data kind, got %s", name, weather.KindOf(err))
		}
		if !errors.Is(err, weather.ErrInvalidData) {
			t.Errorf("%s: expected ErrInvalidData, got %v", name, err)
		}
	}
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("q"); got != "London" {
			t.Errorf("expected q=London, got %s", got)
		}
		if got := q.Get("appid"); got != testAPIKey {
			t.Errorf("expected appid=%s, got %s", testAPIKey, got)
		}
		if got := q.Get("units"); got != "imperial" {
			t.Errorf("expected units=imperial, got %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	u, err := p.RequestURL(weather.CityLocation("London"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, err := p.Fetch(context.Background(), u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.CityName != "London" || r.ConditionCode != 800 || r.Temperature != 72.5 {
		t.Fatalf("unexpected record %+v", r)
	}
}

func TestFetchEchoedCityNameRoundTrip(t *testing.T) {
	// Echo the raw q value back as the name, %20 and all.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.RawQuery
		i := strings.Index(raw, "q=")
		name := raw[i+2:]
		json.NewEncoder(w).Encode(map[string]any{
			"weather": []map[string]any{{"id": 803}},
			"main":    map[string]any{"temp": 61.0},
			"name":    name,
		})
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	u, _ := p.RequestURL(weather.CityLocation("New York"))
	if !strings.Contains(u, "q=New%20York") {
		t.Fatalf("expected encoded city in %q", u)
	}

	r, err := p.Fetch(context.Background(), u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.CityName != "New York" {
		t.Fatalf("expected New York, got %q", r.CityName)
	}
}

func TestFetchNotFoundIsInvalidData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Fetch(context.Background(), srv.URL+"?q=Nowhere")
	if err == nil {
		t.Fatal("expected error for 404 response, got nil")
	}
	if weather.KindOf(err) != weather.KindInvalidData {
		t.Fatalf("expected invalid data kind, got %s", weather.KindOf(err))
	}
	if !errors.Is(err, weather.ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
	if !strings.Contains(err.Error(), "city not found") {
		t.Fatalf("expected provider message in %q", err.Error())
	}
}

func TestFetchConnectionRefusedIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := newTestProvider(addr).Fetch(context.Background(), addr+"?q=London")
	if err == nil {
		t.Fatal("expected error for closed server, got nil")
	}
	if weather.KindOf(err) != weather.KindTransport {
		t.Fatalf("expected transport kind, got %s (%v)", weather.KindOf(err), err)
	}
	if !errors.Is(err, weather.ErrNoConnectivity) {
		t.Fatalf("expected ErrNoConnectivity, got %v", err)
	}
}

func TestFetchCancelledContextIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestProvider(srv.URL).Fetch(ctx, srv.URL)
	if weather.KindOf(err) != weather.KindTransport {
		t.Fatalf("expected transport kind, got %v", err)
	}
}

func TestCircuitOpensAfterConsecutiveServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := newTestProvider(srv.URL)
	for i := 0; i < 5; i++ {
		_, err := p.Fetch(context.Background(), srv.URL)
		if weather.KindOf(err) != weather.KindInvalidData || !errors.Is(err, weather.ErrUnexpectedStatus) {
			t.Fatalf("attempt %d: expected unexpected-status error, got %v", i, err)
		}
	}

	_, err := p.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, weather.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if weather.KindOf(err) != weather.KindTransport {
		t.Fatalf("expected transport kind, got %s", weather.KindOf(err))
	}
	if got := atomic.LoadInt32(&hits); got != 5 {
		t.Fatalf("expected 5 requests to reach the server, got %d", got)
	}
}

func TestFetcherTransportFailureNotifiesOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	var mu sync.Mutex
	var events []string
	var failure error
	obs := weather.ObserverFuncs{
		Started:     func() { mu.Lock(); events = append(events, "started"); mu.Unlock() },
		URLResolved: func(string) { mu.Lock(); events = append(events, "url"); mu.Unlock() },
		Succeeded:   func(weather.Record) { mu.Lock(); events = append(events, "succeeded"); mu.Unlock() },
		Failed: func(err error) {
			mu.Lock()
			events = append(events, "failed")
			failure = err
			mu.Unlock()
		},
	}

	f := weather.NewFetcher(newTestProvider(addr), obs, nil, nil)
	f.FetchByCity("London")
	f.Wait()

	want := []string{"started", "url", "failed"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, events)
		}
	}
	if weather.KindOf(failure) != weather.KindTransport {
		t.Fatalf("expected transport kind, got %v", failure)
	}
}

func TestRedactURL(t *testing.T) {
	cases := map[string]string{
		"https://x/weather?appid=secret&units=imperial&q=Paris": "https://x/weather?appid=REDACTED&units=imperial&q=Paris",
		"https://x/weather?appid=secret":                        "https://x/weather?appid=REDACTED",
		"https://x/weather?q=Paris":                             "https://x/weather?q=Paris",
		"":                                                      "",
	}
	for in, want := range cases {
		if got := RedactURL(in); got != want {
			t.Errorf("RedactURL(%q): expected %q, got %q", in, want, got)
		}
	}
}
