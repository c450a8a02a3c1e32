package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/clima/internal/weather"
)

// DefaultOpenWeatherURL is the current-conditions endpoint.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// Units is fixed; the display only knows how to render Fahrenheit.
const Units = "imperial"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOpenWeatherProvider creates a provider. An empty baseURL selects DefaultOpenWeatherURL.
func NewOpenWeatherProvider(client *http.Client, baseURL, apiKey string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "?&"),
		client:  client,
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// RequestURL concatenates the base URL, API key, units and exactly one
// location parameter set: q, or lat and lon.
func (p *OpenWeatherProvider) RequestURL(loc weather.Location) (string, error) {
	if err := loc.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(p.baseURL)
	b.WriteString("?appid=")
	b.WriteString(url.QueryEscape(p.apiKey))
	b.WriteString("&units=")
	b.WriteString(Units)

	if loc.Coordinates != nil {
		b.WriteString("&lat=")
		b.WriteString(strconv.FormatFloat(loc.Coordinates.Latitude, 'f', -1, 64))
		b.WriteString("&lon=")
		b.WriteString(strconv.FormatFloat(loc.Coordinates.Longitude, 'f', -1, 64))
		return b.String(), nil
	}

	b.WriteString("&q=")
	b.WriteString(EncodeCityName(loc.City))
	return b.String(), nil
}

// Fetch issues one GET and decodes the body into a Record.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, requestURL string) (weather.Record, error) {
	resp, err := doRequest(ctx, p.client, p.circuit, requestURL)
	if err != nil {
		return weather.Record{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return weather.Record{}, classifyTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return weather.Record{}, weather.InvalidData(statusError(resp.StatusCode, body))
	}

	return DecodeRecord(body)
}

// EncodeCityName escapes a city name for the q parameter. Spaces become %20.
func EncodeCityName(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// DecodeCityName reverses the space encoding a provider may echo back.
func DecodeCityName(name string) string {
	return strings.ReplaceAll(name, "%20", " ")
}

// currentPayload mirrors the fields of the provider response we require.
// Pointers distinguish a missing field from a zero value.
type currentPayload struct {
	Weather []struct {
		ID *int `json:"id"`
	} `json:"weather"`
	Main *struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Name *string `json:"name"`
}

// DecodeRecord strictly decodes a current-conditions body. Malformed JSON, a
// type mismatch, a missing required field or an empty weather array is an
// invalid-data failure.
func DecodeRecord(body []byte) (weather.Record, error) {
	var payload currentPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Record{}, weather.InvalidData(fmt.Errorf("%w: %v", weather.ErrInvalidData, err))
	}

	switch {
	case len(payload.Weather) == 0:
		return weather.Record{}, invalidField("weather is empty")
	case payload.Weather[0].ID == nil:
		return weather.Record{}, invalidField("weather[0].id is missing")
	case payload.Main == nil || payload.Main.Temp == nil:
		return weather.Record{}, invalidField("main.temp is missing")
	case payload.Name == nil:
		return weather.Record{}, invalidField("name is missing")
	}

	return weather.Record{
		ConditionCode: *payload.Weather[0].ID,
		CityName:      DecodeCityName(*payload.Name),
		Temperature:   *payload.Main.Temp,
	}, nil
}

func invalidField(detail string) error {
	return weather.InvalidData(fmt.Errorf("%w: %s", weather.ErrInvalidData, detail))
}

// apiError is the provider's error body, e.g. {"cod":"404","message":"city not found"}.
type apiError struct {
	Cod     any    `json:"cod"`
	Message string `json:"message"`
}

func statusError(status int, body []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("%w: %d: %s", weather.ErrUnexpectedStatus, status, apiErr.Message)
	}
	return fmt.Errorf("%w: %d", weather.ErrUnexpectedStatus, status)
}

// RedactURL hides the appid value so the API key never leaves the process.
func RedactURL(u string) string {
	const param = "appid="
	i := strings.Index(u, param)
	if i < 0 {
		return u
	}
	start := i + len(param)
	end := strings.IndexByte(u[start:], '&')
	if end < 0 {
		return u[:start] + "REDACTED"
	}
	return u[:start] + "REDACTED" + u[start+end:]
}
