package weather

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Record is the decoded result of one successful fetch. It is a value type;
// every receiver gets its own copy.
type Record struct {
	ConditionCode int     `json:"conditionCode"`
	CityName      string  `json:"cityName"`
	Temperature   float64 `json:"temperature"` // °F
}

// TemperatureString rounds half away from zero, so 72.5 renders as "73°F".
func (r Record) TemperatureString() string {
	return fmt.Sprintf("%d°F", int(math.Round(r.Temperature)))
}

// ConditionName returns the symbol name used by the display for the condition code.
func (r Record) ConditionName() string {
	code := r.ConditionCode
	switch {
	case code >= 200 && code <= 232:
		return "cloud.bolt"
	case code >= 300 && code <= 321:
		return "cloud.drizzle"
	case code >= 500 && code <= 531:
		return "cloud.rain"
	case code >= 600 && code <= 622:
		return "cloud.snow"
	case code >= 701 && code <= 781:
		return "cloud.fog"
	case code == 800:
		return "sun.max"
	default:
		return "cloud"
	}
}

// Condition maps the provider condition code onto a normalized category.
func (r Record) Condition() Condition {
	code := r.ConditionCode
	switch {
	case code >= 200 && code <= 232:
		return ConditionStorm
	case (code >= 300 && code <= 321) || (code >= 500 && code <= 531):
		return ConditionRain
	case code >= 600 && code <= 622:
		return ConditionSnow
	case code >= 701 && code <= 781:
		return ConditionMist
	case code == 800:
		return ConditionClear
	case code >= 801 && code <= 804:
		return ConditionCloudy
	default:
		return ConditionUnknown
	}
}

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"lat" validate:"latitude"`
	Longitude float64 `json:"lon" validate:"longitude"`
}

// Location identifies what a fetch asks for: a city name or a coordinate pair,
// never both.
type Location struct {
	City        string       `json:"city,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// CityLocation returns a Location that queries by city name.
func CityLocation(name string) Location {
	return Location{City: name}
}

// CoordinatesLocation returns a Location that queries by latitude and longitude.
func CoordinatesLocation(lat, lon float64) Location {
	return Location{Coordinates: &Coordinates{Latitude: lat, Longitude: lon}}
}

// Key returns a canonical string for logs and journal entries.
func (l Location) Key() string {
	if l.Coordinates != nil {
		return strconv.FormatFloat(l.Coordinates.Latitude, 'f', -1, 64) + "," +
			strconv.FormatFloat(l.Coordinates.Longitude, 'f', -1, 64)
	}
	return l.City
}

// Validate checks that exactly one of City or Coordinates is usable.
func (l Location) Validate() error {
	hasCity := strings.TrimSpace(l.City) != ""
	switch {
	case hasCity && l.Coordinates != nil:
		return InvalidData(fmt.Errorf("%w: both city and coordinates set", ErrInvalidLocation))
	case l.Coordinates != nil:
		if err := validate.Struct(l.Coordinates); err != nil {
			return InvalidData(fmt.Errorf("%w: %v", ErrInvalidLocation, err))
		}
		return nil
	case hasCity:
		return nil
	default:
		return InvalidData(fmt.Errorf("%w: city name is empty", ErrInvalidLocation))
	}
}

