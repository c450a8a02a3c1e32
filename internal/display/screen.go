// Package display is the single-screen presenter that triggers fetches and
// renders their results.
package display

import (
	"time"

	"github.com/i474232898/clima/internal/weather"
)

const (
	loadingCity     = "Loading Weather Data…"
	unavailableCity = "Weather Data Unavailable"
	placeholderTemp = "--"
	iconLoading     = "ellipsis"
	iconUnavailable = "questionmark"
)

// View is what the screen currently shows.
type View struct {
	City        string            `json:"city"`
	Temperature string            `json:"temperature"`
	Icon        string            `json:"icon"`
	Condition   weather.Condition `json:"condition,omitempty"`
	RequestURL  string            `json:"requestUrl,omitempty"`
	Alert       *Alert            `json:"alert,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Screen implements weather.Observer. Its methods mutate view state without
// locking and must only run on the main queue; wrap it with weather.OnMain.
type Screen struct {
	view View
	now  func() time.Time
}

// NewScreen returns a screen in the loading state.
func NewScreen() *Screen {
	s := &Screen{now: time.Now}
	s.showLoading()
	return s
}

func (s *Screen) OnFetchStarted() {
	s.view.Alert = nil
	s.showLoading()
}

func (s *Screen) OnRequestURLResolved(url string) {
	s.view.RequestURL = url
}

func (s *Screen) OnFetchSucceeded(record weather.Record) {
	s.view.City = record.CityName
	s.view.Temperature = record.TemperatureString()
	s.view.Icon = record.ConditionName()
	s.view.Condition = record.Condition()
	s.view.UpdatedAt = s.now().UTC()
}

func (s *Screen) OnFetchFailed(err error) {
	alert := AlertFor(err)
	s.view.Alert = &alert
	s.showUnavailable()
}

// DismissAlert clears the presented alert, if any.
func (s *Screen) DismissAlert() {
	s.view.Alert = nil
}

// Snapshot returns a copy of the current view.
func (s *Screen) Snapshot() View {
	v := s.view
	if v.Alert != nil {
		a := *v.Alert
		v.Alert = &a
	}
	return v
}

func (s *Screen) showLoading() {
	s.view.City = loadingCity
	s.view.Temperature = placeholderTemp
	s.view.Icon = iconLoading
	s.view.Condition = ""
	s.view.UpdatedAt = s.now().UTC()
}

func (s *Screen) showUnavailable() {
	s.view.City = unavailableCity
	s.view.Temperature = placeholderTemp
	s.view.Icon = iconUnavailable
	s.view.Condition = ""
	s.view.UpdatedAt = s.now().UTC()
}
