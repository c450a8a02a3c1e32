package display

import "github.com/i474232898/clima/internal/weather"

// Alert is the dialog presented for a failed fetch or location request.
type Alert struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// AlertFor picks the dialog text from the error classification.
func AlertFor(err error) Alert {
	kind := weather.KindOf(err)
	switch kind {
	case weather.KindTransport:
		return Alert{
			Kind:    kind.String(),
			Title:   "No internet connection",
			Message: "Please check your internet connection and try again.",
		}
	case weather.KindPermission:
		return Alert{
			Kind:    kind.String(),
			Title:   "Location permissions denied",
			Message: "Please check your location settings and try again.",
		}
	default:
		return Alert{
			Kind:    kind.String(),
			Title:   "Invalid data",
			Message: "Try checking the entered city name. Press the location button to return to your current location's data.",
		}
	}
}
