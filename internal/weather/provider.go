package weather

import (
	"context"
	"time"
)

// Provider abstracts the remote weather API (OpenWeatherMap in production).
type Provider interface {
	Name() string
	// RequestURL builds the full request URL for loc without any I/O.
	RequestURL(loc Location) (string, error)
	// Fetch issues one GET against requestURL and decodes the body.
	Fetch(ctx context.Context, requestURL string) (Record, error)
}

// FetchOutcome is the journal entry written when a fetch completes.
type FetchOutcome struct {
	ID         string    `json:"id"`
	Provider   string    `json:"provider"`
	Location   string    `json:"location"`
	URL        string    `json:"url,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Record     *Record   `json:"record,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Journal is the contract the in-memory fetch journal must satisfy. It is
// diagnostic only; nothing reads weather back out of it.
type Journal interface {
	Append(outcome FetchOutcome)
	Recent(limit int) []FetchOutcome
	Get(id string) (FetchOutcome, error)
}
