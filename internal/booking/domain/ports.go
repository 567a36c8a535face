package domain

import (
	"context"
	"time"
)

// Store owns the persisted document. Load returns the full document (or an
// empty default when nothing exists yet); Mutate runs fn on the current
// document and durably persists the result before returning. Mutations are
// serialized behind a single point so read-modify-write sequences never
// interleave.
type Store interface {
	Load(ctx context.Context) (Document, error)
	Mutate(ctx context.Context, fn func(doc *Document) error) error
}

// Notifier delivers an email. Best-effort: failures are isolated from the
// core transaction that triggered them.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Hasher hides the credential hashing scheme.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// RouteEstimate is the estimator collaborator's output for one trip.
type RouteEstimate struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Estimator is the opaque distance & route collaborator.
type Estimator interface {
	Estimate(ctx context.Context, origin, destination string, departure time.Time) (RouteEstimate, error)
}

// Publisher is the push channel as seen from the core: fire-and-forget
// fan-out of change events to whoever is listening right now.
type Publisher interface {
	Publish(event any)
}
