package batch

import (
	"time"

	"github.com/google/uuid"
)

// IDGenerator creates batch identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 batch IDs, so recorded
// batches sort by start time.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 in hyphenated form. It panics if the random
// source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Clock supplies the current time for execution contexts and timings.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
